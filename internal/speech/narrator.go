package speech

import (
	"context"
	"strings"
)

// Narrator synthesizes text, stores the audio and returns the public URL the
// telephony platform fetches before playing it.
type Narrator struct {
	Synth   Synthesizer
	Store   *AudioStore
	BaseURL string
}

func (n *Narrator) Narrate(ctx context.Context, text string) (string, error) {
	if n == nil || n.Synth == nil {
		return "", ErrNotConfigured
	}
	audio, err := n.Synth.Synthesize(ctx, text)
	if err != nil {
		return "", err
	}
	name, err := n.Store.Save(audio)
	if err != nil {
		return "", err
	}
	return AudioURL(n.BaseURL, name), nil
}

// AudioURL is the retrieval URL for a stored file.
func AudioURL(baseURL, name string) string {
	return strings.TrimRight(baseURL, "/") + "/audio/" + name
}
