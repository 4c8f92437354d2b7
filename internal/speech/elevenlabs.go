package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	elevenlabs "github.com/agentplexus/go-elevenlabs"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// ErrNotConfigured is returned when synthesis is requested without an API key.
var ErrNotConfigured = errors.New("speech: synthesizer not configured (ELEVENLABS_API_KEY missing)")

var tracer = otel.Tracer("voice-booking.internal.speech")

const (
	defaultOutputFormat = "mp3_44100_128"
	maxAudioBytes       = 10 << 20
)

// Synthesizer turns text into playable audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// textToSpeech is the part of the ElevenLabs SDK used here.
type textToSpeech interface {
	Generate(ctx context.Context, req *elevenlabs.TTSRequest) (*elevenlabs.TTSResponse, error)
}

// ElevenLabs synthesizes speech with the ElevenLabs text-to-speech API.
type ElevenLabs struct {
	VoiceID      string
	ModelID      string
	OutputFormat string

	tts textToSpeech
}

func NewElevenLabs(apiKey, voiceID, modelID string) (*ElevenLabs, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNotConfigured
	}
	client, err := elevenlabs.NewClient(elevenlabs.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("speech: elevenlabs client: %w", err)
	}
	return &ElevenLabs{
		VoiceID:      voiceID,
		ModelID:      modelID,
		OutputFormat: defaultOutputFormat,
		tts:          client.TextToSpeech(),
	}, nil
}

func (e *ElevenLabs) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if e == nil || e.tts == nil {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("speech: text required")
	}
	if e.VoiceID == "" {
		return nil, errors.New("speech: voice id required")
	}

	ctx, span := tracer.Start(ctx, "speech.elevenlabs.synthesize")
	defer span.End()
	span.SetAttributes(attribute.String("speech.voice_id", e.VoiceID), attribute.Int("speech.chars", len(text)))

	format := e.OutputFormat
	if format == "" {
		format = defaultOutputFormat
	}
	resp, err := e.tts.Generate(ctx, &elevenlabs.TTSRequest{
		VoiceID:      e.VoiceID,
		Text:         text,
		ModelID:      e.ModelID,
		OutputFormat: format,
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("speech: elevenlabs synthesis failed: %w", err)
	}
	if resp == nil || resp.Audio == nil {
		return nil, errors.New("speech: elevenlabs returned no audio")
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Audio, maxAudioBytes))
	if err != nil {
		return nil, fmt.Errorf("speech: read audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, errors.New("speech: elevenlabs returned no audio")
	}
	return audio, nil
}
