// Command simulator drives the voice webhooks the way Twilio would, so a
// conversation can be tried from a terminal without placing a real call.
//
// Usage:
//
//	go run ./cmd/simulator --base=http://localhost:8000 --title="Zahnreinigung"
//
// Webhook signature validation must be off on the target server.
package main

import (
	"bufio"
	"encoding/xml"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// step is what one TwiML document asks the caller side to do.
type step struct {
	Lines  []string // spoken text, or audio URLs prefixed with "audio: "
	Action string   // next webhook; empty means the call ended
}

func main() {
	_ = godotenv.Load()

	base := flag.String("base", envOr("PUBLIC_BASE_URL", "http://localhost:8000"), "server base URL")
	requestID := flag.String("request-id", "", "request id passed to /voice")
	title := flag.String("title", "", "appointment title passed to /voice")
	description := flag.String("description", "", "appointment description passed to /voice")
	play := flag.Bool("play", false, "play synthesized audio with mpg123 or ffplay")
	flag.Parse()

	baseURL := strings.TrimRight(*base, "/")
	sim := simulator{
		base:    baseURL,
		callSID: "CA" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		http:    &http.Client{Timeout: 60 * time.Second},
		play:    *play,
	}

	fmt.Println("Voice booking simulator")
	fmt.Println("-----------------------")
	fmt.Println("call", sim.callSID, "against", baseURL)

	q := url.Values{}
	for k, v := range map[string]string{"request_id": *requestID, "title": *title, "description": *description} {
		if v != "" {
			q.Set(k, v)
		}
	}
	voiceURL := baseURL + "/voice"
	if len(q) > 0 {
		voiceURL += "?" + q.Encode()
	}

	if err := sim.run(voiceURL, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "simulator:", err)
		os.Exit(1)
	}
}

type simulator struct {
	base    string
	callSID string
	http    *http.Client
	play    bool
}

func (s simulator) run(startURL string, in io.Reader, out io.Writer) error {
	defer func() { _, _ = s.post(s.base+"/status", url.Values{"CallStatus": {"completed"}}) }()

	body, err := s.post(startURL, nil)
	if err != nil {
		return err
	}
	scanner := bufio.NewScanner(in)
	for {
		st, err := parseTwiML(body)
		if err != nil {
			return err
		}
		for _, line := range st.Lines {
			fmt.Fprintln(out, "Assistant:", line)
			if audio, ok := strings.CutPrefix(line, "audio: "); ok && s.play {
				if err := s.playAudio(audio); err != nil {
					fmt.Fprintln(out, "(audio not played:", err, ")")
				}
			}
		}
		if st.Action == "" {
			fmt.Fprintln(out, "Call ended.")
			return nil
		}

		fmt.Fprint(out, "You: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(text) {
		case "q", "quit", "exit":
			fmt.Fprintln(out, "Call ended by user.")
			return nil
		}

		form := url.Values{"SpeechResult": {text}}
		if len(text) == 1 && strings.ContainsAny(text, "0123456789*#") {
			form = url.Values{"Digits": {text}}
		}
		body, err = s.post(s.resolve(st.Action), form)
		if err != nil {
			return err
		}
	}
}

func (s simulator) post(target string, form url.Values) ([]byte, error) {
	if form == nil {
		form = url.Values{}
	}
	form.Set("CallSid", s.callSID)
	resp, err := s.http.PostForm(target, form)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s: %s", target, resp.Status)
	}
	return b, nil
}

func (s simulator) resolve(action string) string {
	if strings.HasPrefix(action, "http://") || strings.HasPrefix(action, "https://") {
		return action
	}
	return s.base + "/" + strings.TrimLeft(action, "/")
}

func (s simulator) playAudio(audioURL string) error {
	player, args := "", []string(nil)
	if p, err := exec.LookPath("mpg123"); err == nil {
		player, args = p, []string{"-q"}
	} else if p, err := exec.LookPath("ffplay"); err == nil {
		player, args = p, []string{"-nodisp", "-autoexit", "-loglevel", "quiet"}
	} else {
		return errors.New("no mpg123 or ffplay on PATH")
	}

	resp, err := s.http.Get(s.resolve(audioURL))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("audio fetch: %s", resp.Status)
	}
	f, err := os.CreateTemp("", "sim-*.mp3")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return exec.Command(player, append(args, f.Name())...).Run()
}

type twimlNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr  `xml:",any,attr"`
	Text     string      `xml:",chardata"`
	Children []twimlNode `xml:",any"`
}

// parseTwiML flattens Say and Play verbs in document order and returns the
// Gather action, if any.
func parseTwiML(body []byte) (step, error) {
	var root twimlNode
	if err := xml.Unmarshal(body, &root); err != nil {
		return step{}, fmt.Errorf("bad twiml: %w", err)
	}
	var st step
	var walk func(nodes []twimlNode)
	walk = func(nodes []twimlNode) {
		for _, n := range nodes {
			text := strings.TrimSpace(n.Text)
			switch n.XMLName.Local {
			case "Say":
				if text != "" {
					st.Lines = append(st.Lines, text)
				}
			case "Play":
				if text != "" {
					st.Lines = append(st.Lines, "audio: "+text)
				}
			case "Gather":
				walk(n.Children)
				st.Action = "/gather"
				for _, a := range n.Attrs {
					if a.Name.Local == "action" && a.Value != "" {
						st.Action = a.Value
					}
				}
			}
		}
	}
	walk(root.Children)
	return st, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
