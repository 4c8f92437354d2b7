package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func TestParseTwiML_TurnWithGather(t *testing.T) {
	body := `<?xml version="1.0" encoding="UTF-8"?>
<Response><Play>https://calls.example.com/audio/tts-1.mp3</Play><Gather input="speech dtmf" action="https://calls.example.com/gather" method="POST"></Gather></Response>`

	st, err := parseTwiML([]byte(body))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(st.Lines) != 1 || st.Lines[0] != "audio: https://calls.example.com/audio/tts-1.mp3" {
		t.Fatalf("unexpected lines %v", st.Lines)
	}
	if st.Action != "https://calls.example.com/gather" {
		t.Fatalf("unexpected action %q", st.Action)
	}
}

func TestParseTwiML_Hangup(t *testing.T) {
	st, err := parseTwiML([]byte(`<Response><Say>Goodbye.</Say><Hangup></Hangup></Response>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if st.Action != "" || len(st.Lines) != 1 || st.Lines[0] != "Goodbye." {
		t.Fatalf("unexpected step %+v", st)
	}
}

func TestRun_ConversationUntilQuit(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		mu.Lock()
		paths = append(paths, r.URL.Path+":"+r.PostForm.Get("SpeechResult")+r.PostForm.Get("Digits"))
		mu.Unlock()
		if r.PostForm.Get("CallSid") == "" {
			http.Error(w, "missing CallSid", http.StatusBadRequest)
			return
		}
		switch r.URL.Path {
		case "/voice", "/gather":
			_, _ = w.Write([]byte(`<Response><Say>Hello there.</Say><Gather action="/gather"></Gather></Response>`))
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	sim := simulator{base: srv.URL, callSID: "CAtest", http: srv.Client()}
	var out bytes.Buffer
	err := sim.run(srv.URL+"/voice", strings.NewReader("Tuesday works\n1\nquit\n"), &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	want := []string{"/voice:", "/gather:Tuesday works", "/gather:1", "/status:"}
	if strings.Join(paths, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected requests %v", paths)
	}
	if !strings.Contains(out.String(), "Call ended by user.") {
		t.Fatalf("unexpected output %q", out.String())
	}
}
