package telephony

import (
	"bytes"
	"encoding/xml"

	"voice-booking/internal/conversation"
)

// TwiML is a minimal Twilio Markup Language response builder.
// Only the verbs the booking dialogue needs are modelled.

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlPlay struct {
	XMLName xml.Name `xml:"Play"`
	URL     string   `xml:",chardata"`
}

type twimlSay struct {
	XMLName  xml.Name `xml:"Say"`
	Language string   `xml:"language,attr,omitempty"`
	Text     string   `xml:",chardata"`
}

type twimlGather struct {
	XMLName             xml.Name `xml:"Gather"`
	Input               string   `xml:"input,attr"`
	Action              string   `xml:"action,attr"`
	Method              string   `xml:"method,attr"`
	Timeout             int      `xml:"timeout,attr"`
	SpeechTimeout       string   `xml:"speechTimeout,attr"`
	ActionOnEmptyResult bool     `xml:"actionOnEmptyResult,attr"`
	NumDigits           int      `xml:"numDigits,attr"`
	Language            string   `xml:"language,attr,omitempty"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// GatherOptions configures the listening step that follows every utterance.
type GatherOptions struct {
	Action   string
	Language string
	Timeout  int
}

func DefaultGather(language string) GatherOptions {
	return GatherOptions{Action: "/gather", Language: language, Timeout: 10}
}

func (g GatherOptions) verb() twimlGather {
	action := g.Action
	if action == "" {
		action = "/gather"
	}
	timeout := g.Timeout
	if timeout <= 0 {
		timeout = 10
	}
	return twimlGather{
		Input:               "speech dtmf",
		Action:              action,
		Method:              "POST",
		Timeout:             timeout,
		SpeechTimeout:       "auto",
		ActionOnEmptyResult: true,
		NumDigits:           1,
		Language:            g.Language,
	}
}

// RenderTurn maps a conversation turn to TwiML: the utterance (or a spoken
// reprompt) followed by a Gather that posts the caller's answer back.
func RenderTurn(res conversation.TurnResult, g GatherOptions) (string, error) {
	var r twimlResponse
	switch {
	case res.Reprompt != "":
		r.Verbs = append(r.Verbs, twimlSay{Language: g.Language, Text: res.Reprompt})
	case res.AudioURL != "":
		r.Verbs = append(r.Verbs, twimlPlay{URL: res.AudioURL})
	}
	r.Verbs = append(r.Verbs, g.verb())
	return render(r)
}

// RenderHangup says message (when set) and ends the call.
func RenderHangup(message, language string) (string, error) {
	var r twimlResponse
	if message != "" {
		r.Verbs = append(r.Verbs, twimlSay{Language: language, Text: message})
	}
	r.Verbs = append(r.Verbs, twimlHangup{})
	return render(r)
}

func render(r twimlResponse) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
