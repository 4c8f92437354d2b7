package conversation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"voice-booking/internal/observability/metrics"
	"voice-booking/pkg/logger"
)

var ErrMissingCallSID = errors.New("conversation: CallSid required")

// ContextSource loads the booking context of a stored request.
type ContextSource interface {
	LoadCallContext(ctx context.Context, requestID string) (CallContext, error)
}

// Narrator turns assistant text into a playable audio URL.
type Narrator interface {
	Narrate(ctx context.Context, text string) (string, error)
}

// TurnResult is what the call should hear next.
// AudioURL is empty when synthesis failed; Reprompt is set when the caller said nothing.
type TurnResult struct {
	Text     string
	AudioURL string
	Reprompt string
	Fallback bool
}

type StartInput struct {
	CallSID string
	Context CallContext
}

type ReplyInput struct {
	CallSID string
	Speech  string
	Digits  string
}

// EndResult describes a finished call.
type EndResult struct {
	Session *Session
	Summary string
	Booked  bool
}

// Engine drives the per-call dialogue across webhook callbacks.
type Engine struct {
	Store    Store
	Agent    Agent
	Voice    Narrator
	Contexts ContextSource
	Metrics  *metrics.VoiceMetrics
	Now      func() time.Time
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Start opens the conversation of a new call.
func (e *Engine) Start(ctx context.Context, in StartInput) (TurnResult, error) {
	if in.CallSID == "" {
		return TurnResult{}, ErrMissingCallSID
	}
	log := logger.ForCall(logger.From(ctx), in.CallSID, in.Context.RequestID)

	cc := in.Context
	if (cc.Title == "" || cc.Description == "") && cc.RequestID != "" && e.Contexts != nil {
		stored, err := e.Contexts.LoadCallContext(ctx, cc.RequestID)
		if err != nil {
			log.Warn("request context unavailable, using defaults", "error", err)
		} else {
			cc = cc.merge(stored)
		}
	}
	cc = cc.WithDefaults()

	sess := &Session{CallSID: in.CallSID, RequestID: cc.RequestID, Context: cc}

	text, err := e.Agent.Opening(ctx, cc)
	fallback := false
	if err != nil {
		log.Error("opening generation failed", "error", err)
		e.Metrics.CollaboratorFailed("llm", "opening")
		text, fallback = FallbackOpening, true
	}
	sess.Append(RoleAssistant, text, e.now())

	if err := e.Store.Save(ctx, sess); err != nil {
		return TurnResult{}, err
	}

	return TurnResult{Text: text, AudioURL: e.narrate(ctx, log, text, "opening"), Fallback: fallback}, nil
}

// Reply handles one gathered caller input.
func (e *Engine) Reply(ctx context.Context, in ReplyInput) (TurnResult, error) {
	if in.CallSID == "" {
		return TurnResult{}, ErrMissingCallSID
	}
	log := logger.ForCall(logger.From(ctx), in.CallSID, "")

	input := CallerInput(in.Speech, in.Digits)
	if input == "" {
		return TurnResult{Reprompt: RepromptText}, nil
	}

	sess, err := e.Store.Get(ctx, in.CallSID)
	if errors.Is(err, ErrSessionNotFound) {
		log.Warn("no session for call, continuing with default context")
		sess = &Session{CallSID: in.CallSID, Context: CallContext{}.WithDefaults()}
	} else if err != nil {
		return TurnResult{}, err
	}
	log = logger.ForCall(logger.From(ctx), in.CallSID, sess.RequestID)

	sess.Append(RoleCaller, input, e.now())

	text, err := e.Agent.Reply(ctx, sess.Context, sess.Recent(HistoryWindow), input)
	fallback := false
	if err != nil {
		log.Error("reply generation failed", "error", err)
		e.Metrics.CollaboratorFailed("llm", "reply")
		text, fallback = FallbackReply, true
	}
	sess.Append(RoleAssistant, text, e.now())

	if err := e.Store.Save(ctx, sess); err != nil {
		return TurnResult{}, err
	}

	return TurnResult{Text: text, AudioURL: e.narrate(ctx, log, text, "reply"), Fallback: fallback}, nil
}

// End summarises the call and forgets its session.
func (e *Engine) End(ctx context.Context, callSID string) (EndResult, error) {
	sess, err := e.Store.Get(ctx, callSID)
	if err != nil {
		return EndResult{}, err
	}
	log := logger.ForCall(logger.From(ctx), callSID, sess.RequestID)

	raw, err := e.Agent.Summarize(ctx, sess.Turns)
	if err != nil {
		log.Error("summary generation failed", "error", err)
		e.Metrics.CollaboratorFailed("llm", "summary")
		raw = fallbackSummary
	}
	booked, summary := ParseSummary(raw)

	if err := e.Store.Delete(ctx, callSID); err != nil {
		log.Warn("session delete failed", "error", err)
	}
	return EndResult{Session: sess, Summary: summary, Booked: booked}, nil
}

func (e *Engine) narrate(ctx context.Context, log *slog.Logger, text, stage string) string {
	if e.Voice == nil {
		return ""
	}
	url, err := e.Voice.Narrate(ctx, text)
	if err != nil {
		log.Error("speech synthesis failed", "stage", stage, "error", err)
		e.Metrics.CollaboratorFailed("speech", stage)
		return ""
	}
	return url
}

// CallerInput normalises gathered input. Keypad-only input becomes "pressed key <d>".
func CallerInput(speech, digits string) string {
	if s := strings.TrimSpace(speech); s != "" {
		return s
	}
	if d := strings.TrimSpace(digits); d != "" {
		return "pressed key " + d
	}
	return ""
}
