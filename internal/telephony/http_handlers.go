package telephony

import (
	"context"
	"errors"
	"net/http"
	"time"

	"voice-booking/internal/conversation"
	"voice-booking/internal/observability/metrics"
	"voice-booking/internal/speech"
	"voice-booking/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Conversation is the dialogue engine behind the voice webhooks.
type Conversation interface {
	Start(ctx context.Context, in conversation.StartInput) (conversation.TurnResult, error)
	Reply(ctx context.Context, in conversation.ReplyInput) (conversation.TurnResult, error)
	End(ctx context.Context, callSID string) (conversation.EndResult, error)
}

// CallStatusUpdate is one status callback, with the transcript summary once the call is over.
type CallStatusUpdate struct {
	CallSID    string
	RequestID  string
	CallStatus string
	Final      bool
	Summary    string
	Booked     bool
}

// StatusRecorder persists call progress against the booking request.
type StatusRecorder interface {
	RecordCallStatus(ctx context.Context, u CallStatusUpdate) error
}

const technicalDifficulty = "Sorry, we are having technical difficulties. Goodbye."

// VoiceWebhookHandler converts Twilio webhooks to conversation turns and writes TwiML.
//
// No dialogue logic here.
type VoiceWebhookHandler struct {
	Conversation Conversation
	Audio        *speech.AudioStore
	Status       StatusRecorder
	Gather       GatherOptions
	Metrics      *metrics.VoiceMetrics
}

func (h *VoiceWebhookHandler) HandleVoice(c *gin.Context) {
	start := time.Now()
	log := logger.FromGin(c)

	form, err := ParseVoiceForm(c.Request)
	if err != nil || form.CallSid == "" {
		log.Warn("voice webhook without call", "err", err)
		h.hangup(c, "voice", start)
		return
	}

	res, err := h.Conversation.Start(c.Request.Context(), conversation.StartInput{
		CallSID: form.CallSid,
		Context: conversation.CallContext{
			RequestID:   form.RequestID,
			Title:       form.Title,
			Description: form.Description,
		},
	})
	if err != nil {
		log.Error("conversation start failed", "call_sid", form.CallSid, "err", err)
		h.reprompt(c, "voice", start)
		return
	}
	h.turn(c, "voice", res, start)
}

func (h *VoiceWebhookHandler) HandleGather(c *gin.Context) {
	start := time.Now()
	log := logger.FromGin(c)

	form, err := ParseVoiceForm(c.Request)
	if err != nil || form.CallSid == "" {
		log.Warn("gather webhook without call", "err", err)
		h.hangup(c, "gather", start)
		return
	}

	res, err := h.Conversation.Reply(c.Request.Context(), conversation.ReplyInput{
		CallSID: form.CallSid,
		Speech:  form.SpeechResult,
		Digits:  form.Digits,
	})
	if err != nil {
		log.Error("conversation reply failed", "call_sid", form.CallSid, "err", err)
		h.reprompt(c, "gather", start)
		return
	}
	h.turn(c, "gather", res, start)
}

// HandleStatus receives Twilio status callbacks. A final status ends the
// conversation: the transcript is summarised and the session dropped.
func (h *VoiceWebhookHandler) HandleStatus(c *gin.Context) {
	start := time.Now()
	ctx := c.Request.Context()

	form, err := ParseVoiceForm(c.Request)
	if err != nil || form.CallSid == "" {
		h.Metrics.ObserveWebhook("status", "invalid", time.Since(start).Seconds())
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid status callback"})
		return
	}
	log := logger.ForCall(logger.FromGin(c), form.CallSid, form.RequestID)

	u := CallStatusUpdate{
		CallSID:    form.CallSid,
		RequestID:  form.RequestID,
		CallStatus: form.CallStatus,
		Final:      IsFinalStatus(form.CallStatus),
	}
	if u.Final {
		end, err := h.Conversation.End(ctx, form.CallSid)
		switch {
		case err == nil:
			u.Summary, u.Booked = end.Summary, end.Booked
			if u.RequestID == "" {
				u.RequestID = end.Session.RequestID
			}
		case errors.Is(err, conversation.ErrSessionNotFound):
			// no-answer and busy calls never reach /voice
		default:
			log.Error("conversation end failed", "err", err)
		}
	}

	if h.Status != nil && u.RequestID != "" {
		if err := h.Status.RecordCallStatus(ctx, u); err != nil {
			log.Error("call status not recorded", "status", u.CallStatus, "err", err)
		}
	}

	log.Info("call status", "status", u.CallStatus, "final", u.Final, "booked", u.Booked)
	h.Metrics.ObserveWebhook("status", u.CallStatus, time.Since(start).Seconds())
	c.Status(http.StatusNoContent)
}

// ServeAudio streams a synthesized utterance for a Play verb.
func (h *VoiceWebhookHandler) ServeAudio(c *gin.Context) {
	if h.Audio == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	p, err := h.Audio.Path(c.Param("filename"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.Header("Content-Type", "audio/mpeg")
	c.File(p)
}

func (h *VoiceWebhookHandler) turn(c *gin.Context, route string, res conversation.TurnResult, start time.Time) {
	twiml, err := RenderTurn(res, h.Gather)
	if err != nil {
		logger.FromGin(c).Error("twiml render failed", "err", err)
		h.hangup(c, route, start)
		return
	}
	outcome := "ok"
	if res.Fallback {
		outcome = "fallback"
	} else if res.Reprompt != "" {
		outcome = "reprompt"
	}
	h.Metrics.ObserveWebhook(route, outcome, time.Since(start).Seconds())
	writeTwiML(c, twiml)
}

// reprompt keeps the call open after a failed turn: the caller is asked to
// repeat and the next Gather retries.
func (h *VoiceWebhookHandler) reprompt(c *gin.Context, route string, start time.Time) {
	twiml, err := RenderTurn(conversation.TurnResult{Reprompt: conversation.RepromptText}, h.Gather)
	if err != nil {
		h.hangup(c, route, start)
		return
	}
	h.Metrics.ObserveWebhook(route, "error", time.Since(start).Seconds())
	writeTwiML(c, twiml)
}

// hangup ends a call the webhook cannot attribute to a spoken apology instead of an HTTP error.
func (h *VoiceWebhookHandler) hangup(c *gin.Context, route string, start time.Time) {
	h.Metrics.ObserveWebhook(route, "error", time.Since(start).Seconds())
	twiml, err := RenderHangup(technicalDifficulty, h.Gather.Language)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "twiml failed"})
		return
	}
	writeTwiML(c, twiml)
}

func writeTwiML(c *gin.Context, twiml string) {
	c.Header("Content-Type", "application/xml")
	c.String(http.StatusOK, twiml)
}
