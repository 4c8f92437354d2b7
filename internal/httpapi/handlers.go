package httpapi

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"voice-booking/internal/auth"
	"voice-booking/internal/calls"
	"voice-booking/internal/contacts"
	"voice-booking/internal/events"
	"voice-booking/internal/profiles"
	"voice-booking/internal/telephony"
	"voice-booking/pkg/logger"
	"voice-booking/pkg/utils"

	"github.com/gin-gonic/gin"
)

type CallSubmitter interface {
	Submit(ctx context.Context, req calls.CallRequest) (calls.Outcome, error)
	Timeline(ctx context.Context, requestID string) ([]events.Event, error)
}

type ContactSuggester interface {
	Suggest(ctx context.Context, userID, description string, radiusKm int) contacts.Result
}

type RequestLookup interface {
	GetRequest(ctx context.Context, id string) (profiles.Request, error)
}

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Calls    CallSubmitter
	Contacts ContactSuggester
	Requests RequestLookup

	// DB is pinged by Health when the profile store is enabled.
	DB *sql.DB
}

func (h Handlers) Health(c *gin.Context) {
	if h.DB != nil {
		if err := utils.HealthCheck(c.Request.Context(), h.DB, 2*time.Second); err != nil {
			logger.FromGin(c).Warn("database unreachable", "err", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// --- Call requests ---

type processRequestPayload struct {
	RequestID      string             `json:"request_id"`
	UserID         string             `json:"user_id"`
	Title          string             `json:"title"`
	Description    string             `json:"description"`
	CallbackNumber string             `json:"callback_number"`
	NumberToCall   *string            `json:"number_to_call"`
	PreferredTime  string             `json:"preferred_time"`
	UserProfile    *calls.UserProfile `json:"user_profile"`
}

// ProcessRequest accepts a booking request and schedules its call in the background.
func (h Handlers) ProcessRequest(c *gin.Context) {
	if h.Calls == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "calls not configured"})
		return
	}
	var p processRequestPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if !callerMatches(c, p.UserID) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "user_id does not match token"})
		return
	}

	req := calls.CallRequest{
		RequestID:      strings.TrimSpace(p.RequestID),
		UserID:         strings.TrimSpace(p.UserID),
		Title:          strings.TrimSpace(p.Title),
		Description:    strings.TrimSpace(p.Description),
		CallbackNumber: strings.TrimSpace(p.CallbackNumber),
		PreferredTime:  strings.TrimSpace(p.PreferredTime),
		UserProfile:    p.UserProfile,
		ReceivedAt:     time.Now(),
	}
	if p.NumberToCall != nil {
		req.NumberToCall = strings.TrimSpace(*p.NumberToCall)
	}

	out, err := h.Calls.Submit(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, calls.ErrInvalidRequest), errors.Is(err, calls.ErrNoTarget):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, telephony.ErrNotConfigured):
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "telephony not configured"})
		default:
			logger.FromGin(c).Error("call request failed", "request_id", req.RequestID, "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call request failed"})
		}
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "request_id": out.RequestID})
}

// RequestEvents returns the call timeline of a request.
func (h Handlers) RequestEvents(c *gin.Context) {
	if h.Calls == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "calls not configured"})
		return
	}
	id := c.Param("request_id")
	if h.Requests != nil {
		r, err := h.Requests.GetRequest(c.Request.Context(), id)
		if errors.Is(err, profiles.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "request not found"})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "request lookup failed"})
			return
		}
		if !callerMatches(c, r.UserID) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "request not found"})
			return
		}
	}

	evs, err := h.Calls.Timeline(c.Request.Context(), id)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "timeline lookup failed"})
		return
	}
	if evs == nil {
		evs = []events.Event{}
	}
	c.JSON(http.StatusOK, gin.H{"request_id": id, "events": evs})
}

// --- Contact suggestions ---

type contactSuggestionsPayload struct {
	UserID      string `json:"user_id"`
	Description string `json:"description"`
	RadiusKm    int    `json:"radius_km"`
}

func (h Handlers) ContactSuggestions(c *gin.Context) {
	if h.Contacts == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "contacts not configured"})
		return
	}
	var p contactSuggestionsPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	p.UserID = strings.TrimSpace(p.UserID)
	p.Description = strings.TrimSpace(p.Description)
	if p.UserID == "" || p.Description == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id and description required"})
		return
	}
	radius, err := contacts.NormalizeRadius(p.RadiusKm)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !callerMatches(c, p.UserID) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "user_id does not match token"})
		return
	}

	c.JSON(http.StatusOK, h.Contacts.Suggest(c.Request.Context(), p.UserID, p.Description, radius))
}

// callerMatches is true when no token was required, or the token's subject is userID.
func callerMatches(c *gin.Context, userID string) bool {
	uid, err := auth.UserID(c.Request.Context())
	if err != nil {
		return true
	}
	return uid == strings.TrimSpace(userID)
}
