package contacts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"voice-booking/internal/calls"
	"voice-booking/internal/observability/metrics"
	"voice-booking/internal/profiles"
	"voice-booking/pkg/logger"
)

const (
	DefaultRadiusKm = 10
	MinRadiusKm     = 5
	MaxRadiusKm     = 20
)

var ErrInvalidRadius = fmt.Errorf("contacts: radius_km must be between %d and %d", MinRadiusKm, MaxRadiusKm)

const (
	msgProfileMissing    = "Profile not found. Please complete your profile with your address (street, postal code, city)."
	msgAddressIncomplete = "Incomplete address. Please add street and postal code to your profile; they are required to find contacts nearby."
)

// ProfileSource loads a user's address.
type ProfileSource interface {
	GetProfile(ctx context.Context, userID string) (calls.UserProfile, error)
}

type Metadata struct {
	Location string `json:"location"`
	RadiusKm int    `json:"radius_km"`
	Count    int    `json:"count"`
	Category string `json:"category"`
	Verified bool   `json:"verified"`
}

// Result is the outcome of a suggestion lookup. Contacts is never nil.
type Result struct {
	Success  bool        `json:"success"`
	Error    string      `json:"error,omitempty"`
	Contacts []Candidate `json:"contacts"`
	Metadata *Metadata   `json:"metadata,omitempty"`
}

func failure(msg string) Result {
	return Result{Success: false, Error: msg, Contacts: []Candidate{}}
}

type Service struct {
	Profiles ProfileSource
	Finder   *Finder
	Metrics  *metrics.VoiceMetrics
}

// NormalizeRadius applies the default and checks bounds.
func NormalizeRadius(r int) (int, error) {
	if r == 0 {
		return DefaultRadiusKm, nil
	}
	if r < MinRadiusKm || r > MaxRadiusKm {
		return 0, ErrInvalidRadius
	}
	return r, nil
}

// Suggest finds providers near the user's stored address.
func (s *Service) Suggest(ctx context.Context, userID, description string, radiusKm int) Result {
	log := logger.From(ctx).With("user_id", userID)

	if s.Profiles == nil {
		s.Metrics.ObserveContactLookup("error")
		return failure("profile store not configured")
	}
	profile, err := s.Profiles.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, profiles.ErrNotFound) {
			s.Metrics.ObserveContactLookup("profile_missing")
			return failure(msgProfileMissing)
		}
		log.Error("profile lookup failed", "err", err)
		s.Metrics.ObserveContactLookup("error")
		return failure(err.Error())
	}

	street := profile.FullStreet()
	postal := strings.TrimSpace(profile.PostalCode)
	if strings.TrimSpace(profile.Street) == "" || postal == "" {
		s.Metrics.ObserveContactLookup("address_incomplete")
		return failure(msgAddressIncomplete)
	}

	category := Classify(description)
	found, err := s.Finder.FindContacts(ctx, street, postal, description, radiusKm)
	if err != nil {
		log.Error("contact lookup failed", "err", err)
		s.Metrics.ObserveContactLookup("error")
		return failure(err.Error())
	}

	outcome := "ok"
	if len(found) == 0 {
		outcome = "empty"
	}
	s.Metrics.ObserveContactLookup(outcome)
	log.Info("contact suggestions", "category", category, "count", len(found), "radius_km", radiusKm)

	return Result{
		Success:  true,
		Contacts: found,
		Metadata: &Metadata{
			Location: strings.TrimSpace(fmt.Sprintf("%s, %s %s", street, postal, profile.City)),
			RadiusKm: radiusKm,
			Count:    len(found),
			Category: category,
		},
	}
}
