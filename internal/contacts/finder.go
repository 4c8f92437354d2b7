package contacts

import (
	"context"
	"fmt"
	"strings"

	"voice-booking/internal/llm"
	"voice-booking/pkg/logger"
)

// Finder asks the language model for providers near an address.
// Results are unverified model output.
type Finder struct {
	LLM   llm.Client
	Cache Cache
}

// FindContacts classifies description, prompts for nearby providers and
// extracts them. Malformed model output yields an empty list, never an error.
func (f *Finder) FindContacts(ctx context.Context, street, postalCode, description string, radiusKm int) ([]Candidate, error) {
	log := logger.From(ctx)
	category := Classify(description)
	key := cacheKey(category, street, postalCode, radiusKm)

	if f.Cache != nil {
		if cached, ok := f.Cache.Get(ctx, key); ok {
			log.Debug("contact suggestions from cache", "category", category, "postal_code", postalCode)
			return cached, nil
		}
	}

	raw, err := llm.Prompt(ctx, f.LLM, BuildPrompt(category, street, postalCode, radiusKm))
	if err != nil {
		return []Candidate{}, fmt.Errorf("contacts: model lookup: %w", err)
	}

	found, err := ExtractCandidates(raw)
	if err != nil {
		log.Warn("model output not usable", "category", category, "err", err, "output_chars", len(raw))
		return found, nil
	}

	if f.Cache != nil && len(found) > 0 {
		f.Cache.Set(ctx, key, found)
	}
	return found, nil
}

// cacheKey scopes cached results to one address; "nearest" differs per street.
func cacheKey(category, street, postalCode string, radiusKm int) string {
	street = strings.Join(strings.Fields(strings.ToLower(street)), "_")
	return fmt.Sprintf("contacts:%s:%s:%s:%d", strings.ToLower(category), strings.TrimSpace(postalCode), street, radiusKm)
}
