package contacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrNoJSONArray = errors.New("contacts: no JSON array in model output")

// Candidate is a provider suggested by the model. It is not verified.
type Candidate struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

var phoneKeys = []string{"telefonnummer", "phone", "telefon", "phone_number"}

// BuildPrompt asks for the ten nearest providers of a category as a bare JSON array.
func BuildPrompt(category, street, postalCode string, radiusKm int) string {
	return fmt.Sprintf(
		"Gib im JSON-Format ohne sonstigen Inhalt genau die 10 %s aus, die von %s in %s "+
			"(Umkreis %d km) am kürzesten entfernt sind, mit den zugehörigen Telefonnummern. "+
			"Antworte nur mit einem JSON-Array von Objekten mit den Feldern \"name\" und \"telefonnummer\".",
		category, street, postalCode, radiusKm,
	)
}

// ExtractCandidates pulls the JSON array out of free-form model output.
// On failure it returns an empty, non-nil list together with the reason.
func ExtractCandidates(raw string) ([]Candidate, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end < start {
		return []Candidate{}, ErrNoJSONArray
	}

	var entries []map[string]any
	if err := json.Unmarshal([]byte(raw[start:end+1]), &entries); err != nil {
		return []Candidate{}, fmt.Errorf("contacts: decode model output: %w", err)
	}

	out := make([]Candidate, 0, len(entries))
	for _, e := range entries {
		c := Candidate{Name: stringField(e, "name")}
		for _, k := range phoneKeys {
			if p := stringField(e, k); p != "" {
				c.Phone = p
				break
			}
		}
		out = append(out, c)
	}
	return out, nil
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
