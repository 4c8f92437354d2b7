package contacts

import "strings"

// DefaultCategory is used when no keyword matches.
const DefaultCategory = "Dienstleister"

type keywordRule struct {
	category string
	keywords []string
}

// categoryRules is checked top to bottom and the first hit wins, so more
// specific trades (Zahnarzt, Tierarzt, Physiotherapiepraxis) must stay above
// the generic "arzt" and "praxis".
var categoryRules = []keywordRule{
	{"Zahnarztpraxen", []string{"zahnarzt", "zahn", "dentist", "kieferorthopäd"}},
	{"Tierarztpraxen", []string{"tierarzt", "tierklinik", "hund", "katze", "veterinär"}},
	{"Physiotherapiepraxen", []string{"physio", "massage", "krankengymnastik"}},
	{"Arztpraxen", []string{"arzt", "hausarzt", "ärztin", "doctor", "praxis", "check-up"}},
	{"Friseursalons", []string{"friseur", "frisör", "haarschnitt", "haare", "barber", "hairdresser"}},
	{"Autowerkstätten", []string{"werkstatt", "kfz", "auto", "reifen", "inspektion", "tüv", "mechanic"}},
	{"Handwerksbetriebe", []string{"handwerker", "klempner", "sanitär", "elektriker", "heizung", "maler", "tischler"}},
	{"Restaurants", []string{"restaurant", "tischreservierung", "reservierung"}},
	{"Anwaltskanzleien", []string{"anwalt", "rechtsanwalt", "kanzlei", "lawyer"}},
	{"Optiker", []string{"optiker", "brille", "kontaktlinse"}},
}

// Classify maps a free-text request description to a provider category.
func Classify(description string) string {
	d := strings.ToLower(description)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(d, kw) {
				return rule.category
			}
		}
	}
	return DefaultCategory
}
