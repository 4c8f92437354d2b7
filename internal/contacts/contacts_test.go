package contacts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-booking/internal/calls"
	"voice-booking/internal/llm"
	"voice-booking/internal/profiles"
)

func TestClassify(t *testing.T) {
	cases := map[string]string{
		"Zahnarzt Termin für Zahnreinigung":  "Zahnarztpraxen",
		"Impfung beim Tierarzt für den Hund": "Tierarztpraxen",
		"Termin beim Hausarzt":               "Arztpraxen",
		"Physiotherapiepraxis für Rücken":    "Physiotherapiepraxen",
		"Haarschnitt am Samstag":             "Friseursalons",
		"Reifenwechsel für mein AUTO":        "Autowerkstätten",
		"Klempner wegen Rohrbruch":           "Handwerksbetriebe",
		"Beratung beim Rechtsanwalt":         "Anwaltskanzleien",
		"Neue Brille anpassen":               "Optiker",
		"Fensterputzen":                      DefaultCategory,
		"":                                   DefaultCategory,
	}
	for in, want := range cases {
		assert.Equal(t, want, Classify(in), in)
	}
}

func TestClassify_FirstMatchWins(t *testing.T) {
	// "zahnarzt" contains "arzt"; the dental rule is listed first.
	assert.Equal(t, "Zahnarztpraxen", Classify("Arzt oder Zahnarzt"))
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("Zahnarztpraxen", "Nancystraße 12", "76187", 10)
	for _, want := range []string{"10 Zahnarztpraxen", "Nancystraße 12", "76187", "10 km", "JSON"} {
		assert.Contains(t, p, want)
	}
}

func TestExtractCandidates(t *testing.T) {
	raw := "Hier sind die Ergebnisse:\n```json\n[" +
		`{"name": "Praxis Dr. Weiß", "telefonnummer": "0721 123456", "adresse": "Hauptstr. 1"},` +
		`{"name": "Zahnzentrum", "phone": "0721 654321"},` +
		`{"name": "Dental Care", "phone_number": 721999},` +
		`{"adresse": "nur Adresse"}` +
		"]\n```"

	got, err := ExtractCandidates(raw)
	require.NoError(t, err)
	assert.Equal(t, []Candidate{
		{Name: "Praxis Dr. Weiß", Phone: "0721 123456"},
		{Name: "Zahnzentrum", Phone: "0721 654321"},
		{Name: "Dental Care", Phone: "721999"},
		{},
	}, got)
}

func TestExtractCandidates_Malformed(t *testing.T) {
	for _, raw := range []string{"Leider keine Daten.", "] nothing [", `[{"name": "x",]`} {
		got, err := ExtractCandidates(raw)
		assert.Error(t, err, raw)
		assert.NotNil(t, got, raw)
		assert.Empty(t, got, raw)
	}
}

type stubLLM struct {
	text  string
	err   error
	calls int
}

func (s *stubLLM) Complete(context.Context, llm.Request) (llm.Response, error) {
	s.calls++
	return llm.Response{Text: s.text}, s.err
}

type stubProfiles struct {
	profile calls.UserProfile
	err     error
}

func (s stubProfiles) GetProfile(context.Context, string) (calls.UserProfile, error) {
	return s.profile, s.err
}

var karlsruhe = calls.UserProfile{Street: "Nancystraße", HouseNumber: "12", PostalCode: "76187", City: "Karlsruhe"}

func TestSuggest_Success(t *testing.T) {
	model := &stubLLM{text: `[{"name": "Praxis A", "telefonnummer": "0721 1"}]`}
	svc := &Service{Profiles: stubProfiles{profile: karlsruhe}, Finder: &Finder{LLM: model}}

	res := svc.Suggest(context.Background(), "user-1", "Zahnarzt Termin für Zahnreinigung", 10)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, []Candidate{{Name: "Praxis A", Phone: "0721 1"}}, res.Contacts)
	require.NotNil(t, res.Metadata)
	assert.Equal(t, "Nancystraße 12, 76187 Karlsruhe", res.Metadata.Location)
	assert.Equal(t, 1, res.Metadata.Count)
	assert.Equal(t, "Zahnarztpraxen", res.Metadata.Category)
	assert.False(t, res.Metadata.Verified)
}

func TestSuggest_MalformedOutputIsEmptySuccess(t *testing.T) {
	svc := &Service{Profiles: stubProfiles{profile: karlsruhe}, Finder: &Finder{LLM: &stubLLM{text: "Keine Ergebnisse gefunden."}}}

	res := svc.Suggest(context.Background(), "user-1", "Friseur", 10)
	assert.True(t, res.Success)
	assert.NotNil(t, res.Contacts)
	assert.Empty(t, res.Contacts)
	assert.Equal(t, 0, res.Metadata.Count)
}

func TestSuggest_ProfileFailures(t *testing.T) {
	model := &stubLLM{text: "[]"}

	res := (&Service{Profiles: stubProfiles{err: profiles.ErrNotFound}, Finder: &Finder{LLM: model}}).
		Suggest(context.Background(), "ghost", "Zahnarzt", 10)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "Profile not found")
	assert.NotNil(t, res.Contacts)

	res = (&Service{Profiles: stubProfiles{profile: calls.UserProfile{Street: "Nancystraße"}}, Finder: &Finder{LLM: model}}).
		Suggest(context.Background(), "user-1", "Zahnarzt", 10)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "Incomplete address")
	assert.Equal(t, 0, model.calls)
}

func TestSuggest_ModelFailure(t *testing.T) {
	svc := &Service{Profiles: stubProfiles{profile: karlsruhe}, Finder: &Finder{LLM: &stubLLM{err: errors.New("quota")}}}
	res := svc.Suggest(context.Background(), "user-1", "Zahnarzt", 10)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "quota")
	assert.Empty(t, res.Contacts)
}

func TestNormalizeRadius(t *testing.T) {
	r, err := NormalizeRadius(0)
	require.NoError(t, err)
	assert.Equal(t, DefaultRadiusKm, r)

	for _, ok := range []int{5, 10, 20} {
		r, err := NormalizeRadius(ok)
		require.NoError(t, err)
		assert.Equal(t, ok, r)
	}
	for _, bad := range []int{-1, 4, 21} {
		_, err := NormalizeRadius(bad)
		assert.ErrorIs(t, err, ErrInvalidRadius)
	}
}

func TestFinder_UsesRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	model := &stubLLM{text: `[{"name": "Salon B", "phone": "0721 2"}]`}
	f := &Finder{LLM: model, Cache: NewRedisCache(client, time.Hour)}
	ctx := context.Background()

	first, err := f.FindContacts(ctx, "Nancystraße 12", "76187", "Haarschnitt", 10)
	require.NoError(t, err)
	second, err := f.FindContacts(ctx, "Nancystraße 12", "76187", "Friseur bitte", 10)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, model.calls)
	assert.True(t, mr.Exists("contacts:friseursalons:76187:nancystraße_12:10"))
	assert.Equal(t, time.Hour, mr.TTL("contacts:friseursalons:76187:nancystraße_12:10"))

	_, err = f.FindContacts(ctx, "Nancystraße 12", "76187", "Haarschnitt", 20)
	require.NoError(t, err)
	assert.Equal(t, 2, model.calls)

	// Same postal code, different street: a separate lookup.
	_, err = f.FindContacts(ctx, "Durlacher Allee 5", "76187", "Haarschnitt", 10)
	require.NoError(t, err)
	assert.Equal(t, 3, model.calls)
	assert.True(t, mr.Exists("contacts:friseursalons:76187:durlacher_allee_5:10"))
}
