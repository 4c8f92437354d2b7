package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values must come from env (cmd/api loads an optional .env file first).
// No business logic should depend on raw environment variables.
//
// Collaborator credentials (Twilio, Gemini, ElevenLabs) are optional here:
// the collaborator that needs them fails when it is used without them.
type Config struct {
	App        AppConfig
	Voice      VoiceConfig
	DB         DBConfig
	Redis      RedisConfig
	Auth       AuthConfig
	Twilio     TwilioConfig
	Gemini     GeminiConfig
	ElevenLabs ElevenLabsConfig
}

type AppConfig struct {
	Env      string
	Port     int
	LogLevel string

	// PublicBaseURL is where the telephony platform reaches our webhooks and audio.
	PublicBaseURL  string
	AllowedOrigins []string
}

type VoiceConfig struct {
	AudioDir         string
	Language         string
	BusinessTimezone string

	// SessionIdleTTL bounds how long a conversation without callbacks is kept.
	SessionIdleTTL   time.Duration
	ContactsCacheTTL time.Duration
}

// DBConfig points at the Supabase Postgres database holding profiles and requests.
// The store is disabled when Host is empty.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

// RedisConfig enables the shared session store and contact cache when Host is set.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
}

// AuthConfig verifies Supabase access tokens on /api routes when JWTSecret is set.
type AuthConfig struct {
	JWTSecret   string
	JWTAudience string
}

type TwilioConfig struct {
	AccountSID        string
	AuthToken         string
	FromNumber        string
	DefaultTarget     string
	ValidateSignature bool
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type ElevenLabsConfig struct {
	APIKey  string
	VoiceID string
	ModelID string
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	c.App.Port, parseErrs = intOr(parseErrs, "APP_PORT", 8000)
	c.App.LogLevel = strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	c.App.PublicBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("PUBLIC_BASE_URL")), "/")
	c.App.AllowedOrigins = splitList(envOr("ALLOWED_ORIGINS", "http://localhost:3000"))

	c.Voice.AudioDir = envOr("AUDIO_DIR", "audio")
	c.Voice.Language = envOr("VOICE_LANGUAGE", "en-US")
	c.Voice.BusinessTimezone = envOr("BUSINESS_TIMEZONE", "Europe/Berlin")
	c.Voice.SessionIdleTTL, parseErrs = durationOr(parseErrs, "SESSION_IDLE_TTL", 30*time.Minute)
	c.Voice.ContactsCacheTTL, parseErrs = durationOr(parseErrs, "CONTACTS_CACHE_TTL", 24*time.Hour)

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	c.DB.Port, parseErrs = intOr(parseErrs, "DB_PORT", 5432)
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	c.Redis.Port, parseErrs = intOr(parseErrs, "REDIS_PORT", 6379)
	c.Redis.Password = os.Getenv("REDIS_PASSWORD")

	c.Auth.JWTSecret = os.Getenv("SUPABASE_JWT_SECRET")
	c.Auth.JWTAudience = envOr("SUPABASE_JWT_AUDIENCE", "authenticated")

	c.Twilio.AccountSID = strings.TrimSpace(os.Getenv("TWILIO_ACCOUNT_SID"))
	c.Twilio.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	c.Twilio.FromNumber = strings.TrimSpace(os.Getenv("TWILIO_PHONE_NUMBER"))
	c.Twilio.DefaultTarget = strings.TrimSpace(envOr("TWILIO_DEFAULT_TARGET", os.Getenv("TARGET_PHONE_NUMBER")))
	c.Twilio.ValidateSignature, parseErrs = boolOr(parseErrs, "TWILIO_VALIDATE_SIGNATURE", false)

	c.Gemini.APIKey = strings.TrimSpace(os.Getenv("GOOGLE_API_KEY"))
	c.Gemini.Model = envOr("GEMINI_MODEL", "gemini-2.5-flash")

	c.ElevenLabs.APIKey = strings.TrimSpace(os.Getenv("ELEVENLABS_API_KEY"))
	c.ElevenLabs.VoiceID = envOr("ELEVENLABS_VOICE_ID", "9BWtsMINqrJLrRacOk9x")
	c.ElevenLabs.ModelID = envOr("ELEVENLABS_MODEL_ID", "eleven_multilingual_v2")

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the configuration and fills environment-dependent defaults.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}
	if c.App.PublicBaseURL == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("PUBLIC_BASE_URL is required in production"))
		} else {
			c.App.PublicBaseURL = fmt.Sprintf("http://localhost:%d", c.App.Port)
		}
	} else if !strings.HasPrefix(c.App.PublicBaseURL, "http://") && !strings.HasPrefix(c.App.PublicBaseURL, "https://") {
		errs = append(errs, fmt.Errorf("PUBLIC_BASE_URL must be an http(s) URL, got %q", c.App.PublicBaseURL))
	}

	if c.Voice.AudioDir == "" {
		errs = append(errs, errors.New("AUDIO_DIR must not be empty"))
	}
	if c.Voice.SessionIdleTTL <= 0 {
		c.Voice.SessionIdleTTL = 30 * time.Minute
	}

	if c.DBEnabled() {
		if c.DB.Port <= 0 || c.DB.Port > 65535 {
			errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
		}
		if c.DB.User == "" {
			errs = append(errs, errors.New("DB_USER is required when DB_HOST is set"))
		}
		if c.DB.Name == "" {
			errs = append(errs, errors.New("DB_NAME is required when DB_HOST is set"))
		}
		if c.DB.SSLMode == "" {
			if c.IsProduction() {
				errs = append(errs, errors.New("DB_SSLMODE is required in production"))
			} else {
				c.DB.SSLMode = "disable"
			}
		}
		if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
			errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
		}
	}

	if c.RedisEnabled() && (c.Redis.Port <= 0 || c.Redis.Port > 65535) {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Twilio.ValidateSignature && c.Twilio.AuthToken == "" {
		errs = append(errs, errors.New("TWILIO_AUTH_TOKEN is required when TWILIO_VALIDATE_SIGNATURE is on"))
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) DBEnabled() bool { return c.DB.Host != "" }

func (c Config) RedisEnabled() bool { return c.Redis.Host != "" }

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// WebhookURL joins the public base URL with a route path.
func (c Config) WebhookURL(path string) string {
	return c.App.PublicBaseURL + "/" + strings.TrimLeft(path, "/")
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intOr(errs []error, key string, def int) (int, []error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, errs
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, append(errs, fmt.Errorf("%s must be an integer, got %q", key, v))
	}
	return n, errs
}

func durationOr(errs []error, key string, def time.Duration) (time.Duration, []error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, errs
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, append(errs, fmt.Errorf("%s must be a duration, got %q", key, v))
	}
	return d, errs
}

func boolOr(errs []error, key string, def bool) (bool, []error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, errs
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, append(errs, fmt.Errorf("%s must be a boolean, got %q", key, v))
	}
	return b, errs
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
