package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"voice-booking/internal/auth"
	"voice-booking/internal/calls"
	"voice-booking/internal/config"
	"voice-booking/internal/contacts"
	"voice-booking/internal/conversation"
	"voice-booking/internal/events"
	"voice-booking/internal/httpapi"
	"voice-booking/internal/llm"
	"voice-booking/internal/observability/metrics"
	"voice-booking/internal/profiles"
	"voice-booking/internal/schedule"
	"voice-booking/internal/speech"
	"voice-booking/internal/telephony"
	"voice-booking/pkg/logger"
	"voice-booking/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

// app holds the wired collaborators the routes need.
type app struct {
	handlers  httpapi.Handlers
	voice     *telephony.VoiceWebhookHandler
	signature *telephony.SignatureValidator
	verifier  *auth.Verifier
	sessions  *conversation.MemoryStore
	audio     *speech.AudioStore
	metrics   *metrics.VoiceMetrics
	sched     *schedule.Scheduler
}

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env, cfg.App.LogLevel)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	var db *sql.DB
	if cfg.DBEnabled() {
		db, err = utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PoolConfig{})
		if err != nil {
			log.Error("postgres init failed", "err", err)
			os.Exit(1)
		}
		defer db.Close()
	} else {
		log.Warn("DB_HOST not set; profiles and request status are unavailable")
	}

	var rdb *redis.Client
	if cfg.RedisEnabled() {
		rdb, err = utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr(), Password: cfg.Redis.Password})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
	}

	var model llm.Client = llm.Unconfigured()
	if cfg.Gemini.APIKey != "" {
		gemini, err := llm.NewGeminiClient(rootCtx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			log.Error("gemini init failed", "err", err)
			os.Exit(1)
		}
		defer gemini.Close()
		model = gemini
	} else {
		log.Warn("GOOGLE_API_KEY not set; the agent will use fallback utterances")
	}

	a, err := build(rootCtx, cfg, log, db, rdb, model)
	if err != nil {
		log.Error("wiring failed", "err", err)
		os.Exit(1)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	registerRoutes(r, cfg, log, a)

	go runJanitor(rootCtx, cfg.Voice.SessionIdleTTL, a, log)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "public_base_url", cfg.App.PublicBaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
	// Deferred calls see the cancelled root context and return.
	a.sched.Wait()
}

func build(root context.Context, cfg config.Config, log *slog.Logger, db *sql.DB, rdb *redis.Client, model llm.Client) (app, error) {
	a := app{metrics: metrics.NewVoiceMetrics(nil)}

	audio, err := speech.NewAudioStore(cfg.Voice.AudioDir)
	if err != nil {
		return app{}, err
	}
	a.audio = audio

	engine := &conversation.Engine{
		Agent:   conversation.Agent{LLM: model},
		Metrics: a.metrics,
	}
	if rdb != nil {
		engine.Store = conversation.NewRedisStore(rdb, cfg.Voice.SessionIdleTTL)
	} else {
		a.sessions = conversation.NewMemoryStore(cfg.Voice.SessionIdleTTL)
		engine.Store = a.sessions
	}
	synth, err := speech.NewElevenLabs(cfg.ElevenLabs.APIKey, cfg.ElevenLabs.VoiceID, cfg.ElevenLabs.ModelID)
	switch {
	case errors.Is(err, speech.ErrNotConfigured):
		log.Warn("ELEVENLABS_API_KEY not set; calls will gather without audio")
	case err != nil:
		return app{}, err
	default:
		engine.Voice = &speech.Narrator{Synth: synth, Store: audio, BaseURL: cfg.App.PublicBaseURL}
	}

	var store *profiles.Store
	var evRepo events.Repository = events.NewMemoryRepo()
	if db != nil {
		store = profiles.NewStore(db)
		evRepo = events.NewPostgresRepo(db)
		engine.Contexts = store
	}
	evs := events.NewService(evRepo)

	var dialer telephony.Dialer
	twilio, err := telephony.NewTwilioDialer(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber, cfg.App.PublicBaseURL)
	switch {
	case errors.Is(err, telephony.ErrNotConfigured):
		log.Warn("twilio credentials not set; /api/process-request will answer 503")
	case err != nil:
		return app{}, err
	default:
		dialer = twilio
	}

	a.sched = schedule.NewScheduler(schedule.NewBusinessHours(cfg.Voice.BusinessTimezone), log)

	callOpts := calls.Options{
		Scheduler:     a.sched,
		Dialer:        dialer,
		Events:        evs,
		DefaultTarget: cfg.Twilio.DefaultTarget,
		Metrics:       a.metrics,
		Log:           log,
	}
	if store != nil {
		callOpts.Requests = store
	}
	callSvc := calls.NewService(root, callOpts)

	finder := &contacts.Finder{LLM: model}
	if rdb != nil {
		finder.Cache = contacts.NewRedisCache(rdb, cfg.Voice.ContactsCacheTTL)
	}
	contactSvc := &contacts.Service{Finder: finder, Metrics: a.metrics}
	if store != nil {
		contactSvc.Profiles = store
	}

	a.handlers = httpapi.Handlers{Calls: callSvc, Contacts: contactSvc, DB: db}
	if store != nil {
		a.handlers.Requests = store
	}

	a.voice = &telephony.VoiceWebhookHandler{
		Conversation: engine,
		Audio:        audio,
		Status:       callSvc,
		Gather:       telephony.DefaultGather(cfg.Voice.Language),
		Metrics:      a.metrics,
	}
	a.voice.Gather.Action = cfg.WebhookURL("/gather")

	if cfg.Twilio.ValidateSignature {
		a.signature = telephony.NewSignatureValidator(cfg.Twilio.AuthToken, cfg.App.PublicBaseURL)
	}
	if cfg.Auth.JWTSecret != "" {
		v, err := auth.NewVerifier(cfg.Auth)
		if err != nil {
			return app{}, err
		}
		a.verifier = v
	} else {
		log.Warn("SUPABASE_JWT_SECRET not set; /api routes are unauthenticated")
	}
	return a, nil
}

// runJanitor drops idle sessions and stale audio until ctx ends.
func runJanitor(ctx context.Context, idle time.Duration, a app, log *slog.Logger) {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if a.sessions != nil {
				if n := a.sessions.EvictIdle(now); n > 0 {
					log.Info("idle sessions evicted", "count", n)
				}
				a.metrics.SetActiveSessions(a.sessions.Len())
			}
			if n, err := a.audio.Prune(now.Add(-idle)); err != nil {
				log.Warn("audio prune failed", "err", err)
			} else if n > 0 {
				log.Debug("audio pruned", "count", n)
			}
		}
	}
}
