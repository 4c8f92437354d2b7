package main

import (
	"log/slog"
	"net/http"
	"time"

	"voice-booking/internal/auth"
	"voice-booking/internal/config"
	"voice-booking/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, cfg config.Config, log *slog.Logger, a app) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(logger.Middleware(log))

	// public
	r.GET("/health", a.handlers.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/audio/:filename", a.voice.ServeAudio)

	// Twilio webhooks. Signature validation is enabled by TWILIO_VALIDATE_SIGNATURE.
	hooks := r.Group("/")
	if a.signature != nil {
		hooks.Use(a.signature.Middleware())
	}
	{
		hooks.GET("/voice", a.voice.HandleVoice)
		hooks.POST("/voice", a.voice.HandleVoice)
		hooks.GET("/gather", a.voice.HandleGather)
		hooks.POST("/gather", a.voice.HandleGather)
		hooks.POST("/status", a.voice.HandleStatus)
	}

	api := r.Group("/api")
	if a.verifier != nil {
		api.Use(auth.RequireAccessToken(a.verifier))
	}
	{
		api.POST("/process-request", a.handlers.ProcessRequest)
		api.POST("/get-contact-suggestions", a.handlers.ContactSuggestions)
		api.GET("/requests/:request_id/events", a.handlers.RequestEvents)
	}
}
