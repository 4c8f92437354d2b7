package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// New returns a JSON logger for the given environment.
// level overrides the environment default when it names a known slog level.
func New(appEnv, level string) *slog.Logger {
	lvl := slog.LevelInfo
	if appEnv == "local" || appEnv == "dev" {
		lvl = slog.LevelDebug
	}
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}

	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return slog.New(h)
}

type ctxKey struct{}

// With stores a logger in context.
func With(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From gets a logger from context, falling back to slog.Default().
func From(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}

// ForCall returns a logger carrying the call identifiers used across the voice flow.
// Empty identifiers are omitted.
func ForCall(l *slog.Logger, callSID, requestID string) *slog.Logger {
	if l == nil {
		l = slog.Default()
	}
	if callSID != "" {
		l = l.With("call_sid", callSID)
	}
	if requestID != "" {
		l = l.With("request_id", requestID)
	}
	return l
}
