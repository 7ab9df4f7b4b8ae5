package observability

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

type ctxKey string

const ctxKeyRequestID ctxKey = "request_id"

// global logger, JSON to stdout. Level comes from LOG_LEVEL at init.
var logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
	Level: levelFromEnv(),
}))

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func Logger() *slog.Logger {
	return logger
}

// WithRequestID stores a request_id in the context so handlers and the core
// pipeline log under the same correlation id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, requestID)
}

// LoggerFromContext returns the global logger, tagged with request_id when
// one is present in the context.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	reqID, _ := ctx.Value(ctxKeyRequestID).(string)
	if reqID == "" {
		return logger
	}
	return logger.With("request_id", reqID)
}
