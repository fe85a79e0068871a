package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type ctxKey string

const (
	ctxKeyUpdateID ctxKey = "update_id"
	ctxKeyLogger   ctxKey = "logger"
)

// Options configures the process logger.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // json or text
	Output io.Writer
}

// basic global logger, JSON to stdout until New is called.
var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// New builds a logger from opts and installs it as the package and slog default.
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	hopts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}

	var h slog.Handler
	if strings.EqualFold(opts.Format, "text") {
		h = slog.NewTextHandler(out, hopts)
	} else {
		h = slog.NewJSONHandler(out, hopts)
	}
	logger = slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func Logger() *slog.Logger {
	return logger
}

// WithFields returns a logger with additional fields.
func WithFields(kv ...any) *slog.Logger {
	return logger.With(kv...)
}

// WithUpdate stores the inbound update id in the context.
func WithUpdate(ctx context.Context, updateID int64) context.Context {
	return context.WithValue(ctx, ctxKeyUpdateID, updateID)
}

// WithLogger stores l in the context, replacing the process logger for
// LoggerFromContext.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKeyLogger, l)
}

// LoggerFromContext returns the context logger, adding update_id if present.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(ctxKeyLogger).(*slog.Logger)
	if !ok {
		l = logger
	}
	if id, ok := ctx.Value(ctxKeyUpdateID).(int64); ok && id != 0 {
		return l.With("update_id", id)
	}
	return l
}
