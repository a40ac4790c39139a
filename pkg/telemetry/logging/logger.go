// Package logging builds the process-wide structured logger.
//
// New produces a *slog.Logger configured from the telemetry.logging
// section: JSON or text encoding, minimum level, and optional source
// locations. Two handler layers wrap the encoder:
//
//   - a redactor that scrubs API keys and bearer tokens from attribute
//     values before they reach the output (see Redactor), and
//   - a context layer that stamps every record logged under a request
//     context with its request_id.
//
// The level is held in a slog.LevelVar so configuration reload can adjust
// verbosity without rebuilding the logger. Components receive the logger
// by injection and scope themselves with
// logger.With("component", ...).
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"aurora-ml/relay/pkg/config"
	"aurora-ml/relay/pkg/failover"
)

// Logger is the configured process logger with runtime level control.
// The embedded *slog.Logger is what components receive.
type Logger struct {
	*slog.Logger

	level    *slog.LevelVar
	redactor *Redactor
}

// New creates a logger from configuration. A nil writer defaults to
// stdout.
func New(cfg config.LoggingConfig, w io.Writer) (*Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	if w == nil {
		w = os.Stdout
	}

	levelVar := new(slog.LevelVar)
	levelVar.Set(level)

	opts := &slog.HandlerOptions{
		Level:     levelVar,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	case "json", "":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q (want \"json\" or \"text\")", cfg.Format)
	}

	redactor := NewRedactor()
	handler = &redactingHandler{inner: handler, redactor: redactor}
	handler = &contextHandler{inner: handler}

	return &Logger{
		Logger:   slog.New(handler),
		level:    levelVar,
		redactor: redactor,
	}, nil
}

// SetLevel changes the minimum level at runtime. Used by configuration
// reload.
func (l *Logger) SetLevel(level string) error {
	parsed, err := ParseLevel(level)
	if err != nil {
		return err
	}
	l.level.Set(parsed)
	return nil
}

// Level returns the current minimum level.
func (l *Logger) Level() slog.Level {
	return l.level.Level()
}

// ParseLevel maps a configuration level name onto a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// contextHandler stamps records with the request ID carried by the
// logging call's context.
type contextHandler struct {
	inner slog.Handler
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, record slog.Record) error {
	if requestID := failover.RequestIDFrom(ctx); requestID != "" {
		record = record.Clone()
		record.AddAttrs(slog.String("request_id", requestID))
	}
	return h.inner.Handle(ctx, record)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{inner: h.inner.WithGroup(name)}
}

// redactingHandler scrubs secrets from messages and attribute values
// before they reach the encoder.
type redactingHandler struct {
	inner    slog.Handler
	redactor *Redactor
}

func (h *redactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *redactingHandler) Handle(ctx context.Context, record slog.Record) error {
	clean := slog.NewRecord(record.Time, record.Level, h.redactor.RedactString(record.Message), record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		clean.AddAttrs(h.redactor.RedactAttr(attr))
		return true
	})
	return h.inner.Handle(ctx, clean)
}

func (h *redactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		redacted[i] = h.redactor.RedactAttr(attr)
	}
	return &redactingHandler{inner: h.inner.WithAttrs(redacted), redactor: h.redactor}
}

func (h *redactingHandler) WithGroup(name string) slog.Handler {
	return &redactingHandler{inner: h.inner.WithGroup(name), redactor: h.redactor}
}
