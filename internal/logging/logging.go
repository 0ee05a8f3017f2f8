// Package logging provides structured logging for the simulator.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// New creates a logger writing to stdout.
func New(level string, format string) *slog.Logger {
	return NewWithWriter(os.Stdout, level, format)
}

func NewWithWriter(w io.Writer, level string, format string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug,
	}

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler)
}

// WithRequestID adds a request (trace) ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID extracts the request ID from context
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// Entry is the single record written for every handled request.
type Entry struct {
	Message        string
	TraceID        string
	TransactionID  string
	Decision       string
	Status         int
	Budget         time.Duration
	Duration       time.Duration
	BudgetExceeded bool
}

func (e Entry) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("traceId", e.TraceID),
		slog.String("transactionId", e.TransactionID),
		slog.String("decision", e.Decision),
		slog.Int("status", e.Status),
		slog.Int64("budgetMs", e.Budget.Milliseconds()),
		slog.Int64("durationMs", e.Duration.Milliseconds()),
		slog.Bool("budgetExceeded", e.BudgetExceeded),
	}
}

// LogRequest writes e at Info, or Warn when the latency budget was exceeded.
func LogRequest(ctx context.Context, logger *slog.Logger, e Entry) {
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	if e.BudgetExceeded {
		level = slog.LevelWarn
	}
	logger.LogAttrs(ctx, level, e.Message, e.Attrs()...)
}
