package bitdex

import (
	"context"
	"log/slog"
	"os"

	"github.com/hupe1980/bitdex/coder"
)

// Logger wraps slog.Logger with bitdex-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithColumn adds a column name to the logger.
func (l *Logger) WithColumn(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("column", name),
	}
}

// WithCoder adds the coding scheme to the logger.
func (l *Logger) WithCoder(k coder.Kind) *Logger {
	return &Logger{
		Logger: l.Logger.With("coder", k.String()),
	}
}

// LogAppend logs a failed append. Successful appends are too frequent to
// log.
func (l *Logger) LogAppend(ctx context.Context, rows, skip uint64, err error) {
	if err == nil {
		return
	}
	l.ErrorContext(ctx, "append failed",
		"rows", rows,
		"skip", skip,
		"error", err,
	)
}

// LogMerge logs an index merge.
func (l *Logger) LogMerge(ctx context.Context, rows uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "merge failed",
			"rows", rows,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "merge completed",
			"rows", rows,
		)
	}
}

// LogLookup logs a lookup.
func (l *Logger) LogLookup(ctx context.Context, op coder.Op, matches uint64, err error) {
	if err != nil {
		l.WarnContext(ctx, "lookup failed",
			"op", op.String(),
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "lookup completed",
			"op", op.String(),
			"matches", matches,
		)
	}
}

// LogDecode logs the outcome of decoding serialized index state.
func (l *Logger) LogDecode(ctx context.Context, size int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "decode failed",
			"bytes", size,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "decode completed",
			"bytes", size,
		)
	}
}
