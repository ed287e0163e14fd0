// Package logger defines the structured logging contract for the PaperSynth
// backend. The production implementation lives in
// internal/infrastructure/monitoring and is backed by zap; this package only
// carries the interface so every layer can log without depending on the
// logging backend.
package logger

import "context"

// Fields is a bag of structured key/value pairs attached to a log entry.
type Fields map[string]interface{}

// Logger is the context-aware structured logger used across the service.
// Implementations must be safe for concurrent use.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Fields)
	Info(ctx context.Context, msg string, fields ...Fields)
	Warn(ctx context.Context, msg string, fields ...Fields)
	Error(ctx context.Context, msg string, err error, fields ...Fields)
	Fatal(ctx context.Context, msg string, err error, fields ...Fields)

	// WithFields returns a derived logger that attaches the given fields to
	// every entry it emits.
	WithFields(fields Fields) Logger
}
