package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECOVERY
// Catches panics in update handlers so one bad update cannot take down the
// polling loop. Users get a plain apology; the stack trace goes to the log.
// ══════════════════════════════════════════════════════════════════════════════

// RecoveryConfig holds configuration for the recovery middleware.
type RecoveryConfig struct {
	// UserErrorMessage is sent to the chat when a handler panics.
	UserErrorMessage string

	// Logger receives the panic details.
	Logger *slog.Logger
}

// DefaultRecoveryConfig returns sensible defaults.
func DefaultRecoveryConfig() RecoveryConfig {
	return RecoveryConfig{
		UserErrorMessage: "Something went wrong. Please try again in a few minutes.",
		Logger:           slog.Default(),
	}
}

// RecoveryResult is the outcome of running a handler under recovery.
type RecoveryResult struct {
	Recovered   bool
	UserMessage string
}

// RecoveryMiddleware recovers from handler panics.
type RecoveryMiddleware struct {
	config RecoveryConfig
}

// NewRecoveryMiddleware creates a RecoveryMiddleware.
func NewRecoveryMiddleware(config RecoveryConfig) *RecoveryMiddleware {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &RecoveryMiddleware{config: config}
}

// RecoverWithHandler executes fn, converting any panic into a
// RecoveryResult instead of letting it unwind the caller.
func (m *RecoveryMiddleware) RecoverWithHandler(_ context.Context, chatID int64, operation string, fn func() error) (result *RecoveryResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			m.config.Logger.Error("panic recovered",
				"chat_id", chatID,
				"operation", operation,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
				"time", time.Now().Format(time.RFC3339),
			)
			result = &RecoveryResult{
				Recovered:   true,
				UserMessage: m.config.UserErrorMessage,
			}
			err = nil
		}
	}()

	err = fn()
	return &RecoveryResult{Recovered: false}, err
}
