package helpers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"market-collector/src/logger"

	"github.com/cenkalti/backoff/v5"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type CollectorError struct {
	Message string
	Cause   error
}

func (e *CollectorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *CollectorError) Unwrap() error {
	return e.Cause
}

// Distinct error types for errors.As
type ConfigurationError struct{ CollectorError }
type NetworkError struct{ CollectorError }
type ProviderError struct{ CollectorError }
type PersistenceError struct{ CollectorError }
type ValidationError struct{ CollectorError }
type ResolutionError struct{ CollectorError }

// UnsupportedModeError is returned when a collection does not enable the requested mode.
type UnsupportedModeError struct {
	CollectorError
	Collection string
	Mode       string
}

// -----------------------------------------------------------------------------

func NewConfigurationError(msg string, cause error) error {
	return &ConfigurationError{CollectorError{Message: msg, Cause: cause}}
}

func NewNetworkError(msg string, cause error) error {
	return &NetworkError{CollectorError{Message: msg, Cause: cause}}
}

func NewProviderError(msg string, cause error) error {
	return &ProviderError{CollectorError{Message: msg, Cause: cause}}
}

func NewPersistenceError(msg string, cause error) error {
	return &PersistenceError{CollectorError{Message: msg, Cause: cause}}
}

func NewValidationError(msg string) error {
	return &ValidationError{CollectorError{Message: msg}}
}

func NewResolutionError(msg string, cause error) error {
	return &ResolutionError{CollectorError{Message: msg, Cause: cause}}
}

func NewUnsupportedModeError(collection, mode string) error {
	return &UnsupportedModeError{
		CollectorError: CollectorError{Message: fmt.Sprintf("collection %s does not support %s update", collection, mode)},
		Collection:     collection,
		Mode:           mode,
	}
}

// MissingParams builds the validation error naming every missing parameter.
func MissingParams(names []string) error {
	return NewValidationError("missing required parameters: " + strings.Join(names, ", "))
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff attempts to execute the operation up to maxRetries times with
// exponential backoff. Errors wrapped with backoff.Permanent stop immediately.
func RetryWithBackoff[T any](ctx context.Context, log *logger.Logger, operation string, maxRetries int, baseDelay time.Duration, fn func() (T, error)) (T, error) {
	if maxRetries < 1 {
		maxRetries = 1
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = baseDelay
	b.MaxInterval = 30 * time.Second

	attempt := 0
	res, err := backoff.Retry(ctx, func() (T, error) {
		attempt++
		return fn()
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(maxRetries)),
		backoff.WithNotify(func(err error, delay time.Duration) {
			if log != nil {
				log.Warning("Attempt %d/%d failed for %s: %v. Retrying in %v", attempt, maxRetries, operation, err, delay)
			}
		}),
	)
	if err != nil {
		// Surface the operation's own error, not the backoff wrapper
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			err = perm.Unwrap()
		}
	}
	return res, err
}

// Permanent marks an error as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// -----------------------------------------------------------------------------
// Error Handler
// -----------------------------------------------------------------------------

// ErrorHandler tracks consecutive failures of a long-running loop.
type ErrorHandler struct {
	Logger                 *logger.Logger
	MaxErrorsBeforeRestart int

	mu         sync.Mutex
	errorCount int
}

func NewErrorHandler(log *logger.Logger) *ErrorHandler {
	if log == nil {
		log = logger.NewLogger(nil, "ErrorHandler")
	}
	return &ErrorHandler{
		Logger:                 log,
		MaxErrorsBeforeRestart: 10,
	}
}

// -----------------------------------------------------------------------------

func (e *ErrorHandler) ResetErrorCount() {
	e.mu.Lock()
	e.errorCount = 0
	e.mu.Unlock()
}

// -----------------------------------------------------------------------------

func (e *ErrorHandler) ErrorCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.errorCount
}

// -----------------------------------------------------------------------------

// Handle logs err and reports whether the failure budget is exhausted.
func (e *ErrorHandler) Handle(err error, context string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err == nil {
		if e.errorCount > 0 {
			e.errorCount--
		}
		return false
	}
	e.errorCount++
	e.Logger.Error("Error in %s (%d consecutive): %v", context, e.errorCount, err)
	return e.errorCount >= e.MaxErrorsBeforeRestart
}
