package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"igcollect/pkg/config"
	errs "igcollect/pkg/errors"
	"igcollect/pkg/logger"
)

// Operation is a function that performs an operation that might need retrying
type Operation func() error

// OperationWithResult is a function that returns a result and might need retrying
type OperationWithResult[T any] func() (T, error)

// Config holds retry configuration
type Config struct {
	// MaxAttempts is the maximum number of attempts (0 means unlimited)
	MaxAttempts int
	// Backoff strategy to use
	Backoff BackoffStrategy
	// RetryIf determines if an error should be retried
	RetryIf func(error) bool
	// OnRetry is called before each retry attempt
	OnRetry func(attempt int, err error, delay time.Duration)
	// Context for cancellation
	Context context.Context
	// Logger for retry attempts
	Logger logger.Logger
}

// DefaultConfig returns a retry configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 3,
		Backoff:     DefaultExponentialBackoff(),
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
		Logger:      logger.GetLogger(),
	}
}

// DefaultRetryIf is the default retry predicate
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *errs.Error
	if errors.As(err, &apiErr) {
		return errs.IsRetryable(apiErr.Type)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// Default to retrying unknown errors
	return true
}

// Do executes an operation with retry logic
func Do(op Operation, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var lastErr error
	attempt := 0

	for {
		attempt++

		if cfg.MaxAttempts > 0 && attempt > cfg.MaxAttempts {
			if cfg.Logger != nil {
				cfg.Logger.ErrorWithFields("max retry attempts exceeded", map[string]interface{}{
					"attempts":   attempt - 1,
					"last_error": lastErr.Error(),
				})
			}
			// A throttled operation that never recovered is reported as
			// exhaustion so the operator knows the run is resumable.
			var apiErr *errs.Error
			if errors.As(lastErr, &apiErr) && apiErr.Type == errs.ErrorTypeRateLimit {
				return errs.RateLimitExhausted(attempt - 1)
			}
			return fmt.Errorf("max retry attempts (%d) exceeded: %w", cfg.MaxAttempts, lastErr)
		}

		err := op()
		if err == nil {
			if attempt > 1 && cfg.Logger != nil {
				cfg.Logger.DebugWithFields("operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		}

		lastErr = err

		if !cfg.RetryIf(err) {
			if cfg.Logger != nil {
				cfg.Logger.DebugWithFields("error is not retryable", map[string]interface{}{
					"error": err.Error(),
				})
			}
			return err
		}

		delay := cfg.Backoff.NextDelay(attempt)

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}

		if cfg.Logger != nil {
			cfg.Logger.WarnWithFields("retrying operation", map[string]interface{}{
				"attempt":      attempt,
				"error":        err.Error(),
				"delay_ms":     delay.Milliseconds(),
				"max_attempts": cfg.MaxAttempts,
			})
		}

		if err := Wait(cfg.Context, delay); err != nil {
			if cfg.Logger != nil {
				cfg.Logger.WarnWithFields("retry cancelled", map[string]interface{}{
					"attempt": attempt,
					"reason":  err.Error(),
				})
			}
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}
}

// DoWithResult executes an operation that returns a result with retry logic
func DoWithResult[T any](op OperationWithResult[T], cfg *Config) (T, error) {
	var result T

	err := Do(func() error {
		var opErr error
		result, opErr = op()
		return opErr
	}, cfg)

	return result, err
}

// Retrier provides a reusable retry mechanism with per-error-type backoff.
// Rate-limit signals back off longer than transient network errors.
type Retrier struct {
	maxAttempts      int
	errorTypeBackoff *ErrorTypeBackoff
	logger           logger.Logger
}

// NewRetrier creates a retrier for direct polling-style remote calls.
// Backoff bases and the delay cap come from the retry configuration.
func NewRetrier(cfg config.RetryConfig, log logger.Logger) *Retrier {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Retrier{
		maxAttempts:      cfg.MaxAttempts,
		errorTypeBackoff: NewErrorTypeBackoff(cfg),
		logger:           log,
	}
}

// SetBackoff replaces the backoff set (used by tests to avoid real delays)
func (r *Retrier) SetBackoff(etb *ErrorTypeBackoff) {
	r.errorTypeBackoff = etb
}

// Do executes op, switching backoff strategy to match the observed error type
func (r *Retrier) Do(ctx context.Context, op Operation) error {
	cfg := &Config{
		MaxAttempts: r.maxAttempts,
		Backoff:     r.errorTypeBackoff.DefaultBackoff,
		RetryIf:     DefaultRetryIf,
		Context:     ctx,
		Logger:      r.logger,
	}
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		var apiErr *errs.Error
		if errors.As(err, &apiErr) {
			cfg.Backoff = r.errorTypeBackoff.GetBackoffForError(string(apiErr.Type))
		}
	}
	return Do(op, cfg)
}
