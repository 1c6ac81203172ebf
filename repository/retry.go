package repository

import (
	"context"
	"errors"
	"math/rand/v2"
	"strconv"
	"time"
)

const (
	defaultMaxAttempts  = 6
	defaultBaseDelay    = 10 * time.Millisecond
	defaultJitterFactor = 0.3

	errorTypeNone                    = "none"
	errorTypeConcurrencyConflict     = "concurrency_conflict"
	errorTypeContextCanceled         = "context_canceled"
	errorTypeContextDeadlineExceeded = "context_deadline_exceeded"
	errorTypeNotFound                = "not_found"
	errorTypeDuplicateID             = "duplicate_id"
	errorTypeVetoed                  = "vetoed"
	errorTypeValidation              = "validation"
	errorTypeMutation                = "mutation"
	errorTypeOther                   = "other"
)

var (
	// ErrInvalidMaxAttempts is returned when max attempts are not positive.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrNegativeBaseDelay is returned when the base delay is negative.
	ErrNegativeBaseDelay = errors.New("base delay must not be negative")

	// ErrInvalidJitterFactor is returned when the jitter factor is not between 0.0 and 1.0.
	ErrInvalidJitterFactor = errors.New("jitter factor must be between 0.0 and 1.0")
)

// RetryableFunc represents a function that can be retried.
type RetryableFunc func(ctx context.Context) error

// RetryMetadata describes how a retried call went.
type RetryMetadata struct {
	Attempts      int
	TotalDelay    time.Duration
	LastErrorType string
}

type retryConfig struct {
	maxAttempts  int
	baseDelay    time.Duration
	jitterFactor float64
	obs          observability
}

// RetryOption configures retry behavior.
type RetryOption func(*retryConfig) error

// WithMaxAttempts sets the maximum number of attempts, including the first one.
func WithMaxAttempts(attempts int) RetryOption {
	return func(config *retryConfig) error {
		if attempts <= 0 {
			return ErrInvalidMaxAttempts
		}

		config.maxAttempts = attempts

		return nil
	}
}

// WithBaseDelay sets the base delay for exponential backoff.
// Actual delays: baseDelay, baseDelay*2, baseDelay*4, baseDelay*8, etc.
func WithBaseDelay(delay time.Duration) RetryOption {
	return func(config *retryConfig) error {
		if delay < 0 {
			return ErrNegativeBaseDelay
		}

		config.baseDelay = delay

		return nil
	}
}

// WithJitterFactor sets the jitter that is added as a share of the calculated backoff delay.
// Valid range: 0.0 (no jitter) to 1.0 (100% jitter).
func WithJitterFactor(factor float64) RetryOption {
	return func(config *retryConfig) error {
		if factor < 0.0 || factor > 1.0 {
			return ErrInvalidJitterFactor
		}

		config.jitterFactor = factor

		return nil
	}
}

func withObservability(obs observability) RetryOption {
	return func(config *retryConfig) error {
		config.obs = obs
		return nil
	}
}

// RetryWithExponentialBackoff executes fn and retries it while it fails with
// ErrConcurrencyConflict, up to the configured number of attempts.
//
// Retry schedule (default): 0 ms, 10 ms, 20 ms, 40 ms, 80 ms, 160 ms (with 30% jitter).
// All other errors, including context deadlines, fail fast.
func RetryWithExponentialBackoff(ctx context.Context, fn RetryableFunc, options ...RetryOption) (RetryMetadata, error) {
	config := &retryConfig{
		maxAttempts:  defaultMaxAttempts,
		baseDelay:    defaultBaseDelay,
		jitterFactor: defaultJitterFactor,
	}

	for _, option := range options {
		if err := option(config); err != nil {
			return RetryMetadata{}, err
		}
	}

	meta := RetryMetadata{LastErrorType: errorTypeNone}
	var lastErr error

	for attempt := 0; attempt < config.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := config.baseDelay * time.Duration(1<<(attempt-1))
			jitter := rand.Float64() * float64(delay) * config.jitterFactor //nolint:gosec // jitter does not need crypto randomness
			backoffDelay := delay + time.Duration(jitter)

			config.obs.recordDuration(ctx, MetricRetryDelay, backoffDelay, retryLabels(config, attempt, lastErr))

			select {
			case <-time.After(backoffDelay):
			case <-ctx.Done():
				meta.LastErrorType = errorType(ctx.Err())
				return meta, ctx.Err()
			}

			meta.TotalDelay += backoffDelay
		}

		meta.Attempts++
		lastErr = fn(ctx)
		meta.LastErrorType = errorType(lastErr)

		if lastErr == nil {
			return meta, nil
		}

		if !isRetryableError(lastErr) {
			return meta, lastErr
		}

		if attempt < config.maxAttempts-1 {
			config.obs.incrementCounter(ctx, MetricRetryAttempts, retryLabels(config, attempt+1, lastErr))
			config.obs.logWarn(ctx, logMsgConflictRetry, logAttrAttempt, attempt+1)
		}
	}

	config.obs.incrementCounter(ctx, MetricRetriesExhausted, retryLabels(config, config.maxAttempts, lastErr))

	return meta, lastErr
}

func retryLabels(config *retryConfig, attempt int, err error) map[string]string {
	return map[string]string{
		LabelRepository:  config.obs.name,
		"attempt_number": strconv.Itoa(attempt),
		LabelErrorType:   errorType(err),
	}
}

// isRetryableError reports whether err should be retried. Only concurrency conflicts are.
func isRetryableError(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}

func errorType(err error) string {
	switch {
	case err == nil:
		return errorTypeNone
	case errors.Is(err, ErrConcurrencyConflict):
		return errorTypeConcurrencyConflict
	case errors.Is(err, context.Canceled):
		return errorTypeContextCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return errorTypeContextDeadlineExceeded
	case errors.Is(err, ErrDocumentNotFound):
		return errorTypeNotFound
	case errors.Is(err, ErrDuplicateID):
		return errorTypeDuplicateID
	case errors.Is(err, ErrVetoed):
		return errorTypeVetoed
	case errors.Is(err, ErrValidationFailed):
		return errorTypeValidation
	case errors.Is(err, ErrMutationFailed):
		return errorTypeMutation
	default:
		return errorTypeOther
	}
}
