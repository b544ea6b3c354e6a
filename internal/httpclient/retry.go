package httpclient

import (
	"context"
	"math"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/jcu-ap03/birdsync/internal/domain"
)

const (
	// DefaultAttempts is the default total number of attempts per fetch
	DefaultAttempts = 3

	// DefaultInitialDelay is the default delay before the first retry
	DefaultInitialDelay = 2 * time.Second

	// DefaultBackoffFactor is the default multiplier applied to the delay after each failure
	DefaultBackoffFactor = 2.0
)

// RetryPolicy describes how a fallible operation is retried. The delay before
// retry i (1-based) is InitialDelay * BackoffFactor^(i-1).
type RetryPolicy struct {
	Attempts      int
	InitialDelay  time.Duration
	BackoffFactor float64
}

// DefaultRetryPolicy returns the policy used when nothing is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:      DefaultAttempts,
		InitialDelay:  DefaultInitialDelay,
		BackoffFactor: DefaultBackoffFactor,
	}
}

// NewRetryPolicy builds and validates a policy.
func NewRetryPolicy(attempts int, initialDelay time.Duration, backoffFactor float64) (RetryPolicy, error) {
	p := RetryPolicy{
		Attempts:      attempts,
		InitialDelay:  initialDelay,
		BackoffFactor: backoffFactor,
	}
	if err := p.Validate(); err != nil {
		return RetryPolicy{}, err
	}
	return p, nil
}

// Validate returns a ConfigurationError when the policy cannot be applied.
func (p RetryPolicy) Validate() error {
	if p.BackoffFactor <= 1 {
		return domain.NewConfigurationError("retry.backoffFactor", "must be greater than 1, got %g", p.BackoffFactor)
	}
	if p.Attempts < 1 {
		return domain.NewConfigurationError("retry.attempts", "must be >= 1, got %d", p.Attempts)
	}
	if p.InitialDelay <= 0 {
		return domain.NewConfigurationError("retry.initialDelay", "must be greater than 0, got %s", p.InitialDelay)
	}
	return nil
}

// Delay returns the wait before the given retry (1-based).
func (p RetryPolicy) Delay(retry int) time.Duration {
	if retry < 1 {
		return 0
	}
	return time.Duration(float64(p.InitialDelay) * math.Pow(p.BackoffFactor, float64(retry-1)))
}

func (p RetryPolicy) backOff() *backoff.ExponentialBackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     p.InitialDelay,
		RandomizationFactor: 0,
		Multiplier:          p.BackoffFactor,
		MaxInterval:         time.Duration(math.MaxInt64),
	}
	b.Reset()
	return b
}

// Notify is called after a failed attempt that will be retried. attempt is the
// number of attempts made so far and delay is the wait before the next one.
type Notify func(attempt int, err error, delay time.Duration)

// Retry runs op until it succeeds or the policy's attempt budget is spent. Any
// error triggers a retry; the last error is returned as is. Context
// cancellation ends the loop without further attempts.
func Retry[T any](ctx context.Context, policy RetryPolicy, op func(ctx context.Context) (T, error), notify Notify) (T, error) {
	var zero T
	if err := policy.Validate(); err != nil {
		return zero, err
	}

	attempt := 0
	operation := func() (T, error) {
		attempt++
		res, err := op(ctx)
		if err != nil && ctx.Err() != nil {
			return res, backoff.Permanent(err)
		}
		return res, err
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(policy.backOff()),
		backoff.WithMaxTries(uint(policy.Attempts)), // #nosec G115 -- validated >= 1
		backoff.WithMaxElapsedTime(0),
	}
	if notify != nil {
		opts = append(opts, backoff.WithNotify(func(err error, delay time.Duration) {
			notify(attempt, err, delay)
		}))
	}

	return backoff.Retry(ctx, operation, opts...)
}
