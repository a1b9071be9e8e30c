package resilience

import (
	"context"
	"fmt"
	"math"
	"time"
)

// RetryPolicy controls how Retry spaces attempts. A MaxAttempts of zero or
// less retries until fn succeeds or ctx is cancelled.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	OnRetry      func(attempt int, err error)
}

// FixedInterval retries forever with the same wait between attempts.
func FixedInterval(interval time.Duration, onRetry func(attempt int, err error)) *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:  0,
		InitialDelay: interval,
		MaxDelay:     interval,
		Multiplier:   1.0,
		OnRetry:      onRetry,
	}
}

// Retry calls fn until it succeeds, the policy gives up or ctx is done.
// policy must not be nil.
func Retry[T any](ctx context.Context, policy *RetryPolicy, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; policy.MaxAttempts <= 0 || attempt < policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := Sleep(ctx, calculateDelay(policy, attempt)); err != nil {
				return zero, fmt.Errorf("retry cancelled: %w", err)
			}
		}

		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("retry cancelled: %w", err)
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if policy.OnRetry != nil {
			policy.OnRetry(attempt+1, err)
		}
	}

	return zero, lastErr
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func calculateDelay(policy *RetryPolicy, attempt int) time.Duration {
	if attempt <= 1 || policy.Multiplier <= 1 {
		return policy.InitialDelay
	}

	delay := float64(policy.InitialDelay) * math.Pow(policy.Multiplier, float64(attempt-1))
	if policy.MaxDelay > 0 && delay > float64(policy.MaxDelay) {
		delay = float64(policy.MaxDelay)
	}
	return time.Duration(delay)
}
