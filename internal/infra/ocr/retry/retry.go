// Package retry wraps fallible calls with exponential backoff, jitter and
// server-directed delays.
package retry

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// Policy defines retry behavior.
type Policy struct {
	MaxRetries   int // attempts after the first
	InitialDelay time.Duration
	MaxDelay     time.Duration // <= 0 disables the cap
	Multiplier   float64

	// OnRetry is called before each sleep with the 1-based retry number.
	OnRetry func(attempt int, err error)
}

// DefaultPolicy provides sensible defaults.
var DefaultPolicy = Policy{
	MaxRetries:   3,
	InitialDelay: 1 * time.Second,
	MaxDelay:     30 * time.Second,
	Multiplier:   2.0,
}

// jitterFraction spreads computed delays uniformly over +/-25%.
const jitterFraction = 0.25

// randFloat is replaced in tests.
var randFloat = rand.Float64

// Execute runs op until it succeeds, fails fatally or exhausts the policy.
//
// op runs at most MaxRetries+1 times. On failure the error of the last
// attempt is returned as is. If ctx is done while waiting between
// attempts, ctx.Err() is returned.
func Execute[T any](ctx context.Context, policy Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	for attempt := 0; ; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		// Classify error
		if ClassifyError(err) == ActionFatal {
			return zero, err // Stop immediately, do not retry
		}
		if attempt >= policy.MaxRetries {
			return zero, err
		}

		delay := computeDelay(attempt, policy, err)
		if policy.OnRetry != nil {
			policy.OnRetry(attempt+1, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}

// Do is Execute for operations without a result.
func Do(ctx context.Context, policy Policy, op func(ctx context.Context) error) error {
	_, err := Execute(ctx, policy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// computeDelay honors Retry-After verbatim, else applies jittered backoff.
func computeDelay(attempt int, policy Policy, err error) time.Duration {
	if d, ok := RetryAfter(err); ok {
		return d
	}
	return applyJitter(calculateBackoff(attempt, policy))
}

func calculateBackoff(attempt int, policy Policy) time.Duration {
	delay := float64(policy.InitialDelay) * math.Pow(policy.Multiplier, float64(attempt))
	if policy.MaxDelay > 0 && delay > float64(policy.MaxDelay) {
		delay = float64(policy.MaxDelay)
	}
	if math.IsInf(delay, 0) || delay > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(delay)
}

func applyJitter(d time.Duration) time.Duration {
	f := float64(d) * (1 + jitterFraction*(2*randFloat()-1))
	if f > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(f).Truncate(time.Millisecond)
}
