// Package poll turns a repeated status check into a single blocking call.
package poll

import (
	"context"
	"time"

	"github.com/vietddude/ocrflow/internal/core/ocrerr"
)

// Policy configures Until.
type Policy[T any] struct {
	Interval time.Duration
	MaxWait  time.Duration

	// OnProgress receives every observed value, in order.
	OnProgress func(T)
}

// Until calls op until done reports true, MaxWait elapses or ctx is done.
//
// Cancellation is checked before each call, so an already cancelled ctx
// never reaches op. Errors from op are returned unchanged. The deadline is
// checked after each call, so op always runs at least once.
func Until[T any](ctx context.Context, op func(ctx context.Context) (T, error), done func(T) bool, policy Policy[T]) (T, error) {
	var zero T
	start := time.Now()

	for {
		if err := ctx.Err(); err != nil {
			return zero, ocrerr.NewCancelledError(err)
		}

		value, err := op(ctx)
		if err != nil {
			return zero, err
		}

		if policy.OnProgress != nil {
			policy.OnProgress(value)
		}

		if done(value) {
			return value, nil
		}

		elapsed := time.Since(start)
		if elapsed >= policy.MaxWait {
			return zero, ocrerr.NewTimeoutError(policy.MaxWait)
		}

		wait := min(policy.Interval, policy.MaxWait-elapsed)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}
}
