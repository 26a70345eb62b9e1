package common

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy describes a bounded retry loop with a fixed delay between
// attempts. The same policy type drives both per-image resolution and the
// top-level sync pass.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// ImageRetry matches the per-image budget: five attempts, ten seconds apart.
func ImageRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, Delay: 10 * time.Second}
}

// PassRetry matches the top-level pass budget: three attempts, one minute
// apart.
func PassRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Delay: time.Minute}
}

// Do runs op until it succeeds or the attempt budget is spent, pausing for
// the fixed delay between attempts. The last error is returned when the
// budget runs out or the context is cancelled.
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Delay), uint64(p.MaxAttempts-1)),
		ctx,
	)
	return backoff.Retry(op, b)
}
