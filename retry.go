package waypoint

import (
	"time"

	"github.com/petrijr/waypoint/pkg/worker"
)

// RetryPolicy controls retries of background journal writes.
type RetryPolicy = worker.RetryPolicy

// RetryBuilder builds the Config.JournalRetry policy:
//
//	cfg.JournalRetry = waypoint.Retry(5).
//	    WithExponentialBackoff(50*time.Millisecond, 2, time.Second).
//	    Policy()
type RetryBuilder struct {
	policy RetryPolicy
}

// Retry starts a policy that makes up to attempts writes per event. Values
// below 1 mean a single write.
func Retry(attempts int) RetryBuilder {
	return RetryBuilder{policy: RetryPolicy{MaxAttempts: max(attempts, 1)}}
}

// WithExponentialBackoff waits initial before the first retry and multiplies
// the wait by factor (2 when factor <= 0) for each further one, capped at
// limit when limit > 0.
func (r RetryBuilder) WithExponentialBackoff(initial time.Duration, factor float64, limit time.Duration) RetryBuilder {
	if factor <= 0 {
		factor = 2
	}
	return r.backoff(initial, factor, limit)
}

// WithConstantBackoff waits delay before every retry.
func (r RetryBuilder) WithConstantBackoff(delay time.Duration) RetryBuilder {
	return r.backoff(delay, 1, 0)
}

// Immediate retries without waiting.
func (r RetryBuilder) Immediate() RetryBuilder {
	return r.backoff(0, 0, 0)
}

// Policy returns the built policy.
func (r RetryBuilder) Policy() RetryPolicy {
	return r.policy
}

func (r RetryBuilder) backoff(initial time.Duration, factor float64, limit time.Duration) RetryBuilder {
	p := r.policy
	p.InitialBackoff = initial
	p.BackoffMultiplier = factor
	p.MaxBackoff = limit
	return RetryBuilder{policy: p}
}
