package worker

import (
	"math"
	"time"
)

// RetryPolicy controls how often a failed append is attempted and how long
// the worker waits in between. The zero value tries once.
type RetryPolicy struct {
	// MaxAttempts <= 0 is treated as 1.
	MaxAttempts int

	// InitialBackoff is the delay before the first retry.
	InitialBackoff time.Duration

	// BackoffMultiplier grows the delay for every further retry. Values
	// <= 1 keep it constant.
	BackoffMultiplier float64

	// MaxBackoff caps the delay; <= 0 means no cap.
	MaxBackoff time.Duration
}

// Attempts returns the effective number of attempts.
func (p RetryPolicy) Attempts() int {
	if p.MaxAttempts <= 0 {
		return 1
	}
	return p.MaxAttempts
}

// Delay returns how long to wait before retry number n, counting from 1.
func (p RetryPolicy) Delay(n int) time.Duration {
	if p.InitialBackoff <= 0 || n < 1 {
		return 0
	}
	d := float64(p.InitialBackoff)
	if p.BackoffMultiplier > 1 {
		d *= math.Pow(p.BackoffMultiplier, float64(n-1))
	}
	if p.MaxBackoff > 0 && d > float64(p.MaxBackoff) {
		return p.MaxBackoff
	}
	if d > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}
