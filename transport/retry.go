package transport

import (
	"context"
	"time"
)

const (
	// DefaultMaxRetries is the retry budget after the initial attempt.
	DefaultMaxRetries = 3
	// DefaultBaseDelay seeds the exponential backoff: 1s, 2s, 4s, ...
	DefaultBaseDelay = 1 * time.Second

	// maxBackoffShift caps the exponent so the shift cannot overflow.
	maxBackoffShift = 16
)

// backoffDelay returns the sleep before retry number attempt+1.
// Pure doubling, no jitter: each check is a single human-triggered event,
// not a high-volume pipeline.
func backoffDelay(baseDelay time.Duration, attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > maxBackoffShift {
		attempt = maxBackoffShift
	}
	return baseDelay << uint(attempt)
}

// sleepContext waits for the given duration or until the context is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
