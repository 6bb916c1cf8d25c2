package ai

import (
	"context"
	"math/rand/v2"
	"time"
)

// Backoff computes retry delays: Base·2ⁿ plus a jitter in [0, Base·2ⁿ/2), the
// sum capped at Max. Delays never decrease with n.
type Backoff struct {
	Base time.Duration
	Max  time.Duration
	// Jitter returns a value in [0, limit). Defaults to a uniform random draw.
	Jitter func(limit time.Duration) time.Duration
}

// Delay returns the wait before retry n (0-based). It depends only on n and Jitter.
func (b Backoff) Delay(n int) time.Duration {
	d := b.Base
	for i := 0; i < n; i++ {
		if b.Max > 0 && d >= b.Max {
			return b.Max
		}
		d *= 2
	}
	jitter := b.Jitter
	if jitter == nil {
		jitter = randomJitter
	}
	if half := d / 2; half > 0 {
		d += jitter(half)
	}
	if b.Max > 0 && d > b.Max {
		d = b.Max
	}
	return d
}

func randomJitter(limit time.Duration) time.Duration {
	return rand.N(limit)
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

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
