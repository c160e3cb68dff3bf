package ratelimit

import (
	"context"
	"time"
)

// Sweeper removes expired hits from a store.
type Sweeper interface {
	Sweep(ctx context.Context, now time.Time, window time.Duration) (int64, error)
}

// RunJanitor sweeps s every interval until ctx is done. Sweep errors are
// passed to onErr when it is non-nil.
func RunJanitor(ctx context.Context, s Sweeper, interval, window time.Duration, clock Clock, onErr func(error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx, clock(), window); err != nil && onErr != nil {
				onErr(err)
			}
		}
	}
}
