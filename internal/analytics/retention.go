package analytics

import (
	"context"
	"time"

	"github.com/Zachkp/zach-dev-api/internal/logging"
)

// Retention periodically deletes views older than MaxAge.
type Retention struct {
	store    *Store
	logger   *logging.Logger
	MaxAge   time.Duration
	Interval time.Duration
	Now      func() time.Time
}

func NewRetention(store *Store, logger *logging.Logger, maxAge time.Duration) *Retention {
	return &Retention{
		store:    store,
		logger:   logger,
		MaxAge:   maxAge,
		Interval: 12 * time.Hour,
		Now:      time.Now,
	}
}

// Run cleans up immediately, then every Interval until ctx is done.
func (r *Retention) Run(ctx context.Context) {
	r.cleanup(ctx)

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.cleanup(ctx)
		}
	}
}

func (r *Retention) cleanup(ctx context.Context) {
	removed, err := r.store.DeleteBefore(ctx, r.Now().Add(-r.MaxAge))
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Error("Error cleaning up old project views: %v", err)
		}
		return
	}
	if removed > 0 {
		r.logger.Info("Privacy cleanup: removed %d project views older than %s", removed, r.MaxAge)
	}
}
