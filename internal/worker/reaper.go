package worker

import (
	"context"
	"time"

	"github.com/lthibault/jitterbug/v2"
	"github.com/picalc/pi-calculator/internal/store"
	"go.uber.org/zap"
)

// Reaper deletes terminal statuses once they are older than the retention
// period.
type Reaper struct {
	statuses  store.JobStatus
	retention time.Duration
	interval  time.Duration
}

func NewReaper(statuses store.JobStatus, retention, interval time.Duration) *Reaper {
	return &Reaper{
		statuses:  statuses,
		retention: retention,
		interval:  interval,
	}
}

// Run reaps at every tick until ctx is done.
func (r *Reaper) Run(ctx context.Context) {
	if r.retention <= 0 || r.interval <= 0 {
		zap.S().Named("reaper").Info("status retention disabled")
		return
	}

	ticker := jitterbug.New(r.interval, &jitterbug.Norm{Stdev: r.interval / 10, Mean: 0})
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Reap(ctx); err != nil {
				zap.S().Named("reaper").Errorw("failed to reap job statuses", "error", err)
			}
		}
	}
}

func (r *Reaper) Reap(ctx context.Context) (int64, error) {
	n, err := r.statuses.DeleteExpired(ctx, time.Now().Add(-r.retention))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		zap.S().Named("reaper").Infow("reaped job statuses", "count", n)
	}
	return n, nil
}
