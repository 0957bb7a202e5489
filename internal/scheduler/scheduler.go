// Package scheduler drives subscription pool materialization on a fixed interval.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/ecoride/ecoride-core/internal/cache"
	"github.com/ecoride/ecoride-core/internal/observability"
	"github.com/ecoride/ecoride-core/internal/service"
)

const lockName = "scheduler:materialize"

type Scheduler struct {
	pools    service.SubscriptionService
	locker   cache.Locker
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// New returns a scheduler. locker may be nil when only one replica runs; the
// occurrence claims keep ticks idempotent either way.
func New(pools service.SubscriptionService, locker cache.Locker, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		pools:    pools,
		locker:   locker,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Run ticks once immediately and then every interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one materialization pass. It reports whether the pass ran.
func (s *Scheduler) Tick(ctx context.Context) bool {
	if s.locker != nil {
		ok, err := s.locker.TryLock(ctx, lockName, s.interval)
		if err != nil {
			// Redis trouble must not stop pools from materializing.
			s.logger.Warn("scheduler lock unavailable, running anyway", "error", err)
		} else if !ok {
			s.logger.Debug("scheduler tick held by another replica")
			return false
		} else {
			defer func() {
				if err := s.locker.Unlock(context.WithoutCancel(ctx), lockName); err != nil {
					s.logger.Warn("scheduler unlock failed", "error", err)
				}
			}()
		}
	}

	start := time.Now()
	report, err := s.pools.Materialize(ctx, s.now())
	observability.SchedulerTickDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.logger.Error("scheduler tick failed", "error", err)
		return true
	}
	if report.Created > 0 || report.Failed > 0 {
		s.logger.Info("scheduler tick",
			"created", report.Created,
			"skipped", report.Skipped,
			"failed", report.Failed,
			"duration", time.Since(start))
	}
	return true
}
