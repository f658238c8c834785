package scheduler

import (
	"context"
	"time"

	"polyquant/internal/logger"
)

// CycleScheduler runs a task on a fixed interval. Cancellation is honored
// between cycles only: a running task always finishes before the scheduler
// exits, so in-flight work is never cut mid-step.
type CycleScheduler struct {
	Interval       time.Duration
	RunImmediately bool

	ctx   context.Context
	nowFn func() time.Time
}

func NewCycleScheduler(ctx context.Context, interval time.Duration) *CycleScheduler {
	if ctx == nil {
		ctx = context.Background()
	}
	return &CycleScheduler{
		Interval:       interval,
		RunImmediately: true,
		ctx:            ctx,
		nowFn:          time.Now,
	}
}

// Start blocks until the context is cancelled.
func (s *CycleScheduler) Start(task func(context.Context)) {
	if s == nil || task == nil {
		return
	}
	if s.Interval <= 0 {
		logger.Warnf("CycleScheduler: invalid interval=%s, exit", s.Interval)
		return
	}
	if s.nowFn == nil {
		s.nowFn = time.Now
	}

	startAt := s.nowFn().UTC()
	logger.Infof("CycleScheduler: started interval=%s run_immediately=%v at=%s",
		s.Interval, s.RunImmediately, startAt.Format(time.RFC3339))

	if s.RunImmediately {
		task(s.ctx)
	}

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			logger.Infof("CycleScheduler: ctx done, exit after %s", s.nowFn().UTC().Sub(startAt).Truncate(time.Second))
			return
		case <-ticker.C:
		}
		// Re-check before starting a cycle so stop wins a simultaneous tick.
		if s.ctx.Err() != nil {
			logger.Infof("CycleScheduler: ctx done, exit after %s", s.nowFn().UTC().Sub(startAt).Truncate(time.Second))
			return
		}
		task(s.ctx)
	}
}
