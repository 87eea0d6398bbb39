// Package scheduler drives the recurring pipeline runs.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"internwatch/internal/logger"
	"internwatch/internal/pipeline"
	"internwatch/internal/tenant"
)

// Scheduler owns the recurring timer. The handle is explicit: callers hold
// it to restart with a new interval or to stop it; there is no ambient
// timer state. Overlap between a timer firing and a manual trigger is
// prevented by the runner's own mutex, not by scheduling jitter.
type Scheduler struct {
	mu      sync.Mutex
	cron    *cron.Cron
	ctx     context.Context // process lifecycle, captured at Start
	runner  *pipeline.Runner
	tenants *tenant.Store
	log     *logger.Logger
	hours   float64
}

func New(runner *pipeline.Runner, tenants *tenant.Store, log *logger.Logger) *Scheduler {
	return &Scheduler{
		runner:  runner,
		tenants: tenants,
		log:     log.With("component", "scheduler"),
	}
}

// Start arms the timer at intervalHours. ctx is the process lifecycle, not
// a request context: every timer firing runs under it until Stop. Also
// kicks off one immediate run in the background so new listings are not
// held until the first tick.
func (s *Scheduler) Start(ctx context.Context, intervalHours float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx = ctx
	return s.startLocked(intervalHours)
}

// Restart tears the timer down and re-arms it with the new interval. Runs
// keep executing under the lifecycle context given to Start, so a restart
// triggered from a short-lived caller does not tie future firings to it.
func (s *Scheduler) Restart(intervalHours float64) error {
	if intervalHours <= 0 {
		return fmt.Errorf("%w: interval must be > 0 hours", tenant.ErrInvalidConfig)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	return s.startLocked(intervalHours)
}

// Stop cancels the timer. An in-flight run finishes on its own.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// IntervalHours returns the currently armed interval.
func (s *Scheduler) IntervalHours() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hours
}

func (s *Scheduler) startLocked(intervalHours float64) error {
	interval := time.Duration(intervalHours * float64(time.Hour))

	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		s.runScheduled(ctx)
	}); err != nil {
		return fmt.Errorf("arm timer: %w", err)
	}
	c.Start()

	s.cron = c
	s.hours = intervalHours
	s.log.Info("timer armed", "interval", interval.String())

	go s.runScheduled(ctx)
	return nil
}

func (s *Scheduler) stopLocked() {
	if s.cron == nil {
		return
	}
	s.cron.Stop()
	s.cron = nil
	s.log.Info("timer stopped")
}

// runScheduled is the timer-driven entry point: run failures are logged and
// swallowed so one bad cycle never stops future firings. The cycle is
// skipped entirely while no tenant has a channel bound.
func (s *Scheduler) runScheduled(ctx context.Context) {
	bound, err := s.tenants.HasBindings()
	if err != nil {
		s.log.Error("binding check failed", "err", err)
		return
	}
	if !bound {
		s.log.Info("no channels configured, skipping scheduled run")
		return
	}

	if _, err := s.runner.Run(ctx); err != nil {
		s.log.Error("scheduled run failed", "err", err)
	}
}
