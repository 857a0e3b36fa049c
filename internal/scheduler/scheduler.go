// Package scheduler triggers notification dispatch on a fixed interval.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"manga_bot/internal/metrics"
	"manga_bot/internal/notifier"
)

// Dispatcher runs one notification cycle over all tracked titles.
type Dispatcher interface {
	DispatchAllStored(ctx context.Context) (notifier.Report, error)
}

// Scheduler runs the dispatcher at startup and then every interval.
// A tick that arrives while the previous cycle is still running is skipped.
type Scheduler struct {
	dispatcher Dispatcher
	interval   time.Duration
	metrics    metrics.Recorder
	log        *slog.Logger
	running    sync.Mutex
}

// New creates a Scheduler.
func New(d Dispatcher, interval time.Duration, rec metrics.Recorder, log *slog.Logger) *Scheduler {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Scheduler{
		dispatcher: d,
		interval:   interval,
		metrics:    rec,
		log:        log,
	}
}

// Run blocks until ctx is cancelled, waiting for an in-flight cycle to stop.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("invalid interval %s", s.interval)
	}

	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", s.interval), func() { s.runCycle(ctx) }); err != nil {
		return fmt.Errorf("schedule dispatch: %w", err)
	}

	s.runCycle(ctx)

	c.Start()
	s.log.Info("scheduler started", "interval", s.interval)

	<-ctx.Done()
	<-c.Stop().Done()
	s.log.Info("scheduler stopped")
	return nil
}

func (s *Scheduler) runCycle(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	if !s.running.TryLock() {
		s.metrics.RecordSkippedCycle()
		s.log.Warn("previous dispatch still running, skipping tick")
		return false
	}
	defer s.running.Unlock()

	start := time.Now()
	report, err := s.dispatcher.DispatchAllStored(ctx)
	if err != nil {
		s.log.Error("dispatch cycle failed",
			"titles", report.Titles,
			"sent", report.Sent,
			"error", err,
		)
		return true
	}

	s.log.Info("dispatch cycle finished",
		"titles", report.Titles,
		"sent", report.Sent,
		"failed", report.Failed,
		"duration", time.Since(start),
	)
	return true
}
