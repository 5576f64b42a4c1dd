package scheduler

import (
	"context"
	"log/slog"
	"time"

	"villa-booking/internal/pkg/config"
	"villa-booking/internal/pkg/errs"

	"github.com/robfig/cron/v3"
)

// Runner is the notification outbox worker driven by the scheduler.
type Runner interface {
	Dispatch(ctx context.Context) (int, error)
	Purge(ctx context.Context) (int64, error)
}

// Scheduler runs outbox dispatch and purge on cron specs with seconds precision in UTC.
// A run still in progress when its next tick fires is skipped.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler(cfg config.SchedulerConfig, runner Runner) (*Scheduler, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		runner: runner,
		ctx:    ctx,
		cancel: cancel,
	}

	if _, err := s.cron.AddFunc(cfg.DispatchSpec, s.dispatch); err != nil {
		cancel()
		return nil, errs.Wrapf(err, "invalid dispatch spec %q", cfg.DispatchSpec)
	}
	if _, err := s.cron.AddFunc(cfg.PurgeSpec, s.purge); err != nil {
		cancel()
		return nil, errs.Wrapf(err, "invalid purge spec %q", cfg.PurgeSpec)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("notification scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop cancels running jobs and waits for them to return, or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		slog.Info("notification scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) dispatch() {
	s.run("dispatch", func(ctx context.Context) {
		n, err := s.runner.Dispatch(ctx)
		if err != nil {
			slog.Error("notification dispatch failed", "claimed", n, "error", err.Error())
			return
		}
		if n > 0 {
			slog.Debug("notification batch dispatched", "claimed", n)
		}
	})
}

func (s *Scheduler) purge() {
	s.run("purge", func(ctx context.Context) {
		n, err := s.runner.Purge(ctx)
		if err != nil {
			slog.Error("notification purge failed", "error", err.Error())
			return
		}
		slog.Info("sent notifications purged", "deleted", n)
	})
}

func (s *Scheduler) run(job string, fn func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("scheduled job panicked", "job", job, "panic", r)
		}
	}()
	if s.ctx.Err() != nil {
		return
	}
	fn(s.ctx)
}
