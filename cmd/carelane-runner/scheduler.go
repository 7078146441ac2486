// Package main provides the Carelane background job runner.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/carelane/carelane/pkg/jobs"
	"github.com/robfig/cron/v3"
)

// Default schedules per job. Hourly sweeps keep automations and retries
// moving, the briefing and ad sync land once a day before business hours.
var defaultSchedules = map[jobs.Name]string{
	jobs.JobAutomations: "0 * * * *",
	jobs.JobScoring:     "*/15 * * * *",
	jobs.JobSequences:   "30 * * * *",
	jobs.JobBriefing:    "0 7 * * *",
	jobs.JobSyncAds:     "0 6 * * *",
}

type Scheduler struct {
	jobs      *jobs.Service
	cron      *cron.Cron
	schedules map[jobs.Name]string
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewScheduler(ctx context.Context, jobService *jobs.Service, overrides map[jobs.Name]string, logger *slog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(ctx)

	schedules := make(map[jobs.Name]string, len(defaultSchedules))
	for name, expr := range defaultSchedules {
		schedules[name] = expr
	}

	for name, expr := range overrides {
		schedules[name] = expr
	}

	return &Scheduler{
		jobs:      jobService,
		schedules: schedules,
		logger:    logger.With("module", "scheduler"),
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (s *Scheduler) Start() error {
	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	for name, expr := range s.schedules {
		if err := s.schedule(name, expr); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("Job runner started", "jobs", len(s.schedules))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	s.logger.Info("Shutting down job runner...")
	s.cancel()
	<-s.cron.Stop().Done()

	return nil
}

func (s *Scheduler) schedule(name jobs.Name, expr string) error {
	logger := s.logger.With("job", string(name))

	_, err := s.cron.AddFunc(expr, func() {
		logger.Info("Running scheduled job")

		if err := s.jobs.Run(s.ctx, name); err != nil {
			logger.Error("Scheduled job failed", "error", err)

			return
		}

		logger.Info("Scheduled job completed")
	})

	return err
}
