package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/carelane/carelane/pkg/automation"
	"github.com/carelane/carelane/pkg/cmd"
	"github.com/carelane/carelane/pkg/config"
	"github.com/carelane/carelane/pkg/crm"
	"github.com/carelane/carelane/pkg/jobs"
	"github.com/carelane/carelane/pkg/log"
	"github.com/carelane/carelane/pkg/messaging"
	"github.com/carelane/carelane/pkg/otelhelper"
	"github.com/carelane/carelane/pkg/outreach"
	"github.com/carelane/carelane/pkg/services"
	cli "github.com/urfave/cli/v3"
)

func main() {
	logger := log.WithModule("runner")

	command := &cli.Command{
		Name:                  "carelane-runner",
		Usage:                 "Run scheduled automation sweeps, retries and briefings",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis connection URL for sweep leases",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "sequences-path",
				Usage:   "Path to a JSON file with custom outreach sequences",
				Sources: cli.EnvVars("SEQUENCES_PATH"),
			},
			&cli.StringFlag{
				Name:    "schedules-path",
				Usage:   "Path to a YAML file with cron schedule overrides",
				Sources: cli.EnvVars("SCHEDULES_PATH"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			tracerProvider, err := otelhelper.InitTracer(ctx, "carelane-runner")
			if err != nil {
				return fmt.Errorf("failed to initialize tracer: %w", err)
			}
			defer func() {
				if err := tracerProvider.Shutdown(ctx); err != nil {
					slog.Error("Failed to shutdown tracer provider", "error", err)
				}
			}()

			logger.InfoContext(ctx, "Initializing Carelane job runner")

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), "carelane-runner", logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			leases := cmd.NewLease(ctx, logger, command.String("redis-url"))

			gateway := messaging.NewGateway(persistence, eventBus, logger)
			crmClient := crm.NewClient(persistence.CredentialRepository())
			notifier := services.NewNotifier(persistence, logger)

			dispatcher := outreach.NewDispatcher(persistence, gateway, crmClient, eventBus, logger)
			if path := command.String("sequences-path"); path != "" {
				if err := dispatcher.LoadCustomSequences(path); err != nil {
					return fmt.Errorf("failed to load custom sequences: %w", err)
				}
			}

			runner := automation.NewRunner(persistence, gateway, notifier, leases, eventBus, logger)
			jobService := jobs.NewService(persistence, runner, dispatcher, notifier, nil, logger)

			recorder := services.NewActivityRecorder(persistence, notifier, logger)
			if err := recorder.Register(eventBus); err != nil {
				return fmt.Errorf("failed to register event handlers: %w", err)
			}

			if err := eventBus.Subscribe(ctx); err != nil {
				return fmt.Errorf("failed to subscribe to event bus: %w", err)
			}

			var overrides map[jobs.Name]string
			if path := command.String("schedules-path"); path != "" {
				overrides, err = config.LoadSchedules(path)
				if err != nil {
					return fmt.Errorf("failed to load schedule overrides: %w", err)
				}
			}

			scheduler := NewScheduler(ctx, jobService, overrides, logger)

			return scheduler.Start()
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
