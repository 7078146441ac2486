// Package main provides the Carelane API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/carelane/carelane/pkg/automation"
	"github.com/carelane/carelane/pkg/crm"
	"github.com/carelane/carelane/pkg/eventbus"
	"github.com/carelane/carelane/pkg/jobs"
	"github.com/carelane/carelane/pkg/lease"
	"github.com/carelane/carelane/pkg/messaging"
	"github.com/carelane/carelane/pkg/outreach"
	"github.com/carelane/carelane/pkg/persistence"
	"github.com/carelane/carelane/pkg/screening"
	"github.com/carelane/carelane/pkg/services"
	"github.com/carelane/carelane/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger        *slog.Logger
	persistence   persistence.Persistence
	eventBus      eventbus.EventBus
	leases        lease.Lease
	validate      *validator.Validate
	cronSecret    string
	sequencesPath string
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	leases lease.Lease,
	cronSecret string,
	sequencesPath string,
) *API {
	return &API{
		persistence:   persistence,
		logger:        logger,
		eventBus:      eventBus,
		leases:        leases,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		cronSecret:    cronSecret,
		sequencesPath: sequencesPath,
	}
}

func (a *API) App() (*fiber.App, error) {
	gateway := messaging.NewGateway(a.persistence, a.eventBus, a.logger)
	crmClient := crm.NewClient(a.persistence.CredentialRepository())
	screeningClient := screening.NewClient(a.persistence.CredentialRepository())
	notifier := services.NewNotifier(a.persistence, a.logger)
	promotion := services.NewPromotionService(a.persistence, a.eventBus, a.logger)

	dispatcher := outreach.NewDispatcher(a.persistence, gateway, crmClient, a.eventBus, a.logger)
	if a.sequencesPath != "" {
		if err := dispatcher.LoadCustomSequences(a.sequencesPath); err != nil {
			return nil, err
		}
	}

	runner := automation.NewRunner(a.persistence, gateway, notifier, a.leases, a.eventBus, a.logger)
	jobService := jobs.NewService(a.persistence, runner, dispatcher, notifier, nil, a.logger)

	handlers := web.NewAPIHandlers(
		a.persistence,
		gateway,
		dispatcher,
		promotion,
		screeningClient,
		jobService,
		a.validate,
		a.logger,
		a.cronSecret,
	)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Carelane API")
	})

	app.Post("/messages", handlers.SendMessage)
	app.Post("/outreach/dispatch", handlers.DispatchOutreach)

	ca := app.Group("/candidates")
	ca.Post("/:id/promote", handlers.PromoteCandidate)
	ca.Post("/:id/phone-screen", handlers.StartPhoneScreen)

	app.Get("/agencies/:id/conversations", handlers.ListConversations)
	app.Post("/conversations/:id/read", handlers.MarkConversationRead)

	app.Post("/jobs/:name", handlers.TriggerJob)

	app.Get("/health", handlers.HealthCheck)

	return app, nil
}

func (a *API) Start(port int) error {
	app, err := a.App()
	if err != nil {
		return err
	}

	return app.Listen(":" + strconv.Itoa(port))
}
