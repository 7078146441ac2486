package inbound

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

const twilioAck = "<Response></Response>"

// Handlers adapts the router to provider webhook HTTP semantics: providers
// are always acknowledged with 200, whatever happened internally, so they
// never retry-storm us over our own bugs.
type Handlers struct {
	router *Router
	logger *slog.Logger
}

func NewHandlers(router *Router, logger *slog.Logger) *Handlers {
	return &Handlers{
		router: router,
		logger: logger.With("module", "inbound-http"),
	}
}

// App builds the hooks server.
func (h *Handlers) App() *fiber.App {
	app := fiber.New()
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	webhooks := app.Group("/webhooks")
	webhooks.Post("/twilio/sms", h.TwilioSMS)
	webhooks.Post("/sendgrid/inbound", h.SendGridInbound)

	return app
}

// TwilioSMS handles incoming SMS callbacks. The empty TwiML response tells
// Twilio not to reply to the sender.
func (h *Handlers) TwilioSMS(c fiber.Ctx) error {
	payload, err := ParseTwilioForm(formValues(c))
	if err != nil {
		h.logger.WarnContext(c.Context(), "ignoring malformed twilio webhook", "error", err)

		return ackTwilio(c)
	}

	if err := h.router.Process(c.Context(), payload); err != nil {
		h.logger.ErrorContext(c.Context(), "failed to process inbound SMS", "error", err)
	}

	return ackTwilio(c)
}

// SendGridInbound handles the inbound parse webhook, which arrives as
// multipart form data or JSON depending on configuration.
func (h *Handlers) SendGridInbound(c fiber.Ctx) error {
	var (
		payload Payload
		err     error
	)

	contentType := string(c.Request().Header.ContentType())
	if strings.Contains(contentType, "application/json") {
		payload, err = ParseSendGridJSON(c.Body())
	} else {
		payload, err = ParseSendGridForm(formValues(c))
	}

	if err != nil {
		h.logger.WarnContext(c.Context(), "ignoring malformed sendgrid webhook", "error", err)

		return c.SendString("OK")
	}

	if err := h.router.Process(c.Context(), payload); err != nil {
		h.logger.ErrorContext(c.Context(), "failed to process inbound email", "error", err)
	}

	return c.SendString("OK")
}

func ackTwilio(c fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/xml")

	return c.SendString(twilioAck)
}

// formValues collects both urlencoded and multipart fields.
func formValues(c fiber.Ctx) url.Values {
	values := url.Values{}

	if form, err := c.MultipartForm(); err == nil && form != nil {
		for key, vals := range form.Value {
			values[key] = vals
		}

		return values
	}

	args := c.Request().PostArgs()
	args.VisitAll(func(key, value []byte) {
		values.Add(string(key), string(value))
	})

	return values
}
