package web

import (
	"crypto/subtle"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/carelane/carelane/pkg/jobs"
	"github.com/carelane/carelane/pkg/messaging"
	"github.com/carelane/carelane/pkg/models"
	"github.com/carelane/carelane/pkg/outreach"
	"github.com/carelane/carelane/pkg/persistence"
	"github.com/carelane/carelane/pkg/screening"
	"github.com/carelane/carelane/pkg/services"
)

// CronSecretHeader authenticates the scheduled-trigger endpoint. The runner
// and any external scheduler must present the shared secret here.
const CronSecretHeader = "X-Cron-Secret"

type APIHandlers struct {
	persistence persistence.Persistence
	gateway     *messaging.Gateway
	dispatcher  *outreach.Dispatcher
	promotion   *services.PromotionService
	screening   *screening.Client
	jobs        *jobs.Service
	validator   *validator.Validate
	logger      *slog.Logger
	cronSecret  string
}

func NewAPIHandlers(
	p persistence.Persistence,
	gateway *messaging.Gateway,
	dispatcher *outreach.Dispatcher,
	promotion *services.PromotionService,
	screeningClient *screening.Client,
	jobService *jobs.Service,
	validator *validator.Validate,
	logger *slog.Logger,
	cronSecret string,
) *APIHandlers {
	return &APIHandlers{
		persistence: p,
		gateway:     gateway,
		dispatcher:  dispatcher,
		promotion:   promotion,
		screening:   screeningClient,
		jobs:        jobService,
		validator:   validator,
		logger:      logger.With("module", "web"),
		cronSecret:  cronSecret,
	}
}

// SendMessage implements POST /messages.
func (h *APIHandlers) SendMessage(c fiber.Ctx) error {
	var req SendMessageRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, "Validation failed: "+err.Error())
	}

	result, err := h.gateway.Send(c.Context(), messaging.Request{
		AgencyID:    req.AgencyID,
		Channel:     models.Channel(req.Channel),
		To:          req.To,
		Subject:     req.Subject,
		Body:        req.Body,
		UserID:      req.UserID,
		RelatedType: req.RelatedType,
		RelatedID:   req.RelatedID,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(SendMessageResponse{
		Success:   true,
		MessageID: result.MessageID,
		Status:    string(result.Status),
		Mock:      result.Mock,
		Error:     result.Error,
	})
}

// DispatchOutreach implements POST /outreach/dispatch.
func (h *APIHandlers) DispatchOutreach(c fiber.Ctx) error {
	var req DispatchRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, "Validation failed: "+err.Error())
	}

	result, err := h.dispatcher.Dispatch(c.Context(), req.AgencyID, req.SequenceType, req.CandidateIDs)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(DispatchResponse{Sent: result.Sent})
}

// PromoteCandidate implements POST /candidates/:id/promote.
func (h *APIHandlers) PromoteCandidate(c fiber.Ctx) error {
	var req PromoteRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, "Validation failed: "+err.Error())
	}

	caregiver, err := h.promotion.Promote(c.Context(), req.AgencyID, c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(caregiver)
}

// StartPhoneScreen implements POST /candidates/:id/phone-screen.
func (h *APIHandlers) StartPhoneScreen(c fiber.Ctx) error {
	var req PhoneScreenRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, "Validation failed: "+err.Error())
	}

	candidate, err := h.persistence.CandidateRepository().GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	if candidate.AgencyID != req.AgencyID {
		return notFound(c, "candidate not found")
	}

	if candidate.Phone == "" {
		return badRequest(c, "candidate has no phone number")
	}

	task := req.Task
	if task == "" {
		task = "Conduct a short caregiver screening interview: confirm interest, experience and availability."
	}

	callID, err := h.screening.StartCall(c.Context(), req.AgencyID, candidate.Phone, task)
	if err != nil {
		return handleServiceError(c, err)
	}

	candidate.PhoneScreenStatus = models.PhoneScreenInProgress
	if err := h.persistence.CandidateRepository().Update(c.Context(), candidate); err != nil {
		h.logger.ErrorContext(c.Context(), "failed to update phone screen status",
			"candidate_id", candidate.ID, "error", err)
	}

	return c.JSON(PhoneScreenResponse{CallID: callID})
}

// ListConversations implements GET /agencies/:id/conversations.
func (h *APIHandlers) ListConversations(c fiber.Ctx) error {
	threads, err := h.persistence.ConversationRepository().ListByAgency(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"conversations": threads,
		"total_count":   len(threads),
	})
}

// MarkConversationRead implements POST /conversations/:id/read.
func (h *APIHandlers) MarkConversationRead(c fiber.Ctx) error {
	if err := h.persistence.ConversationRepository().MarkRead(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// TriggerJob implements POST /jobs/:name, the scheduled-trigger endpoint.
func (h *APIHandlers) TriggerJob(c fiber.Ctx) error {
	secret := c.Get(CronSecretHeader)
	if h.cronSecret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(h.cronSecret)) != 1 {
		return unauthorized(c, "invalid or missing cron secret")
	}

	name := jobs.Name(c.Params("name"))
	if !name.Valid() {
		return badRequest(c, "unknown job name: "+string(name))
	}

	if err := h.jobs.Run(c.Context(), name); err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"job": name, "status": "completed"})
}

// HealthCheck reports storage reachability.
func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	if err := h.persistence.HealthCheck(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unhealthy"})
	}

	return c.JSON(fiber.Map{"status": "ok"})
}
