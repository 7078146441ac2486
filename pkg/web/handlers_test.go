package web

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelane/carelane/pkg/automation"
	"github.com/carelane/carelane/pkg/jobs"
	"github.com/carelane/carelane/pkg/lease"
	"github.com/carelane/carelane/pkg/messaging"
	"github.com/carelane/carelane/pkg/models"
	"github.com/carelane/carelane/pkg/outreach"
	"github.com/carelane/carelane/pkg/persistence/memory"
	"github.com/carelane/carelane/pkg/screening"
	"github.com/carelane/carelane/pkg/services"
)

const testCronSecret = "cron-secret"

func newTestApp(store *memory.Persistence) *fiber.App {
	logger := slog.Default()
	gateway := messaging.NewGatewayWithClients(store, messaging.NewTwilioClient(), messaging.NewSendGridClient(), nil, logger)
	notifier := services.NewNotifier(store, logger)
	dispatcher := outreach.NewDispatcher(store, gateway, nil, nil, logger)
	runner := automation.NewRunner(store, gateway, notifier, lease.NewMemoryLease(), nil, logger)
	jobService := jobs.NewService(store, runner, dispatcher, notifier, nil, logger)
	promotion := services.NewPromotionService(store, nil, logger)
	screeningClient := screening.NewClient(store.CredentialRepository())

	handlers := NewAPIHandlers(store, gateway, dispatcher, promotion, screeningClient, jobService,
		validator.New(validator.WithRequiredStructEnabled()), logger, testCronSecret)

	app := fiber.New()
	app.Post("/messages", handlers.SendMessage)
	app.Post("/outreach/dispatch", handlers.DispatchOutreach)
	app.Post("/candidates/:id/promote", handlers.PromoteCandidate)
	app.Post("/candidates/:id/phone-screen", handlers.StartPhoneScreen)
	app.Get("/agencies/:id/conversations", handlers.ListConversations)
	app.Post("/conversations/:id/read", handlers.MarkConversationRead)
	app.Post("/jobs/:name", handlers.TriggerJob)
	app.Get("/health", handlers.HealthCheck)

	return app
}

func jsonRequest(t *testing.T, method, path string, payload any) *http.Request {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	return req
}

func TestSendMessageEndpointReturnsGatewayContract(t *testing.T) {
	store := memory.NewPersistence()
	app := newTestApp(store)

	req := jsonRequest(t, http.MethodPost, "/messages", SendMessageRequest{
		AgencyID: "agency-1",
		Channel:  "sms",
		To:       "+15551234567",
		Body:     "Welcome!",
	})

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body SendMessageResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.NotEmpty(t, body.MessageID)
	assert.Equal(t, "pending", body.Status)
	assert.True(t, body.Mock, "no credentials configured, the send must be mock")

	require.Len(t, store.MessageLogs(), 1)
}

func TestSendMessageEndpointRejectsBadChannel(t *testing.T) {
	app := newTestApp(memory.NewPersistence())

	req := jsonRequest(t, http.MethodPost, "/messages", SendMessageRequest{
		AgencyID: "agency-1",
		Channel:  "fax",
		To:       "+15551234567",
		Body:     "Welcome!",
	})

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDispatchEndpoint(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPersistence()

	require.NoError(t, store.AgencyRepository().Save(ctx, &models.Agency{ID: "agency-1", Name: "Sunrise", Slug: "sunrise"}))
	require.NoError(t, store.CandidateRepository().Save(ctx, &models.Candidate{
		ID: "cand-1", AgencyID: "agency-1", FirstName: "Maria", Phone: "+15551234567",
	}))

	app := newTestApp(store)

	req := jsonRequest(t, http.MethodPost, "/outreach/dispatch", DispatchRequest{
		AgencyID:     "agency-1",
		SequenceType: outreach.SequenceColdOutreach,
		CandidateIDs: []string{"cand-1"},
	})

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body DispatchResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 0, body.Sent, "no credentials, so step one stays queued")

	candidate, err := store.CandidateRepository().GetByID(ctx, "cand-1")
	require.NoError(t, err)
	assert.Equal(t, models.OutreachStatusQueued, candidate.OutreachStatus)
}

func TestPromoteEndpointIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPersistence()

	require.NoError(t, store.CandidateRepository().Save(ctx, &models.Candidate{
		ID: "cand-1", AgencyID: "agency-1", FirstName: "Maria",
	}))

	app := newTestApp(store)

	first, err := app.Test(jsonRequest(t, http.MethodPost, "/candidates/cand-1/promote", PromoteRequest{AgencyID: "agency-1"}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, first.StatusCode)

	var caregiver1 models.Caregiver
	require.NoError(t, json.NewDecoder(first.Body).Decode(&caregiver1))

	second, err := app.Test(jsonRequest(t, http.MethodPost, "/candidates/cand-1/promote", PromoteRequest{AgencyID: "agency-1"}))
	require.NoError(t, err)

	var caregiver2 models.Caregiver
	require.NoError(t, json.NewDecoder(second.Body).Decode(&caregiver2))
	assert.Equal(t, caregiver1.ID, caregiver2.ID)
}

func TestPhoneScreenRequiresConfiguredProvider(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPersistence()

	require.NoError(t, store.CandidateRepository().Save(ctx, &models.Candidate{
		ID: "cand-1", AgencyID: "agency-1", FirstName: "Maria", Phone: "+15551234567",
	}))

	app := newTestApp(store)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/candidates/cand-1/phone-screen", PhoneScreenRequest{AgencyID: "agency-1"}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestConversationsEndpoints(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPersistence()

	require.NoError(t, store.ConversationRepository().Save(ctx, &models.ConversationThread{
		ID:          "th-1",
		AgencyID:    "agency-1",
		Channel:     models.ChannelSMS,
		Address:     "+15551234567",
		UnreadCount: 3,
	}))

	app := newTestApp(store)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/agencies/agency-1/conversations", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var list struct {
		Conversations []models.ConversationThread `json:"conversations"`
		TotalCount    int                         `json:"total_count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Equal(t, 1, list.TotalCount)

	read, err := app.Test(httptest.NewRequest(http.MethodPost, "/conversations/th-1/read", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, read.StatusCode)

	thread, err := store.ConversationRepository().GetByID(ctx, "th-1")
	require.NoError(t, err)
	assert.Equal(t, 0, thread.UnreadCount)
}

func TestTriggerJobRequiresSecret(t *testing.T) {
	app := newTestApp(memory.NewPersistence())

	missing, err := app.Test(httptest.NewRequest(http.MethodPost, "/jobs/automations", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, missing.StatusCode)

	req := httptest.NewRequest(http.MethodPost, "/jobs/automations", nil)
	req.Header.Set(CronSecretHeader, testCronSecret)

	ok, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, ok.StatusCode)
}

func TestTriggerJobRejectsUnknownName(t *testing.T) {
	app := newTestApp(memory.NewPersistence())

	req := httptest.NewRequest(http.MethodPost, "/jobs/backfill", nil)
	req.Header.Set(CronSecretHeader, testCronSecret)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
