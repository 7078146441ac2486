package outreach

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelane/carelane/pkg/messaging"
	"github.com/carelane/carelane/pkg/models"
	"github.com/carelane/carelane/pkg/persistence/memory"
	"github.com/carelane/carelane/pkg/services"
)

func seedAgency(t *testing.T, store *memory.Persistence) *models.Agency {
	t.Helper()

	agency := &models.Agency{
		ID:    "agency-1",
		Name:  "Sunrise Home Care",
		Slug:  "sunrise",
		Phone: "(555) 010-0200",
	}
	require.NoError(t, store.AgencyRepository().Save(context.Background(), agency))

	return agency
}

func seedCandidate(t *testing.T, store *memory.Persistence, id, phone string) *models.Candidate {
	t.Helper()

	candidate := &models.Candidate{
		ID:             id,
		AgencyID:       "agency-1",
		FirstName:      "Maria",
		LastName:       "Lopez",
		Phone:          phone,
		State:          "TX",
		OutreachStatus: models.OutreachStatusNotStarted,
	}
	require.NoError(t, store.CandidateRepository().Save(context.Background(), candidate))

	return candidate
}

func seedTwilio(t *testing.T, store *memory.Persistence) {
	t.Helper()

	for key, value := range map[string]string{
		models.CredentialTwilioAccountSID:  "AC123",
		models.CredentialTwilioAuthToken:   "token",
		models.CredentialTwilioPhoneNumber: "+15550001111",
	} {
		require.NoError(t, store.CredentialRepository().Save(context.Background(), &models.Credential{
			ID: key, AgencyID: "agency-1", Key: key, Value: value, Connected: true,
		}))
	}
}

func newDispatcher(store *memory.Persistence, smsBaseURL string) *Dispatcher {
	sms := messaging.NewTwilioClient()
	if smsBaseURL != "" {
		sms = messaging.NewTwilioClientWithBaseURL(smsBaseURL)
	}

	gateway := messaging.NewGatewayWithClients(store, sms, messaging.NewSendGridClient(), nil, slog.Default())

	return NewDispatcher(store, gateway, nil, nil, slog.Default())
}

func twilioStub(t *testing.T, bodies *[]string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())

		if bodies != nil {
			*bodies = append(*bodies, r.PostForm.Get("Body"))
		}

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"sid":"SM1"}`)
	}))
}

func TestDispatchWithoutCredentialsQueuesCandidate(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPersistence()
	seedAgency(t, store)
	seedCandidate(t, store, "cand-1", "+15551234567")

	dispatcher := newDispatcher(store, "")

	result, err := dispatcher.Dispatch(ctx, "agency-1", SequenceColdOutreach, []string{"cand-1"})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Sent)

	candidate, err := store.CandidateRepository().GetByID(ctx, "cand-1")
	require.NoError(t, err)
	assert.Equal(t, models.OutreachStatusQueued, candidate.OutreachStatus)

	enrollments, err := store.EnrollmentRepository().ListActiveByContact(ctx, "agency-1", "candidate", "cand-1")
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	assert.Equal(t, SequenceColdOutreach, enrollments[0].SequenceType)
	assert.Equal(t, 1, enrollments[0].CurrentStep)

	logs := store.MessageLogs()
	require.Len(t, logs, 1)
	assert.True(t, logs[0].Mock)
}

func TestDispatchWithCredentialsSendsStepOne(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPersistence()
	seedAgency(t, store)
	seedCandidate(t, store, "cand-1", "+15551234567")
	seedTwilio(t, store)

	var bodies []string

	server := twilioStub(t, &bodies)
	defer server.Close()

	dispatcher := newDispatcher(store, server.URL)

	result, err := dispatcher.Dispatch(ctx, "agency-1", SequenceColdOutreach, []string{"cand-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)

	candidate, err := store.CandidateRepository().GetByID(ctx, "cand-1")
	require.NoError(t, err)
	assert.Equal(t, models.OutreachStatusSent, candidate.OutreachStatus)

	require.Len(t, bodies, 1)
	assert.Contains(t, bodies[0], "Maria Lopez")
	assert.Contains(t, bodies[0], "Sunrise Home Care")
	assert.Contains(t, bodies[0], "TX")
	assert.NotContains(t, bodies[0], "{name}")
}

func TestDispatchLeavesUnresolvedPlaceholdersVerbatim(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPersistence()
	seedAgency(t, store)
	seedCandidate(t, store, "cand-1", "+15551234567")
	seedTwilio(t, store)

	var bodies []string

	server := twilioStub(t, &bodies)
	defer server.Close()

	dispatcher := newDispatcher(store, server.URL)

	// competitive_poaching references {pay_rate}, which has no value here.
	_, err := dispatcher.Dispatch(ctx, "agency-1", SequenceCompetitivePoaching, []string{"cand-1"})
	require.NoError(t, err)

	require.Len(t, bodies, 1)
	assert.Contains(t, bodies[0], "{pay_rate}")
}

func TestDispatchUnknownSequence(t *testing.T) {
	store := memory.NewPersistence()
	seedAgency(t, store)

	dispatcher := newDispatcher(store, "")

	_, err := dispatcher.Dispatch(context.Background(), "agency-1", "warm_intro", nil)
	assert.ErrorIs(t, err, ErrUnknownSequence)
}

func TestDispatchRejectsEmptyInput(t *testing.T) {
	store := memory.NewPersistence()
	seedAgency(t, store)

	dispatcher := newDispatcher(store, "")

	_, err := dispatcher.Dispatch(context.Background(), "", SequenceColdOutreach, []string{"cand-1"})
	assert.ErrorIs(t, err, services.ErrEmptyAgencyID)
	assert.True(t, services.IsValidationError(err))

	_, err = dispatcher.Dispatch(context.Background(), "agency-1", SequenceColdOutreach, nil)
	assert.ErrorIs(t, err, services.ErrMissingRecipients)
	assert.True(t, services.IsValidationError(err))
}

func TestRetryQueuedSendsAfterCredentialsArrive(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPersistence()
	seedAgency(t, store)
	seedCandidate(t, store, "cand-1", "+15551234567")

	server := twilioStub(t, nil)
	defer server.Close()

	dispatcher := newDispatcher(store, server.URL)

	_, err := dispatcher.Dispatch(ctx, "agency-1", SequenceColdOutreach, []string{"cand-1"})
	require.NoError(t, err)

	seedTwilio(t, store)

	sent, err := dispatcher.RetryQueued(ctx, "agency-1")
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	candidate, err := store.CandidateRepository().GetByID(ctx, "cand-1")
	require.NoError(t, err)
	assert.Equal(t, models.OutreachStatusSent, candidate.OutreachStatus)
}

func TestRenderReplacesOnlyKnownNonEmptyFields(t *testing.T) {
	out := Render("Hi {name}, {agency_name} pays {pay_rate} in {state}", map[string]string{
		"name":        "Ana",
		"agency_name": "Sunrise",
		"pay_rate":    "",
	})

	assert.Equal(t, "Hi Ana, Sunrise pays {pay_rate} in {state}", out)
}
