package messaging

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelane/carelane/pkg/models"
	"github.com/carelane/carelane/pkg/persistence/memory"
)

func testLogger() *slog.Logger {
	return slog.Default()
}

func seedTwilioCredentials(t *testing.T, store *memory.Persistence, agencyID string) {
	t.Helper()

	ctx := context.Background()
	repo := store.CredentialRepository()

	for key, value := range map[string]string{
		models.CredentialTwilioAccountSID:  "AC123",
		models.CredentialTwilioAuthToken:   "token",
		models.CredentialTwilioPhoneNumber: "+15550001111",
	} {
		require.NoError(t, repo.Save(ctx, &models.Credential{
			ID:        key + "-" + agencyID,
			AgencyID:  agencyID,
			Key:       key,
			Value:     value,
			Connected: true,
		}))
	}
}

func TestSendSMSUnconfiguredLogsMockWithoutNetwork(t *testing.T) {
	store := memory.NewPersistence()

	networkHit := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		networkHit = true
	}))
	defer server.Close()

	gateway := NewGatewayWithClients(store, NewTwilioClientWithBaseURL(server.URL), NewSendGridClientWithBaseURL(server.URL), nil, testLogger())

	result, err := gateway.Send(context.Background(), Request{
		AgencyID: "agency-1",
		Channel:  models.ChannelSMS,
		To:       "+15551234567",
		Body:     "Welcome aboard",
	})
	require.NoError(t, err)

	assert.Equal(t, models.MessageStatusPending, result.Status)
	assert.True(t, result.Mock)
	assert.False(t, networkHit, "unconfigured send must not reach the provider")

	logs := store.MessageLogs()
	require.Len(t, logs, 1)
	assert.True(t, logs[0].Mock)
	assert.Equal(t, models.MessageStatusPending, logs[0].Status)
}

func TestSendSMSConfiguredSuccess(t *testing.T) {
	store := memory.NewPersistence()
	seedTwilioCredentials(t, store, "agency-1")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "+15551234567", r.PostForm.Get("To"))
		assert.Equal(t, "+15550001111", r.PostForm.Get("From"))

		user, _, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC123", user)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM42"}`))
	}))
	defer server.Close()

	gateway := NewGatewayWithClients(store, NewTwilioClientWithBaseURL(server.URL), NewSendGridClient(), nil, testLogger())

	result, err := gateway.Send(context.Background(), Request{
		AgencyID: "agency-1",
		Channel:  models.ChannelSMS,
		To:       "+15551234567",
		Body:     "Welcome aboard",
	})
	require.NoError(t, err)

	assert.Equal(t, models.MessageStatusSent, result.Status)
	assert.Equal(t, "SM42", result.ExternalID)
	assert.False(t, result.Mock)

	logs := store.MessageLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, "SM42", logs[0].ExternalID)
}

func TestSendSMSProviderFailureLogsFailed(t *testing.T) {
	store := memory.NewPersistence()
	seedTwilioCredentials(t, store, "agency-1")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"invalid number"}`))
	}))
	defer server.Close()

	gateway := NewGatewayWithClients(store, NewTwilioClientWithBaseURL(server.URL), NewSendGridClient(), nil, testLogger())

	result, err := gateway.Send(context.Background(), Request{
		AgencyID: "agency-1",
		Channel:  models.ChannelSMS,
		To:       "not-a-number",
		Body:     "hi",
	})
	require.NoError(t, err, "provider failures are reported in the result, not the error")

	assert.Equal(t, models.MessageStatusFailed, result.Status)
	assert.Contains(t, result.Error, "invalid number")

	logs := store.MessageLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, models.MessageStatusFailed, logs[0].Status)
}

func TestSendEmailConfiguredWrapsBodyInBranding(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPersistence()

	require.NoError(t, store.AgencyRepository().Save(ctx, &models.Agency{
		ID:           "agency-1",
		Name:         "Sunrise Home Care",
		Slug:         "sunrise",
		PrimaryColor: "#ff6600",
		Phone:        "(555) 010-0200",
	}))
	require.NoError(t, store.CredentialRepository().Save(ctx, &models.Credential{
		ID:        "sg",
		AgencyID:  "agency-1",
		Key:       models.CredentialSendgridAPIKey,
		Value:     "SG.key",
		Connected: true,
	}))

	var sentBody string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer SG.key", r.Header.Get("Authorization"))

		buf, _ := io.ReadAll(r.Body)
		sentBody = string(buf)

		w.Header().Set("X-Message-Id", "msg-7")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	gateway := NewGatewayWithClients(store, NewTwilioClient(), NewSendGridClientWithBaseURL(server.URL), nil, testLogger())

	result, err := gateway.Send(ctx, Request{
		AgencyID: "agency-1",
		Channel:  models.ChannelEmail,
		To:       "maria@example.com",
		Subject:  "Next steps",
		Body:     "We received your application.",
	})
	require.NoError(t, err)

	assert.Equal(t, models.MessageStatusSent, result.Status)
	assert.Equal(t, "msg-7", result.ExternalID)
	assert.Contains(t, sentBody, "Sunrise Home Care")
	assert.Contains(t, sentBody, "#ff6600")
}

func TestSendInAppCreatesNotification(t *testing.T) {
	store := memory.NewPersistence()
	gateway := NewGatewayWithClients(store, NewTwilioClient(), NewSendGridClient(), nil, testLogger())

	result, err := gateway.Send(context.Background(), Request{
		AgencyID: "agency-1",
		Channel:  models.ChannelInApp,
		UserID:   "user-9",
		Subject:  "Heads up",
		Body:     "A lead replied",
	})
	require.NoError(t, err)
	assert.Equal(t, models.MessageStatusSent, result.Status)

	notifications := store.Notifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, "user-9", notifications[0].UserID)
	assert.Equal(t, "Heads up", notifications[0].Title)
}

func TestSendValidation(t *testing.T) {
	store := memory.NewPersistence()
	gateway := NewGatewayWithClients(store, NewTwilioClient(), NewSendGridClient(), nil, testLogger())

	tests := []struct {
		name    string
		req     Request
		wantErr error
	}{
		{"unknown channel", Request{AgencyID: "a", Channel: "carrier_pigeon", To: "x", Body: "b"}, ErrUnknownChannel},
		{"missing recipient", Request{AgencyID: "a", Channel: models.ChannelSMS, Body: "b"}, ErrMissingRecipient},
		{"missing user", Request{AgencyID: "a", Channel: models.ChannelInApp, Body: "b"}, ErrMissingUser},
		{"empty body", Request{AgencyID: "a", Channel: models.ChannelSMS, To: "x"}, ErrEmptyBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := gateway.Send(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Empty(t, store.MessageLogs(), "rejected requests must not be logged")
}

func TestBrandEmailFallsBackToNeutralBranding(t *testing.T) {
	html := BrandEmail(nil, "Hello there.\n\nSecond line.")

	assert.Contains(t, html, "Carelane")
	assert.Contains(t, html, defaultBrandColor)
	assert.Contains(t, html, "<p style=\"margin:0 0 12px\">Hello there.</p>")
}
