package inbound

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelane/carelane/pkg/models"
	"github.com/carelane/carelane/pkg/persistence/memory"
	"github.com/carelane/carelane/pkg/services"
)

func newTestApp(store *memory.Persistence) *Handlers {
	router := NewRouter(store, services.NewNotifier(store, slog.Default()), nil, slog.Default())

	return NewHandlers(router, slog.Default())
}

func TestTwilioWebhookProcessesAndAcks(t *testing.T) {
	store := memory.NewPersistence()
	require.NoError(t, store.AgencyRepository().Save(context.Background(), &models.Agency{
		ID: "agency-1", Name: "Sunrise", Slug: "sunrise",
	}))

	app := newTestApp(store).App()

	form := url.Values{}
	form.Set("From", "+15551234567")
	form.Set("To", "+15550001111")
	form.Set("Body", "YES")
	form.Set("MessageSid", "SM123")

	req := httptest.NewRequest(http.MethodPost, "/webhooks/twilio/sms", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "<Response></Response>", string(body))

	messages := store.InboundMessages()
	require.Len(t, messages, 1)
	assert.Equal(t, "SM123", messages[0].ProviderMessageID)
}

func TestTwilioWebhookMalformedPayloadAcksWithoutWrites(t *testing.T) {
	store := memory.NewPersistence()
	app := newTestApp(store).App()

	req := httptest.NewRequest(http.MethodPost, "/webhooks/twilio/sms", strings.NewReader("Body="))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "<Response></Response>", string(body))

	assert.Empty(t, store.InboundMessages())
	assert.Empty(t, store.Notifications())
}

func TestSendGridWebhookJSON(t *testing.T) {
	store := memory.NewPersistence()
	require.NoError(t, store.AgencyRepository().Save(context.Background(), &models.Agency{
		ID: "agency-1", Name: "Sunrise", Slug: "sunrise",
	}))

	app := newTestApp(store).App()

	payload := `{"from":"Ana <ana@example.com>","to":"jobs@sunrise.care","subject":"Re: openings","text":"I'm interested"}`

	req := httptest.NewRequest(http.MethodPost, "/webhooks/sendgrid/inbound", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "OK", string(body))

	messages := store.InboundMessages()
	require.Len(t, messages, 1)
	assert.Equal(t, models.ChannelEmail, messages[0].Channel)
	assert.Equal(t, "ana@example.com", messages[0].From)
}

func TestSendGridWebhookMalformedJSONAcks(t *testing.T) {
	store := memory.NewPersistence()
	app := newTestApp(store).App()

	req := httptest.NewRequest(http.MethodPost, "/webhooks/sendgrid/inbound", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Empty(t, store.InboundMessages())
}
