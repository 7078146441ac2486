package inbound

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelane/carelane/pkg/models"
	"github.com/carelane/carelane/pkg/persistence/memory"
	"github.com/carelane/carelane/pkg/services"
)

func newTestRouter(store *memory.Persistence) *Router {
	return NewRouter(store, services.NewNotifier(store, slog.Default()), nil, slog.Default())
}

func seedTenant(t *testing.T, store *memory.Persistence, agencyID, twilioNumber string) {
	t.Helper()

	ctx := context.Background()
	require.NoError(t, store.AgencyRepository().Save(ctx, &models.Agency{
		ID: agencyID, Name: "Sunrise Home Care", Slug: agencyID,
	}))

	if twilioNumber != "" {
		require.NoError(t, store.CredentialRepository().Save(ctx, &models.Credential{
			ID:        agencyID + "-number",
			AgencyID:  agencyID,
			Key:       models.CredentialTwilioPhoneNumber,
			Value:     twilioNumber,
			Connected: true,
		}))
	}
}

func smsPayload(from, body string) Payload {
	return Payload{
		Channel:           models.ChannelSMS,
		From:              NormalizePhone(from),
		To:                "+15550001111",
		Body:              body,
		ProviderMessageID: "SMx",
	}
}

func TestProcessMatchesCaregiverByPhoneSuffix(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPersistence()
	seedTenant(t, store, "agency-1", "+15550001111")
	store.AddMember(&models.AgencyMember{ID: "m1", AgencyID: "agency-1", UserID: "user-1"})

	// Stored with formatting; matching goes by digit suffix.
	require.NoError(t, store.CaregiverRepository().Save(ctx, &models.Caregiver{
		ID:        "cg-1",
		AgencyID:  "agency-1",
		FirstName: "Ana",
		Phone:     "(555) 123-4567",
		Status:    models.CaregiverStatusContacted,
	}))

	router := newTestRouter(store)

	require.NoError(t, router.Process(ctx, smsPayload("+15551234567", "Sounds good, thank you")))

	messages := store.InboundMessages()
	require.Len(t, messages, 1)
	assert.True(t, messages[0].Matched)
	assert.Equal(t, "caregiver", messages[0].ContactType)
	assert.Equal(t, "cg-1", messages[0].ContactID)

	threads, err := store.ConversationRepository().ListByAgency(ctx, "agency-1")
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, 1, threads[0].UnreadCount)
	assert.Equal(t, "cg-1", threads[0].ContactID)

	notifications := store.Notifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationInboundReply, notifications[0].Kind)
}

func TestProcessUnmatchedSenderStillStoredAndThreaded(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPersistence()
	seedTenant(t, store, "agency-1", "+15550001111")

	router := newTestRouter(store)

	require.NoError(t, router.Process(ctx, smsPayload("+15559998888", "who is this?")))

	messages := store.InboundMessages()
	require.Len(t, messages, 1)
	assert.False(t, messages[0].Matched)

	threads, err := store.ConversationRepository().ListByAgency(ctx, "agency-1")
	require.NoError(t, err)
	require.Len(t, threads, 1)
}

func TestProcessRepeatMessagesIncrementUnread(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPersistence()
	seedTenant(t, store, "agency-1", "+15550001111")

	router := newTestRouter(store)

	require.NoError(t, router.Process(ctx, smsPayload("+15559998888", "first")))
	require.NoError(t, router.Process(ctx, smsPayload("+15559998888", "second")))

	threads, err := store.ConversationRepository().ListByAgency(ctx, "agency-1")
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, 2, threads[0].UnreadCount)
	assert.Equal(t, "second", threads[0].LastMessagePreview)
}

func TestPositiveReplyAdvancesNewCaregiver(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPersistence()
	seedTenant(t, store, "agency-1", "+15550001111")

	require.NoError(t, store.CaregiverRepository().Save(ctx, &models.Caregiver{
		ID:        "cg-1",
		AgencyID:  "agency-1",
		FirstName: "Ana",
		Phone:     "+15551234567",
		Status:    models.CaregiverStatusNew,
	}))

	router := newTestRouter(store)

	require.NoError(t, router.Process(ctx, smsPayload("+15551234567", "yes please!")))

	caregiver, err := store.CaregiverRepository().GetByID(ctx, "cg-1")
	require.NoError(t, err)
	assert.Equal(t, models.CaregiverStatusContacted, caregiver.Status)

	// A second positive reply changes nothing.
	require.NoError(t, router.Process(ctx, smsPayload("+15551234567", "YES")))

	caregiver, err = store.CaregiverRepository().GetByID(ctx, "cg-1")
	require.NoError(t, err)
	assert.Equal(t, models.CaregiverStatusContacted, caregiver.Status)
}

func TestPositiveReplyNeverMovesAdvancedCaregiverBack(t *testing.T) {
	ctx := context.Background()

	for _, status := range []models.CaregiverStatus{
		models.CaregiverStatusIntakeStarted,
		models.CaregiverStatusEnrollmentPending,
		models.CaregiverStatusAuthorized,
		models.CaregiverStatusActive,
	} {
		store := memory.NewPersistence()
		seedTenant(t, store, "agency-1", "+15550001111")

		require.NoError(t, store.CaregiverRepository().Save(ctx, &models.Caregiver{
			ID:        "cg-1",
			AgencyID:  "agency-1",
			FirstName: "Ana",
			Phone:     "+15551234567",
			Status:    status,
		}))

		router := newTestRouter(store)

		require.NoError(t, router.Process(ctx, smsPayload("+15551234567", "yes")))

		caregiver, err := store.CaregiverRepository().GetByID(ctx, "cg-1")
		require.NoError(t, err)
		assert.Equal(t, status, caregiver.Status, "status %s must not change", status)
	}
}

func TestPreviewTruncatesOnRuneBoundary(t *testing.T) {
	short := "hola"
	assert.Equal(t, short, preview(short))

	// 60 two-byte runes is 120 bytes exactly; one more crosses the limit and
	// must not leave half a rune behind.
	long := strings.Repeat("é", 61)
	truncated := preview(long)

	assert.True(t, utf8.ValidString(truncated))
	assert.Equal(t, strings.Repeat("é", 60), truncated)
	assert.LessOrEqual(t, len(truncated), previewLength)
}

func TestStopKeywordWinsOverPositiveAndCancelsEnrollments(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPersistence()
	seedTenant(t, store, "agency-1", "+15550001111")
	store.AddMember(&models.AgencyMember{ID: "m1", AgencyID: "agency-1", UserID: "user-1"})

	require.NoError(t, store.CandidateRepository().Save(ctx, &models.Candidate{
		ID:        "cand-1",
		AgencyID:  "agency-1",
		FirstName: "Maria",
		Phone:     "+15551234567",
	}))
	require.NoError(t, store.EnrollmentRepository().Save(ctx, &models.SequenceEnrollment{
		ID:           "enr-1",
		AgencyID:     "agency-1",
		ContactType:  "candidate",
		ContactID:    "cand-1",
		SequenceType: "cold_outreach",
		Status:       models.EnrollmentStatusActive,
		CurrentStep:  1,
		EnrolledAt:   time.Now().UTC(),
	}))

	router := newTestRouter(store)

	// "YES but STOP texting me" carries both keyword sets; opt-out wins.
	require.NoError(t, router.Process(ctx, smsPayload("+15551234567", "YES but STOP texting me")))

	enrollments, err := store.EnrollmentRepository().ListActiveByContact(ctx, "agency-1", "candidate", "cand-1")
	require.NoError(t, err)
	assert.Empty(t, enrollments)

	notifications := store.Notifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationOptOut, notifications[0].Kind)
}

func TestProcessWithoutResolvableTenantFails(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPersistence()
	seedTenant(t, store, "agency-1", "+15550001111")
	seedTenant(t, store, "agency-2", "")

	router := newTestRouter(store)

	// Two tenants and an unknown destination number: no sole-tenant fallback.
	err := router.Process(ctx, Payload{
		Channel: models.ChannelSMS,
		From:    "+15551234567",
		To:      "+15557770000",
		Body:    "hello",
	})
	assert.ErrorIs(t, err, ErrNoTenant)
	assert.Empty(t, store.InboundMessages())
}

func TestSoleTenantFallback(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPersistence()
	seedTenant(t, store, "agency-1", "")

	router := newTestRouter(store)

	require.NoError(t, router.Process(ctx, Payload{
		Channel: models.ChannelEmail,
		From:    "ana@example.com",
		To:      "jobs@unknown-domain.com",
		Body:    "I'm interested in the caregiver role",
	}))

	messages := store.InboundMessages()
	require.Len(t, messages, 1)
	assert.Equal(t, "agency-1", messages[0].AgencyID)
}

func TestParseTwilioFormRejectsMissingFields(t *testing.T) {
	_, err := ParseTwilioForm(url.Values{"From": {"+15551234567"}})
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"(555) 123-4567", "+15551234567"},
		{"15551234567", "+15551234567"},
		{"+1 555 123 4567", "+15551234567"},
		{"+447911123456", "+447911123456"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePhone(tt.in), "input %q", tt.in)
	}
}

func TestClassifyReply(t *testing.T) {
	tests := []struct {
		body string
		want Intent
	}{
		{"STOP", IntentStop},
		{"please unsubscribe me", IntentStop},
		{"opt out", IntentStop},
		{"YES!", IntentPositive},
		{"i'm interested", IntentPositive},
		{"yes but STOP texting me", IntentStop},
		{"what is this about?", IntentNone},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyReply(tt.body), "body %q", tt.body)
	}
}
