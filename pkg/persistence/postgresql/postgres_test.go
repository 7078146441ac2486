package postgresql_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/carelane/carelane/pkg/models"
	"github.com/carelane/carelane/pkg/persistence"
	"github.com/carelane/carelane/pkg/persistence/postgresql"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var postgresContainer *postgres.PostgresContainer

func dropDb(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	// Drop tables in reverse dependency order (children first, parents last)
	for _, table := range []string{
		"activity_log", "sequence_enrollments", "credentials", "notifications",
		"conversation_threads", "inbound_messages", "message_logs", "automation_rules",
		"ad_campaigns", "candidates", "sourcing_campaigns", "caregivers",
		"agency_members", "agencies", "schema_migrations",
	} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	err = db.Close()
	require.NoError(t, err)
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context, string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("carelane_test"),
			postgres.WithUsername("carelane"),
			postgres.WithPassword("carelane"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDb(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDb(ctx, t, databaseURL)

		err = p.Close(ctx)
		require.NoError(t, err)

		cancel()
	})

	return p, ctx, databaseURL
}

func seedAgency(ctx context.Context, t *testing.T, p *postgresql.Persistence, name string) *models.Agency {
	t.Helper()

	now := time.Now().UTC()
	agency := &models.Agency{
		ID:        uuid.New().String(),
		Name:      name,
		Slug:      uuid.New().String()[:8],
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, p.AgencyRepository().Save(ctx, agency))

	return agency
}

func TestNewPersistence_Migrations(t *testing.T) {
	_, ctx, databaseURL := setupTestDB(t)

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer func() {
		err := db.Close()
		require.NoError(t, err)
	}()

	// Verify tables were created
	var exists bool

	err = db.QueryRowContext(ctx, `SELECT EXISTS (SELECT FROM
information_schema.tables WHERE table_name = 'caregivers')`).Scan(&exists)
	require.NoError(t, err)
	assert.True(t, exists, "caregivers table should exist")

	err = db.QueryRowContext(ctx, `SELECT EXISTS (SELECT FROM
information_schema.tables WHERE table_name = 'schema_migrations')`).Scan(&exists)
	require.NoError(t, err)
	assert.True(t, exists, "schema_migrations table should exist")

	var version int

	err = db.QueryRowContext(ctx, "SELECT version FROM schema_migrations WHERE version = 1").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestNewPersistence_HealthCheck(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	err := p.HealthCheck(ctx)
	assert.NoError(t, err)
}

func TestCaregiverRepository_SaveAndRetrieve(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	agency := seedAgency(ctx, t, p, "Sunrise Home Care")

	now := time.Now().UTC()
	caregiver := &models.Caregiver{
		ID:                  uuid.New().String(),
		AgencyID:            agency.ID,
		FirstName:           "Maria",
		LastName:            "Lopez",
		Phone:               "+15551234567",
		Email:               "maria@example.com",
		State:               "PA",
		CurrentlyCaregiving: true,
		YearsExperience:     4,
		HasTransportation:   true,
		Status:              models.CaregiverStatusNew,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	require.NoError(t, p.CaregiverRepository().Save(ctx, caregiver))

	got, err := p.CaregiverRepository().GetByID(ctx, caregiver.ID)
	require.NoError(t, err)
	assert.Equal(t, "Maria", got.FirstName)
	assert.Equal(t, models.CaregiverStatusNew, got.Status)
	assert.True(t, got.CurrentlyCaregiving)
	assert.Nil(t, got.LeadScore)

	_, err = p.CaregiverRepository().GetByID(ctx, uuid.New().String())
	require.Error(t, err)
	assert.True(t, persistence.IsNotFound(err))
}

func TestCaregiverRepository_ListUnscoredExcludesScored(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	agency := seedAgency(ctx, t, p, "Sunrise Home Care")
	now := time.Now().UTC()

	unscored := &models.Caregiver{
		ID: uuid.New().String(), AgencyID: agency.ID, FirstName: "Ana",
		Status: models.CaregiverStatusNew, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, p.CaregiverRepository().Save(ctx, unscored))

	score := 78
	scored := &models.Caregiver{
		ID: uuid.New().String(), AgencyID: agency.ID, FirstName: "Bea",
		Status: models.CaregiverStatusNew, LeadScore: &score, LeadTier: models.LeadTierHot,
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, p.CaregiverRepository().Save(ctx, scored))

	list, err := p.CaregiverRepository().ListUnscored(ctx, agency.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, unscored.ID, list[0].ID)
}

func TestCaregiverRepository_FindByPhoneSuffix(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	agency := seedAgency(ctx, t, p, "Sunrise Home Care")
	other := seedAgency(ctx, t, p, "Harbor Care")
	now := time.Now().UTC()

	caregiver := &models.Caregiver{
		ID: uuid.New().String(), AgencyID: agency.ID, FirstName: "Maria",
		Phone: "+15551234567", Status: models.CaregiverStatusNew,
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, p.CaregiverRepository().Save(ctx, caregiver))

	got, err := p.CaregiverRepository().FindByPhoneSuffix(ctx, agency.ID, "5551234567")
	require.NoError(t, err)
	assert.Equal(t, caregiver.ID, got.ID)

	// Same suffix under another tenant must not match.
	_, err = p.CaregiverRepository().FindByPhoneSuffix(ctx, other.ID, "5551234567")
	require.Error(t, err)
	assert.True(t, persistence.IsNotFound(err))
}

func TestCandidateRepository_ListQueued(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	agency := seedAgency(ctx, t, p, "Sunrise Home Care")
	now := time.Now().UTC()

	queued := &models.Candidate{
		ID: uuid.New().String(), AgencyID: agency.ID, FirstName: "Dana",
		Phone: "+15557770001", OutreachStatus: models.OutreachStatusQueued,
		PhoneScreenStatus: models.PhoneScreenNotStarted,
		CreatedAt:         now, UpdatedAt: now,
	}
	require.NoError(t, p.CandidateRepository().Save(ctx, queued))

	sent := &models.Candidate{
		ID: uuid.New().String(), AgencyID: agency.ID, FirstName: "Eli",
		OutreachStatus: models.OutreachStatusSent, PhoneScreenStatus: models.PhoneScreenNotStarted,
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, p.CandidateRepository().Save(ctx, sent))

	list, err := p.CandidateRepository().ListQueued(ctx, agency.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, queued.ID, list[0].ID)

	byIDs, err := p.CandidateRepository().ListByIDs(ctx, agency.ID, []string{queued.ID, sent.ID})
	require.NoError(t, err)
	assert.Len(t, byIDs, 2)
}

func TestCredentialRepository_UpsertAndResolve(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	agency := seedAgency(ctx, t, p, "Sunrise Home Care")
	now := time.Now().UTC()

	cred := &models.Credential{
		ID: uuid.New().String(), AgencyID: agency.ID,
		Key: models.CredentialTwilioPhoneNumber, Value: "+15550009999",
		Connected: true, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, p.CredentialRepository().Save(ctx, cred))

	// Saving the same key again replaces the value.
	cred.ID = uuid.New().String()
	cred.Value = "+15550008888"
	require.NoError(t, p.CredentialRepository().Save(ctx, cred))

	got, err := p.CredentialRepository().Get(ctx, agency.ID, models.CredentialTwilioPhoneNumber)
	require.NoError(t, err)
	assert.Equal(t, "+15550008888", got.Value)
	assert.True(t, got.Usable())

	agencies, err := p.CredentialRepository().AgenciesWithValue(ctx, models.CredentialTwilioPhoneNumber, "+15550008888")
	require.NoError(t, err)
	assert.Equal(t, []string{agency.ID}, agencies)

	_, err = p.CredentialRepository().Get(ctx, agency.ID, models.CredentialSendgridAPIKey)
	require.Error(t, err)
	assert.True(t, persistence.IsCredentialNotFound(err))
}

func TestConversationRepository_UnreadLifecycle(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	agency := seedAgency(ctx, t, p, "Sunrise Home Care")
	now := time.Now().UTC()

	thread := &models.ConversationThread{
		ID: uuid.New().String(), AgencyID: agency.ID,
		Channel: models.ChannelSMS, Address: "+15551230000",
		UnreadCount: 1, LastMessagePreview: "I am interested",
		LastMessageAt: now, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, p.ConversationRepository().Save(ctx, thread))

	got, err := p.ConversationRepository().GetByAddress(ctx, agency.ID, models.ChannelSMS, "+15551230000")
	require.NoError(t, err)
	assert.Equal(t, thread.ID, got.ID)

	count, err := p.ConversationRepository().CountUnread(ctx, agency.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, p.ConversationRepository().MarkRead(ctx, thread.ID))

	count, err = p.ConversationRepository().CountUnread(ctx, agency.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestMessageRepository_AppendAndCount(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	agency := seedAgency(ctx, t, p, "Sunrise Home Care")
	now := time.Now().UTC()

	entry := &models.MessageLog{
		ID: uuid.New().String(), AgencyID: agency.ID,
		Channel: models.ChannelSMS, Recipient: "+15551234567",
		Body: "Welcome!", Status: models.MessageStatusSent,
		CreatedAt: now,
	}
	require.NoError(t, p.MessageRepository().AppendLog(ctx, entry))

	pending := &models.MessageLog{
		ID: uuid.New().String(), AgencyID: agency.ID,
		Channel: models.ChannelSMS, Recipient: "+15551234567",
		Body: "Queued", Status: models.MessageStatusPending, Mock: true,
		CreatedAt: now,
	}
	require.NoError(t, p.MessageRepository().AppendLog(ctx, pending))

	count, err := p.MessageRepository().CountSentSince(ctx, agency.ID, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestEnrollmentRepository_CancelActiveByContact(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	agency := seedAgency(ctx, t, p, "Sunrise Home Care")
	now := time.Now().UTC()
	contactID := uuid.New().String()

	enrollment := &models.SequenceEnrollment{
		ID: uuid.New().String(), AgencyID: agency.ID,
		ContactType: "candidate", ContactID: contactID,
		SequenceType: "cold_outreach", Status: models.EnrollmentStatusActive,
		CurrentStep: 1, EnrolledAt: now,
	}
	require.NoError(t, p.EnrollmentRepository().Save(ctx, enrollment))

	active, err := p.EnrollmentRepository().ListActiveByContact(ctx, agency.ID, "candidate", contactID)
	require.NoError(t, err)
	require.Len(t, active, 1)

	cancelled, err := p.EnrollmentRepository().CancelActiveByContact(ctx, agency.ID, "candidate", contactID)
	require.NoError(t, err)
	assert.Equal(t, 1, cancelled)

	active, err = p.EnrollmentRepository().ListActiveByContact(ctx, agency.ID, "candidate", contactID)
	require.NoError(t, err)
	assert.Empty(t, active)

	// Cancelling again is a no-op.
	cancelled, err = p.EnrollmentRepository().CancelActiveByContact(ctx, agency.ID, "candidate", contactID)
	require.NoError(t, err)
	assert.Equal(t, 0, cancelled)
}

func TestActivityRepository_AppendAndList(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	agency := seedAgency(ctx, t, p, "Sunrise Home Care")

	for i := range 3 {
		entry := &models.ActivityEntry{
			ID:           uuid.New().String(),
			AgencyID:     agency.ID,
			Kind:         "automation_sweep",
			Summary:      "sweep completed",
			ActionsTotal: i,
			CreatedAt:    time.Now().UTC(),
		}
		require.NoError(t, p.ActivityRepository().Append(ctx, entry))
	}

	entries, err := p.ActivityRepository().ListByAgency(ctx, agency.ID, 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
