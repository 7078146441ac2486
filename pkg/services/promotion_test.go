package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelane/carelane/pkg/models"
	"github.com/carelane/carelane/pkg/persistence/memory"
)

func TestPromoteCreatesCaregiverOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPersistence()

	require.NoError(t, store.CandidateRepository().Save(ctx, &models.Candidate{
		ID:        "cand-1",
		AgencyID:  "agency-1",
		FirstName: "Maria",
		LastName:  "Lopez",
		Phone:     "+15551234567",
		State:     "TX",
	}))

	service := NewPromotionService(store, nil, slog.Default())

	caregiver, err := service.Promote(ctx, "agency-1", "cand-1")
	require.NoError(t, err)
	assert.Equal(t, "Maria", caregiver.FirstName)
	assert.Equal(t, models.CaregiverStatusNew, caregiver.Status)

	// Second call must return the same record, not create another.
	again, err := service.Promote(ctx, "agency-1", "cand-1")
	require.NoError(t, err)
	assert.Equal(t, caregiver.ID, again.ID)

	candidate, err := store.CandidateRepository().GetByID(ctx, "cand-1")
	require.NoError(t, err)
	require.NotNil(t, candidate.PromotedCaregiverID)
	assert.Equal(t, caregiver.ID, *candidate.PromotedCaregiverID)
}

func TestPromoteRejectsEmptyIdentifiers(t *testing.T) {
	ctx := context.Background()
	service := NewPromotionService(memory.NewPersistence(), nil, slog.Default())

	_, err := service.Promote(ctx, "", "cand-1")
	assert.ErrorIs(t, err, ErrEmptyAgencyID)
	assert.True(t, IsValidationError(err))

	_, err = service.Promote(ctx, "agency-1", "")
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.True(t, IsValidationError(err))

	var serviceErr *ServiceError

	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, "promotion.promote", serviceErr.Op)
	assert.Equal(t, "empty_candidate_id", serviceErr.Code)
}

func TestPromoteRejectsWrongAgency(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPersistence()

	require.NoError(t, store.CandidateRepository().Save(ctx, &models.Candidate{
		ID:        "cand-1",
		AgencyID:  "agency-1",
		FirstName: "Maria",
	}))

	service := NewPromotionService(store, nil, slog.Default())

	_, err := service.Promote(ctx, "agency-2", "cand-1")
	assert.ErrorIs(t, err, ErrAgencyMismatch)
	assert.True(t, IsConflictError(err))
}

func TestNotifierFansOutToEveryMember(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPersistence()
	store.AddMember(&models.AgencyMember{ID: "m1", AgencyID: "agency-1", UserID: "user-1"})
	store.AddMember(&models.AgencyMember{ID: "m2", AgencyID: "agency-1", UserID: "user-2"})
	store.AddMember(&models.AgencyMember{ID: "m3", AgencyID: "agency-2", UserID: "user-3"})

	notifier := NewNotifier(store, slog.Default())

	created, err := notifier.NotifyAgency(ctx, "agency-1", models.NotificationInboundReply, "New reply", "A lead replied")
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	notifications := store.Notifications()
	require.Len(t, notifications, 2)

	for _, n := range notifications {
		assert.Equal(t, "agency-1", n.AgencyID)
		assert.Equal(t, models.NotificationInboundReply, n.Kind)
	}
}
