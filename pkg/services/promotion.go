package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/carelane/carelane/pkg/eventbus"
	"github.com/carelane/carelane/pkg/events"
	"github.com/carelane/carelane/pkg/models"
	"github.com/carelane/carelane/pkg/persistence"
)

// PromotionService converts sourced candidates into caregiver pipeline
// records. Promotion happens at most once per candidate; repeating the call
// returns the caregiver created the first time.
type PromotionService struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
}

func NewPromotionService(p persistence.Persistence, publisher eventbus.EventPublisher, logger *slog.Logger) *PromotionService {
	return &PromotionService{
		persistence: p,
		publisher:   publisher,
		logger:      logger.With("module", "promotion"),
	}
}

// Promote creates a caregiver record from the candidate and stamps the
// candidate with the promotion pointer. Idempotent: an already promoted
// candidate yields its existing caregiver.
func (s *PromotionService) Promote(ctx context.Context, agencyID, candidateID string) (*models.Caregiver, error) {
	if agencyID == "" {
		return nil, NewValidationError("promotion.promote", "empty_agency_id", "agency ID is required", ErrEmptyAgencyID)
	}

	if candidateID == "" {
		return nil, NewValidationError("promotion.promote", "empty_candidate_id", "candidate ID is required", ErrInvalidRequest)
	}

	candidate, err := s.persistence.CandidateRepository().GetByID(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("loading candidate: %w", err)
	}

	if candidate.AgencyID != agencyID {
		return nil, ErrAgencyMismatch
	}

	if candidate.Promoted() {
		caregiver, err := s.persistence.CaregiverRepository().GetByID(ctx, *candidate.PromotedCaregiverID)
		if err != nil {
			return nil, fmt.Errorf("loading promoted caregiver: %w", err)
		}

		return caregiver, nil
	}

	if candidate.FirstName == "" {
		return nil, ErrMissingName
	}

	now := time.Now().UTC()
	caregiver := &models.Caregiver{
		ID:        uuid.New().String(),
		AgencyID:  agencyID,
		FirstName: candidate.FirstName,
		LastName:  candidate.LastName,
		Phone:     candidate.Phone,
		Email:     candidate.Email,
		State:     candidate.State,
		Status:    models.CaregiverStatusNew,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.persistence.CaregiverRepository().Save(ctx, caregiver); err != nil {
		return nil, fmt.Errorf("saving caregiver: %w", err)
	}

	candidate.PromotedCaregiverID = &caregiver.ID
	candidate.UpdatedAt = now

	if err := s.persistence.CandidateRepository().Update(ctx, candidate); err != nil {
		return nil, fmt.Errorf("stamping candidate: %w", err)
	}

	s.publishPromoted(ctx, agencyID, candidate.ID, caregiver.ID)

	return caregiver, nil
}

func (s *PromotionService) publishPromoted(ctx context.Context, agencyID, candidateID, caregiverID string) {
	if s.publisher == nil {
		return
	}

	event := events.CandidatePromoted{
		BaseEvent: events.BaseEvent{
			ID:        uuid.New().String(),
			Type:      events.CandidatePromotedEvent,
			Timestamp: time.Now().UTC(),
			AgencyID:  agencyID,
		},
		CandidateID: candidateID,
		CaregiverID: caregiverID,
	}

	if err := s.publisher.Publish(ctx, agencyID, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish promotion event", "error", err)
	}
}
