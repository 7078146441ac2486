package automation

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/carelane/carelane/pkg/events"
	"github.com/carelane/carelane/pkg/messaging"
	"github.com/carelane/carelane/pkg/models"
	"github.com/carelane/carelane/pkg/outreach"
	"github.com/carelane/carelane/pkg/scoring"
)

const welcomeSMS = "Hi {name}, thanks for your interest in caregiving with {agency_name}! We'd love to get you started. Reply YES and we'll reach out with next steps."

// runLeadScoring scores every unscored record. Records that already carry a
// score are never touched, so re-running the sweep is a no-op. Hot leads with
// a phone number get an immediate welcome SMS.
func (r *Runner) runLeadScoring(ctx context.Context, agency *models.Agency) (int, error) {
	caregivers, err := r.persistence.CaregiverRepository().ListUnscored(ctx, agency.ID)
	if err != nil {
		return 0, fmt.Errorf("listing unscored caregivers: %w", err)
	}

	actions := 0

	for _, caregiver := range caregivers {
		result := scoring.Score(caregiver, r.now())

		score := result.Score
		caregiver.LeadScore = &score
		caregiver.LeadTier = result.Tier
		caregiver.ScoreReasoning = result.Reasoning
		caregiver.UpdatedAt = r.now()

		if err := r.persistence.CaregiverRepository().Update(ctx, caregiver); err != nil {
			r.logger.ErrorContext(ctx, "failed to persist score",
				"agency_id", agency.ID, "caregiver_id", caregiver.ID, "error", err)

			continue
		}

		actions++

		r.publishScored(ctx, agency.ID, caregiver.ID, score, string(result.Tier))

		if result.Tier == models.LeadTierHot && caregiver.Phone != "" {
			body := outreach.Render(welcomeSMS, map[string]string{
				"name":        caregiver.FullName(),
				"agency_name": agency.Name,
			})

			_, err := r.gateway.Send(ctx, messaging.Request{
				AgencyID:    agency.ID,
				Channel:     models.ChannelSMS,
				To:          caregiver.Phone,
				Body:        body,
				RelatedType: "caregiver",
				RelatedID:   caregiver.ID,
			})
			if err != nil {
				r.logger.ErrorContext(ctx, "failed to send welcome SMS",
					"agency_id", agency.ID, "caregiver_id", caregiver.ID, "error", err)
			}
		}
	}

	return actions, nil
}

func (r *Runner) publishScored(ctx context.Context, agencyID, caregiverID string, score int, tier string) {
	if r.publisher == nil {
		return
	}

	event := events.LeadScored{
		BaseEvent: events.BaseEvent{
			ID:        uuid.New().String(),
			Type:      events.LeadScoredEvent,
			Timestamp: r.now(),
			AgencyID:  agencyID,
		},
		CaregiverID: caregiverID,
		Score:       score,
		Tier:        tier,
	}

	if err := r.publisher.Publish(ctx, agencyID, event); err != nil {
		r.logger.WarnContext(ctx, "failed to publish scoring event", "error", err)
	}
}
