package automation

import (
	"context"
	"fmt"

	"github.com/carelane/carelane/pkg/messaging"
	"github.com/carelane/carelane/pkg/models"
	"github.com/carelane/carelane/pkg/outreach"
)

// followUpVariants escalate in tone as the count grows. A lead past the last
// variant keeps receiving the last one.
var followUpVariants = []string{
	"Hi {name}, just checking in from {agency_name}. Are you still interested in becoming a caregiver? Reply YES and we'll pick up where we left off.",
	"Hi {name}, {agency_name} here again. We'd hate for you to miss out on open caregiver positions. Reply YES if you'd like to continue.",
	"Hi {name}, we still have your application at {agency_name}. A quick YES is all it takes to move forward.",
	"Hi {name}, final reminder from {agency_name}: caregiver spots near you are filling up. Reply YES to keep your spot.",
	"Hi {name}, we'll keep your application at {agency_name} on file. Reply YES any time you're ready to continue.",
}

// runFollowUpReminders nudges contacted or intake-started leads untouched for
// three days: an SMS when a phone is on file, always an internal reminder for
// staff.
func (r *Runner) runFollowUpReminders(ctx context.Context, agency *models.Agency) (int, error) {
	cutoff := r.now().Add(-followUpCutoff)

	caregivers, err := r.persistence.CaregiverRepository().ListFollowUpDue(ctx, agency.ID,
		[]models.CaregiverStatus{models.CaregiverStatusContacted, models.CaregiverStatusIntakeStarted}, cutoff)
	if err != nil {
		return 0, fmt.Errorf("listing follow-up candidates: %w", err)
	}

	actions := 0

	for _, caregiver := range caregivers {
		newCount := caregiver.AutoFollowupCount + 1

		idx := newCount - 1
		if idx >= len(followUpVariants) {
			idx = len(followUpVariants) - 1
		}

		body := outreach.Render(followUpVariants[idx], map[string]string{
			"name":        caregiver.FullName(),
			"agency_name": agency.Name,
		})

		if caregiver.Phone != "" {
			_, err := r.gateway.Send(ctx, messaging.Request{
				AgencyID:    agency.ID,
				Channel:     models.ChannelSMS,
				To:          caregiver.Phone,
				Body:        body,
				RelatedType: "caregiver",
				RelatedID:   caregiver.ID,
			})
			if err != nil {
				r.logger.ErrorContext(ctx, "failed to send follow-up SMS",
					"agency_id", agency.ID, "caregiver_id", caregiver.ID, "error", err)
			}
		}

		_, err := r.notifier.NotifyAgency(ctx, agency.ID, models.NotificationFollowUpReminder,
			"Follow-up sent: "+caregiver.FullName(),
			fmt.Sprintf("Automated follow-up #%d went out to %s (%s).", newCount, caregiver.FullName(), caregiver.Status))
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to notify staff of follow-up",
				"agency_id", agency.ID, "caregiver_id", caregiver.ID, "error", err)
		}

		now := r.now()
		caregiver.AutoFollowupCount = newCount
		caregiver.LastContactedAt = &now
		caregiver.UpdatedAt = now

		if err := r.persistence.CaregiverRepository().Update(ctx, caregiver); err != nil {
			r.logger.ErrorContext(ctx, "failed to update follow-up bookkeeping",
				"agency_id", agency.ID, "caregiver_id", caregiver.ID, "error", err)

			continue
		}

		actions++
	}

	return actions, nil
}
