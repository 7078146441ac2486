package automation

import (
	"context"
	"fmt"

	"github.com/carelane/carelane/pkg/messaging"
	"github.com/carelane/carelane/pkg/models"
	"github.com/carelane/carelane/pkg/outreach"
)

const staleEnrollmentNudge = "Hi {name}, your caregiver enrollment with {agency_name} is almost there! Reply YES or give us a call and we'll help you finish the last steps."

// runStaleEnrollmentAlerts nudges leads whose enrollment has sat for two
// weeks: SMS when a phone is on file, email otherwise, plus a staff
// notification. The record itself is not mutated, so the condition clears
// only when the enrollment actually moves.
func (r *Runner) runStaleEnrollmentAlerts(ctx context.Context, agency *models.Agency) (int, error) {
	cutoff := r.now().Add(-staleEnrollmentCutoff)

	caregivers, err := r.persistence.CaregiverRepository().ListStaleEnrollments(ctx, agency.ID,
		[]models.CaregiverStatus{models.CaregiverStatusIntakeStarted, models.CaregiverStatusEnrollmentPending}, cutoff)
	if err != nil {
		return 0, fmt.Errorf("listing stale enrollments: %w", err)
	}

	actions := 0

	for _, caregiver := range caregivers {
		body := outreach.Render(staleEnrollmentNudge, map[string]string{
			"name":        caregiver.FullName(),
			"agency_name": agency.Name,
		})

		req := messaging.Request{
			AgencyID:    agency.ID,
			RelatedType: "caregiver",
			RelatedID:   caregiver.ID,
			Body:        body,
		}

		switch {
		case caregiver.Phone != "":
			req.Channel = models.ChannelSMS
			req.To = caregiver.Phone
		case caregiver.Email != "":
			req.Channel = models.ChannelEmail
			req.To = caregiver.Email
			req.Subject = "Finish your enrollment with " + agency.Name
		}

		if req.To != "" {
			if _, err := r.gateway.Send(ctx, req); err != nil {
				r.logger.ErrorContext(ctx, "failed to send stale-enrollment nudge",
					"agency_id", agency.ID, "caregiver_id", caregiver.ID, "error", err)
			}
		}

		_, err := r.notifier.NotifyAgency(ctx, agency.ID, models.NotificationStaleEnrollment,
			"Enrollment stalled: "+caregiver.FullName(),
			fmt.Sprintf("%s has been in %s for over two weeks.", caregiver.FullName(), caregiver.Status))
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to notify staff of stale enrollment",
				"agency_id", agency.ID, "caregiver_id", caregiver.ID, "error", err)

			continue
		}

		actions++
	}

	return actions, nil
}
