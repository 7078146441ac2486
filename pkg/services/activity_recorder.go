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

// ActivityRecorder consumes pipeline events and turns them into tenant
// activity entries and staff notifications. It is the read side of the event
// bus: publishers never wait on it, and a failed entry only costs the log
// line, never the originating operation.
type ActivityRecorder struct {
	persistence persistence.Persistence
	notifier    *Notifier
	logger      *slog.Logger
}

func NewActivityRecorder(p persistence.Persistence, notifier *Notifier, logger *slog.Logger) *ActivityRecorder {
	return &ActivityRecorder{
		persistence: p,
		notifier:    notifier,
		logger:      logger.With("module", "activity-recorder"),
	}
}

// Register installs the recorder's handlers on the bus. The caller still has
// to start consumption with Subscribe.
func (r *ActivityRecorder) Register(bus eventbus.EventSubscriber) error {
	if err := bus.Handle(events.MessageFailedEvent, r.handleMessageFailed); err != nil {
		return err
	}

	if err := bus.Handle(events.LeadOptedOutEvent, r.handleLeadOptedOut); err != nil {
		return err
	}

	if err := bus.Handle(events.CandidatePromotedEvent, r.handleCandidatePromoted); err != nil {
		return err
	}

	return bus.Handle(events.OutreachDispatchedEvent, r.handleOutreachDispatched)
}

func (r *ActivityRecorder) handleMessageFailed(ctx context.Context, event any) error {
	failed, ok := event.(*events.MessageFailed)
	if !ok {
		r.logger.ErrorContext(ctx, "Invalid event type for MessageFailed")

		return nil
	}

	title := "Message delivery failed"
	body := fmt.Sprintf("Could not deliver %s to %s: %s", failed.Channel, failed.Recipient, failed.Reason)

	if _, err := r.notifier.NotifyAgency(ctx, failed.AgencyID, models.NotificationGeneric, title, body); err != nil {
		r.logger.ErrorContext(ctx, "failed to notify staff of delivery failure",
			"agency_id", failed.AgencyID, "error", err)
	}

	return nil
}

func (r *ActivityRecorder) handleLeadOptedOut(ctx context.Context, event any) error {
	optOut, ok := event.(*events.LeadOptedOut)
	if !ok {
		r.logger.ErrorContext(ctx, "Invalid event type for LeadOptedOut")

		return nil
	}

	summary := fmt.Sprintf("%s %s opted out, %d enrollments cancelled",
		optOut.ContactType, optOut.ContactID, optOut.Cancelled)

	return r.append(ctx, optOut.AgencyID, "opt_out", summary, optOut.Cancelled)
}

func (r *ActivityRecorder) handleCandidatePromoted(ctx context.Context, event any) error {
	promoted, ok := event.(*events.CandidatePromoted)
	if !ok {
		r.logger.ErrorContext(ctx, "Invalid event type for CandidatePromoted")

		return nil
	}

	summary := fmt.Sprintf("candidate %s promoted to caregiver %s",
		promoted.CandidateID, promoted.CaregiverID)

	return r.append(ctx, promoted.AgencyID, "candidate_promoted", summary, 1)
}

func (r *ActivityRecorder) handleOutreachDispatched(ctx context.Context, event any) error {
	dispatched, ok := event.(*events.OutreachDispatched)
	if !ok {
		r.logger.ErrorContext(ctx, "Invalid event type for OutreachDispatched")

		return nil
	}

	summary := fmt.Sprintf("sequence %s dispatched, %d messages sent",
		dispatched.SequenceType, dispatched.Sent)

	return r.append(ctx, dispatched.AgencyID, "outreach_dispatch", summary, dispatched.Sent)
}

func (r *ActivityRecorder) append(ctx context.Context, agencyID, kind, summary string, actions int) error {
	entry := &models.ActivityEntry{
		ID:           uuid.New().String(),
		AgencyID:     agencyID,
		Kind:         kind,
		Summary:      summary,
		ActionsTotal: actions,
		CreatedAt:    time.Now().UTC(),
	}

	if err := r.persistence.ActivityRepository().Append(ctx, entry); err != nil {
		r.logger.ErrorContext(ctx, "failed to append activity entry",
			"agency_id", agencyID, "kind", kind, "error", err)
	}

	return nil
}
