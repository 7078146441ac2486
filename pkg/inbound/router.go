// Package inbound receives provider webhooks for incoming SMS and email,
// matches them to tenants and contacts, and applies reply keywords.
package inbound

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/carelane/carelane/pkg/eventbus"
	"github.com/carelane/carelane/pkg/events"
	"github.com/carelane/carelane/pkg/models"
	"github.com/carelane/carelane/pkg/persistence"
	"github.com/carelane/carelane/pkg/services"
)

var ErrNoTenant = errors.New("could not resolve owning agency")

const previewLength = 120

// Router processes parsed inbound payloads: tenant and contact resolution,
// message persistence, thread upkeep, staff notification and keyword policy.
type Router struct {
	persistence persistence.Persistence
	notifier    *services.Notifier
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
}

func NewRouter(p persistence.Persistence, notifier *services.Notifier, publisher eventbus.EventPublisher, logger *slog.Logger) *Router {
	return &Router{
		persistence: p,
		notifier:    notifier,
		publisher:   publisher,
		logger:      logger.With("module", "inbound"),
	}
}

// Process routes one payload. Failure after the raw message is stored leaves
// the stored message in place; providers are acknowledged regardless by the
// HTTP layer.
func (r *Router) Process(ctx context.Context, payload Payload) error {
	agencyID, err := r.resolveTenant(ctx, payload)
	if err != nil {
		return err
	}

	contactType, contactID := r.resolveContact(ctx, agencyID, payload)

	message := &models.InboundMessage{
		ID:                uuid.New().String(),
		AgencyID:          agencyID,
		Channel:           payload.Channel,
		From:              payload.From,
		To:                payload.To,
		Subject:           payload.Subject,
		Body:              payload.Body,
		ProviderMessageID: payload.ProviderMessageID,
		Matched:           contactID != "",
		ContactType:       contactType,
		ContactID:         contactID,
		CreatedAt:         time.Now().UTC(),
	}

	if err := r.persistence.MessageRepository().SaveInbound(ctx, message); err != nil {
		return fmt.Errorf("saving inbound message: %w", err)
	}

	if err := r.upsertThread(ctx, agencyID, payload, contactType, contactID); err != nil {
		r.logger.ErrorContext(ctx, "failed to update conversation thread",
			"agency_id", agencyID, "error", err)
	}

	r.notifyStaff(ctx, agencyID, payload, contactID)

	if contactID != "" {
		r.applyKeywords(ctx, agencyID, payload, contactType, contactID)
	}

	r.publishReceived(ctx, agencyID, payload, message)

	return nil
}

// resolveTenant maps the destination address to an agency: the provider phone
// number for SMS, the inbound domain for email, and a sole-tenant fallback for
// single-agency installs.
func (r *Router) resolveTenant(ctx context.Context, payload Payload) (string, error) {
	credentials := r.persistence.CredentialRepository()

	var (
		agencyIDs []string
		err       error
	)

	switch payload.Channel {
	case models.ChannelSMS:
		agencyIDs, err = credentials.AgenciesWithValue(ctx, models.CredentialTwilioPhoneNumber, payload.To)
	case models.ChannelEmail:
		if domain := emailDomain(payload.To); domain != "" {
			agencyIDs, err = credentials.AgenciesWithValue(ctx, models.CredentialInboundDomain, domain)
		}
	}

	if err != nil {
		return "", fmt.Errorf("matching credentials: %w", err)
	}

	if len(agencyIDs) > 0 {
		return agencyIDs[0], nil
	}

	agencies, err := r.persistence.AgencyRepository().All(ctx)
	if err != nil {
		return "", fmt.Errorf("listing agencies: %w", err)
	}

	if len(agencies) == 1 {
		return agencies[0].ID, nil
	}

	return "", fmt.Errorf("%w: to=%s channel=%s", ErrNoTenant, payload.To, payload.Channel)
}

// resolveContact tries caregivers first, then sourced candidates. Lookup is by
// last-ten-digit phone suffix or exact email.
func (r *Router) resolveContact(ctx context.Context, agencyID string, payload Payload) (string, string) {
	switch payload.Channel {
	case models.ChannelSMS:
		suffix := PhoneSuffix(payload.From)
		if suffix == "" {
			return "", ""
		}

		if caregiver, err := r.persistence.CaregiverRepository().FindByPhoneSuffix(ctx, agencyID, suffix); err == nil {
			return "caregiver", caregiver.ID
		}

		if candidate, err := r.persistence.CandidateRepository().FindByPhoneSuffix(ctx, agencyID, suffix); err == nil {
			return "candidate", candidate.ID
		}
	case models.ChannelEmail:
		if caregiver, err := r.persistence.CaregiverRepository().FindByEmail(ctx, agencyID, payload.From); err == nil {
			return "caregiver", caregiver.ID
		}

		if candidate, err := r.persistence.CandidateRepository().FindByEmail(ctx, agencyID, payload.From); err == nil {
			return "candidate", candidate.ID
		}
	}

	return "", ""
}

func (r *Router) upsertThread(ctx context.Context, agencyID string, payload Payload, contactType, contactID string) error {
	conversations := r.persistence.ConversationRepository()
	now := time.Now().UTC()

	thread, err := conversations.GetByAddress(ctx, agencyID, payload.Channel, payload.From)
	if err != nil {
		if !persistence.IsNotFound(err) {
			return err
		}

		thread = &models.ConversationThread{
			ID:        uuid.New().String(),
			AgencyID:  agencyID,
			Channel:   payload.Channel,
			Address:   payload.From,
			CreatedAt: now,
		}

		thread.ContactType = contactType
		thread.ContactID = contactID
		thread.UnreadCount = 1
		thread.LastMessagePreview = preview(payload.Body)
		thread.LastMessageAt = now
		thread.UpdatedAt = now

		return conversations.Save(ctx, thread)
	}

	thread.UnreadCount++
	thread.LastMessagePreview = preview(payload.Body)
	thread.LastMessageAt = now
	thread.UpdatedAt = now

	if thread.ContactID == "" && contactID != "" {
		thread.ContactType = contactType
		thread.ContactID = contactID
	}

	return conversations.Update(ctx, thread)
}

func (r *Router) notifyStaff(ctx context.Context, agencyID string, payload Payload, contactID string) {
	title := "New reply from " + payload.From
	if contactID == "" {
		title = "New message from unknown sender " + payload.From
	}

	kind := models.NotificationInboundReply
	if ClassifyReply(payload.Body) == IntentStop {
		kind = models.NotificationOptOut
		title = "Opt-out from " + payload.From
	}

	if _, err := r.notifier.NotifyAgency(ctx, agencyID, kind, title, preview(payload.Body)); err != nil {
		r.logger.ErrorContext(ctx, "failed to notify staff of inbound message",
			"agency_id", agencyID, "error", err)
	}
}

// applyKeywords runs the reply policy for matched contacts. Opt-out always
// wins when stop and positive keywords appear together.
func (r *Router) applyKeywords(ctx context.Context, agencyID string, payload Payload, contactType, contactID string) {
	switch ClassifyReply(payload.Body) {
	case IntentStop:
		cancelled, err := r.persistence.EnrollmentRepository().CancelActiveByContact(ctx, agencyID, contactType, contactID)
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to cancel enrollments on opt-out",
				"agency_id", agencyID, "contact_id", contactID, "error", err)
		}

		r.publishOptOut(ctx, agencyID, contactType, contactID, cancelled)
	case IntentPositive:
		r.advanceContact(ctx, agencyID, contactType, contactID)
	case IntentNone:
		r.markResponded(ctx, contactType, contactID)
	}
}

// advanceContact moves a new caregiver to contacted and marks candidates as
// responded. Caregivers whose status cannot legally reach contacted are left
// alone, so replies from deep in the pipeline never move anyone backwards.
func (r *Router) advanceContact(ctx context.Context, agencyID string, contactType, contactID string) {
	switch contactType {
	case "caregiver":
		caregiver, err := r.persistence.CaregiverRepository().GetByID(ctx, contactID)
		if err != nil {
			return
		}

		if !caregiver.Status.CanTransition(models.CaregiverStatusContacted) {
			return
		}

		caregiver.Status = models.CaregiverStatusContacted
		caregiver.UpdatedAt = time.Now().UTC()

		if err := r.persistence.CaregiverRepository().Update(ctx, caregiver); err != nil {
			r.logger.ErrorContext(ctx, "failed to advance caregiver status",
				"agency_id", agencyID, "caregiver_id", contactID, "error", err)
		}
	case "candidate":
		r.markResponded(ctx, contactType, contactID)
	}
}

// markResponded records that a candidate replied, whatever they said.
func (r *Router) markResponded(ctx context.Context, contactType, contactID string) {
	if contactType != "candidate" {
		return
	}

	candidate, err := r.persistence.CandidateRepository().GetByID(ctx, contactID)
	if err != nil {
		return
	}

	if candidate.OutreachStatus == models.OutreachStatusResponded {
		return
	}

	candidate.OutreachStatus = models.OutreachStatusResponded
	candidate.UpdatedAt = time.Now().UTC()

	if err := r.persistence.CandidateRepository().Update(ctx, candidate); err != nil {
		r.logger.ErrorContext(ctx, "failed to mark candidate responded",
			"candidate_id", contactID, "error", err)
	}
}

func (r *Router) publishOptOut(ctx context.Context, agencyID, contactType, contactID string, cancelled int) {
	if r.publisher == nil {
		return
	}

	event := events.LeadOptedOut{
		BaseEvent: events.BaseEvent{
			ID:        uuid.New().String(),
			Type:      events.LeadOptedOutEvent,
			Timestamp: time.Now().UTC(),
			AgencyID:  agencyID,
		},
		ContactType: contactType,
		ContactID:   contactID,
		Cancelled:   cancelled,
	}

	if err := r.publisher.Publish(ctx, agencyID, event); err != nil {
		r.logger.WarnContext(ctx, "failed to publish opt-out event", "error", err)
	}
}

func (r *Router) publishReceived(ctx context.Context, agencyID string, payload Payload, message *models.InboundMessage) {
	if r.publisher == nil {
		return
	}

	event := events.MessageReceived{
		BaseEvent: events.BaseEvent{
			ID:        uuid.New().String(),
			Type:      events.MessageReceivedEvent,
			Timestamp: time.Now().UTC(),
			AgencyID:  agencyID,
		},
		Channel:     string(payload.Channel),
		From:        payload.From,
		Matched:     message.Matched,
		ContactType: message.ContactType,
		ContactID:   message.ContactID,
	}

	if err := r.publisher.Publish(ctx, agencyID, event); err != nil {
		r.logger.WarnContext(ctx, "failed to publish inbound event", "error", err)
	}
}

// preview truncates the body for thread listings, backing up to a rune
// boundary so multi-byte characters are never split.
func preview(body string) string {
	if len(body) <= previewLength {
		return body
	}

	cut := previewLength
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}

	return body[:cut]
}
