// Package messaging sends outbound SMS, email and in-app messages on behalf of
// agencies, recording every attempt in the message log.
package messaging

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/carelane/carelane/pkg/eventbus"
	"github.com/carelane/carelane/pkg/events"
	"github.com/carelane/carelane/pkg/models"
	"github.com/carelane/carelane/pkg/persistence"
)

var (
	ErrUnknownChannel   = errors.New("unknown message channel")
	ErrMissingRecipient = errors.New("recipient is required")
	ErrMissingUser      = errors.New("user id is required for in-app messages")
	ErrEmptyBody        = errors.New("message body is empty")
)

// Request describes one outbound message.
type Request struct {
	AgencyID    string
	Channel     models.Channel
	To          string
	Subject     string
	Body        string
	UserID      string
	RelatedType string
	RelatedID   string
}

// Result reports the outcome of one send. When no provider credentials are
// configured the message is logged as pending with Mock set and nothing leaves
// the process.
type Result struct {
	MessageID  string
	Status     models.MessageStatus
	ExternalID string
	Mock       bool
	Error      string
}

// SMSSender delivers one SMS through a provider.
type SMSSender interface {
	SendSMS(ctx context.Context, capability SMSCapability, to, body string) (string, error)
}

// EmailSender delivers one email through a provider.
type EmailSender interface {
	SendEmail(ctx context.Context, capability EmailCapability, fromName, to, subject, htmlBody string) (string, error)
}

type Gateway struct {
	persistence persistence.Persistence
	sms         SMSSender
	email       EmailSender
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
}

// NewGateway builds a gateway with real provider clients. The publisher may be
// nil when no event bus is wired.
func NewGateway(p persistence.Persistence, publisher eventbus.EventPublisher, logger *slog.Logger) *Gateway {
	return NewGatewayWithClients(p, NewTwilioClient(), NewSendGridClient(), publisher, logger)
}

func NewGatewayWithClients(p persistence.Persistence, sms SMSSender, email EmailSender, publisher eventbus.EventPublisher, logger *slog.Logger) *Gateway {
	return &Gateway{
		persistence: p,
		sms:         sms,
		email:       email,
		publisher:   publisher,
		logger:      logger.With("module", "messaging"),
	}
}

// Send delivers one message. Every accepted request appends exactly one entry
// to the message log, whatever the outcome. Provider failures come back in the
// Result, not as an error; the error return is reserved for invalid requests
// and storage failures.
func (g *Gateway) Send(ctx context.Context, req Request) (Result, error) {
	if err := validate(req); err != nil {
		return Result{}, err
	}

	entry := &models.MessageLog{
		ID:          uuid.New().String(),
		AgencyID:    req.AgencyID,
		Channel:     req.Channel,
		Recipient:   recipient(req),
		Subject:     req.Subject,
		Body:        req.Body,
		RelatedType: req.RelatedType,
		RelatedID:   req.RelatedID,
		CreatedAt:   time.Now().UTC(),
	}

	switch req.Channel {
	case models.ChannelSMS:
		g.sendSMS(ctx, req, entry)
	case models.ChannelEmail:
		g.sendEmail(ctx, req, entry)
	case models.ChannelInApp:
		g.sendInApp(ctx, req, entry)
	}

	if err := g.persistence.MessageRepository().AppendLog(ctx, entry); err != nil {
		return Result{}, err
	}

	g.publishOutcome(ctx, entry)

	return Result{
		MessageID:  entry.ID,
		Status:     entry.Status,
		ExternalID: entry.ExternalID,
		Mock:       entry.Mock,
		Error:      entry.ErrorMessage,
	}, nil
}

func validate(req Request) error {
	if !req.Channel.Valid() {
		return ErrUnknownChannel
	}

	if req.Body == "" {
		return ErrEmptyBody
	}

	if req.Channel == models.ChannelInApp {
		if req.UserID == "" {
			return ErrMissingUser
		}

		return nil
	}

	if req.To == "" {
		return ErrMissingRecipient
	}

	return nil
}

func recipient(req Request) string {
	if req.Channel == models.ChannelInApp {
		return req.UserID
	}

	return req.To
}

func (g *Gateway) sendSMS(ctx context.Context, req Request, entry *models.MessageLog) {
	capability, err := ResolveSMS(ctx, g.persistence.CredentialRepository(), req.AgencyID)
	if err != nil {
		entry.Status = models.MessageStatusFailed
		entry.ErrorMessage = err.Error()

		return
	}

	if !capability.Configured {
		entry.Status = models.MessageStatusPending
		entry.Mock = true

		g.logger.InfoContext(ctx, "SMS not configured, logging mock message",
			"agency_id", req.AgencyID, "reason", capability.Reason)

		return
	}

	externalID, err := g.sms.SendSMS(ctx, capability, req.To, req.Body)
	if err != nil {
		entry.Status = models.MessageStatusFailed
		entry.ErrorMessage = err.Error()

		g.logger.ErrorContext(ctx, "SMS send failed", "agency_id", req.AgencyID, "error", err)

		return
	}

	entry.Status = models.MessageStatusSent
	entry.ExternalID = externalID
}

func (g *Gateway) sendEmail(ctx context.Context, req Request, entry *models.MessageLog) {
	capability, err := ResolveEmail(ctx, g.persistence.CredentialRepository(), req.AgencyID)
	if err != nil {
		entry.Status = models.MessageStatusFailed
		entry.ErrorMessage = err.Error()

		return
	}

	if !capability.Configured {
		entry.Status = models.MessageStatusPending
		entry.Mock = true

		g.logger.InfoContext(ctx, "email not configured, logging mock message",
			"agency_id", req.AgencyID, "reason", capability.Reason)

		return
	}

	// Branding is best effort: an unloadable agency row still gets the
	// neutral shell.
	agency, err := g.persistence.AgencyRepository().GetByID(ctx, req.AgencyID)
	if err != nil {
		agency = nil
	}

	fromName := "Carelane"
	if agency != nil && agency.Name != "" {
		fromName = agency.Name
	}

	externalID, err := g.email.SendEmail(ctx, capability, fromName, req.To, req.Subject, BrandEmail(agency, req.Body))
	if err != nil {
		entry.Status = models.MessageStatusFailed
		entry.ErrorMessage = err.Error()

		g.logger.ErrorContext(ctx, "email send failed", "agency_id", req.AgencyID, "error", err)

		return
	}

	entry.Status = models.MessageStatusSent
	entry.ExternalID = externalID
}

func (g *Gateway) sendInApp(ctx context.Context, req Request, entry *models.MessageLog) {
	notification := &models.Notification{
		ID:        uuid.New().String(),
		AgencyID:  req.AgencyID,
		UserID:    req.UserID,
		Kind:      models.NotificationGeneric,
		Title:     req.Subject,
		Body:      req.Body,
		CreatedAt: time.Now().UTC(),
	}

	if err := g.persistence.NotificationRepository().Save(ctx, notification); err != nil {
		entry.Status = models.MessageStatusFailed
		entry.ErrorMessage = err.Error()

		return
	}

	entry.Status = models.MessageStatusSent
	entry.ExternalID = notification.ID
}

func (g *Gateway) publishOutcome(ctx context.Context, entry *models.MessageLog) {
	if g.publisher == nil {
		return
	}

	var event eventbus.Event

	switch entry.Status {
	case models.MessageStatusFailed:
		event = events.MessageFailed{
			BaseEvent: g.baseEvent(events.MessageFailedEvent, entry.AgencyID),
			Channel:   string(entry.Channel),
			Recipient: entry.Recipient,
			Reason:    entry.ErrorMessage,
		}
	default:
		event = events.MessageSent{
			BaseEvent:  g.baseEvent(events.MessageSentEvent, entry.AgencyID),
			Channel:    string(entry.Channel),
			Recipient:  entry.Recipient,
			ExternalID: entry.ExternalID,
			Mock:       entry.Mock,
		}
	}

	if err := g.publisher.Publish(ctx, entry.AgencyID, event); err != nil {
		g.logger.WarnContext(ctx, "failed to publish message event", "error", err)
	}
}

func (g *Gateway) baseEvent(eventType events.EventType, agencyID string) events.BaseEvent {
	return events.BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		AgencyID:  agencyID,
	}
}
