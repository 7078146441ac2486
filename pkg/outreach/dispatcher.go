package outreach

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/carelane/carelane/pkg/crm"
	"github.com/carelane/carelane/pkg/eventbus"
	"github.com/carelane/carelane/pkg/events"
	"github.com/carelane/carelane/pkg/messaging"
	"github.com/carelane/carelane/pkg/models"
	"github.com/carelane/carelane/pkg/persistence"
	"github.com/carelane/carelane/pkg/services"
)

var ErrUnknownSequence = errors.New("unknown sequence type")

// MessageSender is the outbound surface the dispatcher needs from the
// messaging gateway.
type MessageSender interface {
	Send(ctx context.Context, req messaging.Request) (messaging.Result, error)
}

// Result reports how many candidates had step one delivered.
type Result struct {
	Sent int
}

// Dispatcher enrolls candidates into a sequence and sends step one
// immediately. Later steps are not scheduled here; the sequences job retries
// step one for candidates that stayed queued.
type Dispatcher struct {
	persistence persistence.Persistence
	gateway     MessageSender
	crm         *crm.Client
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
	sequences   map[string]Sequence
}

func NewDispatcher(p persistence.Persistence, gateway MessageSender, crmClient *crm.Client, publisher eventbus.EventPublisher, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		persistence: p,
		gateway:     gateway,
		crm:         crmClient,
		publisher:   publisher,
		logger:      logger.With("module", "outreach"),
		sequences:   builtinSequences(),
	}
}

// LoadCustomSequences merges sequence definitions from a JSON file over the
// built-ins. Types already present are replaced.
func (d *Dispatcher) LoadCustomSequences(path string) error {
	sequences, err := LoadSequenceFile(path)
	if err != nil {
		return err
	}

	for _, seq := range sequences {
		d.sequences[seq.Type] = seq
	}

	return nil
}

// Dispatch enrolls the given candidates. Per candidate: best-effort CRM
// upsert, step-one send when the step is SMS and the candidate has a phone,
// outreach status moved to sent or queued, and a sequence enrollment recorded.
// Individual candidate failures are logged and skipped.
func (d *Dispatcher) Dispatch(ctx context.Context, agencyID, sequenceType string, candidateIDs []string) (Result, error) {
	if agencyID == "" {
		return Result{}, services.NewValidationError("outreach.dispatch", "empty_agency_id", "agency ID is required", services.ErrEmptyAgencyID)
	}

	sequence, ok := d.sequences[sequenceType]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownSequence, sequenceType)
	}

	if len(candidateIDs) == 0 {
		return Result{}, services.NewValidationError("outreach.dispatch", "missing_recipients", "at least one candidate is required", services.ErrMissingRecipients)
	}

	agency, err := d.persistence.AgencyRepository().GetByID(ctx, agencyID)
	if err != nil {
		return Result{}, fmt.Errorf("loading agency: %w", err)
	}

	candidates, err := d.persistence.CandidateRepository().ListByIDs(ctx, agencyID, candidateIDs)
	if err != nil {
		return Result{}, fmt.Errorf("loading candidates: %w", err)
	}

	sent := 0

	for _, candidate := range candidates {
		delivered, err := d.dispatchOne(ctx, agency, sequence, candidate, true)
		if err != nil {
			d.logger.ErrorContext(ctx, "failed to dispatch candidate",
				"agency_id", agencyID, "candidate_id", candidate.ID, "error", err)

			continue
		}

		if delivered {
			sent++
		}
	}

	d.publishDispatched(ctx, agencyID, sequenceType, sent)

	return Result{Sent: sent}, nil
}

// RetryQueued re-attempts step one for candidates that stayed queued, usually
// because provider credentials were missing at dispatch time. Returns how many
// moved to sent.
func (d *Dispatcher) RetryQueued(ctx context.Context, agencyID string) (int, error) {
	candidates, err := d.persistence.CandidateRepository().ListQueued(ctx, agencyID)
	if err != nil {
		return 0, fmt.Errorf("loading queued candidates: %w", err)
	}

	if len(candidates) == 0 {
		return 0, nil
	}

	agency, err := d.persistence.AgencyRepository().GetByID(ctx, agencyID)
	if err != nil {
		return 0, fmt.Errorf("loading agency: %w", err)
	}

	sent := 0

	for _, candidate := range candidates {
		sequenceType := SequenceColdOutreach

		enrollments, err := d.persistence.EnrollmentRepository().ListActiveByContact(ctx, agencyID, "candidate", candidate.ID)
		if err == nil && len(enrollments) > 0 {
			sequenceType = enrollments[0].SequenceType
		}

		sequence, ok := d.sequences[sequenceType]
		if !ok {
			continue
		}

		delivered, err := d.dispatchOne(ctx, agency, sequence, candidate, false)
		if err != nil {
			d.logger.ErrorContext(ctx, "failed to retry queued candidate",
				"agency_id", agencyID, "candidate_id", candidate.ID, "error", err)

			continue
		}

		if delivered {
			sent++
		}
	}

	return sent, nil
}

func (d *Dispatcher) dispatchOne(ctx context.Context, agency *models.Agency, sequence Sequence, candidate *models.Candidate, enroll bool) (bool, error) {
	if d.crm != nil {
		err := d.crm.UpsertContact(ctx, agency.ID, crm.Contact{
			FirstName: candidate.FirstName,
			LastName:  candidate.LastName,
			Phone:     candidate.Phone,
			Email:     candidate.Email,
			Tags:      []string{"carelane", sequence.Type},
		})
		if err != nil {
			// CRM sync is advisory; the sequence still runs.
			d.logger.WarnContext(ctx, "CRM upsert failed",
				"agency_id", agency.ID, "candidate_id", candidate.ID, "error", err)
		}
	}

	delivered := false
	step := sequence.Steps[0]

	fields := map[string]string{
		"name":        candidate.FullName(),
		"agency_name": agency.Name,
		"phone":       agency.Phone,
		"pay_rate":    sequence.PayRate,
		"state":       candidate.State,
	}

	if step.Channel == models.ChannelSMS && candidate.Phone != "" {
		result, err := d.gateway.Send(ctx, messaging.Request{
			AgencyID:    agency.ID,
			Channel:     models.ChannelSMS,
			To:          candidate.Phone,
			Body:        Render(step.Body, fields),
			RelatedType: "candidate",
			RelatedID:   candidate.ID,
		})
		if err != nil {
			return false, err
		}

		delivered = result.Status == models.MessageStatusSent
	}

	if delivered {
		candidate.OutreachStatus = models.OutreachStatusSent
	} else {
		candidate.OutreachStatus = models.OutreachStatusQueued
	}

	candidate.UpdatedAt = time.Now().UTC()

	if err := d.persistence.CandidateRepository().Update(ctx, candidate); err != nil {
		return false, fmt.Errorf("updating candidate: %w", err)
	}

	if enroll {
		enrollment := &models.SequenceEnrollment{
			ID:           uuid.New().String(),
			AgencyID:     agency.ID,
			ContactType:  "candidate",
			ContactID:    candidate.ID,
			SequenceType: sequence.Type,
			Status:       models.EnrollmentStatusActive,
			CurrentStep:  1,
			EnrolledAt:   time.Now().UTC(),
		}

		if err := d.persistence.EnrollmentRepository().Save(ctx, enrollment); err != nil {
			return false, fmt.Errorf("recording enrollment: %w", err)
		}
	}

	return delivered, nil
}

func (d *Dispatcher) publishDispatched(ctx context.Context, agencyID, sequenceType string, sent int) {
	if d.publisher == nil {
		return
	}

	event := events.OutreachDispatched{
		BaseEvent: events.BaseEvent{
			ID:        uuid.New().String(),
			Type:      events.OutreachDispatchedEvent,
			Timestamp: time.Now().UTC(),
			AgencyID:  agencyID,
		},
		SequenceType: sequenceType,
		Sent:         sent,
	}

	if err := d.publisher.Publish(ctx, agencyID, event); err != nil {
		d.logger.WarnContext(ctx, "failed to publish outreach event", "error", err)
	}
}
