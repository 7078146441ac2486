// Package persistence provides the data storage abstraction layer for Carelane.
package persistence

import (
	"context"
	"time"

	"github.com/carelane/carelane/pkg/models"
)

// Persistence is the root storage handle. Implementations expose one
// repository per aggregate.
type Persistence interface {
	AgencyRepository() AgencyRepository
	CaregiverRepository() CaregiverRepository
	CandidateRepository() CandidateRepository
	AutomationRepository() AutomationRepository
	CampaignRepository() CampaignRepository
	MessageRepository() MessageRepository
	ConversationRepository() ConversationRepository
	NotificationRepository() NotificationRepository
	CredentialRepository() CredentialRepository
	EnrollmentRepository() EnrollmentRepository
	ActivityRepository() ActivityRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// AgencyRepository stores tenants and their staff membership.
type AgencyRepository interface {
	GetByID(ctx context.Context, id string) (*models.Agency, error)
	All(ctx context.Context) ([]*models.Agency, error)
	Count(ctx context.Context) (int, error)
	Members(ctx context.Context, agencyID string) ([]*models.AgencyMember, error)
	Save(ctx context.Context, agency *models.Agency) error
}

// CaregiverRepository stores pipeline records. Records are soft-deleted only.
type CaregiverRepository interface {
	GetByID(ctx context.Context, id string) (*models.Caregiver, error)
	Save(ctx context.Context, caregiver *models.Caregiver) error
	Update(ctx context.Context, caregiver *models.Caregiver) error

	// ListUnscored returns records with no computed lead score.
	ListUnscored(ctx context.Context, agencyID string) ([]*models.Caregiver, error)
	// ListFollowUpDue returns records in the given statuses whose last touch
	// (last contact, falling back to creation) is before the cutoff.
	ListFollowUpDue(ctx context.Context, agencyID string, statuses []models.CaregiverStatus, cutoff time.Time) ([]*models.Caregiver, error)
	// ListStaleEnrollments returns records in the given statuses whose
	// enrollment start (falling back to creation) is before the cutoff.
	ListStaleEnrollments(ctx context.Context, agencyID string, statuses []models.CaregiverStatus, cutoff time.Time) ([]*models.Caregiver, error)

	FindByPhoneSuffix(ctx context.Context, agencyID, phoneSuffix string) (*models.Caregiver, error)
	FindByEmail(ctx context.Context, agencyID, email string) (*models.Caregiver, error)
	CountCreatedSince(ctx context.Context, agencyID string, since time.Time) (int, error)
}

// CandidateRepository stores sourced candidates.
type CandidateRepository interface {
	GetByID(ctx context.Context, id string) (*models.Candidate, error)
	Save(ctx context.Context, candidate *models.Candidate) error
	Update(ctx context.Context, candidate *models.Candidate) error
	ListByIDs(ctx context.Context, agencyID string, ids []string) ([]*models.Candidate, error)
	ListQueued(ctx context.Context, agencyID string) ([]*models.Candidate, error)
	FindByPhoneSuffix(ctx context.Context, agencyID, phoneSuffix string) (*models.Candidate, error)
	FindByEmail(ctx context.Context, agencyID, email string) (*models.Candidate, error)
}

// AutomationRepository stores per-tenant automation rules.
type AutomationRepository interface {
	ListActive(ctx context.Context, agencyID string) ([]*models.AutomationRule, error)
	Save(ctx context.Context, rule *models.AutomationRule) error
	Update(ctx context.Context, rule *models.AutomationRule) error
}

// CampaignRepository stores ad and sourcing campaigns.
type CampaignRepository interface {
	GetByID(ctx context.Context, id string) (*models.AdCampaign, error)
	ListActive(ctx context.Context, agencyID string) ([]*models.AdCampaign, error)
	Save(ctx context.Context, campaign *models.AdCampaign) error
	Update(ctx context.Context, campaign *models.AdCampaign) error
}

// MessageRepository stores the append-only message log and raw inbound
// messages. Neither is ever updated or deleted.
type MessageRepository interface {
	AppendLog(ctx context.Context, entry *models.MessageLog) error
	SaveInbound(ctx context.Context, msg *models.InboundMessage) error
	CountSentSince(ctx context.Context, agencyID string, since time.Time) (int, error)
}

// ConversationRepository stores conversation threads.
type ConversationRepository interface {
	GetByID(ctx context.Context, id string) (*models.ConversationThread, error)
	GetByAddress(ctx context.Context, agencyID string, channel models.Channel, address string) (*models.ConversationThread, error)
	Save(ctx context.Context, thread *models.ConversationThread) error
	Update(ctx context.Context, thread *models.ConversationThread) error
	MarkRead(ctx context.Context, id string) error
	ListByAgency(ctx context.Context, agencyID string) ([]*models.ConversationThread, error)
	CountUnread(ctx context.Context, agencyID string) (int, error)
}

// NotificationRepository stores in-app notifications.
type NotificationRepository interface {
	Save(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, agencyID, userID string) ([]*models.Notification, error)
}

// CredentialRepository stores tenant-scoped provider secrets.
type CredentialRepository interface {
	Get(ctx context.Context, agencyID, key string) (*models.Credential, error)
	Save(ctx context.Context, credential *models.Credential) error
	// AgenciesWithValue returns the agency IDs whose credential under key has
	// the given connected value. Used to resolve inbound tenant ownership.
	AgenciesWithValue(ctx context.Context, key, value string) ([]string, error)
}

// EnrollmentRepository stores sequence enrollments.
type EnrollmentRepository interface {
	Save(ctx context.Context, enrollment *models.SequenceEnrollment) error
	Update(ctx context.Context, enrollment *models.SequenceEnrollment) error
	ListActiveByContact(ctx context.Context, agencyID, contactType, contactID string) ([]*models.SequenceEnrollment, error)
	// CancelActiveByContact cancels every active enrollment for the contact
	// and returns how many were cancelled.
	CancelActiveByContact(ctx context.Context, agencyID, contactType, contactID string) (int, error)
}

// ActivityRepository stores append-only sweep summaries.
type ActivityRepository interface {
	Append(ctx context.Context, entry *models.ActivityEntry) error
	ListByAgency(ctx context.Context, agencyID string, limit int) ([]*models.ActivityEntry, error)
}
