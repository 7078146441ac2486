// Package memory provides an in-memory persistence implementation used by
// tests and local development. All repositories share one mutex-guarded store.
package memory

import (
	"context"
	"sync"

	"github.com/carelane/carelane/pkg/models"
	"github.com/carelane/carelane/pkg/persistence"
)

type store struct {
	mu sync.RWMutex

	agencies      map[string]*models.Agency
	members       map[string][]*models.AgencyMember
	caregivers    map[string]*models.Caregiver
	candidates    map[string]*models.Candidate
	rules         map[string]*models.AutomationRule
	campaigns     map[string]*models.AdCampaign
	messageLogs   []*models.MessageLog
	inbound       []*models.InboundMessage
	threads       map[string]*models.ConversationThread
	notifications []*models.Notification
	credentials   map[string]map[string]*models.Credential
	enrollments   map[string]*models.SequenceEnrollment
	activity      []*models.ActivityEntry
}

// Persistence implements the persistence layer in process memory.
type Persistence struct {
	store *store

	agencyRepo       *AgencyRepository
	caregiverRepo    *CaregiverRepository
	candidateRepo    *CandidateRepository
	automationRepo   *AutomationRepository
	campaignRepo     *CampaignRepository
	messageRepo      *MessageRepository
	conversationRepo *ConversationRepository
	notificationRepo *NotificationRepository
	credentialRepo   *CredentialRepository
	enrollmentRepo   *EnrollmentRepository
	activityRepo     *ActivityRepository
}

// NewPersistence creates an empty in-memory persistence layer.
func NewPersistence() *Persistence {
	s := &store{
		agencies:    make(map[string]*models.Agency),
		members:     make(map[string][]*models.AgencyMember),
		caregivers:  make(map[string]*models.Caregiver),
		candidates:  make(map[string]*models.Candidate),
		rules:       make(map[string]*models.AutomationRule),
		campaigns:   make(map[string]*models.AdCampaign),
		threads:     make(map[string]*models.ConversationThread),
		credentials: make(map[string]map[string]*models.Credential),
		enrollments: make(map[string]*models.SequenceEnrollment),
	}

	return &Persistence{
		store:            s,
		agencyRepo:       &AgencyRepository{store: s},
		caregiverRepo:    &CaregiverRepository{store: s},
		candidateRepo:    &CandidateRepository{store: s},
		automationRepo:   &AutomationRepository{store: s},
		campaignRepo:     &CampaignRepository{store: s},
		messageRepo:      &MessageRepository{store: s},
		conversationRepo: &ConversationRepository{store: s},
		notificationRepo: &NotificationRepository{store: s},
		credentialRepo:   &CredentialRepository{store: s},
		enrollmentRepo:   &EnrollmentRepository{store: s},
		activityRepo:     &ActivityRepository{store: s},
	}
}

// Close is a no-op for memory persistence.
func (p *Persistence) Close(_ context.Context) error { return nil }

// HealthCheck always succeeds for memory persistence.
func (p *Persistence) HealthCheck(_ context.Context) error { return nil }

func (p *Persistence) AgencyRepository() persistence.AgencyRepository { return p.agencyRepo }

func (p *Persistence) CaregiverRepository() persistence.CaregiverRepository { return p.caregiverRepo }

func (p *Persistence) CandidateRepository() persistence.CandidateRepository { return p.candidateRepo }

func (p *Persistence) AutomationRepository() persistence.AutomationRepository {
	return p.automationRepo
}

func (p *Persistence) CampaignRepository() persistence.CampaignRepository { return p.campaignRepo }

func (p *Persistence) MessageRepository() persistence.MessageRepository { return p.messageRepo }

func (p *Persistence) ConversationRepository() persistence.ConversationRepository {
	return p.conversationRepo
}

func (p *Persistence) NotificationRepository() persistence.NotificationRepository {
	return p.notificationRepo
}

func (p *Persistence) CredentialRepository() persistence.CredentialRepository {
	return p.credentialRepo
}

func (p *Persistence) EnrollmentRepository() persistence.EnrollmentRepository {
	return p.enrollmentRepo
}

func (p *Persistence) ActivityRepository() persistence.ActivityRepository { return p.activityRepo }

// AddMember registers an agency staff member. Test helper; the HTTP surface
// has no membership management.
func (p *Persistence) AddMember(member *models.AgencyMember) {
	p.store.mu.Lock()
	defer p.store.mu.Unlock()

	p.store.members[member.AgencyID] = append(p.store.members[member.AgencyID], member)
}

// MessageLogs returns a snapshot of the append-only message log. Test helper.
func (p *Persistence) MessageLogs() []*models.MessageLog {
	p.store.mu.RLock()
	defer p.store.mu.RUnlock()

	out := make([]*models.MessageLog, len(p.store.messageLogs))
	copy(out, p.store.messageLogs)

	return out
}

// InboundMessages returns a snapshot of stored inbound messages. Test helper.
func (p *Persistence) InboundMessages() []*models.InboundMessage {
	p.store.mu.RLock()
	defer p.store.mu.RUnlock()

	out := make([]*models.InboundMessage, len(p.store.inbound))
	copy(out, p.store.inbound)

	return out
}

// Notifications returns a snapshot of stored notifications. Test helper.
func (p *Persistence) Notifications() []*models.Notification {
	p.store.mu.RLock()
	defer p.store.mu.RUnlock()

	out := make([]*models.Notification, len(p.store.notifications))
	copy(out, p.store.notifications)

	return out
}

// ActivityEntries returns a snapshot of the activity log. Test helper.
func (p *Persistence) ActivityEntries() []*models.ActivityEntry {
	p.store.mu.RLock()
	defer p.store.mu.RUnlock()

	out := make([]*models.ActivityEntry, len(p.store.activity))
	copy(out, p.store.activity)

	return out
}
