package memory

import (
	"context"
	"sort"
	"time"

	"github.com/carelane/carelane/pkg/models"
	"github.com/carelane/carelane/pkg/persistence"
)

// AutomationRepository stores automation rules in process memory.
type AutomationRepository struct {
	store *store
}

func (r *AutomationRepository) ListActive(_ context.Context, agencyID string) ([]*models.AutomationRule, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var rules []*models.AutomationRule

	for _, rule := range r.store.rules {
		if rule.AgencyID == agencyID && rule.Active {
			copied := *rule
			rules = append(rules, &copied)
		}
	}

	sort.Slice(rules, func(i, j int) bool {
		return rules[i].CreatedAt.Before(rules[j].CreatedAt)
	})

	return rules, nil
}

func (r *AutomationRepository) Save(_ context.Context, rule *models.AutomationRule) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	copied := *rule
	r.store.rules[rule.ID] = &copied

	return nil
}

func (r *AutomationRepository) Update(_ context.Context, rule *models.AutomationRule) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.rules[rule.ID]; !ok {
		return persistence.ErrRuleNotFound
	}

	copied := *rule
	copied.UpdatedAt = time.Now().UTC()
	r.store.rules[rule.ID] = &copied

	return nil
}

// CampaignRepository stores ad campaigns in process memory.
type CampaignRepository struct {
	store *store
}

func (r *CampaignRepository) GetByID(_ context.Context, id string) (*models.AdCampaign, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	campaign, ok := r.store.campaigns[id]
	if !ok {
		return nil, persistence.ErrCampaignNotFound
	}

	copied := *campaign

	return &copied, nil
}

func (r *CampaignRepository) ListActive(_ context.Context, agencyID string) ([]*models.AdCampaign, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var campaigns []*models.AdCampaign

	for _, campaign := range r.store.campaigns {
		if campaign.AgencyID == agencyID && campaign.Status == models.CampaignStatusActive {
			copied := *campaign
			campaigns = append(campaigns, &copied)
		}
	}

	sort.Slice(campaigns, func(i, j int) bool {
		return campaigns[i].CreatedAt.Before(campaigns[j].CreatedAt)
	})

	return campaigns, nil
}

func (r *CampaignRepository) Save(_ context.Context, campaign *models.AdCampaign) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	copied := *campaign
	r.store.campaigns[campaign.ID] = &copied

	return nil
}

func (r *CampaignRepository) Update(_ context.Context, campaign *models.AdCampaign) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.campaigns[campaign.ID]; !ok {
		return persistence.ErrCampaignNotFound
	}

	copied := *campaign
	copied.UpdatedAt = time.Now().UTC()
	r.store.campaigns[campaign.ID] = &copied

	return nil
}

// MessageRepository stores the append-only message log in process memory.
type MessageRepository struct {
	store *store
}

func (r *MessageRepository) AppendLog(_ context.Context, entry *models.MessageLog) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	copied := *entry
	r.store.messageLogs = append(r.store.messageLogs, &copied)

	return nil
}

func (r *MessageRepository) SaveInbound(_ context.Context, msg *models.InboundMessage) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	copied := *msg
	r.store.inbound = append(r.store.inbound, &copied)

	return nil
}

func (r *MessageRepository) CountSentSince(_ context.Context, agencyID string, since time.Time) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	count := 0

	for _, entry := range r.store.messageLogs {
		if entry.AgencyID == agencyID && entry.Status == models.MessageStatusSent && !entry.CreatedAt.Before(since) {
			count++
		}
	}

	return count, nil
}

// ConversationRepository stores threads in process memory.
type ConversationRepository struct {
	store *store
}

func (r *ConversationRepository) GetByID(_ context.Context, id string) (*models.ConversationThread, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	thread, ok := r.store.threads[id]
	if !ok {
		return nil, persistence.ErrConversationNotFound
	}

	copied := *thread

	return &copied, nil
}

func (r *ConversationRepository) GetByAddress(_ context.Context, agencyID string, channel models.Channel, address string) (*models.ConversationThread, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, thread := range r.store.threads {
		if thread.AgencyID == agencyID && thread.Channel == channel && thread.Address == address {
			copied := *thread

			return &copied, nil
		}
	}

	return nil, persistence.ErrConversationNotFound
}

func (r *ConversationRepository) Save(_ context.Context, thread *models.ConversationThread) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	copied := *thread
	r.store.threads[thread.ID] = &copied

	return nil
}

func (r *ConversationRepository) Update(_ context.Context, thread *models.ConversationThread) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.threads[thread.ID]; !ok {
		return persistence.ErrConversationNotFound
	}

	copied := *thread
	copied.UpdatedAt = time.Now().UTC()
	r.store.threads[thread.ID] = &copied

	return nil
}

func (r *ConversationRepository) MarkRead(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	thread, ok := r.store.threads[id]
	if !ok {
		return persistence.ErrConversationNotFound
	}

	thread.UnreadCount = 0
	thread.UpdatedAt = time.Now().UTC()

	return nil
}

func (r *ConversationRepository) ListByAgency(_ context.Context, agencyID string) ([]*models.ConversationThread, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var threads []*models.ConversationThread

	for _, thread := range r.store.threads {
		if thread.AgencyID == agencyID {
			copied := *thread
			threads = append(threads, &copied)
		}
	}

	sort.Slice(threads, func(i, j int) bool {
		return threads[i].LastMessageAt.After(threads[j].LastMessageAt)
	})

	return threads, nil
}

func (r *ConversationRepository) CountUnread(_ context.Context, agencyID string) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	count := 0

	for _, thread := range r.store.threads {
		if thread.AgencyID == agencyID && thread.UnreadCount > 0 {
			count++
		}
	}

	return count, nil
}

// NotificationRepository stores notifications in process memory.
type NotificationRepository struct {
	store *store
}

func (r *NotificationRepository) Save(_ context.Context, notification *models.Notification) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	copied := *notification
	r.store.notifications = append(r.store.notifications, &copied)

	return nil
}

func (r *NotificationRepository) ListByUser(_ context.Context, agencyID, userID string) ([]*models.Notification, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var notifications []*models.Notification

	for _, notification := range r.store.notifications {
		if notification.AgencyID == agencyID && notification.UserID == userID {
			copied := *notification
			notifications = append(notifications, &copied)
		}
	}

	sort.Slice(notifications, func(i, j int) bool {
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})

	return notifications, nil
}

// CredentialRepository stores provider secrets in process memory.
type CredentialRepository struct {
	store *store
}

func (r *CredentialRepository) Get(_ context.Context, agencyID, key string) (*models.Credential, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	credential, ok := r.store.credentials[agencyID][key]
	if !ok {
		return nil, persistence.ErrCredentialNotFound
	}

	copied := *credential

	return &copied, nil
}

func (r *CredentialRepository) Save(_ context.Context, credential *models.Credential) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if r.store.credentials[credential.AgencyID] == nil {
		r.store.credentials[credential.AgencyID] = make(map[string]*models.Credential)
	}

	copied := *credential
	r.store.credentials[credential.AgencyID][credential.Key] = &copied

	return nil
}

func (r *CredentialRepository) AgenciesWithValue(_ context.Context, key, value string) ([]string, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var agencyIDs []string

	for agencyID, creds := range r.store.credentials {
		credential, ok := creds[key]
		if ok && credential.Connected && credential.Value == value {
			agencyIDs = append(agencyIDs, agencyID)
		}
	}

	sort.Strings(agencyIDs)

	return agencyIDs, nil
}

// EnrollmentRepository stores sequence enrollments in process memory.
type EnrollmentRepository struct {
	store *store
}

func (r *EnrollmentRepository) Save(_ context.Context, enrollment *models.SequenceEnrollment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	copied := *enrollment
	r.store.enrollments[enrollment.ID] = &copied

	return nil
}

func (r *EnrollmentRepository) Update(_ context.Context, enrollment *models.SequenceEnrollment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	copied := *enrollment
	r.store.enrollments[enrollment.ID] = &copied

	return nil
}

func (r *EnrollmentRepository) ListActiveByContact(_ context.Context, agencyID, contactType, contactID string) ([]*models.SequenceEnrollment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var enrollments []*models.SequenceEnrollment

	for _, enrollment := range r.store.enrollments {
		if enrollment.AgencyID == agencyID &&
			enrollment.ContactType == contactType &&
			enrollment.ContactID == contactID &&
			enrollment.Status == models.EnrollmentStatusActive {
			copied := *enrollment
			enrollments = append(enrollments, &copied)
		}
	}

	sort.Slice(enrollments, func(i, j int) bool {
		return enrollments[i].EnrolledAt.Before(enrollments[j].EnrolledAt)
	})

	return enrollments, nil
}

func (r *EnrollmentRepository) CancelActiveByContact(_ context.Context, agencyID, contactType, contactID string) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now().UTC()
	cancelled := 0

	for _, enrollment := range r.store.enrollments {
		if enrollment.AgencyID == agencyID &&
			enrollment.ContactType == contactType &&
			enrollment.ContactID == contactID &&
			enrollment.Status == models.EnrollmentStatusActive {
			enrollment.Status = models.EnrollmentStatusCancelled
			enrollment.CancelledAt = &now
			cancelled++
		}
	}

	return cancelled, nil
}

// ActivityRepository stores sweep summaries in process memory.
type ActivityRepository struct {
	store *store
}

func (r *ActivityRepository) Append(_ context.Context, entry *models.ActivityEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	copied := *entry
	r.store.activity = append(r.store.activity, &copied)

	return nil
}

func (r *ActivityRepository) ListByAgency(_ context.Context, agencyID string, limit int) ([]*models.ActivityEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var entries []*models.ActivityEntry

	for _, entry := range r.store.activity {
		if entry.AgencyID == agencyID {
			copied := *entry
			entries = append(entries, &copied)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	return entries, nil
}
