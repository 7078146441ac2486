package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/carelane/carelane/pkg/models"
	"github.com/carelane/carelane/pkg/persistence"
)

func digitsOnly(value string) string {
	var b strings.Builder

	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	return b.String()
}

// AgencyRepository stores tenants in process memory.
type AgencyRepository struct {
	store *store
}

func (r *AgencyRepository) GetByID(_ context.Context, id string) (*models.Agency, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	agency, ok := r.store.agencies[id]
	if !ok || agency.DeletedAt != nil {
		return nil, persistence.ErrAgencyNotFound
	}

	copied := *agency

	return &copied, nil
}

func (r *AgencyRepository) All(_ context.Context) ([]*models.Agency, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var agencies []*models.Agency

	for _, agency := range r.store.agencies {
		if agency.DeletedAt != nil {
			continue
		}

		copied := *agency
		agencies = append(agencies, &copied)
	}

	sort.Slice(agencies, func(i, j int) bool {
		return agencies[i].CreatedAt.Before(agencies[j].CreatedAt)
	})

	return agencies, nil
}

func (r *AgencyRepository) Count(ctx context.Context) (int, error) {
	agencies, err := r.All(ctx)
	if err != nil {
		return 0, err
	}

	return len(agencies), nil
}

func (r *AgencyRepository) Members(_ context.Context, agencyID string) ([]*models.AgencyMember, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	members := make([]*models.AgencyMember, 0, len(r.store.members[agencyID]))

	for _, member := range r.store.members[agencyID] {
		copied := *member
		members = append(members, &copied)
	}

	return members, nil
}

func (r *AgencyRepository) Save(_ context.Context, agency *models.Agency) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	copied := *agency
	r.store.agencies[agency.ID] = &copied

	return nil
}

// CaregiverRepository stores pipeline records in process memory.
type CaregiverRepository struct {
	store *store
}

func (r *CaregiverRepository) GetByID(_ context.Context, id string) (*models.Caregiver, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	caregiver, ok := r.store.caregivers[id]
	if !ok || caregiver.DeletedAt != nil {
		return nil, persistence.ErrCaregiverNotFound
	}

	copied := *caregiver

	return &copied, nil
}

func (r *CaregiverRepository) Save(_ context.Context, caregiver *models.Caregiver) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	copied := *caregiver
	r.store.caregivers[caregiver.ID] = &copied

	return nil
}

func (r *CaregiverRepository) Update(_ context.Context, caregiver *models.Caregiver) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.caregivers[caregiver.ID]
	if !ok || existing.DeletedAt != nil {
		return persistence.ErrCaregiverNotFound
	}

	copied := *caregiver
	copied.UpdatedAt = time.Now().UTC()
	r.store.caregivers[caregiver.ID] = &copied

	return nil
}

func (r *CaregiverRepository) list(agencyID string, match func(*models.Caregiver) bool) []*models.Caregiver {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var caregivers []*models.Caregiver

	for _, caregiver := range r.store.caregivers {
		if caregiver.AgencyID != agencyID || caregiver.DeletedAt != nil {
			continue
		}

		if match(caregiver) {
			copied := *caregiver
			caregivers = append(caregivers, &copied)
		}
	}

	sort.Slice(caregivers, func(i, j int) bool {
		return caregivers[i].CreatedAt.Before(caregivers[j].CreatedAt)
	})

	return caregivers
}

func (r *CaregiverRepository) ListUnscored(_ context.Context, agencyID string) ([]*models.Caregiver, error) {
	return r.list(agencyID, func(c *models.Caregiver) bool {
		return c.LeadScore == nil
	}), nil
}

func (r *CaregiverRepository) ListFollowUpDue(_ context.Context, agencyID string, statuses []models.CaregiverStatus, cutoff time.Time) ([]*models.Caregiver, error) {
	return r.list(agencyID, func(c *models.Caregiver) bool {
		return statusIn(c.Status, statuses) && c.LastTouch().Before(cutoff)
	}), nil
}

func (r *CaregiverRepository) ListStaleEnrollments(_ context.Context, agencyID string, statuses []models.CaregiverStatus, cutoff time.Time) ([]*models.Caregiver, error) {
	return r.list(agencyID, func(c *models.Caregiver) bool {
		return statusIn(c.Status, statuses) && c.EnrollmentAge().Before(cutoff)
	}), nil
}

func (r *CaregiverRepository) FindByPhoneSuffix(_ context.Context, agencyID, phoneSuffix string) (*models.Caregiver, error) {
	matches := r.list(agencyID, func(c *models.Caregiver) bool {
		return phoneSuffix != "" && strings.HasSuffix(digitsOnly(c.Phone), phoneSuffix)
	})
	if len(matches) == 0 {
		return nil, persistence.ErrCaregiverNotFound
	}

	return matches[0], nil
}

func (r *CaregiverRepository) FindByEmail(_ context.Context, agencyID, email string) (*models.Caregiver, error) {
	matches := r.list(agencyID, func(c *models.Caregiver) bool {
		return email != "" && strings.EqualFold(c.Email, email)
	})
	if len(matches) == 0 {
		return nil, persistence.ErrCaregiverNotFound
	}

	return matches[0], nil
}

func (r *CaregiverRepository) CountCreatedSince(_ context.Context, agencyID string, since time.Time) (int, error) {
	matches := r.list(agencyID, func(c *models.Caregiver) bool {
		return !c.CreatedAt.Before(since)
	})

	return len(matches), nil
}

func statusIn(status models.CaregiverStatus, statuses []models.CaregiverStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}

	return false
}

// CandidateRepository stores sourced candidates in process memory.
type CandidateRepository struct {
	store *store
}

func (r *CandidateRepository) GetByID(_ context.Context, id string) (*models.Candidate, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	candidate, ok := r.store.candidates[id]
	if !ok {
		return nil, persistence.ErrCandidateNotFound
	}

	copied := *candidate

	return &copied, nil
}

func (r *CandidateRepository) Save(_ context.Context, candidate *models.Candidate) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	copied := *candidate
	r.store.candidates[candidate.ID] = &copied

	return nil
}

func (r *CandidateRepository) Update(_ context.Context, candidate *models.Candidate) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.candidates[candidate.ID]; !ok {
		return persistence.ErrCandidateNotFound
	}

	copied := *candidate
	copied.UpdatedAt = time.Now().UTC()
	r.store.candidates[candidate.ID] = &copied

	return nil
}

func (r *CandidateRepository) list(agencyID string, match func(*models.Candidate) bool) []*models.Candidate {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var candidates []*models.Candidate

	for _, candidate := range r.store.candidates {
		if candidate.AgencyID != agencyID {
			continue
		}

		if match(candidate) {
			copied := *candidate
			candidates = append(candidates, &copied)
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})

	return candidates
}

func (r *CandidateRepository) ListByIDs(_ context.Context, agencyID string, ids []string) ([]*models.Candidate, error) {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	return r.list(agencyID, func(c *models.Candidate) bool {
		return wanted[c.ID]
	}), nil
}

func (r *CandidateRepository) ListQueued(_ context.Context, agencyID string) ([]*models.Candidate, error) {
	return r.list(agencyID, func(c *models.Candidate) bool {
		return c.OutreachStatus == models.OutreachStatusQueued
	}), nil
}

func (r *CandidateRepository) FindByPhoneSuffix(_ context.Context, agencyID, phoneSuffix string) (*models.Candidate, error) {
	matches := r.list(agencyID, func(c *models.Candidate) bool {
		return phoneSuffix != "" && strings.HasSuffix(digitsOnly(c.Phone), phoneSuffix)
	})
	if len(matches) == 0 {
		return nil, persistence.ErrCandidateNotFound
	}

	return matches[0], nil
}

func (r *CandidateRepository) FindByEmail(_ context.Context, agencyID, email string) (*models.Candidate, error) {
	matches := r.list(agencyID, func(c *models.Candidate) bool {
		return email != "" && strings.EqualFold(c.Email, email)
	})
	if len(matches) == 0 {
		return nil, persistence.ErrCandidateNotFound
	}

	return matches[0], nil
}
