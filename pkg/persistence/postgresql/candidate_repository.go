package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/carelane/carelane/pkg/models"
	"github.com/carelane/carelane/pkg/persistence"
)

// CandidateRepository handles sourced-candidate database operations.
type CandidateRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewCandidateRepository creates a new candidate repository.
func NewCandidateRepository(db *sql.DB, logger *slog.Logger) *CandidateRepository {
	return &CandidateRepository{db: db, logger: logger}
}

const candidateColumns = `
	id, agency_id, sourcing_campaign_id, first_name, last_name, phone, email, state,
	match_score, outreach_status, phone_screen_status, promoted_caregiver_id,
	created_at, updated_at`

func (r *CandidateRepository) scanCandidate(row interface{ Scan(...any) error }) (*models.Candidate, error) {
	var (
		candidate  models.Candidate
		campaignID sql.NullString
	)

	err := row.Scan(
		&candidate.ID,
		&candidate.AgencyID,
		&campaignID,
		&candidate.FirstName,
		&candidate.LastName,
		&candidate.Phone,
		&candidate.Email,
		&candidate.State,
		&candidate.MatchScore,
		&candidate.OutreachStatus,
		&candidate.PhoneScreenStatus,
		&candidate.PromotedCaregiverID,
		&candidate.CreatedAt,
		&candidate.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	candidate.SourcingCampaignID = campaignID.String

	return &candidate, nil
}

func (r *CandidateRepository) queryCandidates(ctx context.Context, query string, args ...any) ([]*models.Candidate, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	var candidates []*models.Candidate

	for rows.Next() {
		candidate, err := r.scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}

		candidates = append(candidates, candidate)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candidates: %w", err)
	}

	return candidates, nil
}

// GetByID returns one candidate by its identifier.
func (r *CandidateRepository) GetByID(ctx context.Context, id string) (*models.Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates WHERE id = $1`

	candidate, err := r.scanCandidate(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrCandidateNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query candidate: %w", err)
	}

	return candidate, nil
}

// Save inserts a new candidate.
func (r *CandidateRepository) Save(ctx context.Context, candidate *models.Candidate) error {
	query := `
		INSERT INTO candidates (` + candidateColumns + `)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(ctx, query,
		candidate.ID, candidate.AgencyID, candidate.SourcingCampaignID,
		candidate.FirstName, candidate.LastName, candidate.Phone, candidate.Email,
		candidate.State, candidate.MatchScore, candidate.OutreachStatus,
		candidate.PhoneScreenStatus, candidate.PromotedCaregiverID,
		candidate.CreatedAt, candidate.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save candidate: %w", err)
	}

	return nil
}

// Update persists the mutable fields of an existing candidate.
func (r *CandidateRepository) Update(ctx context.Context, candidate *models.Candidate) error {
	query := `
		UPDATE candidates SET
			first_name = $2, last_name = $3, phone = $4, email = $5, state = $6,
			match_score = $7, outreach_status = $8, phone_screen_status = $9,
			promoted_caregiver_id = $10, updated_at = $11
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		candidate.ID, candidate.FirstName, candidate.LastName, candidate.Phone,
		candidate.Email, candidate.State, candidate.MatchScore, candidate.OutreachStatus,
		candidate.PhoneScreenStatus, candidate.PromotedCaregiverID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update candidate: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}

	if affected == 0 {
		return persistence.ErrCandidateNotFound
	}

	return nil
}

// ListByIDs returns the agency's candidates matching the given identifiers.
func (r *CandidateRepository) ListByIDs(ctx context.Context, agencyID string, ids []string) ([]*models.Candidate, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + candidateColumns + `
		FROM candidates
		WHERE agency_id = $1 AND id = ANY($2)
		ORDER BY created_at`

	return r.queryCandidates(ctx, query, agencyID, pq.Array(ids))
}

// ListQueued returns candidates whose outreach is queued awaiting provider
// configuration.
func (r *CandidateRepository) ListQueued(ctx context.Context, agencyID string) ([]*models.Candidate, error) {
	query := `SELECT ` + candidateColumns + `
		FROM candidates
		WHERE agency_id = $1 AND outreach_status = 'queued'
		ORDER BY created_at`

	return r.queryCandidates(ctx, query, agencyID)
}

// FindByPhoneSuffix matches a candidate by the last digits of its phone number.
func (r *CandidateRepository) FindByPhoneSuffix(ctx context.Context, agencyID, phoneSuffix string) (*models.Candidate, error) {
	query := `SELECT ` + candidateColumns + `
		FROM candidates
		WHERE agency_id = $1
			AND regexp_replace(phone, '\D', '', 'g') LIKE '%' || $2
		ORDER BY created_at
		LIMIT 1`

	candidate, err := r.scanCandidate(r.db.QueryRowContext(ctx, query, agencyID, phoneSuffix))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrCandidateNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query candidate by phone: %w", err)
	}

	return candidate, nil
}

// FindByEmail matches a candidate by exact email, case-insensitive.
func (r *CandidateRepository) FindByEmail(ctx context.Context, agencyID, email string) (*models.Candidate, error) {
	query := `SELECT ` + candidateColumns + `
		FROM candidates
		WHERE agency_id = $1 AND LOWER(email) = LOWER($2)
		ORDER BY created_at
		LIMIT 1`

	candidate, err := r.scanCandidate(r.db.QueryRowContext(ctx, query, agencyID, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrCandidateNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query candidate by email: %w", err)
	}

	return candidate, nil
}
