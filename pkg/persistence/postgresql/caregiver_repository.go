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

// CaregiverRepository handles pipeline-record database operations.
type CaregiverRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewCaregiverRepository creates a new caregiver repository.
func NewCaregiverRepository(db *sql.DB, logger *slog.Logger) *CaregiverRepository {
	return &CaregiverRepository{db: db, logger: logger}
}

const caregiverColumns = `
	id, agency_id, first_name, last_name, phone, email, state, county,
	currently_caregiving, years_experience, patient_name, patient_medicaid_id,
	patient_medicaid_status, has_transportation, availability, background_check_passed,
	status, lead_score, lead_tier, score_reasoning, auto_followup_count,
	last_contacted_at, enrollment_started_at, created_at, updated_at, deleted_at`

func (r *CaregiverRepository) scanCaregiver(row interface{ Scan(...any) error }) (*models.Caregiver, error) {
	var caregiver models.Caregiver

	err := row.Scan(
		&caregiver.ID,
		&caregiver.AgencyID,
		&caregiver.FirstName,
		&caregiver.LastName,
		&caregiver.Phone,
		&caregiver.Email,
		&caregiver.State,
		&caregiver.County,
		&caregiver.CurrentlyCaregiving,
		&caregiver.YearsExperience,
		&caregiver.PatientName,
		&caregiver.PatientMedicaidID,
		&caregiver.PatientMedicaidStatus,
		&caregiver.HasTransportation,
		&caregiver.Availability,
		&caregiver.BackgroundCheckPassed,
		&caregiver.Status,
		&caregiver.LeadScore,
		&caregiver.LeadTier,
		&caregiver.ScoreReasoning,
		&caregiver.AutoFollowupCount,
		&caregiver.LastContactedAt,
		&caregiver.EnrollmentStartedAt,
		&caregiver.CreatedAt,
		&caregiver.UpdatedAt,
		&caregiver.DeletedAt,
	)
	if err != nil {
		return nil, err
	}

	return &caregiver, nil
}

func (r *CaregiverRepository) queryCaregivers(ctx context.Context, query string, args ...any) ([]*models.Caregiver, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query caregivers: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	var caregivers []*models.Caregiver

	for rows.Next() {
		caregiver, err := r.scanCaregiver(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan caregiver: %w", err)
		}

		caregivers = append(caregivers, caregiver)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating caregivers: %w", err)
	}

	return caregivers, nil
}

// GetByID returns a pipeline record by its identifier.
func (r *CaregiverRepository) GetByID(ctx context.Context, id string) (*models.Caregiver, error) {
	query := `SELECT ` + caregiverColumns + ` FROM caregivers WHERE id = $1 AND deleted_at IS NULL`

	caregiver, err := r.scanCaregiver(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrCaregiverNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query caregiver: %w", err)
	}

	return caregiver, nil
}

// Save inserts a new pipeline record.
func (r *CaregiverRepository) Save(ctx context.Context, caregiver *models.Caregiver) error {
	query := `
		INSERT INTO caregivers (` + caregiverColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
	`

	_, err := r.db.ExecContext(ctx, query,
		caregiver.ID, caregiver.AgencyID, caregiver.FirstName, caregiver.LastName,
		caregiver.Phone, caregiver.Email, caregiver.State, caregiver.County,
		caregiver.CurrentlyCaregiving, caregiver.YearsExperience, caregiver.PatientName,
		caregiver.PatientMedicaidID, caregiver.PatientMedicaidStatus, caregiver.HasTransportation,
		caregiver.Availability, caregiver.BackgroundCheckPassed, caregiver.Status,
		caregiver.LeadScore, caregiver.LeadTier, caregiver.ScoreReasoning,
		caregiver.AutoFollowupCount, caregiver.LastContactedAt, caregiver.EnrollmentStartedAt,
		caregiver.CreatedAt, caregiver.UpdatedAt, caregiver.DeletedAt)
	if err != nil {
		return fmt.Errorf("failed to save caregiver: %w", err)
	}

	return nil
}

// Update persists the mutable fields of an existing pipeline record.
func (r *CaregiverRepository) Update(ctx context.Context, caregiver *models.Caregiver) error {
	query := `
		UPDATE caregivers SET
			first_name = $2, last_name = $3, phone = $4, email = $5, state = $6, county = $7,
			currently_caregiving = $8, years_experience = $9, patient_name = $10,
			patient_medicaid_id = $11, patient_medicaid_status = $12, has_transportation = $13,
			availability = $14, background_check_passed = $15, status = $16,
			lead_score = $17, lead_tier = $18, score_reasoning = $19, auto_followup_count = $20,
			last_contacted_at = $21, enrollment_started_at = $22, updated_at = $23
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		caregiver.ID, caregiver.FirstName, caregiver.LastName, caregiver.Phone,
		caregiver.Email, caregiver.State, caregiver.County, caregiver.CurrentlyCaregiving,
		caregiver.YearsExperience, caregiver.PatientName, caregiver.PatientMedicaidID,
		caregiver.PatientMedicaidStatus, caregiver.HasTransportation, caregiver.Availability,
		caregiver.BackgroundCheckPassed, caregiver.Status, caregiver.LeadScore,
		caregiver.LeadTier, caregiver.ScoreReasoning, caregiver.AutoFollowupCount,
		caregiver.LastContactedAt, caregiver.EnrollmentStartedAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update caregiver: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}

	if affected == 0 {
		return persistence.ErrCaregiverNotFound
	}

	return nil
}

// ListUnscored returns records with no computed lead score.
func (r *CaregiverRepository) ListUnscored(ctx context.Context, agencyID string) ([]*models.Caregiver, error) {
	query := `SELECT ` + caregiverColumns + `
		FROM caregivers
		WHERE agency_id = $1 AND lead_score IS NULL AND deleted_at IS NULL
		ORDER BY created_at`

	return r.queryCaregivers(ctx, query, agencyID)
}

// ListFollowUpDue returns records in the given statuses whose last touch is
// before the cutoff.
func (r *CaregiverRepository) ListFollowUpDue(ctx context.Context, agencyID string, statuses []models.CaregiverStatus, cutoff time.Time) ([]*models.Caregiver, error) {
	query := `SELECT ` + caregiverColumns + `
		FROM caregivers
		WHERE agency_id = $1
			AND status = ANY($2)
			AND COALESCE(last_contacted_at, created_at) < $3
			AND deleted_at IS NULL
		ORDER BY created_at`

	return r.queryCaregivers(ctx, query, agencyID, pq.Array(statusStrings(statuses)), cutoff)
}

// ListStaleEnrollments returns records in the given statuses whose enrollment
// start is before the cutoff.
func (r *CaregiverRepository) ListStaleEnrollments(ctx context.Context, agencyID string, statuses []models.CaregiverStatus, cutoff time.Time) ([]*models.Caregiver, error) {
	query := `SELECT ` + caregiverColumns + `
		FROM caregivers
		WHERE agency_id = $1
			AND status = ANY($2)
			AND COALESCE(enrollment_started_at, created_at) < $3
			AND deleted_at IS NULL
		ORDER BY created_at`

	return r.queryCaregivers(ctx, query, agencyID, pq.Array(statusStrings(statuses)), cutoff)
}

// FindByPhoneSuffix matches a record by the last digits of its phone number.
func (r *CaregiverRepository) FindByPhoneSuffix(ctx context.Context, agencyID, phoneSuffix string) (*models.Caregiver, error) {
	query := `SELECT ` + caregiverColumns + `
		FROM caregivers
		WHERE agency_id = $1
			AND regexp_replace(phone, '\D', '', 'g') LIKE '%' || $2
			AND deleted_at IS NULL
		ORDER BY created_at
		LIMIT 1`

	caregiver, err := r.scanCaregiver(r.db.QueryRowContext(ctx, query, agencyID, phoneSuffix))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrCaregiverNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query caregiver by phone: %w", err)
	}

	return caregiver, nil
}

// FindByEmail matches a record by exact email, case-insensitive.
func (r *CaregiverRepository) FindByEmail(ctx context.Context, agencyID, email string) (*models.Caregiver, error) {
	query := `SELECT ` + caregiverColumns + `
		FROM caregivers
		WHERE agency_id = $1 AND LOWER(email) = LOWER($2) AND deleted_at IS NULL
		ORDER BY created_at
		LIMIT 1`

	caregiver, err := r.scanCaregiver(r.db.QueryRowContext(ctx, query, agencyID, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrCaregiverNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query caregiver by email: %w", err)
	}

	return caregiver, nil
}

// CountCreatedSince returns the number of records created after the given time.
func (r *CaregiverRepository) CountCreatedSince(ctx context.Context, agencyID string, since time.Time) (int, error) {
	var count int

	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM caregivers WHERE agency_id = $1 AND created_at >= $2 AND deleted_at IS NULL`,
		agencyID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count caregivers: %w", err)
	}

	return count, nil
}

func statusStrings(statuses []models.CaregiverStatus) []string {
	out := make([]string, len(statuses))
	for i, status := range statuses {
		out[i] = string(status)
	}

	return out
}
