package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/carelane/carelane/pkg/models"
)

// EnrollmentRepository handles sequence-enrollment database operations.
type EnrollmentRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewEnrollmentRepository creates a new enrollment repository.
func NewEnrollmentRepository(db *sql.DB, logger *slog.Logger) *EnrollmentRepository {
	return &EnrollmentRepository{db: db, logger: logger}
}

// Save inserts an enrollment.
func (r *EnrollmentRepository) Save(ctx context.Context, enrollment *models.SequenceEnrollment) error {
	query := `
		INSERT INTO sequence_enrollments (id, agency_id, contact_type, contact_id,
			sequence_type, status, current_step, enrolled_at, cancelled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		enrollment.ID, enrollment.AgencyID, enrollment.ContactType, enrollment.ContactID,
		enrollment.SequenceType, enrollment.Status, enrollment.CurrentStep,
		enrollment.EnrolledAt, enrollment.CancelledAt)
	if err != nil {
		return fmt.Errorf("failed to save enrollment: %w", err)
	}

	return nil
}

// Update persists the mutable fields of an existing enrollment.
func (r *EnrollmentRepository) Update(ctx context.Context, enrollment *models.SequenceEnrollment) error {
	query := `
		UPDATE sequence_enrollments
		SET status = $2, current_step = $3, cancelled_at = $4
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		enrollment.ID, enrollment.Status, enrollment.CurrentStep, enrollment.CancelledAt)
	if err != nil {
		return fmt.Errorf("failed to update enrollment: %w", err)
	}

	return nil
}

// ListActiveByContact returns a contact's active enrollments.
func (r *EnrollmentRepository) ListActiveByContact(ctx context.Context, agencyID, contactType, contactID string) ([]*models.SequenceEnrollment, error) {
	query := `
		SELECT id, agency_id, contact_type, contact_id, sequence_type, status,
			current_step, enrolled_at, cancelled_at
		FROM sequence_enrollments
		WHERE agency_id = $1 AND contact_type = $2 AND contact_id = $3 AND status = 'active'
		ORDER BY enrolled_at
	`

	rows, err := r.db.QueryContext(ctx, query, agencyID, contactType, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrollments: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	var enrollments []*models.SequenceEnrollment

	for rows.Next() {
		var enrollment models.SequenceEnrollment

		err := rows.Scan(&enrollment.ID, &enrollment.AgencyID, &enrollment.ContactType,
			&enrollment.ContactID, &enrollment.SequenceType, &enrollment.Status,
			&enrollment.CurrentStep, &enrollment.EnrolledAt, &enrollment.CancelledAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}

		enrollments = append(enrollments, &enrollment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating enrollments: %w", err)
	}

	return enrollments, nil
}

// CancelActiveByContact cancels every active enrollment for the contact and
// returns how many were cancelled.
func (r *EnrollmentRepository) CancelActiveByContact(ctx context.Context, agencyID, contactType, contactID string) (int, error) {
	query := `
		UPDATE sequence_enrollments
		SET status = 'cancelled', cancelled_at = $4
		WHERE agency_id = $1 AND contact_type = $2 AND contact_id = $3 AND status = 'active'
	`

	result, err := r.db.ExecContext(ctx, query, agencyID, contactType, contactID, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to cancel enrollments: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return int(affected), nil
}
