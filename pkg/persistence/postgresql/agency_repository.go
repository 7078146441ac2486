package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/carelane/carelane/pkg/models"
	"github.com/carelane/carelane/pkg/persistence"
)

// AgencyRepository handles agency and membership database operations.
type AgencyRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewAgencyRepository creates a new agency repository.
func NewAgencyRepository(db *sql.DB, logger *slog.Logger) *AgencyRepository {
	return &AgencyRepository{db: db, logger: logger}
}

const agencyColumns = `id, name, slug, primary_color, logo_url, phone, created_at, updated_at, deleted_at`

func (r *AgencyRepository) scanAgency(row interface{ Scan(...any) error }) (*models.Agency, error) {
	var agency models.Agency

	err := row.Scan(
		&agency.ID,
		&agency.Name,
		&agency.Slug,
		&agency.PrimaryColor,
		&agency.LogoURL,
		&agency.Phone,
		&agency.CreatedAt,
		&agency.UpdatedAt,
		&agency.DeletedAt,
	)
	if err != nil {
		return nil, err
	}

	return &agency, nil
}

// GetByID returns one agency by its identifier.
func (r *AgencyRepository) GetByID(ctx context.Context, id string) (*models.Agency, error) {
	query := `SELECT ` + agencyColumns + ` FROM agencies WHERE id = $1 AND deleted_at IS NULL`

	agency, err := r.scanAgency(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrAgencyNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query agency: %w", err)
	}

	return agency, nil
}

// All returns every live agency, ordered by creation time.
func (r *AgencyRepository) All(ctx context.Context) ([]*models.Agency, error) {
	query := `SELECT ` + agencyColumns + ` FROM agencies WHERE deleted_at IS NULL ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query agencies: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	var agencies []*models.Agency

	for rows.Next() {
		agency, err := r.scanAgency(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan agency: %w", err)
		}

		agencies = append(agencies, agency)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating agencies: %w", err)
	}

	return agencies, nil
}

// Count returns the number of live agencies.
func (r *AgencyRepository) Count(ctx context.Context) (int, error) {
	var count int

	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM agencies WHERE deleted_at IS NULL`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count agencies: %w", err)
	}

	return count, nil
}

// Members returns the staff members of an agency.
func (r *AgencyRepository) Members(ctx context.Context, agencyID string) ([]*models.AgencyMember, error) {
	query := `
		SELECT id, agency_id, user_id, role, created_at
		FROM agency_members
		WHERE agency_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, agencyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query agency members: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	var members []*models.AgencyMember

	for rows.Next() {
		var member models.AgencyMember

		err := rows.Scan(&member.ID, &member.AgencyID, &member.UserID, &member.Role, &member.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan agency member: %w", err)
		}

		members = append(members, &member)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating agency members: %w", err)
	}

	return members, nil
}

// Save inserts or updates an agency.
func (r *AgencyRepository) Save(ctx context.Context, agency *models.Agency) error {
	query := `
		INSERT INTO agencies (id, name, slug, primary_color, logo_url, phone, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			slug = EXCLUDED.slug,
			primary_color = EXCLUDED.primary_color,
			logo_url = EXCLUDED.logo_url,
			phone = EXCLUDED.phone,
			updated_at = EXCLUDED.updated_at,
			deleted_at = EXCLUDED.deleted_at
	`

	_, err := r.db.ExecContext(ctx, query,
		agency.ID, agency.Name, agency.Slug, agency.PrimaryColor, agency.LogoURL,
		agency.Phone, agency.CreatedAt, agency.UpdatedAt, agency.DeletedAt)
	if err != nil {
		return fmt.Errorf("failed to save agency: %w", err)
	}

	return nil
}
