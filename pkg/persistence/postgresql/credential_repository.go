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

// CredentialRepository handles tenant-scoped provider secrets.
type CredentialRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewCredentialRepository creates a new credential repository.
func NewCredentialRepository(db *sql.DB, logger *slog.Logger) *CredentialRepository {
	return &CredentialRepository{db: db, logger: logger}
}

// Get returns the credential stored under (agency, key).
func (r *CredentialRepository) Get(ctx context.Context, agencyID, key string) (*models.Credential, error) {
	query := `
		SELECT id, agency_id, key, value, connected, created_at, updated_at
		FROM credentials
		WHERE agency_id = $1 AND key = $2
	`

	var credential models.Credential

	err := r.db.QueryRowContext(ctx, query, agencyID, key).Scan(
		&credential.ID, &credential.AgencyID, &credential.Key, &credential.Value,
		&credential.Connected, &credential.CreatedAt, &credential.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrCredentialNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query credential: %w", err)
	}

	return &credential, nil
}

// Save inserts or updates a credential, keyed by (agency, key).
func (r *CredentialRepository) Save(ctx context.Context, credential *models.Credential) error {
	query := `
		INSERT INTO credentials (id, agency_id, key, value, connected, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (agency_id, key) DO UPDATE SET
			value = EXCLUDED.value,
			connected = EXCLUDED.connected,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		credential.ID, credential.AgencyID, credential.Key, credential.Value,
		credential.Connected, credential.CreatedAt, credential.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}

	return nil
}

// AgenciesWithValue returns the agency IDs whose connected credential under
// key holds the given value.
func (r *CredentialRepository) AgenciesWithValue(ctx context.Context, key, value string) ([]string, error) {
	query := `
		SELECT agency_id
		FROM credentials
		WHERE key = $1 AND value = $2 AND connected = TRUE
	`

	rows, err := r.db.QueryContext(ctx, query, key, value)
	if err != nil {
		return nil, fmt.Errorf("failed to query credentials by value: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	var agencyIDs []string

	for rows.Next() {
		var agencyID string

		if err := rows.Scan(&agencyID); err != nil {
			return nil, fmt.Errorf("failed to scan credential row: %w", err)
		}

		agencyIDs = append(agencyIDs, agencyID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating credentials: %w", err)
	}

	return agencyIDs, nil
}
