package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/carelane/carelane/pkg/models"
)

// ActivityRepository handles the append-only tenant activity log.
type ActivityRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewActivityRepository creates a new activity repository.
func NewActivityRepository(db *sql.DB, logger *slog.Logger) *ActivityRepository {
	return &ActivityRepository{db: db, logger: logger}
}

// Append records one sweep summary.
func (r *ActivityRepository) Append(ctx context.Context, entry *models.ActivityEntry) error {
	query := `
		INSERT INTO activity_log (id, agency_id, kind, summary, actions_total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.AgencyID, entry.Kind, entry.Summary, entry.ActionsTotal, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append activity entry: %w", err)
	}

	return nil
}

// ListByAgency returns the agency's most recent activity, newest first.
func (r *ActivityRepository) ListByAgency(ctx context.Context, agencyID string, limit int) ([]*models.ActivityEntry, error) {
	query := `
		SELECT id, agency_id, kind, summary, actions_total, created_at
		FROM activity_log
		WHERE agency_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, agencyID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity log: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	var entries []*models.ActivityEntry

	for rows.Next() {
		var entry models.ActivityEntry

		err := rows.Scan(&entry.ID, &entry.AgencyID, &entry.Kind, &entry.Summary,
			&entry.ActionsTotal, &entry.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}

		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity log: %w", err)
	}

	return entries, nil
}
