package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/carelane/carelane/pkg/models"
	"github.com/carelane/carelane/pkg/persistence"
)

// AutomationRepository handles automation-rule database operations.
type AutomationRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewAutomationRepository creates a new automation repository.
func NewAutomationRepository(db *sql.DB, logger *slog.Logger) *AutomationRepository {
	return &AutomationRepository{db: db, logger: logger}
}

// ListActive returns the agency's active automation rules in creation order.
func (r *AutomationRepository) ListActive(ctx context.Context, agencyID string) ([]*models.AutomationRule, error) {
	query := `
		SELECT id, agency_id, automation_key, active, last_run_at, actions_this_week, created_at, updated_at
		FROM automation_rules
		WHERE agency_id = $1 AND active = TRUE
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, agencyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query automation rules: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	var rules []*models.AutomationRule

	for rows.Next() {
		var rule models.AutomationRule

		err := rows.Scan(&rule.ID, &rule.AgencyID, &rule.Key, &rule.Active,
			&rule.LastRunAt, &rule.ActionsThisWeek, &rule.CreatedAt, &rule.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan automation rule: %w", err)
		}

		rules = append(rules, &rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating automation rules: %w", err)
	}

	return rules, nil
}

// Save inserts or updates a rule, keyed by (agency, automation_key).
func (r *AutomationRepository) Save(ctx context.Context, rule *models.AutomationRule) error {
	query := `
		INSERT INTO automation_rules (id, agency_id, automation_key, active, last_run_at, actions_this_week, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (agency_id, automation_key) DO UPDATE SET
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		rule.ID, rule.AgencyID, rule.Key, rule.Active, rule.LastRunAt,
		rule.ActionsThisWeek, rule.CreatedAt, rule.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save automation rule: %w", err)
	}

	return nil
}

// Update persists run bookkeeping for an existing rule.
func (r *AutomationRepository) Update(ctx context.Context, rule *models.AutomationRule) error {
	query := `
		UPDATE automation_rules
		SET active = $2, last_run_at = $3, actions_this_week = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		rule.ID, rule.Active, rule.LastRunAt, rule.ActionsThisWeek, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update automation rule: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}

	if affected == 0 {
		return persistence.ErrRuleNotFound
	}

	return nil
}
