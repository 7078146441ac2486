package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/carelane/carelane/pkg/models"
	"github.com/carelane/carelane/pkg/persistence"
)

// CampaignRepository handles ad-campaign database operations.
type CampaignRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewCampaignRepository creates a new campaign repository.
func NewCampaignRepository(db *sql.DB, logger *slog.Logger) *CampaignRepository {
	return &CampaignRepository{db: db, logger: logger}
}

const campaignColumns = `
	id, agency_id, name, platform, external_id, status, spend, pause_threshold,
	last_synced_at, created_at, updated_at`

func (r *CampaignRepository) scanCampaign(row interface{ Scan(...any) error }) (*models.AdCampaign, error) {
	var campaign models.AdCampaign

	err := row.Scan(
		&campaign.ID,
		&campaign.AgencyID,
		&campaign.Name,
		&campaign.Platform,
		&campaign.ExternalID,
		&campaign.Status,
		&campaign.Spend,
		&campaign.PauseThreshold,
		&campaign.LastSyncedAt,
		&campaign.CreatedAt,
		&campaign.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &campaign, nil
}

// GetByID returns one campaign by its identifier.
func (r *CampaignRepository) GetByID(ctx context.Context, id string) (*models.AdCampaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM ad_campaigns WHERE id = $1`

	campaign, err := r.scanCampaign(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrCampaignNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query campaign: %w", err)
	}

	return campaign, nil
}

// ListActive returns the agency's active campaigns.
func (r *CampaignRepository) ListActive(ctx context.Context, agencyID string) ([]*models.AdCampaign, error) {
	query := `SELECT ` + campaignColumns + `
		FROM ad_campaigns
		WHERE agency_id = $1 AND status = 'active'
		ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, agencyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query campaigns: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	var campaigns []*models.AdCampaign

	for rows.Next() {
		campaign, err := r.scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}

		campaigns = append(campaigns, campaign)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating campaigns: %w", err)
	}

	return campaigns, nil
}

// Save inserts a new campaign.
func (r *CampaignRepository) Save(ctx context.Context, campaign *models.AdCampaign) error {
	query := `
		INSERT INTO ad_campaigns (` + campaignColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		campaign.ID, campaign.AgencyID, campaign.Name, campaign.Platform,
		campaign.ExternalID, campaign.Status, campaign.Spend, campaign.PauseThreshold,
		campaign.LastSyncedAt, campaign.CreatedAt, campaign.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save campaign: %w", err)
	}

	return nil
}

// Update persists the mutable fields of an existing campaign.
func (r *CampaignRepository) Update(ctx context.Context, campaign *models.AdCampaign) error {
	query := `
		UPDATE ad_campaigns
		SET name = $2, platform = $3, external_id = $4, status = $5, spend = $6,
			pause_threshold = $7, last_synced_at = $8, updated_at = $9
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		campaign.ID, campaign.Name, campaign.Platform, campaign.ExternalID,
		campaign.Status, campaign.Spend, campaign.PauseThreshold,
		campaign.LastSyncedAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update campaign: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}

	if affected == 0 {
		return persistence.ErrCampaignNotFound
	}

	return nil
}
