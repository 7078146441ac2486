package automation

import (
	"context"
	"fmt"

	"github.com/carelane/carelane/pkg/models"
)

// runPerformanceAlerts flags active ad campaigns whose spend crossed their
// pause threshold. Advisory only: campaign status is never changed here.
func (r *Runner) runPerformanceAlerts(ctx context.Context, agency *models.Agency) (int, error) {
	campaigns, err := r.persistence.CampaignRepository().ListActive(ctx, agency.ID)
	if err != nil {
		return 0, fmt.Errorf("listing campaigns: %w", err)
	}

	actions := 0

	for _, campaign := range campaigns {
		if !campaign.OverThreshold() {
			continue
		}

		_, err := r.notifier.NotifyAgency(ctx, agency.ID, models.NotificationPerformanceAlert,
			"Campaign over budget: "+campaign.Name,
			fmt.Sprintf("%q has spent $%.2f against its $%.2f pause threshold. Consider pausing it.",
				campaign.Name, campaign.Spend, campaign.PauseThreshold))
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to notify staff of campaign spend",
				"agency_id", agency.ID, "campaign_id", campaign.ID, "error", err)

			continue
		}

		actions++
	}

	return actions, nil
}
