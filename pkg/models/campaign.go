package models

import "time"

// CampaignStatus is the lifecycle state of an ad campaign.
type CampaignStatus string

const (
	CampaignStatusDraft  CampaignStatus = "draft"
	CampaignStatusActive CampaignStatus = "active"
	CampaignStatusPaused CampaignStatus = "paused"
	CampaignStatusEnded  CampaignStatus = "ended"
)

// AdCampaign is a paid recruiting campaign. Spend is refreshed by the sync-ads
// job; performance alerting compares spend against PauseThreshold but never
// mutates campaign status itself.
type AdCampaign struct {
	ID             string         `json:"id"`
	AgencyID       string         `json:"agency_id" validate:"required"`
	Name           string         `json:"name" validate:"required"`
	Platform       string         `json:"platform"`
	ExternalID     string         `json:"external_id"`
	Status         CampaignStatus `json:"status"`
	Spend          float64        `json:"spend"`
	PauseThreshold float64        `json:"pause_threshold"`
	LastSyncedAt   *time.Time     `json:"last_synced_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// OverThreshold reports whether cumulative spend has crossed the configured
// pause threshold. A zero threshold disables alerting for the campaign.
func (c *AdCampaign) OverThreshold() bool {
	return c.PauseThreshold > 0 && c.Spend >= c.PauseThreshold
}

// SourcingCampaign groups sourced candidates pulled from an external data
// provider.
type SourcingCampaign struct {
	ID        string    `json:"id"`
	AgencyID  string    `json:"agency_id"`
	Name      string    `json:"name"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}
