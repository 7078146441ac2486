package models

import "time"

// OutreachStatus tracks how far a sourced candidate has moved through outreach.
type OutreachStatus string

const (
	OutreachStatusNotStarted OutreachStatus = "not_started"
	OutreachStatusQueued     OutreachStatus = "queued"
	OutreachStatusSent       OutreachStatus = "sent"
	OutreachStatusResponded  OutreachStatus = "responded"
)

// PhoneScreenStatus tracks automated phone-screen progress for a candidate.
type PhoneScreenStatus string

const (
	PhoneScreenNotStarted PhoneScreenStatus = "not_started"
	PhoneScreenInProgress PhoneScreenStatus = "in_progress"
	PhoneScreenCompleted  PhoneScreenStatus = "completed"
	PhoneScreenFailed     PhoneScreenStatus = "failed"
)

// Candidate is a sourced caregiver prospect attached to a sourcing campaign.
// A candidate may be promoted into a Caregiver pipeline record exactly once;
// PromotedCaregiverID is the promotion pointer that keeps the operation
// idempotent.
type Candidate struct {
	ID                  string            `json:"id"`
	AgencyID            string            `json:"agency_id" validate:"required"`
	SourcingCampaignID  string            `json:"sourcing_campaign_id"`
	FirstName           string            `json:"first_name" validate:"required"`
	LastName            string            `json:"last_name"`
	Phone               string            `json:"phone"`
	Email               string            `json:"email" validate:"omitempty,email"`
	State               string            `json:"state"`
	MatchScore          int               `json:"match_score"`
	OutreachStatus      OutreachStatus    `json:"outreach_status"`
	PhoneScreenStatus   PhoneScreenStatus `json:"phone_screen_status"`
	PromotedCaregiverID *string           `json:"promoted_caregiver_id,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// Promoted reports whether the candidate already has a pipeline record.
func (c *Candidate) Promoted() bool {
	return c.PromotedCaregiverID != nil
}

// FullName joins first and last name for message templating.
func (c *Candidate) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}

	return c.FirstName + " " + c.LastName
}
