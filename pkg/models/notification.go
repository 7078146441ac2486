package models

import "time"

// NotificationKind classifies internal notifications for agency staff.
type NotificationKind string

const (
	NotificationFollowUpReminder NotificationKind = "follow_up_reminder"
	NotificationPerformanceAlert NotificationKind = "performance_alert"
	NotificationStaleEnrollment  NotificationKind = "stale_enrollment"
	NotificationInboundReply     NotificationKind = "inbound_reply"
	NotificationOptOut           NotificationKind = "opt_out"
	NotificationDailyBriefing    NotificationKind = "daily_briefing"
	NotificationGeneric          NotificationKind = "generic"
)

// Notification is an in-app message for one agency staff user.
type Notification struct {
	ID        string           `json:"id"`
	AgencyID  string           `json:"agency_id"`
	UserID    string           `json:"user_id"`
	Kind      NotificationKind `json:"kind"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

// ActivityEntry is an append-only per-tenant summary of one automation sweep.
type ActivityEntry struct {
	ID           string    `json:"id"`
	AgencyID     string    `json:"agency_id"`
	Kind         string    `json:"kind"`
	Summary      string    `json:"summary"`
	ActionsTotal int       `json:"actions_total"`
	CreatedAt    time.Time `json:"created_at"`
}
