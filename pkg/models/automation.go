package models

import "time"

// AutomationKey identifies one automation rule kind. The set is closed: the
// runner dispatches by exhaustive match and registering a new kind is a
// compile-time change.
type AutomationKey string

const (
	AutomationLeadScoring          AutomationKey = "lead_scoring"
	AutomationFollowUpReminders    AutomationKey = "follow_up_reminders"
	AutomationPerformanceAlerts    AutomationKey = "performance_alerts"
	AutomationStaleEnrollmentAlert AutomationKey = "stale_enrollment_alerts"
)

// AutomationKeys lists every known automation kind in execution order.
func AutomationKeys() []AutomationKey {
	return []AutomationKey{
		AutomationLeadScoring,
		AutomationFollowUpReminders,
		AutomationPerformanceAlerts,
		AutomationStaleEnrollmentAlert,
	}
}

// Valid reports whether k names a known automation kind.
func (k AutomationKey) Valid() bool {
	switch k {
	case AutomationLeadScoring, AutomationFollowUpReminders,
		AutomationPerformanceAlerts, AutomationStaleEnrollmentAlert:
		return true
	default:
		return false
	}
}

// AutomationRule is a per-tenant switch plus run bookkeeping for one
// automation kind.
type AutomationRule struct {
	ID              string        `json:"id"`
	AgencyID        string        `json:"agency_id" validate:"required"`
	Key             AutomationKey `json:"automation_key" validate:"required"`
	Active          bool          `json:"active"`
	LastRunAt       *time.Time    `json:"last_run_at,omitempty"`
	ActionsThisWeek int           `json:"actions_this_week"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}
