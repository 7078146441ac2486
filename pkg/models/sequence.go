package models

import "time"

// EnrollmentStatus is the state of one contact's enrollment in a sequence.
type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "active"
	EnrollmentStatusCompleted EnrollmentStatus = "completed"
	EnrollmentStatusCancelled EnrollmentStatus = "cancelled"
)

// SequenceEnrollment tracks one contact's progress through a drip sequence.
// Only step 1 is dispatched immediately; CurrentStep records how far the
// sequence has advanced.
type SequenceEnrollment struct {
	ID           string           `json:"id"`
	AgencyID     string           `json:"agency_id"`
	ContactType  string           `json:"contact_type"`
	ContactID    string           `json:"contact_id"`
	SequenceType string           `json:"sequence_type"`
	Status       EnrollmentStatus `json:"status"`
	CurrentStep  int              `json:"current_step"`
	EnrolledAt   time.Time        `json:"enrolled_at"`
	CancelledAt  *time.Time       `json:"cancelled_at,omitempty"`
}
