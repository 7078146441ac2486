package models

import "time"

// CaregiverStatus is the pipeline lifecycle stage of a caregiver lead.
type CaregiverStatus string

const (
	CaregiverStatusNew               CaregiverStatus = "new"
	CaregiverStatusContacted         CaregiverStatus = "contacted"
	CaregiverStatusIntakeStarted     CaregiverStatus = "intake_started"
	CaregiverStatusEnrollmentPending CaregiverStatus = "enrollment_pending"
	CaregiverStatusAuthorized        CaregiverStatus = "authorized"
	CaregiverStatusActive            CaregiverStatus = "active"
)

// caregiverTransitions is the directed transition graph for pipeline statuses.
// The contacted -> new edge is defined but no automation exercises it; it exists
// for manual pipeline corrections only.
var caregiverTransitions = map[CaregiverStatus][]CaregiverStatus{
	CaregiverStatusNew:               {CaregiverStatusContacted},
	CaregiverStatusContacted:         {CaregiverStatusIntakeStarted, CaregiverStatusNew},
	CaregiverStatusIntakeStarted:     {CaregiverStatusEnrollmentPending},
	CaregiverStatusEnrollmentPending: {CaregiverStatusAuthorized},
	CaregiverStatusAuthorized:        {CaregiverStatusActive},
	CaregiverStatusActive:            {},
}

// CanTransition reports whether the status graph allows moving from s to target.
func (s CaregiverStatus) CanTransition(target CaregiverStatus) bool {
	for _, next := range caregiverTransitions[s] {
		if next == target {
			return true
		}
	}

	return false
}

// LeadTier is the coarse bucket derived from a lead score.
type LeadTier string

const (
	LeadTierHot  LeadTier = "HOT"
	LeadTierWarm LeadTier = "WARM"
	LeadTierCold LeadTier = "COLD"
)

// MedicaidStatus values mirror what intake forms collect.
const (
	MedicaidStatusActive  = "active"
	MedicaidStatusPending = "pending"
	MedicaidStatusNone    = "none"
)

// Caregiver is a pipeline record: one caregiver lead owned by one agency.
// Records are soft-deleted only; the pipeline history is never discarded.
type Caregiver struct {
	ID        string `json:"id"`
	AgencyID  string `json:"agency_id" validate:"required"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Email     string `json:"email" validate:"omitempty,email"`
	State     string `json:"state"`
	County    string `json:"county"`

	CurrentlyCaregiving   bool   `json:"currently_caregiving"`
	YearsExperience       int    `json:"years_experience"`
	PatientName           string `json:"patient_name"`
	PatientMedicaidID     string `json:"patient_medicaid_id"`
	PatientMedicaidStatus string `json:"patient_medicaid_status"`
	HasTransportation     bool   `json:"has_transportation"`
	Availability          string `json:"availability"`
	BackgroundCheckPassed bool   `json:"background_check_passed"`

	Status         CaregiverStatus `json:"status"`
	LeadScore      *int            `json:"lead_score,omitempty"`
	LeadTier       LeadTier        `json:"lead_tier,omitempty"`
	ScoreReasoning string          `json:"score_reasoning,omitempty"`

	AutoFollowupCount   int        `json:"auto_followup_count"`
	LastContactedAt     *time.Time `json:"last_contacted_at,omitempty"`
	EnrollmentStartedAt *time.Time `json:"enrollment_started_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	DeletedAt           *time.Time `json:"deleted_at,omitempty"`
}

// Scored reports whether a lead score has already been computed for the record.
// Scored records are skipped by scoring sweeps so manually adjusted scores are
// never overwritten.
func (c *Caregiver) Scored() bool {
	return c.LeadScore != nil
}

// FullName joins first and last name for message templating.
func (c *Caregiver) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}

	return c.FirstName + " " + c.LastName
}

// LastTouch returns the most recent contact timestamp, falling back to the
// record's creation time when the lead has never been contacted.
func (c *Caregiver) LastTouch() time.Time {
	if c.LastContactedAt != nil {
		return *c.LastContactedAt
	}

	return c.CreatedAt
}

// EnrollmentAge returns the reference timestamp for stale-enrollment checks.
func (c *Caregiver) EnrollmentAge() time.Time {
	if c.EnrollmentStartedAt != nil {
		return *c.EnrollmentStartedAt
	}

	return c.CreatedAt
}
