// Package scoring computes lead scores and tiers for caregiver pipeline
// records. The model is additive: each signal contributes a fixed weight and
// the total is capped at 100.
package scoring

import (
	"fmt"
	"strings"
	"time"

	"github.com/carelane/carelane/pkg/models"
)

const maxScore = 100

// Tier boundaries.
const (
	hotThreshold  = 70
	warmThreshold = 40
)

// Result is one computed lead score.
type Result struct {
	Score     int
	Tier      models.LeadTier
	Reasoning string
}

// Score evaluates a caregiver record against the weighted signal list. The
// reasoning string joins the contributing line items in evaluation order, so
// identical records always yield identical output.
func Score(caregiver *models.Caregiver, now time.Time) Result {
	score := 0
	reasons := make([]string, 0, 16)

	add := func(points int, reason string) {
		score += points
		reasons = append(reasons, fmt.Sprintf("%s (+%d)", reason, points))
	}

	if caregiver.Phone != "" {
		add(8, "Has phone")
	}

	if caregiver.Email != "" {
		add(7, "Has email")
	}

	if caregiver.State != "" {
		add(5, "State known")
	}

	if caregiver.County != "" {
		add(5, "County known")
	}

	if caregiver.CurrentlyCaregiving {
		add(10, "Currently caregiving")
	}

	if caregiver.YearsExperience > 0 {
		years := caregiver.YearsExperience
		if years > 5 {
			years = 5
		}

		add(years, fmt.Sprintf("%d+ years experience", years))
	}

	if caregiver.PatientName != "" {
		add(8, "Patient identified")
	}

	if caregiver.PatientMedicaidID != "" {
		add(7, "Patient Medicaid ID on file")
	}

	if caregiver.PatientMedicaidStatus == models.MedicaidStatusActive {
		add(5, "Patient Medicaid active")
	}

	if caregiver.HasTransportation {
		add(5, "Has transportation")
	}

	if caregiver.Availability != "" {
		add(5, "Availability specified")
	}

	age := now.Sub(caregiver.CreatedAt)

	switch {
	case age <= 24*time.Hour:
		add(10, "Submitted within 1 day")
	case age <= 3*24*time.Hour:
		add(7, "Submitted within 3 days")
	case age <= 7*24*time.Hour:
		add(4, "Submitted within 7 days")
	}

	if caregiver.BackgroundCheckPassed {
		add(5, "Background check passed")
	}

	if caregiver.LastContactedAt != nil {
		sinceContact := now.Sub(*caregiver.LastContactedAt)

		switch {
		case sinceContact <= 2*24*time.Hour:
			add(10, "Contacted within 2 days")
		case sinceContact <= 7*24*time.Hour:
			add(5, "Contacted within 7 days")
		}
	}

	if score > maxScore {
		score = maxScore
	}

	return Result{
		Score:     score,
		Tier:      TierFor(score),
		Reasoning: strings.Join(reasons, "; "),
	}
}

// TierFor maps a score to its lead tier.
func TierFor(score int) models.LeadTier {
	switch {
	case score >= hotThreshold:
		return models.LeadTierHot
	case score >= warmThreshold:
		return models.LeadTierWarm
	default:
		return models.LeadTierCold
	}
}
