package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/carelane/carelane/pkg/models"
)

func TestScore_BasicSignals(t *testing.T) {
	now := time.Now().UTC()

	caregiver := &models.Caregiver{
		Phone:               "+15551234567",
		Email:               "maria@example.com",
		State:               "PA",
		County:              "Allegheny",
		CurrentlyCaregiving: true,
		CreatedAt:           now.Add(-1 * time.Hour),
	}

	result := Score(caregiver, now)

	// 8 + 7 + 5 + 5 + 10 + 10 (submitted within 1 day)
	assert.Equal(t, 45, result.Score)
	assert.Equal(t, models.LeadTierWarm, result.Tier)
}

func TestScore_HotLead(t *testing.T) {
	now := time.Now().UTC()

	caregiver := &models.Caregiver{
		Phone:               "+15551234567",
		Email:               "maria@example.com",
		State:               "PA",
		County:              "Allegheny",
		CurrentlyCaregiving: true,
		PatientName:         "John Doe",
		PatientMedicaidID:   "MA-12345",
		HasTransportation:   true,
		CreatedAt:           now.Add(-1 * time.Hour),
	}

	result := Score(caregiver, now)

	// 8 + 7 + 5 + 5 + 10 + 8 + 7 + 5 + 5 + 10 = 70
	assert.Equal(t, 70, result.Score)
	assert.Equal(t, models.LeadTierHot, result.Tier)
}

func TestScore_Deterministic(t *testing.T) {
	now := time.Now().UTC()

	caregiver := &models.Caregiver{
		Phone:           "+15551234567",
		State:           "OH",
		YearsExperience: 3,
		CreatedAt:       now.Add(-48 * time.Hour),
	}

	first := Score(caregiver, now)
	second := Score(caregiver, now)

	assert.Equal(t, first.Score, second.Score)
	assert.Equal(t, first.Tier, second.Tier)
	assert.Equal(t, first.Reasoning, second.Reasoning)
}

func TestScore_CappedAt100(t *testing.T) {
	now := time.Now().UTC()
	contacted := now.Add(-1 * time.Hour)

	caregiver := &models.Caregiver{
		Phone:                 "+15551234567",
		Email:                 "maria@example.com",
		State:                 "PA",
		County:                "Allegheny",
		CurrentlyCaregiving:   true,
		YearsExperience:       10,
		PatientName:           "John Doe",
		PatientMedicaidID:     "MA-12345",
		PatientMedicaidStatus: models.MedicaidStatusActive,
		HasTransportation:     true,
		Availability:          "full-time",
		BackgroundCheckPassed: true,
		LastContactedAt:       &contacted,
		CreatedAt:             now.Add(-1 * time.Hour),
	}

	result := Score(caregiver, now)

	assert.Equal(t, 100, result.Score)
	assert.Equal(t, models.LeadTierHot, result.Tier)
}

func TestScore_ExperienceCappedAtFiveYears(t *testing.T) {
	now := time.Now().UTC()

	three := Score(&models.Caregiver{YearsExperience: 3, CreatedAt: now.Add(-30 * 24 * time.Hour)}, now)
	twenty := Score(&models.Caregiver{YearsExperience: 20, CreatedAt: now.Add(-30 * 24 * time.Hour)}, now)

	assert.Equal(t, 3, three.Score)
	assert.Equal(t, 5, twenty.Score)
}

func TestScore_RecencyBucketsMutuallyExclusive(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name     string
		age      time.Duration
		expected int
	}{
		{"within one day", 12 * time.Hour, 10},
		{"within three days", 2 * 24 * time.Hour, 7},
		{"within seven days", 5 * 24 * time.Hour, 4},
		{"older than seven days", 10 * 24 * time.Hour, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Score(&models.Caregiver{CreatedAt: now.Add(-tt.age)}, now)
			assert.Equal(t, tt.expected, result.Score)
		})
	}
}

func TestScore_ReasoningFollowsEvaluationOrder(t *testing.T) {
	now := time.Now().UTC()

	caregiver := &models.Caregiver{
		Phone:     "+15551234567",
		Email:     "maria@example.com",
		CreatedAt: now.Add(-30 * 24 * time.Hour),
	}

	result := Score(caregiver, now)

	assert.Equal(t, "Has phone (+8); Has email (+7)", result.Reasoning)
}

func TestTierFor_Boundaries(t *testing.T) {
	tests := []struct {
		score    int
		expected models.LeadTier
	}{
		{39, models.LeadTierCold},
		{40, models.LeadTierWarm},
		{69, models.LeadTierWarm},
		{70, models.LeadTierHot},
		{0, models.LeadTierCold},
		{100, models.LeadTierHot},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, TierFor(tt.score), "score %d", tt.score)
	}
}
