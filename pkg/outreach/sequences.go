// Package outreach enrolls sourced candidates into drip sequences and
// dispatches the first step.
package outreach

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"

	"github.com/carelane/carelane/pkg/models"
)

// Step is one message in a sequence. DayOffset counts days after enrollment;
// only step one (offset zero) is dispatched at enrollment time.
type Step struct {
	DayOffset int            `json:"day_offset"`
	Channel   models.Channel `json:"channel"`
	Subject   string         `json:"subject,omitempty"`
	Body      string         `json:"body"`
}

// Sequence is an ordered outreach script. PayRate, when set, resolves the
// {pay_rate} merge field in step bodies.
type Sequence struct {
	Type    string `json:"type"`
	PayRate string `json:"pay_rate,omitempty"`
	Steps   []Step `json:"steps"`
}

const (
	SequenceColdOutreach        = "cold_outreach"
	SequenceCompetitivePoaching = "competitive_poaching"
)

func builtinSequences() map[string]Sequence {
	return map[string]Sequence{
		SequenceColdOutreach: {
			Type: SequenceColdOutreach,
			Steps: []Step{
				{DayOffset: 0, Channel: models.ChannelSMS, Body: "Hi {name}, this is {agency_name}. We're hiring caregivers in {state} and your background looks like a great fit. Interested in hearing more? Reply YES and we'll get you started."},
				{DayOffset: 2, Channel: models.ChannelSMS, Body: "Hi {name}, just checking back from {agency_name}. We still have caregiver openings near you. Reply YES if you'd like details, or STOP to opt out."},
				{DayOffset: 5, Channel: models.ChannelEmail, Subject: "Caregiver openings at {agency_name}", Body: "Hi {name},\n\nWe reached out about caregiver positions at {agency_name} and wanted to follow up by email. If you're interested, reply to this message or call us at {phone}.\n\nTalk soon."},
			},
		},
		SequenceCompetitivePoaching: {
			Type: SequenceCompetitivePoaching,
			Steps: []Step{
				{DayOffset: 0, Channel: models.ChannelSMS, Body: "Hi {name}, {agency_name} here. Experienced caregivers like you can earn {pay_rate} with us, with flexible scheduling. Reply INTERESTED to learn more."},
				{DayOffset: 3, Channel: models.ChannelSMS, Body: "Hi {name}, still thinking it over? {agency_name} offers {pay_rate} and cases close to home. Reply YES and we'll walk you through it."},
			},
		},
	}
}

// sequenceFileSchema validates user-supplied sequence definition files before
// they are merged over the built-ins.
const sequenceFileSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "array",
	"items": {
		"type": "object",
		"required": ["type", "steps"],
		"properties": {
			"type": {"type": "string", "minLength": 1},
			"pay_rate": {"type": "string"},
			"steps": {
				"type": "array",
				"minItems": 1,
				"items": {
					"type": "object",
					"required": ["day_offset", "channel", "body"],
					"properties": {
						"day_offset": {"type": "integer", "minimum": 0},
						"channel": {"type": "string", "enum": ["sms", "email"]},
						"subject": {"type": "string"},
						"body": {"type": "string", "minLength": 1}
					}
				}
			}
		}
	}
}`

// LoadSequenceFile parses and validates a JSON sequence definition file.
func LoadSequenceFile(path string) ([]Sequence, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sequence file: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(sequenceFileSchema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return nil, fmt.Errorf("validating sequence file: %w", err)
	}

	if !result.Valid() {
		return nil, fmt.Errorf("invalid sequence file %s: %v", path, result.Errors())
	}

	var sequences []Sequence
	if err := json.Unmarshal(raw, &sequences); err != nil {
		return nil, fmt.Errorf("decoding sequence file: %w", err)
	}

	return sequences, nil
}
