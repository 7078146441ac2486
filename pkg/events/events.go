// Package events defines event types and structures for messaging and
// automation lifecycle notifications.
package events

import "time"

type EventType string

const Topic = "carelane.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Messaging lifecycle events.
	MessageSentEvent     EventType = "message.sent"
	MessageFailedEvent   EventType = "message.failed"
	MessageReceivedEvent EventType = "message.received"

	// Pipeline events.
	LeadScoredEvent        EventType = "lead.scored"
	LeadOptedOutEvent      EventType = "lead.opted_out"
	CandidatePromotedEvent EventType = "candidate.promoted"

	// Automation events.
	AutomationCompletedEvent EventType = "automation.completed"
	OutreachDispatchedEvent  EventType = "outreach.dispatched"
)

type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	AgencyID  string    `json:"agency_id"`
}

type MessageSent struct {
	BaseEvent

	Channel    string `json:"channel"`
	Recipient  string `json:"recipient"`
	ExternalID string `json:"external_id,omitempty"`
	Mock       bool   `json:"mock"`
}

func (e MessageSent) GetType() EventType { return MessageSentEvent }

type MessageFailed struct {
	BaseEvent

	Channel   string `json:"channel"`
	Recipient string `json:"recipient"`
	Reason    string `json:"reason"`
}

func (e MessageFailed) GetType() EventType { return MessageFailedEvent }

type MessageReceived struct {
	BaseEvent

	Channel     string `json:"channel"`
	From        string `json:"from"`
	Matched     bool   `json:"matched"`
	ContactType string `json:"contact_type,omitempty"`
	ContactID   string `json:"contact_id,omitempty"`
}

func (e MessageReceived) GetType() EventType { return MessageReceivedEvent }

type LeadScored struct {
	BaseEvent

	CaregiverID string `json:"caregiver_id"`
	Score       int    `json:"score"`
	Tier        string `json:"tier"`
}

func (e LeadScored) GetType() EventType { return LeadScoredEvent }

type LeadOptedOut struct {
	BaseEvent

	ContactType string `json:"contact_type"`
	ContactID   string `json:"contact_id"`
	Cancelled   int    `json:"cancelled_enrollments"`
}

func (e LeadOptedOut) GetType() EventType { return LeadOptedOutEvent }

type CandidatePromoted struct {
	BaseEvent

	CandidateID string `json:"candidate_id"`
	CaregiverID string `json:"caregiver_id"`
}

func (e CandidatePromoted) GetType() EventType { return CandidatePromotedEvent }

type AutomationCompleted struct {
	BaseEvent

	RulesRun     int `json:"rules_run"`
	ActionsTotal int `json:"actions_total"`
	Failures     int `json:"failures"`
}

func (e AutomationCompleted) GetType() EventType { return AutomationCompletedEvent }

type OutreachDispatched struct {
	BaseEvent

	SequenceType string `json:"sequence_type"`
	Sent         int    `json:"sent"`
}

func (e OutreachDispatched) GetType() EventType { return OutreachDispatchedEvent }
