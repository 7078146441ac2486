// Package web provides HTTP request and response types for the Carelane API.
package web

// SendMessageRequest is the body for POST /messages.
type SendMessageRequest struct {
	AgencyID    string `json:"agency_id"              validate:"required"`
	Channel     string `json:"channel"                validate:"required,oneof=sms email in_app"`
	To          string `json:"to,omitempty"`
	Subject     string `json:"subject,omitempty"`
	Body        string `json:"body"                   validate:"required"`
	// Template is an optional client-side template identifier. The body
	// arrives already rendered, so the identifier is accepted but not
	// interpreted here.
	Template    string `json:"template,omitempty"`
	UserID      string `json:"user_id,omitempty"`
	RelatedType string `json:"related_type,omitempty"`
	RelatedID   string `json:"related_id,omitempty"`
}

// SendMessageResponse mirrors the gateway result. Success means the request
// was accepted and logged; a mock or failed delivery still succeeds here.
type SendMessageResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
	Mock      bool   `json:"mock"`
	Error     string `json:"error,omitempty"`
}

// DispatchRequest is the body for POST /outreach/dispatch.
type DispatchRequest struct {
	AgencyID     string   `json:"agency_id"     validate:"required"`
	SequenceType string   `json:"sequence_type" validate:"required"`
	CandidateIDs []string `json:"candidate_ids" validate:"required,min=1"`
}

// DispatchResponse reports how many candidates had their first step sent.
type DispatchResponse struct {
	Sent int `json:"sent"`
}

// PromoteRequest is the body for POST /candidates/:id/promote.
type PromoteRequest struct {
	AgencyID string `json:"agency_id" validate:"required"`
}

// PhoneScreenRequest is the body for POST /candidates/:id/phone-screen.
type PhoneScreenRequest struct {
	AgencyID string `json:"agency_id" validate:"required"`
	Task     string `json:"task,omitempty"`
}

// PhoneScreenResponse returns the provider call id of the started screen.
type PhoneScreenResponse struct {
	CallID string `json:"call_id"`
}
