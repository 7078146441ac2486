package models

import "time"

// Channel is the delivery channel of an outbound message.
type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
	ChannelInApp Channel = "in_app"
)

// Valid reports whether c names a known channel.
func (c Channel) Valid() bool {
	switch c {
	case ChannelSMS, ChannelEmail, ChannelInApp:
		return true
	default:
		return false
	}
}

// MessageStatus is the delivery outcome of one send attempt.
type MessageStatus string

const (
	MessageStatusPending MessageStatus = "pending"
	MessageStatusSent    MessageStatus = "sent"
	MessageStatusFailed  MessageStatus = "failed"
)

// MessageLog is the immutable record of one attempted send. The log is the
// append-only source of truth for whether a contact attempt was made; entries
// are never updated or deleted.
type MessageLog struct {
	ID           string        `json:"id"`
	AgencyID     string        `json:"agency_id"`
	Channel      Channel       `json:"channel"`
	Recipient    string        `json:"recipient"`
	Subject      string        `json:"subject,omitempty"`
	Body         string        `json:"body"`
	Status       MessageStatus `json:"status"`
	Mock         bool          `json:"mock"`
	ExternalID   string        `json:"external_id,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
	RelatedType  string        `json:"related_type,omitempty"`
	RelatedID    string        `json:"related_id,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// InboundMessage is the immutable raw record of one received provider
// callback, matched or not.
type InboundMessage struct {
	ID                string    `json:"id"`
	AgencyID          string    `json:"agency_id"`
	Channel           Channel   `json:"channel"`
	From              string    `json:"from"`
	To                string    `json:"to"`
	Subject           string    `json:"subject,omitempty"`
	Body              string    `json:"body"`
	ProviderMessageID string    `json:"provider_message_id,omitempty"`
	Matched           bool      `json:"matched"`
	ContactType       string    `json:"contact_type,omitempty"`
	ContactID         string    `json:"contact_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// ConversationThread aggregates messages for one (agency, channel, address)
// pair and backs the inbox view. UnreadCount only increases on inbound events
// and resets to zero when the thread is marked read.
type ConversationThread struct {
	ID                 string    `json:"id"`
	AgencyID           string    `json:"agency_id"`
	Channel            Channel   `json:"channel"`
	Address            string    `json:"address"`
	ContactType        string    `json:"contact_type,omitempty"`
	ContactID          string    `json:"contact_id,omitempty"`
	UnreadCount        int       `json:"unread_count"`
	LastMessagePreview string    `json:"last_message_preview"`
	LastMessageAt      time.Time `json:"last_message_at"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
