package inbound

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"

	"github.com/carelane/carelane/pkg/models"
)

var ErrMalformedPayload = errors.New("malformed webhook payload")

// Payload is the provider-agnostic shape of one inbound message.
type Payload struct {
	Channel           models.Channel
	From              string
	To                string
	Subject           string
	Body              string
	ProviderMessageID string
}

// ParseTwilioForm decodes the form-encoded webhook Twilio posts for incoming
// SMS.
func ParseTwilioForm(form url.Values) (Payload, error) {
	from := form.Get("From")
	body := form.Get("Body")

	if from == "" || body == "" {
		return Payload{}, fmt.Errorf("%w: missing From or Body", ErrMalformedPayload)
	}

	return Payload{
		Channel:           models.ChannelSMS,
		From:              NormalizePhone(from),
		To:                NormalizePhone(form.Get("To")),
		Body:              body,
		ProviderMessageID: form.Get("MessageSid"),
	}, nil
}

// ParseSendGridForm decodes the multipart inbound-parse webhook.
func ParseSendGridForm(form url.Values) (Payload, error) {
	return emailPayload(form.Get("from"), form.Get("to"), form.Get("subject"), form.Get("text"))
}

// ParseSendGridJSON decodes a JSON inbound payload.
func ParseSendGridJSON(raw []byte) (Payload, error) {
	var body struct {
		From    string `json:"from"`
		To      string `json:"to"`
		Subject string `json:"subject"`
		Text    string `json:"text"`
	}

	if err := json.Unmarshal(raw, &body); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	return emailPayload(body.From, body.To, body.Subject, body.Text)
}

func emailPayload(from, to, subject, text string) (Payload, error) {
	if from == "" || text == "" {
		return Payload{}, fmt.Errorf("%w: missing from or text", ErrMalformedPayload)
	}

	return Payload{
		Channel: models.ChannelEmail,
		From:    emailAddress(from),
		To:      emailAddress(to),
		Subject: subject,
		Body:    text,
	}, nil
}

// emailAddress extracts the bare address from forms like "Ana <ana@x.com>".
func emailAddress(value string) string {
	if addr, err := mail.ParseAddress(value); err == nil {
		return strings.ToLower(addr.Address)
	}

	return strings.ToLower(strings.TrimSpace(value))
}

// emailDomain returns the part after the @, or empty when there is none.
func emailDomain(address string) string {
	if i := strings.LastIndex(address, "@"); i >= 0 {
		return address[i+1:]
	}

	return ""
}
