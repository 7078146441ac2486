package models

import "time"

// Credential key names for tenant-scoped provider secrets.
const (
	CredentialTwilioAccountSID      = "twilio_account_sid"
	CredentialTwilioAuthToken       = "twilio_auth_token"
	CredentialTwilioPhoneNumber     = "twilio_phone_number"
	CredentialSendgridAPIKey        = "sendgrid_api_key"
	CredentialInboundDomain         = "inbound_domain"
	CredentialGoHighLevelAPIKey     = "gohighlevel_api_key"
	CredentialGoHighLevelLocationID = "gohighlevel_location_id"
	CredentialBlandAPIKey           = "bland_api_key"
)

// Credential is one tenant-scoped provider secret. A credential only counts as
// usable when Connected is set; a stored but disconnected value behaves as if
// absent.
type Credential struct {
	ID        string    `json:"id"`
	AgencyID  string    `json:"agency_id"`
	Key       string    `json:"key"`
	Value     string    `json:"-"`
	Connected bool      `json:"connected"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Usable reports whether the credential holds a value the system may use.
func (c *Credential) Usable() bool {
	return c != nil && c.Connected && c.Value != ""
}
