package messaging

import (
	"context"

	"github.com/carelane/carelane/pkg/models"
	"github.com/carelane/carelane/pkg/persistence"
)

// SMSCapability is the resolved SMS sending configuration for one agency.
// When Configured is false, Reason says which credential was missing and the
// provider fields are empty.
type SMSCapability struct {
	Configured bool
	Reason     string

	AccountSID string
	AuthToken  string
	FromNumber string
}

// EmailCapability is the resolved email sending configuration for one agency.
type EmailCapability struct {
	Configured bool
	Reason     string

	APIKey      string
	FromAddress string
}

// ResolveSMS looks up the agency's Twilio credentials. A missing or
// disconnected credential yields an Unconfigured capability, never an error.
func ResolveSMS(ctx context.Context, credentials persistence.CredentialRepository, agencyID string) (SMSCapability, error) {
	values := make(map[string]string, 3)

	for _, key := range []string{
		models.CredentialTwilioAccountSID,
		models.CredentialTwilioAuthToken,
		models.CredentialTwilioPhoneNumber,
	} {
		cred, err := credentials.Get(ctx, agencyID, key)
		if err != nil {
			if persistence.IsNotFound(err) {
				return SMSCapability{Reason: "missing credential " + key}, nil
			}

			return SMSCapability{}, err
		}

		if !cred.Usable() {
			return SMSCapability{Reason: "credential " + key + " not connected"}, nil
		}

		values[key] = cred.Value
	}

	return SMSCapability{
		Configured: true,
		AccountSID: values[models.CredentialTwilioAccountSID],
		AuthToken:  values[models.CredentialTwilioAuthToken],
		FromNumber: values[models.CredentialTwilioPhoneNumber],
	}, nil
}

// ResolveEmail looks up the agency's SendGrid credentials. The from address
// derives from the inbound domain when one is connected.
func ResolveEmail(ctx context.Context, credentials persistence.CredentialRepository, agencyID string) (EmailCapability, error) {
	apiKey, err := credentials.Get(ctx, agencyID, models.CredentialSendgridAPIKey)
	if err != nil {
		if persistence.IsNotFound(err) {
			return EmailCapability{Reason: "missing credential " + models.CredentialSendgridAPIKey}, nil
		}

		return EmailCapability{}, err
	}

	if !apiKey.Usable() {
		return EmailCapability{Reason: "credential " + models.CredentialSendgridAPIKey + " not connected"}, nil
	}

	from := "no-reply@carelane.app"

	domain, err := credentials.Get(ctx, agencyID, models.CredentialInboundDomain)
	if err != nil && !persistence.IsNotFound(err) {
		return EmailCapability{}, err
	}

	if err == nil && domain.Usable() {
		from = "no-reply@" + domain.Value
	}

	return EmailCapability{
		Configured:  true,
		APIKey:      apiKey.Value,
		FromAddress: from,
	}, nil
}
