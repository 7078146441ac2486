package persistence

import "errors"

// Standard persistence error types that all implementations should use.
var (
	// ErrAgencyNotFound indicates an agency was not found by the given identifier.
	ErrAgencyNotFound = errors.New("agency not found")

	// ErrCaregiverNotFound indicates a caregiver record was not found.
	ErrCaregiverNotFound = errors.New("caregiver not found")

	// ErrCandidateNotFound indicates a sourced candidate was not found.
	ErrCandidateNotFound = errors.New("candidate not found")

	// ErrCampaignNotFound indicates an ad campaign was not found.
	ErrCampaignNotFound = errors.New("campaign not found")

	// ErrConversationNotFound indicates a conversation thread was not found.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrCredentialNotFound indicates no credential is stored under the given key.
	ErrCredentialNotFound = errors.New("credential not found")

	// ErrRuleNotFound indicates an automation rule was not found.
	ErrRuleNotFound = errors.New("automation rule not found")
)

// IsNotFound reports whether err is any of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAgencyNotFound) ||
		errors.Is(err, ErrCaregiverNotFound) ||
		errors.Is(err, ErrCandidateNotFound) ||
		errors.Is(err, ErrCampaignNotFound) ||
		errors.Is(err, ErrConversationNotFound) ||
		errors.Is(err, ErrCredentialNotFound) ||
		errors.Is(err, ErrRuleNotFound)
}

// IsCredentialNotFound reports whether err indicates a missing credential.
// Missing credentials are an expected condition: callers downgrade to the
// mock/pending path instead of failing.
func IsCredentialNotFound(err error) bool {
	return errors.Is(err, ErrCredentialNotFound)
}
