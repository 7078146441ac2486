// Package crm pushes contacts to the agency's GoHighLevel account. Sync is
// best effort; callers treat failures as advisory.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/carelane/carelane/pkg/models"
	"github.com/carelane/carelane/pkg/persistence"
)

const gohighlevelBaseURL = "https://rest.gohighlevel.com"

// Contact is the subset of contact fields pushed to the CRM.
type Contact struct {
	FirstName string   `json:"firstName,omitempty"`
	LastName  string   `json:"lastName,omitempty"`
	Phone     string   `json:"phone,omitempty"`
	Email     string   `json:"email,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

type Client struct {
	credentials persistence.CredentialRepository
	httpClient  *http.Client
	baseURL     string
}

func NewClient(credentials persistence.CredentialRepository) *Client {
	return &Client{
		credentials: credentials,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		baseURL:     gohighlevelBaseURL,
	}
}

func NewClientWithBaseURL(credentials persistence.CredentialRepository, baseURL string) *Client {
	client := NewClient(credentials)
	client.baseURL = baseURL

	return client
}

// Configured reports whether the agency has a usable GoHighLevel API key.
func (c *Client) Configured(ctx context.Context, agencyID string) bool {
	cred, err := c.credentials.Get(ctx, agencyID, models.CredentialGoHighLevelAPIKey)

	return err == nil && cred.Usable()
}

// UpsertContact creates or updates the contact in the agency's CRM location.
// Returns without error when the agency has no CRM configured.
func (c *Client) UpsertContact(ctx context.Context, agencyID string, contact Contact) error {
	apiKey, err := c.credentials.Get(ctx, agencyID, models.CredentialGoHighLevelAPIKey)
	if err != nil {
		if persistence.IsNotFound(err) {
			return nil
		}

		return err
	}

	if !apiKey.Usable() {
		return nil
	}

	payload := map[string]any{
		"firstName": contact.FirstName,
		"lastName":  contact.LastName,
		"phone":     contact.Phone,
		"email":     contact.Email,
		"tags":      contact.Tags,
	}

	location, err := c.credentials.Get(ctx, agencyID, models.CredentialGoHighLevelLocationID)
	if err == nil && location.Usable() {
		payload["locationId"] = location.Value
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding contact: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/contacts/", bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("building gohighlevel request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+apiKey.Value)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling gohighlevel: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

		return fmt.Errorf("gohighlevel returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return nil
}
