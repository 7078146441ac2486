// Package screening kicks off automated phone screens through Bland AI.
package screening

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/carelane/carelane/pkg/models"
	"github.com/carelane/carelane/pkg/persistence"
)

const blandBaseURL = "https://api.bland.ai"

// ErrNotConfigured means the agency has no usable Bland AI key.
var ErrNotConfigured = errors.New("phone screening is not configured for this agency")

type Client struct {
	credentials persistence.CredentialRepository
	httpClient  *http.Client
	baseURL     string
}

func NewClient(credentials persistence.CredentialRepository) *Client {
	return &Client{
		credentials: credentials,
		httpClient:  &http.Client{Timeout: 20 * time.Second},
		baseURL:     blandBaseURL,
	}
}

func NewClientWithBaseURL(credentials persistence.CredentialRepository, baseURL string) *Client {
	client := NewClient(credentials)
	client.baseURL = baseURL

	return client
}

// StartCall places an outbound screening call and returns the provider call id.
func (c *Client) StartCall(ctx context.Context, agencyID, phone, task string) (string, error) {
	apiKey, err := c.credentials.Get(ctx, agencyID, models.CredentialBlandAPIKey)
	if err != nil {
		if persistence.IsNotFound(err) {
			return "", ErrNotConfigured
		}

		return "", err
	}

	if !apiKey.Usable() {
		return "", ErrNotConfigured
	}

	payload := map[string]any{
		"phone_number": phone,
		"task":         task,
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding call request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/calls", bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("building bland request: %w", err)
	}

	req.Header.Set("Authorization", apiKey.Value)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling bland: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return "", fmt.Errorf("reading bland response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("bland returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result struct {
		CallID string `json:"call_id"`
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("decoding bland response: %w", err)
	}

	return result.CallID, nil
}
