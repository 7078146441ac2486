package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const sendgridBaseURL = "https://api.sendgrid.com"

// SendGridClient sends email through the SendGrid v3 mail send endpoint.
type SendGridClient struct {
	httpClient *http.Client
	baseURL    string
}

func NewSendGridClient() *SendGridClient {
	return &SendGridClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    sendgridBaseURL,
	}
}

// NewSendGridClientWithBaseURL points the client at a test server.
func NewSendGridClientWithBaseURL(baseURL string) *SendGridClient {
	client := NewSendGridClient()
	client.baseURL = baseURL

	return client
}

// SendEmail posts one message and returns the provider message id from the
// X-Message-Id response header when present.
func (c *SendGridClient) SendEmail(ctx context.Context, capability EmailCapability, fromName, to, subject, htmlBody string) (string, error) {
	payload := map[string]any{
		"personalizations": []map[string]any{
			{"to": []map[string]string{{"email": to}}},
		},
		"from": map[string]string{
			"email": capability.FromAddress,
			"name":  fromName,
		},
		"subject": subject,
		"content": []map[string]string{
			{"type": "text/html", "value": htmlBody},
		},
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding sendgrid payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v3/mail/send", bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("building sendgrid request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+capability.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling sendgrid: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

		return "", fmt.Errorf("sendgrid returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return resp.Header.Get("X-Message-Id"), nil
}
