package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const twilioBaseURL = "https://api.twilio.com"

// TwilioClient sends SMS through the Twilio Messages REST resource. Credentials
// are passed per call because every agency carries its own.
type TwilioClient struct {
	httpClient *http.Client
	baseURL    string
}

func NewTwilioClient() *TwilioClient {
	return &TwilioClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    twilioBaseURL,
	}
}

// NewTwilioClientWithBaseURL points the client at a test server.
func NewTwilioClientWithBaseURL(baseURL string) *TwilioClient {
	client := NewTwilioClient()
	client.baseURL = baseURL

	return client
}

// SendSMS posts one message and returns the provider message SID.
func (c *TwilioClient) SendSMS(ctx context.Context, capability SMSCapability, to, body string) (string, error) {
	form := url.Values{}
	form.Set("From", capability.FromNumber)
	form.Set("To", to)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, capability.AccountSID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("building twilio request: %w", err)
	}

	req.SetBasicAuth(capability.AccountSID, capability.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling twilio: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return "", fmt.Errorf("reading twilio response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("twilio returned %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var result struct {
		SID string `json:"sid"`
	}

	if err := json.Unmarshal(payload, &result); err != nil {
		return "", fmt.Errorf("decoding twilio response: %w", err)
	}

	return result.SID, nil
}
