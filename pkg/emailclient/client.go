/**
 * @description
 * Client for the outbound email provider. The provider exposes a simple JSON
 * API: POST /v1/send with the rendered message, returning a message id that
 * we record on the invoice timeline for audit.
 */

package emailclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client is a client for the email provider.
type Client struct {
	baseURL    string
	apiKey     string
	fromEmail  string
	httpClient *http.Client
}

// SendRequest is the payload for one reminder email.
type SendRequest struct {
	To       string `json:"to"`
	From     string `json:"from"`
	Subject  string `json:"subject"`
	TextBody string `json:"text_body"`
	// Tag lets the provider group sends for delivery analytics.
	Tag string `json:"tag,omitempty"`
}

type sendResponse struct {
	MessageID string `json:"message_id"`
}

// NewClient creates a new email provider client.
func NewClient(baseURL, apiKey, fromEmail string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		fromEmail:  fromEmail,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Send delivers one email and returns the provider's message id.
func (c *Client) Send(ctx context.Context, req SendRequest) (string, error) {
	if c.baseURL == "" {
		return "", fmt.Errorf("email provider base URL is not configured")
	}
	if req.From == "" {
		req.From = c.fromEmail
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal email payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/send", bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to execute request to email provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("email provider returned error status %d", resp.StatusCode)
	}

	var parsed sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode email provider response: %w", err)
	}
	if parsed.MessageID == "" {
		return "", fmt.Errorf("email provider returned no message id")
	}

	return parsed.MessageID, nil
}
