/**
 * @description
 * Client for the outbound SMS provider (Twilio-compatible messaging API).
 * SMS failures are non-fatal to an escalation: Send returns a Result with a
 * success flag instead of an error for provider-side rejections, so callers
 * can log and move on without retrying within the cycle.
 */

package smsclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a client for the SMS provider.
type Client struct {
	baseURL    string
	accountSID string
	authToken  string
	fromNumber string
	httpClient *http.Client
}

// SendRequest is the payload for one reminder SMS.
type SendRequest struct {
	RecipientPhone   string
	InvoiceReference string
	Body             string
}

// Result reports the outcome of an SMS send. Success false with a non-empty
// ErrorMessage means the provider rejected the message.
type Result struct {
	Success    bool   `json:"success"`
	MessageSID string `json:"message_sid,omitempty"`
	ErrorCode  string `json:"error_code,omitempty"`
	ErrorMsg   string `json:"error_message,omitempty"`
}

type providerResponse struct {
	SID          string `json:"sid"`
	Status       string `json:"status"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// NewClient creates a new SMS provider client.
func NewClient(baseURL, accountSID, authToken, fromNumber string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		accountSID: accountSID,
		authToken:  authToken,
		fromNumber: fromNumber,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Send delivers one SMS. A transport-level failure (network, marshalling)
// returns an error; a provider-side rejection returns Result{Success: false}.
func (c *Client) Send(ctx context.Context, req SendRequest) (Result, error) {
	if c.baseURL == "" {
		return Result{}, fmt.Errorf("SMS provider base URL is not configured")
	}

	form := url.Values{}
	form.Set("To", req.RecipientPhone)
	form.Set("From", c.fromNumber)
	form.Set("Body", req.Body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, c.accountSID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("failed to execute request to SMS provider: %w", err)
	}
	defer resp.Body.Close()

	var parsed providerResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Result{}, fmt.Errorf("failed to decode SMS provider response: %w", err)
	}

	if resp.StatusCode >= 400 || parsed.Status == "failed" || parsed.Status == "undelivered" {
		return Result{
			Success:   false,
			ErrorCode: parsed.ErrorCode,
			ErrorMsg:  nonEmpty(parsed.ErrorMessage, fmt.Sprintf("SMS provider returned status %d", resp.StatusCode)),
		}, nil
	}

	return Result{Success: true, MessageSID: parsed.SID}, nil
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
