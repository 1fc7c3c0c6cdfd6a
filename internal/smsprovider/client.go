// Package smsprovider implements the REST client of the external SMS
// delivery provider used for phone verification codes.
package smsprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the provider's messages endpoint with basic auth.
type Client struct {
	accountSID string
	authToken  string
	fromNumber string
	apiURL     string
	httpClient *http.Client
}

// NewClient builds a client for the given provider account.
func NewClient(accountSID, authToken, fromNumber string) *Client {
	return &Client{
		accountSID: accountSID,
		authToken:  authToken,
		fromNumber: fromNumber,
		apiURL:     "https://api.twilio.com/2010-04-01",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// SendSMS delivers body to the E.164-formatted number to.
func (c *Client) SendSMS(ctx context.Context, to, body string) error {
	const op = "smsprovider.SendSMS"

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.fromNumber)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.apiURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var apiErr MessageError
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Message != "" {
			return fmt.Errorf("%s: %s (status %s)", op, apiErr.Message, resp.Status)
		}
		return fmt.Errorf("%s: unexpected status: %s", op, resp.Status)
	}
	return nil
}
