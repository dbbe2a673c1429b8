// Package mailer delivers backup archives through the SendGrid v3 mail API.
package mailer

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
)

const DefaultEndpoint = "https://api.sendgrid.com/v3/mail/send"

// Config captures the SendGrid settings the client needs.
type Config struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
	Client   *http.Client
}

// Client posts mail/send requests.
type Client struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// Response is the raw provider answer.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// NewClient builds a SendGrid client.
func NewClient(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("sendgrid api key is required")
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   hc,
	}, nil
}

// Send posts msg and returns the provider's status and body. A non-2xx
// status is not an error here; callers inspect Response.OK after persisting
// the body.
func (c *Client) Send(ctx context.Context, msg Message) (*Response, error) {
	body, err := json.Marshal(NewPayload(msg))
	if err != nil {
		return nil, fmt.Errorf("encode sendgrid payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create sendgrid request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sendgrid request failed: %w", err)
	}

	respBody, readErr := io.ReadAll(resp.Body)
	closeErr := resp.Body.Close()
	if readErr != nil {
		return nil, errors.Join(
			fmt.Errorf("read sendgrid response: %w", readErr),
			closeErr,
		)
	}

	return &Response{StatusCode: resp.StatusCode, Body: respBody}, nil
}
