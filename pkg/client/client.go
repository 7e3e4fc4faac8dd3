package client

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client talks to a running supervisor's admin surface.
type Client struct {
	baseURL string
	client  *http.Client
}

// Config holds client configuration.
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	Insecure bool // skip TLS verification (self-signed admin certs)
}

// DefaultConfig returns the default client configuration matching the
// supervisor's default admin listen address.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:9180/admin",
		Timeout: 10 * time.Second,
	}
}

// New creates an admin API client.
func New(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultConfig().BaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	transport := http.DefaultTransport
	if config.Insecure {
		transport = &http.Transport{
			// #nosec G402 -- explicit operator opt-in for self-signed admin certs
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return &Client{
		baseURL: config.BaseURL,
		client:  &http.Client{Timeout: config.Timeout, Transport: transport},
	}
}

// Health fetches the supervisor's own health summary.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	err := c.getJSON(ctx, "/health", &h)
	return h, err
}

// Status fetches the full supervision state.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var s Status
	err := c.getJSON(ctx, "/status", &s)
	return s, err
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	// The admin health endpoint intentionally answers 503 once terminal; the
	// body is still the expected JSON document.
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusServiceUnavailable {
		var er ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&er) == nil && er.Error != "" {
			return fmt.Errorf("admin API %s: %s", path, er.Error)
		}
		return fmt.Errorf("admin API %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
