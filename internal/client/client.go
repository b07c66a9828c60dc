package client

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SplunkClient defines the interface for talking to a splunkd management port.
type SplunkClient interface {
	// Get fetches a JSON feed (output_mode=json, count=-1) from path.
	Get(ctx context.Context, path string) (*Feed, error)
	// GetRaw fetches path without output_mode and returns the trimmed body.
	GetRaw(ctx context.Context, path string) (string, error)
	// Post submits form to path and decodes the JSON feed response.
	Post(ctx context.Context, path string, form url.Values) (*Feed, error)
	BaseURL() string
}

// ClientConfig holds configuration for DefaultClient. Token takes precedence
// over Username/Password.
type ClientConfig struct {
	BaseURL            string
	Username           string
	Password           string
	Token              string
	InsecureSkipVerify bool
	RequestTimeout     time.Duration
}

// DefaultClient implements SplunkClient using the standard net/http package.
type DefaultClient struct {
	http   *http.Client
	config ClientConfig
}

// NewDefaultClient constructs a DefaultClient from the given config.
// It configures TLS skip-verify and request timeout from the config.
// Returns an error if BaseURL is empty.
func NewDefaultClient(cfg ClientConfig) (*DefaultClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("BaseURL is required")
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec
	}

	return &DefaultClient{
		http: &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: transport,
		},
		config: cfg,
	}, nil
}

// BaseURL returns the configured management URL, e.g. https://splunk1:8089.
func (c *DefaultClient) BaseURL() string {
	return c.config.BaseURL
}

// do performs one request against path (relative to BaseURL). A non-nil form
// is sent url-encoded in the body. Transport failures come back as
// *ConnectionError, 401 as *AuthenticationError and any other non-2xx status
// as *StatusError.
func (c *DefaultClient) do(ctx context.Context, method, path string, query, form url.Values) ([]byte, error) {
	u := strings.TrimRight(c.config.BaseURL, "/") + path
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		u += sep + query.Encode()
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	switch {
	case c.config.Token != "":
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	case c.config.Username != "" || c.config.Password != "":
		req.SetBasicAuth(c.config.Username, c.config.Password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ConnectionError{URL: c.config.BaseURL, Err: err}
	}
	defer resp.Body.Close()

	const maxResponseBytes = 32 * 1024 * 1024
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, &ConnectionError{URL: c.config.BaseURL, Err: fmt.Errorf("read body: %w", err)}
	}
	if len(data) > maxResponseBytes {
		return nil, fmt.Errorf("response body exceeds %d MB limit", maxResponseBytes/(1024*1024))
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, &AuthenticationError{URL: c.config.BaseURL, Status: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Status: resp.StatusCode, Body: truncate(data, 200)}
	}

	return data, nil
}

// Ping checks connectivity and credentials by fetching server info with a 2s timeout.
func (c *DefaultClient) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	_, err := c.Get(pingCtx, EndpointServerInfo)
	return err
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
