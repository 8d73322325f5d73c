// Package tomtom is the upstream traffic-provider client: vector flow
// tiles, point flow-segment queries, the incident feed, and the reverse
// geocoder.
package tomtom

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the production API host.
const DefaultBaseURL = "https://api.tomtom.com"

// ErrMissingAPIKey is returned when no credential is configured for the
// requested role. It is the one configuration failure the pipeline
// surfaces to callers.
var ErrMissingAPIKey = errors.New("tomtom: API key not configured")

// StatusError is a non-2xx upstream response.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tomtom: %s returned status %d", e.URL, e.Status)
}

// Keys holds the role-specific API credentials. Deployments may use one
// key for everything; each accessor falls back accordingly.
type Keys struct {
	Maps    string
	Traffic string
	Search  string
	Stats   string
}

// CleanKey strips surrounding whitespace and quotes that tend to leak in
// from env files.
func CleanKey(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"`)
	s = strings.Trim(s, `'`)
	return s
}

// TrafficKey returns the traffic credential, falling back to the maps key.
func (k Keys) TrafficKey() string {
	if key := CleanKey(k.Traffic); key != "" {
		return key
	}
	return CleanKey(k.Maps)
}

// SearchKey returns the search credential, falling back to the maps key.
func (k Keys) SearchKey() string {
	if key := CleanKey(k.Search); key != "" {
		return key
	}
	return CleanKey(k.Maps)
}

// Client issues authenticated requests against the traffic provider.
type Client struct {
	baseURL    string
	keys       Keys
	httpClient *http.Client
	logger     *slog.Logger
}

// Config configures a Client.
type Config struct {
	BaseURL string
	Keys    Keys
	// Timeout applies per request (default 10s).
	Timeout time.Duration
	Logger  *slog.Logger
}

// New creates a Client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		keys:       cfg.Keys,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     cfg.Logger,
	}
}

// get issues a GET for path with the given query values (the key parameter
// included by the caller) and returns the body bytes.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("tomtom: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tomtom: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: path, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tomtom: read response: %w", err)
	}
	return body, nil
}
