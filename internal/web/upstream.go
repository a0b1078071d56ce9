package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Per-call budgets. Search and geocoding are interactive; validation runs the
// slow upstream verification pipeline and gets a much longer leash. Expiry is
// mapped to 408 by the proxy handlers, not surfaced as a transport failure.
const (
	upstreamTimeout = 30 * time.Second
	validateTimeout = 120 * time.Second
)

// UpstreamResponse is a raw upstream reply: status plus undecoded body. The
// proxy passes bodies through untouched so the client sees exactly what the
// address API returned.
type UpstreamResponse struct {
	Status int
	Body   []byte
}

// UpstreamClient calls the external address API with the service API key.
type UpstreamClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewUpstreamClient creates a client for the address API at baseURL. The API
// key is attached to every request as X-API-Key.
func NewUpstreamClient(baseURL, apiKey string) *UpstreamClient {
	return &UpstreamClient{
		// Timeouts are per call via context, not a blanket client setting,
		// because validation needs a longer budget than the other endpoints.
		httpClient: &http.Client{},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// HasKey reports whether an API key is configured.
func (c *UpstreamClient) HasKey() bool {
	return c != nil && c.apiKey != ""
}

// PropertySearch queries the property-search endpoint.
func (c *UpstreamClient) PropertySearch(ctx context.Context, query url.Values) (*UpstreamResponse, error) {
	return c.do(ctx, http.MethodGet, "/api/v1/property/search?"+query.Encode(), nil, upstreamTimeout)
}

// Geocode forwards a geocoding request body as-is.
func (c *UpstreamClient) Geocode(ctx context.Context, body io.Reader) (*UpstreamResponse, error) {
	return c.do(ctx, http.MethodPost, "/api/v1/geocode", body, upstreamTimeout)
}

// ValidateAddress submits one address for validation.
func (c *UpstreamClient) ValidateAddress(ctx context.Context, address string) (*UpstreamResponse, error) {
	payload, err := json.Marshal(map[string]string{"address": address})
	if err != nil {
		return nil, fmt.Errorf("encode validation request: %w", err)
	}
	return c.do(ctx, http.MethodPost, "/api/v1/validate-address", bytes.NewReader(payload), validateTimeout)
}

func (c *UpstreamClient) do(ctx context.Context, method, path string, body io.Reader, timeout time.Duration) (*UpstreamResponse, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("upstream not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create upstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upstream response: %w", err)
	}

	return &UpstreamResponse{Status: resp.StatusCode, Body: data}, nil
}
