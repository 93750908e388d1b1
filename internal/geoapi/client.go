package geoapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrNetwork wraps transport-level failures (DNS, refused connection, reset)
var ErrNetwork = errors.New("network error")

// maxBodyBytes caps how much of an upstream response we read
const maxBodyBytes = 1 << 20

// Response is the raw upstream answer; interpretation is left to the caller
type Response struct {
	StatusCode int
	Body       []byte
}

// Fetcher performs one lookup request against the geolocation API
type Fetcher interface {
	Fetch(ctx context.Context, query string) (*Response, error)
}

// Config holds the upstream endpoint settings
type Config struct {
	Endpoint   string        // Fixed API URL, e.g. https://geo.ipify.org/api/v2/country,city
	APIKey     string        // Sent as apiKey when set
	QueryParam string        // Parameter carrying the query (default "ip")
	Timeout    time.Duration // 0 means no client-side timeout
	HTTPClient *http.Client  // Optional, overrides Timeout
}

// Client talks to the geolocation API over HTTP
type Client struct {
	endpoint   *url.URL
	apiKey     string
	queryParam string
	http       *http.Client
}

// NewClient validates the endpoint and builds a client
func NewClient(cfg Config) (*Client, error) {
	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid geolocation endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid geolocation endpoint: unsupported scheme %q", u.Scheme)
	}

	param := cfg.QueryParam
	if param == "" {
		param = "ip"
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		endpoint:   u,
		apiKey:     cfg.APIKey,
		queryParam: param,
		http:       httpClient,
	}, nil
}

// URL builds the request URL for query
// The empty query asks the API about the caller's own address.
// IPv4 literals and domains go through the same parameter.
func (c *Client) URL(query string) string {
	u := *c.endpoint
	values := u.Query()
	if c.apiKey != "" {
		values.Set("apiKey", c.apiKey)
	}
	if query != "" {
		values.Set(c.queryParam, query)
	}
	u.RawQuery = values.Encode()
	return u.String()
}

// Fetch implements Fetcher
func (c *Client) Fetch(ctx context.Context, query string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(query), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ErrNetwork, err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}
