package geoapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

// TestNewClient_InvalidEndpoint tests endpoint validation
func TestNewClient_InvalidEndpoint(t *testing.T) {
	tests := []string{"", "ftp://example.com", "://broken", "geo.ipify.org"}

	for _, endpoint := range tests {
		t.Run(endpoint, func(t *testing.T) {
			if _, err := NewClient(Config{Endpoint: endpoint}); err == nil {
				t.Errorf("expected error for endpoint %q", endpoint)
			}
		})
	}
}

// TestClient_URL tests request construction
func TestClient_URL(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		query  string
		params map[string]string
		absent []string
	}{
		{
			name:   "empty query asks for own IP",
			cfg:    Config{Endpoint: "https://geo.example.com/api"},
			query:  "",
			absent: []string{"ip"},
		},
		{
			name:   "IPv4 literal",
			cfg:    Config{Endpoint: "https://geo.example.com/api"},
			query:  "8.8.8.8",
			params: map[string]string{"ip": "8.8.8.8"},
		},
		{
			name:   "domain uses the same parameter",
			cfg:    Config{Endpoint: "https://geo.example.com/api"},
			query:  "example.com",
			params: map[string]string{"ip": "example.com"},
		},
		{
			name:   "api key and custom parameter",
			cfg:    Config{Endpoint: "https://geo.example.com/api?format=json", APIKey: "k3y", QueryParam: "domain"},
			query:  "a b&c",
			params: map[string]string{"apiKey": "k3y", "domain": "a b&c", "format": "json"},
			absent: []string{"ip"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.cfg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			u, err := url.Parse(c.URL(tt.query))
			if err != nil {
				t.Fatalf("built an unparsable URL: %v", err)
			}
			q := u.Query()
			for k, v := range tt.params {
				if q.Get(k) != v {
					t.Errorf("expected %s=%q, got %q", k, v, q.Get(k))
				}
			}
			for _, k := range tt.absent {
				if q.Has(k) {
					t.Errorf("expected no %s parameter", k)
				}
			}
		})
	}
}

// TestClient_Fetch_Success tests a normal round trip
func TestClient_Fetch_Success(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("ip")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ip":"8.8.8.8"}`))
	}))
	defer server.Close()

	c, _ := NewClient(Config{Endpoint: server.URL})
	resp, err := c.Fetch(context.Background(), "8.8.8.8")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
	if string(resp.Body) != `{"ip":"8.8.8.8"}` {
		t.Errorf("unexpected body %s", resp.Body)
	}
	if gotQuery != "8.8.8.8" {
		t.Errorf("expected upstream to receive ip=8.8.8.8, got %q", gotQuery)
	}
}

// TestClient_Fetch_HTTPErrorIsNotAnError tests that status codes are passed through
func TestClient_Fetch_HTTPErrorIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c, _ := NewClient(Config{Endpoint: server.URL})
	resp, err := c.Fetch(context.Background(), "x")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", resp.StatusCode)
	}
}

// TestClient_Fetch_NetworkError tests transport failures
func TestClient_Fetch_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := server.URL
	server.Close() // nothing listens any more

	c, _ := NewClient(Config{Endpoint: endpoint})
	_, err := c.Fetch(context.Background(), "8.8.8.8")

	if !errors.Is(err, ErrNetwork) {
		t.Errorf("expected ErrNetwork, got %v", err)
	}
}

// TestClient_Fetch_Timeout tests the optional client timeout
func TestClient_Fetch_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	c, _ := NewClient(Config{Endpoint: server.URL, Timeout: 50 * time.Millisecond})
	_, err := c.Fetch(context.Background(), "8.8.8.8")

	if !errors.Is(err, ErrNetwork) {
		t.Errorf("expected ErrNetwork on timeout, got %v", err)
	}
}

// TestClient_Fetch_ContextCanceled tests caller cancellation
func TestClient_Fetch_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c, _ := NewClient(Config{Endpoint: server.URL})
	_, err := c.Fetch(ctx, "8.8.8.8")

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
}

// TestFetcherInterface tests that both implementations satisfy Fetcher
func TestFetcherInterface(t *testing.T) {
	var _ Fetcher = (*Client)(nil)
	var _ Fetcher = (*MockFetcher)(nil)
}
