package client

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// MeshClient defines the interface for talking to a mesh console API.
type MeshClient interface {
	GetStatus(ctx context.Context) (*StatusInfo, error)
	GetNamespaces(ctx context.Context) ([]NamespaceInfo, error)
	GetGraph(ctx context.Context, query GraphQuery) (*GraphElements, error)
	GetMeshTLS(ctx context.Context) (*MeshTLSStatus, error)
	Ping(ctx context.Context) error
	BaseURL() string
}

// ClientConfig holds configuration for DefaultClient.
type ClientConfig struct {
	BaseURL            string
	Token              string
	InsecureSkipVerify bool
	RequestTimeout     time.Duration
}

// DefaultClient implements MeshClient using the standard net/http package.
type DefaultClient struct {
	http   *http.Client
	base   string // BaseURL without a trailing slash, ready for path joins
	config ClientConfig
}

// NewDefaultClient constructs a DefaultClient from the given config.
// Returns an error if BaseURL is empty; the request timeout defaults
// to 15s when unset.
func NewDefaultClient(cfg ClientConfig) (*DefaultClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("BaseURL is required")
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
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
		base:   strings.TrimRight(cfg.BaseURL, "/"),
		config: cfg,
	}, nil
}

// BaseURL returns the configured base URL of the mesh console.
func (c *DefaultClient) BaseURL() string {
	return c.config.BaseURL
}

// maxResponseBytes caps how much of a response body is read. Graph
// payloads for large meshes run a few MB; anything near this limit is
// not a payload we can render anyway.
const maxResponseBytes = 32 * 1024 * 1024

// doGet issues a GET for path relative to the base URL and returns the
// body. The console authenticates with a bearer token when one is
// configured. Non-2xx responses become errors carrying the status code
// and a body excerpt.
func (c *DefaultClient) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, excerpt(body, 200))
	}
	return body, nil
}

// Ping checks connectivity with a short-deadline status call.
func (c *DefaultClient) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	_, err := c.doGet(pingCtx, endpointStatus)
	return err
}

// excerpt renders up to n bytes of a response body for error messages.
func excerpt(b []byte, n int) string {
	s := string(b)
	if len(s) > n {
		s = s[:n] + "..."
	}
	return s
}
