package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	endpointStatus     = "/api/status"
	endpointNamespaces = "/api/namespaces"
	endpointGraph      = "/api/namespaces/graph"
	endpointMeshTLS    = "/api/mesh/tls"
)

// GraphQuery holds the request parameters for the graph endpoint.
// Namespaces are joined in the given order; callers pass them already
// normalized so equal sets produce equal URLs.
type GraphQuery struct {
	Namespaces []string
	Duration   time.Duration
	GraphType  string
}

// encode renders the query string for the graph endpoint.
func (q GraphQuery) encode() string {
	v := url.Values{}
	v.Set("namespaces", strings.Join(q.Namespaces, ","))
	if q.Duration > 0 {
		v.Set("duration", fmt.Sprintf("%ds", int64(q.Duration.Seconds())))
	}
	if q.GraphType != "" {
		v.Set("graphType", q.GraphType)
	}
	return v.Encode()
}

// GetStatus fetches console status from /api/status.
func (c *DefaultClient) GetStatus(ctx context.Context) (*StatusInfo, error) {
	body, err := c.doGet(ctx, endpointStatus)
	if err != nil {
		return nil, fmt.Errorf("GetStatus: %w", err)
	}

	var result StatusInfo
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("GetStatus decode: %w", err)
	}
	return &result, nil
}

// GetNamespaces fetches the accessible namespaces from /api/namespaces.
func (c *DefaultClient) GetNamespaces(ctx context.Context) ([]NamespaceInfo, error) {
	body, err := c.doGet(ctx, endpointNamespaces)
	if err != nil {
		return nil, fmt.Errorf("GetNamespaces: %w", err)
	}

	var result []NamespaceInfo
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("GetNamespaces decode: %w", err)
	}
	return result, nil
}

// GetGraph fetches raw graph elements for the queried namespaces and
// window from /api/namespaces/graph.
func (c *DefaultClient) GetGraph(ctx context.Context, query GraphQuery) (*GraphElements, error) {
	body, err := c.doGet(ctx, endpointGraph+"?"+query.encode())
	if err != nil {
		return nil, fmt.Errorf("GetGraph: %w", err)
	}

	var result GraphElements
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("GetGraph decode: %w", err)
	}
	return &result, nil
}

// GetMeshTLS fetches the mesh-wide TLS status from /api/mesh/tls.
func (c *DefaultClient) GetMeshTLS(ctx context.Context) (*MeshTLSStatus, error) {
	body, err := c.doGet(ctx, endpointMeshTLS)
	if err != nil {
		return nil, fmt.Errorf("GetMeshTLS: %w", err)
	}

	var result MeshTLSStatus
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("GetMeshTLS decode: %w", err)
	}
	return &result, nil
}
