package engine

import (
	"context"
	"errors"

	"github.com/dm/meshtop-go/internal/client"
)

// MockMeshClient implements client.MeshClient for testing.
type MockMeshClient struct {
	StatusFn     func(ctx context.Context) (*client.StatusInfo, error)
	NamespacesFn func(ctx context.Context) ([]client.NamespaceInfo, error)
	GraphFn      func(ctx context.Context, query client.GraphQuery) (*client.GraphElements, error)
	MeshTLSFn    func(ctx context.Context) (*client.MeshTLSStatus, error)
}

func (m *MockMeshClient) GetStatus(ctx context.Context) (*client.StatusInfo, error) {
	if m.StatusFn != nil {
		return m.StatusFn(ctx)
	}
	return &client.StatusInfo{Status: map[string]string{"Mesh console version": "test"}}, nil
}

func (m *MockMeshClient) GetNamespaces(ctx context.Context) ([]client.NamespaceInfo, error) {
	if m.NamespacesFn != nil {
		return m.NamespacesFn(ctx)
	}
	return []client.NamespaceInfo{{Name: "bookinfo", Cluster: "east"}}, nil
}

func (m *MockMeshClient) GetGraph(ctx context.Context, query client.GraphQuery) (*client.GraphElements, error) {
	if m.GraphFn != nil {
		return m.GraphFn(ctx, query)
	}
	return &client.GraphElements{Duration: 60, GraphType: "versionedApp"}, nil
}

func (m *MockMeshClient) GetMeshTLS(ctx context.Context) (*client.MeshTLSStatus, error) {
	if m.MeshTLSFn != nil {
		return m.MeshTLSFn(ctx)
	}
	return &client.MeshTLSStatus{Status: client.MTLSEnabled, AutoMTLSEnabled: true}, nil
}

func (m *MockMeshClient) Ping(ctx context.Context) error {
	return nil
}

func (m *MockMeshClient) BaseURL() string {
	return "http://mock:20001"
}

var errMockFailure = errors.New("mock failure")
