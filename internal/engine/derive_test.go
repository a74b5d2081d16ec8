package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dm/meshtop-go/internal/graph"
)

// statsModel builds a workload graph with an injected service hop:
// productpage-v1 -> reviews (service) -> reviews-v2, boxed by
// namespace.
func statsModel() graph.Model {
	return graph.Model{
		Nodes: []graph.Node{
			{
				ID: "box-ns/east/bookinfo", Kind: graph.KindBox, Box: graph.BoxNamespace,
				Cluster: "east", Namespace: "bookinfo",
			},
			{
				ID: "wl/east/bookinfo/productpage-v1", Kind: graph.KindWorkload,
				Cluster: "east", Namespace: "bookinfo", Workload: "productpage-v1",
				Parent: "box-ns/east/bookinfo", Health: graph.HealthDegraded,
				Traffic: graph.Traffic{RequestRate: 10, ErrorRate: 1, HTTPRate: 10},
			},
			{
				ID: "svc/east/bookinfo/reviews", Kind: graph.KindService,
				Cluster: "east", Namespace: "bookinfo", Service: "reviews",
				Parent: "box-ns/east/bookinfo", Health: graph.HealthHealthy,
				Traffic: graph.Traffic{RequestRate: 8, HTTPRate: 8},
			},
			{
				ID: "wl/east/bookinfo/reviews-v2", Kind: graph.KindWorkload,
				Cluster: "east", Namespace: "bookinfo", Workload: "reviews-v2", App: "reviews", Version: "v2",
				Parent: "box-ns/east/bookinfo", Health: graph.HealthHealthy,
				Traffic:           graph.Traffic{RequestRate: 8, HTTPRate: 8},
				OutOfMesh:         false,
				HasVirtualService: true,
			},
		},
		Edges: []graph.Edge{
			{
				Source: "wl/east/bookinfo/productpage-v1", Target: "svc/east/bookinfo/reviews",
				Traffic: graph.Traffic{RequestRate: 8, ErrorRate: 0.4, HTTPRate: 8},
				Health:  graph.HealthDegraded, ResponseTime: 25, MTLSPercent: 100,
			},
			{
				Source: "svc/east/bookinfo/reviews", Target: "wl/east/bookinfo/reviews-v2",
				Traffic: graph.Traffic{RequestRate: 8, HTTPRate: 8},
				Health:  graph.HealthHealthy, ResponseTime: 30, MTLSPercent: 100,
			},
		},
		Config: graph.Config{GraphType: graph.GraphTypeWorkload},
	}
}

func TestBuildNodeRows(t *testing.T) {
	rows := BuildNodeRows(statsModel())
	require.Len(t, rows, 3) // the box is not a participant

	assert.Equal(t, "productpage-v1", rows[0].Name)
	assert.Equal(t, "workload", rows[0].Kind)
	assert.Equal(t, "bookinfo", rows[0].Namespace)
	assert.Equal(t, "east", rows[0].Cluster)
	assert.Equal(t, graph.HealthDegraded, rows[0].Health)
	assert.InDelta(t, 10.0, rows[0].RequestRate, 1e-9)
	assert.InDelta(t, 10.0, rows[0].ErrorPct, 1e-9)

	assert.Equal(t, "reviews", rows[1].Name)
	assert.Equal(t, "service", rows[1].Kind)

	assert.Equal(t, "reviews-v2", rows[2].Name)
	assert.True(t, rows[2].HasVS)
}

func TestBuildEdgeRows(t *testing.T) {
	rows := BuildEdgeRows(statsModel())
	require.Len(t, rows, 2)

	assert.Equal(t, "bookinfo/productpage-v1", rows[0].Source)
	assert.Equal(t, "bookinfo/reviews", rows[0].Target)
	assert.Equal(t, graph.HealthDegraded, rows[0].Health)
	assert.InDelta(t, 8.0, rows[0].RequestRate, 1e-9)
	assert.InDelta(t, 5.0, rows[0].ErrorPct, 1e-9)
	assert.InDelta(t, 25.0, rows[0].ResponseTime, 1e-9)
	assert.InDelta(t, 100.0, rows[0].MTLSPercent, 1e-9)

	assert.Equal(t, "bookinfo/reviews", rows[1].Source)
	assert.Equal(t, "bookinfo/reviews-v2", rows[1].Target)
}

func TestBuildStats(t *testing.T) {
	stats := BuildStats(statsModel())

	assert.Equal(t, 1, stats.Namespaces)
	assert.Equal(t, 2, stats.Workloads)
	assert.Equal(t, 1, stats.Services)
	assert.Equal(t, 0, stats.Apps)
	assert.Equal(t, 2, stats.Edges)
	assert.Equal(t, 1, stats.Degraded)
	assert.Equal(t, 0, stats.Failing)

	// The service-sourced hop is the same traffic seen twice; only the
	// workload-sourced edge counts toward the totals.
	assert.InDelta(t, 8.0, stats.RequestRate, 1e-9)
	assert.InDelta(t, 0.4, stats.ErrorRate, 1e-9)
	assert.InDelta(t, 5.0, stats.ErrorPercent, 1e-9)
	assert.InDelta(t, 25.0, stats.ResponseTime, 1e-9)
	assert.InDelta(t, 100.0, stats.MTLSPercent, 1e-9)
}

func TestBuildStats_ServiceGraphCountsAllEdges(t *testing.T) {
	m := statsModel()
	m.Config.GraphType = graph.GraphTypeService

	stats := BuildStats(m)
	assert.InDelta(t, 16.0, stats.RequestRate, 1e-9)
}

func TestBuildStats_EmptyModel(t *testing.T) {
	stats := BuildStats(graph.EmptyModel())
	assert.Zero(t, stats.Namespaces)
	assert.Zero(t, stats.Edges)
	assert.Zero(t, stats.RequestRate)
	assert.Zero(t, stats.ErrorPercent)
}
