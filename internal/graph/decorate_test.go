package graph

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dm/meshtop-go/internal/client"
)

// httpTraffic builds an http traffic entry with the given window counters.
func httpTraffic(requests, errs string) client.TrafficEntry {
	return client.TrafficEntry{
		Protocol: "http",
		Counters: map[string]string{"requests": requests, "errors": errs},
	}
}

// tcpTraffic builds a tcp traffic entry with the given byte counters.
func tcpTraffic(sent, received string) client.TrafficEntry {
	return client.TrafficEntry{
		Protocol: "tcp",
		Counters: map[string]string{"sent": sent, "received": received},
	}
}

// makeWorkloadNode builds a workload node wrapper with the given wire id.
func makeWorkloadNode(id, namespace, workload string, traffic ...client.TrafficEntry) client.NodeWrapper {
	return client.NodeWrapper{Data: client.NodeData{
		ID:        id,
		NodeType:  client.NodeTypeWorkload,
		Namespace: namespace,
		Workload:  workload,
		App:       workload,
		Traffic:   traffic,
	}}
}

// makeServiceNode builds a service node wrapper with the given wire id.
func makeServiceNode(id, namespace, service string, traffic ...client.TrafficEntry) client.NodeWrapper {
	return client.NodeWrapper{Data: client.NodeData{
		ID:        id,
		NodeType:  client.NodeTypeService,
		Namespace: namespace,
		Service:   service,
		Traffic:   traffic,
	}}
}

// makeEdge builds an edge wrapper between two wire ids.
func makeEdge(source, target string, traffic client.TrafficEntry) client.EdgeWrapper {
	return client.EdgeWrapper{Data: client.EdgeData{
		ID:      source + "-" + target,
		Source:  source,
		Target:  target,
		Traffic: traffic,
	}}
}

// makePayload wraps nodes and edges into a graph response with a 60s window.
func makePayload(nodes []client.NodeWrapper, edges []client.EdgeWrapper) client.GraphElements {
	return client.GraphElements{
		Timestamp: 1700000000,
		Duration:  60,
		GraphType: "versionedApp",
		Elements:  client.Elements{Nodes: nodes, Edges: edges},
	}
}

func TestDecorate_NormalizesRates(t *testing.T) {
	raw := makePayload(
		[]client.NodeWrapper{makeWorkloadNode("n1", "bookinfo", "productpage-v1", httpTraffic("600", "6"))},
		nil,
	)
	data, err := Decorate(raw, 60*time.Second)
	require.NoError(t, err)
	require.Len(t, data.Nodes, 1)

	tr := data.Nodes[0].Traffic
	assert.InDelta(t, 10.0, tr.RequestRate, 1e-9)
	assert.InDelta(t, 10.0, tr.HTTPRate, 1e-9)
	assert.InDelta(t, 0.1, tr.ErrorRate, 1e-9)
}

func TestDecorate_WindowFloor(t *testing.T) {
	raw := makePayload(
		[]client.NodeWrapper{makeWorkloadNode("n1", "ns", "w", httpTraffic("5", "0"))},
		nil,
	)
	data, err := Decorate(raw, 0)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, data.Nodes[0].Traffic.RequestRate, 1e-9)
}

func TestDecorate_TCPBytes(t *testing.T) {
	raw := makePayload(
		[]client.NodeWrapper{makeWorkloadNode("n1", "ns", "w", tcpTraffic("3000", "3000"))},
		nil,
	)
	data, err := Decorate(raw, 60*time.Second)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, data.Nodes[0].Traffic.TCPRate, 1e-9)
	assert.Equal(t, HealthHealthy, data.Nodes[0].Health)
}

func TestDecorate_MissingCountersDefaultZero(t *testing.T) {
	node := client.NodeWrapper{Data: client.NodeData{ID: "n1", NodeType: client.NodeTypeWorkload, Workload: "w"}}
	raw := makePayload([]client.NodeWrapper{node}, nil)

	data, err := Decorate(raw, 60*time.Second)
	require.NoError(t, err)
	assert.Equal(t, Traffic{}, data.Nodes[0].Traffic)
	assert.Equal(t, HealthUnknown, data.Nodes[0].Health)
}

func TestDecorate_UnparseableCountersReadZero(t *testing.T) {
	raw := makePayload(
		[]client.NodeWrapper{makeWorkloadNode("n1", "ns", "w", httpTraffic("garbage", "-3"))},
		nil,
	)
	data, err := Decorate(raw, 60*time.Second)
	require.NoError(t, err)
	assert.Equal(t, Traffic{}, data.Nodes[0].Traffic)
}

func TestDecorate_UnknownProtocolIgnored(t *testing.T) {
	entry := client.TrafficEntry{Protocol: "quic", Counters: map[string]string{"requests": "100"}}
	raw := makePayload([]client.NodeWrapper{makeWorkloadNode("n1", "ns", "w", entry)}, nil)

	data, err := Decorate(raw, 60*time.Second)
	require.NoError(t, err)
	assert.Equal(t, Traffic{}, data.Nodes[0].Traffic)
}

func TestDecorate_MergesDuplicateEdges(t *testing.T) {
	nodes := []client.NodeWrapper{
		makeWorkloadNode("a", "ns", "wa"),
		makeWorkloadNode("b", "ns", "wb"),
	}
	e1 := makeEdge("a", "b", httpTraffic("300", "0"))
	e1.Data.ResponseTime = "10"
	e2 := makeEdge("a", "b", httpTraffic("900", "0"))
	e2.Data.ResponseTime = "30"
	raw := makePayload(nodes, []client.EdgeWrapper{e1, e2})

	data, err := Decorate(raw, 60*time.Second)
	require.NoError(t, err)
	require.Len(t, data.Edges, 1)

	merged := data.Edges[0]
	assert.InDelta(t, 20.0, merged.Traffic.RequestRate, 1e-9)
	// 10ms at 5rps and 30ms at 15rps average to 25ms.
	assert.InDelta(t, 25.0, merged.ResponseTime, 1e-9)
}

func TestDecorate_EdgeWithoutEndpointsFails(t *testing.T) {
	bad := client.EdgeWrapper{Data: client.EdgeData{ID: "broken", Target: "b"}}
	raw := makePayload(nil, []client.EdgeWrapper{bad})

	_, err := Decorate(raw, 60*time.Second)
	require.Error(t, err)

	var decErr *DecorationError
	require.True(t, errors.As(err, &decErr))
	assert.Contains(t, decErr.Error(), "broken")
}

func TestDecorate_ParsesEdgeFields(t *testing.T) {
	e := makeEdge("a", "b", httpTraffic("60", "0"))
	e.Data.ResponseTime = "12.5"
	e.Data.IsMTLS = "100"
	raw := makePayload([]client.NodeWrapper{makeWorkloadNode("a", "ns", "wa"), makeWorkloadNode("b", "ns", "wb")}, []client.EdgeWrapper{e})

	data, err := Decorate(raw, 60*time.Second)
	require.NoError(t, err)
	require.Len(t, data.Edges, 1)
	assert.InDelta(t, 12.5, data.Edges[0].ResponseTime, 1e-9)
	assert.InDelta(t, 100.0, data.Edges[0].MTLSPercent, 1e-9)
}

func TestDecorate_Deterministic(t *testing.T) {
	raw := makePayload(
		[]client.NodeWrapper{
			makeWorkloadNode("a", "ns", "wa", httpTraffic("600", "30")),
			makeServiceNode("s", "ns", "svc", httpTraffic("600", "0")),
		},
		[]client.EdgeWrapper{makeEdge("a", "s", httpTraffic("600", "30"))},
	)
	first, err := Decorate(raw, 60*time.Second)
	require.NoError(t, err)
	second, err := Decorate(raw, 60*time.Second)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("decoration not deterministic (-first +second):\n%s", diff)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name    string
		traffic Traffic
		want    Health
	}{
		{"no signal", Traffic{}, HealthUnknown},
		{"healthy http", Traffic{RequestRate: 10, HTTPRate: 10}, HealthHealthy},
		{"tcp only", Traffic{TCPRate: 100}, HealthHealthy},
		{"at degraded threshold", Traffic{RequestRate: 1000, ErrorRate: 1}, HealthHealthy},
		{"above degraded threshold", Traffic{RequestRate: 100, ErrorRate: 1}, HealthDegraded},
		{"at failure threshold", Traffic{RequestRate: 10, ErrorRate: 2}, HealthFailure},
		{"all errors", Traffic{RequestRate: 5, ErrorRate: 5}, HealthFailure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, classify(tc.traffic))
		})
	}
}

func TestClampRate(t *testing.T) {
	cases := []struct {
		name  string
		input float64
		want  float64
	}{
		{"zero", 0, 0},
		{"normal", 1000, 1000},
		{"negative", -5, 0},
		{"at limit", maxRatePerSec, maxRatePerSec},
		{"above limit", maxRatePerSec + 1, maxRatePerSec},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, clampRate(tc.input))
		})
	}
}

func TestWeightedMean(t *testing.T) {
	cases := []struct {
		name         string
		a, wa, b, wb float64
		want         float64
	}{
		{"equal weights", 10, 1, 30, 1, 20},
		{"dominant side", 10, 3, 30, 1, 15},
		{"zero weights fall back to mean", 10, 0, 30, 0, 20},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, weightedMean(tc.a, tc.wa, tc.b, tc.wb), 1e-9)
		})
	}
}
