package graph

import (
	"sort"
	"strings"
	"time"
)

// GraphType selects the aggregation granularity the telemetry source
// applies before returning elements. Aggregation happens server-side;
// the generator never re-aggregates.
type GraphType string

const (
	GraphTypeWorkload     GraphType = "workload"
	GraphTypeApp          GraphType = "app"
	GraphTypeVersionedApp GraphType = "versionedApp"
	GraphTypeService      GraphType = "service"
)

// EdgeLabelMode is a requested category of value to display on an edge.
type EdgeLabelMode string

const (
	EdgeLabelTrafficRate  EdgeLabelMode = "trafficRate"
	EdgeLabelResponseTime EdgeLabelMode = "responseTime"
	EdgeLabelSecurity     EdgeLabelMode = "security"
)

// TrafficRateKind selects a protocol rate to include in composite
// edge-label values.
type TrafficRateKind string

const (
	RateHTTP TrafficRateKind = "http"
	RateGRPC TrafficRateKind = "grpc"
	RateTCP  TrafficRateKind = "tcp"
)

// DefaultDuration is the reporting window requested when none is set.
const DefaultDuration = 60 * time.Second

// QueryParams holds the view parameters one graph fetch and generation
// pass runs under. A value is built fresh per fetch and never mutated;
// Namespaces is kept sorted and deduplicated so equal sets compare and
// encode identically.
type QueryParams struct {
	Namespaces []string
	GraphType  GraphType
	Duration   time.Duration

	InjectServiceNodes  bool
	BoxByNamespace      bool
	BoxByCluster        bool
	ShowOutOfMesh       bool
	ShowSecurity        bool
	ShowVirtualServices bool

	EdgeLabels   []EdgeLabelMode
	TrafficRates []TrafficRateKind
}

// NewQueryParams builds params with normalized namespaces and defaults
// for unset fields: versionedApp graph type, 60s window, traffic-rate
// edge labels over all three protocols.
func NewQueryParams(namespaces []string, graphType GraphType, duration time.Duration) QueryParams {
	if graphType == "" {
		graphType = GraphTypeVersionedApp
	}
	if duration <= 0 {
		duration = DefaultDuration
	}
	return QueryParams{
		Namespaces:   NormalizeNamespaces(namespaces),
		GraphType:    graphType,
		Duration:     duration,
		EdgeLabels:   []EdgeLabelMode{EdgeLabelTrafficRate},
		TrafficRates: []TrafficRateKind{RateHTTP, RateGRPC, RateTCP},
	}
}

// NormalizeNamespaces returns a sorted, deduplicated copy of namespaces
// with empty entries removed. The input slice is not modified.
func NormalizeNamespaces(namespaces []string) []string {
	out := make([]string, 0, len(namespaces))
	seen := make(map[string]bool, len(namespaces))
	for _, ns := range namespaces {
		ns = strings.TrimSpace(ns)
		if ns == "" || seen[ns] {
			continue
		}
		seen[ns] = true
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// NamespaceSetKey returns a canonical representation of an unordered
// namespace set. Slices with equal membership yield equal keys
// regardless of element order or duplicates.
func NamespaceSetKey(namespaces []string) string {
	return strings.Join(NormalizeNamespaces(namespaces), ",")
}
