package engine

import (
	"github.com/dm/meshtop-go/internal/graph"
	"github.com/dm/meshtop-go/internal/model"
)

// safeDivide returns a/b, or 0 when b is zero.
func safeDivide(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// BuildNodeRows flattens a Model into display-ready node rows. Box
// nodes are grouping artifacts, not participants, and are skipped.
// Row order follows the Model's deterministic node order.
func BuildNodeRows(m graph.Model) []model.NodeRow {
	rows := make([]model.NodeRow, 0, len(m.Nodes))
	for _, n := range m.Nodes {
		if n.Kind == graph.KindBox {
			continue
		}
		rows = append(rows, model.NodeRow{
			ID:          n.ID,
			Name:        n.Display(),
			Kind:        string(n.Kind),
			Namespace:   n.Namespace,
			Cluster:     n.Cluster,
			Health:      n.Health,
			RequestRate: n.Traffic.RequestRate,
			ErrorPct:    n.Traffic.ErrorPercent(),
			TCPRate:     n.Traffic.TCPRate,
			OutOfMesh:   n.OutOfMesh,
			HasVS:       n.HasVirtualService,
		})
	}
	return rows
}

// BuildEdgeRows flattens a Model into display-ready edge rows.
// Endpoints render as "namespace/name"; the generator guarantees both
// resolve to nodes in the same Model.
func BuildEdgeRows(m graph.Model) []model.EdgeRow {
	labels := nodeLabels(m)
	rows := make([]model.EdgeRow, 0, len(m.Edges))
	for _, e := range m.Edges {
		rows = append(rows, model.EdgeRow{
			ID:           e.Source + "~" + e.Target,
			Source:       labels[e.Source],
			Target:       labels[e.Target],
			Health:       e.Health,
			RequestRate:  e.Traffic.RequestRate,
			ErrorPct:     e.Traffic.ErrorPercent(),
			TCPRate:      e.Traffic.TCPRate,
			ResponseTime: e.ResponseTime,
			MTLSPercent:  e.MTLSPercent,
		})
	}
	return rows
}

// nodeLabels maps node ids to their "namespace/name" display labels.
func nodeLabels(m graph.Model) map[string]string {
	labels := make(map[string]string, len(m.Nodes))
	for _, n := range m.Nodes {
		if n.Namespace != "" && n.Kind != graph.KindBox {
			labels[n.ID] = n.Namespace + "/" + n.Display()
			continue
		}
		labels[n.ID] = n.Display()
	}
	return labels
}

// BuildStats aggregates mesh-wide rates and counts from a Model.
//
// Edge rates are summed from edges whose source is not a service node:
// with service injection each hop appears twice (workload to service,
// service to workload) and counting both would double the totals. On a
// service graph every source is a service, so there the filter is
// skipped. Response time and mTLS share average over the same edges,
// weighted by request rate.
func BuildStats(m graph.Model) model.GraphStats {
	var stats model.GraphStats

	serviceKinds := make(map[string]graph.NodeKind, len(m.Nodes))
	namespaces := make(map[string]bool)
	for _, n := range m.Nodes {
		serviceKinds[n.ID] = n.Kind
		switch n.Kind {
		case graph.KindBox:
			continue
		case graph.KindWorkload:
			stats.Workloads++
		case graph.KindApp:
			stats.Apps++
		case graph.KindService:
			stats.Services++
		}
		namespaces[n.Namespace] = true
		switch n.Health {
		case graph.HealthDegraded:
			stats.Degraded++
		case graph.HealthFailure:
			stats.Failing++
		}
	}
	stats.Namespaces = len(namespaces)
	stats.Edges = len(m.Edges)

	var rtWeighted, mtlsWeighted, weight float64
	for _, e := range m.Edges {
		if serviceKinds[e.Source] == graph.KindService && m.Config.GraphType != graph.GraphTypeService {
			continue
		}
		stats.RequestRate += e.Traffic.RequestRate
		stats.ErrorRate += e.Traffic.ErrorRate
		stats.TCPRate += e.Traffic.TCPRate
		rtWeighted += e.ResponseTime * e.Traffic.RequestRate
		mtlsWeighted += e.MTLSPercent * e.Traffic.RequestRate
		weight += e.Traffic.RequestRate
	}
	stats.ErrorPercent = safeDivide(stats.ErrorRate, stats.RequestRate) * 100
	stats.ResponseTime = safeDivide(rtWeighted, weight)
	stats.MTLSPercent = safeDivide(mtlsWeighted, weight)

	return stats
}
