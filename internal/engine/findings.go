package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dm/meshtop-go/internal/client"
	"github.com/dm/meshtop-go/internal/graph"
	"github.com/dm/meshtop-go/internal/model"
)

// Thresholds for security findings, percent of request traffic.
const (
	plaintextWarnPercent   = 50.0
	plaintextNoticePercent = 1.0
)

// BuildFindings derives advisory findings from a generated Model and
// the mesh-wide TLS status. Findings are recomputed per snapshot from
// aggregates alone and come back sorted by severity (critical first)
// and title, so equal inputs always render identically.
// Returns an empty (non-nil) slice when there is nothing to report.
func BuildFindings(m graph.Model, tls client.MeshTLSStatus) []model.Finding {
	result := []model.Finding{}
	labels := nodeLabels(m)

	// Edge health: failing routes first, degraded ones second. Each
	// lists its worst offenders with the observed error share.
	var failing, degraded []string
	for _, e := range m.Edges {
		route := fmt.Sprintf("%s → %s (%.1f%%)", labels[e.Source], labels[e.Target], e.Traffic.ErrorPercent())
		switch e.Health {
		case graph.HealthFailure:
			failing = append(failing, route)
		case graph.HealthDegraded:
			degraded = append(degraded, route)
		}
	}
	if len(failing) > 0 {
		result = append(result, model.Finding{
			Severity: model.SeverityCritical,
			Category: model.CategoryHealth,
			Title:    fmt.Sprintf("%d route(s) failing", len(failing)),
			Detail:   fmt.Sprintf("Error share is at or above 20%% on: %s. Check destination workload logs and recent rollouts.", listNames(failing)),
		})
	}
	if len(degraded) > 0 {
		result = append(result, model.Finding{
			Severity: model.SeverityWarning,
			Category: model.CategoryHealth,
			Title:    fmt.Sprintf("%d route(s) degraded", len(degraded)),
			Detail:   fmt.Sprintf("Elevated error share on: %s.", listNames(degraded)),
		})
	}

	// Node health: participants classified as failing.
	var failingNodes []string
	for _, n := range m.Nodes {
		if n.Kind != graph.KindBox && n.Health == graph.HealthFailure {
			failingNodes = append(failingNodes, labels[n.ID])
		}
	}
	if len(failingNodes) > 0 {
		result = append(result, model.Finding{
			Severity: model.SeverityCritical,
			Category: model.CategoryHealth,
			Title:    fmt.Sprintf("%d workload(s) failing", len(failingNodes)),
			Detail:   fmt.Sprintf("These participants serve 20%% or more errors: %s.", listNames(failingNodes)),
		})
	}

	// Security: mesh-wide TLS posture plus the plaintext share measured
	// on the edges themselves. An unknown status (side query failed)
	// produces no finding; the header badge already shows it.
	switch tls.Status {
	case client.MTLSNotEnabled:
		result = append(result, model.Finding{
			Severity: model.SeverityWarning,
			Category: model.CategorySecurity,
			Title:    "Mesh-wide mTLS not enabled",
			Detail:   "Service-to-service traffic may flow unauthenticated and unencrypted. Enable strict mutual TLS for the mesh.",
		})
	case client.MTLSPartiallyEnabled:
		result = append(result, model.Finding{
			Severity: model.SeverityNormal,
			Category: model.CategorySecurity,
			Title:    "Mesh-wide mTLS partially enabled",
			Detail:   "Some namespaces or workloads still accept plaintext. Tighten per-namespace policies to reach strict mutual TLS.",
		})
	}
	result = append(result, plaintextFindings(m)...)

	// Config: participants running without a sidecar.
	var outOfMesh []string
	for _, n := range m.Nodes {
		if n.Kind != graph.KindBox && n.OutOfMesh {
			outOfMesh = append(outOfMesh, labels[n.ID])
		}
	}
	if len(outOfMesh) > 0 {
		result = append(result, model.Finding{
			Severity: model.SeverityWarning,
			Category: model.CategoryConfig,
			Title:    fmt.Sprintf("%d workload(s) outside the mesh", len(outOfMesh)),
			Detail:   fmt.Sprintf("No sidecar detected on: %s. Their traffic is neither secured nor fully observed.", listNames(outOfMesh)),
		})
	}

	// Traffic: idle participants and the all-quiet case.
	result = append(result, idleFindings(m, labels)...)

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Severity != result[j].Severity {
			return result[i].Severity > result[j].Severity
		}
		return result[i].Title < result[j].Title
	})
	return result
}

// plaintextFindings measures the share of request traffic flowing
// without mutual TLS, weighted by request rate across all edges that
// carry requests.
func plaintextFindings(m graph.Model) []model.Finding {
	var mtlsWeighted, weight float64
	for _, e := range m.Edges {
		if e.Traffic.RequestRate <= 0 {
			continue
		}
		mtlsWeighted += e.MTLSPercent * e.Traffic.RequestRate
		weight += e.Traffic.RequestRate
	}
	if weight <= 0 {
		return nil
	}
	plaintext := 100 - mtlsWeighted/weight
	switch {
	case plaintext > plaintextWarnPercent:
		return []model.Finding{{
			Severity: model.SeverityWarning,
			Category: model.CategorySecurity,
			Title:    "Majority of traffic unencrypted",
			Detail:   fmt.Sprintf("%.0f%% of request traffic flows without mutual TLS.", plaintext),
		}}
	case plaintext >= plaintextNoticePercent:
		return []model.Finding{{
			Severity: model.SeverityNormal,
			Category: model.CategorySecurity,
			Title:    "Some traffic unencrypted",
			Detail:   fmt.Sprintf("%.0f%% of request traffic flows without mutual TLS.", plaintext),
		}}
	}
	return nil
}

// idleFindings reports workload and app nodes with no traffic signal
// at all, or a single notice when the whole view is quiet.
func idleFindings(m graph.Model, labels map[string]string) []model.Finding {
	var idle []string
	var participants, active int
	for _, n := range m.Nodes {
		if n.Kind == graph.KindBox {
			continue
		}
		participants++
		if n.Traffic.HasSignal() {
			active++
		} else if n.Kind == graph.KindWorkload || n.Kind == graph.KindApp {
			idle = append(idle, labels[n.ID])
		}
	}
	if participants > 0 && active == 0 {
		return []model.Finding{{
			Severity: model.SeverityNormal,
			Category: model.CategoryTraffic,
			Title:    "No traffic observed",
			Detail:   "No participant received traffic in the reporting window. Widen the window or check that telemetry is flowing.",
		}}
	}
	if len(idle) > 0 {
		return []model.Finding{{
			Severity: model.SeverityNormal,
			Category: model.CategoryTraffic,
			Title:    fmt.Sprintf("%d idle workload(s)", len(idle)),
			Detail:   fmt.Sprintf("No traffic in the reporting window for: %s. Scale-down or cleanup candidates.", listNames(idle)),
		}}
	}
	return nil
}

// listNames joins names for a finding detail, truncating long lists.
func listNames(names []string) string {
	const maxListed = 5
	if len(names) <= maxListed {
		return strings.Join(names, ", ")
	}
	return strings.Join(names[:maxListed], ", ") + fmt.Sprintf(", ... and %d more", len(names)-maxListed)
}
