package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dm/meshtop-go/internal/graph"
	"github.com/dm/meshtop-go/internal/model"
)

// nodeRowFixtures returns a reproducible set of NodeRow test data.
func nodeRowFixtures() []model.NodeRow {
	return []model.NodeRow{
		{Name: "productpage-v1", Kind: "workload", Namespace: "bookinfo", Health: graph.HealthHealthy, RequestRate: 100, ErrorPct: 0.5, TCPRate: 2048},
		{Name: "reviews-v2", Kind: "workload", Namespace: "bookinfo", Health: graph.HealthDegraded, RequestRate: 300, ErrorPct: 4.2, TCPRate: 512},
		{Name: "mongodb", Kind: "service", Namespace: "backends", Health: graph.HealthFailure, RequestRate: 50, ErrorPct: 25, TCPRate: 8192},
		{Name: "Ratings-v1", Kind: "app", Namespace: "bookinfo", Health: graph.HealthHealthy, RequestRate: 150, ErrorPct: 0, TCPRate: 0},
	}
}

// edgeRowFixtures returns a reproducible set of EdgeRow test data.
func edgeRowFixtures() []model.EdgeRow {
	return []model.EdgeRow{
		{Source: "bookinfo/productpage", Target: "bookinfo/reviews", Health: graph.HealthHealthy, RequestRate: 100, ErrorPct: 0.5, ResponseTime: 25, MTLSPercent: 100},
		{Source: "bookinfo/reviews", Target: "backends/mongodb", Health: graph.HealthDegraded, RequestRate: 40, ErrorPct: 5, ResponseTime: 350, MTLSPercent: 0, TCPRate: 4096},
		{Source: "istio-system/ingress", Target: "bookinfo/productpage", Health: graph.HealthHealthy, RequestRate: 120, ErrorPct: 0.1, ResponseTime: 12, MTLSPercent: 100},
	}
}

// ---------- sortNodeRows ----------

func TestSortNodeRows_ByRequestRate(t *testing.T) {
	rows := nodeRowFixtures()
	sorted := sortNodeRows(rows, 4, true) // col 4 = RequestRate, descending
	require.Len(t, sorted, 4)
	assert.Equal(t, "reviews-v2", sorted[0].Name)     // 300
	assert.Equal(t, "Ratings-v1", sorted[1].Name)     // 150
	assert.Equal(t, "productpage-v1", sorted[2].Name) // 100
	assert.Equal(t, "mongodb", sorted[3].Name)        // 50
}

func TestSortNodeRows_ByRequestRate_Ascending(t *testing.T) {
	rows := nodeRowFixtures()
	sorted := sortNodeRows(rows, 4, false) // ascending
	require.Len(t, sorted, 4)
	assert.Equal(t, "mongodb", sorted[0].Name)        // 50
	assert.Equal(t, "productpage-v1", sorted[1].Name) // 100
	assert.Equal(t, "Ratings-v1", sorted[2].Name)     // 150
	assert.Equal(t, "reviews-v2", sorted[3].Name)     // 300
}

func TestSortNodeRows_ByName(t *testing.T) {
	rows := nodeRowFixtures()
	sorted := sortNodeRows(rows, 0, false) // col 0 = Name, ascending (case-insensitive)
	require.Len(t, sorted, 4)
	assert.Equal(t, "mongodb", sorted[0].Name)
	assert.Equal(t, "productpage-v1", sorted[1].Name)
	assert.Equal(t, "Ratings-v1", sorted[2].Name)
	assert.Equal(t, "reviews-v2", sorted[3].Name)
}

func TestSortNodeRows_ByName_Descending(t *testing.T) {
	rows := nodeRowFixtures()
	sorted := sortNodeRows(rows, 0, true)
	require.Len(t, sorted, 4)
	assert.Equal(t, "reviews-v2", sorted[0].Name)
	assert.Equal(t, "Ratings-v1", sorted[1].Name)
	assert.Equal(t, "productpage-v1", sorted[2].Name)
	assert.Equal(t, "mongodb", sorted[3].Name)
}

func TestSortNodeRows_ByHealth(t *testing.T) {
	rows := nodeRowFixtures()
	sorted := sortNodeRows(rows, 3, true) // col 3 = Health, descending → failing first
	require.Len(t, sorted, 4)
	assert.Equal(t, "mongodb", sorted[0].Name)    // failure
	assert.Equal(t, "reviews-v2", sorted[1].Name) // degraded
	// Equal health ties break by name ascending regardless of direction.
	assert.Equal(t, "productpage-v1", sorted[2].Name)
	assert.Equal(t, "Ratings-v1", sorted[3].Name)
}

func TestSortNodeRows_ByErrorPct(t *testing.T) {
	rows := nodeRowFixtures()
	sorted := sortNodeRows(rows, 5, true) // col 5 = ErrorPct, descending
	require.Len(t, sorted, 4)
	assert.Equal(t, "mongodb", sorted[0].Name)    // 25
	assert.Equal(t, "reviews-v2", sorted[1].Name) // 4.2
}

func TestSortNodeRows_ByTCPRate(t *testing.T) {
	rows := nodeRowFixtures()
	sorted := sortNodeRows(rows, 6, true) // col 6 = TCPRate, descending
	assert.Equal(t, "mongodb", sorted[0].Name) // 8192
}

func TestSortNodeRows_ByNamespace(t *testing.T) {
	rows := nodeRowFixtures()
	sorted := sortNodeRows(rows, 2, false) // col 2 = Namespace, ascending
	require.Len(t, sorted, 4)
	assert.Equal(t, "mongodb", sorted[0].Name) // backends
	// bookinfo trio ties → name ascending.
	assert.Equal(t, "productpage-v1", sorted[1].Name)
	assert.Equal(t, "Ratings-v1", sorted[2].Name)
	assert.Equal(t, "reviews-v2", sorted[3].Name)
}

func TestSortNodeRows_ToggleDirection(t *testing.T) {
	rows := nodeRowFixtures()
	asc := sortNodeRows(rows, 4, false)
	desc := sortNodeRows(rows, 4, true)
	require.Len(t, asc, 4)
	require.Len(t, desc, 4)
	assert.Equal(t, asc[0].Name, desc[len(desc)-1].Name)
	assert.Equal(t, asc[len(asc)-1].Name, desc[0].Name)
}

func TestSortNodeRows_NoSort(t *testing.T) {
	rows := nodeRowFixtures()
	result := sortNodeRows(rows, -1, true)
	require.Len(t, result, 4)
	// Order preserved
	assert.Equal(t, rows[0].Name, result[0].Name)
	assert.Equal(t, rows[1].Name, result[1].Name)
}

func TestSortNodeRows_DoesNotMutateInput(t *testing.T) {
	rows := nodeRowFixtures()
	original := make([]model.NodeRow, len(rows))
	copy(original, rows)
	sortNodeRows(rows, 4, true)
	assert.Equal(t, original, rows)
}

func TestSortNodeRows_RateTieBreaksByName(t *testing.T) {
	rows := []model.NodeRow{
		{Name: "bravo", RequestRate: 100},
		{Name: "alpha", RequestRate: 100},
		{Name: "zulu", RequestRate: 200},
	}
	sorted := sortNodeRows(rows, 4, true) // descending
	require.Len(t, sorted, 3)
	assert.Equal(t, "zulu", sorted[0].Name)
	// The 100-rate tie must not be inverted by the descending direction.
	assert.Equal(t, "alpha", sorted[1].Name)
	assert.Equal(t, "bravo", sorted[2].Name)
}

// ---------- filterNodeRows ----------

func TestFilterNodeRows_ByName(t *testing.T) {
	rows := nodeRowFixtures()
	result := filterNodeRows(rows, "reviews")
	require.Len(t, result, 1)
	assert.Equal(t, "reviews-v2", result[0].Name)
}

func TestFilterNodeRows_ByNamespace(t *testing.T) {
	rows := nodeRowFixtures()
	result := filterNodeRows(rows, "backends")
	require.Len(t, result, 1)
	assert.Equal(t, "mongodb", result[0].Name)
}

func TestFilterNodeRows_CaseInsensitive(t *testing.T) {
	rows := nodeRowFixtures()
	result := filterNodeRows(rows, "RATINGS")
	require.Len(t, result, 1)
	assert.Equal(t, "Ratings-v1", result[0].Name)
}

func TestFilterNodeRows_NamespaceMatchesSeveral(t *testing.T) {
	rows := nodeRowFixtures()
	result := filterNodeRows(rows, "bookinfo")
	assert.Len(t, result, 3)
}

func TestFilterNodeRows_EmptySearch(t *testing.T) {
	rows := nodeRowFixtures()
	result := filterNodeRows(rows, "")
	assert.Len(t, result, len(rows))
}

func TestFilterNodeRows_NoMatch(t *testing.T) {
	rows := nodeRowFixtures()
	result := filterNodeRows(rows, "xyzzy")
	assert.Len(t, result, 0)
}

// ---------- sortEdgeRows ----------

func TestSortEdgeRows_ByRequestRate(t *testing.T) {
	rows := edgeRowFixtures()
	sorted := sortEdgeRows(rows, 3, true) // col 3 = RequestRate, descending
	require.Len(t, sorted, 3)
	assert.Equal(t, "istio-system/ingress", sorted[0].Source)  // 120
	assert.Equal(t, "bookinfo/productpage", sorted[1].Source)  // 100
	assert.Equal(t, "bookinfo/reviews", sorted[2].Source)      // 40
}

func TestSortEdgeRows_ByResponseTime(t *testing.T) {
	rows := edgeRowFixtures()
	sorted := sortEdgeRows(rows, 5, true) // col 5 = ResponseTime, descending
	assert.Equal(t, "bookinfo/reviews", sorted[0].Source) // 350ms
}

func TestSortEdgeRows_ByMTLSPercent(t *testing.T) {
	rows := edgeRowFixtures()
	sorted := sortEdgeRows(rows, 6, false) // col 6 = MTLSPercent, ascending → plaintext first
	assert.Equal(t, "bookinfo/reviews", sorted[0].Source) // 0%
}

func TestSortEdgeRows_BySource(t *testing.T) {
	rows := edgeRowFixtures()
	sorted := sortEdgeRows(rows, 0, false)
	require.Len(t, sorted, 3)
	assert.Equal(t, "bookinfo/productpage", sorted[0].Source)
	assert.Equal(t, "bookinfo/reviews", sorted[1].Source)
	assert.Equal(t, "istio-system/ingress", sorted[2].Source)
}

func TestSortEdgeRows_DoesNotMutateInput(t *testing.T) {
	rows := edgeRowFixtures()
	original := make([]model.EdgeRow, len(rows))
	copy(original, rows)
	sortEdgeRows(rows, 3, true)
	assert.Equal(t, original, rows)
}

func TestSortEdgeRows_RateTieBreaksByRoute(t *testing.T) {
	rows := []model.EdgeRow{
		{Source: "ns/b", Target: "ns/x", RequestRate: 10},
		{Source: "ns/a", Target: "ns/y", RequestRate: 10},
		{Source: "ns/a", Target: "ns/x", RequestRate: 10},
	}
	sorted := sortEdgeRows(rows, 3, true) // all tied → source then target ascending
	require.Len(t, sorted, 3)
	assert.Equal(t, "ns/a", sorted[0].Source)
	assert.Equal(t, "ns/x", sorted[0].Target)
	assert.Equal(t, "ns/a", sorted[1].Source)
	assert.Equal(t, "ns/y", sorted[1].Target)
	assert.Equal(t, "ns/b", sorted[2].Source)
}

// ---------- filterEdgeRows ----------

func TestFilterEdgeRows_ByTarget(t *testing.T) {
	rows := edgeRowFixtures()
	result := filterEdgeRows(rows, "mongodb")
	require.Len(t, result, 1)
	assert.Equal(t, "bookinfo/reviews", result[0].Source)
}

func TestFilterEdgeRows_MatchesEitherEndpoint(t *testing.T) {
	rows := edgeRowFixtures()
	result := filterEdgeRows(rows, "bookinfo")
	assert.Len(t, result, 3)
}

func TestFilterEdgeRows_EmptySearch(t *testing.T) {
	rows := edgeRowFixtures()
	result := filterEdgeRows(rows, "")
	assert.Len(t, result, len(rows))
}

func TestFilterEdgeRows_NoMatch(t *testing.T) {
	rows := edgeRowFixtures()
	result := filterEdgeRows(rows, "xyzzy")
	assert.Len(t, result, 0)
}
