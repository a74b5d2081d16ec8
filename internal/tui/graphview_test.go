package tui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dm/meshtop-go/internal/graph"
)

func graphFixtureModel() graph.Model {
	return graph.Model{
		Nodes: []graph.Node{
			{
				ID: "w1", Kind: graph.KindWorkload, Namespace: "bookinfo",
				Workload: "productpage-v1", Cluster: "east", OutOfMesh: true,
				Health:  graph.HealthHealthy,
				Traffic: graph.Traffic{RequestRate: 10, HTTPRate: 10},
			},
			{
				ID: "w2", Kind: graph.KindWorkload, Namespace: "bookinfo",
				Workload: "reviews-v2", Health: graph.HealthDegraded,
				Traffic: graph.Traffic{RequestRate: 4, ErrorRate: 0.2, HTTPRate: 4},
			},
			{
				ID: "w3", Kind: graph.KindWorkload, Namespace: "backends",
				Workload: "mongodb", Health: graph.HealthHealthy,
				Traffic: graph.Traffic{TCPRate: 2048},
			},
			{
				ID: "ext", Kind: graph.KindWorkload, Namespace: "",
				Workload: "unknown", Health: graph.HealthUnknown,
			},
		},
		Edges: []graph.Edge{
			{
				Source: "w1", Target: "w2", Health: graph.HealthHealthy,
				Traffic: graph.Traffic{RequestRate: 4}, ResponseTime: 120, MTLSPercent: 100,
				Labels: map[graph.EdgeLabelMode]string{graph.EdgeLabelTrafficRate: "4.0 /s"},
			},
			{
				Source: "w2", Target: "w3", Health: graph.HealthHealthy,
				Traffic: graph.Traffic{TCPRate: 2048},
			},
		},
	}
}

func TestGraphViewScaleBy_ClampsToBounds(t *testing.T) {
	g := NewGraphView()

	g.ScaleBy(2)
	assert.Equal(t, 2.0, g.zoom)

	g.ScaleBy(4)
	assert.Equal(t, maxZoom, g.zoom)

	g.ScaleBy(2)
	assert.Equal(t, maxZoom, g.zoom)

	for i := 0; i < 8; i++ {
		g.ScaleBy(0.5)
	}
	assert.Equal(t, minZoom, g.zoom)
}

func TestGraphViewScaleBy_IgnoresNonPositiveFactor(t *testing.T) {
	g := NewGraphView()

	g.ScaleBy(0)
	g.ScaleBy(-1)

	assert.Equal(t, 1.0, g.zoom)
}

func TestGraphViewDetail_ZoomThresholds(t *testing.T) {
	tests := []struct {
		zoom float64
		want detailLevel
	}{
		{0.25, detailSummary},
		{0.4, detailSummary},
		{0.5, detailNodes},
		{0.75, detailNodes},
		{1.0, detailAdjacency},
		{1.5, detailAdjacency},
		{2.0, detailExpanded},
		{4.0, detailExpanded},
	}
	for _, tt := range tests {
		g := NewGraphView()
		g.zoom = tt.zoom
		assert.Equal(t, tt.want, g.detail(), "zoom %g", tt.zoom)
	}
}

func TestGraphViewApplyModel_HighlightsNewNodes(t *testing.T) {
	g := NewGraphView()

	first := graphFixtureModel()
	first.Nodes = first.Nodes[:2] // w1, w2
	first.Edges = first.Edges[:1]
	g.ApplyModel(first, false)
	assert.Empty(t, g.highlight)

	g.scroll = 5
	g.ApplyModel(graphFixtureModel(), true)

	assert.True(t, g.highlight["w3"])
	assert.True(t, g.highlight["ext"])
	assert.False(t, g.highlight["w1"])
	assert.Equal(t, 0, g.scroll)
}

func TestGraphViewApplyModel_NoAnimateKeepsScroll(t *testing.T) {
	g := NewGraphView()
	g.ApplyModel(graphFixtureModel(), false)
	g.scroll = 3

	g.ApplyModel(graphFixtureModel(), false)

	assert.Equal(t, 3, g.scroll)
	assert.Empty(t, g.highlight)
}

func TestGraphViewApplyModel_HighlightClearedWhenNothingNew(t *testing.T) {
	g := NewGraphView()
	small := graphFixtureModel()
	small.Nodes = small.Nodes[:2]
	small.Edges = small.Edges[:1]
	g.ApplyModel(small, false)
	g.ApplyModel(graphFixtureModel(), true)
	require.NotEmpty(t, g.highlight)

	g.ApplyModel(graphFixtureModel(), true)

	assert.Empty(t, g.highlight)
}

func TestGraphViewFit_KeepsDenseZoomWhenGraphFits(t *testing.T) {
	g := NewGraphView()
	g.ApplyModel(graphFixtureModel(), false)
	g.SetSize(80, 40)
	g.scroll = 4

	g.Fit(1)

	assert.Equal(t, 2.0, g.zoom)
	assert.Equal(t, 0, g.scroll)
}

func TestGraphViewFit_ZoomsOutUntilGraphFits(t *testing.T) {
	g := NewGraphView()
	g.ApplyModel(graphFixtureModel(), false)
	g.SetSize(80, 8)

	g.Fit(1)

	assert.Equal(t, minZoom, g.zoom)
}

func TestGraphViewFit_UnknownSizeFallsBackToDefault(t *testing.T) {
	g := NewGraphView()
	g.ApplyModel(graphFixtureModel(), false)
	g.zoom = 3
	g.scroll = 2

	g.Fit(1)

	assert.Equal(t, 1.0, g.zoom)
	assert.Equal(t, 0, g.scroll)
}

func TestGraphViewReset(t *testing.T) {
	g := NewGraphView()
	g.zoom = 3
	g.scroll = 7
	g.layout = layoutFlat

	g.Reset()

	assert.Equal(t, 1.0, g.zoom)
	assert.Equal(t, 0, g.scroll)
	assert.Equal(t, layoutByNamespace, g.layout)
}

func TestGraphViewRelayout_TogglesGrouping(t *testing.T) {
	g := NewGraphView()
	g.scroll = 4

	g.Relayout()
	assert.Equal(t, layoutFlat, g.layout)
	assert.Equal(t, 0, g.scroll)

	g.Relayout()
	assert.Equal(t, layoutByNamespace, g.layout)
}

func TestGraphViewScrollBy_Clamps(t *testing.T) {
	g := NewGraphView()

	g.ScrollBy(5, 10)
	assert.Equal(t, 5, g.scroll)

	g.ScrollBy(10, 10)
	assert.Equal(t, 10, g.scroll)

	g.ScrollBy(-30, 10)
	assert.Equal(t, 0, g.scroll)
}

func TestGraphViewContentLines_EmptyModel(t *testing.T) {
	g := NewGraphView()
	joined := stripANSI(strings.Join(g.contentLines(80), "\n"))
	assert.Contains(t, joined, "(no traffic in the selected view)")

	g.ApplyModel(graph.EmptyModel(), false)
	joined = stripANSI(strings.Join(g.contentLines(80), "\n"))
	assert.Contains(t, joined, "(no traffic in the selected view)")
}

func TestGraphViewContentLines_GroupsByNamespace(t *testing.T) {
	g := NewGraphView()
	g.ApplyModel(graphFixtureModel(), false)

	joined := stripANSI(strings.Join(g.contentLines(80), "\n"))

	assert.Contains(t, joined, "(external)")
	assert.Contains(t, joined, "backends")
	assert.Contains(t, joined, "bookinfo")
	assert.Contains(t, joined, "productpage-v1 (workload)")
	assert.Contains(t, joined, "→ bookinfo/reviews-v2")
	assert.Contains(t, joined, "[4.0 /s]")
}

func TestGraphViewContentLines_FlatLayoutSkipsHeadings(t *testing.T) {
	g := NewGraphView()
	g.ApplyModel(graphFixtureModel(), false)
	g.layout = layoutFlat

	lines := g.contentLines(80)

	// Four nodes plus two edges, no headings or separators.
	assert.Len(t, lines, 6)
	joined := stripANSI(strings.Join(lines, "\n"))
	assert.NotContains(t, joined, "(external)")
}

func TestGraphViewContentLines_ExpandedShowsBreakdownAndFlags(t *testing.T) {
	g := NewGraphView()
	g.ApplyModel(graphFixtureModel(), false)
	g.zoom = 2

	joined := stripANSI(strings.Join(g.contentLines(80), "\n"))

	assert.Contains(t, joined, "http 10.0 /s")
	assert.Contains(t, joined, "tcp 2.0 KB/s")
	assert.Contains(t, joined, "cluster=east")
	assert.Contains(t, joined, "no sidecar")
	assert.Contains(t, joined, "RT=120.00 ms")
	assert.Contains(t, joined, "mTLS=100.0%")
}

func TestGraphViewSummaryLines_RollsUpPerNamespace(t *testing.T) {
	g := NewGraphView()
	g.ApplyModel(graphFixtureModel(), false)
	g.zoom = minZoom

	lines := g.contentLines(80)
	require.Len(t, lines, 3)
	joined := stripANSI(strings.Join(lines, "\n"))

	assert.Contains(t, joined, "(external)")
	assert.Contains(t, joined, "backends")
	// Both edges originate in bookinfo; only w1→w2 carries request rate.
	assert.Contains(t, joined, "2 nodes  2 edges  4.0 /s")
}

func TestNamespaceHeading(t *testing.T) {
	assert.Equal(t, "(external)", namespaceHeading(""))
	assert.Equal(t, "bookinfo", namespaceHeading("bookinfo"))
}

func TestGraphNodeLabels_QualifiesWithNamespace(t *testing.T) {
	labels := graphNodeLabels(graphFixtureModel())

	assert.Equal(t, "bookinfo/productpage-v1", labels["w1"])
	assert.Equal(t, "unknown", labels["ext"])
}

func TestRenderGraph_TitleAndScrollHint(t *testing.T) {
	app := NewApp(nil, Config{})
	app.width = 80
	app.height = 10
	app.graphView.ApplyModel(graphFixtureModel(), false)

	out := stripANSI(app.graphView.renderGraph(app))

	assert.Contains(t, out, "Traffic Graph")
	assert.Contains(t, out, "zoom 1x")
	assert.Contains(t, out, "layout namespace")
	assert.Contains(t, out, "↓ scroll for more")
}

func TestGraphMaxOffset(t *testing.T) {
	app := NewApp(nil, Config{})
	app.width = 80
	app.height = 10
	app.graphView.ApplyModel(graphFixtureModel(), false)

	assert.Greater(t, graphMaxOffset(app), 0)

	app.height = 60
	assert.Equal(t, 0, graphMaxOffset(app))
}
