package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dm/meshtop-go/internal/format"
	"github.com/dm/meshtop-go/internal/graph"
)

// Camera bounds for the text renderer. Zoom selects the detail level;
// there is no sub-character geometry to scale.
const (
	minZoom = 0.25
	maxZoom = 4.0
)

// graphChromeLines approximates the header, title, and footer rows
// around the graph content when Fit sizes the viewport.
const graphChromeLines = 3

// detailLevel is how much per-element information renders at the
// current zoom.
type detailLevel int

const (
	detailSummary   detailLevel = iota // one line per namespace
	detailNodes                        // one line per node
	detailAdjacency                    // nodes plus outgoing edges
	detailExpanded                     // adjacency plus traffic breakdown
)

// graphLayout selects how nodes are grouped in the rendered view.
type graphLayout int

const (
	layoutByNamespace graphLayout = iota
	layoutFlat
)

// GraphViewModel renders the generated Model as an ordered adjacency
// view with a simple camera: zoom picks the detail level, scroll moves
// the viewport, Relayout alternates grouping. It implements
// RenderController.
type GraphViewModel struct {
	model     graph.Model
	haveModel bool

	zoom   float64
	scroll int
	layout graphLayout

	// Terminal size, fed by the app on resize; Fit uses it to choose
	// the densest detail level that still shows the whole graph.
	width, height int

	highlight map[string]bool // node ids new in the latest animated apply
}

// NewGraphView returns a GraphViewModel at default zoom, grouped by
// namespace.
func NewGraphView() GraphViewModel {
	return GraphViewModel{zoom: 1.0}
}

// SetSize records the terminal dimensions.
func (g *GraphViewModel) SetSize(width, height int) {
	g.width = width
	g.height = height
}

// ApplyModel implements RenderController. The model is replaced
// wholesale; with animate set, nodes absent from the previous model are
// marked for highlighting until the next apply, and the viewport
// rewinds to the top of the changed topology.
func (g *GraphViewModel) ApplyModel(m graph.Model, animate bool) {
	var hl map[string]bool
	if animate && g.haveModel {
		prev := make(map[string]bool, len(g.model.Nodes))
		for _, n := range g.model.Nodes {
			prev[n.ID] = true
		}
		for _, n := range m.Nodes {
			if !prev[n.ID] {
				if hl == nil {
					hl = make(map[string]bool)
				}
				hl[n.ID] = true
			}
		}
	}
	g.highlight = hl
	g.model = m
	g.haveModel = true
	if animate {
		g.scroll = 0
	}
}

// ScaleBy implements RenderController. Zoom is clamped to
// [minZoom, maxZoom]; non-positive factors are ignored.
func (g *GraphViewModel) ScaleBy(factor float64) {
	if factor <= 0 {
		return
	}
	z := g.zoom * factor
	if z < minZoom {
		z = minZoom
	}
	if z > maxZoom {
		z = maxZoom
	}
	g.zoom = z
}

// Fit implements RenderController: pick the densest detail level that
// still fits the whole graph in the viewport, leaving padding lines
// free, and rewind the scroll. Without a known terminal size it falls
// back to the default zoom.
func (g *GraphViewModel) Fit(padding float64) {
	g.scroll = 0
	if g.height <= 0 || g.width <= 0 {
		g.zoom = 1
		return
	}
	avail := g.height - graphChromeLines - 2*int(padding)
	if avail < 1 {
		avail = 1
	}
	for _, z := range []float64{2, 1, 0.5, minZoom} {
		g.zoom = z
		if len(g.contentLines(g.width)) <= avail {
			return
		}
	}
}

// Reset implements RenderController: default zoom, top of view,
// namespace grouping.
func (g *GraphViewModel) Reset() {
	g.zoom = 1.0
	g.scroll = 0
	g.layout = layoutByNamespace
}

// Relayout implements RenderController by alternating between
// namespace grouping and the flat kind/id ordering of the model.
func (g *GraphViewModel) Relayout() {
	if g.layout == layoutByNamespace {
		g.layout = layoutFlat
	} else {
		g.layout = layoutByNamespace
	}
	g.scroll = 0
}

// ScrollBy moves the viewport by delta lines, clamped to [0, max].
func (g *GraphViewModel) ScrollBy(delta, max int) {
	g.scroll += delta
	if g.scroll > max {
		g.scroll = max
	}
	if g.scroll < 0 {
		g.scroll = 0
	}
}

// detail maps the zoom level onto a detail level.
func (g *GraphViewModel) detail() detailLevel {
	switch {
	case g.zoom < 0.5:
		return detailSummary
	case g.zoom < 1:
		return detailNodes
	case g.zoom < 2:
		return detailAdjacency
	default:
		return detailExpanded
	}
}

// edgeLabelOrder fixes the display order of edge label modes.
var edgeLabelOrder = []graph.EdgeLabelMode{
	graph.EdgeLabelTrafficRate,
	graph.EdgeLabelResponseTime,
	graph.EdgeLabelSecurity,
}

// contentLines builds the unscrolled graph content for the current
// zoom and layout. Pure with respect to the model; safe to call from
// both render and offset clamping.
func (g *GraphViewModel) contentLines(width int) []string {
	if !g.haveModel || len(g.model.Nodes) == 0 {
		return []string{"", "  " + StyleDim.Render("(no traffic in the selected view)")}
	}

	labels := graphNodeLabels(g.model)
	level := g.detail()

	if level == detailSummary {
		return g.summaryLines()
	}

	outgoing := make(map[string][]graph.Edge, len(g.model.Nodes))
	for _, e := range g.model.Edges {
		outgoing[e.Source] = append(outgoing[e.Source], e)
	}

	var lines []string
	appendNode := func(n graph.Node) {
		lines = append(lines, g.nodeLine(n))
		if level == detailExpanded {
			if bd := trafficBreakdown(n.Traffic); bd != "" {
				lines = append(lines, "      "+StyleDim.Render(bd))
			}
			if fl := nodeFlags(n); fl != "" {
				lines = append(lines, "      "+StyleDim.Render(fl))
			}
		}
		if level >= detailAdjacency {
			for _, e := range outgoing[n.ID] {
				lines = append(lines, edgeLine(e, labels, level))
			}
		}
	}

	if g.layout == layoutFlat {
		for _, n := range g.model.Nodes {
			if n.Kind == graph.KindBox {
				continue
			}
			appendNode(n)
		}
		return lines
	}

	for _, ns := range g.namespaceOrder() {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, StyleTableHeader.Render(namespaceHeading(ns)))
		for _, n := range g.model.Nodes {
			if n.Kind == graph.KindBox || n.Namespace != ns {
				continue
			}
			appendNode(n)
		}
	}
	return lines
}

// summaryLines renders one rollup line per namespace: node and edge
// counts plus the request rate originating there.
func (g *GraphViewModel) summaryLines() []string {
	type rollup struct {
		nodes int
		edges int
		rate  float64
	}
	byNS := make(map[string]*rollup)
	nodeNS := make(map[string]string, len(g.model.Nodes))
	for _, n := range g.model.Nodes {
		if n.Kind == graph.KindBox {
			continue
		}
		nodeNS[n.ID] = n.Namespace
		r := byNS[n.Namespace]
		if r == nil {
			r = &rollup{}
			byNS[n.Namespace] = r
		}
		r.nodes++
	}
	for _, e := range g.model.Edges {
		ns, ok := nodeNS[e.Source]
		if !ok {
			continue
		}
		r := byNS[ns]
		r.edges++
		r.rate += e.Traffic.RequestRate
	}

	names := make([]string, 0, len(byNS))
	for ns := range byNS {
		names = append(names, ns)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, ns := range names {
		r := byNS[ns]
		lines = append(lines, fmt.Sprintf("  %s  %s",
			StyleTableRow.Bold(true).Render(namespaceHeading(ns)),
			StyleDim.Render(fmt.Sprintf("%d nodes  %d edges  %s", r.nodes, r.edges, format.FormatRate(r.rate)))))
	}
	return lines
}

// namespaceOrder returns the namespaces present in the model, sorted.
func (g *GraphViewModel) namespaceOrder() []string {
	seen := make(map[string]bool)
	var names []string
	for _, n := range g.model.Nodes {
		if n.Kind == graph.KindBox || seen[n.Namespace] {
			continue
		}
		seen[n.Namespace] = true
		names = append(names, n.Namespace)
	}
	sort.Strings(names)
	return names
}

// nodeLine renders one node: health glyph, name, kind, and rates.
// Highlighted (newly appeared) nodes render their name in yellow.
func (g *GraphViewModel) nodeLine(n graph.Node) string {
	name := sanitize(n.Display())
	style := StyleTableRow
	if g.highlight[n.ID] {
		style = StyleYellow.Bold(true)
	}
	parts := []string{"  " + healthGlyph(n.Health) + " " + style.Render(name) + StyleDim.Render(" ("+string(n.Kind)+")")}
	if n.Traffic.RequestRate > 0 {
		parts = append(parts, format.FormatRate(n.Traffic.RequestRate))
		if n.Traffic.ErrorRate > 0 {
			parts = append(parts, severityToStyle(errorSeverity(n.Traffic.ErrorPercent())).Render(format.FormatPercent(n.Traffic.ErrorPercent())))
		}
	}
	if n.Traffic.TCPRate > 0 {
		parts = append(parts, format.FormatBytesRate(n.Traffic.TCPRate))
	}
	return strings.Join(parts, "  ")
}

// edgeLine renders one outgoing edge: arrow, target, and the requested
// label values in fixed mode order. The expanded level appends response
// time and mTLS share even when not requested as labels.
func edgeLine(e graph.Edge, labels map[string]string, level detailLevel) string {
	arrow := HealthStyle(e.Health).Render("→")
	parts := []string{"      " + arrow + " " + labels[e.Target]}
	for _, mode := range edgeLabelOrder {
		if v, ok := e.Labels[mode]; ok && v != "" {
			parts = append(parts, StyleDim.Render("["+v+"]"))
		}
	}
	if level == detailExpanded {
		if e.ResponseTime > 0 {
			parts = append(parts, StyleDim.Render("RT="+format.FormatLatency(e.ResponseTime)))
		}
		if e.Traffic.RequestRate > 0 {
			parts = append(parts, StyleDim.Render("mTLS="+format.FormatPercent(e.MTLSPercent)))
		}
	}
	return strings.Join(parts, "  ")
}

// trafficBreakdown lists per-protocol rates, omitting silent protocols.
func trafficBreakdown(t graph.Traffic) string {
	var parts []string
	if t.HTTPRate > 0 {
		parts = append(parts, "http "+format.FormatRate(t.HTTPRate))
	}
	if t.GRPCRate > 0 {
		parts = append(parts, "grpc "+format.FormatRate(t.GRPCRate))
	}
	if t.TCPRate > 0 {
		parts = append(parts, "tcp "+format.FormatBytesRate(t.TCPRate))
	}
	return strings.Join(parts, "  ")
}

// nodeFlags lists mesh flags for the expanded level.
func nodeFlags(n graph.Node) string {
	var parts []string
	if n.Cluster != "" {
		parts = append(parts, "cluster="+sanitize(n.Cluster))
	}
	if n.OutOfMesh {
		parts = append(parts, "no sidecar")
	}
	if n.HasVirtualService {
		parts = append(parts, "virtual service")
	}
	return strings.Join(parts, "  ")
}

// namespaceHeading labels a namespace group; nodes the mesh cannot
// place (external endpoints) group under "(external)".
func namespaceHeading(ns string) string {
	if ns == "" {
		return "(external)"
	}
	return sanitize(ns)
}

// graphNodeLabels maps node ids to namespace-qualified display names
// for edge endpoint rendering.
func graphNodeLabels(m graph.Model) map[string]string {
	labels := make(map[string]string, len(m.Nodes))
	for _, n := range m.Nodes {
		name := sanitize(n.Display())
		if n.Kind != graph.KindBox && n.Namespace != "" {
			name = sanitize(n.Namespace) + "/" + name
		}
		labels[n.ID] = name
	}
	return labels
}

// renderGraphTitle renders the graph screen's title bar with the
// current graph type, zoom, and camera key hints.
func (g *GraphViewModel) renderGraphTitle(width int, graphType graph.GraphType) string {
	layoutName := "namespace"
	if g.layout == layoutFlat {
		layoutName = "flat"
	}
	titleText := fmt.Sprintf("Traffic Graph  %s  zoom %gx  layout %s", graphType, g.zoom, layoutName)
	hintText := StyleDim.Render("[+/-: zoom  f: fit  0: reset  L: layout]")
	hintVW := lipgloss.Width(hintText)
	titleVW := lipgloss.Width(titleText)
	innerWidth := width - 2 // StyleHeader has Padding(0,1)
	gap := innerWidth - titleVW - hintVW
	if gap < 1 {
		gap = 1
	}
	titleRow := titleText + strings.Repeat(" ", gap) + hintText
	return StyleHeader.Width(width).MaxWidth(width).Render(titleRow)
}

// graphMaxOffset returns the maximum valid scroll offset for the graph
// screen. Called from Update to clamp after a scroll key, preventing
// overscroll debt beyond the real content bound.
func graphMaxOffset(app *App) int {
	width := app.width
	if width <= 0 {
		width = 80
	}
	height := app.height
	if height <= 0 {
		height = 24
	}
	headerH := renderedHeight(renderHeader(app))
	alertH := renderedHeight(app.alert.view(width))
	titleH := renderedHeight(app.graphView.renderGraphTitle(width, app.coord.Options().GraphType))
	footerH := renderedHeight(renderFooter(app))
	availH := height - headerH - alertH - titleH - footerH
	if availH < 1 {
		availH = 1
	}
	lines := app.graphView.contentLines(width)
	overflows := len(lines) > availH
	contentH := availH
	if overflows && contentH > 1 {
		contentH--
	}
	max := len(lines) - contentH
	if max < 0 {
		max = 0
	}
	return max
}

// renderGraph renders the graph title bar followed by the scrollable
// adjacency content. The caller (View) renders the app header above and
// footer below; their heights are accounted for so the layout exactly
// fills the terminal.
func (g *GraphViewModel) renderGraph(app *App) string {
	width := app.width
	if width <= 0 {
		width = 80
	}
	height := app.height
	if height <= 0 {
		height = 24
	}

	titleBar := g.renderGraphTitle(width, app.coord.Options().GraphType)
	titleH := lipgloss.Height(titleBar)

	headerH := renderedHeight(renderHeader(app))
	alertH := renderedHeight(app.alert.view(width))
	footerH := renderedHeight(renderFooter(app))
	availH := height - headerH - alertH - titleH - footerH
	if availH < 1 {
		availH = 1
	}

	lines := g.contentLines(width)

	overflows := len(lines) > availH
	contentH := availH
	if overflows && contentH > 1 {
		contentH--
	}

	// Clamp the scroll offset read-only; model state is not mutated in View.
	maxOffset := len(lines) - contentH
	if maxOffset < 0 {
		maxOffset = 0
	}
	offset := g.scroll
	if offset > maxOffset {
		offset = maxOffset
	}

	end := offset + contentH
	if end > len(lines) {
		end = len(lines)
	}
	var visibleLines []string
	if offset < len(lines) {
		visibleLines = append(visibleLines, lines[offset:end]...)
	}

	for len(visibleLines) < contentH {
		visibleLines = append(visibleLines, "")
	}

	if overflows {
		var hint string
		if offset == 0 {
			hint = StyleDim.Render("  ↓ scroll for more")
		} else if offset >= maxOffset {
			hint = StyleDim.Render("  ↑ scroll up")
		} else {
			hint = StyleDim.Render("  ↑↓ scroll")
		}
		visibleLines = append(visibleLines, hint)
	}

	content := strings.Join(visibleLines, "\n")
	return titleBar + "\n" + content
}
