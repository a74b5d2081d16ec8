package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dm/meshtop-go/internal/client"
	"github.com/dm/meshtop-go/internal/engine"
	"github.com/dm/meshtop-go/internal/graph"
	"github.com/dm/meshtop-go/internal/model"
)

// DefaultRefreshInterval is the auto-refresh period when none is
// configured.
const DefaultRefreshInterval = 10 * time.Second

type connState int

const (
	stateConnected    connState = iota // last fetch succeeded
	stateDegraded                      // 1-2 consecutive failures, data is stale
	stateDisconnected                  // 3+ consecutive failures, or never connected
)

// screen identifies one of the tabbed console screens.
type screen int

const (
	screenGraph screen = iota
	screenNodes
	screenEdges
	screenOverview
	screenFindings
	screenCount
)

// Config carries the startup parameters for the console.
type Config struct {
	RefreshEvery time.Duration
	Window       time.Duration
	Namespaces   []string
	GraphType    graph.GraphType
}

// App is the root Bubble Tea model for meshtop.
type App struct {
	client       client.MeshClient
	coord        *engine.Coordinator
	refreshEvery time.Duration

	// View state: the namespace set and traffic window fetches run under.
	window   time.Duration
	selected []string

	// Namespace discovery
	namespaces    []client.NamespaceInfo
	nsNonce       int
	nsInitialized bool

	// Snapshot state
	current    *model.GraphSnapshot
	history    *model.TrafficHistory
	appliedKey string // namespace-set key the current snapshot was generated under
	hasApplied bool
	tickGen    int

	// Connection state
	consecutiveFails int
	lastError        error
	lastUpdated      time.Time
	connState        connState

	// Layout
	width, height int

	// UI state
	screen               screen
	graphView            GraphViewModel
	nodeTable            NodeTableModel
	edgeTable            EdgeTableModel
	findingsScrollOffset int
	selectMode           bool
	selector             NamespaceSelectModel
	sync                 *visualSync
	alert                alertModel
	showHelp             bool
}

// NewApp creates the root model connected to the given console client.
// Zero config fields fall back to defaults; an empty Namespaces list
// means "select everything discovery finds".
func NewApp(c client.MeshClient, cfg Config) *App {
	if cfg.RefreshEvery <= 0 {
		cfg.RefreshEvery = DefaultRefreshInterval
	}
	if cfg.Window <= 0 {
		cfg.Window = graph.DefaultDuration
	}

	app := &App{
		client:       c,
		refreshEvery: cfg.RefreshEvery,
		window:       cfg.Window,
		selected:     graph.NormalizeNamespaces(cfg.Namespaces),
		history:      model.NewTrafficHistory(0),
		graphView:    NewGraphView(),
		nodeTable:    NewNodeTable(),
		edgeTable:    NewEdgeTable(),
		connState:    stateDisconnected,
	}
	app.coord = engine.NewCoordinator(0, &app.alert)
	opts := engine.DefaultOptions()
	if cfg.GraphType != "" {
		opts.GraphType = cfg.GraphType
	}
	app.coord.SetOptions(opts)
	app.sync = newVisualSync(&app.graphView)
	return app
}

// Init implements tea.Model. Discovery runs first; the initial graph
// fetch is gated on knowing which namespaces exist.
func (app *App) Init() tea.Cmd {
	app.nsNonce++
	return namespacesCmd(app.client, app.nsNonce)
}

// Update implements tea.Model — the single state-mutation entry point.
func (app *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		app.width = msg.Width
		app.height = msg.Height
		app.graphView.SetSize(msg.Width, msg.Height)

	case NamespacesMsg:
		return app.handleNamespaces(msg)

	case DebounceMsg:
		return app, app.executeAction(app.coord.DebounceExpired(msg.Gen))

	case GraphResultMsg:
		if !app.coord.FetchSucceeded(msg.Seq, msg.Snapshot.Model) {
			return app, nil
		}
		app.applySnapshot(msg.Snapshot)
		return app, app.scheduleRefresh()

	case GraphErrorMsg:
		if !app.coord.FetchFailed(msg.Seq, msg.Err) {
			return app, nil
		}
		app.consecutiveFails++
		app.lastError = msg.Err
		app.updateConnState()
		return app, tea.Batch(app.alert.expireCmd(), app.scheduleBackoff())

	case RefreshTickMsg:
		if msg.Gen != app.tickGen {
			return app, nil
		}
		if !app.nsInitialized {
			app.nsNonce++
			return app, namespacesCmd(app.client, app.nsNonce)
		}
		if app.coord.State() == engine.StateLoading {
			// A fetch is already in flight; its completion re-arms the timer.
			return app, nil
		}
		return app, app.executeAction(app.coord.ForceRefresh())

	case AlertExpireMsg:
		app.alert.expire(msg.ID)
		return app, nil

	case tea.KeyMsg:
		return app.handleKey(msg)
	}

	return app, nil
}

// handleNamespaces applies a discovery result. Stale nonces are
// dropped. The first successful discovery installs the default
// selection and starts the fetch pipeline; later ones only refresh the
// picker and the header counts.
func (app *App) handleNamespaces(msg NamespacesMsg) (tea.Model, tea.Cmd) {
	if msg.Nonce != app.nsNonce {
		return app, nil
	}

	if msg.Err != nil {
		app.lastError = msg.Err
		if app.selectMode {
			app.selector.loading = false
			app.selector.loadErr = msg.Err.Error()
		}
		app.alert.Notify("Could not fetch namespaces: " + msg.Err.Error())
		cmds := []tea.Cmd{app.alert.expireCmd()}
		if !app.nsInitialized {
			// Discovery gates the first fetch; keep retrying with backoff
			// until it succeeds.
			app.consecutiveFails++
			app.updateConnState()
			cmds = append(cmds, app.scheduleBackoff())
		}
		return app, tea.Batch(cmds...)
	}

	first := !app.nsInitialized
	app.nsInitialized = true
	app.namespaces = msg.Infos

	if app.selectMode {
		// Preserve in-progress toggles when the picker is already open.
		preserved := app.selector.checkedNames()
		if app.selector.loading {
			preserved = app.selected
		}
		app.selector.setNamespaces(msg.Infos, preserved)
	}

	if first {
		if len(app.selected) == 0 {
			app.selected = namespaceNames(msg.Infos)
		}
		return app, app.executeAction(app.coord.SetView(app.selected, app.window))
	}
	return app, nil
}

// handleKey dispatches a key press: overlay first, then open search
// prompts, then globals, then the active screen.
func (app *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The namespace picker captures every key while open.
	if app.selectMode {
		var cmd tea.Cmd
		app.selector, cmd = app.selector.Update(msg)
		if app.selector.cancelled {
			app.selector.cancelled = false
			app.selectMode = false
			return app, nil
		}
		if app.selector.applied {
			app.selector.applied = false
			app.selectMode = false
			app.selected = app.selector.checkedNames()
			return app, app.executeAction(app.coord.SetView(app.selected, app.window))
		}
		return app, cmd
	}

	// While a table search prompt is open every key belongs to the
	// table, so "q" can be typed into the filter.
	if app.screen == screenNodes && app.nodeTable.searching {
		var cmd tea.Cmd
		app.nodeTable, cmd = app.nodeTable.Update(msg)
		return app, cmd
	}
	if app.screen == screenEdges && app.edgeTable.searching {
		var cmd tea.Cmd
		app.edgeTable, cmd = app.edgeTable.Update(msg)
		return app, cmd
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return app, tea.Quit

	case key.Matches(msg, keys.Help):
		app.showHelp = !app.showHelp
		return app, nil

	case key.Matches(msg, keys.Refresh):
		return app, app.executeAction(app.coord.ForceRefresh())

	case key.Matches(msg, keys.Tab):
		app.setScreen((app.screen + 1) % screenCount)
		return app, nil

	case key.Matches(msg, keys.ShiftTab):
		app.setScreen((app.screen + screenCount - 1) % screenCount)
		return app, nil

	case key.Matches(msg, keys.Namespaces):
		app.selectMode = true
		app.selector = newNamespaceSelect()
		if app.nsInitialized {
			app.selector.setNamespaces(app.namespaces, app.selected)
		}
		// Re-run discovery so the picker reflects namespaces created
		// since the last refresh.
		app.nsNonce++
		return app, namespacesCmd(app.client, app.nsNonce)

	case key.Matches(msg, keys.Window):
		app.window = nextWindow(app.window)
		return app, app.executeAction(app.coord.SetView(app.selected, app.window))

	case key.Matches(msg, keys.GraphMode):
		opts := app.coord.Options()
		opts.GraphType = nextGraphType(opts.GraphType)
		return app, app.executeAction(app.coord.SetOptions(opts))

	case key.Matches(msg, keys.Inject):
		opts := app.coord.Options()
		opts.InjectServiceNodes = !opts.InjectServiceNodes
		return app, app.executeAction(app.coord.SetOptions(opts))

	case key.Matches(msg, keys.BoxNamespace):
		opts := app.coord.Options()
		opts.BoxByNamespace = !opts.BoxByNamespace
		return app, app.executeAction(app.coord.SetOptions(opts))

	case key.Matches(msg, keys.BoxCluster):
		opts := app.coord.Options()
		opts.BoxByCluster = !opts.BoxByCluster
		return app, app.executeAction(app.coord.SetOptions(opts))

	case key.Matches(msg, keys.OutOfMesh):
		opts := app.coord.Options()
		opts.ShowOutOfMesh = !opts.ShowOutOfMesh
		return app, app.executeAction(app.coord.SetOptions(opts))

	case key.Matches(msg, keys.Security):
		opts := app.coord.Options()
		opts.ShowSecurity = !opts.ShowSecurity
		opts.EdgeLabels = edgeLabelsFor(opts)
		return app, app.executeAction(app.coord.SetOptions(opts))

	case key.Matches(msg, keys.VirtualServices):
		opts := app.coord.Options()
		opts.ShowVirtualServices = !opts.ShowVirtualServices
		return app, app.executeAction(app.coord.SetOptions(opts))
	}

	switch app.screen {
	case screenGraph:
		switch {
		case key.Matches(msg, keys.Up):
			app.graphView.ScrollBy(-1, graphMaxOffset(app))
		case key.Matches(msg, keys.Down):
			app.graphView.ScrollBy(1, graphMaxOffset(app))
		case key.Matches(msg, keys.ZoomIn):
			app.graphView.ScaleBy(2)
		case key.Matches(msg, keys.ZoomOut):
			app.graphView.ScaleBy(0.5)
		case key.Matches(msg, keys.FitView):
			app.graphView.Fit(fitPadding)
		case key.Matches(msg, keys.ResetView):
			app.graphView.Reset()
		case key.Matches(msg, keys.Relayout):
			app.graphView.Relayout()
		}
		return app, nil

	case screenNodes:
		var cmd tea.Cmd
		app.nodeTable, cmd = app.nodeTable.Update(msg)
		return app, cmd

	case screenEdges:
		var cmd tea.Cmd
		app.edgeTable, cmd = app.edgeTable.Update(msg)
		return app, cmd

	case screenFindings:
		switch {
		case key.Matches(msg, keys.Up):
			if app.findingsScrollOffset > 0 {
				app.findingsScrollOffset--
			}
		case key.Matches(msg, keys.Down):
			app.findingsScrollOffset++
			if max := findingsMaxOffset(app); app.findingsScrollOffset > max {
				app.findingsScrollOffset = max
			}
		}
		return app, nil
	}

	return app, nil
}

// setScreen activates a screen and moves table focus with it.
func (app *App) setScreen(s screen) {
	app.screen = s
	app.nodeTable.focused = s == screenNodes
	app.edgeTable.focused = s == screenEdges
}

// executeAction runs a coordinator directive: arm the debounce timer,
// start the fetch goroutine, or push a synchronously produced Model to
// the renderer. Nil actions are no-ops.
func (app *App) executeAction(action engine.Action) tea.Cmd {
	switch a := action.(type) {
	case engine.Debounce:
		gen := a.Gen
		return tea.Tick(a.Window, func(time.Time) tea.Msg {
			return DebounceMsg{Gen: gen}
		})

	case engine.StartFetch:
		return fetchCmd(app.client, a.Seq, a.Params, app.refreshEvery)

	case engine.ModelReady:
		// Empty-namespace fast path: the coordinator produced the Model
		// synchronously, so derive the snapshot inline.
		m := app.coord.Model()
		snap := &model.GraphSnapshot{
			Model:     m,
			NodeRows:  engine.BuildNodeRows(m),
			EdgeRows:  engine.BuildEdgeRows(m),
			Stats:     engine.BuildStats(m),
			Findings:  engine.BuildFindings(m, client.MeshTLSStatus{}),
			Duration:  m.Config.Duration,
			FetchedAt: time.Now(),
		}
		app.applySnapshot(snap)
		return app.scheduleRefresh()

	default:
		return nil
	}
}

// applySnapshot installs a fresh snapshot: tables, history, renderer,
// and connection bookkeeping. The renderer animates only when the
// namespace set changed relative to the previous snapshot.
func (app *App) applySnapshot(snap *model.GraphSnapshot) {
	names, _ := app.coord.Applied()
	key := graph.NamespaceSetKey(names)
	animate := app.hasApplied && key != app.appliedKey
	app.appliedKey = key
	app.hasApplied = true

	app.current = snap
	app.nodeTable.SetData(snap.NodeRows)
	app.edgeTable.SetData(snap.EdgeRows)

	// Rates in the payload are normalized by the telemetry source over
	// its reporting window, so the first point is already valid.
	app.history.Push(model.TrafficPoint{
		Timestamp:    snap.FetchedAt,
		RequestRate:  snap.Stats.RequestRate,
		ErrorRate:    snap.Stats.ErrorRate,
		TCPRate:      snap.Stats.TCPRate,
		ResponseTime: snap.Stats.ResponseTime,
	})

	app.sync.Apply(snap.Model, animate)

	app.consecutiveFails = 0
	app.lastError = nil
	app.connState = stateConnected
	app.lastUpdated = snap.FetchedAt
}

// updateConnState maps the consecutive-failure count onto the
// connection indicator. Only failures call this; success resets
// directly in applySnapshot.
func (app *App) updateConnState() {
	switch {
	case app.consecutiveFails == 0:
		app.connState = stateConnected
	case app.consecutiveFails < 3:
		app.connState = stateDegraded
	default:
		app.connState = stateDisconnected
	}
}

// scheduleRefresh arms the auto-refresh timer. Bumping tickGen
// invalidates every previously armed timer so overlapping schedules
// collapse to the newest one.
func (app *App) scheduleRefresh() tea.Cmd {
	app.tickGen++
	gen := app.tickGen
	return tea.Tick(app.refreshEvery, func(time.Time) tea.Msg {
		return RefreshTickMsg{Gen: gen}
	})
}

// scheduleBackoff arms the retry timer after a failure, growing the
// delay with the consecutive-failure count.
func (app *App) scheduleBackoff() tea.Cmd {
	app.tickGen++
	gen := app.tickGen
	return tea.Tick(backoffDuration(app.consecutiveFails), func(time.Time) tea.Msg {
		return RefreshTickMsg{Gen: gen}
	})
}

// View implements tea.Model. Renders the full TUI.
func (app *App) View() string {
	var parts []string

	if h := renderHeader(app); h != "" {
		parts = append(parts, h)
	}
	if a := app.alert.view(app.width); a != "" {
		parts = append(parts, a)
	}

	if app.selectMode {
		parts = append(parts, renderNamespaceSelect(app))
		parts = append(parts, renderFooter(app))
		return strings.Join(parts, "\n")
	}

	switch app.screen {
	case screenNodes:
		parts = append(parts, app.nodeTable.renderTable(app))
	case screenEdges:
		parts = append(parts, app.edgeTable.renderTable(app))
	case screenOverview:
		if o := renderOverview(app); o != "" {
			parts = append(parts, o)
		}
		if m := renderMetricsRow(app); m != "" {
			parts = append(parts, m)
		}
	case screenFindings:
		parts = append(parts, renderFindings(app))
	default:
		parts = append(parts, app.graphView.renderGraph(app))
	}

	parts = append(parts, renderFooter(app))
	return strings.Join(parts, "\n")
}

// renderedHeight returns the number of terminal rows a rendered block
// occupies; empty blocks occupy none.
func renderedHeight(s string) int {
	if s == "" {
		return 0
	}
	return lipgloss.Height(s)
}

// namespacesCmd runs namespace discovery and reports through
// NamespacesMsg quoting nonce.
func namespacesCmd(c client.MeshClient, nonce int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		infos, err := c.GetNamespaces(ctx)
		return NamespacesMsg{Nonce: nonce, Infos: infos, Err: err}
	}
}

// fetchCmd is a Bubble Tea command that runs one full graph fetch and
// returns a GraphResultMsg or GraphErrorMsg quoting seq. The timeout
// leaves headroom so a hung request resolves before the next refresh
// is due.
func fetchCmd(c client.MeshClient, seq uint64, params graph.QueryParams, interval time.Duration) tea.Cmd {
	return func() tea.Msg {
		timeout := interval - 500*time.Millisecond
		if timeout < 500*time.Millisecond {
			timeout = 500 * time.Millisecond
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		snap, err := engine.FetchGraphData(ctx, c, params)
		if err != nil {
			return GraphErrorMsg{Seq: seq, Err: err}
		}
		return GraphResultMsg{Seq: seq, Snapshot: snap}
	}
}

// backoffDuration returns min(2^fails * time.Second, 60*time.Second).
// At fails=1: 2s, fails=2: 4s, fails=3: 8s, ..., fails>=6: 60s.
func backoffDuration(fails int) time.Duration {
	const maxBackoff = 60 * time.Second
	if fails <= 0 {
		return time.Second
	}
	if fails >= 6 {
		return maxBackoff
	}
	return time.Duration(1<<fails) * time.Second
}

// windowCycle is the ordered set of traffic windows the "d" key steps
// through.
var windowCycle = []time.Duration{
	time.Minute,
	5 * time.Minute,
	10 * time.Minute,
	30 * time.Minute,
	time.Hour,
	3 * time.Hour,
	6 * time.Hour,
}

// nextWindow returns the cycle entry after d, wrapping. Unknown values
// restart the cycle.
func nextWindow(d time.Duration) time.Duration {
	for i, w := range windowCycle {
		if w == d {
			return windowCycle[(i+1)%len(windowCycle)]
		}
	}
	return windowCycle[0]
}

// nextGraphType steps workload → app → versionedApp → service.
func nextGraphType(t graph.GraphType) graph.GraphType {
	switch t {
	case graph.GraphTypeWorkload:
		return graph.GraphTypeApp
	case graph.GraphTypeApp:
		return graph.GraphTypeVersionedApp
	case graph.GraphTypeVersionedApp:
		return graph.GraphTypeService
	default:
		return graph.GraphTypeWorkload
	}
}

// edgeLabelsFor derives the edge label set from the display toggles:
// traffic rates always, security when enabled.
func edgeLabelsFor(opts engine.Options) []graph.EdgeLabelMode {
	labels := []graph.EdgeLabelMode{graph.EdgeLabelTrafficRate}
	if opts.ShowSecurity {
		labels = append(labels, graph.EdgeLabelSecurity)
	}
	return labels
}

// namespaceNames extracts the plain name list from discovery results.
func namespaceNames(infos []client.NamespaceInfo) []string {
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name)
	}
	return names
}
