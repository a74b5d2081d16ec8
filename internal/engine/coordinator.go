package engine

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dm/meshtop-go/internal/graph"
)

// DefaultDebounceWindow is the coalescing window for view-state
// changes: qualifying triggers arriving within one window collapse
// into a single fetch.
const DefaultDebounceWindow = 10 * time.Millisecond

// State identifies the coordinator's position in its refresh cycle.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Notifier surfaces user-facing alert messages. Fire-and-forget; the
// coordinator never inspects the outcome.
type Notifier interface {
	Notify(message string)
}

// Action is a directive the coordinator hands back to the event loop.
// The coordinator owns all refresh state but never spawns goroutines
// or timers itself; the loop executes the returned action and reports
// the outcome through the corresponding coordinator method. A nil
// Action means there is nothing to do.
type Action interface {
	isAction()
}

// Debounce instructs the loop to arm the coalescing timer: after
// Window elapses it must call DebounceExpired with Gen. Superseded
// generations are recognized and ignored on expiry, so pending timers
// never need to be cancelled.
type Debounce struct {
	Gen    int
	Window time.Duration
}

// StartFetch instructs the loop to run the asynchronous telemetry
// fetch under Params and report the outcome via FetchSucceeded or
// FetchFailed, quoting Seq.
type StartFetch struct {
	Seq    uint64
	Params graph.QueryParams
}

// ModelReady reports that the coordinator replaced its Model without
// a fetch (the empty-namespace fast path). The loop should push the
// new Model to the renderer.
type ModelReady struct{}

func (Debounce) isAction()   {}
func (StartFetch) isAction() {}
func (ModelReady) isAction() {}

// Options are the display parameters applied to every generated
// model until changed. The view itself (namespace set, time window)
// lives on the coordinator and arrives through SetView.
type Options struct {
	GraphType graph.GraphType

	InjectServiceNodes  bool
	BoxByNamespace      bool
	BoxByCluster        bool
	ShowOutOfMesh       bool
	ShowSecurity        bool
	ShowVirtualServices bool

	EdgeLabels   []graph.EdgeLabelMode
	TrafficRates []graph.TrafficRateKind
}

// DefaultOptions returns the display defaults: versionedApp graph,
// service injection on, traffic-rate labels over all protocols.
func DefaultOptions() Options {
	return Options{
		GraphType:          graph.GraphTypeVersionedApp,
		InjectServiceNodes: true,
		EdgeLabels:         []graph.EdgeLabelMode{graph.EdgeLabelTrafficRate},
		TrafficRates:       []graph.TrafficRateKind{graph.RateHTTP, graph.RateGRPC, graph.RateTCP},
	}
}

// viewState is one (namespace set, time window) pair. key is the
// canonical set representation, so equal sets compare equal no matter
// how the caller ordered them.
type viewState struct {
	key      string
	names    []string
	duration time.Duration
}

// Coordinator decides when a new decoration+generation pass is
// warranted and sequences the asynchronous fetches that produce it.
//
// It is a plain state machine (Idle → Loading → Ready|Failed) driven
// by method calls from a single event loop; it holds the current
// Model and the view snapshot it was generated under, and exposes
// both read-only. Two counters keep bursts and races in order:
//
//   - a debounce generation, bumped on every qualifying trigger, so
//     that of N timers armed within the coalescing window only the
//     newest expiry proceeds to a fetch;
//   - a fetch sequence number, bumped per issued fetch, so that a
//     stale in-flight response can never overwrite a newer Model no
//     matter the order responses arrive in.
//
// All methods must be called from the same goroutine.
type Coordinator struct {
	window time.Duration
	alerts Notifier
	opts   Options

	state   State
	started bool

	view     viewState // most recently requested view; fetches run under this
	inflight viewState // view the latest issued fetch runs under
	applied  viewState // view the current Model was generated under
	model    graph.Model

	gen int
	seq uint64
}

// NewCoordinator builds a Coordinator reporting failures to alerts.
// A window <= 0 selects DefaultDebounceWindow.
func NewCoordinator(window time.Duration, alerts Notifier) *Coordinator {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Coordinator{
		window: window,
		alerts: alerts,
		opts:   DefaultOptions(),
		model:  graph.EmptyModel(),
	}
}

// State returns the coordinator's current state.
func (c *Coordinator) State() State {
	return c.state
}

// Model returns the current Model. Callers must treat it as
// read-only; it is replaced wholesale, never mutated in place.
func (c *Coordinator) Model() graph.Model {
	return c.model
}

// Options returns the display options currently in effect.
func (c *Coordinator) Options() Options {
	return c.opts
}

// View returns the most recently requested namespace set and window.
func (c *Coordinator) View() ([]string, time.Duration) {
	return append([]string(nil), c.view.names...), c.view.duration
}

// Applied returns the namespace set and window the current Model was
// generated under. It trails View while a fetch is pending.
func (c *Coordinator) Applied() ([]string, time.Duration) {
	return append([]string(nil), c.applied.names...), c.applied.duration
}

// SetView delivers a view-state change. It compares the namespace set
// by membership (order and duplicates are irrelevant) and the window
// by value; an unchanged view yields no action, anything else arms
// the debounce timer. The first call always triggers.
func (c *Coordinator) SetView(namespaces []string, duration time.Duration) Action {
	names := graph.NormalizeNamespaces(namespaces)
	key := graph.NamespaceSetKey(names)
	if c.started && key == c.view.key && duration == c.view.duration {
		return nil
	}
	c.started = true
	c.view = viewState{key: key, names: names, duration: duration}
	return c.trigger()
}

// SetOptions replaces the display options and arms the debounce timer
// so the next generation pass runs under them. Option changes ride
// the same pipeline as view changes; decorated data is never cached
// and re-generated.
func (c *Coordinator) SetOptions(opts Options) Action {
	c.opts = opts
	if !c.started {
		return nil
	}
	return c.trigger()
}

// ForceRefresh requests a fresh fetch of the current view (manual
// refresh key, auto-refresh tick). It goes through the same debounce
// so a refresh landing amid a burst of view changes still coalesces.
func (c *Coordinator) ForceRefresh() Action {
	if !c.started {
		return nil
	}
	return c.trigger()
}

func (c *Coordinator) trigger() Action {
	c.gen++
	return Debounce{Gen: c.gen, Window: c.window}
}

// DebounceExpired is called by the loop when a Debounce timer fires.
// Expiries of superseded generations return nil. The newest
// generation either issues a fetch or, when the namespace set is
// empty, completes synchronously with an empty Model: zero selected
// namespaces is a valid view, not an error, and costs no network
// round trip.
func (c *Coordinator) DebounceExpired(gen int) Action {
	if gen != c.gen {
		log.WithFields(log.Fields{"gen": gen, "latest": c.gen}).Debug("debounce superseded")
		return nil
	}

	if len(c.view.names) == 0 {
		// Bump the sequence so a still-in-flight fetch from a previous
		// view cannot land on top of the empty Model.
		c.seq++
		c.state = StateReady
		m := graph.EmptyModel()
		m.Config = graph.Config{GraphType: c.opts.GraphType, Duration: c.view.duration}
		c.model = m
		c.applied = c.view
		return ModelReady{}
	}

	c.state = StateLoading
	c.seq++
	c.inflight = c.view
	return StartFetch{Seq: c.seq, Params: c.params()}
}

// params assembles fresh QueryParams for the current view and
// options. A new value per fetch keeps in-flight fetches immune to
// later option changes.
func (c *Coordinator) params() graph.QueryParams {
	p := graph.NewQueryParams(c.view.names, c.opts.GraphType, c.view.duration)
	p.InjectServiceNodes = c.opts.InjectServiceNodes
	p.BoxByNamespace = c.opts.BoxByNamespace
	p.BoxByCluster = c.opts.BoxByCluster
	p.ShowOutOfMesh = c.opts.ShowOutOfMesh
	p.ShowSecurity = c.opts.ShowSecurity
	p.ShowVirtualServices = c.opts.ShowVirtualServices
	if len(c.opts.EdgeLabels) > 0 {
		p.EdgeLabels = append([]graph.EdgeLabelMode(nil), c.opts.EdgeLabels...)
	}
	if len(c.opts.TrafficRates) > 0 {
		p.TrafficRates = append([]graph.TrafficRateKind(nil), c.opts.TrafficRates...)
	}
	return p
}

// FetchSucceeded reports a completed fetch. Responses that are not
// the latest issued sequence are discarded without any state change
// and the method returns false. Otherwise the Model and the view
// snapshot it was generated under are replaced together and the
// coordinator transitions to Ready.
func (c *Coordinator) FetchSucceeded(seq uint64, m graph.Model) bool {
	if seq != c.seq {
		log.WithFields(log.Fields{"seq": seq, "latest": c.seq}).Debug("discarding stale fetch result")
		return false
	}
	c.state = StateReady
	c.model = m
	c.applied = c.inflight
	return true
}

// FetchFailed reports a failed fetch. Stale sequences are discarded
// exactly like stale successes. For the latest sequence the
// coordinator moves to Failed, keeps the last good Model so the view
// never blanks, and posts the failure to the alert sink. The next
// qualifying trigger retries as usual.
func (c *Coordinator) FetchFailed(seq uint64, err error) bool {
	if seq != c.seq {
		log.WithFields(log.Fields{"seq": seq, "latest": c.seq}).Debug("discarding stale fetch failure")
		return false
	}
	c.state = StateFailed
	log.WithError(err).Warn("graph fetch failed")
	if c.alerts != nil {
		c.alerts.Notify(fmt.Sprintf("Could not fetch services: %v", err))
	}
	return true
}
