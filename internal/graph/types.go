package graph

import (
	"time"

	"github.com/dm/meshtop-go/internal/client"
)

// NodeKind classifies a model node.
type NodeKind string

const (
	KindWorkload NodeKind = "workload"
	KindApp      NodeKind = "app"
	KindService  NodeKind = "service"
	KindBox      NodeKind = "box"
)

// BoxType names the grouping boundary a box node represents.
type BoxType string

const (
	BoxCluster   BoxType = "cluster"
	BoxNamespace BoxType = "namespace"
)

// Health classifies a node or edge by its observed traffic. Elements
// without any traffic signal classify as HealthUnknown.
type Health int

const (
	HealthUnknown Health = iota
	HealthHealthy
	HealthDegraded
	HealthFailure
)

func (h Health) String() string {
	switch h {
	case HealthHealthy:
		return "healthy"
	case HealthDegraded:
		return "degraded"
	case HealthFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Traffic summarizes normalized per-second rates for one element.
// Request and error rates cover http and grpc; TCPRate is bytes/s.
type Traffic struct {
	RequestRate float64
	ErrorRate   float64
	HTTPRate    float64
	GRPCRate    float64
	TCPRate     float64
}

// Add accumulates o into t.
func (t *Traffic) Add(o Traffic) {
	t.RequestRate += o.RequestRate
	t.ErrorRate += o.ErrorRate
	t.HTTPRate += o.HTTPRate
	t.GRPCRate += o.GRPCRate
	t.TCPRate += o.TCPRate
}

// ErrorPercent returns the error share of the request rate in percent,
// or zero when there are no requests.
func (t Traffic) ErrorPercent() float64 {
	if t.RequestRate <= 0 {
		return 0
	}
	return t.ErrorRate / t.RequestRate * 100
}

// HasSignal reports whether any traffic was observed at all.
func (t Traffic) HasSignal() bool {
	return t.RequestRate > 0 || t.TCPRate > 0
}

// Node is one element of a generated Model. Box nodes carry BoxType
// and group ordinary nodes, which reference their enclosing box via
// Parent. Identity fields besides ID are informational and may be
// empty depending on Kind.
type Node struct {
	ID        string
	Kind      NodeKind
	Cluster   string
	Namespace string
	Workload  string
	App       string
	Version   string
	Service   string

	Parent string
	Box    BoxType

	Health  Health
	Traffic Traffic

	OutOfMesh         bool
	HasVirtualService bool
}

// Display returns the node's primary display name.
func (n Node) Display() string {
	switch n.Kind {
	case KindService:
		return n.Service
	case KindApp:
		if n.Version != "" {
			return n.App + " " + n.Version
		}
		return n.App
	case KindBox:
		if n.Box == BoxCluster {
			return n.Cluster
		}
		return n.Namespace
	default:
		return n.Workload
	}
}

// Edge is directed traffic between two Model nodes. Source and Target
// always reference node ids present in the same Model.
type Edge struct {
	Source string
	Target string

	Traffic      Traffic
	Health       Health
	ResponseTime float64
	MTLSPercent  float64

	Labels map[EdgeLabelMode]string
}

// Config records the parameters a Model was generated under.
type Config struct {
	GraphType GraphType
	Duration  time.Duration
	Timestamp int64
}

// Model is the rendering-ready graph. A new Model replaces the
// previous one wholesale on each successful fetch; consumers never
// merge old and new elements.
type Model struct {
	Nodes  []Node
	Edges  []Edge
	Config Config
}

// EmptyModel returns a Model with no elements, used for the
// zero-namespace fast path.
func EmptyModel() Model {
	return Model{Nodes: []Node{}, Edges: []Edge{}}
}

// DecoratedNode is a telemetry node annotated with normalized traffic
// and a health classification.
type DecoratedNode struct {
	Raw     client.NodeData
	Traffic Traffic
	Health  Health
}

// DecoratedEdge is a telemetry edge annotated with normalized traffic,
// health, and parsed response-time/mTLS values. Duplicate raw entries
// for one source/target pair are already merged.
type DecoratedEdge struct {
	Raw          client.EdgeData
	Traffic      Traffic
	Health       Health
	ResponseTime float64
	MTLSPercent  float64
}

// DecoratedData holds decorated telemetry for one reporting window.
// It is transient: Generate consumes it immediately and nothing
// retains it afterwards.
type DecoratedData struct {
	Nodes     []DecoratedNode
	Edges     []DecoratedEdge
	Duration  time.Duration
	Timestamp int64
	GraphType string
}
