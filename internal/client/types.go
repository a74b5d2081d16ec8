package client

// StatusInfo represents the response from /api/status.
type StatusInfo struct {
	Status map[string]string `json:"status"`
}

// NamespaceInfo represents a single entry from /api/namespaces.
type NamespaceInfo struct {
	Name    string            `json:"name"`
	Cluster string            `json:"cluster,omitempty"`
	Labels  map[string]string `json:"labels,omitempty"`
}

// MeshTLSStatus represents the response from /api/mesh/tls.
type MeshTLSStatus struct {
	Status          string `json:"status"`
	AutoMTLSEnabled bool   `json:"autoMTLSEnabled"`
}

// Mesh-wide TLS states reported by the console API.
const (
	MTLSEnabled          = "MTLS_ENABLED"
	MTLSPartiallyEnabled = "MTLS_PARTIALLY_ENABLED"
	MTLSNotEnabled       = "MTLS_NOT_ENABLED"
)

// GraphElements represents the response from /api/namespaces/graph.
// Duration is the reporting window in seconds; all traffic counters in
// the payload are accumulated over that window.
type GraphElements struct {
	Timestamp int64    `json:"timestamp"`
	Duration  int64    `json:"duration"`
	GraphType string   `json:"graphType"`
	Elements  Elements `json:"elements"`
}

// Elements holds the node and edge lists of a graph payload.
type Elements struct {
	Nodes []NodeWrapper `json:"nodes"`
	Edges []EdgeWrapper `json:"edges"`
}

// NodeWrapper wraps a node's data object, mirroring the wire envelope.
type NodeWrapper struct {
	Data NodeData `json:"data"`
}

// EdgeWrapper wraps an edge's data object, mirroring the wire envelope.
type EdgeWrapper struct {
	Data EdgeData `json:"data"`
}

// NodeData identifies one graph participant. Identity fields other than
// ID may be empty depending on NodeType; absent fields are tolerated.
type NodeData struct {
	ID        string `json:"id"`
	NodeType  string `json:"nodeType"`
	Cluster   string `json:"cluster,omitempty"`
	Namespace string `json:"namespace,omitempty"`
	Workload  string `json:"workload,omitempty"`
	App       string `json:"app,omitempty"`
	Version   string `json:"version,omitempty"`
	Service   string `json:"service,omitempty"`

	Traffic []TrafficEntry `json:"traffic,omitempty"`

	IsOutOfMesh bool `json:"isOutOfMesh,omitempty"`
	HasVS       bool `json:"hasVS,omitempty"`
}

// Node types as reported by the console API.
const (
	NodeTypeWorkload = "workload"
	NodeTypeApp      = "app"
	NodeTypeService  = "service"
)

// EdgeData describes directed traffic between two nodes. DestService
// names the service the traffic was addressed to when the mesh knows
// it; it is empty for direct workload-to-workload traffic.
type EdgeData struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`

	DestService          string `json:"destService,omitempty"`
	DestServiceNamespace string `json:"destServiceNamespace,omitempty"`

	Traffic TrafficEntry `json:"traffic,omitempty"`

	// ResponseTime is the average response time in milliseconds,
	// IsMTLS the share of mutually authenticated traffic in percent.
	// Both arrive as decimal strings and may be absent.
	ResponseTime string `json:"responseTime,omitempty"`
	IsMTLS       string `json:"isMTLS,omitempty"`
}

// TrafficEntry reports one protocol's counters accumulated over the
// reporting window. Counter values are decimal strings; absent or
// unparseable values are treated as zero by the consumer.
//
// Known counter keys: "requests" and "errors" for http/grpc,
// "sent" and "received" (bytes) for tcp.
type TrafficEntry struct {
	Protocol string            `json:"protocol,omitempty"`
	Counters map[string]string `json:"rates,omitempty"`
}
