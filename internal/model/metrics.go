package model

import "github.com/dm/meshtop-go/internal/graph"

// GraphStats holds mesh-wide aggregates derived from one generated
// model, feeding the overview cards and the header.
type GraphStats struct {
	Namespaces int
	Workloads  int
	Apps       int
	Services   int
	Edges      int

	RequestRate  float64 // req/sec across all edges
	ErrorRate    float64 // error responses/sec across all edges
	ErrorPercent float64
	TCPRate      float64 // bytes/sec across all edges
	ResponseTime float64 // ms, rate-weighted over edges
	MTLSPercent  float64 // share of request traffic over mutual TLS

	Degraded int // nodes in degraded health
	Failing  int // nodes in failure health
}

// NodeRow holds display-ready data for a single row in the node table.
type NodeRow struct {
	ID          string
	Name        string
	Kind        string
	Namespace   string
	Cluster     string
	Health      graph.Health
	RequestRate float64 // req/sec
	ErrorPct    float64
	TCPRate     float64 // bytes/sec
	OutOfMesh   bool
	HasVS       bool
}

// EdgeRow holds display-ready data for a single row in the edge table.
type EdgeRow struct {
	ID           string
	Source       string
	Target       string
	Health       graph.Health
	RequestRate  float64 // req/sec
	ErrorPct     float64
	TCPRate      float64 // bytes/sec
	ResponseTime float64 // ms
	MTLSPercent  float64
}
