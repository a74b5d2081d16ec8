package model

import (
	"time"

	"github.com/dm/meshtop-go/internal/client"
	"github.com/dm/meshtop-go/internal/graph"
)

// GraphSnapshot holds everything derived from one successful graph
// fetch: the generated model plus display-ready rows, summary stats,
// findings, and the mesh TLS status gathered alongside. A snapshot
// replaces its predecessor wholesale.
type GraphSnapshot struct {
	Model    graph.Model
	TLS      client.MeshTLSStatus
	NodeRows []NodeRow
	EdgeRows []EdgeRow
	Stats    GraphStats
	Findings []Finding

	Duration  time.Duration
	FetchedAt time.Time
}
