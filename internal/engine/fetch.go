package engine

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/dm/meshtop-go/internal/client"
	"github.com/dm/meshtop-go/internal/graph"
	"github.com/dm/meshtop-go/internal/model"
)

// FetchGraphData runs one complete fetch pass for the given params:
// it pulls raw graph elements, decorates and generates the Model, and
// derives the display rows, stats, and findings. The mesh-wide TLS
// status is queried alongside; its failure is non-fatal (older console
// versions may not expose /api/mesh/tls) and leaves the field zero.
// A graph fetch or decoration failure returns the error and no
// snapshot.
func FetchGraphData(ctx context.Context, c client.MeshClient, params graph.QueryParams) (*model.GraphSnapshot, error) {
	var elements *client.GraphElements

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		elements, err = c.GetGraph(gctx, client.GraphQuery{
			Namespaces: params.Namespaces,
			Duration:   params.Duration,
			GraphType:  string(params.GraphType),
		})
		return err
	})

	// TLS status is non-fatal and runs outside the errgroup so a slow
	// or hung /api/mesh/tls call does not delay the graph. Uses the
	// parent ctx (not gctx) so the request is not prematurely cancelled
	// when the graph request completes. The buffered channel prevents a
	// goroutine leak regardless of whether the result is consumed.
	tlsCh := make(chan client.MeshTLSStatus, 1)
	go func() {
		tls, err := c.GetMeshTLS(ctx)
		if err != nil || tls == nil {
			log.WithError(err).Debug("mesh TLS status unavailable")
			tlsCh <- client.MeshTLSStatus{}
			return
		}
		tlsCh <- *tls
	}()

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if elements == nil {
		return nil, fmt.Errorf("FetchGraphData: incomplete response (unexpected nil)")
	}

	var tls client.MeshTLSStatus
	select {
	case tls = <-tlsCh:
	case <-ctx.Done():
	}

	// Prefer the window the telemetry source actually reports; counters
	// in the payload were accumulated over it, not over the requested
	// duration.
	window := time.Duration(elements.Duration) * time.Second
	if window <= 0 {
		window = params.Duration
	}

	data, err := graph.Decorate(*elements, window)
	if err != nil {
		return nil, err
	}
	m := graph.Generate(data, params)

	snap := &model.GraphSnapshot{
		Model:     m,
		TLS:       tls,
		NodeRows:  BuildNodeRows(m),
		EdgeRows:  BuildEdgeRows(m),
		Stats:     BuildStats(m),
		Findings:  BuildFindings(m, tls),
		Duration:  window,
		FetchedAt: time.Now(),
	}

	log.WithFields(log.Fields{
		"nodes":    len(m.Nodes),
		"edges":    len(m.Edges),
		"duration": window,
	}).Debug("graph snapshot built")

	return snap, nil
}
