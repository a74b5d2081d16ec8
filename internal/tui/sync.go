package tui

import "github.com/dm/meshtop-go/internal/graph"

// RenderController is the rendering surface generated models are pushed
// into. The terminal graph view implements it; the camera operations
// are driven by the view keys and are cheap no-ops for controllers that
// have no camera.
type RenderController interface {
	// ApplyModel replaces the rendered graph wholesale. animate marks
	// elements new since the previous model for one highlight pass.
	ApplyModel(m graph.Model, animate bool)
	ScaleBy(factor float64)
	Fit(padding float64)
	Reset()
	Relayout()
}

// fitPadding is the free space Fit leaves around the graph, in lines.
const fitPadding = 1

// visualSync pushes each new Model into the rendering controller.
// Routine refreshes apply without animation; the first Model after
// startup additionally gets a fit-to-screen pass so the initial graph
// arrives framed. No business logic lives here.
type visualSync struct {
	rc     RenderController
	fitted bool
}

func newVisualSync(rc RenderController) *visualSync {
	return &visualSync{rc: rc}
}

// Apply pushes m into the controller.
func (s *visualSync) Apply(m graph.Model, animate bool) {
	if s.rc == nil {
		return
	}
	s.rc.ApplyModel(m, animate)
	if !s.fitted {
		s.rc.Fit(fitPadding)
		s.fitted = true
	}
}
