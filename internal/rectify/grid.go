package rectify

import (
	"fmt"
	"time"

	"github.com/ppiankov/lagna/internal/model"
)

// Grid is the discretized set of candidate birth instants for one query
type Grid struct {
	Window   model.Span  // Declared uncertainty window, UTC
	Reported time.Time   // Reported birth instant, UTC
	Instants []time.Time // Ascending
	InWindow []bool      // False for boundary probes outside Window
}

// Len returns the number of candidates
func (g Grid) Len() int {
	return len(g.Instants)
}

// NewGrid lays candidates every cfg.Resolution across the query's window,
// extended by cfg.BoundaryProbe on both sides. Without a declared window the
// reported time ± cfg.DefaultHalfWindow is used.
func NewGrid(q model.BirthQuery, cfg model.RectificationConfig) (Grid, error) {
	reported, err := q.Instant()
	if err != nil {
		return Grid{}, err
	}
	start, end, ok, err := q.WindowBounds()
	if err != nil {
		return Grid{}, err
	}
	if !ok {
		start, end = reported.Add(-cfg.DefaultHalfWindow), reported.Add(cfg.DefaultHalfWindow)
	}
	if start.After(end) {
		return Grid{}, model.NewValidationError("window", "", "start must not be after end")
	}

	step := cfg.Resolution
	if step <= 0 {
		step = time.Minute
	}
	probes := int(cfg.BoundaryProbe / step)

	var inside []time.Time
	for t := start; !t.After(end); t = t.Add(step) {
		inside = append(inside, t)
	}
	if last := inside[len(inside)-1]; last.Before(end) {
		inside = append(inside, end)
	}

	total := len(inside) + 2*probes
	if cfg.MaxCandidates > 0 && total > cfg.MaxCandidates {
		return Grid{}, model.NewValidationError("window",
			fmt.Sprintf("%s..%s", start.Format(time.RFC3339), end.Format(time.RFC3339)),
			fmt.Sprintf("needs %d candidates at %s resolution, limit is %d", total, step, cfg.MaxCandidates))
	}

	g := Grid{
		Window:   model.Span{Start: start, End: end},
		Reported: reported,
		Instants: make([]time.Time, 0, total),
		InWindow: make([]bool, 0, total),
	}
	for k := probes; k >= 1; k-- {
		g.Instants = append(g.Instants, start.Add(-time.Duration(k)*step))
		g.InWindow = append(g.InWindow, false)
	}
	for _, t := range inside {
		g.Instants = append(g.Instants, t)
		g.InWindow = append(g.InWindow, true)
	}
	for k := 1; k <= probes; k++ {
		g.Instants = append(g.Instants, end.Add(time.Duration(k)*step))
		g.InWindow = append(g.InWindow, false)
	}
	return g, nil
}
