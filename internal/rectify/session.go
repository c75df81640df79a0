package rectify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ppiankov/lagna/internal/model"
	"github.com/ppiankov/lagna/internal/validate"
)

// SnapshotGrid builds one D1 snapshot per candidate instant
type SnapshotGrid interface {
	Build(ctx context.Context, instants []time.Time, lat, lon float64, opts model.ChartOptions) ([]model.ChartSnapshot, error)
}

// Session owns one ConfidenceState. Evidence is applied one item at a time
// in submission order; readers always see a fully applied state.
type Session struct {
	mu        sync.Mutex
	engine    *Engine
	state     model.ConfidenceState
	snapshots []model.ChartSnapshot
	opts      model.ChartOptions
}

// Start validates the query, builds the candidate grid and returns a new
// session. No session exists unless every candidate snapshot was built.
func (e *Engine) Start(ctx context.Context, id string, q model.BirthQuery, opts model.ChartOptions, grid SnapshotGrid) (*Session, error) {
	if err := validate.Query(q); err != nil {
		return nil, err
	}
	merged, err := opts.Merge(q)
	if err != nil {
		return nil, err
	}
	// Candidates are always compared on the natal chart
	merged.Division = model.D1

	g, err := NewGrid(q, e.cfg)
	if err != nil {
		return nil, err
	}
	snaps, err := grid.Build(ctx, g.Instants, q.Latitude, q.Longitude, merged)
	if err != nil {
		return nil, fmt.Errorf("build candidate grid: %w", err)
	}
	return NewSession(e, e.Initialize(id, g), snaps, merged)
}

// NewSession wraps an initialized state and its candidate snapshots
func NewSession(engine *Engine, state model.ConfidenceState, snapshots []model.ChartSnapshot, opts model.ChartOptions) (*Session, error) {
	if len(snapshots) != len(state.Candidates) {
		return nil, fmt.Errorf("state has %d candidates, got %d snapshots", len(state.Candidates), len(snapshots))
	}
	return &Session{engine: engine, state: state, snapshots: snapshots, opts: opts}, nil
}

// Apply applies one item and returns the resulting state. On error the
// session keeps its previous state.
func (s *Session) Apply(ctx context.Context, item model.EvidenceItem) (model.ConfidenceState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.engine.Apply(ctx, s.state, s.snapshots, item)
	if err != nil {
		return s.state.Clone(), err
	}
	s.state = next
	return next.Clone(), nil
}

// Exhaust moves the session to its terminal state
func (s *Session) Exhaust() model.ConfidenceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = s.engine.Exhaust(s.state)
	return s.state.Clone()
}

// State returns a copy of the current state
func (s *Session) State() model.ConfidenceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Snapshots returns the candidate D1 snapshots, in candidate order. They
// are shared and must not be modified.
func (s *Session) Snapshots() []model.ChartSnapshot {
	return s.snapshots
}

// Options returns the chart options the candidates were built with
func (s *Session) Options() model.ChartOptions {
	return s.opts
}
