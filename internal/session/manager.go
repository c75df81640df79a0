// Package session keeps rectification sessions keyed by id and ties the
// confidence engine to the question selector.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/ppiankov/lagna/internal/metrics"
	"github.com/ppiankov/lagna/internal/model"
	"github.com/ppiankov/lagna/internal/question"
	"github.com/ppiankov/lagna/internal/rectify"
	"github.com/ppiankov/lagna/internal/worker"
)

var (
	// ErrSessionNotFound is returned for unknown, closed or expired ids
	ErrSessionNotFound = errors.New("session not found")
	// ErrRateLimited is returned when evidence arrives faster than allowed
	ErrRateLimited = errors.New("evidence submission rate exceeded")
)

type entry struct {
	session *rectify.Session
	closed  atomic.Bool
}

// Manager owns every live session. Sessions expire after the configured
// idle TTL.
type Manager struct {
	engine   *rectify.Engine
	grid     rectify.SnapshotGrid
	selector *question.Selector
	opts     model.ChartOptions
	store    *gocache.Cache
	limiter  *worker.Limiter
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the logger for session lifecycle events
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithMetrics records session activity
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

// NewManager creates a new session manager
func NewManager(cfg model.SessionConfig, engine *rectify.Engine, grid rectify.SnapshotGrid, selector *question.Selector, opts model.ChartOptions, options ...Option) *Manager {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	m := &Manager{
		engine:   engine,
		grid:     grid,
		selector: selector,
		opts:     opts,
		store:    gocache.New(ttl, cfg.TTL),
		limiter:  worker.NewLimiter(cfg.SubmissionsPerSecond, cfg.Burst),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range options {
		o(m)
	}
	m.store.OnEvicted(m.evicted)
	return m
}

func (m *Manager) evicted(id string, v interface{}) {
	e := v.(*entry)
	m.limiter.Forget(id)
	reason := "expired"
	if e.closed.Load() {
		reason = "closed"
	}
	m.metrics.SessionRemoved(reason)
	m.logger.Info("session removed", "session", id, "reason", reason)
}

// Create validates the query, builds the candidate grid and registers a new
// session. The session is only visible once its grid is complete.
func (m *Manager) Create(ctx context.Context, q model.BirthQuery) (model.ConfidenceState, error) {
	id := uuid.NewString()
	s, err := m.engine.Start(ctx, id, q, m.opts, m.grid)
	if err != nil {
		m.metrics.SessionFailed()
		m.logger.Warn("session not created", "error", err)
		return model.ConfidenceState{}, err
	}

	m.store.Set(id, &entry{session: s}, gocache.DefaultExpiration)
	m.metrics.SessionCreated()

	state := s.State()
	m.logger.Info("session created",
		"session", id,
		"candidates", len(state.Candidates),
		"window_start", state.Window.Start,
		"window_end", state.Window.End,
		"options", s.Options().String())
	return state, nil
}

// get looks up a session and renews its idle TTL
func (m *Manager) get(id string) (*entry, error) {
	v, ok := m.store.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	e := v.(*entry)
	m.store.Set(id, e, gocache.DefaultExpiration)
	return e, nil
}

// Apply applies one evidence item. A rejected item leaves the session unchanged.
func (m *Manager) Apply(ctx context.Context, id string, item model.EvidenceItem) (model.ConfidenceState, error) {
	e, err := m.get(id)
	if err != nil {
		return model.ConfidenceState{}, err
	}
	if !m.limiter.Allow(id) {
		m.metrics.EvidenceRejected(item.Tag)
		return e.session.State(), ErrRateLimited
	}

	return m.apply(ctx, id, e, item)
}

// ApplyWait is Apply, but waits for the submission limiter instead of
// failing immediately. It fails with ErrRateLimited if ctx ends first.
func (m *Manager) ApplyWait(ctx context.Context, id string, item model.EvidenceItem) (model.ConfidenceState, error) {
	e, err := m.get(id)
	if err != nil {
		return model.ConfidenceState{}, err
	}
	if err := m.limiter.Wait(ctx, id); err != nil {
		m.metrics.EvidenceRejected(item.Tag)
		return e.session.State(), fmt.Errorf("%w: %v", ErrRateLimited, err)
	}
	return m.apply(ctx, id, e, item)
}

func (m *Manager) apply(ctx context.Context, id string, e *entry, item model.EvidenceItem) (model.ConfidenceState, error) {
	state, err := e.session.Apply(ctx, item)
	if err != nil {
		m.metrics.EvidenceRejected(item.Tag)
		m.logger.Warn("evidence rejected", "session", id, "question", item.QuestionID, "tag", item.Tag, "error", err)
		return state, err
	}

	informative := state.Applied[len(state.Applied)-1].Informative
	m.metrics.EvidenceApplied(item.Tag, informative, state.Confidence)
	m.logger.Info("evidence applied",
		"session", id,
		"question", item.QuestionID,
		"tag", item.Tag,
		"informative", informative,
		"confidence", state.Confidence,
		"status", state.Status)
	return state, nil
}

// Next returns the most informative unasked question. When none is worth
// asking the session becomes exhausted and question.ErrNoMoreQuestions is
// returned.
func (m *Manager) Next(ctx context.Context, id string) (question.Choice, error) {
	e, err := m.get(id)
	if err != nil {
		return question.Choice{}, err
	}

	choice, err := m.selector.Next(ctx, e.session.State(), e.session.Snapshots())
	if errors.Is(err, question.ErrNoMoreQuestions) {
		state := e.session.Exhaust()
		m.logger.Info("session exhausted",
			"session", id,
			"evidence", len(state.Applied),
			"confidence", state.Confidence)
		return question.Choice{}, err
	}
	if err != nil {
		return question.Choice{}, err
	}

	m.metrics.QuestionSelected(choice.Question.ID)
	m.logger.Debug("question selected", "session", id, "question", choice.Question.ID, "gain", choice.Gain)
	return choice, nil
}

// Finish ends evidence collection for a session
func (m *Manager) Finish(id string) (model.ConfidenceState, error) {
	e, err := m.get(id)
	if err != nil {
		return model.ConfidenceState{}, err
	}
	state := e.session.Exhaust()
	m.logger.Info("session finished", "session", id, "confidence", state.Confidence)
	return state, nil
}

// State returns a copy of the session's current state
func (m *Manager) State(id string) (model.ConfidenceState, error) {
	e, err := m.get(id)
	if err != nil {
		return model.ConfidenceState{}, err
	}
	return e.session.State(), nil
}

// Brief returns the explanation brief of the session's current state
func (m *Manager) Brief(id string) (model.ExplanationBrief, error) {
	state, err := m.State(id)
	if err != nil {
		return model.ExplanationBrief{}, err
	}
	return state.Brief(), nil
}

// Close removes a session
func (m *Manager) Close(id string) error {
	v, ok := m.store.Get(id)
	if !ok {
		return ErrSessionNotFound
	}
	v.(*entry).closed.Store(true)
	m.store.Delete(id)
	return nil
}

// Len returns the number of live sessions, including expired ones not yet evicted
func (m *Manager) Len() int {
	return m.store.ItemCount()
}
