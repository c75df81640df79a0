// Package rectify narrows an uncertain birth time by applying answered
// questions to a posterior over candidate instants.
package rectify

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ppiankov/lagna/internal/model"
)

// ErrSessionFinished is returned when evidence reaches an exhausted session
var ErrSessionFinished = errors.New("rectification session finished")

// Likelihood scores one answered question over candidate D1 snapshots
type Likelihood interface {
	Score(ctx context.Context, item model.EvidenceItem, candidates []model.ChartSnapshot) ([]float64, error)
}

// Engine applies evidence to confidence states. It holds no session state
// and is safe for concurrent use.
type Engine struct {
	cfg    model.RectificationConfig
	scorer Likelihood
}

// NewEngine creates a new engine
func NewEngine(cfg model.RectificationConfig, scorer Likelihood) *Engine {
	return &Engine{cfg: cfg, scorer: scorer}
}

// Config returns the engine's settings
func (e *Engine) Config() model.RectificationConfig {
	return e.cfg
}

// Initialize returns the uniform-prior state for a grid
func (e *Engine) Initialize(id string, g Grid) model.ConfidenceState {
	s := model.ConfidenceState{
		SessionID:  id,
		Status:     model.StatusInitialized,
		Window:     g.Window,
		Reported:   g.Reported,
		Candidates: make([]model.CandidateWeight, g.Len()),
	}
	for i, t := range g.Instants {
		s.Candidates[i] = model.CandidateWeight{
			Instant:  t,
			Weight:   1 / float64(g.Len()),
			InWindow: g.InWindow[i],
		}
	}
	e.summarize(&s)
	return s
}

// Apply scores item against the candidates and returns the updated state.
// On error the input state is returned unchanged alongside the error; the
// caller's state is never modified in either case.
func (e *Engine) Apply(ctx context.Context, state model.ConfidenceState, candidates []model.ChartSnapshot, item model.EvidenceItem) (model.ConfidenceState, error) {
	if state.Terminal() {
		return state, ErrSessionFinished
	}
	if len(candidates) != len(state.Candidates) {
		return state, fmt.Errorf("state has %d candidates, got %d snapshots", len(state.Candidates), len(candidates))
	}

	curve, err := e.scorer.Score(ctx, item, candidates)
	if err != nil {
		return state, err
	}
	if err := ctx.Err(); err != nil {
		return state, err
	}

	next := state.Clone()
	weights, informative := Update(Weights(state), curve)
	for i := range next.Candidates {
		next.Candidates[i].Weight = weights[i]
	}
	next.Applied = append(next.Applied, model.AppliedEvidence{
		Item:             item,
		Informative:      informative,
		ConfidenceBefore: state.Confidence,
	})
	e.summarize(&next)
	next.Applied[len(next.Applied)-1].ConfidenceAfter = next.Confidence
	return next, nil
}

// Exhaust marks a state as terminal once no question is left to ask
func (e *Engine) Exhaust(state model.ConfidenceState) model.ConfidenceState {
	next := state.Clone()
	next.Status = model.StatusExhausted
	return next
}

// summarize recomputes every derived field of s from its candidate weights
func (e *Engine) summarize(s *model.ConfidenceState) {
	all := make([]float64, len(s.Candidates))
	allTimes := make([]time.Time, len(s.Candidates))
	var inWeights []float64
	var inTimes []time.Time
	for i, c := range s.Candidates {
		all[i] = c.Weight
		allTimes[i] = c.Instant
		if c.InWindow {
			inWeights = append(inWeights, c.Weight)
			inTimes = append(inTimes, c.Instant)
		}
	}

	s.Confidence = Concentration(inWeights)
	s.Credible = credibleSpan(inTimes, inWeights, e.cfg.CredibleMass)

	s.BoundaryClamped = false
	if len(all) > 0 {
		best := s.Candidates[argmax(allTimes, all, s.Reported)].Instant
		switch {
		case best.Before(s.Window.Start):
			best, s.BoundaryClamped = s.Window.Start, true
		case best.After(s.Window.End):
			best, s.BoundaryClamped = s.Window.End, true
		}
		s.BestEstimate = best
	}
	if s.BoundaryClamped {
		s.Confidence = math.Min(s.Confidence, e.cfg.ClampedConfidenceCap)
	}
	s.Reliability = model.ReliabilityFor(s.Confidence)

	switch {
	case s.Status == model.StatusExhausted:
	case len(s.Applied) == 0:
		s.Status = model.StatusInitialized
	case e.converged(s):
		s.Status = model.StatusConverged
	default:
		s.Status = model.StatusAccumulating
	}
}

func (e *Engine) converged(s *model.ConfidenceState) bool {
	if s.Confidence >= e.cfg.ConvergenceThreshold {
		return true
	}
	return !s.BoundaryClamped && e.cfg.WidthTolerance > 0 && s.Credible.Duration() <= e.cfg.WidthTolerance
}
