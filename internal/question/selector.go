// Package question picks the next rectification question by expected
// information gain over the current posterior.
package question

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/lagna/internal/model"
	"github.com/ppiankov/lagna/internal/rectify"
	"github.com/ppiankov/lagna/internal/score"
)

// ErrNoMoreQuestions is returned when no remaining question is worth asking
var ErrNoMoreQuestions = errors.New("no informative questions remain")

// Simulator predicts the posterior updates each answer to a question would cause
type Simulator interface {
	Outcomes(tag model.EventTag, weight float64, posterior []float64, candidates []model.ChartSnapshot) ([]score.Outcome, error)
}

// Choice is a selected question with its expected entropy reduction in nats
type Choice struct {
	Question  Question `json:"question"`
	Gain      float64  `json:"gain"`
	Clarifies string   `json:"clarifies,omitempty"` // Id of the answer that lowered confidence
}

// Selector ranks the bank against a session's posterior
type Selector struct {
	bank    []Question
	sim     Simulator
	cfg     model.QuestionConfig
	workers int
}

// NewSelector creates a selector over a question bank
func NewSelector(bank []Question, sim Simulator, cfg model.QuestionConfig, workers int) *Selector {
	if workers < 1 {
		workers = 1
	}
	return &Selector{bank: bank, sim: sim, cfg: cfg, workers: workers}
}

// Bank returns the questions the selector draws from
func (s *Selector) Bank() []Question {
	return slices.Clone(s.bank)
}

// Next returns the unasked question with the highest expected information
// gain. Questions whose factor the posterior already settles are skipped.
// Ties go to the question listed first in the bank.
//
// When the last answer lowered confidence, the best question on the same
// factor is asked instead, provided it clears the minimum gain.
func (s *Selector) Next(ctx context.Context, state model.ConfidenceState, candidates []model.ChartSnapshot) (Choice, error) {
	if state.Terminal() {
		return Choice{}, rectify.ErrSessionFinished
	}
	posterior := rectify.Weights(state)
	if len(posterior) != len(candidates) {
		return Choice{}, fmt.Errorf("state has %d candidates, grid has %d", len(posterior), len(candidates))
	}

	ranked, err := s.Rank(ctx, state, candidates)
	if err != nil {
		return Choice{}, err
	}
	if len(ranked) == 0 || ranked[0].Gain < s.cfg.MinGain {
		return Choice{}, ErrNoMoreQuestions
	}
	if last, ok := state.Contradicted(); ok {
		if c, ok := s.clarify(ranked, last.Item); ok {
			return c, nil
		}
	}
	return ranked[0], nil
}

// clarify picks the best ranked question sharing the contradicted item's factor
func (s *Selector) clarify(ranked []Choice, item model.EvidenceItem) (Choice, bool) {
	factor, ok := s.factorOf(item)
	if !ok {
		return Choice{}, false
	}
	for _, c := range ranked {
		if c.Gain < s.cfg.MinGain {
			break
		}
		if c.Question.Factor == factor {
			c.Clarifies = item.QuestionID
			return c, true
		}
	}
	return Choice{}, false
}

// factorOf finds the factor an answered item bears on: its question's, else
// that of the first question with the same tag
func (s *Selector) factorOf(item model.EvidenceItem) (Factor, bool) {
	if item.QuestionID != "" {
		if i := slices.IndexFunc(s.bank, func(q Question) bool { return q.ID == item.QuestionID }); i >= 0 {
			return s.bank[i].Factor, true
		}
	}
	if f, ok := EventFactor(item.Tag); ok {
		return f, true
	}
	if i := slices.IndexFunc(s.bank, func(q Question) bool { return q.Tag == item.Tag }); i >= 0 {
		return s.bank[i].Factor, true
	}
	return "", false
}

// Rank returns every eligible question ordered by descending gain
func (s *Selector) Rank(ctx context.Context, state model.ConfidenceState, candidates []model.ChartSnapshot) ([]Choice, error) {
	posterior := rectify.Weights(state)
	asked := state.AskedQuestions()

	var eligible []Question
	for _, q := range s.bank {
		if slices.Contains(asked, q.ID) {
			continue
		}
		if q.Factor.Resolved(posterior, candidates, s.cfg.FactorThreshold) {
			continue
		}
		eligible = append(eligible, q)
	}

	gains := make([]float64, len(eligible))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, q := range eligible {
		i, q := i, q
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			gain, err := s.gain(q, posterior, candidates)
			if err != nil {
				return fmt.Errorf("question %s: %w", q.ID, err)
			}
			gains[i] = gain
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Choice, len(eligible))
	for i, q := range eligible {
		out[i] = Choice{Question: q, Gain: gains[i]}
	}
	slices.SortStableFunc(out, func(a, b Choice) int {
		switch {
		case a.Gain > b.Gain:
			return -1
		case a.Gain < b.Gain:
			return 1
		}
		return 0
	})
	return out, nil
}

// gain is the prior entropy minus the expected posterior entropy over the
// simulated answers
func (s *Selector) gain(q Question, posterior []float64, candidates []model.ChartSnapshot) (float64, error) {
	outcomes, err := s.sim.Outcomes(q.Tag, q.Weight, posterior, candidates)
	if err != nil {
		return 0, err
	}
	if len(outcomes) == 0 {
		return 0, nil
	}

	prior := rectify.Entropy(posterior)
	total := 0.0
	for _, w := range posterior {
		total += w
	}
	if total <= 0 {
		return 0, nil
	}

	probs := make([]float64, len(outcomes))
	entropies := make([]float64, len(outcomes))
	norm := 0.0
	for i, o := range outcomes {
		entropies[i] = prior
		if o.Curve == nil {
			probs[i] = 1
			norm += probs[i]
			continue
		}
		if len(o.Curve) != len(posterior) {
			return 0, fmt.Errorf("outcome %s has %d weights for %d candidates", o.Answer, len(o.Curve), len(posterior))
		}
		p := 0.0
		for j, w := range posterior {
			p += w / total * o.Curve[j]
		}
		probs[i] = p
		norm += p
		if updated, ok := rectify.Update(posterior, o.Curve); ok {
			entropies[i] = rectify.Entropy(updated)
		}
	}
	if norm <= 0 {
		return 0, nil
	}

	expected := 0.0
	for i := range outcomes {
		expected += probs[i] / norm * entropies[i]
	}
	return max(prior-expected, 0), nil
}
