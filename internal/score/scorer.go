package score

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/ppiankov/lagna/internal/model"
	"github.com/ppiankov/lagna/internal/validate"
)

// probeQuantiles are the posterior quantiles used to simulate event answers
var probeQuantiles = []float64{0.125, 0.375, 0.625, 0.875}

// TransitSource provides sidereal body positions at an instant
type TransitSource interface {
	Transits(t time.Time, opts model.ChartOptions) ([]model.CelestialPosition, error)
}

// siderealRate is the mean daily motion of the angles, in degrees per minute
const siderealRate = 360 / 1436.0682

// Scorer turns one answered question into a likelihood curve over candidates
type Scorer struct {
	transits TransitSource
	opts     model.ChartOptions
	orb      float64 // minutes
}

// NewScorer creates a new scorer. orb is the transit tolerance expressed as
// the time the sensitive point takes to cover the distance.
func NewScorer(transits TransitSource, opts model.ChartOptions, orb time.Duration) *Scorer {
	if orb <= 0 {
		orb = time.Minute
	}
	return &Scorer{transits: transits, opts: opts, orb: orb.Minutes()}
}

// Score returns one non-negative weight per candidate D1 snapshot, in order.
// Malformed items are rejected with *model.ValidationError. An all-zero
// curve means the item carries no information for these candidates.
func (s *Scorer) Score(ctx context.Context, item model.EvidenceItem, candidates []model.ChartSnapshot) ([]float64, error) {
	var earliest time.Time
	if len(candidates) > 0 {
		earliest = candidates[0].Instant
	}
	if err := validate.Evidence(item, earliest); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	curve := make([]float64, len(candidates))
	answer := strings.ToLower(strings.TrimSpace(item.Answer))

	if !item.Tag.Dated() {
		return curve, s.scoreTrait(item.Tag, answer, item.Weight, candidates, curve)
	}

	// A denied or undated event does not discriminate between candidates
	if answer == model.AnswerNo || item.ReportedDate == "" {
		return curve, nil
	}

	at, err := validate.EvidenceDate(item.ReportedDate)
	if err != nil {
		return nil, err
	}
	transits, err := s.transits.Transits(at, s.opts)
	if err != nil {
		return nil, fmt.Errorf("transits for %s: %w", item.ReportedDate, err)
	}

	rule := eventRules[item.Tag]
	lons := make([]float64, 0, len(rule.bodies))
	for _, p := range transits {
		if slices.Contains(rule.bodies, p.Body) {
			lons = append(lons, p.Longitude)
		}
	}

	rates := pointRates(rule.point, candidates)
	for i, c := range candidates {
		point := rule.point.Of(c)
		best := 0.0
		for _, lon := range lons {
			best = math.Max(best, s.match(lon, point, rates[i]))
		}
		curve[i] = likelihood(item.Weight, best)
	}
	return curve, nil
}

func (s *Scorer) scoreTrait(tag model.EventTag, answer string, weight float64, candidates []model.ChartSnapshot, curve []float64) error {
	rule := traitRules[tag]
	if !slices.Contains(rule.options, answer) {
		return model.NewValidationError("answer", answer, "must be one of "+strings.Join(rule.options, ", "))
	}
	for i, c := range candidates {
		m := 0.0
		if rule.value(c) == answer {
			m = 1
		}
		curve[i] = likelihood(weight, m)
	}
	return nil
}

// Outcome is one simulated answer to a question
type Outcome struct {
	Answer string
	Curve  []float64 // Nil leaves the posterior unchanged
}

// Outcomes simulates the possible answers to a question on tag against the
// current posterior. Traits yield one outcome per option. Events yield a
// "no" outcome plus one probe per posterior quantile, each assuming the
// event's transit fell on the sensitive point of the quantile's candidate.
func (s *Scorer) Outcomes(tag model.EventTag, weight float64, posterior []float64, candidates []model.ChartSnapshot) ([]Outcome, error) {
	if len(posterior) != len(candidates) {
		return nil, fmt.Errorf("posterior has %d weights for %d candidates", len(posterior), len(candidates))
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	if rule, ok := traitRules[tag]; ok {
		out := make([]Outcome, 0, len(rule.options))
		for _, opt := range rule.options {
			curve := make([]float64, len(candidates))
			if err := s.scoreTrait(tag, opt, weight, candidates, curve); err != nil {
				return nil, err
			}
			out = append(out, Outcome{Answer: opt, Curve: curve})
		}
		return out, nil
	}

	rule, ok := eventRules[tag]
	if !ok {
		return nil, model.NewValidationError("tag", string(tag), "unknown evidence tag")
	}

	rates := pointRates(rule.point, candidates)
	out := []Outcome{{Answer: model.AnswerNo}}
	for _, q := range probeQuantiles {
		probe := rule.point.Of(candidates[quantileIndex(posterior, q)])
		curve := make([]float64, len(candidates))
		for i, c := range candidates {
			curve[i] = likelihood(weight, s.match(probe, rule.point.Of(c), rates[i]))
		}
		out = append(out, Outcome{Answer: fmt.Sprintf("%s@q%.3f", model.AnswerYes, q), Curve: curve})
	}
	return out, nil
}

// match is a Gaussian in the time the point needs to reach the transit,
// rate being the point's speed in degrees per minute
func (s *Scorer) match(transit, point, rate float64) float64 {
	d := model.Separation(transit, point) / rate / s.orb
	return math.Exp(-0.5 * d * d)
}

// pointRates estimates the speed of a point at every candidate from its
// neighbours in the grid. Candidates are in ascending time order.
func pointRates(p Point, candidates []model.ChartSnapshot) []float64 {
	rates := make([]float64, len(candidates))
	for i := range candidates {
		lo, hi := max(i-1, 0), min(i+1, len(candidates)-1)
		minutes := candidates[hi].Instant.Sub(candidates[lo].Instant).Minutes()
		rate := siderealRate
		if minutes > 0 {
			rate = model.Separation(p.Of(candidates[lo]), p.Of(candidates[hi])) / minutes
		}
		if rate <= 1e-6 {
			rate = siderealRate
		}
		rates[i] = rate
	}
	return rates
}

// likelihood mixes a flat floor with the match, weighted by significance
func likelihood(significance, match float64) float64 {
	return (1 - significance) + significance*match
}

// quantileIndex returns the first candidate whose cumulative weight reaches q
func quantileIndex(weights []float64, q float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return int(q * float64(len(weights)-1))
	}
	acc := 0.0
	for i, w := range weights {
		acc += w / total
		if acc >= q {
			return i
		}
	}
	return len(weights) - 1
}
