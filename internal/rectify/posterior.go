package rectify

import (
	"math"
	"time"

	"github.com/ppiankov/lagna/internal/model"
)

// Weights returns the posterior weights of a state, in candidate order
func Weights(s model.ConfidenceState) []float64 {
	w := make([]float64, len(s.Candidates))
	for i, c := range s.Candidates {
		w[i] = c.Weight
	}
	return w
}

// Entropy returns the Shannon entropy (nats) of weights normalized to sum 1
func Entropy(weights []float64) float64 {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return 0
	}
	h := 0.0
	for _, w := range weights {
		if w > 0 {
			p := w / total
			h -= p * math.Log(p)
		}
	}
	return h
}

// Update multiplies weights by a likelihood curve and renormalizes. ok is
// false when the curve carries no information (all zero, constant, or a
// product with no mass left); weights are then returned unchanged.
func Update(weights, curve []float64) (out []float64, ok bool) {
	if len(curve) != len(weights) || !discriminates(curve) {
		return weights, false
	}

	out = make([]float64, len(weights))
	total := 0.0
	for i, w := range weights {
		out[i] = w * curve[i]
		total += out[i]
	}
	if total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return weights, false
	}
	for i := range out {
		out[i] /= total
	}
	return out, true
}

// discriminates reports whether a curve is non-negative, finite and not constant
func discriminates(curve []float64) bool {
	varies := false
	for _, c := range curve {
		if c < 0 || math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
		if c != curve[0] {
			varies = true
		}
	}
	return varies
}

// Concentration maps weights to 0-100: 100 for a single candidate, 0 for uniform
func Concentration(weights []float64) float64 {
	n := len(weights)
	if n <= 1 {
		return 100
	}
	c := 100 * (1 - Entropy(weights)/math.Log(float64(n)))
	return math.Max(0, math.Min(100, c))
}

// credibleSpan returns the shortest contiguous run of instants holding at
// least mass of the total weight
func credibleSpan(instants []time.Time, weights []float64, mass float64) model.Span {
	if len(instants) == 0 {
		return model.Span{}
	}
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return model.Span{Start: instants[0], End: instants[len(instants)-1]}
	}

	need := mass * total
	best := model.Span{Start: instants[0], End: instants[len(instants)-1]}
	acc := 0.0
	lo := 0
	for hi := range weights {
		acc += weights[hi]
		for lo < hi && acc-weights[lo] >= need {
			acc -= weights[lo]
			lo++
		}
		if acc >= need && instants[hi].Sub(instants[lo]) < best.Duration() {
			best = model.Span{Start: instants[lo], End: instants[hi]}
		}
	}
	return best
}

// argmax returns the index of the largest weight; ties go to the candidate
// closest to reported, then to the earlier one
func argmax(instants []time.Time, weights []float64, reported time.Time) int {
	best := 0
	for i := 1; i < len(weights); i++ {
		switch {
		case weights[i] > weights[best]:
			best = i
		case weights[i] == weights[best] && absDuration(instants[i].Sub(reported)) < absDuration(instants[best].Sub(reported)):
			best = i
		}
	}
	return best
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
