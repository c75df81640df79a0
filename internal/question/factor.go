package question

import (
	"github.com/ppiankov/lagna/internal/divisional"
	"github.com/ppiankov/lagna/internal/model"
	"github.com/ppiankov/lagna/internal/score"
)

// Factor is a chart feature a question discriminates between candidates
type Factor string

const (
	FactorAscendantSign     Factor = "ascendant_sign"
	FactorNavamsaAscendant  Factor = "navamsa_ascendant"
	FactorDasamsaAscendant  Factor = "dasamsa_ascendant"
	FactorMidheavenSign     Factor = "midheaven_sign"
	FactorDescendantSign    Factor = "descendant_sign"
	FactorICSign            Factor = "ic_sign"
	FactorFifthPointSign    Factor = "fifth_point_sign"
	FactorEleventhPointSign Factor = "eleventh_point_sign"
)

var factors = map[Factor]func(model.ChartSnapshot) model.Sign{
	FactorAscendantSign:     func(c model.ChartSnapshot) model.Sign { return c.AscendantSign() },
	FactorNavamsaAscendant:  divisionalAscendant(model.D9),
	FactorDasamsaAscendant:  divisionalAscendant(model.D10),
	FactorMidheavenSign:     pointSign(score.PointMidheaven),
	FactorDescendantSign:    pointSign(score.PointDescendant),
	FactorICSign:            pointSign(score.PointIC),
	FactorFifthPointSign:    pointSign(score.PointFifth),
	FactorEleventhPointSign: pointSign(score.PointEleventh),
}

// pointFactors maps the sensitive point of a dated event to its factor
var pointFactors = map[score.Point]Factor{
	score.PointAscendant:  FactorAscendantSign,
	score.PointMidheaven:  FactorMidheavenSign,
	score.PointDescendant: FactorDescendantSign,
	score.PointIC:         FactorICSign,
	score.PointFifth:      FactorFifthPointSign,
	score.PointEleventh:   FactorEleventhPointSign,
}

// EventFactor returns the factor a dated tag's transits are measured on
func EventFactor(tag model.EventTag) (Factor, bool) {
	p, ok := score.EventPoint(tag)
	if !ok {
		return "", false
	}
	f, ok := pointFactors[p]
	return f, ok
}

func pointSign(p score.Point) func(model.ChartSnapshot) model.Sign {
	return func(c model.ChartSnapshot) model.Sign { return model.SignOf(p.Of(c)) }
}

func divisionalAscendant(kind model.DivisionalKind) func(model.ChartSnapshot) model.Sign {
	return func(c model.ChartSnapshot) model.Sign {
		s, err := divisional.SignOf(kind, c.Houses.Ascendant)
		if err != nil {
			return c.AscendantSign()
		}
		return s
	}
}

// Mass returns the posterior mass of each sign the factor takes across candidates
func (f Factor) Mass(weights []float64, candidates []model.ChartSnapshot) map[model.Sign]float64 {
	fn, ok := factors[f]
	if !ok {
		return nil
	}
	total := 0.0
	for _, w := range weights {
		total += w
	}
	out := make(map[model.Sign]float64)
	if total <= 0 {
		return out
	}
	for i, c := range candidates {
		out[fn(c)] += weights[i] / total
	}
	return out
}

// Resolved reports whether one value of the factor holds at least threshold
// of the posterior mass
func (f Factor) Resolved(weights []float64, candidates []model.ChartSnapshot, threshold float64) bool {
	for _, m := range f.Mass(weights, candidates) {
		if m >= threshold {
			return true
		}
	}
	return false
}
