package score

import (
	"github.com/ppiankov/lagna/internal/divisional"
	"github.com/ppiankov/lagna/internal/model"
)

// Point is a sensitive point of a chart that transits are measured against
type Point string

const (
	PointAscendant  Point = "ascendant"
	PointMidheaven  Point = "midheaven"
	PointDescendant Point = "descendant"
	PointIC         Point = "ic"
	PointFifth      Point = "fifth"    // Ascendant + 120, equal 5th cusp
	PointEleventh   Point = "eleventh" // Ascendant + 300, equal 11th cusp
)

// Of returns the point's sidereal longitude in a D1 snapshot
func (p Point) Of(c model.ChartSnapshot) float64 {
	switch p {
	case PointMidheaven:
		return c.Houses.Midheaven
	case PointDescendant:
		return model.Normalize(c.Houses.Ascendant + 180)
	case PointIC:
		return model.Normalize(c.Houses.Midheaven + 180)
	case PointFifth:
		return model.Normalize(c.Houses.Ascendant + 120)
	case PointEleventh:
		return model.Normalize(c.Houses.Ascendant + 300)
	default:
		return c.Houses.Ascendant
	}
}

type eventRule struct {
	point   Point
	bodies  []model.Body // Transiting bodies that mark the event
	summary string
}

var eventRules = map[model.EventTag]eventRule{
	model.TagCareerChange: {PointMidheaven,
		[]model.Body{model.Saturn, model.Jupiter, model.Rahu, model.Sun},
		"Saturn, Jupiter, Rahu or the Sun crossing the midheaven"},
	model.TagMarriage: {PointDescendant,
		[]model.Body{model.Jupiter, model.Venus, model.Saturn, model.Rahu},
		"Jupiter, Venus, Saturn or Rahu crossing the descendant"},
	model.TagRelationshipStart: {PointDescendant,
		[]model.Body{model.Venus, model.Jupiter, model.Rahu},
		"Venus, Jupiter or Rahu crossing the descendant"},
	model.TagRelocation: {PointIC,
		[]model.Body{model.Saturn, model.Rahu, model.Ketu, model.Jupiter},
		"Saturn, Jupiter or the nodes crossing the IC"},
	model.TagChildbirth: {PointFifth,
		[]model.Body{model.Jupiter, model.Saturn},
		"Jupiter or Saturn crossing the 5th house cusp"},
	model.TagHealthEvent: {PointAscendant,
		[]model.Body{model.Saturn, model.Mars, model.Rahu, model.Ketu},
		"Saturn, Mars or the nodes crossing the ascendant"},
	model.TagAccident: {PointAscendant,
		[]model.Body{model.Mars, model.Saturn, model.Rahu, model.Ketu},
		"Mars, Saturn or the nodes crossing the ascendant"},
	model.TagParentLoss: {PointIC,
		[]model.Body{model.Saturn, model.Rahu, model.Ketu, model.Mars},
		"Saturn, Mars or the nodes crossing the IC"},
	model.TagEducationMilestone: {PointIC,
		[]model.Body{model.Jupiter, model.Mercury, model.Saturn},
		"Jupiter, Mercury or Saturn crossing the IC"},
	model.TagFinancialGain: {PointEleventh,
		[]model.Body{model.Jupiter, model.Venus, model.Rahu},
		"Jupiter, Venus or Rahu crossing the 11th house cusp"},
}

// EventPoint returns the sensitive point a dated event is measured against
func EventPoint(tag model.EventTag) (Point, bool) {
	r, ok := eventRules[tag]
	return r.point, ok
}

// RuleSummary describes the rule behind a tag in one line
func RuleSummary(tag model.EventTag) string {
	if r, ok := eventRules[tag]; ok {
		return r.summary
	}
	if r, ok := traitRules[tag]; ok {
		return r.summary
	}
	return ""
}

type traitRule struct {
	options []string
	value   func(c model.ChartSnapshot) string
	summary string
}

var (
	elements   = []string{string(model.ElementFire), string(model.ElementEarth), string(model.ElementAir), string(model.ElementWater)}
	modalities = []string{string(model.ModalityMovable), string(model.ModalityFixed), string(model.ModalityDual)}
)

var traitRules = map[model.EventTag]traitRule{
	model.TagTemperament: {elements, func(c model.ChartSnapshot) string {
		return string(c.AscendantSign().Element())
	}, "element of the rising sign"},
	model.TagConstitution: {modalities, func(c model.ChartSnapshot) string {
		return string(c.AscendantSign().Modality())
	}, "modality of the rising sign"},
	model.TagSpouseNature: {elements, func(c model.ChartSnapshot) string {
		return string(divisionalAscendant(c, model.D9).Element())
	}, "element of the navamsa (D9) ascendant"},
	model.TagWorkStyle: {elements, func(c model.ChartSnapshot) string {
		return string(divisionalAscendant(c, model.D10).Element())
	}, "element of the dasamsa (D10) ascendant"},
}

// TraitOptions lists the accepted answers for a trait tag
func TraitOptions(tag model.EventTag) []string {
	if r, ok := traitRules[tag]; ok {
		return append([]string(nil), r.options...)
	}
	return nil
}

// TraitValue returns the answer a D1 snapshot predicts for a trait tag
func TraitValue(tag model.EventTag, c model.ChartSnapshot) (string, bool) {
	r, ok := traitRules[tag]
	if !ok {
		return "", false
	}
	return r.value(c), true
}

func divisionalAscendant(c model.ChartSnapshot, kind model.DivisionalKind) model.Sign {
	s, err := divisional.SignOf(kind, c.Houses.Ascendant)
	if err != nil {
		return c.AscendantSign()
	}
	return s
}
