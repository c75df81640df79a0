// Package ephemeris computes geocentric tropical positions of the Sun, Moon,
// the five visible planets and the lunar nodes.
//
// Planets use mean Keplerian elements with secular rates (valid 3000 BC to
// AD 3000), the Moon a truncated lunar series. The calculator only accepts
// instants in [SupportedMin, SupportedMax); outside that span it returns
// *model.OutOfSupportedRangeError rather than extrapolating.
//
// Every function here is pure: the same instant always produces
// bit-identical output.
package ephemeris

import (
	"time"

	"github.com/ppiankov/lagna/internal/model"
)

var (
	// SupportedMin is the first instant the calculator accepts
	SupportedMin = time.Date(1800, 1, 1, 0, 0, 0, 0, time.UTC)
	// SupportedMax is the first instant past the supported span
	SupportedMax = time.Date(2400, 1, 1, 0, 0, 0, 0, time.UTC)
)

// speedStep is the half-width of the central difference used for daily speed, in days
const speedStep = 0.5

// Position is a tropical, of-date geocentric position
type Position struct {
	Body      model.Body
	Longitude float64 // Degrees, [0, 360)
	Latitude  float64 // Degrees
	Speed     float64 // Degrees per day
}

// Retrograde reports apparent backward motion
func (p Position) Retrograde() bool {
	return p.Speed < 0
}

// CheckRange returns *model.OutOfSupportedRangeError for unsupported instants
func CheckRange(t time.Time) error {
	if t.Before(SupportedMin) || !t.Before(SupportedMax) {
		return &model.OutOfSupportedRangeError{Instant: t.UTC(), Min: SupportedMin, Max: SupportedMax}
	}
	return nil
}

// Positions returns one Position per body in model.Bodies order
func Positions(t time.Time, nodes model.NodeMode) ([]Position, error) {
	if err := CheckRange(t); err != nil {
		return nil, err
	}
	if _, err := model.ParseNodeMode(string(nodes)); err != nil {
		return nil, err
	}

	T := Centuries(JulianDayTT(t))
	step := speedStep / daysPerCentury

	out := make([]Position, 0, len(model.Bodies))
	for _, b := range model.Bodies {
		lon, lat := longitude(b, T, nodes)
		before, _ := longitude(b, T-step, nodes)
		after, _ := longitude(b, T+step, nodes)
		out = append(out, Position{
			Body:      b,
			Longitude: lon,
			Latitude:  lat,
			Speed:     model.ShortestArc(before, after) / (2 * speedStep),
		})
	}
	return out, nil
}

// longitude dispatches to the body's model at T centuries TT
func longitude(b model.Body, T float64, nodes model.NodeMode) (lon, lat float64) {
	switch b {
	case model.Sun:
		return geocentricSun(T)
	case model.Moon:
		return geocentricMoon(T)
	case model.Rahu:
		return node(T, nodes), 0
	case model.Ketu:
		return model.Normalize(node(T, nodes) + 180), 0
	default:
		return geocentricPlanet(orbits[b], T)
	}
}

func node(T float64, mode model.NodeMode) float64 {
	if mode == model.NodeTrue {
		return trueNode(T)
	}
	return meanNode(T)
}
