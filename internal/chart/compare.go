package chart

import (
	"fmt"

	"github.com/ppiankov/lagna/internal/model"
)

// Diff compares two snapshots of the same divisional kind. Degree deltas
// are signed shortest arcs from a to b, so Diff(a, b) and Diff(b, a) negate
// each other for every body not exactly 180 degrees apart.
func Diff(a, b model.ChartSnapshot) (model.ChartDiff, error) {
	if a.Kind != b.Kind {
		return model.ChartDiff{}, model.NewValidationError("kind",
			fmt.Sprintf("%s/%s", a.Kind, b.Kind), "only charts of the same divisional kind can be compared")
	}

	out := model.ChartDiff{
		Kind:                 a.Kind,
		From:                 a.Instant,
		To:                   b.Instant,
		AscendantDelta:       model.ShortestArc(a.Houses.Ascendant, b.Houses.Ascendant),
		AscendantSignChanged: a.AscendantSign() != b.AscendantSign(),
		Bodies:               make([]model.BodyDiff, 0, len(a.Positions)),
	}

	for _, pa := range a.Positions {
		pb, ok := b.Position(pa.Body)
		if !ok {
			return model.ChartDiff{}, model.NewValidationError("positions", string(pa.Body), "body missing from second chart")
		}
		oldHouse := a.Houses.HouseOf(pa.Longitude)
		newHouse := b.Houses.HouseOf(pb.Longitude)
		out.Bodies = append(out.Bodies, model.BodyDiff{
			Body:         pa.Body,
			OldSign:      model.SignOf(pa.Longitude),
			NewSign:      model.SignOf(pb.Longitude),
			SignChanged:  model.SignOf(pa.Longitude) != model.SignOf(pb.Longitude),
			OldHouse:     oldHouse,
			NewHouse:     newHouse,
			HouseChanged: oldHouse != newHouse,
			DegreeDelta:  model.ShortestArc(pa.Longitude, pb.Longitude),
		})
	}
	if len(b.Positions) != len(a.Positions) {
		return model.ChartDiff{}, model.NewValidationError("positions",
			fmt.Sprintf("%d/%d", len(a.Positions), len(b.Positions)), "charts track different bodies")
	}
	return out, nil
}
