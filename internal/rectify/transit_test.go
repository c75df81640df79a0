package rectify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/lagna/internal/chart"
	"github.com/ppiankov/lagna/internal/model"
	"github.com/ppiankov/lagna/internal/score"
	"github.com/ppiankov/lagna/internal/worker"
)

// pinnedTransits places chosen bodies on fixed longitudes and every other
// body at far
type pinnedTransits struct {
	lon map[model.Body]float64
	far float64
}

func (p *pinnedTransits) Transits(t time.Time, opts model.ChartOptions) ([]model.CelestialPosition, error) {
	out := make([]model.CelestialPosition, 0, len(model.Bodies))
	for _, b := range model.Bodies {
		lon, ok := p.lon[b]
		if !ok {
			lon = p.far
		}
		out = append(out, model.CelestialPosition{Body: b, Longitude: lon, Sign: model.SignOf(lon)})
	}
	return out, nil
}

// startCharted opens a session over real chart snapshots and returns it with
// the candidate at favoured
func startCharted(t *testing.T, src *pinnedTransits, favoured time.Time) (*Session, model.ChartSnapshot) {
	t.Helper()
	cfg := model.DefaultConfig()
	scorer := score.NewScorer(src, cfg.Chart, cfg.Rectification.EventOrb)
	grid := worker.NewGridBuilder(chart.NewBuilder(), 4)

	s, err := NewEngine(cfg.Rectification, scorer).Start(context.Background(), "charted", noonQuery(), cfg.Chart, grid)
	require.NoError(t, err)
	for _, snap := range s.Snapshots() {
		if snap.Instant.Equal(favoured) {
			return s, snap
		}
	}
	t.Fatalf("no candidate at %s", favoured)
	return nil, model.ChartSnapshot{}
}

func TestSession_TransitEvidenceConverges(t *testing.T) {
	src := &pinnedTransits{}
	s, target := startCharted(t, src, at("12:05"))
	mc := score.PointMidheaven.Of(target)
	src.lon = map[model.Body]float64{model.Saturn: mc, model.Jupiter: mc, model.Rahu: mc, model.Sun: mc}
	src.far = model.Normalize(mc + 180)

	var state model.ConfidenceState
	applied := 0
	for applied < 10 {
		var err error
		state, err = s.Apply(context.Background(), model.EvidenceItem{
			QuestionID: "career-change", Tag: model.TagCareerChange, Answer: "yes", ReportedDate: "2010-06-15", Weight: 0.8,
		})
		require.NoError(t, err)
		applied++
		require.True(t, state.Applied[len(state.Applied)-1].Informative)
		if state.Confidence >= 90 {
			break
		}
	}

	assert.GreaterOrEqual(t, state.Confidence, 90.0, "after %d items", applied)
	assert.True(t, state.BestEstimate.Equal(at("12:05")), "best estimate %s", state.BestEstimate)
	assert.Equal(t, model.StatusConverged, state.Status)
	assert.False(t, state.BoundaryClamped)
	assert.True(t, state.Credible.Contains(at("12:05")))
}

func TestSession_ConsistentTransitEvidenceNeverLowersConfidence(t *testing.T) {
	src := &pinnedTransits{}
	s, target := startCharted(t, src, at("12:05"))
	mc := score.PointMidheaven.Of(target)
	asc := score.PointAscendant.Of(target)
	// The Sun marks only career changes and Mars only health events
	src.lon = map[model.Body]float64{model.Sun: mc, model.Mars: asc}
	src.far = model.Normalize(mc - 90)

	items := []model.EvidenceItem{
		{QuestionID: "career-change", Tag: model.TagCareerChange, Answer: "yes", ReportedDate: "2010-06-15", Weight: 0.8},
		{QuestionID: "health-event", Tag: model.TagHealthEvent, Answer: "yes", ReportedDate: "2014-02-03", Weight: 0.7},
	}

	prev := s.State().Confidence
	for i := 0; i < 12; i++ {
		state, err := s.Apply(context.Background(), items[i%len(items)])
		require.NoError(t, err)
		assert.GreaterOrEqual(t, state.Confidence, prev-1e-9, "confidence fell after item %d", i+1)
		prev = state.Confidence
	}
	assert.True(t, s.State().BestEstimate.Equal(at("12:05")))
}
