package question

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ppiankov/lagna/internal/model"
	"github.com/ppiankov/lagna/internal/rectify"
	"github.com/ppiankov/lagna/internal/score"
)

type noTransits struct{}

func (noTransits) Transits(t time.Time, opts model.ChartOptions) ([]model.CelestialPosition, error) {
	return nil, nil
}

// grid returns n snapshots one minute apart whose ascendant advances step
// degrees per minute from asc
func grid(n int, asc, step float64) []model.ChartSnapshot {
	start := time.Date(1985, 10, 24, 8, 30, 0, 0, time.UTC)
	out := make([]model.ChartSnapshot, n)
	for i := range out {
		a := model.Normalize(asc + step*float64(i))
		out[i] = model.ChartSnapshot{
			Kind:    model.D1,
			Instant: start.Add(time.Duration(i) * time.Minute),
			Houses:  model.HouseSet{System: model.WholeSign, Ascendant: a, Midheaven: model.Normalize(a - 85)},
		}
	}
	return out
}

func uniform(candidates []model.ChartSnapshot) model.ConfidenceState {
	s := model.ConfidenceState{SessionID: "test", Status: model.StatusInitialized}
	for _, c := range candidates {
		s.Candidates = append(s.Candidates, model.CandidateWeight{
			Instant: c.Instant, Weight: 1 / float64(len(candidates)), InWindow: true,
		})
	}
	return s
}

func selector(t *testing.T) *Selector {
	t.Helper()
	bank, err := DefaultBank()
	require.NoError(t, err)
	sim := score.NewScorer(noTransits{}, model.DefaultConfig().Chart, time.Minute)
	return NewSelector(bank, sim, model.DefaultConfig().Questions, 4)
}

func TestDefaultBank(t *testing.T) {
	bank, err := DefaultBank()
	require.NoError(t, err)
	require.NotEmpty(t, bank)

	ids := make(map[string]bool)
	for _, q := range bank {
		assert.False(t, ids[q.ID], "duplicate id %s", q.ID)
		ids[q.ID] = true
		assert.NotEmpty(t, q.Text, q.ID)
		assert.True(t, q.Tag.Known(), q.ID)

		if q.Kind == KindEvent {
			assert.True(t, q.Tag.Dated(), q.ID)
			assert.Equal(t, []string{"yes", "no"}, q.Options, q.ID)
		} else {
			assert.Subset(t, score.TraitOptions(q.Tag), q.Options, q.ID)
		}
	}
	for _, tag := range append(slices.Clone(model.EventTags), model.TraitTags...) {
		found := false
		for _, q := range bank {
			found = found || q.Tag == tag
		}
		assert.True(t, found, "no question for tag %s", tag)
	}
}

func TestParseBank_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", "questions: []"},
		{"malformed", "questions: [::"},
		{"duplicate id", `
questions:
  - {id: a, text: x, tag: marriage, factor: descendant_sign, weight: 0.5}
  - {id: a, text: y, tag: accident, factor: ascendant_sign, weight: 0.5}`},
		{"unknown tag", `
questions:
  - {id: a, text: x, tag: lottery, factor: ascendant_sign, weight: 0.5}`},
		{"kind mismatch", `
questions:
  - {id: a, text: x, tag: marriage, kind: trait, factor: descendant_sign, weight: 0.5}`},
		{"unknown factor", `
questions:
  - {id: a, text: x, tag: temperament, factor: moon_sign, weight: 0.5}`},
		{"event factor off its point", `
questions:
  - {id: a, text: x, tag: marriage, factor: midheaven_sign, weight: 0.5}`},
		{"bad weight", `
questions:
  - {id: a, text: x, tag: marriage, factor: descendant_sign, weight: 1.5}`},
		{"bad option", `
questions:
  - {id: a, text: x, tag: temperament, factor: ascendant_sign, options: [fire, ether], weight: 0.5}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBank([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestParseBank_InfersKindAndOptions(t *testing.T) {
	bank, err := ParseBank([]byte(`
questions:
  - {id: m, text: x, tag: marriage, weight: 0.5}
  - {id: t, text: y, tag: constitution, factor: ascendant_sign, weight: 0.5}`))
	require.NoError(t, err)
	assert.Equal(t, KindEvent, bank[0].Kind)
	assert.Equal(t, FactorDescendantSign, bank[0].Factor)
	assert.Equal(t, KindTrait, bank[1].Kind)
	assert.Equal(t, []string{"movable", "fixed", "dual"}, bank[1].Options)
}

func TestEventFactor(t *testing.T) {
	for _, tag := range model.EventTags {
		f, ok := EventFactor(tag)
		require.True(t, ok, tag)
		assert.Contains(t, factors, f, tag)
	}
	_, ok := EventFactor(model.TagTemperament)
	assert.False(t, ok)
}

func TestQuestion_Item(t *testing.T) {
	q := Question{ID: "marriage", Tag: model.TagMarriage, Weight: 0.85}
	item := q.Item("yes", "2012-05-04")
	assert.Equal(t, model.EvidenceItem{
		QuestionID: "marriage", Tag: model.TagMarriage, Answer: "yes", ReportedDate: "2012-05-04", Weight: 0.85,
	}, item)
}

func TestFactor_Mass(t *testing.T) {
	// Ascendant 295..307.5: the first 20 candidates rise in Capricorn
	cands := grid(51, 295, 0.25)
	weights := rectify.Weights(uniform(cands))

	mass := FactorAscendantSign.Mass(weights, cands)
	assert.InDelta(t, 20.0/51, mass[model.Capricorn], 1e-9)
	assert.InDelta(t, 31.0/51, mass[model.Aquarius], 1e-9)
	assert.False(t, FactorAscendantSign.Resolved(weights, cands, 0.95))

	// Descendant is always opposite the ascendant
	desc := FactorDescendantSign.Mass(weights, cands)
	assert.InDelta(t, 20.0/51, desc[model.Cancer], 1e-9)

	assert.Nil(t, Factor("moon_sign").Mass(weights, cands))
}

func TestSelector_PicksInformativeQuestion(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := selector(t)
	cands := grid(51, 295, 0.25)
	state := uniform(cands)

	choice, err := s.Next(context.Background(), state, cands)
	require.NoError(t, err)
	assert.Greater(t, choice.Gain, 0.01)

	ranked, err := s.Rank(context.Background(), state, cands)
	require.NoError(t, err)
	assert.Equal(t, choice, ranked[0])
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Gain, ranked[i].Gain)
	}
}

func TestSelector_SkipsAskedQuestions(t *testing.T) {
	s := selector(t)
	cands := grid(51, 295, 0.25)
	state := uniform(cands)

	first, err := s.Next(context.Background(), state, cands)
	require.NoError(t, err)

	state.Applied = append(state.Applied, model.AppliedEvidence{Item: first.Question.Item("earth", "")})
	second, err := s.Next(context.Background(), state, cands)
	require.NoError(t, err)
	assert.NotEqual(t, first.Question.ID, second.Question.ID)
}

func TestSelector_SkipsResolvedFactors(t *testing.T) {
	s := selector(t)
	// Every candidate rises in Aquarius; only the divisional ascendants still vary
	cands := grid(21, 305, 0.25)

	ranked, err := s.Rank(context.Background(), uniform(cands), cands)
	require.NoError(t, err)

	var ids []string
	for _, c := range ranked {
		ids = append(ids, c.Question.ID)
	}
	assert.ElementsMatch(t, []string{"spouse-nature", "work-style"}, ids)
}

func TestSelector_NoMoreQuestions(t *testing.T) {
	s := selector(t)
	// Every factor, including both divisional ascendants, is settled
	cands := grid(3, 305, 0.25)

	_, err := s.Next(context.Background(), uniform(cands), cands)
	assert.ErrorIs(t, err, ErrNoMoreQuestions)
}

// splitter answers every question the same way: the first half of the grid
// or the second
type splitter struct {
	err error
}

func (f splitter) Outcomes(tag model.EventTag, weight float64, posterior []float64, candidates []model.ChartSnapshot) ([]score.Outcome, error) {
	if f.err != nil {
		return nil, f.err
	}
	lo := make([]float64, len(candidates))
	hi := make([]float64, len(candidates))
	for i := range candidates {
		if i < len(candidates)/2 {
			lo[i] = 1
		} else {
			hi[i] = 1
		}
	}
	return []score.Outcome{{Answer: "lo", Curve: lo}, {Answer: "hi", Curve: hi}}, nil
}

func TestSelector_TiesFollowBankOrder(t *testing.T) {
	bank, err := ParseBank([]byte(`
questions:
  - {id: second, text: x, tag: accident, factor: ascendant_sign, weight: 0.5}
  - {id: first, text: y, tag: marriage, factor: descendant_sign, weight: 0.5}`))
	require.NoError(t, err)
	s := NewSelector(bank, splitter{}, model.DefaultConfig().Questions, 2)

	cands := grid(8, 295, 1)
	choice, err := s.Next(context.Background(), uniform(cands), cands)
	require.NoError(t, err)
	assert.Equal(t, "second", choice.Question.ID)
	// An even split of eight equal candidates removes ln 2 nats
	assert.InDelta(t, 0.6931471805599453, choice.Gain, 1e-9)
}

func TestSelector_Errors(t *testing.T) {
	bank, err := DefaultBank()
	require.NoError(t, err)
	cands := grid(8, 295, 1)

	boom := errors.New("boom")
	s := NewSelector(bank, splitter{err: boom}, model.DefaultConfig().Questions, 2)
	_, err = s.Next(context.Background(), uniform(cands), cands)
	assert.ErrorIs(t, err, boom)

	_, err = s.Next(context.Background(), uniform(cands), cands[:4])
	assert.Error(t, err)

	done := uniform(cands)
	done.Status = model.StatusExhausted
	_, err = s.Next(context.Background(), done, cands)
	assert.ErrorIs(t, err, rectify.ErrSessionFinished)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewSelector(bank, splitter{}, model.DefaultConfig().Questions, 2).Next(ctx, uniform(cands), cands)
	assert.ErrorIs(t, err, context.Canceled)
}

// cutAt splits the grid at a per-tag index, so each question's gain is fixed
type cutAt map[model.EventTag]int

func (c cutAt) Outcomes(tag model.EventTag, weight float64, posterior []float64, candidates []model.ChartSnapshot) ([]score.Outcome, error) {
	lo := make([]float64, len(candidates))
	hi := make([]float64, len(candidates))
	for i := range candidates {
		if i < c[tag] {
			lo[i] = 1
		} else {
			hi[i] = 1
		}
	}
	return []score.Outcome{{Answer: "lo", Curve: lo}, {Answer: "hi", Curve: hi}}, nil
}

func TestSelector_ClarifiesAfterConfidenceDrop(t *testing.T) {
	bank, err := ParseBank([]byte(`
questions:
  - {id: temperament, text: x, tag: temperament, factor: ascendant_sign, weight: 0.5}
  - {id: constitution, text: x, tag: constitution, factor: ascendant_sign, weight: 0.5}
  - {id: spouse, text: x, tag: spouse_nature, factor: navamsa_ascendant, weight: 0.5}
  - {id: accident, text: x, tag: accident, weight: 0.5}`))
	require.NoError(t, err)

	cands := grid(51, 295, 0.25)
	sim := cutAt{model.TagSpouseNature: 25, model.TagAccident: 6}
	s := NewSelector(bank, sim, model.DefaultConfig().Questions, 2)

	answered := func(after float64, extra ...model.AppliedEvidence) model.ConfidenceState {
		state := uniform(cands)
		state.Status = model.StatusAccumulating
		state.Applied = append([]model.AppliedEvidence{
			{Item: bank[0].Item("air", ""), Informative: true, ConfidenceBefore: 0, ConfidenceAfter: 10},
			{Item: bank[1].Item("movable", ""), Informative: true, ConfidenceBefore: 10, ConfidenceAfter: after},
		}, extra...)
		return state
	}

	tests := []struct {
		name      string
		state     model.ConfidenceState
		want      string
		clarifies string
	}{
		{"agreeing answers", answered(12), "spouse", ""},
		{"conflicting answers", answered(4), "accident", "constitution"},
		{"nothing left on the factor", answered(4), "spouse", ""},
	}
	// The clarifying question has already been answered in the last case
	tests[2].state.Applied = slices.Insert(tests[2].state.Applied, 0, model.AppliedEvidence{
		Item: bank[3].Item("no", ""), ConfidenceBefore: 0, ConfidenceAfter: 0,
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			choice, err := s.Next(context.Background(), tt.state, cands)
			require.NoError(t, err)
			assert.Equal(t, tt.want, choice.Question.ID)
			assert.Equal(t, tt.clarifies, choice.Clarifies)
		})
	}

	_, lowered := answered(4).Contradicted()
	assert.True(t, lowered)
	_, lowered = answered(12).Contradicted()
	assert.False(t, lowered)
}
