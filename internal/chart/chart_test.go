package chart

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/lagna/internal/cache"
	"github.com/ppiankov/lagna/internal/model"
)

func puneQuery() model.BirthQuery {
	return model.BirthQuery{
		Date:        "1985-10-24",
		Time:        "14:30",
		UTCOffset:   "+05:30",
		Latitude:    18.5204,
		Longitude:   73.8567,
		Ayanamsa:    "lahiri",
		HouseSystem: "whole_sign",
	}
}

func defaults() model.ChartOptions {
	return model.DefaultConfig().Chart
}

func TestBuildQuery_PuneFixture(t *testing.T) {
	b := NewBuilder()
	snap, err := b.BuildQuery(puneQuery(), defaults())
	require.NoError(t, err)

	assert.Equal(t, model.D1, snap.Kind)
	assert.True(t, snap.Instant.Equal(time.Date(1985, 10, 24, 9, 0, 0, 0, time.UTC)))
	assert.Equal(t, "lahiri", snap.Ayanamsa.Name)
	assert.InDelta(t, 23.659, snap.Ayanamsa.Value, 0.005)
	assert.Equal(t, model.NodeMean, snap.NodeMode)

	assert.Equal(t, model.Aquarius, snap.AscendantSign())
	assert.GreaterOrEqual(t, snap.Houses.Ascendant, 300.5)
	assert.LessOrEqual(t, snap.Houses.Ascendant, 301.7)

	require.Len(t, snap.Positions, len(model.Bodies))
	for i, p := range snap.Positions {
		assert.Equal(t, model.Bodies[i], p.Body)
		assert.Equal(t, snap.Houses.HouseOf(p.Longitude), p.House)
	}

	// Whole Sign: the Sun in sidereal Libra sits in the 9th from Aquarius
	sun, ok := snap.Position(model.Sun)
	require.True(t, ok)
	assert.Equal(t, model.Libra, sun.Sign)
	assert.Equal(t, 9, sun.House)

	again, err := b.BuildQuery(puneQuery(), defaults())
	require.NoError(t, err)
	if diff := cmp.Diff(snap, again); diff != "" {
		t.Errorf("fixture not reproducible (-first +second):\n%s", diff)
	}
}

func TestBuildQuery_QueryOverridesOptions(t *testing.T) {
	q := puneQuery()
	q.Ayanamsa = "kp"
	q.HouseSystem = "placidus"
	q.NodeMode = "true"

	snap, err := NewBuilder().BuildQuery(q, defaults())
	require.NoError(t, err)
	assert.Equal(t, "krishnamurti", snap.Ayanamsa.Name)
	assert.Equal(t, model.Placidus, snap.Houses.System)
	assert.Equal(t, model.NodeTrue, snap.NodeMode)
}

func TestBuildQuery_InvalidInput(t *testing.T) {
	q := puneQuery()
	q.UTCOffset = "IST"
	_, err := NewBuilder().BuildQuery(q, defaults())
	var vErr *model.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "utc_offset", vErr.Field)
}

func TestBuild_Errors(t *testing.T) {
	b := NewBuilder()
	at := time.Date(1985, 10, 24, 9, 0, 0, 0, time.UTC)

	opts := defaults()
	opts.Ayanamsa = "fagan"
	_, err := b.Build(at, 18.5, 73.8, opts)
	var unknown *model.UnknownAyanamsaError
	assert.True(t, errors.As(err, &unknown))

	_, err = b.Build(time.Date(2500, 1, 1, 0, 0, 0, 0, time.UTC), 18.5, 73.8, defaults())
	var outOfRange *model.OutOfSupportedRangeError
	assert.True(t, errors.As(err, &outOfRange))

	opts = defaults()
	opts.Division = "D5"
	_, err = b.Build(at, 18.5, 73.8, opts)
	var unsupported *model.UnsupportedDivisionalChartError
	assert.True(t, errors.As(err, &unsupported))

	_, err = b.Build(at, 95, 73.8, defaults())
	var vErr *model.ValidationError
	assert.True(t, errors.As(err, &vErr))
}

func TestBuild_PlacidusFallbackIsExplicit(t *testing.T) {
	b := NewBuilder()
	at := time.Date(1990, 7, 15, 4, 20, 0, 0, time.UTC)
	opts := defaults()
	opts.HouseSystem = model.Placidus

	_, err := b.Build(at, 69.65, 18.96, opts)
	var undefined *model.HouseSystemUndefinedError
	require.True(t, errors.As(err, &undefined))

	opts.FallbackWholeSign = true
	snap, err := b.Build(at, 69.65, 18.96, opts)
	require.NoError(t, err)
	assert.Equal(t, model.WholeSign, snap.Houses.System)
	assert.Equal(t, model.Placidus, snap.HouseFallbackFrom)
}

func TestBuild_Divisional(t *testing.T) {
	b := NewBuilder()
	at := time.Date(1985, 10, 24, 9, 0, 0, 0, time.UTC)
	opts := defaults()
	opts.Division = model.D9

	d9, err := b.Build(at, 18.5204, 73.8567, opts)
	require.NoError(t, err)
	assert.Equal(t, model.D9, d9.Kind)
	assert.Equal(t, model.WholeSign, d9.Houses.System)
}

func TestBuild_CachedMatchesComputed(t *testing.T) {
	c := cache.NewMemoryCache(time.Minute, time.Minute)
	b := NewBuilder(WithCache(c, time.Minute))
	at := time.Date(1985, 10, 24, 9, 0, 0, 0, time.UTC)

	first, err := b.Build(at, 18.5204, 73.8567, defaults())
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())

	second, err := b.Build(at, 18.5204, 73.8567, defaults())
	require.NoError(t, err)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("cached snapshot differs (-computed +cached):\n%s", diff)
	}

	plain, err := NewBuilder().Build(at, 18.5204, 73.8567, defaults())
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(plain, second))
}

func TestTransits(t *testing.T) {
	b := NewBuilder()
	at := time.Date(2010, 6, 15, 12, 0, 0, 0, time.UTC)
	ps, err := b.Transits(at, defaults())
	require.NoError(t, err)
	require.Len(t, ps, len(model.Bodies))
	for _, p := range ps {
		assert.Zero(t, p.House)
		assert.GreaterOrEqual(t, p.Longitude, 0.0)
		assert.Less(t, p.Longitude, 360.0)
	}
}

func TestDiff_Antisymmetric(t *testing.T) {
	b := NewBuilder()
	start := time.Date(1985, 10, 24, 9, 0, 0, 0, time.UTC)
	for _, gap := range []time.Duration{4 * time.Minute, 2 * time.Hour, 36 * time.Hour, 400 * 24 * time.Hour} {
		a, err := b.Build(start, 18.5204, 73.8567, defaults())
		require.NoError(t, err)
		c, err := b.Build(start.Add(gap), 18.5204, 73.8567, defaults())
		require.NoError(t, err)

		ab, err := Diff(a, c)
		require.NoError(t, err)
		ba, err := Diff(c, a)
		require.NoError(t, err)

		require.Len(t, ab.Bodies, len(ba.Bodies))
		assert.Equal(t, ab.AscendantDelta, -ba.AscendantDelta, gap)
		for i := range ab.Bodies {
			assert.Equal(t, ab.Bodies[i].DegreeDelta, -ba.Bodies[i].DegreeDelta, ab.Bodies[i].Body)
			assert.Equal(t, ab.Bodies[i].OldSign, ba.Bodies[i].NewSign)
			assert.Equal(t, ab.Bodies[i].SignChanged, ba.Bodies[i].SignChanged)
			assert.Greater(t, ab.Bodies[i].DegreeDelta, -180.0)
			assert.LessOrEqual(t, ab.Bodies[i].DegreeDelta, 180.0)
		}
	}
}

func TestDiff_WrapAround(t *testing.T) {
	a := model.ChartSnapshot{Kind: model.D1, Positions: []model.CelestialPosition{{Body: model.Moon, Longitude: 359}}}
	b := model.ChartSnapshot{Kind: model.D1, Positions: []model.CelestialPosition{{Body: model.Moon, Longitude: 1}}}
	for i := range a.Houses.Cusps {
		a.Houses.Cusps[i] = float64(i) * 30
		b.Houses.Cusps[i] = float64(i) * 30
	}

	d, err := Diff(a, b)
	require.NoError(t, err)
	require.Len(t, d.Bodies, 1)
	assert.InDelta(t, 2, d.Bodies[0].DegreeDelta, 1e-12)
	assert.True(t, d.Bodies[0].SignChanged)
	assert.Equal(t, model.Pisces, d.Bodies[0].OldSign)
	assert.Equal(t, model.Aries, d.Bodies[0].NewSign)
	assert.True(t, d.Bodies[0].HouseChanged)
}

func TestDiff_DifferentKinds(t *testing.T) {
	_, err := Diff(model.ChartSnapshot{Kind: model.D1}, model.ChartSnapshot{Kind: model.D9})
	var vErr *model.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "kind", vErr.Field)
}
