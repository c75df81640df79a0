package ephemeris

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/lagna/internal/model"
)

func find(t *testing.T, ps []Position, b model.Body) Position {
	t.Helper()
	for _, p := range ps {
		if p.Body == b {
			return p
		}
	}
	t.Fatalf("body %s missing", b)
	return Position{}
}

func TestJulianDay_J2000(t *testing.T) {
	jd := JulianDay(time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC))
	assert.InDelta(t, J2000, jd, 1e-9)
}

func TestDeltaT_Plausible(t *testing.T) {
	tests := []struct {
		year     int
		min, max float64
	}{
		{1850, 5, 9},
		{1900, -4, 0},
		{1950, 27, 31},
		{2000, 63, 65},
		{2020, 68, 72},
	}
	for _, tt := range tests {
		dt := DeltaT(time.Date(tt.year, 1, 1, 0, 0, 0, 0, time.UTC))
		assert.GreaterOrEqual(t, dt, tt.min, "year %d", tt.year)
		assert.LessOrEqual(t, dt, tt.max, "year %d", tt.year)
	}
}

func TestPositions_SunAtJ2000(t *testing.T) {
	ps, err := Positions(time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC), model.NodeMean)
	require.NoError(t, err)

	sun := find(t, ps, model.Sun)
	assert.InDelta(t, 280.38, sun.Longitude, 0.05)
	assert.InDelta(t, 1.019, sun.Speed, 0.01)
	assert.False(t, sun.Retrograde())
}

func TestPositions_MoonReference(t *testing.T) {
	// 1992-04-12 00:00 TT; geometric longitude 133.1627, latitude -3.2291
	ps, err := Positions(time.Date(1992, 4, 11, 23, 59, 1, 0, time.UTC), model.NodeMean)
	require.NoError(t, err)

	moon := find(t, ps, model.Moon)
	assert.InDelta(t, 133.1627, moon.Longitude, 0.02)
	assert.InDelta(t, -3.2291, moon.Latitude, 0.02)
	assert.Greater(t, moon.Speed, 11.0)
	assert.Less(t, moon.Speed, 15.5)
}

func TestPositions_VenusReference(t *testing.T) {
	// 1992-12-20 00:00 TT; apparent longitude 313.081, latitude -2.085
	ps, err := Positions(time.Date(1992, 12, 19, 23, 59, 1, 0, time.UTC), model.NodeMean)
	require.NoError(t, err)

	venus := find(t, ps, model.Venus)
	assert.InDelta(t, 313.08, venus.Longitude, 0.1)
	assert.InDelta(t, -2.08, venus.Latitude, 0.1)
}

func TestPositions_NodesOpposite(t *testing.T) {
	for _, mode := range []model.NodeMode{model.NodeMean, model.NodeTrue} {
		ps, err := Positions(time.Date(1985, 10, 24, 9, 0, 0, 0, time.UTC), mode)
		require.NoError(t, err)

		rahu := find(t, ps, model.Rahu)
		ketu := find(t, ps, model.Ketu)
		assert.InDelta(t, 180, model.Separation(rahu.Longitude, ketu.Longitude), 1e-9)
		assert.Zero(t, rahu.Latitude)
	}

	mean, err := Positions(time.Date(1985, 10, 24, 9, 0, 0, 0, time.UTC), model.NodeMean)
	require.NoError(t, err)
	assert.True(t, find(t, mean, model.Rahu).Retrograde(), "mean node always regresses")
}

func TestPositions_MeanAndTrueNodeDiffer(t *testing.T) {
	at := time.Date(2010, 6, 1, 0, 0, 0, 0, time.UTC)
	mean, err := Positions(at, model.NodeMean)
	require.NoError(t, err)
	truePos, err := Positions(at, model.NodeTrue)
	require.NoError(t, err)

	d := model.Separation(find(t, mean, model.Rahu).Longitude, find(t, truePos, model.Rahu).Longitude)
	assert.Less(t, d, 2.0)
	assert.Equal(t, find(t, mean, model.Sun), find(t, truePos, model.Sun))
}

func TestPositions_Deterministic(t *testing.T) {
	instants := []time.Time{
		time.Date(1801, 3, 4, 5, 6, 7, 0, time.UTC),
		time.Date(1985, 10, 24, 9, 0, 0, 0, time.UTC),
		time.Date(2399, 12, 31, 23, 0, 0, 0, time.UTC),
	}
	for _, at := range instants {
		a, err := Positions(at, model.NodeTrue)
		require.NoError(t, err)
		b, err := Positions(at, model.NodeTrue)
		require.NoError(t, err)
		for i := range a {
			assert.Equal(t, math.Float64bits(a[i].Longitude), math.Float64bits(b[i].Longitude), "%s at %s", a[i].Body, at)
		}
	}
}

func TestPositions_AllBodiesInRange(t *testing.T) {
	ps, err := Positions(time.Date(2024, 2, 29, 18, 30, 0, 0, time.UTC), model.NodeMean)
	require.NoError(t, err)
	require.Len(t, ps, len(model.Bodies))
	for i, p := range ps {
		assert.Equal(t, model.Bodies[i], p.Body)
		assert.GreaterOrEqual(t, p.Longitude, 0.0)
		assert.Less(t, p.Longitude, 360.0)
	}
}

func TestPositions_OutOfRange(t *testing.T) {
	tests := []time.Time{
		time.Date(1799, 12, 31, 23, 59, 59, 0, time.UTC),
		time.Date(2400, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(3000, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, at := range tests {
		_, err := Positions(at, model.NodeMean)
		var rangeErr *model.OutOfSupportedRangeError
		require.True(t, errors.As(err, &rangeErr), "instant %s", at)
		assert.Equal(t, SupportedMin, rangeErr.Min)
		assert.Equal(t, SupportedMax, rangeErr.Max)
	}
}

func TestPositions_UnknownNodeMode(t *testing.T) {
	_, err := Positions(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), model.NodeMode("osculating"))
	var vErr *model.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "node_mode", vErr.Field)
}

func TestObliquity_J2000(t *testing.T) {
	assert.InDelta(t, 23.4392911, Obliquity(0), 1e-6)
}
