package ephemeris

import (
	"math"

	"github.com/ppiankov/lagna/internal/model"
)

// lunarTerm is one periodic term of the lunar series: multiples of the
// fundamental arguments D, M, M', F and an amplitude in 1e-6 degrees
type lunarTerm struct {
	d, m, mp, f int
	coeff       float64
}

// Principal longitude terms, truncated at 0.002 degrees amplitude
var lunarLongitude = []lunarTerm{
	{0, 0, 1, 0, 6288774},
	{2, 0, -1, 0, 1274027},
	{2, 0, 0, 0, 658314},
	{0, 0, 2, 0, 213618},
	{0, 1, 0, 0, -185116},
	{0, 0, 0, 2, -114332},
	{2, 0, -2, 0, 58793},
	{2, -1, -1, 0, 57066},
	{2, 0, 1, 0, 53322},
	{2, -1, 0, 0, 45758},
	{0, 1, -1, 0, -40923},
	{1, 0, 0, 0, -34720},
	{0, 1, 1, 0, -30383},
	{2, 0, 0, -2, 15327},
	{0, 0, 1, 2, -12528},
	{0, 0, 1, -2, 10980},
	{4, 0, -1, 0, 10675},
	{0, 0, 3, 0, 10034},
	{4, 0, -2, 0, 8548},
	{2, 1, -1, 0, -7888},
	{2, 1, 0, 0, -6766},
	{1, 0, -1, 0, -5163},
	{1, 1, 0, 0, 4987},
	{2, -1, 1, 0, 4036},
	{2, 0, 2, 0, 3994},
	{4, 0, 0, 0, 3861},
	{2, 0, -3, 0, 3665},
	{0, 1, -2, 0, -2689},
	{2, 0, -1, 2, -2602},
	{2, -1, -2, 0, 2390},
	{1, 0, 1, 0, -2348},
	{2, -2, 0, 0, 2236},
	{0, 1, 2, 0, -2120},
	{0, 2, 0, 0, -2069},
}

// Principal latitude terms
var lunarLatitude = []lunarTerm{
	{0, 0, 0, 1, 5128122},
	{0, 0, 1, 1, 280602},
	{0, 0, 1, -1, 277693},
	{2, 0, 0, -1, 173237},
	{2, 0, -1, 1, 55413},
	{2, 0, -1, -1, 46271},
	{2, 0, 0, 1, 32573},
	{0, 0, 2, 1, 17198},
	{2, 0, 1, -1, 9266},
	{0, 0, 2, -1, 8822},
	{2, -1, 0, -1, 8216},
	{2, 0, -2, -1, 4324},
	{2, 0, 1, 1, 4200},
	{2, 1, 0, -1, -3359},
	{2, -1, -1, 1, 2463},
	{2, -1, 0, 1, 2211},
	{2, -1, -1, -1, 2065},
	{0, 1, -1, -1, -1870},
	{4, 0, -1, -1, 1828},
	{0, 1, 0, 1, -1794},
}

// lunarArguments holds the fundamental arguments in degrees
type lunarArguments struct {
	lp, d, m, mp, f float64
	e               float64 // Earth orbit eccentricity factor
}

func lunarArgs(T float64) lunarArguments {
	T2, T3, T4 := T*T, T*T*T, T*T*T*T
	return lunarArguments{
		lp: 218.3164477 + 481267.88123421*T - 0.0015786*T2 + T3/538841 - T4/65194000,
		d:  297.8501921 + 445267.1114034*T - 0.0018819*T2 + T3/545868 - T4/113065000,
		m:  357.5291092 + 35999.0502909*T - 0.0001536*T2 + T3/24490000,
		mp: 134.9633964 + 477198.8675055*T + 0.0087414*T2 + T3/69699 - T4/14712000,
		f:  93.2720950 + 483202.0175233*T - 0.0036539*T2 - T3/3526000 + T4/863310000,
		e:  1 - 0.002516*T - 0.0000074*T2,
	}
}

// series sums the sine terms of a lunar table
func (a lunarArguments) series(terms []lunarTerm) float64 {
	sum := 0.0
	for _, t := range terms {
		arg := rad(float64(t.d)*a.d + float64(t.m)*a.m + float64(t.mp)*a.mp + float64(t.f)*a.f)
		amp := t.coeff
		switch t.m {
		case 1, -1:
			amp *= a.e
		case 2, -2:
			amp *= a.e * a.e
		}
		sum += amp * math.Sin(arg)
	}
	return sum
}

// geocentricMoon returns the Moon's tropical longitude/latitude referred to
// the mean equinox of date
func geocentricMoon(T float64) (lon, lat float64) {
	a := lunarArgs(T)
	a1 := 119.75 + 131.849*T
	a2 := 53.09 + 479264.290*T
	a3 := 313.45 + 481266.484*T

	sl := a.series(lunarLongitude)
	sl += 3958*math.Sin(rad(a1)) + 1962*math.Sin(rad(a.lp-a.f)) + 318*math.Sin(rad(a2))

	sb := a.series(lunarLatitude)
	sb += -2235*math.Sin(rad(a.lp)) + 382*math.Sin(rad(a3)) +
		175*math.Sin(rad(a1-a.f)) + 175*math.Sin(rad(a1+a.f)) +
		127*math.Sin(rad(a.lp-a.mp)) - 115*math.Sin(rad(a.lp+a.mp))

	return model.Normalize(a.lp + sl/1e6), sb / 1e6
}

// meanNode returns the longitude of the mean ascending lunar node of date
func meanNode(T float64) float64 {
	T2, T3, T4 := T*T, T*T*T, T*T*T*T
	return model.Normalize(125.0445479 - 1934.1362891*T + 0.0020754*T2 + T3/467441 - T4/60616000)
}

// trueNode adds the principal periodic corrections to the mean node
func trueNode(T float64) float64 {
	a := lunarArgs(T)
	corr := -1.4979*math.Sin(rad(2*(a.d-a.f))) -
		0.1500*math.Sin(rad(a.m)) -
		0.1226*math.Sin(rad(2*a.d)) +
		0.1176*math.Sin(rad(2*a.f)) -
		0.0801*math.Sin(rad(2*(a.mp-a.f)))
	return model.Normalize(meanNode(T) + corr)
}
