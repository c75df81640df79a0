// Package divisional derives divisional (varga) charts from a D1 snapshot.
//
// Each variant splits a 30 degree sign into segments and maps every segment
// onto a sign by a fixed rule. The divisional longitude keeps the position
// within the segment, scaled to the full width of the target sign.
package divisional

import (
	"math"
	"sort"
	"strings"

	"github.com/ppiankov/lagna/internal/model"
)

// rule maps a sign and the offset within it to a target sign and the
// fraction [0,1) traversed inside the segment
type rule func(sign model.Sign, deg float64) (model.Sign, float64)

var rules = map[model.DivisionalKind]rule{
	model.D1:  func(s model.Sign, d float64) (model.Sign, float64) { return s, d / 30 },
	model.D2:  hora,
	model.D3:  equalParts(3, func(s model.Sign, p int) model.Sign { return s.Add(4 * p) }),
	model.D4:  equalParts(4, func(s model.Sign, p int) model.Sign { return s.Add(3 * p) }),
	model.D7:  equalParts(7, saptamsa),
	model.D9:  equalParts(9, navamsa),
	model.D10: equalParts(10, dasamsa),
	model.D12: equalParts(12, func(s model.Sign, p int) model.Sign { return s.Add(p) }),
	model.D30: trimsamsa,
	model.D60: equalParts(60, func(s model.Sign, p int) model.Sign { return s.Add(p) }),
}

// Supported lists the implemented variants in ascending order
func Supported() []string {
	out := make([]string, 0, len(rules))
	for k := range rules {
		out = append(out, string(k))
	}
	sort.Slice(out, func(i, j int) bool {
		return divisor(out[i]) < divisor(out[j])
	})
	return out
}

func divisor(kind string) int {
	n := 0
	for _, r := range strings.TrimPrefix(kind, "D") {
		n = n*10 + int(r-'0')
	}
	return n
}

// ParseKind validates a variant name such as "D9" or "d9"
func ParseKind(s string) (model.DivisionalKind, error) {
	k := model.DivisionalKind(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := rules[k]; !ok {
		return "", &model.UnsupportedDivisionalChartError{Kind: s, Supported: Supported()}
	}
	return k, nil
}

// Longitude maps a D1 longitude into the given variant
func Longitude(kind model.DivisionalKind, lon float64) (float64, error) {
	r, ok := rules[kind]
	if !ok {
		return 0, &model.UnsupportedDivisionalChartError{Kind: string(kind), Supported: Supported()}
	}
	sign, frac := r(model.SignOf(lon), model.DegreeInSign(lon))
	return model.Normalize(float64(sign)*30 + frac*30), nil
}

// SignOf maps a D1 longitude to its sign in the given variant
func SignOf(kind model.DivisionalKind, lon float64) (model.Sign, error) {
	l, err := Longitude(kind, lon)
	if err != nil {
		return 0, err
	}
	return model.SignOf(l), nil
}

// Derive builds the divisional variant of a D1 snapshot. Houses of the
// variant are whole-sign from the divisional ascendant. The source is not
// modified and no ephemeris computation takes place.
func Derive(d1 model.ChartSnapshot, kind model.DivisionalKind) (model.ChartSnapshot, error) {
	if d1.Kind != model.D1 {
		return model.ChartSnapshot{}, model.NewValidationError("kind", string(d1.Kind), "divisional charts derive from a D1 snapshot")
	}
	if kind == model.D1 {
		return clone(d1), nil
	}

	asc, err := Longitude(kind, d1.Houses.Ascendant)
	if err != nil {
		return model.ChartSnapshot{}, err
	}
	mc, _ := Longitude(kind, d1.Houses.Midheaven)

	out := clone(d1)
	out.Kind = kind
	out.HouseFallbackFrom = ""
	out.Houses = model.HouseSet{System: model.WholeSign, Ascendant: asc, Midheaven: mc}
	first := float64(model.SignOf(asc)) * 30
	for i := range out.Houses.Cusps {
		out.Houses.Cusps[i] = model.Normalize(first + float64(i)*30)
	}

	for i, p := range out.Positions {
		lon, _ := Longitude(kind, p.Longitude)
		out.Positions[i].Longitude = lon
		out.Positions[i].Sign = model.SignOf(lon)
		out.Positions[i].Degree = model.DegreeInSign(lon)
		out.Positions[i].House = out.Houses.HouseOf(lon)
	}
	return out, nil
}

func clone(c model.ChartSnapshot) model.ChartSnapshot {
	out := c
	out.Positions = append([]model.CelestialPosition(nil), c.Positions...)
	return out
}

// equalParts builds a rule for n equal segments with a sign mapping
func equalParts(n int, target func(model.Sign, int) model.Sign) rule {
	size := 30.0 / float64(n)
	return func(s model.Sign, d float64) (model.Sign, float64) {
		p := int(math.Floor(d / size))
		if p >= n {
			p = n - 1
		}
		frac := (d - float64(p)*size) / size
		return target(s, p), frac
	}
}

// hora: odd signs give Leo then Cancer, even signs Cancer then Leo
func hora(s model.Sign, d float64) (model.Sign, float64) {
	first, second := model.Leo, model.Cancer
	if !s.Odd() {
		first, second = model.Cancer, model.Leo
	}
	if d < 15 {
		return first, d / 15
	}
	return second, (d - 15) / 15
}

// saptamsa counts from the sign itself for odd signs, from the 7th for even
func saptamsa(s model.Sign, p int) model.Sign {
	if s.Odd() {
		return s.Add(p)
	}
	return s.Add(6 + p)
}

// navamsa starts from the sign for movable signs, the 9th for fixed and
// the 5th for dual signs
func navamsa(s model.Sign, p int) model.Sign {
	switch s.Modality() {
	case model.ModalityMovable:
		return s.Add(p)
	case model.ModalityFixed:
		return s.Add(8 + p)
	default:
		return s.Add(4 + p)
	}
}

// dasamsa counts from the sign for odd signs, from the 9th for even
func dasamsa(s model.Sign, p int) model.Sign {
	if s.Odd() {
		return s.Add(p)
	}
	return s.Add(8 + p)
}

type trimsamsaSegment struct {
	end  float64
	sign model.Sign
}

var (
	trimsamsaOdd = []trimsamsaSegment{
		{5, model.Aries}, {10, model.Aquarius}, {18, model.Sagittarius}, {25, model.Gemini}, {30, model.Libra},
	}
	trimsamsaEven = []trimsamsaSegment{
		{5, model.Taurus}, {12, model.Virgo}, {20, model.Pisces}, {25, model.Capricorn}, {30, model.Scorpio},
	}
)

// trimsamsa uses unequal segments ruled by Mars, Saturn, Jupiter, Mercury
// and Venus, reversed for even signs
func trimsamsa(s model.Sign, d float64) (model.Sign, float64) {
	segments := trimsamsaOdd
	if !s.Odd() {
		segments = trimsamsaEven
	}
	start := 0.0
	for _, seg := range segments {
		if d < seg.end {
			return seg.sign, (d - start) / (seg.end - start)
		}
		start = seg.end
	}
	last := segments[len(segments)-1]
	return last.sign, 0
}
