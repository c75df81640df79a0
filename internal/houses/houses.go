// Package houses derives the ascendant, midheaven and the twelve house
// cusps for an instant and location.
package houses

import (
	"fmt"
	"math"
	"time"

	"github.com/ppiankov/lagna/internal/ephemeris"
	"github.com/ppiankov/lagna/internal/model"
)

// PolarLimit is the latitude beyond which Placidus is refused outright
const PolarLimit = 66.5

const (
	placidusIterations = 50
	placidusTolerance  = 1e-9
)

// Angles are the tropical chart angles of date, in degrees
type Angles struct {
	RAMC      float64 // Right ascension of the midheaven (local sidereal time)
	Obliquity float64
	Ascendant float64
	Midheaven float64
}

// ComputeAngles returns the tropical angles for an instant and location
// (east longitude positive)
func ComputeAngles(t time.Time, lat, lon float64) Angles {
	ramc := model.Normalize(ephemeris.SiderealTime(ephemeris.JulianDay(t)) + lon)
	eps := ephemeris.Obliquity(ephemeris.Centuries(ephemeris.JulianDayTT(t)))

	r, e, phi := rad(ramc), rad(eps), rad(lat)
	asc := deg(math.Atan2(math.Cos(r), -(math.Sin(r)*math.Cos(e) + math.Tan(phi)*math.Sin(e))))
	mc := deg(math.Atan2(math.Sin(r), math.Cos(r)*math.Cos(e)))

	return Angles{
		RAMC:      ramc,
		Obliquity: eps,
		Ascendant: model.Normalize(asc),
		Midheaven: model.Normalize(mc),
	}
}

// Compute returns the sidereal HouseSet for the given system. ayanamsa is
// the value (degrees) already applied to the bodies of the same chart.
func Compute(t time.Time, lat, lon float64, system model.HouseSystem, ayanamsa float64) (model.HouseSet, error) {
	angles := ComputeAngles(t, lat, lon)
	asc := model.Normalize(angles.Ascendant - ayanamsa)
	mc := model.Normalize(angles.Midheaven - ayanamsa)

	hs := model.HouseSet{System: system, Ascendant: asc, Midheaven: mc}

	switch system {
	case model.WholeSign:
		first := float64(model.SignOf(asc)) * 30
		for i := range hs.Cusps {
			hs.Cusps[i] = model.Normalize(first + float64(i)*30)
		}
	case model.Equal:
		for i := range hs.Cusps {
			hs.Cusps[i] = model.Normalize(asc + float64(i)*30)
		}
	case model.Porphyry:
		hs.Cusps = porphyry(asc, mc)
	case model.Placidus:
		if math.Abs(lat) > PolarLimit {
			return model.HouseSet{}, &model.HouseSystemUndefinedError{
				System: system, Latitude: lat, Limit: PolarLimit,
				Reason: "inside the polar circle semi-arcs are undefined",
			}
		}
		cusps, err := placidus(angles, lat)
		if err != nil {
			return model.HouseSet{}, err
		}
		for i, c := range cusps {
			hs.Cusps[i] = model.Normalize(c - ayanamsa)
		}
	default:
		if _, err := model.ParseHouseSystem(string(system)); err != nil {
			return model.HouseSet{}, err
		}
	}

	if err := hs.Validate(); err != nil {
		return model.HouseSet{}, &model.HouseSystemUndefinedError{
			System: system, Latitude: lat, Reason: err.Error(),
		}
	}
	return hs, nil
}

// porphyry trisects each quadrant in ecliptic longitude
func porphyry(asc, mc float64) [12]float64 {
	ic := model.Normalize(mc + 180)
	desc := model.Normalize(asc + 180)
	lower := model.Normalize(ic - asc) // Houses 1-3, and 7-9 opposite
	upper := model.Normalize(asc - mc) // Houses 10-12, and 4-6 opposite

	var c [12]float64
	c[0], c[3], c[6], c[9] = asc, ic, desc, mc
	for k := 1; k <= 2; k++ {
		f := float64(k) / 3
		c[k] = model.Normalize(asc + f*lower)
		c[3+k] = model.Normalize(ic + f*upper)
		c[6+k] = model.Normalize(desc + f*lower)
		c[9+k] = model.Normalize(mc + f*upper)
	}
	return c
}

// placidus returns tropical cusps by trisecting semi-arcs in time
func placidus(a Angles, lat float64) ([12]float64, error) {
	var c [12]float64
	c[0], c[9] = a.Ascendant, a.Midheaven

	specs := []struct {
		house   int
		frac    float64
		diurnal bool
	}{
		{11, 1.0 / 3, true},
		{12, 2.0 / 3, true},
		{2, 2.0 / 3, false},
		{3, 1.0 / 3, false},
	}
	for _, s := range specs {
		lon, err := placidusCusp(a, lat, s.frac, s.diurnal)
		if err != nil {
			return c, &model.HouseSystemUndefinedError{
				System: model.Placidus, Latitude: lat, Limit: PolarLimit,
				Reason: fmt.Sprintf("cusp %d: %v", s.house, err),
			}
		}
		c[s.house-1] = lon
	}

	for i := 0; i < 6; i++ {
		// Houses 4-9 are opposite 10-12 and 1-3
		opp := (i + 9) % 12
		c[(opp+6)%12] = model.Normalize(c[opp] + 180)
	}
	return c, nil
}

func placidusCusp(a Angles, lat, frac float64, diurnal bool) (float64, error) {
	eps, phi := rad(a.Obliquity), rad(lat)

	ra := a.RAMC + 90*frac
	if !diurnal {
		ra = a.RAMC + 180 - 90*frac
	}

	for i := 0; i < placidusIterations; i++ {
		lon := eclipticFromRA(ra, eps)
		dec := math.Asin(math.Sin(eps) * math.Sin(rad(lon)))
		x := math.Tan(phi) * math.Tan(dec)
		if math.Abs(x) >= 1 {
			return 0, fmt.Errorf("circumpolar point at declination %.4f", deg(dec))
		}
		ad := deg(math.Asin(x))

		next := a.RAMC + frac*(90+ad)
		if !diurnal {
			next = a.RAMC + 180 - frac*(90-ad)
		}
		if math.Abs(math.Remainder(next-ra, 360)) < placidusTolerance {
			return eclipticFromRA(next, eps), nil
		}
		ra = next
	}
	return 0, fmt.Errorf("no convergence after %d iterations", placidusIterations)
}

// eclipticFromRA returns the longitude of the ecliptic point with the given
// right ascension
func eclipticFromRA(ra, eps float64) float64 {
	r := rad(ra)
	return model.Normalize(deg(math.Atan2(math.Sin(r), math.Cos(r)*math.Cos(eps))))
}

func rad(d float64) float64 { return d * math.Pi / 180 }

func deg(r float64) float64 { return r * 180 / math.Pi }
