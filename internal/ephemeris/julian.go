package ephemeris

import (
	"math"
	"time"

	"github.com/ppiankov/lagna/internal/model"
)

const (
	// J2000 is the Julian day of 2000-01-01T12:00 TT
	J2000 = 2451545.0

	unixEpochJD     = 2440587.5
	secondsPerDay   = 86400.0
	daysPerCentury  = 36525.0
	arcsecPerDegree = 3600.0
)

// JulianDay converts an instant to a Julian day on the UT scale
func JulianDay(t time.Time) float64 {
	t = t.UTC()
	return unixEpochJD + float64(t.Unix())/secondsPerDay + float64(t.Nanosecond())/1e9/secondsPerDay
}

// JulianDayTT converts an instant to a Julian day in Terrestrial Time
func JulianDayTT(t time.Time) float64 {
	return JulianDay(t) + DeltaT(t)/secondsPerDay
}

// Centuries returns Julian centuries since J2000 for a Julian day
func Centuries(jd float64) float64 {
	return (jd - J2000) / daysPerCentury
}

// DeltaT returns TT - UT in seconds (Espenak & Meeus polynomial fits)
func DeltaT(t time.Time) float64 {
	t = t.UTC()
	y := float64(t.Year()) + (float64(t.YearDay())-0.5)/365.25

	switch {
	case y < 1800:
		u := (y - 1820) / 100
		return -20 + 32*u*u
	case y < 1860:
		x := y - 1800
		return 13.72 - 0.332447*x + 0.0068612*x*x + 0.0041116*math.Pow(x, 3) -
			0.00037436*math.Pow(x, 4) + 0.0000121272*math.Pow(x, 5) -
			0.0000001699*math.Pow(x, 6) + 0.000000000875*math.Pow(x, 7)
	case y < 1900:
		x := y - 1860
		return 7.62 + 0.5737*x - 0.251754*x*x + 0.01680668*math.Pow(x, 3) -
			0.0004473624*math.Pow(x, 4) + math.Pow(x, 5)/233174
	case y < 1920:
		x := y - 1900
		return -2.79 + 1.494119*x - 0.0598939*x*x + 0.0061966*math.Pow(x, 3) - 0.000197*math.Pow(x, 4)
	case y < 1941:
		x := y - 1920
		return 21.20 + 0.84493*x - 0.076100*x*x + 0.0020936*math.Pow(x, 3)
	case y < 1961:
		x := y - 1950
		return 29.07 + 0.407*x - x*x/233 + math.Pow(x, 3)/2547
	case y < 1986:
		x := y - 1975
		return 45.45 + 1.067*x - x*x/260 - math.Pow(x, 3)/718
	case y < 2005:
		x := y - 2000
		return 63.86 + 0.3345*x - 0.060374*x*x + 0.0017275*math.Pow(x, 3) +
			0.000651814*math.Pow(x, 4) + 0.00002373599*math.Pow(x, 5)
	case y < 2050:
		x := y - 2000
		return 62.92 + 0.32217*x + 0.005589*x*x
	case y < 2150:
		u := (y - 1820) / 100
		return -20 + 32*u*u - 0.5628*(2150-y)
	default:
		u := (y - 1820) / 100
		return -20 + 32*u*u
	}
}

// Precession returns the general precession in longitude since J2000, in
// degrees, for T Julian centuries (TT)
func Precession(T float64) float64 {
	return (5028.796195*T + 1.1054348*T*T) / arcsecPerDegree
}

// Obliquity returns the mean obliquity of the ecliptic in degrees
func Obliquity(T float64) float64 {
	return 23.0 + 26.0/60 + 21.448/arcsecPerDegree -
		(46.8150*T+0.00059*T*T-0.001813*T*T*T)/arcsecPerDegree
}

// SiderealTime returns Greenwich mean sidereal time in degrees for a UT Julian day
func SiderealTime(jdUT float64) float64 {
	T := Centuries(jdUT)
	theta := 280.46061837 + 360.98564736629*(jdUT-J2000) + 0.000387933*T*T - T*T*T/38710000
	return model.Normalize(theta)
}

func rad(d float64) float64 { return d * math.Pi / 180 }

func deg(r float64) float64 { return r * 180 / math.Pi }
