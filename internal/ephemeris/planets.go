package ephemeris

import (
	"math"

	"github.com/ppiankov/lagna/internal/model"
)

// orbit holds mean Keplerian elements at J2000 and their rates per century,
// referred to the J2000 ecliptic and equinox. Angles are in degrees, a in AU.
// b, c, s, f are the additional mean-anomaly terms used for Jupiter and Saturn.
type orbit struct {
	a, aDot       float64
	e, eDot       float64
	incl, inclDot float64
	l, lDot       float64 // Mean longitude
	peri, periDot float64 // Longitude of perihelion
	node, nodeDot float64 // Longitude of ascending node
	b, c, s, f    float64
}

var orbits = map[model.Body]orbit{
	model.Mercury: {
		a: 0.38709843, aDot: 0,
		e: 0.20563661, eDot: 0.00002123,
		incl: 7.00559432, inclDot: -0.00590158,
		l: 252.25166724, lDot: 149472.67486623,
		peri: 77.45771895, periDot: 0.15940013,
		node: 48.33961819, nodeDot: -0.12214182,
	},
	model.Venus: {
		a: 0.72332102, aDot: -0.00000026,
		e: 0.00676399, eDot: -0.00005107,
		incl: 3.39777545, inclDot: 0.00043494,
		l: 181.97970850, lDot: 58517.81560260,
		peri: 131.76755713, periDot: 0.05679648,
		node: 76.67261496, nodeDot: -0.27274174,
	},
	model.Mars: {
		a: 1.52371243, aDot: 0.00000097,
		e: 0.09336511, eDot: 0.00009149,
		incl: 1.85181869, inclDot: -0.00724757,
		l: -4.56813164, lDot: 19140.29934243,
		peri: -23.91744784, periDot: 0.45223625,
		node: 49.71320984, nodeDot: -0.26852431,
	},
	model.Jupiter: {
		a: 5.20248019, aDot: -0.00002864,
		e: 0.04853590, eDot: 0.00018026,
		incl: 1.29861416, inclDot: -0.00322699,
		l: 34.33479152, lDot: 3034.90371757,
		peri: 14.27495244, periDot: 0.18199196,
		node: 100.29282654, nodeDot: 0.13024619,
		b: -0.00012452, c: 0.06064060, s: -0.35635438, f: 38.35125000,
	},
	model.Saturn: {
		a: 9.54149883, aDot: -0.00003065,
		e: 0.05550825, eDot: -0.00032044,
		incl: 2.49424102, inclDot: 0.00451969,
		l: 50.07571329, lDot: 1222.11494724,
		peri: 92.86136063, periDot: 0.54179478,
		node: 113.63998702, nodeDot: -0.25015002,
		b: 0.00025899, c: -0.13434469, s: 0.87320147, f: 38.35125000,
	},
}

// earthMoonBarycenter stands in for the Earth in geocentric conversion
var earthMoonBarycenter = orbit{
	a: 1.00000018, aDot: -0.00000003,
	e: 0.01673163, eDot: -0.00003661,
	incl: -0.00054346, inclDot: -0.01337178,
	l: 100.46691572, lDot: 35999.37306329,
	peri: 102.93005885, periDot: 0.31795260,
	node: -5.11260389, nodeDot: -0.24123856,
}

const (
	keplerIterations = 30
	keplerTolerance  = 1e-12

	// lightDaysPerAU is the light travel time across one astronomical unit
	lightDaysPerAU = 0.0057755183
)

type vec3 struct{ x, y, z float64 }

func (v vec3) sub(o vec3) vec3 { return vec3{v.x - o.x, v.y - o.y, v.z - o.z} }

func (v vec3) norm() float64 { return math.Sqrt(v.x*v.x + v.y*v.y + v.z*v.z) }

// spherical returns ecliptic longitude [0,360) and latitude in degrees
func (v vec3) spherical() (lon, lat float64) {
	lon = model.Normalize(deg(math.Atan2(v.y, v.x)))
	lat = deg(math.Atan2(v.z, math.Hypot(v.x, v.y)))
	return lon, lat
}

// heliocentric returns the J2000 ecliptic position in AU at T centuries TT
func (o orbit) heliocentric(T float64) vec3 {
	a := o.a + o.aDot*T
	e := o.e + o.eDot*T
	incl := rad(o.incl + o.inclDot*T)
	l := o.l + o.lDot*T
	peri := o.peri + o.periDot*T
	node := o.node + o.nodeDot*T

	m := l - peri + o.b*T*T
	if o.f != 0 {
		m += o.c*math.Cos(rad(o.f*T)) + o.s*math.Sin(rad(o.f*T))
	}
	m = math.Remainder(m, 360)

	E := solveKepler(rad(m), e)
	xp := a * (math.Cos(E) - e)
	yp := a * math.Sqrt(1-e*e) * math.Sin(E)

	w := rad(peri) - rad(node)
	om := rad(node)
	cw, sw := math.Cos(w), math.Sin(w)
	co, so := math.Cos(om), math.Sin(om)
	ci, si := math.Cos(incl), math.Sin(incl)

	return vec3{
		x: (cw*co-sw*so*ci)*xp + (-sw*co-cw*so*ci)*yp,
		y: (cw*so+sw*co*ci)*xp + (-sw*so+cw*co*ci)*yp,
		z: (sw*si)*xp + (cw*si)*yp,
	}
}

// solveKepler solves M = E - e sin E by Newton iteration with a fixed cap so
// the result is reproducible for the same input
func solveKepler(m, e float64) float64 {
	E := m + e*math.Sin(m)
	for i := 0; i < keplerIterations; i++ {
		dE := (E - e*math.Sin(E) - m) / (1 - e*math.Cos(E))
		E -= dE
		if math.Abs(dE) < keplerTolerance {
			break
		}
	}
	return E
}

// geocentricPlanet returns tropical longitude/latitude of date for a planet,
// corrected once for light time
func geocentricPlanet(o orbit, T float64) (lon, lat float64) {
	earth := earthMoonBarycenter.heliocentric(T)
	geo := o.heliocentric(T).sub(earth)
	tau := geo.norm() * lightDaysPerAU / daysPerCentury
	geo = o.heliocentric(T - tau).sub(earth)

	lon, lat = geo.spherical()
	return model.Normalize(lon + Precession(T)), lat
}

// geocentricSun returns the Sun's tropical longitude/latitude of date
func geocentricSun(T float64) (lon, lat float64) {
	earth := earthMoonBarycenter.heliocentric(T)
	sun := vec3{-earth.x, -earth.y, -earth.z}
	lon, lat = sun.spherical()
	return model.Normalize(lon + Precession(T)), lat
}
