package model

import (
	"fmt"
	"math"
	"strings"
)

// Sign is a zodiac sign index, Aries = 0 through Pisces = 11
type Sign int

const (
	Aries Sign = iota
	Taurus
	Gemini
	Cancer
	Leo
	Virgo
	Libra
	Scorpio
	Sagittarius
	Capricorn
	Aquarius
	Pisces
)

var signNames = [12]string{
	"aries", "taurus", "gemini", "cancer", "leo", "virgo",
	"libra", "scorpio", "sagittarius", "capricorn", "aquarius", "pisces",
}

func (s Sign) String() string {
	if s < 0 || s > 11 {
		return fmt.Sprintf("sign(%d)", int(s))
	}
	return signNames[s]
}

// MarshalText encodes the sign by name
func (s Sign) MarshalText() ([]byte, error) {
	if s < 0 || s > 11 {
		return nil, fmt.Errorf("invalid sign %d", int(s))
	}
	return []byte(signNames[s]), nil
}

// UnmarshalText decodes a sign name
func (s *Sign) UnmarshalText(text []byte) error {
	parsed, err := ParseSign(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSign resolves a sign name (case-insensitive)
func ParseSign(name string) (Sign, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, candidate := range signNames {
		if candidate == n {
			return Sign(i), nil
		}
	}
	return 0, fmt.Errorf("unknown sign %q", name)
}

// Add returns the sign n steps further along the zodiac
func (s Sign) Add(n int) Sign {
	return Sign(((int(s)+n)%12 + 12) % 12)
}

// Odd reports whether the sign is odd in the traditional 1-based count
// (Aries, Gemini, Leo, ...)
func (s Sign) Odd() bool {
	return s%2 == 0
}

// Element is the classical triplicity of a sign
type Element string

const (
	ElementFire  Element = "fire"
	ElementEarth Element = "earth"
	ElementAir   Element = "air"
	ElementWater Element = "water"
)

// Element returns the sign's triplicity
func (s Sign) Element() Element {
	switch s % 4 {
	case 0:
		return ElementFire
	case 1:
		return ElementEarth
	case 2:
		return ElementAir
	default:
		return ElementWater
	}
}

// Modality is the quadruplicity of a sign
type Modality string

const (
	ModalityMovable Modality = "movable"
	ModalityFixed   Modality = "fixed"
	ModalityDual    Modality = "dual"
)

// Modality returns the sign's quadruplicity
func (s Sign) Modality() Modality {
	switch s % 3 {
	case 0:
		return ModalityMovable
	case 1:
		return ModalityFixed
	default:
		return ModalityDual
	}
}

// Normalize maps any angle in degrees into [0, 360)
func Normalize(deg float64) float64 {
	r := math.Mod(deg, 360)
	if r < 0 {
		r += 360
	}
	if r >= 360 {
		r = 0
	}
	return r
}

// SignOf returns the sign containing an ecliptic longitude
func SignOf(lon float64) Sign {
	return Sign(int(math.Floor(Normalize(lon)/30)) % 12)
}

// DegreeInSign returns the offset of a longitude within its sign, [0, 30)
func DegreeInSign(lon float64) float64 {
	return Normalize(lon) - float64(SignOf(lon))*30
}

// ShortestArc returns the signed shortest rotation from a to b, in (-180, 180].
// ShortestArc(a, b) == -ShortestArc(b, a) unless the two points are exactly opposite.
func ShortestArc(a, b float64) float64 {
	d := math.Remainder(b-a, 360)
	if d == -180 {
		d = 180
	}
	return d
}

// Separation returns the unsigned angular distance between two longitudes, [0, 180]
func Separation(a, b float64) float64 {
	return math.Abs(ShortestArc(a, b))
}
