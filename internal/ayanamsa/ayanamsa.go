// Package ayanamsa converts tropical longitudes to sidereal ones.
//
// An ayanamsa is defined by its value at J2000.0; the value at any other
// instant adds the general precession accumulated since then.
package ayanamsa

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/lagna/internal/ephemeris"
	"github.com/ppiankov/lagna/internal/model"
)

const customPrefix = "custom:"

// Values at J2000.0 in degrees
var epochValues = map[string]float64{
	"lahiri":       23.857092,
	"raman":        22.410791,
	"krishnamurti": 23.760240,
}

var aliases = map[string]string{
	"kp":           "krishnamurti",
	"chitrapaksha": "lahiri",
}

// Ayanamsa is a resolved, named ayanamsa
type Ayanamsa struct {
	Name  string
	Epoch float64 // Value at J2000.0, degrees
}

// Supported lists the accepted identifiers
func Supported() []string {
	names := make([]string, 0, len(epochValues)+len(aliases)+1)
	for n := range epochValues {
		names = append(names, n)
	}
	for a := range aliases {
		names = append(names, a)
	}
	sort.Strings(names)
	return append(names, customPrefix+"<degrees>")
}

// Parse resolves an identifier such as "lahiri", "kp" or "custom:23.5".
// Unrecognized identifiers yield *model.UnknownAyanamsaError.
func Parse(id string) (Ayanamsa, error) {
	name := strings.ToLower(strings.TrimSpace(id))
	if canonical, ok := aliases[name]; ok {
		name = canonical
	}
	if v, ok := epochValues[name]; ok {
		return Ayanamsa{Name: name, Epoch: v}, nil
	}
	if strings.HasPrefix(name, customPrefix) {
		v, err := strconv.ParseFloat(strings.TrimPrefix(name, customPrefix), 64)
		if err == nil && v >= 0 && v < 360 {
			return Ayanamsa{Name: fmt.Sprintf("%s%g", customPrefix, v), Epoch: v}, nil
		}
	}
	return Ayanamsa{}, &model.UnknownAyanamsaError{Name: id, Supported: Supported()}
}

// At returns the ayanamsa value in degrees at an instant
func (a Ayanamsa) At(t time.Time) float64 {
	T := ephemeris.Centuries(ephemeris.JulianDayTT(t))
	return a.Epoch + ephemeris.Precession(T)
}

// Sidereal converts a tropical longitude using an ayanamsa value, into [0, 360)
func Sidereal(tropical, value float64) float64 {
	return model.Normalize(tropical - value)
}

// Correct converts tropical positions into sidereal CelestialPositions.
// Houses are left unassigned.
func (a Ayanamsa) Correct(t time.Time, positions []ephemeris.Position) (model.AyanamsaValue, []model.CelestialPosition) {
	value := a.At(t)
	out := make([]model.CelestialPosition, len(positions))
	for i, p := range positions {
		lon := Sidereal(p.Longitude, value)
		out[i] = model.CelestialPosition{
			Body:       p.Body,
			Longitude:  lon,
			Latitude:   p.Latitude,
			Speed:      p.Speed,
			Retrograde: p.Retrograde(),
			Sign:       model.SignOf(lon),
			Degree:     model.DegreeInSign(lon),
		}
	}
	return model.AyanamsaValue{Name: a.Name, Value: value}, out
}
