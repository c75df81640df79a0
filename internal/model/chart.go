package model

import (
	"fmt"
	"time"
)

// Body identifies a tracked celestial body
type Body string

const (
	Sun     Body = "sun"
	Moon    Body = "moon"
	Mercury Body = "mercury"
	Venus   Body = "venus"
	Mars    Body = "mars"
	Jupiter Body = "jupiter"
	Saturn  Body = "saturn"
	Rahu    Body = "rahu" // Ascending lunar node
	Ketu    Body = "ketu" // Descending lunar node
)

// Bodies is the fixed order in which positions appear in a snapshot
var Bodies = []Body{Sun, Moon, Mercury, Venus, Mars, Jupiter, Saturn, Rahu, Ketu}

// NodeMode selects how the lunar nodes are computed
type NodeMode string

const (
	NodeMean NodeMode = "mean"
	NodeTrue NodeMode = "true"
)

// ParseNodeMode validates a node mode name
func ParseNodeMode(s string) (NodeMode, error) {
	switch NodeMode(s) {
	case NodeMean, NodeTrue:
		return NodeMode(s), nil
	}
	return "", NewValidationError("node_mode", s, "must be one of mean, true")
}

// HouseSystem identifies a house division method
type HouseSystem string

const (
	WholeSign HouseSystem = "whole_sign"
	Equal     HouseSystem = "equal"
	Porphyry  HouseSystem = "porphyry"
	Placidus  HouseSystem = "placidus"
)

// HouseSystems lists every supported house system
var HouseSystems = []HouseSystem{WholeSign, Equal, Porphyry, Placidus}

// ParseHouseSystem validates a house system name
func ParseHouseSystem(s string) (HouseSystem, error) {
	for _, hs := range HouseSystems {
		if string(hs) == s {
			return hs, nil
		}
	}
	return "", NewValidationError("house_system", s, "must be one of whole_sign, equal, porphyry, placidus")
}

// DivisionalKind identifies a divisional chart variant (D1, D9, ...)
type DivisionalKind string

const (
	D1  DivisionalKind = "D1"
	D2  DivisionalKind = "D2"
	D3  DivisionalKind = "D3"
	D4  DivisionalKind = "D4"
	D7  DivisionalKind = "D7"
	D9  DivisionalKind = "D9"
	D10 DivisionalKind = "D10"
	D12 DivisionalKind = "D12"
	D30 DivisionalKind = "D30"
	D60 DivisionalKind = "D60"
)

// CelestialPosition is one body's sidereal placement at an instant
type CelestialPosition struct {
	Body       Body    `json:"body"`
	Longitude  float64 `json:"longitude"` // Sidereal, [0, 360)
	Latitude   float64 `json:"latitude"`
	Speed      float64 `json:"speed"` // Degrees per day
	Retrograde bool    `json:"retrograde"`
	Sign       Sign    `json:"sign"`
	Degree     float64 `json:"degree"` // Offset within sign, [0, 30)
	House      int     `json:"house"`  // 1-12, 0 before houses are assigned
}

// HouseSet holds the ascendant and the twelve cusps, house 1 first
type HouseSet struct {
	System    HouseSystem `json:"system"`
	Ascendant float64     `json:"ascendant"`
	Midheaven float64     `json:"midheaven"`
	Cusps     [12]float64 `json:"cusps"`
}

// Validate checks that cusps increase strictly (mod 360) in house order
func (h HouseSet) Validate() error {
	total := 0.0
	for i := 0; i < 12; i++ {
		arc := Normalize(h.Cusps[(i+1)%12] - h.Cusps[i])
		if arc <= 0 {
			return fmt.Errorf("house %d has zero or negative width", i+1)
		}
		total += arc
	}
	if total < 359.999999 || total > 360.000001 {
		return fmt.Errorf("cusps wrap %.6f degrees, want 360", total)
	}
	return nil
}

// HouseOf returns the house (1-12) containing a longitude
func (h HouseSet) HouseOf(lon float64) int {
	for i := 0; i < 12; i++ {
		start := h.Cusps[i]
		width := Normalize(h.Cusps[(i+1)%12] - start)
		if Normalize(lon-start) < width {
			return i + 1
		}
	}
	return 12
}

// AyanamsaValue records which ayanamsa was applied and its value at the instant
type AyanamsaValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// ChartSnapshot is an immutable chart for one (instant, location, divisional kind)
type ChartSnapshot struct {
	Kind              DivisionalKind      `json:"kind"`
	Instant           time.Time           `json:"instant"`
	Latitude          float64             `json:"latitude"`
	Longitude         float64             `json:"longitude"`
	Ayanamsa          AyanamsaValue       `json:"ayanamsa"`
	NodeMode          NodeMode            `json:"node_mode"`
	Houses            HouseSet            `json:"houses"`
	Positions         []CelestialPosition `json:"positions"`
	HouseFallbackFrom HouseSystem         `json:"house_fallback_from,omitempty"`
}

// Position returns the placement of a body, if tracked
func (c ChartSnapshot) Position(b Body) (CelestialPosition, bool) {
	for _, p := range c.Positions {
		if p.Body == b {
			return p, true
		}
	}
	return CelestialPosition{}, false
}

// AscendantSign returns the sign on the ascendant
func (c ChartSnapshot) AscendantSign() Sign {
	return SignOf(c.Houses.Ascendant)
}

// ChartDiff is the structured difference between two snapshots of the same kind
type ChartDiff struct {
	Kind                 DivisionalKind `json:"kind"`
	From                 time.Time      `json:"from"`
	To                   time.Time      `json:"to"`
	AscendantDelta       float64        `json:"ascendant_delta"`
	AscendantSignChanged bool           `json:"ascendant_sign_changed"`
	Bodies               []BodyDiff     `json:"bodies"`
}

// BodyDiff describes how one body moved between two snapshots
type BodyDiff struct {
	Body         Body    `json:"body"`
	OldSign      Sign    `json:"old_sign"`
	NewSign      Sign    `json:"new_sign"`
	SignChanged  bool    `json:"sign_changed"`
	OldHouse     int     `json:"old_house"`
	NewHouse     int     `json:"new_house"`
	HouseChanged bool    `json:"house_changed"`
	DegreeDelta  float64 `json:"degree_delta"` // Shortest arc, (-180, 180]
}
