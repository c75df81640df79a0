package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// BirthQuery is the user-declared birth data and chart preferences.
// It is produced by a form layer and validated with validate.Query.
type BirthQuery struct {
	Date        string      `json:"date" yaml:"date" validate:"required,datetime=2006-01-02"`
	Time        string      `json:"time" yaml:"time" validate:"required,clock"`
	UTCOffset   string      `json:"utc_offset" yaml:"utc_offset" validate:"required,utcoffset"`
	Latitude    float64     `json:"latitude" yaml:"latitude" validate:"gte=-90,lte=90"`
	Longitude   float64     `json:"longitude" yaml:"longitude" validate:"gte=-180,lte=180"`
	Window      *TimeWindow `json:"window,omitempty" yaml:"window,omitempty"`
	Ayanamsa    string      `json:"ayanamsa,omitempty" yaml:"ayanamsa,omitempty"`
	HouseSystem string      `json:"house_system,omitempty" yaml:"house_system,omitempty"`
	NodeMode    string      `json:"node_mode,omitempty" yaml:"node_mode,omitempty"`
}

// TimeWindow is the declared uncertainty of the birth time, as civil
// clock times on the birth date. Windows do not cross midnight.
type TimeWindow struct {
	Start string `json:"start" yaml:"start" validate:"required,clock"`
	End   string `json:"end" yaml:"end" validate:"required,clock"`
}

// Location returns the fixed zone described by UTCOffset
func (q BirthQuery) Location() (*time.Location, error) {
	secs, err := ParseUTCOffset(q.UTCOffset)
	if err != nil {
		return nil, err
	}
	return time.FixedZone(q.UTCOffset, secs), nil
}

// Instant returns the reported birth instant in UTC
func (q BirthQuery) Instant() (time.Time, error) {
	return q.civil(q.Time, "time")
}

// WindowBounds returns the declared window in UTC. ok is false when no
// window was declared.
func (q BirthQuery) WindowBounds() (start, end time.Time, ok bool, err error) {
	if q.Window == nil {
		return time.Time{}, time.Time{}, false, nil
	}
	start, err = q.civil(q.Window.Start, "window.start")
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	end, err = q.civil(q.Window.End, "window.end")
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	return start, end, true, nil
}

func (q BirthQuery) civil(clock, field string) (time.Time, error) {
	loc, err := q.Location()
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.ParseInLocation(DateLayout+" "+ClockLayout, q.Date+" "+clock, loc)
	if err != nil {
		return time.Time{}, NewValidationError(field, clock, "expected HH:MM on "+q.Date)
	}
	return t.UTC(), nil
}

// ParseUTCOffset parses "+05:30", "-04:00" or "Z" into seconds east of UTC
func ParseUTCOffset(s string) (int, error) {
	if s == "Z" || s == "z" {
		return 0, nil
	}
	bad := NewValidationError("utc_offset", s, "expected ±HH:MM between -12:00 and +14:00")
	if len(s) != 6 || (s[0] != '+' && s[0] != '-') || s[3] != ':' {
		return 0, bad
	}
	h, err := strconv.Atoi(s[1:3])
	if err != nil {
		return 0, bad
	}
	m, err := strconv.Atoi(s[4:6])
	if err != nil || m > 59 {
		return 0, bad
	}
	secs := h*3600 + m*60
	if s[0] == '-' {
		secs = -secs
	}
	if secs < -12*3600 || secs > 14*3600 {
		return 0, bad
	}
	return secs, nil
}

// ChartOptions are the named, explicit choices that shape a chart
type ChartOptions struct {
	Ayanamsa          string         `json:"ayanamsa" yaml:"ayanamsa" mapstructure:"ayanamsa"`
	HouseSystem       HouseSystem    `json:"house_system" yaml:"house_system" mapstructure:"house_system"`
	NodeMode          NodeMode       `json:"node_mode" yaml:"node_mode" mapstructure:"node_mode"`
	Division          DivisionalKind `json:"division" yaml:"division" mapstructure:"division"`
	FallbackWholeSign bool           `json:"fallback_whole_sign" yaml:"fallback_whole_sign" mapstructure:"fallback_whole_sign"`
}

// Merge overrides the defaults with any chart choices carried by the query
func (o ChartOptions) Merge(q BirthQuery) (ChartOptions, error) {
	out := o
	if q.Ayanamsa != "" {
		out.Ayanamsa = strings.ToLower(q.Ayanamsa)
	}
	if q.HouseSystem != "" {
		hs, err := ParseHouseSystem(q.HouseSystem)
		if err != nil {
			return o, err
		}
		out.HouseSystem = hs
	}
	if q.NodeMode != "" {
		nm, err := ParseNodeMode(q.NodeMode)
		if err != nil {
			return o, err
		}
		out.NodeMode = nm
	}
	return out, nil
}

func (o ChartOptions) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", o.Ayanamsa, o.HouseSystem, o.NodeMode, o.Division)
}
