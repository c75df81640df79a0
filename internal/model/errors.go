package model

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError reports malformed input rejected before any computation
type ValidationError struct {
	Field  string `json:"field"`
	Value  string `json:"value,omitempty"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a ValidationError
func NewValidationError(field, value, reason string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// OutOfSupportedRangeError is returned when an instant lies outside the
// ephemeris' validated span. It is never retried.
type OutOfSupportedRangeError struct {
	Instant time.Time `json:"instant"`
	Min     time.Time `json:"min"`
	Max     time.Time `json:"max"`
}

func (e *OutOfSupportedRangeError) Error() string {
	return fmt.Sprintf("instant %s outside supported range [%s, %s)",
		e.Instant.UTC().Format(time.RFC3339), e.Min.Format(time.RFC3339), e.Max.Format(time.RFC3339))
}

// UnknownAyanamsaError is returned for unrecognized ayanamsa identifiers
type UnknownAyanamsaError struct {
	Name      string   `json:"name"`
	Supported []string `json:"supported"`
}

func (e *UnknownAyanamsaError) Error() string {
	return fmt.Sprintf("unknown ayanamsa %q (supported: %s)", e.Name, strings.Join(e.Supported, ", "))
}

// UnsupportedDivisionalChartError is returned for divisional variants that are not implemented
type UnsupportedDivisionalChartError struct {
	Kind      string   `json:"kind"`
	Supported []string `json:"supported"`
}

func (e *UnsupportedDivisionalChartError) Error() string {
	return fmt.Sprintf("unsupported divisional chart %q (supported: %s)", e.Kind, strings.Join(e.Supported, ", "))
}

// HouseSystemUndefinedError means the selected house system has no solution
// for the given location and instant. Callers may rebuild with Whole Sign.
type HouseSystemUndefinedError struct {
	System   HouseSystem `json:"system"`
	Latitude float64     `json:"latitude"`
	Limit    float64     `json:"limit,omitempty"`
	Reason   string      `json:"reason"`
}

func (e *HouseSystemUndefinedError) Error() string {
	return fmt.Sprintf("house system %s undefined at latitude %.4f: %s", e.System, e.Latitude, e.Reason)
}
