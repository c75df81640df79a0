// Package validate rejects malformed input before any computation runs.
// Every failure is reported as *model.ValidationError naming the offending field.
package validate

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ppiankov/lagna/internal/ephemeris"
	"github.com/ppiankov/lagna/internal/model"
)

// queryValidate is shared; validator.Validate caches struct metadata and is
// safe for concurrent use
var queryValidate *validator.Validate

func init() {
	queryValidate = validator.New(validator.WithRequiredStructEnabled())

	queryValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = queryValidate.RegisterValidation("clock", validateClock)
	_ = queryValidate.RegisterValidation("utcoffset", validateUTCOffset)
}

// validateClock accepts 24-hour "HH:MM"
func validateClock(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) != 5 {
		return false
	}
	_, err := time.Parse(model.ClockLayout, s)
	return err == nil
}

// validateUTCOffset accepts "±HH:MM" within -12:00..+14:00, or "Z"
func validateUTCOffset(fl validator.FieldLevel) bool {
	_, err := model.ParseUTCOffset(fl.Field().String())
	return err == nil
}

// Query validates a BirthQuery: field formats, coordinate ranges, window
// ordering and the supported ephemeris span
func Query(q model.BirthQuery) error {
	if err := queryValidate.Struct(q); err != nil {
		return translate(err)
	}

	instant, err := q.Instant()
	if err != nil {
		return err
	}
	if err := ephemeris.CheckRange(instant); err != nil {
		return model.NewValidationError("date", q.Date, err.Error())
	}

	start, end, ok, err := q.WindowBounds()
	if err != nil {
		return err
	}
	if ok && start.After(end) {
		return model.NewValidationError("window", q.Window.Start+"-"+q.Window.End,
			"start must not be after end (windows do not cross midnight)")
	}
	return nil
}

// Coordinates checks geographic ranges
func Coordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 || math.IsNaN(lat) {
		return model.NewValidationError("latitude", fmt.Sprint(lat), "must be within [-90, 90]")
	}
	if lon < -180 || lon > 180 || math.IsNaN(lon) {
		return model.NewValidationError("longitude", fmt.Sprint(lon), "must be within [-180, 180]")
	}
	return nil
}

// EvidenceDate strictly parses a YYYY-MM-DD reported date and returns
// noon UTC of that day
func EvidenceDate(s string) (time.Time, error) {
	d, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return time.Time{}, model.NewValidationError("reported_date", s, "expected a calendar date YYYY-MM-DD")
	}
	noon := d.Add(12 * time.Hour)
	if err := ephemeris.CheckRange(noon); err != nil {
		return time.Time{}, model.NewValidationError("reported_date", s, err.Error())
	}
	return noon, nil
}

// Evidence validates one answered question. Dated events may not precede
// the earliest candidate birth instant.
func Evidence(item model.EvidenceItem, earliest time.Time) error {
	if !item.Tag.Known() {
		return model.NewValidationError("tag", string(item.Tag), "unknown evidence tag")
	}
	if item.Weight < 0 || item.Weight > 1 || math.IsNaN(item.Weight) {
		return model.NewValidationError("weight", fmt.Sprint(item.Weight), "must be within [0, 1]")
	}
	answer := strings.ToLower(strings.TrimSpace(item.Answer))
	if answer == "" {
		return model.NewValidationError("answer", item.Answer, "answer is required")
	}
	if !item.Tag.Dated() {
		return nil
	}

	if answer != model.AnswerYes && answer != model.AnswerNo {
		return model.NewValidationError("answer", item.Answer, "event answers must be yes or no")
	}
	if item.ReportedDate == "" {
		return nil
	}
	at, err := EvidenceDate(item.ReportedDate)
	if err != nil {
		return err
	}
	if !earliest.IsZero() && at.Add(12*time.Hour).Before(earliest) {
		return model.NewValidationError("reported_date", item.ReportedDate, "event precedes the birth window")
	}
	return nil
}

// translate converts the first validator failure into a ValidationError
func translate(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return model.NewValidationError("query", "", err.Error())
	}
	fe := verrs[0]

	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	var reason string
	switch fe.Tag() {
	case "required":
		reason = "is required"
	case "datetime":
		reason = "expected a calendar date YYYY-MM-DD"
	case "clock":
		reason = "expected a 24-hour time HH:MM"
	case "utcoffset":
		reason = "expected ±HH:MM between -12:00 and +14:00"
	case "gte", "lte":
		reason = fmt.Sprintf("must be within range (%s %s)", fe.Tag(), fe.Param())
	default:
		reason = fmt.Sprintf("failed %s check", fe.Tag())
	}
	return model.NewValidationError(field, fmt.Sprint(fe.Value()), reason)
}
