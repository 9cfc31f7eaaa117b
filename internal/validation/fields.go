// =============================================================================
// Merchant Fee Intake - Field Validators
// =============================================================================
//
// Pure, single-cell predicates used by the row validator and by the fee
// parameter checks. None of them hold state; the only input besides the cell
// value is the reference time used by the date check.
//
// ACCEPTED DATE SHAPES (day and month may have one or two digits):
//   D/M/YYYY    e.g. 5/1/2025, 25/12/2025
//   YYYY-M-D    e.g. 2025-1-5, 2025-12-25
//   D-M-YYYY    e.g. 5-1-2025, 25-12-2025
//   DDMMYYYY    e.g. 25122025
//
// =============================================================================

package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PATTERNS
// =============================================================================

var (
	slashDatePattern   = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	isoDatePattern     = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	dashDatePattern    = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})$`)
	compactDatePattern = regexp.MustCompile(`^(\d{2})(\d{2})(\d{4})$`)

	// numberPattern rejects partial numerics such as "100abc", "1e5" or ".5".
	numberPattern = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
)

// Date parsing failures.
var (
	ErrInvalidDate = errors.New("invalid date")
	ErrFutureDate  = errors.New("date is in the future")
)

// minYear is the earliest accepted year. Two-digit years are not supported.
const minYear = 100

// =============================================================================
// REQUIRED
// =============================================================================

// RequiredField reports whether value counts as present.
//
// nil, the empty string and whitespace-only strings are absent. Numbers are
// always present, including zero, so a manually entered amount of 0 reaches
// the amount check instead of being reported as missing. A nil pointer is
// absent; any other pointer is judged by what it points to.
func RequiredField(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(v) != ""
	case fmt.Stringer:
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return false
		}
		return strings.TrimSpace(v.String()) != ""
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return false
		}
		return RequiredField(rv.Elem().Interface())
	}
	return true
}

// RequiredString is RequiredField for the common string case.
func RequiredString(value string) bool {
	return strings.TrimSpace(value) != ""
}

// =============================================================================
// DATE
// =============================================================================

// DateField reports whether value is a valid, non-future transaction date
// relative to the current local time.
func DateField(value string) bool {
	return DateFieldAt(value, time.Now())
}

// DateFieldAt is DateField with an explicit reference time.
func DateFieldAt(value string, now time.Time) bool {
	_, err := ParseDate(value, now)
	return err == nil
}

// ParseDate parses value in one of the accepted shapes and returns the
// calendar date at midnight in now's location.
//
// RETURNS:
//   - ErrInvalidDate when no shape matches, a component is out of range
//     (including years before 100), or the components do not name a real
//     calendar day (30/02/2025).
//   - ErrFutureDate when the date falls after the end of now's day.
func ParseDate(value string, now time.Time) (time.Time, error) {
	day, month, year, ok := splitDate(strings.TrimSpace(value))
	if !ok {
		return time.Time{}, ErrInvalidDate
	}

	if month < 1 || month > 12 || day < 1 || day > 31 || year < minYear {
		return time.Time{}, ErrInvalidDate
	}

	// time.Date normalises overflow (Feb 30 -> Mar 2), so a round trip
	// catches days the month does not have.
	loc := now.Location()
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if date.Day() != day || int(date.Month()) != month || date.Year() != year {
		return time.Time{}, ErrInvalidDate
	}

	endOfToday := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), loc)
	if date.After(endOfToday) {
		return time.Time{}, ErrFutureDate
	}

	return date, nil
}

// splitDate extracts day, month and year from the first matching shape.
func splitDate(s string) (day, month, year int, ok bool) {
	var d, m, y string

	switch {
	case slashDatePattern.MatchString(s):
		parts := slashDatePattern.FindStringSubmatch(s)
		d, m, y = parts[1], parts[2], parts[3]
	case isoDatePattern.MatchString(s):
		parts := isoDatePattern.FindStringSubmatch(s)
		y, m, d = parts[1], parts[2], parts[3]
	case dashDatePattern.MatchString(s):
		parts := dashDatePattern.FindStringSubmatch(s)
		d, m, y = parts[1], parts[2], parts[3]
	case compactDatePattern.MatchString(s):
		parts := compactDatePattern.FindStringSubmatch(s)
		d, m, y = parts[1], parts[2], parts[3]
	default:
		return 0, 0, 0, false
	}

	// The patterns only admit digits, so Atoi cannot fail here.
	day, _ = strconv.Atoi(d)
	month, _ = strconv.Atoi(m)
	year, _ = strconv.Atoi(y)
	return day, month, year, true
}

// =============================================================================
// NUMERIC
// =============================================================================

// ParseNumber parses a strictly formatted decimal number.
// Leading and trailing whitespace is ignored; anything else that is not an
// optional minus sign, digits and an optional fractional part is rejected.
// Values too large to be represented as a float64 are rejected as well.
func ParseNumber(value string) (decimal.Decimal, error) {
	s := strings.TrimSpace(value)
	if !numberPattern.MatchString(s) {
		return decimal.Zero, fmt.Errorf("%q is not a number", value)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q is not a number: %w", value, err)
	}
	if math.IsInf(d.InexactFloat64(), 0) {
		return decimal.Zero, fmt.Errorf("%q is out of range", value)
	}
	return d, nil
}

// NumericField reports whether value is a strictly formatted number.
func NumericField(value string) bool {
	_, err := ParseNumber(value)
	return err == nil
}

// AmountField reports whether value is a strictly formatted number greater
// than zero. Zero and negative amounts are rejected.
func AmountField(value string) bool {
	d, err := ParseNumber(value)
	if err != nil {
		return false
	}
	return d.IsPositive()
}

// RangeField reports whether value is a strictly formatted number within
// [min, max] inclusive.
func RangeField(value string, min, max float64) bool {
	d, err := ParseNumber(value)
	if err != nil {
		return false
	}
	f := d.InexactFloat64()
	return f >= min && f <= max
}
