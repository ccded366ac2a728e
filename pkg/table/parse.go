package table

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Type is the inferred or declared type of a column.
type Type string

const (
	TypeString  Type = "string"
	TypeInteger Type = "integer"
	TypeNumber  Type = "number"
	TypeBoolean Type = "boolean"
	TypeDate    Type = "date"
)

// ISODate is the layout dates are normalised to.
const ISODate = "2006-01-02"

var (
	// ErrNotNumber is returned when a cell cannot be read as a number.
	ErrNotNumber = errors.New("not a number")
	// ErrNotDate is returned when a cell cannot be read as a date.
	ErrNotDate = errors.New("not a date")
	// ErrNotBoolean is returned when a cell cannot be read as a boolean.
	ErrNotBoolean = errors.New("not a boolean")
	// ErrNoColumn is returned when a named column does not exist.
	ErrNoColumn = errors.New("no such column")
)

var (
	groupedRe  = regexp.MustCompile(`^\d{1,3}(,\d{3})+(\.\d+)?$`)
	digitsRe   = regexp.MustCompile(`^\d+$`)
	currencies = "$€£¥₹"
)

// ParseNumber reads a formatted numeric cell. It accepts thousands
// separators, currency symbols, a trailing percent sign (returned as a
// fraction), parenthesised negatives and a trailing minus.
func ParseNumber(s string) (float64, error) {
	raw := s
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(currencies, r) || r == ' ' || r == '\u00a0' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("%w: %q", ErrNotNumber, raw)
	}

	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	if strings.HasSuffix(s, "-") {
		neg = !neg
		s = strings.TrimSuffix(s, "-")
	}
	if strings.HasPrefix(s, "-") {
		neg = !neg
		s = strings.TrimPrefix(s, "-")
	} else {
		s = strings.TrimPrefix(s, "+")
	}

	scale := 1.0
	if strings.HasSuffix(s, "%") {
		scale = 0.01
		s = strings.TrimSuffix(s, "%")
	}

	if strings.Contains(s, ",") {
		if !groupedRe.MatchString(s) {
			return 0, fmt.Errorf("%w: %q", ErrNotNumber, raw)
		}
		s = strings.ReplaceAll(s, ",", "")
	}

	// Reject forms strconv accepts but a table cell never means: inf, nan, hex.
	if s == "" || !strings.ContainsAny(s[:1], "0123456789.") {
		return 0, fmt.Errorf("%w: %q", ErrNotNumber, raw)
	}
	if strings.ContainsAny(s, "xXpP_") {
		return 0, fmt.Errorf("%w: %q", ErrNotNumber, raw)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("%w: %q", ErrNotNumber, raw)
	}
	if neg {
		v = -v
	}
	return v * scale, nil
}

// ParseInteger reads a cell that holds a whole number.
func ParseInteger(s string) (int64, error) {
	if strings.ContainsAny(s, ".%eE") {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrNotNumber, s)
	}
	v, err := ParseNumber(s)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) || math.Abs(v) > 1<<53 {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrNotNumber, s)
	}
	return int64(v), nil
}

// ParseDate reads a date in any common layout. Bare digit strings are
// rejected because they are indistinguishable from numbers and ids.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" || digitsRe.MatchString(s) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrNotDate, s)
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrNotDate, s, err)
	}
	return t, nil
}

// FormatDate renders a parsed date as ISO 8601, dropping the clock when
// it is midnight.
func FormatDate(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(ISODate)
	}
	return t.Format(time.RFC3339)
}

// ParseBool reads yes/no style cells.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "t":
		return true, nil
	case "false", "no", "n", "f":
		return false, nil
	}
	return false, fmt.Errorf("%w: %q", ErrNotBoolean, s)
}

// Coerce converts a cell to the Go value for typ: int64, float64, bool,
// an ISO date string, or the cell itself for strings.
func Coerce(s string, typ Type) (any, error) {
	switch typ {
	case TypeInteger:
		return ParseInteger(s)
	case TypeNumber:
		return ParseNumber(s)
	case TypeBoolean:
		return ParseBool(s)
	case TypeDate:
		d, err := ParseDate(s)
		if err != nil {
			return nil, err
		}
		return FormatDate(d), nil
	default:
		return s, nil
	}
}

// FormatValue renders a coerced value as cell text. Numbers are written in
// plain decimal notation.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// Infer picks the narrowest type all non-empty cells satisfy, trying
// integer, number, boolean and date in that order. A column with no
// non-empty cells is a string column.
func Infer(cells []string) Type {
	candidates := []Type{TypeInteger, TypeNumber, TypeBoolean, TypeDate}
	nonEmpty := 0
	for _, c := range cells {
		if strings.TrimSpace(c) == "" {
			continue
		}
		nonEmpty++
		kept := candidates[:0]
		for _, typ := range candidates {
			if _, err := Coerce(c, typ); err == nil {
				kept = append(kept, typ)
			}
		}
		candidates = kept
		if len(candidates) == 0 {
			return TypeString
		}
	}
	if nonEmpty == 0 {
		return TypeString
	}
	return candidates[0]
}
