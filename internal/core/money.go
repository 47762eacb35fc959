// Package core provides the canonical transaction model and amount handling.
//
// This file contains the numeric coercion applied to spreadsheet cells. Cells
// arrive either as numbers (Sheets API, typed decoders) or as text (xlsx
// string cells); both are mapped onto float64 with spreadsheet-export
// semantics: an empty cell is zero, unparsable text is NaN.
package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal string to a float64.
//
// Leading and trailing whitespace is ignored and an empty string yields 0.
// Grouping separators and currency symbols are not accepted: "1,200" fails
// with ErrInvalidAmount the same way a spreadsheet export would refuse it.
// Values outside the float64 range fail as well.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount(" 7 ")   -> 7, nil
//	ParseAmount("")      -> 0, nil
//	ParseAmount("abc")   -> 0, ErrInvalidAmount
//	ParseAmount("1e400") -> 0, ErrInvalidAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	f, _ := d.Float64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, ErrInvalidAmount
	}
	return f, nil
}

// NumberValue coerces a present cell value to a number. Unparsable and
// non-finite values become NaN; callers decide whether NaN means "absent" or
// "zero".
func NumberValue(v any) float64 {
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		if math.IsInf(x, 0) {
			return math.NaN()
		}
		return x
	case float32:
		if math.IsInf(float64(x), 0) {
			return math.NaN()
		}
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case int32:
		return float64(x)
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		f, err := ParseAmount(x)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// Truthy mirrors the "value || fallback" idiom: zero and NaN are falsy.
func Truthy(f float64) bool {
	return f != 0 && !math.IsNaN(f)
}

// FirstTruthy returns the first value that is neither zero nor NaN, or 0.
func FirstTruthy(values ...float64) float64 {
	for _, v := range values {
		if Truthy(v) {
			return v
		}
	}
	return 0
}

// RoundHalfUp rounds to the nearest integer, ties toward positive infinity.
func RoundHalfUp(f float64) int {
	return int(math.Floor(f + 0.5))
}

// Clamp bounds f to [lo, hi].
func Clamp(f, lo, hi float64) float64 {
	return math.Min(math.Max(f, lo), hi)
}
