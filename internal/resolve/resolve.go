// Package resolve turns loosely typed configuration values (numbers, numeric
// strings, blanks, absent values) into definite float64 parameters.
package resolve

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrNotNumeric is returned when no value in a fallback chain is a real number.
var ErrNotNumeric = errors.New("no numeric value")

// Number coerces v to a finite float64. Nil, blank strings, booleans, strings
// that are not plain decimal numbers, NaN and infinities all report
// ok == false.
func Number(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int8:
		f = float64(x)
	case int16:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint8:
		f = float64(x)
	case uint16:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case json.Number:
		return parse(string(x))
	case string:
		return parse(x)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parse accepts decimal notation only: no hex, underscores, inf or nan.
func parse(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsFunc(s, notDecimal) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func notDecimal(r rune) bool {
	return !strings.ContainsRune("0123456789+-.eE", r)
}

// IsNumeric reports whether v coerces to a real number.
func IsNumeric(v any) bool {
	_, ok := Number(v)
	return ok
}

// Resolve returns candidate as a number, or fallback when candidate is absent,
// blank or not numeric. If neither resolves the result is NaN and an error
// wrapping ErrNotNumeric.
func Resolve(candidate, fallback any) (float64, error) {
	if f, ok := Number(candidate); ok {
		return f, nil
	}
	if f, ok := Number(fallback); ok {
		return f, nil
	}
	return math.NaN(), fmt.Errorf("%w: candidate %q, fallback %q", ErrNotNumeric, describe(candidate), describe(fallback))
}

// FirstNumeric folds Resolve left to right: the first value that is a real
// number wins.
func FirstNumeric(values ...any) (float64, error) {
	for _, v := range values {
		if f, ok := Number(v); ok {
			return f, nil
		}
	}
	return math.NaN(), fmt.Errorf("%w among %d values", ErrNotNumeric, len(values))
}

func describe(v any) string {
	if v == nil {
		return "<absent>"
	}
	return fmt.Sprint(v)
}
