package eval

import (
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// Duration unit conversion table. Days, hours, weeks, and minutes are exact.
// Months and years use fixed 30- and 365-day multipliers: a documented,
// intentional approximation. Changing it would silently alter guard and
// invariant outcomes for existing applications.
var unitDurations = map[string]time.Duration{
	"d":   24 * time.Hour,
	"h":   time.Hour,
	"w":   7 * 24 * time.Hour,
	"min": time.Minute,
	"m":   30 * 24 * time.Hour,
	"y":   365 * 24 * time.Hour,
}

// durationFromUnit converts a value+unit pair into a time.Duration.
func durationFromUnit(value int64, unit string) (time.Duration, error) {
	d, ok := unitDurations[unit]
	if !ok {
		return 0, evalErrorf(ErrUnknownUnit, "unknown duration unit %q", unit)
	}
	return time.Duration(value) * d, nil
}

// isTruthy reports whether a value counts as true in a condition position.
func isTruthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case int64:
		return val != 0
	case int:
		return val != 0
	case float64:
		return val != 0
	case time.Duration:
		return val != 0
	default:
		return true
	}
}

// toFloat converts a numeric value to float64.
func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case int64:
		return float64(val), true
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case float64:
		return val, true
	case float32:
		return float64(val), true
	default:
		return 0, false
	}
}

// isIntegral reports whether a value is an integer-typed number.
func isIntegral(v any) bool {
	switch v.(type) {
	case int, int32, int64:
		return true
	default:
		return false
	}
}

// toString converts a value to its string form for comparison and concat.
func toString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// toTime extracts a date/datetime value.
func toTime(v any) (time.Time, bool) {
	t, ok := v.(time.Time)
	return t, ok
}

// toDuration extracts a duration value.
func toDuration(v any) (time.Duration, bool) {
	d, ok := v.(time.Duration)
	return d, ok
}

// equalValues compares two values by domain equality. Tolerates nil on
// either side and never errors.
func equalValues(left, right any) bool {
	if left == nil || right == nil {
		return left == nil && right == nil
	}

	if lf, ok := toFloat(left); ok {
		if rf, ok := toFloat(right); ok {
			return lf == rf
		}
		return false
	}

	if ls, ok := toString(left); ok {
		if rs, ok := toString(right); ok {
			return ls == rs
		}
		return false
	}

	if lt, ok := toTime(left); ok {
		if rt, ok := toTime(right); ok {
			return lt.Equal(rt)
		}
		return false
	}

	// Context values can be arbitrary host data (nested maps, slices).
	// Equality on those must stay total, so uncomparable or mixed dynamic
	// types compare unequal instead of panicking.
	lt, rt := reflect.TypeOf(left), reflect.TypeOf(right)
	if lt != rt || !lt.Comparable() {
		return false
	}
	return left == right
}

// stringify renders a value for concatenation: strings stay raw, everything
// else uses its default rendering.
func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// formatValue renders a value for error messages.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
