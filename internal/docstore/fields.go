package docstore

import (
	"math"
	"time"
)

// The As* helpers coerce raw document values to Go types. They never fail:
// absent or mistyped values produce the zero default.

// AsString returns v if it is a string, otherwise "".
func AsString(v any) string {
	s, _ := v.(string)
	return s
}

// AsNumber returns v as a finite float64. ok is false for absent,
// non-numeric, NaN and infinite values.
func AsNumber(v any) (f float64, ok bool) {
	f, ok = toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// AsTime interprets v as milliseconds since the Unix epoch. Anything else
// decodes to the epoch itself.
func AsTime(v any) time.Time {
	if t, ok := v.(time.Time); ok {
		return t
	}
	ms, ok := AsNumber(v)
	if !ok {
		return time.UnixMilli(0)
	}
	return time.UnixMilli(int64(ms))
}
