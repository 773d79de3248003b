package recordgen

import (
	"math"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cast"
)

// Convert converts v to T. It accepts values of type T and the loose
// representations produced by decoders and database drivers: numbers of
// any width, json.Number, numeric and time strings, []byte for strings.
// It reports false instead of failing when v cannot be represented.
//
// The conversions are those of spf13/cast, narrowed: nil and empty
// strings are not zero values, floats with a fraction are not integers,
// only 0 and 1 are booleans and numbers are not Unix times.
func Convert[T any](v any) (T, bool) {
	var zero T
	if t, ok := v.(T); ok {
		return t, true
	}
	if v == nil {
		return zero, false
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if s, ok := v.(string); ok && s == "" {
		return zero, false
	}
	var (
		out any
		err error
	)
	switch any(zero).(type) {
	case string:
		if _, ok := v.(bool); ok {
			return zero, false
		}
		out, err = cast.ToStringE(v)
	case int64:
		out, err = toInt64(v, math.MinInt64, math.MaxInt64)
	case int:
		var n int64
		n, err = toInt64(v, math.MinInt, math.MaxInt)
		out = int(n)
	case int32:
		var n int64
		n, err = toInt64(v, math.MinInt32, math.MaxInt32)
		out = int32(n)
	case float64:
		if _, ok := v.(bool); ok {
			return zero, false
		}
		out, err = cast.ToFloat64E(v)
	case bool:
		out, err = toBool(v)
	case time.Time:
		out, err = toTime(v)
	case []byte:
		s, ok := v.(string)
		if !ok {
			return zero, false
		}
		out = []byte(s)
	default:
		return zero, false
	}
	if err != nil {
		return zero, false
	}
	t, ok := out.(T)
	return t, ok
}

// ConvertPtr is like Convert for nullable fields: nil converts to a nil
// pointer.
func ConvertPtr[T any](v any) (*T, bool) {
	if v == nil {
		return nil, true
	}
	if p, ok := v.(*T); ok {
		return p, true
	}
	t, ok := Convert[T](v)
	if !ok {
		return nil, false
	}
	return &t, true
}

var errNotRepresentable = errors.New("recordgen: value not representable")

func toInt64(v any, lo, hi int64) (int64, error) {
	switch x := v.(type) {
	case bool:
		return 0, errNotRepresentable
	case float32:
		if float64(x) != math.Trunc(float64(x)) {
			return 0, errNotRepresentable
		}
	case float64:
		if x != math.Trunc(x) || x > math.MaxInt64 || x < math.MinInt64 {
			return 0, errNotRepresentable
		}
	case uint64:
		if x > math.MaxInt64 {
			return 0, errNotRepresentable
		}
	case uint:
		if uint64(x) > math.MaxInt64 {
			return 0, errNotRepresentable
		}
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return 0, err
	}
	if n < lo || n > hi {
		return 0, errNotRepresentable
	}
	return n, nil
}

func toBool(v any) (bool, error) {
	switch v.(type) {
	case string, bool:
		return cast.ToBoolE(v)
	}
	n, err := toInt64(v, 0, 1)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func toTime(v any) (time.Time, error) {
	switch v.(type) {
	case string, *time.Time:
		t, err := cast.ToTimeInDefaultLocationE(v, time.UTC)
		if err == nil && t.IsZero() {
			return t, errNotRepresentable
		}
		return t, err
	}
	return time.Time{}, errNotRepresentable
}
