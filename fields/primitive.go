package fields

import (
	"math"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cast"
)

// String accepts string values only. Non-string input is rejected rather
// than stringified, so union members stay unambiguous.
type String struct{}

// Load implements Field.
func (String) Load(raw any) (any, error) {
	if raw == nil {
		return nil, Errorf("field may not be null")
	}
	if s, ok := raw.(string); ok {
		return s, nil
	}
	if rv := reflect.ValueOf(raw); rv.Kind() == reflect.String {
		return rv.String(), nil
	}
	return nil, Errorf("not a valid string: %v (%T)", raw, raw)
}

// Dump implements Field.
func (f String) Dump(value any) (any, error) {
	return f.Load(value)
}

// Matches implements TypeMatcher.
func (String) Matches(value any) bool {
	return value != nil && reflect.TypeOf(value).Kind() == reflect.String
}

// Integer coerces integers, integral floats, and numeric strings to int64.
// A float with a fractional part is rejected, which is what makes
// union precedence like int-before-float meaningful.
type Integer struct{}

// Load implements Field.
func (Integer) Load(raw any) (any, error) {
	if raw == nil {
		return nil, Errorf("field may not be null")
	}
	switch v := raw.(type) {
	case bool:
		return nil, Errorf("not a valid integer: %v", raw)
	case float64:
		n, ok := integralInt64(v)
		if !ok {
			return nil, Errorf("not a valid integer: %v", v)
		}
		return n, nil
	case float32:
		n, ok := integralInt64(float64(v))
		if !ok {
			return nil, Errorf("not a valid integer: %v", v)
		}
		return n, nil
	case string:
		n, err := cast.ToInt64E(v)
		if err != nil {
			return nil, Errorf("not a valid integer: %q", v)
		}
		return n, nil
	}

	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), nil
	}
	return nil, Errorf("not a valid integer: %v (%T)", raw, raw)
}

// integralInt64 reports whether f carries an exact integer value inside
// the int64 range. NaN, infinities, fractional values, and magnitudes at
// or beyond 2^63 are rejected.
func integralInt64(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Trunc(f) != f {
		return 0, false
	}
	if f >= 1<<63 || f < -(1<<63) {
		return 0, false
	}
	return int64(f), true
}

// Dump implements Field.
func (f Integer) Dump(value any) (any, error) {
	return f.Load(value)
}

// Matches implements TypeMatcher.
func (Integer) Matches(value any) bool {
	if value == nil {
		return false
	}
	switch reflect.TypeOf(value).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

// Float coerces numeric values and numeric strings to float64.
type Float struct{}

// Load implements Field.
func (Float) Load(raw any) (any, error) {
	if raw == nil {
		return nil, Errorf("field may not be null")
	}
	if _, isBool := raw.(bool); isBool {
		return nil, Errorf("not a valid number: %v", raw)
	}
	if s, isStr := raw.(string); isStr {
		f, err := cast.ToFloat64E(s)
		if err != nil {
			return nil, Errorf("not a valid number: %q", s)
		}
		return f, nil
	}

	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	}
	return nil, Errorf("not a valid number: %v (%T)", raw, raw)
}

// Dump implements Field.
func (f Float) Dump(value any) (any, error) {
	return f.Load(value)
}

// Matches implements TypeMatcher.
func (Float) Matches(value any) bool {
	if value == nil {
		return false
	}
	switch reflect.TypeOf(value).Kind() {
	case reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// Boolean coerces bools and the usual textual forms ("true", "1", ...).
type Boolean struct{}

// Load implements Field.
func (Boolean) Load(raw any) (any, error) {
	if raw == nil {
		return nil, Errorf("field may not be null")
	}
	switch raw.(type) {
	case bool, string:
		b, err := cast.ToBoolE(raw)
		if err != nil {
			return nil, Errorf("not a valid boolean: %v", raw)
		}
		return b, nil
	}
	return nil, Errorf("not a valid boolean: %v (%T)", raw, raw)
}

// Dump implements Field.
func (f Boolean) Dump(value any) (any, error) {
	return f.Load(value)
}

// Matches implements TypeMatcher.
func (Boolean) Matches(value any) bool {
	_, ok := value.(bool)
	return ok
}

// Time converts between time.Time and textual timestamps. Dump always emits
// RFC 3339.
type Time struct{}

// Load implements Field.
func (Time) Load(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, Errorf("field may not be null")
	case time.Time:
		return v, nil
	case string:
		t, err := cast.ToTimeE(v)
		if err != nil {
			return nil, Errorf("not a valid timestamp: %q", v)
		}
		return t, nil
	}
	return nil, Errorf("not a valid timestamp: %v (%T)", raw, raw)
}

// Dump implements Field.
func (Time) Dump(value any) (any, error) {
	switch v := value.(type) {
	case time.Time:
		return v.Format(time.RFC3339), nil
	case string:
		if _, err := cast.ToTimeE(v); err != nil {
			return nil, Errorf("not a valid timestamp: %q", v)
		}
		return v, nil
	}
	return nil, Errorf("not a valid timestamp: %v (%T)", value, value)
}

// Matches implements TypeMatcher.
func (Time) Matches(value any) bool {
	_, ok := value.(time.Time)
	return ok
}

// UUIDField converts between uuid.UUID and its canonical string form.
type UUIDField struct{}

// Load implements Field.
func (UUIDField) Load(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, Errorf("field may not be null")
	case uuid.UUID:
		return v, nil
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, Errorf("not a valid UUID: %q", v)
		}
		return id, nil
	}
	return nil, Errorf("not a valid UUID: %v (%T)", raw, raw)
}

// Dump implements Field.
func (UUIDField) Dump(value any) (any, error) {
	switch v := value.(type) {
	case uuid.UUID:
		return v.String(), nil
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, Errorf("not a valid UUID: %q", v)
		}
		return id.String(), nil
	}
	return nil, Errorf("not a valid UUID: %v (%T)", value, value)
}

// Matches implements TypeMatcher.
func (UUIDField) Matches(value any) bool {
	_, ok := value.(uuid.UUID)
	return ok
}

// Raw passes values through untouched. It backs the "any" primitive and the
// opaque fallback for otherwise unmappable types.
type Raw struct{}

// Load implements Field.
func (Raw) Load(raw any) (any, error) { return raw, nil }

// Dump implements Field.
func (Raw) Dump(value any) (any, error) { return value, nil }

// Matches implements TypeMatcher.
func (Raw) Matches(any) bool { return true }
