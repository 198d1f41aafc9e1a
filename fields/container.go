package fields

import (
	"fmt"
	"reflect"

	"go.uber.org/multierr"
)

// List applies an element capability to every member of a sequence.
// Required/default semantics belong to the outer field, not to the
// elements.
type List struct {
	Elem Field
}

// Load implements Field.
func (l *List) Load(raw any) (any, error) {
	if raw == nil {
		return nil, Errorf("field may not be null")
	}
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, Errorf("not a valid list: %v (%T)", raw, raw)
	}

	out := make([]any, rv.Len())
	var errs error
	for i := 0; i < rv.Len(); i++ {
		v, err := l.Elem.Load(rv.Index(i).Interface())
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("index %d: %w", i, err))
			continue
		}
		out[i] = v
	}
	if errs != nil {
		return nil, Errorf("invalid list: %v", errs)
	}
	return out, nil
}

// Dump implements Field.
func (l *List) Dump(value any) (any, error) {
	if value == nil {
		return nil, Errorf("field may not be null")
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, Errorf("not a valid list: %v (%T)", value, value)
	}

	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		v, err := l.Elem.Dump(rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// Matches implements TypeMatcher.
func (l *List) Matches(value any) bool {
	if value == nil {
		return false
	}
	k := reflect.TypeOf(value).Kind()
	return k == reflect.Slice || k == reflect.Array
}

// Mapping applies key and value capabilities to every entry of a map.
type Mapping struct {
	Key   Field
	Value Field
}

// Load implements Field.
func (m *Mapping) Load(raw any) (any, error) {
	if raw == nil {
		return nil, Errorf("field may not be null")
	}
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Map {
		return nil, Errorf("not a valid mapping: %v (%T)", raw, raw)
	}

	out := make(map[any]any, rv.Len())
	var errs error
	iter := rv.MapRange()
	for iter.Next() {
		k, err := m.Key.Load(iter.Key().Interface())
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("key %v: %w", iter.Key().Interface(), err))
			continue
		}
		v, err := m.Value.Load(iter.Value().Interface())
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("value for %v: %w", iter.Key().Interface(), err))
			continue
		}
		out[k] = v
	}
	if errs != nil {
		return nil, Errorf("invalid mapping: %v", errs)
	}
	return out, nil
}

// Dump implements Field.
func (m *Mapping) Dump(value any) (any, error) {
	if value == nil {
		return nil, Errorf("field may not be null")
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map {
		return nil, Errorf("not a valid mapping: %v (%T)", value, value)
	}

	out := make(map[any]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k, err := m.Key.Dump(iter.Key().Interface())
		if err != nil {
			return nil, fmt.Errorf("key %v: %w", iter.Key().Interface(), err)
		}
		v, err := m.Value.Dump(iter.Value().Interface())
		if err != nil {
			return nil, fmt.Errorf("value for %v: %w", iter.Key().Interface(), err)
		}
		out[k] = v
	}
	return out, nil
}

// Matches implements TypeMatcher.
func (m *Mapping) Matches(value any) bool {
	return value != nil && reflect.TypeOf(value).Kind() == reflect.Map
}
