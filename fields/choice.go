package fields

import (
	"reflect"

	"github.com/spf13/cast"
)

// Choice restricts a field to an exact declared value set (enumerations and
// literal types). Loading a value outside the set fails validation; the
// declared values themselves are returned in canonical (possibly named-type)
// form.
type Choice struct {
	// Name is the enum name, empty for anonymous literal sets.
	Name string
	// Values is the allowed set in declared order.
	Values []any
}

// Load implements Field.
func (c *Choice) Load(raw any) (any, error) {
	if raw == nil {
		return nil, Errorf("field may not be null")
	}
	for _, allowed := range c.Values {
		if choiceEqual(raw, allowed) {
			return allowed, nil
		}
	}
	return nil, Errorf("must be one of %v, got %v", c.Values, raw)
}

// Dump implements Field.
func (c *Choice) Dump(value any) (any, error) {
	for _, allowed := range c.Values {
		if choiceEqual(value, allowed) {
			return rawForm(allowed), nil
		}
	}
	return nil, Errorf("must be one of %v, got %v", c.Values, value)
}

// Matches implements TypeMatcher.
func (c *Choice) Matches(value any) bool {
	for _, allowed := range c.Values {
		if choiceEqual(value, allowed) {
			return true
		}
	}
	return false
}

// choiceEqual compares a candidate against an allowed value, tolerating
// named types over the same underlying kind (e.g. a Status("open") string
// against the raw "open").
func choiceEqual(candidate, allowed any) bool {
	if candidate == nil || allowed == nil {
		return candidate == allowed
	}
	if reflect.DeepEqual(candidate, allowed) {
		return true
	}

	cv := reflect.ValueOf(candidate)
	av := reflect.ValueOf(allowed)

	// Widths don't matter for numeric comparison: the declared int 3
	// matches an incoming int64(3).
	switch numClass(cv.Kind()) {
	case classString:
		return numClass(av.Kind()) == classString && cv.String() == av.String()
	case classInt:
		return numClass(av.Kind()) == classInt && cv.Int() == av.Int()
	case classUint:
		return numClass(av.Kind()) == classUint && cv.Uint() == av.Uint()
	case classFloat:
		return numClass(av.Kind()) == classFloat && cv.Float() == av.Float()
	}
	return false
}

type valueClass int

const (
	classOther valueClass = iota
	classString
	classInt
	classUint
	classFloat
)

func numClass(k reflect.Kind) valueClass {
	switch k {
	case reflect.String:
		return classString
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return classInt
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return classUint
	case reflect.Float32, reflect.Float64:
		return classFloat
	}
	return classOther
}

// rawForm strips a named type down to its underlying primitive for dump
// output.
func rawForm(v any) any {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Bool:
		return rv.Bool()
	}
	// Anything else dumps via its string form.
	s, err := cast.ToStringE(v)
	if err != nil {
		return v
	}
	return s
}
