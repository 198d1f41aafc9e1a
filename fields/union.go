package fields

import (
	"strings"

	"github.com/structschema/structschema/typedesc"
)

// UnionMember pairs a union branch's descriptor with its capability. The
// descriptor is kept for error reporting; member order is declared order.
type UnionMember struct {
	Desc  *typedesc.Descriptor
	Field Field
}

// Union is a coercing union capability. Load tries members in declared
// order and returns the first successful coercion, so member precedence is
// load-bearing: union<int | float> coerces an integral float to an integer
// because the int branch is tried first. Dump likewise tries members in
// order and picks the first whose value matches the member's runtime type.
//
// A nullable union handles the absent branch outside the member list: nil
// loads to nil and short-circuits dump.
type Union struct {
	Members  []UnionMember
	Nullable bool
}

// Load implements Field.
func (u *Union) Load(raw any) (any, error) {
	if raw == nil {
		if u.Nullable {
			return nil, nil
		}
		return nil, Errorf("field may not be null")
	}

	var failures []string
	for _, m := range u.Members {
		v, err := m.Field.Load(raw)
		if err == nil {
			return v, nil
		}
		failures = append(failures, m.Desc.String()+": "+err.Error())
	}
	return nil, Errorf("no union member accepted %v (%T): %s", raw, raw, strings.Join(failures, "; "))
}

// Dump implements Field.
func (u *Union) Dump(value any) (any, error) {
	if value == nil {
		if u.Nullable {
			return nil, nil
		}
		return nil, Errorf("field may not be null")
	}

	for _, m := range u.Members {
		if matcher, ok := m.Field.(TypeMatcher); ok {
			if matcher.Matches(value) {
				return m.Field.Dump(value)
			}
			continue
		}
		// No matcher: fall back to attempting the dump.
		if v, err := m.Field.Dump(value); err == nil {
			return v, nil
		}
	}
	return nil, Errorf("no union member matches value %v (%T)", value, value)
}

// Matches implements TypeMatcher.
func (u *Union) Matches(value any) bool {
	if value == nil {
		return u.Nullable
	}
	for _, m := range u.Members {
		if matcher, ok := m.Field.(TypeMatcher); ok && matcher.Matches(value) {
			return true
		}
	}
	return false
}
