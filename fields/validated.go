package fields

// ValidateFunc checks a loaded value against a rule attached to a type
// alias or field declaration.
type ValidateFunc func(value any) error

// Validated wraps a capability with extra validation rules applied after a
// successful load. Rules run in declared order; the first failure wins.
type Validated struct {
	Inner Field
	Rules []ValidateFunc
}

// Load implements Field.
func (v *Validated) Load(raw any) (any, error) {
	loaded, err := v.Inner.Load(raw)
	if err != nil {
		return nil, err
	}
	for _, rule := range v.Rules {
		if err := rule(loaded); err != nil {
			return nil, &ValidationError{Messages: []string{err.Error()}}
		}
	}
	return loaded, nil
}

// Dump implements Field.
func (v *Validated) Dump(value any) (any, error) {
	return v.Inner.Dump(value)
}

// Matches implements TypeMatcher.
func (v *Validated) Matches(value any) bool {
	if m, ok := v.Inner.(TypeMatcher); ok {
		return m.Matches(value)
	}
	return false
}
