package typedesc

import "fmt"

// UnresolvedReferenceError reports a forward type reference that could not
// be resolved against the registry at the point it was needed.
type UnresolvedReferenceError struct {
	// Ref is the referenced name that failed to resolve.
	Ref string
	// TypeName is the structured type being derived when resolution failed.
	TypeName string
	// FieldName is the field whose type contained the reference.
	FieldName string
}

func (e *UnresolvedReferenceError) Error() string {
	msg := fmt.Sprintf("unresolved type reference %q", e.Ref)
	if e.TypeName != "" {
		msg += fmt.Sprintf(" in %s", e.TypeName)
		if e.FieldName != "" {
			msg += "." + e.FieldName
		}
	}
	return msg
}

// UnboundTypeParameterError reports a generic type parameter that is missing
// from the derivation's binding.
type UnboundTypeParameterError struct {
	// Param is the unbound parameter name.
	Param string
	// TypeName is the structured type being derived.
	TypeName string
	// FieldName is the field whose type referenced the parameter.
	FieldName string
}

func (e *UnboundTypeParameterError) Error() string {
	msg := fmt.Sprintf("unbound type parameter %q", e.Param)
	if e.TypeName != "" {
		msg += fmt.Sprintf(" in %s", e.TypeName)
		if e.FieldName != "" {
			msg += "." + e.FieldName
		}
	}
	return msg
}
