package schema

import (
	"fmt"
	"sort"
	"strings"
)

// NotAStructuredTypeError reports a derivation request on a type that has no
// field declarations.
type NotAStructuredTypeError struct {
	// Type is the string form of the offending type.
	Type string
}

func (e *NotAStructuredTypeError) Error() string {
	return fmt.Sprintf("%s is not a structured type: schema derivation needs a struct with field declarations", e.Type)
}

// AmbiguousDefaultError reports a field declaring both a default value and a
// default factory. At most one may be present.
type AmbiguousDefaultError struct {
	TypeName  string
	FieldName string
}

func (e *AmbiguousDefaultError) Error() string {
	return fmt.Sprintf("%s.%s declares both a default value and a default factory; at most one may be present", e.TypeName, e.FieldName)
}

// UnsupportedTypeError reports a type shape with no mapping rule. Enabling
// the opaque fallback class option downgrades these to raw passthrough
// fields.
type UnsupportedTypeError struct {
	// Type names the offending type shape.
	Type      string
	TypeName  string
	FieldName string
}

func (e *UnsupportedTypeError) Error() string {
	msg := fmt.Sprintf("no field mapping for type %s", e.Type)
	if e.TypeName != "" {
		msg += fmt.Sprintf(" (at %s", e.TypeName)
		if e.FieldName != "" {
			msg += "." + e.FieldName
		}
		msg += ")"
	}
	return msg
}

// ValidationError aggregates per-field failures from one Load or Dump pass,
// keyed by data key. Schema-level failures (e.g. unknown fields) use the
// "_schema" key.
type ValidationError struct {
	TypeName string
	Errors   map[string][]string
}

// SchemaKey is the pseudo data key collecting failures that belong to the
// whole document rather than a single field.
const SchemaKey = "_schema"

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Errors))
	for k := range e.Errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Errors[k], "; ")))
	}
	return fmt.Sprintf("validation failed for %s: %s", e.TypeName, strings.Join(parts, ", "))
}

// add appends a failure message for a data key, allocating lazily.
func (e *ValidationError) add(key, msg string) {
	if e.Errors == nil {
		e.Errors = make(map[string][]string)
	}
	e.Errors[key] = append(e.Errors[key], msg)
}

// empty reports whether any failure was recorded.
func (e *ValidationError) empty() bool {
	return len(e.Errors) == 0
}
