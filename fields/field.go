// Package fields implements the field capability runtime the derivation
// engine wires schemas with. A capability is an opaque object that knows how
// to load one field's raw value into its typed form and dump the typed form
// back into a raw value. The engine itself never validates data; it only
// hands each schema field one of these objects.
package fields

import (
	"fmt"
	"strings"
)

// Field is the capability contract every schema field satisfies.
type Field interface {
	// Load converts a raw value into the field's typed value. It returns a
	// *ValidationError when the raw value cannot be coerced.
	Load(raw any) (any, error)

	// Dump converts a typed value back into its raw representation.
	Dump(value any) (any, error)
}

// TypeMatcher is implemented by capabilities that can cheaply decide whether
// a runtime value belongs to them. Union dump uses it to pick the first
// member whose value matches.
type TypeMatcher interface {
	Matches(value any) bool
}

// Factory constructs a fresh capability. Custom type mapping tables hold
// factories rather than shared instances so per-field state stays isolated.
type Factory func() Field

// ValidationError reports that a raw value failed to coerce. Messages are
// human-readable and carry enough context to locate the offending value.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// Errorf builds a single-message ValidationError.
func Errorf(format string, args ...any) *ValidationError {
	return &ValidationError{Messages: []string{fmt.Sprintf(format, args...)}}
}

// Nullable wraps a capability so that nil raw values load to nil and nil
// typed values dump to nil, instead of being rejected by the inner
// capability.
type Nullable struct {
	Inner Field
}

// Load implements Field.
func (n *Nullable) Load(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	return n.Inner.Load(raw)
}

// Dump implements Field.
func (n *Nullable) Dump(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	return n.Inner.Dump(value)
}

// Matches implements TypeMatcher.
func (n *Nullable) Matches(value any) bool {
	if value == nil {
		return true
	}
	if m, ok := n.Inner.(TypeMatcher); ok {
		return m.Matches(value)
	}
	return false
}
