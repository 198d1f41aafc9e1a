// Package schema defines the assembled schema model the derivation engine
// produces: per-field specifications, class-level options, the derivation
// error taxonomy, and a minimal load/dump runtime over instance data.
package schema

import "github.com/structschema/structschema/fields"

// UnknownPolicy controls how Load treats raw keys that no field claims.
type UnknownPolicy int

const (
	// UnknownRaise rejects unknown keys with a validation error.
	UnknownRaise UnknownPolicy = iota
	// UnknownExclude silently drops unknown keys.
	UnknownExclude
	// UnknownInclude keeps unknown keys in the loaded value where the
	// target representation can carry them.
	UnknownInclude
)

func (p UnknownPolicy) String() string {
	switch p {
	case UnknownRaise:
		return "raise"
	case UnknownExclude:
		return "exclude"
	case UnknownInclude:
		return "include"
	}
	return "unknown"
}

// Options is the class-level configuration a schema is assembled with. It
// plays the role of a base schema: derivations requested with different
// Options values are cached separately, keyed by pointer identity, and the
// assembler applies the options verbatim to its output.
//
// Options must not be mutated once passed to a derivation.
type Options struct {
	// Unknown is the unknown-field policy applied by Load.
	Unknown UnknownPolicy

	// TypeMapping overrides the built-in primitive-to-capability table.
	// Keys are primitive names ("string", "int", ...); custom entries take
	// precedence over built-ins for this derivation only.
	TypeMapping map[string]fields.Factory

	// KeyFunc rewrites every field's data key (e.g. to upper-case wire
	// names). Applied after per-field key overrides.
	KeyFunc func(name string) string

	// OpaqueFallback maps otherwise unsupported type shapes to a raw
	// passthrough capability instead of failing the derivation.
	OpaqueFallback bool
}

// Meta carries per-type schema options declared on the structured type
// itself. A struct type may implement MetaProvider to contribute these. A
// non-default policy in the derivation's Options wins on conflict; a policy
// left at its default yields to the type-declared one.
type Meta struct {
	Unknown *UnknownPolicy
}

// MetaProvider is implemented by structured types that declare class-level
// schema options inline.
type MetaProvider interface {
	SchemaMeta() Meta
}

// defaultOptions is the shared zero configuration used when a derivation
// passes no base options.
var defaultOptions = &Options{}

// DefaultOptions returns the shared default class options. The same pointer
// is always returned so default derivations share one cache key.
func DefaultOptions() *Options {
	return defaultOptions
}
