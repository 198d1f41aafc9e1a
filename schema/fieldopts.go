package schema

import "github.com/structschema/structschema/fields"

// FieldOpts is one explicit metadata option block for a field. Blocks come
// from three places, merged by the extractor with fixed precedence (highest
// first): programmatic per-field options, the struct tag, and metadata
// attached to a type alias. Nil pointer members mean "not specified here",
// letting lower-precedence sources fill them in.
type FieldOpts struct {
	// DataKey overrides the wire key.
	DataKey string
	// Required overrides the derived required semantics.
	Required *bool
	// AllowNil overrides whether an explicit null is accepted.
	AllowNil *bool

	// Default is the default value used when raw data omits the field.
	// HasDefault distinguishes an explicit nil default from no default.
	Default    any
	HasDefault bool
	// DefaultFactory produces the default lazily. Declaring both a value
	// and a factory for one field is an AmbiguousDefaultError.
	DefaultFactory func() any

	// Capability is a ready-made field capability used as-is, bypassing
	// the type-to-field mapping entirely.
	Capability fields.Field
	// Validate appends validation rules to the mapped capability.
	Validate []fields.ValidateFunc
}

// merge fills unset members of o from a lower-precedence block. Conflicting
// keys from the lower-precedence source are silently dropped.
func (o *FieldOpts) merge(lower *FieldOpts) {
	if lower == nil {
		return
	}
	if o.DataKey == "" {
		o.DataKey = lower.DataKey
	}
	if o.Required == nil {
		o.Required = lower.Required
	}
	if o.AllowNil == nil {
		o.AllowNil = lower.AllowNil
	}
	// A default value and a default factory fill the same slot: once a
	// higher-precedence source set either, the lower source's default is
	// dropped entirely. Declaring both within one source stays visible and
	// is rejected later as ambiguous.
	if !o.HasDefault && o.DefaultFactory == nil {
		if lower.HasDefault {
			o.Default = lower.Default
			o.HasDefault = true
		}
		o.DefaultFactory = lower.DefaultFactory
	}
	if o.Capability == nil {
		o.Capability = lower.Capability
	}
	// Validation rules accumulate rather than override: rules from every
	// source apply, higher-precedence sources first.
	o.Validate = append(o.Validate, lower.Validate...)
}

// Merge combines option blocks ordered highest-precedence first into one
// effective block.
func Merge(blocks ...*FieldOpts) *FieldOpts {
	out := &FieldOpts{}
	for _, b := range blocks {
		out.merge(b)
	}
	return out
}
