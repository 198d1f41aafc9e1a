package structschema

import (
	"go.uber.org/zap"

	"github.com/structschema/structschema/fields"
	"github.com/structschema/structschema/internal/derive"
	"github.com/structschema/structschema/schema"
	"github.com/structschema/structschema/typedesc"
)

// Option customizes a single derivation call.
type Option func(*derive.Config)

// WithBinding supplies concrete descriptors for the type parameter names a
// generic structured type's tags refer to. Different bindings of the same
// Go type derive distinct schemas.
func WithBinding(b typedesc.Binding) Option {
	return func(c *derive.Config) { c.Binding = b }
}

// WithBaseSchema selects the base schema options for this derivation.
// Derivations sharing the same options object share cached schemas;
// construct the options once and reuse the pointer.
func WithBaseSchema(opts *schema.Options) Option {
	return func(c *derive.Config) { c.Options = opts }
}

// WithFieldOptions overrides metadata for one field of the top-level type,
// named by its Go field name. Programmatic overrides outrank struct tags
// and alias-attached metadata, and do not propagate into nested schemas.
// A derivation carrying field overrides is a one-off: its result bypasses
// the schema cache.
func WithFieldOptions(name string, o schema.FieldOpts) Option {
	return func(c *derive.Config) {
		if c.Fields == nil {
			c.Fields = make(map[string]*schema.FieldOpts)
		}
		c.Fields[name] = &o
	}
}

// WithLogger attaches a logger to this derivation's debug events, overriding
// the registry's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *derive.Config) { c.Logger = logger }
}

func buildConfig(opts []Option) *derive.Config {
	cfg := &derive.Config{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// AliasOption attaches metadata to a NewType alias.
type AliasOption func(*aliasConfig)

type aliasConfig struct {
	meta []any
}

// WithAliasField attaches a ready-made field capability to the alias. The
// first capability in an alias chain wins over shape-derived mapping.
func WithAliasField(f fields.Field) AliasOption {
	return func(c *aliasConfig) { c.meta = append(c.meta, f) }
}

// WithAliasFieldFactory attaches a capability factory to the alias, invoked
// once per derived field.
func WithAliasFieldFactory(f fields.Factory) AliasOption {
	return func(c *aliasConfig) { c.meta = append(c.meta, f) }
}

// WithAliasOptions attaches field metadata defaults to the alias. Struct
// tags on the declaring field outrank these.
func WithAliasOptions(o schema.FieldOpts) AliasOption {
	return func(c *aliasConfig) { c.meta = append(c.meta, &o) }
}

// WithValidate attaches a validation rule to the alias. Rules from every
// layer of an alias chain accumulate and all run on load.
func WithValidate(rule fields.ValidateFunc) AliasOption {
	return func(c *aliasConfig) { c.meta = append(c.meta, rule) }
}
