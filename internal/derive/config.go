package derive

import (
	"go.uber.org/zap"

	"github.com/structschema/structschema/schema"
	"github.com/structschema/structschema/typedesc"
)

// Config carries the caller-supplied parameters of one derivation request.
type Config struct {
	// Binding maps generic type-parameter names to concrete descriptors.
	Binding typedesc.Binding

	// Options are the class-level options (base schema). Nil means the
	// shared defaults; identity participates in the cache key.
	Options *schema.Options

	// Fields holds programmatic per-field metadata for the top-level type,
	// keyed by Go field name. These are the highest-precedence metadata
	// source, above struct tags and alias metadata.
	Fields map[string]*schema.FieldOpts

	// Logger overrides the registry's logger for this derivation only. It
	// does not participate in the cache key.
	Logger *zap.Logger
}

// normalized returns a config with defaults filled in.
func (c *Config) normalized() *Config {
	out := &Config{}
	if c != nil {
		*out = *c
	}
	if out.Options == nil {
		out.Options = schema.DefaultOptions()
	}
	return out
}
