package derive

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/structschema/structschema/fields"
	"github.com/structschema/structschema/schema"
	"github.com/structschema/structschema/typedesc"
)

// deriveContext is the state of one top-level derivation request. The
// in-progress marker set lives here, per context rather than on the
// registry, so cycles are detected within one recursive descent and
// concurrent derivations never block each other mid-recursion.
type deriveContext struct {
	reg        *Registry
	cfg        *Config
	inProgress map[cacheKey]bool
	// depth guards the top-level type: programmatic per-field options
	// apply only to it, not to nested types.
	depth int
}

// Derive is the engine's entry point: it returns the (possibly cached)
// schema for a structured type under the given config.
func (r *Registry) Derive(typ reflect.Type, cfg *Config) (*schema.Schema, error) {
	typ, err := structType(typ)
	if err != nil {
		return nil, err
	}

	c := &deriveContext{
		reg:        r,
		cfg:        cfg.normalized(),
		inProgress: make(map[cacheKey]bool),
	}
	return c.assemble(typ)
}

// FieldFor maps a single type to a field capability under the given config,
// without assembling a full schema. Accepts a reflect.Type or an already
// constructed descriptor.
func (r *Registry) FieldFor(typ reflect.Type, desc *typedesc.Descriptor, cfg *Config) (fields.Field, error) {
	c := &deriveContext{
		reg:        r,
		cfg:        cfg.normalized(),
		inProgress: make(map[cacheKey]bool),
	}
	path := fieldPath{typeName: "<field>"}

	var err error
	if desc == nil {
		desc, err = c.resolveReflect(typ, path, 0)
	} else {
		desc, err = c.resolveDescriptor(desc, path, 0)
	}
	if err != nil {
		return nil, err
	}
	return c.mapDescriptor(desc, path)
}

// structType normalizes a derivation input to a plain struct type.
func structType(typ reflect.Type) (reflect.Type, error) {
	if typ == nil {
		return nil, &schema.NotAStructuredTypeError{Type: "<nil>"}
	}
	for typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, &schema.NotAStructuredTypeError{Type: typ.String()}
	}
	return typ, nil
}

// log returns the derivation's logger: the per-request override when one
// was supplied, the registry's otherwise.
func (c *deriveContext) log() *zap.Logger {
	if c.cfg.Logger != nil {
		return c.cfg.Logger
	}
	return c.reg.log()
}

// key builds the cache key for a structured type under this context's
// binding and options.
func (c *deriveContext) key(typ reflect.Type) cacheKey {
	return cacheKey{typ: typ, binding: c.cfg.Binding.Fingerprint(), opts: c.cfg.Options}
}

// assemble derives the schema for one structured type: collect declared
// fields (ancestors included, override-by-name applied), extract and map
// each, apply class options, and register the result before returning.
func (c *deriveContext) assemble(typ reflect.Type) (*schema.Schema, error) {
	key := c.key(typ)

	// Programmatic per-field options are a per-call customization: the
	// resulting schema is neither read from nor published to the cache.
	// Nested types still derive and cache their plain schemas, so a
	// self-reference inside a customized derivation resolves to the plain
	// cached schema.
	custom := c.depth == 0 && len(c.cfg.Fields) > 0

	if !custom {
		if s, ok := c.reg.cached(key); ok {
			c.log().Debug("schema cache hit", zap.String("type", typ.String()))
			return s, nil
		}
		c.inProgress[key] = true
		defer delete(c.inProgress, key)
	}

	c.log().Debug("deriving schema",
		zap.String("type", typ.String()),
		zap.String("binding", key.binding))

	declared, err := collectFields(typ)
	if err != nil {
		return nil, err
	}

	c.depth++
	specs := make([]*schema.FieldSpec, 0, len(declared))
	for _, field := range declared {
		path := fieldPath{typeName: typ.Name(), fieldName: field.Name}
		spec, err := c.extractField(field, path)
		if err != nil {
			return nil, err
		}
		if spec == nil {
			continue
		}
		specs = append(specs, spec)
	}
	c.depth--

	s := schema.New(typ.Name(), typ, key.binding, specs, c.cfg.Options)
	applyMeta(typ, s)

	if custom {
		return s, nil
	}
	return c.reg.publish(key, s), nil
}

// extractField runs the metadata extractor, masking programmatic per-field
// options for nested types: those options belong to the top-level type
// only.
func (c *deriveContext) extractField(field reflect.StructField, path fieldPath) (*schema.FieldSpec, error) {
	if c.depth > 1 && c.cfg.Fields != nil {
		saved := c.cfg.Fields
		c.cfg.Fields = nil
		defer func() { c.cfg.Fields = saved }()
	}
	return c.extract(field, path)
}

// schemaField produces the capability for a nested structured type: a
// cached or freshly assembled nested schema, or a deferred spec when the
// type is currently being derived higher up this same descent (a structural
// cycle).
func (c *deriveContext) schemaField(typ reflect.Type, path fieldPath) (fields.Field, error) {
	typ, err := structType(typ)
	if err != nil {
		return nil, err
	}
	key := c.key(typ)

	if s, ok := c.reg.cached(key); ok {
		return &fields.Nested{Schema: s, Type: typ}, nil
	}

	if c.inProgress[key] {
		c.log().Debug("cycle detected, deferring nested schema",
			zap.String("type", typ.String()),
			zap.String("at", path.typeName+"."+path.fieldName))
		reg := c.reg
		return &fields.Deferred{
			Type: typ,
			Resolve: func() (fields.SchemaLoader, error) {
				if s, ok := reg.cached(key); ok {
					return s, nil
				}
				return nil, fmt.Errorf("deferred schema for %s never completed", typ.String())
			},
		}, nil
	}

	s, err := c.assemble(typ)
	if err != nil {
		return nil, err
	}
	return &fields.Nested{Schema: s, Type: typ}, nil
}

// collectFields flattens a struct's declared fields together with its
// embedded ancestors. Ancestor fields come first in their declaration
// order; a field re-declared later overrides the earlier one entirely while
// keeping the ancestor's position.
func collectFields(typ reflect.Type) ([]reflect.StructField, error) {
	var ordered []reflect.StructField
	index := make(map[string]int)

	var walk func(t reflect.Type) error
	walk = func(t reflect.Type) error {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)

			if f.Anonymous {
				embedded := f.Type
				if embedded.Kind() == reflect.Ptr {
					embedded = embedded.Elem()
				}
				if embedded.Kind() == reflect.Struct && f.Tag.Get(TagName) == "" {
					if err := walk(embedded); err != nil {
						return err
					}
					continue
				}
			}

			if !f.IsExported() {
				continue
			}

			if at, seen := index[f.Name]; seen {
				ordered[at] = f
				continue
			}
			index[f.Name] = len(ordered)
			ordered = append(ordered, f)
		}
		return nil
	}

	if err := walk(typ); err != nil {
		return nil, err
	}
	return ordered, nil
}

// applyMeta folds class-level options declared on the type itself into the
// assembled schema. Explicit class options win over type-declared ones.
func applyMeta(typ reflect.Type, s *schema.Schema) {
	var provider schema.MetaProvider
	if p, ok := reflect.New(typ).Interface().(schema.MetaProvider); ok {
		provider = p
	} else if p, ok := reflect.Zero(typ).Interface().(schema.MetaProvider); ok {
		provider = p
	}
	if provider == nil {
		return
	}

	meta := provider.SchemaMeta()
	// Compare the policy itself, not the options pointer, so custom options
	// that touch only unrelated knobs keep the type-declared policy.
	if meta.Unknown != nil && s.Unknown == schema.DefaultOptions().Unknown {
		s.Unknown = *meta.Unknown
	}
}
