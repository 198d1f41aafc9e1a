// Package structschema derives validation/serialization schemas from Go
// struct declarations, so a program's data model and its (de)serialization
// rules never drift apart.
//
// The core is a recursive derivation engine: it walks a struct's fields,
// resolves each field's declared type (pointers, containers, tag-level
// unions and forward references, generic parameters, annotated aliases,
// embedded ancestors), and wires every field with a load/dump capability
// from the fields package, assembling the result into a schema.Schema.
//
// Simple example:
//
//	type Point struct {
//		X float64
//		Y float64
//	}
//
//	s, err := structschema.ClassSchema(Point{})
//	point, err := s.Load(map[string]any{"X": 1.5, "Y": 2.0})
//
// Field behaviour is declared in the schema struct tag:
//
//	type Building struct {
//		Height *float64 `schema:"height"`
//		Name   string   `schema:"name,default=anonymous"`
//	}
package structschema

import (
	"errors"
	"reflect"

	"go.uber.org/zap"

	"github.com/structschema/structschema/fields"
	"github.com/structschema/structschema/internal/derive"
	"github.com/structschema/structschema/schema"
	"github.com/structschema/structschema/typedesc"
)

// Registry owns derived schemas and the name tables forward references
// resolve against. The package-level functions operate on a shared default
// registry; tests and embedders can create isolated ones.
type Registry struct {
	inner *derive.Registry
}

// NewRegistry creates an empty, isolated registry.
func NewRegistry() *Registry {
	return &Registry{inner: derive.NewRegistry()}
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the shared process-wide registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// ResetDefaultRegistry drops every cached schema and registration from the
// shared registry. Intended for tests.
func ResetDefaultRegistry() {
	defaultRegistry.inner.Reset()
}

// SetLogger installs a logger for derivation debug events on this registry.
func (r *Registry) SetLogger(logger *zap.Logger) {
	r.inner.SetLogger(logger)
}

// ClassSchema derives (or returns the cached) schema for a structured type.
// v may be a struct value, a pointer to one, or a reflect.Type. Deriving the
// same type twice under the same binding and base options returns the
// identical schema object.
func (r *Registry) ClassSchema(v any, opts ...Option) (*schema.Schema, error) {
	return r.inner.Derive(typeOf(v), buildConfig(opts))
}

// FieldForSchema maps a single type to a field capability: the exact object
// a schema field of that type would be wired with. v may be a struct value,
// a reflect.Type, or a *typedesc.Descriptor.
func (r *Registry) FieldForSchema(v any, opts ...Option) (fields.Field, error) {
	if desc, ok := v.(*typedesc.Descriptor); ok {
		return r.inner.FieldFor(nil, desc, buildConfig(opts))
	}
	return r.inner.FieldFor(typeOf(v), nil, buildConfig(opts))
}

// Register records a structured type under its type name so tag-level
// forward references ("type=Person") can resolve to it, then derives and
// caches its schema. A derivation that fails only because it references a
// name not registered yet is left for first use; references resolve at the
// point they are needed, not at registration.
func (r *Registry) Register(v any, opts ...Option) error {
	typ := typeOf(v)
	for typ != nil && typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ == nil || typ.Kind() != reflect.Struct {
		name := "nil"
		if typ != nil {
			name = typ.String()
		}
		return &schema.NotAStructuredTypeError{Type: name}
	}
	r.inner.RegisterNamed(typ.Name(), typ)

	if _, err := r.inner.Derive(typ, buildConfig(opts)); err != nil {
		unresolved := &typedesc.UnresolvedReferenceError{}
		if errors.As(err, &unresolved) {
			return nil
		}
		return err
	}
	return nil
}

// MustRegister is Register, panicking on error.
func (r *Registry) MustRegister(v any, opts ...Option) {
	if err := r.Register(v, opts...); err != nil {
		panic(err)
	}
}

// SchemaOf returns the derived schema for a registered (or any) structured
// type, deriving it on first use.
func (r *Registry) SchemaOf(v any, opts ...Option) (*schema.Schema, error) {
	return r.ClassSchema(v, opts...)
}

// NewType registers a named type alias: wherever the alias name appears as
// a field's type, the attached capability, options, and validation rules
// apply. The returned descriptor can also be used programmatically.
func (r *Registry) NewType(name string, base *typedesc.Descriptor, opts ...AliasOption) *typedesc.Descriptor {
	cfg := &aliasConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	desc := typedesc.Annotated(base, cfg.meta...)
	r.inner.RegisterAlias(name, desc)
	return desc
}

// RegisterEnum declares a named restricted-choice type over the exact given
// values. If the values share a named Go type, fields declared with that Go
// type resolve to the enum automatically.
func (r *Registry) RegisterEnum(name string, values ...any) *typedesc.Descriptor {
	desc := typedesc.Enum(name, values...)
	r.inner.RegisterAlias(name, desc)
	if len(values) > 0 {
		t := reflect.TypeOf(values[0])
		if t != nil && t.PkgPath() != "" {
			uniform := true
			for _, v := range values[1:] {
				if reflect.TypeOf(v) != t {
					uniform = false
					break
				}
			}
			if uniform {
				r.inner.BindType(t, desc)
			}
		}
	}
	return desc
}

// BindType associates a Go type with a descriptor, so fields declared with
// that Go type resolve to the descriptor without a tag.
func (r *Registry) BindType(sample any, desc *typedesc.Descriptor) {
	r.inner.BindType(typeOf(sample), desc)
}

// Package-level conveniences over the default registry.

// ClassSchema derives a schema using the default registry.
func ClassSchema(v any, opts ...Option) (*schema.Schema, error) {
	return defaultRegistry.ClassSchema(v, opts...)
}

// FieldForSchema maps a single type to a field capability using the default
// registry.
func FieldForSchema(v any, opts ...Option) (fields.Field, error) {
	return defaultRegistry.FieldForSchema(v, opts...)
}

// Register records a structured type in the default registry.
func Register(v any, opts ...Option) error { return defaultRegistry.Register(v, opts...) }

// MustRegister is Register, panicking on error.
func MustRegister(v any, opts ...Option) { defaultRegistry.MustRegister(v, opts...) }

// SchemaOf returns the derived schema for a type from the default registry.
func SchemaOf(v any, opts ...Option) (*schema.Schema, error) {
	return defaultRegistry.SchemaOf(v, opts...)
}

// NewType registers a named type alias in the default registry.
func NewType(name string, base *typedesc.Descriptor, opts ...AliasOption) *typedesc.Descriptor {
	return defaultRegistry.NewType(name, base, opts...)
}

// RegisterEnum declares a named restricted-choice type in the default
// registry.
func RegisterEnum(name string, values ...any) *typedesc.Descriptor {
	return defaultRegistry.RegisterEnum(name, values...)
}

// BindType associates a Go type with a descriptor in the default registry.
func BindType(sample any, desc *typedesc.Descriptor) {
	defaultRegistry.BindType(sample, desc)
}

// typeOf normalizes the accepted input forms to a reflect.Type.
func typeOf(v any) reflect.Type {
	switch t := v.(type) {
	case nil:
		return nil
	case reflect.Type:
		return t
	default:
		return reflect.TypeOf(v)
	}
}
