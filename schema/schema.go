package schema

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"

	"github.com/structschema/structschema/fields"
	"github.com/structschema/structschema/typedesc"
)

// FieldSpec is one field's assembled specification: its resolved type, the
// capability that loads and dumps it, and the required/default semantics the
// extractor settled on.
type FieldSpec struct {
	// Name is the Go struct field name.
	Name string
	// DataKey is the wire key Load reads and Dump writes.
	DataKey string
	// Desc is the canonical descriptor the field's type resolved to.
	Desc *typedesc.Descriptor
	// Capability loads and dumps the field's value.
	Capability fields.Field

	// Required is true iff the field has no default and its type is not
	// nullable, unless explicitly overridden.
	Required bool
	// AllowNil permits an explicit null value.
	AllowNil bool

	HasDefault     bool
	Default        any
	DefaultFactory func() any
}

// defaultValue produces the value used when the raw data omits the field.
func (f *FieldSpec) defaultValue() any {
	if f.DefaultFactory != nil {
		return f.DefaultFactory()
	}
	return f.Default
}

// Schema is one structured type's assembled schema: an ordered field
// specification list plus the class options it was derived under. Schemas
// are immutable once assembled and shared by every derivation request with
// the same key.
type Schema struct {
	// Name is the structured type's name.
	Name string
	// Type is the target struct type instances are materialized into.
	Type reflect.Type
	// Binding is the generic binding fingerprint this schema was derived
	// under (empty for non-parametric derivations).
	Binding string
	// Fields holds the field specs in declaration order (ancestors first).
	Fields []*FieldSpec
	// Options are the class-level options applied verbatim at assembly.
	Options *Options
	// Unknown is the effective unknown-field policy: the class options'
	// policy unless the type's own Meta overrode it at assembly.
	Unknown UnknownPolicy

	byKey map[string]*FieldSpec
}

// New assembles a Schema value from finished field specs. The derivation
// engine is the only intended caller.
func New(name string, typ reflect.Type, binding string, specs []*FieldSpec, opts *Options) *Schema {
	if opts == nil {
		opts = DefaultOptions()
	}
	s := &Schema{
		Name:    name,
		Type:    typ,
		Binding: binding,
		Fields:  specs,
		Options: opts,
		Unknown: opts.Unknown,
		byKey:   make(map[string]*FieldSpec, len(specs)),
	}
	for _, spec := range specs {
		s.byKey[spec.DataKey] = spec
	}
	return s
}

// Field returns the spec for a data key.
func (s *Schema) Field(dataKey string) (*FieldSpec, bool) {
	spec, ok := s.byKey[dataKey]
	return spec, ok
}

// FieldByName returns the spec for a Go struct field name.
func (s *Schema) FieldByName(name string) (*FieldSpec, bool) {
	for _, spec := range s.Fields {
		if spec.Name == name {
			return spec, true
		}
	}
	return nil, false
}

// Load validates raw data against the schema and materializes an instance of
// the target struct type. Every field failure is collected; the returned
// error is a *ValidationError keyed by data key when validation fails.
func (s *Schema) Load(raw map[string]any) (any, error) {
	verr := &ValidationError{TypeName: s.Name}
	loaded := make(map[string]any, len(s.Fields))

	for _, spec := range s.Fields {
		rawVal, present := raw[spec.DataKey]
		if !present {
			switch {
			case spec.HasDefault:
				loaded[spec.Name] = spec.defaultValue()
			case spec.Required:
				verr.add(spec.DataKey, "missing data for required field")
			}
			continue
		}
		if rawVal == nil {
			if !spec.AllowNil {
				verr.add(spec.DataKey, "field may not be null")
			}
			continue
		}
		v, err := spec.Capability.Load(rawVal)
		if err != nil {
			verr.add(spec.DataKey, err.Error())
			continue
		}
		if v != nil {
			loaded[spec.Name] = v
		}
	}

	for key := range raw {
		if _, known := s.byKey[key]; known {
			continue
		}
		switch s.Unknown {
		case UnknownRaise:
			verr.add(key, "unknown field")
		case UnknownInclude:
			loaded[key] = raw[key]
		}
	}

	if !verr.empty() {
		return nil, verr
	}
	return s.materialize(loaded)
}

// materialize decodes the loaded field map into a fresh instance of the
// target struct type. Keys are Go field names, so promoted and overridden
// fields land where reflection placed them.
func (s *Schema) materialize(loaded map[string]any) (any, error) {
	instance := reflect.New(s.Type)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           instance.Interface(),
		WeaklyTypedInput: true,
		// Embedded ancestors flatten into the schema, so their promoted
		// field names must decode through the embedding.
		Squash:  true,
		TagName: "structschema",
	})
	if err != nil {
		return nil, fmt.Errorf("building decoder for %s: %w", s.Name, err)
	}
	if err := decoder.Decode(loaded); err != nil {
		return nil, fmt.Errorf("materializing %s: %w", s.Name, err)
	}
	return instance.Elem().Interface(), nil
}

// Dump converts an instance of the target struct type (value or pointer)
// into raw data keyed by data key.
func (s *Schema) Dump(value any) (map[string]any, error) {
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, fmt.Errorf("cannot dump nil %s", s.Name)
		}
		rv = rv.Elem()
	}
	if rv.Type() != s.Type {
		return nil, fmt.Errorf("cannot dump %T with the %s schema", value, s.Name)
	}

	verr := &ValidationError{TypeName: s.Name}
	out := make(map[string]any, len(s.Fields))
	for _, spec := range s.Fields {
		fv := rv.FieldByName(spec.Name)
		if !fv.IsValid() {
			continue
		}
		if fv.Kind() == reflect.Ptr {
			if fv.IsNil() {
				if spec.AllowNil {
					out[spec.DataKey] = nil
				} else {
					verr.add(spec.DataKey, "field may not be null")
				}
				continue
			}
			fv = fv.Elem()
		}
		if fv.Kind() == reflect.Interface && fv.IsNil() {
			if spec.AllowNil {
				out[spec.DataKey] = nil
			} else {
				verr.add(spec.DataKey, "field may not be null")
			}
			continue
		}
		raw, err := spec.Capability.Dump(fv.Interface())
		if err != nil {
			verr.add(spec.DataKey, err.Error())
			continue
		}
		out[spec.DataKey] = raw
	}

	if !verr.empty() {
		return nil, verr
	}
	return out, nil
}
