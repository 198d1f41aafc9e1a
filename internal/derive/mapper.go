package derive

import (
	"fmt"

	"github.com/structschema/structschema/fields"
	"github.com/structschema/structschema/schema"
	"github.com/structschema/structschema/typedesc"
)

// mapFunc converts one descriptor shape into a field capability.
type mapFunc func(c *deriveContext, d *typedesc.Descriptor, path fieldPath) (fields.Field, error)

// dispatch is the closed kind-to-mapper table. Adding a type kind means one
// new descriptor variant and one new entry here. The table is populated in
// init because the mappers recurse through mapDescriptor, which reads it
// back.
var dispatch map[typedesc.Kind]mapFunc

func init() {
	dispatch = map[typedesc.Kind]mapFunc{
		typedesc.KindPrimitive:  mapPrimitive,
		typedesc.KindContainer:  mapContainer,
		typedesc.KindUnion:      mapUnion,
		typedesc.KindStructured: mapStructured,
		typedesc.KindEnum:       mapChoice,
		typedesc.KindLiteral:    mapChoice,
		typedesc.KindAnnotated:  mapAnnotated,
	}
}

// builtinFields is the built-in primitive-name-to-capability table.
var builtinFields = map[string]fields.Factory{
	"string": func() fields.Field { return fields.String{} },
	"int":    func() fields.Field { return fields.Integer{} },
	"float":  func() fields.Field { return fields.Float{} },
	"bool":   func() fields.Field { return fields.Boolean{} },
	"time":   func() fields.Field { return fields.Time{} },
	"uuid":   func() fields.Field { return fields.UUIDField{} },
	"bytes":  func() fields.Field { return fields.Raw{} },
	"any":    func() fields.Field { return fields.Raw{} },
}

// mapDescriptor dispatches a canonical descriptor to its capability. A
// nullable descriptor's capability tolerates nil; unions carry their own
// absent branch instead.
func (c *deriveContext) mapDescriptor(d *typedesc.Descriptor, path fieldPath) (fields.Field, error) {
	fn, ok := dispatch[d.Kind]
	if !ok {
		if c.cfg.Options.OpaqueFallback {
			return fields.Raw{}, nil
		}
		return nil, &schema.UnsupportedTypeError{
			Type:      d.String(),
			TypeName:  path.typeName,
			FieldName: path.fieldName,
		}
	}

	capability, err := fn(c, d, path)
	if err != nil {
		return nil, err
	}
	if d.Nullable && d.Kind != typedesc.KindUnion {
		capability = &fields.Nullable{Inner: capability}
	}
	return capability, nil
}

// mapPrimitive looks a primitive up in the capability table. Custom mapping
// entries supplied through class options take precedence over built-ins.
func mapPrimitive(c *deriveContext, d *typedesc.Descriptor, path fieldPath) (fields.Field, error) {
	if custom, ok := c.cfg.Options.TypeMapping[d.Name]; ok {
		return custom(), nil
	}
	if builtin, ok := builtinFields[d.Name]; ok {
		return builtin(), nil
	}
	if c.cfg.Options.OpaqueFallback {
		return fields.Raw{}, nil
	}
	return nil, &schema.UnsupportedTypeError{
		Type:      d.String(),
		TypeName:  path.typeName,
		FieldName: path.fieldName,
	}
}

func mapContainer(c *deriveContext, d *typedesc.Descriptor, path fieldPath) (fields.Field, error) {
	switch d.Name {
	case "list":
		elem, err := c.mapDescriptor(d.Args[0], path)
		if err != nil {
			return nil, err
		}
		return &fields.List{Elem: elem}, nil
	case "map":
		key, err := c.mapDescriptor(d.Args[0], path)
		if err != nil {
			return nil, err
		}
		value, err := c.mapDescriptor(d.Args[1], path)
		if err != nil {
			return nil, err
		}
		return &fields.Mapping{Key: key, Value: value}, nil
	}
	return nil, fmt.Errorf("unknown container shape %q at %s.%s", d.Name, path.typeName, path.fieldName)
}

// mapUnion maps every member in declared order. The order is load-bearing:
// the union capability attempts loads member by member and keeps the first
// success.
func mapUnion(c *deriveContext, d *typedesc.Descriptor, path fieldPath) (fields.Field, error) {
	members := make([]fields.UnionMember, 0, len(d.Args))
	for _, m := range d.Args {
		capability, err := c.mapDescriptor(m, path)
		if err != nil {
			return nil, err
		}
		members = append(members, fields.UnionMember{Desc: m, Field: capability})
	}
	return &fields.Union{Members: members, Nullable: d.Nullable}, nil
}

// mapStructured recurses into the schema assembler for the nested record
// type, consulting the cache first and deferring on structural cycles.
func mapStructured(c *deriveContext, d *typedesc.Descriptor, path fieldPath) (fields.Field, error) {
	return c.schemaField(d.Struct, path)
}

func mapChoice(_ *deriveContext, d *typedesc.Descriptor, _ fieldPath) (fields.Field, error) {
	return &fields.Choice{Name: d.Name, Values: d.Values}, nil
}

// mapAnnotated maps the inner descriptor; a ready-made capability among the
// annotations was already claimed by the extractor before mapping started.
func mapAnnotated(c *deriveContext, d *typedesc.Descriptor, path fieldPath) (fields.Field, error) {
	return c.mapDescriptor(d.Elem, path)
}
