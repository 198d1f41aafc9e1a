package typedesc

import (
	"reflect"
	"sort"
	"strings"
)

// Built-in primitive descriptors. These are shared singletons; callers must
// not mutate them.
var (
	String = &Descriptor{Kind: KindPrimitive, Name: "string"}
	Int    = &Descriptor{Kind: KindPrimitive, Name: "int"}
	Float  = &Descriptor{Kind: KindPrimitive, Name: "float"}
	Bool   = &Descriptor{Kind: KindPrimitive, Name: "bool"}
	Time   = &Descriptor{Kind: KindPrimitive, Name: "time"}
	UUID   = &Descriptor{Kind: KindPrimitive, Name: "uuid"}
	Bytes  = &Descriptor{Kind: KindPrimitive, Name: "bytes"}
	Any    = &Descriptor{Kind: KindPrimitive, Name: "any"}

	// None is the absent member usable inside unions.
	None = &Descriptor{Kind: KindAbsent}
)

// Primitive returns the built-in primitive descriptor for name, or nil if
// the name is not a known primitive.
func Primitive(name string) *Descriptor {
	switch name {
	case "string":
		return String
	case "int":
		return Int
	case "float":
		return Float
	case "bool":
		return Bool
	case "time":
		return Time
	case "uuid":
		return UUID
	case "bytes":
		return Bytes
	case "any":
		return Any
	}
	return nil
}

// ListOf builds a list container descriptor.
func ListOf(elem *Descriptor) *Descriptor {
	return &Descriptor{Kind: KindContainer, Name: "list", Args: []*Descriptor{elem}}
}

// MapOf builds a map container descriptor.
func MapOf(key, value *Descriptor) *Descriptor {
	return &Descriptor{Kind: KindContainer, Name: "map", Args: []*Descriptor{key, value}}
}

// UnionOf builds a union descriptor over the given members, preserving
// declared order. Absent members fold into the union's nullability; a union
// that collapses to a single member returns that member (nullable if an
// absent branch was present).
func UnionOf(members ...*Descriptor) *Descriptor {
	kept := make([]*Descriptor, 0, len(members))
	nullable := false
	for _, m := range members {
		if m == nil || m.Kind == KindAbsent {
			nullable = true
			continue
		}
		if m.Nullable {
			nullable = true
		}
		kept = append(kept, m)
	}

	switch len(kept) {
	case 0:
		return None
	case 1:
		if nullable {
			return kept[0].MakeNullable()
		}
		return kept[0]
	}
	return &Descriptor{Kind: KindUnion, Args: kept, Nullable: nullable}
}

// Optional marks a descriptor nullable, the Go analogue of wrapping a type
// in Optional[...].
func Optional(d *Descriptor) *Descriptor {
	return d.MakeNullable()
}

// Structured builds a descriptor referencing a record type by identity.
func Structured(t reflect.Type) *Descriptor {
	return &Descriptor{Kind: KindStructured, Struct: t, Name: t.Name()}
}

// Named builds a forward reference to a registered type or alias.
func Named(name string) *Descriptor {
	return &Descriptor{Kind: KindNamed, Name: name}
}

// Param builds a reference to a generic type parameter.
func Param(name string) *Descriptor {
	return &Descriptor{Kind: KindParam, Name: name}
}

// Enum builds a named restricted-choice descriptor. Value order is the
// declared order.
func Enum(name string, values ...any) *Descriptor {
	return &Descriptor{Kind: KindEnum, Name: name, Values: values}
}

// Literal builds an anonymous restricted-choice descriptor over the exact
// given values.
func Literal(values ...any) *Descriptor {
	return &Descriptor{Kind: KindLiteral, Values: values}
}

// Annotated wraps an inner descriptor with ordered annotation metadata.
// Metadata order is significant: the first entry that behaves as a
// ready-made field capability takes precedence over later-derived mappings.
func Annotated(inner *Descriptor, meta ...any) *Descriptor {
	return &Descriptor{Kind: KindAnnotated, Elem: inner, Meta: meta}
}

// Binding maps generic type-parameter names to concrete descriptors for one
// derivation. A binding must be fully resolved before field mapping
// proceeds; referencing a missing parameter fails the derivation.
type Binding map[string]*Descriptor

// Fingerprint returns a stable string form of the binding, usable as a
// cache key component. Parameter names are sorted so equivalent bindings
// fingerprint identically.
func (b Binding) Fingerprint() string {
	if len(b) == 0 {
		return ""
	}
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for i, name := range names {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(name)
		sb.WriteByte('=')
		sb.WriteString(b[name].String())
	}
	return sb.String()
}

// Lookup returns the descriptor bound to a parameter name.
func (b Binding) Lookup(name string) (*Descriptor, bool) {
	d, ok := b[name]
	return d, ok
}
