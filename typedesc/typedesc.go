// Package typedesc defines the canonical type descriptor algebra used by the
// schema derivation engine. A Descriptor is a closed tagged value describing a
// resolved type: its kind, nullability, ordered type arguments, and any
// attached annotation metadata.
package typedesc

import (
	"fmt"
	"reflect"
	"strings"
)

// Kind identifies the shape of a descriptor.
type Kind int

const (
	// KindPrimitive is a scalar type identified by name ("string", "int",
	// "float", "bool", "time", "uuid", "bytes", "any").
	KindPrimitive Kind = iota

	// KindContainer is a homogeneous collection. Name is the container shape
	// ("list" or "map"); Args holds the member descriptors (one for list,
	// key then value for map).
	KindContainer

	// KindUnion is an ordered union of member descriptors. Member order is
	// significant: load attempts members in declared order.
	KindUnion

	// KindStructured references a record type by its reflect.Type identity.
	KindStructured

	// KindEnum is a named restricted-choice type over a fixed value set.
	KindEnum

	// KindLiteral is an anonymous restricted-choice over literal values.
	KindLiteral

	// KindAnnotated wraps exactly one inner descriptor plus ordered
	// annotation metadata.
	KindAnnotated

	// KindNamed is a forward reference to a structured type or alias by
	// name. Named descriptors only exist before resolution.
	KindNamed

	// KindParam references a generic type parameter by name. Param
	// descriptors only exist before resolution.
	KindParam

	// KindAbsent is the "nothing" member of a union. It never survives
	// normalization: a union containing it becomes a nullable union.
	KindAbsent
)

var kindNames = map[Kind]string{
	KindPrimitive:  "primitive",
	KindContainer:  "container",
	KindUnion:      "union",
	KindStructured: "structured",
	KindEnum:       "enum",
	KindLiteral:    "literal",
	KindAnnotated:  "annotated",
	KindNamed:      "named",
	KindParam:      "param",
	KindAbsent:     "absent",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Descriptor is the canonical representation of a resolved type.
//
// Exactly which fields are meaningful depends on Kind:
//
//	KindPrimitive   Name
//	KindContainer   Name ("list"/"map"), Args
//	KindUnion       Args (member order preserved)
//	KindStructured  Struct (reflect.Type identity, never deep-copied)
//	KindEnum        Name, Values
//	KindLiteral     Values
//	KindAnnotated   Elem (inner), Meta (ordered annotation values)
//	KindNamed       Name
//	KindParam       Name
//
// Descriptors are treated as immutable once constructed; the derivation
// engine shares them freely across schemas.
type Descriptor struct {
	Kind     Kind
	Name     string
	Nullable bool
	Args     []*Descriptor
	Struct   reflect.Type
	Values   []any
	Elem     *Descriptor
	Meta     []any
}

// String returns a canonical fingerprint for the descriptor. Fingerprints
// are stable and distinguish nullability, argument order, and structured
// type identity, so they are usable as cache key components.
func (d *Descriptor) String() string {
	if d == nil {
		return "<nil>"
	}

	var b strings.Builder
	switch d.Kind {
	case KindPrimitive:
		b.WriteString(d.Name)
	case KindContainer:
		b.WriteString(d.Name)
		b.WriteByte('<')
		for i, arg := range d.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(arg.String())
		}
		b.WriteByte('>')
	case KindUnion:
		b.WriteString("union<")
		for i, arg := range d.Args {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(arg.String())
		}
		b.WriteByte('>')
	case KindStructured:
		b.WriteString("struct<")
		if d.Struct != nil {
			b.WriteString(d.Struct.String())
		} else {
			b.WriteString(d.Name)
		}
		b.WriteByte('>')
	case KindEnum:
		fmt.Fprintf(&b, "enum<%s>", d.Name)
	case KindLiteral:
		b.WriteString("literal[")
		for i, v := range d.Values {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%v", v)
		}
		b.WriteByte(']')
	case KindAnnotated:
		fmt.Fprintf(&b, "annotated<%s>", d.Elem.String())
	case KindNamed:
		fmt.Fprintf(&b, "ref(%s)", d.Name)
	case KindParam:
		fmt.Fprintf(&b, "param(%s)", d.Name)
	case KindAbsent:
		b.WriteString("none")
	default:
		fmt.Fprintf(&b, "unknown(%d)", int(d.Kind))
	}

	if d.Nullable {
		b.WriteByte('?')
	}
	return b.String()
}

// Equal reports whether two descriptors denote the same canonical type.
func (d *Descriptor) Equal(other *Descriptor) bool {
	if d == nil || other == nil {
		return d == other
	}
	return d.String() == other.String()
}

// IsNullable reports whether values of this type may be absent.
func (d *Descriptor) IsNullable() bool {
	return d != nil && d.Nullable
}

// MakeNullable returns a copy of the descriptor with nullability set. The
// receiver is not modified.
func (d *Descriptor) MakeNullable() *Descriptor {
	if d.Nullable {
		return d
	}
	clone := *d
	clone.Nullable = true
	return &clone
}

// Inner returns the descriptor beneath any Annotated wrappers.
func (d *Descriptor) Inner() *Descriptor {
	for d != nil && d.Kind == KindAnnotated {
		d = d.Elem
	}
	return d
}
