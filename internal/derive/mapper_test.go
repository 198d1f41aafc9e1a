package derive

import (
	"reflect"
	"testing"

	"github.com/structschema/structschema/fields"
	"github.com/structschema/structschema/typedesc"
)

// Every mappable descriptor kind has a dispatch entry; Named, Param, and
// Absent are resolved away before mapping ever sees them.
func TestMapDescriptorKinds(t *testing.T) {
	type leaf struct {
		Name string `schema:"name"`
	}

	reg := NewRegistry()
	c := &deriveContext{
		reg:        reg,
		cfg:        (&Config{}).normalized(),
		inProgress: make(map[cacheKey]bool),
	}
	path := fieldPath{typeName: "leaf", fieldName: "f"}

	descs := map[typedesc.Kind]*typedesc.Descriptor{
		typedesc.KindPrimitive:  typedesc.String,
		typedesc.KindContainer:  typedesc.ListOf(typedesc.Int),
		typedesc.KindUnion:      typedesc.UnionOf(typedesc.Int, typedesc.Float),
		typedesc.KindStructured: typedesc.Structured(reflect.TypeOf(leaf{})),
		typedesc.KindEnum:       typedesc.Enum("Color", "red", "blue"),
		typedesc.KindLiteral:    typedesc.Literal("fixed"),
		typedesc.KindAnnotated:  typedesc.Annotated(typedesc.String),
	}

	for kind, d := range descs {
		f, err := c.mapDescriptor(d, path)
		if err != nil {
			t.Errorf("mapDescriptor(%s): %v", kind, err)
			continue
		}
		if f == nil {
			t.Errorf("mapDescriptor(%s) returned no capability", kind)
		}
	}
}

func TestMapDescriptorNullableWraps(t *testing.T) {
	reg := NewRegistry()
	c := &deriveContext{
		reg:        reg,
		cfg:        (&Config{}).normalized(),
		inProgress: make(map[cacheKey]bool),
	}

	f, err := c.mapDescriptor(typedesc.String.MakeNullable(), fieldPath{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := f.(*fields.Nullable); !ok {
		t.Errorf("nullable primitive maps to %T, want *fields.Nullable", f)
	}

	// A nullable union carries its absent branch itself.
	u, err := c.mapDescriptor(typedesc.UnionOf(typedesc.Int, typedesc.Float, typedesc.None), fieldPath{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := u.(*fields.Union); !ok {
		t.Errorf("nullable union maps to %T, want *fields.Union", u)
	}
}
