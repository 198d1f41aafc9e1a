package typedesc

import (
	"reflect"
	"testing"
)

func TestDescriptorString(t *testing.T) {
	type record struct{ ID string }

	tests := []struct {
		name string
		desc *Descriptor
		want string
	}{
		{
			name: "primitive",
			desc: Int,
			want: "int",
		},
		{
			name: "nullable primitive",
			desc: Optional(String),
			want: "string?",
		},
		{
			name: "list",
			desc: ListOf(Int),
			want: "list<int>",
		},
		{
			name: "map",
			desc: MapOf(String, Float),
			want: "map<string, float>",
		},
		{
			name: "nested container",
			desc: ListOf(MapOf(String, Optional(Int))),
			want: "list<map<string, int?>>",
		},
		{
			name: "union preserves member order",
			desc: UnionOf(Int, Float),
			want: "union<int | float>",
		},
		{
			name: "nullable union",
			desc: UnionOf(Int, Float, None),
			want: "union<int | float>?",
		},
		{
			name: "structured",
			desc: Structured(reflect.TypeOf(record{})),
			want: "struct<typedesc.record>",
		},
		{
			name: "enum",
			desc: Enum("Status", "open", "closed"),
			want: "enum<Status>",
		},
		{
			name: "literal",
			desc: Literal("red", "green"),
			want: "literal[red, green]",
		},
		{
			name: "annotated",
			desc: Annotated(String, "meta"),
			want: "annotated<string>",
		},
		{
			name: "forward reference",
			desc: Named("Person"),
			want: "ref(Person)",
		},
		{
			name: "type parameter",
			desc: Param("T"),
			want: "param(T)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.desc.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDescriptorEqual(t *testing.T) {
	tests := []struct {
		name  string
		a, b  *Descriptor
		equal bool
	}{
		{
			name:  "same primitive",
			a:     Int,
			b:     &Descriptor{Kind: KindPrimitive, Name: "int"},
			equal: true,
		},
		{
			name:  "different nullability",
			a:     Int,
			b:     Optional(Int),
			equal: false,
		},
		{
			name:  "union order matters",
			a:     UnionOf(Int, Float),
			b:     UnionOf(Float, Int),
			equal: false,
		},
		{
			name:  "same container",
			a:     ListOf(Optional(String)),
			b:     ListOf(Optional(String)),
			equal: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.equal {
				t.Errorf("Equal() = %v, want %v", got, tt.equal)
			}
		})
	}
}

func TestUnionOfNormalization(t *testing.T) {
	t.Run("absent member folds into nullability", func(t *testing.T) {
		u := UnionOf(Int, Float, None)
		if u.Kind != KindUnion {
			t.Fatalf("expected union, got %s", u.Kind)
		}
		if !u.Nullable {
			t.Error("union with absent member should be nullable")
		}
		if len(u.Args) != 2 {
			t.Errorf("expected 2 members, got %d", len(u.Args))
		}
	})

	t.Run("single member collapses", func(t *testing.T) {
		u := UnionOf(Int, None)
		if u.Kind != KindPrimitive || u.Name != "int" {
			t.Fatalf("expected collapsed int, got %s", u)
		}
		if !u.Nullable {
			t.Error("collapsed member should keep the absent branch as nullability")
		}
	})

	t.Run("single member without absent stays as-is", func(t *testing.T) {
		u := UnionOf(Int)
		if u != Int {
			t.Errorf("expected the int singleton, got %s", u)
		}
	})

	t.Run("only absent members collapse to none", func(t *testing.T) {
		u := UnionOf(None)
		if u.Kind != KindAbsent {
			t.Errorf("expected absent, got %s", u)
		}
	})
}

func TestMakeNullableDoesNotMutate(t *testing.T) {
	n := Int.MakeNullable()
	if Int.Nullable {
		t.Fatal("MakeNullable mutated the shared singleton")
	}
	if !n.Nullable {
		t.Fatal("returned descriptor should be nullable")
	}
	if n.MakeNullable() != n {
		t.Error("MakeNullable on an already nullable descriptor should return it unchanged")
	}
}

func TestInner(t *testing.T) {
	d := Annotated(Annotated(String, "a"), "b")
	if inner := d.Inner(); inner != String {
		t.Errorf("Inner() = %s, want string", inner)
	}
	if Int.Inner() != Int {
		t.Error("Inner() on a non-annotated descriptor should return it unchanged")
	}
}

func TestBindingFingerprint(t *testing.T) {
	a := Binding{"T": Int, "U": Optional(String)}
	b := Binding{"U": Optional(String), "T": Int}
	if a.Fingerprint() != b.Fingerprint() {
		t.Errorf("equivalent bindings fingerprint differently: %q vs %q", a.Fingerprint(), b.Fingerprint())
	}
	if a.Fingerprint() != "T=int;U=string?" {
		t.Errorf("unexpected fingerprint %q", a.Fingerprint())
	}
	if (Binding{}).Fingerprint() != "" {
		t.Error("empty binding should fingerprint to the empty string")
	}
}
