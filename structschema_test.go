package structschema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/structschema/structschema/fields"
	"github.com/structschema/structschema/schema"
	"github.com/structschema/structschema/typedesc"
)

type point struct {
	X float64 `schema:"x"`
	Y float64 `schema:"y"`
}

func TestClassSchemaRoundTrip(t *testing.T) {
	reg := NewRegistry()

	s, err := reg.ClassSchema(point{})
	require.NoError(t, err)

	v, err := s.Load(map[string]any{"x": 1.5, "y": 2.0})
	require.NoError(t, err)
	assert.Equal(t, point{X: 1.5, Y: 2.0}, v)

	raw, err := s.Dump(point{X: 1.5, Y: 2.0})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": 1.5, "y": 2.0}, raw)
}

func TestClassSchemaCaching(t *testing.T) {
	reg := NewRegistry()

	a, err := reg.ClassSchema(point{})
	require.NoError(t, err)
	b, err := reg.ClassSchema(&point{})
	require.NoError(t, err)
	assert.Same(t, a, b)

	// Registries are isolated from one another.
	other, err := NewRegistry().ClassSchema(point{})
	require.NoError(t, err)
	assert.NotSame(t, a, other)
}

func TestFieldForSchema(t *testing.T) {
	reg := NewRegistry()

	f, err := reg.FieldForSchema([]int(nil))
	require.NoError(t, err)
	v, err := f.Load([]any{1, "2"})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2)}, v)

	// Descriptors work directly too.
	f, err = reg.FieldForSchema(typedesc.UnionOf(typedesc.Int, typedesc.Float))
	require.NoError(t, err)
	v, err = f.Load(50.0)
	require.NoError(t, err)
	assert.Equal(t, int64(50), v)

	// A structured descriptor maps to a nested schema capability.
	f, err = reg.FieldForSchema(typedesc.Structured(typeOf(point{})))
	require.NoError(t, err)
	v, err = f.Load(map[string]any{"x": 1.0, "y": 2.0})
	require.NoError(t, err)
	assert.Equal(t, point{X: 1.0, Y: 2.0}, v)
}

func TestNewTypeAlias(t *testing.T) {
	reg := NewRegistry()

	reg.NewType("Email", typedesc.String,
		WithValidate(func(v any) error {
			if !strings.Contains(v.(string), "@") {
				return fields.Errorf("not a valid email address")
			}
			return nil
		}),
		WithAliasOptions(schema.FieldOpts{DataKey: "email_address"}),
	)

	type account struct {
		Email string `schema:",type=Email"`
	}
	s, err := reg.ClassSchema(account{})
	require.NoError(t, err)

	// The alias contributes the data key; the tag left it empty.
	_, ok := s.Field("email_address")
	require.True(t, ok)

	v, err := s.Load(map[string]any{"email_address": "sam@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "sam@example.com", v.(account).Email)

	_, err = s.Load(map[string]any{"email_address": "nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email")
}

func TestNewTypeAliasCapability(t *testing.T) {
	reg := NewRegistry()

	// A ready-made capability on the alias bypasses type mapping.
	reg.NewType("Upper", typedesc.String, WithAliasField(upperField{}))

	type doc struct {
		Title string `schema:"title,type=Upper"`
	}
	s, err := reg.ClassSchema(doc{})
	require.NoError(t, err)

	v, err := s.Load(map[string]any{"title": "loud"})
	require.NoError(t, err)
	assert.Equal(t, "LOUD", v.(doc).Title)

	// A per-field capability outranks the alias capability.
	s, err = reg.ClassSchema(doc{},
		WithFieldOptions("Title", schema.FieldOpts{Capability: fields.String{}}),
	)
	require.NoError(t, err)
	v, err = s.Load(map[string]any{"title": "loud"})
	require.NoError(t, err)
	assert.Equal(t, "loud", v.(doc).Title)
}

type upperField struct{}

func (upperField) Load(raw any) (any, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, fields.Errorf("not a string")
	}
	return strings.ToUpper(s), nil
}

func (upperField) Dump(value any) (any, error) { return value, nil }

type priority string

func TestRegisterEnum(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterEnum("Priority", priority("low"), priority("high"))

	// Fields declared with the enum's Go type resolve without a tag.
	type ticket struct {
		Priority priority `schema:"priority"`
	}
	s, err := reg.ClassSchema(ticket{})
	require.NoError(t, err)

	v, err := s.Load(map[string]any{"priority": "high"})
	require.NoError(t, err)
	assert.Equal(t, priority("high"), v.(ticket).Priority)

	_, err = s.Load(map[string]any{"priority": "urgent"})
	require.Error(t, err)

	raw, err := s.Dump(ticket{Priority: priority("low")})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"priority": "low"}, raw)
}

func TestRegisterAndForwardReference(t *testing.T) {
	reg := NewRegistry()

	type person struct {
		Name string `schema:"name"`
	}
	type team struct {
		Lead any `schema:"lead,type=person"`
	}

	require.NoError(t, reg.Register(person{}))

	s, err := reg.ClassSchema(team{})
	require.NoError(t, err)

	v, err := s.Load(map[string]any{"lead": map[string]any{"name": "sam"}})
	require.NoError(t, err)
	assert.Equal(t, person{Name: "sam"}, v.(team).Lead)

	assert.Error(t, reg.Register(42), "only structured types can be registered")
	assert.Error(t, reg.Register(nil))
}

func TestWithBinding(t *testing.T) {
	reg := NewRegistry()

	type box struct {
		Value any `schema:"value,type=T"`
	}

	intBox, err := reg.ClassSchema(box{}, WithBinding(typedesc.Binding{"T": typedesc.Int}))
	require.NoError(t, err)
	strBox, err := reg.ClassSchema(box{}, WithBinding(typedesc.Binding{"T": typedesc.String}))
	require.NoError(t, err)
	assert.NotSame(t, intBox, strBox)

	v, err := intBox.Load(map[string]any{"value": 5})
	require.NoError(t, err)
	assert.Equal(t, int64(5), v.(box).Value)

	_, err = strBox.Load(map[string]any{"value": 5})
	assert.Error(t, err)
}

func TestWithFieldOptions(t *testing.T) {
	reg := NewRegistry()

	required := false
	s, err := reg.ClassSchema(point{},
		WithFieldOptions("X", schema.FieldOpts{DataKey: "横", Required: &required}),
	)
	require.NoError(t, err)

	spec, ok := s.Field("横")
	require.True(t, ok, "programmatic options outrank the struct tag")
	assert.False(t, spec.Required)
}

func TestWithBaseSchemaOptions(t *testing.T) {
	reg := NewRegistry()

	opts := &schema.Options{Unknown: schema.UnknownExclude}
	s, err := reg.ClassSchema(point{}, WithBaseSchema(opts))
	require.NoError(t, err)

	_, err = s.Load(map[string]any{"x": 1.0, "y": 2.0, "extra": true})
	assert.NoError(t, err)

	// The same options pointer shares the cached schema; a strict default
	// derivation does not.
	again, err := reg.ClassSchema(point{}, WithBaseSchema(opts))
	require.NoError(t, err)
	assert.Same(t, s, again)

	strict, err := reg.ClassSchema(point{})
	require.NoError(t, err)
	assert.NotSame(t, s, strict)
	_, err = strict.Load(map[string]any{"x": 1.0, "y": 2.0, "extra": true})
	assert.Error(t, err, "the default policy rejects unknown fields")
}

func TestDefaultRegistry(t *testing.T) {
	t.Cleanup(ResetDefaultRegistry)
	ResetDefaultRegistry()

	MustRegister(point{})
	a, err := SchemaOf(point{})
	require.NoError(t, err)
	b, err := ClassSchema(point{})
	require.NoError(t, err)
	assert.Same(t, a, b)

	f, err := FieldForSchema("")
	require.NoError(t, err)
	_, err = f.Load("ok")
	assert.NoError(t, err)

	ResetDefaultRegistry()
	c, err := ClassSchema(point{})
	require.NoError(t, err)
	assert.NotSame(t, a, c)
}

func TestBindTypePackageLevel(t *testing.T) {
	t.Cleanup(ResetDefaultRegistry)
	ResetDefaultRegistry()

	type weight float64
	BindType(weight(0), typedesc.Float)

	type parcel struct {
		Weight weight `schema:"weight"`
	}
	s, err := ClassSchema(parcel{})
	require.NoError(t, err)

	v, err := s.Load(map[string]any{"weight": 1.25})
	require.NoError(t, err)
	assert.Equal(t, weight(1.25), v.(parcel).Weight)
}
