package fields

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringLoad(t *testing.T) {
	f := String{}

	v, err := f.Load("hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", v)

	type named string
	v, err = f.Load(named("typed"))
	require.NoError(t, err)
	assert.Equal(t, "typed", v)

	_, err = f.Load(42)
	assert.Error(t, err, "numbers must not be stringified")

	_, err = f.Load(nil)
	assert.Error(t, err)
}

func TestIntegerLoad(t *testing.T) {
	f := Integer{}

	tests := []struct {
		name    string
		raw     any
		want    int64
		wantErr bool
	}{
		{name: "int", raw: 42, want: 42},
		{name: "int64", raw: int64(-7), want: -7},
		{name: "uint8", raw: uint8(255), want: 255},
		{name: "integral float", raw: 50.0, want: 50},
		{name: "fractional float rejected", raw: 50.5, wantErr: true},
		{name: "overflowing float rejected", raw: 1e300, wantErr: true},
		{name: "float at 2^63 rejected", raw: math.Ldexp(1, 63), wantErr: true},
		{name: "float at -2^63 accepted", raw: math.Ldexp(-1, 63), want: math.MinInt64},
		{name: "infinity rejected", raw: math.Inf(1), wantErr: true},
		{name: "float32 overflow rejected", raw: float32(1e30), wantErr: true},
		{name: "numeric string", raw: "123", want: 123},
		{name: "non-numeric string", raw: "abc", wantErr: true},
		{name: "bool rejected", raw: true, wantErr: true},
		{name: "nil rejected", raw: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := f.Load(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestFloatLoad(t *testing.T) {
	f := Float{}

	v, err := f.Load(50.5)
	require.NoError(t, err)
	assert.Equal(t, 50.5, v)

	v, err = f.Load(3)
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)

	v, err = f.Load("2.25")
	require.NoError(t, err)
	assert.Equal(t, 2.25, v)

	_, err = f.Load(true)
	assert.Error(t, err, "bools are not numbers")
}

func TestBooleanLoad(t *testing.T) {
	f := Boolean{}

	v, err := f.Load(true)
	require.NoError(t, err)
	assert.Equal(t, true, v)

	v, err = f.Load("true")
	require.NoError(t, err)
	assert.Equal(t, true, v)

	_, err = f.Load(1)
	assert.Error(t, err, "numbers must not coerce to bools")
}

func TestTimeField(t *testing.T) {
	f := Time{}

	when := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	v, err := f.Load(when)
	require.NoError(t, err)
	assert.Equal(t, when, v)

	v, err = f.Load("2024-03-15T10:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, when, v.(time.Time).UTC())

	_, err = f.Load("not a time")
	assert.Error(t, err)

	raw, err := f.Dump(when)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15T10:30:00Z", raw)
}

func TestUUIDField(t *testing.T) {
	f := UUIDField{}
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	v, err := f.Load(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, v)

	v, err = f.Load(id)
	require.NoError(t, err)
	assert.Equal(t, id, v)

	_, err = f.Load("not-a-uuid")
	assert.Error(t, err)

	raw, err := f.Dump(id)
	require.NoError(t, err)
	assert.Equal(t, id.String(), raw)
}

func TestRawPassthrough(t *testing.T) {
	f := Raw{}
	v, err := f.Load(map[string]any{"anything": true})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"anything": true}, v)
	assert.True(t, f.Matches(struct{}{}))
}

func TestNullableWrapper(t *testing.T) {
	f := &Nullable{Inner: Integer{}}

	v, err := f.Load(nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = f.Load(7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)

	raw, err := f.Dump(nil)
	require.NoError(t, err)
	assert.Nil(t, raw)

	assert.True(t, f.Matches(nil))
	assert.True(t, f.Matches(5))
	assert.False(t, f.Matches("x"))
}

func TestMatchers(t *testing.T) {
	assert.True(t, String{}.Matches("s"))
	assert.False(t, String{}.Matches(1))
	assert.True(t, Integer{}.Matches(1))
	assert.False(t, Integer{}.Matches(1.5))
	assert.True(t, Float{}.Matches(1.5))
	assert.False(t, Float{}.Matches(1))
	assert.True(t, Boolean{}.Matches(false))
	assert.True(t, Time{}.Matches(time.Now()))
	assert.True(t, UUIDField{}.Matches(uuid.New()))
}
