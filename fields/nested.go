package fields

import (
	"reflect"
	"sync"
)

// SchemaLoader is the slice of an assembled schema a nested capability
// needs. It is satisfied by *schema.Schema; declaring it here keeps this
// package free of a dependency on the schema model.
type SchemaLoader interface {
	Load(raw map[string]any) (any, error)
	Dump(value any) (map[string]any, error)
}

// Nested delegates one field to another structured type's schema.
type Nested struct {
	// Schema performs the actual load/dump.
	Schema SchemaLoader
	// Type is the nested struct type, used for union member matching.
	Type reflect.Type
}

// Load implements Field.
func (n *Nested) Load(raw any) (any, error) {
	m, err := asRawMap(raw)
	if err != nil {
		return nil, err
	}
	return n.Schema.Load(m)
}

// Dump implements Field.
func (n *Nested) Dump(value any) (any, error) {
	return n.Schema.Dump(value)
}

// Matches implements TypeMatcher.
func (n *Nested) Matches(value any) bool {
	if value == nil || n.Type == nil {
		return false
	}
	t := reflect.TypeOf(value)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t == n.Type
}

// Deferred is the lazy field spec that breaks structural cycles. It is
// handed out when a schema's derivation re-enters itself (directly or
// mutually); the real nested schema is looked up on first use, by which time
// assembly has completed and the cache holds the finished schema.
type Deferred struct {
	// Resolve returns the completed schema for the deferred reference.
	Resolve func() (SchemaLoader, error)
	// Type is the nested struct type, used for union member matching.
	Type reflect.Type

	once   sync.Once
	loader SchemaLoader
	err    error
}

func (d *Deferred) resolve() (SchemaLoader, error) {
	d.once.Do(func() {
		d.loader, d.err = d.Resolve()
	})
	return d.loader, d.err
}

// Load implements Field.
func (d *Deferred) Load(raw any) (any, error) {
	loader, err := d.resolve()
	if err != nil {
		return nil, err
	}
	m, err := asRawMap(raw)
	if err != nil {
		return nil, err
	}
	return loader.Load(m)
}

// Dump implements Field.
func (d *Deferred) Dump(value any) (any, error) {
	loader, err := d.resolve()
	if err != nil {
		return nil, err
	}
	return loader.Dump(value)
}

// Matches implements TypeMatcher.
func (d *Deferred) Matches(value any) bool {
	if value == nil || d.Type == nil {
		return false
	}
	t := reflect.TypeOf(value)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t == d.Type
}

// SchemaRef returns the resolved schema backing the deferred reference.
// Exposed so callers can verify a self-referential field resolves to the
// owning schema object itself.
func (d *Deferred) SchemaRef() (SchemaLoader, error) {
	return d.resolve()
}

func asRawMap(raw any) (map[string]any, error) {
	switch m := raw.(type) {
	case nil:
		return nil, Errorf("field may not be null")
	case map[string]any:
		return m, nil
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, Errorf("object keys must be strings, got %v (%T)", k, k)
			}
			out[ks] = v
		}
		return out, nil
	}
	return nil, Errorf("not a valid object: %v (%T)", raw, raw)
}
