// Package derive implements the type-to-schema derivation engine: the
// recursive walk over a structured type's field declarations that resolves
// each field's type, merges its metadata, maps it to a field capability, and
// assembles the result into a schema definition.
package derive

import (
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/structschema/structschema/schema"
	"github.com/structschema/structschema/typedesc"
)

// cacheKey identifies one derivation: the structured type's identity, the
// generic binding fingerprint, and the class-options identity. Schemas are
// pure functions of their key.
type cacheKey struct {
	typ     reflect.Type
	binding string
	opts    *schema.Options
}

// Registry owns the completed-schema cache and the name/alias/enum tables
// forward references resolve against. A registry is safe for concurrent use:
// its one mutex is held only across a single key's check-and-insert, never
// across a derivation, so self-referential types cannot deadlock on it.
type Registry struct {
	mu sync.Mutex

	schemas map[cacheKey]*schema.Schema

	// named maps registered structured-type names to their Go types.
	named map[string]reflect.Type
	// aliases maps alias names to their (usually annotated) descriptors.
	aliases map[string]*typedesc.Descriptor
	// bound maps Go types to descriptors, so reflection resolves named Go
	// types (enums, aliases) without a tag.
	bound map[reflect.Type]*typedesc.Descriptor

	logger *zap.Logger
}

// NewRegistry creates an empty registry with a no-op logger.
func NewRegistry() *Registry {
	return &Registry{
		schemas: make(map[cacheKey]*schema.Schema),
		named:   make(map[string]reflect.Type),
		aliases: make(map[string]*typedesc.Descriptor),
		bound:   make(map[reflect.Type]*typedesc.Descriptor),
		logger:  zap.NewNop(),
	}
}

// SetLogger installs a logger for derivation debug events.
func (r *Registry) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r.mu.Lock()
	r.logger = logger
	r.mu.Unlock()
}

func (r *Registry) log() *zap.Logger {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.logger
}

// RegisterNamed registers a structured type under a name so forward
// references in type expressions can resolve to it.
func (r *Registry) RegisterNamed(name string, typ reflect.Type) {
	r.mu.Lock()
	r.named[name] = typ
	r.mu.Unlock()
}

// RegisterAlias registers a named type alias descriptor.
func (r *Registry) RegisterAlias(name string, desc *typedesc.Descriptor) {
	r.mu.Lock()
	r.aliases[name] = desc
	r.mu.Unlock()
}

// BindType associates a Go type with a descriptor, so fields declared with
// that Go type resolve to the descriptor directly.
func (r *Registry) BindType(typ reflect.Type, desc *typedesc.Descriptor) {
	r.mu.Lock()
	r.bound[typ] = desc
	r.mu.Unlock()
}

func (r *Registry) lookupNamed(name string) (reflect.Type, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.named[name]
	return t, ok
}

func (r *Registry) lookupAlias(name string) (*typedesc.Descriptor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.aliases[name]
	return d, ok
}

func (r *Registry) lookupBound(typ reflect.Type) (*typedesc.Descriptor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.bound[typ]
	return d, ok
}

// cached returns the completed schema for a key, if any.
func (r *Registry) cached(key cacheKey) (*schema.Schema, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.schemas[key]
	return s, ok
}

// publish inserts a completed schema insert-if-absent and returns the
// canonical instance. The first completed derivation for a key wins; later
// results for the same key are discarded, which is what guarantees at most
// one schema object per key.
func (r *Registry) publish(key cacheKey, s *schema.Schema) *schema.Schema {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.schemas[key]; ok {
		return existing
	}
	r.schemas[key] = s
	return s
}

// Reset drops every completed schema and registration. Intended for tests.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas = make(map[cacheKey]*schema.Schema)
	r.named = make(map[string]reflect.Type)
	r.aliases = make(map[string]*typedesc.Descriptor)
	r.bound = make(map[reflect.Type]*typedesc.Descriptor)
}
