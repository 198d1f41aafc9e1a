package derive

import (
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/structschema/structschema/schema"
	"github.com/structschema/structschema/typedesc"
)

var (
	timeType = reflect.TypeOf(time.Time{})
	uuidType = reflect.TypeOf(uuid.UUID{})
	anyType  = reflect.TypeOf((*any)(nil)).Elem()
)

// maxResolveDepth bounds alias and descriptor nesting so a self-referential
// alias chain fails instead of recursing forever.
const maxResolveDepth = 64

// fieldPath locates the declaration an error belongs to.
type fieldPath struct {
	typeName  string
	fieldName string
}

// resolveReflect normalizes a Go type into a canonical descriptor. Pointer
// wrappers become nullability, named collection aliases normalize to the
// same container kind as their unnamed forms, and types bound through the
// registry resolve to their bound descriptors first.
func (c *deriveContext) resolveReflect(t reflect.Type, path fieldPath, depth int) (*typedesc.Descriptor, error) {
	if depth > maxResolveDepth {
		return nil, fmt.Errorf("type nesting exceeds %d levels at %s.%s", maxResolveDepth, path.typeName, path.fieldName)
	}

	if bound, ok := c.reg.lookupBound(t); ok {
		return c.resolveDescriptor(bound, path, depth+1)
	}

	switch t {
	case timeType:
		return typedesc.Time, nil
	case uuidType:
		return typedesc.UUID, nil
	}

	switch t.Kind() {
	case reflect.Ptr:
		inner, err := c.resolveReflect(t.Elem(), path, depth+1)
		if err != nil {
			return nil, err
		}
		return inner.MakeNullable(), nil

	case reflect.String:
		return typedesc.String, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return typedesc.Int, nil

	case reflect.Float32, reflect.Float64:
		return typedesc.Float, nil

	case reflect.Bool:
		return typedesc.Bool, nil

	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return typedesc.Bytes, nil
		}
		elem, err := c.resolveReflect(t.Elem(), path, depth+1)
		if err != nil {
			return nil, err
		}
		return typedesc.ListOf(elem), nil

	case reflect.Map:
		key, err := c.resolveReflect(t.Key(), path, depth+1)
		if err != nil {
			return nil, err
		}
		value, err := c.resolveReflect(t.Elem(), path, depth+1)
		if err != nil {
			return nil, err
		}
		return typedesc.MapOf(key, value), nil

	case reflect.Struct:
		return typedesc.Structured(t), nil

	case reflect.Interface:
		if t == anyType || t.NumMethod() == 0 {
			return typedesc.Any, nil
		}
	}

	if c.cfg.Options.OpaqueFallback {
		return typedesc.Any, nil
	}
	return nil, &schema.UnsupportedTypeError{
		Type:      t.String(),
		TypeName:  path.typeName,
		FieldName: path.fieldName,
	}
}

// resolveExpr parses and resolves a tag type expression.
func (c *deriveContext) resolveExpr(expr string, path fieldPath) (*typedesc.Descriptor, error) {
	parsed, err := parseTypeExpr(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid type expression %q at %s.%s: %w", expr, path.typeName, path.fieldName, err)
	}
	return c.resolveDescriptor(parsed, path, 0)
}

// resolveDescriptor normalizes a constructed descriptor: generic parameters
// substitute from the binding, forward references resolve against the
// registry at this point (not eagerly), aliases unwrap recursively, and
// union members resolve in declared order.
func (c *deriveContext) resolveDescriptor(d *typedesc.Descriptor, path fieldPath, depth int) (*typedesc.Descriptor, error) {
	if depth > maxResolveDepth {
		return nil, fmt.Errorf("type alias nesting exceeds %d levels at %s.%s", maxResolveDepth, path.typeName, path.fieldName)
	}
	if d == nil {
		return nil, fmt.Errorf("nil type descriptor at %s.%s", path.typeName, path.fieldName)
	}

	switch d.Kind {
	case typedesc.KindParam:
		bound, ok := c.cfg.Binding.Lookup(d.Name)
		if !ok {
			return nil, &typedesc.UnboundTypeParameterError{
				Param:     d.Name,
				TypeName:  path.typeName,
				FieldName: path.fieldName,
			}
		}
		resolved, err := c.resolveDescriptor(bound, path, depth+1)
		if err != nil {
			return nil, err
		}
		if d.Nullable {
			resolved = resolved.MakeNullable()
		}
		return resolved, nil

	case typedesc.KindNamed:
		resolved, err := c.resolveName(d.Name, path, depth)
		if err != nil {
			return nil, err
		}
		if d.Nullable {
			resolved = resolved.MakeNullable()
		}
		return resolved, nil

	case typedesc.KindAnnotated:
		inner, err := c.resolveDescriptor(d.Elem, path, depth+1)
		if err != nil {
			return nil, err
		}
		out := &typedesc.Descriptor{
			Kind:     typedesc.KindAnnotated,
			Elem:     inner,
			Meta:     d.Meta,
			Nullable: d.Nullable || inner.Nullable,
		}
		return out, nil

	case typedesc.KindUnion:
		members := make([]*typedesc.Descriptor, 0, len(d.Args))
		nullable := d.Nullable
		for _, m := range d.Args {
			resolved, err := c.resolveDescriptor(m, path, depth+1)
			if err != nil {
				return nil, err
			}
			if resolved.Kind == typedesc.KindAbsent {
				nullable = true
				continue
			}
			members = append(members, resolved)
		}
		u := typedesc.UnionOf(members...)
		if nullable {
			u = u.MakeNullable()
		}
		return u, nil

	case typedesc.KindContainer:
		args := make([]*typedesc.Descriptor, len(d.Args))
		for i, a := range d.Args {
			resolved, err := c.resolveDescriptor(a, path, depth+1)
			if err != nil {
				return nil, err
			}
			args[i] = resolved
		}
		return &typedesc.Descriptor{
			Kind:     typedesc.KindContainer,
			Name:     d.Name,
			Args:     args,
			Nullable: d.Nullable,
		}, nil
	}

	return d, nil
}

// resolveName looks a forward reference up: aliases first, then registered
// structured types. Resolution happens at first need; a name that still
// cannot be resolved is an UnresolvedReferenceError.
func (c *deriveContext) resolveName(name string, path fieldPath, depth int) (*typedesc.Descriptor, error) {
	if alias, ok := c.reg.lookupAlias(name); ok {
		c.log().Debug("resolved alias",
			zap.String("alias", name),
			zap.String("type", path.typeName),
			zap.String("field", path.fieldName))
		return c.resolveDescriptor(alias, path, depth+1)
	}
	if t, ok := c.reg.lookupNamed(name); ok {
		return typedesc.Structured(t), nil
	}
	return nil, &typedesc.UnresolvedReferenceError{
		Ref:       name,
		TypeName:  path.typeName,
		FieldName: path.fieldName,
	}
}

// parseTypeExpr builds an unresolved descriptor from a tag type expression.
//
// Grammar:
//
//	expr := atom ('|' atom)*
//	atom := '[]' atom | 'map[' atom ']' atom | name '?'?
//
// where name is a primitive, "none", a single-uppercase-letter generic
// parameter, or a registered alias/type name (left as a forward reference).
func parseTypeExpr(expr string) (*typedesc.Descriptor, error) {
	parts, err := splitUnion(expr)
	if err != nil {
		return nil, err
	}
	if len(parts) == 1 {
		return parseAtom(strings.TrimSpace(parts[0]))
	}

	members := make([]*typedesc.Descriptor, 0, len(parts))
	for _, p := range parts {
		m, err := parseAtom(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	// Preserve declared order; folding of absent members happens during
	// resolution so metadata defaults can see the nullable shape.
	return &typedesc.Descriptor{Kind: typedesc.KindUnion, Args: members}, nil
}

// splitUnion splits on top-level '|', respecting map bracket nesting.
func splitUnion(expr string) ([]string, error) {
	var parts []string
	depth := 0
	start := 0
	for i, r := range expr {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced brackets")
			}
		case '|':
			if depth == 0 {
				parts = append(parts, expr[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced brackets")
	}
	parts = append(parts, expr[start:])
	if len(parts) == 1 && strings.TrimSpace(parts[0]) == "" {
		return nil, fmt.Errorf("empty type expression")
	}
	return parts, nil
}

func parseAtom(s string) (*typedesc.Descriptor, error) {
	if s == "" {
		return nil, fmt.Errorf("empty type atom")
	}

	switch {
	case strings.HasPrefix(s, "[]"):
		elem, err := parseAtom(s[2:])
		if err != nil {
			return nil, err
		}
		return typedesc.ListOf(elem), nil

	case strings.HasPrefix(s, "map["):
		keyEnd, err := matchBracket(s, len("map[")-1)
		if err != nil {
			return nil, err
		}
		key, err := parseAtom(s[len("map["):keyEnd])
		if err != nil {
			return nil, err
		}
		value, err := parseAtom(s[keyEnd+1:])
		if err != nil {
			return nil, err
		}
		return typedesc.MapOf(key, value), nil
	}

	// The '?' suffix binds to a name, never to a container prefix, so
	// "[]int?" is a list of nullable ints.
	nullable := strings.HasSuffix(s, "?")
	s = strings.TrimSuffix(s, "?")

	var d *typedesc.Descriptor
	switch {
	case s == "none":
		d = typedesc.None
	case !isIdentifier(s):
		return nil, fmt.Errorf("invalid type name %q", s)
	default:
		if p := typedesc.Primitive(s); p != nil {
			d = p
		} else if isParamName(s) {
			d = typedesc.Param(s)
		} else {
			d = typedesc.Named(s)
		}
	}

	if nullable {
		d = d.MakeNullable()
	}
	return d, nil
}

// matchBracket returns the index of the ']' matching the '[' at open.
func matchBracket(s string, open int) (int, error) {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("unbalanced brackets in %q", s)
}

// isParamName reports whether a name denotes a generic type parameter. By
// convention parameters are single uppercase letters (T, U, K, V).
func isParamName(s string) bool {
	r, size := utf8.DecodeRuneInString(s)
	return size == len(s) && unicode.IsUpper(r)
}

func isIdentifier(s string) bool {
	for i, r := range s {
		if unicode.IsLetter(r) || r == '_' || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return s != ""
}
