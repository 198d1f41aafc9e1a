package derive

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cast"

	"github.com/structschema/structschema/fields"
	"github.com/structschema/structschema/schema"
	"github.com/structschema/structschema/typedesc"
)

// TagName is the struct tag the extractor reads field metadata from.
const TagName = "schema"

// tagOptions is the parsed form of one schema struct tag.
type tagOptions struct {
	dataKey    string
	skip       bool
	required   *bool
	allowNil   *bool
	defaultRaw string
	hasDefault bool
	typeExpr   string
	oneOf      []string
	enumName   string
}

func parseTag(tag string) (*tagOptions, error) {
	out := &tagOptions{}
	if tag == "" {
		return out, nil
	}

	parts := strings.Split(tag, ",")
	out.dataKey = strings.TrimSpace(parts[0])
	if out.dataKey == "-" {
		out.skip = true
		return out, nil
	}

	for _, part := range parts[1:] {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, hasValue := strings.Cut(part, "=")
		switch key {
		case "required":
			out.required = boolPtr(true)
		case "notrequired":
			out.required = boolPtr(false)
		case "allownil":
			out.allowNil = boolPtr(true)
		case "default":
			if !hasValue {
				return nil, fmt.Errorf("default option needs a value")
			}
			out.defaultRaw = value
			out.hasDefault = true
		case "type":
			if !hasValue {
				return nil, fmt.Errorf("type option needs a value")
			}
			out.typeExpr = value
		case "oneof":
			if !hasValue {
				return nil, fmt.Errorf("oneof option needs a value")
			}
			out.oneOf = strings.Split(value, "|")
		case "enum":
			if !hasValue {
				return nil, fmt.Errorf("enum option needs a value")
			}
			out.enumName = value
		default:
			return nil, fmt.Errorf("unknown tag option %q", key)
		}
	}
	return out, nil
}

func boolPtr(b bool) *bool { return &b }

// extract produces the finished field spec for one declared field. It merges
// the three metadata sources with fixed precedence, highest first:
// programmatic per-field options, the struct tag, and alias-attached
// metadata; defaults derived from the type shape fill whatever remains.
func (c *deriveContext) extract(field reflect.StructField, path fieldPath) (*schema.FieldSpec, error) {
	tag, err := parseTag(field.Tag.Get(TagName))
	if err != nil {
		return nil, fmt.Errorf("field %s.%s: %w", path.typeName, path.fieldName, err)
	}
	if tag.skip {
		return nil, nil
	}

	desc, err := c.resolveFieldType(field, tag, path)
	if err != nil {
		return nil, err
	}

	aliasCap, aliasBlocks, aliasRules := aliasMetadata(desc)

	tagBlock, err := tagFieldOpts(tag, desc, path)
	if err != nil {
		return nil, err
	}

	blocks := make([]*schema.FieldOpts, 0, 2+len(aliasBlocks))
	blocks = append(blocks, c.cfg.Fields[field.Name], tagBlock)
	blocks = append(blocks, aliasBlocks...)
	effective := schema.Merge(blocks...)

	// Reject an ambiguous default before any field mapping happens.
	if effective.HasDefault && effective.DefaultFactory != nil {
		return nil, &schema.AmbiguousDefaultError{TypeName: path.typeName, FieldName: path.fieldName}
	}

	nullable := desc.IsNullable()
	hasDefault := effective.HasDefault || effective.DefaultFactory != nil

	spec := &schema.FieldSpec{
		Name:           field.Name,
		Desc:           desc,
		HasDefault:     effective.HasDefault,
		Default:        effective.Default,
		DefaultFactory: effective.DefaultFactory,
	}
	if effective.DefaultFactory != nil {
		spec.HasDefault = true
	}

	if effective.Required != nil {
		spec.Required = *effective.Required
	} else {
		spec.Required = !hasDefault && !nullable
	}
	if effective.AllowNil != nil {
		spec.AllowNil = *effective.AllowNil
	} else {
		spec.AllowNil = nullable
	}

	spec.DataKey = effective.DataKey
	if spec.DataKey == "" {
		spec.DataKey = field.Name
	}
	if c.cfg.Options.KeyFunc != nil {
		spec.DataKey = c.cfg.Options.KeyFunc(spec.DataKey)
	}

	// An explicit per-field capability beats an alias-attached one; either
	// bypasses type mapping entirely.
	capability := effective.Capability
	if capability == nil {
		capability = aliasCap
	}
	if capability == nil {
		capability, err = c.mapDescriptor(desc, path)
		if err != nil {
			return nil, err
		}
	}

	rules := append(append([]fields.ValidateFunc{}, effective.Validate...), aliasRules...)
	if len(rules) > 0 {
		capability = &fields.Validated{Inner: capability, Rules: rules}
	}
	spec.Capability = capability

	return spec, nil
}

// resolveFieldType settles a field's canonical descriptor from its declared
// Go type and any tag-level type override. Pointer declarations stay
// nullable even when a tag expression overrides the type.
func (c *deriveContext) resolveFieldType(field reflect.StructField, tag *tagOptions, path fieldPath) (*typedesc.Descriptor, error) {
	declaredNullable := field.Type.Kind() == reflect.Ptr

	var (
		desc *typedesc.Descriptor
		err  error
	)
	switch {
	case tag.typeExpr != "":
		desc, err = c.resolveExpr(tag.typeExpr, path)
	case len(tag.oneOf) > 0:
		values := make([]any, len(tag.oneOf))
		for i, v := range tag.oneOf {
			values[i] = v
		}
		desc = typedesc.Literal(values...)
	case tag.enumName != "":
		desc, err = c.resolveName(tag.enumName, path, 0)
	default:
		desc, err = c.resolveReflect(field.Type, path, 0)
	}
	if err != nil {
		return nil, err
	}
	if declaredNullable && !desc.Nullable {
		desc = desc.MakeNullable()
	}
	return desc, nil
}

// tagFieldOpts converts parsed tag options into a metadata block, parsing
// the default literal against the resolved type eagerly so a bad literal
// fails at derivation time.
func tagFieldOpts(tag *tagOptions, desc *typedesc.Descriptor, path fieldPath) (*schema.FieldOpts, error) {
	block := &schema.FieldOpts{
		DataKey:  tag.dataKey,
		Required: tag.required,
		AllowNil: tag.allowNil,
	}
	if tag.hasDefault {
		value, err := parseDefaultLiteral(tag.defaultRaw, desc)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: invalid default %q: %w", path.typeName, path.fieldName, tag.defaultRaw, err)
		}
		block.Default = value
		block.HasDefault = true
	}
	return block, nil
}

// parseDefaultLiteral interprets a tag default literal in terms of the
// field's resolved type.
func parseDefaultLiteral(raw string, desc *typedesc.Descriptor) (any, error) {
	inner := desc.Inner()
	switch inner.Kind {
	case typedesc.KindPrimitive:
		switch inner.Name {
		case "string", "any":
			return raw, nil
		case "int":
			n, err := cast.ToInt64E(raw)
			return n, err
		case "float":
			f, err := cast.ToFloat64E(raw)
			return f, err
		case "bool":
			b, err := cast.ToBoolE(raw)
			return b, err
		case "time":
			t, err := cast.ToTimeE(raw)
			return t, err
		case "uuid":
			id, err := uuid.Parse(raw)
			return id, err
		}
	case typedesc.KindEnum, typedesc.KindLiteral:
		choice := &fields.Choice{Name: inner.Name, Values: inner.Values}
		return choice.Load(raw)
	case typedesc.KindUnion:
		for _, m := range inner.Args {
			if v, err := parseDefaultLiteral(raw, m); err == nil {
				return v, nil
			}
		}
		return nil, fmt.Errorf("no union member accepts the literal")
	}
	return nil, fmt.Errorf("default literals are not supported for %s types", inner.Kind)
}

// aliasMetadata collects metadata attached to an annotated type alias. The
// first annotation entry behaving as a ready-made capability wins over later
// ones; option blocks keep their declared order (earlier entries take
// precedence); validation rules accumulate.
func aliasMetadata(desc *typedesc.Descriptor) (fields.Field, []*schema.FieldOpts, []fields.ValidateFunc) {
	var (
		capability fields.Field
		blocks     []*schema.FieldOpts
		rules      []fields.ValidateFunc
	)
	for d := desc; d != nil && d.Kind == typedesc.KindAnnotated; d = d.Elem {
		for _, meta := range d.Meta {
			switch m := meta.(type) {
			case fields.Field:
				if capability == nil {
					capability = m
				}
			case fields.Factory:
				if capability == nil {
					capability = m()
				}
			case *schema.FieldOpts:
				blocks = append(blocks, m)
			case schema.FieldOpts:
				block := m
				blocks = append(blocks, &block)
			case fields.ValidateFunc:
				rules = append(rules, m)
			case func(any) error:
				rules = append(rules, m)
			}
		}
	}
	return capability, blocks, rules
}
