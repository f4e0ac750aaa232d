package schema

import (
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// ToOpenAPI renders the schema as an OpenAPI 3 object schema describing the
// form submission.
func ToOpenAPI(s MergedSchema) *openapi3.Schema {
	out := &openapi3.Schema{
		Type:       &openapi3.Types{"object"},
		Title:      string(s.Entity),
		Properties: make(openapi3.Schemas, len(s.Rules)),
	}

	for _, r := range s.Rules {
		out.Properties[r.Name] = &openapi3.SchemaRef{Value: ruleToOpenAPI(r)}
		if r.Required {
			out.Required = append(out.Required, r.Name)
		}
	}

	return out
}

func ruleToOpenAPI(r Rule) *openapi3.Schema {
	var prop *openapi3.Schema

	switch r.Kind {
	case KindNumber:
		prop = &openapi3.Schema{Type: &openapi3.Types{"number"}}
	case KindDate:
		prop = &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "date"}
	case KindBoolean:
		prop = &openapi3.Schema{Type: &openapi3.Types{"boolean"}, Default: false}
	case KindOption:
		prop = &openapi3.Schema{Type: &openapi3.Types{"string"}}
		for _, opt := range r.Options {
			prop.Enum = append(prop.Enum, opt)
		}
	case KindTags:
		prop = &openapi3.Schema{
			Type:  &openapi3.Types{"array"},
			Items: &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}},
		}
	default:
		prop = &openapi3.Schema{Type: &openapi3.Types{"string"}}
	}

	prop.Title = r.Label
	prop.Description = r.HelpText
	if r.Kind == KindReference {
		prop.Extensions = map[string]any{"x-references": r.References}
	}
	applyConstraint(prop, r)

	return prop
}

// applyConstraint maps the top-level bounds of a validator tag onto the
// OpenAPI schema. Tags after "dive" apply to elements and are ignored.
func applyConstraint(prop *openapi3.Schema, r Rule) {
	if r.Constraint == "" {
		return
	}

	for _, part := range strings.Split(r.Constraint, ",") {
		if part == "dive" {
			return
		}
		key, param, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		n, err := strconv.ParseFloat(param, 64)
		if err != nil {
			continue
		}

		switch {
		case r.Kind == KindNumber && (key == "gte" || key == "min"):
			prop.Min = openapi3.Float64Ptr(n)
		case r.Kind == KindNumber && (key == "lte" || key == "max"):
			prop.Max = openapi3.Float64Ptr(n)
		case r.Kind == KindTags && key == "max":
			prop.MaxItems = openapi3.Uint64Ptr(uint64(n))
		case r.Kind == KindTags && key == "min":
			prop.MinItems = uint64(n)
		case key == "max":
			prop.MaxLength = openapi3.Uint64Ptr(uint64(n))
		case key == "min":
			prop.MinLength = uint64(n)
		}
	}
}
