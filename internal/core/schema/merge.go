package schema

import (
	"github.com/artpar/assetdesk/internal/core/domain"
)

// MergedSchema is the base field set plus one rule per active custom field.
// Base rules come first, then custom rules in definition order.
type MergedSchema struct {
	Entity domain.EntityKind `json:"entity"`
	Rules  []Rule            `json:"rules"`
}

// Lookup returns the rule for a field name.
func (s MergedSchema) Lookup(name string) (Rule, bool) {
	for _, r := range s.Rules {
		if r.Name == name {
			return r, true
		}
	}
	return Rule{}, false
}

// CustomFieldNames returns the names of the custom rules, in order.
func (s MergedSchema) CustomFieldNames() []string {
	var names []string
	for _, r := range s.Rules {
		if r.Source == SourceCustom {
			names = append(names, r.Name)
		}
	}
	return names
}

// Merge combines a base field set with custom field definitions.
//
// Inactive definitions and definitions of another entity kind are skipped.
// A definition with an empty name, an unknown type, an option type without
// options, a name used twice, or a name that collides with a base or
// reserved field fails the whole merge with a *ConfigurationError.
//
// Merge is pure: the inputs are not modified and the same inputs always
// produce an equal schema.
func Merge(base BaseFieldSet, custom []domain.CustomField) (MergedSchema, error) {
	rules := make([]Rule, 0, len(base.Rules)+len(custom))
	rules = append(rules, base.Rules...)

	seen := make(map[string]bool, len(custom))
	for _, cf := range domain.ActiveOnly(custom) {
		if cf.EntityKind != "" && cf.EntityKind != base.Entity {
			continue
		}

		if cf.Name == "" {
			return MergedSchema{}, configErr(cf.ID, "custom field has no name")
		}
		if base.Reserved(cf.Name) {
			return MergedSchema{}, configErr(cf.Name, "name collides with a base field of %s", base.Entity)
		}
		if seen[cf.Name] {
			return MergedSchema{}, configErr(cf.Name, "name is defined more than once")
		}
		seen[cf.Name] = true

		rule, err := ruleFor(cf)
		if err != nil {
			return MergedSchema{}, err
		}
		rules = append(rules, rule)
	}

	return MergedSchema{Entity: base.Entity, Rules: rules}, nil
}

// ruleFor derives the validation rule of one custom field definition.
func ruleFor(cf domain.CustomField) (Rule, error) {
	rule := Rule{
		Name:     cf.Name,
		Label:    domain.Humanize(cf.Name),
		Required: cf.Required,
		HelpText: cf.HelpText,
		Source:   SourceCustom,
	}

	switch cf.Type {
	case domain.FieldTypeText:
		rule.Kind = KindText
	case domain.FieldTypeMultilineText:
		rule.Kind = KindMultilineText
	case domain.FieldTypeNumber:
		rule.Kind = KindNumber
	case domain.FieldTypeDate:
		rule.Kind = KindDate
	case domain.FieldTypeBoolean:
		rule.Kind = KindBoolean
	case domain.FieldTypeOption:
		if len(cf.Options) == 0 {
			return Rule{}, configErr(cf.Name, "option field has no options")
		}
		rule.Kind = KindOption
		rule.Options = append([]string(nil), cf.Options...)
	default:
		return Rule{}, configErr(cf.Name, "unknown field type %q", cf.Type)
	}

	return rule, nil
}
