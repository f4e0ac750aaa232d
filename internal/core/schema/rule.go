package schema

// =============================================================================
// Rule Kinds
// =============================================================================

// Kind is the value shape a rule demands and coerces to.
type Kind string

const (
	KindText          Kind = "text"           // trimmed string
	KindMultilineText Kind = "multiline_text" // trimmed string, newlines kept
	KindNumber        Kind = "number"         // float64
	KindDate          Kind = "date"           // time.Time
	KindBoolean       Kind = "boolean"        // bool, absent means false
	KindOption        Kind = "option"         // one of Options
	KindTags          Kind = "tags"           // []string, deduplicated
	KindReference     Kind = "reference"      // ID of another record
)

// IsValid checks if the kind is known.
func (k Kind) IsValid() bool {
	switch k {
	case KindText, KindMultilineText, KindNumber, KindDate,
		KindBoolean, KindOption, KindTags, KindReference:
		return true
	default:
		return false
	}
}

// Source tells where a rule came from.
type Source string

const (
	SourceBase   Source = "base"
	SourceCustom Source = "custom"
)

// =============================================================================
// Rule
// =============================================================================

// Rule describes how one form field is validated and coerced.
type Rule struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Kind     Kind     `json:"kind"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
	HelpText string   `json:"help_text,omitempty"`

	// Constraint is a go-playground/validator tag applied to the coerced
	// value, e.g. "max=255" or "gte=0".
	Constraint string `json:"constraint,omitempty"`

	// References names the entity a KindReference rule points to.
	References string `json:"references,omitempty"`

	Source Source `json:"source"`
}

// =============================================================================
// Rule builder helpers
// =============================================================================

func TextField(name, label string) Rule {
	return Rule{Name: name, Label: label, Kind: KindText, Source: SourceBase}
}

func MultilineField(name, label string) Rule {
	return Rule{Name: name, Label: label, Kind: KindMultilineText, Source: SourceBase}
}

func NumberField(name, label string) Rule {
	return Rule{Name: name, Label: label, Kind: KindNumber, Source: SourceBase}
}

func DateField(name, label string) Rule {
	return Rule{Name: name, Label: label, Kind: KindDate, Source: SourceBase}
}

func BooleanField(name, label string) Rule {
	return Rule{Name: name, Label: label, Kind: KindBoolean, Source: SourceBase}
}

func TagsField(name, label string) Rule {
	return Rule{Name: name, Label: label, Kind: KindTags, Source: SourceBase}
}

func ReferenceField(name, label, entity string) Rule {
	return Rule{Name: name, Label: label, Kind: KindReference, References: entity, Source: SourceBase}
}

// WithRequired returns a copy of the rule with Required=true.
func (r Rule) WithRequired() Rule { r.Required = true; return r }

// WithConstraint returns a copy of the rule with a validator tag.
func (r Rule) WithConstraint(tag string) Rule { r.Constraint = tag; return r }
