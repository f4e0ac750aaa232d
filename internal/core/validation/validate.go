package validation

import (
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/artpar/assetdesk/internal/core/schema"
)

// validate checks rule constraints. Safe for concurrent use.
var validate = validator.New()

// DateLayouts are the accepted date formats, tried in order.
var DateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04",
	time.RFC3339,
}

var (
	truthy = []string{"true", "on", "yes", "1"}
	falsy  = []string{"false", "off", "no", "0"}
)

// Validate applies every rule of the schema to the raw form values and
// collects all field errors in one pass. Fields absent from raw are treated
// as empty. raw is never modified.
//
// On success the data holds coerced values: float64 for numbers, time.Time
// for dates, bool for booleans, []string for tags and trimmed strings for
// everything else. Optional fields left empty are omitted, except booleans
// which default to false.
func Validate(s schema.MergedSchema, raw map[string][]string) Result {
	data := make(map[string]any, len(s.Rules))
	errs := make(FieldErrors)

	for _, rule := range s.Rules {
		value, present, msg := coerce(rule, raw[rule.Name])
		if msg != "" {
			errs[rule.Name] = msg
			continue
		}
		if !present {
			continue
		}
		if rule.Constraint != "" {
			if msg := checkConstraint(rule, value); msg != "" {
				errs[rule.Name] = msg
				continue
			}
		}
		data[rule.Name] = value
	}

	if len(errs) > 0 {
		return Invalid(errs)
	}
	return Valid(data)
}

// coerce converts the raw values of one field. present is false when an
// optional field was left empty and should be omitted from the data.
func coerce(rule schema.Rule, values []string) (value any, present bool, msg string) {
	if rule.Kind == schema.KindTags {
		tags := splitTags(values)
		if len(tags) == 0 {
			if rule.Required {
				return nil, false, rule.Label + " is required"
			}
			return nil, false, ""
		}
		return tags, true, ""
	}

	s := firstValue(values, rule.Kind == schema.KindMultilineText)
	if s == "" {
		switch {
		case rule.Required:
			return nil, false, rule.Label + " is required"
		case rule.Kind == schema.KindBoolean:
			return false, true, ""
		default:
			return nil, false, ""
		}
	}

	switch rule.Kind {
	case schema.KindNumber:
		n, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, false, rule.Label + " must be a number"
		}
		return n, true, ""

	case schema.KindDate:
		d, ok := parseDate(s)
		if !ok {
			return nil, false, rule.Label + " must be a valid date"
		}
		return d, true, ""

	case schema.KindBoolean:
		b, ok := parseBool(s)
		if !ok {
			return nil, false, rule.Label + " must be true or false"
		}
		return b, true, ""

	case schema.KindOption:
		if !slices.Contains(rule.Options, s) {
			return nil, false, rule.Label + " must be one of: " + strings.Join(rule.Options, ", ")
		}
		return s, true, ""

	default:
		return s, true, ""
	}
}

// firstValue returns the first non-blank value, trimmed. Multiline values
// keep their inner line breaks with CRLF normalized to LF.
func firstValue(values []string, multiline bool) string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if multiline {
			v = strings.ReplaceAll(v, "\r\n", "\n")
		}
		return v
	}
	return ""
}

// splitTags accepts repeated values, comma-separated values, or both.
// Tags are trimmed and deduplicated, keeping first-seen order.
func splitTags(values []string) []string {
	var tags []string
	seen := make(map[string]bool)
	for _, v := range values {
		for _, tag := range strings.Split(v, ",") {
			tag = strings.TrimSpace(tag)
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	return tags
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range DateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

func parseBool(s string) (bool, bool) {
	s = strings.ToLower(s)
	switch {
	case slices.Contains(truthy, s):
		return true, true
	case slices.Contains(falsy, s):
		return false, true
	default:
		return false, false
	}
}

// checkConstraint runs the rule's validator tag against the coerced value
// and returns a message for the first violation.
func checkConstraint(rule schema.Rule, value any) string {
	err := validate.Var(value, rule.Constraint)
	if err == nil {
		return ""
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return rule.Label + " is invalid"
	}
	return constraintMessage(rule, verrs[0])
}

func constraintMessage(rule schema.Rule, fe validator.FieldError) string {
	label := rule.Label
	if rule.Kind == schema.KindTags && fe.Kind() == reflect.String {
		label = "Each entry in " + strings.ToLower(label[:1]) + label[1:]
	}

	var bound string
	switch fe.Tag() {
	case "max", "lte":
		bound = "at most "
	case "min", "gte":
		bound = "at least "
	case "lt":
		bound = "less than "
	case "gt":
		bound = "greater than "
	default:
		return label + " is invalid"
	}

	switch fe.Kind() {
	case reflect.String:
		return label + " must be " + bound + fe.Param() + " characters"
	case reflect.Slice:
		return label + " must have " + bound + fe.Param() + " entries"
	default:
		return label + " must be " + bound + fe.Param()
	}
}
