// Package domain contains the core domain types and validation logic.
// This is part of the Functional Core - all functions are pure with no I/O.
package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// Custom field definition errors
	ErrFieldNameRequired     = errors.New("field name is required")
	ErrFieldNameTooLong      = errors.New("field name must be at most 64 characters")
	ErrFieldNameInvalidChars = errors.New("field name must start with a letter and contain only lowercase letters, digits, and underscores")
	ErrFieldTypeInvalid      = errors.New("invalid field type")
	ErrFieldOptionsRequired  = errors.New("options required for option type")
	ErrFieldOptionsDuplicate = errors.New("duplicate option value")
	ErrFieldOptionEmpty      = errors.New("option values cannot be empty")
	ErrFieldHelpTextTooLong  = errors.New("help text must be at most 500 characters")
	ErrEntityKindInvalid     = errors.New("invalid entity kind")
	ErrTenantRequired        = errors.New("tenant is required")
)

// =============================================================================
// Entity Kinds
// =============================================================================

// EntityKind names the record type a custom field extends.
type EntityKind string

const (
	EntityAsset   EntityKind = "asset"
	EntityBooking EntityKind = "booking"
)

// IsValid checks if the entity kind is known.
func (k EntityKind) IsValid() bool {
	switch k {
	case EntityAsset, EntityBooking:
		return true
	default:
		return false
	}
}

// =============================================================================
// Field Types
// =============================================================================

type FieldType string

const (
	FieldTypeText          FieldType = "text"
	FieldTypeMultilineText FieldType = "multiline_text"
	FieldTypeNumber        FieldType = "number"
	FieldTypeDate          FieldType = "date"
	FieldTypeBoolean       FieldType = "boolean"
	FieldTypeOption        FieldType = "option"
)

// IsValid checks if the field type is valid.
func (ft FieldType) IsValid() bool {
	switch ft {
	case FieldTypeText, FieldTypeMultilineText, FieldTypeNumber,
		FieldTypeDate, FieldTypeBoolean, FieldTypeOption:
		return true
	default:
		return false
	}
}

// Enumerable reports whether values of this type are restricted to Options.
func (ft FieldType) Enumerable() bool {
	return ft == FieldTypeOption
}

// =============================================================================
// CustomField
// =============================================================================

// CustomField is a tenant-defined, typed form field merged into an entity's
// base schema at request time.
type CustomField struct {
	ID         string     `json:"id"`
	TenantID   string     `json:"tenant_id"`
	EntityKind EntityKind `json:"entity_kind"`
	Name       string     `json:"name"`
	HelpText   string     `json:"help_text,omitempty"`
	Required   bool       `json:"required"`
	Type       FieldType  `json:"type"`
	Options    []string   `json:"options,omitempty"`
	Active     bool       `json:"active"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// NewCustomField creates an active custom field definition.
// Returns the first validation error found.
func NewCustomField(tenantID string, kind EntityKind, name string, fieldType FieldType, required bool, options []string, helpText string) (*CustomField, error) {
	now := time.Now().UTC()
	cf := &CustomField{
		ID:         "cf_" + uuid.New().String()[:8],
		TenantID:   tenantID,
		EntityKind: kind,
		Name:       strings.TrimSpace(name),
		HelpText:   SanitizeHelpText(helpText),
		Required:   required,
		Type:       fieldType,
		Options:    normalizeOptions(options),
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if errs := ValidateCustomField(*cf); len(errs) > 0 {
		return nil, errs[0]
	}
	return cf, nil
}

// helpTextPolicy allows the basic inline formatting that forms render
// under an input.
var helpTextPolicy = bluemonday.UGCPolicy()

// SanitizeHelpText strips unsafe markup from help text.
func SanitizeHelpText(s string) string {
	return strings.TrimSpace(helpTextPolicy.Sanitize(s))
}

// Deactivate stops the field from being enforced on new submissions.
// Stored values are kept.
func (cf *CustomField) Deactivate() {
	cf.Active = false
	cf.UpdatedAt = time.Now().UTC()
}

// Update replaces the editable attributes of the definition. Name and
// entity kind never change. The field is left untouched on error.
func (cf *CustomField) Update(fieldType FieldType, required bool, options []string, helpText string) error {
	next := *cf
	next.Type = fieldType
	next.Required = required
	next.Options = normalizeOptions(options)
	next.HelpText = SanitizeHelpText(helpText)
	if errs := ValidateCustomField(next); len(errs) > 0 {
		return errs[0]
	}
	next.UpdatedAt = time.Now().UTC()
	*cf = next
	return nil
}

// Activate re-enables a deactivated field.
func (cf *CustomField) Activate() {
	cf.Active = true
	cf.UpdatedAt = time.Now().UTC()
}

// =============================================================================
// Validation Functions (Pure)
// =============================================================================

var fieldNameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ValidateFieldName validates a custom field name. Names double as form keys.
func ValidateFieldName(name string) error {
	if name == "" {
		return ErrFieldNameRequired
	}
	if len(name) > 64 {
		return ErrFieldNameTooLong
	}
	if !fieldNameRegex.MatchString(name) {
		return ErrFieldNameInvalidChars
	}
	return nil
}

// ValidateFieldOptions validates the option list for a field type.
func ValidateFieldOptions(fieldType FieldType, options []string) error {
	if !fieldType.Enumerable() {
		return nil
	}
	if len(options) == 0 {
		return ErrFieldOptionsRequired
	}
	seen := make(map[string]bool, len(options))
	for _, opt := range options {
		if strings.TrimSpace(opt) == "" {
			return ErrFieldOptionEmpty
		}
		if seen[opt] {
			return ErrFieldOptionsDuplicate
		}
		seen[opt] = true
	}
	return nil
}

// ValidateCustomField validates a definition and returns all validation errors.
func ValidateCustomField(cf CustomField) []error {
	var errs []error

	if cf.TenantID == "" {
		errs = append(errs, ErrTenantRequired)
	}
	if !cf.EntityKind.IsValid() {
		errs = append(errs, ErrEntityKindInvalid)
	}
	if err := ValidateFieldName(cf.Name); err != nil {
		errs = append(errs, err)
	}
	if !cf.Type.IsValid() {
		errs = append(errs, ErrFieldTypeInvalid)
	} else if err := ValidateFieldOptions(cf.Type, cf.Options); err != nil {
		errs = append(errs, err)
	}
	if len(cf.HelpText) > 500 {
		errs = append(errs, ErrFieldHelpTextTooLong)
	}

	return errs
}

// ActiveOnly returns the active definitions, preserving order.
func ActiveOnly(fields []CustomField) []CustomField {
	out := make([]CustomField, 0, len(fields))
	for _, f := range fields {
		if f.Active {
			out = append(out, f)
		}
	}
	return out
}

func normalizeOptions(options []string) []string {
	if len(options) == 0 {
		return nil
	}
	out := make([]string, 0, len(options))
	for _, opt := range options {
		out = append(out, strings.TrimSpace(opt))
	}
	return out
}
