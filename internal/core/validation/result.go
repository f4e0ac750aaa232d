package validation

import (
	"maps"
	"sort"
	"strings"
)

// FieldErrors maps a form key to a human-readable message.
type FieldErrors map[string]string

// Error implements error with the messages in key order.
func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Result is the outcome of validating one submission. It is either valid,
// with typed Data, or invalid, with Errors. Never both.
type Result struct {
	Data   map[string]any `json:"data,omitempty"`
	Errors FieldErrors    `json:"errors,omitempty"`
}

// Valid returns a successful result holding the coerced values.
func Valid(data map[string]any) Result {
	if data == nil {
		data = map[string]any{}
	}
	return Result{Data: data}
}

// Invalid returns a failed result holding the field errors.
func Invalid(errs FieldErrors) Result {
	return Result{Errors: errs}
}

// IsValid reports whether no field failed.
func (r Result) IsValid() bool {
	return len(r.Errors) == 0
}

// Err returns the field errors as an error, or nil when valid.
func (r Result) Err() error {
	if r.IsValid() {
		return nil
	}
	return r.Errors
}

// WithError returns a copy of the result with an extra field error.
// Any data is dropped. An existing message for the field is kept.
func (r Result) WithError(field, message string) Result {
	errs := make(FieldErrors, len(r.Errors)+1)
	maps.Copy(errs, r.Errors)
	if _, exists := errs[field]; !exists {
		errs[field] = message
	}
	return Invalid(errs)
}

// WithFileError folds a file validation error into the result.
// A nil error leaves the result unchanged.
func (r Result) WithFileError(fe *FileValidationError) Result {
	if fe == nil {
		return r
	}
	return r.WithError(fe.Field, fe.Message)
}
