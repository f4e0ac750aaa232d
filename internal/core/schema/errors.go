package schema

import (
	"errors"
	"fmt"
)

// ErrSchemaConfiguration is wrapped by every ConfigurationError.
var ErrSchemaConfiguration = errors.New("schema configuration error")

// ConfigurationError reports a malformed or contradictory field definition.
// It is operator-facing and never shown to the person filling in the form.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("schema configuration error: field %q: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrSchemaConfiguration
}

func configErr(field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
