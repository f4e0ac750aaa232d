package api

import "github.com/artpar/assetdesk/internal/core/validation"

// =============================================================================
// Request Types
// =============================================================================

// CreateCustomFieldRequest is the request body for creating a custom field.
type CreateCustomFieldRequest struct {
	EntityKind string   `json:"entity_kind"`
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Required   bool     `json:"required"`
	Options    []string `json:"options,omitempty"`
	HelpText   string   `json:"help_text,omitempty"`
}

// UpdateCustomFieldRequest is the request body for updating a custom field.
// Name and entity kind are immutable; nil fields are left unchanged.
type UpdateCustomFieldRequest struct {
	Type     *string  `json:"type,omitempty"`
	Required *bool    `json:"required,omitempty"`
	Options  []string `json:"options,omitempty"`
	HelpText *string  `json:"help_text,omitempty"`
	Active   *bool    `json:"active,omitempty"`
}

// CreateCategoryRequest is the request body for creating a category.
type CreateCategoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// CreateLocationRequest is the request body for creating a location.
type CreateLocationRequest struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

// =============================================================================
// Response Types
// =============================================================================

// ListResponse is the envelope of every collection endpoint.
type ListResponse[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func newListResponse[T any](items []T, limit, offset int) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Total: len(items), Limit: limit, Offset: offset}
}

// ValidationErrorResponse is returned with 422 when a submission fails.
// Values echoes the raw submission so a client can re-display the form.
type ValidationErrorResponse struct {
	Errors validation.FieldErrors `json:"errors"`
	Values map[string][]string    `json:"values"`
}

// ConflictResponse is returned with 409 when a booking's assets are held
// by another booking.
type ConflictResponse struct {
	Error    string   `json:"error"`
	Code     string   `json:"code"`
	AssetIDs []string `json:"asset_ids"`
}

// ErrorResponse is the error response format.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse is the readiness check response.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

