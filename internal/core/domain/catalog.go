package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Catalog Errors
// =============================================================================

var (
	ErrNameRequired = errors.New("name is required")
	ErrNameTooLong  = errors.New("name must be at most 100 characters")
)

// =============================================================================
// Category and Location
// =============================================================================

// Category groups assets for filtering and reporting.
type Category struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Location is a physical place where assets are kept.
type Location struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewCategory creates a category with the given name.
func NewCategory(tenantID, name, color string) (*Category, error) {
	name = strings.TrimSpace(name)
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if tenantID == "" {
		return nil, ErrTenantRequired
	}
	return &Category{
		ID:        "cat_" + uuid.New().String()[:8],
		TenantID:  tenantID,
		Name:      name,
		Color:     strings.TrimSpace(color),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// NewLocation creates a location with the given name.
func NewLocation(tenantID, name, address string) (*Location, error) {
	name = strings.TrimSpace(name)
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if tenantID == "" {
		return nil, ErrTenantRequired
	}
	return &Location{
		ID:        "loc_" + uuid.New().String()[:8],
		TenantID:  tenantID,
		Name:      name,
		Address:   strings.TrimSpace(address),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// ValidateName validates a category or location name.
func ValidateName(name string) error {
	if name == "" {
		return ErrNameRequired
	}
	if len(name) > 100 {
		return ErrNameTooLong
	}
	return nil
}
