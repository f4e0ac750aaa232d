// Package store provides persistence for assetdesk entities.
package store

import (
	"context"

	"github.com/artpar/assetdesk/internal/core/domain"
)

// =============================================================================
// Store Interface
// =============================================================================

// CustomFieldLister fetches the custom field definitions a tenant currently
// enforces. It is the only lookup the validation pipeline needs; callers
// must not expect caching or retries from it.
type CustomFieldLister interface {
	ListActiveCustomFields(ctx context.Context, tenantID string) ([]domain.CustomField, error)
}

// Store defines the persistence interface for assetdesk entities.
// Every read and write is scoped to one tenant.
type Store interface {
	CustomFieldLister

	// Custom field definitions
	CreateCustomField(ctx context.Context, field *domain.CustomField) error
	GetCustomField(ctx context.Context, tenantID, id string) (*domain.CustomField, error)
	UpdateCustomField(ctx context.Context, field *domain.CustomField) error
	ListCustomFields(ctx context.Context, tenantID string, kind domain.EntityKind, opts ListOptions) ([]domain.CustomField, error)

	// Asset operations
	CreateAsset(ctx context.Context, asset *domain.Asset) error
	GetAsset(ctx context.Context, tenantID, id string) (*domain.Asset, error)
	UpdateAsset(ctx context.Context, asset *domain.Asset) error
	DeleteAsset(ctx context.Context, tenantID, id string) error
	ListAssets(ctx context.Context, tenantID string, opts ListOptions) ([]domain.Asset, error)

	// Booking operations
	CreateBooking(ctx context.Context, booking *domain.Booking) error
	GetBooking(ctx context.Context, tenantID, id string) (*domain.Booking, error)
	UpdateBooking(ctx context.Context, booking *domain.Booking) error
	ListBookings(ctx context.Context, tenantID string, opts ListOptions) ([]domain.Booking, error)
	// ListBookingsHoldingAssets returns reserved and ongoing bookings that
	// include any of the given assets.
	ListBookingsHoldingAssets(ctx context.Context, tenantID string, assetIDs []string) ([]domain.Booking, error)

	// Catalog operations
	CreateCategory(ctx context.Context, category *domain.Category) error
	GetCategory(ctx context.Context, tenantID, id string) (*domain.Category, error)
	ListCategories(ctx context.Context, tenantID string, opts ListOptions) ([]domain.Category, error)
	CreateLocation(ctx context.Context, location *domain.Location) error
	GetLocation(ctx context.Context, tenantID, id string) (*domain.Location, error)
	ListLocations(ctx context.Context, tenantID string, opts ListOptions) ([]domain.Location, error)

	// Transaction support
	WithTx(ctx context.Context, fn func(Store) error) error

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}

// =============================================================================
// Options
// =============================================================================

// ListOptions defines pagination and filtering options.
type ListOptions struct {
	Limit  int
	Offset int
}

// DefaultListOptions returns default list options.
func DefaultListOptions() ListOptions {
	return ListOptions{
		Limit:  100,
		Offset: 0,
	}
}

// Normalize ensures list options have valid values.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = 100
	}
	if o.Limit > 1000 {
		o.Limit = 1000
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}
