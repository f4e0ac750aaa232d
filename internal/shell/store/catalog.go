package store

import (
	"context"
	"time"

	"github.com/artpar/assetdesk/internal/core/domain"
)

// =============================================================================
// Categories
// =============================================================================

type categoryRow struct {
	ID        string `db:"id"`
	TenantID  string `db:"tenant_id"`
	Name      string `db:"name"`
	Color     string `db:"color"`
	CreatedAt string `db:"created_at"`
}

func createCategory(ctx context.Context, exec executor, category *domain.Category) error {
	query := `
		INSERT INTO categories (id, tenant_id, name, color, created_at)
		VALUES (:id, :tenant_id, :name, :color, :created_at)`

	row := categoryRow{
		ID:        category.ID,
		TenantID:  category.TenantID,
		Name:      category.Name,
		Color:     category.Color,
		CreatedAt: category.CreatedAt.Format(time.RFC3339),
	}
	if _, err := exec.NamedExecContext(ctx, query, row); err != nil {
		return classifyWriteError("CreateCategory", "category", category.ID, err)
	}
	return nil
}

func getCategory(ctx context.Context, exec executor, tenantID, id string) (*domain.Category, error) {
	query := `SELECT id, tenant_id, name, color, created_at FROM categories WHERE tenant_id = ? AND id = ?`

	var row categoryRow
	if err := exec.GetContext(ctx, &row, query, tenantID, id); err != nil {
		return nil, notFoundOr("GetCategory", "category", id, err)
	}
	return rowToCategory(row), nil
}

func listCategories(ctx context.Context, exec executor, tenantID string, opts ListOptions) ([]domain.Category, error) {
	opts = opts.Normalize()
	query := `SELECT id, tenant_id, name, color, created_at FROM categories
		WHERE tenant_id = ? ORDER BY name LIMIT ? OFFSET ?`

	var rows []categoryRow
	if err := exec.SelectContext(ctx, &rows, query, tenantID, opts.Limit, opts.Offset); err != nil {
		return nil, NewStoreError("ListCategories", "category", "", err.Error(), err)
	}

	categories := make([]domain.Category, 0, len(rows))
	for _, row := range rows {
		categories = append(categories, *rowToCategory(row))
	}
	return categories, nil
}

func rowToCategory(row categoryRow) *domain.Category {
	createdAt, _ := time.Parse(time.RFC3339, row.CreatedAt)
	return &domain.Category{
		ID:        row.ID,
		TenantID:  row.TenantID,
		Name:      row.Name,
		Color:     row.Color,
		CreatedAt: createdAt,
	}
}

// =============================================================================
// Locations
// =============================================================================

type locationRow struct {
	ID        string `db:"id"`
	TenantID  string `db:"tenant_id"`
	Name      string `db:"name"`
	Address   string `db:"address"`
	CreatedAt string `db:"created_at"`
}

func createLocation(ctx context.Context, exec executor, location *domain.Location) error {
	query := `
		INSERT INTO locations (id, tenant_id, name, address, created_at)
		VALUES (:id, :tenant_id, :name, :address, :created_at)`

	row := locationRow{
		ID:        location.ID,
		TenantID:  location.TenantID,
		Name:      location.Name,
		Address:   location.Address,
		CreatedAt: location.CreatedAt.Format(time.RFC3339),
	}
	if _, err := exec.NamedExecContext(ctx, query, row); err != nil {
		return classifyWriteError("CreateLocation", "location", location.ID, err)
	}
	return nil
}

func getLocation(ctx context.Context, exec executor, tenantID, id string) (*domain.Location, error) {
	query := `SELECT id, tenant_id, name, address, created_at FROM locations WHERE tenant_id = ? AND id = ?`

	var row locationRow
	if err := exec.GetContext(ctx, &row, query, tenantID, id); err != nil {
		return nil, notFoundOr("GetLocation", "location", id, err)
	}
	return rowToLocation(row), nil
}

func listLocations(ctx context.Context, exec executor, tenantID string, opts ListOptions) ([]domain.Location, error) {
	opts = opts.Normalize()
	query := `SELECT id, tenant_id, name, address, created_at FROM locations
		WHERE tenant_id = ? ORDER BY name LIMIT ? OFFSET ?`

	var rows []locationRow
	if err := exec.SelectContext(ctx, &rows, query, tenantID, opts.Limit, opts.Offset); err != nil {
		return nil, NewStoreError("ListLocations", "location", "", err.Error(), err)
	}

	locations := make([]domain.Location, 0, len(rows))
	for _, row := range rows {
		locations = append(locations, *rowToLocation(row))
	}
	return locations, nil
}

func rowToLocation(row locationRow) *domain.Location {
	createdAt, _ := time.Parse(time.RFC3339, row.CreatedAt)
	return &domain.Location{
		ID:        row.ID,
		TenantID:  row.TenantID,
		Name:      row.Name,
		Address:   row.Address,
		CreatedAt: createdAt,
	}
}
