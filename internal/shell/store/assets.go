package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/artpar/assetdesk/internal/core/domain"
)

// assetRow represents an assets row in the database.
type assetRow struct {
	ID               string   `db:"id"`
	TenantID         string   `db:"tenant_id"`
	Title            string   `db:"title"`
	Description      string   `db:"description"`
	CategoryID       *string  `db:"category_id"`
	LocationID       *string  `db:"location_id"`
	Tags             string   `db:"tags"`
	Valuation        *float64 `db:"valuation"`
	AvailableToBook  bool     `db:"available_to_book"`
	ImageKey         *string  `db:"image_key"`
	ImageContentType *string  `db:"image_content_type"`
	ImageSize        *int64   `db:"image_size"`
	CustomValues     string   `db:"custom_values"`
	CreatedAt        string   `db:"created_at"`
	UpdatedAt        string   `db:"updated_at"`
}

const assetColumns = `id, tenant_id, title, description, category_id, location_id, tags,
	valuation, available_to_book, image_key, image_content_type, image_size,
	custom_values, created_at, updated_at`

func assetParams(asset *domain.Asset, op string) (map[string]any, error) {
	tags := asset.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, NewStoreError(op, "asset", asset.ID, "failed to serialize tags", ErrInvalidData)
	}
	customJSON, err := marshalCustomValues(asset.CustomValues)
	if err != nil {
		return nil, NewStoreError(op, "asset", asset.ID, "failed to serialize custom values", ErrInvalidData)
	}

	params := map[string]any{
		"id":                 asset.ID,
		"tenant_id":          asset.TenantID,
		"title":              asset.Title,
		"description":        asset.Description,
		"category_id":        nullString(asset.CategoryID),
		"location_id":        nullString(asset.LocationID),
		"tags":               string(tagsJSON),
		"valuation":          asset.Valuation,
		"available_to_book":  asset.AvailableToBook,
		"image_key":          nil,
		"image_content_type": nil,
		"image_size":         nil,
		"custom_values":      customJSON,
		"created_at":         asset.CreatedAt.Format(time.RFC3339),
		"updated_at":         asset.UpdatedAt.Format(time.RFC3339),
	}
	if asset.Image != nil {
		params["image_key"] = asset.Image.Key
		params["image_content_type"] = asset.Image.ContentType
		params["image_size"] = asset.Image.Size
	}
	return params, nil
}

func createAsset(ctx context.Context, exec executor, asset *domain.Asset) error {
	params, err := assetParams(asset, "CreateAsset")
	if err != nil {
		return err
	}

	query := `
		INSERT INTO assets (
			id, tenant_id, title, description, category_id, location_id, tags,
			valuation, available_to_book, image_key, image_content_type, image_size,
			custom_values, created_at, updated_at
		) VALUES (
			:id, :tenant_id, :title, :description, :category_id, :location_id, :tags,
			:valuation, :available_to_book, :image_key, :image_content_type, :image_size,
			:custom_values, :created_at, :updated_at
		)`

	if _, err := exec.NamedExecContext(ctx, query, params); err != nil {
		return classifyWriteError("CreateAsset", "asset", asset.ID, err)
	}
	return nil
}

func getAsset(ctx context.Context, exec executor, tenantID, id string) (*domain.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE tenant_id = ? AND id = ?`

	var row assetRow
	if err := exec.GetContext(ctx, &row, query, tenantID, id); err != nil {
		return nil, notFoundOr("GetAsset", "asset", id, err)
	}
	return rowToAsset(&row)
}

func updateAsset(ctx context.Context, exec executor, asset *domain.Asset) error {
	params, err := assetParams(asset, "UpdateAsset")
	if err != nil {
		return err
	}

	query := `
		UPDATE assets SET
			title = :title,
			description = :description,
			category_id = :category_id,
			location_id = :location_id,
			tags = :tags,
			valuation = :valuation,
			available_to_book = :available_to_book,
			image_key = :image_key,
			image_content_type = :image_content_type,
			image_size = :image_size,
			custom_values = :custom_values,
			updated_at = :updated_at
		WHERE tenant_id = :tenant_id AND id = :id`

	result, err := exec.NamedExecContext(ctx, query, params)
	if err != nil {
		return classifyWriteError("UpdateAsset", "asset", asset.ID, err)
	}
	return requireAffected("UpdateAsset", "asset", asset.ID, result)
}

func deleteAsset(ctx context.Context, exec executor, tenantID, id string) error {
	result, err := exec.ExecContext(ctx, `DELETE FROM assets WHERE tenant_id = ? AND id = ?`, tenantID, id)
	if err != nil {
		return classifyWriteError("DeleteAsset", "asset", id, err)
	}
	return requireAffected("DeleteAsset", "asset", id, result)
}

func listAssets(ctx context.Context, exec executor, tenantID string, opts ListOptions) ([]domain.Asset, error) {
	opts = opts.Normalize()
	query := `SELECT ` + assetColumns + ` FROM assets
		WHERE tenant_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`

	var rows []assetRow
	if err := exec.SelectContext(ctx, &rows, query, tenantID, opts.Limit, opts.Offset); err != nil {
		return nil, NewStoreError("ListAssets", "asset", "", err.Error(), err)
	}

	assets := make([]domain.Asset, 0, len(rows))
	for i := range rows {
		asset, err := rowToAsset(&rows[i])
		if err != nil {
			return nil, err
		}
		assets = append(assets, *asset)
	}
	return assets, nil
}

func rowToAsset(row *assetRow) (*domain.Asset, error) {
	var tags []string
	if row.Tags != "" {
		if err := json.Unmarshal([]byte(row.Tags), &tags); err != nil {
			return nil, NewStoreError("rowToAsset", "asset", row.ID, "failed to parse tags", ErrInvalidData)
		}
	}
	if len(tags) == 0 {
		tags = nil
	}

	custom, err := unmarshalCustomValues(row.CustomValues)
	if err != nil {
		return nil, NewStoreError("rowToAsset", "asset", row.ID, "failed to parse custom values", ErrInvalidData)
	}

	createdAt, _ := time.Parse(time.RFC3339, row.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, row.UpdatedAt)

	asset := &domain.Asset{
		ID:              row.ID,
		TenantID:        row.TenantID,
		Title:           row.Title,
		Description:     row.Description,
		Tags:            tags,
		Valuation:       row.Valuation,
		AvailableToBook: row.AvailableToBook,
		CustomValues:    custom,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}
	if row.CategoryID != nil {
		asset.CategoryID = *row.CategoryID
	}
	if row.LocationID != nil {
		asset.LocationID = *row.LocationID
	}
	if row.ImageKey != nil {
		asset.Image = &domain.Image{Key: *row.ImageKey}
		if row.ImageContentType != nil {
			asset.Image.ContentType = *row.ImageContentType
		}
		if row.ImageSize != nil {
			asset.Image.Size = *row.ImageSize
		}
	}
	return asset, nil
}

// =============================================================================
// Custom Values
// =============================================================================

// marshalCustomValues stores typed custom values as a JSON object.
// Dates are written as RFC 3339 strings.
func marshalCustomValues(values map[string]any) (string, error) {
	if len(values) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalCustomValues(raw string) (map[string]any, error) {
	if raw == "" || raw == "{}" {
		return nil, nil
	}
	var values map[string]any
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, err
	}
	return values, nil
}
