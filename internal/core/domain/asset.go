package domain

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Asset Field Keys
// =============================================================================

// Form keys of the asset base fields.
const (
	AssetFieldTitle           = "title"
	AssetFieldDescription     = "description"
	AssetFieldCategoryID      = "category_id"
	AssetFieldLocationID      = "location_id"
	AssetFieldTags            = "tags"
	AssetFieldValuation       = "valuation"
	AssetFieldAvailableToBook = "available_to_book"
)

// =============================================================================
// Image
// =============================================================================

// Image references a stored primary image.
type Image struct {
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// =============================================================================
// Asset
// =============================================================================

// Asset represents a tracked item of inventory.
type Asset struct {
	ID              string         `json:"id"`
	TenantID        string         `json:"tenant_id"`
	Title           string         `json:"title"`
	Description     string         `json:"description,omitempty"`
	CategoryID      string         `json:"category_id,omitempty"`
	LocationID      string         `json:"location_id,omitempty"`
	Tags            []string       `json:"tags,omitempty"`
	Valuation       *float64       `json:"valuation,omitempty"`
	AvailableToBook bool           `json:"available_to_book"`
	Image           *Image         `json:"image,omitempty"`
	CustomValues    map[string]any `json:"custom_values,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// NewAsset builds an asset for the tenant from validated form values.
func NewAsset(tenantID string, values map[string]any) *Asset {
	now := time.Now().UTC()
	a := &Asset{
		ID:        "ast_" + uuid.New().String()[:8],
		TenantID:  tenantID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	a.Apply(values, nil)
	return a
}

// Apply replaces the asset's editable fields with validated form values.
// Keys that are not base fields are stored as custom values. customFields
// names the custom fields the form was validated against; those absent from
// values are cleared. Stored values of any other custom field are kept.
func (a *Asset) Apply(values map[string]any, customFields []string) {
	a.Title = stringValue(values[AssetFieldTitle])
	a.Description = stringValue(values[AssetFieldDescription])
	a.CategoryID = stringValue(values[AssetFieldCategoryID])
	a.LocationID = stringValue(values[AssetFieldLocationID])
	a.Tags = stringSliceValue(values[AssetFieldTags])
	a.AvailableToBook, _ = values[AssetFieldAvailableToBook].(bool)

	a.Valuation = nil
	if v, ok := values[AssetFieldValuation].(float64); ok {
		a.Valuation = &v
	}

	a.CustomValues = mergeCustomValues(a.CustomValues, values, customFields, isAssetBaseField)
	a.UpdatedAt = time.Now().UTC()
}

// SetImage attaches a stored primary image.
func (a *Asset) SetImage(img *Image) {
	a.Image = img
	a.UpdatedAt = time.Now().UTC()
}

func isAssetBaseField(key string) bool {
	switch key {
	case AssetFieldTitle, AssetFieldDescription, AssetFieldCategoryID,
		AssetFieldLocationID, AssetFieldTags, AssetFieldValuation,
		AssetFieldAvailableToBook:
		return true
	default:
		return false
	}
}

// mergeCustomValues overlays the custom values of a submission onto the
// stored ones. Names in replaced that the submission lacks are removed.
func mergeCustomValues(stored, values map[string]any, replaced []string, isBase func(string) bool) map[string]any {
	out := make(map[string]any, len(stored)+len(values))
	for key, value := range stored {
		out[key] = value
	}
	for _, name := range replaced {
		delete(out, name)
	}
	for key, value := range values {
		if !isBase(key) {
			out[key] = value
		}
	}
	return out
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func stringSliceValue(v any) []string {
	s, _ := v.([]string)
	return s
}
