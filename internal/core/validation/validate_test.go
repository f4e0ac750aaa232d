package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/assetdesk/internal/core/domain"
	"github.com/artpar/assetdesk/internal/core/schema"
)

func mergeAsset(t *testing.T, custom ...domain.CustomField) schema.MergedSchema {
	t.Helper()
	merged, err := schema.Merge(schema.AssetBaseFields(), custom)
	require.NoError(t, err)
	return merged
}

func field(name string, fieldType domain.FieldType, required bool, options ...string) domain.CustomField {
	return domain.CustomField{
		ID:         "cf_" + name,
		TenantID:   "org_1",
		EntityKind: domain.EntityAsset,
		Name:       name,
		Type:       fieldType,
		Required:   required,
		Options:    options,
		Active:     true,
	}
}

// =============================================================================
// Base Field Tests
// =============================================================================

func TestValidate_BaseFieldsCoerced(t *testing.T) {
	raw := map[string][]string{
		"title":             {"  Cordless drill "},
		"description":       {"Line one\r\nLine two"},
		"category_id":       {"cat_1"},
		"tags":              {"power, tools", "tools", " red "},
		"valuation":         {"123"},
		"available_to_book": {"on"},
	}

	result := Validate(mergeAsset(t), raw)
	require.True(t, result.IsValid(), result.Errors)
	assert.Nil(t, result.Errors)

	assert.Equal(t, "Cordless drill", result.Data["title"])
	assert.Equal(t, "Line one\nLine two", result.Data["description"])
	assert.Equal(t, "cat_1", result.Data["category_id"])
	assert.Equal(t, []string{"power", "tools", "red"}, result.Data["tags"])
	assert.Equal(t, 123.0, result.Data["valuation"])
	assert.Equal(t, true, result.Data["available_to_book"])

	_, hasLocation := result.Data["location_id"]
	assert.False(t, hasLocation, "optional empty fields are omitted")
}

func TestValidate_TitleRequired(t *testing.T) {
	raw := map[string][]string{"title": {""}, "description": {"ok"}}

	result := Validate(mergeAsset(t), raw)
	require.False(t, result.IsValid())
	assert.Nil(t, result.Data)
	assert.Equal(t, "Title is required", result.Errors["title"])
	assert.Len(t, result.Errors, 1)
}

func TestValidate_AbsentFieldsTreatedAsEmpty(t *testing.T) {
	result := Validate(mergeAsset(t), nil)
	assert.Equal(t, FieldErrors{"title": "Title is required"}, result.Errors)
}

func TestValidate_Constraints(t *testing.T) {
	long := make([]byte, 256)
	for i := range long {
		long[i] = 'x'
	}

	tests := []struct {
		name  string
		field string
		value []string
		want  string
	}{
		{"title too long", "title", []string{string(long)}, "Title must be at most 255 characters"},
		{"negative valuation", "valuation", []string{"-1"}, "Valuation must be at least 0"},
		{"tag too long", "tags", []string{string(long[:51])}, "Each entry in tags must be at most 50 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := map[string][]string{"title": {"Drill"}, tt.field: tt.value}
			result := Validate(mergeAsset(t), raw)
			require.False(t, result.IsValid())
			assert.Equal(t, tt.want, result.Errors[tt.field])
		})
	}
}

// =============================================================================
// Custom Field Tests
// =============================================================================

func TestValidate_RequiredCustomFieldMissing(t *testing.T) {
	merged := mergeAsset(t, field("serial", domain.FieldTypeText, true))

	for _, raw := range []map[string][]string{
		{"title": {"Drill"}},
		{"title": {"Drill"}, "serial": {""}},
		{"title": {"Drill"}, "serial": {"   "}},
	} {
		result := Validate(merged, raw)
		require.False(t, result.IsValid())
		assert.Equal(t, "Serial is required", result.Errors["serial"])
	}
}

func TestValidate_OptionalCustomFieldAbsent(t *testing.T) {
	merged := mergeAsset(t,
		field("serial", domain.FieldTypeText, false),
		field("warranty_months", domain.FieldTypeNumber, false),
		field("purchased_on", domain.FieldTypeDate, false),
	)

	result := Validate(merged, map[string][]string{"title": {"Drill"}})
	require.True(t, result.IsValid())
	assert.NotContains(t, result.Data, "serial")
	assert.NotContains(t, result.Data, "warranty_months")
	assert.NotContains(t, result.Data, "purchased_on")
}

func TestValidate_NumberNotParsable(t *testing.T) {
	merged := mergeAsset(t, field("warranty_months", domain.FieldTypeNumber, true))

	result := Validate(merged, map[string][]string{"title": {"Drill"}, "warranty_months": {"abc"}})
	require.False(t, result.IsValid())
	assert.Equal(t, "Warranty months must be a number", result.Errors["warranty_months"])
}

func TestValidate_NumberRejectsNaN(t *testing.T) {
	merged := mergeAsset(t, field("weight", domain.FieldTypeNumber, false))

	for _, v := range []string{"NaN", "Inf", "-Inf"} {
		result := Validate(merged, map[string][]string{"title": {"Drill"}, "weight": {v}})
		assert.Equal(t, "Weight must be a number", result.Errors["weight"], v)
	}
}

func TestValidate_OptionalBooleanDefaultsFalse(t *testing.T) {
	merged := mergeAsset(t, field("is_loaned", domain.FieldTypeBoolean, false))

	result := Validate(merged, map[string][]string{"title": {"Drill"}})
	require.True(t, result.IsValid())
	assert.Equal(t, false, result.Data["is_loaned"])
}

func TestValidate_BooleanTokens(t *testing.T) {
	merged := mergeAsset(t, field("is_loaned", domain.FieldTypeBoolean, false))

	tests := []struct {
		token string
		want  bool
	}{
		{"true", true}, {"ON", true}, {"yes", true}, {"1", true},
		{"false", false}, {"off", false}, {"No", false}, {"0", false},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			result := Validate(merged, map[string][]string{"title": {"Drill"}, "is_loaned": {tt.token}})
			require.True(t, result.IsValid())
			assert.Equal(t, tt.want, result.Data["is_loaned"])
		})
	}

	result := Validate(merged, map[string][]string{"title": {"Drill"}, "is_loaned": {"maybe"}})
	assert.Equal(t, "Is loaned must be true or false", result.Errors["is_loaned"])
}

func TestValidate_RequiredBooleanAbsent(t *testing.T) {
	merged := mergeAsset(t, field("inspected", domain.FieldTypeBoolean, true))

	result := Validate(merged, map[string][]string{"title": {"Drill"}})
	assert.Equal(t, "Inspected is required", result.Errors["inspected"])
}

func TestValidate_Dates(t *testing.T) {
	merged := mergeAsset(t, field("purchased_on", domain.FieldTypeDate, true))

	tests := []struct {
		in   string
		want time.Time
	}{
		{"2026-03-01", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"2026-03-01T10:30", time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)},
		{"2026-03-01T10:30:00Z", time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			result := Validate(merged, map[string][]string{"title": {"Drill"}, "purchased_on": {tt.in}})
			require.True(t, result.IsValid())
			got, ok := result.Data["purchased_on"].(time.Time)
			require.True(t, ok)
			assert.True(t, tt.want.Equal(got))
		})
	}

	result := Validate(merged, map[string][]string{"title": {"Drill"}, "purchased_on": {"01/03/2026"}})
	assert.Equal(t, "Purchased on must be a valid date", result.Errors["purchased_on"])
}

func TestValidate_Option(t *testing.T) {
	merged := mergeAsset(t, field("condition", domain.FieldTypeOption, false, "new", "used"))

	result := Validate(merged, map[string][]string{"title": {"Drill"}, "condition": {"used"}})
	require.True(t, result.IsValid())
	assert.Equal(t, "used", result.Data["condition"])

	result = Validate(merged, map[string][]string{"title": {"Drill"}, "condition": {"broken"}})
	assert.Equal(t, "Condition must be one of: new, used", result.Errors["condition"])
}

// =============================================================================
// Pipeline Property Tests
// =============================================================================

func TestValidate_ReportsEveryFailingField(t *testing.T) {
	merged := mergeAsset(t,
		field("warranty_months", domain.FieldTypeNumber, true),
		field("purchased_on", domain.FieldTypeDate, false),
	)
	raw := map[string][]string{
		"title":           {""},
		"warranty_months": {"abc"},
		"purchased_on":    {"yesterday"},
	}

	result := Validate(merged, raw)
	require.False(t, result.IsValid())
	assert.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors, "title")
	assert.Contains(t, result.Errors, "warranty_months")
	assert.Contains(t, result.Errors, "purchased_on")
}

func TestValidate_DoesNotMutateRaw(t *testing.T) {
	raw := map[string][]string{
		"title": {"  Drill  "},
		"tags":  {"a, b", "a"},
	}
	snapshot := map[string][]string{
		"title": {"  Drill  "},
		"tags":  {"a, b", "a"},
	}

	Validate(mergeAsset(t), raw)
	assert.Equal(t, snapshot, raw)
}

func TestValidate_MergeIdempotenceBehaviour(t *testing.T) {
	custom := []domain.CustomField{field("warranty_months", domain.FieldTypeNumber, true)}
	first, err := schema.Merge(schema.AssetBaseFields(), custom)
	require.NoError(t, err)
	second, err := schema.Merge(schema.AssetBaseFields(), custom)
	require.NoError(t, err)

	inputs := []map[string][]string{
		{"title": {"Drill"}, "warranty_months": {"12"}},
		{"title": {""}, "warranty_months": {"x"}},
		nil,
	}
	for _, raw := range inputs {
		assert.Equal(t, Validate(first, raw), Validate(second, raw))
	}
}

func TestValidate_BookingSchema(t *testing.T) {
	merged, err := schema.Merge(schema.BookingBaseFields(), nil)
	require.NoError(t, err)

	result := Validate(merged, map[string][]string{
		"name":      {"Offsite"},
		"custodian": {"alex"},
		"asset_ids": {"ast_1,ast_2"},
		"from":      {"2026-03-01"},
		"to":        {"2026-03-04"},
	})
	require.True(t, result.IsValid(), result.Errors)
	assert.Equal(t, []string{"ast_1", "ast_2"}, result.Data["asset_ids"])

	result = Validate(merged, nil)
	assert.Len(t, result.Errors, 5)
	assert.Equal(t, "Assets is required", result.Errors["asset_ids"])
	assert.Equal(t, "Start date is required", result.Errors["from"])
}

// =============================================================================
// Result Tests
// =============================================================================

func TestResult_WithError(t *testing.T) {
	ok := Valid(map[string]any{"title": "Drill"})
	assert.NoError(t, ok.Err())

	bad := ok.WithError("to", "End date must be after start date")
	assert.False(t, bad.IsValid())
	assert.Nil(t, bad.Data)
	assert.True(t, ok.IsValid(), "original result is unchanged")

	again := bad.WithError("to", "other")
	assert.Equal(t, "End date must be after start date", again.Errors["to"])
	assert.EqualError(t, again.Err(), "validation failed: to: End date must be after start date")
}
