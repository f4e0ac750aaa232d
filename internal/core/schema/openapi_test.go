package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/assetdesk/internal/core/domain"
)

func TestToOpenAPI_Asset(t *testing.T) {
	merged, err := Merge(AssetBaseFields(), []domain.CustomField{
		customField("condition", domain.FieldTypeOption, true, "new", "used"),
		customField("purchased_on", domain.FieldTypeDate, false),
	})
	require.NoError(t, err)

	doc := ToOpenAPI(merged)

	assert.True(t, doc.Type.Is("object"))
	assert.Equal(t, []string{"title", "condition"}, doc.Required)
	require.Len(t, doc.Properties, len(merged.Rules))

	title := doc.Properties["title"].Value
	assert.True(t, title.Type.Is("string"))
	require.NotNil(t, title.MaxLength)
	assert.Equal(t, uint64(255), *title.MaxLength)
	assert.Equal(t, "Title", title.Title)

	valuation := doc.Properties["valuation"].Value
	assert.True(t, valuation.Type.Is("number"))
	require.NotNil(t, valuation.Min)
	assert.Equal(t, 0.0, *valuation.Min)

	tags := doc.Properties["tags"].Value
	assert.True(t, tags.Type.Is("array"))
	require.NotNil(t, tags.MaxItems)
	assert.Equal(t, uint64(30), *tags.MaxItems)

	assert.Equal(t, []any{"new", "used"}, doc.Properties["condition"].Value.Enum)
	assert.Equal(t, "date", doc.Properties["purchased_on"].Value.Format)
	assert.Equal(t, "category", doc.Properties["category_id"].Value.Extensions["x-references"])
}
