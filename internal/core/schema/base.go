package schema

import (
	"fmt"
	"strings"

	"github.com/artpar/assetdesk/internal/core/domain"
)

// ImageField is the form key of the primary image upload. It is validated
// outside the merged schema but its name is still reserved.
const ImageField = "image"

// BaseFieldSet is the fixed set of always-present fields for an entity kind.
type BaseFieldSet struct {
	Entity domain.EntityKind
	Rules  []Rule
}

// Has reports whether the base set defines a field with the given name.
func (b BaseFieldSet) Has(name string) bool {
	for _, r := range b.Rules {
		if r.Name == name {
			return true
		}
	}
	return false
}

// Reserved reports whether a custom field may not use the given name.
// The name is trimmed first, as custom field names are stored trimmed.
func (b BaseFieldSet) Reserved(name string) bool {
	name = strings.TrimSpace(name)
	return name == ImageField || b.Has(name)
}

// AssetBaseFields returns the base field set of assets.
func AssetBaseFields() BaseFieldSet {
	return BaseFieldSet{
		Entity: domain.EntityAsset,
		Rules: []Rule{
			TextField(domain.AssetFieldTitle, "Title").WithRequired().WithConstraint("max=255"),
			MultilineField(domain.AssetFieldDescription, "Description").WithConstraint("max=5000"),
			ReferenceField(domain.AssetFieldCategoryID, "Category", "category"),
			ReferenceField(domain.AssetFieldLocationID, "Location", "location"),
			TagsField(domain.AssetFieldTags, "Tags").WithConstraint("max=30,dive,max=50"),
			NumberField(domain.AssetFieldValuation, "Valuation").WithConstraint("gte=0"),
			BooleanField(domain.AssetFieldAvailableToBook, "Available to book"),
		},
	}
}

// BookingBaseFields returns the base field set of bookings.
func BookingBaseFields() BaseFieldSet {
	return BaseFieldSet{
		Entity: domain.EntityBooking,
		Rules: []Rule{
			TextField(domain.BookingFieldName, "Name").WithRequired().WithConstraint("max=255"),
			MultilineField(domain.BookingFieldDescription, "Description").WithConstraint("max=5000"),
			TextField(domain.BookingFieldCustodian, "Custodian").WithRequired().WithConstraint("max=255"),
			TagsField(domain.BookingFieldAssetIDs, "Assets").WithRequired(),
			DateField(domain.BookingFieldFrom, "Start date").WithRequired(),
			DateField(domain.BookingFieldTo, "End date").WithRequired(),
		},
	}
}

// BaseFor returns the base field set of an entity kind.
func BaseFor(kind domain.EntityKind) (BaseFieldSet, error) {
	switch kind {
	case domain.EntityAsset:
		return AssetBaseFields(), nil
	case domain.EntityBooking:
		return BookingBaseFields(), nil
	default:
		return BaseFieldSet{}, fmt.Errorf("%w: %q", domain.ErrEntityKindInvalid, kind)
	}
}
