package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/artpar/assetdesk/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Helpers
// =============================================================================

func setupTestStore(t *testing.T) Store {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func createTestCustomField(t *testing.T, store Store, tenantID, name string, fieldType domain.FieldType) *domain.CustomField {
	t.Helper()
	var options []string
	if fieldType == domain.FieldTypeOption {
		options = []string{"new", "used"}
	}
	field, err := domain.NewCustomField(tenantID, domain.EntityAsset, name, fieldType, false, options, "")
	require.NoError(t, err)
	require.NoError(t, store.CreateCustomField(context.Background(), field))
	return field
}

func createTestCategory(t *testing.T, store Store, tenantID, name string) *domain.Category {
	t.Helper()
	category, err := domain.NewCategory(tenantID, name, "")
	require.NoError(t, err)
	require.NoError(t, store.CreateCategory(context.Background(), category))
	return category
}

func createTestAsset(t *testing.T, store Store, tenantID, title string) *domain.Asset {
	t.Helper()
	asset := domain.NewAsset(tenantID, map[string]any{domain.AssetFieldTitle: title})
	require.NoError(t, store.CreateAsset(context.Background(), asset))
	return asset
}

func createTestBooking(t *testing.T, store Store, tenantID string, assetIDs []string, from, to time.Time) *domain.Booking {
	t.Helper()
	booking := domain.NewBooking(tenantID, map[string]any{
		domain.BookingFieldName:      "Offsite",
		domain.BookingFieldCustodian: "alex",
		domain.BookingFieldAssetIDs:  assetIDs,
		domain.BookingFieldFrom:      from,
		domain.BookingFieldTo:        to,
	})
	require.NoError(t, store.CreateBooking(context.Background(), booking))
	return booking
}

func day(d int) time.Time {
	return time.Date(2026, 3, d, 9, 0, 0, 0, time.UTC)
}

// =============================================================================
// Custom Field Tests
// =============================================================================

func TestCreateCustomField_Success(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	field := createTestCustomField(t, store, "org_1", "condition", domain.FieldTypeOption)

	retrieved, err := store.GetCustomField(ctx, "org_1", field.ID)
	require.NoError(t, err)
	assert.Equal(t, field.ID, retrieved.ID)
	assert.Equal(t, domain.EntityAsset, retrieved.EntityKind)
	assert.Equal(t, "condition", retrieved.Name)
	assert.Equal(t, domain.FieldTypeOption, retrieved.Type)
	assert.Equal(t, []string{"new", "used"}, retrieved.Options)
	assert.True(t, retrieved.Active)
}

func TestCreateCustomField_DuplicateName(t *testing.T) {
	store := setupTestStore(t)
	createTestCustomField(t, store, "org_1", "serial", domain.FieldTypeText)

	dup, err := domain.NewCustomField("org_1", domain.EntityAsset, "serial", domain.FieldTypeNumber, false, nil, "")
	require.NoError(t, err)

	err = store.CreateCustomField(context.Background(), dup)
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestCreateCustomField_SameNameOtherTenantOrKind(t *testing.T) {
	store := setupTestStore(t)
	createTestCustomField(t, store, "org_1", "serial", domain.FieldTypeText)
	createTestCustomField(t, store, "org_2", "serial", domain.FieldTypeText)

	booking, err := domain.NewCustomField("org_1", domain.EntityBooking, "serial", domain.FieldTypeText, false, nil, "")
	require.NoError(t, err)
	assert.NoError(t, store.CreateCustomField(context.Background(), booking))
}

func TestCreateCustomField_DuplicateID(t *testing.T) {
	store := setupTestStore(t)
	field := createTestCustomField(t, store, "org_1", "serial", domain.FieldTypeText)

	dup := *field
	dup.Name = "other"
	err := store.CreateCustomField(context.Background(), &dup)
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestGetCustomField_OtherTenant(t *testing.T) {
	store := setupTestStore(t)
	field := createTestCustomField(t, store, "org_1", "serial", domain.FieldTypeText)

	_, err := store.GetCustomField(context.Background(), "org_2", field.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var storeErr *StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, "GetCustomField", storeErr.Op)
}

func TestUpdateCustomField_Deactivate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	field := createTestCustomField(t, store, "org_1", "serial", domain.FieldTypeText)

	field.Deactivate()
	field.Required = true
	field.HelpText = "On the back plate"
	require.NoError(t, store.UpdateCustomField(ctx, field))

	retrieved, err := store.GetCustomField(ctx, "org_1", field.ID)
	require.NoError(t, err)
	assert.False(t, retrieved.Active)
	assert.True(t, retrieved.Required)
	assert.Equal(t, "On the back plate", retrieved.HelpText)
}

func TestUpdateCustomField_NotFound(t *testing.T) {
	store := setupTestStore(t)
	field, err := domain.NewCustomField("org_1", domain.EntityAsset, "serial", domain.FieldTypeText, false, nil, "")
	require.NoError(t, err)

	assert.ErrorIs(t, store.UpdateCustomField(context.Background(), field), ErrNotFound)
}

func TestListActiveCustomFields(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	first := createTestCustomField(t, store, "org_1", "serial", domain.FieldTypeText)
	inactive := createTestCustomField(t, store, "org_1", "retired", domain.FieldTypeText)
	third := createTestCustomField(t, store, "org_1", "warranty_months", domain.FieldTypeNumber)
	createTestCustomField(t, store, "org_2", "foreign", domain.FieldTypeText)

	inactive.Deactivate()
	require.NoError(t, store.UpdateCustomField(ctx, inactive))

	fields, err := store.ListActiveCustomFields(ctx, "org_1")
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, first.ID, fields[0].ID)
	assert.Equal(t, third.ID, fields[1].ID)
}

func TestListCustomFields_KindFilter(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	createTestCustomField(t, store, "org_1", "serial", domain.FieldTypeText)
	booking, err := domain.NewCustomField("org_1", domain.EntityBooking, "project_code", domain.FieldTypeText, false, nil, "")
	require.NoError(t, err)
	require.NoError(t, store.CreateCustomField(ctx, booking))

	all, err := store.ListCustomFields(ctx, "org_1", "", DefaultListOptions())
	require.NoError(t, err)
	assert.Len(t, all, 2)

	bookingsOnly, err := store.ListCustomFields(ctx, "org_1", domain.EntityBooking, DefaultListOptions())
	require.NoError(t, err)
	require.Len(t, bookingsOnly, 1)
	assert.Equal(t, "project_code", bookingsOnly[0].Name)
}

// =============================================================================
// Asset Tests
// =============================================================================

func TestCreateAsset_RoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	category := createTestCategory(t, store, "org_1", "Tools")

	asset := domain.NewAsset("org_1", map[string]any{
		domain.AssetFieldTitle:           "Drill",
		domain.AssetFieldCategoryID:      category.ID,
		domain.AssetFieldTags:            []string{"power", "tools"},
		domain.AssetFieldValuation:       120.5,
		domain.AssetFieldAvailableToBook: true,
		"warranty_months":                float64(24),
		"is_loaned":                      false,
		"purchased_on":                   time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
	})
	asset.SetImage(&domain.Image{Key: "org_1/ast_x.png", ContentType: "image/png", Size: 42})
	require.NoError(t, store.CreateAsset(ctx, asset))

	retrieved, err := store.GetAsset(ctx, "org_1", asset.ID)
	require.NoError(t, err)
	assert.Equal(t, "Drill", retrieved.Title)
	assert.Equal(t, category.ID, retrieved.CategoryID)
	assert.Empty(t, retrieved.LocationID)
	assert.Equal(t, []string{"power", "tools"}, retrieved.Tags)
	require.NotNil(t, retrieved.Valuation)
	assert.Equal(t, 120.5, *retrieved.Valuation)
	assert.True(t, retrieved.AvailableToBook)
	require.NotNil(t, retrieved.Image)
	assert.Equal(t, "image/png", retrieved.Image.ContentType)
	assert.Equal(t, int64(42), retrieved.Image.Size)

	assert.Equal(t, float64(24), retrieved.CustomValues["warranty_months"])
	assert.Equal(t, false, retrieved.CustomValues["is_loaned"])
	assert.Equal(t, "2025-01-02T00:00:00Z", retrieved.CustomValues["purchased_on"])
}

func TestCreateAsset_UnknownCategory(t *testing.T) {
	store := setupTestStore(t)
	asset := domain.NewAsset("org_1", map[string]any{
		domain.AssetFieldTitle:      "Drill",
		domain.AssetFieldCategoryID: "cat_missing",
	})

	err := store.CreateAsset(context.Background(), asset)
	assert.ErrorIs(t, err, ErrForeignKey)
}

func TestUpdateAsset(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	asset := createTestAsset(t, store, "org_1", "Drill")

	asset.Apply(map[string]any{domain.AssetFieldTitle: "Hammer drill", "serial": "SN-1"}, nil)
	require.NoError(t, store.UpdateAsset(ctx, asset))

	retrieved, err := store.GetAsset(ctx, "org_1", asset.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hammer drill", retrieved.Title)
	assert.Equal(t, "SN-1", retrieved.CustomValues["serial"])
	assert.Nil(t, retrieved.Valuation)
	assert.Nil(t, retrieved.Image)

	other := *asset
	other.TenantID = "org_2"
	assert.ErrorIs(t, store.UpdateAsset(ctx, &other), ErrNotFound)
}

func TestDeleteAsset(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	asset := createTestAsset(t, store, "org_1", "Drill")

	assert.ErrorIs(t, store.DeleteAsset(ctx, "org_2", asset.ID), ErrNotFound)
	require.NoError(t, store.DeleteAsset(ctx, "org_1", asset.ID))

	_, err := store.GetAsset(ctx, "org_1", asset.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAssets_TenantScopedAndPaginated(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for _, title := range []string{"A", "B", "C"} {
		createTestAsset(t, store, "org_1", title)
	}
	createTestAsset(t, store, "org_2", "Foreign")

	all, err := store.ListAssets(ctx, "org_1", DefaultListOptions())
	require.NoError(t, err)
	assert.Len(t, all, 3)

	page, err := store.ListAssets(ctx, "org_1", ListOptions{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

// =============================================================================
// Booking Tests
// =============================================================================

func TestCreateBooking_RoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	a1 := createTestAsset(t, store, "org_1", "Drill")
	a2 := createTestAsset(t, store, "org_1", "Saw")

	booking := createTestBooking(t, store, "org_1", []string{a2.ID, a1.ID}, day(1), day(3))

	retrieved, err := store.GetBooking(ctx, "org_1", booking.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a2.ID, a1.ID}, retrieved.AssetIDs)
	assert.Equal(t, domain.BookingDraft, retrieved.Status)
	assert.True(t, day(1).Equal(retrieved.From))
	assert.True(t, day(3).Equal(retrieved.To))
	assert.Equal(t, "alex", retrieved.Custodian)
}

func TestCreateBooking_UnknownAssetRollsBack(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	booking := domain.NewBooking("org_1", map[string]any{
		domain.BookingFieldName:      "Offsite",
		domain.BookingFieldCustodian: "alex",
		domain.BookingFieldAssetIDs:  []string{"ast_missing"},
		domain.BookingFieldFrom:      day(1),
		domain.BookingFieldTo:        day(2),
	})

	err := store.CreateBooking(ctx, booking)
	assert.ErrorIs(t, err, ErrForeignKey)

	_, err = store.GetBooking(ctx, "org_1", booking.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateBooking_StatusAndAssets(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	a1 := createTestAsset(t, store, "org_1", "Drill")
	a2 := createTestAsset(t, store, "org_1", "Saw")
	booking := createTestBooking(t, store, "org_1", []string{a1.ID}, day(1), day(3))

	booking.AssetIDs = []string{a2.ID}
	require.NoError(t, booking.Transition(domain.BookingReserved))
	require.NoError(t, store.UpdateBooking(ctx, booking))

	retrieved, err := store.GetBooking(ctx, "org_1", booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingReserved, retrieved.Status)
	assert.Equal(t, []string{a2.ID}, retrieved.AssetIDs)
}

func TestListBookingsHoldingAssets(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	a1 := createTestAsset(t, store, "org_1", "Drill")
	a2 := createTestAsset(t, store, "org_1", "Saw")

	draft := createTestBooking(t, store, "org_1", []string{a1.ID}, day(1), day(3))
	reserved := createTestBooking(t, store, "org_1", []string{a1.ID, a2.ID}, day(2), day(4))
	require.NoError(t, reserved.Transition(domain.BookingReserved))
	require.NoError(t, store.UpdateBooking(ctx, reserved))

	holding, err := store.ListBookingsHoldingAssets(ctx, "org_1", []string{a1.ID})
	require.NoError(t, err)
	require.Len(t, holding, 1)
	assert.Equal(t, reserved.ID, holding[0].ID)
	assert.Equal(t, []string{a1.ID, a2.ID}, holding[0].AssetIDs)
	assert.NotEqual(t, draft.ID, holding[0].ID)

	none, err := store.ListBookingsHoldingAssets(ctx, "org_2", []string{a1.ID})
	require.NoError(t, err)
	assert.Empty(t, none)

	empty, err := store.ListBookingsHoldingAssets(ctx, "org_1", nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestListBookings(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	a1 := createTestAsset(t, store, "org_1", "Drill")

	createTestBooking(t, store, "org_1", []string{a1.ID}, day(1), day(2))
	later := createTestBooking(t, store, "org_1", []string{a1.ID}, day(5), day(6))

	bookings, err := store.ListBookings(ctx, "org_1", DefaultListOptions())
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Equal(t, later.ID, bookings[0].ID)
	assert.Equal(t, []string{a1.ID}, bookings[0].AssetIDs)
}

// =============================================================================
// Catalog Tests
// =============================================================================

func TestCategories(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	tools := createTestCategory(t, store, "org_1", "Tools")
	createTestCategory(t, store, "org_1", "Audio")

	dup, err := domain.NewCategory("org_1", "Tools", "")
	require.NoError(t, err)
	assert.ErrorIs(t, store.CreateCategory(ctx, dup), ErrDuplicateName)

	got, err := store.GetCategory(ctx, "org_1", tools.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tools", got.Name)

	_, err = store.GetCategory(ctx, "org_2", tools.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := store.ListCategories(ctx, "org_1", DefaultListOptions())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Audio", list[0].Name)
}

func TestLocations(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	loc, err := domain.NewLocation("org_1", "Warehouse", "1 Main St")
	require.NoError(t, err)
	require.NoError(t, store.CreateLocation(ctx, loc))

	got, err := store.GetLocation(ctx, "org_1", loc.ID)
	require.NoError(t, err)
	assert.Equal(t, "1 Main St", got.Address)

	list, err := store.ListLocations(ctx, "org_1", DefaultListOptions())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

// =============================================================================
// Transaction Tests
// =============================================================================

func TestWithTx_RollbackOnError(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	var asset *domain.Asset

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(tx Store) error {
		asset = domain.NewAsset("org_1", map[string]any{domain.AssetFieldTitle: "Drill"})
		if err := tx.CreateAsset(ctx, asset); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.GetAsset(ctx, "org_1", asset.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWithTx_Commit(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	asset := domain.NewAsset("org_1", map[string]any{domain.AssetFieldTitle: "Drill"})

	err := store.WithTx(ctx, func(tx Store) error {
		return tx.CreateAsset(ctx, asset)
	})
	require.NoError(t, err)

	_, err = store.GetAsset(ctx, "org_1", asset.ID)
	assert.NoError(t, err)
}

func TestPing(t *testing.T) {
	store := setupTestStore(t)
	assert.NoError(t, store.Ping(context.Background()))
}

// =============================================================================
// Options Tests
// =============================================================================

func TestListOptions_Normalize(t *testing.T) {
	assert.Equal(t, ListOptions{Limit: 100}, ListOptions{}.Normalize())
	assert.Equal(t, ListOptions{Limit: 1000}, ListOptions{Limit: 5000}.Normalize())
	assert.Equal(t, ListOptions{Limit: 10}, ListOptions{Limit: 10, Offset: -3}.Normalize())
}

func TestStoreError_Format(t *testing.T) {
	err := NewStoreError("GetAsset", "asset", "ast_1", "asset not found", ErrNotFound)
	assert.Equal(t, "GetAsset asset ast_1: asset not found", err.Error())
	assert.ErrorIs(t, err, ErrNotFound)
}
