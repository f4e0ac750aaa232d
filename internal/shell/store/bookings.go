package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/artpar/assetdesk/internal/core/domain"
)

// bookingRow represents a bookings row in the database.
type bookingRow struct {
	ID           string `db:"id"`
	TenantID     string `db:"tenant_id"`
	Name         string `db:"name"`
	Description  string `db:"description"`
	Custodian    string `db:"custodian"`
	Status       string `db:"status"`
	FromAt       string `db:"from_at"`
	ToAt         string `db:"to_at"`
	CustomValues string `db:"custom_values"`
	CreatedAt    string `db:"created_at"`
	UpdatedAt    string `db:"updated_at"`
}

type bookingAssetRow struct {
	BookingID string `db:"booking_id"`
	AssetID   string `db:"asset_id"`
}

const bookingColumns = `b.id, b.tenant_id, b.name, b.description, b.custodian, b.status,
	b.from_at, b.to_at, b.custom_values, b.created_at, b.updated_at`

func bookingParams(booking *domain.Booking, op string) (map[string]any, error) {
	customJSON, err := marshalCustomValues(booking.CustomValues)
	if err != nil {
		return nil, NewStoreError(op, "booking", booking.ID, "failed to serialize custom values", ErrInvalidData)
	}
	return map[string]any{
		"id":            booking.ID,
		"tenant_id":     booking.TenantID,
		"name":          booking.Name,
		"description":   booking.Description,
		"custodian":     booking.Custodian,
		"status":        string(booking.Status),
		"from_at":       booking.From.UTC().Format(time.RFC3339),
		"to_at":         booking.To.UTC().Format(time.RFC3339),
		"custom_values": customJSON,
		"created_at":    booking.CreatedAt.Format(time.RFC3339),
		"updated_at":    booking.UpdatedAt.Format(time.RFC3339),
	}, nil
}

// createBooking must run inside a transaction: it writes the booking row
// and one booking_assets row per asset.
func createBooking(ctx context.Context, exec executor, booking *domain.Booking) error {
	params, err := bookingParams(booking, "CreateBooking")
	if err != nil {
		return err
	}

	query := `
		INSERT INTO bookings (
			id, tenant_id, name, description, custodian, status,
			from_at, to_at, custom_values, created_at, updated_at
		) VALUES (
			:id, :tenant_id, :name, :description, :custodian, :status,
			:from_at, :to_at, :custom_values, :created_at, :updated_at
		)`

	if _, err := exec.NamedExecContext(ctx, query, params); err != nil {
		return classifyWriteError("CreateBooking", "booking", booking.ID, err)
	}
	return insertBookingAssets(ctx, exec, "CreateBooking", booking)
}

func insertBookingAssets(ctx context.Context, exec executor, op string, booking *domain.Booking) error {
	for i, assetID := range booking.AssetIDs {
		_, err := exec.ExecContext(ctx,
			`INSERT INTO booking_assets (booking_id, asset_id, position) VALUES (?, ?, ?)`,
			booking.ID, assetID, i)
		if err != nil {
			return classifyWriteError(op, "booking", booking.ID, err)
		}
	}
	return nil
}

func getBooking(ctx context.Context, exec executor, tenantID, id string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.tenant_id = ? AND b.id = ?`

	var row bookingRow
	if err := exec.GetContext(ctx, &row, query, tenantID, id); err != nil {
		return nil, notFoundOr("GetBooking", "booking", id, err)
	}

	bookings, err := hydrateBookings(ctx, exec, "GetBooking", []bookingRow{row})
	if err != nil {
		return nil, err
	}
	return &bookings[0], nil
}

// updateBooking must run inside a transaction: it replaces the asset links.
func updateBooking(ctx context.Context, exec executor, booking *domain.Booking) error {
	params, err := bookingParams(booking, "UpdateBooking")
	if err != nil {
		return err
	}

	query := `
		UPDATE bookings SET
			name = :name,
			description = :description,
			custodian = :custodian,
			status = :status,
			from_at = :from_at,
			to_at = :to_at,
			custom_values = :custom_values,
			updated_at = :updated_at
		WHERE tenant_id = :tenant_id AND id = :id`

	result, err := exec.NamedExecContext(ctx, query, params)
	if err != nil {
		return classifyWriteError("UpdateBooking", "booking", booking.ID, err)
	}
	if err := requireAffected("UpdateBooking", "booking", booking.ID, result); err != nil {
		return err
	}

	if _, err := exec.ExecContext(ctx, `DELETE FROM booking_assets WHERE booking_id = ?`, booking.ID); err != nil {
		return classifyWriteError("UpdateBooking", "booking", booking.ID, err)
	}
	return insertBookingAssets(ctx, exec, "UpdateBooking", booking)
}

func listBookings(ctx context.Context, exec executor, tenantID string, opts ListOptions) ([]domain.Booking, error) {
	opts = opts.Normalize()
	query := `SELECT ` + bookingColumns + ` FROM bookings b
		WHERE b.tenant_id = ? ORDER BY b.from_at DESC, b.rowid DESC LIMIT ? OFFSET ?`

	var rows []bookingRow
	if err := exec.SelectContext(ctx, &rows, query, tenantID, opts.Limit, opts.Offset); err != nil {
		return nil, NewStoreError("ListBookings", "booking", "", err.Error(), err)
	}
	return hydrateBookings(ctx, exec, "ListBookings", rows)
}

func listBookingsHoldingAssets(ctx context.Context, exec executor, tenantID string, assetIDs []string) ([]domain.Booking, error) {
	if len(assetIDs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
		SELECT DISTINCT `+bookingColumns+` FROM bookings b
		JOIN booking_assets ba ON ba.booking_id = b.id
		WHERE b.tenant_id = ?
		  AND b.status IN (?)
		  AND ba.asset_id IN (?)
		ORDER BY b.from_at`,
		tenantID,
		[]string{string(domain.BookingReserved), string(domain.BookingOngoing)},
		assetIDs,
	)
	if err != nil {
		return nil, NewStoreError("ListBookingsHoldingAssets", "booking", "", err.Error(), err)
	}

	var rows []bookingRow
	if err := exec.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, NewStoreError("ListBookingsHoldingAssets", "booking", "", err.Error(), err)
	}
	return hydrateBookings(ctx, exec, "ListBookingsHoldingAssets", rows)
}

// hydrateBookings converts rows and loads their asset IDs in one query.
func hydrateBookings(ctx context.Context, exec executor, op string, rows []bookingRow) ([]domain.Booking, error) {
	bookings := make([]domain.Booking, 0, len(rows))
	if len(rows) == 0 {
		return bookings, nil
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	query, args, err := sqlx.In(`
		SELECT booking_id, asset_id FROM booking_assets
		WHERE booking_id IN (?)
		ORDER BY booking_id, position`, ids)
	if err != nil {
		return nil, NewStoreError(op, "booking", "", err.Error(), err)
	}

	var links []bookingAssetRow
	if err := exec.SelectContext(ctx, &links, query, args...); err != nil {
		return nil, NewStoreError(op, "booking", "", err.Error(), err)
	}

	assetsByBooking := make(map[string][]string, len(rows))
	for _, link := range links {
		assetsByBooking[link.BookingID] = append(assetsByBooking[link.BookingID], link.AssetID)
	}

	for i := range rows {
		booking, err := rowToBooking(&rows[i])
		if err != nil {
			return nil, err
		}
		booking.AssetIDs = assetsByBooking[booking.ID]
		bookings = append(bookings, *booking)
	}
	return bookings, nil
}

func rowToBooking(row *bookingRow) (*domain.Booking, error) {
	custom, err := unmarshalCustomValues(row.CustomValues)
	if err != nil {
		return nil, NewStoreError("rowToBooking", "booking", row.ID, "failed to parse custom values", ErrInvalidData)
	}

	from, err := time.Parse(time.RFC3339, row.FromAt)
	if err != nil {
		return nil, NewStoreError("rowToBooking", "booking", row.ID, "failed to parse start date", ErrInvalidData)
	}
	to, err := time.Parse(time.RFC3339, row.ToAt)
	if err != nil {
		return nil, NewStoreError("rowToBooking", "booking", row.ID, "failed to parse end date", ErrInvalidData)
	}
	createdAt, _ := time.Parse(time.RFC3339, row.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, row.UpdatedAt)

	return &domain.Booking{
		ID:           row.ID,
		TenantID:     row.TenantID,
		Name:         row.Name,
		Description:  row.Description,
		Custodian:    row.Custodian,
		Status:       domain.BookingStatus(row.Status),
		From:         from,
		To:           to,
		CustomValues: custom,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}
