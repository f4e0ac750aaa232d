package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Booking Errors
// =============================================================================

var (
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrBookingPeriodOrder  = errors.New("end date must be after start date")
	ErrBookingNoAssets     = errors.New("booking must include at least one asset")
	ErrBookingAssetsBooked = errors.New("one or more assets are already booked for this period")
)

// =============================================================================
// Booking Field Keys
// =============================================================================

// Form keys of the booking base fields.
const (
	BookingFieldName        = "name"
	BookingFieldDescription = "description"
	BookingFieldCustodian   = "custodian"
	BookingFieldAssetIDs    = "asset_ids"
	BookingFieldFrom        = "from"
	BookingFieldTo          = "to"
)

// =============================================================================
// Booking Status
// =============================================================================

type BookingStatus string

const (
	BookingDraft     BookingStatus = "draft"
	BookingReserved  BookingStatus = "reserved"
	BookingOngoing   BookingStatus = "ongoing"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
	BookingArchived  BookingStatus = "archived"
)

// IsValid checks if the status is known.
func (s BookingStatus) IsValid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

// HoldsAssets reports whether bookings in this status block their assets
// for other bookings in an overlapping period.
func (s BookingStatus) HoldsAssets() bool {
	return s == BookingReserved || s == BookingOngoing
}

// =============================================================================
// Booking
// =============================================================================

// Booking reserves a set of assets for a custodian over a period.
type Booking struct {
	ID           string         `json:"id"`
	TenantID     string         `json:"tenant_id"`
	Name         string         `json:"name"`
	Description  string         `json:"description,omitempty"`
	Custodian    string         `json:"custodian"`
	AssetIDs     []string       `json:"asset_ids"`
	From         time.Time      `json:"from"`
	To           time.Time      `json:"to"`
	Status       BookingStatus  `json:"status"`
	CustomValues map[string]any `json:"custom_values,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// NewBooking builds a draft booking from validated form values.
// The period must already have been checked with ValidateBookingPeriod.
func NewBooking(tenantID string, values map[string]any) *Booking {
	now := time.Now().UTC()
	b := &Booking{
		ID:        "bkg_" + uuid.New().String()[:8],
		TenantID:  tenantID,
		Status:    BookingDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	b.Apply(values, nil)
	return b
}

// Apply replaces the booking's editable fields with validated form values.
// customFields works as in Asset.Apply.
func (b *Booking) Apply(values map[string]any, customFields []string) {
	b.Name = stringValue(values[BookingFieldName])
	b.Description = stringValue(values[BookingFieldDescription])
	b.Custodian = stringValue(values[BookingFieldCustodian])
	b.AssetIDs = stringSliceValue(values[BookingFieldAssetIDs])
	b.From, _ = values[BookingFieldFrom].(time.Time)
	b.To, _ = values[BookingFieldTo].(time.Time)

	b.CustomValues = mergeCustomValues(b.CustomValues, values, customFields, isBookingBaseField)
	b.UpdatedAt = time.Now().UTC()
}

func isBookingBaseField(key string) bool {
	switch key {
	case BookingFieldName, BookingFieldDescription, BookingFieldCustodian,
		BookingFieldAssetIDs, BookingFieldFrom, BookingFieldTo:
		return true
	default:
		return false
	}
}

// Transition attempts to move the booking to a new status.
func (b *Booking) Transition(to BookingStatus) error {
	if err := ValidateBookingTransition(b.Status, to); err != nil {
		return err
	}
	if to == BookingReserved && len(b.AssetIDs) == 0 {
		return ErrBookingNoAssets
	}
	b.Status = to
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// Overlaps reports whether the two bookings share any instant.
func (b *Booking) Overlaps(other Booking) bool {
	return b.From.Before(other.To) && other.From.Before(b.To)
}

// =============================================================================
// State Machine
// =============================================================================

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingDraft:     {BookingReserved, BookingCancelled},
	BookingReserved:  {BookingOngoing, BookingCancelled},
	BookingOngoing:   {BookingCompleted, BookingCancelled},
	BookingCompleted: {BookingArchived},
	BookingCancelled: {BookingArchived},
	BookingArchived:  {}, // Terminal state
}

// ValidateBookingTransition checks if a status transition is valid.
func ValidateBookingTransition(from, to BookingStatus) error {
	allowed, exists := bookingTransitions[from]
	if !exists {
		return ErrInvalidTransition
	}
	for _, s := range allowed {
		if s == to {
			return nil
		}
	}
	return ErrInvalidTransition
}

// ValidateBookingPeriod checks that the period is non-empty and ordered.
func ValidateBookingPeriod(from, to time.Time) error {
	if !to.After(from) {
		return ErrBookingPeriodOrder
	}
	return nil
}

// ConflictingAssets returns the asset IDs of b that are held by any of the
// other bookings during an overlapping period. Bookings with the same ID
// are ignored.
func ConflictingAssets(b Booking, others []Booking) []string {
	wanted := make(map[string]bool, len(b.AssetIDs))
	for _, id := range b.AssetIDs {
		wanted[id] = true
	}

	var conflicts []string
	seen := make(map[string]bool)
	for _, other := range others {
		if other.ID == b.ID || !other.Status.HoldsAssets() || !b.Overlaps(other) {
			continue
		}
		for _, id := range other.AssetIDs {
			if wanted[id] && !seen[id] {
				seen[id] = true
				conflicts = append(conflicts, id)
			}
		}
	}
	return conflicts
}
