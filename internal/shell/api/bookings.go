package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/artpar/assetdesk/internal/core/auth"
	"github.com/artpar/assetdesk/internal/core/domain"
	"github.com/artpar/assetdesk/internal/core/validation"
	"github.com/artpar/assetdesk/internal/shell/store"
)

// errAssetsBooked carries the conflicting asset IDs out of a transaction.
type errAssetsBooked struct {
	assetIDs []string
}

func (e *errAssetsBooked) Error() string {
	return domain.ErrBookingAssetsBooked.Error()
}

func (e *errAssetsBooked) Unwrap() error {
	return domain.ErrBookingAssetsBooked
}

// =============================================================================
// Booking Handlers
// =============================================================================

func (h *Handler) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := h.authorize(w, r, auth.ResourceBookings, auth.ActionWrite)
	if !ok {
		return
	}

	res, _, ok := h.validateBookingSubmission(w, r, authCtx.TenantID)
	if !ok {
		return
	}

	booking := domain.NewBooking(authCtx.TenantID, res.Data)
	if err := h.store.CreateBooking(r.Context(), booking); err != nil {
		h.logger.Error("failed to create booking", "tenant_id", authCtx.TenantID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to create booking", "internal_error")
		return
	}

	h.logger.Info("booking created", "tenant_id", authCtx.TenantID, "booking_id", booking.ID)
	h.writeJSON(w, http.StatusCreated, booking)
}

func (h *Handler) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := h.authorize(w, r, auth.ResourceBookings, auth.ActionRead)
	if !ok {
		return
	}

	booking, ok := h.loadBooking(w, r, authCtx.TenantID)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, booking)
}

func (h *Handler) handleListBookings(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := h.authorize(w, r, auth.ResourceBookings, auth.ActionRead)
	if !ok {
		return
	}

	opts := listOptions(r)
	bookings, err := h.store.ListBookings(r.Context(), authCtx.TenantID, opts)
	if err != nil {
		h.logger.Error("failed to list bookings", "tenant_id", authCtx.TenantID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list bookings", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusOK, newListResponse(bookings, opts.Limit, opts.Offset))
}

func (h *Handler) handleUpdateBooking(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := h.authorize(w, r, auth.ResourceBookings, auth.ActionWrite)
	if !ok {
		return
	}

	booking, ok := h.loadBooking(w, r, authCtx.TenantID)
	if !ok {
		return
	}
	if booking.Status != domain.BookingDraft && booking.Status != domain.BookingReserved {
		h.writeError(w, http.StatusConflict, fmt.Sprintf("%s bookings cannot be edited", booking.Status), "booking_locked")
		return
	}

	res, customFields, ok := h.validateBookingSubmission(w, r, authCtx.TenantID)
	if !ok {
		return
	}
	booking.Apply(res.Data, customFields)

	h.saveBooking(w, r, booking, http.StatusOK)
}

func (h *Handler) handleTransitionBooking(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := h.authorize(w, r, auth.ResourceBookings, auth.ActionWrite)
	if !ok {
		return
	}

	to := domain.BookingStatus(strings.ToLower(chi.URLParam(r, "status")))
	if !to.IsValid() {
		h.writeError(w, http.StatusBadRequest, "unknown booking status", "invalid_status")
		return
	}

	booking, ok := h.loadBooking(w, r, authCtx.TenantID)
	if !ok {
		return
	}

	from := booking.Status
	if err := booking.Transition(to); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidTransition):
			h.writeError(w, http.StatusConflict, fmt.Sprintf("cannot move booking from %s to %s", from, to), "invalid_transition")
		case errors.Is(err, domain.ErrBookingNoAssets):
			h.writeError(w, http.StatusConflict, err.Error(), "booking_no_assets")
		default:
			h.writeError(w, http.StatusInternalServerError, "failed to change booking status", "internal_error")
		}
		return
	}

	h.logger.Info("booking status changed",
		"tenant_id", authCtx.TenantID,
		"booking_id", booking.ID,
		"from", from,
		"to", to,
	)
	h.saveBooking(w, r, booking, http.StatusOK)
}

// =============================================================================
// Booking Helpers
// =============================================================================

// saveBooking persists the booking after checking that none of its assets
// is held by an overlapping booking. The check and the write share one
// transaction.
func (h *Handler) saveBooking(w http.ResponseWriter, r *http.Request, booking *domain.Booking, status int) {
	ctx := r.Context()
	err := h.store.WithTx(ctx, func(tx store.Store) error {
		if booking.Status.HoldsAssets() {
			holding, err := tx.ListBookingsHoldingAssets(ctx, booking.TenantID, booking.AssetIDs)
			if err != nil {
				return err
			}
			if conflicts := domain.ConflictingAssets(*booking, holding); len(conflicts) > 0 {
				return &errAssetsBooked{assetIDs: conflicts}
			}
		}
		return tx.UpdateBooking(ctx, booking)
	})

	var booked *errAssetsBooked
	switch {
	case err == nil:
		h.writeJSON(w, status, booking)
	case errors.As(err, &booked):
		h.writeJSON(w, http.StatusConflict, ConflictResponse{
			Error:    booked.Error(),
			Code:     "assets_already_booked",
			AssetIDs: booked.assetIDs,
		})
	default:
		h.logger.Error("failed to update booking", "tenant_id", booking.TenantID, "booking_id", booking.ID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to update booking", "internal_error")
	}
}

// loadBooking fetches the booking named in the URL, responding on failure.
func (h *Handler) loadBooking(w http.ResponseWriter, r *http.Request, tenantID string) (*domain.Booking, bool) {
	id := chi.URLParam(r, "id")

	booking, err := h.store.GetBooking(r.Context(), tenantID, id)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "booking not found", "booking_not_found")
			return nil, false
		}
		h.logger.Error("failed to get booking", "tenant_id", tenantID, "booking_id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get booking", "internal_error")
		return nil, false
	}
	return booking, true
}

// validateBookingSubmission validates a booking form against the tenant's
// merged booking schema, then applies the cross-field rules: the period must
// be ordered and every asset must exist and be bookable. customFields lists
// the custom fields of the merged schema.
func (h *Handler) validateBookingSubmission(w http.ResponseWriter, r *http.Request, tenantID string) (res validation.Result, customFields []string, ok bool) {
	sub, err := h.parseSubmission(w, r)
	if err != nil {
		h.writeSubmissionError(w, err)
		return validation.Result{}, nil, false
	}
	sub.close()

	merged, err := h.mergedSchema(r.Context(), tenantID, domain.EntityBooking)
	if err != nil {
		h.writeSchemaError(w, tenantID, domain.EntityBooking, err)
		return validation.Result{}, nil, false
	}

	res = validation.Validate(merged, sub.values)
	if !res.IsValid() {
		h.writeValidation(w, res.Errors, sub.values)
		return validation.Result{}, nil, false
	}

	from, _ := res.Data[domain.BookingFieldFrom].(time.Time)
	to, _ := res.Data[domain.BookingFieldTo].(time.Time)
	if err := domain.ValidateBookingPeriod(from, to); err != nil {
		fromRule, _ := merged.Lookup(domain.BookingFieldFrom)
		toRule, _ := merged.Lookup(domain.BookingFieldTo)
		res = res.WithError(domain.BookingFieldTo,
			fmt.Sprintf("%s must be after %s", toRule.Label, strings.ToLower(fromRule.Label)))
	}

	if res.IsValid() {
		assetIDs, _ := res.Data[domain.BookingFieldAssetIDs].([]string)
		for _, id := range assetIDs {
			asset, err := h.store.GetAsset(r.Context(), tenantID, id)
			if isNotFound(err) {
				res = res.WithError(domain.BookingFieldAssetIDs, fmt.Sprintf("Asset %s does not exist", id))
				break
			}
			if err != nil {
				h.logger.Error("failed to check booking assets", "tenant_id", tenantID, "error", err)
				h.writeError(w, http.StatusInternalServerError, "failed to validate booking", "internal_error")
				return validation.Result{}, nil, false
			}
			if !asset.AvailableToBook {
				res = res.WithError(domain.BookingFieldAssetIDs, fmt.Sprintf("Asset %s is not available to book", asset.Title))
				break
			}
		}
	}

	if !res.IsValid() {
		h.writeValidation(w, res.Errors, sub.values)
		return validation.Result{}, nil, false
	}
	return res, merged.CustomFieldNames(), true
}
