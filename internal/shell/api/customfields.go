package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/artpar/assetdesk/internal/core/auth"
	"github.com/artpar/assetdesk/internal/core/domain"
	"github.com/artpar/assetdesk/internal/core/schema"
	"github.com/artpar/assetdesk/internal/shell/store"
)

// =============================================================================
// Custom Field Handlers
// =============================================================================

func (h *Handler) handleCreateCustomField(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := h.authorize(w, r, auth.ResourceCustomFields, auth.ActionWrite)
	if !ok {
		return
	}

	var req CreateCustomFieldRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	kind := domain.EntityKind(req.EntityKind)
	if kind == "" {
		kind = domain.EntityAsset
	}
	base, err := schema.BaseFor(kind)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrEntityKindInvalid.Error(), "validation_error")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if base.Reserved(req.Name) {
		h.writeError(w, http.StatusBadRequest,
			fmt.Sprintf("%q is a built-in %s field", req.Name, kind), "reserved_name")
		return
	}

	field, err := domain.NewCustomField(authCtx.TenantID, kind, req.Name, domain.FieldType(req.Type), req.Required, req.Options, req.HelpText)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return
	}

	if err := h.store.CreateCustomField(r.Context(), field); err != nil {
		if errors.Is(err, store.ErrDuplicateName) {
			h.writeError(w, http.StatusConflict, "a custom field with this name already exists", "duplicate_name")
			return
		}
		h.logger.Error("failed to create custom field", "tenant_id", authCtx.TenantID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to create custom field", "internal_error")
		return
	}

	h.logger.Info("custom field created",
		"tenant_id", authCtx.TenantID,
		"field_id", field.ID,
		"entity", field.EntityKind,
		"name", field.Name,
	)
	h.writeJSON(w, http.StatusCreated, field)
}

func (h *Handler) handleGetCustomField(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := h.authorize(w, r, auth.ResourceCustomFields, auth.ActionRead)
	if !ok {
		return
	}

	field, ok := h.loadCustomField(w, r, authCtx.TenantID)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, field)
}

// handleListCustomFields lists definitions, optionally filtered by
// ?entity=asset|booking and ?active=true.
func (h *Handler) handleListCustomFields(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := h.authorize(w, r, auth.ResourceCustomFields, auth.ActionRead)
	if !ok {
		return
	}

	kind := domain.EntityKind(r.URL.Query().Get("entity"))
	if kind != "" && !kind.IsValid() {
		h.writeError(w, http.StatusBadRequest, domain.ErrEntityKindInvalid.Error(), "validation_error")
		return
	}

	opts := listOptions(r)
	var (
		fields []domain.CustomField
		err    error
	)
	if r.URL.Query().Get("active") == "true" {
		fields, err = h.store.ListActiveCustomFields(r.Context(), authCtx.TenantID)
		if kind != "" {
			fields = filterByKind(fields, kind)
		}
	} else {
		fields, err = h.store.ListCustomFields(r.Context(), authCtx.TenantID, kind, opts)
	}
	if err != nil {
		h.logger.Error("failed to list custom fields", "tenant_id", authCtx.TenantID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list custom fields", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusOK, newListResponse(fields, opts.Limit, opts.Offset))
}

func (h *Handler) handleUpdateCustomField(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := h.authorize(w, r, auth.ResourceCustomFields, auth.ActionWrite)
	if !ok {
		return
	}

	field, ok := h.loadCustomField(w, r, authCtx.TenantID)
	if !ok {
		return
	}

	var req UpdateCustomFieldRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	fieldType, required, options, helpText := field.Type, field.Required, field.Options, field.HelpText
	if req.Type != nil {
		fieldType = domain.FieldType(*req.Type)
	}
	if req.Required != nil {
		required = *req.Required
	}
	if req.Options != nil {
		options = req.Options
	}
	if req.HelpText != nil {
		helpText = *req.HelpText
	}
	if err := field.Update(fieldType, required, options, helpText); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return
	}
	if req.Active != nil {
		if *req.Active {
			field.Activate()
		} else {
			field.Deactivate()
		}
	}

	h.saveCustomField(w, r, field)
}

// handleDeactivateCustomField stops enforcing a field. Stored values are kept.
func (h *Handler) handleDeactivateCustomField(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := h.authorize(w, r, auth.ResourceCustomFields, auth.ActionWrite)
	if !ok {
		return
	}

	field, ok := h.loadCustomField(w, r, authCtx.TenantID)
	if !ok {
		return
	}
	field.Deactivate()

	h.saveCustomField(w, r, field)
}

// =============================================================================
// Custom Field Helpers
// =============================================================================

func (h *Handler) saveCustomField(w http.ResponseWriter, r *http.Request, field *domain.CustomField) {
	if err := h.store.UpdateCustomField(r.Context(), field); err != nil {
		h.logger.Error("failed to update custom field", "tenant_id", field.TenantID, "field_id", field.ID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to update custom field", "internal_error")
		return
	}
	h.writeJSON(w, http.StatusOK, field)
}

func (h *Handler) loadCustomField(w http.ResponseWriter, r *http.Request, tenantID string) (*domain.CustomField, bool) {
	id := chi.URLParam(r, "id")

	field, err := h.store.GetCustomField(r.Context(), tenantID, id)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "custom field not found", "custom_field_not_found")
			return nil, false
		}
		h.logger.Error("failed to get custom field", "tenant_id", tenantID, "field_id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get custom field", "internal_error")
		return nil, false
	}
	return field, true
}

func filterByKind(fields []domain.CustomField, kind domain.EntityKind) []domain.CustomField {
	out := make([]domain.CustomField, 0, len(fields))
	for _, f := range fields {
		if f.EntityKind == kind {
			out = append(out, f)
		}
	}
	return out
}
