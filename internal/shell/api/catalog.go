package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/artpar/assetdesk/internal/core/auth"
	"github.com/artpar/assetdesk/internal/core/domain"
	"github.com/artpar/assetdesk/internal/shell/store"
)

// =============================================================================
// Category Handlers
// =============================================================================

func (h *Handler) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := h.authorize(w, r, auth.ResourceCatalog, auth.ActionWrite)
	if !ok {
		return
	}

	var req CreateCategoryRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	category, err := domain.NewCategory(authCtx.TenantID, req.Name, req.Color)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return
	}

	if err := h.store.CreateCategory(r.Context(), category); err != nil {
		h.writeCatalogWriteError(w, "category", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, category)
}

func (h *Handler) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := h.authorize(w, r, auth.ResourceCatalog, auth.ActionRead)
	if !ok {
		return
	}

	category, err := h.store.GetCategory(r.Context(), authCtx.TenantID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeCatalogReadError(w, "category", err)
		return
	}
	h.writeJSON(w, http.StatusOK, category)
}

func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := h.authorize(w, r, auth.ResourceCatalog, auth.ActionRead)
	if !ok {
		return
	}

	opts := listOptions(r)
	categories, err := h.store.ListCategories(r.Context(), authCtx.TenantID, opts)
	if err != nil {
		h.writeCatalogReadError(w, "categories", err)
		return
	}
	h.writeJSON(w, http.StatusOK, newListResponse(categories, opts.Limit, opts.Offset))
}

// =============================================================================
// Location Handlers
// =============================================================================

func (h *Handler) handleCreateLocation(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := h.authorize(w, r, auth.ResourceCatalog, auth.ActionWrite)
	if !ok {
		return
	}

	var req CreateLocationRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	location, err := domain.NewLocation(authCtx.TenantID, req.Name, req.Address)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return
	}

	if err := h.store.CreateLocation(r.Context(), location); err != nil {
		h.writeCatalogWriteError(w, "location", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, location)
}

func (h *Handler) handleGetLocation(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := h.authorize(w, r, auth.ResourceCatalog, auth.ActionRead)
	if !ok {
		return
	}

	location, err := h.store.GetLocation(r.Context(), authCtx.TenantID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeCatalogReadError(w, "location", err)
		return
	}
	h.writeJSON(w, http.StatusOK, location)
}

func (h *Handler) handleListLocations(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := h.authorize(w, r, auth.ResourceCatalog, auth.ActionRead)
	if !ok {
		return
	}

	opts := listOptions(r)
	locations, err := h.store.ListLocations(r.Context(), authCtx.TenantID, opts)
	if err != nil {
		h.writeCatalogReadError(w, "locations", err)
		return
	}
	h.writeJSON(w, http.StatusOK, newListResponse(locations, opts.Limit, opts.Offset))
}

// =============================================================================
// Catalog Helpers
// =============================================================================

func (h *Handler) writeCatalogWriteError(w http.ResponseWriter, entity string, err error) {
	if errors.Is(err, store.ErrDuplicateName) {
		h.writeError(w, http.StatusConflict, "a "+entity+" with this name already exists", "duplicate_name")
		return
	}
	h.logger.Error("failed to create "+entity, "error", err)
	h.writeError(w, http.StatusInternalServerError, "failed to create "+entity, "internal_error")
}

func (h *Handler) writeCatalogReadError(w http.ResponseWriter, entity string, err error) {
	if isNotFound(err) {
		h.writeError(w, http.StatusNotFound, entity+" not found", entity+"_not_found")
		return
	}
	h.logger.Error("failed to read "+entity, "error", err)
	h.writeError(w, http.StatusInternalServerError, "failed to read "+entity, "internal_error")
}
