package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/artpar/assetdesk/internal/core/auth"
	"github.com/artpar/assetdesk/internal/core/domain"
	"github.com/artpar/assetdesk/internal/core/schema"
)

// handleGetSchema returns the tenant's merged schema for an entity kind.
// ?format=openapi renders it as an OpenAPI schema object.
func (h *Handler) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := h.authorize(w, r, auth.ResourceCustomFields, auth.ActionRead)
	if !ok {
		return
	}

	kind := domain.EntityKind(chi.URLParam(r, "entity"))
	if !kind.IsValid() {
		h.writeError(w, http.StatusNotFound, "unknown entity", "unknown_entity")
		return
	}

	merged, err := h.mergedSchema(r.Context(), authCtx.TenantID, kind)
	if err != nil {
		h.writeSchemaError(w, authCtx.TenantID, kind, err)
		return
	}

	if r.URL.Query().Get("format") == "openapi" {
		h.writeJSON(w, http.StatusOK, schema.ToOpenAPI(merged))
		return
	}
	h.writeJSON(w, http.StatusOK, merged)
}
