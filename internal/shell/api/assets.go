package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/artpar/assetdesk/internal/core/auth"
	"github.com/artpar/assetdesk/internal/core/domain"
	"github.com/artpar/assetdesk/internal/core/schema"
	"github.com/artpar/assetdesk/internal/core/validation"
	"github.com/artpar/assetdesk/internal/shell/media"
)

// =============================================================================
// Asset Handlers
// =============================================================================

func (h *Handler) handleCreateAsset(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := h.authorize(w, r, auth.ResourceAssets, auth.ActionWrite)
	if !ok {
		return
	}

	sub, res, _, ok := h.validateAssetSubmission(w, r, authCtx.TenantID)
	if !ok {
		return
	}
	defer sub.close()

	asset := domain.NewAsset(authCtx.TenantID, res.Data)
	if !h.storeAssetImage(w, r, asset, sub) {
		return
	}

	if err := h.store.CreateAsset(r.Context(), asset); err != nil {
		h.discardImage(r, asset.Image)
		h.logger.Error("failed to create asset", "tenant_id", authCtx.TenantID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to create asset", "internal_error")
		return
	}

	h.logger.Info("asset created", "tenant_id", authCtx.TenantID, "asset_id", asset.ID)
	h.writeJSON(w, http.StatusCreated, asset)
}

func (h *Handler) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := h.authorize(w, r, auth.ResourceAssets, auth.ActionRead)
	if !ok {
		return
	}

	asset, ok := h.loadAsset(w, r, authCtx.TenantID)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, asset)
}

func (h *Handler) handleListAssets(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := h.authorize(w, r, auth.ResourceAssets, auth.ActionRead)
	if !ok {
		return
	}

	opts := listOptions(r)
	assets, err := h.store.ListAssets(r.Context(), authCtx.TenantID, opts)
	if err != nil {
		h.logger.Error("failed to list assets", "tenant_id", authCtx.TenantID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list assets", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusOK, newListResponse(assets, opts.Limit, opts.Offset))
}

func (h *Handler) handleUpdateAsset(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := h.authorize(w, r, auth.ResourceAssets, auth.ActionWrite)
	if !ok {
		return
	}

	asset, ok := h.loadAsset(w, r, authCtx.TenantID)
	if !ok {
		return
	}

	sub, res, customFields, ok := h.validateAssetSubmission(w, r, authCtx.TenantID)
	if !ok {
		return
	}
	defer sub.close()

	previous := asset.Image
	asset.Apply(res.Data, customFields)
	if !h.storeAssetImage(w, r, asset, sub) {
		return
	}
	replaced := asset.Image != previous

	if err := h.store.UpdateAsset(r.Context(), asset); err != nil {
		// The stored row still points at the previous version.
		if replaced {
			h.discardImage(r, asset.Image)
		}
		h.logger.Error("failed to update asset", "tenant_id", authCtx.TenantID, "asset_id", asset.ID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to update asset", "internal_error")
		return
	}

	if replaced {
		h.discardImage(r, previous)
	}

	h.writeJSON(w, http.StatusOK, asset)
}

func (h *Handler) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := h.authorize(w, r, auth.ResourceAssets, auth.ActionWrite)
	if !ok {
		return
	}

	asset, ok := h.loadAsset(w, r, authCtx.TenantID)
	if !ok {
		return
	}

	if err := h.store.DeleteAsset(r.Context(), authCtx.TenantID, asset.ID); err != nil {
		h.logger.Error("failed to delete asset", "tenant_id", authCtx.TenantID, "asset_id", asset.ID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to delete asset", "internal_error")
		return
	}
	h.discardImage(r, asset.Image)

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetAssetImage(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := h.authorize(w, r, auth.ResourceAssets, auth.ActionRead)
	if !ok {
		return
	}

	asset, ok := h.loadAsset(w, r, authCtx.TenantID)
	if !ok {
		return
	}
	if asset.Image == nil {
		h.writeError(w, http.StatusNotFound, "asset has no image", "image_not_found")
		return
	}

	rc, err := h.images.Open(r.Context(), asset.Image.Key)
	if err != nil {
		if errors.Is(err, media.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "image not found", "image_not_found")
			return
		}
		h.logger.Error("failed to open image", "tenant_id", authCtx.TenantID, "key", asset.Image.Key, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to open image", "internal_error")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", asset.Image.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(asset.Image.Size, 10))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("failed to stream image", "key", asset.Image.Key, "error", err)
	}
}

// =============================================================================
// Asset Helpers
// =============================================================================

// loadAsset fetches the asset named in the URL, responding on failure.
func (h *Handler) loadAsset(w http.ResponseWriter, r *http.Request, tenantID string) (*domain.Asset, bool) {
	id := chi.URLParam(r, "id")

	asset, err := h.store.GetAsset(r.Context(), tenantID, id)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "asset not found", "asset_not_found")
			return nil, false
		}
		h.logger.Error("failed to get asset", "tenant_id", tenantID, "asset_id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get asset", "internal_error")
		return nil, false
	}
	return asset, true
}

// validateAssetSubmission parses and validates an asset form against the
// tenant's merged asset schema. customFields lists the custom fields of that
// schema. It responds itself unless ok is true.
func (h *Handler) validateAssetSubmission(w http.ResponseWriter, r *http.Request, tenantID string) (sub *submission, res validation.Result, customFields []string, ok bool) {
	sub, err := h.parseSubmission(w, r)
	if err != nil {
		h.writeSubmissionError(w, err)
		return nil, validation.Result{}, nil, false
	}

	merged, err := h.mergedSchema(r.Context(), tenantID, domain.EntityAsset)
	if err != nil {
		sub.close()
		h.writeSchemaError(w, tenantID, domain.EntityAsset, err)
		return nil, validation.Result{}, nil, false
	}

	res = validation.ValidateForm(merged, sub.values, sub.upload, h.imagePolicy)
	res, err = h.checkReferences(r.Context(), tenantID, merged, sub.values, res)
	if err != nil {
		sub.close()
		h.logger.Error("failed to check references", "tenant_id", tenantID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to validate asset", "internal_error")
		return nil, validation.Result{}, nil, false
	}

	if !res.IsValid() {
		sub.close()
		h.writeValidation(w, res.Errors, sub.values)
		return nil, validation.Result{}, nil, false
	}
	return sub, res, merged.CustomFieldNames(), true
}

// storeAssetImage saves an accepted upload and attaches it to the asset.
func (h *Handler) storeAssetImage(w http.ResponseWriter, r *http.Request, asset *domain.Asset, sub *submission) bool {
	if sub.upload == nil || sub.upload.Size == 0 {
		return true
	}

	img, err := h.images.Save(r.Context(), asset.TenantID, asset.ID, sub.upload.ContentType, sub.file, h.imagePolicy.MaxBytes)
	if err != nil {
		if errors.Is(err, media.ErrTooLarge) {
			h.writeValidation(w, validation.FieldErrors{
				schema.ImageField: "Image is too large",
			}, sub.values)
			return false
		}
		h.logger.Error("failed to store image", "tenant_id", asset.TenantID, "asset_id", asset.ID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to store image", "internal_error")
		return false
	}
	asset.SetImage(img)
	return true
}

// discardImage removes a stored image, logging failures.
func (h *Handler) discardImage(r *http.Request, img *domain.Image) {
	if img == nil {
		return
	}
	if err := h.images.Delete(r.Context(), img.Key); err != nil {
		h.logger.Warn("failed to delete image", "key", img.Key, "error", err)
	}
}
