// Package api provides the HTTP API of assetdesk.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/artpar/assetdesk/internal/core/auth"
	"github.com/artpar/assetdesk/internal/core/domain"
	"github.com/artpar/assetdesk/internal/core/validation"
	apimw "github.com/artpar/assetdesk/internal/shell/api/middleware"
	"github.com/artpar/assetdesk/internal/shell/api/openapi"
	"github.com/artpar/assetdesk/internal/shell/store"
)

// =============================================================================
// Handler
// =============================================================================

// ImageStore persists asset images.
type ImageStore interface {
	Save(ctx context.Context, tenantID, assetID, contentType string, r io.Reader, maxBytes int64) (*domain.Image, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Config holds the dependencies of the API handler.
type Config struct {
	Store       store.Store
	Images      ImageStore
	Authorizer  *auth.Authorizer
	Logger      *slog.Logger
	ImagePolicy validation.ImagePolicy
	Auth        apimw.AuthConfig

	// MaxFormMemory is the part of a multipart body kept in memory.
	// Zero means 8 MiB.
	MaxFormMemory int64
}

// Handler provides HTTP handlers for the API.
type Handler struct {
	store         store.Store
	images        ImageStore
	authz         *auth.Authorizer
	logger        *slog.Logger
	imagePolicy   validation.ImagePolicy
	authConfig    apimw.AuthConfig
	maxFormMemory int64
	docs          *openapi.Generator
}

// NewHandler creates a new API handler.
func NewHandler(cfg Config) (*Handler, error) {
	if cfg.Store == nil {
		return nil, errors.New("api: store is required")
	}
	if cfg.Images == nil {
		return nil, errors.New("api: image store is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Authorizer == nil {
		authz, err := auth.NewAuthorizer()
		if err != nil {
			return nil, err
		}
		cfg.Authorizer = authz
	}
	if cfg.ImagePolicy.MaxBytes == 0 && len(cfg.ImagePolicy.AllowedTypes) == 0 {
		cfg.ImagePolicy = validation.DefaultImagePolicy()
	}
	if cfg.MaxFormMemory <= 0 {
		cfg.MaxFormMemory = 8 << 20
	}
	if cfg.Auth.Logger == nil {
		cfg.Auth.Logger = cfg.Logger
	}

	return &Handler{
		store:         cfg.Store,
		images:        cfg.Images,
		authz:         cfg.Authorizer,
		logger:        cfg.Logger,
		imagePolicy:   cfg.ImagePolicy,
		authConfig:    cfg.Auth,
		maxFormMemory: cfg.MaxFormMemory,
		docs:          newDocs(),
	}, nil
}

// Routes returns the router with all routes configured.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.jsonContentType)
	r.Use(h.requestIDHeader)

	r.Get("/health", h.handleHealth)
	r.Get("/ready", h.handleReady)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/openapi.json", h.docs.Handler())

		r.Group(func(r chi.Router) {
			r.Use(apimw.NewAuthMiddleware(h.authConfig).Handler)
			r.Use(apimw.RequireTenant(h.logger))

			r.Route("/assets", func(r chi.Router) {
				r.Post("/", h.handleCreateAsset)
				r.Get("/", h.handleListAssets)
				r.Get("/{id}", h.handleGetAsset)
				r.Put("/{id}", h.handleUpdateAsset)
				r.Delete("/{id}", h.handleDeleteAsset)
				r.Get("/{id}/image", h.handleGetAssetImage)
			})

			r.Route("/bookings", func(r chi.Router) {
				r.Post("/", h.handleCreateBooking)
				r.Get("/", h.handleListBookings)
				r.Get("/{id}", h.handleGetBooking)
				r.Put("/{id}", h.handleUpdateBooking)
				r.Post("/{id}/transition/{status}", h.handleTransitionBooking)
			})

			r.Route("/custom-fields", func(r chi.Router) {
				r.Post("/", h.handleCreateCustomField)
				r.Get("/", h.handleListCustomFields)
				r.Get("/{id}", h.handleGetCustomField)
				r.Put("/{id}", h.handleUpdateCustomField)
				r.Delete("/{id}", h.handleDeactivateCustomField)
			})

			r.Route("/categories", func(r chi.Router) {
				r.Post("/", h.handleCreateCategory)
				r.Get("/", h.handleListCategories)
				r.Get("/{id}", h.handleGetCategory)
			})

			r.Route("/locations", func(r chi.Router) {
				r.Post("/", h.handleCreateLocation)
				r.Get("/", h.handleListLocations)
				r.Get("/{id}", h.handleGetLocation)
			})

			r.Get("/schemas/{entity}", h.handleGetSchema)
		})
	})

	return r
}

// newDocs registers the API resources with the OpenAPI generator.
func newDocs() *openapi.Generator {
	g := openapi.NewGenerator()
	g.RegisterResource(openapi.ResourceInfo{
		Name: "assets", Model: domain.Asset{}, BodyContentType: openapi.ContentMultipart,
		SupportsFind: true, SupportsCreate: true, SupportsUpdate: true, SupportsDelete: true,
	})
	g.RegisterResource(openapi.ResourceInfo{
		Name: "bookings", Model: domain.Booking{}, BodyContentType: openapi.ContentMultipart,
		SupportsFind: true, SupportsCreate: true, SupportsUpdate: true,
	})
	g.RegisterResource(openapi.ResourceInfo{
		Name: "custom-fields", SchemaName: "CustomField", Model: domain.CustomField{},
		SupportsFind: true, SupportsCreate: true, SupportsUpdate: true, SupportsDelete: true,
	})
	g.RegisterResource(openapi.ResourceInfo{
		Name: "categories", Model: domain.Category{}, SupportsFind: true, SupportsCreate: true,
	})
	g.RegisterResource(openapi.ResourceInfo{
		Name: "locations", Model: domain.Location{}, SupportsFind: true, SupportsCreate: true,
	})
	return g
}

// =============================================================================
// Middleware
// =============================================================================

// jsonContentType sets Content-Type header to application/json.
func (h *Handler) jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// requestIDHeader copies the request ID to the response header.
func (h *Handler) requestIDHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			w.Header().Set("X-Request-ID", reqID)
		}
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Health Handlers
// =============================================================================

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"database": "ok"}

	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Warn("readiness check failed", "check", "database", "error", err)
		checks["database"] = "failed"
		h.writeJSON(w, http.StatusServiceUnavailable, ReadyResponse{Status: "not_ready", Checks: checks})
		return
	}

	h.writeJSON(w, http.StatusOK, ReadyResponse{Status: "ready", Checks: checks})
}

// =============================================================================
// Helpers
// =============================================================================

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode JSON", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message, code string) {
	h.writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// writeValidation responds 422 with the field errors and the raw values.
func (h *Handler) writeValidation(w http.ResponseWriter, errs validation.FieldErrors, values map[string][]string) {
	if values == nil {
		values = map[string][]string{}
	}
	h.writeJSON(w, http.StatusUnprocessableEntity, ValidationErrorResponse{Errors: errs, Values: values})
}

// authorize checks the caller's role and responds 403 when denied.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, resource, action string) (auth.Context, bool) {
	authCtx := auth.FromContext(r.Context())
	if !h.authz.Allow(authCtx, resource, action) {
		h.logger.Warn("permission denied",
			"tenant_id", authCtx.TenantID,
			"user_id", authCtx.UserID,
			"role", authCtx.Role,
			"resource", resource,
			"action", action,
		)
		h.writeError(w, http.StatusForbidden, "permission denied", "forbidden")
		return authCtx, false
	}
	return authCtx, true
}

// decodeJSON decodes the request body, responding 400 on failure.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return false
	}
	return true
}

// listOptions reads limit and offset from the query string.
func listOptions(r *http.Request) store.ListOptions {
	opts := store.DefaultListOptions()
	if limit := r.URL.Query().Get("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil {
			opts.Limit = l
		}
	}
	if offset := r.URL.Query().Get("offset"); offset != "" {
		if o, err := strconv.Atoi(offset); err == nil {
			opts.Offset = o
		}
	}
	return opts.Normalize()
}

// isNotFound checks if an error is a not found error.
func isNotFound(err error) bool {
	var storeErr *store.StoreError
	if errors.As(err, &storeErr) {
		return errors.Is(storeErr.Unwrap(), store.ErrNotFound)
	}
	return false
}
