// Package middleware provides HTTP middleware for the assetdesk API.
package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/artpar/assetdesk/internal/core/auth"
)

// =============================================================================
// Auth Configuration
// =============================================================================

// Auth modes.
const (
	// ModeHeader trusts the organization headers injected by the gateway.
	ModeHeader = "header"

	// ModeDev falls back to DefaultTenant when no organization is sent.
	// Never use it behind a public listener.
	ModeDev = "dev"
)

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	// Mode is ModeHeader or ModeDev. Empty means ModeHeader.
	Mode string

	// DefaultTenant is used in ModeDev when no tenant is sent.
	DefaultTenant string

	// SharedSecret is an optional secret to validate X-Gateway-Secret header.
	// If empty, secret validation is skipped.
	SharedSecret string

	// Logger for auth middleware logging.
	Logger *slog.Logger
}

// =============================================================================
// Auth Middleware
// =============================================================================

// AuthMiddleware extracts the tenant context from request headers
// and stores it in the request context.
type AuthMiddleware struct {
	config AuthConfig
}

// NewAuthMiddleware creates a new auth middleware with the given config.
func NewAuthMiddleware(cfg AuthConfig) *AuthMiddleware {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeHeader
	}
	return &AuthMiddleware{config: cfg}
}

// Handler returns the middleware handler function.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.config.SharedSecret != "" {
			if r.Header.Get(auth.HeaderGatewaySecret) != m.config.SharedSecret {
				m.config.Logger.Warn("invalid gateway secret",
					"remote_addr", r.RemoteAddr,
					"path", r.URL.Path,
				)
				writeJSONError(w, http.StatusForbidden, "invalid gateway secret", "forbidden")
				return
			}
		}

		ctx := auth.ExtractFromRequest(r)

		if !ctx.Authenticated && m.config.Mode == ModeDev && m.config.DefaultTenant != "" {
			ctx = auth.Context{
				TenantID:      m.config.DefaultTenant,
				UserID:        "dev",
				Role:          auth.RoleOwner,
				Authenticated: true,
			}
		}

		r = r.WithContext(auth.WithContext(r.Context(), ctx))

		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Require Tenant Middleware
// =============================================================================

// RequireTenant is a middleware that rejects requests without a tenant.
// Must be used AFTER AuthMiddleware.
func RequireTenant(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := auth.FromContext(r.Context())

			if ok, reason := auth.RequireTenant(ctx); !ok {
				logger.Warn("request without organization",
					"remote_addr", r.RemoteAddr,
					"path", r.URL.Path,
					"method", r.Method,
				)
				writeJSONError(w, http.StatusUnauthorized, reason, "unauthorized")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// =============================================================================
// JSON Error Response
// =============================================================================

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSONError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: message, Code: code})
}
