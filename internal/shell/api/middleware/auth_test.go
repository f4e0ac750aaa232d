package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/artpar/assetdesk/internal/core/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Helpers
// =============================================================================

// testHandler echoes the tenant context of the request.
func testHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := auth.FromContext(r.Context())
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"authenticated": ctx.Authenticated,
			"tenant_id":     ctx.TenantID,
			"user_id":       ctx.UserID,
			"role":          string(ctx.Role),
		})
	})
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// =============================================================================
// AuthMiddleware Tests
// =============================================================================

func TestAuthMiddleware_HeaderMode_ExtractsContext(t *testing.T) {
	handler := NewAuthMiddleware(AuthConfig{}).Handler(testHandler())

	req := httptest.NewRequest("GET", "/api/v1/assets", nil)
	req.Header.Set("X-Organization-ID", "org_1")
	req.Header.Set("X-User-ID", "user_123")
	req.Header.Set("X-User-Role", "owner")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, true, resp["authenticated"])
	assert.Equal(t, "org_1", resp["tenant_id"])
	assert.Equal(t, "user_123", resp["user_id"])
	assert.Equal(t, "owner", resp["role"])
}

func TestAuthMiddleware_HeaderMode_NoHeaders(t *testing.T) {
	handler := NewAuthMiddleware(AuthConfig{Mode: ModeHeader, DefaultTenant: "org_dev"}).Handler(testHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	resp := decode(t, rec)
	assert.Equal(t, false, resp["authenticated"])
}

func TestAuthMiddleware_DevMode_FallsBackToDefaultTenant(t *testing.T) {
	handler := NewAuthMiddleware(AuthConfig{Mode: ModeDev, DefaultTenant: "org_dev"}).Handler(testHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	resp := decode(t, rec)
	assert.Equal(t, true, resp["authenticated"])
	assert.Equal(t, "org_dev", resp["tenant_id"])
	assert.Equal(t, "owner", resp["role"])
}

func TestAuthMiddleware_DevMode_HeadersWin(t *testing.T) {
	handler := NewAuthMiddleware(AuthConfig{Mode: ModeDev, DefaultTenant: "org_dev"}).Handler(testHandler())

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Organization-ID", "org_real")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "org_real", decode(t, rec)["tenant_id"])
}

func TestAuthMiddleware_SharedSecret(t *testing.T) {
	handler := NewAuthMiddleware(AuthConfig{SharedSecret: "s3cret"}).Handler(testHandler())

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Organization-ID", "org_1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", decode(t, rec)["code"])

	req.Header.Set("X-Gateway-Secret", "s3cret")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// =============================================================================
// RequireTenant Tests
// =============================================================================

func TestRequireTenant(t *testing.T) {
	handler := NewAuthMiddleware(AuthConfig{}).Handler(RequireTenant(nil)(testHandler()))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, "unauthorized", resp["code"])
	assert.Equal(t, "organization required", resp["error"])

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Organization-ID", "org_1")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
