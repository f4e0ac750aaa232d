package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Config Loading Tests
// =============================================================================

func TestLoadConfig_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, filepath.Join("data", "assetdesk.db"), cfg.Database.DSN)
	assert.Equal(t, filepath.Join("data", "uploads"), cfg.Storage.UploadDir)
	assert.Equal(t, int64(4<<20), cfg.Storage.MaxImageBytes)
	assert.Equal(t, []string{"image/jpeg", "image/png", "image/webp", "image/gif"}, cfg.Storage.AllowedTypes)
	assert.Equal(t, "dev", cfg.Auth.Mode)
	assert.Equal(t, "org_default", cfg.Auth.DefaultTenant)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Empty(t, cfg.Seed.Path)
}

func TestLoadConfig_FromFile(t *testing.T) {
	clearEnv(t)

	configContent := `
server:
  host: "127.0.0.1"
  port: 9000
  read_timeout: 60s
  shutdown_timeout: 15s

database:
  dsn: "/tmp/test.db"

log:
  level: "debug"
  format: "text"

storage:
  upload_dir: "/tmp/uploads"
  max_image_bytes: 1048576
  allowed_types: ["image/png"]

auth:
  mode: header
  shared_secret: s3cret

seed:
  path: fields.yaml
`
	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(configContent), 0644))

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "/tmp/test.db", cfg.Database.DSN)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "/tmp/uploads", cfg.Storage.UploadDir)
	assert.Equal(t, int64(1048576), cfg.Storage.MaxImageBytes)
	assert.Equal(t, []string{"image/png"}, cfg.Storage.AllowedTypes)
	assert.Equal(t, "header", cfg.Auth.Mode)
	assert.Equal(t, "s3cret", cfg.Auth.SharedSecret)
	assert.Equal(t, "fields.yaml", cfg.Seed.Path)
}

func TestLoadConfig_EnvironmentOverride(t *testing.T) {
	clearEnv(t)

	t.Setenv("ASSETDESK_SERVER_HOST", "192.168.1.1")
	t.Setenv("ASSETDESK_SERVER_PORT", "3000")
	t.Setenv("ASSETDESK_DATABASE_DSN", "/custom/path.db")
	t.Setenv("ASSETDESK_LOG_LEVEL", "warn")
	t.Setenv("ASSETDESK_AUTH_MODE", "header")
	t.Setenv("ASSETDESK_STORAGE_MAX_IMAGE_BYTES", "2048")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "192.168.1.1", cfg.Server.Host)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "/custom/path.db", cfg.Database.DSN)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "header", cfg.Auth.Mode)
	assert.Equal(t, int64(2048), cfg.Storage.MaxImageBytes)
}

func TestLoadConfig_DataDirDerivesPaths(t *testing.T) {
	clearEnv(t)

	t.Setenv("ASSETDESK_DATA_DIR", "/var/lib/assetdesk")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/assetdesk/assetdesk.db", cfg.Database.DSN)
	assert.Equal(t, "/var/lib/assetdesk/uploads", cfg.Storage.UploadDir)
}

func TestLoadConfig_ExplicitDSNOverridesDataDir(t *testing.T) {
	clearEnv(t)

	t.Setenv("ASSETDESK_DATA_DIR", "/var/lib/assetdesk")
	t.Setenv("ASSETDESK_DATABASE_DSN", "/custom/path.db")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "/custom/path.db", cfg.Database.DSN)
	assert.Equal(t, "/var/lib/assetdesk/uploads", cfg.Storage.UploadDir)
}

func TestLoadConfig_FileNotFound_UsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("/nonexistent/path/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	clearEnv(t)

	tmpFile := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte("invalid: yaml: content: [[["), 0644))

	_, err := LoadConfig(tmpFile)
	assert.Error(t, err)
}

func TestLoadConfig_RejectsUnknownAuthMode(t *testing.T) {
	clearEnv(t)

	t.Setenv("ASSETDESK_AUTH_MODE", "none")

	_, err := LoadConfig("")
	assert.ErrorContains(t, err, "auth.mode")
}

// =============================================================================
// Config Validation Tests
// =============================================================================

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Auth:    AuthConfig{Mode: "dev", DefaultTenant: "org_1"},
			Storage: StorageConfig{MaxImageBytes: 1024, AllowedTypes: []string{"image/png"}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"header mode without tenant", func(c *Config) { c.Auth = AuthConfig{Mode: "header"} }, ""},
		{"dev mode without tenant", func(c *Config) { c.Auth.DefaultTenant = "" }, "auth.default_tenant"},
		{"zero image size", func(c *Config) { c.Storage.MaxImageBytes = 0 }, "storage.max_image_bytes"},
		{"no image types", func(c *Config) { c.Storage.AllowedTypes = nil }, "storage.allowed_types"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestConfig_Address(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
	}

	assert.Equal(t, "localhost:8080", cfg.Server.Address())
}

// =============================================================================
// Logger Setup Tests
// =============================================================================

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		level  string
		format string
	}{
		{"info", "json"},
		{"info", "text"},
		{"invalid", "json"},
		{"debug", "json"},
		{"warn", "json"},
		{"error", "json"},
	}
	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			logger := SetupLogger(&Config{Log: LogConfig{Level: tt.level, Format: tt.format}})
			assert.NotNil(t, logger)
		})
	}
}

// =============================================================================
// Test Helpers
// =============================================================================

func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"ASSETDESK_DATA_DIR",
		"ASSETDESK_SERVER_HOST",
		"ASSETDESK_SERVER_PORT",
		"ASSETDESK_DATABASE_DSN",
		"ASSETDESK_LOG_LEVEL",
		"ASSETDESK_LOG_FORMAT",
		"ASSETDESK_AUTH_MODE",
		"ASSETDESK_STORAGE_MAX_IMAGE_BYTES",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}
}
