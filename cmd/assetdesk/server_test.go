package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/assetdesk/internal/core/domain"
	"github.com/artpar/assetdesk/internal/shell/store"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	return &Config{
		Database: DatabaseConfig{DSN: filepath.Join(dir, "db", "assetdesk.db")},
		Storage: StorageConfig{
			UploadDir:     filepath.Join(dir, "uploads"),
			MaxImageBytes: 1 << 20,
			AllowedTypes:  []string{"image/png"},
		},
		Auth: AuthConfig{Mode: "dev", DefaultTenant: "org_1"},
	}
}

func TestNewServer_AppliesSeed(t *testing.T) {
	cfg := testConfig(t)
	seedFile := filepath.Join(t.TempDir(), "fields.yaml")
	require.NoError(t, os.WriteFile(seedFile, []byte(`
tenants:
  - tenant: org_1
    fields:
      - {entity: asset, name: serial_number, type: text, required: true}
`), 0644))
	cfg.Seed.Path = seedFile

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := NewServer(context.Background(), cfg, logger)
	require.NoError(t, err)
	defer srv.store.Close()

	fields, err := srv.store.ListCustomFields(context.Background(), "org_1", domain.EntityAsset, store.DefaultListOptions())
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, "serial_number", fields[0].Name)
	assert.DirExists(t, cfg.Storage.UploadDir)
}

func TestNewServer_InvalidSeed(t *testing.T) {
	cfg := testConfig(t)
	seedFile := filepath.Join(t.TempDir(), "fields.yaml")
	require.NoError(t, os.WriteFile(seedFile, []byte("tenants: [unclosed"), 0644))
	cfg.Seed.Path = seedFile

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, err := NewServer(context.Background(), cfg, logger)

	var sErr *ServerError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, ExitSeedError, sErr.ExitCode)
}

func TestServerError(t *testing.T) {
	inner := assert.AnError
	err := &ServerError{Op: "Start", Err: inner, ExitCode: ExitHTTPServerError}

	assert.Equal(t, "Start: "+inner.Error(), err.Error())
	assert.ErrorIs(t, err, inner)
}
