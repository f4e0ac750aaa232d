// Package media stores asset images on local disk.
//
// Images are addressed by an opaque key of the form
// "<tenant>/<asset>-<version><ext>". Every save gets a new version, so a
// replacement never overwrites the image a stored asset still points at.
// The content type is sniffed from the bytes, never taken from the client.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/artpar/assetdesk/internal/core/domain"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrNotFound is returned when no object exists for a key.
	ErrNotFound = errors.New("media object not found")

	// ErrInvalidKey is returned for keys that escape the store root.
	ErrInvalidKey = errors.New("invalid media key")

	// ErrTooLarge is returned when the content exceeds the size limit.
	ErrTooLarge = errors.New("media object too large")
)

// =============================================================================
// Content Sniffing
// =============================================================================

// DetectContentType sniffs the MIME type of r and rewinds it.
// Parameters such as charset are dropped.
func DetectContentType(r io.ReadSeeker) (string, error) {
	mt, err := mimetype.DetectReader(r)
	if err != nil {
		return "", fmt.Errorf("detect content type: %w", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}
	contentType, _, _ := strings.Cut(mt.String(), ";")
	return strings.TrimSpace(contentType), nil
}

// extensionFor returns the file extension registered for a content type.
func extensionFor(contentType string) string {
	if mt := mimetype.Lookup(contentType); mt != nil {
		return mt.Extension()
	}
	return ""
}

// =============================================================================
// DiskStore
// =============================================================================

// DiskStore keeps objects as files below a root directory.
type DiskStore struct {
	root string
}

// NewDiskStore creates the root directory if needed.
func NewDiskStore(root string) (*DiskStore, error) {
	if root == "" {
		return nil, errors.New("media root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	return &DiskStore{root: root}, nil
}

// Save writes a new image version for an asset. Earlier versions are left
// in place for the caller to delete. maxBytes <= 0 disables the size check.
func (s *DiskStore) Save(ctx context.Context, tenantID, assetID, contentType string, r io.Reader, maxBytes int64) (*domain.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if tenantID == "" || assetID == "" || strings.ContainsAny(tenantID+assetID, `/\`) {
		return nil, ErrInvalidKey
	}

	key := path.Join(tenantID, assetID+"-"+uuid.New().String()[:8]+extensionFor(contentType))
	target, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, fmt.Errorf("create tenant directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	src := r
	if maxBytes > 0 {
		src = io.LimitReader(r, maxBytes+1)
	}
	size, err := io.Copy(tmp, src)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, fmt.Errorf("write media object: %w", err)
	}
	if maxBytes > 0 && size > maxBytes {
		return nil, ErrTooLarge
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		return nil, fmt.Errorf("store media object: %w", err)
	}

	return &domain.Image{Key: key, ContentType: contentType, Size: size}, nil
}

// Open returns a reader for the object stored under key.
func (s *DiskStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	target, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(target)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open media object: %w", err)
	}
	return f, nil
}

// Delete removes the object stored under key. Missing objects are ignored.
func (s *DiskStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete media object: %w", err)
	}
	return nil
}

// resolve maps a key to a path below the root.
func (s *DiskStore) resolve(key string) (string, error) {
	if key == "" || path.IsAbs(key) || strings.Contains(key, `\`) {
		return "", ErrInvalidKey
	}
	clean := path.Clean(key)
	if clean != key || clean == "." || strings.HasPrefix(clean, "../") || clean == ".." {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}
