package validation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/artpar/assetdesk/internal/core/schema"
)

// =============================================================================
// Primary Image
// =============================================================================

// Upload describes a received file. ContentType is the sniffed type, not the
// one claimed by the client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
}

// ImagePolicy bounds what the primary image upload may be.
type ImagePolicy struct {
	Required     bool
	MaxBytes     int64
	AllowedTypes []string
}

// DefaultImagePolicy allows common web image formats up to 4 MiB.
func DefaultImagePolicy() ImagePolicy {
	return ImagePolicy{
		MaxBytes:     4 << 20,
		AllowedTypes: []string{"image/jpeg", "image/png", "image/webp", "image/gif"},
	}
}

// File validation failure reasons.
const (
	FileMissing     = "missing"
	FileTypeInvalid = "type"
	FileTooLarge    = "size"
)

// FileValidationError reports a rejected upload. It is user-facing and is
// rendered through the same error map as field errors.
type FileValidationError struct {
	Field   string
	Reason  string
	Message string
}

func (e *FileValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateImage checks the primary image upload against the policy.
// A nil upload means no file was sent. Returns nil when acceptable.
func ValidateImage(upload *Upload, policy ImagePolicy) *FileValidationError {
	if upload == nil || upload.Size == 0 {
		if policy.Required {
			return &FileValidationError{Field: schema.ImageField, Reason: FileMissing, Message: "Image is required"}
		}
		return nil
	}

	mediaType := strings.ToLower(strings.TrimSpace(upload.ContentType))
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}
	if len(policy.AllowedTypes) > 0 && !slices.Contains(policy.AllowedTypes, mediaType) {
		return &FileValidationError{
			Field:   schema.ImageField,
			Reason:  FileTypeInvalid,
			Message: "Image must be one of: " + strings.Join(policy.AllowedTypes, ", "),
		}
	}

	if policy.MaxBytes > 0 && upload.Size > policy.MaxBytes {
		return &FileValidationError{
			Field:   schema.ImageField,
			Reason:  FileTooLarge,
			Message: "Image must be at most " + formatBytes(policy.MaxBytes),
		}
	}

	return nil
}

// ValidateForm validates the form values and the primary image together.
// The image outcome is independent of the field outcomes.
func ValidateForm(s schema.MergedSchema, raw map[string][]string, upload *Upload, policy ImagePolicy) Result {
	return Validate(s, raw).WithFileError(ValidateImage(upload, policy))
}

func formatBytes(n int64) string {
	const unit = 1024
	switch {
	case n >= unit*unit && n%(unit*unit) == 0:
		return fmt.Sprintf("%d MB", n/(unit*unit))
	case n >= unit && n%unit == 0:
		return fmt.Sprintf("%d KB", n/unit)
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}
