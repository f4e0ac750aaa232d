package api

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/artpar/assetdesk/internal/core/domain"
	"github.com/artpar/assetdesk/internal/core/schema"
	"github.com/artpar/assetdesk/internal/core/validation"
	"github.com/artpar/assetdesk/internal/shell/media"
)

// errRequestTooLarge marks a body above the hard request limit.
var errRequestTooLarge = errors.New("request body too large")

// =============================================================================
// Form Submissions
// =============================================================================

// submission is one parsed form post: raw field values plus the optional
// primary image.
type submission struct {
	values map[string][]string
	file   multipart.File
	upload *validation.Upload
}

func (s *submission) close() {
	if s.file != nil {
		s.file.Close()
	}
}

// parseSubmission reads a multipart or urlencoded form. The image part's
// content type is sniffed from its bytes.
func (h *Handler) parseSubmission(w http.ResponseWriter, r *http.Request) (*submission, error) {
	limit := h.imagePolicy.MaxBytes*2 + 1<<20
	if h.imagePolicy.MaxBytes <= 0 {
		limit = 64 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	sub := &submission{}

	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(h.maxFormMemory); err != nil {
			return nil, classifyBodyError(err)
		}
		sub.values = r.MultipartForm.Value

		file, header, err := r.FormFile(schema.ImageField)
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			return nil, fmt.Errorf("read image: %w", err)
		default:
			contentType, err := media.DetectContentType(file)
			if err != nil {
				file.Close()
				return nil, err
			}
			sub.file = file
			sub.upload = &validation.Upload{
				Filename:    header.Filename,
				ContentType: contentType,
				Size:        header.Size,
			}
		}

	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, classifyBodyError(err)
		}
		sub.values = r.PostForm

	default:
		return nil, fmt.Errorf("unsupported content type %q", mediaType)
	}

	if sub.values == nil {
		sub.values = map[string][]string{}
	}
	return sub, nil
}

func classifyBodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errRequestTooLarge
	}
	return err
}

// writeSubmissionError responds to a body that could not be parsed.
func (h *Handler) writeSubmissionError(w http.ResponseWriter, err error) {
	if errors.Is(err, errRequestTooLarge) {
		h.writeError(w, http.StatusRequestEntityTooLarge, "request body too large", "request_too_large")
		return
	}
	h.writeError(w, http.StatusBadRequest, "invalid form: "+err.Error(), "validation_error")
}

// =============================================================================
// Validation
// =============================================================================

// mergedSchema builds the effective schema of an entity kind for a tenant.
func (h *Handler) mergedSchema(ctx context.Context, tenantID string, kind domain.EntityKind) (schema.MergedSchema, error) {
	base, err := schema.BaseFor(kind)
	if err != nil {
		return schema.MergedSchema{}, err
	}
	fields, err := h.store.ListActiveCustomFields(ctx, tenantID)
	if err != nil {
		return schema.MergedSchema{}, fmt.Errorf("list custom fields: %w", err)
	}
	return schema.Merge(base, fields)
}

// writeSchemaError responds to a failure building the merged schema.
func (h *Handler) writeSchemaError(w http.ResponseWriter, tenantID string, kind domain.EntityKind, err error) {
	if errors.Is(err, schema.ErrSchemaConfiguration) {
		h.logger.Error("invalid schema configuration",
			"tenant_id", tenantID,
			"entity", kind,
			"error", err,
		)
		h.writeError(w, http.StatusInternalServerError, "form configuration is invalid; contact an administrator", "schema_configuration_error")
		return
	}
	h.logger.Error("failed to build schema", "tenant_id", tenantID, "entity", kind, "error", err)
	h.writeError(w, http.StatusInternalServerError, "failed to load form schema", "internal_error")
}

// checkReferences adds an error for every reference field whose target does
// not exist in the tenant.
func (h *Handler) checkReferences(ctx context.Context, tenantID string, merged schema.MergedSchema, values map[string][]string, res validation.Result) (validation.Result, error) {
	for _, rule := range merged.Rules {
		if rule.Kind != schema.KindReference {
			continue
		}
		if _, failed := res.Errors[rule.Name]; failed {
			continue
		}
		id := firstNonBlank(values[rule.Name])
		if id == "" {
			continue
		}

		var err error
		switch rule.References {
		case "category":
			_, err = h.store.GetCategory(ctx, tenantID, id)
		case "location":
			_, err = h.store.GetLocation(ctx, tenantID, id)
		default:
			continue
		}
		if isNotFound(err) {
			res = res.WithError(rule.Name, rule.Label+" does not exist")
			continue
		}
		if err != nil {
			return res, err
		}
	}
	return res, nil
}

func firstNonBlank(values []string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
