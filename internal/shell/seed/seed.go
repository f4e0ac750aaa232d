// Package seed loads custom field definitions from a YAML file.
//
// A seed file lists, per tenant, the custom fields that should exist:
//
//	tenants:
//	  - tenant: org_acme
//	    fields:
//	      - entity: asset
//	        name: warranty_months
//	        type: number
//	        required: true
//
// Applying a seed is idempotent. Fields are matched by tenant, entity kind
// and name; existing definitions are left untouched.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/artpar/assetdesk/internal/core/domain"
	"github.com/artpar/assetdesk/internal/core/schema"
	"github.com/artpar/assetdesk/internal/shell/store"
)

//go:embed seed.schema.json
var seedSchemaJSON []byte

// ErrInvalidSeed is returned when a seed document does not match the
// expected shape or defines an invalid field.
var ErrInvalidSeed = errors.New("invalid seed file")

// =============================================================================
// File Format
// =============================================================================

// File is a parsed seed document.
type File struct {
	Tenants []TenantFields `yaml:"tenants"`
}

// TenantFields lists the custom fields of one tenant.
type TenantFields struct {
	Tenant string      `yaml:"tenant"`
	Fields []FieldSpec `yaml:"fields"`
}

// FieldSpec describes one custom field definition.
type FieldSpec struct {
	Entity   string   `yaml:"entity"`
	Name     string   `yaml:"name"`
	Type     string   `yaml:"type"`
	Required bool     `yaml:"required"`
	HelpText string   `yaml:"help_text"`
	Options  []string `yaml:"options"`
}

// LoadFile reads and parses a seed file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Parse validates a YAML seed document against the seed JSON Schema and
// decodes it.
func Parse(data []byte) (*File, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}
	if err := validateDocument(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}
	return &f, nil
}

// validateDocument checks a decoded YAML document against the embedded
// schema. The document is round-tripped through JSON so that the validator
// sees JSON value types.
func validateDocument(doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return err
	}

	schemaDoc, err := jsonschema.UnmarshalJSON(bytes.NewReader(seedSchemaJSON))
	if err != nil {
		return fmt.Errorf("unmarshal seed schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("seed.schema.json", schemaDoc); err != nil {
		return fmt.Errorf("add seed schema: %w", err)
	}
	sch, err := c.Compile("seed.schema.json")
	if err != nil {
		return fmt.Errorf("compile seed schema: %w", err)
	}
	return sch.Validate(instance)
}

// =============================================================================
// Seeder
// =============================================================================

// FieldStore is the subset of the store the seeder writes through.
type FieldStore interface {
	ListCustomFields(ctx context.Context, tenantID string, kind domain.EntityKind, opts store.ListOptions) ([]domain.CustomField, error)
	CreateCustomField(ctx context.Context, field *domain.CustomField) error
}

// Result counts what a seed run did.
type Result struct {
	Created int
	Skipped int
}

// Seeder applies seed files to a store.
type Seeder struct {
	store  FieldStore
	logger *slog.Logger
}

// NewSeeder creates a Seeder.
func NewSeeder(s FieldStore, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{store: s, logger: logger}
}

// Apply creates every field in f that does not exist yet.
// The first invalid definition aborts the run; fields created before it
// are kept, so a corrected file can simply be applied again.
func (s *Seeder) Apply(ctx context.Context, f *File) (Result, error) {
	var res Result
	for _, tenant := range f.Tenants {
		existing, err := s.store.ListCustomFields(ctx, tenant.Tenant, "", store.ListOptions{Limit: 1000})
		if err != nil {
			return res, fmt.Errorf("list custom fields for %s: %w", tenant.Tenant, err)
		}
		known := make(map[string]bool, len(existing))
		for _, cf := range existing {
			known[fieldKey(cf.EntityKind, cf.Name)] = true
		}

		for _, spec := range tenant.Fields {
			spec.Name = strings.TrimSpace(spec.Name)
			kind := domain.EntityKind(spec.Entity)
			if known[fieldKey(kind, spec.Name)] {
				res.Skipped++
				continue
			}

			cf, err := buildField(tenant.Tenant, spec)
			if err != nil {
				return res, err
			}
			if err := s.store.CreateCustomField(ctx, cf); err != nil {
				return res, fmt.Errorf("create custom field %s/%s: %w", tenant.Tenant, spec.Name, err)
			}
			known[fieldKey(kind, cf.Name)] = true
			res.Created++

			s.logger.Info("seeded custom field",
				"tenant_id", tenant.Tenant,
				"entity", cf.EntityKind,
				"name", cf.Name,
				"type", cf.Type)
		}
	}
	return res, nil
}

func buildField(tenantID string, spec FieldSpec) (*domain.CustomField, error) {
	kind := domain.EntityKind(spec.Entity)
	base, err := schema.BaseFor(kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSeed, spec.Name, err)
	}
	if base.Reserved(spec.Name) {
		return nil, fmt.Errorf("%w: %s: name is reserved for a built-in %s field", ErrInvalidSeed, spec.Name, kind)
	}
	cf, err := domain.NewCustomField(tenantID, kind, spec.Name, domain.FieldType(spec.Type), spec.Required, spec.Options, spec.HelpText)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSeed, spec.Name, err)
	}
	return cf, nil
}

func fieldKey(kind domain.EntityKind, name string) string {
	return string(kind) + "/" + name
}
