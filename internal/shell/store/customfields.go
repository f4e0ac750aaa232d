package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/artpar/assetdesk/internal/core/domain"
)

// customFieldRow represents a custom_fields row in the database.
type customFieldRow struct {
	ID         string `db:"id"`
	TenantID   string `db:"tenant_id"`
	EntityKind string `db:"entity_kind"`
	Name       string `db:"name"`
	HelpText   string `db:"help_text"`
	Required   bool   `db:"required"`
	Type       string `db:"type"`
	Options    string `db:"options"`
	Active     bool   `db:"active"`
	CreatedAt  string `db:"created_at"`
	UpdatedAt  string `db:"updated_at"`
}

const customFieldColumns = `id, tenant_id, entity_kind, name, help_text, required, type, options, active, created_at, updated_at`

func customFieldParams(field *domain.CustomField, op string) (map[string]any, error) {
	options := field.Options
	if options == nil {
		options = []string{}
	}
	optionsJSON, err := json.Marshal(options)
	if err != nil {
		return nil, NewStoreError(op, "custom_field", field.ID, "failed to serialize options", ErrInvalidData)
	}

	return map[string]any{
		"id":          field.ID,
		"tenant_id":   field.TenantID,
		"entity_kind": string(field.EntityKind),
		"name":        field.Name,
		"help_text":   field.HelpText,
		"required":    field.Required,
		"type":        string(field.Type),
		"options":     string(optionsJSON),
		"active":      field.Active,
		"created_at":  field.CreatedAt.Format(time.RFC3339),
		"updated_at":  field.UpdatedAt.Format(time.RFC3339),
	}, nil
}

func createCustomField(ctx context.Context, exec executor, field *domain.CustomField) error {
	params, err := customFieldParams(field, "CreateCustomField")
	if err != nil {
		return err
	}

	query := `
		INSERT INTO custom_fields (
			id, tenant_id, entity_kind, name, help_text, required, type,
			options, active, created_at, updated_at
		) VALUES (
			:id, :tenant_id, :entity_kind, :name, :help_text, :required, :type,
			:options, :active, :created_at, :updated_at
		)`

	if _, err := exec.NamedExecContext(ctx, query, params); err != nil {
		return classifyWriteError("CreateCustomField", "custom_field", field.ID, err)
	}
	return nil
}

func getCustomField(ctx context.Context, exec executor, tenantID, id string) (*domain.CustomField, error) {
	query := `SELECT ` + customFieldColumns + ` FROM custom_fields WHERE tenant_id = ? AND id = ?`

	var row customFieldRow
	if err := exec.GetContext(ctx, &row, query, tenantID, id); err != nil {
		return nil, notFoundOr("GetCustomField", "custom_field", id, err)
	}
	return rowToCustomField(&row)
}

// updateCustomField updates the mutable attributes of a definition.
// Tenant, entity kind and name are fixed once created.
func updateCustomField(ctx context.Context, exec executor, field *domain.CustomField) error {
	params, err := customFieldParams(field, "UpdateCustomField")
	if err != nil {
		return err
	}

	query := `
		UPDATE custom_fields SET
			help_text = :help_text,
			required = :required,
			type = :type,
			options = :options,
			active = :active,
			updated_at = :updated_at
		WHERE tenant_id = :tenant_id AND id = :id`

	result, err := exec.NamedExecContext(ctx, query, params)
	if err != nil {
		return classifyWriteError("UpdateCustomField", "custom_field", field.ID, err)
	}
	return requireAffected("UpdateCustomField", "custom_field", field.ID, result)
}

func listCustomFields(ctx context.Context, exec executor, tenantID string, kind domain.EntityKind, opts ListOptions) ([]domain.CustomField, error) {
	opts = opts.Normalize()

	query := `SELECT ` + customFieldColumns + ` FROM custom_fields WHERE tenant_id = ?`
	args := []any{tenantID}
	if kind != "" {
		query += ` AND entity_kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY created_at, rowid LIMIT ? OFFSET ?`
	args = append(args, opts.Limit, opts.Offset)

	var rows []customFieldRow
	if err := exec.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, NewStoreError("ListCustomFields", "custom_field", "", err.Error(), err)
	}
	return rowsToCustomFields(rows)
}

// listActiveCustomFields returns every active definition of the tenant in
// definition order.
func listActiveCustomFields(ctx context.Context, exec executor, tenantID string) ([]domain.CustomField, error) {
	query := `SELECT ` + customFieldColumns + ` FROM custom_fields
		WHERE tenant_id = ? AND active = 1
		ORDER BY created_at, rowid`

	var rows []customFieldRow
	if err := exec.SelectContext(ctx, &rows, query, tenantID); err != nil {
		return nil, NewStoreError("ListActiveCustomFields", "custom_field", "", err.Error(), err)
	}
	return rowsToCustomFields(rows)
}

func rowsToCustomFields(rows []customFieldRow) ([]domain.CustomField, error) {
	fields := make([]domain.CustomField, 0, len(rows))
	for i := range rows {
		field, err := rowToCustomField(&rows[i])
		if err != nil {
			return nil, err
		}
		fields = append(fields, *field)
	}
	return fields, nil
}

func rowToCustomField(row *customFieldRow) (*domain.CustomField, error) {
	var options []string
	if row.Options != "" {
		if err := json.Unmarshal([]byte(row.Options), &options); err != nil {
			return nil, NewStoreError("rowToCustomField", "custom_field", row.ID, "failed to parse options", ErrInvalidData)
		}
	}
	if len(options) == 0 {
		options = nil
	}

	createdAt, _ := time.Parse(time.RFC3339, row.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, row.UpdatedAt)

	return &domain.CustomField{
		ID:         row.ID,
		TenantID:   row.TenantID,
		EntityKind: domain.EntityKind(row.EntityKind),
		Name:       row.Name,
		HelpText:   row.HelpText,
		Required:   row.Required,
		Type:       domain.FieldType(row.Type),
		Options:    options,
		Active:     row.Active,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}, nil
}
