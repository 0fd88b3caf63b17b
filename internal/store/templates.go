package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/natiga/results/internal/results"
)

const templateColumns = `id, name, description, stage_id, mapping,
	is_public, usage_count, created_at, updated_at`

// ListTemplates returns saved column mappings, most used first so the
// likeliest match for a new file sorts to the top. A stage id narrows
// the list to templates saved for that stage plus shared ones.
func (s *Store) ListTemplates(ctx context.Context, stageID string) ([]results.MappingTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM mapping_templates`
	var args []interface{}
	if stageID != "" {
		query += ` WHERE stage_id = $1 OR is_public`
		args = append(args, stageID)
	}
	query += ` ORDER BY usage_count DESC, created_at DESC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, &results.StorageError{Op: "list templates", Err: err}
	}
	defer rows.Close()

	templates := make([]results.MappingTemplate, 0, 8)
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, &results.StorageError{Op: "scan template", Err: err}
		}
		templates = append(templates, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, &results.StorageError{Op: "read templates", Err: err}
	}
	return templates, nil
}

// CreateTemplate saves a new mapping template and returns it with its
// generated id and timestamps filled in.
func (s *Store) CreateTemplate(ctx context.Context, t results.MappingTemplate) (*results.MappingTemplate, error) {
	if strings.TrimSpace(t.Name) == "" {
		return nil, &results.MappingError{Field: "name", Msg: "template name is required"}
	}

	mapping, err := json.Marshal(t.Mapping)
	if err != nil {
		return nil, &results.StorageError{Op: "encode mapping", Err: err}
	}

	t.ID = uuid.NewString()
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	t.UsageCount = 0

	_, err = s.db.Exec(ctx, `
		INSERT INTO mapping_templates (id, name, description, stage_id, mapping, is_public, usage_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.Name, t.Description, t.StageID, mapping, t.IsPublic, t.UsageCount, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return nil, &results.StorageError{Op: "create template", Err: err}
	}
	return &t, nil
}

// GetTemplate fetches one template by id without touching its usage
// count.
func (s *Store) GetTemplate(ctx context.Context, id string) (*results.MappingTemplate, error) {
	row := s.db.QueryRow(ctx, `SELECT `+templateColumns+` FROM mapping_templates WHERE id = $1`, id)

	t, err := scanTemplate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &results.NotFoundError{Kind: "mapping template", ID: id}
		}
		return nil, &results.StorageError{Op: "get template", Err: err}
	}
	return t, nil
}

// ApplyTemplate records one use of a template and returns its mapping.
// The increment and the read happen in one statement so concurrent
// imports never lose a count.
func (s *Store) ApplyTemplate(ctx context.Context, id string) (*results.ColumnMapping, error) {
	var raw []byte
	err := s.db.QueryRow(ctx, `
		UPDATE mapping_templates
		SET usage_count = usage_count + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING mapping`, id,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &results.NotFoundError{Kind: "mapping template", ID: id}
		}
		return nil, &results.StorageError{Op: "apply template", Err: err}
	}

	var mapping results.ColumnMapping
	if err := json.Unmarshal(raw, &mapping); err != nil {
		return nil, &results.StorageError{Op: "decode mapping", Err: err}
	}
	return &mapping, nil
}

// DeleteTemplate removes a saved template.
func (s *Store) DeleteTemplate(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM mapping_templates WHERE id = $1`, id)
	if err != nil {
		return &results.StorageError{Op: "delete template", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return &results.NotFoundError{Kind: "mapping template", ID: id}
	}
	return nil
}

func scanTemplate(row pgx.Row) (*results.MappingTemplate, error) {
	var t results.MappingTemplate
	var mapping []byte

	err := row.Scan(
		&t.ID, &t.Name, &t.Description, &t.StageID, &mapping,
		&t.IsPublic, &t.UsageCount, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(mapping, &t.Mapping); err != nil {
		return nil, err
	}
	return &t, nil
}
