package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/natiga/results/internal/results"
)

// RecordImport logs one completed batch so admins can audit what was
// loaded and when. Returns the generated import id.
func (s *Store) RecordImport(ctx context.Context, e results.ImportEntry) (string, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO imports (id, stage_id, file_name, total_rows, inserted, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.StageID, e.FileName, e.TotalRows, e.Inserted, e.DurationMs, e.CreatedAt,
	)
	if err != nil {
		return "", &results.StorageError{Op: "record import", Err: err}
	}
	return e.ID, nil
}

// ListImports returns the most recent import log entries.
func (s *Store) ListImports(ctx context.Context, limit int) ([]results.ImportEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, stage_id, file_name, total_rows, inserted, duration_ms, created_at
		FROM imports
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, &results.StorageError{Op: "list imports", Err: err}
	}
	defer rows.Close()

	entries := make([]results.ImportEntry, 0, limit)
	for rows.Next() {
		var e results.ImportEntry
		if err := rows.Scan(&e.ID, &e.StageID, &e.FileName, &e.TotalRows, &e.Inserted, &e.DurationMs, &e.CreatedAt); err != nil {
			return nil, &results.StorageError{Op: "scan import", Err: err}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &results.StorageError{Op: "read imports", Err: err}
	}
	return entries, nil
}
