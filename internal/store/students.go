package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/natiga/results/internal/results"
)

const studentColumns = `student_id, name, average, grade, subjects,
	school_name, region, administration, school_code, class_name, section,
	stage_id, created_at`

const upsertStudentSQL = `
	INSERT INTO students (
		student_id, name, average, grade, subjects,
		school_name, region, administration, school_code, class_name, section,
		stage_id, import_id, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	ON CONFLICT (student_id) DO UPDATE SET
		name           = EXCLUDED.name,
		average        = EXCLUDED.average,
		grade          = EXCLUDED.grade,
		subjects       = EXCLUDED.subjects,
		school_name    = EXCLUDED.school_name,
		region         = EXCLUDED.region,
		administration = EXCLUDED.administration,
		school_code    = EXCLUDED.school_code,
		class_name     = EXCLUDED.class_name,
		section        = EXCLUDED.section,
		stage_id       = EXCLUDED.stage_id,
		import_id      = EXCLUDED.import_id,
		created_at     = EXCLUDED.created_at`

// ReplaceStudents writes a validated batch in a single transaction.
// Either every record is written or none is: any failure rolls the
// whole batch back and surfaces as a StorageError.
//
// The write is replace-by-student_id: a re-imported id discards the
// prior record entirely, including its subject list.
func (s *Store) ReplaceStudents(ctx context.Context, records []results.StudentRecord, importID string) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return &results.StorageError{Op: "begin batch", Err: err}
	}
	defer tx.Rollback(ctx)

	b := &pgx.Batch{}
	for _, r := range records {
		subjects, err := json.Marshal(r.Subjects)
		if err != nil {
			return &results.StorageError{Op: "encode subjects", Err: err}
		}
		createdAt := r.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		b.Queue(upsertStudentSQL,
			r.StudentID, r.Name, r.Average, r.Grade, subjects,
			r.SchoolName, r.Region, r.Administration, r.SchoolCode,
			r.ClassName, r.Section, r.StageID, nullUUID(importID), createdAt,
		)
	}

	br := tx.SendBatch(ctx, b)
	for range records {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return &results.StorageError{Op: "upsert batch", Err: err}
		}
	}
	if err := br.Close(); err != nil {
		return &results.StorageError{Op: "close batch", Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return &results.StorageError{Op: "commit batch", Err: err}
	}
	return nil
}

// ListStudents returns every record matching the filter in insertion
// order, which keeps ranking tie-breaks deterministic.
func (s *Store) ListStudents(ctx context.Context, f results.StudentFilter) ([]results.StudentRecord, error) {
	where, args := filterClause(f)
	query := fmt.Sprintf(`SELECT %s FROM students%s ORDER BY ord`, studentColumns, where)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, &results.StorageError{Op: "list students", Err: err}
	}
	defer rows.Close()

	return scanStudents(rows)
}

// SearchStudents finds records whose name or student id contains the
// query, optionally scoped to a stage.
func (s *Store) SearchStudents(ctx context.Context, query, stageID string) ([]results.StudentRecord, error) {
	sql := fmt.Sprintf(`SELECT %s FROM students
		WHERE (name ILIKE $1 OR student_id ILIKE $1)`, studentColumns)
	args := []interface{}{"%" + escapeLike(query) + "%"}

	if stageID != "" {
		sql += ` AND stage_id = $2`
		args = append(args, stageID)
	}
	sql += ` ORDER BY ord LIMIT 100`

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, &results.StorageError{Op: "search students", Err: err}
	}
	defer rows.Close()

	return scanStudents(rows)
}

// GetStudent fetches one record by its external identifier.
func (s *Store) GetStudent(ctx context.Context, studentID string) (*results.StudentRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE student_id = $1`, studentColumns)

	rec, err := scanStudent(s.db.QueryRow(ctx, query, studentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &results.NotFoundError{Kind: "student", ID: studentID}
		}
		return nil, &results.StorageError{Op: "get student", Err: err}
	}
	return rec, nil
}

// ListStudentsPage returns one page of records (newest first) plus the
// total matching count, for the admin listing.
func (s *Store) ListStudentsPage(ctx context.Context, f results.StudentFilter, limit, offset int) ([]results.StudentRecord, int64, error) {
	where, args := filterClause(f)

	var total int64
	countQuery := "SELECT COUNT(*) FROM students" + where
	if err := s.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, &results.StorageError{Op: "count students", Err: err}
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM students%s ORDER BY created_at DESC, ord DESC LIMIT $%d OFFSET $%d`,
		studentColumns, where, n+1, n+2)
	args = append(args, limit, offset)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, &results.StorageError{Op: "list students page", Err: err}
	}
	defer rows.Close()

	recs, err := scanStudents(rows)
	if err != nil {
		return nil, 0, err
	}
	return recs, total, nil
}

// DeleteStudent removes one record by id.
func (s *Store) DeleteStudent(ctx context.Context, studentID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM students WHERE student_id = $1`, studentID)
	if err != nil {
		return &results.StorageError{Op: "delete student", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return &results.NotFoundError{Kind: "student", ID: studentID}
	}
	return nil
}

// DeleteStudentsByStage removes every record for a stage and reports
// how many were deleted. An empty stage id clears the whole store.
func (s *Store) DeleteStudentsByStage(ctx context.Context, stageID string) (int64, error) {
	var (
		tag pgconn.CommandTag
		err error
	)
	if stageID == "" {
		tag, err = s.db.Exec(ctx, `DELETE FROM students`)
	} else {
		tag, err = s.db.Exec(ctx, `DELETE FROM students WHERE stage_id = $1`, stageID)
	}
	if err != nil {
		return 0, &results.StorageError{Op: "delete students", Err: err}
	}
	return tag.RowsAffected(), nil
}

// filterClause builds a WHERE clause for the common stage/region/
// administration filters.
func filterClause(f results.StudentFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	add := func(col, val string) {
		if val != "" {
			args = append(args, val)
			conds = append(conds, fmt.Sprintf("%s = $%d", col, len(args)))
		}
	}
	add("stage_id", f.StageID)
	add("region", f.Region)
	add("administration", f.Administration)

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// scanStudents collects every row from a students query.
func scanStudents(rows pgx.Rows) ([]results.StudentRecord, error) {
	recs := make([]results.StudentRecord, 0, 64)
	for rows.Next() {
		rec, err := scanStudent(rows)
		if err != nil {
			return nil, &results.StorageError{Op: "scan student", Err: err}
		}
		recs = append(recs, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &results.StorageError{Op: "read students", Err: err}
	}
	return recs, nil
}

// scanStudent reads one student row, decoding the subjects JSONB.
func scanStudent(row pgx.Row) (*results.StudentRecord, error) {
	var rec results.StudentRecord
	var subjects []byte

	err := row.Scan(
		&rec.StudentID, &rec.Name, &rec.Average, &rec.Grade, &subjects,
		&rec.SchoolName, &rec.Region, &rec.Administration, &rec.SchoolCode,
		&rec.ClassName, &rec.Section, &rec.StageID, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(subjects) > 0 {
		if err := json.Unmarshal(subjects, &rec.Subjects); err != nil {
			return nil, fmt.Errorf("decode subjects for %s: %w", rec.StudentID, err)
		}
	}
	return &rec, nil
}
