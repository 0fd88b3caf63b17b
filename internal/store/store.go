// Package store persists students, mapping templates, and the import
// history log in PostgreSQL via pgx. All statements are parameterized;
// the subjects list is serialized to JSONB here and nowhere else.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Store is the PostgreSQL-backed student store. Single statements go
// through db; the pool is kept for transactions and batches.
type Store struct {
	pool *pgxpool.Pool
	db   DBTX
}

// New creates a Store on top of an existing connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, db: pool}
}

// schema is applied on startup. Idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS students (
		student_id     text PRIMARY KEY,
		name           text NOT NULL,
		average        double precision NOT NULL DEFAULT 0,
		grade          text NOT NULL DEFAULT '',
		subjects       jsonb NOT NULL DEFAULT '[]',
		school_name    text NOT NULL DEFAULT '',
		region         text NOT NULL DEFAULT '',
		administration text NOT NULL DEFAULT '',
		school_code    text NOT NULL DEFAULT '',
		class_name     text NOT NULL DEFAULT '',
		section        text NOT NULL DEFAULT '',
		stage_id       text NOT NULL DEFAULT '',
		import_id      uuid,
		ord            bigint GENERATED BY DEFAULT AS IDENTITY,
		created_at     timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS students_stage_idx ON students (stage_id)`,
	`CREATE INDEX IF NOT EXISTS students_school_idx ON students (school_name, region)`,
	`CREATE INDEX IF NOT EXISTS students_name_idx ON students (name)`,
	`CREATE TABLE IF NOT EXISTS mapping_templates (
		id          uuid PRIMARY KEY,
		name        text NOT NULL,
		description text NOT NULL DEFAULT '',
		stage_id    text NOT NULL DEFAULT '',
		mapping     jsonb NOT NULL,
		is_public   boolean NOT NULL DEFAULT false,
		usage_count integer NOT NULL DEFAULT 0,
		created_at  timestamptz NOT NULL DEFAULT now(),
		updated_at  timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS mapping_templates_stage_idx ON mapping_templates (stage_id)`,
	`CREATE TABLE IF NOT EXISTS imports (
		id          uuid PRIMARY KEY,
		stage_id    text NOT NULL DEFAULT '',
		file_name   text NOT NULL DEFAULT '',
		total_rows  integer NOT NULL DEFAULT 0,
		inserted    integer NOT NULL DEFAULT 0,
		duration_ms integer NOT NULL DEFAULT 0,
		created_at  timestamptz NOT NULL DEFAULT now()
	)`,
}

// Migrate applies the schema. Safe to run on every startup.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// nullUUID maps an empty id string to SQL NULL for uuid columns.
func nullUUID(id string) interface{} {
	if id == "" {
		return nil
	}
	return id
}

// likeEscaper neutralizes LIKE/ILIKE metacharacters in user input so a
// search for "%" or "_" matches those literal characters.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
