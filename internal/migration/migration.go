package migration

import (
	"context"

	"invoicegen/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createGenerationSessionsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create generation_sessions table")
	}

	if err := r.createGenerationSheetsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create generation_sheets table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createGenerationSessionsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS generation_sessions (
			id UUID PRIMARY KEY,
			identifier VARCHAR(255) NOT NULL,
			customer VARCHAR(255),
			template_path TEXT,
			output_path TEXT,
			daf_mode BOOLEAN DEFAULT false,
			custom_mode BOOLEAN DEFAULT false,
			status VARCHAR(50) NOT NULL DEFAULT 'pending',
			sheets_total INTEGER DEFAULT 0,
			sheets_written INTEGER DEFAULT 0,
			duration_ms BIGINT DEFAULT 0,
			error_message TEXT,
			metadata JSONB,
			started_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			completed_at TIMESTAMP WITH TIME ZONE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createGenerationSheetsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS generation_sheets (
			id UUID PRIMARY KEY,
			session_id UUID NOT NULL REFERENCES generation_sessions(id) ON DELETE CASCADE,
			sheet_name VARCHAR(255) NOT NULL,
			succeeded BOOLEAN NOT NULL DEFAULT false,
			rows_written INTEGER DEFAULT 0,
			tables INTEGER DEFAULT 0,
			duration_ms BIGINT DEFAULT 0,
			error_message TEXT,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_generation_sessions_identifier ON generation_sessions(identifier)`,
		`CREATE INDEX IF NOT EXISTS idx_generation_sessions_started_at ON generation_sessions(started_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_generation_sheets_session_id ON generation_sheets(session_id)`,
	}
	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
