package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"invoicegen/models"
	"invoicegen/ports"
)

// AuditRepositoryImpl implements ports.AuditRepository for PostgreSQL
type AuditRepositoryImpl struct {
	db *sqlx.DB
}

// NewAuditRepository creates a new PostgreSQL audit repository
func NewAuditRepository(db *sqlx.DB) ports.AuditRepository {
	return &AuditRepositoryImpl{db: db}
}

// SaveSession upserts one generation session row
func (r *AuditRepositoryImpl) SaveSession(ctx context.Context, session *models.GenerationSession) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO generation_sessions
			(id, identifier, customer, template_path, output_path, daf_mode, custom_mode,
			 status, sheets_total, sheets_written, duration_ms, error_message, metadata,
			 started_at, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			sheets_total = EXCLUDED.sheets_total,
			sheets_written = EXCLUDED.sheets_written,
			duration_ms = EXCLUDED.duration_ms,
			error_message = EXCLUDED.error_message,
			metadata = EXCLUDED.metadata,
			completed_at = EXCLUDED.completed_at,
			updated_at = EXCLUDED.updated_at
	`, session.ID, session.Identifier, session.Customer, session.TemplatePath, session.OutputPath,
		session.DAFMode, session.CustomMode, session.Status, session.SheetsTotal, session.SheetsWritten,
		session.DurationMS, session.Error, session.Metadata,
		session.StartedAt, session.CompletedAt, session.CreatedAt, session.UpdatedAt)
	return err
}

// SaveSheet records one sheet's outcome within a session
func (r *AuditRepositoryImpl) SaveSheet(ctx context.Context, sheet *models.GenerationSheet) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO generation_sheets
			(id, session_id, sheet_name, succeeded, rows_written, tables, duration_ms, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, sheet.ID, sheet.SessionID, sheet.SheetName, sheet.Succeeded, sheet.RowsWritten,
		sheet.Tables, sheet.DurationMS, sheet.Error, sheet.CreatedAt)
	return err
}

// GetSession retrieves a session by id
func (r *AuditRepositoryImpl) GetSession(ctx context.Context, id uuid.UUID) (*models.GenerationSession, error) {
	var session models.GenerationSession
	err := r.db.GetContext(ctx, &session, `
		SELECT id, identifier, customer, template_path, output_path, daf_mode, custom_mode,
		       status, sheets_total, sheets_written, duration_ms, error_message, metadata,
		       started_at, completed_at, created_at, updated_at
		FROM generation_sessions
		WHERE id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ListSessions returns the most recent sessions, newest first
func (r *AuditRepositoryImpl) ListSessions(ctx context.Context, limit int) ([]models.GenerationSession, error) {
	if limit <= 0 {
		limit = 50
	}
	var sessions []models.GenerationSession
	err := r.db.SelectContext(ctx, &sessions, `
		SELECT id, identifier, customer, template_path, output_path, daf_mode, custom_mode,
		       status, sheets_total, sheets_written, duration_ms, error_message, metadata,
		       started_at, completed_at, created_at, updated_at
		FROM generation_sessions
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return sessions, nil
}
