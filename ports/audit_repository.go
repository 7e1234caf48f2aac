package ports

import (
	"context"

	"github.com/google/uuid"

	"invoicegen/models"
)

// AuditRepository persists generation sessions and their per-sheet
// outcomes. The audit trail is additive: generation succeeds or fails on
// its own merits whether or not a store is configured.
type AuditRepository interface {
	SaveSession(ctx context.Context, session *models.GenerationSession) error
	SaveSheet(ctx context.Context, sheet *models.GenerationSheet) error
	GetSession(ctx context.Context, id uuid.UUID) (*models.GenerationSession, error)
	ListSessions(ctx context.Context, limit int) ([]models.GenerationSession, error)
}
