package ports

import (
	"context"

	"github.com/99minutos/user-admin/internal/core/domain"
)

// AuditRepository persists the user mutation audit trail.
type AuditRepository interface {
	InsertUserEvent(ctx context.Context, event domain.UserEvent) error
}

// AuditReader reads back the audit trail of a single user.
type AuditReader interface {
	ListByUser(ctx context.Context, userID uint, limit int64) ([]domain.UserEvent, error)
}
