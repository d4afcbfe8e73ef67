package sessions

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, s Session) error

	// Get devuelve persistence.ErrNotFound si la sesión no es de esa cuenta.
	Get(ctx context.Context, accountID, sessionID string) (Session, error)

	// Close fija ClosedAt si estaba abierta. Desconocida o ya cerrada: no-op.
	Close(ctx context.Context, accountID, sessionID string, at time.Time) error

	// Touch actualiza LastActivity si está abierta. Desconocida o cerrada: no-op.
	Touch(ctx context.Context, accountID, sessionID string, at time.Time) error

	ListActive(ctx context.Context, accountID string) ([]Session, error)
}
