package audit

import (
	"context"
	"time"

	"shared-access-core/internal/domain/permissions"
)

type Repository interface {
	// Append agrega una entrada de forma atómica por cuenta: build recibe la última
	// entrada (nil si no hay) bajo el lock de la cuenta. Si quedan más de retention
	// entradas se recortan las más viejas, conservando el orden.
	Append(ctx context.Context, accountID string, retention int, build func(last *Entry) (Entry, error)) (Entry, error)

	Get(ctx context.Context, accountID, logID string) (Entry, error)

	// List devuelve las entradas más nuevas primero (timestamp desc, seq desc).
	List(ctx context.Context, accountID string, filter ListFilter) ([]Entry, error)
}

type ListFilter struct {
	Role     permissions.Role
	Action   Action
	RecordID string
	ActorID  string

	// Rango inclusivo sobre Timestamp.
	From *time.Time
	To   *time.Time

	// 0 = sin límite.
	Limit int
}

// Match aplica el filtro en memoria. Lo usan los adapters que no filtran en SQL.
func (f ListFilter) Match(e Entry) bool {
	if f.Role != "" && e.Role != f.Role {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.RecordID != "" && e.RecordID != f.RecordID {
		return false
	}
	if f.ActorID != "" && e.ActorID != f.ActorID {
		return false
	}
	if f.From != nil && e.Timestamp.Before(*f.From) {
		return false
	}
	if f.To != nil && e.Timestamp.After(*f.To) {
		return false
	}
	return true
}
