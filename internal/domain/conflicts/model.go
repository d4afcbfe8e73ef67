package conflicts

import (
	"time"

	"shared-access-core/internal/domain/permissions"
)

// Window es la ventana fija hacia atrás en la que una escritura ajena cuenta como conflicto.
const Window = 60 * time.Second

// ResolutionLastWriteWins es la única política: el detector informa, no bloquea.
const ResolutionLastWriteWins = "last_write_wins"

type ConflictingActor struct {
	ActorID     string
	Role        permissions.Role
	LastTouched time.Time
	// Touches dentro de la ventana.
	Touches int

	HasActiveSession bool
}

type Report struct {
	AccountID string
	RecordID  string

	IsConflict        bool
	ConflictingActors []ConflictingActor

	Resolution string
	Window     time.Duration
	CheckedAt  time.Time
}
