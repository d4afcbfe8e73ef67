package invitations

import (
	"time"

	"shared-access-core/internal/domain/permissions"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
	StatusExpired  Status = "expired"
)

// TTL de una invitación desde su creación.
const TTL = 7 * 24 * time.Hour

// Inviter es el staff que emite la invitación; al aceptarse pasa a ocupar el slot.
type Inviter struct {
	ID    string
	Name  string
	Phone string
}

// Invitation es de un solo uso: sale de pending una única vez y nunca se borra.
type Invitation struct {
	Code      string
	AccountID string

	InviterRole permissions.Role
	Inviter     Inviter

	Status Status

	CreatedAt  time.Time
	ExpiresAt  time.Time
	AcceptedAt *time.Time
	DeclinedAt *time.Time
}

// ExpiredAt: vencida si now es estrictamente posterior a ExpiresAt.
func (i Invitation) ExpiredAt(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
