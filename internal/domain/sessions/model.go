package sessions

import (
	"time"

	"shared-access-core/internal/domain/permissions"
)

type AccessType string

const (
	// AccessDirect: el owner operando su propia cuenta.
	AccessDirect AccessType = "direct"
	// AccessShared: cualquier otro rol operando por delegación.
	AccessShared AccessType = "shared"
)

// AccessTypeFor deriva el tipo de acceso del rol.
func AccessTypeFor(role permissions.Role) AccessType {
	if role == permissions.RoleOwner {
		return AccessDirect
	}
	return AccessShared
}

type Actor struct {
	ID   string
	Role permissions.Role
}

// Session es una pestaña/dispositivo de un actor. Un actor puede tener varias abiertas.
type Session struct {
	SessionID string
	AccountID string

	ActorID    string
	Role       permissions.Role
	AccessType AccessType

	StartedAt    time.Time
	LastActivity time.Time
	ClosedAt     *time.Time
}

func (s Session) Active() bool { return s.ClosedAt == nil }
