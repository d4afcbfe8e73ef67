package access

import (
	"time"

	"shared-access-core/internal/domain/audit"
	"shared-access-core/internal/domain/conflicts"
	"shared-access-core/internal/domain/invitations"
	"shared-access-core/internal/domain/permissions"
	"shared-access-core/internal/domain/sessions"
)

type ParticipantStatus string

const (
	StatusOwner  ParticipantStatus = "owner"
	StatusActive ParticipantStatus = "active"
)

// Participant es una fila de la proyección de acceso: el owner o un grant activo.
type Participant struct {
	Role    permissions.Role
	ActorID string
	Name    string
	Phone   string
	Status  ParticipantStatus

	GrantedAt   *time.Time
	Permissions []permissions.Action
}

// SharedAccountConfig es la vista de solo lectura para la administración del acceso.
type SharedAccountConfig struct {
	AccountID string

	Participants       []Participant
	ActiveSessions     []sessions.Session
	PendingInvitations []invitations.Invitation
}

// PerformRequest describe una acción de dominio del caller que pasa por el core.
type PerformRequest struct {
	AccountID string
	Actor     audit.Actor
	Action    permissions.Action

	RecordID   string
	RecordType string
	Reason     string

	// SessionID vacío: se abre una sesión nueva para el actor.
	SessionID string

	Details any
}

// Change es lo que devuelve la acción del caller: snapshots opcionales para rollback.
type Change struct {
	Before  any
	After   any
	Details any
}

// Outcome resume qué pasó alrededor de la acción. Audited=false significa que la
// acción se hizo pero la entrada de auditoría no se pudo escribir.
type Outcome struct {
	Session  sessions.Session
	Conflict *conflicts.Report
	Entry    audit.Entry
	Audited  bool
}
