package audit

import (
	"encoding/json"
	"strings"
	"time"

	"shared-access-core/internal/domain/permissions"
)

// Action es el nombre de la acción auditada. Las acciones del core son fijas;
// las del dominio del caller (ej. "update") llegan como texto libre.
type Action string

const (
	ActionCreateInvitation      Action = "create_invitation"
	ActionAcceptInvitation      Action = "accept_invitation"
	ActionDeclineInvitation     Action = "decline_invitation"
	ActionRevokeAccess          Action = "revoke_access"
	ActionAddHouseholdMember    Action = "add_household_member"
	ActionRemoveHouseholdMember Action = "remove_household_member"
	ActionRollback              Action = "rollback_action"
)

// coreActions solo las emiten los servicios del core.
var coreActions = []Action{
	ActionCreateInvitation,
	ActionAcceptInvitation,
	ActionDeclineInvitation,
	ActionRevokeAccess,
	ActionAddHouseholdMember,
	ActionRemoveHouseholdMember,
	ActionRollback,
}

// Reserved: la acción pertenece al core y un caller no puede registrarla a mano.
// La comparación ignora mayúsculas y espacios.
func (a Action) Reserved() bool {
	norm := Action(strings.ToLower(strings.TrimSpace(string(a))))
	for _, c := range coreActions {
		if norm == c {
			return true
		}
	}
	return false
}

// Entry es inmutable una vez escrita. Un rollback agrega otra entrada, nunca edita.
type Entry struct {
	LogID     string
	Seq       int64
	Timestamp time.Time

	AccountID string
	ActorID   string
	Role      permissions.Role
	Action    Action

	// Payloads opacos, guardados como JSON compacto: los bytes no cambian entre lecturas.
	Details json.RawMessage

	RecordID   string
	RecordType string
	Reason     string
	SessionID  string

	ChangesBefore json.RawMessage
	ChangesAfter  json.RawMessage

	PrevHash string
	Hash     string
}

type Actor struct {
	ID   string
	Role permissions.Role
}

type LogInput struct {
	AccountID string
	ActorID   string
	Role      permissions.Role
	Action    Action

	// Details/ChangesBefore/ChangesAfter aceptan cualquier valor serializable a JSON
	// (json.RawMessage o []byte se toman tal cual, compactados).
	Details any

	RecordID   string
	RecordType string
	Reason     string
	SessionID  string

	ChangesBefore any
	ChangesAfter  any
}

type Summary struct {
	AccountID  string
	WindowDays int
	From       time.Time
	To         time.Time

	Total    int
	ByRole   map[permissions.Role]int
	ByAction map[Action]int
	ByActor  map[string]int
}

type RollbackInput struct {
	AccountID string
	LogID     string
	By        Actor
	Reason    string
}

type RollbackResult struct {
	Entry      Entry
	RolledBack string
	Restored   json.RawMessage
}

// ChainReport es el resultado de recalcular la cadena de hashes de la cola retenida.
type ChainReport struct {
	AccountID   string
	Entries     int
	Valid       bool
	BrokenAtSeq int64
}
