package grants

import (
	"time"

	"shared-access-core/internal/domain/permissions"
)

// Identity es quien recibe el acceso (viene de la invitación o del owner).
type Identity struct {
	ID    string
	Name  string
	Phone string
}

// Slot es el grant activo de un rol de staff (support o delivery) en una cuenta.
type Slot struct {
	Identity

	GrantedAt time.Time
	// Copia de la fila de la matriz al momento de otorgar.
	Permissions []permissions.Action

	// Código de la invitación que originó el grant (vacío si no vino de una).
	InvitationCode string
}

type HouseholdMember struct {
	ID   string
	Name string

	GrantedAt   time.Time
	Permissions []permissions.Action
}

// AccessGrant agrupa todo el acceso delegado de una cuenta. El owner es implícito
// (accountID). Se crea al primer grant y nunca se borra: revocar solo vacía el slot.
type AccessGrant struct {
	AccountID string

	Support   *Slot
	Delivery  *Slot
	Household []HouseholdMember

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SlotFor devuelve el slot de un rol de staff (nil si está vacío o el rol no tiene slot).
func (g AccessGrant) SlotFor(role permissions.Role) *Slot {
	switch role {
	case permissions.RoleSupport:
		return g.Support
	case permissions.RoleDelivery:
		return g.Delivery
	default:
		return nil
	}
}

func (g *AccessGrant) setSlot(role permissions.Role, s *Slot) {
	switch role {
	case permissions.RoleSupport:
		g.Support = s
	case permissions.RoleDelivery:
		g.Delivery = s
	}
}

// HasHouseholdMember: ¿memberID está en la lista del hogar?
func (g AccessGrant) HasHouseholdMember(memberID string) bool {
	return g.householdIndex(memberID) >= 0
}

func (g AccessGrant) householdIndex(memberID string) int {
	for i, m := range g.Household {
		if m.ID == memberID {
			return i
		}
	}
	return -1
}
