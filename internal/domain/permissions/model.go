package permissions

import (
	"errors"
	"strings"
)

var (
	ErrInvalidRole = errors.New("invalid role")
	// ErrForbidden: el rol o el actor no tiene acceso a la cuenta.
	ErrForbidden = errors.New("forbidden")
)

// Role es el conjunto cerrado de roles que pueden actuar sobre una cuenta.
type Role string

const (
	RoleOwner     Role = "owner"
	RoleSupport   Role = "support"
	RoleDelivery  Role = "delivery"
	RoleHousehold Role = "household"
)

var allRoles = []Role{RoleOwner, RoleSupport, RoleDelivery, RoleHousehold}

func (r Role) Valid() bool {
	for _, known := range allRoles {
		if r == known {
			return true
		}
	}
	return false
}

// CanInvite: solo staff (support/delivery) emite invitaciones.
func (r Role) CanInvite() bool {
	return r == RoleSupport || r == RoleDelivery
}

// RequiresGrant: el rol necesita además un grant activo en la cuenta concreta.
func (r Role) RequiresGrant() bool {
	return r == RoleSupport || r == RoleDelivery
}

func ParseRole(raw string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	if !r.Valid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

// Action es el conjunto cerrado de acciones atribuibles.
type Action string

const (
	ActionRead                 Action = "read"
	ActionCreate               Action = "create"
	ActionUpdate               Action = "update"
	ActionDelete               Action = "delete"
	ActionPlaceOrder           Action = "place_order"
	ActionManagePayment        Action = "manage_payment"
	ActionUploadDocument       Action = "upload_document"
	ActionUpdateDeliveryStatus Action = "update_delivery_status"
	ActionManageAccess         Action = "manage_access"
)

var allActions = []Action{
	ActionRead,
	ActionCreate,
	ActionUpdate,
	ActionDelete,
	ActionPlaceOrder,
	ActionManagePayment,
	ActionUploadDocument,
	ActionUpdateDeliveryStatus,
	ActionManageAccess,
}

func (a Action) Valid() bool {
	for _, known := range allActions {
		if a == known {
			return true
		}
	}
	return false
}

var ErrInvalidAction = errors.New("invalid action")

func ParseAction(raw string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(raw)))
	if !a.Valid() {
		return "", ErrInvalidAction
	}
	return a, nil
}
