package permissions

// Matrix es la tabla fija rol → acciones. Se define en compilación y no se muta en runtime.
type Matrix struct {
	rows map[Role]actionSet
}

type actionSet map[Action]struct{}

func setOf(actions ...Action) actionSet {
	s := make(actionSet, len(actions))
	for _, a := range actions {
		s[a] = struct{}{}
	}
	return s
}

var defaultMatrix = Matrix{rows: map[Role]actionSet{
	RoleOwner: setOf(allActions...),
	RoleSupport: setOf(
		ActionRead,
		ActionCreate,
		ActionUpdate,
		ActionPlaceOrder,
		ActionUploadDocument,
	),
	RoleDelivery: setOf(
		ActionRead,
		ActionUpdateDeliveryStatus,
		ActionUploadDocument,
	),
	RoleHousehold: setOf(
		ActionRead,
		ActionCreate,
		ActionUpdate,
		ActionPlaceOrder,
	),
}}

// Default devuelve la matriz del producto.
func Default() Matrix { return defaultMatrix }

// Allows responde solo la parte estática: ¿el rol permite la acción?
// Que un rol lo permita no implica acceso a una cuenta concreta (ver access.Controller).
func (m Matrix) Allows(role Role, action Action) bool {
	row, ok := m.rows[role]
	if !ok {
		return false
	}
	_, ok = row[action]
	return ok
}

// ActionsFor devuelve una copia ordenada de las acciones del rol (nil si el rol no existe).
// Es lo que se copia al slot de un grant al momento de otorgarlo.
func (m Matrix) ActionsFor(role Role) []Action {
	row, ok := m.rows[role]
	if !ok {
		return nil
	}
	out := make([]Action, 0, len(row))
	for _, a := range allActions {
		if _, ok := row[a]; ok {
			out = append(out, a)
		}
	}
	return out
}
