package invitations

import "context"

type Repository interface {
	Create(ctx context.Context, inv Invitation) error

	// Get devuelve persistence.ErrNotFound si el código no existe para esa cuenta.
	Get(ctx context.Context, accountID, code string) (Invitation, error)

	// Transition guarda inv solo si el status persistido sigue siendo from
	// (compare-and-set). Si otro ya la movió: persistence.ErrStale.
	Transition(ctx context.Context, inv Invitation, from Status) error

	ListByAccount(ctx context.Context, accountID string) ([]Invitation, error)
}
