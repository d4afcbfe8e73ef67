package grants

import "context"

type Repository interface {
	// Get devuelve persistence.ErrNotFound si la cuenta nunca tuvo grants.
	Get(ctx context.Context, accountID string) (AccessGrant, error)

	// Mutate es el read-modify-write atómico por cuenta. fn recibe el grant actual
	// (o uno vacío con exists=false). Si fn devuelve error no se escribe nada y el
	// error se propaga tal cual.
	Mutate(ctx context.Context, accountID string, fn func(g *AccessGrant, exists bool) error) (AccessGrant, error)
}
