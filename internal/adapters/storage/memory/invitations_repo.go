package memory

import (
	"context"
	"sync"

	"shared-access-core/internal/domain/invitations"
	"shared-access-core/internal/ports/persistence"
)

type invitationRepo struct {
	mu        sync.RWMutex
	byAccount map[string]map[string]invitations.Invitation
}

func NewInvitationsRepo() invitations.Repository {
	return &invitationRepo{
		byAccount: make(map[string]map[string]invitations.Invitation),
	}
}

func (r *invitationRepo) Create(ctx context.Context, inv invitations.Invitation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	codes, ok := r.byAccount[inv.AccountID]
	if !ok {
		codes = make(map[string]invitations.Invitation)
		r.byAccount[inv.AccountID] = codes
	}
	codes[inv.Code] = inv
	return nil
}

func (r *invitationRepo) Get(ctx context.Context, accountID, code string) (invitations.Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inv, ok := r.byAccount[accountID][code]
	if !ok {
		return invitations.Invitation{}, persistence.ErrNotFound
	}
	return inv, nil
}

func (r *invitationRepo) Transition(ctx context.Context, inv invitations.Invitation, from invitations.Status) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byAccount[inv.AccountID][inv.Code]
	if !ok {
		return persistence.ErrNotFound
	}
	if current.Status != from {
		return persistence.ErrStale
	}
	r.byAccount[inv.AccountID][inv.Code] = inv
	return nil
}

func (r *invitationRepo) ListByAccount(ctx context.Context, accountID string) ([]invitations.Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]invitations.Invitation, 0, len(r.byAccount[accountID]))
	for _, inv := range r.byAccount[accountID] {
		out = append(out, inv)
	}
	return out, nil
}
