package memory

import (
	"context"
	"sync"

	"shared-access-core/internal/domain/grants"
	"shared-access-core/internal/platform/keylock"
	"shared-access-core/internal/ports/persistence"
)

type grantRepo struct {
	mu        sync.RWMutex
	byAccount map[string]grants.AccessGrant
	locks     *keylock.Keyed
}

func NewGrantsRepo() grants.Repository {
	return &grantRepo{
		byAccount: make(map[string]grants.AccessGrant),
		locks:     keylock.New(),
	}
}

func (r *grantRepo) Get(ctx context.Context, accountID string) (grants.AccessGrant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.byAccount[accountID]
	if !ok {
		return grants.AccessGrant{}, persistence.ErrNotFound
	}
	return cloneGrant(g), nil
}

// Mutate serializa por cuenta; fn corre sin el lock global.
func (r *grantRepo) Mutate(ctx context.Context, accountID string, fn func(g *grants.AccessGrant, exists bool) error) (grants.AccessGrant, error) {
	if err := ctx.Err(); err != nil {
		return grants.AccessGrant{}, err
	}

	var out grants.AccessGrant
	err := r.locks.Do(accountID, func() error {
		r.mu.RLock()
		current, exists := r.byAccount[accountID]
		// fn trabaja sobre una copia: si falla, el estado guardado queda intacto.
		work := cloneGrant(current)
		r.mu.RUnlock()

		if err := fn(&work, exists); err != nil {
			return err
		}
		work.AccountID = accountID

		r.mu.Lock()
		r.byAccount[accountID] = cloneGrant(work)
		r.mu.Unlock()

		out = work
		return nil
	})
	if err != nil {
		return grants.AccessGrant{}, err
	}
	return out, nil
}

func cloneGrant(g grants.AccessGrant) grants.AccessGrant {
	out := g
	out.Support = cloneSlot(g.Support)
	out.Delivery = cloneSlot(g.Delivery)
	if g.Household != nil {
		out.Household = make([]grants.HouseholdMember, len(g.Household))
		for i, m := range g.Household {
			m.Permissions = append(m.Permissions[:0:0], m.Permissions...)
			out.Household[i] = m
		}
	}
	return out
}

func cloneSlot(s *grants.Slot) *grants.Slot {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Permissions = append(s.Permissions[:0:0], s.Permissions...)
	return &cp
}
