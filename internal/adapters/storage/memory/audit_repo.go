package memory

import (
	"context"
	"errors"
	"sync"

	"shared-access-core/internal/domain/audit"
	"shared-access-core/internal/platform/keylock"
	"shared-access-core/internal/ports/persistence"
)

// auditRepo guarda la cola de cada cuenta. El lock global solo cubre el acceso
// al mapa; build (CBOR + BLAKE3) corre bajo el lock de la cuenta.
type auditRepo struct {
	mu        sync.RWMutex
	byAccount map[string][]audit.Entry // orden de inserción == orden de seq
	locks     *keylock.Keyed
}

func NewAuditRepo() audit.Repository {
	return &auditRepo{
		byAccount: make(map[string][]audit.Entry),
		locks:     keylock.New(),
	}
}

func (r *auditRepo) Append(ctx context.Context, accountID string, retention int, build func(last *audit.Entry) (audit.Entry, error)) (audit.Entry, error) {
	if err := ctx.Err(); err != nil {
		return audit.Entry{}, err
	}

	var out audit.Entry
	err := r.locks.Do(accountID, func() error {
		r.mu.RLock()
		items := r.byAccount[accountID]
		r.mu.RUnlock()

		var last *audit.Entry
		if n := len(items); n > 0 {
			tail := items[n-1]
			last = &tail
		}

		e, err := build(last)
		if err != nil {
			return err
		}
		if e.LogID == "" {
			return errors.New("log id required")
		}

		r.mu.Lock()
		defer r.mu.Unlock()

		items = append(r.byAccount[accountID], e)
		if retention > 0 && len(items) > retention {
			// copiamos la cola para no retener el array viejo
			kept := make([]audit.Entry, retention)
			copy(kept, items[len(items)-retention:])
			items = kept
		}
		r.byAccount[accountID] = items
		out = e
		return nil
	})
	if err != nil {
		return audit.Entry{}, err
	}
	return out, nil
}

func (r *auditRepo) Get(ctx context.Context, accountID, logID string) (audit.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.byAccount[accountID] {
		if e.LogID == logID {
			return e, nil
		}
	}
	return audit.Entry{}, persistence.ErrNotFound
}

func (r *auditRepo) List(ctx context.Context, accountID string, filter audit.ListFilter) ([]audit.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := r.byAccount[accountID]
	out := make([]audit.Entry, 0)

	// Recorremos desde el final: más nuevo primero.
	for i := len(items) - 1; i >= 0; i-- {
		if !filter.Match(items[i]) {
			continue
		}
		out = append(out, items[i])
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}
