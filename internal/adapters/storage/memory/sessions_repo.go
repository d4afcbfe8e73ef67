package memory

import (
	"context"
	"sync"
	"time"

	"shared-access-core/internal/domain/sessions"
	"shared-access-core/internal/ports/persistence"
)

type sessionRepo struct {
	mu        sync.RWMutex
	byAccount map[string][]sessions.Session // orden de registro
}

func NewSessionsRepo() sessions.Repository {
	return &sessionRepo{
		byAccount: make(map[string][]sessions.Session),
	}
}

func (r *sessionRepo) Create(ctx context.Context, s sessions.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.byAccount[s.AccountID] = append(r.byAccount[s.AccountID], s)
	return nil
}

func (r *sessionRepo) Get(ctx context.Context, accountID, sessionID string) (sessions.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.byAccount[accountID] {
		if s.SessionID == sessionID {
			return s, nil
		}
	}
	return sessions.Session{}, persistence.ErrNotFound
}

func (r *sessionRepo) Close(ctx context.Context, accountID, sessionID string, at time.Time) error {
	return r.update(ctx, accountID, sessionID, func(s *sessions.Session) {
		closed := at
		s.ClosedAt = &closed
		s.LastActivity = at
	})
}

func (r *sessionRepo) Touch(ctx context.Context, accountID, sessionID string, at time.Time) error {
	return r.update(ctx, accountID, sessionID, func(s *sessions.Session) {
		if at.After(s.LastActivity) {
			s.LastActivity = at
		}
	})
}

// update aplica fn solo a sesiones abiertas; el resto es no-op.
func (r *sessionRepo) update(ctx context.Context, accountID, sessionID string, fn func(s *sessions.Session)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	items := r.byAccount[accountID]
	for i := range items {
		if items[i].SessionID != sessionID {
			continue
		}
		if items[i].ClosedAt == nil {
			fn(&items[i])
		}
		return nil
	}
	return nil
}

func (r *sessionRepo) ListActive(ctx context.Context, accountID string) ([]sessions.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]sessions.Session, 0)
	for _, s := range r.byAccount[accountID] {
		if s.ClosedAt == nil {
			out = append(out, s)
		}
	}
	return out, nil
}
