package sessions

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"shared-access-core/internal/domain/permissions"
	"shared-access-core/internal/platform/clock"
	"shared-access-core/internal/platform/ids"
	"shared-access-core/internal/ports/persistence"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrSessionNotFound = errors.New("session not found")
)

type Options struct {
	Clock clock.Clock
	IDs   ids.Generator
}

// Registry es el SessionRegistry: qué actores tienen sesiones abiertas en cada cuenta.
type Registry struct {
	repo  Repository
	clock clock.Clock
	ids   ids.Generator
}

func NewRegistry(repo Repository, opts Options) *Registry {
	r := &Registry{
		repo:  repo,
		clock: opts.Clock,
		ids:   opts.IDs,
	}
	if r.clock == nil {
		r.clock = clock.System()
	}
	if r.ids == nil {
		r.ids = ids.UUID()
	}
	return r
}

// RegisterSession abre una sesión nueva. No deduplica por actor (varios dispositivos son válidos).
func (r *Registry) RegisterSession(ctx context.Context, accountID string, actor Actor) (Session, error) {
	accountID = strings.TrimSpace(accountID)
	actor.ID = strings.TrimSpace(actor.ID)
	if accountID == "" || actor.ID == "" {
		return Session{}, ErrInvalidInput
	}
	if !actor.Role.Valid() {
		return Session{}, permissions.ErrInvalidRole
	}

	now := r.clock.Now().UTC()
	s := Session{
		SessionID:    r.ids.NewID(),
		AccountID:    accountID,
		ActorID:      actor.ID,
		Role:         actor.Role,
		AccessType:   AccessTypeFor(actor.Role),
		StartedAt:    now,
		LastActivity: now,
	}

	if err := r.repo.Create(ctx, s); err != nil {
		return Session{}, fmt.Errorf("%w: %v", persistence.ErrUnavailable, err)
	}
	return s, nil
}

// CloseSession es idempotente: una sesión desconocida o ya cerrada no es error.
func (r *Registry) CloseSession(ctx context.Context, accountID, sessionID string) error {
	accountID = strings.TrimSpace(accountID)
	sessionID = strings.TrimSpace(sessionID)
	if accountID == "" {
		return ErrInvalidInput
	}
	if sessionID == "" {
		return nil
	}

	if err := r.repo.Close(ctx, accountID, sessionID, r.clock.Now().UTC()); err != nil {
		return fmt.Errorf("%w: %v", persistence.ErrUnavailable, err)
	}
	return nil
}

// Touch refresca LastActivity. Igual que CloseSession, no falla con ids desconocidos.
func (r *Registry) Touch(ctx context.Context, accountID, sessionID string) error {
	accountID = strings.TrimSpace(accountID)
	sessionID = strings.TrimSpace(sessionID)
	if accountID == "" {
		return ErrInvalidInput
	}
	if sessionID == "" {
		return nil
	}

	if err := r.repo.Touch(ctx, accountID, sessionID, r.clock.Now().UTC()); err != nil {
		return fmt.Errorf("%w: %v", persistence.ErrUnavailable, err)
	}
	return nil
}

// Get devuelve la sesión (abierta o cerrada).
func (r *Registry) Get(ctx context.Context, accountID, sessionID string) (Session, error) {
	accountID = strings.TrimSpace(accountID)
	sessionID = strings.TrimSpace(sessionID)
	if accountID == "" || sessionID == "" {
		return Session{}, ErrInvalidInput
	}

	s, err := r.repo.Get(ctx, accountID, sessionID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, fmt.Errorf("%w: %v", persistence.ErrUnavailable, err)
	}
	return s, nil
}

// ActiveSessions devuelve las sesiones abiertas en orden estable: StartedAt asc, luego SessionID.
func (r *Registry) ActiveSessions(ctx context.Context, accountID string) ([]Session, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, ErrInvalidInput
	}

	items, err := r.repo.ListActive(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", persistence.ErrUnavailable, err)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].StartedAt.Equal(items[j].StartedAt) {
			return items[i].StartedAt.Before(items[j].StartedAt)
		}
		return items[i].SessionID < items[j].SessionID
	})
	return items, nil
}
