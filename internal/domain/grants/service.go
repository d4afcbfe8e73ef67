package grants

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shared-access-core/internal/domain/permissions"
	"shared-access-core/internal/platform/clock"
	"shared-access-core/internal/ports/persistence"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNoGrantConfigured = errors.New("no grant configured")
	ErrRoleHasNoSlot     = errors.New("role has no grant slot")
	errUnchanged         = errors.New("grants: unchanged")
)

// Store es el GrantStore: qué roles tienen acceso a qué cuenta y desde cuándo.
type Store struct {
	repo   Repository
	clock  clock.Clock
	matrix permissions.Matrix
}

func NewStore(repo Repository, clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.System()
	}
	return &Store{
		repo:   repo,
		clock:  clk,
		matrix: permissions.Default(),
	}
}

func (s *Store) Get(ctx context.Context, accountID string) (AccessGrant, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return AccessGrant{}, ErrInvalidInput
	}

	g, err := s.repo.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return AccessGrant{}, ErrNoGrantConfigured
		}
		return AccessGrant{}, fmt.Errorf("%w: %v", persistence.ErrUnavailable, err)
	}
	return g, nil
}

// HasActiveGrant: ¿hay un slot no vacío para ese rol en esa cuenta?
// Una cuenta sin registro de grants simplemente no tiene acceso delegado.
func (s *Store) HasActiveGrant(ctx context.Context, accountID string, role permissions.Role) (bool, error) {
	g, err := s.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNoGrantConfigured) {
			return false, nil
		}
		return false, err
	}
	return g.SlotFor(role) != nil, nil
}

// Install ocupa el slot del rol. Si ya había alguien, se sobreescribe (nunca hay dos).
// El registro de la cuenta se crea la primera vez.
func (s *Store) Install(ctx context.Context, accountID string, role permissions.Role, who Identity, invitationCode string) (AccessGrant, error) {
	accountID = strings.TrimSpace(accountID)
	who = normalizeIdentity(who)
	if accountID == "" || who.ID == "" {
		return AccessGrant{}, ErrInvalidInput
	}
	if !role.RequiresGrant() {
		return AccessGrant{}, ErrRoleHasNoSlot
	}

	now := s.clock.Now().UTC()
	slot := &Slot{
		Identity:       who,
		GrantedAt:      now,
		Permissions:    s.matrix.ActionsFor(role),
		InvitationCode: strings.TrimSpace(invitationCode),
	}

	g, err := s.repo.Mutate(ctx, accountID, func(g *AccessGrant, exists bool) error {
		if !exists {
			g.AccountID = accountID
			g.CreatedAt = now
		}
		g.setSlot(role, slot)
		g.UpdatedAt = now
		return nil
	})
	if err != nil {
		return AccessGrant{}, fmt.Errorf("%w: %v", persistence.ErrUnavailable, err)
	}
	return g, nil
}

// Revoke vacía el slot del rol y devuelve lo que había (nil si ya estaba vacío).
// Sin registro de grants para la cuenta: ErrNoGrantConfigured.
func (s *Store) Revoke(ctx context.Context, accountID string, role permissions.Role) (*Slot, AccessGrant, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, AccessGrant{}, ErrInvalidInput
	}
	if !role.RequiresGrant() {
		return nil, AccessGrant{}, ErrRoleHasNoSlot
	}

	var revoked *Slot
	now := s.clock.Now().UTC()

	g, err := s.repo.Mutate(ctx, accountID, func(g *AccessGrant, exists bool) error {
		if !exists {
			return ErrNoGrantConfigured
		}
		current := g.SlotFor(role)
		if current == nil {
			return errUnchanged
		}
		cp := *current
		revoked = &cp
		g.setSlot(role, nil)
		g.UpdatedAt = now
		return nil
	})
	switch {
	case err == nil:
		return revoked, g, nil
	case errors.Is(err, ErrNoGrantConfigured):
		return nil, AccessGrant{}, ErrNoGrantConfigured
	case errors.Is(err, errUnchanged):
		current, gerr := s.Get(ctx, accountID)
		if gerr != nil {
			return nil, AccessGrant{}, gerr
		}
		return nil, current, nil
	default:
		return nil, AccessGrant{}, fmt.Errorf("%w: %v", persistence.ErrUnavailable, err)
	}
}

// AddHouseholdMember agrega (o refresca en su lugar) un miembro del hogar. Nunca duplica.
func (s *Store) AddHouseholdMember(ctx context.Context, accountID string, member Identity) (HouseholdMember, AccessGrant, error) {
	accountID = strings.TrimSpace(accountID)
	member = normalizeIdentity(member)
	if accountID == "" || member.ID == "" || member.ID == accountID {
		return HouseholdMember{}, AccessGrant{}, ErrInvalidInput
	}

	now := s.clock.Now().UTC()
	m := HouseholdMember{
		ID:          member.ID,
		Name:        member.Name,
		GrantedAt:   now,
		Permissions: s.matrix.ActionsFor(permissions.RoleHousehold),
	}

	g, err := s.repo.Mutate(ctx, accountID, func(g *AccessGrant, exists bool) error {
		if !exists {
			g.AccountID = accountID
			g.CreatedAt = now
		}
		if i := g.householdIndex(m.ID); i >= 0 {
			g.Household[i] = m
		} else {
			g.Household = append(g.Household, m)
		}
		g.UpdatedAt = now
		return nil
	})
	if err != nil {
		return HouseholdMember{}, AccessGrant{}, fmt.Errorf("%w: %v", persistence.ErrUnavailable, err)
	}
	return m, g, nil
}

// RemoveHouseholdMember quita al miembro; idempotente (nil si no estaba).
func (s *Store) RemoveHouseholdMember(ctx context.Context, accountID, memberID string) (*HouseholdMember, error) {
	accountID = strings.TrimSpace(accountID)
	memberID = strings.TrimSpace(memberID)
	if accountID == "" || memberID == "" {
		return nil, ErrInvalidInput
	}

	var removed *HouseholdMember
	now := s.clock.Now().UTC()

	_, err := s.repo.Mutate(ctx, accountID, func(g *AccessGrant, exists bool) error {
		if !exists {
			return ErrNoGrantConfigured
		}
		i := g.householdIndex(memberID)
		if i < 0 {
			return errUnchanged
		}
		cp := g.Household[i]
		removed = &cp
		g.Household = append(g.Household[:i:i], g.Household[i+1:]...)
		g.UpdatedAt = now
		return nil
	})
	switch {
	case err == nil, errors.Is(err, errUnchanged):
		return removed, nil
	case errors.Is(err, ErrNoGrantConfigured):
		return nil, ErrNoGrantConfigured
	default:
		return nil, fmt.Errorf("%w: %v", persistence.ErrUnavailable, err)
	}
}

func normalizeIdentity(in Identity) Identity {
	return Identity{
		ID:    strings.TrimSpace(in.ID),
		Name:  strings.TrimSpace(in.Name),
		Phone: strings.TrimSpace(in.Phone),
	}
}
