package invitations

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"shared-access-core/internal/domain/audit"
	"shared-access-core/internal/domain/grants"
	"shared-access-core/internal/domain/permissions"
	"shared-access-core/internal/platform/clock"
	"shared-access-core/internal/platform/ids"
	"shared-access-core/internal/platform/keylock"
	"shared-access-core/internal/platform/logger"
	"shared-access-core/internal/ports/persistence"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvitationNotFound = errors.New("invitation not found")
	ErrInvitationExpired  = errors.New("invitation expired")

	ErrInvalidRole       = permissions.ErrInvalidRole
	ErrNoGrantConfigured = grants.ErrNoGrantConfigured
)

type Options struct {
	Clock  clock.Clock
	IDs    ids.Generator
	Logger logger.Logger
}

// Manager es el InvitationManager: emite, acepta, rechaza y vence invitaciones,
// y hace crecer o achicar el GrantStore.
type Manager struct {
	repo   Repository
	grants *grants.Store
	audit  *audit.Log

	clock clock.Clock
	ids   ids.Generator
	log   logger.Logger
	locks *keylock.Keyed
}

func NewManager(repo Repository, store *grants.Store, auditLog *audit.Log, opts Options) *Manager {
	m := &Manager{
		repo:   repo,
		grants: store,
		audit:  auditLog,
		clock:  opts.Clock,
		ids:    opts.IDs,
		log:    opts.Logger,
		locks:  keylock.New(),
	}
	if m.clock == nil {
		m.clock = clock.System()
	}
	if m.ids == nil {
		m.ids = ids.UUID()
	}
	if m.log == nil {
		m.log = logger.Nop()
	}
	return m
}

// CreateInvitation: solo support y delivery invitan. La invitación vence a los 7 días.
func (m *Manager) CreateInvitation(ctx context.Context, accountID string, role permissions.Role, inviter Inviter) (Invitation, error) {
	accountID = strings.TrimSpace(accountID)
	inviter = normalizeInviter(inviter)

	if !role.CanInvite() {
		return Invitation{}, ErrInvalidRole
	}
	if accountID == "" || inviter.ID == "" {
		return Invitation{}, ErrInvalidInput
	}

	now := m.clock.Now().UTC()
	inv := Invitation{
		Code:        m.ids.NewCode(),
		AccountID:   accountID,
		InviterRole: role,
		Inviter:     inviter,
		Status:      StatusPending,
		CreatedAt:   now,
		ExpiresAt:   now.Add(TTL),
	}

	if err := m.repo.Create(ctx, inv); err != nil {
		return Invitation{}, fmt.Errorf("%w: %v", persistence.ErrUnavailable, err)
	}

	m.audit.Record(ctx, audit.LogInput{
		AccountID: accountID,
		ActorID:   inviter.ID,
		Role:      role,
		Action:    audit.ActionCreateInvitation,
		Details: map[string]any{
			"code":         inv.Code,
			"role":         string(role),
			"inviter_name": inviter.Name,
			"expires_at":   inv.ExpiresAt,
		},
		RecordID:   inv.Code,
		RecordType: "invitation",
	})

	return inv, nil
}

// AcceptInvitation consume la invitación e instala el slot del rol del inviter.
// Una invitación vencida queda en expired antes de devolver ErrInvitationExpired.
func (m *Manager) AcceptInvitation(ctx context.Context, accountID, code string) (grants.AccessGrant, error) {
	accountID = strings.TrimSpace(accountID)
	code = strings.TrimSpace(code)
	if accountID == "" || code == "" {
		return grants.AccessGrant{}, ErrInvalidInput
	}

	unlock := m.locks.Lock(accountID)
	defer unlock()

	inv, err := m.loadPending(ctx, accountID, code)
	if err != nil {
		return grants.AccessGrant{}, err
	}

	now := m.clock.Now().UTC()
	if inv.ExpiredAt(now) {
		if err := m.expire(ctx, inv); err != nil {
			return grants.AccessGrant{}, err
		}
		return grants.AccessGrant{}, ErrInvitationExpired
	}

	inv.Status = StatusAccepted
	inv.AcceptedAt = &now
	if err := m.transition(ctx, inv, StatusPending); err != nil {
		return grants.AccessGrant{}, err
	}

	who := grants.Identity{ID: inv.Inviter.ID, Name: inv.Inviter.Name, Phone: inv.Inviter.Phone}
	g, err := m.grants.Install(ctx, accountID, inv.InviterRole, who, inv.Code)
	if err != nil {
		m.log.Error("invitation accepted but grant not installed", logger.Fields{
			"account_id": accountID,
			"code":       inv.Code,
			"role":       string(inv.InviterRole),
			"error":      err,
		})
		return grants.AccessGrant{}, err
	}

	m.audit.Record(ctx, audit.LogInput{
		AccountID: accountID,
		ActorID:   accountID,
		Role:      permissions.RoleOwner,
		Action:    audit.ActionAcceptInvitation,
		Details: map[string]any{
			"code":       inv.Code,
			"role":       string(inv.InviterRole),
			"granted_to": identityDetails(who),
		},
		RecordID:   inv.Code,
		RecordType: "invitation",
	})

	return g, nil
}

// DeclineInvitation marca la invitación como declined. Igual que en accept, una
// invitación vencida pasa a expired y no se puede rechazar.
func (m *Manager) DeclineInvitation(ctx context.Context, accountID, code string) (Invitation, error) {
	accountID = strings.TrimSpace(accountID)
	code = strings.TrimSpace(code)
	if accountID == "" || code == "" {
		return Invitation{}, ErrInvalidInput
	}

	unlock := m.locks.Lock(accountID)
	defer unlock()

	inv, err := m.loadPending(ctx, accountID, code)
	if err != nil {
		return Invitation{}, err
	}

	now := m.clock.Now().UTC()
	if inv.ExpiredAt(now) {
		if err := m.expire(ctx, inv); err != nil {
			return Invitation{}, err
		}
		return Invitation{}, ErrInvitationExpired
	}

	inv.Status = StatusDeclined
	inv.DeclinedAt = &now
	if err := m.transition(ctx, inv, StatusPending); err != nil {
		return Invitation{}, err
	}

	m.audit.Record(ctx, audit.LogInput{
		AccountID: accountID,
		ActorID:   accountID,
		Role:      permissions.RoleOwner,
		Action:    audit.ActionDeclineInvitation,
		Details: map[string]any{
			"code": inv.Code,
			"role": string(inv.InviterRole),
		},
		RecordID:   inv.Code,
		RecordType: "invitation",
	})

	return inv, nil
}

// RevokeAccess vacía el slot del rol. Sin slot ocupado es un no-op silencioso.
// by vacío = el owner de la cuenta.
func (m *Manager) RevokeAccess(ctx context.Context, accountID string, role permissions.Role, by audit.Actor) (grants.AccessGrant, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return grants.AccessGrant{}, ErrInvalidInput
	}
	if !role.RequiresGrant() {
		return grants.AccessGrant{}, ErrInvalidRole
	}
	if strings.TrimSpace(by.ID) == "" {
		by = audit.Actor{ID: accountID, Role: permissions.RoleOwner}
	}

	unlock := m.locks.Lock(accountID)
	defer unlock()

	revoked, g, err := m.grants.Revoke(ctx, accountID, role)
	if err != nil {
		return grants.AccessGrant{}, err
	}
	if revoked == nil {
		return g, nil
	}

	m.audit.Record(ctx, audit.LogInput{
		AccountID: accountID,
		ActorID:   by.ID,
		Role:      by.Role,
		Action:    audit.ActionRevokeAccess,
		Details: map[string]any{
			"role":    string(role),
			"revoked": slotDetails(*revoked),
		},
		RecordID:      string(role),
		RecordType:    "access_grant",
		ChangesBefore: map[string]any{string(role): slotDetails(*revoked)},
		ChangesAfter:  map[string]any{string(role): nil},
	})

	return g, nil
}

// ListInvitations devuelve las invitaciones de la cuenta, más nuevas primero.
// Las pending ya vencidas se informan como expired sin escribir nada: el estado
// guardado solo cambia en accept o decline.
func (m *Manager) ListInvitations(ctx context.Context, accountID string) ([]Invitation, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, ErrInvalidInput
	}

	items, err := m.repo.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", persistence.ErrUnavailable, err)
	}

	now := m.clock.Now().UTC()
	for i := range items {
		if items[i].Status == StatusPending && items[i].ExpiredAt(now) {
			items[i].Status = StatusExpired
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].Code < items[j].Code
	})
	return items, nil
}

// PendingInvitations filtra ListInvitations a las que todavía se pueden aceptar.
func (m *Manager) PendingInvitations(ctx context.Context, accountID string) ([]Invitation, error) {
	items, err := m.ListInvitations(ctx, accountID)
	if err != nil {
		return nil, err
	}
	out := make([]Invitation, 0, len(items))
	for _, inv := range items {
		if inv.Status == StatusPending {
			out = append(out, inv)
		}
	}
	return out, nil
}

// loadPending: un código inexistente o ya consumido es ErrInvitationNotFound.
func (m *Manager) loadPending(ctx context.Context, accountID, code string) (Invitation, error) {
	inv, err := m.repo.Get(ctx, accountID, code)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Invitation{}, ErrInvitationNotFound
		}
		return Invitation{}, fmt.Errorf("%w: %v", persistence.ErrUnavailable, err)
	}
	if inv.Status != StatusPending {
		return Invitation{}, ErrInvitationNotFound
	}
	return inv, nil
}

func (m *Manager) expire(ctx context.Context, inv Invitation) error {
	inv.Status = StatusExpired
	return m.transition(ctx, inv, StatusPending)
}

func (m *Manager) transition(ctx context.Context, inv Invitation, from Status) error {
	err := m.repo.Transition(ctx, inv, from)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrStale), errors.Is(err, persistence.ErrNotFound):
		return ErrInvitationNotFound
	default:
		return fmt.Errorf("%w: %v", persistence.ErrUnavailable, err)
	}
}

func normalizeInviter(in Inviter) Inviter {
	return Inviter{
		ID:    strings.TrimSpace(in.ID),
		Name:  strings.TrimSpace(in.Name),
		Phone: strings.TrimSpace(in.Phone),
	}
}

func identityDetails(who grants.Identity) map[string]any {
	return map[string]any{
		"id":    who.ID,
		"name":  who.Name,
		"phone": who.Phone,
	}
}

func slotDetails(s grants.Slot) map[string]any {
	d := identityDetails(s.Identity)
	d["granted_at"] = s.GrantedAt.Format(time.RFC3339Nano)
	if s.InvitationCode != "" {
		d["invitation_code"] = s.InvitationCode
	}
	return d
}
