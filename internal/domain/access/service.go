package access

import (
	"context"
	"errors"
	"strings"

	"shared-access-core/internal/domain/audit"
	"shared-access-core/internal/domain/conflicts"
	"shared-access-core/internal/domain/grants"
	"shared-access-core/internal/domain/invitations"
	"shared-access-core/internal/domain/permissions"
	"shared-access-core/internal/domain/sessions"
	"shared-access-core/internal/platform/logger"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = permissions.ErrForbidden
)

type Deps struct {
	Grants      *grants.Store
	Invitations *invitations.Manager
	Sessions    *sessions.Registry
	Audit       *audit.Log
	Conflicts   *conflicts.Detector
}

type Options struct {
	Logger logger.Logger
}

// Controller es el AccessController: la fachada que compone matriz, grants,
// invitaciones, sesiones, conflictos y auditoría.
type Controller struct {
	matrix      permissions.Matrix
	grants      *grants.Store
	invitations *invitations.Manager
	sessions    *sessions.Registry
	audit       *audit.Log
	conflicts   *conflicts.Detector
	log         logger.Logger
}

func NewController(deps Deps, opts Options) *Controller {
	c := &Controller{
		matrix:      permissions.Default(),
		grants:      deps.Grants,
		invitations: deps.Invitations,
		sessions:    deps.Sessions,
		audit:       deps.Audit,
		conflicts:   deps.Conflicts,
		log:         opts.Logger,
	}
	if c.log == nil {
		c.log = logger.Nop()
	}
	return c
}

// CanPerformAction, en orden:
//  1. rol desconocido: false
//  2. acción fuera de la fila del rol: false
//  3. support/delivery: además tiene que haber un slot activo en esta cuenta
//  4. si no: true
//
// Ante un error del store responde false (falla cerrado) junto con el error.
func (c *Controller) CanPerformAction(ctx context.Context, accountID string, role permissions.Role, action permissions.Action) (bool, error) {
	if !role.Valid() {
		return false, nil
	}
	if !c.matrix.Allows(role, action) {
		return false, nil
	}
	if role.RequiresGrant() {
		return c.grants.HasActiveGrant(ctx, accountID, role)
	}
	return true, nil
}

// Authorize es CanPerformAction atado a la identidad: el owner tiene que ser el
// dueño de la cuenta, el staff el que ocupa el slot y el hogar un miembro de la lista.
func (c *Controller) Authorize(ctx context.Context, accountID string, actor audit.Actor, action permissions.Action) error {
	accountID = strings.TrimSpace(accountID)
	actor.ID = strings.TrimSpace(actor.ID)
	if accountID == "" || actor.ID == "" {
		return ErrInvalidInput
	}

	ok, err := c.CanPerformAction(ctx, accountID, actor.Role, action)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}

	if actor.Role == permissions.RoleOwner {
		if actor.ID != accountID {
			return ErrForbidden
		}
		return nil
	}

	g, err := c.grants.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, grants.ErrNoGrantConfigured) {
			return ErrForbidden
		}
		return err
	}
	if actor.Role == permissions.RoleHousehold {
		if !g.HasHouseholdMember(actor.ID) {
			return ErrForbidden
		}
		return nil
	}
	if slot := g.SlotFor(actor.Role); slot == nil || slot.ID != actor.ID {
		return ErrForbidden
	}
	return nil
}

// GetSharedAccountConfig lista el owner, los grants activos (support, delivery y
// hogar, en ese orden), las sesiones abiertas y las invitaciones pendientes.
func (c *Controller) GetSharedAccountConfig(ctx context.Context, accountID string) (SharedAccountConfig, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return SharedAccountConfig{}, ErrInvalidInput
	}

	cfg := SharedAccountConfig{
		AccountID: accountID,
		Participants: []Participant{{
			Role:        permissions.RoleOwner,
			ActorID:     accountID,
			Status:      StatusOwner,
			Permissions: c.matrix.ActionsFor(permissions.RoleOwner),
		}},
	}

	g, err := c.grants.Get(ctx, accountID)
	switch {
	case err == nil:
		for _, role := range []permissions.Role{permissions.RoleSupport, permissions.RoleDelivery} {
			slot := g.SlotFor(role)
			if slot == nil {
				continue
			}
			grantedAt := slot.GrantedAt
			cfg.Participants = append(cfg.Participants, Participant{
				Role:        role,
				ActorID:     slot.ID,
				Name:        slot.Name,
				Phone:       slot.Phone,
				Status:      StatusActive,
				GrantedAt:   &grantedAt,
				Permissions: slot.Permissions,
			})
		}
		for _, m := range g.Household {
			grantedAt := m.GrantedAt
			cfg.Participants = append(cfg.Participants, Participant{
				Role:        permissions.RoleHousehold,
				ActorID:     m.ID,
				Name:        m.Name,
				Status:      StatusActive,
				GrantedAt:   &grantedAt,
				Permissions: m.Permissions,
			})
		}
	case errors.Is(err, grants.ErrNoGrantConfigured):
		// solo el owner
	default:
		return SharedAccountConfig{}, err
	}

	if cfg.ActiveSessions, err = c.sessions.ActiveSessions(ctx, accountID); err != nil {
		return SharedAccountConfig{}, err
	}
	if cfg.PendingInvitations, err = c.invitations.PendingInvitations(ctx, accountID); err != nil {
		return SharedAccountConfig{}, err
	}
	return cfg, nil
}

// Perform es el flujo completo de una acción mutante: permiso (Authorize), sesión, aviso de
// conflicto, la acción del caller y una entrada de auditoría best-effort.
// Si fn falla no se audita nada y se devuelve su error tal cual.
func (c *Controller) Perform(ctx context.Context, req PerformRequest, fn func(ctx context.Context) (Change, error)) (Outcome, error) {
	req.AccountID = strings.TrimSpace(req.AccountID)
	req.Actor.ID = strings.TrimSpace(req.Actor.ID)
	req.RecordID = strings.TrimSpace(req.RecordID)
	if req.AccountID == "" || req.Actor.ID == "" || fn == nil {
		return Outcome{}, ErrInvalidInput
	}

	if err := c.Authorize(ctx, req.AccountID, req.Actor, req.Action); err != nil {
		return Outcome{}, err
	}

	sess, err := c.sessionFor(ctx, req)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{Session: sess}

	if req.RecordID != "" {
		rep, err := c.conflicts.DetectFor(ctx, req.AccountID, req.RecordID, req.Actor.ID)
		if err != nil {
			// advisory: sin reporte, la acción sigue
			c.log.Warn("conflict check failed", logger.Fields{
				"account_id": req.AccountID,
				"record_id":  req.RecordID,
				"error":      err,
			})
		} else {
			out.Conflict = &rep
		}
	}

	change, err := fn(ctx)
	if err != nil {
		return Outcome{}, err
	}

	details := change.Details
	if details == nil {
		details = req.Details
	}
	out.Entry, out.Audited = c.audit.Record(ctx, audit.LogInput{
		AccountID:     req.AccountID,
		ActorID:       req.Actor.ID,
		Role:          req.Actor.Role,
		Action:        audit.Action(req.Action),
		Details:       details,
		RecordID:      req.RecordID,
		RecordType:    req.RecordType,
		Reason:        req.Reason,
		SessionID:     sess.SessionID,
		ChangesBefore: change.Before,
		ChangesAfter:  change.After,
	})

	if err := c.sessions.Touch(ctx, req.AccountID, sess.SessionID); err != nil {
		c.log.Warn("session touch failed", logger.Fields{
			"account_id": req.AccountID,
			"session_id": sess.SessionID,
			"error":      err,
		})
	}

	return out, nil
}

// sessionFor valida la sesión indicada (abierta y del mismo actor) o abre una.
func (c *Controller) sessionFor(ctx context.Context, req PerformRequest) (sessions.Session, error) {
	if strings.TrimSpace(req.SessionID) == "" {
		return c.sessions.RegisterSession(ctx, req.AccountID, sessions.Actor{ID: req.Actor.ID, Role: req.Actor.Role})
	}

	s, err := c.sessions.Get(ctx, req.AccountID, req.SessionID)
	if err != nil {
		return sessions.Session{}, err
	}
	if !s.Active() {
		return sessions.Session{}, sessions.ErrSessionNotFound
	}
	if s.ActorID != req.Actor.ID || s.Role != req.Actor.Role {
		return sessions.Session{}, ErrForbidden
	}
	return s, nil
}

// AddHouseholdMember agrega o refresca un miembro del hogar y lo audita.
func (c *Controller) AddHouseholdMember(ctx context.Context, accountID string, member grants.Identity, by audit.Actor) (grants.HouseholdMember, error) {
	by = ownerIfEmpty(accountID, by)

	m, _, err := c.grants.AddHouseholdMember(ctx, accountID, member)
	if err != nil {
		return grants.HouseholdMember{}, err
	}

	c.audit.Record(ctx, audit.LogInput{
		AccountID: accountID,
		ActorID:   by.ID,
		Role:      by.Role,
		Action:    audit.ActionAddHouseholdMember,
		Details: map[string]any{
			"member_id":   m.ID,
			"member_name": m.Name,
		},
		RecordID:   m.ID,
		RecordType: "household_member",
	})
	return m, nil
}

// RemoveHouseholdMember quita al miembro; si no estaba (o la cuenta no tiene grants) no audita nada.
func (c *Controller) RemoveHouseholdMember(ctx context.Context, accountID, memberID string, by audit.Actor) error {
	by = ownerIfEmpty(accountID, by)

	removed, err := c.grants.RemoveHouseholdMember(ctx, accountID, memberID)
	if err != nil && !errors.Is(err, grants.ErrNoGrantConfigured) {
		return err
	}
	if removed == nil {
		return nil
	}

	c.audit.Record(ctx, audit.LogInput{
		AccountID: accountID,
		ActorID:   by.ID,
		Role:      by.Role,
		Action:    audit.ActionRemoveHouseholdMember,
		Details: map[string]any{
			"member_id":   removed.ID,
			"member_name": removed.Name,
		},
		RecordID:      removed.ID,
		RecordType:    "household_member",
		ChangesBefore: map[string]any{"id": removed.ID, "name": removed.Name, "granted_at": removed.GrantedAt},
	})
	return nil
}

// DetectConflict es el reporte advisory del ConflictDetector.
func (c *Controller) DetectConflict(ctx context.Context, accountID, recordID string) (conflicts.Report, error) {
	return c.conflicts.Detect(ctx, accountID, recordID)
}

func ownerIfEmpty(accountID string, by audit.Actor) audit.Actor {
	if strings.TrimSpace(by.ID) == "" {
		return audit.Actor{ID: strings.TrimSpace(accountID), Role: permissions.RoleOwner}
	}
	return by
}
