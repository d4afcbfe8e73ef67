package access

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"shared-access-core/internal/domain/audit"
	"shared-access-core/internal/domain/conflicts"
	"shared-access-core/internal/domain/grants"
	"shared-access-core/internal/domain/invitations"
	"shared-access-core/internal/domain/permissions"
	"shared-access-core/internal/domain/sessions"
	"shared-access-core/internal/middleware"
	"shared-access-core/internal/ports/persistence"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, c *Controller) {
	r.Route("/accounts/{accountID}", func(ar chi.Router) {
		ar.Get("/permissions", canPerformActionHandler(c))
		ar.Get("/config", sharedAccountConfigHandler(c))
		ar.Get("/records/{recordID}/conflicts", detectConflictHandler(c))
		ar.Post("/records/{recordID}/actions", performHandler(c))
		ar.Post("/household", addHouseholdMemberHandler(c))
		ar.Delete("/household/{memberID}", removeHouseholdMemberHandler(c))
	})
}

type permissionResponse struct {
	AccountID string             `json:"account_id"`
	Role      permissions.Role   `json:"role"`
	Action    permissions.Action `json:"action"`
	Allowed   bool               `json:"allowed"`
}

type participantResponse struct {
	Role        permissions.Role     `json:"role"`
	ActorID     string               `json:"actor_id"`
	Name        string               `json:"name,omitempty"`
	Phone       string               `json:"phone,omitempty"`
	Status      ParticipantStatus    `json:"status"`
	GrantedAt   *time.Time           `json:"granted_at,omitempty"`
	Permissions []permissions.Action `json:"permissions"`
}

type sessionResponse struct {
	SessionID    string              `json:"session_id"`
	ActorID      string              `json:"actor_id"`
	Role         permissions.Role    `json:"role"`
	AccessType   sessions.AccessType `json:"access_type"`
	StartedAt    time.Time           `json:"started_at"`
	LastActivity time.Time           `json:"last_activity"`
}

type pendingInvitationResponse struct {
	Code        string           `json:"code"`
	InviterRole permissions.Role `json:"inviter_role"`
	InviterID   string           `json:"inviter_id"`
	InviterName string           `json:"inviter_name,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	ExpiresAt   time.Time        `json:"expires_at"`
}

type configResponse struct {
	AccountID          string                      `json:"account_id"`
	Participants       []participantResponse       `json:"participants"`
	ActiveSessions     []sessionResponse           `json:"active_sessions"`
	PendingInvitations []pendingInvitationResponse `json:"pending_invitations"`
}

type conflictingActorResponse struct {
	ActorID          string           `json:"actor_id"`
	Role             permissions.Role `json:"role"`
	LastTouched      time.Time        `json:"last_touched"`
	Touches          int              `json:"touches"`
	HasActiveSession bool             `json:"has_active_session"`
}

type conflictResponse struct {
	AccountID         string                     `json:"account_id"`
	RecordID          string                     `json:"record_id"`
	IsConflict        bool                       `json:"is_conflict"`
	ConflictingActors []conflictingActorResponse `json:"conflicting_actors"`
	Resolution        string                     `json:"resolution"`
	WindowSeconds     int                        `json:"window_seconds"`
	CheckedAt         time.Time                  `json:"checked_at"`
}

type performRequest struct {
	Action     permissions.Action `json:"action"`
	RecordType string             `json:"record_type,omitempty"`
	Reason     string             `json:"reason,omitempty"`
	SessionID  string             `json:"session_id,omitempty"`
	Before     json.RawMessage    `json:"before,omitempty"`
	After      json.RawMessage    `json:"after,omitempty"`
	Details    json.RawMessage    `json:"details,omitempty"`
}

type performResponse struct {
	SessionID string            `json:"session_id"`
	LogID     string            `json:"log_id,omitempty"`
	Audited   bool              `json:"audited"`
	Conflict  *conflictResponse `json:"conflict,omitempty"`
}

type householdRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type householdMemberResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name,omitempty"`
	GrantedAt   time.Time            `json:"granted_at"`
	Permissions []permissions.Action `json:"permissions"`
}

// canPerformActionHandler godoc
// @Summary Consultar permiso
// @Description Responde si un rol puede hacer una acción en la cuenta (matriz + grant activo). Sin role usa el rol del caller.
// @Tags access
// @Produce json
// @Param accountID path string true "ID de la cuenta"
// @Param role query string false "owner|support|delivery|household"
// @Param action query string true "Acción"
// @Success 200 {object} permissionResponse
// @Failure 400 {string} string "invalid role / invalid action"
// @Failure 401 {string} string "unauthorized"
// @Router /accounts/{accountID}/permissions [get]
func canPerformActionHandler(c *Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.RequireClaims(w, r)
		if !ok {
			return
		}
		accountID := chi.URLParam(r, "accountID")

		role := claims.Role
		if raw := strings.TrimSpace(r.URL.Query().Get("role")); raw != "" {
			parsed, err := permissions.ParseRole(raw)
			if err != nil {
				writeError(w, err)
				return
			}
			role = parsed
		}
		action, err := permissions.ParseAction(r.URL.Query().Get("action"))
		if err != nil {
			writeError(w, err)
			return
		}

		allowed, err := c.CanPerformAction(r.Context(), accountID, role, action)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, permissionResponse{
			AccountID: accountID,
			Role:      role,
			Action:    action,
			Allowed:   allowed,
		})
	}
}

// sharedAccountConfigHandler godoc
// @Summary Configuración de acceso compartido
// @Description Owner, grants activos, sesiones abiertas e invitaciones pendientes de la cuenta.
// @Tags access
// @Produce json
// @Param accountID path string true "ID de la cuenta"
// @Success 200 {object} configResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Router /accounts/{accountID}/config [get]
func sharedAccountConfigHandler(c *Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := authorize(w, r, c, permissions.ActionRead)
		if !ok {
			return
		}

		cfg, err := c.GetSharedAccountConfig(r.Context(), accountID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toConfigResponse(cfg))
	}
}

// detectConflictHandler godoc
// @Summary Detectar conflicto sobre un record
// @Description Advisory: lista los actores que escribieron el record en los últimos 60 segundos. La política es last-write-wins.
// @Tags access
// @Produce json
// @Param accountID path string true "ID de la cuenta"
// @Param recordID path string true "ID del record"
// @Success 200 {object} conflictResponse
// @Failure 403 {string} string "forbidden"
// @Router /accounts/{accountID}/records/{recordID}/conflicts [get]
func detectConflictHandler(c *Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := authorize(w, r, c, permissions.ActionRead)
		if !ok {
			return
		}

		rep, err := c.DetectConflict(r.Context(), accountID, chi.URLParam(r, "recordID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toConflictResponse(rep))
	}
}

// performHandler godoc
// @Summary Registrar una acción de dominio sobre un record
// @Description El servicio de dominio informa una acción ya aplicada: se valida el permiso, se usa o abre la sesión, se avisa si hay conflicto y se audita con los snapshots enviados.
// @Tags access
// @Accept json
// @Produce json
// @Param accountID path string true "ID de la cuenta"
// @Param recordID path string true "ID del record"
// @Param payload body performRequest true "Acción y snapshots"
// @Success 200 {object} performResponse
// @Failure 400 {string} string "invalid json / invalid action"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "session not found"
// @Router /accounts/{accountID}/records/{recordID}/actions [post]
func performHandler(c *Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.RequireClaims(w, r)
		if !ok {
			return
		}

		var req performRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		action, err := permissions.ParseAction(string(req.Action))
		if err != nil {
			writeError(w, err)
			return
		}

		out, err := c.Perform(r.Context(), PerformRequest{
			AccountID:  chi.URLParam(r, "accountID"),
			Actor:      audit.Actor{ID: claims.UserID, Role: claims.Role},
			Action:     action,
			RecordID:   chi.URLParam(r, "recordID"),
			RecordType: req.RecordType,
			Reason:     req.Reason,
			SessionID:  req.SessionID,
		}, func(context.Context) (Change, error) {
			return Change{Before: req.Before, After: req.After, Details: req.Details}, nil
		})
		if err != nil {
			writeError(w, err)
			return
		}

		resp := performResponse{
			SessionID: out.Session.SessionID,
			LogID:     out.Entry.LogID,
			Audited:   out.Audited,
		}
		if out.Conflict != nil {
			cr := toConflictResponse(*out.Conflict)
			resp.Conflict = &cr
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// addHouseholdMemberHandler godoc
// @Summary Agregar miembro del hogar
// @Description Solo el owner. Si el miembro ya estaba se refrescan nombre y fecha.
// @Tags household
// @Accept json
// @Produce json
// @Param accountID path string true "ID de la cuenta"
// @Param payload body householdRequest true "ID y nombre del miembro"
// @Success 201 {object} householdMemberResponse
// @Failure 400 {string} string "invalid json / invalid input"
// @Failure 403 {string} string "forbidden"
// @Router /accounts/{accountID}/household [post]
func addHouseholdMemberHandler(c *Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID := chi.URLParam(r, "accountID")
		claims, ok := middleware.RequireOwner(w, r, accountID)
		if !ok {
			return
		}

		var req householdRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		m, err := c.AddHouseholdMember(r.Context(), accountID, grants.Identity{
			ID:   req.ID,
			Name: req.Name,
		}, audit.Actor{ID: claims.UserID, Role: claims.Role})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, householdMemberResponse{
			ID:          m.ID,
			Name:        m.Name,
			GrantedAt:   m.GrantedAt,
			Permissions: m.Permissions,
		})
	}
}

func removeHouseholdMemberHandler(c *Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID := chi.URLParam(r, "accountID")
		claims, ok := middleware.RequireOwner(w, r, accountID)
		if !ok {
			return
		}

		err := c.RemoveHouseholdMember(r.Context(), accountID, chi.URLParam(r, "memberID"), audit.Actor{ID: claims.UserID, Role: claims.Role})
		if err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func authorize(w http.ResponseWriter, r *http.Request, c *Controller, action permissions.Action) (string, bool) {
	claims, ok := middleware.RequireClaims(w, r)
	if !ok {
		return "", false
	}
	accountID := chi.URLParam(r, "accountID")
	if err := c.Authorize(r.Context(), accountID, audit.Actor{ID: claims.UserID, Role: claims.Role}, action); err != nil {
		writeError(w, err)
		return "", false
	}
	return accountID, true
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, grants.ErrInvalidInput),
		errors.Is(err, conflicts.ErrInvalidInput),
		errors.Is(err, sessions.ErrInvalidInput),
		errors.Is(err, permissions.ErrInvalidRole),
		errors.Is(err, permissions.ErrInvalidAction):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, sessions.ErrSessionNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, persistence.ErrUnavailable):
		http.Error(w, "persistence unavailable", http.StatusServiceUnavailable)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toConfigResponse(cfg SharedAccountConfig) configResponse {
	out := configResponse{
		AccountID:          cfg.AccountID,
		Participants:       make([]participantResponse, 0, len(cfg.Participants)),
		ActiveSessions:     make([]sessionResponse, 0, len(cfg.ActiveSessions)),
		PendingInvitations: make([]pendingInvitationResponse, 0, len(cfg.PendingInvitations)),
	}
	for _, p := range cfg.Participants {
		out.Participants = append(out.Participants, participantResponse{
			Role:        p.Role,
			ActorID:     p.ActorID,
			Name:        p.Name,
			Phone:       p.Phone,
			Status:      p.Status,
			GrantedAt:   p.GrantedAt,
			Permissions: p.Permissions,
		})
	}
	for _, s := range cfg.ActiveSessions {
		out.ActiveSessions = append(out.ActiveSessions, sessionResponse{
			SessionID:    s.SessionID,
			ActorID:      s.ActorID,
			Role:         s.Role,
			AccessType:   s.AccessType,
			StartedAt:    s.StartedAt,
			LastActivity: s.LastActivity,
		})
	}
	for _, inv := range cfg.PendingInvitations {
		out.PendingInvitations = append(out.PendingInvitations, toPendingResponse(inv))
	}
	return out
}

func toPendingResponse(inv invitations.Invitation) pendingInvitationResponse {
	return pendingInvitationResponse{
		Code:        inv.Code,
		InviterRole: inv.InviterRole,
		InviterID:   inv.Inviter.ID,
		InviterName: inv.Inviter.Name,
		CreatedAt:   inv.CreatedAt,
		ExpiresAt:   inv.ExpiresAt,
	}
}

func toConflictResponse(rep conflicts.Report) conflictResponse {
	out := conflictResponse{
		AccountID:         rep.AccountID,
		RecordID:          rep.RecordID,
		IsConflict:        rep.IsConflict,
		ConflictingActors: make([]conflictingActorResponse, 0, len(rep.ConflictingActors)),
		Resolution:        rep.Resolution,
		WindowSeconds:     int(rep.Window / time.Second),
		CheckedAt:         rep.CheckedAt,
	}
	for _, a := range rep.ConflictingActors {
		out.ConflictingActors = append(out.ConflictingActors, conflictingActorResponse{
			ActorID:          a.ActorID,
			Role:             a.Role,
			LastTouched:      a.LastTouched,
			Touches:          a.Touches,
			HasActiveSession: a.HasActiveSession,
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
