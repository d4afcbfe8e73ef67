package invitations

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"shared-access-core/internal/domain/audit"
	"shared-access-core/internal/domain/grants"
	"shared-access-core/internal/domain/permissions"
	"shared-access-core/internal/middleware"
	"shared-access-core/internal/ports/persistence"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, mgr *Manager) {
	r.Route("/accounts/{accountID}/invitations", func(ir chi.Router) {
		ir.Post("/", createInvitationHandler(mgr))
		ir.Get("/", listInvitationsHandler(mgr))
		ir.Post("/{code}/accept", acceptInvitationHandler(mgr))
		ir.Post("/{code}/decline", declineInvitationHandler(mgr))
	})

	r.Delete("/accounts/{accountID}/grants/{role}", revokeAccessHandler(mgr))
}

type createInvitationRequest struct {
	Role  permissions.Role `json:"role"`
	Name  string           `json:"name"`
	Phone string           `json:"phone"`
}

type inviterResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type invitationResponse struct {
	Code        string           `json:"code"`
	AccountID   string           `json:"account_id"`
	InviterRole permissions.Role `json:"inviter_role"`
	Inviter     inviterResponse  `json:"inviter"`
	Status      Status           `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	ExpiresAt   time.Time        `json:"expires_at"`
	AcceptedAt  *time.Time       `json:"accepted_at,omitempty"`
	DeclinedAt  *time.Time       `json:"declined_at,omitempty"`
}

type slotResponse struct {
	ID             string               `json:"id"`
	Name           string               `json:"name,omitempty"`
	Phone          string               `json:"phone,omitempty"`
	GrantedAt      time.Time            `json:"granted_at"`
	Permissions    []permissions.Action `json:"permissions"`
	InvitationCode string               `json:"invitation_code,omitempty"`
}

type householdResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name,omitempty"`
	GrantedAt   time.Time            `json:"granted_at"`
	Permissions []permissions.Action `json:"permissions"`
}

type grantResponse struct {
	AccountID string              `json:"account_id"`
	Support   *slotResponse       `json:"support"`
	Delivery  *slotResponse       `json:"delivery"`
	Household []householdResponse `json:"household"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// createInvitationHandler godoc
// @Summary Crear invitación
// @Description Un agente de support o delivery invita a la cuenta a darle acceso. El rol del body tiene que coincidir con el rol del caller. La invitación vence a los 7 días.
// @Tags invitations
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario"
// @Param X-Debug-Role header string false "Solo en modo dev, rol del usuario"
// @Param Authorization header string false "Bearer token en producción"
// @Param accountID path string true "ID de la cuenta"
// @Param payload body createInvitationRequest true "Rol del inviter (support|delivery), nombre y teléfono"
// @Success 201 {object} invitationResponse
// @Failure 400 {string} string "invalid json / invalid role"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 503 {string} string "persistence unavailable"
// @Router /accounts/{accountID}/invitations [post]
func createInvitationHandler(mgr *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.RequireClaims(w, r)
		if !ok {
			return
		}

		var req createInvitationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Role == "" {
			req.Role = claims.Role
		}
		if req.Role != claims.Role {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		name := strings.TrimSpace(req.Name)
		if name == "" {
			name = claims.Name
		}
		phone := strings.TrimSpace(req.Phone)
		if phone == "" {
			phone = claims.Phone
		}

		inv, err := mgr.CreateInvitation(r.Context(), chi.URLParam(r, "accountID"), req.Role, Inviter{
			ID:    claims.UserID,
			Name:  name,
			Phone: phone,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toInvitationResponse(inv))
	}
}

// listInvitationsHandler godoc
// @Summary Listar invitaciones de la cuenta
// @Description El owner ve todas; un agente de staff solo las que emitió. Las pendientes vencidas se informan como expired.
// @Tags invitations
// @Produce json
// @Param accountID path string true "ID de la cuenta"
// @Success 200 {array} invitationResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Router /accounts/{accountID}/invitations [get]
func listInvitationsHandler(mgr *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.RequireClaims(w, r)
		if !ok {
			return
		}

		accountID := chi.URLParam(r, "accountID")
		owner := claims.Role == permissions.RoleOwner && claims.IsOwnerOf(accountID)
		if !owner && !claims.Role.CanInvite() {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		items, err := mgr.ListInvitations(r.Context(), accountID)
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]invitationResponse, 0, len(items))
		for _, inv := range items {
			if !owner && inv.Inviter.ID != claims.UserID {
				continue
			}
			out = append(out, toInvitationResponse(inv))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// acceptInvitationHandler godoc
// @Summary Aceptar invitación
// @Description Solo el owner. Instala el slot del rol del inviter y devuelve el estado de grants de la cuenta.
// @Tags invitations
// @Produce json
// @Param accountID path string true "ID de la cuenta"
// @Param code path string true "Código de la invitación"
// @Success 200 {object} grantResponse
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "invitation not found"
// @Failure 410 {string} string "invitation expired"
// @Router /accounts/{accountID}/invitations/{code}/accept [post]
func acceptInvitationHandler(mgr *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID := chi.URLParam(r, "accountID")
		if _, ok := middleware.RequireOwner(w, r, accountID); !ok {
			return
		}

		g, err := mgr.AcceptInvitation(r.Context(), accountID, chi.URLParam(r, "code"))
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toGrantResponse(g))
	}
}

func declineInvitationHandler(mgr *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID := chi.URLParam(r, "accountID")
		if _, ok := middleware.RequireOwner(w, r, accountID); !ok {
			return
		}

		inv, err := mgr.DeclineInvitation(r.Context(), accountID, chi.URLParam(r, "code"))
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toInvitationResponse(inv))
	}
}

// revokeAccessHandler godoc
// @Summary Revocar acceso de un rol
// @Description Solo el owner. Vacía el slot de support o delivery; si ya estaba vacío no hace nada.
// @Tags grants
// @Produce json
// @Param accountID path string true "ID de la cuenta"
// @Param role path string true "support | delivery"
// @Success 200 {object} grantResponse
// @Failure 400 {string} string "invalid role"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "no grant configured"
// @Router /accounts/{accountID}/grants/{role} [delete]
func revokeAccessHandler(mgr *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID := chi.URLParam(r, "accountID")
		claims, ok := middleware.RequireOwner(w, r, accountID)
		if !ok {
			return
		}

		role, err := permissions.ParseRole(chi.URLParam(r, "role"))
		if err != nil {
			writeError(w, err)
			return
		}

		g, err := mgr.RevokeAccess(r.Context(), accountID, role, audit.Actor{ID: claims.UserID, Role: claims.Role})
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toGrantResponse(g))
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidRole):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrInvitationNotFound), errors.Is(err, ErrNoGrantConfigured):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInvitationExpired):
		http.Error(w, err.Error(), http.StatusGone)
	case errors.Is(err, persistence.ErrUnavailable):
		http.Error(w, "persistence unavailable", http.StatusServiceUnavailable)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toInvitationResponse(inv Invitation) invitationResponse {
	return invitationResponse{
		Code:        inv.Code,
		AccountID:   inv.AccountID,
		InviterRole: inv.InviterRole,
		Inviter: inviterResponse{
			ID:    inv.Inviter.ID,
			Name:  inv.Inviter.Name,
			Phone: inv.Inviter.Phone,
		},
		Status:     inv.Status,
		CreatedAt:  inv.CreatedAt,
		ExpiresAt:  inv.ExpiresAt,
		AcceptedAt: inv.AcceptedAt,
		DeclinedAt: inv.DeclinedAt,
	}
}

func toSlotResponse(s *grants.Slot) *slotResponse {
	if s == nil {
		return nil
	}
	return &slotResponse{
		ID:             s.ID,
		Name:           s.Name,
		Phone:          s.Phone,
		GrantedAt:      s.GrantedAt,
		Permissions:    s.Permissions,
		InvitationCode: s.InvitationCode,
	}
}

func toGrantResponse(g grants.AccessGrant) grantResponse {
	out := grantResponse{
		AccountID: g.AccountID,
		Support:   toSlotResponse(g.Support),
		Delivery:  toSlotResponse(g.Delivery),
		Household: make([]householdResponse, 0, len(g.Household)),
		UpdatedAt: g.UpdatedAt,
	}
	for _, m := range g.Household {
		out.Household = append(out.Household, householdResponse{
			ID:          m.ID,
			Name:        m.Name,
			GrantedAt:   m.GrantedAt,
			Permissions: m.Permissions,
		})
	}
	return out
}

// writeJSON está duplicado en los handlers de cada módulo a propósito:
// no hay todavía un paquete http compartido.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
