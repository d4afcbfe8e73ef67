package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"shared-access-core/internal/domain/audit"
	"shared-access-core/internal/domain/permissions"
	"shared-access-core/internal/middleware"
	"shared-access-core/internal/ports/persistence"

	"github.com/go-chi/chi/v5"
)

// Authorizer evita importar el paquete access (rompe ciclos).
type Authorizer interface {
	Authorize(ctx context.Context, accountID string, actor audit.Actor, action permissions.Action) error
}

func RegisterRoutes(r chi.Router, reg *Registry, authz Authorizer) {
	r.Route("/accounts/{accountID}/sessions", func(sr chi.Router) {
		sr.Post("/", registerSessionHandler(reg, authz))
		sr.Get("/", listActiveSessionsHandler(reg, authz))
		sr.Delete("/{sessionID}", closeSessionHandler(reg))
		sr.Post("/{sessionID}/touch", touchSessionHandler(reg))
	})
}

type sessionResponse struct {
	SessionID    string           `json:"session_id"`
	AccountID    string           `json:"account_id"`
	ActorID      string           `json:"actor_id"`
	Role         permissions.Role `json:"role"`
	AccessType   AccessType       `json:"access_type"`
	StartedAt    time.Time        `json:"started_at"`
	LastActivity time.Time        `json:"last_activity"`
	ClosedAt     *time.Time       `json:"closed_at,omitempty"`
}

// registerSessionHandler godoc
// @Summary Abrir sesión
// @Description Abre una sesión para el caller sobre la cuenta. Requiere acceso de lectura (owner, staff con grant o miembro del hogar).
// @Tags sessions
// @Produce json
// @Param accountID path string true "ID de la cuenta"
// @Success 201 {object} sessionResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Router /accounts/{accountID}/sessions [post]
func registerSessionHandler(reg *Registry, authz Authorizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.RequireClaims(w, r)
		if !ok {
			return
		}
		accountID := chi.URLParam(r, "accountID")
		actor := audit.Actor{ID: claims.UserID, Role: claims.Role}

		if err := authz.Authorize(r.Context(), accountID, actor, permissions.ActionRead); err != nil {
			writeError(w, err)
			return
		}

		s, err := reg.RegisterSession(r.Context(), accountID, Actor{ID: claims.UserID, Role: claims.Role})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toSessionResponse(s))
	}
}

func listActiveSessionsHandler(reg *Registry, authz Authorizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.RequireClaims(w, r)
		if !ok {
			return
		}
		accountID := chi.URLParam(r, "accountID")

		if err := authz.Authorize(r.Context(), accountID, audit.Actor{ID: claims.UserID, Role: claims.Role}, permissions.ActionRead); err != nil {
			writeError(w, err)
			return
		}

		items, err := reg.ActiveSessions(r.Context(), accountID)
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]sessionResponse, 0, len(items))
		for _, s := range items {
			out = append(out, toSessionResponse(s))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// closeSessionHandler godoc
// @Summary Cerrar sesión
// @Description Idempotente: una sesión desconocida o ya cerrada responde 204. Solo el actor de la sesión o el owner pueden cerrarla.
// @Tags sessions
// @Param accountID path string true "ID de la cuenta"
// @Param sessionID path string true "ID de la sesión"
// @Success 204
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Router /accounts/{accountID}/sessions/{sessionID} [delete]
func closeSessionHandler(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID := chi.URLParam(r, "accountID")
		sessionID := chi.URLParam(r, "sessionID")
		if !ownSessionOrOwner(w, r, reg, accountID, sessionID) {
			return
		}

		if err := reg.CloseSession(r.Context(), accountID, sessionID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func touchSessionHandler(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID := chi.URLParam(r, "accountID")
		sessionID := chi.URLParam(r, "sessionID")
		if !ownSessionOrOwner(w, r, reg, accountID, sessionID) {
			return
		}

		if err := reg.Touch(r.Context(), accountID, sessionID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ownSessionOrOwner: una sesión desconocida pasa (las operaciones son no-op).
func ownSessionOrOwner(w http.ResponseWriter, r *http.Request, reg *Registry, accountID, sessionID string) bool {
	claims, ok := middleware.RequireClaims(w, r)
	if !ok {
		return false
	}
	if claims.Role == permissions.RoleOwner && claims.IsOwnerOf(accountID) {
		return true
	}

	s, err := reg.Get(r.Context(), accountID, sessionID)
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return true
	case err != nil:
		writeError(w, err)
		return false
	}
	if s.ActorID != claims.UserID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, permissions.ErrInvalidRole):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrSessionNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, permissions.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, persistence.ErrUnavailable):
		http.Error(w, "persistence unavailable", http.StatusServiceUnavailable)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toSessionResponse(s Session) sessionResponse {
	return sessionResponse{
		SessionID:    s.SessionID,
		AccountID:    s.AccountID,
		ActorID:      s.ActorID,
		Role:         s.Role,
		AccessType:   s.AccessType,
		StartedAt:    s.StartedAt,
		LastActivity: s.LastActivity,
		ClosedAt:     s.ClosedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
