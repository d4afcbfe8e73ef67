package audit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"shared-access-core/internal/domain/permissions"
	"shared-access-core/internal/middleware"
	"shared-access-core/internal/ports/persistence"

	"github.com/go-chi/chi/v5"
)

// Authorizer evita importar el paquete access (rompe ciclos).
type Authorizer interface {
	Authorize(ctx context.Context, accountID string, actor Actor, action permissions.Action) error
}

// DefaultSummaryDays si el query no trae ?days=.
const DefaultSummaryDays = 30

func RegisterRoutes(r chi.Router, l *Log, authz Authorizer) {
	r.Route("/accounts/{accountID}/audit", func(ar chi.Router) {
		ar.Post("/", logActionHandler(l, authz))
		ar.Get("/", getAuditLogHandler(l, authz))
		ar.Get("/summary", summaryHandler(l, authz))
		ar.Get("/verify", verifyChainHandler(l))
		ar.Post("/{logID}/rollback", rollbackHandler(l, authz))
	})
}

type logActionRequest struct {
	Action        Action          `json:"action"`
	Details       json.RawMessage `json:"details,omitempty"`
	RecordID      string          `json:"record_id,omitempty"`
	RecordType    string          `json:"record_type,omitempty"`
	Reason        string          `json:"reason,omitempty"`
	SessionID     string          `json:"session_id,omitempty"`
	ChangesBefore json.RawMessage `json:"changes_before,omitempty"`
	ChangesAfter  json.RawMessage `json:"changes_after,omitempty"`
}

type entryResponse struct {
	LogID         string           `json:"log_id"`
	Seq           int64            `json:"seq"`
	Timestamp     time.Time        `json:"timestamp"`
	AccountID     string           `json:"account_id"`
	ActorID       string           `json:"actor_id"`
	Role          permissions.Role `json:"role"`
	Action        Action           `json:"action"`
	Details       json.RawMessage  `json:"details,omitempty"`
	RecordID      string           `json:"record_id,omitempty"`
	RecordType    string           `json:"record_type,omitempty"`
	Reason        string           `json:"reason,omitempty"`
	SessionID     string           `json:"session_id,omitempty"`
	ChangesBefore json.RawMessage  `json:"changes_before,omitempty"`
	ChangesAfter  json.RawMessage  `json:"changes_after,omitempty"`
	PrevHash      string           `json:"prev_hash,omitempty"`
	Hash          string           `json:"hash"`
}

type summaryResponse struct {
	AccountID  string                   `json:"account_id"`
	WindowDays int                      `json:"window_days"`
	From       time.Time                `json:"from"`
	To         time.Time                `json:"to"`
	Total      int                      `json:"total"`
	ByRole     map[permissions.Role]int `json:"by_role"`
	ByAction   map[Action]int           `json:"by_action"`
	ByActor    map[string]int           `json:"by_actor"`
}

type rollbackRequest struct {
	Reason string `json:"reason"`
}

type rollbackResponse struct {
	Entry      entryResponse   `json:"entry"`
	RolledBack string          `json:"rolled_back_log_id"`
	Restored   json.RawMessage `json:"restored"`
}

type chainResponse struct {
	AccountID   string `json:"account_id"`
	Entries     int    `json:"entries"`
	Valid       bool   `json:"valid"`
	BrokenAtSeq int64  `json:"broken_at_seq,omitempty"`
}

// logActionHandler godoc
// @Summary Registrar una acción atribuida
// @Description Agrega una entrada al audit log atribuida al caller. La acción es libre (ej. "update"); si es una acción de la matriz se valida contra el permiso del rol. Las acciones del core (create_invitation, accept_invitation, decline_invitation, revoke_access, add_household_member, remove_household_member, rollback_action) están reservadas y responden 400.
// @Tags audit
// @Accept json
// @Produce json
// @Param accountID path string true "ID de la cuenta"
// @Param payload body logActionRequest true "Acción, payloads y snapshots opcionales"
// @Success 201 {object} entryResponse
// @Failure 400 {string} string "invalid json / invalid input / reserved action"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 503 {string} string "persistence unavailable"
// @Router /accounts/{accountID}/audit [post]
func logActionHandler(l *Log, authz Authorizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.RequireClaims(w, r)
		if !ok {
			return
		}
		accountID := chi.URLParam(r, "accountID")
		actor := Actor{ID: claims.UserID, Role: claims.Role}

		var req logActionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Action.Reserved() {
			http.Error(w, "reserved action", http.StatusBadRequest)
			return
		}

		// Acciones de la matriz: el caller tiene que poder hacerlas. El resto: alcanza con lectura.
		need := permissions.ActionRead
		if a, err := permissions.ParseAction(string(req.Action)); err == nil {
			need = a
		}
		if err := authz.Authorize(r.Context(), accountID, actor, need); err != nil {
			writeError(w, err)
			return
		}

		e, err := l.LogAction(r.Context(), LogInput{
			AccountID:     accountID,
			ActorID:       actor.ID,
			Role:          actor.Role,
			Action:        req.Action,
			Details:       req.Details,
			RecordID:      req.RecordID,
			RecordType:    req.RecordType,
			Reason:        req.Reason,
			SessionID:     req.SessionID,
			ChangesBefore: req.ChangesBefore,
			ChangesAfter:  req.ChangesAfter,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toEntryResponse(e))
	}
}

// getAuditLogHandler godoc
// @Summary Consultar el audit log
// @Description Entradas más nuevas primero. Filtros opcionales por rol, acción, record, actor y rango de fechas (RFC3339, inclusivo).
// @Tags audit
// @Produce json
// @Param accountID path string true "ID de la cuenta"
// @Param role query string false "owner|support|delivery|household"
// @Param action query string false "Acción"
// @Param record_id query string false "ID del record"
// @Param actor_id query string false "ID del actor"
// @Param from query string false "Desde (RFC3339)"
// @Param to query string false "Hasta (RFC3339)"
// @Param limit query int false "Máximo de entradas"
// @Success 200 {array} entryResponse
// @Failure 400 {string} string "invalid filter"
// @Failure 403 {string} string "forbidden"
// @Router /accounts/{accountID}/audit [get]
func getAuditLogHandler(l *Log, authz Authorizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := authorizeRead(w, r, authz)
		if !ok {
			return
		}

		filter, err := parseFilter(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		items, err := l.GetAuditLog(r.Context(), accountID, filter)
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]entryResponse, 0, len(items))
		for _, e := range items {
			out = append(out, toEntryResponse(e))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// summaryHandler godoc
// @Summary Resumen de atribución
// @Description Conteos por rol, acción y actor en los últimos days días (default 30).
// @Tags audit
// @Produce json
// @Param accountID path string true "ID de la cuenta"
// @Param days query int false "Ventana en días"
// @Success 200 {object} summaryResponse
// @Failure 400 {string} string "invalid days"
// @Failure 403 {string} string "forbidden"
// @Router /accounts/{accountID}/audit/summary [get]
func summaryHandler(l *Log, authz Authorizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := authorizeRead(w, r, authz)
		if !ok {
			return
		}

		days := DefaultSummaryDays
		if raw := strings.TrimSpace(r.URL.Query().Get("days")); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				http.Error(w, "days must be a positive integer", http.StatusBadRequest)
				return
			}
			days = n
		}

		s, err := l.GetAttributionSummary(r.Context(), accountID, days)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, summaryResponse{
			AccountID:  s.AccountID,
			WindowDays: s.WindowDays,
			From:       s.From,
			To:         s.To,
			Total:      s.Total,
			ByRole:     s.ByRole,
			ByAction:   s.ByAction,
			ByActor:    s.ByActor,
		})
	}
}

// rollbackHandler godoc
// @Summary Revertir una acción
// @Description No modifica la entrada original: agrega una entrada rollback_action con los valores restaurados. Requiere permiso de update en la cuenta.
// @Tags audit
// @Accept json
// @Produce json
// @Param accountID path string true "ID de la cuenta"
// @Param logID path string true "ID de la entrada a revertir"
// @Param payload body rollbackRequest false "Motivo"
// @Success 201 {object} rollbackResponse
// @Failure 404 {string} string "log entry not found"
// @Failure 409 {string} string "no snapshot recorded"
// @Router /accounts/{accountID}/audit/{logID}/rollback [post]
func rollbackHandler(l *Log, authz Authorizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.RequireClaims(w, r)
		if !ok {
			return
		}
		accountID := chi.URLParam(r, "accountID")
		actor := Actor{ID: claims.UserID, Role: claims.Role}

		if err := authz.Authorize(r.Context(), accountID, actor, permissions.ActionUpdate); err != nil {
			writeError(w, err)
			return
		}

		var req rollbackRequest
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
		}

		res, err := l.RollbackAction(r.Context(), RollbackInput{
			AccountID: accountID,
			LogID:     chi.URLParam(r, "logID"),
			By:        actor,
			Reason:    req.Reason,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, rollbackResponse{
			Entry:      toEntryResponse(res.Entry),
			RolledBack: res.RolledBack,
			Restored:   res.Restored,
		})
	}
}

// verifyChainHandler: solo el owner.
func verifyChainHandler(l *Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID := chi.URLParam(r, "accountID")
		if _, ok := middleware.RequireOwner(w, r, accountID); !ok {
			return
		}

		rep, err := l.VerifyChain(r.Context(), accountID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, chainResponse{
			AccountID:   rep.AccountID,
			Entries:     rep.Entries,
			Valid:       rep.Valid,
			BrokenAtSeq: rep.BrokenAtSeq,
		})
	}
}

func authorizeRead(w http.ResponseWriter, r *http.Request, authz Authorizer) (string, bool) {
	claims, ok := middleware.RequireClaims(w, r)
	if !ok {
		return "", false
	}
	accountID := chi.URLParam(r, "accountID")
	if err := authz.Authorize(r.Context(), accountID, Actor{ID: claims.UserID, Role: claims.Role}, permissions.ActionRead); err != nil {
		writeError(w, err)
		return "", false
	}
	return accountID, true
}

func parseFilter(r *http.Request) (ListFilter, error) {
	q := r.URL.Query()
	f := ListFilter{
		Action:   Action(strings.TrimSpace(q.Get("action"))),
		RecordID: strings.TrimSpace(q.Get("record_id")),
		ActorID:  strings.TrimSpace(q.Get("actor_id")),
	}

	if raw := strings.TrimSpace(q.Get("role")); raw != "" {
		role, err := permissions.ParseRole(raw)
		if err != nil {
			return ListFilter{}, err
		}
		f.Role = role
	}
	for key, dst := range map[string]**time.Time{"from": &f.From, "to": &f.To} {
		raw := strings.TrimSpace(q.Get(key))
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return ListFilter{}, errors.New(key + " must be RFC3339")
		}
		*dst = &t
	}
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return ListFilter{}, errors.New("limit must be a non-negative integer")
		}
		f.Limit = n
	}
	return f, nil
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, permissions.ErrInvalidRole):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrLogEntryNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrNoSnapshotRecorded):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, permissions.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, persistence.ErrUnavailable):
		http.Error(w, "persistence unavailable", http.StatusServiceUnavailable)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toEntryResponse(e Entry) entryResponse {
	return entryResponse{
		LogID:         e.LogID,
		Seq:           e.Seq,
		Timestamp:     e.Timestamp,
		AccountID:     e.AccountID,
		ActorID:       e.ActorID,
		Role:          e.Role,
		Action:        e.Action,
		Details:       e.Details,
		RecordID:      e.RecordID,
		RecordType:    e.RecordType,
		Reason:        e.Reason,
		SessionID:     e.SessionID,
		ChangesBefore: e.ChangesBefore,
		ChangesAfter:  e.ChangesAfter,
		PrevHash:      e.PrevHash,
		Hash:          e.Hash,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
