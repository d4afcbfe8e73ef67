package conflicts

import (
	"context"
	"errors"
	"strings"
	"time"

	"shared-access-core/internal/domain/audit"
	"shared-access-core/internal/domain/sessions"
	"shared-access-core/internal/platform/clock"
	"shared-access-core/internal/platform/logger"
)

var ErrInvalidInput = errors.New("invalid input")

// AuditReader es lo que el detector necesita del AuditLog.
type AuditReader interface {
	GetAuditLog(ctx context.Context, accountID string, filter audit.ListFilter) ([]audit.Entry, error)
}

// SessionReader es lo que el detector necesita del SessionRegistry.
type SessionReader interface {
	ActiveSessions(ctx context.Context, accountID string) ([]sessions.Session, error)
}

type Options struct {
	Clock  clock.Clock
	Logger logger.Logger
}

// Detector es el ConflictDetector. Solo lee: no toma locks ni impide escrituras.
type Detector struct {
	audit    AuditReader
	sessions SessionReader
	clock    clock.Clock
	log      logger.Logger
}

func NewDetector(auditLog AuditReader, sessionReader SessionReader, opts Options) *Detector {
	d := &Detector{
		audit:    auditLog,
		sessions: sessionReader,
		clock:    opts.Clock,
		log:      opts.Logger,
	}
	if d.clock == nil {
		d.clock = clock.System()
	}
	if d.log == nil {
		d.log = logger.Nop()
	}
	return d
}

// Detect informa qué actores tocaron el record en los últimos 60s (inclusive).
func (d *Detector) Detect(ctx context.Context, accountID, recordID string) (Report, error) {
	return d.DetectFor(ctx, accountID, recordID, "")
}

// DetectFor es Detect sin contar las escrituras del propio actor que pregunta.
func (d *Detector) DetectFor(ctx context.Context, accountID, recordID, excludeActorID string) (Report, error) {
	accountID = strings.TrimSpace(accountID)
	recordID = strings.TrimSpace(recordID)
	excludeActorID = strings.TrimSpace(excludeActorID)
	if accountID == "" || recordID == "" {
		return Report{}, ErrInvalidInput
	}

	// Misma precisión que los timestamps del audit log (µs).
	now := d.clock.Now().UTC().Truncate(time.Microsecond)
	from := now.Add(-Window)

	rep := Report{
		AccountID:         accountID,
		RecordID:          recordID,
		ConflictingActors: []ConflictingActor{},
		Resolution:        ResolutionLastWriteWins,
		Window:            Window,
		CheckedAt:         now,
	}

	// Sin To: una entrada con timestamp levemente futuro (reloj de otro nodo) también cuenta.
	items, err := d.audit.GetAuditLog(ctx, accountID, audit.ListFilter{RecordID: recordID, From: &from})
	if err != nil {
		return Report{}, err
	}

	index := map[string]int{}
	for _, e := range items {
		if e.ActorID == excludeActorID {
			continue
		}
		if i, ok := index[e.ActorID]; ok {
			rep.ConflictingActors[i].Touches++
			continue
		}
		// items viene newest-first: la primera aparición es la más reciente.
		index[e.ActorID] = len(rep.ConflictingActors)
		rep.ConflictingActors = append(rep.ConflictingActors, ConflictingActor{
			ActorID:     e.ActorID,
			Role:        e.Role,
			LastTouched: e.Timestamp,
			Touches:     1,
		})
	}
	rep.IsConflict = len(rep.ConflictingActors) > 0

	if rep.IsConflict && d.sessions != nil {
		active, err := d.sessions.ActiveSessions(ctx, accountID)
		if err != nil {
			d.log.Warn("conflict check: sessions unavailable", logger.Fields{
				"account_id": accountID,
				"record_id":  recordID,
				"error":      err,
			})
		}
		for _, s := range active {
			if i, ok := index[s.ActorID]; ok {
				rep.ConflictingActors[i].HasActiveSession = true
			}
		}
	}

	return rep, nil
}
