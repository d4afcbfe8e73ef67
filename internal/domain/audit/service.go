package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"shared-access-core/internal/domain/permissions"
	"shared-access-core/internal/platform/clock"
	"shared-access-core/internal/platform/ids"
	"shared-access-core/internal/platform/logger"
	"shared-access-core/internal/ports/persistence"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrLogEntryNotFound   = errors.New("log entry not found")
	ErrNoSnapshotRecorded = errors.New("no snapshot recorded")
)

// DefaultRetention es el techo de entradas por cuenta antes de recortar las más viejas.
const DefaultRetention = 10000

type Options struct {
	Clock     clock.Clock
	IDs       ids.Generator
	Logger    logger.Logger
	Retention int
}

// Log es el registro append-only de acciones atribuidas.
type Log struct {
	repo      Repository
	clock     clock.Clock
	ids       ids.Generator
	log       logger.Logger
	retention int
}

func NewLog(repo Repository, opts Options) *Log {
	l := &Log{
		repo:      repo,
		clock:     opts.Clock,
		ids:       opts.IDs,
		log:       opts.Logger,
		retention: opts.Retention,
	}
	if l.clock == nil {
		l.clock = clock.System()
	}
	if l.ids == nil {
		l.ids = ids.UUID()
	}
	if l.log == nil {
		l.log = logger.Nop()
	}
	if l.retention <= 0 {
		l.retention = DefaultRetention
	}
	return l
}

// LogAction agrega una entrada. Solo falla por input inválido o por el store
// (persistence.ErrUnavailable); quien describe una acción ya hecha debe usar Record.
func (l *Log) LogAction(ctx context.Context, in LogInput) (Entry, error) {
	in.AccountID = strings.TrimSpace(in.AccountID)
	in.ActorID = strings.TrimSpace(in.ActorID)
	in.Action = Action(strings.TrimSpace(string(in.Action)))

	if in.AccountID == "" || in.ActorID == "" || in.Action == "" {
		return Entry{}, ErrInvalidInput
	}
	if !in.Role.Valid() {
		return Entry{}, permissions.ErrInvalidRole
	}

	details, err := encodePayload(in.Details)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: details: %v", ErrInvalidInput, err)
	}
	before, err := encodePayload(in.ChangesBefore)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: changes_before: %v", ErrInvalidInput, err)
	}
	after, err := encodePayload(in.ChangesAfter)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: changes_after: %v", ErrInvalidInput, err)
	}

	logID := l.ids.NewID()
	// Precisión de microsegundos: es lo que guarda Postgres, y el hash tiene que sobrevivir al round-trip.
	now := l.clock.Now().UTC().Truncate(time.Microsecond)

	e, err := l.repo.Append(ctx, in.AccountID, l.retention, func(last *Entry) (Entry, error) {
		e := Entry{
			LogID:         logID,
			Seq:           1,
			Timestamp:     now,
			AccountID:     in.AccountID,
			ActorID:       in.ActorID,
			Role:          in.Role,
			Action:        in.Action,
			Details:       details,
			RecordID:      strings.TrimSpace(in.RecordID),
			RecordType:    strings.TrimSpace(in.RecordType),
			Reason:        strings.TrimSpace(in.Reason),
			SessionID:     strings.TrimSpace(in.SessionID),
			ChangesBefore: before,
			ChangesAfter:  after,
		}
		if last != nil {
			e.Seq = last.Seq + 1
			e.PrevHash = last.Hash
			// El log queda ordenado por timestamp aunque el reloj retroceda.
			if e.Timestamp.Before(last.Timestamp) {
				e.Timestamp = last.Timestamp
			}
		}
		h, err := computeHash(e)
		if err != nil {
			return Entry{}, err
		}
		e.Hash = h
		return e, nil
	})
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %v", persistence.ErrUnavailable, err)
	}
	return e, nil
}

// Record es el camino best-effort: si el store falla se loguea en warn y la
// acción descrita sigue su curso. ok=false indica que la entrada no quedó escrita.
func (l *Log) Record(ctx context.Context, in LogInput) (Entry, bool) {
	e, err := l.LogAction(ctx, in)
	if err != nil {
		l.log.Warn("audit write failed", logger.Fields{
			"account_id": in.AccountID,
			"actor_id":   in.ActorID,
			"role":       string(in.Role),
			"action":     string(in.Action),
			"error":      err,
		})
		return Entry{}, false
	}
	return e, true
}

// GetAuditLog devuelve las entradas más nuevas primero.
func (l *Log) GetAuditLog(ctx context.Context, accountID string, filter ListFilter) ([]Entry, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, ErrInvalidInput
	}
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, permissions.ErrInvalidRole
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, ErrInvalidInput
	}
	if filter.Limit < 0 {
		return nil, ErrInvalidInput
	}

	items, err := l.repo.List(ctx, accountID, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", persistence.ErrUnavailable, err)
	}
	sortNewestFirst(items)
	return items, nil
}

// GetAttributionSummary agrega conteos por rol, acción y actor en los últimos windowDays días.
func (l *Log) GetAttributionSummary(ctx context.Context, accountID string, windowDays int) (Summary, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" || windowDays <= 0 {
		return Summary{}, ErrInvalidInput
	}

	to := l.clock.Now().UTC()
	from := to.Add(-time.Duration(windowDays) * 24 * time.Hour)

	items, err := l.repo.List(ctx, accountID, ListFilter{From: &from, To: &to})
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %v", persistence.ErrUnavailable, err)
	}

	s := Summary{
		AccountID:  accountID,
		WindowDays: windowDays,
		From:       from,
		To:         to,
		ByRole:     map[permissions.Role]int{},
		ByAction:   map[Action]int{},
		ByActor:    map[string]int{},
	}
	for _, e := range items {
		s.Total++
		s.ByRole[e.Role]++
		s.ByAction[e.Action]++
		s.ByActor[e.ActorID]++
	}
	return s, nil
}

// RollbackAction no toca la entrada original: agrega una rollback_action que
// referencia el logID y lleva los valores restaurados.
func (l *Log) RollbackAction(ctx context.Context, in RollbackInput) (RollbackResult, error) {
	in.AccountID = strings.TrimSpace(in.AccountID)
	in.LogID = strings.TrimSpace(in.LogID)
	if in.AccountID == "" || in.LogID == "" {
		return RollbackResult{}, ErrInvalidInput
	}

	orig, err := l.repo.Get(ctx, in.AccountID, in.LogID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return RollbackResult{}, ErrLogEntryNotFound
		}
		return RollbackResult{}, fmt.Errorf("%w: %v", persistence.ErrUnavailable, err)
	}
	if len(orig.ChangesBefore) == 0 {
		return RollbackResult{}, ErrNoSnapshotRecorded
	}

	if strings.TrimSpace(in.By.ID) == "" {
		return RollbackResult{}, ErrInvalidInput
	}

	e, err := l.LogAction(ctx, LogInput{
		AccountID: in.AccountID,
		ActorID:   in.By.ID,
		Role:      in.By.Role,
		Action:    ActionRollback,
		Details: map[string]any{
			"rolled_back_log_id": orig.LogID,
			"original_action":    string(orig.Action),
			"original_actor_id":  orig.ActorID,
			"restored":           orig.ChangesBefore,
		},
		RecordID:      orig.RecordID,
		RecordType:    orig.RecordType,
		Reason:        in.Reason,
		ChangesBefore: orig.ChangesAfter,
		ChangesAfter:  orig.ChangesBefore,
	})
	if err != nil {
		return RollbackResult{}, err
	}

	return RollbackResult{
		Entry:      e,
		RolledBack: orig.LogID,
		Restored:   orig.ChangesBefore,
	}, nil
}

// VerifyChain recalcula la cadena de hashes de la cola retenida. La primera entrada
// retenida puede apuntar a una recortada; desde ahí cada PrevHash debe coincidir.
func (l *Log) VerifyChain(ctx context.Context, accountID string) (ChainReport, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return ChainReport{}, ErrInvalidInput
	}

	items, err := l.repo.List(ctx, accountID, ListFilter{})
	if err != nil {
		return ChainReport{}, fmt.Errorf("%w: %v", persistence.ErrUnavailable, err)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Seq < items[j].Seq })

	rep := ChainReport{AccountID: accountID, Entries: len(items), Valid: true}
	for i, e := range items {
		h, err := computeHash(e)
		if err != nil || h != e.Hash || (i > 0 && e.PrevHash != items[i-1].Hash) {
			rep.Valid = false
			rep.BrokenAtSeq = e.Seq
			return rep, nil
		}
	}
	return rep, nil
}

func sortNewestFirst(items []Entry) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Timestamp.Equal(items[j].Timestamp) {
			return items[i].Timestamp.After(items[j].Timestamp)
		}
		return items[i].Seq > items[j].Seq
	})
}

func encodePayload(v any) (json.RawMessage, error) {
	var raw []byte
	switch t := v.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		raw = t
	case []byte:
		raw = t
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		raw = b
	}

	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return nil, nil
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, err
	}
	return json.RawMessage(buf.Bytes()), nil
}
