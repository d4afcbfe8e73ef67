package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"shared-access-core/internal/domain/permissions"
	"shared-access-core/internal/platform/clock"
	"shared-access-core/internal/platform/ids"
	"shared-access-core/internal/platform/logger"
	"shared-access-core/internal/ports/persistence"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	mu      sync.Mutex
	entries map[string][]Entry
	fail    error
}

func newTestRepo() *testRepo {
	return &testRepo{entries: map[string][]Entry{}}
}

func (r *testRepo) Append(ctx context.Context, accountID string, retention int, build func(last *Entry) (Entry, error)) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.fail != nil {
		return Entry{}, r.fail
	}
	items := r.entries[accountID]
	var last *Entry
	if len(items) > 0 {
		l := items[len(items)-1]
		last = &l
	}
	e, err := build(last)
	if err != nil {
		return Entry{}, err
	}
	items = append(items, e)
	if retention > 0 && len(items) > retention {
		items = append([]Entry(nil), items[len(items)-retention:]...)
	}
	r.entries[accountID] = items
	return e, nil
}

func (r *testRepo) Get(ctx context.Context, accountID, logID string) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries[accountID] {
		if e.LogID == logID {
			return e, nil
		}
	}
	return Entry{}, persistence.ErrNotFound
}

func (r *testRepo) List(ctx context.Context, accountID string, filter ListFilter) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return nil, r.fail
	}
	out := make([]Entry, 0)
	for _, e := range r.entries[accountID] {
		if filter.Match(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

func newTestLog(repo Repository, clk clock.Clock) *Log {
	return NewLog(repo, Options{Clock: clk, IDs: ids.NewSequence("log")})
}

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// -------------------------
// Tests
// -------------------------

func TestLog_LogAction_NewestFirst_AndCount(t *testing.T) {
	repo := newTestRepo()
	clk := clock.NewManual(t0)
	l := newTestLog(repo, clk)

	const n = 7
	for i := 0; i < n; i++ {
		if _, err := l.LogAction(context.Background(), LogInput{
			AccountID: "acc-1",
			ActorID:   "owner-1",
			Role:      permissions.RoleOwner,
			Action:    "update",
			Details:   map[string]any{"i": i},
		}); err != nil {
			t.Fatalf("LogAction #%d error: %v", i, err)
		}
		clk.Advance(time.Second)
	}

	items, err := l.GetAuditLog(context.Background(), "acc-1", ListFilter{})
	if err != nil {
		t.Fatalf("GetAuditLog error: %v", err)
	}
	if len(items) != n {
		t.Fatalf("expected %d entries, got %d", n, len(items))
	}
	for i := 1; i < len(items); i++ {
		if items[i].Timestamp.After(items[i-1].Timestamp) {
			t.Fatalf("entries not newest-first at %d", i)
		}
	}
	if items[0].Seq != n || items[n-1].Seq != 1 {
		t.Fatalf("unexpected seq order: first=%d last=%d", items[0].Seq, items[n-1].Seq)
	}
}

func TestLog_LogAction_ValidatesAttribution(t *testing.T) {
	l := newTestLog(newTestRepo(), clock.NewManual(t0))

	cases := []struct {
		name string
		in   LogInput
		want error
	}{
		{"missing account", LogInput{ActorID: "a", Role: permissions.RoleOwner, Action: "read"}, ErrInvalidInput},
		{"missing actor", LogInput{AccountID: "acc", Role: permissions.RoleOwner, Action: "read"}, ErrInvalidInput},
		{"missing action", LogInput{AccountID: "acc", ActorID: "a", Role: permissions.RoleOwner}, ErrInvalidInput},
		{"unknown role", LogInput{AccountID: "acc", ActorID: "a", Role: "admin", Action: "read"}, permissions.ErrInvalidRole},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := l.LogAction(context.Background(), tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestLog_LogAction_ClockGoingBackwards_KeepsOrder(t *testing.T) {
	repo := newTestRepo()
	clk := clock.NewManual(t0)
	l := newTestLog(repo, clk)
	ctx := context.Background()

	first, _ := l.LogAction(ctx, LogInput{AccountID: "acc", ActorID: "a", Role: permissions.RoleOwner, Action: "update"})
	clk.Advance(-time.Minute)
	second, _ := l.LogAction(ctx, LogInput{AccountID: "acc", ActorID: "a", Role: permissions.RoleOwner, Action: "update"})

	if second.Timestamp.Before(first.Timestamp) {
		t.Fatalf("timestamp went backwards: %v < %v", second.Timestamp, first.Timestamp)
	}
	if second.PrevHash != first.Hash {
		t.Fatalf("expected second entry to chain to first")
	}
}

func TestLog_Retention_TrimsOldestPreservingOrder(t *testing.T) {
	repo := newTestRepo()
	clk := clock.NewManual(t0)
	l := NewLog(repo, Options{Clock: clk, IDs: ids.NewSequence("log"), Retention: 3})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _ = l.LogAction(ctx, LogInput{AccountID: "acc", ActorID: "a", Role: permissions.RoleOwner, Action: "update"})
		clk.Advance(time.Second)
	}

	items, _ := l.GetAuditLog(ctx, "acc", ListFilter{})
	if len(items) != 3 {
		t.Fatalf("expected 3 retained entries, got %d", len(items))
	}
	gotSeqs := []int64{items[0].Seq, items[1].Seq, items[2].Seq}
	if !reflect.DeepEqual(gotSeqs, []int64{5, 4, 3}) {
		t.Fatalf("expected seqs [5 4 3], got %v", gotSeqs)
	}

	rep, err := l.VerifyChain(ctx, "acc")
	if err != nil || !rep.Valid || rep.Entries != 3 {
		t.Fatalf("expected valid chain over trimmed tail, got %#v err=%v", rep, err)
	}
}

func TestLog_GetAuditLog_Filters(t *testing.T) {
	repo := newTestRepo()
	clk := clock.NewManual(t0)
	l := newTestLog(repo, clk)
	ctx := context.Background()

	log := func(actor string, role permissions.Role, action Action, record string) {
		t.Helper()
		if _, err := l.LogAction(ctx, LogInput{AccountID: "acc", ActorID: actor, Role: role, Action: action, RecordID: record}); err != nil {
			t.Fatalf("LogAction: %v", err)
		}
		clk.Advance(10 * time.Second)
	}

	log("owner-1", permissions.RoleOwner, "update", "order-1")    // t0
	log("support-1", permissions.RoleSupport, "update", "order-1") // t0+10s
	log("support-1", permissions.RoleSupport, "create", "order-2") // t0+20s
	log("driver-1", permissions.RoleDelivery, "update_delivery_status", "order-1")

	byRole, _ := l.GetAuditLog(ctx, "acc", ListFilter{Role: permissions.RoleSupport})
	if len(byRole) != 2 {
		t.Fatalf("expected 2 support entries, got %d", len(byRole))
	}

	byRecord, _ := l.GetAuditLog(ctx, "acc", ListFilter{RecordID: "order-1"})
	if len(byRecord) != 3 {
		t.Fatalf("expected 3 entries on order-1, got %d", len(byRecord))
	}

	byAction, _ := l.GetAuditLog(ctx, "acc", ListFilter{Action: "create"})
	if len(byAction) != 1 || byAction[0].RecordID != "order-2" {
		t.Fatalf("unexpected action filter result: %#v", byAction)
	}

	from := t0.Add(10 * time.Second)
	to := t0.Add(20 * time.Second)
	byRange, _ := l.GetAuditLog(ctx, "acc", ListFilter{From: &from, To: &to})
	if len(byRange) != 2 {
		t.Fatalf("expected 2 entries in inclusive range, got %d", len(byRange))
	}

	if _, err := l.GetAuditLog(ctx, "acc", ListFilter{From: &to, To: &from}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for inverted range, got %v", err)
	}
}

func TestLog_GetAttributionSummary(t *testing.T) {
	repo := newTestRepo()
	clk := clock.NewManual(t0)
	l := newTestLog(repo, clk)
	ctx := context.Background()

	// fuera de ventana (10 días atrás)
	_, _ = l.LogAction(ctx, LogInput{AccountID: "acc", ActorID: "owner-1", Role: permissions.RoleOwner, Action: "update"})
	clk.Advance(10 * 24 * time.Hour)

	_, _ = l.LogAction(ctx, LogInput{AccountID: "acc", ActorID: "support-1", Role: permissions.RoleSupport, Action: "update"})
	_, _ = l.LogAction(ctx, LogInput{AccountID: "acc", ActorID: "support-1", Role: permissions.RoleSupport, Action: "create"})
	_, _ = l.LogAction(ctx, LogInput{AccountID: "acc", ActorID: "owner-1", Role: permissions.RoleOwner, Action: "update"})

	before := len(repo.entries["acc"])

	s, err := l.GetAttributionSummary(ctx, "acc", 7)
	if err != nil {
		t.Fatalf("summary error: %v", err)
	}
	if s.Total != 3 {
		t.Fatalf("expected 3 entries in window, got %d", s.Total)
	}
	if s.ByRole[permissions.RoleSupport] != 2 || s.ByRole[permissions.RoleOwner] != 1 {
		t.Fatalf("unexpected by-role counts: %#v", s.ByRole)
	}
	if s.ByAction["update"] != 2 || s.ByAction["create"] != 1 {
		t.Fatalf("unexpected by-action counts: %#v", s.ByAction)
	}
	if s.ByActor["support-1"] != 2 {
		t.Fatalf("unexpected by-actor counts: %#v", s.ByActor)
	}
	if len(repo.entries["acc"]) != before {
		t.Fatalf("summary must not write entries")
	}

	if _, err := l.GetAttributionSummary(ctx, "acc", 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for window 0, got %v", err)
	}
}

func TestLog_RollbackAction_NoSnapshot(t *testing.T) {
	repo := newTestRepo()
	l := newTestLog(repo, clock.NewManual(t0))
	ctx := context.Background()

	e, _ := l.LogAction(ctx, LogInput{AccountID: "acc", ActorID: "a", Role: permissions.RoleOwner, Action: "update", ChangesAfter: map[string]any{"qty": 2}})

	_, err := l.RollbackAction(ctx, RollbackInput{AccountID: "acc", LogID: e.LogID, By: Actor{ID: "a", Role: permissions.RoleOwner}})
	if !errors.Is(err, ErrNoSnapshotRecorded) {
		t.Fatalf("expected ErrNoSnapshotRecorded, got %v", err)
	}
	if len(repo.entries["acc"]) != 1 {
		t.Fatalf("failed rollback must not append entries, got %d", len(repo.entries["acc"]))
	}

	_, err = l.RollbackAction(ctx, RollbackInput{AccountID: "acc", LogID: "nope", By: Actor{ID: "a", Role: permissions.RoleOwner}})
	if !errors.Is(err, ErrLogEntryNotFound) {
		t.Fatalf("expected ErrLogEntryNotFound, got %v", err)
	}
}

func TestLog_RollbackAction_AppendsCompensatingEntry(t *testing.T) {
	repo := newTestRepo()
	clk := clock.NewManual(t0)
	l := newTestLog(repo, clk)
	ctx := context.Background()

	orig, err := l.LogAction(ctx, LogInput{
		AccountID:     "acc",
		ActorID:       "support-1",
		Role:          permissions.RoleSupport,
		Action:        "update",
		RecordID:      "order-9",
		RecordType:    "order",
		ChangesBefore: json.RawMessage(`{ "qty": 1 }`),
		ChangesAfter:  json.RawMessage(`{"qty":3}`),
	})
	if err != nil {
		t.Fatalf("LogAction error: %v", err)
	}
	snapshot, _ := repo.Get(ctx, "acc", orig.LogID)

	clk.Advance(time.Minute)
	res, err := l.RollbackAction(ctx, RollbackInput{
		AccountID: "acc",
		LogID:     orig.LogID,
		By:        Actor{ID: "owner-1", Role: permissions.RoleOwner},
		Reason:    "wrong quantity",
	})
	if err != nil {
		t.Fatalf("RollbackAction error: %v", err)
	}

	if len(repo.entries["acc"]) != 2 {
		t.Fatalf("expected exactly one new entry, got %d total", len(repo.entries["acc"]))
	}
	after, _ := repo.Get(ctx, "acc", orig.LogID)
	if !reflect.DeepEqual(snapshot, after) {
		t.Fatalf("original entry changed:\nbefore=%#v\nafter=%#v", snapshot, after)
	}

	if res.Entry.Action != ActionRollback || res.RolledBack != orig.LogID {
		t.Fatalf("unexpected rollback entry: %#v", res.Entry)
	}
	if string(res.Restored) != `{"qty":1}` {
		t.Fatalf("expected restored {\"qty\":1}, got %s", res.Restored)
	}
	if string(res.Entry.ChangesAfter) != `{"qty":1}` || string(res.Entry.ChangesBefore) != `{"qty":3}` {
		t.Fatalf("expected swapped snapshots, got before=%s after=%s", res.Entry.ChangesBefore, res.Entry.ChangesAfter)
	}
	if !strings.Contains(string(res.Entry.Details), orig.LogID) {
		t.Fatalf("rollback details must reference original log id: %s", res.Entry.Details)
	}
	if res.Entry.RecordID != "order-9" || res.Entry.Reason != "wrong quantity" {
		t.Fatalf("unexpected record/reason on rollback: %#v", res.Entry)
	}
}

func TestLog_VerifyChain_DetectsTampering(t *testing.T) {
	repo := newTestRepo()
	clk := clock.NewManual(t0)
	l := newTestLog(repo, clk)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, _ = l.LogAction(ctx, LogInput{AccountID: "acc", ActorID: "a", Role: permissions.RoleOwner, Action: "update", Details: map[string]any{"n": i}})
		clk.Advance(time.Second)
	}

	rep, _ := l.VerifyChain(ctx, "acc")
	if !rep.Valid || rep.Entries != 4 {
		t.Fatalf("expected valid chain of 4, got %#v", rep)
	}

	repo.entries["acc"][2].Details = json.RawMessage(`{"n":99}`)

	rep, _ = l.VerifyChain(ctx, "acc")
	if rep.Valid || rep.BrokenAtSeq != 3 {
		t.Fatalf("expected chain broken at seq 3, got %#v", rep)
	}
}

func TestLog_Record_SoftFailsAndWarns(t *testing.T) {
	repo := newTestRepo()
	repo.fail = errors.New("db down")

	var buf bytes.Buffer
	l := NewLog(repo, Options{
		Clock:  clock.NewManual(t0),
		Logger: logger.New(logger.Options{Level: logger.Info, Output: &buf}),
	})

	_, ok := l.Record(context.Background(), LogInput{AccountID: "acc", ActorID: "a", Role: permissions.RoleOwner, Action: "update"})
	if ok {
		t.Fatalf("expected ok=false when store fails")
	}
	if !strings.Contains(buf.String(), "level=warn") || !strings.Contains(buf.String(), "db down") {
		t.Fatalf("expected warn line with cause, got %q", buf.String())
	}

	_, err := l.LogAction(context.Background(), LogInput{AccountID: "acc", ActorID: "a", Role: permissions.RoleOwner, Action: "update"})
	if !errors.Is(err, persistence.ErrUnavailable) {
		t.Fatalf("expected persistence.ErrUnavailable, got %v", err)
	}
}

func TestAction_Reserved(t *testing.T) {
	cases := []struct {
		action Action
		want   bool
	}{
		{ActionCreateInvitation, true},
		{ActionAcceptInvitation, true},
		{ActionDeclineInvitation, true},
		{ActionRevokeAccess, true},
		{ActionAddHouseholdMember, true},
		{ActionRemoveHouseholdMember, true},
		{ActionRollback, true},
		{" Revoke_Access ", true},
		{"update", false},
		{"place_order", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := tc.action.Reserved(); got != tc.want {
			t.Fatalf("expected Reserved(%q)=%v, got %v", tc.action, tc.want, got)
		}
	}
}
