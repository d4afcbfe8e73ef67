package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"shared-access-core/internal/domain/audit"
	"shared-access-core/internal/domain/grants"
	"shared-access-core/internal/domain/invitations"
	"shared-access-core/internal/domain/permissions"
	"shared-access-core/internal/domain/sessions"
	"shared-access-core/internal/platform/clock"
	"shared-access-core/internal/platform/ids"
	"shared-access-core/internal/ports/persistence"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func openTemp(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "core.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen_RequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestOpen_IsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "core.db")
	for i := 0; i < 2; i++ {
		db, err := Open(path)
		if err != nil {
			t.Fatalf("open #%d: %v", i+1, err)
		}
		_ = db.Close()
	}
}

func TestInvitationFlow_PersistsGrant(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()
	clk := clock.NewManual(t0)

	store := grants.NewStore(NewGrantsRepo(db), clk)
	log := audit.NewLog(NewAuditRepo(db), audit.Options{Clock: clk, IDs: ids.NewSequence("log")})
	mgr := invitations.NewManager(NewInvitationsRepo(db), store, log, invitations.Options{
		Clock: clk,
		IDs:   ids.NewSequence("inv"),
	})

	inv, err := mgr.CreateInvitation(ctx, "cust-42", permissions.RoleSupport, invitations.Inviter{ID: "support-1", Name: "Ana"})
	if err != nil {
		t.Fatalf("CreateInvitation: %v", err)
	}
	clk.Advance(time.Hour)

	if _, err := mgr.AcceptInvitation(ctx, "cust-42", inv.Code); err != nil {
		t.Fatalf("AcceptInvitation: %v", err)
	}
	if _, err := mgr.AcceptInvitation(ctx, "cust-42", inv.Code); !errors.Is(err, invitations.ErrInvitationNotFound) {
		t.Fatalf("expected ErrInvitationNotFound on second accept, got %v", err)
	}

	g, err := store.Get(ctx, "cust-42")
	if err != nil {
		t.Fatalf("Get grant: %v", err)
	}
	if g.Support == nil || g.Support.ID != "support-1" || g.Support.InvitationCode != inv.Code {
		t.Fatalf("unexpected support slot: %+v", g.Support)
	}
	if !g.Support.GrantedAt.Equal(t0.Add(time.Hour)) {
		t.Fatalf("expected granted_at %v, got %v", t0.Add(time.Hour), g.Support.GrantedAt)
	}

	stored, err := NewInvitationsRepo(db).Get(ctx, "cust-42", inv.Code)
	if err != nil {
		t.Fatalf("Get invitation: %v", err)
	}
	if stored.Status != invitations.StatusAccepted || stored.AcceptedAt == nil {
		t.Fatalf("unexpected stored invitation: %+v", stored)
	}

	if _, err := mgr.RevokeAccess(ctx, "cust-42", permissions.RoleSupport, audit.Actor{}); err != nil {
		t.Fatalf("RevokeAccess: %v", err)
	}
	ok, err := store.HasActiveGrant(ctx, "cust-42", permissions.RoleSupport)
	if err != nil || ok {
		t.Fatalf("expected no active grant after revoke, got %v (%v)", ok, err)
	}
}

func TestInvitationsRepo_TransitionIsCompareAndSet(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()
	repo := NewInvitationsRepo(db)

	inv := invitations.Invitation{
		Code:        "INV-1",
		AccountID:   "cust-42",
		InviterRole: permissions.RoleDelivery,
		Inviter:     invitations.Inviter{ID: "delivery-1"},
		Status:      invitations.StatusPending,
		CreatedAt:   t0,
		ExpiresAt:   t0.Add(invitations.TTL),
	}
	if err := repo.Create(ctx, inv); err != nil {
		t.Fatalf("Create: %v", err)
	}

	declined := inv
	declined.Status = invitations.StatusDeclined
	at := t0.Add(time.Minute)
	declined.DeclinedAt = &at
	if err := repo.Transition(ctx, declined, invitations.StatusPending); err != nil {
		t.Fatalf("first transition: %v", err)
	}

	accepted := inv
	accepted.Status = invitations.StatusAccepted
	if err := repo.Transition(ctx, accepted, invitations.StatusPending); !errors.Is(err, persistence.ErrStale) {
		t.Fatalf("expected ErrStale, got %v", err)
	}

	missing := inv
	missing.Code = "INV-404"
	if err := repo.Transition(ctx, missing, invitations.StatusPending); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAuditRepo_ChainSurvivesRoundTrip_AndTrims(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()
	clk := clock.NewManual(t0)
	log := audit.NewLog(NewAuditRepo(db), audit.Options{Clock: clk, IDs: ids.NewSequence("log"), Retention: 3})

	for i := 0; i < 5; i++ {
		clk.Advance(time.Second)
		_, err := log.LogAction(ctx, audit.LogInput{
			AccountID:     "cust-42",
			ActorID:       "support-1",
			Role:          permissions.RoleSupport,
			Action:        "update",
			RecordID:      "order-1",
			Details:       map[string]any{"i": i},
			ChangesBefore: map[string]any{"status": "old"},
		})
		if err != nil {
			t.Fatalf("LogAction #%d: %v", i, err)
		}
	}

	items, err := log.GetAuditLog(ctx, "cust-42", audit.ListFilter{})
	if err != nil {
		t.Fatalf("GetAuditLog: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 retained entries, got %d", len(items))
	}
	if items[0].Seq != 5 || items[2].Seq != 3 {
		t.Fatalf("expected seq 5..3 newest first, got %d..%d", items[0].Seq, items[2].Seq)
	}

	rep, err := log.VerifyChain(ctx, "cust-42")
	if err != nil {
		t.Fatalf("VerifyChain: %v", err)
	}
	if !rep.Valid || rep.Entries != 3 {
		t.Fatalf("expected valid chain of 3, got %+v", rep)
	}

	from := t0.Add(4 * time.Second)
	recent, err := log.GetAuditLog(ctx, "cust-42", audit.ListFilter{From: &from, Limit: 1})
	if err != nil {
		t.Fatalf("GetAuditLog filtered: %v", err)
	}
	if len(recent) != 1 || recent[0].Seq != 5 {
		t.Fatalf("expected only seq 5, got %+v", recent)
	}

	res, err := log.RollbackAction(ctx, audit.RollbackInput{
		AccountID: "cust-42",
		LogID:     items[0].LogID,
		By:        audit.Actor{ID: "cust-42", Role: permissions.RoleOwner},
	})
	if err != nil {
		t.Fatalf("RollbackAction: %v", err)
	}
	if string(res.Restored) != `{"status":"old"}` {
		t.Fatalf("unexpected restored payload: %s", res.Restored)
	}
}

func TestSessionsRepo_CloseAndTouch(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()
	clk := clock.NewManual(t0)
	reg := sessions.NewRegistry(NewSessionsRepo(db), sessions.Options{Clock: clk, IDs: ids.NewSequence("sess")})

	a, err := reg.RegisterSession(ctx, "cust-42", sessions.Actor{ID: "cust-42", Role: permissions.RoleOwner})
	if err != nil {
		t.Fatalf("RegisterSession: %v", err)
	}
	clk.Advance(time.Second)
	b, err := reg.RegisterSession(ctx, "cust-42", sessions.Actor{ID: "support-1", Role: permissions.RoleSupport})
	if err != nil {
		t.Fatalf("RegisterSession: %v", err)
	}
	if b.AccessType != sessions.AccessShared {
		t.Fatalf("expected shared access, got %s", b.AccessType)
	}

	clk.Advance(time.Minute)
	if err := reg.Touch(ctx, "cust-42", a.SessionID); err != nil {
		t.Fatalf("Touch: %v", err)
	}
	got, err := reg.Get(ctx, "cust-42", a.SessionID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.LastActivity.Equal(t0.Add(time.Minute + time.Second)) {
		t.Fatalf("unexpected last activity: %v", got.LastActivity)
	}

	if err := reg.CloseSession(ctx, "cust-42", a.SessionID); err != nil {
		t.Fatalf("CloseSession: %v", err)
	}
	if err := reg.CloseSession(ctx, "cust-42", a.SessionID); err != nil {
		t.Fatalf("second CloseSession: %v", err)
	}

	active, err := reg.ActiveSessions(ctx, "cust-42")
	if err != nil {
		t.Fatalf("ActiveSessions: %v", err)
	}
	if len(active) != 1 || active[0].SessionID != b.SessionID {
		t.Fatalf("expected only %s active, got %+v", b.SessionID, active)
	}
}
