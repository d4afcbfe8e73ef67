package grants

import (
	"context"
	"errors"
	"testing"
	"time"

	"shared-access-core/internal/domain/permissions"
	"shared-access-core/internal/platform/clock"
	"shared-access-core/internal/ports/persistence"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byAccount map[string]AccessGrant
	fail      error
}

func newTestRepo() *testRepo {
	return &testRepo{byAccount: map[string]AccessGrant{}}
}

func (r *testRepo) Get(ctx context.Context, accountID string) (AccessGrant, error) {
	if r.fail != nil {
		return AccessGrant{}, r.fail
	}
	g, ok := r.byAccount[accountID]
	if !ok {
		return AccessGrant{}, persistence.ErrNotFound
	}
	return g, nil
}

func (r *testRepo) Mutate(ctx context.Context, accountID string, fn func(g *AccessGrant, exists bool) error) (AccessGrant, error) {
	if r.fail != nil {
		return AccessGrant{}, r.fail
	}
	g, exists := r.byAccount[accountID]
	if g.Household != nil {
		g.Household = append([]HouseholdMember(nil), g.Household...)
	}
	if err := fn(&g, exists); err != nil {
		return AccessGrant{}, err
	}
	r.byAccount[accountID] = g
	return g, nil
}

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// -------------------------
// Tests
// -------------------------

func TestStore_Install_CreatesLazily_AndCopiesMatrixRow(t *testing.T) {
	repo := newTestRepo()
	s := NewStore(repo, clock.NewManual(t0))
	ctx := context.Background()

	if ok, _ := s.HasActiveGrant(ctx, "acc-1", permissions.RoleSupport); ok {
		t.Fatalf("expected no grant before install")
	}

	g, err := s.Install(ctx, "acc-1", permissions.RoleSupport, Identity{ID: "support-1", Name: "Ana", Phone: "555"}, "CODE1")
	if err != nil {
		t.Fatalf("Install error: %v", err)
	}
	if g.Support == nil || g.Support.ID != "support-1" || g.Support.InvitationCode != "CODE1" {
		t.Fatalf("unexpected support slot: %#v", g.Support)
	}
	if !g.Support.GrantedAt.Equal(t0) || !g.CreatedAt.Equal(t0) {
		t.Fatalf("expected timestamps = t0")
	}
	if len(g.Support.Permissions) != len(permissions.Default().ActionsFor(permissions.RoleSupport)) {
		t.Fatalf("expected matrix row copied, got %v", g.Support.Permissions)
	}
	if ok, _ := s.HasActiveGrant(ctx, "acc-1", permissions.RoleSupport); !ok {
		t.Fatalf("expected active support grant")
	}
	if ok, _ := s.HasActiveGrant(ctx, "acc-1", permissions.RoleDelivery); ok {
		t.Fatalf("delivery must not be granted")
	}
}

func TestStore_Install_OverwritesNeverDuplicates(t *testing.T) {
	repo := newTestRepo()
	clk := clock.NewManual(t0)
	s := NewStore(repo, clk)
	ctx := context.Background()

	_, _ = s.Install(ctx, "acc-1", permissions.RoleDelivery, Identity{ID: "driver-1"}, "")
	clk.Advance(time.Hour)
	g, err := s.Install(ctx, "acc-1", permissions.RoleDelivery, Identity{ID: "driver-2"}, "")
	if err != nil {
		t.Fatalf("Install error: %v", err)
	}
	if g.Delivery.ID != "driver-2" {
		t.Fatalf("expected driver-2 to replace driver-1, got %s", g.Delivery.ID)
	}
	if !g.CreatedAt.Equal(t0) {
		t.Fatalf("CreatedAt must be kept on overwrite")
	}
}

func TestStore_Install_RejectsRolesWithoutSlot(t *testing.T) {
	s := NewStore(newTestRepo(), clock.NewManual(t0))
	for _, r := range []permissions.Role{permissions.RoleOwner, permissions.RoleHousehold, "admin"} {
		if _, err := s.Install(context.Background(), "acc", r, Identity{ID: "x"}, ""); !errors.Is(err, ErrRoleHasNoSlot) {
			t.Fatalf("role %s: expected ErrRoleHasNoSlot, got %v", r, err)
		}
	}
}

func TestStore_Revoke(t *testing.T) {
	repo := newTestRepo()
	s := NewStore(repo, clock.NewManual(t0))
	ctx := context.Background()

	if _, _, err := s.Revoke(ctx, "acc-1", permissions.RoleSupport); !errors.Is(err, ErrNoGrantConfigured) {
		t.Fatalf("expected ErrNoGrantConfigured, got %v", err)
	}

	_, _ = s.Install(ctx, "acc-1", permissions.RoleSupport, Identity{ID: "support-1", Name: "Ana"}, "")

	revoked, g, err := s.Revoke(ctx, "acc-1", permissions.RoleSupport)
	if err != nil {
		t.Fatalf("Revoke error: %v", err)
	}
	if revoked == nil || revoked.ID != "support-1" || revoked.Name != "Ana" {
		t.Fatalf("expected revoked identity returned, got %#v", revoked)
	}
	if g.Support != nil {
		t.Fatalf("expected support slot nulled")
	}
	if _, ok := repo.byAccount["acc-1"]; !ok {
		t.Fatalf("account record must persist after revoke")
	}

	// idempotente
	revoked, _, err = s.Revoke(ctx, "acc-1", permissions.RoleSupport)
	if err != nil || revoked != nil {
		t.Fatalf("expected silent no-op, got revoked=%#v err=%v", revoked, err)
	}
}

func TestStore_Household_AddRefreshRemove(t *testing.T) {
	repo := newTestRepo()
	s := NewStore(repo, clock.NewManual(t0))
	ctx := context.Background()

	_, _, _ = s.AddHouseholdMember(ctx, "acc-1", Identity{ID: "kid-1", Name: "Leo"})
	_, _, _ = s.AddHouseholdMember(ctx, "acc-1", Identity{ID: "kid-2", Name: "Mia"})
	_, g, err := s.AddHouseholdMember(ctx, "acc-1", Identity{ID: "kid-1", Name: "Leonardo"})
	if err != nil {
		t.Fatalf("AddHouseholdMember error: %v", err)
	}
	if len(g.Household) != 2 || g.Household[0].Name != "Leonardo" || g.Household[1].ID != "kid-2" {
		t.Fatalf("expected ordered, deduplicated household, got %#v", g.Household)
	}

	if _, _, err := s.AddHouseholdMember(ctx, "acc-1", Identity{ID: "acc-1"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("owner cannot be a household member, got %v", err)
	}

	removed, err := s.RemoveHouseholdMember(ctx, "acc-1", "kid-1")
	if err != nil || removed == nil || removed.ID != "kid-1" {
		t.Fatalf("expected kid-1 removed, got %#v err=%v", removed, err)
	}
	removed, err = s.RemoveHouseholdMember(ctx, "acc-1", "kid-1")
	if err != nil || removed != nil {
		t.Fatalf("expected idempotent remove, got %#v err=%v", removed, err)
	}
	if got := repo.byAccount["acc-1"].Household; len(got) != 1 || got[0].ID != "kid-2" {
		t.Fatalf("unexpected household after remove: %#v", got)
	}

	if _, err := s.RemoveHouseholdMember(ctx, "acc-2", "kid-1"); !errors.Is(err, ErrNoGrantConfigured) {
		t.Fatalf("expected ErrNoGrantConfigured, got %v", err)
	}
}

func TestStore_PersistenceFailure_IsWrapped(t *testing.T) {
	repo := newTestRepo()
	repo.fail = errors.New("connection refused")
	s := NewStore(repo, clock.NewManual(t0))

	_, err := s.Install(context.Background(), "acc", permissions.RoleSupport, Identity{ID: "s"}, "")
	if !errors.Is(err, persistence.ErrUnavailable) {
		t.Fatalf("expected persistence.ErrUnavailable, got %v", err)
	}
	if _, err := s.HasActiveGrant(context.Background(), "acc", permissions.RoleSupport); !errors.Is(err, persistence.ErrUnavailable) {
		t.Fatalf("expected persistence.ErrUnavailable from HasActiveGrant, got %v", err)
	}
}
