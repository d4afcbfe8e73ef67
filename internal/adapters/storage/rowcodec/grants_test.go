package rowcodec

import (
	"testing"
	"time"

	"shared-access-core/internal/domain/grants"
	"shared-access-core/internal/domain/permissions"
)

func TestSlot_EmptyIsNull(t *testing.T) {
	b, err := EncodeSlot(nil)
	if err != nil || b != nil {
		t.Fatalf("expected nil bytes, got %q (%v)", b, err)
	}
	s, err := DecodeSlot(nil)
	if err != nil || s != nil {
		t.Fatalf("expected nil slot, got %+v (%v)", s, err)
	}
}

func TestSlot_KeepsIdentityAndPermissions(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.FixedZone("ART", -3*3600))
	in := &grants.Slot{
		Identity:       grants.Identity{ID: "support-1", Name: "Ana", Phone: "+54 11"},
		GrantedAt:      at,
		Permissions:    []permissions.Action{permissions.ActionRead, permissions.ActionUpdate},
		InvitationCode: "INV-1",
	}

	b, err := EncodeSlot(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeSlot(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.ID != "support-1" || out.Phone != "+54 11" || out.InvitationCode != "INV-1" {
		t.Fatalf("unexpected slot: %+v", out)
	}
	if !out.GrantedAt.Equal(at) || out.GrantedAt.Location() != time.UTC {
		t.Fatalf("expected %v in UTC, got %v", at, out.GrantedAt)
	}
	if len(out.Permissions) != 2 || out.Permissions[1] != permissions.ActionUpdate {
		t.Fatalf("unexpected permissions: %v", out.Permissions)
	}
}

func TestHousehold_KeepsOrder(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	in := []grants.HouseholdMember{
		{ID: "kid-2", Name: "Beto", GrantedAt: at},
		{ID: "kid-1", Name: "Caro", GrantedAt: at.Add(time.Hour)},
	}

	b, err := EncodeHousehold(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeHousehold(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 2 || out[0].ID != "kid-2" || out[1].ID != "kid-1" {
		t.Fatalf("unexpected order: %+v", out)
	}

	empty, err := EncodeHousehold(nil)
	if err != nil || string(empty) != "[]" {
		t.Fatalf("expected [], got %q (%v)", empty, err)
	}
	if out, _ := DecodeHousehold(empty); out != nil {
		t.Fatalf("expected nil household, got %+v", out)
	}
}
