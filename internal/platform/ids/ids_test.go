package ids

import (
	"strings"
	"testing"
)

func TestUUID_NewCode_Is128BitHex(t *testing.T) {
	g := UUID()

	seen := map[string]struct{}{}
	for i := 0; i < 200; i++ {
		c := g.NewCode()
		if len(c) != 32 {
			t.Fatalf("expected 32 hex chars, got %d (%s)", len(c), c)
		}
		if strings.ToUpper(c) != c || strings.Contains(c, "-") {
			t.Fatalf("expected upper-case hex without dashes, got %s", c)
		}
		if _, dup := seen[c]; dup {
			t.Fatalf("duplicated code %s", c)
		}
		seen[c] = struct{}{}
	}
}

func TestSequence_Deterministic(t *testing.T) {
	s := NewSequence("log")
	if got := s.NewID(); got != "log-1" {
		t.Fatalf("expected log-1, got %s", got)
	}
	if got := s.NewCode(); got != "LOG-CODE2" {
		t.Fatalf("expected LOG-CODE2, got %s", got)
	}
}
