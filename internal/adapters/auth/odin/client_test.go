package odin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"shared-access-core/internal/domain/permissions"
)

func newOdin(t *testing.T, h http.HandlerFunc) *Verifier {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{BaseURL: srv.URL, APIKey: "k-1"})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	return NewVerifier(c)
}

func TestVerifier_OK(t *testing.T) {
	v := newOdin(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/tokens/verify" || r.Header.Get("X-Api-Key") != "k-1" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["token"] != "tok" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"user_id": "support-1", "name": "Ana", "role": "support"})
	})

	c, err := v.Verify(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if c.UserID != "support-1" || c.Role != permissions.RoleSupport || c.Name != "Ana" {
		t.Fatalf("unexpected claims: %#v", c)
	}
}

func TestVerifier_Unauthorized(t *testing.T) {
	v := newOdin(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	})
	if _, err := v.Verify(context.Background(), "tok"); !errors.Is(err, ErrOdinUnauthorized) {
		t.Fatalf("expected ErrOdinUnauthorized, got %v", err)
	}
}

func TestVerifier_UnknownRole_IsUnauthorized(t *testing.T) {
	v := newOdin(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"user_id": "x", "role": "superuser"})
	})
	if _, err := v.Verify(context.Background(), "tok"); !errors.Is(err, ErrOdinUnauthorized) {
		t.Fatalf("expected ErrOdinUnauthorized, got %v", err)
	}
}

func TestVerifier_UpstreamError(t *testing.T) {
	v := newOdin(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	})
	if _, err := v.Verify(context.Background(), "tok"); !errors.Is(err, ErrOdinUpstream) {
		t.Fatalf("expected ErrOdinUpstream, got %v", err)
	}
}

func TestClient_NotConfigured(t *testing.T) {
	c, err := NewClient(Config{})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	if _, err := NewVerifier(c).Verify(context.Background(), "tok"); !errors.Is(err, ErrOdinNotConfigured) {
		t.Fatalf("expected ErrOdinNotConfigured, got %v", err)
	}
}
