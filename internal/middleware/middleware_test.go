package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"shared-access-core/internal/domain/permissions"
	"shared-access-core/internal/platform/logger"
	"shared-access-core/internal/ports/auth"
)

type stubVerifier struct {
	claims auth.Claims
	err    error
}

func (s stubVerifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if token != "good" {
		return auth.Claims{}, errors.New("bad token")
	}
	return s.claims, s.err
}

func captureClaims(t *testing.T, h func(http.Handler) http.Handler, req *http.Request) (auth.Claims, bool) {
	t.Helper()
	var (
		got auth.Claims
		ok  bool
	)
	h(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = GetClaims(r.Context())
	})).ServeHTTP(httptest.NewRecorder(), req)
	return got, ok
}

func TestAuthContext_DevHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Debug-User-ID", "support-1")
	req.Header.Set("X-Debug-Role", "Support")
	req.Header.Set("X-Debug-Name", "Ana")

	c, ok := captureClaims(t, AuthContext(nil), req)
	if !ok || c.UserID != "support-1" || c.Role != permissions.RoleSupport || c.Name != "Ana" {
		t.Fatalf("unexpected claims: %#v ok=%v", c, ok)
	}
}

func TestAuthContext_DevDefaultsToOwner_AndRejectsUnknownRole(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Debug-User-ID", "cust-42")
	if c, ok := captureClaims(t, AuthContext(nil), req); !ok || c.Role != permissions.RoleOwner {
		t.Fatalf("expected owner by default, got %#v ok=%v", c, ok)
	}

	req.Header.Set("X-Debug-Role", "root")
	if _, ok := captureClaims(t, AuthContext(nil), req); ok {
		t.Fatalf("unknown role must not produce claims")
	}
}

func TestAuthContext_Bearer(t *testing.T) {
	v := stubVerifier{claims: auth.Claims{UserID: "driver-7", Role: permissions.RoleDelivery}}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	if c, ok := captureClaims(t, AuthContext(v), req); !ok || c.UserID != "driver-7" {
		t.Fatalf("expected verified claims, got %#v ok=%v", c, ok)
	}

	req.Header.Set("Authorization", "Bearer bad")
	if _, ok := captureClaims(t, AuthContext(v), req); ok {
		t.Fatalf("failed verification must not produce claims")
	}
}

func TestRequireOwner(t *testing.T) {
	cases := []struct {
		name   string
		claims *auth.Claims
		want   int
	}{
		{"no identity", nil, http.StatusUnauthorized},
		{"other user", &auth.Claims{UserID: "cust-99", Role: permissions.RoleOwner}, http.StatusForbidden},
		{"staff", &auth.Claims{UserID: "cust-42", Role: permissions.RoleSupport}, http.StatusForbidden},
		{"owner", &auth.Claims{UserID: "cust-42", Role: permissions.RoleOwner}, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.claims != nil {
				req = req.WithContext(WithClaims(req.Context(), *tc.claims))
			}
			rec := httptest.NewRecorder()
			if _, ok := RequireOwner(rec, req, "cust-42"); ok {
				rec.WriteHeader(http.StatusOK)
			}
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestRecover_LogsAndReturns500(t *testing.T) {
	var buf strings.Builder
	lg := logger.New(logger.Options{Output: &buf})

	h := Recover(lg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(buf.String(), "panic recovered") || !strings.Contains(buf.String(), "level=error") {
		t.Fatalf("expected error log line, got %q", buf.String())
	}
}

func TestRequestLog_WarnOn4xx(t *testing.T) {
	var buf strings.Builder
	lg := logger.New(logger.Options{Level: logger.Info, Output: &buf})

	h := RequestLog(lg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/accounts/a", nil))

	out := buf.String()
	if !strings.Contains(out, "level=warn") || !strings.Contains(out, "status=403") {
		t.Fatalf("expected warn line with status, got %q", out)
	}
}
