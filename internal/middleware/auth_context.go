package middleware

import (
	"context"
	"net/http"
	"strings"

	"shared-access-core/internal/domain/permissions"
	"shared-access-core/internal/ports/auth"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// AuthContext:
//   - Si verifier != nil y viene Bearer token => Verify() y setea claims.
//   - Si verifier == nil => modo dev: headers X-Debug-User-ID / X-Debug-Role
//     (+ X-Debug-Name, X-Debug-Phone opcionales).
//   - Sin claims el request sigue igual; cada handler decide 401/403.
//
// En modo dev, sin X-Debug-Role el rol es owner.
func AuthContext(verifier auth.AuthVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				uid := strings.TrimSpace(r.Header.Get("X-Debug-User-ID"))
				if uid == "" {
					next.ServeHTTP(w, r)
					return
				}

				role := permissions.RoleOwner
				if raw := strings.TrimSpace(r.Header.Get("X-Debug-Role")); raw != "" {
					parsed, err := permissions.ParseRole(raw)
					if err != nil {
						// rol inválido = sin identidad
						next.ServeHTTP(w, r)
						return
					}
					role = parsed
				}

				claims := auth.Claims{
					UserID: uid,
					Name:   strings.TrimSpace(r.Header.Get("X-Debug-Name")),
					Phone:  strings.TrimSpace(r.Header.Get("X-Debug-Phone")),
					Role:   role,
				}
				next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
				return
			}

			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				// No cortamos aquí para no acoplar. El handler decide 401/403.
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func WithClaims(ctx context.Context, c auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func GetClaims(ctx context.Context) (auth.Claims, bool) {
	v := ctx.Value(claimsKey)
	if v == nil {
		return auth.Claims{}, false
	}
	c, ok := v.(auth.Claims)
	return c, ok
}

// RequireClaims devuelve las claims o escribe 401.
func RequireClaims(w http.ResponseWriter, r *http.Request) (auth.Claims, bool) {
	c, ok := GetClaims(r.Context())
	if !ok || strings.TrimSpace(c.UserID) == "" || !c.Role.Valid() {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return auth.Claims{}, false
	}
	return c, true
}

// RequireOwner exige que el caller sea el owner de accountID (401 sin identidad, 403 si no es owner).
func RequireOwner(w http.ResponseWriter, r *http.Request, accountID string) (auth.Claims, bool) {
	c, ok := RequireClaims(w, r)
	if !ok {
		return auth.Claims{}, false
	}
	if c.Role != permissions.RoleOwner || !c.IsOwnerOf(accountID) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return auth.Claims{}, false
	}
	return c, true
}

func bearerToken(authHeader string) string {
	if strings.TrimSpace(authHeader) == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
