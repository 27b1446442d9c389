package middleware

import (
	"context"
	"net/http"
	"strings"

	"pet-registry/internal/domain/access"
	"pet-registry/internal/platform/logger"
	"pet-registry/internal/ports/auth"
)

type ctxKey string

const principalKey ctxKey = "principal"

// AuthContext:
// - Si verifier != nil y viene Bearer token => intenta Verify() y setea el principal.
// - Si verifier == nil => modo dev: headers X-Debug-User-ID / -Role / -Name / -Email.
// - Si no hay principal, el request sigue igual; cada operación decide si lo exige.
func AuthContext(verifier auth.AuthVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Dev mode: permitir inyectar user sin verifier
			if verifier == nil {
				if uid := strings.TrimSpace(r.Header.Get("X-Debug-User-ID")); uid != "" {
					role := r.Header.Get("X-Debug-User-Role")
					if strings.TrimSpace(role) == "" {
						role = string(access.RoleUser)
					}
					claims := auth.Claims{
						UserID: uid,
						Role:   role,
						Name:   strings.TrimSpace(r.Header.Get("X-Debug-User-Name")),
						Email:  strings.TrimSpace(r.Header.Get("X-Debug-User-Email")),
					}
					next.ServeHTTP(w, withClaims(r, claims))
					return
				}

				next.ServeHTTP(w, r)
				return
			}

			// Verifier mode
			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				// No cortamos aquí. La operación decide si exige principal (401).
				logger.FromContext(r.Context()).Debug("token rejected", map[string]any{"err": err})
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, withClaims(r, claims))
		})
	}
}

// withClaims convierte claims en principal. Un rol desconocido deja el request sin principal.
func withClaims(r *http.Request, c auth.Claims) *http.Request {
	role, err := access.ParseRole(c.Role)
	if err != nil {
		logger.FromContext(r.Context()).Warn("claims with unknown role ignored", map[string]any{
			"user_id": c.UserID,
			"role":    c.Role,
		})
		return r
	}
	p := &access.Principal{
		ID:    strings.TrimSpace(c.UserID),
		Role:  role,
		Name:  c.Name,
		Email: c.Email,
	}
	return r.WithContext(WithPrincipal(r.Context(), p))
}

// WithPrincipal adjunta el principal a ctx.
func WithPrincipal(ctx context.Context, p *access.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// GetPrincipal devuelve el principal del request, o nil si no hay.
func GetPrincipal(ctx context.Context) *access.Principal {
	p, ok := ctx.Value(principalKey).(*access.Principal)
	if !ok || p == nil {
		return nil
	}
	return p
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
