package auth

import "context"

// Claims es lo que un token válido dice del usuario.
// Role llega como texto; el middleware lo valida contra access.Role.
type Claims struct {
	UserID string
	Email  string
	Name   string
	Role   string
}

// AuthVerifier resuelve un bearer token en claims.
// Cualquier error deja el request sin principal; no distingue expirado de inválido.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}
