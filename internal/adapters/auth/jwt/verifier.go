package jwt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pet-registry/internal/ports/auth"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrSecretRequired = errors.New("jwt secret required")
	ErrMissingSubject = errors.New("jwt claims missing user_id")
)

// Claims es el payload que firma el emisor de tokens.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Verifier implementa auth.AuthVerifier con tokens HS256.
type Verifier struct {
	secret []byte
	issuer string
}

// NewVerifier: issuer vacío = no se valida el emisor.
func NewVerifier(secret, issuer string) (*Verifier, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrSecretRequired
	}
	return &Verifier{secret: []byte(secret), issuer: strings.TrimSpace(issuer)}, nil
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if err := ctx.Err(); err != nil {
		return auth.Claims{}, err
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var c Claims
	_, err := jwt.ParseWithClaims(strings.TrimSpace(token), &c, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("parse token: %w", err)
	}

	c.UserID = strings.TrimSpace(c.UserID)
	if c.UserID == "" {
		return auth.Claims{}, ErrMissingSubject
	}

	return auth.Claims{
		UserID: c.UserID,
		Role:   c.Role,
		Name:   c.Name,
		Email:  c.Email,
	}, nil
}

// Sign emite un token para los claims dados. Lo usan los tests y herramientas de dev.
func (v *Verifier) Sign(c auth.Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: c.UserID,
		Role:   c.Role,
		Name:   c.Name,
		Email:  c.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.UserID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
