package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pet-registry/internal/platform/httpclient"
	"pet-registry/internal/ports/auth"
)

var (
	ErrNotConfigured = errors.New("remote auth not configured")
	ErrUnauthorized  = errors.New("remote auth unauthorized")
	ErrUpstream      = errors.New("remote auth upstream error")
	ErrTokenEmpty    = errors.New("token is empty")
)

const verifyPath = "/v1/tokens/verify"

// Config del servicio de identidad externo.
type Config struct {
	BaseURL string
	APIKey  string

	// Header donde se manda la API key. Default "X-Api-Key".
	APIKeyHeader string

	Timeout time.Duration
}

// Verifier implementa auth.AuthVerifier delegando en un servicio de identidad por HTTP.
type Verifier struct {
	http         *httpclient.Client
	apiKey       string
	apiKeyHeader string
}

func NewVerifier(cfg Config) (*Verifier, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	key := strings.TrimSpace(cfg.APIKey)
	if base == "" || key == "" {
		return nil, ErrNotConfigured
	}

	c, err := httpclient.NewWithBaseURL(base, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return newVerifier(c, key, cfg.APIKeyHeader), nil
}

func newVerifier(c *httpclient.Client, apiKey, header string) *Verifier {
	header = strings.TrimSpace(header)
	if header == "" {
		header = "X-Api-Key"
	}
	return &Verifier{http: c, apiKey: apiKey, apiKeyHeader: header}
}

type verifyRequest struct {
	Token string `json:"token"`
}

type verifyResponse struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if v == nil || v.http == nil {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrTokenEmpty
	}

	headers := map[string]string{
		v.apiKeyHeader:  v.apiKey,
		"Authorization": "Bearer " + token,
	}

	var out verifyResponse
	err := v.http.DoJSON(ctx, http.MethodPost, verifyPath, headers, verifyRequest{Token: token}, &out)
	if err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) &&
			(httpErr.StatusCode == http.StatusUnauthorized || httpErr.StatusCode == http.StatusForbidden) {
			return auth.Claims{}, ErrUnauthorized
		}
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	out.UserID = strings.TrimSpace(out.UserID)
	if out.UserID == "" {
		return auth.Claims{}, fmt.Errorf("%w: response missing user_id", ErrUpstream)
	}

	return auth.Claims{
		UserID: out.UserID,
		Role:   strings.TrimSpace(out.Role),
		Name:   strings.TrimSpace(out.Name),
		Email:  strings.TrimSpace(out.Email),
	}, nil
}
