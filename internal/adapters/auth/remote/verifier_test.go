package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pet-registry/internal/ports/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, status int, body any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, verifyPath, r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("X-Api-Key"))

		var in verifyRequest
		_ = json.NewDecoder(r.Body).Decode(&in)
		assert.Equal(t, "tok", in.Token)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestVerifier_OK(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, verifyResponse{UserID: " u1 ", Role: "admin", Email: "a@example.com"})

	v, err := NewVerifier(Config{BaseURL: srv.URL, APIKey: "key", Timeout: time.Second})
	require.NoError(t, err)

	c, err := v.Verify(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, auth.Claims{UserID: "u1", Role: "admin", Email: "a@example.com"}, c)
}

func TestVerifier_Errors(t *testing.T) {
	ctx := context.Background()

	unauthorized := newTestServer(t, http.StatusUnauthorized, map[string]string{"error": "nope"})
	v, err := NewVerifier(Config{BaseURL: unauthorized.URL, APIKey: "key"})
	require.NoError(t, err)
	_, err = v.Verify(ctx, "tok")
	assert.ErrorIs(t, err, ErrUnauthorized)

	broken := newTestServer(t, http.StatusBadGateway, map[string]string{"error": "down"})
	v, err = NewVerifier(Config{BaseURL: broken.URL, APIKey: "key"})
	require.NoError(t, err)
	_, err = v.Verify(ctx, "tok")
	assert.ErrorIs(t, err, ErrUpstream)

	noUser := newTestServer(t, http.StatusOK, verifyResponse{Role: "user"})
	v, err = NewVerifier(Config{BaseURL: noUser.URL, APIKey: "key"})
	require.NoError(t, err)
	_, err = v.Verify(ctx, "tok")
	assert.ErrorIs(t, err, ErrUpstream)

	_, err = v.Verify(ctx, "  ")
	assert.ErrorIs(t, err, ErrTokenEmpty)
}

func TestNewVerifier_NotConfigured(t *testing.T) {
	_, err := NewVerifier(Config{BaseURL: "http://auth.local"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
