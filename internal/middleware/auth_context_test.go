package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"pet-registry/internal/domain/access"
	"pet-registry/internal/ports/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	claims auth.Claims
	err    error
	seen   string
}

func (f *fakeVerifier) Verify(_ context.Context, token string) (auth.Claims, error) {
	f.seen = token
	return f.claims, f.err
}

// capture corre AuthContext y devuelve el principal que vio el handler.
func capture(t *testing.T, v auth.AuthVerifier, req *http.Request) *access.Principal {
	t.Helper()
	var got *access.Principal
	called := false
	h := AuthContext(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		got = GetPrincipal(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.True(t, called, "el request nunca se corta en AuthContext")
	return got
}

func TestAuthContext_DevHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Debug-User-ID", " u-1 ")
	req.Header.Set("X-Debug-User-Email", "alice@example.com")

	p := capture(t, nil, req)
	require.NotNil(t, p)
	assert.Equal(t, "u-1", p.ID)
	assert.Equal(t, access.RoleUser, p.Role)
	assert.Equal(t, "alice@example.com", p.Email)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Debug-User-ID", "root")
	req.Header.Set("X-Debug-User-Role", "admin")
	p = capture(t, nil, req)
	require.NotNil(t, p)
	assert.True(t, access.IsAdmin(p.Role))
}

func TestAuthContext_DevWithoutHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, capture(t, nil, req))
}

func TestAuthContext_UnknownRoleAttachesNothing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Debug-User-ID", "u-1")
	req.Header.Set("X-Debug-User-Role", "superuser")
	assert.Nil(t, capture(t, nil, req))
}

func TestAuthContext_Verifier(t *testing.T) {
	v := &fakeVerifier{claims: auth.Claims{UserID: "u-9", Role: "admin", Name: "root"}}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer tok-123")
	p := capture(t, v, req)
	require.NotNil(t, p)
	assert.Equal(t, "tok-123", v.seen)
	assert.Equal(t, "u-9", p.ID)
	assert.True(t, access.IsAdmin(p.Role))
}

func TestAuthContext_VerifierIgnoresDebugHeaders(t *testing.T) {
	v := &fakeVerifier{claims: auth.Claims{UserID: "u-9", Role: "user"}}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Debug-User-ID", "u-1")
	assert.Nil(t, capture(t, v, req))
	assert.Empty(t, v.seen)
}

func TestAuthContext_RejectedTokenContinues(t *testing.T) {
	v := &fakeVerifier{err: errors.New("expired")}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok")
	assert.Nil(t, capture(t, v, req))
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"":               "",
		"Bearer":         "",
		"Basic abc":      "",
		"Bearer abc":     "abc",
		"BEARER  abc  ":  "abc",
		"Bearer a.b.c":   "a.b.c",
		"   ":            "",
		"Token Bearer x": "",
	}
	for in, want := range cases {
		assert.Equal(t, want, bearerToken(in), "header %q", in)
	}
}
