package access

import (
	"testing"

	"pet-registry/internal/platform/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" Admin ")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)

	r, err = ParseRole("user")
	require.NoError(t, err)
	assert.Equal(t, RoleUser, r)

	_, err = ParseRole("superuser")
	assert.Error(t, err)
}

func TestRequire_NoPrincipal(t *testing.T) {
	_, err := Require(nil)
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))

	_, err = Require(&Principal{ID: "  "})
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))
}

func TestSelfScope(t *testing.T) {
	id, err := SelfScope(&Principal{ID: "u-1", Role: RoleUser})
	require.NoError(t, err)
	assert.Equal(t, "u-1", id)
}

func TestOwnerScope_RestrictsToPrincipal(t *testing.T) {
	s, err := OwnerScope(&Principal{ID: "u-1", Role: RoleUser}, "cat-1")
	require.NoError(t, err)

	assert.True(t, s.Restricted())
	assert.True(t, s.Matches("cat-1", "u-1"))
	assert.False(t, s.Matches("cat-1", "u-2"))
	assert.False(t, s.Matches("cat-2", "u-1"))
}

func TestOwnerScope_AdminIsStillOwnerScoped(t *testing.T) {
	// la ruta de dueño no se relaja por ser admin; para eso está AdminScope
	s, err := OwnerScope(&Principal{ID: "admin-1", Role: RoleAdmin}, "cat-1")
	require.NoError(t, err)
	assert.False(t, s.Matches("cat-1", "u-1"))
}

func TestAdminScope(t *testing.T) {
	_, err := AdminScope(&Principal{ID: "u-1", Role: RoleUser}, "cat-1")
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = AdminScope(nil, "cat-1")
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))

	s, err := AdminScope(&Principal{ID: "admin-1", Role: RoleAdmin}, "cat-1")
	require.NoError(t, err)
	assert.False(t, s.Restricted())
	assert.True(t, s.Matches("cat-1", "anyone"))
}
