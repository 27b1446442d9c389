package local

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	s, err := NewStore(dir)
	require.NoError(t, err)

	name, err := s.Save(context.Background(), "../../Tom.JPG", strings.NewReader("meow"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".jpg"))
	assert.NotContains(t, name, "/")

	b, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, "meow", string(b))
}

func TestStore_Save_CancelledContext(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Save(ctx, "tom.png", strings.NewReader("meow"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewStore_RequiresDir(t *testing.T) {
	_, err := NewStore("  ")
	assert.Error(t, err)
}

func TestStore_Delete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)

	name, err := s.Save(context.Background(), "tom.png", strings.NewReader("meow"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background(), name))
	_, err = os.Stat(filepath.Join(dir, name))
	assert.True(t, os.IsNotExist(err))

	// ya borrado
	assert.NoError(t, s.Delete(context.Background(), name))
	assert.Error(t, s.Delete(context.Background(), ""))
}
