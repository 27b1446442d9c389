package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLoad(t *testing.T, args ...string) Config {
	t.Helper()
	cfg, err := load(t, args...)
	require.NoError(t, err)
	return cfg
}

func load(t *testing.T, args ...string) (Config, error) {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))

	v, err := NewViper(fs)
	require.NoError(t, err)
	return Load(v)
}

func TestLoad_Defaults(t *testing.T) {
	cfg := mustLoad(t)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, AuthDev, cfg.AuthMode)
	assert.Equal(t, 24.94, cfg.DefaultLon)
	assert.Equal(t, 60.17, cfg.DefaultLat)
}

func TestLoad_EnvOverridesDefault(t *testing.T) {
	t.Setenv("PETREG_HTTP_ADDR", ":9090")
	t.Setenv("PETREG_STORE", "Postgres")
	t.Setenv("PETREG_POSTGRES_DSN", "postgres://localhost/pets")

	cfg := mustLoad(t)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, "postgres://localhost/pets", cfg.PostgresDSN)
}

func TestLoad_FlagWins(t *testing.T) {
	cfg := mustLoad(t, "--auth-mode=jwt", "--jwt-secret=s3cret", "--default-location=1.5,-2")
	assert.Equal(t, AuthJWT, cfg.AuthMode)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, 1.5, cfg.DefaultLon)
	assert.Equal(t, -2.0, cfg.DefaultLat)
}

func TestLoad_AggregatesErrors(t *testing.T) {
	_, err := load(t,
		"--store=postgres",
		"--auth-mode=remote",
		"--default-location=200,0",
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres-dsn is required")
	assert.Contains(t, err.Error(), "auth-url and auth-api-key are required")
	assert.Contains(t, err.Error(), "default-location")

	_, err = load(t, "--store=redis", "--auth-mode=magic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown store "redis"`)
	assert.Contains(t, err.Error(), `unknown auth-mode "magic"`)
}

func TestLoad_DefaultLocationMustBeFinite(t *testing.T) {
	for _, loc := range []string{"NaN,NaN", "Inf,0", "north,0"} {
		_, err := load(t, "--default-location="+loc)
		require.Error(t, err, loc)
		assert.Contains(t, err.Error(), "default-location", loc)
	}
}
