package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	require.Equal(t, EnvDevelopment, cfg.Env)
	require.False(t, cfg.Auth.CookieSecure)
	require.Equal(t, 15*time.Minute, cfg.Auth.AccessTTL)
	require.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTTL)
	require.Equal(t, cfg.Auth.JWTSecret, cfg.Auth.JWTRefreshSecret)
	require.True(t, cfg.Auth.AllowSignup)
	require.Equal(t, StorePostgres, cfg.Store)
}

func TestLoadProductionMakesCookiesSecure(t *testing.T) {
	t.Setenv("APP_ENV", "Production")
	t.Setenv("JWT_SECRET", "a")
	t.Setenv("JWT_REFRESH_SECRET", "b")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.True(t, cfg.IsProduction())
	require.True(t, cfg.Auth.CookieSecure)
	require.Equal(t, "b", cfg.Auth.JWTRefreshSecret)
}

func TestLoadReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("USERHUB_TEST_MARKER=1\nJWT_ACCESS_TTL=5m\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("USERHUB_TEST_MARKER")
		os.Unsetenv("JWT_ACCESS_TTL")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 5*time.Minute, cfg.Auth.AccessTTL)
}

func TestLoadRejectsUnknownValues(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.env")

	t.Setenv("APP_ENV", "staging")
	_, err := Load(missing)
	require.Error(t, err)

	t.Setenv("APP_ENV", "development")
	t.Setenv("STORE", "mysql")
	_, err = Load(missing)
	require.Error(t, err)
}
