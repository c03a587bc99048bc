package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"interprep/internal/config"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"START", "API_URL", "HTTP_TIMEOUT", "STORAGE_DSN", "LOG_LEVEL",
		"ADDR", "JWT_SECRET", "ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL", "USERS_DSN",
	} {
		t.Setenv(k, "")
	}
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5001/api", cfg.APIURL)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	assert.Empty(t, cfg.StorageDSN)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, ":5001", cfg.Addr)
	assert.Equal(t, time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.RefreshTokenTTL)
	assert.ErrorIs(t, cfg.RequireServer(), config.ErrNoSecret)
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "dev.env")
	require.NoError(t, os.WriteFile(path, []byte("API_URL=http://api.test/api/\nJWT_SECRET=s3cret\nACCESS_TOKEN_TTL=5s\nLOG_LEVEL=debug\n"), 0o600))
	t.Setenv("START", path)
	// godotenv does not override variables that are already set.
	require.NoError(t, os.Unsetenv("API_URL"))
	require.NoError(t, os.Unsetenv("JWT_SECRET"))
	require.NoError(t, os.Unsetenv("ACCESS_TOKEN_TTL"))
	require.NoError(t, os.Unsetenv("LOG_LEVEL"))

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "http://api.test/api", cfg.APIURL)
	assert.Equal(t, 5*time.Second, cfg.AccessTokenTTL)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.NoError(t, cfg.RequireServer())
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing named env file", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("START", filepath.Join(t.TempDir(), "absent.env"))

		_, err := config.Load()
		assert.Error(t, err)
	})

	t.Run("bad duration", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("HTTP_TIMEOUT", "soon")

		_, err := config.Load()
		assert.ErrorContains(t, err, "HTTP_TIMEOUT")
	})

	t.Run("refresh shorter than access", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("JWT_SECRET", "x")
		t.Setenv("ACCESS_TOKEN_TTL", "2h")
		t.Setenv("REFRESH_TOKEN_TTL", "1h")

		cfg, err := config.Load()
		require.NoError(t, err)
		assert.Error(t, cfg.RequireServer())
	})
}
