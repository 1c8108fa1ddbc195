package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithJSONBinCreds(t *testing.T) {
	t.Setenv("JSONBIN_BIN_ID", "bin123")
	t.Setenv("JSONBIN_MASTER_KEY", "key456")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "studydeck", cfg.App.Name)
	assert.Equal(t, EnvDevelopment, cfg.App.Environment)
	assert.Equal(t, BackendJSONBin, cfg.DocStore.Backend)
	assert.Equal(t, "bin123", cfg.DocStore.JSONBinID)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, time.UTC, cfg.App.Location)
}

func TestLoadJSONBinMissingCreds(t *testing.T) {
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JSONBIN_BIN_ID")
}

func TestLoadSQLiteBackend(t *testing.T) {
	t.Setenv("DOCSTORE_BACKEND", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/deck.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.DocStore.Backend)
	assert.Equal(t, "/tmp/deck.db", cfg.DocStore.SQLitePath)
}

func TestLoadUnknownBackend(t *testing.T) {
	t.Setenv("DOCSTORE_BACKEND", "dynamo")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown docstore backend")
}

func TestLoadYAMLFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte(`
app:
  name: deck-from-file
  timezone: UTC
docstore:
  backend: postgres
  postgres_url: postgres://localhost/deck
http:
  port: 9090
`)
	require.NoError(t, os.WriteFile(path, body, 0o644))

	t.Setenv("STUDYDECK_CONFIG", path)
	t.Setenv("HTTP_PORT", "9191")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "deck-from-file", cfg.App.Name)
	assert.Equal(t, BackendPostgres, cfg.DocStore.Backend)
	assert.Equal(t, "postgres://localhost/deck", cfg.DocStore.PostgresURL)
	// Environment wins over the file.
	assert.Equal(t, 9191, cfg.HTTP.Port)
}

func TestValidateTelegramRequiresToken(t *testing.T) {
	t.Setenv("JSONBIN_BIN_ID", "bin123")
	t.Setenv("JSONBIN_MASTER_KEY", "key456")
	t.Setenv("TELEGRAM_ENABLED", "true")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_BOT_TOKEN")
}

func TestValidateProductionRequiresSecret(t *testing.T) {
	t.Setenv("JSONBIN_BIN_ID", "bin123")
	t.Setenv("JSONBIN_MASTER_KEY", "key456")
	t.Setenv("APP_ENV", "production")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_SECRET")
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("X_STR", "hello")
	t.Setenv("X_BOOL", "true")
	t.Setenv("X_INT", "42")
	t.Setenv("X_DUR", "90s")
	t.Setenv("X_BAD", "nope")

	assert.Equal(t, "hello", getEnv("X_STR", "d"))
	assert.Equal(t, "d", getEnv("X_MISSING", "d"))
	assert.True(t, getEnvBool("X_BOOL", false))
	assert.False(t, getEnvBool("X_BAD", false))
	assert.Equal(t, 42, getEnvInt("X_INT", 0))
	assert.Equal(t, 7, getEnvInt("X_BAD", 7))
	assert.Equal(t, 90*time.Second, getEnvDuration("X_DUR", 0))
	assert.Equal(t, time.Minute, getEnvDuration("X_BAD", time.Minute))
}
