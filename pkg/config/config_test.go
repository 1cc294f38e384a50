package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_USER", "testuser")
	t.Setenv("DB_PASSWORD", "testpass")
	t.Setenv("DB_NAME", "testdb")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("COOKIE_SECURE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "db.internal", cfg.DBHost)
	assert.Equal(t, "testuser", cfg.DBUser)
	assert.Equal(t, "testpass", cfg.DBPassword)
	assert.Equal(t, "testdb", cfg.DBName)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, "test-secret", cfg.JWTSecret)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.True(t, cfg.CookieSecure)
	assert.Contains(t, cfg.DSN(), "host=db.internal")
	assert.Contains(t, cfg.DSN(), "dbname=testdb")
}

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"SERVER_PORT", "DB_HOST", "DB_PORT", "JWT_SECRET", "REDIS_DB", "COOKIE_SECURE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.ServerPort)
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "5432", cfg.DBPort)
	assert.Equal(t, DefaultJWTSecret, cfg.JWTSecret)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.False(t, cfg.CookieSecure)
}

func TestLoadConfig_InvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadClient_Defaults(t *testing.T) {
	t.Setenv("FEEDFINDER_API_BASE", "")
	t.Setenv("FEEDFINDER_TIMEOUT", "")

	cfg, err := LoadClient("")
	require.NoError(t, err)

	assert.Equal(t, DefaultAPIBase, cfg.APIBase)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
}

func TestLoadClient_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedfinder.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_base: https://api.feedfinder.test/\ntimeout: 3s\n"), 0o600))

	t.Setenv("FEEDFINDER_API_BASE", "")
	t.Setenv("FEEDFINDER_TIMEOUT", "")

	cfg, err := LoadClient(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.feedfinder.test", cfg.APIBase)
	assert.Equal(t, 3*time.Second, cfg.Timeout)

	t.Setenv("FEEDFINDER_API_BASE", "http://override.test")
	cfg, err = LoadClient(path)
	require.NoError(t, err)
	assert.Equal(t, "http://override.test", cfg.APIBase)
}

func TestLoadClient_MissingFile(t *testing.T) {
	_, err := LoadClient(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadClient_BadTimeout(t *testing.T) {
	t.Setenv("FEEDFINDER_TIMEOUT", "soon")

	_, err := LoadClient("")
	assert.Error(t, err)
}
