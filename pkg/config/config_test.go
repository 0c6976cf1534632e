package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, StorageMemory, cfg.Storage.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Cache.PackageTTL)
	assert.Equal(t, 5*time.Second, cfg.Cache.CarouselInterval)
	assert.Equal(t, 10*time.Minute, cfg.Cache.WarmInterval)
	assert.Equal(t, 10*time.Second, cfg.TripAPI.Timeout)
	assert.Equal(t, 2, cfg.TripAPI.RetryAttempts)
	assert.Equal(t, 10.0, cfg.App.CommissionRate)
	assert.Equal(t, []string{"*"}, cfg.App.AllowedOrigins)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoad_TripAPIConfig(t *testing.T) {
	t.Setenv("TRIPAPI_BASE_URL", "http://api.internal:9000/")
	t.Setenv("TRIPAPI_TIMEOUT", "3s")
	t.Setenv("TRIPAPI_RETRY_ATTEMPTS", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://api.internal:9000", cfg.TripAPI.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.TripAPI.Timeout)
	assert.Equal(t, 4, cfg.TripAPI.RetryAttempts)
}

func TestLoad_RedisBackendEnablesRedis(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "Redis")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageRedis, cfg.Storage.Backend)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "localhost:6379", cfg.Redis.RedisAddr())
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "indexeddb")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidNumbersFallBackToDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "eighty")
	t.Setenv("PACKAGE_CACHE_TTL", "a day")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 24*time.Hour, cfg.Cache.PackageTTL)
}

func TestLoad_AllowedOriginsList(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "https://tripsync.example, https://admin.tripsync.example ,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://tripsync.example", "https://admin.tripsync.example"}, cfg.App.AllowedOrigins)
}

func TestDatabaseDSN(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5433, User: "portal", Password: "s3cret", Database: "trips", SSLMode: "require"}
	assert.Equal(t, "host=db port=5433 user=portal password=s3cret dbname=trips sslmode=require", db.DatabaseDSN())
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("TRIPSYNC_DOTENV_PROBE=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("TRIPSYNC_DOTENV_PROBE") })

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("TRIPSYNC_DOTENV_PROBE"))
}
