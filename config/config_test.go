package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "/questions", cfg.Server.BasePath)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "memory", cfg.Database.DSN)
	assert.Equal(t, 5*time.Second, cfg.Database.Timeout)
	assert.Equal(t, "", cfg.Redis.Addr)
	assert.Equal(t, []string{"*"}, cfg.Realtime.AllowedOrigins)
	assert.Equal(t, 16, cfg.Realtime.SendBuffer)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: "9000"
database:
  driver: mongo
  dsn: mongodb://localhost:27017
  timeout: 2s
redis:
  addr: localhost:6379
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("FORUM_DATABASE_NAME", "forum_test")
	t.Setenv("SERVER_PORT", "9100")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, DriverMongo, cfg.Database.Driver)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Database.DSN)
	assert.Equal(t, "forum_test", cfg.Database.Name)
	assert.Equal(t, 2*time.Second, cfg.Database.Timeout)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "forum:rooms", cfg.Redis.Channel)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: "8080", BasePath: "/questions"},
			Database: DatabaseConfig{Driver: "sqlite", DSN: "memory", Timeout: time.Second},
			Realtime: RealtimeConfig{SendBuffer: 1, WriteTimeout: time.Second, PongTimeout: time.Second},
		}
	}

	t.Run("valid config passes", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := valid()
		cfg.Database.Driver = "cassandra"
		assert.ErrorContains(t, cfg.Validate(), "unsupported database.driver")
	})

	t.Run("postgres requires a dsn", func(t *testing.T) {
		cfg := valid()
		cfg.Database.Driver = "Postgres"
		cfg.Database.DSN = ""
		assert.ErrorContains(t, cfg.Validate(), "database.dsn is required")
	})

	t.Run("non-positive timeout", func(t *testing.T) {
		cfg := valid()
		cfg.Database.Timeout = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("base path must be absolute", func(t *testing.T) {
		cfg := valid()
		cfg.Server.BasePath = "questions"
		assert.Error(t, cfg.Validate())
	})
}
