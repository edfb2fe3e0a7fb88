package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: 9090
  cors_origins:
    - https://clinic.example.com
database:
  host: db.internal
  user: ehr
  password: from-file
  name: ehr_test
jwt:
  secret: file-secret
  expiry_hours: 2
booking:
  default_window_days: 14
outbox:
  poll_interval: 2s
store: memory
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://clinic.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 2*time.Hour, cfg.JWT.Expiry())
	assert.Equal(t, "jwtToken", cfg.JWT.CookieName)
	assert.Equal(t, 14, cfg.Booking.DefaultWindowDays)
	assert.Equal(t, 2*time.Second, cfg.Outbox.PollInterval)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, time.Minute, cfg.IdentityCache.TTL)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("EHR_SERVER_PORT", "7070")
	t.Setenv("EHR_JWT_SECRET", "env-secret")
	t.Setenv("EHR_DATABASE_PASSWORD", "env-password")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.Equal(t, "env-password", cfg.Database.Password)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Port: 5432},
			JWT:      JWTConfig{Secret: "s", ExpiryHours: 1},
			Store:    StorePostgres,
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing secret", func(c *Config) { c.JWT.Secret = "" }},
		{"bad expiry", func(c *Config) { c.JWT.ExpiryHours = 0 }},
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"unknown store", func(c *Config) { c.Store = "mongo" }},
		{"lock without redis", func(c *Config) { c.Booking.SlotLockEnabled = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5432, User: "ehr", Password: "p@ss word", Name: "ehr", SSLMode: "disable"}
	assert.Equal(t, "postgres://ehr:p%40ss%20word@db:5432/ehr?sslmode=disable", c.DSN())
}
