package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", testSecret)
	t.Setenv("DOCSTORE", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, 7*24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, time.Minute, cfg.Redis.RoleTTL)
	assert.Equal(t, 10, cfg.Login.RatePerMinute)
	assert.Equal(t, "Europe/Berlin", cfg.App.Timezone)
	assert.True(t, cfg.Archive.CronEnabled)
	assert.Equal(t, []string{"pdf"}, cfg.Archive.Formats)
	assert.Equal(t, "admin@primus.local", cfg.Store.DevAdminEmail)
}

func TestLoad_ParsesTypedValues(t *testing.T) {
	t.Setenv("SESSION_SECRET", testSecret)
	t.Setenv("DOCSTORE", "MEMORY")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("SESSION_SECURE_COOKIE", "true")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
	assert.True(t, cfg.Session.SecureCookie)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 3, cfg.Redis.DB)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:  ServerConfig{Port: "8080"},
			Store:   StoreConfig{Backend: "memory"},
			Session: SessionConfig{Secret: testSecret},
			App:     AppConfig{Environment: "development", Timezone: "UTC"},
		}
	}

	t.Run("valid memory config", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("short secret", func(t *testing.T) {
		cfg := valid()
		cfg.Session.Secret = "short"
		assert.Error(t, cfg.Validate())
	})

	t.Run("firestore needs credentials", func(t *testing.T) {
		cfg := valid()
		cfg.Store.Backend = "firestore"
		assert.Error(t, cfg.Validate())

		cfg.Firebase.CredentialsPath = "/secrets/sa.json"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("memory store refused in production", func(t *testing.T) {
		cfg := valid()
		cfg.App.Environment = "production"
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := valid()
		cfg.Store.Backend = "mongo"
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad timezone", func(t *testing.T) {
		cfg := valid()
		cfg.App.Timezone = "Mars/Olympus"
		assert.Error(t, cfg.Validate())
	})
}
