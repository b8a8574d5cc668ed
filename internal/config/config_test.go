package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("API_KEY", "secret")
	t.Setenv("EMAIL_USER", "team@accelrix.test")
	t.Setenv("EMAIL_PASS", "app-password")
	t.Setenv("EMAIL_TO", "admin@accelrix.test")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mongodb", cfg.Storage.Type)
	assert.Equal(t, "accelrix", cfg.Storage.MongoDBDatabase)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "x-api-key", cfg.Server.APIKeyHeader)
	assert.Equal(t, []string{"https://accelrix-buildbeyond.web.app"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "smtp", cfg.Mail.Provider)
	assert.Equal(t, "smtp.gmail.com", cfg.Mail.SMTPHost)
	assert.Equal(t, 587, cfg.Mail.SMTPPort)
	assert.Equal(t, "IN", cfg.Mail.PhoneRegion)
	assert.Equal(t, int64(100), cfg.RateLimit.Requests)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.Window)
	assert.Empty(t, cfg.RateLimit.RedisAddr)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STORAGE_TYPE", "PostgreSQL")
	t.Setenv("POSTGRES_URI", "postgres://localhost/interns?sslmode=disable")
	t.Setenv("PORT", "8081")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("RATE_LIMIT_WINDOW", "1m")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgresql", cfg.Storage.Type)
	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, "localhost:6379", cfg.RateLimit.RedisAddr)
}

func TestLoad_MissingAPIKey(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API_KEY is required")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Storage: StorageConfig{Type: "memory"},
			Server:  ServerConfig{Port: 5000, APIKey: "k"},
			Mail:    MailConfig{Provider: "log"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"unknown storage", func(c *Config) { c.Storage.Type = "cassandra" }, "unsupported storage type"},
		{"mongodb without uri", func(c *Config) { c.Storage.Type = "mongodb" }, "MONGO_URI"},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "invalid port"},
		{"bad gin mode", func(c *Config) { c.Server.Mode = "prod" }, "GIN_MODE"},
		{"unknown mail provider", func(c *Config) { c.Mail.Provider = "pigeon" }, "unsupported mail provider"},
		{"smtp without user", func(c *Config) { c.Mail.Provider = "smtp" }, "EMAIL_USER"},
		{"ses without password is fine", func(c *Config) {
			c.Mail.Provider = "ses"
			c.Mail.Username = "team@accelrix.test"
			c.Mail.AdminTo = "admin@accelrix.test"
		}, ""},
		{"rate limit without window", func(c *Config) {
			c.RateLimit.RedisAddr = "localhost:6379"
			c.RateLimit.Requests = 10
		}, "rate limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
