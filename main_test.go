package main

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/accelrix/intern-service/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Storage: config.StorageConfig{Type: "memory", ConnectTimeout: time.Second},
		Server: config.ServerConfig{
			Port:            5000,
			Mode:            "test",
			ShutdownTimeout: time.Second,
			APIKey:          "k",
			APIKeyHeader:    "x-api-key",
		},
		Mail: config.MailConfig{Provider: "log"},
	}
}

func TestRun_MailerFailureReturnsError(t *testing.T) {
	cfg := testConfig()
	cfg.Mail.Provider = "pigeon"

	err := run(cfg, zap.NewNop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize mailer")
}

func TestRun_ListenFailureReturnsError(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := testConfig()
	cfg.Server.Port = ln.Addr().(*net.TCPAddr).Port

	err = run(cfg, zap.NewNop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP server error")
}
