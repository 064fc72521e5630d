package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wanderinn/go-client/internal/config"
)

func TestNewUsesDefaults(t *testing.T) {
	cfg, err := config.New()
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080/api", cfg.APIBaseURL)
	require.Equal(t, 10*time.Second, cfg.RefreshTimeout)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestNewReadsEnvironment(t *testing.T) {
	t.Setenv("WANDERINN_API_URL", "https://api.wanderinn.example/api")
	t.Setenv("WANDERINN_REFRESH_TIMEOUT", "3s")
	t.Setenv("WANDERINN_TOKEN_FILE", "/tmp/custom-tokens.json")

	cfg, err := config.New()
	require.NoError(t, err)
	require.Equal(t, "https://api.wanderinn.example/api", cfg.APIBaseURL)
	require.Equal(t, 3*time.Second, cfg.RefreshTimeout)

	path, err := cfg.GetTokenFile()
	require.NoError(t, err)
	require.Equal(t, "/tmp/custom-tokens.json", path)
}
