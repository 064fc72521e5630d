package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/pkg/errors"
)

// Config holds every runtime setting the SDK and CLI need. Values come from
// the environment; all of them have workable defaults for local development.
type Config struct {
	APIBaseURL     string        `env:"WANDERINN_API_URL" env-default:"http://localhost:8080/api"`
	RequestTimeout time.Duration `env:"WANDERINN_REQUEST_TIMEOUT" env-default:"15s"`
	RefreshTimeout time.Duration `env:"WANDERINN_REFRESH_TIMEOUT" env-default:"10s"`
	TokenFile      string        `env:"WANDERINN_TOKEN_FILE" env-default:""`

	OIDCIssuer       string `env:"WANDERINN_OIDC_ISSUER" env-default:"https://accounts.google.com"`
	OIDCClientID     string `env:"WANDERINN_OIDC_CLIENT_ID" env-default:""`
	OIDCCallbackAddr string `env:"WANDERINN_OIDC_CALLBACK_ADDR" env-default:"127.0.0.1:8617"`

	MetricsAddr string `env:"WANDERINN_METRICS_ADDR" env-default:":9180"`
	LogLevel    string `env:"WANDERINN_LOG_LEVEL" env-default:"info"`
}

// New reads configuration from the environment.
func New() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, errors.Wrap(err, "[config.New] cleanenv.ReadEnv")
	}
	return &cfg, nil
}

// GetTokenFile returns the configured token file path, defaulting to
// ~/.config/wanderinn/tokens.json when unset.
func (c *Config) GetTokenFile() (string, error) {
	if c.TokenFile != "" {
		return c.TokenFile, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "[Config.GetTokenFile] os.UserConfigDir")
	}
	return filepath.Join(dir, "wanderinn", "tokens.json"), nil
}
