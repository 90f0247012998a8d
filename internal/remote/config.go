package remote

import (
	"time"

	"github.com/alexanderramin/termplan/internal/config"
)

// Config holds the dashboard client settings.
type Config struct {
	BaseURL string
	Token   string
	// RequestTimeout bounds each HTTP attempt.
	RequestTimeout time.Duration
	// MaxRetries is the number of extra attempts after a transient failure.
	MaxRetries int
}

// DefaultConfig returns a Config with the production timeouts.
func DefaultConfig() Config {
	return Config{
		BaseURL:        "http://localhost:8080",
		RequestTimeout: 12 * time.Second,
		MaxRetries:     1,
	}
}

// ConfigFrom adapts the loaded application config, keeping defaults for
// unset values.
func ConfigFrom(c config.RemoteConfig) Config {
	cfg := DefaultConfig()
	if c.BaseURL != "" {
		cfg.BaseURL = c.BaseURL
	}
	cfg.Token = c.Token
	if c.RequestTimeout > 0 {
		cfg.RequestTimeout = c.RequestTimeout
	}
	if c.MaxRetries >= 0 {
		cfg.MaxRetries = c.MaxRetries
	}
	return cfg
}
