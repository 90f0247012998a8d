package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ErrInvalidConfig indicates a configuration value outside its allowed range.
var ErrInvalidConfig = errors.New("invalid configuration")

// EnvPrefix prefixes every environment override, e.g. TERMPLAN_REMOTE_BASE_URL.
const EnvPrefix = "TERMPLAN"

// Config holds all configuration for the termplan binary.
// Values come from defaults, then termplan.yaml, then TERMPLAN_* env vars,
// then command-line flags.
type Config struct {
	DBPath  string        `mapstructure:"db_path"`
	Remote  RemoteConfig  `mapstructure:"remote"`
	Log     LogConfig     `mapstructure:"log"`
	Server  ServerConfig  `mapstructure:"server"`
	Store   StoreConfig   `mapstructure:"store"`
	Auth    SessionConfig `mapstructure:"auth"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// RemoteConfig configures the dashboard client.
type RemoteConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Token   string `mapstructure:"token"`
	// RequestTimeout bounds each HTTP call; OverallTimeout bounds a whole
	// load including retries.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	OverallTimeout time.Duration `mapstructure:"overall_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	// File enables a rotated JSON log file when non-empty.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

type ServerConfig struct {
	Address   string        `mapstructure:"address"`
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type StoreConfig struct {
	Driver   string `mapstructure:"driver"`
	MongoURI string `mapstructure:"mongo_uri"`
	MongoDB  string `mapstructure:"mongo_db"`
}

// SessionConfig carries the signed-in session used for identity lookup.
type SessionConfig struct {
	SessionToken string `mapstructure:"session_token"`
}

// MetricsConfig controls the CLI's Prometheus textfile export.
type MetricsConfig struct {
	// TextFile, when set, receives the remote call metrics on exit in
	// the node_exporter textfile format.
	TextFile string `mapstructure:"textfile"`
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"db":          "db_path",
	"backend-url": "remote.base_url",
	"token":       "remote.token",
	"log-level":   "log.level",
	"log-file":    "log.file",
	"addr":        "server.address",
	"store":       "store.driver",
}

// DefaultDBPath returns ~/.termplan/termplan.db, or a relative path when
// the home directory is unknown.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".termplan", "termplan.db")
	}
	return filepath.Join(home, ".termplan", "termplan.db")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db_path", DefaultDBPath())
	v.SetDefault("remote.base_url", "http://localhost:8080")
	v.SetDefault("remote.token", "")
	v.SetDefault("remote.request_timeout", "12s")
	v.SetDefault("remote.overall_timeout", "15s")
	v.SetDefault("remote.max_retries", 1)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 20)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.jwt_secret", "")
	v.SetDefault("server.token_ttl", "24h")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("store.mongo_db", "termplan")
	v.SetDefault("auth.session_token", "")
	v.SetDefault("metrics.textfile", "")
}

// Load reads configuration. configFile may be empty, in which case
// termplan.yaml is searched in the working directory and ~/.termplan; a
// missing file is not an error. Flags that were not set on the command
// line do not override other sources.
func Load(configFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("termplan")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".termplan"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("binding flag --%s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	switch {
	case c.Remote.RequestTimeout <= 0:
		return fmt.Errorf("%w: remote.request_timeout must be positive", ErrInvalidConfig)
	case c.Remote.OverallTimeout <= 0:
		return fmt.Errorf("%w: remote.overall_timeout must be positive", ErrInvalidConfig)
	case c.Remote.MaxRetries < 0:
		return fmt.Errorf("%w: remote.max_retries must not be negative", ErrInvalidConfig)
	case c.Store.Driver != "sqlite" && c.Store.Driver != "mongo":
		return fmt.Errorf("%w: store.driver %q (want sqlite or mongo)", ErrInvalidConfig, c.Store.Driver)
	}
	return nil
}
