package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// APIBaseURL is the runtime override, highest priority in the base URL
	// resolution chain. Empty means "fall through" to the build-time value,
	// the config file, then the fixed fallback.
	APIBaseURL string `env:"AUTOBRIDGE_API_URL"`
	// ConfigFile points at an optional YAML file (see FileConfig).
	ConfigFile string `env:"AUTOBRIDGE_CONFIG"`
	// StateDir is where the file store keeps the persisted session.
	StateDir string `env:"AUTOBRIDGE_STATE_DIR, default=.autobridge"`
	// StateKey, when set, encrypts the persisted session blob at rest.
	StateKey string `env:"AUTOBRIDGE_STATE_KEY"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	RequestTimeout time.Duration `env:"AUTOBRIDGE_REQUEST_TIMEOUT, default=30s"`
	SessionSkew    time.Duration `env:"AUTOBRIDGE_SESSION_SKEW,    default=5s"`

	Redis RedisConfig
}

// RedisConfig enables the shared Redis session store when Addr is set;
// otherwise the file store is used.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

// FileConfig is the YAML config file shape. Its base URL sits below the
// runtime and build-time values in the resolution chain.
type FileConfig struct {
	APIBaseURL string `yaml:"api_base_url"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}

// LoadFile parses the YAML config file at path. An empty path yields an
// empty FileConfig: the file is optional.
func LoadFile(path string) (FileConfig, error) {
	var fc FileConfig
	if path == "" {
		return fc, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fc, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return fc, nil
}
