// Package config handles loading and parsing application configuration.
// It supports two sources for the config file path (in priority order):
//  1. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  2. The --config flag of the command being run
//
// Every value in the file can be overridden by its env:"..." variable.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Storage drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config is the root configuration structure.
//
// env-required:"true" means the app refuses to start if that value is
// missing; it is better to crash at boot than to silently use a wrong
// default.
type Config struct {
	// Env controls log format and verbosity.
	// Valid values: "dev", "staging", "prod"
	Env string `yaml:"env" env:"ENV" env-required:"true"`

	Storage    Storage    `yaml:"storage"`
	HTTPServer HTTPServer `yaml:"http_server"`
	Import     Import     `yaml:"import"`
}

// Storage selects the store backend. Both backends keep records for the
// lifetime of the process only (unless Path points sqlite at a file).
type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"memory"`
	Path   string `yaml:"path"   env:"STORAGE_PATH"   env-default:":memory:"`
}

// HTTPServer holds settings specific to the HTTP server.
// Nested under http_server: in the YAML file.
type HTTPServer struct {
	// Addr is the TCP address the server listens on, e.g. "localhost:8082".
	Addr         string        `yaml:"address"       env:"HTTP_SERVER_ADDR"   env-required:"true"`
	ReadTimeout  time.Duration `yaml:"read_timeout"  env:"HTTP_READ_TIMEOUT"  env-default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"  env:"HTTP_IDLE_TIMEOUT"  env-default:"60s"`
}

// Import controls CSV import behaviour.
type Import struct {
	// SkipInvalid switches from the default abort policy (reject the whole
	// file on the first bad row) to skipping bad rows and reporting them.
	SkipInvalid bool `yaml:"skip_invalid" env:"IMPORT_SKIP_INVALID" env-default:"false"`

	// MaxBytes caps the size of an uploaded CSV body.
	MaxBytes int64 `yaml:"max_bytes" env:"IMPORT_MAX_BYTES" env-default:"10485760"`
}

// Load reads the config file at path. CONFIG_PATH, when set, takes
// precedence over path.
func Load(path string) (*Config, error) {
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		path = env
	}

	if path == "" {
		return nil, errors.New("config path is not set: use --config flag or CONFIG_PATH env var")
	}

	// Stat first so a missing file gets a clear message rather than a
	// cryptic "open: no such file" from the YAML reader.
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	switch cfg.Storage.Driver {
	case DriverMemory, DriverSQLite:
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	return &cfg, nil
}
