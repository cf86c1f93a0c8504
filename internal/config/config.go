// Package config reads process configuration for the launcher binary from
// the environment.
package config

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/goliatone/go-launcher/pkg/persist"
	"github.com/goliatone/go-launcher/pkg/state"
	"github.com/rs/zerolog"
)

const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverPebble = "pebble"
)

// Config is the launcher process configuration.
type Config struct {
	DataDir       string `env:"LAUNCHER_DATA_DIR" envDefault:"."`
	StoreDriver   string `env:"LAUNCHER_STORE_DRIVER" envDefault:"file"`
	BootstrapAddr string `env:"LAUNCHER_BOOTSTRAP_ADDR" envDefault:"127.0.0.1:7451"`
	LogLevel      string `env:"LAUNCHER_LOG_LEVEL" envDefault:"info"`
	RulesEngine   string `env:"LAUNCHER_RULES_ENGINE" envDefault:"expr"`
	ConfigPath    string `env:"LAUNCHER_CONFIG_PATH"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses Config from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	return cfg, nil
}

// LauncherConfigPath returns ConfigPath, defaulting to config.json in DataDir.
func (c Config) LauncherConfigPath() string {
	if c.ConfigPath != "" {
		return c.ConfigPath
	}
	return filepath.Join(c.DataDir, "config.json")
}

// Level parses LogLevel, defaulting to info.
func (c Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(c.LogLevel)))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenBackend opens the persisted record backend selected by StoreDriver.
// The closer must be called when the process exits.
func (c Config) OpenBackend() (persist.Backend, io.Closer, error) {
	switch c.StoreDriver {
	case DriverMemory:
		return state.NewMemoryStore[map[string]any](), nopCloser{}, nil
	case "", DriverFile:
		store, err := state.NewFileStore[map[string]any](filepath.Join(c.DataDir, "state"))
		if err != nil {
			return nil, nil, err
		}
		return store, nopCloser{}, nil
	case DriverSQLite:
		store, err := state.OpenSQLite[map[string]any](filepath.Join(c.DataDir, "launcher.db"))
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case DriverPebble:
		store, err := state.OpenPebble[map[string]any](filepath.Join(c.DataDir, "pebble"))
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("config: unknown store driver %q", c.StoreDriver)
	}
}
