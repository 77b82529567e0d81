// Package config provides centralized configuration for the auctiond server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the default config file name.
const ConfigFileName = "config.yaml"

// Config holds all configuration for the auction server.
type Config struct {
	// Network settings.
	Network NetworkConfig `yaml:"network"`

	// Auction rules.
	Auction AuctionConfig `yaml:"auction"`

	// Storage (audit log only — no authoritative state is persisted).
	Storage StorageConfig `yaml:"storage"`

	// Logging settings.
	Logging LoggingConfig `yaml:"logging"`
}

// NetworkConfig holds TCP listener settings.
type NetworkConfig struct {
	// Port is the TCP port to listen on.
	Port int `yaml:"port"`

	// MetricsAddr is the address the /metrics and /ws monitor endpoints bind to.
	MetricsAddr string `yaml:"metrics_addr"`
}

// AuctionConfig holds auction-rule settings.
type AuctionConfig struct {
	// ListingFee is withdrawn from the seller's funds on every SELL.
	ListingFee uint64 `yaml:"listing_fee"`

	// DefaultDuration is loaded from the config file and --default-duration,
	// but the command executor does not read it: SELL without a duration
	// argument always lists for 300 seconds.
	DefaultDuration time.Duration `yaml:"default_duration"`
}

// StorageConfig holds audit-log settings.
type StorageConfig struct {
	// DataDir is the directory the audit database file lives in.
	DataDir string `yaml:"data_dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the log level (debug, info, warn, error).
	Level string `yaml:"level"`
}

// DefaultConfig returns a Config with sensible defaults, matching
// spec.md §6 (port 10000, listing fee 1) and §4.5 (default duration
// 300s).
func DefaultConfig() *Config {
	return &Config{
		Network: NetworkConfig{
			Port:        10000,
			MetricsAddr: "127.0.0.1:9090",
		},
		Auction: AuctionConfig{
			ListingFee:      1,
			DefaultDuration: 300 * time.Second,
		},
		Storage: StorageConfig{
			DataDir: "~/.auctiond",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// ConfigPath returns the path to the config file within dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, ConfigFileName)
}

// LoadConfig loads configuration from <dataDir>/config.yaml, falling back
// to defaults for any file that does not exist. CLI flags are expected to
// override the returned Config afterward (see cmd/auctiond/main.go),
// mirroring the teacher's flag-overrides-config-file precedence.
func LoadConfig(dataDir string) (*Config, error) {
	cfg := DefaultConfig()

	path := ConfigPath(dataDir)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save writes the config as YAML to <dataDir>/config.yaml.
func (c *Config) Save(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(ConfigPath(dataDir), data, 0600)
}
