// Package config loads service configuration from an optional YAML file
// with environment variable expansion. A .env file, when present, is loaded
// first so ${VAR} references in the config resolve against it.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Feed    FeedConfig    `yaml:"feed"`
	Sync    SyncConfig    `yaml:"sync"`
}

type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

type FeedConfig struct {
	FetchTimeout Duration `yaml:"fetch_timeout"`
	RelayURL     string   `yaml:"relay_url"`
}

type SyncConfig struct {
	FreshnessWindow    Duration `yaml:"freshness_window"`
	DefaultIntervalMin int      `yaml:"default_interval_min"`
}

// Duration is a time.Duration that unmarshals from YAML strings like
// "10s" or "4h".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:      ":8080",
			StaticDir: "./static",
		},
		Storage: StorageConfig{
			DataDir: "./data",
		},
		Feed: FeedConfig{
			FetchTimeout: Duration(10 * time.Second),
			RelayURL:     "https://api.allorigins.win/raw?url=",
		},
		Sync: SyncConfig{
			FreshnessWindow:    Duration(4 * time.Hour),
			DefaultIntervalMin: 240,
		},
	}
}

// Load reads the YAML file at path on top of the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return cfg, nil
}
