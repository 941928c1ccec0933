// Package config loads application configuration with koanf: built-in
// defaults, then an optional YAML file, then environment overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "VIBELIST_CONFIG"

// defaultConfigPaths are searched in order; the first file found wins.
var defaultConfigPaths = []string{"config.yaml", "config.yml"}

// Config holds all application configuration. Immutable after Load and
// safe for concurrent reads.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Spotify  SpotifyConfig  `koanf:"spotify"`
	Ollama   OllamaConfig   `koanf:"ollama"`
	Pipeline PipelineConfig `koanf:"pipeline"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// SpotifyConfig configures the catalog adapter.
type SpotifyConfig struct {
	ClientID     string        `koanf:"client_id"`
	ClientSecret string        `koanf:"client_secret"`
	BaseURL      string        `koanf:"base_url"`
	TokenURL     string        `koanf:"token_url"`
	Market       string        `koanf:"market"`
	Timeout      time.Duration `koanf:"timeout"`
	MaxRetries   int           `koanf:"max_retries"`
	BaseBackoff  time.Duration `koanf:"base_backoff"`
}

// OllamaConfig configures the vibe extractor adapter.
type OllamaConfig struct {
	Host  string `koanf:"host"`
	Model string `koanf:"model"`
}

// PipelineConfig tunes the candidate pipeline.
type PipelineConfig struct {
	PreviewWorkers int  `koanf:"preview_workers"`
	PreviewEnabled bool `koanf:"preview_enabled"`
}

// LoggingConfig configures the root logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "",
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		},
		Spotify: SpotifyConfig{
			Market:      "US",
			Timeout:     10 * time.Second,
			MaxRetries:  3,
			BaseBackoff: 500 * time.Millisecond,
		},
		Ollama: OllamaConfig{
			Host:  "http://localhost:11434",
			Model: "mistral",
		},
		Pipeline: PipelineConfig{
			PreviewWorkers: 4,
			PreviewEnabled: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load assembles the configuration. Spotify credentials are the only
// required settings; they may also come from the conventional
// SPOTIFY_CLIENT_ID / SPOTIFY_CLIENT_SECRET variables.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
	}

	// VIBELIST_SERVER.PORT style overrides.
	if err := k.Load(env.Provider("VIBELIST_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "VIBELIST_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if cfg.Spotify.ClientID == "" {
		cfg.Spotify.ClientID = os.Getenv("SPOTIFY_CLIENT_ID")
	}
	if cfg.Spotify.ClientSecret == "" {
		cfg.Spotify.ClientSecret = os.Getenv("SPOTIFY_CLIENT_SECRET")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" {
		return fmt.Errorf("config: SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET are required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server port %d", c.Server.Port)
	}
	return nil
}

func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path
	}
	for _, path := range defaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
