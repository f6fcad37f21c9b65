// Package config loads server settings from a YAML file with WONDERS_
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Catalog sources.
const (
	CatalogEmbedded = "embedded"
	CatalogPostgres = "postgres"
)

// Config is the full server configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Rules   RulesConfig   `mapstructure:"rules"`
	Replay  ReplayConfig  `mapstructure:"replay"`
}

type ServerConfig struct {
	GRPC      GRPCConfig      `mapstructure:"grpc"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
}

type GRPCConfig struct {
	Address              string `mapstructure:"address"`
	MaxConcurrentStreams int    `mapstructure:"max_concurrent_streams"`
}

type WebSocketConfig struct {
	Address        string   `mapstructure:"address"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CatalogConfig selects where card and wonder content comes from.
type CatalogConfig struct {
	Source      string `mapstructure:"source"`
	DatabaseURL string `mapstructure:"database_url"`
}

// RulesConfig tunes the engine.
type RulesConfig struct {
	// EnumerateTrades makes legal action listing include plays that need
	// neighbor trading.
	EnumerateTrades bool `mapstructure:"enumerate_trades"`
	Shuffle         bool `mapstructure:"shuffle"`
	// Seed fixes deck shuffles; zero seeds from the clock.
	Seed int64 `mapstructure:"seed"`
}

type ReplayConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.grpc.address", ":50051")
	v.SetDefault("server.grpc.max_concurrent_streams", 1000)
	v.SetDefault("server.websocket.address", ":8080")
	v.SetDefault("server.websocket.allowed_origins", []string{"*"})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("catalog.source", CatalogEmbedded)
	v.SetDefault("catalog.database_url", "")

	v.SetDefault("rules.enumerate_trades", false)
	v.SetDefault("rules.shuffle", true)
	v.SetDefault("rules.seed", 0)

	v.SetDefault("replay.enabled", false)
	v.SetDefault("replay.directory", "replays")
}

// Load reads path and applies environment overrides. A missing file leaves
// the defaults in place.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("WONDERS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.GRPC.Address == "" {
		return fmt.Errorf("server.grpc.address is required")
	}
	if c.Server.GRPC.MaxConcurrentStreams <= 0 {
		return fmt.Errorf("server.grpc.max_concurrent_streams must be positive, got %d", c.Server.GRPC.MaxConcurrentStreams)
	}
	if c.Server.WebSocket.Address == "" {
		return fmt.Errorf("server.websocket.address is required")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging.format %q", c.Logging.Format)
	}

	switch c.Catalog.Source {
	case CatalogEmbedded:
	case CatalogPostgres:
		if c.Catalog.DatabaseURL == "" {
			return fmt.Errorf("catalog.database_url is required for the %s source", CatalogPostgres)
		}
	default:
		return fmt.Errorf("invalid catalog.source %q", c.Catalog.Source)
	}

	if c.Replay.Enabled && c.Replay.Directory == "" {
		return fmt.Errorf("replay.directory is required when replays are enabled")
	}
	return nil
}
