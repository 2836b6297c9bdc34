package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/lazypower/counsel/internal/logging"
)

// Config holds all counsel configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Log      logging.Config `koanf:"log"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

type ServerConfig struct {
	Bind            string        `koanf:"bind"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path         string        `koanf:"path"` // resolved via store.DefaultDBPath() when empty
	QueryTimeout time.Duration `koanf:"query_timeout"`
}

type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind:            "127.0.0.1",
			Port:            37780,
			ShutdownTimeout: 5 * time.Second,
		},
		Database: DatabaseConfig{
			QueryTimeout: 5 * time.Second,
		},
		Log: logging.Config{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive")
	}
	if c.Database.QueryTimeout <= 0 {
		return fmt.Errorf("database.query_timeout must be positive")
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("log.format %q: want json or console", c.Log.Format)
	}
	return nil
}
