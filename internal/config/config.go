// Package config loads client configuration from environment variables.
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/leadgrid-dev/leadgrid/internal/credstore"
)

// Config holds all configuration for the client.
type Config struct {
	// API is the remote CRM API the client talks to
	API APIConfig

	// Shell configures the local app-shell server
	Shell ShellConfig

	// State configures the durable credential store
	State StateConfig

	// Redis configures optional cross-host logout propagation
	Redis RedisConfig

	// Logging holds logging-related configuration
	Logging LoggingConfig
}

// APIConfig holds remote API configuration.
type APIConfig struct {
	BaseURL string
}

// ShellConfig holds app-shell server configuration.
type ShellConfig struct {
	ListenAddr  string
	CORSOrigins []string
	// RouteTable optionally points at a YAML route table overriding the
	// compiled-in one
	RouteTable string
}

// StateConfig holds credential store configuration.
type StateConfig struct {
	Dir string
}

// RedisConfig holds Redis configuration. An empty address disables the
// Redis logout channel; same-machine propagation works without it.
type RedisConfig struct {
	Address string
}

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables, after reading .env
// files when present.
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	apiURL := os.Getenv("LEADGRID_API_URL")
	if apiURL == "" {
		apiURL = "https://api.leadgrid.example.com"
	}

	listenAddr := os.Getenv("LEADGRID_LISTEN")
	if listenAddr == "" {
		listenAddr = "127.0.0.1:8090"
	}

	var corsOrigins []string
	if raw := os.Getenv("LEADGRID_CORS_ORIGINS"); raw != "" {
		for _, origin := range strings.Split(raw, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				corsOrigins = append(corsOrigins, origin)
			}
		}
	}

	stateDir := os.Getenv("LEADGRID_STATE_DIR")
	if stateDir == "" {
		dir, err := credstore.DefaultDir()
		if err != nil {
			return nil, err
		}
		stateDir = dir
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "console"
	}

	return &Config{
		API: APIConfig{
			BaseURL: apiURL,
		},
		Shell: ShellConfig{
			ListenAddr:  listenAddr,
			CORSOrigins: corsOrigins,
			RouteTable:  os.Getenv("LEADGRID_ROUTE_TABLE"),
		},
		State: StateConfig{
			Dir: stateDir,
		},
		Redis: RedisConfig{
			Address: os.Getenv("LEADGRID_REDIS_ADDRESS"),
		},
		Logging: LoggingConfig{
			Level:  logLevel,
			Format: logFormat,
		},
	}, nil
}
