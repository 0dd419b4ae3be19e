package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the runtime configuration for the room booking service.
type Config struct {
	// HTTPPort is the port the API listens on.
	HTTPPort int

	// DatabasePath is the SQLite file path. The value "memory" selects the
	// in-memory store instead of SQLite.
	DatabasePath string

	// SessionTTL is how long an issued session token stays valid.
	SessionTTL time.Duration

	// SessionCleanupSchedule is the cron expression for pruning expired
	// sessions.
	SessionCleanupSchedule string

	// SeedPath points at an optional YAML file with rooms and accounts to
	// load at startup.
	SeedPath string

	// LogLevel is one of debug, info, warn, error.
	LogLevel string
}

// fileConfig mirrors Config with YAML-friendly field types.
type fileConfig struct {
	HTTPPort               int    `yaml:"http_port"`
	DatabasePath           string `yaml:"database_path"`
	SessionTTL             string `yaml:"session_ttl"`
	SessionCleanupSchedule string `yaml:"session_cleanup_schedule"`
	SeedPath               string `yaml:"seed_path"`
	LogLevel               string `yaml:"log_level"`
}

func defaults() Config {
	return Config{
		HTTPPort:               8080,
		DatabasePath:           "roombooking.db",
		SessionTTL:             24 * time.Hour,
		SessionCleanupSchedule: "@hourly",
		LogLevel:               "info",
	}
}

// Load builds configuration from an optional YAML file layered under
// environment variable overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnvironment(&cfg); err != nil {
		return Config{}, err
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	if file.HTTPPort != 0 {
		cfg.HTTPPort = file.HTTPPort
	}
	if file.DatabasePath != "" {
		cfg.DatabasePath = file.DatabasePath
	}
	if file.SessionTTL != "" {
		ttl, err := time.ParseDuration(file.SessionTTL)
		if err != nil || ttl <= 0 {
			return fmt.Errorf("config: invalid session_ttl %q in %s", file.SessionTTL, path)
		}
		cfg.SessionTTL = ttl
	}
	if file.SessionCleanupSchedule != "" {
		cfg.SessionCleanupSchedule = file.SessionCleanupSchedule
	}
	if file.SeedPath != "" {
		cfg.SeedPath = file.SeedPath
	}
	if file.LogLevel != "" {
		cfg.LogLevel = file.LogLevel
	}
	return nil
}

func applyEnvironment(cfg *Config) error {
	invalid := make([]string, 0, 2)

	if value := strings.TrimSpace(os.Getenv("ROOMBOOKING_HTTP_PORT")); value != "" {
		port, err := strconv.Atoi(value)
		if err != nil || port <= 0 {
			invalid = append(invalid, "ROOMBOOKING_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}
	if value := strings.TrimSpace(os.Getenv("ROOMBOOKING_DATABASE_PATH")); value != "" {
		cfg.DatabasePath = value
	}
	if value := strings.TrimSpace(os.Getenv("ROOMBOOKING_SESSION_TTL")); value != "" {
		ttl, err := time.ParseDuration(value)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "ROOMBOOKING_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}
	if value := strings.TrimSpace(os.Getenv("ROOMBOOKING_SESSION_CLEANUP_SCHEDULE")); value != "" {
		cfg.SessionCleanupSchedule = value
	}
	if value := strings.TrimSpace(os.Getenv("ROOMBOOKING_SEED_PATH")); value != "" {
		cfg.SeedPath = value
	}
	if value := strings.TrimSpace(os.Getenv("ROOMBOOKING_LOG_LEVEL")); value != "" {
		cfg.LogLevel = value
	}

	if len(invalid) > 0 {
		return fmt.Errorf("config: invalid environment values: %s", strings.Join(invalid, ", "))
	}
	return nil
}

func validate(cfg Config) error {
	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		return fmt.Errorf("config: http port %d out of range", cfg.HTTPPort)
	}
	if cfg.DatabasePath == "" {
		return fmt.Errorf("config: database path is required")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", cfg.LogLevel)
	}
	return nil
}
