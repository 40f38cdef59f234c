// Package config loads the dashboard's runtime configuration from an
// optional YAML file with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "12h" parse.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// RedisConfig points the optional change-event mirror at a Redis server.
// An empty Addr disables the mirror.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// JobsConfig holds the cron expressions for the background jobs.
type JobsConfig struct {
	SessionPruneSpec   string `yaml:"session_prune"`
	OccupancyWatchSpec string `yaml:"occupancy_watch"`
}

// Config captures the runtime configuration for the dashboard service.
type Config struct {
	HTTPPort   int         `yaml:"http_port"`
	SQLiteDSN  string      `yaml:"sqlite_dsn"`
	SessionTTL Duration    `yaml:"session_ttl"`
	Redis      RedisConfig `yaml:"redis"`
	Jobs       JobsConfig  `yaml:"jobs"`

	// Bootstrap credentials for the first admin account, applied only
	// when the staff table is empty.
	AdminEmail    string `yaml:"admin_email"`
	AdminPassword string `yaml:"admin_password"`
}

func defaults() Config {
	return Config{
		HTTPPort:   8080,
		SQLiteDSN:  "file:dashboard.db?_foreign_keys=on",
		SessionTTL: Duration(12 * time.Hour),
		Jobs: JobsConfig{
			SessionPruneSpec:   "*/15 * * * *",
			OccupancyWatchSpec: "* * * * *",
		},
	}
}

// Load reads the YAML file at path (skipped when path is empty or the file
// does not exist), then applies DASHBOARD_* environment overrides.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
			}
		case os.IsNotExist(err):
		default:
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("DASHBOARD_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "DASHBOARD_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("DASHBOARD_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if ttlValue := strings.TrimSpace(os.Getenv("DASHBOARD_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "DASHBOARD_SESSION_TTL")
		} else {
			cfg.SessionTTL = Duration(ttl)
		}
	}

	if addr := strings.TrimSpace(os.Getenv("DASHBOARD_REDIS_ADDR")); addr != "" {
		cfg.Redis.Addr = addr
	}
	if password := os.Getenv("DASHBOARD_REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}
	if dbValue := strings.TrimSpace(os.Getenv("DASHBOARD_REDIS_DB")); dbValue != "" {
		db, err := strconv.Atoi(dbValue)
		if err != nil || db < 0 {
			invalid = append(invalid, "DASHBOARD_REDIS_DB")
		} else {
			cfg.Redis.DB = db
		}
	}

	if spec := strings.TrimSpace(os.Getenv("DASHBOARD_SESSION_PRUNE_SPEC")); spec != "" {
		cfg.Jobs.SessionPruneSpec = spec
	}
	if spec := strings.TrimSpace(os.Getenv("DASHBOARD_OCCUPANCY_WATCH_SPEC")); spec != "" {
		cfg.Jobs.OccupancyWatchSpec = spec
	}

	if email := strings.TrimSpace(os.Getenv("DASHBOARD_ADMIN_EMAIL")); email != "" {
		cfg.AdminEmail = email
	}
	if password := os.Getenv("DASHBOARD_ADMIN_PASSWORD"); password != "" {
		cfg.AdminPassword = password
	}

	if cfg.HTTPPort <= 0 {
		invalid = append(invalid, "http_port")
	}
	if cfg.SessionTTL <= 0 {
		invalid = append(invalid, "session_ttl")
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
