package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dashboard.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTPPort != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.HTTPPort)
	}
	if cfg.SessionTTL.Std() != 12*time.Hour {
		t.Errorf("expected default TTL 12h, got %v", cfg.SessionTTL.Std())
	}
	if cfg.Redis.Addr != "" {
		t.Errorf("expected redis mirror disabled by default, got %q", cfg.Redis.Addr)
	}
	if cfg.Jobs.OccupancyWatchSpec != "* * * * *" {
		t.Errorf("unexpected occupancy watch spec %q", cfg.Jobs.OccupancyWatchSpec)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("a missing config file must not fail: %v", err)
	}
	if cfg.HTTPPort != 8080 {
		t.Errorf("expected defaults, got port %d", cfg.HTTPPort)
	}
}

func TestLoadReadsYAML(t *testing.T) {
	path := writeConfigFile(t, strings.Join([]string{
		"http_port: 9090",
		"sqlite_dsn: file:test.db",
		"session_ttl: 2h30m",
		"redis:",
		"  addr: localhost:6379",
		"  db: 3",
		"jobs:",
		"  session_prune: '0 * * * *'",
		"admin_email: boss@example.com",
	}, "\n"))

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTPPort != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.HTTPPort)
	}
	if cfg.SQLiteDSN != "file:test.db" {
		t.Errorf("unexpected DSN %q", cfg.SQLiteDSN)
	}
	if cfg.SessionTTL.Std() != 2*time.Hour+30*time.Minute {
		t.Errorf("expected TTL 2h30m, got %v", cfg.SessionTTL.Std())
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.DB != 3 {
		t.Errorf("unexpected redis config %+v", cfg.Redis)
	}
	if cfg.Jobs.SessionPruneSpec != "0 * * * *" {
		t.Errorf("unexpected prune spec %q", cfg.Jobs.SessionPruneSpec)
	}
	if cfg.AdminEmail != "boss@example.com" {
		t.Errorf("unexpected admin email %q", cfg.AdminEmail)
	}
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	path := writeConfigFile(t, "http_port: 9090\nsession_ttl: 1h\n")

	t.Setenv("DASHBOARD_HTTP_PORT", "7070")
	t.Setenv("DASHBOARD_SESSION_TTL", "45m")
	t.Setenv("DASHBOARD_REDIS_ADDR", "cache.internal:6379")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTPPort != 7070 {
		t.Errorf("expected env override 7070, got %d", cfg.HTTPPort)
	}
	if cfg.SessionTTL.Std() != 45*time.Minute {
		t.Errorf("expected env override 45m, got %v", cfg.SessionTTL.Std())
	}
	if cfg.Redis.Addr != "cache.internal:6379" {
		t.Errorf("expected env redis addr, got %q", cfg.Redis.Addr)
	}
}

func TestLoadCollectsInvalidValues(t *testing.T) {
	t.Setenv("DASHBOARD_HTTP_PORT", "not-a-number")
	t.Setenv("DASHBOARD_SESSION_TTL", "-5m")

	_, err := Load("")
	if err == nil {
		t.Fatal("expected an error for invalid environment values")
	}
	message := err.Error()
	if !strings.Contains(message, "DASHBOARD_HTTP_PORT") || !strings.Contains(message, "DASHBOARD_SESSION_TTL") {
		t.Errorf("expected both variables named in the error, got %q", message)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfigFile(t, "http_port: [broken\n")

	if _, err := Load(path); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestDurationUnmarshalRejectsGarbage(t *testing.T) {
	path := writeConfigFile(t, "session_ttl: soon\n")

	if _, err := Load(path); err == nil {
		t.Fatal("expected a duration parse error")
	}
}
