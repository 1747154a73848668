package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDefaultConfig_Validates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate default config: %v", err)
	}
	if cfg.Console.PageSize != 10 {
		t.Errorf("page size = %d, want 10", cfg.Console.PageSize)
	}
	if cfg.API.Timeout != 10*time.Second {
		t.Errorf("timeout = %v, want 10s", cfg.API.Timeout)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "trackadmin.yaml", `
api:
  base_url: https://tracker.example.com/api
  timeout: 3s
console:
  page_size: 25
  patch_in_place: true
log:
  level: debug
  format: json
`)
	cfg, err := Load(path, true)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.BaseURL != "https://tracker.example.com/api" {
		t.Errorf("base url = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 3*time.Second {
		t.Errorf("timeout = %v, want 3s", cfg.API.Timeout)
	}
	if cfg.Console.PageSize != 25 || !cfg.Console.PatchInPlace {
		t.Errorf("console = %+v", cfg.Console)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("log format = %q, want json", cfg.Log.Format)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")
	if _, err := Load(missing, false); err != nil {
		t.Fatalf("optional missing file: %v", err)
	}
	if _, err := Load(missing, true); err == nil {
		t.Fatal("expected error for required missing file")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "trackadmin.yaml", "console:\n  page_size: 25\n")
	t.Setenv("TRACKADMIN_CONSOLE_PAGE_SIZE", "50")
	t.Setenv("TRACKADMIN_API_BASE_URL", "http://10.0.0.5:9000")
	t.Setenv("TRACKADMIN_FAKE_LOCKOUT_DURATION", "2m")

	cfg, err := Load(path, true)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Console.PageSize != 50 {
		t.Errorf("page size = %d, want 50", cfg.Console.PageSize)
	}
	if cfg.API.BaseURL != "http://10.0.0.5:9000" {
		t.Errorf("base url = %q", cfg.API.BaseURL)
	}
	if cfg.Fake.LockoutDuration != 2*time.Minute {
		t.Errorf("lockout duration = %v, want 2m", cfg.Fake.LockoutDuration)
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	dotenv := writeFile(t, ".env", "TRACKADMIN_FAKE_JWT_SECRET=from-dotenv\n")
	// Setenv restores the variable godotenv sets.
	t.Setenv("TRACKADMIN_FAKE_JWT_SECRET", "")
	os.Unsetenv("TRACKADMIN_FAKE_JWT_SECRET")

	cfg, err := Load("", false, dotenv, filepath.Join(t.TempDir(), "absent.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Fake.JWTSecret != "from-dotenv" {
		t.Errorf("jwt secret = %q, want from-dotenv", cfg.Fake.JWTSecret)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative base url", func(c *Config) { c.API.BaseURL = "/api" }},
		{"ftp base url", func(c *Config) { c.API.BaseURL = "ftp://host" }},
		{"page size", func(c *Config) { c.Console.PageSize = -1 }},
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
		{"log format", func(c *Config) { c.Log.Format = "xml" }},
		{"negative rate", func(c *Config) { c.API.RequestsPerSecond = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestValidateFake(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.ValidateFake(); err == nil {
		t.Fatal("expected error without jwt secret")
	}
	cfg.Fake.JWTSecret = "s3cret"
	cfg.Fake.AdminPassword = "short"
	if err := cfg.ValidateFake(); err == nil {
		t.Fatal("expected error for short admin password")
	}
	cfg.Fake.AdminPassword = "long-enough"
	if err := cfg.ValidateFake(); err != nil {
		t.Fatalf("validate fake: %v", err)
	}
}
