package config

import (
	"os"
	"path/filepath"
	"testing"
)

// clearEnv blanks the override variables so ambient values cannot leak into
// a test; applyEnv ignores empty strings.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"SERVER_HOST", "SERVER_PORT", "DATABASE_DSN", "DATABASE_DRIVER", "JWT_SECRET", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(key, "")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9090
database:
  driver: postgres
  dsn: postgres://localhost/portal
auth:
  jwt_secret: file-secret
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	clearEnv(t)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("host default not applied, got %q", cfg.Server.Host)
	}
	if cfg.Auth.JWTSecret != "file-secret" {
		t.Errorf("jwt_secret = %q", cfg.Auth.JWTSecret)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Database.MaxOpenConns != 25 {
		t.Errorf("pool default not applied, got %d", cfg.Database.MaxOpenConns)
	}
}

func TestLoadMissingFileUsesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_DSN", "postgres://localhost/portal")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("SERVER_PORT", "7070")

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Auth.JWTSecret != "env-secret" {
		t.Errorf("jwt_secret = %q, want env-secret", cfg.Auth.JWTSecret)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d, want 7070", cfg.Server.Port)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
database:
  driver: postgres
  dsn: postgres://file/portal
auth:
  jwt_secret: file-secret
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	clearEnv(t)
	t.Setenv("DATABASE_DSN", "postgres://env/portal")
	t.Setenv("JWT_SECRET", "env-secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Database.DSN != "postgres://env/portal" {
		t.Errorf("dsn = %q, env must win", cfg.Database.DSN)
	}
	if cfg.Auth.JWTSecret != "env-secret" {
		t.Errorf("jwt_secret = %q, env must win", cfg.Auth.JWTSecret)
	}
}

func TestLoadRequiresSecretAndDSN(t *testing.T) {
	clearEnv(t)
	missing := filepath.Join(t.TempDir(), "none.yaml")

	if _, err := Load(missing); err == nil {
		t.Fatal("expected error without jwt_secret and dsn")
	}

	t.Setenv("JWT_SECRET", "env-secret")
	if _, err := Load(missing); err == nil {
		t.Fatal("expected error without dsn")
	}

	t.Setenv("DATABASE_DSN", "postgres://localhost/portal")
	if _, err := Load(missing); err != nil {
		t.Fatalf("load: %v", err)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
