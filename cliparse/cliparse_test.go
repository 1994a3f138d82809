// cliparse/cliparse_test.go
package cliparse

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseFlags_EnvVars(t *testing.T) {
	// Set env vars
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "file:test.db")
	t.Setenv("SESSION_SECRET", "test-secret")
	t.Setenv("ADMIN_USERS", "alice, bob ,")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:5173")

	cfg, err := ParseFlags([]string{"-env", ""})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("expected default database type sqlite, got %s", cfg.DatabaseType)
	}
	if len(cfg.AdminUsers) != 2 || cfg.AdminUsers[1] != "bob" {
		t.Errorf("unexpected admin users: %v", cfg.AdminUsers)
	}
	if !cfg.IsAdmin("Alice") {
		t.Error("IsAdmin should be case-insensitive")
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "http://localhost:5173" {
		t.Errorf("unexpected allowed origins: %v", cfg.AllowedOrigins)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	t.Setenv("PORT", "9000")

	cfg, err := ParseFlags([]string{"-env", "", "-p", "8080", "-d", "file:test.db", "-session-secret", "s1"})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
}

func TestParseFlags_MissingSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "file:test.db")
	t.Setenv("SESSION_SECRET", "")

	if _, err := ParseFlags([]string{"-env", ""}); err == nil {
		t.Error("expected error when SESSION_SECRET is missing")
	}
}

func TestParseFlags_InvalidDatabaseType(t *testing.T) {
	_, err := ParseFlags([]string{"-env", "", "-d", "x", "-t", "mysql", "-session-secret", "s"})
	if err == nil {
		t.Error("expected error for unsupported database type")
	}
}

func TestParseFlags_DotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "DATABASE_URL=file:dotenv.db\nSESSION_SECRET=from-dotenv\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	// Registered with t.Setenv so the values godotenv sets are restored afterwards
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SESSION_SECRET", "")
	os.Unsetenv("DATABASE_URL")
	os.Unsetenv("SESSION_SECRET")

	cfg, err := ParseFlags([]string{"-env", path})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DatabaseURL != "file:dotenv.db" {
		t.Errorf("expected database url from .env, got %q", cfg.DatabaseURL)
	}
	if cfg.SessionSecret != "from-dotenv" {
		t.Errorf("expected secret from .env, got %q", cfg.SessionSecret)
	}
}
