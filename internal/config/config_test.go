package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TODOIST_API_TOKEN", "tok")

	// No config file present: env and defaults still apply.
	cfg, err := NewLoader("").Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ListenPort != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.ListenPort)
	}
	if cfg.Todoist.MaxAttempts != 3 {
		t.Errorf("expected default 3 attempts, got %d", cfg.Todoist.MaxAttempts)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taskmirror.yaml")
	content := []byte(`
listen_port: 9090
database_path: /tmp/mirror.db
todoist:
  token: file-token
  timeout: 10s
`)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ListenPort != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.ListenPort)
	}
	if cfg.Todoist.Token != "file-token" {
		t.Errorf("expected token from file, got %q", cfg.Todoist.Token)
	}
	if cfg.Todoist.Timeout != 10*time.Second {
		t.Errorf("expected 10s timeout, got %v", cfg.Todoist.Timeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("config should validate: %v", err)
	}
}

func TestTokenFromEnv(t *testing.T) {
	t.Setenv("TODOIST_API_TOKEN", "env-token")

	dir := t.TempDir()
	path := filepath.Join(dir, "taskmirror.yaml")
	if err := os.WriteFile(path, []byte("listen_port: 8081\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Todoist.Token != "env-token" {
		t.Errorf("expected token from env, got %q", cfg.Todoist.Token)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{ListenPort: 8080, DatabasePath: "x.db"}
	cfg.Todoist.Token = "tok"
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}

	cfg.Todoist.Token = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing token")
	}

	cfg.Todoist.Token = "tok"
	cfg.ListenPort = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid port")
	}
}
