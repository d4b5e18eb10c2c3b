package config_test

import (
	"testing"
	"time"

	"github.com/DeadScore/slotbot/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "PORT", "DATA_BACKEND",
		"GITHUB_REPO", "GITHUB_TOKEN", "GITHUB_FILE_PATH",
		"DATABASE_URL", "REMINDER_LEAD", "TIMEZONE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Env != "development" {
		t.Fatalf("unexpected env %q", cfg.Env)
	}
	if cfg.HTTPPort != 5000 {
		t.Fatalf("unexpected port %d", cfg.HTTPPort)
	}
	if cfg.Timezone != "Europe/Berlin" {
		t.Fatalf("unexpected timezone %q", cfg.Timezone)
	}
	if cfg.ReminderLead != 10*time.Minute {
		t.Fatalf("unexpected reminder lead %v", cfg.ReminderLead)
	}
	if cfg.DataBackend != "memory" {
		t.Fatalf("expected memory backend by default, got %q", cfg.DataBackend)
	}
}

func TestLoadInfersGitHubBackend(t *testing.T) {
	clearEnv(t)
	t.Setenv("GITHUB_REPO", "DeadScore/slotbot-data")
	t.Setenv("GITHUB_TOKEN", "tok")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.DataBackend != "github" {
		t.Fatalf("expected inferred github backend, got %q", cfg.DataBackend)
	}
	if cfg.GitHubFilePath != "data/events.json" {
		t.Fatalf("unexpected file path %q", cfg.GitHubFilePath)
	}
}

func TestLoadValidatesBackendRequirements(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATA_BACKEND", "github")
	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for github backend without credentials")
	}

	clearEnv(t)
	t.Setenv("DATA_BACKEND", "postgres")
	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for postgres backend without DATABASE_URL")
	}

	clearEnv(t)
	t.Setenv("DATA_BACKEND", "floppy")
	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("REMINDER_LEAD", "30m")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.HTTPPort != 8080 {
		t.Fatalf("unexpected port %d", cfg.HTTPPort)
	}
	if cfg.ReminderLead != 30*time.Minute {
		t.Fatalf("unexpected lead %v", cfg.ReminderLead)
	}
	if cfg.Timezone != "UTC" {
		t.Fatalf("unexpected timezone %q", cfg.Timezone)
	}
}
