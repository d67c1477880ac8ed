package config

import (
	"testing"
	"time"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_LifecycleDefaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.LifecycleAnchorWeekday != time.Monday {
		t.Fatalf("unexpected anchor weekday: %s", cfg.LifecycleAnchorWeekday)
	}
	if cfg.LifecycleAnchorHour != 8 {
		t.Fatalf("unexpected anchor hour: %d", cfg.LifecycleAnchorHour)
	}
	if cfg.LifecycleHorizon != 4 {
		t.Fatalf("unexpected horizon: %d", cfg.LifecycleHorizon)
	}
	if cfg.LifecycleWinnerCount != 3 {
		t.Fatalf("unexpected winner count: %d", cfg.LifecycleWinnerCount)
	}
	if cfg.LifecycleTimezone != "UTC" {
		t.Fatalf("unexpected timezone: %q", cfg.LifecycleTimezone)
	}
}

func TestLoad_LifecycleAnchorParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("LIFECYCLE_ANCHOR_WEEKDAY", "wed")
	t.Setenv("LIFECYCLE_ANCHOR_HOUR", "17")
	t.Setenv("LIFECYCLE_TIMEZONE", "America/New_York")
	t.Setenv("LIFECYCLE_WINNER_COUNT", "2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.LifecycleAnchorWeekday != time.Wednesday {
		t.Fatalf("unexpected anchor weekday: %s", cfg.LifecycleAnchorWeekday)
	}
	if cfg.LifecycleAnchorHour != 17 {
		t.Fatalf("unexpected anchor hour: %d", cfg.LifecycleAnchorHour)
	}
	if cfg.LifecycleTimezone != "America/New_York" {
		t.Fatalf("unexpected timezone: %q", cfg.LifecycleTimezone)
	}
	if cfg.LifecycleWinnerCount != 2 {
		t.Fatalf("unexpected winner count: %d", cfg.LifecycleWinnerCount)
	}
}

func TestLoad_LifecycleRejectsBadAnchor(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("LIFECYCLE_ANCHOR_WEEKDAY", "someday")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid LIFECYCLE_ANCHOR_WEEKDAY")
	}

	t.Setenv("LIFECYCLE_ANCHOR_WEEKDAY", "monday")
	t.Setenv("LIFECYCLE_ANCHOR_HOUR", "24")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for out of range LIFECYCLE_ANCHOR_HOUR")
	}
}

func TestLoad_ProdRequiresTriggerToken(t *testing.T) {
	t.Setenv("APP_ENV", EnvProd)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("LIFECYCLE_TRIGGER_TOKEN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when APP_ENV=prod without LIFECYCLE_TRIGGER_TOKEN")
	}

	t.Setenv("LIFECYCLE_TRIGGER_TOKEN", "cron-secret")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.LifecycleTriggerToken != "cron-secret" {
		t.Fatalf("unexpected trigger token")
	}
}

func TestLoad_WinnerWebhookRequiresURLWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("WINNER_WEBHOOK_ENABLED", "true")
	t.Setenv("WINNER_WEBHOOK_URL", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when WINNER_WEBHOOK_ENABLED=true without WINNER_WEBHOOK_URL")
	}
}

func TestLoad_WinnerWebhookConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("WINNER_WEBHOOK_ENABLED", "true")
	t.Setenv("WINNER_WEBHOOK_URL", "https://hooks.example.com/winners")
	t.Setenv("WINNER_WEBHOOK_TOKEN", "token-123")
	t.Setenv("WINNER_WEBHOOK_TIMEOUT", "4s")
	t.Setenv("WINNER_WEBHOOK_CIRCUIT_FAILURE_COUNT", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.WinnerWebhookEnabled {
		t.Fatalf("expected WinnerWebhookEnabled=true")
	}
	if cfg.WinnerWebhookURL != "https://hooks.example.com/winners" {
		t.Fatalf("unexpected WinnerWebhookURL: %q", cfg.WinnerWebhookURL)
	}
	if cfg.WinnerWebhookToken != "token-123" {
		t.Fatalf("unexpected WinnerWebhookToken")
	}
	if cfg.WinnerWebhookTimeout != 4*time.Second {
		t.Fatalf("unexpected WinnerWebhookTimeout: %s", cfg.WinnerWebhookTimeout)
	}
	if cfg.WinnerWebhookCircuit.FailureThreshold != 7 {
		t.Fatalf("unexpected webhook circuit failure threshold: %d", cfg.WinnerWebhookCircuit.FailureThreshold)
	}
}

func TestLoad_AccountDefaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.AccountBaseURL != "http://localhost:8081" {
		t.Fatalf("unexpected AccountBaseURL: %q", cfg.AccountBaseURL)
	}
	if cfg.AccountIntrospectPath != "/v1/auth/introspect" {
		t.Fatalf("unexpected AccountIntrospectPath: %q", cfg.AccountIntrospectPath)
	}
	if cfg.AccountTimeout != 3*time.Second {
		t.Fatalf("unexpected AccountTimeout: %s", cfg.AccountTimeout)
	}
	if !cfg.AccountCircuit.Enabled {
		t.Fatalf("expected account circuit enabled by default")
	}
}

func TestLoad_CORSCannotBeEmpty(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", " , ,")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for empty CORS_ALLOWED_ORIGINS")
	}
}
