package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadUsesDefaultsAndYAMLOverrides(t *testing.T) {
	clearConfigEnv(t)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	yaml := `
submissions:
  per_user_per_hour: 3
  reconcile_on_index: true
catalog:
  cache_ttl: 90s
reconcile:
  interval: 2m
telegram:
  moderation_chat_id: -100123
log:
  file: /tmp/coinmews.log
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Submissions.PerUserPerHour != 3 {
		t.Fatalf("unexpected per_user_per_hour: %d", cfg.Submissions.PerUserPerHour)
	}
	if !cfg.Submissions.ReconcileOnIndex {
		t.Fatalf("reconcile_on_index should be overridden to true")
	}
	if cfg.Catalog.CacheTTL != 90*time.Second {
		t.Fatalf("unexpected catalog cache ttl: %s", cfg.Catalog.CacheTTL)
	}
	if cfg.Reconcile.Interval != 2*time.Minute {
		t.Fatalf("unexpected reconcile interval: %s", cfg.Reconcile.Interval)
	}
	if cfg.Telegram.ModerationChatID != -100123 {
		t.Fatalf("unexpected moderation chat id: %d", cfg.Telegram.ModerationChatID)
	}
	if cfg.Log.File != "/tmp/coinmews.log" {
		t.Fatalf("unexpected log file: %s", cfg.Log.File)
	}

	if cfg.Lifecycle.Interval != 5*time.Minute {
		t.Fatalf("lifecycle interval default should stay 5m, got %s", cfg.Lifecycle.Interval)
	}
	if cfg.Media.MaxUploadBytes != 5<<20 {
		t.Fatalf("max upload default should stay 5MiB, got %d", cfg.Media.MaxUploadBytes)
	}
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config with missing file: %v", err)
	}

	if cfg.Submissions.ReconcileOnIndex {
		t.Fatalf("reconcile_on_index must default to false")
	}
	if cfg.Reconcile.Interval != 10*time.Minute {
		t.Fatalf("unexpected default reconcile interval: %s", cfg.Reconcile.Interval)
	}
	if cfg.Cleanup.Interval != 6*time.Hour {
		t.Fatalf("unexpected default cleanup interval: %s", cfg.Cleanup.Interval)
	}
	if cfg.Catalog.ViewWindow != 24*time.Hour {
		t.Fatalf("unexpected default view window: %s", cfg.Catalog.ViewWindow)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("unexpected default http addr: %s", cfg.HTTP.Addr)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("TELEGRAM_MODERATION_CHAT_ID", "42")
	t.Setenv("SUBMISSIONS_RECONCILE_ON_INDEX", "true")
	t.Setenv("CLEANUP_ORPHAN_RETENTION", "48h")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTP.Addr != ":9090" {
		t.Fatalf("unexpected http addr: %s", cfg.HTTP.Addr)
	}
	if cfg.Telegram.ModerationChatID != 42 {
		t.Fatalf("unexpected chat id: %d", cfg.Telegram.ModerationChatID)
	}
	if !cfg.Submissions.ReconcileOnIndex {
		t.Fatalf("expected reconcile_on_index from env")
	}
	if cfg.Cleanup.OrphanRetention != 48*time.Hour {
		t.Fatalf("unexpected orphan retention: %s", cfg.Cleanup.OrphanRetention)
	}
}

func TestLoadRejectsBadEnvValue(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("RECONCILE_INTERVAL", "soon")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for unparsable duration")
	}
}

func TestLoadRejectsDefaultJWTSecretInProduction(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("APP_ENV", "prod")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error when jwt secret is the default in production")
	}

	t.Setenv("JWT_SECRET", "a-real-secret")
	if _, err := Load(""); err != nil {
		t.Fatalf("unexpected error with explicit secret: %v", err)
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV",
		"PUBLIC_URL",
		"HTTP_ADDR",
		"HTTP_READ_TIMEOUT",
		"HTTP_WRITE_TIMEOUT",
		"HTTP_IDLE_TIMEOUT",
		"LOG_LEVEL",
		"LOG_FILE",
		"POSTGRES_DSN",
		"POSTGRES_AUTO_MIGRATE",
		"REDIS_ADDR",
		"REDIS_PASSWORD",
		"REDIS_DB",
		"S3_ENDPOINT",
		"S3_ACCESS_KEY",
		"S3_SECRET_KEY",
		"S3_BUCKET",
		"S3_USE_SSL",
		"JWT_SECRET",
		"JWT_ACCESS_TTL",
		"REFRESH_TTL",
		"TELEGRAM_BOT_TOKEN",
		"TELEGRAM_MODERATION_CHAT_ID",
		"SUBMISSIONS_PER_USER_PER_HOUR",
		"SUBMISSIONS_RECONCILE_ON_INDEX",
		"CATALOG_CACHE_TTL",
		"SITEMAP_TTL",
		"RECONCILE_INTERVAL",
		"LIFECYCLE_INTERVAL",
		"CLEANUP_INTERVAL",
		"CLEANUP_ORPHAN_RETENTION",
	} {
		t.Setenv(key, "")
	}
}
