package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "SERVER_PORT")
	unsetEnvWithCleanup(t, "PORT")
	unsetEnvWithCleanup(t, "MARKETPLACE_HTTP_TIMEOUT_SECONDS")
	unsetEnvWithCleanup(t, "SESSION_FILE")
	unsetEnvWithCleanup(t, "SUCCESS_NOTICE_DELAY_MS")
	unsetEnvWithCleanup(t, "DASHBOARD_REFRESH_SCHEDULE")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.ServerPort)
	}
	if cfg.MarketplaceTimeout() != 30*time.Second {
		t.Fatalf("expected default 30s timeout, got %v", cfg.MarketplaceTimeout())
	}
	if cfg.SessionFile != ".console-session.json" {
		t.Fatalf("expected default session file, got %q", cfg.SessionFile)
	}
	if cfg.SuccessNoticeDelay() != 1500*time.Millisecond {
		t.Fatalf("expected default 1500ms notice delay, got %v", cfg.SuccessNoticeDelay())
	}
	if cfg.DashboardRefreshSchedule != "@every 5m" {
		t.Fatalf("expected default refresh schedule, got %q", cfg.DashboardRefreshSchedule)
	}
}

func TestLoadConfig_UsesPortAlias(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "SERVER_PORT")
	setEnvWithCleanup(t, "PORT", "9090")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "9090" {
		t.Fatalf("expected ServerPort from PORT alias, got %q", cfg.ServerPort)
	}
}

func TestLoadConfig_TrimsBaseURLTrailingSlash(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "MARKETPLACE_API_BASE_URL", " https://api.example.com/ ")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.MarketplaceAPIBaseURL != "https://api.example.com" {
		t.Fatalf("expected trimmed base url, got %q", cfg.MarketplaceAPIBaseURL)
	}
}

func TestLoadConfig_CoercesBadDurations(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "MARKETPLACE_HTTP_TIMEOUT_SECONDS", "-5")
	setEnvWithCleanup(t, "SUCCESS_NOTICE_DELAY_MS", "-100")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.MarketplaceTimeout() != 30*time.Second {
		t.Fatalf("expected the timeout coerced back to 30s, got %v", cfg.MarketplaceTimeout())
	}
	if cfg.SuccessNoticeDelay() != 0 {
		t.Fatalf("expected a negative delay coerced to zero, got %v", cfg.SuccessNoticeDelay())
	}
}

func setEnvWithCleanup(t *testing.T, key string, value string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}

func unsetEnvWithCleanup(t *testing.T, key string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}
