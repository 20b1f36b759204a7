package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CheckInterval != 30*time.Minute {
		t.Fatalf("CheckInterval = %v", cfg.CheckInterval)
	}
	if cfg.LookaheadWindow != 5 {
		t.Fatalf("LookaheadWindow = %d", cfg.LookaheadWindow)
	}
	if cfg.ScraperTimeout != 20*time.Second {
		t.Fatalf("ScraperTimeout = %v", cfg.ScraperTimeout)
	}
	if cfg.TelegramAPIBase != "https://api.telegram.org" {
		t.Fatalf("TelegramAPIBase = %q", cfg.TelegramAPIBase)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("LOOKAHEAD_WINDOW", "8")
	t.Setenv("CHECK_INTERVAL", "60")
	t.Setenv("DATABASE_PATH", "/tmp/other.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LookaheadWindow != 8 {
		t.Fatalf("LookaheadWindow = %d", cfg.LookaheadWindow)
	}
	if cfg.CheckInterval != time.Minute {
		t.Fatalf("CheckInterval = %v", cfg.CheckInterval)
	}
	if cfg.DatabasePath != "/tmp/other.db" {
		t.Fatalf("DatabasePath = %q", cfg.DatabasePath)
	}
}

func TestLoadRejectsNonPositiveDurations(t *testing.T) {
	t.Setenv("SCRAPER_TIMEOUT_SECONDS", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for zero scraper timeout")
	}
}

func TestLoadRejectsEmptyWindow(t *testing.T) {
	t.Setenv("LOOKAHEAD_WINDOW", "-1")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for negative lookahead window")
	}
}
