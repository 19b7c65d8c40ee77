package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ADDR", "")
	t.Setenv("QMS_API_BASE_URL", "")
	t.Setenv("TOKEN_POLL_SECONDS", "")
	t.Setenv("QMS_WAIT_UNIT", "")

	cfg := Load()
	if cfg.Addr != ":8080" {
		t.Fatalf("expected default addr, got %q", cfg.Addr)
	}
	if cfg.APIBaseURL != "http://localhost:3000/api" {
		t.Fatalf("unexpected base url %q", cfg.APIBaseURL)
	}
	if cfg.TokenPollInterval != 5*time.Second {
		t.Fatalf("expected 5s token poll, got %s", cfg.TokenPollInterval)
	}
	if cfg.AnalyticsPollInterval != 5*time.Minute {
		t.Fatalf("expected 5m analytics poll, got %s", cfg.AnalyticsPollInterval)
	}
	if cfg.WaitUnit != "minutes" {
		t.Fatalf("expected minutes wait unit, got %q", cfg.WaitUnit)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("QMS_API_BASE_URL", "https://qms.example.com/api/")
	t.Setenv("QMS_OUTLET_ID", "outlet-7")
	t.Setenv("BOARD_POLL_SECONDS", "3")
	t.Setenv("QMS_API_TIMEOUT_SECONDS", "not-a-number")

	cfg := Load()
	if cfg.APIBaseURL != "https://qms.example.com/api" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.APIBaseURL)
	}
	if cfg.OutletID != "outlet-7" {
		t.Fatalf("unexpected outlet id %q", cfg.OutletID)
	}
	if cfg.BoardPollInterval != 3*time.Second {
		t.Fatalf("expected 3s board poll, got %s", cfg.BoardPollInterval)
	}
	if cfg.APITimeout != 10*time.Second {
		t.Fatalf("expected fallback timeout, got %s", cfg.APITimeout)
	}
}
