package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	content := `
sec:
  user_agent: "test/0.1 (ops@example.com)"
cache:
  ttl_hours: 6
refresh:
  tickers: [AAPL]
derive:
  q3_cumulative: false
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.SEC.UserAgent != "test/0.1 (ops@example.com)" {
		t.Errorf("user agent = %q", cfg.SEC.UserAgent)
	}
	if cfg.CacheTTL() != 6*time.Hour {
		t.Errorf("cache ttl = %v, want 6h", cfg.CacheTTL())
	}
	if cfg.Policy().Q3Cumulative {
		t.Error("policy did not pick up q3_cumulative: false")
	}

	// Unset fields fall back to defaults.
	if cfg.SEC.RateLimitMS != 150 {
		t.Errorf("rate limit = %d, want default 150", cfg.SEC.RateLimitMS)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("listen addr = %q, want default :8080", cfg.ListenAddr)
	}
	if cfg.ConceptsPath != "config/concepts.hjson" {
		t.Errorf("concepts path = %q", cfg.ConceptsPath)
	}
}

func TestDefaultPolicy(t *testing.T) {
	cfg := Default()
	if !cfg.Policy().Q3Cumulative {
		t.Error("default policy must prefer the nine-month window")
	}
	if cfg.RateLimit() != 150*time.Millisecond {
		t.Errorf("rate limit = %v", cfg.RateLimit())
	}
}

func TestLoadConfigMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config")
	}
}
