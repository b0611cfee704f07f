package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("PORT", "")
	t.Setenv("CATALOG_PATH", "")
	t.Setenv("NATS_URL", "")
	t.Setenv("OPENEXCHANGERATES_APP_ID", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("port = %q", cfg.Server.Port)
	}
	if cfg.Server.RateLimit != 20 || cfg.Server.RateBurst != 40 {
		t.Errorf("rate = %v/%d", cfg.Server.RateLimit, cfg.Server.RateBurst)
	}
	if cfg.Retrieval.TopK != 2 || cfg.Retrieval.Workers != 8 || cfg.Retrieval.MaxFailureRatio != 0.2 {
		t.Errorf("retrieval = %+v", cfg.Retrieval)
	}
	if cfg.NATS.Subject != "concierge.inquiry.answered" {
		t.Errorf("subject = %q", cfg.NATS.Subject)
	}
	if cfg.CatalogPath != "products_list.csv" {
		t.Errorf("catalog = %q", cfg.CatalogPath)
	}
	if cfg.OpenAIKey != "sk-test" {
		t.Errorf("key = %q", cfg.OpenAIKey)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("PORT", "")
	t.Setenv("CATALOG_PATH", "")
	t.Setenv("NATS_URL", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  port: "9090"
  rate_limit: 5
retrieval:
  top_k: 4
  keyword_prefilter: true
catalog_path: /data/catalog.csv
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("port = %q", cfg.Server.Port)
	}
	if cfg.Server.RateLimit != 5 {
		t.Errorf("rate limit = %v", cfg.Server.RateLimit)
	}
	if cfg.Retrieval.TopK != 4 || !cfg.Retrieval.KeywordPrefilter {
		t.Errorf("retrieval = %+v", cfg.Retrieval)
	}
	if cfg.CatalogPath != "/data/catalog.csv" {
		t.Errorf("catalog = %q", cfg.CatalogPath)
	}
	// Unset fields still get defaults.
	if cfg.Retrieval.Workers != 8 {
		t.Errorf("workers = %d", cfg.Retrieval.Workers)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("PORT", "7070")
	t.Setenv("CATALOG_PATH", "/mnt/products.csv")
	t.Setenv("NATS_URL", "nats://localhost:4222")
	t.Setenv("OPENEXCHANGERATES_APP_ID", "app-123")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Errorf("port = %q", cfg.Server.Port)
	}
	if cfg.CatalogPath != "/mnt/products.csv" {
		t.Errorf("catalog = %q", cfg.CatalogPath)
	}
	if cfg.NATS.URL != "nats://localhost:4222" {
		t.Errorf("nats url = %q", cfg.NATS.URL)
	}
	if cfg.RatesAppID != "app-123" {
		t.Errorf("app id = %q", cfg.RatesAppID)
	}
}

func TestLoad_MissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := Load("")
	if err == nil {
		t.Fatal("expected error without OPENAI_API_KEY")
	}
	if !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Errorf("error = %v", err)
	}
}

func TestLoad_MissingFileFallsBack(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("PORT", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("port = %q", cfg.Server.Port)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestOpenAITimeout(t *testing.T) {
	o := OpenAI{TimeoutSecs: 45}
	if o.Timeout().Seconds() != 45 {
		t.Errorf("timeout = %v", o.Timeout())
	}
}
