// Package config loads the service configuration from an optional YAML file
// plus environment variables. Secrets (API keys) come from the environment
// only; a local .env file is honored via godotenv in main.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Server configures the HTTP listener.
type Server struct {
	Port       string  `yaml:"port"`
	CORSOrigin string  `yaml:"cors_origin"`
	RateLimit  float64 `yaml:"rate_limit"`
	RateBurst  int     `yaml:"rate_burst"`
}

// OpenAI configures the reasoning/embedding/formatting client.
type OpenAI struct {
	BaseURL     string  `yaml:"base_url"`
	ChatModel   string  `yaml:"chat_model"`
	EmbedModel  string  `yaml:"embed_model"`
	TimeoutSecs int     `yaml:"timeout_secs"`
	RetryMax    int     `yaml:"retry_max"`
	EmbedRate   float64 `yaml:"embed_rate"`
	EmbedBurst  int     `yaml:"embed_burst"`
}

// Rates configures the exchange-rate client.
type Rates struct {
	BaseURL string `yaml:"base_url"`
}

// Retrieval configures the retrieval engine.
type Retrieval struct {
	TopK             int     `yaml:"top_k"`
	Workers          int     `yaml:"workers"`
	MaxFailureRatio  float64 `yaml:"max_failure_ratio"`
	CacheEmbeddings  bool    `yaml:"cache_embeddings"`
	KeywordPrefilter bool    `yaml:"keyword_prefilter"`
}

// NATS configures optional event publishing. An empty URL disables it.
type NATS struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// Config is the root configuration.
type Config struct {
	Server      Server    `yaml:"server"`
	OpenAI      OpenAI    `yaml:"openai"`
	Rates       Rates     `yaml:"rates"`
	Retrieval   Retrieval `yaml:"retrieval"`
	NATS        NATS      `yaml:"nats"`
	CatalogPath string    `yaml:"catalog_path"`

	// From environment only.
	OpenAIKey  string `yaml:"-"`
	RatesAppID string `yaml:"-"`
}

// Load reads the YAML file at path (defaults apply if it does not exist),
// then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
			applyDefaults(cfg)
		case errors.Is(err, os.ErrNotExist):
			// fall through to defaults
		default:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg.Server.Port = envOr("PORT", cfg.Server.Port)
	cfg.CatalogPath = envOr("CATALOG_PATH", cfg.CatalogPath)
	cfg.NATS.URL = envOr("NATS_URL", cfg.NATS.URL)
	cfg.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	cfg.RatesAppID = os.Getenv("OPENEXCHANGERATES_APP_ID")

	if cfg.OpenAIKey == "" {
		return nil, errors.New("config: OPENAI_API_KEY is required")
	}
	return cfg, nil
}

// OpenAITimeout returns the configured client timeout.
func (o OpenAI) Timeout() time.Duration {
	return time.Duration(o.TimeoutSecs) * time.Second
}

func defaults() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.CORSOrigin == "" {
		cfg.Server.CORSOrigin = "*"
	}
	if cfg.Server.RateLimit == 0 {
		cfg.Server.RateLimit = 20
	}
	if cfg.Server.RateBurst == 0 {
		cfg.Server.RateBurst = 40
	}
	if cfg.OpenAI.TimeoutSecs == 0 {
		cfg.OpenAI.TimeoutSecs = 30
	}
	if cfg.OpenAI.RetryMax == 0 {
		cfg.OpenAI.RetryMax = 3
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 2
	}
	if cfg.Retrieval.Workers == 0 {
		cfg.Retrieval.Workers = 8
	}
	if cfg.Retrieval.MaxFailureRatio == 0 {
		cfg.Retrieval.MaxFailureRatio = 0.2
	}
	if cfg.NATS.Subject == "" {
		cfg.NATS.Subject = "concierge.inquiry.answered"
	}
	if cfg.CatalogPath == "" {
		cfg.CatalogPath = "products_list.csv"
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
