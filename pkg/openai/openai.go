// Package openai is a hand-rolled client for the OpenAI HTTP API covering
// the three capabilities the engine needs: function-calling chat
// completions (reasoning), plain completions (text formatting), and
// embeddings. Transient failures (429, 5xx) are retried through
// go-retryablehttp; embedding calls additionally respect a client-side
// rate cap.
package openai

import (
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// Config configures the client.
type Config struct {
	BaseURL    string
	APIKey     string
	ChatModel  string
	EmbedModel string
	Timeout    time.Duration
	RetryMax   int
	// EmbedRate / EmbedBurst cap embedding requests per second. Zero rate
	// means uncapped.
	EmbedRate  float64
	EmbedBurst int
}

// Client talks to an OpenAI-compatible API.
type Client struct {
	baseURL    string
	apiKey     string
	chatModel  string
	embedModel string
	http       *http.Client
	limiter    *rate.Limiter

	dimsMu    sync.Mutex
	embedDims int
}

// New creates a Client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "gpt-4-0613"
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = "text-embedding-3-small"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryMax == 0 {
		cfg.RetryMax = 3
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.RetryMax
	rc.HTTPClient.Timeout = cfg.Timeout
	rc.Logger = nil

	var limiter *rate.Limiter
	if cfg.EmbedRate > 0 {
		burst := cfg.EmbedBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.EmbedRate), burst)
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		chatModel:  cfg.ChatModel,
		embedModel: cfg.EmbedModel,
		http:       rc.StandardClient(),
		limiter:    limiter,
	}
}
