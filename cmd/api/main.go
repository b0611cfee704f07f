// Package main implements the concierge API server.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"golang.org/x/time/rate"

	"github.com/shoply/concierge/engine/catalog"
	"github.com/shoply/concierge/engine/currency"
	"github.com/shoply/concierge/engine/domain"
	"github.com/shoply/concierge/engine/inquiry"
	"github.com/shoply/concierge/engine/retrieval"
	"github.com/shoply/concierge/pkg/config"
	"github.com/shoply/concierge/pkg/metrics"
	"github.com/shoply/concierge/pkg/mid"
	"github.com/shoply/concierge/pkg/natsutil"
	"github.com/shoply/concierge/pkg/openai"
	"github.com/shoply/concierge/pkg/rates"
	"github.com/shoply/concierge/pkg/resilience"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logger.Error("config load failed", "err", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := metrics.New()

	// --- Upstream clients ---
	ai := openai.New(openai.Config{
		BaseURL:    cfg.OpenAI.BaseURL,
		APIKey:     cfg.OpenAIKey,
		ChatModel:  cfg.OpenAI.ChatModel,
		EmbedModel: cfg.OpenAI.EmbedModel,
		Timeout:    cfg.OpenAI.Timeout(),
		RetryMax:   cfg.OpenAI.RetryMax,
		EmbedRate:  cfg.OpenAI.EmbedRate,
		EmbedBurst: cfg.OpenAI.EmbedBurst,
	})
	rateSource := rates.New(cfg.Rates.BaseURL, cfg.RatesAppID)

	// --- Engine ---
	source := catalog.NewCSVSource(cfg.CatalogPath, logger)
	retriever := retrieval.New(ai, source, retrieval.Options{
		TopK:             cfg.Retrieval.TopK,
		Workers:          cfg.Retrieval.Workers,
		MaxFailureRatio:  cfg.Retrieval.MaxFailureRatio,
		CacheEmbeddings:  cfg.Retrieval.CacheEmbeddings,
		KeywordPrefilter: cfg.Retrieval.KeywordPrefilter,
	}, logger)
	converter := currency.New(rateSource, resilience.NewBreaker(resilience.DefaultBreakerOpts), logger)

	// --- Optional NATS event sink ---
	var events inquiry.EventSink
	if cfg.NATS.URL != "" {
		nc, err := nats.Connect(cfg.NATS.URL, nats.Name("concierge-api"))
		if err != nil {
			logger.Warn("nats connect failed, events disabled", "err", err)
		} else {
			defer nc.Close()
			events = &natsEvents{nc: nc, subject: cfg.NATS.Subject, logger: logger}
		}
	}

	svc := inquiry.New(ai, ai, retriever, converter, events, inquiry.Options{TopK: cfg.Retrieval.TopK}, logger, reg)

	// --- HTTP server ---
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.Handle("GET /metrics", reg.Handler())
	mux.HandleFunc("POST /api/chatbot", handleInquiry(svc))

	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.RequestID(),
		mid.Logger(logger),
		mid.RateLimit(rate.NewLimiter(rate.Limit(cfg.Server.RateLimit), cfg.Server.RateBurst)),
		mid.CORS(cfg.Server.CORSOrigin),
		mid.OTel("concierge-api"),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Server.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// --- Handlers ---

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// InquiryRequest is the JSON body for POST /api/chatbot.
type InquiryRequest struct {
	Query string `json:"query"`
}

// InquiryResponse is the JSON response for POST /api/chatbot.
type InquiryResponse struct {
	Answer string `json:"answer"`
}

// InquiryService is the part of the orchestrator the handler needs.
type InquiryService interface {
	Handle(ctx context.Context, query string) (string, error)
}

func handleInquiry(svc InquiryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req InquiryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if req.Query == "" {
			http.Error(w, `{"error":"query is required"}`, http.StatusBadRequest)
			return
		}

		answer, err := svc.Handle(r.Context(), req.Query)
		if err != nil {
			// Details already logged inside the orchestrator; the caller
			// gets one generic failure with no upstream diagnostics.
			if domain.CallerFault(err) {
				http.Error(w, `{"error":"invalid inquiry"}`, http.StatusBadRequest)
				return
			}
			http.Error(w, `{"error":"failed to process inquiry"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(InquiryResponse{Answer: answer})
	}
}

// --- NATS event sink ---

type natsEvents struct {
	nc      *nats.Conn
	subject string
	logger  *slog.Logger
}

func (n *natsEvents) Answered(ctx context.Context, evt inquiry.AnsweredEvent) {
	if err := natsutil.Publish(ctx, n.nc, n.subject, evt); err != nil {
		n.logger.Warn("event publish failed", "subject", n.subject, "err", err)
	}
}
