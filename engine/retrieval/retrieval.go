// Package retrieval orchestrates embedding-based product lookup: it embeds
// the query and the current catalog, ranks every record by cosine
// similarity, and returns the top matches.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/shoply/concierge/engine/domain"
	"github.com/shoply/concierge/engine/rank"
	"github.com/shoply/concierge/pkg/fn"
)

// Embedder converts text into a fixed-length vector. All texts within one
// Retrieve call go through the same Embedder; vectors from different
// embedding models are never comparable.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Source yields the current product catalog.
type Source interface {
	Load(ctx context.Context) ([]domain.Product, error)
}

// Options configures the retrieval pipeline.
type Options struct {
	// TopK is the default number of matches when the caller passes 0.
	TopK int
	// Workers caps concurrent in-flight embedding calls for the catalog.
	Workers int
	// MaxFailureRatio bounds skip-and-continue: if more than this fraction
	// of catalog embeddings fail, the whole call fails.
	MaxFailureRatio float64
	// CacheEmbeddings keeps catalog vectors across calls, keyed by a
	// content hash of each record's embedded text.
	CacheEmbeddings bool
	// KeywordPrefilter restricts candidates to records whose embedding
	// text contains a query keyword before any embedding call is made.
	KeywordPrefilter bool
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		TopK:            2,
		Workers:         8,
		MaxFailureRatio: 0.2,
	}
}

// Service is the retrieval engine.
type Service struct {
	embed  Embedder
	source Source
	cache  *embedCache
	opts   Options
	logger *slog.Logger
}

// New creates a retrieval Service.
func New(embed Embedder, source Source, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	var cache *embedCache
	if opts.CacheEmbeddings {
		cache = newEmbedCache()
	}
	return &Service{
		embed:  embed,
		source: source,
		cache:  cache,
		opts:   opts,
		logger: logger,
	}
}

// Retrieve returns up to topK catalog records ranked by similarity to
// query. topK of 0 uses the configured default; a negative topK is a
// ValidationError. A query-embedding failure fails the whole call; record
// embedding failures are skipped until MaxFailureRatio is exceeded.
func (s *Service) Retrieve(ctx context.Context, query string, topK int) ([]domain.Match, error) {
	ctx, span := otel.Tracer("engine/retrieval").Start(ctx, "retrieval.retrieve")
	defer span.End()

	matches, err := s.retrieve(ctx, query, topK)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, domain.ErrorKind(err))
	}
	return matches, err
}

func (s *Service) retrieve(ctx context.Context, query string, topK int) ([]domain.Match, error) {
	if err := domain.ValidateQuery(query); err != nil {
		return nil, err
	}
	if topK < 0 {
		return nil, domain.NewValidationError("topK", fmt.Sprintf("%d", topK), domain.ErrNegativeTopK)
	}
	if topK == 0 {
		topK = s.opts.TopK
	}

	queryVec, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, domain.NewUpstreamError("embedding", fmt.Errorf("query: %w", err))
	}
	if len(queryVec) == 0 {
		return nil, domain.NewUpstreamError("embedding", fmt.Errorf("query: empty vector"))
	}

	products, err := s.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("retrieval: load catalog: %w", err)
	}
	if len(products) == 0 {
		return nil, nil
	}

	if s.opts.KeywordPrefilter {
		products = filterByKeywords(query, products)
		if len(products) == 0 {
			return nil, nil
		}
	}

	candidates, err := s.embedCatalog(ctx, queryVec, products)
	if err != nil {
		return nil, err
	}

	scores, err := rank.TopK(queryVec, candidates, topK)
	if err != nil {
		return nil, err
	}

	matches := make([]domain.Match, len(scores))
	for i, sc := range scores {
		matches[i] = domain.Match{Product: products[sc.Index], Score: sc.Value}
	}
	s.logger.Info("retrieval done",
		"catalog_size", len(products),
		"candidates", len(candidates),
		"matches", len(matches),
	)
	return matches, nil
}

// embedCatalog embeds every product with bounded concurrency. Failed records
// are dropped; if the failure ratio exceeds the configured bound the whole
// call fails with an UpstreamError.
func (s *Service) embedCatalog(ctx context.Context, queryVec []float64, products []domain.Product) ([]rank.Candidate, error) {
	type indexed struct {
		idx int
		p   domain.Product
	}
	items := make([]indexed, len(products))
	for i, p := range products {
		items[i] = indexed{idx: i, p: p}
	}

	results := fn.ParMapResult(items, s.opts.Workers, func(it indexed) fn.Result[rank.Candidate] {
		vec, err := s.embedProduct(ctx, it.p)
		if err != nil {
			return fn.Err[rank.Candidate](fmt.Errorf("record %d (%s): %w", it.idx, it.p.URL, err))
		}
		return fn.Ok(rank.Candidate{Index: it.idx, Vector: vec})
	})

	candidates := make([]rank.Candidate, 0, len(results))
	failed := 0
	for _, r := range results {
		c, err := r.Unwrap()
		if err != nil {
			failed++
			s.logger.Warn("retrieval: skipping record, embed failed", "err", err)
			continue
		}
		if len(c.Vector) != len(queryVec) {
			return nil, fmt.Errorf("retrieval: record %d has dims %d, query has %d: %w",
				c.Index, len(c.Vector), len(queryVec), domain.ErrDimensionMismatch)
		}
		candidates = append(candidates, c)
	}

	if failed > 0 {
		ratio := float64(failed) / float64(len(products))
		if ratio > s.opts.MaxFailureRatio {
			return nil, domain.NewUpstreamError("embedding",
				fmt.Errorf("catalog: %d/%d records failed", failed, len(products)))
		}
		s.logger.Warn("retrieval: continuing with partial catalog",
			"failed", failed, "total", len(products))
	}
	return candidates, nil
}

func (s *Service) embedProduct(ctx context.Context, p domain.Product) ([]float64, error) {
	text := p.EmbedText()
	if s.cache == nil {
		return s.embed.Embed(ctx, text)
	}
	return s.cache.get(ctx, text, s.embed.Embed)
}
