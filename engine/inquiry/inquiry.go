// Package inquiry orchestrates one user inquiry end to end: it asks the
// reasoning capability to pick an action, routes the decision, executes
// product retrieval or currency conversion, and renders the result as text.
package inquiry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/shoply/concierge/engine/domain"
	"github.com/shoply/concierge/engine/intent"
	"github.com/shoply/concierge/pkg/metrics"
	"github.com/shoply/concierge/pkg/openai"
)

// Reasoner asks the chat model to pick a capability for a query.
type Reasoner interface {
	Decide(ctx context.Context, query string, functions []openai.FunctionDef) (*domain.FunctionCall, string, error)
}

// Formatter rephrases a structured summary as natural language.
type Formatter interface {
	Rephrase(ctx context.Context, text string) (string, error)
}

// Searcher runs semantic product retrieval.
type Searcher interface {
	Retrieve(ctx context.Context, query string, topK int) ([]domain.Match, error)
}

// CurrencyConverter converts an amount between two currencies.
type CurrencyConverter interface {
	Convert(ctx context.Context, amount float64, from, to string) (domain.Conversion, error)
}

// EventSink receives answered-inquiry events. Implementations must be safe
// for concurrent use; a nil sink disables events.
type EventSink interface {
	Answered(ctx context.Context, evt AnsweredEvent)
}

// AnsweredEvent describes one completed inquiry.
type AnsweredEvent struct {
	ID        string        `json:"id"`
	Query     string        `json:"query"`
	Intent    string        `json:"intent"`
	Elapsed   time.Duration `json:"elapsed"`
	Timestamp time.Time     `json:"timestamp"`
}

// Options configures the orchestrator.
type Options struct {
	// TopK is how many product matches a search renders.
	TopK int
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{TopK: 2}
}

// Service is the inquiry orchestrator.
type Service struct {
	reason  Reasoner
	format  Formatter
	search  Searcher
	convert CurrencyConverter
	events  EventSink
	opts    Options
	logger  *slog.Logger
	reg     *metrics.Registry
}

// New creates an inquiry Service. events and reg may be nil.
func New(reason Reasoner, format Formatter, search Searcher, convert CurrencyConverter, events EventSink, opts Options, logger *slog.Logger, reg *metrics.Registry) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultOptions().TopK
	}
	return &Service{
		reason:  reason,
		format:  format,
		search:  search,
		convert: convert,
		events:  events,
		opts:    opts,
		logger:  logger,
		reg:     reg,
	}
}

// Schemas are the capabilities declared to the reasoning model.
func Schemas() []openai.FunctionDef {
	return []openai.FunctionDef{
		{
			Name:        intent.FuncSearchProducts,
			Description: "Search for products based on a query",
			Parameters: openai.Schema{
				Type: "object",
				Properties: map[string]openai.Property{
					"query": {Type: "string"},
				},
				Required: []string{"query"},
			},
		},
		{
			Name:        intent.FuncConvertCurrency,
			Description: "Convert currency from one to another",
			Parameters: openai.Schema{
				Type: "object",
				Properties: map[string]openai.Property{
					"amount":       {Type: "number"},
					"fromCurrency": {Type: "string"},
					"toCurrency":   {Type: "string"},
				},
				Required: []string{"amount", "fromCurrency", "toCurrency"},
			},
		},
	}
}

// Handle processes one inquiry and returns the answer text. Errors carry
// the full internal diagnostic chain; the HTTP layer is responsible for
// collapsing them into a generic failure for the caller.
func (s *Service) Handle(ctx context.Context, query string) (string, error) {
	ctx, span := otel.Tracer("engine/inquiry").Start(ctx, "inquiry.handle")
	defer span.End()

	start := time.Now()
	id := uuid.NewString()
	defer s.observe("concierge_inquiry_duration_seconds", start)

	answer, kind, err := s.handle(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, domain.ErrorKind(err))
		s.logger.Error("inquiry failed",
			"inquiry_id", id,
			"kind", domain.ErrorKind(err),
			"err", err,
		)
		s.count("concierge_inquiry_failures_total", "kind", domain.ErrorKind(err))
		return "", err
	}

	s.logger.Info("inquiry answered",
		"inquiry_id", id,
		"intent", string(kind),
		"elapsed", time.Since(start),
	)
	s.count("concierge_inquiries_total", "intent", string(kind))

	if s.events != nil {
		s.events.Answered(ctx, AnsweredEvent{
			ID:        id,
			Query:     query,
			Intent:    string(kind),
			Elapsed:   time.Since(start),
			Timestamp: time.Now().UTC(),
		})
	}
	return answer, nil
}

func (s *Service) handle(ctx context.Context, query string) (string, intent.Kind, error) {
	if err := domain.ValidateQuery(query); err != nil {
		return "", "", err
	}

	call, text, err := s.reason.Decide(ctx, query, Schemas())
	if err != nil {
		return "", "", domain.NewUpstreamError("reasoning", err)
	}

	decision, err := intent.Route(call, text)
	if err != nil {
		return "", "", err
	}

	switch decision.Kind {
	case intent.KindSearchProducts:
		matches, err := s.search.Retrieve(ctx, decision.Query, s.opts.TopK)
		if err != nil {
			return "", decision.Kind, err
		}
		answer, err := s.renderSearch(ctx, decision.Query, matches)
		return answer, decision.Kind, err

	case intent.KindConvertCurrency:
		conv, err := s.convert.Convert(ctx, decision.Amount, decision.From, decision.To)
		if err != nil {
			return "", decision.Kind, err
		}
		answer, err := s.renderConversion(ctx, conv)
		return answer, decision.Kind, err

	default:
		// Direct answers pass through untouched; an extra formatting round
		// trip would add latency for no gain.
		return decision.Answer, intent.KindDirectAnswer, nil
	}
}

// renderSearch builds the structured match summary and asks the formatting
// capability to rephrase it.
func (s *Service) renderSearch(ctx context.Context, query string, matches []domain.Match) (string, error) {
	if len(matches) == 0 {
		return "No matching products found.", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Top matches for %q:\n", query)
	for i, m := range matches {
		p := m.Product
		fmt.Fprintf(&b, "%d. %s: price %s, discount %s, type %s, variants %s, created %s, url %s\n",
			i+1, p.DisplayTitle, p.Price, p.Discount, p.ProductType, p.Variants, p.CreateDate, p.URL)
	}

	answer, err := s.format.Rephrase(ctx, b.String())
	if err != nil {
		return "", domain.NewUpstreamError("formatting", err)
	}
	return answer, nil
}

// renderConversion renders the two-decimal conversion line, then rephrases.
func (s *Service) renderConversion(ctx context.Context, conv domain.Conversion) (string, error) {
	summary := fmt.Sprintf("%g %s is approximately %.2f %s",
		conv.Amount, conv.From, conv.Result, conv.To)

	answer, err := s.format.Rephrase(ctx, summary)
	if err != nil {
		return "", domain.NewUpstreamError("formatting", err)
	}
	return answer, nil
}

func (s *Service) count(name string, kvs ...string) {
	if s.reg == nil {
		return
	}
	s.reg.Counter(metrics.WithLabels(name, kvs...), "").Inc()
}

func (s *Service) observe(name string, start time.Time) {
	if s.reg == nil {
		return
	}
	s.reg.Histogram(name, "Time to handle one inquiry.", nil).Since(start)
}
