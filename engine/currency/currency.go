// Package currency converts amounts between currencies using externally
// supplied exchange rates relative to a common base.
package currency

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shoply/concierge/engine/domain"
	"github.com/shoply/concierge/pkg/fn"
	"github.com/shoply/concierge/pkg/resilience"
)

// RateSource fetches the current rate table.
type RateSource interface {
	Latest(ctx context.Context) (domain.RateTable, error)
}

// Converter performs currency conversion over a RateSource. The rate fetch
// runs behind a circuit breaker and transient-failure retry; validation
// failures are never retried.
type Converter struct {
	rates   RateSource
	breaker *resilience.Breaker
	retry   fn.RetryOpts
	logger  *slog.Logger
}

// New creates a Converter. A nil breaker disables circuit breaking.
func New(rates RateSource, breaker *resilience.Breaker, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{
		rates:   rates,
		breaker: breaker,
		retry:   fn.DefaultRetry,
		logger:  logger,
	}
}

// WithRetry overrides the retry policy for the rate fetch.
func (c *Converter) WithRetry(opts fn.RetryOpts) *Converter {
	c.retry = opts
	return c
}

// Convert computes amount / rates[from] * rates[to]. Codes absent from the
// rate table (or mapped to a zero rate) fail with ErrCurrencyNotFound.
func (c *Converter) Convert(ctx context.Context, amount float64, from, to string) (domain.Conversion, error) {
	if err := domain.ValidateCurrencyCode(from); err != nil {
		return domain.Conversion{}, err
	}
	if err := domain.ValidateCurrencyCode(to); err != nil {
		return domain.Conversion{}, err
	}
	from = domain.NormalizeCurrencyCode(from)
	to = domain.NormalizeCurrencyCode(to)

	table, err := c.latest(ctx)
	if err != nil {
		return domain.Conversion{}, domain.NewUpstreamError("rates", err)
	}

	fromRate, ok := table.Rates[from]
	if !ok || fromRate == 0 {
		return domain.Conversion{}, fmt.Errorf("currency: %s: %w", from, domain.ErrCurrencyNotFound)
	}
	toRate, ok := table.Rates[to]
	if !ok || toRate == 0 {
		return domain.Conversion{}, fmt.Errorf("currency: %s: %w", to, domain.ErrCurrencyNotFound)
	}

	return domain.Conversion{
		Amount: amount,
		From:   from,
		To:     to,
		Result: amount / fromRate * toRate,
	}, nil
}

func (c *Converter) latest(ctx context.Context) (domain.RateTable, error) {
	fetch := func(ctx context.Context) fn.Result[domain.RateTable] {
		if c.breaker == nil {
			return fn.FromPair(c.rates.Latest(ctx))
		}
		var table domain.RateTable
		err := c.breaker.Call(ctx, func(ctx context.Context) error {
			var err error
			table, err = c.rates.Latest(ctx)
			return err
		})
		return fn.FromPair(table, err)
	}

	shouldRetry := func(err error) bool {
		return !errors.Is(err, resilience.ErrCircuitOpen) && !domain.CallerFault(err)
	}
	return fn.Retry(ctx, c.retry, shouldRetry, fetch).Unwrap()
}
