// Package rates is a client for the openexchangerates latest-rates API.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shoply/concierge/engine/domain"
)

// Client fetches exchange rates relative to a base currency.
type Client struct {
	baseURL string
	appID   string
	http    *http.Client
}

// New creates a rates client. baseURL defaults to the hosted service.
func New(baseURL, appID string) *Client {
	if baseURL == "" {
		baseURL = "https://openexchangerates.org"
	}
	return &Client{
		baseURL: baseURL,
		appID:   appID,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Latest returns the current rate table. On a non-200 response the error
// carries the status code only; upstream bodies may contain account detail
// and are never propagated.
func (c *Client) Latest(ctx context.Context) (domain.RateTable, error) {
	var zero domain.RateTable

	u := fmt.Sprintf("%s/api/latest.json?app_id=%s", c.baseURL, url.QueryEscape(c.appID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return zero, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return zero, fmt.Errorf("rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return zero, fmt.Errorf("rates: status %d", resp.StatusCode)
	}

	var out struct {
		Base  string             `json:"base"`
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return zero, fmt.Errorf("rates: decode: %w", err)
	}
	if len(out.Rates) == 0 {
		return zero, fmt.Errorf("rates: empty rate table")
	}
	return domain.RateTable{Base: out.Base, Rates: out.Rates}, nil
}
