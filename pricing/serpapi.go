package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"shopagent"
)

// SerpClient queries a hosted shopping-search API for live product prices.
// Calls are throttled to at most one per MinInterval. A rejected API key
// permanently disables the client for the remainder of the process; every
// later call returns ErrPriceKeyRejected immediately.
type SerpClient struct {
	endpoint   string
	apiKey     string
	httpClient shopagent.HTTPClient
	throttle   *shopagent.Throttle
	disabled   bool
}

type SerpClientOpts struct {
	Endpoint    string
	APIKey      string
	HTTPClient  shopagent.HTTPClient
	MinInterval time.Duration
}

func NewSerpClient(opts SerpClientOpts) (*SerpClient, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("missing product search API key")
	}
	if opts.Endpoint == "" {
		opts.Endpoint = "https://serpapi.com/search"
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.MinInterval <= 0 {
		opts.MinInterval = time.Second
	}

	return &SerpClient{
		endpoint:   opts.Endpoint,
		apiKey:     opts.APIKey,
		httpClient: opts.HTTPClient,
		throttle:   shopagent.NewThrottle(opts.MinInterval),
	}, nil
}

type serpShoppingResult struct {
	Title string `json:"title"`
	Price string `json:"price"`
	Size  string `json:"size,omitempty"`
}

type serpResponse struct {
	ShoppingResults []serpShoppingResult `json:"shopping_results"`
}

// Search returns shopping results for a query, best match first.
func (c *SerpClient) Search(ctx context.Context, query string) ([]shopagent.Product, error) {
	if c.disabled {
		return nil, shopagent.ErrPriceKeyRejected
	}

	if err := c.throttle.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("engine", "google_shopping")
	q.Set("q", query)
	q.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("product search request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.disabled = true
		slog.Warn("PRICE_LOOKUP: API key rejected, disabling live lookups", "status", resp.Status)
		return nil, fmt.Errorf("%w: %s", shopagent.ErrPriceKeyRejected, resp.Status)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("product search %s: %s", resp.Status, string(body))
	}

	var sr serpResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("decode product search response: %w", err)
	}

	products := make([]shopagent.Product, 0, len(sr.ShoppingResults))
	for _, r := range sr.ShoppingResults {
		if r.Title == "" || r.Price == "" {
			continue
		}
		products = append(products, shopagent.Product{Title: r.Title, Price: r.Price, Size: r.Size})
	}

	slog.Info("PRICE_LOOKUP: Search completed", "query", query, "results", len(products))
	return products, nil
}
