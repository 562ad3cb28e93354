package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"shopagent"
	"shopagent/pricing/storage"
)

// CatalogEntry is one product in a static price catalog document.
type CatalogEntry struct {
	Name  string `json:"name"`
	Price string `json:"price"`
	Size  string `json:"size,omitempty"`
}

// CatalogSearcher serves price lookups from a static catalog (file or S3)
// instead of a hosted API, so the live mapping path works offline. The
// catalog is loaded once on first use.
type CatalogSearcher struct {
	state   storage.CatalogState
	entries []CatalogEntry
	loaded  bool
}

func NewCatalogSearcher(state storage.CatalogState) *CatalogSearcher {
	return &CatalogSearcher{state: state}
}

// Search matches catalog entries whose name shares a word with the query.
func (c *CatalogSearcher) Search(ctx context.Context, query string) ([]shopagent.Product, error) {
	if err := c.load(ctx); err != nil {
		return nil, err
	}

	words := strings.Fields(strings.ToLower(query))
	var products []shopagent.Product
	for _, entry := range c.entries {
		if matchesAny(strings.ToLower(entry.Name), words) {
			products = append(products, shopagent.Product{
				Title: entry.Name,
				Price: entry.Price,
				Size:  entry.Size,
			})
		}
	}
	return products, nil
}

func (c *CatalogSearcher) load(ctx context.Context) error {
	if c.loaded {
		return nil
	}

	data, err := c.state.Load(ctx)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		return fmt.Errorf("parse catalog: %w", err)
	}

	c.loaded = true
	return nil
}

func matchesAny(name string, words []string) bool {
	for _, w := range words {
		// Skip bare quantities like "2" or "1.5".
		if w == "" || strings.IndexFunc(w, func(r rune) bool { return r < '0' || r > '9' }) == -1 {
			continue
		}
		if strings.Contains(name, w) {
			return true
		}
	}
	return false
}
