package shopagent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type SlackClient interface {
	PostMessage(ctx context.Context, channel string, message string) error
}

// Generator is the single contract the pipeline has with a text-generation
// backend. Implementations live under generator/.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Product is one result from a price-lookup collaborator. Price is kept as
// the raw display string ("$3.99", "1,299.00") because sources disagree on
// formatting; the pipeline scrubs it into a number.
type Product struct {
	Title string `json:"title"`
	Price string `json:"price"`
	Size  string `json:"size,omitempty"`
}

// PriceSearcher is the optional live price-lookup collaborator used by the
// product-mapping stage.
type PriceSearcher interface {
	Search(ctx context.Context, query string) ([]Product, error)
}

// Recipe is the structured output of the recipe stage.
type Recipe struct {
	Name         string       `json:"name"`
	Ingredients  []string     `json:"ingredients"`
	Servings     int          `json:"servings"`
	Instructions Instructions `json:"instructions"`
}

// IsValid checks the recipe has the fields later stages depend on.
func (r *Recipe) IsValid() bool {
	if strings.TrimSpace(r.Name) == "" {
		return false
	}
	return len(r.Ingredients) > 0
}

// PlaceholderInstructions is stored when a generator omits instructions.
const PlaceholderInstructions = "No instructions provided."

// Instructions is always a single string. Generators return instructions as
// a string, a list of steps, or nothing at all; unmarshaling normalizes the
// list form by joining with newlines, numbering steps only when the source
// didn't already number them.
type Instructions string

func (ins *Instructions) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if strings.TrimSpace(s) == "" {
			*ins = PlaceholderInstructions
		} else {
			*ins = Instructions(s)
		}
		return nil
	}

	var steps []string
	if err := json.Unmarshal(b, &steps); err == nil {
		*ins = NormalizeInstructionSteps(steps)
		return nil
	}

	if strings.TrimSpace(string(b)) == "null" {
		*ins = PlaceholderInstructions
		return nil
	}

	return fmt.Errorf("instructions must be a string or a list of strings, got %s", string(b))
}

// NormalizeInstructionSteps joins a list of steps into one string. Steps are
// numbered unless the first few already carry their own numbering.
func NormalizeInstructionSteps(steps []string) Instructions {
	if len(steps) == 0 {
		return PlaceholderInstructions
	}

	numbered := false
	for i, step := range steps {
		if i >= 3 {
			break
		}
		s := strings.TrimSpace(step)
		for _, prefix := range []string{"1.", "2.", "3.", "Step 1", "Step 2"} {
			if strings.HasPrefix(s, prefix) {
				numbered = true
				break
			}
		}
	}

	if numbered {
		return Instructions(strings.Join(steps, "\n"))
	}

	out := make([]string, 0, len(steps))
	for i, step := range steps {
		out = append(out, fmt.Sprintf("%d. %s", i+1, step))
	}
	return Instructions(strings.Join(out, "\n"))
}

// LineItem is a priced, categorized store product mapped from an ingredient.
type LineItem struct {
	Name     string  `json:"name"`
	Quantity string  `json:"quantity"`
	Price    float64 `json:"estimated_price"`
	Category string  `json:"category"`
	// LiveSourced records provenance: true when the price came from the live
	// price-lookup collaborator rather than a generator estimate.
	LiveSourced bool `json:"sourced_from_live_price_lookup"`
}

// IsValid checks the line item is usable for budgeting and display.
func (li *LineItem) IsValid() bool {
	return strings.TrimSpace(li.Name) != "" && li.Price >= 0
}
