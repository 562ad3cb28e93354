package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// Generator is a deterministic stand-in for a real model. It inspects the
// prompt to figure out which stage is asking and replies with canned but
// well-formed output. It only serves as a learning aid to watch the pipeline
// move through its stages without burning API credits. Real LLMs may not be
// so kind :)
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	slog.Info("LLM_CLIENT: Invoked", "prompt_len", len(prompt))

	// Ordered by specificity: several prompt kinds mention "recipe" or
	// "budget" in passing, so the narrow markers are checked first.
	lower := strings.ToLower(prompt)
	switch {
	case strings.Contains(lower, "shopping plan"):
		slog.Info("LLM_CLIENT: Returning canned plan")
		return "1. Pick a simple dinner recipe.\n2. Map each ingredient to a store product.\n3. Check the total against the budget.\n4. Write out the final list.", nil

	case strings.Contains(lower, "shopping list summary"):
		slog.Info("LLM_CLIENT: Returning canned final list")
		return "SHOPPING LIST\n=============\n\nMEAT\n1. Chicken Breast (1 lb) - $5.99\n\nPRODUCE\n2. Broccoli Crowns (2 heads) - $2.49\n\nPANTRY\n3. Soy Sauce (1 bottle) - $3.29\n4. White Rice (2 lb bag) - $2.99\n\nTOTAL: $14.76", nil

	case strings.Contains(lower, "grocery store product"):
		slog.Info("LLM_CLIENT: Returning canned product list")
		items := []map[string]any{
			{"name": "Chicken Breast", "quantity": "1 lb", "estimated_price": 5.99, "category": "meat"},
			{"name": "Broccoli Crowns", "quantity": "2 heads", "estimated_price": 2.49, "category": "produce"},
			{"name": "Soy Sauce", "quantity": "1 bottle", "estimated_price": 3.29, "category": "pantry"},
			{"name": "White Rice", "quantity": "2 lb bag", "estimated_price": 2.99, "category": "pantry"},
		}
		b, err := json.Marshal(items)
		if err != nil {
			slog.Error("Failed to marshal product list", "error", err)
			return "", fmt.Errorf("marshaling canned products: %w", err)
		}
		return string(b), nil

	case strings.Contains(lower, "recipe"):
		slog.Info("LLM_CLIENT: Returning canned recipe")
		recipe := map[string]any{
			"name":         "Chicken Stir Fry",
			"ingredients":  []string{"chicken breast", "broccoli", "soy sauce", "rice"},
			"servings":     4,
			"instructions": []string{"Cook the rice.", "Stir fry the chicken.", "Add broccoli and soy sauce."},
		}
		b, err := json.Marshal(recipe)
		if err != nil {
			slog.Error("Failed to marshal recipe", "error", err)
			return "", fmt.Errorf("marshaling canned recipe: %w", err)
		}
		return string(b), nil

	case strings.Contains(lower, "budget"):
		slog.Info("LLM_CLIENT: Returning canned budget analysis")
		return "The list comes in under budget with room to spare. No substitutions needed.", nil
	}

	slog.Info("LLM_CLIENT: Returning fallback text")
	return "OK", nil
}
