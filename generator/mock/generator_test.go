package mock

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratorRecipeIsValidJSON(t *testing.T) {
	out, err := NewGenerator().Generate(context.Background(), "You are a recipe expert. Suggest a recipe.")
	require.NoError(t, err)

	var recipe struct {
		Name        string   `json:"name"`
		Ingredients []string `json:"ingredients"`
		Servings    int      `json:"servings"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &recipe))
	assert.NotEmpty(t, recipe.Name)
	assert.NotEmpty(t, recipe.Ingredients)
	assert.Positive(t, recipe.Servings)
}

func TestGeneratorProductsAreValidJSON(t *testing.T) {
	out, err := NewGenerator().Generate(context.Background(), "You are a grocery store product expert.")
	require.NoError(t, err)

	var items []struct {
		Name  string  `json:"name"`
		Price float64 `json:"estimated_price"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.NotEmpty(t, items)
	for _, item := range items {
		assert.NotEmpty(t, item.Name)
		assert.Greater(t, item.Price, 0.0)
	}
}

func TestGeneratorRoutesByPromptKind(t *testing.T) {
	gen := NewGenerator()

	plan, err := gen.Generate(context.Background(), "Create a shopping plan for the request.")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(plan, "1."))

	budget, err := gen.Generate(context.Background(), "Analyze the budget for this list.")
	require.NoError(t, err)
	assert.Contains(t, budget, "budget")

	final, err := gen.Generate(context.Background(), "Create a final shopping list summary.")
	require.NoError(t, err)
	assert.Contains(t, final, "SHOPPING LIST")

	fallback, err := gen.Generate(context.Background(), "anything else")
	require.NoError(t, err)
	assert.Equal(t, "OK", fallback)
}
