package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"shopagent"
)

// RecipeHandler asks the generator for a structured recipe and extracts its
// ingredient list. The first call demands JSON; if that fails to parse, a
// second call asks for the fixed-label plain-text format. There is no
// synthetic recipe fallback: if both calls fail, the stage fails.
type RecipeHandler struct {
	base
	gen shopagent.Generator
}

func NewRecipeHandler(gen shopagent.Generator) *RecipeHandler {
	return &RecipeHandler{base: base{stage: shopagent.StageRecipe}, gen: gen}
}

func (h *RecipeHandler) Execute(ctx context.Context, rec *shopagent.Record) {
	h.logExecution(rec, "Finding suitable recipe")

	recipe, err := h.findRecipe(ctx, rec)
	if err != nil {
		h.handleError(rec, fmt.Sprintf("recipe generation failed: %v", err))
		rec.NextStage = shopagent.StageError
		return
	}

	if !recipe.IsValid() {
		h.handleError(rec, "recipe generation produced a recipe missing required fields")
		rec.NextStage = shopagent.StageError
		return
	}

	rec.Recipe = recipe
	rec.Ingredients = recipe.Ingredients
	rec.NextStage = shopagent.StageProductMap
	h.markCompleted(rec)
	h.logExecution(rec, fmt.Sprintf("Recipe found: %s with %d ingredients", recipe.Name, len(recipe.Ingredients)))
}

func (h *RecipeHandler) findRecipe(ctx context.Context, rec *shopagent.Record) (*shopagent.Recipe, error) {
	out, err := h.gen.Generate(ctx, recipePrompt(rec))
	if err != nil {
		return nil, err
	}

	recipe, perr := ParseRecipeJSON(out)
	if perr == nil {
		return recipe, nil
	}
	slog.Warn("STAGE: Recipe JSON parsing failed, retrying with simpler format", "error", perr)

	out, err = h.gen.Generate(ctx, simpleRecipePrompt(rec))
	if err != nil {
		return nil, err
	}
	return ParseLabeledRecipe(out, rec.PartySize)
}
