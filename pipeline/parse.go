package pipeline

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"shopagent"
)

// Generator output is unstructured text that usually, but not always,
// contains the structure we asked for. Extraction is modeled as ordered
// attempts: fenced JSON, then a bare brace/bracket scan, then the
// fixed-label plain-text formats. Each parser is a pure function so the
// brittle parts stay independently testable.

// extractJSONBlock pulls a candidate JSON value out of surrounding prose.
// A ```json fence wins; otherwise the widest open..close span is used.
func extractJSONBlock(text string, open, close byte) (string, bool) {
	if idx := strings.Index(text, "```json"); idx != -1 {
		rest := text[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end != -1 {
			return strings.TrimSpace(rest[:end]), true
		}
	}

	start := strings.IndexByte(text, open)
	end := strings.LastIndexByte(text, close)
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// ParseRecipeJSON locates and decodes a recipe object in generator output.
func ParseRecipeJSON(text string) (*shopagent.Recipe, error) {
	block, ok := extractJSONBlock(text, '{', '}')
	if !ok {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	var recipe shopagent.Recipe
	if err := json.Unmarshal([]byte(block), &recipe); err != nil {
		return nil, fmt.Errorf("decode recipe: %w", err)
	}
	if recipe.Instructions == "" {
		recipe.Instructions = shopagent.PlaceholderInstructions
	}
	if !recipe.IsValid() {
		return nil, fmt.Errorf("recipe missing required fields")
	}
	return &recipe, nil
}

// ParseLabeledRecipe decodes the fixed-label fallback format:
//
//	RECIPE_NAME: ...
//	INGREDIENTS: comma, separated, list
//	INSTRUCTIONS: single line
func ParseLabeledRecipe(text string, servings int) (*shopagent.Recipe, error) {
	var name, instructions string
	var ingredients []string

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "RECIPE_NAME:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "RECIPE_NAME:"))
		case strings.HasPrefix(line, "INGREDIENTS:"):
			for _, ing := range strings.Split(strings.TrimPrefix(line, "INGREDIENTS:"), ",") {
				if ing = strings.TrimSpace(ing); ing != "" {
					ingredients = append(ingredients, ing)
				}
			}
		case strings.HasPrefix(line, "INSTRUCTIONS:"):
			instructions = strings.TrimSpace(strings.TrimPrefix(line, "INSTRUCTIONS:"))
		}
	}

	if name == "" || len(ingredients) == 0 {
		return nil, fmt.Errorf("failed to parse simple recipe format")
	}
	if instructions == "" {
		instructions = shopagent.PlaceholderInstructions
	}

	return &shopagent.Recipe{
		Name:         name,
		Ingredients:  ingredients,
		Servings:     servings,
		Instructions: shopagent.Instructions(instructions),
	}, nil
}

// ParseLineItemsJSON locates and decodes a JSON array of store products.
// Invalid elements are skipped; at least one valid item is required.
func ParseLineItemsJSON(text string) ([]shopagent.LineItem, error) {
	block, ok := extractJSONBlock(text, '[', ']')
	if !ok {
		return nil, fmt.Errorf("no JSON array found in response")
	}

	var items []shopagent.LineItem
	if err := json.Unmarshal([]byte(block), &items); err != nil {
		return nil, fmt.Errorf("decode line items: %w", err)
	}

	valid := make([]shopagent.LineItem, 0, len(items))
	for _, item := range items {
		if !item.IsValid() {
			continue
		}
		if item.Category == "" {
			item.Category = "general"
		}
		valid = append(valid, item)
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("no valid line items in response")
	}
	return valid, nil
}

// ParseLabeledLineItems decodes the fixed-label line format, one product
// per line:
//
//	PRODUCT: name | QUANTITY: size | PRICE: 6.99 | CATEGORY: meat
//
// Unparsable lines are skipped; at least one valid item is required.
func ParseLabeledLineItems(text string) ([]shopagent.LineItem, error) {
	var items []shopagent.LineItem

	for _, line := range strings.Split(text, "\n") {
		if !strings.Contains(line, "PRODUCT:") || !strings.Contains(line, "PRICE:") {
			continue
		}

		parts := strings.Split(line, "|")
		if len(parts) < 4 {
			continue
		}

		name := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(parts[0]), "PRODUCT:"))
		quantity := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(parts[1]), "QUANTITY:"))
		priceText := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(parts[2]), "PRICE:"))
		category := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(parts[3]), "CATEGORY:"))

		price, err := ParsePrice(priceText)
		if err != nil {
			continue
		}

		item := shopagent.LineItem{
			Name:     name,
			Quantity: quantity,
			Price:    price,
			Category: category,
		}
		if item.Category == "" {
			item.Category = "general"
		}
		if item.IsValid() {
			items = append(items, item)
		}
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("no products parsed from labeled format")
	}
	return items, nil
}

var priceNumber = regexp.MustCompile(`\d+(?:\.\d+)?`)

// ParsePrice extracts a non-negative amount from a display price, stripping
// currency symbols and thousands separators ("$1,299.00" -> 1299).
func ParsePrice(s string) (float64, error) {
	cleaned := strings.NewReplacer("$", "", "€", "", "£", "", ",", "").Replace(s)
	match := priceNumber.FindString(cleaned)
	if match == "" {
		return 0, fmt.Errorf("no numeric price in %q", s)
	}

	var price float64
	if _, err := fmt.Sscanf(match, "%f", &price); err != nil {
		return 0, fmt.Errorf("parse price %q: %w", s, err)
	}
	return price, nil
}
