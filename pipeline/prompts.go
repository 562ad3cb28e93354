package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"shopagent"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
)

// recipeSchema is embedded into the recipe prompt so the model knows the
// exact shape expected back.
var recipeSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"name":        {Type: "string"},
		"ingredients": {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
		"servings":    {Type: "integer"},
		"instructions": {
			Type:        "string",
			Description: "Step by step cooking instructions as a single string",
		},
	},
	Required: []string{"name", "ingredients", "servings"},
}

// lineItemSchema describes one store product in the product-mapping prompt.
var lineItemSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"name":            {Type: "string", Description: "Specific product name as sold in store"},
		"quantity":        {Type: "string", Description: "Realistic store package size, e.g. '1 lb package'"},
		"estimated_price": {Type: "number"},
		"category":        {Type: "string", Description: "produce/dairy/meat/pantry/frozen/bakery/deli"},
	},
	Required: []string{"name", "quantity", "estimated_price", "category"},
}

func schemaJSON(s *jsonschema.Schema) string {
	b, err := json.Marshal(s)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func budgetDisplay(budget *float64) string {
	if budget == nil {
		return "Not specified"
	}
	return fmt.Sprintf("$%.2f", *budget)
}

func planPrompt(rec *shopagent.Record) string {
	return fmt.Sprintf(`You are a grocery shopping planner. Analyze the user's request and create a detailed plan.

User Request: %s
Budget: %s
People Count: %d

Create a plan that includes:
1. What type of meal/items are needed
2. Key considerations (budget, dietary needs, etc.)
3. Next steps

Be specific and actionable. Return only the plan text.`,
		rec.Request, budgetDisplay(rec.Budget), rec.PartySize)
}

func recipePrompt(rec *shopagent.Record) string {
	plan := rec.Plan
	if strings.TrimSpace(plan) == "" {
		plan = "General meal planning"
	}
	return fmt.Sprintf(`You are a recipe expert. Based on the user's request and plan, suggest a suitable recipe.

User Request: %s
People Count: %d
Plan: %s

Provide a recipe as ONE valid JSON object matching this schema:
%s

IMPORTANT RULES:
1. Make ingredients SPECIFIC with quantities (e.g., "2 cups flour" not just "flour")
2. Base the recipe on the user's actual request
3. Scale ingredients for %d people
4. Return ONLY valid JSON, no extra text
5. If the user mentions a budget, suggest affordable ingredients
6. Instructions must be a SINGLE STRING, not an array`,
		rec.Request, rec.PartySize, plan, schemaJSON(recipeSchema), rec.PartySize)
}

func simpleRecipePrompt(rec *shopagent.Record) string {
	return fmt.Sprintf(`Create a simple recipe for: %s
For %d people.

Respond in this EXACT format:
RECIPE_NAME: [name here]
INGREDIENTS: [ingredient 1 with quantity], [ingredient 2 with quantity], [ingredient 3 with quantity]
INSTRUCTIONS: [brief instructions as single line]

Example format:
RECIPE_NAME: Spaghetti Carbonara
INGREDIENTS: 1 lb spaghetti pasta, 4 large eggs, 1 cup grated parmesan cheese, 8 oz pancetta
INSTRUCTIONS: Cook pasta, fry pancetta, mix eggs and cheese, combine everything while hot.`,
		rec.Request, rec.PartySize)
}

func productMapPrompt(ingredients []string) string {
	return fmt.Sprintf(`You are a grocery store product expert. Convert these recipe ingredients into specific store products with realistic quantities and current prices.

Ingredients: %s

Return a JSON array where each element matches this schema:
%s

IMPORTANT RULES:
1. Use realistic current grocery store prices
2. Use actual package sizes stores sell
3. Choose appropriate store categories
4. If an ingredient needs multiple products, include all
5. Return ONLY a valid JSON array, no extra text`,
		strings.Join(ingredients, ", "), schemaJSON(lineItemSchema))
}

func simpleProductPrompt(ingredients []string) string {
	return fmt.Sprintf(`List grocery store products for these ingredients: %s

Format each product as:
PRODUCT: [name] | QUANTITY: [package size] | PRICE: [realistic price] | CATEGORY: [store section]

Example:
PRODUCT: Ground Beef | QUANTITY: 1 lb package | PRICE: 6.99 | CATEGORY: meat
PRODUCT: Whole Milk | QUANTITY: 1 gallon | PRICE: 3.79 | CATEGORY: dairy`,
		strings.Join(ingredients, ", "))
}

func budgetPrompt(rec *shopagent.Record) string {
	items := make([]string, 0, len(rec.LineItems))
	for _, item := range rec.LineItems {
		items = append(items, fmt.Sprintf("%s ($%.2f)", item.Name, item.Price))
	}
	return fmt.Sprintf(`You are a budget optimization expert. Analyze the shopping list against the budget.

Total Cost: $%.2f
Budget: %s
Items: %s

If over budget:
1. Suggest specific items to remove or substitute
2. Recommend cheaper alternatives
3. Explain the savings

If within budget:
1. Confirm the list fits the budget
2. Mention remaining budget
3. Suggest optional additions if significant budget remains

Provide actionable recommendations.`,
		rec.TotalCost, budgetDisplay(rec.Budget), strings.Join(items, ", "))
}

func finalizePrompt(rec *shopagent.Record, itemsText string) string {
	recipeName := "Custom meal"
	if rec.Recipe != nil {
		recipeName = rec.Recipe.Name
	}
	return fmt.Sprintf(`Create a comprehensive final shopping list summary.

Recipe: %s
Serves: %d people
Total Cost: $%.2f
Budget: %s

Shopping Items:
%s

Create a well-formatted final shopping list that includes:
1. Header with recipe name and cost summary
2. Items organized by store category
3. Total cost and budget status
4. Any additional notes or recommendations

Make it ready for printing or mobile use.`,
		recipeName, rec.PartySize, rec.TotalCost, budgetDisplay(rec.Budget), itemsText)
}

func chooserPrompt(rec *shopagent.Record) string {
	return fmt.Sprintf(`You are the supervisor of a grocery shopping assistant system.

Current State Summary:
%s

Completed Stages: %s
Errors: %s

Based on the current state, determine which stage should execute next, or whether the process is complete.

Return only the name of the next stage to execute, or "complete" if finished.
Valid stages: plan, recipe, product_map, budget, finalize, complete, error`,
		stateSummary(rec), joinStages(rec.CompletedStages), strings.Join(rec.Errors, "; "))
}

func stateSummary(rec *shopagent.Record) string {
	parts := []string{}
	if rec.Request != "" {
		parts = append(parts, "User Request: "+rec.Request)
	}
	if rec.Plan != "" {
		parts = append(parts, "Plan: "+preview(rec.Plan, 100))
	}
	if rec.Recipe != nil {
		parts = append(parts, "Recipe: "+rec.Recipe.Name)
	}
	if len(rec.LineItems) > 0 {
		parts = append(parts, fmt.Sprintf("Items Found: %d", len(rec.LineItems)))
	}
	if rec.TotalCost > 0 {
		parts = append(parts, fmt.Sprintf("Total Cost: $%.2f", rec.TotalCost))
	}
	if rec.Budget != nil {
		parts = append(parts, fmt.Sprintf("Budget: $%.2f", *rec.Budget))
	}
	if len(parts) == 0 {
		return "No state information available"
	}
	return strings.Join(parts, "; ")
}

func joinStages(stages []shopagent.Stage) string {
	out := make([]string, 0, len(stages))
	for _, s := range stages {
		out = append(out, string(s))
	}
	return strings.Join(out, ", ")
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
