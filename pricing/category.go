package pricing

import "strings"

// DefaultCategory is used when no keyword matches.
const DefaultCategory = "pantry"

// categoryKeywords maps ingredient keywords to store sections. Matching is
// a plain keyword lookup, not a per-item model call.
var categoryKeywords = map[string][]string{
	"meat":   {"beef", "chicken", "pork", "turkey", "fish", "salmon", "shrimp", "bacon", "sausage", "ham", "lamb", "steak"},
	"dairy":  {"milk", "cheese", "butter", "yogurt", "cream", "egg", "parmesan", "mozzarella", "cheddar"},
	"produce": {
		"apple", "banana", "tomato", "onion", "garlic", "potato", "lettuce",
		"pepper", "carrot", "spinach", "broccoli", "celery", "mushroom",
		"lemon", "lime", "cilantro", "basil", "parsley", "avocado",
	},
	"bakery": {"bread", "bun", "roll", "bagel", "tortilla", "dough", "baguette"},
	"frozen": {"frozen", "ice cream"},
	"deli":   {"deli", "salami", "prosciutto", "pastrami"},
}

// categoryOrder keeps matching deterministic when keywords overlap.
var categoryOrder = []string{"frozen", "deli", "meat", "dairy", "produce", "bakery"}

// CategoryFor derives a store category from an ingredient phrase.
func CategoryFor(ingredient string) string {
	lower := strings.ToLower(ingredient)
	for _, category := range categoryOrder {
		for _, kw := range categoryKeywords[category] {
			if strings.Contains(lower, kw) {
				return category
			}
		}
	}
	return DefaultCategory
}
