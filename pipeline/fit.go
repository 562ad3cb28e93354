package pipeline

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"shopagent"

	"gopkg.in/yaml.v3"
)

// SubstitutionRule rewrites a surviving item whose name contains Match.
// Exactly one of Price (flat replacement) or Discount (multiplier on the
// existing price) applies.
type SubstitutionRule struct {
	Match    string  `yaml:"match"`
	Replace  string  `yaml:"replace"`
	Price    float64 `yaml:"price,omitempty"`
	Discount float64 `yaml:"discount,omitempty"`
}

// DefaultSubstitutions mirror common cheaper-alternative swaps.
var DefaultSubstitutions = []SubstitutionRule{
	{Match: "beef", Replace: "chicken", Price: 5.99},
	{Match: "organic", Replace: "regular", Discount: 0.7},
	{Match: "premium", Replace: "standard", Discount: 0.8},
}

// LoadSubstitutions reads substitution rules from a YAML file.
func LoadSubstitutions(path string) ([]SubstitutionRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read substitutions: %w", err)
	}
	var rules []SubstitutionRule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse substitutions: %w", err)
	}
	return rules, nil
}

// FitToBudget trims a shopping list until its total fits the budget, then
// applies substitution rules to the survivors. The algorithm is greedy and
// deliberately non-optimal: it only guarantees termination and a
// non-increasing total. With a budget of zero or less it may empty the
// list entirely; no minimum item count is enforced.
func FitToBudget(items []shopagent.LineItem, budget float64, rules []SubstitutionRule) []shopagent.LineItem {
	fitted := make([]shopagent.LineItem, len(items))
	copy(fitted, items)

	// Price descending; stable so equal prices keep their original order.
	sort.SliceStable(fitted, func(i, j int) bool {
		return fitted[i].Price > fitted[j].Price
	})

	total := sumPrices(fitted)
	for total > budget && len(fitted) > 0 {
		removed := false
		for i, item := range fitted {
			if total-item.Price <= budget {
				total -= item.Price
				fitted = append(fitted[:i], fitted[i+1:]...)
				removed = true
				break
			}
		}
		if !removed {
			// No single removal fits; drop the most expensive remaining.
			total -= fitted[0].Price
			fitted = fitted[1:]
		}
	}

	return applySubstitutions(fitted, rules)
}

func sumPrices(items []shopagent.LineItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Price
	}
	return total
}

// applySubstitutions rewrites each item in place per the first rule whose
// Match appears in its name, case-insensitively. The replacement is
// title-cased in the rewritten name.
func applySubstitutions(items []shopagent.LineItem, rules []SubstitutionRule) []shopagent.LineItem {
	for i := range items {
		for _, rule := range rules {
			if !strings.Contains(strings.ToLower(items[i].Name), strings.ToLower(rule.Match)) {
				continue
			}
			if rule.Price > 0 {
				items[i].Price = rule.Price
			} else if rule.Discount > 0 {
				items[i].Price = items[i].Price * rule.Discount
			}
			items[i].Name = replaceFold(items[i].Name, rule.Match, titleCase(rule.Replace))
			break
		}
	}
	return items
}

// replaceFold replaces every case-insensitive occurrence of old in s.
func replaceFold(s, old, new string) string {
	if old == "" {
		return s
	}
	var b strings.Builder
	lower, lowerOld := strings.ToLower(s), strings.ToLower(old)
	for {
		idx := strings.Index(lower, lowerOld)
		if idx == -1 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:idx])
		b.WriteString(new)
		s = s[idx+len(old):]
		lower = lower[idx+len(old):]
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
