package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"shopagent"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitToBudgetTrimsUntilItFits(t *testing.T) {
	items := []shopagent.LineItem{
		{Name: "Salmon Fillet", Price: 12.99},
		{Name: "Rice", Price: 2.49},
		{Name: "Asparagus", Price: 3.99},
		{Name: "Lemon", Price: 0.79},
	}

	fitted := FitToBudget(items, 10.00, nil)

	assert.LessOrEqual(t, sumPrices(fitted), 10.00)
	assert.Less(t, len(fitted), len(items))
	assert.LessOrEqual(t, sumPrices(fitted), sumPrices(items), "total never increases")
}

func TestFitToBudgetAlreadyWithin(t *testing.T) {
	items := []shopagent.LineItem{
		{Name: "Rice", Price: 2.49},
		{Name: "Lemon", Price: 0.79},
	}

	fitted := FitToBudget(items, 10.00, nil)
	require.Len(t, fitted, 2)
	assert.InDelta(t, 3.28, sumPrices(fitted), 0.001)
}

func TestFitToBudgetZeroBudgetMayEmptyList(t *testing.T) {
	items := []shopagent.LineItem{
		{Name: "Rice", Price: 2.49},
		{Name: "Milk", Price: 3.79},
	}

	fitted := FitToBudget(items, 0, nil)
	assert.Empty(t, fitted)
}

func TestFitToBudgetEmptyInput(t *testing.T) {
	assert.Empty(t, FitToBudget(nil, 25.00, DefaultSubstitutions))
}

func TestFitToBudgetDoesNotMutateInput(t *testing.T) {
	items := []shopagent.LineItem{
		{Name: "Salmon Fillet", Price: 12.99},
		{Name: "Rice", Price: 2.49},
	}

	_ = FitToBudget(items, 5.00, DefaultSubstitutions)

	assert.Equal(t, "Salmon Fillet", items[0].Name)
	assert.InDelta(t, 12.99, items[0].Price, 0.001)
}

func TestSubstitutionsOnSurvivors(t *testing.T) {
	tests := []struct {
		name      string
		items     []shopagent.LineItem
		budget    float64
		wantName  string
		wantPrice float64
	}{
		{
			name:      "flat price replacement",
			items:     []shopagent.LineItem{{Name: "Ground Beef", Price: 7.99}},
			budget:    10.00,
			wantName:  "Ground Chicken",
			wantPrice: 5.99,
		},
		{
			name:      "discount multiplier",
			items:     []shopagent.LineItem{{Name: "Organic Milk", Price: 5.00}},
			budget:    10.00,
			wantName:  "Regular Milk",
			wantPrice: 3.50,
		},
		{
			name:      "case insensitive match",
			items:     []shopagent.LineItem{{Name: "PREMIUM Olive Oil", Price: 10.00}},
			budget:    15.00,
			wantName:  "Standard Olive Oil",
			wantPrice: 8.00,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fitted := FitToBudget(tt.items, tt.budget, DefaultSubstitutions)
			require.Len(t, fitted, 1)
			assert.Equal(t, tt.wantName, fitted[0].Name)
			assert.InDelta(t, tt.wantPrice, fitted[0].Price, 0.001)
		})
	}
}

func TestSubstitutionFirstMatchingRuleWins(t *testing.T) {
	// Name matches both the beef and organic rules; only the first applies.
	fitted := FitToBudget(
		[]shopagent.LineItem{{Name: "Organic Beef", Price: 9.00}},
		20.00,
		DefaultSubstitutions,
	)
	require.Len(t, fitted, 1)
	assert.Equal(t, "Organic Chicken", fitted[0].Name)
	assert.InDelta(t, 5.99, fitted[0].Price, 0.001)
}

func TestFitToBudgetSubstitutesAfterTrimming(t *testing.T) {
	items := []shopagent.LineItem{
		{Name: "Ground Beef", Price: 6.00},
		{Name: "Organic Milk", Price: 4.00},
		{Name: "Bread", Price: 2.00},
	}

	fitted := FitToBudget(items, 11.00, DefaultSubstitutions)

	require.Len(t, fitted, 2)
	assert.Equal(t, "Regular Milk", fitted[0].Name)
	assert.InDelta(t, 2.80, fitted[0].Price, 0.001)
	assert.Equal(t, "Bread", fitted[1].Name)
}

func TestLoadSubstitutions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subs.yaml")
	data := []byte(`- match: steak
  replace: pork
  price: 4.99
- match: imported
  replace: domestic
  discount: 0.6
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	rules, err := LoadSubstitutions(path)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "steak", rules[0].Match)
	assert.InDelta(t, 4.99, rules[0].Price, 0.001)
	assert.InDelta(t, 0.6, rules[1].Discount, 0.001)
}

func TestLoadSubstitutionsMissingFile(t *testing.T) {
	_, err := LoadSubstitutions(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
