package pipeline

import (
	"context"
	"errors"
	"testing"

	"shopagent"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupByCategory(t *testing.T) {
	items := []shopagent.LineItem{
		{Name: "Chicken Breast", Category: "meat", Price: 5.99},
		{Name: "Milk", Category: "dairy", Price: 3.79},
		{Name: "Ground Turkey", Category: "meat", Price: 5.49},
		{Name: "Bread", Category: "bakery", Price: 2.99},
	}

	groups := GroupByCategory(items)

	require.Len(t, groups, 3)
	assert.Equal(t, "meat", groups[0].Category, "categories keep first-appearance order")
	assert.Equal(t, "dairy", groups[1].Category)
	assert.Equal(t, "bakery", groups[2].Category)
	assert.Len(t, groups[0].Items, 2)

	// Grouping the same list again yields the identical result.
	assert.Equal(t, groups, GroupByCategory(items))
}

func TestGroupByCategoryEmpty(t *testing.T) {
	assert.Empty(t, GroupByCategory(nil))
}

func TestFallbackList(t *testing.T) {
	budget := 20.00
	rec := shopagent.NewRecord("dinner", &budget, 2)
	rec.LineItems = []shopagent.LineItem{
		{Name: "Chicken Breast", Quantity: "1 lb", Price: 5.99},
		{Name: "Rice", Quantity: "2 lb bag", Price: 2.99},
	}
	rec.RecomputeTotal()

	out := FallbackList(rec)

	assert.Contains(t, out, "SHOPPING LIST")
	assert.Contains(t, out, "1. Chicken Breast (1 lb) - $5.99")
	assert.Contains(t, out, "2. Rice (2 lb bag) - $2.99")
	assert.Contains(t, out, "TOTAL: $8.98")
	assert.Contains(t, out, "Within budget ($20.00)")
}

func TestFallbackListOverBudget(t *testing.T) {
	budget := 5.00
	rec := shopagent.NewRecord("dinner", &budget, 2)
	rec.LineItems = []shopagent.LineItem{
		{Name: "Salmon", Quantity: "1 lb", Price: 12.00},
	}
	rec.RecomputeTotal()

	out := FallbackList(rec)
	assert.Contains(t, out, "Over budget by $7.00")
}

func TestFinalizeHandlerUsesGeneratorOutput(t *testing.T) {
	rec := shopagent.NewRecord("dinner", nil, 2)
	rec.LineItems = []shopagent.LineItem{{Name: "Rice", Quantity: "1 bag", Price: 2.99, Category: "pantry"}}
	rec.RecomputeTotal()

	h := NewFinalizeHandler(&cannedGen{out: "YOUR LIST\n- Rice"})
	h.Execute(context.Background(), rec)

	assert.Equal(t, "YOUR LIST\n- Rice", rec.FinalList)
	assert.Equal(t, shopagent.StageComplete, rec.NextStage)
	assert.True(t, rec.Completed(shopagent.StageFinalize))
}

func TestFinalizeHandlerFallsBackOnGeneratorFailure(t *testing.T) {
	rec := shopagent.NewRecord("dinner", nil, 2)
	rec.LineItems = []shopagent.LineItem{{Name: "Rice", Quantity: "1 bag", Price: 2.99, Category: "pantry"}}
	rec.RecomputeTotal()

	h := NewFinalizeHandler(&cannedGen{err: errors.New("model unavailable")})
	h.Execute(context.Background(), rec)

	assert.Contains(t, rec.FinalList, "SHOPPING LIST")
	assert.Contains(t, rec.FinalList, "Rice")
	assert.Equal(t, shopagent.StageComplete, rec.NextStage, "a failed render still finishes the run")
	assert.False(t, rec.Completed(shopagent.StageFinalize))
	require.NotEmpty(t, rec.Errors)
	assert.Contains(t, rec.Errors[len(rec.Errors)-1], "failed to create final list")
}

func TestFinalizeHandlerEmptyItems(t *testing.T) {
	rec := shopagent.NewRecord("dinner", nil, 2)

	h := NewFinalizeHandler(&cannedGen{out: "should not be called"})
	h.Execute(context.Background(), rec)

	assert.Equal(t, "No items found for shopping list.", rec.FinalList)
	assert.Equal(t, shopagent.StageComplete, rec.NextStage)
	assert.True(t, rec.Completed(shopagent.StageFinalize))
}
