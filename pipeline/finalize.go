package pipeline

import (
	"context"
	"fmt"
	"strings"

	"shopagent"
)

// FinalizeHandler renders the final list. The generator formats the
// category-grouped items; on any failure a deterministic fallback text is
// built instead, so the caller always receives some list.
type FinalizeHandler struct {
	base
	gen shopagent.Generator
}

func NewFinalizeHandler(gen shopagent.Generator) *FinalizeHandler {
	return &FinalizeHandler{base: base{stage: shopagent.StageFinalize}, gen: gen}
}

func (h *FinalizeHandler) Execute(ctx context.Context, rec *shopagent.Record) {
	h.logExecution(rec, "Creating final shopping list")

	if len(rec.LineItems) == 0 {
		rec.FinalList = "No items found for shopping list."
		rec.NextStage = shopagent.StageComplete
		h.markCompleted(rec)
		return
	}

	itemsText := formatGroups(GroupByCategory(rec.LineItems))

	out, err := h.gen.Generate(ctx, finalizePrompt(rec, itemsText))
	if err != nil {
		h.handleError(rec, fmt.Sprintf("failed to create final list: %v", err))
		rec.FinalList = FallbackList(rec)
		rec.NextStage = shopagent.StageComplete
		return
	}

	rec.FinalList = strings.TrimSpace(out)
	rec.NextStage = shopagent.StageComplete
	h.markCompleted(rec)
	h.logExecution(rec, "Final shopping list created")
}

// CategoryGroup holds the items of one store category.
type CategoryGroup struct {
	Category string
	Items    []shopagent.LineItem
}

// GroupByCategory groups items by category, ordered by each category's
// first appearance. Grouping the same items twice yields identical output.
func GroupByCategory(items []shopagent.LineItem) []CategoryGroup {
	index := make(map[string]int)
	groups := make([]CategoryGroup, 0)

	for _, item := range items {
		i, ok := index[item.Category]
		if !ok {
			i = len(groups)
			index[item.Category] = i
			groups = append(groups, CategoryGroup{Category: item.Category})
		}
		groups[i].Items = append(groups[i].Items, item)
	}

	return groups
}

func formatGroups(groups []CategoryGroup) string {
	var b strings.Builder
	for _, g := range groups {
		fmt.Fprintf(&b, "\n%s:\n", strings.ToUpper(g.Category))
		for _, item := range g.Items {
			fmt.Fprintf(&b, "  - %s (%s) - $%.2f\n", item.Name, item.Quantity, item.Price)
		}
	}
	return b.String()
}

// FallbackList renders the deterministic final list used when the
// generator is unavailable.
func FallbackList(rec *shopagent.Record) string {
	var b strings.Builder
	b.WriteString("SHOPPING LIST\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")

	if len(rec.LineItems) == 0 {
		b.WriteString("No items to display.\n")
		return b.String()
	}

	for i, item := range rec.LineItems {
		fmt.Fprintf(&b, "%d. %s (%s) - $%.2f\n", i+1, item.Name, item.Quantity, item.Price)
	}

	fmt.Fprintf(&b, "\nTOTAL: $%.2f\n", rec.TotalCost)

	if rec.Budget != nil {
		if rec.TotalCost <= *rec.Budget {
			fmt.Fprintf(&b, "Within budget ($%.2f)\n", *rec.Budget)
		} else {
			fmt.Fprintf(&b, "Over budget by $%.2f\n", rec.TotalCost-*rec.Budget)
		}
	}

	return b.String()
}
