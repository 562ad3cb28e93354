package pipeline

import (
	"context"
	"fmt"
	"strings"

	"shopagent"
)

// BudgetHandler checks the list against the budget, running the greedy
// fitting only when the total exceeds it. Without a budget it is a
// pass-through. The closing narrative is best-effort: its failure records
// an error but never blocks advancing to finalize.
type BudgetHandler struct {
	base
	gen   shopagent.Generator
	rules []SubstitutionRule
}

func NewBudgetHandler(gen shopagent.Generator, rules []SubstitutionRule) *BudgetHandler {
	if rules == nil {
		rules = DefaultSubstitutions
	}
	return &BudgetHandler{base: base{stage: shopagent.StageBudget}, gen: gen, rules: rules}
}

func (h *BudgetHandler) Execute(ctx context.Context, rec *shopagent.Record) {
	h.logExecution(rec, "Analyzing budget constraints")

	if rec.Budget == nil {
		rec.NextStage = shopagent.StageFinalize
		h.markCompleted(rec)
		h.logExecution(rec, "No budget specified, proceeding without optimization")
		return
	}

	budget := *rec.Budget
	if rec.TotalCost > budget {
		before := rec.TotalCost
		rec.LineItems = FitToBudget(rec.LineItems, budget, h.rules)
		rec.RecomputeTotal()
		h.logExecution(rec, fmt.Sprintf("Optimized list: $%.2f (was $%.2f)", rec.TotalCost, before))
	} else {
		h.logExecution(rec, fmt.Sprintf("Within budget, $%.2f remaining", budget-rec.TotalCost))
	}

	report, err := h.gen.Generate(ctx, budgetPrompt(rec))
	if err != nil {
		h.handleError(rec, fmt.Sprintf("budget narrative failed: %v", err))
		rec.NextStage = shopagent.StageFinalize
		return
	}

	rec.Messages = append(rec.Messages, "Budget Analysis: "+strings.TrimSpace(report))
	rec.NextStage = shopagent.StageFinalize
	h.markCompleted(rec)
}
