package pipeline

import (
	"context"
	"fmt"
	"strings"

	"shopagent"
)

// PlanHandler interprets the user request into a free-text execution plan
// for the later stages.
type PlanHandler struct {
	base
	gen shopagent.Generator
}

func NewPlanHandler(gen shopagent.Generator) *PlanHandler {
	return &PlanHandler{base: base{stage: shopagent.StagePlan}, gen: gen}
}

func (h *PlanHandler) Execute(ctx context.Context, rec *shopagent.Record) {
	h.logExecution(rec, "Creating execution plan")

	out, err := h.gen.Generate(ctx, planPrompt(rec))
	if err != nil {
		h.handleError(rec, fmt.Sprintf("failed to create plan: %v", err))
		rec.NextStage = shopagent.StageError
		return
	}

	rec.Plan = strings.TrimSpace(out)
	rec.NextStage = shopagent.StageRecipe
	h.markCompleted(rec)
	h.logExecution(rec, "Plan created: "+preview(rec.Plan, 100))
}
