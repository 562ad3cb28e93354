package shopagent

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Stage names the units of work in the pipeline, plus the two terminal
// markers. NextStage on the Record is the single source of truth for
// control flow; only the orchestrator and stage handlers write it.
type Stage string

const (
	StagePlan       Stage = "plan"
	StageRecipe     Stage = "recipe"
	StageProductMap Stage = "product_map"
	StageBudget     Stage = "budget"
	StageFinalize   Stage = "finalize"
	StageComplete   Stage = "complete"
	StageError      Stage = "error"
)

// PipelineStages is the fixed execution order.
var PipelineStages = []Stage{StagePlan, StageRecipe, StageProductMap, StageBudget, StageFinalize}

// IsPipelineStage reports whether s names a dispatchable stage (not a
// terminal marker).
func IsPipelineStage(s Stage) bool {
	for _, stage := range PipelineStages {
		if s == stage {
			return true
		}
	}
	return false
}

// Record is the shared state threading through every stage. It is owned by
// exactly one run and never shared across goroutines.
type Record struct {
	ID        string   `json:"id"`
	Request   string   `json:"request"`
	Budget    *float64 `json:"budget,omitempty"`
	PartySize int      `json:"party_size"`

	Plan        string     `json:"plan,omitempty"`
	Recipe      *Recipe    `json:"recipe,omitempty"`
	Ingredients []string   `json:"ingredients,omitempty"`
	LineItems   []LineItem `json:"line_items,omitempty"`
	TotalCost   float64    `json:"total_cost"`
	FinalList   string     `json:"final_list,omitempty"`

	NextStage       Stage    `json:"next_stage"`
	Messages        []string `json:"messages"`
	Errors          []string `json:"errors"`
	CompletedStages []Stage  `json:"completed_stages"`
}

// NewRecord creates the initial record for one run. A nil budget means
// unconstrained; party sizes below 1 are clamped to 1.
func NewRecord(request string, budget *float64, partySize int) *Record {
	if partySize < 1 {
		partySize = 1
	}
	return &Record{
		ID:              uuid.NewString(),
		Request:         request,
		Budget:          budget,
		PartySize:       partySize,
		NextStage:       StagePlan,
		Messages:        []string{},
		Errors:          []string{},
		CompletedStages: []Stage{},
	}
}

// AddMessage appends a diagnostic message attributed to a stage.
func (r *Record) AddMessage(stage Stage, msg string) {
	r.Messages = append(r.Messages, fmt.Sprintf("%s: %s", stage, msg))
}

// AddError appends an error entry attributed to a stage.
func (r *Record) AddError(stage Stage, msg string) {
	r.Errors = append(r.Errors, fmt.Sprintf("%s: %s", stage, msg))
}

// MarkCompleted records a stage completion. A stage appears at most once.
func (r *Record) MarkCompleted(stage Stage) {
	for _, s := range r.CompletedStages {
		if s == stage {
			return
		}
	}
	r.CompletedStages = append(r.CompletedStages, stage)
}

// Completed reports whether the stage already finished in this run.
func (r *Record) Completed(stage Stage) bool {
	for _, s := range r.CompletedStages {
		if s == stage {
			return true
		}
	}
	return false
}

// RecomputeTotal restores the invariant that TotalCost equals the sum of
// line item prices. Call after any mutation of LineItems.
func (r *Record) RecomputeTotal() {
	var total float64
	for _, item := range r.LineItems {
		total += item.Price
	}
	r.TotalCost = total
}

// Outcome classifies a finished run for the caller.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePartial Outcome = "partial"
	OutcomeFailure Outcome = "failure"
)

// Outcome reports success when at least 3 of the 5 stages completed,
// partial when some progress was made, failure otherwise.
func (r *Record) Outcome() Outcome {
	if len(r.CompletedStages) >= 3 {
		return OutcomeSuccess
	}
	if len(r.CompletedStages) > 0 {
		return OutcomePartial
	}
	return OutcomeFailure
}

// StageStatus is the display state of one stage.
type StageStatus string

const (
	StatusCompleted StageStatus = "completed"
	StatusFailed    StageStatus = "failed"
	StatusPending   StageStatus = "pending"
)

// StageStatuses summarizes every pipeline stage for display. A stage is
// failed when an error entry is attributed to it, completed when it
// finished, pending otherwise.
func (r *Record) StageStatuses() map[Stage]StageStatus {
	statuses := make(map[Stage]StageStatus, len(PipelineStages))
	for _, stage := range PipelineStages {
		switch {
		case r.Completed(stage):
			statuses[stage] = StatusCompleted
		case r.hasErrorFor(stage):
			statuses[stage] = StatusFailed
		default:
			statuses[stage] = StatusPending
		}
	}
	return statuses
}

func (r *Record) hasErrorFor(stage Stage) bool {
	for _, e := range r.Errors {
		if strings.Contains(e, string(stage)) {
			return true
		}
	}
	return false
}
