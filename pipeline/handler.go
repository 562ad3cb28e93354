package pipeline

import (
	"context"
	"log/slog"

	"shopagent"
)

// Handler is one named unit of work in the pipeline. Handlers mutate the
// record in place, capture their own failures into it, and route by setting
// NextStage; they never return errors to the orchestrator.
type Handler interface {
	Stage() shopagent.Stage
	Execute(ctx context.Context, rec *shopagent.Record)
}

// base carries the bookkeeping every handler shares.
type base struct {
	stage shopagent.Stage
}

func (b base) Stage() shopagent.Stage { return b.stage }

func (b base) logExecution(rec *shopagent.Record, action string) {
	slog.Info("STAGE: Executing", "stage", b.stage, "action", action)
	rec.AddMessage(b.stage, action)
}

func (b base) handleError(rec *shopagent.Record, msg string) {
	slog.Error("STAGE: Failed", "stage", b.stage, "error", msg)
	rec.AddError(b.stage, msg)
}

func (b base) markCompleted(rec *shopagent.Record) {
	rec.MarkCompleted(b.stage)
}
