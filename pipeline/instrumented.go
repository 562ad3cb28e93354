package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"shopagent"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedOrchestrator is an orchestrator variant with comprehensive
// observability metrics.
type InstrumentedOrchestrator struct {
	inner  *Orchestrator
	tracer trace.Tracer
	meter  metric.Meter
}

// NewInstrumented wraps an orchestrator with tracing and metrics.
func NewInstrumented(gen shopagent.Generator, opts Options, tracer trace.Tracer, meter metric.Meter) *InstrumentedOrchestrator {
	return &InstrumentedOrchestrator{
		inner:  New(gen, opts),
		tracer: tracer,
		meter:  meter,
	}
}

// Run executes the pipeline for one record with full instrumentation.
func (o *InstrumentedOrchestrator) Run(ctx context.Context, rec *shopagent.Record) (out *shopagent.Record) {
	out = rec
	ctx, span := o.tracer.Start(ctx, "InstrumentedOrchestrator.Run")
	defer span.End()

	runsCounter, _ := o.meter.Int64Counter("pipeline_runs_total",
		metric.WithDescription("Total number of pipeline runs started"))
	runsCompletedCounter, _ := o.meter.Int64Counter("pipeline_runs_completed_total",
		metric.WithDescription("Total number of pipeline runs classified as success"))
	runsDegradedCounter, _ := o.meter.Int64Counter("pipeline_runs_degraded_total",
		metric.WithDescription("Total number of pipeline runs classified as partial or failure"))
	stageCounter, _ := o.meter.Int64Counter("pipeline_stages_total",
		metric.WithDescription("Total number of stage dispatches"))
	stageFailedCounter, _ := o.meter.Int64Counter("pipeline_stage_failures_total",
		metric.WithDescription("Total number of stages that recorded an error"))

	itemsGauge, _ := o.meter.Int64Gauge("shopping_list_items",
		metric.WithDescription("Number of line items on the finished list"))
	totalCostGauge, _ := o.meter.Float64Gauge("shopping_list_total_cost",
		metric.WithDescription("Total cost of the finished list"))

	runDurationHist, _ := o.meter.Float64Histogram("pipeline_run_duration_seconds",
		metric.WithDescription("Total duration of a pipeline run in seconds"))
	stageDurationHist, _ := o.meter.Float64Histogram("pipeline_stage_duration_seconds",
		metric.WithDescription("Duration of individual stage executions in seconds"))

	runsCounter.Add(ctx, 1)
	runStart := time.Now()

	defer func() {
		if p := recover(); p != nil {
			slog.Error("PIPELINE: Recovered from panic", "panic", p)
			rec.Errors = append(rec.Errors, fmt.Sprintf("pipeline panic: %v", p))
			rec.NextStage = shopagent.StageError
			span.SetStatus(codes.Error, "pipeline panic")
		}
	}()

	for step := 1; step <= o.inner.maxSteps; step++ {
		if rec.NextStage == shopagent.StageComplete || len(rec.CompletedStages) >= len(shopagent.PipelineStages) {
			rec.NextStage = shopagent.StageComplete
			break
		}
		if rec.NextStage == shopagent.StageError {
			break
		}
		if len(rec.Errors) > o.inner.errorThreshold {
			rec.AddMessage(rec.NextStage, "too many errors, stopping run")
			rec.NextStage = shopagent.StageError
			break
		}

		next := rec.NextStage
		if o.inner.chooser != nil {
			next = o.inner.chooser.Next(ctx, rec)
			if next == shopagent.StageComplete {
				rec.NextStage = shopagent.StageComplete
				break
			}
		}

		handler, ok := o.inner.handlers[next]
		if !ok {
			rec.AddError(next, fmt.Sprintf("no handler for stage %q", next))
			rec.NextStage = shopagent.StageError
			span.SetStatus(codes.Error, "unknown stage")
			break
		}

		stageCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", string(next))))
		entry := shopagent.StageLog{Stage: next, Step: step, Timestamp: time.Now()}
		errsBefore := len(rec.Errors)
		stageStart := time.Now()

		stageCtx, stageSpan := o.tracer.Start(ctx, "Stage."+string(next))
		handler.Execute(stageCtx, rec)
		stageSpan.End()

		stageDurationHist.Record(ctx, time.Since(stageStart).Seconds(),
			metric.WithAttributes(attribute.String("stage", string(next))))

		span.AddEvent("Stage executed", trace.WithAttributes(
			attribute.String("stage", string(next)),
			attribute.Int("step", step),
			attribute.String("next_stage", string(rec.NextStage)),
		))

		entry.NextStage = rec.NextStage
		if len(rec.Errors) > errsBefore {
			entry.Error = rec.Errors[len(rec.Errors)-1]
			stageFailedCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", string(next))))
		}
		o.inner.logStage(entry)

		if step == o.inner.maxSteps {
			rec.AddMessage(next, "step ceiling reached, stopping run")
		}
	}

	o.inner.annotateOutcome(rec)

	itemsGauge.Record(ctx, int64(len(rec.LineItems)))
	totalCostGauge.Record(ctx, rec.TotalCost)
	runDurationHist.Record(ctx, time.Since(runStart).Seconds())

	switch rec.Outcome() {
	case shopagent.OutcomeSuccess:
		runsCompletedCounter.Add(ctx, 1)
	default:
		runsDegradedCounter.Add(ctx, 1)
		span.SetStatus(codes.Error, "run did not fully complete")
	}

	return rec
}
