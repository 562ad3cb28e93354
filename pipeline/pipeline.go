package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"shopagent"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultMaxSteps bounds dispatches per run so a misrouting chooser can
	// never cycle forever.
	DefaultMaxSteps = 15

	// DefaultErrorThreshold is the accumulated-error count past which the
	// run is forced into the error state.
	DefaultErrorThreshold = 3
)

// Options configures an Orchestrator.
type Options struct {
	// Searcher enables the live price-lookup path in product mapping.
	Searcher shopagent.PriceSearcher
	// SearchMinInterval is the courtesy throttle before each live lookup.
	SearchMinInterval time.Duration
	// Substitutions override the default cheaper-alternative rules.
	Substitutions []SubstitutionRule
	// UseChooser consults the generator for an advisory next-stage
	// suggestion before each dispatch. Suggestions are validated and never
	// override the sequential order.
	UseChooser bool

	MaxSteps       int
	ErrorThreshold int

	Logger         shopagent.RunLogger
	TracerProvider *sdktrace.TracerProvider
}

// Orchestrator advances a record through the fixed stage order until a
// terminal marker, the error threshold, or the step ceiling. It never
// panics out of Run; every failure is captured into the record and a
// degraded-but-complete record is always returned.
type Orchestrator struct {
	handlers       map[shopagent.Stage]Handler
	chooser        *StageChooser
	maxSteps       int
	errorThreshold int
	logger         shopagent.RunLogger
	tracerProvider *sdktrace.TracerProvider
}

// New builds the orchestrator and its five stage handlers around a
// generator.
func New(gen shopagent.Generator, opts Options) *Orchestrator {
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultMaxSteps
	}
	if opts.ErrorThreshold <= 0 {
		opts.ErrorThreshold = DefaultErrorThreshold
	}
	if opts.SearchMinInterval <= 0 {
		opts.SearchMinInterval = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = shopagent.NewNoOpRunLogger()
	}

	handlers := map[shopagent.Stage]Handler{}
	for _, h := range []Handler{
		NewPlanHandler(gen),
		NewRecipeHandler(gen),
		NewProductMapHandler(gen, opts.Searcher, shopagent.NewThrottle(opts.SearchMinInterval)),
		NewBudgetHandler(gen, opts.Substitutions),
		NewFinalizeHandler(gen),
	} {
		handlers[h.Stage()] = h
	}

	var chooser *StageChooser
	if opts.UseChooser {
		chooser = NewStageChooser(gen)
	}

	return &Orchestrator{
		handlers:       handlers,
		chooser:        chooser,
		maxSteps:       opts.MaxSteps,
		errorThreshold: opts.ErrorThreshold,
		logger:         opts.Logger,
		tracerProvider: opts.TracerProvider,
	}
}

// tracer prefers the configured provider, falling back to the global one.
func (o *Orchestrator) tracer() trace.Tracer {
	if o.tracerProvider != nil {
		return o.tracerProvider.Tracer(shopagent.TracerNamePipeline)
	}
	return otel.Tracer(shopagent.TracerNamePipeline)
}

// Run executes the pipeline for one record and returns it. Partial results
// are always returned rather than discarded; the worst case is a record
// whose NextStage is error and whose Errors explain why.
func (o *Orchestrator) Run(ctx context.Context, rec *shopagent.Record) (out *shopagent.Record) {
	out = rec
	ctx, span := o.tracer().Start(ctx, "Orchestrator.Run")
	defer span.End()

	defer func() {
		if p := recover(); p != nil {
			slog.Error("PIPELINE: Recovered from panic", "panic", p)
			rec.Errors = append(rec.Errors, fmt.Sprintf("pipeline panic: %v", p))
			rec.NextStage = shopagent.StageError
		}
	}()

	slog.Info("PIPELINE: Starting run", "id", rec.ID, "request", rec.Request)

	for step := 1; step <= o.maxSteps; step++ {
		if rec.NextStage == shopagent.StageComplete || len(rec.CompletedStages) >= len(shopagent.PipelineStages) {
			rec.NextStage = shopagent.StageComplete
			break
		}
		if rec.NextStage == shopagent.StageError {
			break
		}
		if len(rec.Errors) > o.errorThreshold {
			rec.AddMessage(rec.NextStage, "too many errors, stopping run")
			rec.NextStage = shopagent.StageError
			break
		}

		next := rec.NextStage
		if o.chooser != nil {
			next = o.chooser.Next(ctx, rec)
			if next == shopagent.StageComplete {
				rec.NextStage = shopagent.StageComplete
				break
			}
		}

		handler, ok := o.handlers[next]
		if !ok {
			rec.AddError(next, fmt.Sprintf("no handler for stage %q", next))
			rec.NextStage = shopagent.StageError
			break
		}

		slog.Info("PIPELINE: Dispatching stage", "stage", next, "step", step)
		entry := shopagent.StageLog{Stage: next, Step: step, Timestamp: time.Now()}
		errsBefore := len(rec.Errors)

		stageCtx, stageSpan := o.tracer().Start(ctx, "Stage."+string(next))
		handler.Execute(stageCtx, rec)
		stageSpan.End()

		entry.NextStage = rec.NextStage
		if len(rec.Errors) > errsBefore {
			entry.Error = rec.Errors[len(rec.Errors)-1]
		}
		o.logStage(entry)

		if step == o.maxSteps {
			rec.AddMessage(next, "step ceiling reached, stopping run")
		}
	}

	o.annotateOutcome(rec)

	slog.Info("PIPELINE: Run finished",
		"id", rec.ID,
		"outcome", rec.Outcome(),
		"completed_stages", len(rec.CompletedStages),
		"errors", len(rec.Errors),
		"total_cost", rec.TotalCost,
	)

	return rec
}

func (o *Orchestrator) annotateOutcome(rec *shopagent.Record) {
	if rec.Outcome() == shopagent.OutcomeSuccess {
		rec.Messages = append(rec.Messages, "Shopping list generated successfully")
		return
	}
	rec.Errors = append(rec.Errors, "workflow incomplete - some stages failed")
}

func (o *Orchestrator) logStage(entry shopagent.StageLog) {
	if o.logger == nil {
		return
	}
	if err := o.logger.LogStage(entry); err != nil {
		slog.Error("PIPELINE: Failed to log stage", "error", err, "stage", entry.Stage)
	}
}
