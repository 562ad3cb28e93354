package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"shopagent"
)

// StageChooser is the advisory next-stage classifier. It may consult the
// generator, but free text never drives control flow directly: a suggestion
// is accepted only when it names a stage the deterministic successor table
// would allow, and on any failure or ambiguity the sequential successor
// wins. Behaviorally the pipeline stays a linear state machine.
type StageChooser struct {
	gen shopagent.Generator
}

func NewStageChooser(gen shopagent.Generator) *StageChooser {
	return &StageChooser{gen: gen}
}

var chooserVocabulary = append(append([]shopagent.Stage{}, shopagent.PipelineStages...), shopagent.StageComplete, shopagent.StageError)

// Next returns the stage to dispatch. The generator's suggestion is
// validated against the fixed vocabulary and against the record's
// progress; anything else falls back to the first stage not yet completed.
func (c *StageChooser) Next(ctx context.Context, rec *shopagent.Record) shopagent.Stage {
	fallback := NextSequential(rec.CompletedStages)

	if c.gen == nil {
		return fallback
	}

	out, err := c.gen.Generate(ctx, chooserPrompt(rec))
	if err != nil {
		slog.Warn("CHOOSER: Suggestion call failed, using sequential order", "error", err)
		return fallback
	}

	suggestion, ok := matchStage(out)
	if !ok {
		slog.Warn("CHOOSER: Unrecognized suggestion, using sequential order", "suggestion", preview(out, 60))
		return fallback
	}

	if !c.acceptable(rec, suggestion, fallback) {
		slog.Info("CHOOSER: Suggestion discarded", "suggestion", suggestion, "using", fallback)
		return fallback
	}

	return suggestion
}

// matchStage scans free text for the first vocabulary token it contains.
func matchStage(text string) (shopagent.Stage, bool) {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, stage := range chooserVocabulary {
		if strings.Contains(lower, string(stage)) {
			return stage, true
		}
	}
	return "", false
}

// acceptable holds a suggestion to the successor table: a pipeline stage
// must not have run yet, and complete is valid only when every stage has.
func (c *StageChooser) acceptable(rec *shopagent.Record, suggestion, fallback shopagent.Stage) bool {
	switch suggestion {
	case shopagent.StageComplete:
		return fallback == shopagent.StageComplete
	case shopagent.StageError:
		return false
	default:
		return suggestion == fallback
	}
}

// NextSequential returns the first pipeline stage not yet completed, or
// complete when every stage has run.
func NextSequential(completed []shopagent.Stage) shopagent.Stage {
	done := make(map[shopagent.Stage]bool, len(completed))
	for _, s := range completed {
		done[s] = true
	}
	for _, stage := range shopagent.PipelineStages {
		if !done[stage] {
			return stage
		}
	}
	return shopagent.StageComplete
}
