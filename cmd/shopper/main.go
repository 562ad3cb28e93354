package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shopagent"
	"shopagent/generator/mistral"
	"shopagent/generator/mock"
	"shopagent/pipeline"
	"shopagent/pricing"
	"shopagent/pricing/storage"
	"shopagent/slack"

	"github.com/joeshaw/envdecode"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		budget      float64
		people      int
		useMock     bool
		useChooser  bool
		instrument  bool
		postToSlack bool
		dumpRecord  bool
	)

	cmd := &cobra.Command{
		Use:   "shopper [request]",
		Short: "Turn a plain-language grocery request into a budgeted shopping list",
		Long: `shopper runs a staged workflow over a single request: it drafts a plan,
picks a recipe, maps ingredients to priced products, fits the list to the
budget, and formats the result. Pass the request as one argument, e.g.

  shopper "dinner for 4 under $30"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			request := strings.Join(args, " ")
			return run(cmd.Context(), request, runOpts{
				budget:      budget,
				people:      people,
				useMock:     useMock,
				useChooser:  useChooser,
				instrument:  instrument,
				postToSlack: postToSlack,
				dumpRecord:  dumpRecord,
			})
		},
	}

	cmd.Flags().Float64Var(&budget, "budget", 0, "budget in dollars (overrides any amount found in the request)")
	cmd.Flags().IntVar(&people, "people", 0, "party size (overrides any count found in the request)")
	cmd.Flags().BoolVar(&useMock, "mock", false, "use the canned generator instead of the Mistral API")
	cmd.Flags().BoolVar(&useChooser, "chooser", false, "ask the model for advisory next-stage suggestions")
	cmd.Flags().BoolVar(&instrument, "otel", false, "emit OTLP traces and metrics")
	cmd.Flags().BoolVar(&postToSlack, "slack", false, "post the finished list to Slack")
	cmd.Flags().BoolVar(&dumpRecord, "dump", false, "dump the full record to stderr when done")

	return cmd
}

type runOpts struct {
	budget      float64
	people      int
	useMock     bool
	useChooser  bool
	instrument  bool
	postToSlack bool
	dumpRecord  bool
}

func run(ctx context.Context, request string, opts runOpts) error {
	var modelConfig shopagent.ModelConfig
	if err := envdecode.Decode(&modelConfig); err != nil && !opts.useMock {
		return fmt.Errorf("decoding model config: %w", err)
	}

	var agentConfig shopagent.AgentConfig
	if err := envdecode.Decode(&agentConfig); err != nil {
		slog.Warn("SETUP: Agent config incomplete, using defaults", "error", err)
	}

	var pricingConfig shopagent.PricingConfig
	if err := envdecode.Decode(&pricingConfig); err != nil {
		slog.Warn("SETUP: Pricing config incomplete, live lookups disabled", "error", err)
	}

	gen, modelID, err := buildGenerator(modelConfig, opts.useMock)
	if err != nil {
		return err
	}
	slog.Info("SETUP: Generator ready", "model", modelID)

	searcher := buildSearcher(pricingConfig)

	var rules []pipeline.SubstitutionRule
	if agentConfig.SubstitutionsPath != "" {
		rules, err = pipeline.LoadSubstitutions(agentConfig.SubstitutionsPath)
		if err != nil {
			return fmt.Errorf("loading substitution rules: %w", err)
		}
		slog.Info("SETUP: Substitution rules loaded", "path", agentConfig.SubstitutionsPath, "count", len(rules))
	}

	logPath := shopagent.NewRunLogFilePath(modelID)
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	logFile, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("creating run log file: %w", err)
	}
	defer logFile.Close()
	runLogger := shopagent.NewFileRunLogger(logFile)
	defer func() {
		if err := runLogger.Flush(); err != nil {
			slog.Error("Failed to flush run log", "error", err)
		}
	}()
	slog.Info("SETUP: Run log initialized", "path", logPath)

	budget, partySize := shopagent.ParseRequest(request)
	if opts.budget > 0 {
		b := opts.budget
		budget = &b
	}
	if opts.people > 0 {
		partySize = opts.people
	}
	rec := shopagent.NewRecord(request, budget, partySize)

	pipeOpts := pipeline.Options{
		Searcher:          searcher,
		SearchMinInterval: pricingConfig.MinInterval,
		Substitutions:     rules,
		UseChooser:        opts.useChooser,
		MaxSteps:          agentConfig.MaxSteps,
		ErrorThreshold:    agentConfig.ErrorThreshold,
		Logger:            runLogger,
	}

	if opts.instrument {
		tp, mp, shutdown, err := shopagent.InitOtel(ctx)
		if err != nil {
			return fmt.Errorf("initializing otel: %w", err)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				slog.Error("Failed to shut down otel", "error", err)
			}
		}()
		pipeOpts.TracerProvider = tp
		tracer := tp.Tracer(shopagent.TracerNamePipeline)
		meter := mp.Meter(shopagent.TracerNamePipeline)
		rec = pipeline.NewInstrumented(gen, pipeOpts, tracer, meter).Run(ctx, rec)
	} else {
		rec = pipeline.New(gen, pipeOpts).Run(ctx, rec)
	}

	fmt.Println(rec.FinalList)

	if opts.dumpRecord {
		shopagent.Dump(rec)
	}

	if opts.postToSlack {
		if agentConfig.SlackWebhookURL == "" {
			return fmt.Errorf("SLACK_WEBHOOK_URL must be set to post to Slack")
		}
		sc := slack.NewClient(agentConfig.SlackWebhookURL, &http.Client{Timeout: 10 * time.Second})
		if err := sc.PostShoppingList(ctx, agentConfig.SlackChannel, rec); err != nil {
			return fmt.Errorf("posting to Slack: %w", err)
		}
		slog.Info("Posted shopping list to Slack", "channel", agentConfig.SlackChannel)
	}

	if rec.Outcome() == shopagent.OutcomeFailure {
		return fmt.Errorf("workflow failed: %s", strings.Join(rec.Errors, "; "))
	}
	return nil
}

func buildGenerator(cfg shopagent.ModelConfig, useMock bool) (shopagent.Generator, string, error) {
	if useMock {
		return mock.NewGenerator(), "mock", nil
	}
	client, err := mistral.NewClient(mistral.ClientOpts{
		APIKey:      cfg.MistralAPIKey,
		ModelID:     cfg.ModelID,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		TopP:        cfg.TopP,
		MinInterval: cfg.MinInterval,
	})
	if err != nil {
		return nil, "", fmt.Errorf("creating Mistral client: %w", err)
	}
	return client, cfg.ModelID, nil
}

// buildSearcher picks a price source: the live product search API when a key
// is configured, a local catalog file when a path is, otherwise none. With no
// searcher the product mapping stage relies on model-estimated prices alone.
func buildSearcher(cfg shopagent.PricingConfig) shopagent.PriceSearcher {
	if cfg.SearchAPIKey != "" {
		sc, err := pricing.NewSerpClient(pricing.SerpClientOpts{
			Endpoint:    cfg.SearchEndpoint,
			APIKey:      cfg.SearchAPIKey,
			MinInterval: cfg.MinInterval,
		})
		if err != nil {
			slog.Warn("SETUP: Product search unavailable", "error", err)
			return nil
		}
		slog.Info("SETUP: Live product search enabled")
		return sc
	}
	if cfg.CatalogPath != "" {
		slog.Info("SETUP: Using local price catalog", "path", cfg.CatalogPath)
		return pricing.NewCatalogSearcher(storage.NewFileCatalogState(cfg.CatalogPath))
	}
	slog.Info("SETUP: No price source configured, using model estimates")
	return nil
}
