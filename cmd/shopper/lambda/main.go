package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"shopagent"
	"shopagent/generator/bedrock"
	"shopagent/pipeline"
	"shopagent/pricing"
	"shopagent/pricing/storage"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joeshaw/envdecode"
)

type Params struct {
	Request   string   `json:"request"`
	Budget    *float64 `json:"budget,omitempty"`
	PartySize int      `json:"party_size,omitempty"`
}

type Results struct {
	ShoppingList string   `json:"shopping_list"`
	TotalCost    float64  `json:"total_cost"`
	Outcome      string   `json:"outcome"`
	Errors       []string `json:"errors,omitempty"`
}

func main() {
	fn := func(ctx context.Context, params Params) (Results, error) {
		if params.Request == "" {
			return Results{}, fmt.Errorf("request must not be empty")
		}

		var agentConfig shopagent.AgentConfig
		if err := envdecode.Decode(&agentConfig); err != nil {
			slog.Warn("SETUP: Agent config incomplete, using defaults", "error", err)
		}

		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return Results{}, fmt.Errorf("failed to load AWS config: %w", err)
		}

		gen := bedrock.NewClient(bedrockruntime.NewFromConfig(awsCfg), bedrock.ClientOpts{
			ModelID: os.Getenv("MODEL_ID"),
		})
		slog.Info("SETUP: Bedrock generator initialized")

		// The price catalog ships as an S3 object so the function needs no
		// outbound product-search access.
		var searcher shopagent.PriceSearcher
		catalogBucket := os.Getenv("PRICE_CATALOG_S3_BUCKET")
		catalogKey := os.Getenv("PRICE_CATALOG_S3_KEY")
		if catalogBucket != "" && catalogKey != "" {
			s3Client := s3.NewFromConfig(awsCfg)
			searcher = pricing.NewCatalogSearcher(storage.NewS3CatalogState(s3Client, catalogBucket, catalogKey))
			slog.Info("SETUP: S3 price catalog initialized", "bucket", catalogBucket, "key", catalogKey)
		}

		budget, partySize := shopagent.ParseRequest(params.Request)
		if params.Budget != nil {
			budget = params.Budget
		}
		if params.PartySize > 0 {
			partySize = params.PartySize
		}
		rec := shopagent.NewRecord(params.Request, budget, partySize)

		orch := pipeline.New(gen, pipeline.Options{
			Searcher:       searcher,
			MaxSteps:       agentConfig.MaxSteps,
			ErrorThreshold: agentConfig.ErrorThreshold,
			Logger:         shopagent.NewStdoutRunLogger(),
		})
		rec = orch.Run(ctx, rec)

		return Results{
			ShoppingList: rec.FinalList,
			TotalCost:    rec.TotalCost,
			Outcome:      string(rec.Outcome()),
			Errors:       rec.Errors,
		}, nil
	}

	lambda.Start(fn)
}
