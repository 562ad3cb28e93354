package bedrock

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"shopagent"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

const (
	// defaultModelID is an inference profile ID, not the foundation model's ID.
	// See https://docs.aws.amazon.com/bedrock/latest/userguide/inference-profiles.html.
	defaultModelID = "us.anthropic.claude-3-7-sonnet-20250219-v1:0"

	defaultMaxTokens   = 800
	defaultTemperature = 0.3
	defaultTopP        = 0.9
)

type bedrockRuntimeClient interface {
	Converse(context.Context, *bedrockruntime.ConverseInput, ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type ClientOpts struct {
	ModelID     string
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

// Client is a Generator backed by the Bedrock Converse API.
type Client struct {
	brc  bedrockRuntimeClient
	opts ClientOpts
}

func NewClient(brc bedrockRuntimeClient, opts ClientOpts) *Client {
	if opts.ModelID == "" {
		opts.ModelID = defaultModelID
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature == 0 {
		opts.Temperature = defaultTemperature
	}
	if opts.TopP == 0 {
		opts.TopP = defaultTopP
	}
	return &Client{brc: brc, opts: opts}
}

// Generate sends one user prompt and returns the concatenated text blocks
// of the model's reply.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	slog.Info("LLM_CLIENT: Invoked", "model", c.opts.ModelID, "prompt_len", len(prompt))

	input := &bedrockruntime.ConverseInput{
		ModelId: &c.opts.ModelID,
		Messages: []types.Message{
			{
				Role:    types.ConversationRoleUser,
				Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: prompt}},
			},
		},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   &c.opts.MaxTokens,
			Temperature: &c.opts.Temperature,
			TopP:        &c.opts.TopP,
		},
	}

	out, err := c.brc.Converse(ctx, input)
	if err != nil {
		return "", &shopagent.GeneratorError{Kind: shopagent.KindNetwork, Message: "converse call failed", Err: err}
	}

	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return "", &shopagent.GeneratorError{Kind: shopagent.KindUnknown, Message: fmt.Sprintf("unexpected output type %T", out.Output)}
	}

	var sb strings.Builder
	for _, block := range msg.Value.Content {
		if text, ok := block.(*types.ContentBlockMemberText); ok {
			sb.WriteString(text.Value)
		}
	}
	content := sb.String()
	if content == "" {
		return "", &shopagent.GeneratorError{Kind: shopagent.KindUnknown, Message: "reply contained no text blocks"}
	}

	slog.Info("LLM_CLIENT: Completed", "content_len", len(content))
	return content, nil
}
