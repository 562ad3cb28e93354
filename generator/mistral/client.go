package mistral

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"shopagent"
)

const defaultEndpoint = "https://api.mistral.ai/v1/chat/completions"

// Client is a Generator backed by the Mistral chat-completions API. Calls
// are throttled to at most one per MinInterval as a courtesy to the free
// tier's rate limits.
type Client struct {
	endpoint   string
	apiKey     string
	model      string
	maxTokens  int32
	temp       float32
	topP       float32
	httpClient shopagent.HTTPClient
	throttle   *shopagent.Throttle
}

type ClientOpts struct {
	Endpoint    string
	APIKey      string
	ModelID     string
	MaxTokens   int32
	Temperature float32
	TopP        float32
	MinInterval time.Duration
	HTTPClient  shopagent.HTTPClient
}

func NewClient(opts ClientOpts) (*Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("missing Mistral API key")
	}
	if opts.Endpoint == "" {
		opts.Endpoint = defaultEndpoint
	}
	if opts.ModelID == "" {
		opts.ModelID = "mistral-small-latest"
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 800
	}
	if opts.Temperature == 0 {
		opts.Temperature = 0.3
	}
	if opts.TopP == 0 {
		opts.TopP = 0.9
	}
	if opts.MinInterval <= 0 {
		opts.MinInterval = 1200 * time.Millisecond
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		endpoint:   opts.Endpoint,
		apiKey:     opts.APIKey,
		model:      opts.ModelID,
		maxTokens:  opts.MaxTokens,
		temp:       opts.Temperature,
		topP:       opts.TopP,
		httpClient: opts.HTTPClient,
		throttle:   shopagent.NewThrottle(opts.MinInterval),
	}, nil
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	TopP        float32       `json:"top_p,omitempty"`
	MaxTokens   int32         `json:"max_tokens"`
}

type wireResponse struct {
	Choices []struct {
		Message wireMessage `json:"message"`
	} `json:"choices"`
}

// Generate sends one user prompt and returns the model's text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	slog.Info("LLM_CLIENT: Invoked", "model", c.model, "prompt_len", len(prompt))

	if err := c.throttle.Wait(ctx); err != nil {
		return "", &shopagent.GeneratorError{Kind: shopagent.KindTimeout, Message: "canceled while rate limiting", Err: err}
	}

	reqBody := wireRequest{
		Model:       c.model,
		Messages:    []wireMessage{{Role: "user", Content: prompt}},
		Temperature: c.temp,
		TopP:        c.topP,
		MaxTokens:   c.maxTokens,
	}
	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", &shopagent.GeneratorError{Kind: shopagent.KindUnknown, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(reqBytes))
	if err != nil {
		return "", &shopagent.GeneratorError{Kind: shopagent.KindUnknown, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", transportError(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp.StatusCode, body)
	}

	var wr wireResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		return "", &shopagent.GeneratorError{Kind: shopagent.KindUnknown, Message: "undecodable response", Err: err}
	}
	if len(wr.Choices) == 0 {
		return "", &shopagent.GeneratorError{Kind: shopagent.KindUnknown, Message: "response contained no choices"}
	}

	content := wr.Choices[0].Message.Content
	slog.Info("LLM_CLIENT: Completed", "content_len", len(content))
	return content, nil
}

// statusError maps an API status code onto the generator error taxonomy.
func statusError(status int, body []byte) error {
	kind := shopagent.KindUnknown
	switch status {
	case http.StatusUnauthorized:
		kind = shopagent.KindUnauthorized
	case http.StatusTooManyRequests:
		kind = shopagent.KindRateLimited
	case http.StatusPaymentRequired:
		kind = shopagent.KindInsufficientQuota
	case http.StatusBadRequest:
		kind = shopagent.KindMalformedRequest
	}
	return &shopagent.GeneratorError{
		Kind:    kind,
		Message: fmt.Sprintf("status %d: %s", status, string(body)),
	}
}

// transportError classifies request failures that never reached the API.
func transportError(err error) error {
	kind := shopagent.KindNetwork
	var ne interface{ Timeout() bool }
	if errors.As(err, &ne) && ne.Timeout() {
		kind = shopagent.KindTimeout
	} else if errors.Is(err, context.DeadlineExceeded) {
		kind = shopagent.KindTimeout
	} else if errors.Is(err, os.ErrDeadlineExceeded) {
		kind = shopagent.KindTimeout
	}
	return &shopagent.GeneratorError{Kind: kind, Err: err}
}
