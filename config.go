package shopagent

import "time"

type ModelConfig struct {
	MistralAPIKey string        `env:"MISTRAL_API_KEY"`
	ModelID       string        `env:"MODEL_ID,default=mistral-small-latest"`
	MaxTokens     int32         `env:"MAX_TOKENS,default=800"`
	Temperature   float32       `env:"TEMPERATURE,default=0.3"`
	TopP          float32       `env:"TOP_P,default=0.9"`
	MinInterval   time.Duration `env:"GENERATOR_MIN_INTERVAL,default=1200ms"`
}

type AgentConfig struct {
	MaxSteps          int    `env:"MAX_STEPS,default=15"`
	ErrorThreshold    int    `env:"ERROR_THRESHOLD,default=3"`
	SubstitutionsPath string `env:"SUBSTITUTIONS_PATH,default="`
	SlackWebhookURL   string `env:"SLACK_WEBHOOK_URL,default="`
	SlackChannel      string `env:"SLACK_CHANNEL,default=#groceries"`
}

type PricingConfig struct {
	SearchAPIKey   string        `env:"PRODUCT_SEARCH_API_KEY,default="`
	SearchEndpoint string        `env:"PRODUCT_SEARCH_ENDPOINT,default=https://serpapi.com/search"`
	CatalogPath    string        `env:"PRICE_CATALOG_PATH,default="`
	MinInterval    time.Duration `env:"SEARCH_MIN_INTERVAL,default=1s"`
}
