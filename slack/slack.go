package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"shopagent"
)

type Client struct {
	webhookURL string
	httpClient shopagent.HTTPClient
}

func NewClient(webhookURL string, httpClient shopagent.HTTPClient) *Client {
	return &Client{
		webhookURL: webhookURL,
		httpClient: httpClient,
	}
}

func (c *Client) PostMessage(ctx context.Context, channel string, message string) error {
	payload, err := json.Marshal(map[string]any{
		"channel": channel,
		"text":    message,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to post message: %s", resp.Status)
	}

	return nil
}

// PostShoppingList delivers a finished run to a channel, prefixed with a
// short header describing the recipe and total.
func (c *Client) PostShoppingList(ctx context.Context, channel string, rec *shopagent.Record) error {
	if rec.FinalList == "" {
		return fmt.Errorf("record has no final list to post")
	}

	var sb strings.Builder
	if rec.Recipe != nil {
		fmt.Fprintf(&sb, "*%s* (serves %d)\n", rec.Recipe.Name, rec.Recipe.Servings)
	}
	fmt.Fprintf(&sb, "Estimated total: $%.2f\n", rec.TotalCost)
	if rec.Budget != nil {
		fmt.Fprintf(&sb, "Budget: $%.2f\n", *rec.Budget)
	}
	sb.WriteString("```\n")
	sb.WriteString(rec.FinalList)
	sb.WriteString("\n```")

	return c.PostMessage(ctx, channel, sb.String())
}
