package slack_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"

	"shopagent"
	"shopagent/slack"

	should "github.com/stretchr/testify/assert"
	must "github.com/stretchr/testify/require"
)

type mockDoer struct {
	resp   *http.Response
	err    error
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockDoer) Do(req *http.Request) (*http.Response, error) {
	if m.doFunc != nil {
		return m.doFunc(req)
	}
	return m.resp, m.err
}

func TestNewClient(t *testing.T) {
	webhook := "http://slack.com/webhook"
	client := slack.NewClient(webhook, &mockDoer{})
	must.NotNil(t, client, "expected non-nil client")
}

func TestPostMessage(t *testing.T) {
	tests := []struct {
		name    string
		doFunc  func(req *http.Request) (*http.Response, error)
		wantErr error
	}{
		{
			name: "success",
			doFunc: func(req *http.Request) (*http.Response, error) {
				return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewBufferString("ok"))}, nil
			},
			wantErr: nil,
		},
		{
			name: "failure status",
			doFunc: func(req *http.Request) (*http.Response, error) {
				return &http.Response{StatusCode: http.StatusBadRequest, Status: "400 Bad Request", Body: io.NopCloser(bytes.NewBufferString("bad request"))}, nil
			},
			wantErr: fmt.Errorf("failed to post message: 400 Bad Request"),
		},
		{
			name: "do error",
			doFunc: func(req *http.Request) (*http.Response, error) {
				return nil, errors.New("network error")
			},
			wantErr: errors.New("network error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := slack.NewClient("http://slack.com/webhook", &mockDoer{doFunc: tt.doFunc})
			err := client.PostMessage(context.Background(), "#groceries", "hello")
			if tt.wantErr != nil {
				must.Error(t, err)
				should.Equal(t, tt.wantErr.Error(), err.Error())
				return
			}
			should.NoError(t, err)
		})
	}
}

func TestPostMessagePayload(t *testing.T) {
	var captured map[string]any
	doer := &mockDoer{
		doFunc: func(req *http.Request) (*http.Response, error) {
			body, err := io.ReadAll(req.Body)
			must.NoError(t, err)
			must.NoError(t, json.Unmarshal(body, &captured))
			should.Equal(t, "application/json", req.Header.Get("Content-Type"))
			return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewBufferString("ok"))}, nil
		},
	}

	client := slack.NewClient("http://slack.com/webhook", doer)
	must.NoError(t, client.PostMessage(context.Background(), "#groceries", "the list"))
	should.Equal(t, "#groceries", captured["channel"])
	should.Equal(t, "the list", captured["text"])
}

func TestPostShoppingList(t *testing.T) {
	budget := 25.0
	rec := shopagent.NewRecord("dinner for 4 under $25", &budget, 4)
	rec.Recipe = &shopagent.Recipe{Name: "Chicken and Rice", Ingredients: []string{"chicken"}, Servings: 4}
	rec.TotalCost = 11.47
	rec.FinalList = "1. Chicken Breast - $5.99"

	var message string
	doer := &mockDoer{
		doFunc: func(req *http.Request) (*http.Response, error) {
			var payload map[string]any
			body, err := io.ReadAll(req.Body)
			must.NoError(t, err)
			must.NoError(t, json.Unmarshal(body, &payload))
			message, _ = payload["text"].(string)
			return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewBufferString("ok"))}, nil
		},
	}

	client := slack.NewClient("http://slack.com/webhook", doer)
	must.NoError(t, client.PostShoppingList(context.Background(), "#groceries", rec))

	should.Contains(t, message, "*Chicken and Rice* (serves 4)")
	should.Contains(t, message, "Estimated total: $11.47")
	should.Contains(t, message, "Budget: $25.00")
	should.Contains(t, message, "1. Chicken Breast - $5.99")
}

func TestPostShoppingListRequiresFinalList(t *testing.T) {
	rec := shopagent.NewRecord("dinner", nil, 2)
	client := slack.NewClient("http://slack.com/webhook", &mockDoer{})

	err := client.PostShoppingList(context.Background(), "#groceries", rec)
	must.Error(t, err)
}
