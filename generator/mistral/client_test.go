package mistral

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"shopagent"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockDoer struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockDoer) Do(req *http.Request) (*http.Response, error) {
	return m.doFunc(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

func newTestClient(t *testing.T, doer shopagent.HTTPClient) *Client {
	t.Helper()
	client, err := NewClient(ClientOpts{
		APIKey:      "test-key",
		MinInterval: 1,
		HTTPClient:  doer,
	})
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(ClientOpts{})
	require.Error(t, err)
}

func TestGenerate(t *testing.T) {
	doer := &mockDoer{
		doFunc: func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "Bearer test-key", req.Header.Get("Authorization"))
			assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

			var body wireRequest
			require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			assert.Equal(t, "mistral-small-latest", body.Model)
			require.Len(t, body.Messages, 1)
			assert.Equal(t, "user", body.Messages[0].Role)
			assert.Equal(t, "suggest a dinner", body.Messages[0].Content)

			return jsonResponse(http.StatusOK, `{
				"choices": [{"message": {"role": "assistant", "content": "How about tacos?"}}]
			}`), nil
		},
	}

	out, err := newTestClient(t, doer).Generate(context.Background(), "suggest a dinner")
	require.NoError(t, err)
	assert.Equal(t, "How about tacos?", out)
}

func TestGenerateStatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantKind shopagent.GeneratorErrorKind
	}{
		{"unauthorized", http.StatusUnauthorized, shopagent.KindUnauthorized},
		{"rate limited", http.StatusTooManyRequests, shopagent.KindRateLimited},
		{"out of credits", http.StatusPaymentRequired, shopagent.KindInsufficientQuota},
		{"bad request", http.StatusBadRequest, shopagent.KindMalformedRequest},
		{"server error", http.StatusInternalServerError, shopagent.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doer := &mockDoer{
				doFunc: func(req *http.Request) (*http.Response, error) {
					return jsonResponse(tt.status, `{"message": "nope"}`), nil
				},
			}

			_, err := newTestClient(t, doer).Generate(context.Background(), "hello")
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, shopagent.GeneratorKindOf(err))
		})
	}
}

func TestGenerateTransportErrors(t *testing.T) {
	doer := &mockDoer{
		doFunc: func(req *http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		},
	}
	_, err := newTestClient(t, doer).Generate(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, shopagent.KindNetwork, shopagent.GeneratorKindOf(err))

	doer = &mockDoer{
		doFunc: func(req *http.Request) (*http.Response, error) {
			return nil, timeoutError{}
		},
	}
	_, err = newTestClient(t, doer).Generate(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, shopagent.KindTimeout, shopagent.GeneratorKindOf(err))
}

type timeoutError struct{}

func (timeoutError) Error() string { return "request timed out" }
func (timeoutError) Timeout() bool { return true }

func TestGenerateEmptyChoices(t *testing.T) {
	doer := &mockDoer{
		doFunc: func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{"choices": []}`), nil
		},
	}

	_, err := newTestClient(t, doer).Generate(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, shopagent.KindUnknown, shopagent.GeneratorKindOf(err))
}

func TestGenerateUndecodableBody(t *testing.T) {
	doer := &mockDoer{
		doFunc: func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, "not json"), nil
		},
	}

	_, err := newTestClient(t, doer).Generate(context.Background(), "hello")
	require.Error(t, err)
}
