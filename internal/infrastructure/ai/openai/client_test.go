package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/giuseppemarasca93/dietcoach/internal/ports/outbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL + "/", Model: "gpt-test"}, zap.NewNop())
}

func TestGenerateReturnsFirstChoice(t *testing.T) {
	var got chatCompletionRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"days\":[]}"},"finish_reason":"stop"}],"usage":{"total_tokens":12}}`))
	})

	text, err := client.Generate(context.Background(), "plan my week")

	require.NoError(t, err)
	assert.Equal(t, `{"days":[]}`, text)
	assert.Equal(t, "gpt-test", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "plan my week", got.Messages[1].Content)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
}

func TestGenerateClassifiesStatus(t *testing.T) {
	cases := []struct {
		status    int
		kind      outbound.ProviderErrorKind
		retryable bool
	}{
		{http.StatusTooManyRequests, outbound.ProviderRateLimited, true},
		{http.StatusBadGateway, outbound.ProviderTransient, true},
		{http.StatusServiceUnavailable, outbound.ProviderTransient, true},
		{http.StatusUnauthorized, outbound.ProviderPermanent, false},
		{http.StatusBadRequest, outbound.ProviderPermanent, false},
	}

	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":{"message":"nope"}}`, tc.status)
			})

			_, err := client.Generate(context.Background(), "prompt")

			var perr *outbound.ProviderError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tc.kind, perr.Kind)
			assert.Equal(t, tc.status, perr.StatusCode)
			assert.Equal(t, tc.retryable, outbound.IsRetryable(err))
		})
	}
}

func TestGenerateRejectsEmptyChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})

	_, err := client.Generate(context.Background(), "prompt")

	require.Error(t, err)
	assert.False(t, outbound.IsRetryable(err))
}
