package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestOpenAIClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewOpenAIClient(&OpenAIConfig{
		Endpoint: server.URL,
		Model:    "test-model",
		APIKey:   "test-key",
	}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestOpenAIClient_GenerateResponse(t *testing.T) {
	var gotRequest struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "A concise description."}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17}
		}`))
	})

	response, err := client.GenerateResponse(context.Background(), "Describe GetCard", "You are a docs writer.", 0.2)
	require.NoError(t, err)
	assert.Equal(t, "A concise description.", response)

	assert.Equal(t, "test-model", gotRequest.Model)
	require.Len(t, gotRequest.Messages, 2)
	assert.Equal(t, "system", gotRequest.Messages[0].Role)
	assert.Equal(t, "You are a docs writer.", gotRequest.Messages[0].Content)
	assert.Equal(t, "Describe GetCard", gotRequest.Messages[1].Content)
}

func TestOpenAIClient_GenerateResponse_NoChoices(t *testing.T) {
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "chatcmpl-1", "object": "chat.completion", "choices": []}`))
	})

	_, err := client.GenerateResponse(context.Background(), "prompt", "system", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestOpenAIClient_GenerateResponse_ServerError(t *testing.T) {
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "overloaded"}}`, http.StatusServiceUnavailable)
	})

	_, err := client.GenerateResponse(context.Background(), "prompt", "system", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat completion")
}

func TestOpenAIClient_CreateEmbedding(t *testing.T) {
	var gotRequest struct {
		Model string   `json:"model"`
		Input []string `json:"input"`
	}

	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"object": "list",
			"data": [{"object": "embedding", "index": 0, "embedding": [0.25, -0.5, 0.75]}],
			"model": "text-embedding-3-small",
			"usage": {"prompt_tokens": 4, "total_tokens": 4}
		}`))
	})

	embedding, err := client.CreateEmbedding(context.Background(), "GetCard fetches a card")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, -0.5, 0.75}, embedding)

	assert.Equal(t, "text-embedding-3-small", gotRequest.Model)
	assert.Equal(t, []string{"GetCard fetches a card"}, gotRequest.Input)
}

func TestOpenAIClient_CreateEmbedding_EmptyResponse(t *testing.T) {
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object": "list", "data": []}`))
	})

	_, err := client.CreateEmbedding(context.Background(), "input")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no embedding")
}

func TestAnthropicClient_CreateEmbedding_Unsupported(t *testing.T) {
	client, err := NewAnthropicClient(&AnthropicConfig{
		Model:  "claude-sonnet-4-5",
		APIKey: "test-key",
	}, zap.NewNop())
	require.NoError(t, err)

	_, err = client.CreateEmbedding(context.Background(), "input")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported")
}
