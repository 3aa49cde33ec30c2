package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/apimesh/apimesh-engine/pkg/config"
)

func TestNewClient_DefaultsToOpenAI(t *testing.T) {
	client, err := NewClient(&config.AIConfig{
		LLMBaseURL: "http://localhost:8080/v1",
		LLMModel:   "test-model",
	}, zap.NewNop())

	require.NoError(t, err)
	openaiClient, ok := client.(*OpenAIClient)
	require.True(t, ok, "empty provider should select the OpenAI-compatible client")
	assert.Equal(t, "test-model", openaiClient.Model())
}

func TestNewClient_OpenAIProvider(t *testing.T) {
	client, err := NewClient(&config.AIConfig{
		Provider:   "openai",
		LLMBaseURL: "https://api.openai.com/v1",
		LLMModel:   "gpt-4o",
		APIKey:     "test-key",
	}, zap.NewNop())

	require.NoError(t, err)
	_, ok := client.(*OpenAIClient)
	assert.True(t, ok)
}

func TestNewClient_AnthropicProvider(t *testing.T) {
	client, err := NewClient(&config.AIConfig{
		Provider: "anthropic",
		LLMModel: "claude-sonnet-4-5",
		APIKey:   "test-key",
	}, zap.NewNop())

	require.NoError(t, err)
	_, ok := client.(*AnthropicClient)
	assert.True(t, ok)
}

func TestNewClient_UnknownProvider(t *testing.T) {
	_, err := NewClient(&config.AIConfig{Provider: "bedrock"}, zap.NewNop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), `"bedrock"`)
}

func TestNewOpenAIClient_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *OpenAIConfig
		wantErr string
	}{
		{
			name:    "missing endpoint",
			cfg:     &OpenAIConfig{Model: "gpt-4o"},
			wantErr: "endpoint is required",
		},
		{
			name:    "missing model",
			cfg:     &OpenAIConfig{Endpoint: "http://localhost:8080/v1"},
			wantErr: "model is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOpenAIClient(tt.cfg, zap.NewNop())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewOpenAIClient_EmbeddingModelDefault(t *testing.T) {
	client, err := NewOpenAIClient(&OpenAIConfig{
		Endpoint: "http://localhost:8080/v1",
		Model:    "test-model",
	}, zap.NewNop())

	require.NoError(t, err)
	assert.Equal(t, "text-embedding-3-small", client.embeddingModel)
}

func TestNewOpenAIClient_EmbeddingModelOverride(t *testing.T) {
	client, err := NewOpenAIClient(&OpenAIConfig{
		Endpoint:       "http://localhost:8080/v1",
		Model:          "test-model",
		EmbeddingModel: "nomic-embed-text",
	}, zap.NewNop())

	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text", client.embeddingModel)
}

func TestNewAnthropicClient_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *AnthropicConfig
		wantErr string
	}{
		{
			name:    "missing model",
			cfg:     &AnthropicConfig{APIKey: "test-key"},
			wantErr: "model is required",
		},
		{
			name:    "missing API key",
			cfg:     &AnthropicConfig{Model: "claude-sonnet-4-5"},
			wantErr: "API key is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAnthropicClient(tt.cfg, zap.NewNop())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
