package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/apimesh/apimesh-engine/pkg/config"
)

// NewClient builds the LLM client selected by configuration.
// "openai" covers any OpenAI-compatible endpoint (the default); "anthropic"
// talks to the Anthropic Messages API.
func NewClient(cfg *config.AIConfig, logger *zap.Logger) (LLMClient, error) {
	switch cfg.Provider {
	case "", "openai":
		return NewOpenAIClient(&OpenAIConfig{
			Endpoint:       cfg.LLMBaseURL,
			Model:          cfg.LLMModel,
			EmbeddingModel: cfg.EmbeddingModel,
			APIKey:         cfg.APIKey,
		}, logger)
	case "anthropic":
		return NewAnthropicClient(&AnthropicConfig{
			Model:  cfg.LLMModel,
			APIKey: cfg.APIKey,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}
