// Package llm provides thin clients for the LLM and embedding endpoints the
// engine uses to enrich operation documentation.
package llm

import "context"

// LLMClient defines the interface for LLM operations.
// Use this interface for dependency injection to enable mocking in tests.
type LLMClient interface {
	// GenerateResponse generates a chat completion response.
	GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error)

	// CreateEmbedding generates an embedding vector for the input text.
	// Providers without an embeddings endpoint return an error.
	CreateEmbedding(ctx context.Context, input string) ([]float32, error)

	// Model returns the configured model name.
	Model() string
}
