package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/apimesh/apimesh-engine/pkg/llm"
	"github.com/apimesh/apimesh-engine/pkg/models"
)

func TestEnrichmentService_EnrichOperation(t *testing.T) {
	repo := &mockOperationRepo{}
	op := &models.Operation{
		Name:  "GetCard",
		Type:  models.OperationTypeQuery,
		Query: "query GetCard { card { id } }",
	}
	require.NoError(t, repo.Create(context.Background(), op))

	mock := llm.NewMockLLMClient()
	mock.GenerateResponseFunc = func(_ context.Context, prompt, system string, temperature float64) (string, error) {
		assert.Contains(t, prompt, "GetCard")
		assert.Contains(t, prompt, op.Query)
		return "  Fetches a single card by id.  ", nil
	}

	svc := NewEnrichmentService(repo, mock, zap.NewNop())
	enriched, err := svc.EnrichOperation(context.Background(), op.ID)
	require.NoError(t, err)

	assert.Equal(t, "Fetches a single card by id.", enriched.Description)
	assert.NotNil(t, enriched.UpdatedAt)
	assert.Equal(t, 1, mock.GenerateResponseCalls)

	stored, err := repo.GetByID(context.Background(), op.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fetches a single card by id.", stored.Description)
}

func TestEnrichmentService_StoresEmbedding(t *testing.T) {
	repo := &mockOperationRepo{}
	op := &models.Operation{Name: "GetCard", Type: models.OperationTypeQuery}
	require.NoError(t, repo.Create(context.Background(), op))

	mock := llm.NewMockLLMClient()
	mock.GenerateResponseFunc = func(context.Context, string, string, float64) (string, error) {
		return "Fetches a single card by id.", nil
	}
	mock.CreateEmbeddingFunc = func(_ context.Context, input string) ([]float32, error) {
		assert.Contains(t, input, "GetCard")
		assert.Contains(t, input, "Fetches a single card by id.")
		return []float32{0.1, 0.2, 0.3}, nil
	}

	svc := NewEnrichmentService(repo, mock, zap.NewNop())
	enriched, err := svc.EnrichOperation(context.Background(), op.ID)
	require.NoError(t, err)

	assert.Equal(t, []float32{0.1, 0.2, 0.3}, enriched.Embedding)
	assert.Equal(t, 1, mock.CreateEmbeddingCalls)

	stored, err := repo.GetByID(context.Background(), op.ID)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, stored.Embedding)
}

func TestEnrichmentService_EmbeddingFailureKeepsDescription(t *testing.T) {
	repo := &mockOperationRepo{}
	op := &models.Operation{Name: "GetCard", Type: models.OperationTypeQuery}
	require.NoError(t, repo.Create(context.Background(), op))

	mock := llm.NewMockLLMClient()
	mock.GenerateResponseFunc = func(context.Context, string, string, float64) (string, error) {
		return "Fetches a single card by id.", nil
	}
	mock.CreateEmbeddingFunc = func(context.Context, string) ([]float32, error) {
		return nil, fmt.Errorf("embeddings are not supported by the anthropic provider")
	}

	svc := NewEnrichmentService(repo, mock, zap.NewNop())
	enriched, err := svc.EnrichOperation(context.Background(), op.ID)
	require.NoError(t, err)

	assert.Equal(t, "Fetches a single card by id.", enriched.Description)
	assert.Nil(t, enriched.Embedding)
}

func TestEnrichmentService_ExistingDescriptionUntouched(t *testing.T) {
	repo := &mockOperationRepo{}
	op := &models.Operation{
		Name:        "GetCard",
		Type:        models.OperationTypeQuery,
		Description: "already documented",
	}
	require.NoError(t, repo.Create(context.Background(), op))

	mock := llm.NewMockLLMClient()
	svc := NewEnrichmentService(repo, mock, zap.NewNop())

	enriched, err := svc.EnrichOperation(context.Background(), op.ID)
	require.NoError(t, err)
	assert.Equal(t, "already documented", enriched.Description)
	assert.Equal(t, 0, mock.GenerateResponseCalls)
}

func TestEnrichmentService_NotConfigured(t *testing.T) {
	repo := &mockOperationRepo{}
	op := &models.Operation{Name: "GetCard", Type: models.OperationTypeQuery}
	require.NoError(t, repo.Create(context.Background(), op))

	svc := NewEnrichmentService(repo, nil, zap.NewNop())
	_, err := svc.EnrichOperation(context.Background(), op.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAINotConfigured))
}

func TestEnrichmentService_OperationNotFound(t *testing.T) {
	svc := NewEnrichmentService(&mockOperationRepo{}, llm.NewMockLLMClient(), zap.NewNop())
	_, err := svc.EnrichOperation(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestEnrichmentService_LLMError(t *testing.T) {
	repo := &mockOperationRepo{}
	op := &models.Operation{Name: "GetCard", Type: models.OperationTypeQuery}
	require.NoError(t, repo.Create(context.Background(), op))

	mock := llm.NewMockLLMClient()
	mock.GenerateResponseFunc = func(context.Context, string, string, float64) (string, error) {
		return "", fmt.Errorf("rate limited")
	}
	svc := NewEnrichmentService(repo, mock, zap.NewNop())

	_, err := svc.EnrichOperation(context.Background(), op.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}
