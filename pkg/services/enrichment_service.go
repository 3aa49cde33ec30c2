package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/apimesh/apimesh-engine/pkg/llm"
	"github.com/apimesh/apimesh-engine/pkg/models"
	"github.com/apimesh/apimesh-engine/pkg/repositories"
)

// ErrAINotConfigured is returned when enrichment is requested but no LLM
// endpoint is configured.
var ErrAINotConfigured = errors.New("AI endpoint is not configured")

const enrichmentSystemPrompt = `You are an API documentation writer. Given a GraphQL operation,
write a concise one-paragraph description of what it does for an integration
engineer. Describe inputs and the returned data. Plain text only, no markdown.`

// EnrichmentService fills in missing operation documentation via the
// configured LLM endpoint.
type EnrichmentService interface {
	// EnrichOperation generates a description for the operation when it
	// has none, and stores the updated record. Operations that already
	// carry a description are returned unchanged.
	EnrichOperation(ctx context.Context, id uuid.UUID) (*models.Operation, error)
}

type enrichmentService struct {
	operationRepo repositories.OperationRepository
	llmClient     llm.LLMClient // nil when AI is not configured
	logger        *zap.Logger
}

// NewEnrichmentService creates a new EnrichmentService.
// llmClient may be nil; enrichment then fails with ErrAINotConfigured.
func NewEnrichmentService(operationRepo repositories.OperationRepository, llmClient llm.LLMClient, logger *zap.Logger) EnrichmentService {
	return &enrichmentService{
		operationRepo: operationRepo,
		llmClient:     llmClient,
		logger:        logger.Named("enrichment-service"),
	}
}

var _ EnrichmentService = (*enrichmentService)(nil)

func (s *enrichmentService) EnrichOperation(ctx context.Context, id uuid.UUID) (*models.Operation, error) {
	op, err := s.operationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load operation: %w", err)
	}
	if op == nil {
		return nil, fmt.Errorf("operation %s not found", id)
	}

	if op.Description != "" {
		return op, nil
	}
	if s.llmClient == nil {
		return nil, ErrAINotConfigured
	}

	description, err := s.llmClient.GenerateResponse(ctx, enrichmentPrompt(op), enrichmentSystemPrompt, 0.2)
	if err != nil {
		return nil, fmt.Errorf("failed to generate description: %w", err)
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("LLM returned an empty description")
	}

	op.Description = description

	// Embed the enriched record for semantic search. Providers without an
	// embeddings endpoint fail here; the description is still worth keeping.
	if embedding, err := s.llmClient.CreateEmbedding(ctx, op.Name+"\n"+description); err != nil {
		s.logger.Warn("Embedding generation failed, storing description only",
			zap.String("operation_id", op.ID.String()),
			zap.Error(err))
	} else {
		op.Embedding = embedding
	}

	now := time.Now()
	op.UpdatedAt = &now

	if err := s.operationRepo.Update(ctx, op); err != nil {
		return nil, fmt.Errorf("failed to store enriched operation: %w", err)
	}

	s.logger.Info("Enriched operation description",
		zap.String("operation_id", op.ID.String()),
		zap.String("name", op.Name),
		zap.String("model", s.llmClient.Model()))

	return op, nil
}

func enrichmentPrompt(op *models.Operation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Operation: %s (%s)\n", op.Name, op.Type)
	if op.Vendor != "" {
		fmt.Fprintf(&b, "Vendor: %s\n", op.Vendor)
	}
	if op.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", op.Category)
	}
	if len(op.Variables) > 0 {
		b.WriteString("Variables:\n")
		for name, v := range op.Variables {
			fmt.Fprintf(&b, "  %s: %s\n", name, v.Type)
		}
	}
	fmt.Fprintf(&b, "\n%s\n", op.Query)
	return b.String()
}
