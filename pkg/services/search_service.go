package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/apimesh/apimesh-engine/pkg/llm"
	"github.com/apimesh/apimesh-engine/pkg/models"
	"github.com/apimesh/apimesh-engine/pkg/repositories"
)

// defaultSearchLimit caps result sets when the caller does not ask for a size.
const defaultSearchLimit = 10

// SearchService answers semantic queries over enriched operations.
type SearchService interface {
	// SearchOperations embeds the query text and ranks operations that
	// carry an embedding by cosine similarity, best match first. limit <= 0
	// selects the default. Operations that were never enriched have no
	// embedding and are not considered.
	SearchOperations(ctx context.Context, query string, limit int) ([]*models.OperationMatch, error)
}

type searchService struct {
	operationRepo repositories.OperationRepository
	llmClient     llm.LLMClient // nil when AI is not configured
	logger        *zap.Logger
}

// NewSearchService creates a new SearchService.
// llmClient may be nil; searches then fail with ErrAINotConfigured.
func NewSearchService(operationRepo repositories.OperationRepository, llmClient llm.LLMClient, logger *zap.Logger) SearchService {
	return &searchService{
		operationRepo: operationRepo,
		llmClient:     llmClient,
		logger:        logger.Named("search-service"),
	}
}

var _ SearchService = (*searchService)(nil)

func (s *searchService) SearchOperations(ctx context.Context, query string, limit int) ([]*models.OperationMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query must not be empty", ErrInvalidOperation)
	}
	if s.llmClient == nil {
		return nil, ErrAINotConfigured
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	queryVec, err := s.llmClient.CreateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	ops, err := s.operationRepo.List(ctx, repositories.OperationFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load operations: %w", err)
	}

	var matches []*models.OperationMatch
	for _, op := range ops {
		score, ok := cosineSimilarity(queryVec, op.Embedding)
		if !ok {
			continue
		}
		matches = append(matches, &models.OperationMatch{Operation: op, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	s.logger.Debug("Semantic search completed",
		zap.String("query", query),
		zap.Int("candidates", len(ops)),
		zap.Int("matches", len(matches)))

	return matches, nil
}

// cosineSimilarity returns the cosine of the angle between a and b.
// Mismatched lengths and zero vectors are not comparable (ok = false).
func cosineSimilarity(a, b []float32) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), true
}
