package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/apimesh/apimesh-engine/pkg/models"
	"github.com/apimesh/apimesh-engine/pkg/postman"
	"github.com/apimesh/apimesh-engine/pkg/repositories"
)

// ErrInvalidOperation is returned when an operation fails validation.
var ErrInvalidOperation = errors.New("invalid operation")

// ImportResult summarizes one collection import.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Names    []string `json:"names,omitempty"`
}

// OperationService provides CRUD and import for API operation records.
type OperationService interface {
	CreateOperation(ctx context.Context, op *models.Operation) error
	UpdateOperation(ctx context.Context, op *models.Operation) error
	DeleteOperation(ctx context.Context, id uuid.UUID) error
	GetOperation(ctx context.Context, id uuid.UUID) (*models.Operation, error)
	ListOperations(ctx context.Context, filter repositories.OperationFilter) ([]*models.Operation, error)

	// ImportCollection parses a Postman collection and stores every GraphQL
	// operation it contains with source="import". Records are inserted
	// as-is even when an operation of the same name already exists; the
	// dedup engine collapses such groups later.
	ImportCollection(ctx context.Context, raw []byte, category, vendor string) (*ImportResult, error)
}

type operationService struct {
	operationRepo repositories.OperationRepository
	logger        *zap.Logger
}

// NewOperationService creates a new OperationService.
func NewOperationService(operationRepo repositories.OperationRepository, logger *zap.Logger) OperationService {
	return &operationService{
		operationRepo: operationRepo,
		logger:        logger.Named("operation-service"),
	}
}

var _ OperationService = (*operationService)(nil)

func (s *operationService) CreateOperation(ctx context.Context, op *models.Operation) error {
	if op.Type == "" {
		op.Type = models.OperationTypeQuery
	}
	if err := validateOperation(op); err != nil {
		return err
	}
	if op.Source == "" {
		op.Source = models.SourceManual
	}

	if err := s.operationRepo.Create(ctx, op); err != nil {
		return fmt.Errorf("failed to create operation: %w", err)
	}

	s.logger.Info("Created operation",
		zap.String("operation_id", op.ID.String()),
		zap.String("name", op.Name),
		zap.String("source", op.Source))

	return nil
}

func (s *operationService) UpdateOperation(ctx context.Context, op *models.Operation) error {
	if err := validateOperation(op); err != nil {
		return err
	}

	now := time.Now()
	op.UpdatedAt = &now

	if err := s.operationRepo.Update(ctx, op); err != nil {
		return err
	}

	return nil
}

func (s *operationService) DeleteOperation(ctx context.Context, id uuid.UUID) error {
	return s.operationRepo.Delete(ctx, id)
}

func (s *operationService) GetOperation(ctx context.Context, id uuid.UUID) (*models.Operation, error) {
	return s.operationRepo.GetByID(ctx, id)
}

func (s *operationService) ListOperations(ctx context.Context, filter repositories.OperationFilter) ([]*models.Operation, error) {
	return s.operationRepo.List(ctx, filter)
}

func (s *operationService) ImportCollection(ctx context.Context, raw []byte, category, vendor string) (*ImportResult, error) {
	parsed, err := postman.ParseCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse collection: %w", err)
	}

	result := &ImportResult{}
	for _, item := range parsed.Operations {
		op := &models.Operation{
			Name:        item.Name,
			Type:        item.Type,
			Category:    category,
			Vendor:      vendor,
			Description: item.Description,
			Query:       item.Query,
			Variables:   item.Variables,
			Source:      models.SourceImport,
		}
		if op.Category == "" {
			op.Category = item.Folder
		}

		if err := validateOperation(op); err != nil {
			result.Skipped++
			s.logger.Warn("Skipping invalid collection item",
				zap.String("name", item.Name),
				zap.Error(err))
			continue
		}

		if err := s.operationRepo.Create(ctx, op); err != nil {
			return nil, fmt.Errorf("failed to store imported operation %q: %w", op.Name, err)
		}
		result.Imported++
		result.Names = append(result.Names, op.Name)
	}

	s.logger.Info("Imported collection",
		zap.String("collection", parsed.Name),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped))

	return result, nil
}

func validateOperation(op *models.Operation) error {
	if op.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidOperation)
	}
	switch op.Type {
	case models.OperationTypeQuery, models.OperationTypeMutation, models.OperationTypeSubscription:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidOperation, op.Type)
	}
	return nil
}
