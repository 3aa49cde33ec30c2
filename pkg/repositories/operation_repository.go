package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/apimesh/apimesh-engine/pkg/apperrors"
	"github.com/apimesh/apimesh-engine/pkg/database"
	"github.com/apimesh/apimesh-engine/pkg/models"
)

// OperationGroup is a set of operations sharing the same name, members in
// stable read order (name, created_at, id) with Seq assigned.
type OperationGroup struct {
	Name    string
	Members []*models.Operation
}

// OperationFilter narrows List results. Zero values mean no filtering.
type OperationFilter struct {
	Category string
	Vendor   string
	Type     string
	Source   string
}

// OperationRepository provides data access for API operation records.
type OperationRepository interface {
	Create(ctx context.Context, op *models.Operation) error
	Update(ctx context.Context, op *models.Operation) error
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteMany removes all records in ids with a single statement and
	// returns the number actually deleted. Missing ids are tolerated
	// (no-op delete), so re-running a dedup plan is safe.
	DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Operation, error)
	List(ctx context.Context, filter OperationFilter) ([]*models.Operation, error)
	Count(ctx context.Context) (int, error)
	// GroupsByName returns every set of operations whose name occurs more
	// than once. Members carry a read-time sequence number so survivor
	// selection has an explicit stable tie-break.
	GroupsByName(ctx context.Context) ([]*OperationGroup, error)
}

type operationRepository struct {
	db *database.DB
}

// NewOperationRepository creates a new OperationRepository.
func NewOperationRepository(db *database.DB) OperationRepository {
	return &operationRepository{db: db}
}

var _ OperationRepository = (*operationRepository)(nil)

const operationColumns = `id, name, op_type, category, vendor, description, query_text,
	       variables, tags, required, source, metadata, embedding, created_at, updated_at`

// ============================================================================
// CRUD Operations
// ============================================================================

func (r *operationRepository) Create(ctx context.Context, op *models.Operation) error {
	if op.ID == uuid.Nil {
		op.ID = uuid.New()
	}
	if op.CreatedAt.IsZero() {
		op.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO engine_operations (
			id, name, op_type, category, vendor, description, query_text,
			variables, tags, required, source, metadata, embedding, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.db.Exec(ctx, query,
		op.ID,
		op.Name,
		op.Type,
		nullString(op.Category),
		nullString(op.Vendor),
		nullString(op.Description),
		nullString(op.Query),
		jsonbValue(op.Variables),
		jsonbValue(op.Tags),
		op.Required,
		op.Source,
		jsonbValue(op.Metadata),
		op.Embedding,
		op.CreatedAt,
		op.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create operation: %w", err)
	}

	return nil
}

func (r *operationRepository) Update(ctx context.Context, op *models.Operation) error {
	query := `
		UPDATE engine_operations
		SET name = $2, op_type = $3, category = $4, vendor = $5, description = $6,
		    query_text = $7, variables = $8, tags = $9, required = $10,
		    source = $11, metadata = $12, embedding = $13, updated_at = $14
		WHERE id = $1`

	result, err := r.db.Exec(ctx, query,
		op.ID,
		op.Name,
		op.Type,
		nullString(op.Category),
		nullString(op.Vendor),
		nullString(op.Description),
		nullString(op.Query),
		jsonbValue(op.Variables),
		jsonbValue(op.Tags),
		op.Required,
		op.Source,
		jsonbValue(op.Metadata),
		op.Embedding,
		op.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update operation: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *operationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM engine_operations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete operation: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *operationRepository) DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	result, err := r.db.Exec(ctx, `DELETE FROM engine_operations WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to bulk delete operations: %w", err)
	}

	return result.RowsAffected(), nil
}

func (r *operationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Operation, error) {
	query := `
		SELECT ` + operationColumns + `
		FROM engine_operations
		WHERE id = $1`

	row := r.db.QueryRow(ctx, query, id)
	op, err := scanOperation(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil // Operation not found
		}
		return nil, err
	}

	return op, nil
}

func (r *operationRepository) List(ctx context.Context, filter OperationFilter) ([]*models.Operation, error) {
	query := `
		SELECT ` + operationColumns + `
		FROM engine_operations
		WHERE ($1 = '' OR category = $1)
		  AND ($2 = '' OR vendor = $2)
		  AND ($3 = '' OR op_type = $3)
		  AND ($4 = '' OR source = $4)
		ORDER BY name, created_at, id`

	rows, err := r.db.Query(ctx, query, filter.Category, filter.Vendor, filter.Type, filter.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to query operations: %w", err)
	}
	defer rows.Close()

	return collectOperations(rows)
}

func (r *operationRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM engine_operations`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count operations: %w", err)
	}
	return count, nil
}

// ============================================================================
// Duplicate Grouping
// ============================================================================

func (r *operationRepository) GroupsByName(ctx context.Context) ([]*OperationGroup, error) {
	query := `
		SELECT ` + operationColumns + `
		FROM engine_operations
		WHERE name IN (
			SELECT name FROM engine_operations GROUP BY name HAVING COUNT(*) > 1
		)
		ORDER BY name, created_at, id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query duplicate groups: %w", err)
	}
	defer rows.Close()

	ops, err := collectOperations(rows)
	if err != nil {
		return nil, err
	}

	var groups []*OperationGroup
	var current *OperationGroup
	for _, op := range ops {
		if current == nil || current.Name != op.Name {
			current = &OperationGroup{Name: op.Name}
			groups = append(groups, current)
		}
		current.Members = append(current.Members, op)
	}

	return groups, nil
}

// ============================================================================
// Helper Functions
// ============================================================================

// collectOperations drains rows into operations, assigning read-order
// sequence numbers.
func collectOperations(rows pgx.Rows) ([]*models.Operation, error) {
	var ops []*models.Operation
	seq := 0
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		op.Seq = seq
		seq++
		ops = append(ops, op)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating operations: %w", err)
	}

	return ops, nil
}

func scanOperation(row pgx.Row) (*models.Operation, error) {
	var o models.Operation
	var category, vendor, description, queryText *string
	var variables, tags, metadata []byte

	err := row.Scan(
		&o.ID,
		&o.Name,
		&o.Type,
		&category,
		&vendor,
		&description,
		&queryText,
		&variables,
		&tags,
		&o.Required,
		&o.Source,
		&metadata,
		&o.Embedding,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan operation: %w", err)
	}

	// Handle nullable string fields
	if category != nil {
		o.Category = *category
	}
	if vendor != nil {
		o.Vendor = *vendor
	}
	if description != nil {
		o.Description = *description
	}
	if queryText != nil {
		o.Query = *queryText
	}

	// Unmarshal JSONB fields
	if len(variables) > 0 && string(variables) != "null" {
		if err := json.Unmarshal(variables, &o.Variables); err != nil {
			return nil, fmt.Errorf("failed to unmarshal variables: %w", err)
		}
	}
	if len(tags) > 0 && string(tags) != "null" {
		if err := json.Unmarshal(tags, &o.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
		}
	}
	if len(metadata) > 0 && string(metadata) != "null" {
		if err := json.Unmarshal(metadata, &o.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return &o, nil
}

// nullString returns nil if the string is empty, otherwise returns the string pointer.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// jsonbValue converts a value to JSONB format for database insertion.
// Returns nil for nil/empty values to store NULL in the database.
func jsonbValue(v any) any {
	switch val := v.(type) {
	case []string:
		if len(val) == 0 {
			return nil
		}
		return val
	case map[string]models.VariableDescriptor:
		if len(val) == 0 {
			return nil
		}
		return val
	case *models.OperationMetadata:
		if val == nil {
			return nil
		}
		return val
	case map[string]any:
		if len(val) == 0 {
			return nil
		}
		return val
	default:
		return v
	}
}
