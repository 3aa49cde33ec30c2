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

// ContextRepository provides data access for customer integration contexts.
type ContextRepository interface {
	Create(ctx context.Context, c *models.Context) error
	Update(ctx context.Context, c *models.Context) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Context, error)
	List(ctx context.Context) ([]*models.Context, error)
}

type contextRepository struct {
	db *database.DB
}

// NewContextRepository creates a new ContextRepository.
func NewContextRepository(db *database.DB) ContextRepository {
	return &contextRepository{db: db}
}

var _ ContextRepository = (*contextRepository)(nil)

func (r *contextRepository) Create(ctx context.Context, c *models.Context) error {
	now := time.Now()

	query := `
		INSERT INTO engine_contexts (name, description, settings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		c.Name,
		nullString(c.Description),
		jsonbValue(c.Settings),
		now,
		now,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create context: %w", err)
	}

	return nil
}

func (r *contextRepository) Update(ctx context.Context, c *models.Context) error {
	query := `
		UPDATE engine_contexts
		SET name = $2, description = $3, settings = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		c.ID,
		c.Name,
		nullString(c.Description),
		jsonbValue(c.Settings),
	).Scan(&c.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to update context: %w", err)
	}

	return nil
}

func (r *contextRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM engine_contexts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete context: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *contextRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Context, error) {
	query := `
		SELECT id, name, description, settings, created_at, updated_at
		FROM engine_contexts
		WHERE id = $1`

	row := r.db.QueryRow(ctx, query, id)
	c, err := scanContext(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil // Context not found
		}
		return nil, err
	}

	return c, nil
}

func (r *contextRepository) List(ctx context.Context) ([]*models.Context, error) {
	query := `
		SELECT id, name, description, settings, created_at, updated_at
		FROM engine_contexts
		ORDER BY name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query contexts: %w", err)
	}
	defer rows.Close()

	var contexts []*models.Context
	for rows.Next() {
		c, err := scanContext(rows)
		if err != nil {
			return nil, err
		}
		contexts = append(contexts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contexts: %w", err)
	}

	return contexts, nil
}

func scanContext(row pgx.Row) (*models.Context, error) {
	var c models.Context
	var description *string
	var settings []byte

	err := row.Scan(&c.ID, &c.Name, &description, &settings, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan context: %w", err)
	}

	if description != nil {
		c.Description = *description
	}
	if len(settings) > 0 && string(settings) != "null" {
		if err := json.Unmarshal(settings, &c.Settings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
		}
	}

	return &c, nil
}
