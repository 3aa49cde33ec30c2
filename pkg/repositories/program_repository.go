package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/apimesh/apimesh-engine/pkg/apperrors"
	"github.com/apimesh/apimesh-engine/pkg/database"
	"github.com/apimesh/apimesh-engine/pkg/models"
)

// ProgramRepository provides data access for API program definitions.
type ProgramRepository interface {
	Create(ctx context.Context, p *models.Program) error
	Update(ctx context.Context, p *models.Program) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Program, error)
	GetByContext(ctx context.Context, contextID uuid.UUID) ([]*models.Program, error)
}

type programRepository struct {
	db *database.DB
}

// NewProgramRepository creates a new ProgramRepository.
func NewProgramRepository(db *database.DB) ProgramRepository {
	return &programRepository{db: db}
}

var _ ProgramRepository = (*programRepository)(nil)

func (r *programRepository) Create(ctx context.Context, p *models.Program) error {
	now := time.Now()
	if p.Status == "" {
		p.Status = models.ProgramStatusDraft
	}

	query := `
		INSERT INTO engine_programs (context_id, name, vendor, description, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		p.ContextID,
		p.Name,
		nullString(p.Vendor),
		nullString(p.Description),
		p.Status,
		now,
		now,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create program: %w", err)
	}

	return nil
}

func (r *programRepository) Update(ctx context.Context, p *models.Program) error {
	query := `
		UPDATE engine_programs
		SET name = $2, vendor = $3, description = $4, status = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		p.ID,
		p.Name,
		nullString(p.Vendor),
		nullString(p.Description),
		p.Status,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to update program: %w", err)
	}

	return nil
}

func (r *programRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM engine_programs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete program: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *programRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Program, error) {
	query := `
		SELECT id, context_id, name, vendor, description, status, created_at, updated_at
		FROM engine_programs
		WHERE id = $1`

	row := r.db.QueryRow(ctx, query, id)
	p, err := scanProgram(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil // Program not found
		}
		return nil, err
	}

	return p, nil
}

func (r *programRepository) GetByContext(ctx context.Context, contextID uuid.UUID) ([]*models.Program, error) {
	query := `
		SELECT id, context_id, name, vendor, description, status, created_at, updated_at
		FROM engine_programs
		WHERE context_id = $1
		ORDER BY name`

	rows, err := r.db.Query(ctx, query, contextID)
	if err != nil {
		return nil, fmt.Errorf("failed to query programs: %w", err)
	}
	defer rows.Close()

	var programs []*models.Program
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, err
		}
		programs = append(programs, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating programs: %w", err)
	}

	return programs, nil
}

func scanProgram(row pgx.Row) (*models.Program, error) {
	var p models.Program
	var vendor, description *string

	err := row.Scan(&p.ID, &p.ContextID, &p.Name, &vendor, &description, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan program: %w", err)
	}

	if vendor != nil {
		p.Vendor = *vendor
	}
	if description != nil {
		p.Description = *description
	}

	return &p, nil
}
