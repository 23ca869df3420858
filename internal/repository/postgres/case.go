package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"caseprep/internal/domain"
	"caseprep/internal/domain/models"
	"caseprep/internal/domain/repositories"
)

// PostgresCaseRepository implements the CaseRepository interface using PostgreSQL
type PostgresCaseRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewCaseRepository creates a new PostgresCaseRepository
func NewCaseRepository(config *RepositoryConfig) repositories.CaseRepository {
	return &PostgresCaseRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a new case
func (r *PostgresCaseRepository) Create(ctx context.Context, c *models.Case) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, title, case_type, prompt, context, exhibits, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`, r.tables.Cases)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		c.ID,
		c.Title,
		c.CaseType,
		c.Prompt,
		c.Context,  // pgx handles map -> JSONB
		c.Exhibits, // pgx handles slice -> JSONB
		c.CreatedBy,
		c.CreatedAt,
		c.UpdatedAt,
	).Scan(&c.CreatedAt, &c.UpdatedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			return fmt.Errorf("case %s: %w", c.ID, domain.ErrConflict)
		}
		return fmt.Errorf("create case: %w", err)
	}

	return nil
}

// GetByID retrieves a case by ID
func (r *PostgresCaseRepository) GetByID(ctx context.Context, id string) (*models.Case, error) {
	query := fmt.Sprintf(`
		SELECT id, title, case_type, prompt, context, exhibits, created_by, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, r.tables.Cases)

	var c models.Case
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.Title,
		&c.CaseType,
		&c.Prompt,
		&c.Context,
		&c.Exhibits,
		&c.CreatedBy,
		&c.CreatedAt,
		&c.UpdatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("case %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get case: %w", err)
	}

	return &c, nil
}

// List retrieves all cases, newest first
func (r *PostgresCaseRepository) List(ctx context.Context) ([]models.Case, error) {
	query := fmt.Sprintf(`
		SELECT id, title, case_type, prompt, context, exhibits, created_by, created_at, updated_at
		FROM %s
		ORDER BY created_at DESC
	`, r.tables.Cases)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	var cases []models.Case
	for rows.Next() {
		var c models.Case
		err := rows.Scan(
			&c.ID,
			&c.Title,
			&c.CaseType,
			&c.Prompt,
			&c.Context,
			&c.Exhibits,
			&c.CreatedBy,
			&c.CreatedAt,
			&c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		cases = append(cases, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cases: %w", err)
	}

	return cases, nil
}

// Delete removes a case
func (r *PostgresCaseRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Cases)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, id)
	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("case %s has sessions: %w", id, domain.ErrConflict)
		}
		return fmt.Errorf("delete case: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("case %s: %w", id, domain.ErrNotFound)
	}

	return nil
}
