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

// PostgresTurnRepository implements the TurnRepository interface using
// PostgreSQL. The turns table is append-only: there is no update or delete
// path, which is what makes replay-based session resume trustworthy.
type PostgresTurnRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewTurnRepository creates a new PostgresTurnRepository
func NewTurnRepository(config *RepositoryConfig) repositories.TurnRepository {
	return &PostgresTurnRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Append inserts a new turn at the end of the session's conversation log
func (r *PostgresTurnRepository) Append(ctx context.Context, t *models.Turn) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, session_id, role, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, r.tables.Turns)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		t.ID,
		t.SessionID,
		t.Role,
		t.Content,
		t.CreatedAt,
	).Scan(&t.CreatedAt)

	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("session %s: %w", t.SessionID, domain.ErrNotFound)
		}
		return fmt.Errorf("append turn: %w", err)
	}

	return nil
}

// ListBySession retrieves all turns for a session in creation order
func (r *PostgresTurnRepository) ListBySession(ctx context.Context, sessionID string) ([]models.Turn, error) {
	query := fmt.Sprintf(`
		SELECT id, session_id, role, content, created_at
		FROM %s
		WHERE session_id = $1
		ORDER BY created_at ASC, id ASC
	`, r.tables.Turns)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var turns []models.Turn
	for rows.Next() {
		var t models.Turn
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Role, &t.Content, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}

	return turns, nil
}

// CountBySession returns the number of turns persisted for a session
func (r *PostgresTurnRepository) CountBySession(ctx context.Context, sessionID string) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE session_id = $1`, r.tables.Turns)

	var count int
	executor := GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, sessionID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count turns: %w", err)
	}

	return count, nil
}
