package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"caseprep/internal/domain"
	"caseprep/internal/domain/models"
	"caseprep/internal/domain/repositories"
)

// PostgresSessionRepository implements the SessionRepository interface using PostgreSQL
type PostgresSessionRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewSessionRepository creates a new PostgresSessionRepository
func NewSessionRepository(config *RepositoryConfig) repositories.SessionRepository {
	return &PostgresSessionRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a new interview session
func (r *PostgresSessionRepository) Create(ctx context.Context, s *models.InterviewSession) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (
			id, user_id, case_id, mode, status, phase,
			exhibits_released, turn_count, phase_turn_count,
			started_at, completed_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`, r.tables.Sessions)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		s.ID,
		s.UserID,
		s.CaseID,
		s.Mode,
		s.Status,
		s.Phase,
		s.ExhibitsReleased,
		s.TurnCount,
		s.PhaseTurnCount,
		s.StartedAt,
		s.CompletedAt,
		s.CreatedAt,
		s.UpdatedAt,
	).Scan(&s.CreatedAt, &s.UpdatedAt)

	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("case %s: %w", s.CaseID, domain.ErrNotFound)
		}
		return fmt.Errorf("create session: %w", err)
	}

	return nil
}

// GetByID retrieves a session by ID, scoped to its owner
func (r *PostgresSessionRepository) GetByID(ctx context.Context, id, userID string) (*models.InterviewSession, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, case_id, mode, status, phase,
		       exhibits_released, turn_count, phase_turn_count,
		       started_at, completed_at, created_at, updated_at
		FROM %s
		WHERE id = $1 AND user_id = $2
	`, r.tables.Sessions)

	var s models.InterviewSession
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id, userID).Scan(
		&s.ID,
		&s.UserID,
		&s.CaseID,
		&s.Mode,
		&s.Status,
		&s.Phase,
		&s.ExhibitsReleased,
		&s.TurnCount,
		&s.PhaseTurnCount,
		&s.StartedAt,
		&s.CompletedAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	return &s, nil
}

// ListByUser retrieves all sessions for a user, newest first
func (r *PostgresSessionRepository) ListByUser(ctx context.Context, userID string) ([]models.InterviewSession, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, case_id, mode, status, phase,
		       exhibits_released, turn_count, phase_turn_count,
		       started_at, completed_at, created_at, updated_at
		FROM %s
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, r.tables.Sessions)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.InterviewSession
	for rows.Next() {
		var s models.InterviewSession
		err := rows.Scan(
			&s.ID,
			&s.UserID,
			&s.CaseID,
			&s.Mode,
			&s.Status,
			&s.Phase,
			&s.ExhibitsReleased,
			&s.TurnCount,
			&s.PhaseTurnCount,
			&s.StartedAt,
			&s.CompletedAt,
			&s.CreatedAt,
			&s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

// Save writes all mutable session fields. Called from within the per-turn
// transaction so the session row and its new turn commit together.
func (r *PostgresSessionRepository) Save(ctx context.Context, s *models.InterviewSession) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $2, phase = $3, exhibits_released = $4,
		    turn_count = $5, phase_turn_count = $6,
		    started_at = $7, completed_at = $8, updated_at = $9
		WHERE id = $1
	`, r.tables.Sessions)

	s.UpdatedAt = time.Now()

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query,
		s.ID,
		s.Status,
		s.Phase,
		s.ExhibitsReleased,
		s.TurnCount,
		s.PhaseTurnCount,
		s.StartedAt,
		s.CompletedAt,
		s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", s.ID, domain.ErrNotFound)
	}

	return nil
}
