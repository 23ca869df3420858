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

// PostgresRecordingRepository implements the RecordingRepository interface
type PostgresRecordingRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewRecordingRepository creates a new PostgresRecordingRepository
func NewRecordingRepository(config *RepositoryConfig) repositories.RecordingRepository {
	return &PostgresRecordingRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a new recording row
func (r *PostgresRecordingRepository) Create(ctx context.Context, rec *models.Recording) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, session_id, file_path, kind, transcription, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, r.tables.Recordings)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		rec.ID,
		rec.SessionID,
		rec.FilePath,
		rec.Kind,
		rec.Transcription,
		rec.CreatedAt,
	).Scan(&rec.CreatedAt)

	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("session %s: %w", rec.SessionID, domain.ErrNotFound)
		}
		return fmt.Errorf("create recording: %w", err)
	}

	return nil
}

// GetByID retrieves a recording by ID
func (r *PostgresRecordingRepository) GetByID(ctx context.Context, id string) (*models.Recording, error) {
	query := fmt.Sprintf(`
		SELECT id, session_id, file_path, kind, transcription, created_at
		FROM %s
		WHERE id = $1
	`, r.tables.Recordings)

	var rec models.Recording
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&rec.ID,
		&rec.SessionID,
		&rec.FilePath,
		&rec.Kind,
		&rec.Transcription,
		&rec.CreatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("recording %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get recording: %w", err)
	}

	return &rec, nil
}

// SetTranscription stores the transcription produced by the async task
func (r *PostgresRecordingRepository) SetTranscription(ctx context.Context, id, transcription string) error {
	query := fmt.Sprintf(`UPDATE %s SET transcription = $2 WHERE id = $1`, r.tables.Recordings)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, id, transcription)
	if err != nil {
		return fmt.Errorf("set transcription: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("recording %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// PostgresEvaluationRepository implements the EvaluationRepository interface
type PostgresEvaluationRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewEvaluationRepository creates a new PostgresEvaluationRepository
func NewEvaluationRepository(config *RepositoryConfig) repositories.EvaluationRepository {
	return &PostgresEvaluationRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Upsert inserts or replaces the evaluation for a session
func (r *PostgresEvaluationRepository) Upsert(ctx context.Context, e *models.Evaluation) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (
			id, session_id, structure_score, hypothesis_score, math_score,
			insight_score, overall_score, strengths, improvements, analysis,
			coaching, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (session_id) DO UPDATE SET
			structure_score = EXCLUDED.structure_score,
			hypothesis_score = EXCLUDED.hypothesis_score,
			math_score = EXCLUDED.math_score,
			insight_score = EXCLUDED.insight_score,
			overall_score = EXCLUDED.overall_score,
			strengths = EXCLUDED.strengths,
			improvements = EXCLUDED.improvements,
			analysis = EXCLUDED.analysis,
			coaching = EXCLUDED.coaching,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at
	`, r.tables.Evaluations)

	e.UpdatedAt = time.Now()

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		e.ID,
		e.SessionID,
		e.StructureScore,
		e.HypothesisScore,
		e.MathScore,
		e.InsightScore,
		e.OverallScore,
		e.Strengths,    // pgx handles slice -> JSONB
		e.Improvements, // pgx handles slice -> JSONB
		e.Analysis,
		e.Coaching,
		e.CreatedAt,
		e.UpdatedAt,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)

	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("session %s: %w", e.SessionID, domain.ErrNotFound)
		}
		return fmt.Errorf("upsert evaluation: %w", err)
	}

	return nil
}

// GetBySession retrieves the evaluation for a session
func (r *PostgresEvaluationRepository) GetBySession(ctx context.Context, sessionID string) (*models.Evaluation, error) {
	query := fmt.Sprintf(`
		SELECT id, session_id, structure_score, hypothesis_score, math_score,
		       insight_score, overall_score, strengths, improvements, analysis,
		       coaching, created_at, updated_at
		FROM %s
		WHERE session_id = $1
	`, r.tables.Evaluations)

	var e models.Evaluation
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, sessionID).Scan(
		&e.ID,
		&e.SessionID,
		&e.StructureScore,
		&e.HypothesisScore,
		&e.MathScore,
		&e.InsightScore,
		&e.OverallScore,
		&e.Strengths,
		&e.Improvements,
		&e.Analysis,
		&e.Coaching,
		&e.CreatedAt,
		&e.UpdatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("evaluation for session %s: %w", sessionID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get evaluation: %w", err)
	}

	return &e, nil
}
