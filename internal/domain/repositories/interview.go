package repositories

import (
	"context"

	"caseprep/internal/domain/models"
)

// CaseRepository provides read/write access to the case library. Cases are
// immutable once an interview references them; updates only happen through
// the authoring surface.
type CaseRepository interface {
	Create(ctx context.Context, c *models.Case) error
	GetByID(ctx context.Context, id string) (*models.Case, error)
	List(ctx context.Context) ([]models.Case, error)
	Delete(ctx context.Context, id string) error
}

// SessionRepository persists interview sessions. Save writes every mutable
// field; phase, counters and status must only ever change through the
// interview engine's commit path.
type SessionRepository interface {
	Create(ctx context.Context, s *models.InterviewSession) error
	GetByID(ctx context.Context, id, userID string) (*models.InterviewSession, error)
	ListByUser(ctx context.Context, userID string) ([]models.InterviewSession, error)
	Save(ctx context.Context, s *models.InterviewSession) error
}

// TurnRepository is the append-only conversation store. Turns are never
// updated or deleted; ListBySession returns creation order, which is
// conversation order.
type TurnRepository interface {
	Append(ctx context.Context, t *models.Turn) error
	ListBySession(ctx context.Context, sessionID string) ([]models.Turn, error)
	CountBySession(ctx context.Context, sessionID string) (int, error)
}

// RecordingRepository persists uploaded media and their transcriptions.
type RecordingRepository interface {
	Create(ctx context.Context, r *models.Recording) error
	GetByID(ctx context.Context, id string) (*models.Recording, error)
	SetTranscription(ctx context.Context, id, transcription string) error
}

// EvaluationRepository persists one evaluation per session.
type EvaluationRepository interface {
	Upsert(ctx context.Context, e *models.Evaluation) error
	GetBySession(ctx context.Context, sessionID string) (*models.Evaluation, error)
}
