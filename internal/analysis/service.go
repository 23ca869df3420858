package analysis

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"caseprep/internal/domain"
	"caseprep/internal/domain/models"
	"caseprep/internal/domain/repositories"
)

// Service registers session recordings and hands them to the transcriber.
type Service struct {
	sessions    repositories.SessionRepository
	recordings  repositories.RecordingRepository
	transcriber *Transcriber
	logger      *slog.Logger
}

func NewService(
	sessions repositories.SessionRepository,
	recordings repositories.RecordingRepository,
	transcriber *Transcriber,
	logger *slog.Logger,
) *Service {
	return &Service{
		sessions:    sessions,
		recordings:  recordings,
		transcriber: transcriber,
		logger:      logger,
	}
}

// CreateRecording stores recording metadata for a session the user owns and
// kicks off transcription in the background.
func (s *Service) CreateRecording(ctx context.Context, sessionID, userID, filePath string, kind models.RecordingKind) (*models.Recording, *TranscriptionTask, error) {
	if _, err := s.sessions.GetByID(ctx, sessionID, userID); err != nil {
		return nil, nil, err
	}

	if filePath == "" {
		return nil, nil, &domain.ValidationError{Message: "file_path is required"}
	}
	switch kind {
	case models.RecordingVideo, models.RecordingAudio:
	default:
		return nil, nil, &domain.ValidationError{Message: "kind must be video or audio"}
	}

	rec := &models.Recording{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		FilePath:  filePath,
		Kind:      kind,
	}
	if err := s.recordings.Create(ctx, rec); err != nil {
		return nil, nil, err
	}

	task, err := s.transcriber.Start(ctx, rec.ID)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("recording created", "recording_id", rec.ID, "session_id", sessionID, "kind", kind)

	return rec, task, nil
}

// GetRecording returns a recording the user owns, including any
// transcription completed so far.
func (s *Service) GetRecording(ctx context.Context, recordingID, userID string) (*models.Recording, error) {
	rec, err := s.recordings.GetByID(ctx, recordingID)
	if err != nil {
		return nil, err
	}
	if _, err := s.sessions.GetByID(ctx, rec.SessionID, userID); err != nil {
		return nil, err
	}
	return rec, nil
}
