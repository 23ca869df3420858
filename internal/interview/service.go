package interview

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"caseprep/internal/config"
	"caseprep/internal/domain"
	"caseprep/internal/domain/models"
	"caseprep/internal/domain/repositories"
	"caseprep/internal/generation"
	"caseprep/internal/security"
)

// CreateSessionRequest starts a new attempt at a case.
type CreateSessionRequest struct {
	UserID string      `json:"-"`
	CaseID string      `json:"case_id"`
	Mode   models.Mode `json:"mode"`
}

// Reply is the outcome of one processed candidate message.
type Reply struct {
	Text      string       `json:"text"`
	Phase     models.Phase `json:"phase"`
	Completed bool         `json:"completed"`

	// Submitted is the sanitized form of the candidate message, exactly
	// as it entered the turn log. Broadcasts use it so live subscribers
	// and reconnect replay see the same content for the same turn.
	Submitted string `json:"-"`
}

// Service orchestrates the engine against durable storage. All session
// mutation flows through ProcessMessage; the gateway serializes calls
// per session.
type Service struct {
	sessions  repositories.SessionRepository
	turns     repositories.TurnRepository
	cases     repositories.CaseRepository
	txManager repositories.TransactionManager
	engine    *Engine
	validator *security.Validator
	logger    *slog.Logger
}

// NewService creates the interview service.
func NewService(
	sessions repositories.SessionRepository,
	turns repositories.TurnRepository,
	cases repositories.CaseRepository,
	txManager repositories.TransactionManager,
	engine *Engine,
	validator *security.Validator,
	logger *slog.Logger,
) *Service {
	return &Service{
		sessions:  sessions,
		turns:     turns,
		cases:     cases,
		txManager: txManager,
		engine:    engine,
		validator: validator,
		logger:    logger,
	}
}

// CreateSession creates a session in not_started/framework for a case and
// mode. Completion is only ever reached through the engine's terminal
// transition, never by external request.
func (s *Service) CreateSession(ctx context.Context, req *CreateSessionRequest) (*models.InterviewSession, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.CaseID, validation.Required),
		validation.Field(&req.Mode, validation.Required, validation.In(models.ModeInterviewerLed, models.ModeCandidateLed)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	// The case must exist before a session can reference it.
	if _, err := s.cases.GetByID(ctx, req.CaseID); err != nil {
		return nil, err
	}

	now := time.Now()
	session := &models.InterviewSession{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		CaseID:    req.CaseID,
		Mode:      req.Mode,
		Status:    models.StatusNotStarted,
		Phase:     models.PhaseFramework,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("session created",
		"session_id", session.ID,
		"case_id", session.CaseID,
		"mode", session.Mode,
	)

	return session, nil
}

// GetSession retrieves one session.
func (s *Service) GetSession(ctx context.Context, id, userID string) (*models.InterviewSession, error) {
	return s.sessions.GetByID(ctx, id, userID)
}

// ListSessions retrieves all sessions for a user.
func (s *Service) ListSessions(ctx context.Context, userID string) ([]models.InterviewSession, error) {
	return s.sessions.ListByUser(ctx, userID)
}

// ListTurns replays a session's conversation log in creation order.
func (s *Service) ListTurns(ctx context.Context, sessionID, userID string) ([]models.Turn, error) {
	if _, err := s.sessions.GetByID(ctx, sessionID, userID); err != nil {
		return nil, err
	}
	return s.turns.ListBySession(ctx, sessionID)
}

// Resume prepares a session for a (re)connect: it loads the session and
// replays the persisted turn log. A session with zero turns gets its
// deterministic opening computed and persisted as Turn #1, so every later
// reconnect replays the identical opening instead of recomputing it.
func (s *Service) Resume(ctx context.Context, sessionID, userID string) (*models.InterviewSession, []models.Turn, error) {
	session, err := s.sessions.GetByID(ctx, sessionID, userID)
	if err != nil {
		return nil, nil, err
	}

	turns, err := s.turns.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	if len(turns) > 0 || session.Completed() {
		return session, turns, nil
	}

	c, err := s.cases.GetByID(ctx, session.CaseID)
	if err != nil {
		return nil, nil, err
	}

	opening := &models.Turn{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      models.RoleInterviewer,
		Content:   OpeningUtterance(c, session.Mode),
		CreatedAt: time.Now(),
	}
	if err := s.turns.Append(ctx, opening); err != nil {
		return nil, nil, err
	}

	s.logger.Info("opening turn persisted", "session_id", sessionID)

	return session, []models.Turn{*opening}, nil
}

// ProcessMessage runs one candidate message through the engine.
//
// Write discipline, in order:
//  1. the candidate turn is persisted before the engine runs, so a crash
//     mid-processing still leaves a durable record of what was sent
//  2. the engine produces the reply and the post-step session fields
//  3. the assistant turn and the session fields commit in one transaction
//
// A generation failure aborts between 2 and 3: the candidate turn remains,
// nothing else changes, and the error is retryable.
func (s *Service) ProcessMessage(ctx context.Context, sessionID, userID, text string) (*Reply, error) {
	session, err := s.sessions.GetByID(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.Completed() {
		return nil, &domain.ValidationError{Message: ConcludedNotice}
	}

	sanitized, err := s.validator.ValidateMessage(text)
	if err != nil {
		return nil, err
	}

	c, err := s.cases.GetByID(ctx, session.CaseID)
	if err != nil {
		return nil, err
	}

	candidateTurn := &models.Turn{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      models.RoleCandidate,
		Content:   sanitized,
		CreatedAt: time.Now(),
	}
	if err := s.turns.Append(ctx, candidateTurn); err != nil {
		return nil, err
	}

	history, err := s.recentHistory(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.Step(ctx, session, c, sanitized, history)
	if err != nil {
		return nil, err
	}

	assistantTurn := &models.Turn{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      models.RoleInterviewer,
		Content:   result.Reply,
		CreatedAt: time.Now(),
	}

	// The session fields and the assistant turn must land together; a
	// session whose counters advanced without its turn (or vice versa)
	// could never be resumed consistently.
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.turns.Append(txCtx, assistantTurn); err != nil {
			return err
		}
		return s.sessions.Save(txCtx, &result.Session)
	})
	if err != nil {
		return nil, fmt.Errorf("commit turn: %w", err)
	}

	*session = result.Session

	return &Reply{
		Text:      result.Reply,
		Phase:     result.Session.Phase,
		Completed: result.Session.Completed(),
		Submitted: sanitized,
	}, nil
}

// recentHistory maps the tail of the persisted turn log to generation
// messages. The just-persisted candidate turn is the last entry. System
// turns never reach the generation service.
func (s *Service) recentHistory(ctx context.Context, sessionID string) ([]generation.Message, error) {
	turns, err := s.turns.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if len(turns) > config.HistoryWindow {
		turns = turns[len(turns)-config.HistoryWindow:]
	}

	history := make([]generation.Message, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case models.RoleCandidate:
			history = append(history, generation.Message{Role: generation.RoleUser, Content: t.Content})
		case models.RoleInterviewer:
			history = append(history, generation.Message{Role: generation.RoleAssistant, Content: t.Content})
		}
	}

	return history, nil
}
