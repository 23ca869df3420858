package interview

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"caseprep/internal/domain"
	"caseprep/internal/domain/models"
	"caseprep/internal/domain/repositories"
	"caseprep/internal/security"
)

// In-memory fakes covering exactly the repository surface the service uses.

type fakeSessionRepo struct {
	sessions map[string]*models.InterviewSession
	saves    int
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]*models.InterviewSession{}}
}

func (r *fakeSessionRepo) Create(ctx context.Context, s *models.InterviewSession) error {
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *fakeSessionRepo) GetByID(ctx context.Context, id, userID string) (*models.InterviewSession, error) {
	s, ok := r.sessions[id]
	if !ok || s.UserID != userID {
		return nil, &domain.NotFoundError{Message: "session not found"}
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSessionRepo) ListByUser(ctx context.Context, userID string) ([]models.InterviewSession, error) {
	var out []models.InterviewSession
	for _, s := range r.sessions {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) Save(ctx context.Context, s *models.InterviewSession) error {
	if _, ok := r.sessions[s.ID]; !ok {
		return &domain.NotFoundError{Message: "session not found"}
	}
	cp := *s
	r.sessions[s.ID] = &cp
	r.saves++
	return nil
}

type fakeTurnRepo struct {
	turns []models.Turn
}

func (r *fakeTurnRepo) Append(ctx context.Context, t *models.Turn) error {
	r.turns = append(r.turns, *t)
	return nil
}

func (r *fakeTurnRepo) ListBySession(ctx context.Context, sessionID string) ([]models.Turn, error) {
	var out []models.Turn
	for _, t := range r.turns {
		if t.SessionID == sessionID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTurnRepo) CountBySession(ctx context.Context, sessionID string) (int, error) {
	list, _ := r.ListBySession(ctx, sessionID)
	return len(list), nil
}

type fakeCaseRepo struct {
	cases map[string]*models.Case
}

func newFakeCaseRepo(cs ...*models.Case) *fakeCaseRepo {
	r := &fakeCaseRepo{cases: map[string]*models.Case{}}
	for _, c := range cs {
		r.cases[c.ID] = c
	}
	return r
}

func (r *fakeCaseRepo) Create(ctx context.Context, c *models.Case) error {
	r.cases[c.ID] = c
	return nil
}

func (r *fakeCaseRepo) GetByID(ctx context.Context, id string) (*models.Case, error) {
	c, ok := r.cases[id]
	if !ok {
		return nil, &domain.NotFoundError{Message: "case not found"}
	}
	return c, nil
}

func (r *fakeCaseRepo) List(ctx context.Context) ([]models.Case, error) {
	var out []models.Case
	for _, c := range r.cases {
		out = append(out, *c)
	}
	return out, nil
}

func (r *fakeCaseRepo) Delete(ctx context.Context, id string) error {
	delete(r.cases, id)
	return nil
}

// fakeTxManager runs the function directly; commits counts successful runs.
type fakeTxManager struct {
	commits int
	fail    error
}

func (m *fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	if m.fail != nil {
		return m.fail
	}
	if err := fn(ctx); err != nil {
		return err
	}
	m.commits++
	return nil
}

func newTestService(provider *fakeProvider, c *models.Case) (*Service, *fakeSessionRepo, *fakeTurnRepo, *fakeTxManager) {
	sessions := newFakeSessionRepo()
	turns := &fakeTurnRepo{}
	txm := &fakeTxManager{}
	engine := newTestEngine(provider)
	svc := NewService(sessions, turns, newFakeCaseRepo(c), txm, engine, security.NewValidator(), testLogger())
	return svc, sessions, turns, txm
}

func seedSession(repo *fakeSessionRepo, phase models.Phase) *models.InterviewSession {
	s := testSession(phase)
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	repo.sessions[s.ID] = s
	return s
}

func TestCreateSession_Defaults(t *testing.T) {
	c := testCase(1)
	svc, _, _, _ := newTestService(&fakeProvider{text: "ok"}, c)

	session, err := svc.CreateSession(context.Background(), &CreateSessionRequest{
		UserID: "user-1",
		CaseID: c.ID,
		Mode:   models.ModeInterviewerLed,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if session.Status != models.StatusNotStarted {
		t.Errorf("expected not_started, got %s", session.Status)
	}
	if session.Phase != models.PhaseFramework {
		t.Errorf("expected framework, got %s", session.Phase)
	}
	if session.ExhibitsReleased != 0 || session.TurnCount != 0 {
		t.Error("expected zeroed counters")
	}
}

func TestCreateSession_Validation(t *testing.T) {
	c := testCase(1)
	svc, _, _, _ := newTestService(&fakeProvider{text: "ok"}, c)

	tests := []struct {
		name string
		req  CreateSessionRequest
	}{
		{"missing case", CreateSessionRequest{UserID: "u", Mode: models.ModeInterviewerLed}},
		{"bad mode", CreateSessionRequest{UserID: "u", CaseID: c.ID, Mode: "panel"}},
		{"unknown case", CreateSessionRequest{UserID: "u", CaseID: "nope", Mode: models.ModeCandidateLed}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateSession(context.Background(), &tt.req); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestResume_PersistsOpeningOnce(t *testing.T) {
	c := testCase(1)
	svc, sessions, turns, _ := newTestService(&fakeProvider{text: "ok"}, c)
	s := seedSession(sessions, models.PhaseFramework)

	_, replayed, err := svc.Resume(context.Background(), s.ID, s.UserID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(replayed) != 1 {
		t.Fatalf("expected opening turn, got %d turns", len(replayed))
	}
	if replayed[0].Role != models.RoleInterviewer {
		t.Errorf("opening must be an interviewer turn, got %s", replayed[0].Role)
	}
	if replayed[0].Content != OpeningUtterance(c, s.Mode) {
		t.Error("opening content mismatch")
	}

	// A reconnect replays the stored opening instead of appending another.
	_, replayed, err = svc.Resume(context.Background(), s.ID, s.UserID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(replayed) != 1 || len(turns.turns) != 1 {
		t.Errorf("expected exactly one persisted opening, got %d", len(turns.turns))
	}
}

func TestResume_CompletedSessionGetsNoOpening(t *testing.T) {
	c := testCase(1)
	svc, sessions, turns, _ := newTestService(&fakeProvider{text: "ok"}, c)
	s := seedSession(sessions, models.PhaseCompleted)

	_, replayed, err := svc.Resume(context.Background(), s.ID, s.UserID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(replayed) != 0 || len(turns.turns) != 0 {
		t.Error("completed session with no turns must not gain an opening")
	}
}

func TestProcessMessage_CommitsTurnAndSessionTogether(t *testing.T) {
	c := testCase(1)
	provider := &fakeProvider{text: "tell me more about your structure"}
	svc, sessions, turns, txm := newTestService(provider, c)
	s := seedSession(sessions, models.PhaseFramework)

	reply, err := svc.ProcessMessage(context.Background(), s.ID, s.UserID, "I'd split profit into revenue and cost")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reply.Text != provider.text {
		t.Errorf("expected provider reply, got %q", reply.Text)
	}
	if txm.commits != 1 {
		t.Errorf("expected one transaction commit, got %d", txm.commits)
	}
	if len(turns.turns) != 2 {
		t.Fatalf("expected candidate + interviewer turns, got %d", len(turns.turns))
	}
	if turns.turns[0].Role != models.RoleCandidate || turns.turns[1].Role != models.RoleInterviewer {
		t.Error("turn roles out of order")
	}

	stored := sessions.sessions[s.ID]
	if stored.TurnCount != 1 {
		t.Errorf("expected persisted turn_count 1, got %d", stored.TurnCount)
	}
	if stored.Status != models.StatusInProgress {
		t.Errorf("expected persisted status in_progress, got %s", stored.Status)
	}
}

func TestProcessMessage_GenerationFailureKeepsCandidateTurn(t *testing.T) {
	c := testCase(1)
	provider := &fakeProvider{err: &domain.UnavailableError{Message: "backend down"}}
	svc, sessions, turns, txm := newTestService(provider, c)
	s := seedSession(sessions, models.PhaseFramework)
	before := *sessions.sessions[s.ID]

	_, err := svc.ProcessMessage(context.Background(), s.ID, s.UserID, "walk me through the approach")
	if !errors.Is(err, domain.ErrGenerationUnavailable) {
		t.Fatalf("expected retryable generation error, got %v", err)
	}

	if len(turns.turns) != 1 || turns.turns[0].Role != models.RoleCandidate {
		t.Fatalf("candidate turn must persist through the failure, got %d turns", len(turns.turns))
	}
	if txm.commits != 0 {
		t.Errorf("expected no commit, got %d", txm.commits)
	}
	if *sessions.sessions[s.ID] != before {
		t.Error("session fields must be unchanged after a failed generation")
	}
}

func TestProcessMessage_CompletedSessionRejected(t *testing.T) {
	c := testCase(1)
	svc, sessions, _, _ := newTestService(&fakeProvider{text: "ok"}, c)
	s := seedSession(sessions, models.PhaseCompleted)

	_, err := svc.ProcessMessage(context.Background(), s.ID, s.UserID, "one more question")
	if err == nil {
		t.Fatal("expected rejection")
	}
	if !strings.Contains(err.Error(), ConcludedNotice) {
		t.Errorf("expected concluded notice, got %v", err)
	}
}

func TestProcessMessage_RejectsOversizedMessage(t *testing.T) {
	c := testCase(1)
	provider := &fakeProvider{text: "ok"}
	svc, sessions, turns, _ := newTestService(provider, c)
	s := seedSession(sessions, models.PhaseFramework)

	_, err := svc.ProcessMessage(context.Background(), s.ID, s.UserID, strings.Repeat("a", 5001))
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(turns.turns) != 0 {
		t.Error("rejected message must not be persisted")
	}
	if provider.calls != 0 {
		t.Error("rejected message must not reach generation")
	}
}

func TestProcessMessage_TerminalTurnCommits(t *testing.T) {
	c := testCase(1)
	svc, sessions, _, _ := newTestService(&fakeProvider{text: "unused"}, c)
	s := seedSession(sessions, models.PhaseConclusion)

	reply, err := svc.ProcessMessage(context.Background(), s.ID, s.UserID, "thanks, those are my takeaways")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reply.Completed {
		t.Error("expected completed reply")
	}
	if reply.Text != ClosingUtterance {
		t.Errorf("expected closing utterance, got %q", reply.Text)
	}

	stored := sessions.sessions[s.ID]
	if !stored.Completed() || stored.Status != models.StatusCompleted {
		t.Error("terminal state must persist")
	}
}
