package gateway

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"caseprep/internal/domain"
	"caseprep/internal/domain/models"
	"caseprep/internal/domain/repositories"
	"caseprep/internal/generation"
	"caseprep/internal/interview"
	"caseprep/internal/security"
)

type stubProvider struct {
	mu         sync.Mutex
	text       string
	inFlight   atomic.Int32
	maxSeen    atomic.Int32
	delay      time.Duration
	callsTotal atomic.Int32
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Generate(ctx context.Context, req *generation.Request) (*generation.Response, error) {
	cur := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		seen := p.maxSeen.Load()
		if cur <= seen || p.maxSeen.CompareAndSwap(seen, cur) {
			break
		}
	}
	p.callsTotal.Add(1)
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return &generation.Response{Text: p.text}, nil
}

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*models.InterviewSession
}

func (r *memSessionRepo) Create(ctx context.Context, s *models.InterviewSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *memSessionRepo) GetByID(ctx context.Context, id, userID string) (*models.InterviewSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.UserID != userID {
		return nil, &domain.NotFoundError{Message: "session not found"}
	}
	cp := *s
	return &cp, nil
}

func (r *memSessionRepo) ListByUser(ctx context.Context, userID string) ([]models.InterviewSession, error) {
	return nil, nil
}

func (r *memSessionRepo) Save(ctx context.Context, s *models.InterviewSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

type memTurnRepo struct {
	mu    sync.Mutex
	turns []models.Turn
}

func (r *memTurnRepo) Append(ctx context.Context, t *models.Turn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turns = append(r.turns, *t)
	return nil
}

func (r *memTurnRepo) ListBySession(ctx context.Context, sessionID string) ([]models.Turn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Turn
	for _, t := range r.turns {
		if t.SessionID == sessionID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *memTurnRepo) CountBySession(ctx context.Context, sessionID string) (int, error) {
	list, _ := r.ListBySession(ctx, sessionID)
	return len(list), nil
}

type memCaseRepo struct {
	c *models.Case
}

func (r *memCaseRepo) Create(ctx context.Context, c *models.Case) error { return nil }

func (r *memCaseRepo) GetByID(ctx context.Context, id string) (*models.Case, error) {
	if r.c == nil || r.c.ID != id {
		return nil, &domain.NotFoundError{Message: "case not found"}
	}
	return r.c, nil
}

func (r *memCaseRepo) List(ctx context.Context) ([]models.Case, error) { return nil, nil }
func (r *memCaseRepo) Delete(ctx context.Context, id string) error     { return nil }

type passthroughTx struct{}

func (passthroughTx) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

func newTestGateway(t *testing.T, provider generation.Provider) (*Gateway, *models.InterviewSession) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	c := &models.Case{
		ID:       "case-1",
		Title:    "Regional Expansion",
		CaseType: models.CaseTypeConsulting,
		Prompt:   "Should our client enter the southern market?",
	}
	session := &models.InterviewSession{
		ID:     "session-1",
		UserID: "user-1",
		CaseID: c.ID,
		Mode:   models.ModeInterviewerLed,
		Status: models.StatusInProgress,
		Phase:  models.PhaseFramework,
	}

	sessions := &memSessionRepo{sessions: map[string]*models.InterviewSession{session.ID: session}}
	engine := interview.NewEngine(provider, time.Second, 3, logger)
	service := interview.NewService(sessions, &memTurnRepo{}, &memCaseRepo{c: c}, passthroughTx{}, engine, security.NewValidator(), logger)

	return New(service, logger), session
}

func TestSubmit_BroadcastsBothTurns(t *testing.T) {
	provider := &stubProvider{text: "walk me through your structure"}
	gw, session := newTestGateway(t, provider)

	events, cancel := gw.Subscribe(session.ID)
	defer cancel()

	reply, err := gw.Submit(context.Background(), session.ID, session.UserID, "I'd start with market sizing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Text != provider.text {
		t.Errorf("unexpected reply %q", reply.Text)
	}

	first := <-events
	if first.Type != EventTurn || first.Role != models.RoleCandidate {
		t.Errorf("expected candidate turn event first, got %+v", first)
	}
	second := <-events
	if second.Type != EventTurn || second.Role != models.RoleInterviewer {
		t.Errorf("expected interviewer turn event second, got %+v", second)
	}
	if second.Text != provider.text {
		t.Errorf("interviewer event text mismatch: %q", second.Text)
	}
}

func TestSubmit_BroadcastsSanitizedCandidateText(t *testing.T) {
	provider := &stubProvider{text: "go on"}
	gw, session := newTestGateway(t, provider)

	events, cancel := gw.Subscribe(session.ID)
	defer cancel()

	_, err := gw.Submit(context.Background(), session.ID, session.UserID, "my <b>plan</b> has   three parts")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The broadcast must match what entered the turn log, not the raw
	// submission, or replay after a reconnect would disagree with it.
	first := <-events
	if first.Text != "my plan has three parts" {
		t.Errorf("candidate event carries unsanitized text: %q", first.Text)
	}
}

func TestSubmit_ValidationFailureEmitsSystemEvent(t *testing.T) {
	provider := &stubProvider{text: "unused"}
	gw, session := newTestGateway(t, provider)

	events, cancel := gw.Subscribe(session.ID)
	defer cancel()

	_, err := gw.Submit(context.Background(), session.ID, session.UserID, "   ")
	if err == nil {
		t.Fatal("expected validation error")
	}

	ev := <-events
	if ev.Type != EventSystem {
		t.Errorf("expected system event, got %+v", ev)
	}
	if provider.callsTotal.Load() != 0 {
		t.Error("rejected message must not reach generation")
	}
}

func TestSubmit_SerializedPerSession(t *testing.T) {
	provider := &stubProvider{text: "noted", delay: 20 * time.Millisecond}
	gw, session := newTestGateway(t, provider)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Errors are fine here; overlap is what the test watches.
			_, _ = gw.Submit(context.Background(), session.ID, session.UserID, "continuing my analysis of the market")
		}()
	}
	wg.Wait()

	if provider.maxSeen.Load() > 1 {
		t.Errorf("generation calls overlapped for one session: max %d in flight", provider.maxSeen.Load())
	}
}

func TestSubscribe_CancelCleansUpRoom(t *testing.T) {
	provider := &stubProvider{text: "reply"}
	gw, session := newTestGateway(t, provider)

	_, cancel := gw.Subscribe(session.ID)

	gw.mu.Lock()
	if len(gw.rooms) != 1 {
		t.Errorf("expected one live room, got %d", len(gw.rooms))
	}
	gw.mu.Unlock()

	cancel()
	cancel() // safe to call twice

	gw.mu.Lock()
	if len(gw.rooms) != 0 {
		t.Errorf("expected room cleanup after last unsubscribe, got %d rooms", len(gw.rooms))
	}
	gw.mu.Unlock()
}

func TestConnect_ReplaysOpening(t *testing.T) {
	provider := &stubProvider{text: "reply"}
	gw, session := newTestGateway(t, provider)

	_, turns, err := gw.Connect(context.Background(), session.ID, session.UserID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(turns) != 1 || turns[0].Role != models.RoleInterviewer {
		t.Fatalf("expected persisted opening turn, got %d turns", len(turns))
	}

	// Reconnecting replays the same log.
	_, again, err := gw.Connect(context.Background(), session.ID, session.UserID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(again) != 1 || again[0].Content != turns[0].Content {
		t.Error("reconnect must replay the identical opening")
	}
}
