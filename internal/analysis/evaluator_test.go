package analysis

import (
	"context"
	"strings"
	"testing"

	"caseprep/internal/domain"
	"caseprep/internal/domain/models"
	"caseprep/internal/generation"
)

type evalSessionRepo struct {
	session *models.InterviewSession
}

func (r *evalSessionRepo) Create(ctx context.Context, s *models.InterviewSession) error { return nil }

func (r *evalSessionRepo) GetByID(ctx context.Context, id, userID string) (*models.InterviewSession, error) {
	if r.session == nil || r.session.ID != id || r.session.UserID != userID {
		return nil, &domain.NotFoundError{Message: "session not found"}
	}
	return r.session, nil
}

func (r *evalSessionRepo) ListByUser(ctx context.Context, userID string) ([]models.InterviewSession, error) {
	return nil, nil
}

func (r *evalSessionRepo) Save(ctx context.Context, s *models.InterviewSession) error { return nil }

type evalTurnRepo struct {
	turns []models.Turn
}

func (r *evalTurnRepo) Append(ctx context.Context, t *models.Turn) error { return nil }

func (r *evalTurnRepo) ListBySession(ctx context.Context, sessionID string) ([]models.Turn, error) {
	return r.turns, nil
}

func (r *evalTurnRepo) CountBySession(ctx context.Context, sessionID string) (int, error) {
	return len(r.turns), nil
}

type evalCaseRepo struct {
	c *models.Case
}

func (r *evalCaseRepo) Create(ctx context.Context, c *models.Case) error { return nil }

func (r *evalCaseRepo) GetByID(ctx context.Context, id string) (*models.Case, error) {
	return r.c, nil
}

func (r *evalCaseRepo) List(ctx context.Context) ([]models.Case, error) { return nil, nil }
func (r *evalCaseRepo) Delete(ctx context.Context, id string) error     { return nil }

type evalStore struct {
	stored *models.Evaluation
}

func (r *evalStore) Upsert(ctx context.Context, e *models.Evaluation) error {
	r.stored = e
	return nil
}

func (r *evalStore) GetBySession(ctx context.Context, sessionID string) (*models.Evaluation, error) {
	if r.stored == nil {
		return nil, &domain.NotFoundError{Message: "evaluation not found"}
	}
	return r.stored, nil
}

// multiProvider returns scripted replies in call order so the evaluator and
// the coach can answer differently.
type multiProvider struct {
	replies []string
	reqs    []*generation.Request
}

func (p *multiProvider) Name() string { return "multi" }

func (p *multiProvider) Generate(ctx context.Context, req *generation.Request) (*generation.Response, error) {
	p.reqs = append(p.reqs, req)
	i := len(p.reqs) - 1
	if i >= len(p.replies) {
		i = len(p.replies) - 1
	}
	return &generation.Response{Text: p.replies[i]}, nil
}

const scoredReply = `SCORES:
Structure: 82
Hypothesis: 74
Math: 68
Insights: 79
Overall: 76

STRENGTHS:
- Clear MECE framework up front
- Comfortable with mental math

AREAS FOR IMPROVEMENT:
- Hypotheses stated late
- Recommendation lacked risks

DETAILED ANALYSIS:
The candidate opened with a solid structure and held to it throughout.
Quantitative work was mostly accurate with one slip on percentage growth.`

func TestParseEvaluation(t *testing.T) {
	parsed := parseEvaluation(scoredReply)

	wantScores := map[string]int{
		"structure": 82, "hypothesis": 74, "math": 68, "insights": 79, "overall": 76,
	}
	for name, want := range wantScores {
		if got := parsed.scores[name]; got != want {
			t.Errorf("score %s = %d, want %d", name, got, want)
		}
	}

	if len(parsed.strengths) != 2 || parsed.strengths[0] != "Clear MECE framework up front" {
		t.Errorf("unexpected strengths: %v", parsed.strengths)
	}
	if len(parsed.improvements) != 2 || parsed.improvements[1] != "Recommendation lacked risks" {
		t.Errorf("unexpected improvements: %v", parsed.improvements)
	}
}

func TestParseEvaluation_Degraded(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty reply", ""},
		{"prose only", "The candidate did reasonably well overall."},
		{"scores out of range", "SCORES:\nStructure: 250\nMath: -5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := parseEvaluation(tt.text)
			for name, score := range parsed.scores {
				if score < 0 || score > 100 {
					t.Errorf("score %s = %d outside 0-100", name, score)
				}
			}
		})
	}
}

func TestParseEvaluation_BracketedScores(t *testing.T) {
	// Some generations echo the template's brackets; digits still parse.
	parsed := parseEvaluation("SCORES:\nStructure: [88]\nOverall: [90]")
	if parsed.scores["structure"] != 88 || parsed.scores["overall"] != 90 {
		t.Errorf("bracketed scores not parsed: %v", parsed.scores)
	}
}

func TestEvaluate_StoresEvaluationWithCoaching(t *testing.T) {
	session := &models.InterviewSession{ID: "session-1", UserID: "user-1", CaseID: "case-1", Phase: models.PhaseCompleted}
	turns := []models.Turn{
		{SessionID: "session-1", Role: models.RoleInterviewer, Content: "Welcome to the case."},
		{SessionID: "session-1", Role: models.RoleCandidate, Content: "I'd split profit into revenue and cost."},
		{SessionID: "session-1", Role: models.RoleSystem, Content: "connection restored"},
	}
	c := &models.Case{ID: "case-1", Title: "Declining Profitability", Prompt: "Profit fell 30%."}

	provider := &multiProvider{replies: []string{scoredReply, "Practice stating a hypothesis in your first two minutes."}}
	store := &evalStore{}
	evaluator := NewEvaluator(
		&evalSessionRepo{session: session},
		&evalTurnRepo{turns: turns},
		&evalCaseRepo{c: c},
		store,
		provider,
		NewCoach(provider, transcriberLogger()),
		transcriberLogger(),
	)

	eval, err := evaluator.Evaluate(context.Background(), "session-1", "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if eval.StructureScore != 82 || eval.OverallScore != 76 {
		t.Errorf("scores not mapped: %+v", eval)
	}
	if eval.Coaching == nil || !strings.Contains(*eval.Coaching, "hypothesis") {
		t.Error("expected coaching text")
	}
	if store.stored == nil {
		t.Fatal("evaluation must be stored")
	}

	// The evaluator prompt carries the transcript but never system turns.
	evalPrompt := provider.reqs[0].History[0].Content
	if !strings.Contains(evalPrompt, "revenue and cost") {
		t.Error("transcript missing from evaluator prompt")
	}
	if strings.Contains(evalPrompt, "connection restored") {
		t.Error("system turns must not reach the evaluator")
	}
}

func TestGetEvaluation_ScopedToOwner(t *testing.T) {
	session := &models.InterviewSession{ID: "session-1", UserID: "user-1", CaseID: "case-1"}
	store := &evalStore{stored: &models.Evaluation{SessionID: "session-1", OverallScore: 70}}
	provider := &multiProvider{replies: []string{scoredReply}}
	evaluator := NewEvaluator(
		&evalSessionRepo{session: session},
		&evalTurnRepo{},
		&evalCaseRepo{c: &models.Case{ID: "case-1"}},
		store,
		provider,
		NewCoach(provider, transcriberLogger()),
		transcriberLogger(),
	)

	if _, err := evaluator.GetEvaluation(context.Background(), "session-1", "someone-else"); err == nil {
		t.Error("expected rejection for non-owner")
	}

	eval, err := evaluator.GetEvaluation(context.Background(), "session-1", "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eval.OverallScore != 70 {
		t.Errorf("unexpected evaluation: %+v", eval)
	}
}
