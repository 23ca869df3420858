package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"caseprep/internal/config"
	"caseprep/internal/domain/models"
	"caseprep/internal/domain/repositories"
	"caseprep/internal/generation"
)

const evaluatorInstruction = `You are a senior case interview evaluator at a top consulting firm.

Your task is to evaluate the candidate's performance across four dimensions:

1. Structure (0-100): Did they use a clear framework? Was their approach organized?
2. Hypothesis (0-100): Did they form and test hypotheses? Were they data-driven?
3. Math (0-100): Were calculations accurate? Did they handle quantitative analysis well?
4. Insights (0-100): Did they provide actionable insights? Were recommendations clear?

Provide your evaluation in the following format:

SCORES:
Structure: [0-100]
Hypothesis: [0-100]
Math: [0-100]
Insights: [0-100]
Overall: [0-100]

STRENGTHS:
- [Strength 1]
- [Strength 2]

AREAS FOR IMPROVEMENT:
- [Area 1]
- [Area 2]

DETAILED ANALYSIS:
[2-3 paragraphs of detailed feedback]`

// Evaluator scores a finished interview with one generation call over the
// transcript, then asks the coach for feedback text. Both are single-shot
// delegations; the hard guarantees all live in the conversation engine.
type Evaluator struct {
	sessions    repositories.SessionRepository
	turns       repositories.TurnRepository
	cases       repositories.CaseRepository
	evaluations repositories.EvaluationRepository
	provider    generation.Provider
	coach       *Coach
	logger      *slog.Logger
}

// NewEvaluator creates an evaluator.
func NewEvaluator(
	sessions repositories.SessionRepository,
	turns repositories.TurnRepository,
	cases repositories.CaseRepository,
	evaluations repositories.EvaluationRepository,
	provider generation.Provider,
	coach *Coach,
	logger *slog.Logger,
) *Evaluator {
	return &Evaluator{
		sessions:    sessions,
		turns:       turns,
		cases:       cases,
		evaluations: evaluations,
		provider:    provider,
		coach:       coach,
		logger:      logger,
	}
}

// Evaluate scores a session and stores the evaluation. Re-running replaces
// the previous scores.
func (e *Evaluator) Evaluate(ctx context.Context, sessionID, userID string) (*models.Evaluation, error) {
	session, err := e.sessions.GetByID(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	c, err := e.cases.GetByID(ctx, session.CaseID)
	if err != nil {
		return nil, err
	}

	turns, err := e.turns.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	genCtx, cancel := context.WithTimeout(ctx, config.GenerationTimeout)
	defer cancel()

	resp, err := e.provider.Generate(genCtx, &generation.Request{
		Instruction: evaluatorInstruction,
		History: []generation.Message{{
			Role:    generation.RoleUser,
			Content: evaluationPrompt(c, turns),
		}},
		MaxTokens:   1500,
		Temperature: 0.3,
	})
	if err != nil {
		return nil, err
	}

	parsed := parseEvaluation(resp.Text)

	now := time.Now()
	eval := &models.Evaluation{
		ID:              uuid.NewString(),
		SessionID:       sessionID,
		StructureScore:  parsed.scores["structure"],
		HypothesisScore: parsed.scores["hypothesis"],
		MathScore:       parsed.scores["math"],
		InsightScore:    parsed.scores["insights"],
		OverallScore:    parsed.scores["overall"],
		Strengths:       parsed.strengths,
		Improvements:    parsed.improvements,
		Analysis:        resp.Text,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// Coaching text is best-effort: a failed coach call does not block
	// the evaluation.
	if coaching, err := e.coach.Feedback(ctx, eval, c); err == nil {
		eval.Coaching = &coaching
	} else {
		e.logger.Warn("coaching generation failed", "session_id", sessionID, "error", err)
	}

	if err := e.evaluations.Upsert(ctx, eval); err != nil {
		return nil, err
	}

	e.logger.Info("session evaluated",
		"session_id", sessionID,
		"overall", eval.OverallScore,
	)

	return eval, nil
}

// GetEvaluation returns the stored evaluation for a session.
func (e *Evaluator) GetEvaluation(ctx context.Context, sessionID, userID string) (*models.Evaluation, error) {
	if _, err := e.sessions.GetByID(ctx, sessionID, userID); err != nil {
		return nil, err
	}
	return e.evaluations.GetBySession(ctx, sessionID)
}

// evaluationPrompt renders the transcript for the evaluator.
func evaluationPrompt(c *models.Case, turns []models.Turn) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Case: %s\n\n%s\n\nTranscript:\n\n", c.Title, c.Prompt)

	for _, t := range turns {
		if t.Role == models.RoleSystem {
			continue
		}
		fmt.Fprintf(&b, "[%s] %s\n\n", t.Role, t.Content)
	}

	return b.String()
}

type parsedEvaluation struct {
	scores       map[string]int
	strengths    []string
	improvements []string
}

// parseEvaluation extracts scores and bullet lists from the evaluator's
// formatted reply. Unparseable lines are skipped; missing scores stay 0.
func parseEvaluation(text string) parsedEvaluation {
	parsed := parsedEvaluation{scores: map[string]int{}}

	section := ""
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(line, "STRENGTHS"):
			section = "strengths"
			continue
		case strings.HasPrefix(line, "AREAS FOR IMPROVEMENT"):
			section = "improvements"
			continue
		case strings.HasPrefix(line, "DETAILED ANALYSIS"):
			section = ""
			continue
		case strings.HasPrefix(line, "SCORES"):
			section = "scores"
			continue
		}

		if name, score, ok := parseScoreLine(line); ok {
			parsed.scores[name] = score
			continue
		}

		if strings.HasPrefix(line, "- ") {
			item := strings.TrimSpace(strings.TrimPrefix(line, "- "))
			switch section {
			case "strengths":
				parsed.strengths = append(parsed.strengths, item)
			case "improvements":
				parsed.improvements = append(parsed.improvements, item)
			}
		}
	}

	return parsed
}

// parseScoreLine parses "Structure: 85" style lines.
func parseScoreLine(line string) (string, int, bool) {
	name, value, found := strings.Cut(line, ":")
	if !found {
		return "", 0, false
	}

	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "structure", "hypothesis", "math", "insights", "overall":
	default:
		return "", 0, false
	}

	digits := strings.Builder{}
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	score, err := strconv.Atoi(digits.String())
	if err != nil || score < 0 || score > 100 {
		return "", 0, false
	}

	return key, score, true
}
