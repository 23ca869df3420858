package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"caseprep/internal/config"
	"caseprep/internal/domain/models"
	"caseprep/internal/generation"
)

const coachInstruction = `You are an experienced case interview coach who has helped hundreds of candidates land offers at top consulting firms.

Based on the evaluation below, give the candidate concrete, actionable coaching:

1. The single most impactful thing to work on next
2. A specific drill or exercise for it
3. One habit to keep doing

Write directly to the candidate in a warm but direct tone. Keep it under 300 words.`

// Coach turns an evaluation into short actionable feedback.
type Coach struct {
	provider generation.Provider
	logger   *slog.Logger
}

func NewCoach(provider generation.Provider, logger *slog.Logger) *Coach {
	return &Coach{provider: provider, logger: logger}
}

// Feedback asks for coaching text based on the evaluation results.
func (c *Coach) Feedback(ctx context.Context, eval *models.Evaluation, cs *models.Case) (string, error) {
	genCtx, cancel := context.WithTimeout(ctx, config.GenerationTimeout)
	defer cancel()

	resp, err := c.provider.Generate(genCtx, &generation.Request{
		Instruction: coachInstruction,
		History: []generation.Message{{
			Role:    generation.RoleUser,
			Content: coachPrompt(eval, cs),
		}},
		MaxTokens:   600,
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(resp.Text), nil
}

func coachPrompt(eval *models.Evaluation, cs *models.Case) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Case: %s\n\n", cs.Title)
	fmt.Fprintf(&b, "Scores: Structure %d, Hypothesis %d, Math %d, Insights %d, Overall %d\n\n",
		eval.StructureScore, eval.HypothesisScore, eval.MathScore, eval.InsightScore, eval.OverallScore)

	if len(eval.Strengths) > 0 {
		b.WriteString("Strengths:\n")
		for _, s := range eval.Strengths {
			fmt.Fprintf(&b, "- %s\n", s)
		}
		b.WriteString("\n")
	}

	if len(eval.Improvements) > 0 {
		b.WriteString("Areas for improvement:\n")
		for _, s := range eval.Improvements {
			fmt.Fprintf(&b, "- %s\n", s)
		}
		b.WriteString("\n")
	}

	b.WriteString("Evaluator analysis:\n")
	b.WriteString(eval.Analysis)

	return b.String()
}
