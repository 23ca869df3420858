package cases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"caseprep/internal/config"
	"caseprep/internal/domain"
	"caseprep/internal/domain/models"
	"caseprep/internal/generation"
)

// GenerateCaseRequest asks the generation service to author a new case.
type GenerateCaseRequest struct {
	UserID   string          `json:"-"`
	Topic    string          `json:"topic"`
	CaseType models.CaseType `json:"case_type"`
}

// Generator authors case documents through a single generation call. The
// output is parsed and validated like any hand-authored case before it is
// stored; a malformed generation is rejected, never patched.
type Generator struct {
	provider generation.Provider
	service  *Service
	logger   *slog.Logger
}

// NewGenerator creates a case generator.
func NewGenerator(provider generation.Provider, service *Service, logger *slog.Logger) *Generator {
	return &Generator{provider: provider, service: service, logger: logger}
}

// generatedCase is the JSON contract the authoring prompt demands.
type generatedCase struct {
	Title    string                 `json:"title"`
	Prompt   string                 `json:"prompt"`
	Context  map[string]interface{} `json:"context"`
	Exhibits []models.Exhibit       `json:"exhibits"`
}

// Generate authors and stores one case about the given topic.
func (g *Generator) Generate(ctx context.Context, req *GenerateCaseRequest) (*models.Case, error) {
	if strings.TrimSpace(req.Topic) == "" {
		return nil, &domain.ValidationError{Message: "topic is required"}
	}
	caseType := req.CaseType
	if caseType == "" {
		caseType = models.CaseTypeConsulting
	}

	genCtx, cancel := context.WithTimeout(ctx, config.GenerationTimeout)
	defer cancel()

	resp, err := g.provider.Generate(genCtx, &generation.Request{
		Instruction: authoringInstruction(req.Topic, caseType),
		MaxTokens:   2000,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, err
	}

	var parsed generatedCase
	if err := json.Unmarshal([]byte(extractJSON(resp.Text)), &parsed); err != nil {
		g.logger.Warn("case generation returned unparseable output", "topic", req.Topic, "error", err)
		return nil, &domain.UnavailableError{Message: "case generation produced invalid output, please retry"}
	}

	return g.service.Create(ctx, &CreateCaseRequest{
		UserID:   req.UserID,
		Title:    parsed.Title,
		CaseType: caseType,
		Prompt:   parsed.Prompt,
		Context:  parsed.Context,
		Exhibits: parsed.Exhibits,
	})
}

// authoringInstruction is the single-shot prompt for case authoring.
func authoringInstruction(topic string, caseType models.CaseType) string {
	return fmt.Sprintf(
		"You are a senior partner designing a %s interview case about %q.\n\n"+
			"Respond with a single JSON object and nothing else, using exactly this shape:\n"+
			"{\n"+
			"  \"title\": \"...\",\n"+
			"  \"prompt\": \"the case prompt read to the candidate\",\n"+
			"  \"context\": {\"client\": \"...\", \"situation\": \"...\", \"objective\": \"...\"},\n"+
			"  \"exhibits\": [\n"+
			"    {\"title\": \"...\", \"kind\": \"table\", \"payload\": {\"columns\": [...], \"rows\": [[...]]}},\n"+
			"    {\"title\": \"...\", \"kind\": \"bar_chart\", \"payload\": {\"labels\": [...], \"values\": [...], \"unit\": \"...\"}},\n"+
			"    {\"title\": \"...\", \"kind\": \"pie_chart\", \"payload\": {\"labels\": [...], \"values\": [...]}}\n"+
			"  ]\n"+
			"}\n\n"+
			"Rules: at most %d exhibits, pie chart values must sum to 100, all numbers must be "+
			"internally consistent, and the case must be solvable from the exhibits alone.",
		caseType, topic, config.MaxExhibits,
	)
}

// extractJSON trims prose or code fences around the JSON object some
// models insist on adding.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}
