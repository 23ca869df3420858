package cases

import (
	"context"
	"errors"
	"strings"
	"testing"

	"caseprep/internal/domain"
	"caseprep/internal/generation"
)

type scriptedProvider struct {
	text    string
	err     error
	lastReq *generation.Request
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Generate(ctx context.Context, req *generation.Request) (*generation.Response, error) {
	p.lastReq = req
	if p.err != nil {
		return nil, p.err
	}
	return &generation.Response{Text: p.text}, nil
}

const wellFormedCase = `{
	"title": "FreshCart Grocery Delivery",
	"prompt": "Our client runs a grocery delivery service with shrinking margins.",
	"context": {"client": "FreshCart", "situation": "margin pressure", "objective": "restore profitability"},
	"exhibits": [
		{"title": "Order Economics", "kind": "table", "payload": {"columns": ["Item", "Value"], "rows": [["Basket size", 64]]}}
	]
}`

func TestGenerate_StoresParsedCase(t *testing.T) {
	provider := &scriptedProvider{text: wellFormedCase}
	repo := newMemCaseRepo()
	gen := NewGenerator(provider, NewService(repo, testLogger()), testLogger())

	c, err := gen.Generate(context.Background(), &GenerateCaseRequest{
		UserID: "user-1",
		Topic:  "grocery delivery profitability",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.Title != "FreshCart Grocery Delivery" {
		t.Errorf("unexpected title %q", c.Title)
	}
	if len(c.Exhibits) != 1 {
		t.Errorf("expected one exhibit, got %d", len(c.Exhibits))
	}
	if _, ok := repo.cases[c.ID]; !ok {
		t.Error("generated case must be stored")
	}
	if !strings.Contains(provider.lastReq.Instruction, "grocery delivery profitability") {
		t.Error("topic missing from authoring instruction")
	}
}

func TestGenerate_TrimsProseAroundJSON(t *testing.T) {
	provider := &scriptedProvider{text: "Here is your case:\n```json\n" + wellFormedCase + "\n```\nEnjoy!"}
	gen := NewGenerator(provider, NewService(newMemCaseRepo(), testLogger()), testLogger())

	if _, err := gen.Generate(context.Background(), &GenerateCaseRequest{UserID: "u", Topic: "anything"}); err != nil {
		t.Errorf("fenced JSON must parse: %v", err)
	}
}

func TestGenerate_UnparseableOutputIsRetryable(t *testing.T) {
	provider := &scriptedProvider{text: "I could not produce a case today."}
	gen := NewGenerator(provider, NewService(newMemCaseRepo(), testLogger()), testLogger())

	_, err := gen.Generate(context.Background(), &GenerateCaseRequest{UserID: "u", Topic: "anything"})
	if !errors.Is(err, domain.ErrGenerationUnavailable) {
		t.Errorf("expected retryable error, got %v", err)
	}
}

func TestGenerate_InvalidGeneratedCaseRejected(t *testing.T) {
	// A parseable document that fails case validation is rejected, not
	// patched or stored.
	provider := &scriptedProvider{text: `{"title": "", "prompt": "", "exhibits": []}`}
	repo := newMemCaseRepo()
	gen := NewGenerator(provider, NewService(repo, testLogger()), testLogger())

	_, err := gen.Generate(context.Background(), &GenerateCaseRequest{UserID: "u", Topic: "anything"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	if len(repo.cases) != 0 {
		t.Error("invalid case must not be stored")
	}
}

func TestGenerate_RequiresTopic(t *testing.T) {
	gen := NewGenerator(&scriptedProvider{}, NewService(newMemCaseRepo(), testLogger()), testLogger())

	_, err := gen.Generate(context.Background(), &GenerateCaseRequest{UserID: "u", Topic: "  "})
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) {
		t.Errorf("expected validation error, got %v", err)
	}
}
