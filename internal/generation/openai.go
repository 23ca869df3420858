package generation

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"caseprep/internal/domain"
)

// OpenAIProvider implements Provider and Transcriber against the OpenAI API.
type OpenAIProvider struct {
	client             *openai.Client
	model              string
	transcriptionModel string
}

// NewOpenAIProvider creates a provider for the given API key and model.
func NewOpenAIProvider(apiKey, model, transcriptionModel string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
	}

	return &OpenAIProvider{
		client:             openai.NewClient(apiKey),
		model:              model,
		transcriptionModel: transcriptionModel,
	}, nil
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Generate produces one assistant utterance via chat completions. The
// grounding instruction travels as the system message; history follows in
// order. Errors are wrapped retryable - the caller commits nothing.
func (p *OpenAIProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: req.Instruction,
	})

	for _, m := range req.History {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: m.Content,
		})
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 300
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, &domain.UnavailableError{Message: fmt.Sprintf("generation call failed: %v", err)}
	}

	if len(resp.Choices) == 0 {
		return nil, &domain.UnavailableError{Message: "generation returned no choices"}
	}

	return &Response{Text: resp.Choices[0].Message.Content}, nil
}

// Transcribe converts a media file to text via the transcription endpoint.
func (p *OpenAIProvider) Transcribe(ctx context.Context, filePath string) (string, error) {
	resp, err := p.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    p.transcriptionModel,
		FilePath: filePath,
	})
	if err != nil {
		return "", &domain.UnavailableError{Message: fmt.Sprintf("transcription failed: %v", err)}
	}

	return resp.Text, nil
}
