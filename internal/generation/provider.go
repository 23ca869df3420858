// Package generation is the boundary to the external text-generation
// service. The core sends a structured instruction plus recent history and
// gets back one assistant utterance; everything else about the service
// (model choice, retries, prompt formatting) stays behind this interface.
package generation

import (
	"context"
)

// Message is one prior conversation turn sent alongside the instruction.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Request carries one generation call: the grounding instruction and the
// recent conversation history.
type Request struct {
	Instruction string
	History     []Message
	MaxTokens   int
	Temperature float32
}

// Response is one generated assistant utterance.
type Response struct {
	Text string
}

// Provider generates one utterance per call. Implementations may fail or be
// slow; callers bound every call with a context deadline and treat errors as
// retryable without committing any state.
type Provider interface {
	// Name returns the provider name for logging.
	Name() string

	// Generate produces one assistant utterance.
	Generate(ctx context.Context, req *Request) (*Response, error)
}

// Transcriber converts an audio/video file into text. Kept separate from
// Provider because transcription runs on the analysis path, never inside a
// conversation turn.
type Transcriber interface {
	Transcribe(ctx context.Context, filePath string) (string, error)
}
