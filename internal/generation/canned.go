package generation

import (
	"context"
	"fmt"
	"hash/fnv"
)

// CannedProvider is a deterministic offline provider for dev and tests. It
// never calls the network and always returns the same utterance for the
// same request, which keeps resume and replay tests stable.
type CannedProvider struct{}

// NewCannedProvider creates the offline provider.
func NewCannedProvider() *CannedProvider {
	return &CannedProvider{}
}

var cannedReplies = []string{
	"That's an interesting point. Can you elaborate on your reasoning?",
	"Understood. What factors are you considering in your analysis?",
	"Good. How would you quantify the impact of that?",
	"Let's stay with that thought - what would you examine next?",
	"Noted. How does that tie back to the client's objective?",
}

// Name returns the provider name.
func (p *CannedProvider) Name() string {
	return "canned"
}

// Generate returns a fixed reply selected by hashing the last history entry,
// so identical conversations produce identical transcripts.
func (p *CannedProvider) Generate(_ context.Context, req *Request) (*Response, error) {
	h := fnv.New32a()
	if n := len(req.History); n > 0 {
		fmt.Fprint(h, req.History[n-1].Content)
	} else {
		fmt.Fprint(h, req.Instruction)
	}

	reply := cannedReplies[int(h.Sum32())%len(cannedReplies)]
	return &Response{Text: reply}, nil
}

// Transcribe returns a placeholder transcript.
func (p *CannedProvider) Transcribe(_ context.Context, filePath string) (string, error) {
	return fmt.Sprintf("(offline transcription placeholder for %s)", filePath), nil
}
