package interview

import (
	"encoding/json"
	"fmt"
	"strings"

	"caseprep/internal/domain/models"
)

// ExhibitClassifier decides whether a candidate utterance is asking for
// case data. Injected into the engine alongside the transition policy so
// the intent check can be replaced independently.
type ExhibitClassifier interface {
	IsExhibitRequest(utterance string) bool
}

// exhibitRequestSignals are phrasings that read as a request for data.
var exhibitRequestSignals = []string{
	"exhibit", "data", "numbers", "show me", "can i see", "information",
}

// KeywordExhibitClassifier is the default keyword-based intent check.
type KeywordExhibitClassifier struct{}

// NewKeywordExhibitClassifier creates the default classifier.
func NewKeywordExhibitClassifier() *KeywordExhibitClassifier {
	return &KeywordExhibitClassifier{}
}

// IsExhibitRequest implements ExhibitClassifier.
func (c *KeywordExhibitClassifier) IsExhibitRequest(utterance string) bool {
	return containsAny(strings.ToLower(utterance), exhibitRequestSignals)
}

// FormatExhibit renders a granted exhibit for the candidate. Exhibit grants
// are deterministic text, never generated, so the data shown is exactly the
// data in the case document. seq/max is the release position notice.
func FormatExhibit(ex models.Exhibit, seq, max int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "**%s** (Exhibit %d of %d)\n\n", ex.Title, seq, max)

	payload, err := json.MarshalIndent(ex.Payload, "", "  ")
	if err != nil {
		b.WriteString(fmt.Sprint(ex.Payload))
	} else {
		b.Write(payload)
	}

	if seq == max {
		b.WriteString("\n\n(This is the final exhibit. Please proceed with your analysis.)")
	}

	return b.String()
}
