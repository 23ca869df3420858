package interview

import (
	"strings"

	"caseprep/internal/domain/models"
)

// TransitionPolicy decides whether the interview should advance out of the
// current phase, given the candidate's utterance and how many turns the
// phase has absorbed. It is deliberately a small, enumerated contract so it
// can be tested without generation calls and swapped without touching the
// engine's transition table.
type TransitionPolicy interface {
	// Advance reports whether to move to the next phase in the fixed
	// sequence. phaseTurns includes the utterance under evaluation.
	Advance(phase models.Phase, utterance string, phaseTurns int) bool
}

// minDwellTurns is the floor of candidate turns a phase must absorb before
// any keyword match may advance it. Prevents a single keyword from
// collapsing the interview.
const minDwellTurns = 2

// frameworkDoneSignals mark the candidate wrapping up their framework.
var frameworkDoneSignals = []string{
	"those are my", "that covers", "framework complete", "those are the",
	"now let's", "shall we", "can we look at", "what data",
}

// recommendationSignals mark the candidate moving toward a recommendation.
var recommendationSignals = []string{
	"recommend", "my recommendation", "i think we should", "i would suggest",
	"based on this", "in conclusion", "therefore",
}

// KeywordPolicy is the default transition policy: keyword signals gated by
// per-phase turn floors, with hard caps so a quiet candidate still moves
// forward.
type KeywordPolicy struct{}

// NewKeywordPolicy creates the default policy.
func NewKeywordPolicy() *KeywordPolicy {
	return &KeywordPolicy{}
}

// Advance implements TransitionPolicy.
func (p *KeywordPolicy) Advance(phase models.Phase, utterance string, phaseTurns int) bool {
	// Conclusion ends after exactly one exchange, regardless of content.
	if phase == models.PhaseConclusion {
		return phaseTurns >= 1
	}

	if phaseTurns < minDwellTurns {
		return false
	}

	lower := strings.ToLower(utterance)

	switch phase {
	case models.PhaseFramework:
		return containsAny(lower, frameworkDoneSignals) || phaseTurns >= 3
	case models.PhaseDataAnalysis:
		return containsAny(lower, recommendationSignals) || phaseTurns >= 4
	case models.PhaseRecommendation:
		return phaseTurns >= 2
	case models.PhasePushback:
		return phaseTurns >= 2
	default:
		return false
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
