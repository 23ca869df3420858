package interview

import (
	"encoding/json"
	"fmt"
	"strings"

	"caseprep/internal/domain/models"
)

// phaseDirectives describe what the candidate should be doing in each
// phase; they anchor the assistant persona's focus.
var phaseDirectives = map[models.Phase]string{
	models.PhaseFramework:      "developing and presenting their framework/approach",
	models.PhaseDataAnalysis:   "analyzing data and deriving insights",
	models.PhaseRecommendation: "formulating their final recommendation",
	models.PhasePushback:       "defending their recommendation against challenges",
	models.PhaseConclusion:     "providing final thoughts and summary",
}

// phaseFocus is the interviewer-led guidance per phase.
var phaseFocus = map[models.Phase]string{
	models.PhaseFramework:      "Focus on: Structure, framework completeness, MECE principles.",
	models.PhaseDataAnalysis:   "Focus on: Data interpretation, quantitative skills, insight generation.",
	models.PhaseRecommendation: "Focus on: Clear recommendation, supporting evidence, actionable steps.",
	models.PhasePushback:       "Challenge their recommendation with 1-2 tough questions about assumptions or risks.",
	models.PhaseConclusion:     "Ask them to summarize key takeaways, then thank them and close the interview.",
}

// ExhaustedDirective is the non-negotiable line added once the exhibit
// budget is spent. It is the sole thing preventing the generation service
// from inventing data under request pressure.
const ExhaustedDirective = "ALL EXHIBITS EXHAUSTED: The candidate has received every available exhibit. " +
	"State clearly that no more exhibits or data are available and redirect them to work with what they have. " +
	"Do NOT produce any new numbers or data."

// Instruction captures one generation call's grounding input before it is
// rendered to text. Keeping it structured makes the construction testable.
type Instruction struct {
	Case             *models.Case
	Mode             models.Mode
	Phase            models.Phase
	ReleasedExhibits []models.Exhibit // exactly the exhibits released so far, in order
	MaxExhibits      int
	Transitioning    bool
	NextPhase        models.Phase
	Exhausted        bool
}

// Render builds the grounding instruction text. Four parts, in order: the
// case prompt and context, the released exhibits (never future ones), the
// phase and mode directive, and the grounding constraint.
func (in *Instruction) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a case interviewer conducting a %s interview.\n", strings.ReplaceAll(string(in.Mode), "_", " "))
	fmt.Fprintf(&b, "The case is: %s\n\n", in.Case.Title)

	b.WriteString("**CRITICAL: You must ONLY use information from the case data below. " +
		"Do NOT invent, assume, or add any new data, numbers, or facts.**\n\n")

	fmt.Fprintf(&b, "Case Prompt:\n%s\n\n", in.Case.Prompt)

	if ctx, err := json.MarshalIndent(in.Case.Context, "", "  "); err == nil {
		fmt.Fprintf(&b, "Case Context:\n%s\n\n", ctx)
	}

	if len(in.ReleasedExhibits) == 0 {
		b.WriteString("Exhibits Released So Far: none\n\n")
	} else {
		fmt.Fprintf(&b, "Exhibits Released So Far (%d/%d):\n", len(in.ReleasedExhibits), in.MaxExhibits)
		for i, ex := range in.ReleasedExhibits {
			payload, _ := json.Marshal(ex.Payload)
			fmt.Fprintf(&b, "  %d. %s (%s): %s\n", i+1, ex.Title, ex.Kind, payload)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Current Phase: the candidate is %s.\n\n", phaseDirectives[in.Phase])

	if in.Exhausted {
		b.WriteString(ExhaustedDirective + "\n\n")
	}

	if in.Mode == models.ModeInterviewerLed {
		if in.Transitioning {
			fmt.Fprintf(&b, "TRANSITION: Guide the candidate to the next phase: %s.\n\n", phaseDirectives[in.NextPhase])
		}
		if focus, ok := phaseFocus[in.Phase]; ok {
			b.WriteString(focus + "\n\n")
		}
		b.WriteString("Your role:\n" +
			"- You are the INTERVIEWER conducting this case interview\n" +
			"- Guide the candidate through the case with structured questions\n" +
			"- Ask probing questions to test their thinking\n" +
			"- ONLY reference facts, numbers, and context from the case data provided above\n" +
			"- If the candidate asks about data not in released exhibits, redirect them: 'That information isn't available. Work with what you have.'\n" +
			"- Maintain a professional, neutral tone\n" +
			"- Keep responses concise (2-3 sentences)\n")
	} else {
		b.WriteString("Your role:\n" +
			"- You are the INTERVIEWER in this candidate-led interview\n" +
			"- The candidate drives this interview; answer ONLY what is asked\n" +
			"- CRITICAL: Provide ONLY information from the case data above. Do NOT invent any numbers, facts, or context.\n" +
			"- If asked about data not in the case or released exhibits, respond: 'I don't have that information available.'\n" +
			"- Do NOT ask questions, guide the candidate, or offer recommendations\n" +
			"- Only provide minimal clarification if the candidate explicitly asks for it\n" +
			"- Maintain a professional, neutral tone\n" +
			"- Keep responses concise (1-2 sentences)\n")
	}

	return b.String()
}
