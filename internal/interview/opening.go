package interview

import (
	"fmt"

	"caseprep/internal/domain/models"
)

// ClosingUtterance ends every interview. Emitted on the terminal transition
// without a generation call, so termination is deterministic.
const ClosingUtterance = "Thank you for your thoughtful analysis today. That concludes our interview. " +
	"You'll receive feedback on your performance shortly."

// ConcludedNotice is returned when a message arrives for a session that
// already completed.
const ConcludedNotice = "The interview has concluded. Please proceed to evaluation."

// OpeningUtterance is the interview's first turn: a pure function of the
// case and mode, computed without a candidate message or generation call.
// Determinism matters here - a reconnect before any candidate reply must be
// able to regenerate the identical opening, though in practice the opening
// is persisted as Turn #1 and replayed rather than recomputed.
func OpeningUtterance(c *models.Case, mode models.Mode) string {
	if mode == models.ModeCandidateLed {
		return fmt.Sprintf(
			"Welcome to your case interview. In this candidate-led format, you'll drive the structure and analysis.\n\n"+
				"%s\n\n"+
				"Please take a moment to think about your approach, then walk me through your framework.",
			c.Prompt,
		)
	}

	return fmt.Sprintf(
		"Welcome to your case interview. I'll be guiding you through this case.\n\n"+
			"%s\n\n"+
			"Let me know when you're ready to begin, and feel free to ask clarifying questions.",
		c.Prompt,
	)
}
