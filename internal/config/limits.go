package config

import "time"

const (
	// MaxExhibits is the maximum number of exhibits released during one
	// interview, regardless of how many the case document carries.
	MaxExhibits = 3

	// MaxMessageLength is the maximum length of a candidate message.
	// Messages beyond this are rejected before reaching the engine.
	MaxMessageLength = 5000

	// MaxCaseTitleLength bounds case titles to fit VARCHAR(200).
	MaxCaseTitleLength = 200

	// HistoryWindow is how many recent turns accompany each generation
	// request. Older turns are summarized by the grounding instruction
	// itself (case prompt + phase), not replayed verbatim.
	HistoryWindow = 10

	// GenerationTimeout bounds a single generation call. On expiry the
	// turn fails retryably and no session state is committed.
	GenerationTimeout = 30 * time.Second

	// TranscriptionTimeout bounds one transcription task.
	TranscriptionTimeout = 2 * time.Minute
)
