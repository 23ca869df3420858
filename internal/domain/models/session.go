package models

import (
	"time"
)

// Mode selects who drives the interview structure.
type Mode string

const (
	ModeInterviewerLed Mode = "interviewer_led"
	ModeCandidateLed   Mode = "candidate_led"
)

// Valid reports whether m is a known interview mode.
func (m Mode) Valid() bool {
	return m == ModeInterviewerLed || m == ModeCandidateLed
}

// Status is the session lifecycle, independent of the phase cursor.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusAbandoned  Status = "abandoned"
)

// Phase is the state machine's cursor through the scripted interview arc.
type Phase string

const (
	PhaseFramework      Phase = "framework"
	PhaseDataAnalysis   Phase = "data_analysis"
	PhaseRecommendation Phase = "recommendation"
	PhasePushback       Phase = "pushback"
	PhaseConclusion     Phase = "conclusion"
	PhaseCompleted      Phase = "completed"
)

// PhaseSequence is the fixed forward-only order of interview phases.
// Phases are never skipped and never revisited.
var PhaseSequence = []Phase{
	PhaseFramework,
	PhaseDataAnalysis,
	PhaseRecommendation,
	PhasePushback,
	PhaseConclusion,
	PhaseCompleted,
}

// NextPhase returns the phase following p in the fixed sequence, or p
// itself if p is terminal or unknown.
func NextPhase(p Phase) Phase {
	for i, phase := range PhaseSequence {
		if phase == p && i+1 < len(PhaseSequence) {
			return PhaseSequence[i+1]
		}
	}
	return p
}

// InterviewSession is one candidate's attempt at one case. The phase cursor,
// exhibit count and turn counters live here as durable fields; they are
// mutated only by the interview engine inside a single transaction per
// processed message, so a reconnect reads exactly what the last committed
// turn produced.
type InterviewSession struct {
	ID               string     `json:"id" db:"id"`
	UserID           string     `json:"user_id" db:"user_id"`
	CaseID           string     `json:"case_id" db:"case_id"`
	Mode             Mode       `json:"mode" db:"mode"`
	Status           Status     `json:"status" db:"status"`
	Phase            Phase      `json:"phase" db:"phase"`
	ExhibitsReleased int        `json:"exhibits_released" db:"exhibits_released"`
	TurnCount        int        `json:"turn_count" db:"turn_count"`
	PhaseTurnCount   int        `json:"phase_turn_count" db:"phase_turn_count"`
	StartedAt        *time.Time `json:"started_at,omitempty" db:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// Completed reports whether the session reached its terminal transition.
func (s *InterviewSession) Completed() bool {
	return s.Phase == PhaseCompleted
}
