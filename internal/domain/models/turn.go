package models

import (
	"time"
)

// Role identifies the author of a turn.
type Role string

const (
	RoleCandidate   Role = "candidate"
	RoleInterviewer Role = "interviewer"
	RoleSystem      Role = "system"
)

// Turn is one immutable message in a session's conversation log. Turns are
// only ever appended; creation order is conversation order, which is what
// makes replay-based resume possible.
type Turn struct {
	ID        string    `json:"id" db:"id"`
	SessionID string    `json:"session_id" db:"session_id"`
	Role      Role      `json:"role" db:"role"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
