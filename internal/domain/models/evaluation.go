package models

import (
	"time"
)

// RecordingKind distinguishes uploaded media types.
type RecordingKind string

const (
	RecordingVideo RecordingKind = "video"
	RecordingAudio RecordingKind = "audio"
)

// Recording is a media file captured during an interview session. The
// transcription field is filled by the asynchronous transcription task.
type Recording struct {
	ID            string        `json:"id" db:"id"`
	SessionID     string        `json:"session_id" db:"session_id"`
	FilePath      string        `json:"file_path" db:"file_path"`
	Kind          RecordingKind `json:"kind" db:"kind"`
	Transcription *string       `json:"transcription,omitempty" db:"transcription"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}

// Evaluation holds post-interview performance scores for a session.
// Scores are 0-100; one evaluation per session.
type Evaluation struct {
	ID              string    `json:"id" db:"id"`
	SessionID       string    `json:"session_id" db:"session_id"`
	StructureScore  int       `json:"structure_score" db:"structure_score"`
	HypothesisScore int       `json:"hypothesis_score" db:"hypothesis_score"`
	MathScore       int       `json:"math_score" db:"math_score"`
	InsightScore    int       `json:"insight_score" db:"insight_score"`
	OverallScore    int       `json:"overall_score" db:"overall_score"`
	Strengths       []string  `json:"strengths" db:"strengths"`
	Improvements    []string  `json:"improvements" db:"improvements"`
	Analysis        string    `json:"analysis" db:"analysis"`
	Coaching        *string   `json:"coaching,omitempty" db:"coaching"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}
