package models

import (
	"time"
)

// CaseType distinguishes the two supported interview tracks.
type CaseType string

const (
	CaseTypeConsulting        CaseType = "consulting"
	CaseTypeProductManagement CaseType = "product_management"
)

// ExhibitKind is the shape of an exhibit payload.
type ExhibitKind string

const (
	ExhibitKindTable    ExhibitKind = "table"
	ExhibitKindBarChart ExhibitKind = "bar_chart"
	ExhibitKindPieChart ExhibitKind = "pie_chart"
)

// Exhibit is one discrete unit of case data, released to the candidate on
// request. Payload shape depends on Kind: table carries columns/rows,
// bar_chart carries labels/values/unit, pie_chart carries labels/values
// that sum to 100.
type Exhibit struct {
	Title   string                 `json:"title" yaml:"title"`
	Kind    ExhibitKind            `json:"kind" yaml:"kind"`
	Payload map[string]interface{} `json:"payload" yaml:"payload"`
}

// Case is an immutable interview scenario produced ahead of any session:
// the prompt, background context and an ordered, bounded list of exhibits.
// Sessions reference cases by id and never mutate them.
type Case struct {
	ID        string                 `json:"id" db:"id"`
	Title     string                 `json:"title" db:"title"`
	CaseType  CaseType               `json:"case_type" db:"case_type"`
	Prompt    string                 `json:"prompt" db:"prompt"`
	Context   map[string]interface{} `json:"context" db:"context"`
	Exhibits  []Exhibit              `json:"exhibits" db:"exhibits"`
	CreatedBy *string                `json:"created_by,omitempty" db:"created_by"`
	CreatedAt time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt time.Time              `json:"updated_at" db:"updated_at"`
}
