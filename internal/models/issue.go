package models

import (
	"time"
)

// Issue severity levels
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// Issue categories identify which pipeline stage produced the issue
const (
	IssueCategoryDepth       = "depth"
	IssueCategoryQuality     = "quality"
	IssueCategoryReadability = "readability"
	IssueCategoryImprovement = "improvement"
)

// Issue is a persisted defect found by an evaluator, with severity and suggested fix
type Issue struct {
	ID         string `json:"id"` // iss_{uuid}
	TutorialID string `json:"tutorial_id"`
	ChapterID  string `json:"chapter_id"`

	Category    string `json:"category"`  // depth, quality, readability, improvement
	IssueType   string `json:"issue_type"` // e.g. factual_error, missing_detail, long_sentence
	Severity    string `json:"severity"`   // high, medium, low
	Priority    int    `json:"priority"`   // 1 = most urgent
	Location    string `json:"location"`
	Description string `json:"description"`
	Suggestion  string `json:"suggestion"`
	Reference   string `json:"reference,omitempty"` // Supporting citation, if any
	Effort      string `json:"effort,omitempty"`    // low, medium, high

	Resolved   bool       `json:"resolved"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
