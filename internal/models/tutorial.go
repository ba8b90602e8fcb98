package models

import (
	"time"
)

// TutorialStatus represents the lifecycle state of a tutorial
type TutorialStatus string

const (
	TutorialStatusPending    TutorialStatus = "pending"
	TutorialStatusCloning    TutorialStatus = "cloning"
	TutorialStatusScanning   TutorialStatus = "scanning"
	TutorialStatusEvaluating TutorialStatus = "evaluating"
	TutorialStatusCompleted  TutorialStatus = "completed"
	TutorialStatusError      TutorialStatus = "error"
)

// Tutorial represents one evaluated corpus: a git repository of markdown chapters
type Tutorial struct {
	// Identity
	ID   string `json:"id"`   // tut_{uuid}
	Name string `json:"name"` // Display name, defaults to the repo name

	// Source
	RepoURL   string `json:"repo_url"`
	Branch    string `json:"branch"`
	LocalPath string `json:"local_path"` // Clone directory under the repos dir

	// Lifecycle
	Status       TutorialStatus `json:"status"`
	ErrorMessage string         `json:"error_message,omitempty"`

	// Aggregates (recomputed after each run from completed chapters)
	ChapterCount    int     `json:"chapter_count"`
	EvaluatedCount  int     `json:"evaluated_count"`
	OverallScore    int     `json:"overall_score"`
	Grade           string  `json:"grade"`
	AvgDepth        float64 `json:"avg_depth"`
	AvgAccuracy     float64 `json:"avg_accuracy"`
	AvgCompleteness float64 `json:"avg_completeness"`
	AvgLogic        float64 `json:"avg_logic"`
	AvgReadability  float64 `json:"avg_readability"`
	HighIssues      int     `json:"high_issues"`
	MediumIssues    int     `json:"medium_issues"`
	LowIssues       int     `json:"low_issues"`

	// Run tracking
	LastEvaluatedAt    *time.Time `json:"last_evaluated_at,omitempty"`
	EvaluationDuration float64    `json:"evaluation_duration"` // Seconds

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsTerminal reports whether the tutorial has reached a terminal run state
func (s TutorialStatus) IsTerminal() bool {
	return s == TutorialStatusCompleted || s == TutorialStatusError
}

// EvaluationSnapshot is a per-run history record appended when a run completes
type EvaluationSnapshot struct {
	ID           string    `json:"id"` // run_{uuid}
	TutorialID   string    `json:"tutorial_id"`
	OverallScore int       `json:"overall_score"`
	Grade        string    `json:"grade"`
	ChapterCount int       `json:"chapter_count"`
	SkippedCount int       `json:"skipped_count"` // Chapters skipped via fingerprint match
	HighIssues   int       `json:"high_issues"`
	MediumIssues int       `json:"medium_issues"`
	LowIssues    int       `json:"low_issues"`
	Duration     float64   `json:"duration"` // Seconds
	CreatedAt    time.Time `json:"created_at"`
}

// TutorialStats summarizes all registered tutorials
type TutorialStats struct {
	TotalTutorials int            `json:"total_tutorials"`
	ByStatus       map[string]int `json:"by_status"`
	TotalChapters  int            `json:"total_chapters"`
	TotalIssues    int            `json:"total_issues"`
}
