package models

import (
	"time"
)

// ChapterStatus represents the lifecycle state of a chapter
type ChapterStatus string

const (
	ChapterStatusPending    ChapterStatus = "pending"
	ChapterStatusEvaluating ChapterStatus = "evaluating"
	ChapterStatusCompleted  ChapterStatus = "completed"
	ChapterStatusError      ChapterStatus = "error"
)

// Chapter represents one evaluated content unit (a markdown file)
type Chapter struct {
	// Identity
	ID         string `json:"id"` // ch_{uuid}
	TutorialID string `json:"tutorial_id"`
	OrderIndex int    `json:"order_index"` // Position in path-sorted scan order

	// Content
	FilePath    string `json:"file_path"` // Relative to the repo root
	Title       string `json:"title"`
	Content     string `json:"content"`
	Fingerprint string `json:"fingerprint"` // Stable hash of Content, drives incremental skip
	WordCount   int    `json:"word_count"`

	// Markdown structure tallies from the scan
	HeadingCount   int `json:"heading_count"`
	CodeBlockCount int `json:"code_block_count"`
	ImageCount     int `json:"image_count"`
	LinkCount      int `json:"link_count"`

	// Lifecycle
	Status       ChapterStatus `json:"status"`
	ErrorMessage string        `json:"error_message,omitempty"`

	// Scores
	OverallScore      int    `json:"overall_score"`
	Grade             string `json:"grade"`
	DepthScore        int    `json:"depth_score"`
	AccuracyScore     int    `json:"accuracy_score"`
	CompletenessScore int    `json:"completeness_score"`
	LogicScore        int    `json:"logic_score"`
	ReadabilityScore  int    `json:"readability_score"`
	VocabularyScore   int    `json:"vocabulary_score"`
	SyntaxScore       int    `json:"syntax_score"`
	DiscourseScore    int    `json:"discourse_score"`
	SurfaceScore      int    `json:"surface_score"`
	ReadabilityLevel  string `json:"readability_level,omitempty"`
	ContentType       string `json:"content_type,omitempty"`
	Summary           string `json:"summary,omitempty"`

	// Issue counts by severity
	HighIssues   int `json:"high_issues"`
	MediumIssues int `json:"medium_issues"`
	LowIssues    int `json:"low_issues"`

	// Run tracking
	EvaluationDuration float64    `json:"evaluation_duration"` // Seconds
	LastEvaluatedAt    *time.Time `json:"last_evaluated_at,omitempty"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
