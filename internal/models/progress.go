package models

import (
	"time"
)

// Progress event types emitted during an evaluation run
const (
	ProgressTypePhase     = "phase"
	ProgressTypeComplete  = "complete"
	ProgressTypeError     = "error"
	ProgressTypeHeartbeat = "heartbeat"
)

// ProgressEvent is one update pushed to run subscribers.
// A subscriber always receives a terminal complete or error event
// unless it detaches first.
type ProgressEvent struct {
	Type         string    `json:"type"` // phase, complete, error, heartbeat
	TutorialID   string    `json:"tutorial_id"`
	ChapterIndex int       `json:"chapter_index,omitempty"` // 1-based
	ChapterTotal int       `json:"chapter_total,omitempty"`
	Phase        string    `json:"phase,omitempty"` // Human-readable phase label
	Detail       string    `json:"detail,omitempty"`
	Error        string    `json:"error,omitempty"`
	OverallScore int       `json:"overall_score,omitempty"` // Set on complete
	Grade        string    `json:"grade,omitempty"`         // Set on complete
	Timestamp    time.Time `json:"timestamp"`
}
