package common

import (
	"github.com/google/uuid"
)

// NewTutorialID generates a unique tutorial ID with the "tut_" prefix
// Format: tut_<uuid>
func NewTutorialID() string {
	return "tut_" + uuid.New().String()
}

// NewChapterID generates a unique chapter ID with the "ch_" prefix
func NewChapterID() string {
	return "ch_" + uuid.New().String()
}

// NewIssueID generates a unique issue ID with the "iss_" prefix
func NewIssueID() string {
	return "iss_" + uuid.New().String()
}

// NewRunID generates a unique evaluation run ID with the "run_" prefix
func NewRunID() string {
	return "run_" + uuid.New().String()
}
