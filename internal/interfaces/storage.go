package interfaces

import (
	"context"

	"github.com/lectorhq/lector/internal/models"
)

// ListOptions controls pagination for list operations
type ListOptions struct {
	Limit int
	Skip  int
}

// TutorialStorage - interface for tutorial persistence
type TutorialStorage interface {
	SaveTutorial(ctx context.Context, tutorial *models.Tutorial) error
	GetTutorial(ctx context.Context, id string) (*models.Tutorial, error)
	ListTutorials(ctx context.Context, opts *ListOptions) ([]*models.Tutorial, error)
	DeleteTutorial(ctx context.Context, id string) error
	CountTutorials(ctx context.Context) (int, error)

	// Snapshot operations (per-run evaluation history)
	SaveSnapshot(ctx context.Context, snapshot *models.EvaluationSnapshot) error
	ListSnapshots(ctx context.Context, tutorialID string) ([]*models.EvaluationSnapshot, error)
}

// ChapterStorage - interface for chapter persistence
type ChapterStorage interface {
	SaveChapter(ctx context.Context, chapter *models.Chapter) error
	GetChapter(ctx context.Context, id string) (*models.Chapter, error)
	// GetChapterByIndex resolves a chapter by its position within a tutorial,
	// which is the identity used for the incremental-skip comparison.
	GetChapterByIndex(ctx context.Context, tutorialID string, orderIndex int) (*models.Chapter, error)
	ListChapters(ctx context.Context, tutorialID string) ([]*models.Chapter, error)
	DeleteChapter(ctx context.Context, id string) error
	DeleteChaptersByTutorial(ctx context.Context, tutorialID string) error
	CountChapters(ctx context.Context, tutorialID string) (int, error)
}

// IssueStorage - interface for issue persistence
type IssueStorage interface {
	SaveIssue(ctx context.Context, issue *models.Issue) error
	SaveIssues(ctx context.Context, issues []*models.Issue) error
	GetIssue(ctx context.Context, id string) (*models.Issue, error)
	// ListIssues filters by tutorial and optionally by chapter and severity
	// (empty values match everything).
	ListIssues(ctx context.Context, tutorialID, chapterID, severity string) ([]*models.Issue, error)
	DeleteIssuesByChapter(ctx context.Context, chapterID string) error
	DeleteIssuesByTutorial(ctx context.Context, tutorialID string) error
	MarkResolved(ctx context.Context, id string) error
	CountIssuesBySeverity(ctx context.Context, tutorialID string) (map[string]int, error)
}

// StorageManager - composite interface for all storage operations
type StorageManager interface {
	TutorialStorage() TutorialStorage
	ChapterStorage() ChapterStorage
	IssueStorage() IssueStorage
	Close() error
}
