package badger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/lectorhq/lector/internal/interfaces"
	"github.com/lectorhq/lector/internal/models"
)

// IssueStorage implements the IssueStorage interface for Badger
type IssueStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewIssueStorage creates a new IssueStorage instance
func NewIssueStorage(db *BadgerDB, logger arbor.ILogger) interfaces.IssueStorage {
	return &IssueStorage{
		db:     db,
		logger: logger,
	}
}

func (s *IssueStorage) SaveIssue(ctx context.Context, issue *models.Issue) error {
	if issue.ID == "" {
		return fmt.Errorf("issue ID is required")
	}
	if issue.CreatedAt.IsZero() {
		issue.CreatedAt = time.Now()
	}

	if err := s.db.Store().Upsert(issue.ID, issue); err != nil {
		return fmt.Errorf("failed to save issue: %w", err)
	}
	return nil
}

func (s *IssueStorage) SaveIssues(ctx context.Context, issues []*models.Issue) error {
	for _, issue := range issues {
		if err := s.SaveIssue(ctx, issue); err != nil {
			return err
		}
	}
	return nil
}

func (s *IssueStorage) GetIssue(ctx context.Context, id string) (*models.Issue, error) {
	var issue models.Issue
	if err := s.db.Store().Get(id, &issue); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("issue not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get issue: %w", err)
	}
	return &issue, nil
}

func (s *IssueStorage) ListIssues(ctx context.Context, tutorialID, chapterID, severity string) ([]*models.Issue, error) {
	query := badgerhold.Where("TutorialID").Eq(tutorialID)
	if chapterID != "" {
		query = query.And("ChapterID").Eq(chapterID)
	}
	if severity != "" {
		query = query.And("Severity").Eq(severity)
	}

	var issues []models.Issue
	if err := s.db.Store().Find(&issues, query); err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}

	// Most urgent first, stable within a priority
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Priority < issues[j].Priority
	})

	result := make([]*models.Issue, len(issues))
	for i := range issues {
		result[i] = &issues[i]
	}
	return result, nil
}

func (s *IssueStorage) DeleteIssuesByChapter(ctx context.Context, chapterID string) error {
	if err := s.db.Store().DeleteMatching(&models.Issue{}, badgerhold.Where("ChapterID").Eq(chapterID)); err != nil {
		return fmt.Errorf("failed to delete issues: %w", err)
	}
	return nil
}

func (s *IssueStorage) DeleteIssuesByTutorial(ctx context.Context, tutorialID string) error {
	if err := s.db.Store().DeleteMatching(&models.Issue{}, badgerhold.Where("TutorialID").Eq(tutorialID)); err != nil {
		return fmt.Errorf("failed to delete issues: %w", err)
	}
	return nil
}

func (s *IssueStorage) MarkResolved(ctx context.Context, id string) error {
	issue, err := s.GetIssue(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now()
	issue.Resolved = true
	issue.ResolvedAt = &now

	if err := s.db.Store().Upsert(issue.ID, issue); err != nil {
		return fmt.Errorf("failed to mark issue resolved: %w", err)
	}
	return nil
}

func (s *IssueStorage) CountIssuesBySeverity(ctx context.Context, tutorialID string) (map[string]int, error) {
	var issues []models.Issue
	if err := s.db.Store().Find(&issues, badgerhold.Where("TutorialID").Eq(tutorialID)); err != nil {
		return nil, fmt.Errorf("failed to count issues: %w", err)
	}

	counts := map[string]int{
		models.SeverityHigh:   0,
		models.SeverityMedium: 0,
		models.SeverityLow:    0,
	}
	for _, issue := range issues {
		counts[issue.Severity]++
	}
	return counts, nil
}
