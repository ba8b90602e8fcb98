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

// ChapterStorage implements the ChapterStorage interface for Badger
type ChapterStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewChapterStorage creates a new ChapterStorage instance
func NewChapterStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ChapterStorage {
	return &ChapterStorage{
		db:     db,
		logger: logger,
	}
}

func (s *ChapterStorage) SaveChapter(ctx context.Context, chapter *models.Chapter) error {
	if chapter.ID == "" {
		return fmt.Errorf("chapter ID is required")
	}
	if chapter.TutorialID == "" {
		return fmt.Errorf("chapter tutorial ID is required")
	}

	now := time.Now()
	if chapter.CreatedAt.IsZero() {
		chapter.CreatedAt = now
	}
	chapter.UpdatedAt = now

	if err := s.db.Store().Upsert(chapter.ID, chapter); err != nil {
		return fmt.Errorf("failed to save chapter: %w", err)
	}
	return nil
}

func (s *ChapterStorage) GetChapter(ctx context.Context, id string) (*models.Chapter, error) {
	var chapter models.Chapter
	if err := s.db.Store().Get(id, &chapter); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("chapter not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get chapter: %w", err)
	}
	return &chapter, nil
}

func (s *ChapterStorage) GetChapterByIndex(ctx context.Context, tutorialID string, orderIndex int) (*models.Chapter, error) {
	var chapters []models.Chapter
	err := s.db.Store().Find(&chapters, badgerhold.Where("TutorialID").Eq(tutorialID).And("OrderIndex").Eq(orderIndex))
	if err != nil {
		return nil, fmt.Errorf("failed to find chapter: %w", err)
	}
	if len(chapters) == 0 {
		return nil, badgerhold.ErrNotFound
	}
	return &chapters[0], nil
}

func (s *ChapterStorage) ListChapters(ctx context.Context, tutorialID string) ([]*models.Chapter, error) {
	var chapters []models.Chapter
	if err := s.db.Store().Find(&chapters, badgerhold.Where("TutorialID").Eq(tutorialID)); err != nil {
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}

	sort.Slice(chapters, func(i, j int) bool {
		return chapters[i].OrderIndex < chapters[j].OrderIndex
	})

	result := make([]*models.Chapter, len(chapters))
	for i := range chapters {
		result[i] = &chapters[i]
	}
	return result, nil
}

func (s *ChapterStorage) DeleteChapter(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.Chapter{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete chapter: %w", err)
	}
	return nil
}

func (s *ChapterStorage) DeleteChaptersByTutorial(ctx context.Context, tutorialID string) error {
	if err := s.db.Store().DeleteMatching(&models.Chapter{}, badgerhold.Where("TutorialID").Eq(tutorialID)); err != nil {
		return fmt.Errorf("failed to delete chapters: %w", err)
	}
	return nil
}

func (s *ChapterStorage) CountChapters(ctx context.Context, tutorialID string) (int, error) {
	count, err := s.db.Store().Count(&models.Chapter{}, badgerhold.Where("TutorialID").Eq(tutorialID))
	if err != nil {
		return 0, fmt.Errorf("failed to count chapters: %w", err)
	}
	return int(count), nil
}
