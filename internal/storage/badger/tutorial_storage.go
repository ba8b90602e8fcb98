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

// TutorialStorage implements the TutorialStorage interface for Badger
type TutorialStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewTutorialStorage creates a new TutorialStorage instance
func NewTutorialStorage(db *BadgerDB, logger arbor.ILogger) interfaces.TutorialStorage {
	return &TutorialStorage{
		db:     db,
		logger: logger,
	}
}

func (s *TutorialStorage) SaveTutorial(ctx context.Context, tutorial *models.Tutorial) error {
	if tutorial.ID == "" {
		return fmt.Errorf("tutorial ID is required")
	}

	now := time.Now()
	if tutorial.CreatedAt.IsZero() {
		tutorial.CreatedAt = now
	}
	tutorial.UpdatedAt = now

	if err := s.db.Store().Upsert(tutorial.ID, tutorial); err != nil {
		return fmt.Errorf("failed to save tutorial: %w", err)
	}
	return nil
}

func (s *TutorialStorage) GetTutorial(ctx context.Context, id string) (*models.Tutorial, error) {
	var tutorial models.Tutorial
	if err := s.db.Store().Get(id, &tutorial); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("tutorial not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get tutorial: %w", err)
	}
	return &tutorial, nil
}

func (s *TutorialStorage) ListTutorials(ctx context.Context, opts *interfaces.ListOptions) ([]*models.Tutorial, error) {
	query := badgerhold.Where("ID").Ne("") // Select all

	if opts != nil {
		if opts.Limit > 0 {
			query = query.Limit(opts.Limit)
		}
		if opts.Skip > 0 {
			query = query.Skip(opts.Skip)
		}
	}

	var tutorials []models.Tutorial
	if err := s.db.Store().Find(&tutorials, query); err != nil {
		return nil, fmt.Errorf("failed to list tutorials: %w", err)
	}

	// Newest first
	sort.Slice(tutorials, func(i, j int) bool {
		return tutorials[i].CreatedAt.After(tutorials[j].CreatedAt)
	})

	result := make([]*models.Tutorial, len(tutorials))
	for i := range tutorials {
		result[i] = &tutorials[i]
	}
	return result, nil
}

func (s *TutorialStorage) DeleteTutorial(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.Tutorial{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete tutorial: %w", err)
	}
	return nil
}

func (s *TutorialStorage) CountTutorials(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Tutorial{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count tutorials: %w", err)
	}
	return int(count), nil
}

func (s *TutorialStorage) SaveSnapshot(ctx context.Context, snapshot *models.EvaluationSnapshot) error {
	if snapshot.ID == "" {
		return fmt.Errorf("snapshot ID is required")
	}
	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = time.Now()
	}

	if err := s.db.Store().Upsert(snapshot.ID, snapshot); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func (s *TutorialStorage) ListSnapshots(ctx context.Context, tutorialID string) ([]*models.EvaluationSnapshot, error) {
	var snapshots []models.EvaluationSnapshot
	if err := s.db.Store().Find(&snapshots, badgerhold.Where("TutorialID").Eq(tutorialID)); err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	// Newest first
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].CreatedAt.After(snapshots[j].CreatedAt)
	})

	result := make([]*models.EvaluationSnapshot, len(snapshots))
	for i := range snapshots {
		result[i] = &snapshots[i]
	}
	return result, nil
}
