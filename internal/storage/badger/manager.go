package badger

import (
	"github.com/ternarybob/arbor"

	"github.com/lectorhq/lector/internal/common"
	"github.com/lectorhq/lector/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db       *BadgerDB
	tutorial interfaces.TutorialStorage
	chapter  interfaces.ChapterStorage
	issue    interfaces.IssueStorage
	logger   arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:       db,
		tutorial: NewTutorialStorage(db, logger),
		chapter:  NewChapterStorage(db, logger),
		issue:    NewIssueStorage(db, logger),
		logger:   logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// TutorialStorage returns the Tutorial storage interface
func (m *Manager) TutorialStorage() interfaces.TutorialStorage {
	return m.tutorial
}

// ChapterStorage returns the Chapter storage interface
func (m *Manager) ChapterStorage() interfaces.ChapterStorage {
	return m.chapter
}

// IssueStorage returns the Issue storage interface
func (m *Manager) IssueStorage() interfaces.IssueStorage {
	return m.issue
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
