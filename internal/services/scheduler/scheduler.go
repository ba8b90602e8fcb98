package scheduler

import (
	"context"
	"errors"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/lectorhq/lector/internal/common"
	"github.com/lectorhq/lector/internal/interfaces"
	"github.com/lectorhq/lector/internal/models"
	"github.com/lectorhq/lector/internal/services/reviewer"
)

// Scheduler re-evaluates completed tutorials on a cron schedule. Unchanged
// chapters skip via their fingerprints, so a scheduled pass over a stable
// tutorial costs no model calls.
type Scheduler struct {
	config   *common.SchedulerConfig
	storage  interfaces.StorageManager
	reviewer *reviewer.Service
	logger   arbor.ILogger
	cron     *cron.Cron
	entryID  cron.EntryID
}

// NewScheduler creates the re-evaluation scheduler
func NewScheduler(
	config *common.SchedulerConfig,
	storage interfaces.StorageManager,
	reviewerService *reviewer.Service,
	logger arbor.ILogger,
) *Scheduler {
	return &Scheduler{
		config:   config,
		storage:  storage,
		reviewer: reviewerService,
		logger:   logger,
		cron:     cron.New(),
	}
}

// Start registers the cron entry and begins scheduling. A disabled
// scheduler starts as a no-op.
func (s *Scheduler) Start() error {
	if !s.config.Enabled {
		s.logger.Debug().Msg("Scheduler disabled")
		return nil
	}

	entryID, err := s.cron.AddFunc(s.config.Schedule, s.runPass)
	if err != nil {
		return err
	}
	s.entryID = entryID
	s.cron.Start()

	s.logger.Info().
		Str("schedule", s.config.Schedule).
		Msg("Re-evaluation scheduler started")
	return nil
}

// Stop halts scheduling and waits for a running pass to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// runPass re-evaluates every completed tutorial sequentially. Tutorials
// with a run already in flight are left alone.
func (s *Scheduler) runPass() {
	ctx := context.Background()

	tutorials, err := s.storage.TutorialStorage().ListTutorials(ctx, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("Scheduled pass failed to list tutorials")
		return
	}

	s.logger.Info().Int("tutorial_count", len(tutorials)).Msg("Scheduled re-evaluation pass starting")

	for _, tutorial := range tutorials {
		if tutorial.Status != models.TutorialStatusCompleted {
			continue
		}

		if _, err := s.reviewer.Evaluate(ctx, tutorial.ID); err != nil {
			if errors.Is(err, reviewer.ErrEvaluationRunning) {
				s.logger.Debug().Str("tutorial_id", tutorial.ID).Msg("Skipping tutorial with run in flight")
				continue
			}
			s.logger.Error().
				Str("tutorial_id", tutorial.ID).
				Err(err).
				Msg("Scheduled re-evaluation failed")
		}
	}

	s.logger.Info().Msg("Scheduled re-evaluation pass finished")
}
