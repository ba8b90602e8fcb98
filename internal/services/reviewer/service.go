package reviewer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/lectorhq/lector/internal/common"
	"github.com/lectorhq/lector/internal/interfaces"
	"github.com/lectorhq/lector/internal/models"
	"github.com/lectorhq/lector/internal/services/review"
)

// ErrEvaluationRunning is returned when a tutorial already has a run in flight
var ErrEvaluationRunning = errors.New("evaluation already running for tutorial")

// Service orchestrates the evaluation pipeline for a tutorial: acquire the
// repo, scan chapters, evaluate each changed chapter through the review
// stages, persist results at chapter granularity and roll up aggregates.
type Service struct {
	config  *common.Config
	storage interfaces.StorageManager
	repos   interfaces.RepoService
	scanner interfaces.DocumentScanner
	events  interfaces.EventService
	logger  arbor.ILogger

	analyzer    *review.Analyzer
	searchAgent *review.SearchAgent
	references  *review.ReferenceManager
	depth       *review.DepthChecker
	quality     *review.QualityReviewer
	readability *review.ReadabilityChecker
	improver    *review.Improver
	aggregator  *review.ScoreAggregator

	mu     sync.Mutex
	active map[string]bool
}

// NewService wires the pipeline. A nil search service disables web
// references without disabling evaluation.
func NewService(
	config *common.Config,
	storage interfaces.StorageManager,
	repos interfaces.RepoService,
	scanner interfaces.DocumentScanner,
	llm interfaces.LLMService,
	search interfaces.WebSearchService,
	events interfaces.EventService,
	logger arbor.ILogger,
) *Service {
	if !config.Search.Enabled {
		search = nil
	}

	aggregator := review.NewScoreAggregator()
	if w := config.Reviewer.Weights; w.IsSet() {
		aggregator = review.NewScoreAggregatorWithWeights(w.Depth, w.Accuracy, w.Completeness, w.Logic, w.Readability)
	}

	return &Service{
		config:      config,
		storage:     storage,
		repos:       repos,
		scanner:     scanner,
		events:      events,
		logger:      logger,
		analyzer:    review.NewAnalyzer(llm, logger),
		searchAgent: review.NewSearchAgent(search, &config.Search, logger),
		references:  review.NewReferenceManager(&config.Reviewer, logger),
		depth:       review.NewDepthChecker(llm, logger),
		quality:     review.NewQualityReviewer(llm, logger),
		readability: review.NewReadabilityChecker(llm, logger),
		improver:    review.NewImprover(llm, logger),
		aggregator:  aggregator,
		active:      make(map[string]bool),
	}
}

// Evaluate runs a full evaluation synchronously and returns the updated
// tutorial record.
func (s *Service) Evaluate(ctx context.Context, tutorialID string) (*models.Tutorial, error) {
	run, err := s.start(tutorialID)
	if err != nil {
		return nil, err
	}
	run.Close()

	if err := s.runEvaluation(ctx, tutorialID, run); err != nil {
		return nil, err
	}

	return s.storage.TutorialStorage().GetTutorial(ctx, tutorialID)
}

// EvaluateStream starts an evaluation in the background and returns the
// progress subscription handle immediately.
func (s *Service) EvaluateStream(tutorialID string) (*Run, error) {
	run, err := s.start(tutorialID)
	if err != nil {
		return nil, err
	}

	common.SafeGo(s.logger, fmt.Sprintf("evaluate-%s", tutorialID), func() {
		// Detached from the request context: closing the stream must not
		// abort the evaluation.
		if err := s.runEvaluation(context.Background(), tutorialID, run); err != nil {
			s.logger.Error().
				Str("tutorial_id", tutorialID).
				Err(err).
				Msg("Background evaluation failed")
		}
	})

	return run, nil
}

// start claims the per-tutorial run slot and creates the progress handle
func (s *Service) start(tutorialID string) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active[tutorialID] {
		return nil, ErrEvaluationRunning
	}
	s.active[tutorialID] = true

	return newRun(tutorialID, s.config.Reviewer.EventBuffer), nil
}

func (s *Service) release(tutorialID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, tutorialID)
}

// IsRunning reports whether a tutorial has an evaluation in flight
func (s *Service) IsRunning(tutorialID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active[tutorialID]
}

func (s *Service) runEvaluation(ctx context.Context, tutorialID string, run *Run) error {
	defer s.release(tutorialID)
	defer run.finish()

	started := time.Now()

	tutorials := s.storage.TutorialStorage()
	tutorial, err := tutorials.GetTutorial(ctx, tutorialID)
	if err != nil {
		run.emit(models.ProgressEvent{
			Type:       models.ProgressTypeError,
			TutorialID: tutorialID,
			Error:      "tutorial not found",
		})
		return fmt.Errorf("tutorial %s not found: %w", tutorialID, err)
	}

	s.publishEvent(ctx, interfaces.EventEvaluationStarted, tutorial)

	fail := func(stage string, cause error) error {
		tutorial.Status = models.TutorialStatusError
		tutorial.ErrorMessage = fmt.Sprintf("%s: %v", stage, cause)
		if saveErr := tutorials.SaveTutorial(ctx, tutorial); saveErr != nil {
			s.logger.Error().Err(saveErr).Msg("Failed to persist tutorial error state")
		}

		run.emit(models.ProgressEvent{
			Type:       models.ProgressTypeError,
			TutorialID: tutorialID,
			Error:      tutorial.ErrorMessage,
		})
		s.publishEvent(ctx, interfaces.EventEvaluationFailed, tutorial)
		return fmt.Errorf("%s failed for tutorial %s: %w", stage, tutorialID, cause)
	}

	// Acquire the working tree
	tutorial.Status = models.TutorialStatusCloning
	tutorial.ErrorMessage = ""
	if err := tutorials.SaveTutorial(ctx, tutorial); err != nil {
		return fail("save", err)
	}
	s.emitPhase(ctx, run, tutorialID, 0, 0, "cloning", tutorial.RepoURL)

	localPath, _, err := s.repos.Acquire(ctx, tutorial.RepoURL, tutorial.Branch)
	if err != nil {
		return fail("acquire", err)
	}
	tutorial.LocalPath = localPath

	// Discover chapters
	tutorial.Status = models.TutorialStatusScanning
	if err := tutorials.SaveTutorial(ctx, tutorial); err != nil {
		return fail("save", err)
	}
	s.emitPhase(ctx, run, tutorialID, 0, 0, "scanning", localPath)

	units, err := s.scanner.Scan(localPath)
	if err != nil {
		return fail("scan", err)
	}
	if len(units) == 0 {
		return fail("scan", errors.New("no markdown chapters found"))
	}

	tutorial.Status = models.TutorialStatusEvaluating
	tutorial.ChapterCount = len(units)
	if err := tutorials.SaveTutorial(ctx, tutorial); err != nil {
		return fail("save", err)
	}

	// Evaluate chapters strictly in scan order
	skipped := 0
	for _, unit := range units {
		s.emitPhase(ctx, run, tutorialID, unit.OrderIndex+1, len(units), "evaluating", unit.FilePath)

		wasSkipped, err := s.evaluateChapter(ctx, tutorial, unit)
		if err != nil {
			s.logger.Error().
				Str("tutorial_id", tutorialID).
				Str("file", unit.FilePath).
				Err(err).
				Msg("Chapter evaluation failed")
			run.emit(models.ProgressEvent{
				Type:         models.ProgressTypeError,
				TutorialID:   tutorialID,
				ChapterIndex: unit.OrderIndex + 1,
				ChapterTotal: len(units),
				Error:        err.Error(),
			})
			if markErr := s.markChapterError(ctx, tutorialID, unit, err); markErr != nil {
				return fail("chapter save", markErr)
			}
			continue
		}
		if wasSkipped {
			skipped++
			s.emitPhase(ctx, run, tutorialID, unit.OrderIndex+1, len(units), "skipped", unit.FilePath)
		}
	}

	s.pruneStaleChapters(ctx, tutorialID, units)

	// Roll up and record the run
	if err := s.rollupAggregates(ctx, tutorial); err != nil {
		return fail("rollup", err)
	}

	now := time.Now()
	tutorial.Status = models.TutorialStatusCompleted
	tutorial.LastEvaluatedAt = &now
	tutorial.EvaluationDuration = time.Since(started).Seconds()
	if err := tutorials.SaveTutorial(ctx, tutorial); err != nil {
		return fail("save", err)
	}

	snapshot := &models.EvaluationSnapshot{
		ID:           common.NewRunID(),
		TutorialID:   tutorialID,
		OverallScore: tutorial.OverallScore,
		Grade:        tutorial.Grade,
		ChapterCount: tutorial.ChapterCount,
		SkippedCount: skipped,
		HighIssues:   tutorial.HighIssues,
		MediumIssues: tutorial.MediumIssues,
		LowIssues:    tutorial.LowIssues,
		Duration:     tutorial.EvaluationDuration,
		CreatedAt:    now,
	}
	if err := tutorials.SaveSnapshot(ctx, snapshot); err != nil {
		s.logger.Error().Err(err).Msg("Failed to save evaluation snapshot")
	}

	run.emit(models.ProgressEvent{
		Type:         models.ProgressTypeComplete,
		TutorialID:   tutorialID,
		ChapterTotal: len(units),
		OverallScore: tutorial.OverallScore,
		Grade:        tutorial.Grade,
	})
	s.publishEvent(ctx, interfaces.EventEvaluationCompleted, tutorial)

	s.logger.Info().
		Str("tutorial_id", tutorialID).
		Int("chapters", len(units)).
		Int("skipped", skipped).
		Int("overall_score", tutorial.OverallScore).
		Str("grade", tutorial.Grade).
		Float64("duration_seconds", tutorial.EvaluationDuration).
		Msg("Evaluation completed")

	return nil
}

// evaluateChapter evaluates one content unit, or skips it when the stored
// fingerprint matches. Skipping means zero model and search calls; the
// prior scores and issues stay in place.
func (s *Service) evaluateChapter(ctx context.Context, tutorial *models.Tutorial, unit models.ContentUnit) (bool, error) {
	chapters := s.storage.ChapterStorage()

	prior, err := chapters.GetChapterByIndex(ctx, tutorial.ID, unit.OrderIndex)
	if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return false, fmt.Errorf("failed to load prior chapter: %w", err)
	}

	if prior != nil && prior.Fingerprint == unit.Fingerprint && prior.Status == models.ChapterStatusCompleted {
		return true, nil
	}

	started := time.Now()

	chapter := &models.Chapter{
		ID:         common.NewChapterID(),
		TutorialID: tutorial.ID,
		OrderIndex: unit.OrderIndex,
	}
	if prior != nil {
		chapter.ID = prior.ID
		chapter.CreatedAt = prior.CreatedAt
	}

	chapter.FilePath = unit.FilePath
	chapter.Title = unit.Title
	chapter.Content = unit.Content
	chapter.Fingerprint = unit.Fingerprint
	chapter.WordCount = unit.WordCount
	chapter.HeadingCount = unit.HeadingCount
	chapter.CodeBlockCount = unit.CodeBlockCount
	chapter.ImageCount = unit.ImageCount
	chapter.LinkCount = unit.LinkCount
	chapter.Status = models.ChapterStatusEvaluating
	chapter.ErrorMessage = ""

	if err := chapters.SaveChapter(ctx, chapter); err != nil {
		return false, fmt.Errorf("failed to save chapter: %w", err)
	}

	// Findings from the previous evaluation of this chapter are superseded
	if err := s.storage.IssueStorage().DeleteIssuesByChapter(ctx, chapter.ID); err != nil {
		s.logger.Warn().Str("chapter_id", chapter.ID).Err(err).Msg("Failed to clear prior issues")
	}

	summary := s.analyzer.Analyze(ctx, unit.Content)

	rawResults := s.searchAgent.SearchMultiRound(ctx, summary)
	scored := s.references.EvaluateRelevance(rawResults, summary)
	relevant := s.references.FilterByRelevance(scored)
	references := s.references.TopReferences(relevant)
	refCtx := s.references.BuildContext(summary, relevant)

	// The three evaluators are independent; run them together
	var (
		wg                sync.WaitGroup
		depthResult       models.DepthResult
		qualityResult     models.QualityResult
		readabilityResult models.ReadabilityResult
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		depthResult = s.depth.Check(ctx, unit.Content, references)
	}()
	go func() {
		defer wg.Done()
		qualityResult = s.quality.Review(ctx, unit.Content, references)
	}()
	go func() {
		defer wg.Done()
		readabilityResult = s.readability.Check(ctx, unit.Content)
	}()
	wg.Wait()

	feedback := s.improver.Generate(ctx, unit.Content, refCtx, depthResult, qualityResult, readabilityResult)

	overall, dimensions := s.aggregator.Aggregate(depthResult, qualityResult, readabilityResult, summary.ContentType)

	issues := buildIssues(tutorial.ID, chapter.ID, depthResult, qualityResult, readabilityResult, feedback)
	if err := s.storage.IssueStorage().SaveIssues(ctx, issues); err != nil {
		return false, fmt.Errorf("failed to save issues: %w", err)
	}

	now := time.Now()
	chapter.Status = models.ChapterStatusCompleted
	chapter.OverallScore = overall
	chapter.Grade = review.GradeFor(overall)
	chapter.DepthScore = dimensions.Depth
	chapter.AccuracyScore = dimensions.Accuracy
	chapter.CompletenessScore = dimensions.Completeness
	chapter.LogicScore = dimensions.Logic
	chapter.ReadabilityScore = dimensions.Readability
	chapter.VocabularyScore = readabilityResult.VocabularyScore
	chapter.SyntaxScore = readabilityResult.SyntaxScore
	chapter.DiscourseScore = readabilityResult.DiscourseScore
	chapter.SurfaceScore = readabilityResult.SurfaceScore
	chapter.ReadabilityLevel = string(readabilityResult.Level)
	chapter.ContentType = string(summary.ContentType)
	chapter.Summary = s.aggregator.Summary(overall, dimensions, len(issues))
	chapter.HighIssues, chapter.MediumIssues, chapter.LowIssues = countBySeverity(issues)
	chapter.EvaluationDuration = time.Since(started).Seconds()
	chapter.LastEvaluatedAt = &now

	if err := chapters.SaveChapter(ctx, chapter); err != nil {
		return false, fmt.Errorf("failed to save evaluated chapter: %w", err)
	}

	return false, nil
}

// markChapterError records a terminal error state so a failed chapter does
// not sit in evaluating forever. The fingerprint skip requires completed
// status, so the chapter is re-evaluated on the next run.
func (s *Service) markChapterError(ctx context.Context, tutorialID string, unit models.ContentUnit, cause error) error {
	chapters := s.storage.ChapterStorage()

	chapter, err := chapters.GetChapterByIndex(ctx, tutorialID, unit.OrderIndex)
	if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("failed to load chapter for error state: %w", err)
	}
	if chapter == nil {
		chapter = &models.Chapter{
			ID:         common.NewChapterID(),
			TutorialID: tutorialID,
			OrderIndex: unit.OrderIndex,
			FilePath:   unit.FilePath,
			Title:      unit.Title,
		}
	}

	chapter.Status = models.ChapterStatusError
	chapter.ErrorMessage = cause.Error()
	if err := chapters.SaveChapter(ctx, chapter); err != nil {
		return fmt.Errorf("failed to persist chapter error state: %w", err)
	}

	return nil
}

// pruneStaleChapters removes chapter records whose file no longer exists in
// the scanned tree, along with their issues.
func (s *Service) pruneStaleChapters(ctx context.Context, tutorialID string, units []models.ContentUnit) {
	chapters, err := s.storage.ChapterStorage().ListChapters(ctx, tutorialID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to list chapters for pruning")
		return
	}

	current := make(map[int]bool, len(units))
	for _, unit := range units {
		current[unit.OrderIndex] = true
	}

	for _, chapter := range chapters {
		if current[chapter.OrderIndex] {
			continue
		}
		if err := s.storage.IssueStorage().DeleteIssuesByChapter(ctx, chapter.ID); err != nil {
			s.logger.Warn().Str("chapter_id", chapter.ID).Err(err).Msg("Failed to delete issues of stale chapter")
		}
		if err := s.storage.ChapterStorage().DeleteChapter(ctx, chapter.ID); err != nil {
			s.logger.Warn().Str("chapter_id", chapter.ID).Err(err).Msg("Failed to delete stale chapter")
		} else {
			s.logger.Info().
				Str("chapter_id", chapter.ID).
				Str("file", chapter.FilePath).
				Msg("Pruned chapter removed from repository")
		}
	}
}

// rollupAggregates recomputes the tutorial-level scores from its completed
// chapters.
func (s *Service) rollupAggregates(ctx context.Context, tutorial *models.Tutorial) error {
	chapters, err := s.storage.ChapterStorage().ListChapters(ctx, tutorial.ID)
	if err != nil {
		return fmt.Errorf("failed to list chapters: %w", err)
	}

	var (
		evaluated                                        int
		sumOverall                                       int
		sumDepth, sumAccuracy, sumCompleteness, sumLogic int
		sumReadability                                   int
	)
	for _, chapter := range chapters {
		if chapter.Status != models.ChapterStatusCompleted {
			continue
		}
		evaluated++
		sumOverall += chapter.OverallScore
		sumDepth += chapter.DepthScore
		sumAccuracy += chapter.AccuracyScore
		sumCompleteness += chapter.CompletenessScore
		sumLogic += chapter.LogicScore
		sumReadability += chapter.ReadabilityScore
	}

	tutorial.EvaluatedCount = evaluated
	if evaluated > 0 {
		n := float64(evaluated)
		tutorial.OverallScore = sumOverall / evaluated
		tutorial.Grade = review.GradeFor(tutorial.OverallScore)
		tutorial.AvgDepth = float64(sumDepth) / n
		tutorial.AvgAccuracy = float64(sumAccuracy) / n
		tutorial.AvgCompleteness = float64(sumCompleteness) / n
		tutorial.AvgLogic = float64(sumLogic) / n
		tutorial.AvgReadability = float64(sumReadability) / n
	}

	counts, err := s.storage.IssueStorage().CountIssuesBySeverity(ctx, tutorial.ID)
	if err != nil {
		return fmt.Errorf("failed to count issues: %w", err)
	}
	tutorial.HighIssues = counts[models.SeverityHigh]
	tutorial.MediumIssues = counts[models.SeverityMedium]
	tutorial.LowIssues = counts[models.SeverityLow]

	return nil
}

func (s *Service) emitPhase(ctx context.Context, run *Run, tutorialID string, index, total int, phase, detail string) {
	event := models.ProgressEvent{
		Type:         models.ProgressTypePhase,
		TutorialID:   tutorialID,
		ChapterIndex: index,
		ChapterTotal: total,
		Phase:        phase,
		Detail:       detail,
	}
	run.emit(event)
	s.publishEvent(ctx, interfaces.EventEvaluationProgress, event)
}

func (s *Service) publishEvent(ctx context.Context, eventType interfaces.EventType, payload any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, interfaces.Event{Type: eventType, Payload: payload}); err != nil {
		s.logger.Warn().Str("event_type", string(eventType)).Err(err).Msg("Failed to publish event")
	}
}

// severityForPriority maps an improvement priority back to a severity bucket
func severityForPriority(priority int) string {
	switch priority {
	case 1:
		return models.SeverityHigh
	case 2:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// buildIssues flattens evaluator findings and improvement feedback into
// persistable issue records.
func buildIssues(
	tutorialID, chapterID string,
	depth models.DepthResult,
	quality models.QualityResult,
	readability models.ReadabilityResult,
	feedback []models.ActionableFeedback,
) []*models.Issue {
	now := time.Now()
	var issues []*models.Issue

	for _, vp := range depth.VaguePoints {
		issues = append(issues, &models.Issue{
			ID:          common.NewIssueID(),
			TutorialID:  tutorialID,
			ChapterID:   chapterID,
			Category:    models.IssueCategoryDepth,
			IssueType:   "missing_detail",
			Severity:    models.SeverityMedium,
			Priority:    3,
			Location:    vp.Location,
			Description: vp.Issue,
			Suggestion:  vp.Suggestion,
			Effort:      "medium",
			CreatedAt:   now,
		})
	}

	for _, issue := range quality.Issues {
		priority := 4
		switch issue.Severity {
		case models.SeverityHigh:
			priority = 1
		case models.SeverityMedium:
			priority = 2
		}
		issues = append(issues, &models.Issue{
			ID:          common.NewIssueID(),
			TutorialID:  tutorialID,
			ChapterID:   chapterID,
			Category:    models.IssueCategoryQuality,
			IssueType:   issue.IssueType,
			Severity:    issue.Severity,
			Priority:    priority,
			Location:    issue.Location,
			Description: issue.Description,
			Suggestion:  issue.Suggestion,
			Reference:   issue.Reference,
			Effort:      "medium",
			CreatedAt:   now,
		})
	}

	for _, issue := range readability.Issues {
		priority := 4
		switch issue.Severity {
		case models.SeverityHigh:
			priority = 2
		case models.SeverityMedium:
			priority = 3
		}
		issues = append(issues, &models.Issue{
			ID:          common.NewIssueID(),
			TutorialID:  tutorialID,
			ChapterID:   chapterID,
			Category:    models.IssueCategoryReadability,
			IssueType:   issue.IssueType,
			Severity:    issue.Severity,
			Priority:    priority,
			Location:    issue.Location,
			Description: issue.Description,
			Suggestion:  issue.Suggestion,
			Effort:      "low",
			CreatedAt:   now,
		})
	}

	for _, fb := range feedback {
		issues = append(issues, &models.Issue{
			ID:          common.NewIssueID(),
			TutorialID:  tutorialID,
			ChapterID:   chapterID,
			Category:    models.IssueCategoryImprovement,
			IssueType:   fb.IssueType,
			Severity:    severityForPriority(fb.Priority),
			Priority:    fb.Priority,
			Location:    fb.Location,
			Description: fb.Problem,
			Suggestion:  fb.Action,
			Reference:   fb.Reference,
			Effort:      fb.EstimatedEffort,
			CreatedAt:   now,
		})
	}

	return issues
}

func countBySeverity(issues []*models.Issue) (high, medium, low int) {
	for _, issue := range issues {
		switch issue.Severity {
		case models.SeverityHigh:
			high++
		case models.SeverityMedium:
			medium++
		case models.SeverityLow:
			low++
		}
	}
	return high, medium, low
}
