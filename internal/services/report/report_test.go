package report

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/lectorhq/lector/internal/common"
	"github.com/lectorhq/lector/internal/interfaces"
	"github.com/lectorhq/lector/internal/models"
	"github.com/lectorhq/lector/internal/storage/badger"
)

func seedReportData(t *testing.T) (interfaces.StorageManager, string) {
	t.Helper()

	cfg := &common.BadgerConfig{Path: filepath.Join(t.TempDir(), "data")}
	storage, err := badger.NewManager(arbor.NewLogger(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })

	ctx := context.Background()
	now := time.Now()

	tutorial := &models.Tutorial{
		ID:              "tut_report",
		Name:            "go-course",
		RepoURL:         "https://github.com/acme/go-course.git",
		Branch:          "main",
		Status:          models.TutorialStatusCompleted,
		ChapterCount:    2,
		EvaluatedCount:  2,
		OverallScore:    78,
		Grade:           "C",
		AvgDepth:        75,
		AvgAccuracy:     82,
		AvgCompleteness: 76,
		AvgLogic:        79,
		AvgReadability:  80,
		HighIssues:      1,
		MediumIssues:    1,
		LastEvaluatedAt: &now,
	}
	require.NoError(t, storage.TutorialStorage().SaveTutorial(ctx, tutorial))

	chapters := []*models.Chapter{
		{
			ID: "ch_1", TutorialID: tutorial.ID, OrderIndex: 0,
			FilePath: "docs/01-intro.md", Title: "Introduction",
			Status: models.ChapterStatusCompleted, OverallScore: 82, Grade: "B",
			DepthScore: 80, AccuracyScore: 85, CompletenessScore: 78, LogicScore: 82, ReadabilityScore: 84,
			Summary: "Overall score 82 (grade B).",
		},
		{
			ID: "ch_2", TutorialID: tutorial.ID, OrderIndex: 1,
			FilePath: "docs/02-setup.md", Title: "Setup",
			Status: models.ChapterStatusCompleted, OverallScore: 74, Grade: "C",
			DepthScore: 70, AccuracyScore: 79, CompletenessScore: 74, LogicScore: 76, ReadabilityScore: 76,
			HighIssues: 1, MediumIssues: 1,
		},
	}
	for _, c := range chapters {
		require.NoError(t, storage.ChapterStorage().SaveChapter(ctx, c))
	}

	issues := []*models.Issue{
		{
			ID: "iss_1", TutorialID: tutorial.ID, ChapterID: "ch_2",
			Category: models.IssueCategoryQuality, IssueType: "factual_error",
			Severity: models.SeverityHigh, Priority: 1,
			Location: "step 3", Description: "install command uses removed flag",
			Suggestion: "drop the -g flag", Reference: "https://ref.example/install",
		},
		{
			ID: "iss_2", TutorialID: tutorial.ID, ChapterID: "ch_2",
			Category: models.IssueCategoryReadability, IssueType: "wall_of_text",
			Severity: models.SeverityMedium, Priority: 3,
			Location: "intro", Description: "first paragraph is 20 lines",
			Suggestion: "split into three paragraphs",
		},
	}
	require.NoError(t, storage.IssueStorage().SaveIssues(ctx, issues))

	return storage, tutorial.ID
}

func TestMarkdownReport(t *testing.T) {
	storage, tutorialID := seedReportData(t)
	gen := NewGenerator(storage, arbor.NewLogger())

	md, err := gen.Markdown(context.Background(), tutorialID)
	require.NoError(t, err)

	require.Contains(t, md, "# Evaluation Report: go-course")
	require.Contains(t, md, "Overall score: **78** (grade C)")
	require.Contains(t, md, "| 1 | Introduction | 82 | B |")
	require.Contains(t, md, "| 2 | Setup | 74 | C |")
	require.Contains(t, md, "install command uses removed flag")
	require.Contains(t, md, "Fix: drop the -g flag")
	require.Contains(t, md, "Reference: https://ref.example/install")

	// Issues ordered by priority: the factual error before the style nit
	require.Less(t,
		strings.Index(md, "install command uses removed flag"),
		strings.Index(md, "first paragraph is 20 lines"))

	// No issue section for the clean chapter
	require.NotContains(t, md, "### 1. Introduction")
}

func TestMarkdownReportDeterministic(t *testing.T) {
	storage, tutorialID := seedReportData(t)
	gen := NewGenerator(storage, arbor.NewLogger())

	first, err := gen.Markdown(context.Background(), tutorialID)
	require.NoError(t, err)
	second, err := gen.Markdown(context.Background(), tutorialID)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestPDFReport(t *testing.T) {
	storage, tutorialID := seedReportData(t)
	gen := NewGenerator(storage, arbor.NewLogger())

	pdf, err := gen.PDF(context.Background(), tutorialID)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(pdf, []byte("%PDF")), "output should be a PDF document")
	require.Greater(t, len(pdf), 1000)
}

func TestReportUnknownTutorial(t *testing.T) {
	storage, _ := seedReportData(t)
	gen := NewGenerator(storage, arbor.NewLogger())

	_, err := gen.Markdown(context.Background(), "tut_missing")
	require.Error(t, err)
}
