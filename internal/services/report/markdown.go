package report

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/lectorhq/lector/internal/interfaces"
	"github.com/lectorhq/lector/internal/models"
)

// Generator renders evaluation reports from persisted records only, so a
// report never triggers model or search calls and two exports of the same
// state are identical.
type Generator struct {
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

// NewGenerator creates a report generator
func NewGenerator(storage interfaces.StorageManager, logger arbor.ILogger) *Generator {
	return &Generator{storage: storage, logger: logger}
}

// reportData is the assembled input both renderers share
type reportData struct {
	Tutorial *models.Tutorial
	Chapters []*models.Chapter
	Issues   map[string][]*models.Issue // keyed by chapter ID, sorted by priority
}

func (g *Generator) load(ctx context.Context, tutorialID string) (*reportData, error) {
	tutorial, err := g.storage.TutorialStorage().GetTutorial(ctx, tutorialID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tutorial: %w", err)
	}

	chapters, err := g.storage.ChapterStorage().ListChapters(ctx, tutorialID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chapters: %w", err)
	}

	issues := make(map[string][]*models.Issue)
	for _, chapter := range chapters {
		chapterIssues, err := g.storage.IssueStorage().ListIssues(ctx, tutorialID, chapter.ID, "")
		if err != nil {
			return nil, fmt.Errorf("failed to load issues: %w", err)
		}
		sort.SliceStable(chapterIssues, func(i, j int) bool {
			if chapterIssues[i].Priority != chapterIssues[j].Priority {
				return chapterIssues[i].Priority < chapterIssues[j].Priority
			}
			return chapterIssues[i].ID < chapterIssues[j].ID
		})
		issues[chapter.ID] = chapterIssues
	}

	return &reportData{Tutorial: tutorial, Chapters: chapters, Issues: issues}, nil
}

// Markdown renders the full evaluation report as a markdown document
func (g *Generator) Markdown(ctx context.Context, tutorialID string) (string, error) {
	data, err := g.load(ctx, tutorialID)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	t := data.Tutorial

	sb.WriteString(fmt.Sprintf("# Evaluation Report: %s\n\n", t.Name))
	sb.WriteString(fmt.Sprintf("- Repository: %s (branch %s)\n", t.RepoURL, t.Branch))
	sb.WriteString(fmt.Sprintf("- Status: %s\n", t.Status))
	if t.LastEvaluatedAt != nil {
		sb.WriteString(fmt.Sprintf("- Last evaluated: %s\n", t.LastEvaluatedAt.Format(time.RFC3339)))
	}
	sb.WriteString(fmt.Sprintf("- Overall score: **%d** (grade %s)\n", t.OverallScore, t.Grade))
	sb.WriteString(fmt.Sprintf("- Issues: %d high, %d medium, %d low\n\n",
		t.HighIssues, t.MediumIssues, t.LowIssues))

	sb.WriteString("## Dimension averages\n\n")
	sb.WriteString("| Depth | Accuracy | Completeness | Logic | Readability |\n")
	sb.WriteString("|---|---|---|---|---|\n")
	sb.WriteString(fmt.Sprintf("| %.1f | %.1f | %.1f | %.1f | %.1f |\n\n",
		t.AvgDepth, t.AvgAccuracy, t.AvgCompleteness, t.AvgLogic, t.AvgReadability))

	sb.WriteString("## Chapters\n\n")
	sb.WriteString("| # | Chapter | Score | Grade | Depth | Accuracy | Completeness | Logic | Readability | Issues |\n")
	sb.WriteString("|---|---|---|---|---|---|---|---|---|---|\n")
	for _, c := range data.Chapters {
		issueTotal := c.HighIssues + c.MediumIssues + c.LowIssues
		sb.WriteString(fmt.Sprintf("| %d | %s | %d | %s | %d | %d | %d | %d | %d | %d |\n",
			c.OrderIndex+1, c.Title, c.OverallScore, c.Grade,
			c.DepthScore, c.AccuracyScore, c.CompletenessScore, c.LogicScore, c.ReadabilityScore,
			issueTotal))
	}
	sb.WriteString("\n")

	for _, c := range data.Chapters {
		chapterIssues := data.Issues[c.ID]
		if len(chapterIssues) == 0 {
			continue
		}

		sb.WriteString(fmt.Sprintf("### %d. %s (%s)\n\n", c.OrderIndex+1, c.Title, c.FilePath))
		if c.Summary != "" {
			sb.WriteString(c.Summary + "\n\n")
		}

		for _, issue := range chapterIssues {
			resolved := ""
			if issue.Resolved {
				resolved = " [resolved]"
			}
			sb.WriteString(fmt.Sprintf("- **P%d %s/%s**%s %s", issue.Priority, issue.Category, issue.Severity, resolved, issue.Description))
			if issue.Location != "" {
				sb.WriteString(fmt.Sprintf(" (%s)", issue.Location))
			}
			sb.WriteString("\n")
			if issue.Suggestion != "" {
				sb.WriteString(fmt.Sprintf("  - Fix: %s\n", issue.Suggestion))
			}
			if issue.Reference != "" {
				sb.WriteString(fmt.Sprintf("  - Reference: %s\n", issue.Reference))
			}
		}
		sb.WriteString("\n")
	}

	return sb.String(), nil
}
