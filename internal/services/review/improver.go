package review

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ternarybob/arbor"

	"github.com/lectorhq/lector/internal/interfaces"
	"github.com/lectorhq/lector/internal/models"
)

const improvePromptTemplate = `You are an editor turning review findings into a prioritized work list for the author. Merge overlapping findings, drop trivia, and make every action concrete enough to execute without re-reading the reviews.

Priorities: 1 = must fix (wrong or misleading), 2 = should fix (weakens the text), 3 = worth adding (depth), 4 = polish.
Effort: "low", "medium", "high".

Respond with JSON only:
{
  "feedback": [
    {"priority": <1-4>, "location": "<where>", "issue_type": "<short tag>", "problem": "<what is wrong>", "action": "<what to do>", "reference": "<source url, optional>", "estimated_effort": "<low|medium|high>"}
  ]
}

Chapter context (summary and web sources the reviewers consulted):
%s

Depth findings:
%s

Quality findings:
%s

Readability findings:
%s

Original text:
---
%s
---`

// Improver turns the three evaluator results into a single prioritized
// action list. When the model is unavailable it falls back to a
// deterministic mapping of the raw findings.
type Improver struct {
	llm    interfaces.LLMService
	logger arbor.ILogger
}

// NewImprover creates an improver
func NewImprover(llm interfaces.LLMService, logger arbor.ILogger) *Improver {
	return &Improver{llm: llm, logger: logger}
}

type improvePayload struct {
	Feedback []models.ActionableFeedback `json:"feedback"`
}

// Generate produces actionable feedback sorted ascending by priority
func (i *Improver) Generate(
	ctx context.Context,
	content string,
	refCtx models.ReferenceContext,
	depth models.DepthResult,
	quality models.QualityResult,
	readability models.ReadabilityResult,
) []models.ActionableFeedback {
	prompt := fmt.Sprintf(improvePromptTemplate,
		mustJSON(refCtx), mustJSON(depth), mustJSON(quality), mustJSON(readability), content)

	var payload improvePayload
	if err := chatJSON(ctx, i.llm, prompt, &payload); err != nil {
		i.logger.Warn().Err(err).Msg("Improvement generation failed, deriving feedback from findings")
		return FeedbackFromResults(depth, quality, readability)
	}

	feedback := payload.Feedback
	for idx := range feedback {
		if feedback[idx].Priority <= 0 {
			feedback[idx].Priority = 3
		}
		if feedback[idx].EstimatedEffort == "" {
			feedback[idx].EstimatedEffort = "medium"
		}
	}

	sort.SliceStable(feedback, func(a, b int) bool {
		return feedback[a].Priority < feedback[b].Priority
	})
	return feedback
}

// FeedbackFromResults maps evaluator findings directly to feedback items.
// Quality issues outrank readability issues at the same severity because
// correctness beats polish.
func FeedbackFromResults(
	depth models.DepthResult,
	quality models.QualityResult,
	readability models.ReadabilityResult,
) []models.ActionableFeedback {
	var feedback []models.ActionableFeedback

	for _, vp := range depth.VaguePoints {
		feedback = append(feedback, models.ActionableFeedback{
			Priority:        3,
			Location:        vp.Location,
			IssueType:       "missing_detail",
			Problem:         vp.Issue,
			Action:          vp.Suggestion,
			EstimatedEffort: "medium",
		})
	}

	for _, issue := range quality.Issues {
		priority := 4
		effort := "medium"
		switch issue.Severity {
		case "high":
			priority = 1
		case "medium":
			priority = 2
		default:
			effort = "low"
		}
		feedback = append(feedback, models.ActionableFeedback{
			Priority:        priority,
			Location:        issue.Location,
			IssueType:       issue.IssueType,
			Problem:         issue.Description,
			Action:          issue.Suggestion,
			Reference:       issue.Reference,
			EstimatedEffort: effort,
		})
	}

	for _, issue := range readability.Issues {
		priority := 4
		switch issue.Severity {
		case "high":
			priority = 2
		case "medium":
			priority = 3
		}
		feedback = append(feedback, models.ActionableFeedback{
			Priority:        priority,
			Location:        issue.Location,
			IssueType:       issue.IssueType,
			Problem:         issue.Description,
			Action:          issue.Suggestion,
			EstimatedEffort: "low",
		})
	}

	sort.SliceStable(feedback, func(a, b int) bool {
		return feedback[a].Priority < feedback[b].Priority
	})
	return feedback
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
