package review

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/lectorhq/lector/internal/interfaces"
	"github.com/lectorhq/lector/internal/models"
)

const qualityPromptTemplate = `You are a quality reviewer for tutorial content. Check the text for factual accuracy, logical consistency and completeness. When reference material is provided, verify claims against it and cite the reference in the issue.

Classify each problem you find:
- "issue_type": "factual_error", "logic_gap", "missing_section", "outdated", or another short tag
- "severity": "high" for wrong or misleading statements, "medium" for gaps that weaken the text, "low" for polish

Respond with JSON only:
{
  "score": <0-100, overall quality>,
  "approved": <true if the text is publishable as-is>,
  "logic_score": <0-100>,
  "accuracy_score": <0-100>,
  "completeness_score": <0-100>,
  "issues": [
    {"issue_type": "...", "severity": "...", "location": "<where>", "description": "<what is wrong>", "suggestion": "<the fix>", "reference": "<supporting source url, optional>"}
  ],
  "summary": "<one sentence verdict>"
}
%s
Text to review:
---
%s
---`

// QualityReviewer verifies accuracy, logic and completeness, using web
// references for fact checking when available.
type QualityReviewer struct {
	llm    interfaces.LLMService
	logger arbor.ILogger
}

// NewQualityReviewer creates a quality reviewer
func NewQualityReviewer(llm interfaces.LLMService, logger arbor.ILogger) *QualityReviewer {
	return &QualityReviewer{llm: llm, logger: logger}
}

type qualityPayload struct {
	Score             *int                  `json:"score"`
	Approved          *bool                 `json:"approved"`
	LogicScore        *int                  `json:"logic_score"`
	AccuracyScore     *int                  `json:"accuracy_score"`
	CompletenessScore *int                  `json:"completeness_score"`
	Issues            []models.ContentIssue `json:"issues"`
	Summary           *string               `json:"summary"`
}

// Review evaluates content quality. Errors degrade to the neutral default.
func (r *QualityReviewer) Review(ctx context.Context, content string, references []models.Reference) models.QualityResult {
	prompt := fmt.Sprintf(qualityPromptTemplate, renderReferences(references), content)

	var payload qualityPayload
	if err := chatJSON(ctx, r.llm, prompt, &payload); err != nil {
		r.logger.Warn().Err(err).Msg("Quality review failed, using default result")
		return defaultQualityResult()
	}

	return models.QualityResult{
		Score:             intVal(payload.Score, 70),
		Approved:          boolVal(payload.Approved, true),
		Issues:            payload.Issues,
		Summary:           strVal(payload.Summary, ""),
		LogicScore:        intVal(payload.LogicScore, 70),
		AccuracyScore:     intVal(payload.AccuracyScore, 70),
		CompletenessScore: intVal(payload.CompletenessScore, 70),
	}
}

func defaultQualityResult() models.QualityResult {
	return models.QualityResult{
		Score:             70,
		Approved:          true,
		Summary:           "quality review completed",
		LogicScore:        70,
		AccuracyScore:     70,
		CompletenessScore: 70,
	}
}
