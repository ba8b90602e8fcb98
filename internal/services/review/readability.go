package review

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/lectorhq/lector/internal/interfaces"
	"github.com/lectorhq/lector/internal/models"
)

const readabilityPromptTemplate = `You are a readability reviewer. Rate how easy the following text is to read along four dimensions:
- vocabulary: word choice and unexplained jargon
- syntax: sentence length and structure
- discourse: paragraph flow, transitions, signposting
- surface: formatting, headings, code block presentation

Classify each problem: "issue_type" is a short tag like "long_sentence", "jargon", "wall_of_text"; "severity" is "high", "medium" or "low".

Respond with JSON only:
{
  "score": <0-100, overall readability>,
  "level": <"easy"|"normal"|"hard">,
  "vocabulary_score": <0-100>,
  "syntax_score": <0-100>,
  "discourse_score": <0-100>,
  "surface_score": <0-100>,
  "issues": [
    {"issue_type": "...", "severity": "...", "location": "<where>", "description": "<what hurts readability>", "suggestion": "<the fix>"}
  ],
  "summary": "<one sentence verdict>"
}

Text to review:
---
%s
---`

// ReadabilityChecker rates how demanding a chapter is to read
type ReadabilityChecker struct {
	llm    interfaces.LLMService
	logger arbor.ILogger
}

// NewReadabilityChecker creates a readability checker
func NewReadabilityChecker(llm interfaces.LLMService, logger arbor.ILogger) *ReadabilityChecker {
	return &ReadabilityChecker{llm: llm, logger: logger}
}

type readabilityPayload struct {
	Score           *int                  `json:"score"`
	Level           *string               `json:"level"`
	VocabularyScore *int                  `json:"vocabulary_score"`
	SyntaxScore     *int                  `json:"syntax_score"`
	DiscourseScore  *int                  `json:"discourse_score"`
	SurfaceScore    *int                  `json:"surface_score"`
	Issues          []models.ContentIssue `json:"issues"`
	Summary         *string               `json:"summary"`
}

// Check evaluates readability. Errors degrade to the neutral default.
func (c *ReadabilityChecker) Check(ctx context.Context, content string) models.ReadabilityResult {
	prompt := fmt.Sprintf(readabilityPromptTemplate, content)

	var payload readabilityPayload
	if err := chatJSON(ctx, c.llm, prompt, &payload); err != nil {
		c.logger.Warn().Err(err).Msg("Readability check failed, using default result")
		return defaultReadabilityResult()
	}

	return models.ReadabilityResult{
		Score:           intVal(payload.Score, 70),
		Level:           models.ParseReadabilityLevel(strVal(payload.Level, "normal")),
		Issues:          payload.Issues,
		Summary:         strVal(payload.Summary, ""),
		VocabularyScore: intVal(payload.VocabularyScore, 70),
		SyntaxScore:     intVal(payload.SyntaxScore, 70),
		DiscourseScore:  intVal(payload.DiscourseScore, 70),
		SurfaceScore:    intVal(payload.SurfaceScore, 70),
	}
}

func defaultReadabilityResult() models.ReadabilityResult {
	return models.ReadabilityResult{
		Score:           70,
		Level:           models.ReadabilityLevelNormal,
		Summary:         "readability check completed",
		VocabularyScore: 70,
		SyntaxScore:     70,
		DiscourseScore:  70,
		SurfaceScore:    70,
	}
}
