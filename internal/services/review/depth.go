package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/lectorhq/lector/internal/interfaces"
	"github.com/lectorhq/lector/internal/models"
)

const depthPromptTemplate = `You are a depth reviewer for tutorial content. Judge whether the text explains its subject deeply enough for a reader to actually apply it, or stays at a superficial level.

Look for:
- claims stated without explanation or evidence
- steps that skip over the "why"
- vague wording where a concrete example or number is needed

Respond with JSON only:
{
  "score": <0-100, depth score>,
  "is_detailed_enough": <true|false>,
  "vague_points": [
    {"location": "<where in the text>", "issue": "<what is vague>", "question": "<the question a reader would ask>", "suggestion": "<how to make it concrete>"}
  ],
  "summary": "<one sentence verdict>"
}
%s
Text to review:
---
%s
---`

// DepthChecker finds the places where a chapter stays vague and a reader
// would be left with questions.
type DepthChecker struct {
	llm    interfaces.LLMService
	logger arbor.ILogger
}

// NewDepthChecker creates a depth checker
func NewDepthChecker(llm interfaces.LLMService, logger arbor.ILogger) *DepthChecker {
	return &DepthChecker{llm: llm, logger: logger}
}

type depthPayload struct {
	Score            *int               `json:"score"`
	IsDetailedEnough *bool              `json:"is_detailed_enough"`
	VaguePoints      []models.VaguePoint `json:"vague_points"`
	Summary          *string            `json:"summary"`
}

// Check evaluates content depth. Errors degrade to the neutral default.
func (c *DepthChecker) Check(ctx context.Context, content string, references []models.Reference) models.DepthResult {
	prompt := fmt.Sprintf(depthPromptTemplate, renderReferences(references), content)

	var payload depthPayload
	if err := chatJSON(ctx, c.llm, prompt, &payload); err != nil {
		c.logger.Warn().Err(err).Msg("Depth check failed, using default result")
		return defaultDepthResult()
	}

	return models.DepthResult{
		Score:            intVal(payload.Score, 70),
		IsDetailedEnough: boolVal(payload.IsDetailedEnough, true),
		VaguePoints:      payload.VaguePoints,
		Summary:          strVal(payload.Summary, ""),
	}
}

func defaultDepthResult() models.DepthResult {
	return models.DepthResult{
		Score:            70,
		IsDetailedEnough: true,
		Summary:          "depth check completed",
	}
}

// renderReferences formats references as a prompt section, empty when there
// are none.
func renderReferences(references []models.Reference) string {
	if len(references) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\nReference material gathered from the web:\n")
	for i, ref := range references {
		sb.WriteString(fmt.Sprintf("%d. %s (%s)\n   %s\n", i+1, ref.Title, ref.SourceURL, ref.Snippet))
	}
	return sb.String()
}
