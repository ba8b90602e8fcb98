package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/lectorhq/lector/internal/interfaces"
	"github.com/lectorhq/lector/internal/models"
)

const analyzePromptTemplate = `You are a content analyst. Analyze the following text and respond with JSON only.

Identify:
- "topic": the main topic in one short phrase
- "content_type": one of "technical_tutorial", "science_popular", "documentation", "news", "opinion", "unknown"
- "core_points": up to 5 core claims or points the text makes
- "key_terms": up to 8 key technical terms or named concepts
- "fact_claims": up to 5 concrete factual claims that could be verified against external sources
- "search_queries": 3 web search queries, each from a different angle (verification, background, alternatives), that would surface good reference material

Respond with a single JSON object containing exactly these keys.

Text to analyze:
---
%s
---`

// Analyzer identifies the content type, key terms and search angles of a
// chapter. Results feed the search agent and the score weighting.
type Analyzer struct {
	llm    interfaces.LLMService
	logger arbor.ILogger
}

// NewAnalyzer creates a content analyzer
func NewAnalyzer(llm interfaces.LLMService, logger arbor.ILogger) *Analyzer {
	return &Analyzer{llm: llm, logger: logger}
}

type analyzePayload struct {
	Topic         string   `json:"topic"`
	ContentType   string   `json:"content_type"`
	CorePoints    []string `json:"core_points"`
	KeyTerms      []string `json:"key_terms"`
	FactClaims    []string `json:"fact_claims"`
	SearchQueries []string `json:"search_queries"`
}

// Analyze summarizes content for downstream stages. It never fails: any
// model or parse error degrades to a keyword-derived default summary.
func (a *Analyzer) Analyze(ctx context.Context, content string) models.ContentSummary {
	prompt := fmt.Sprintf(analyzePromptTemplate, content)

	var payload analyzePayload
	if err := chatJSON(ctx, a.llm, prompt, &payload); err != nil {
		a.logger.Warn().Err(err).Msg("Content analysis failed, using default summary")
		return defaultSummary(content)
	}

	return models.ContentSummary{
		Topic:         payload.Topic,
		ContentType:   models.ParseContentType(payload.ContentType),
		CorePoints:    payload.CorePoints,
		KeyTerms:      payload.KeyTerms,
		FactClaims:    payload.FactClaims,
		SearchQueries: payload.SearchQueries,
	}
}

// defaultSummary derives a minimal summary from the leading words of the
// content so search still has one query to work with.
func defaultSummary(content string) models.ContentSummary {
	if len(content) > 500 {
		content = content[:500]
	}

	words := strings.Fields(content)
	if len(words) > 10 {
		words = words[:10]
	}

	var queries []string
	if len(words) > 0 {
		head := words
		if len(head) > 5 {
			head = head[:5]
		}
		queries = []string{strings.Join(head, " ")}
	}

	return models.ContentSummary{
		ContentType:   models.ContentTypeUnknown,
		SearchQueries: queries,
	}
}
