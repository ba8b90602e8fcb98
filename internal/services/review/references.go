package review

import (
	"sort"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/lectorhq/lector/internal/common"
	"github.com/lectorhq/lector/internal/models"
)

// ReferenceManager scores search results against the chapter summary and
// selects the references handed to the evaluators.
type ReferenceManager struct {
	config *common.ReviewerConfig
	logger arbor.ILogger
}

// NewReferenceManager creates a reference manager
func NewReferenceManager(config *common.ReviewerConfig, logger arbor.ILogger) *ReferenceManager {
	return &ReferenceManager{config: config, logger: logger}
}

// EvaluateRelevance assigns a relevance score to each result and returns
// them sorted highest first. Ordering is stable so equal scores keep their
// search order.
func (m *ReferenceManager) EvaluateRelevance(results []models.SearchResult, summary models.ContentSummary) []models.SearchResult {
	if len(results) == 0 {
		return nil
	}

	scored := make([]models.SearchResult, len(results))
	copy(scored, results)
	for i := range scored {
		scored[i].RelevanceScore = m.calculateRelevance(scored[i], summary)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RelevanceScore > scored[j].RelevanceScore
	})

	return scored
}

// calculateRelevance is a keyword-match heuristic over title and snippet.
// The three components (topic, key terms, core points) are weighted by the
// configured weights and the total is clamped to [0, 1].
func (m *ReferenceManager) calculateRelevance(result models.SearchResult, summary models.ContentSummary) float64 {
	score := 0.0
	text := strings.ToLower(result.Title + " " + result.Snippet)

	if summary.Topic != "" && strings.Contains(text, strings.ToLower(summary.Topic)) {
		score += m.config.TopicWeight
	}

	if len(summary.KeyTerms) > 0 {
		matched := 0
		for _, term := range summary.KeyTerms {
			if strings.Contains(text, strings.ToLower(term)) {
				matched++
			}
		}
		score += m.config.TermWeight * float64(matched) / float64(len(summary.KeyTerms))
	}

	if len(summary.CorePoints) > 0 {
		textWords := make(map[string]bool)
		for _, w := range strings.Fields(text) {
			textWords[w] = true
		}

		matched := 0
		for _, point := range summary.CorePoints {
			overlap := 0
			for _, w := range strings.Fields(strings.ToLower(point)) {
				if textWords[w] {
					overlap++
				}
			}
			if overlap >= 2 {
				matched++
			}
		}
		score += m.config.ClaimWeight * float64(matched) / float64(len(summary.CorePoints))
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// FilterByRelevance drops results below the configured threshold
func (m *ReferenceManager) FilterByRelevance(results []models.SearchResult) []models.SearchResult {
	filtered := make([]models.SearchResult, 0, len(results))
	for _, r := range results {
		if r.RelevanceScore >= m.config.RelevanceThreshold {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// BuildContext assembles the reference context carried through a chapter run
func (m *ReferenceManager) BuildContext(summary models.ContentSummary, results []models.SearchResult) models.ReferenceContext {
	return models.ReferenceContext{
		Summary:       summary,
		SearchResults: results,
	}
}

// TopReferences projects the best results into the reference shape passed
// to the evaluator prompts. Input must already be sorted by relevance.
func (m *ReferenceManager) TopReferences(results []models.SearchResult) []models.Reference {
	topK := m.config.MaxReferences
	if len(results) < topK {
		topK = len(results)
	}

	refs := make([]models.Reference, 0, topK)
	for _, r := range results[:topK] {
		refs = append(refs, models.Reference{
			Title:          r.Title,
			SourceURL:      r.SourceURL,
			Snippet:        r.Snippet,
			RelevanceScore: r.RelevanceScore,
		})
	}
	return refs
}
