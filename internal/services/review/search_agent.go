package review

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/lectorhq/lector/internal/common"
	"github.com/lectorhq/lector/internal/interfaces"
	"github.com/lectorhq/lector/internal/models"
)

// SearchAgent gathers reference material for a chapter by fanning queries
// out to the web search service. A nil search service disables searching
// without failing the pipeline.
type SearchAgent struct {
	search interfaces.WebSearchService
	config *common.SearchConfig
	logger arbor.ILogger
}

// NewSearchAgent creates a search agent
func NewSearchAgent(search interfaces.WebSearchService, config *common.SearchConfig, logger arbor.ILogger) *SearchAgent {
	return &SearchAgent{
		search: search,
		config: config,
		logger: logger,
	}
}

// Search runs all queries concurrently and merges results in query order,
// deduplicating by source URL first-wins. A failed query is logged and
// skipped so the remaining queries still contribute.
func (a *SearchAgent) Search(ctx context.Context, queries []string, maxResultsPerQuery int) []models.SearchResult {
	if a.search == nil {
		a.logger.Warn().Msg("Search service not available")
		return nil
	}
	if len(queries) == 0 {
		return nil
	}

	perQuery := make([][]models.SearchResult, len(queries))

	var wg sync.WaitGroup
	for i, query := range queries {
		wg.Add(1)
		go func(i int, query string) {
			defer wg.Done()

			results, err := a.search.Search(ctx, query, maxResultsPerQuery)
			if err != nil {
				a.logger.Warn().
					Str("query", query).
					Err(err).
					Msg("Search query failed")
				return
			}
			perQuery[i] = results
		}(i, query)
	}
	wg.Wait()

	seen := make(map[string]bool)
	var merged []models.SearchResult
	for _, results := range perQuery {
		for _, result := range results {
			if result.SourceURL == "" || seen[result.SourceURL] {
				continue
			}
			seen[result.SourceURL] = true
			merged = append(merged, result)
		}
	}

	a.logger.Info().
		Int("query_count", len(queries)).
		Int("result_count", len(merged)).
		Msg("Search completed")

	return merged
}

// SearchMultiRound runs up to two search rounds: first the summary's own
// search queries, then topic-plus-key-term queries to widen coverage.
// Duplicate URLs across rounds are dropped first-wins.
func (a *SearchAgent) SearchMultiRound(ctx context.Context, summary models.ContentSummary) []models.SearchResult {
	var all []models.SearchResult
	seen := make(map[string]bool)

	appendNew := func(results []models.SearchResult) {
		for _, result := range results {
			if result.SourceURL == "" || seen[result.SourceURL] {
				continue
			}
			seen[result.SourceURL] = true
			all = append(all, result)
		}
	}

	// Round one: the summary's own queries
	if len(summary.SearchQueries) > 0 {
		queries := summary.SearchQueries
		if len(queries) > a.config.MaxSummaryQueries {
			queries = queries[:a.config.MaxSummaryQueries]
		}
		appendNew(a.Search(ctx, queries, a.config.MaxResultsPerQuery/3+1))
	}

	// Round two: topic combined with key terms
	if a.config.MaxRounds >= 2 && len(summary.KeyTerms) > 0 {
		terms := summary.KeyTerms
		if len(terms) > a.config.MaxTermQueries {
			terms = terms[:a.config.MaxTermQueries]
		}

		termQueries := make([]string, 0, len(terms))
		for _, term := range terms {
			termQueries = append(termQueries, fmt.Sprintf("%s %s", summary.Topic, term))
		}
		appendNew(a.Search(ctx, termQueries, 2))
	}

	return all
}
