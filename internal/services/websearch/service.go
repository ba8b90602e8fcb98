package websearch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/lectorhq/lector/internal/common"
	"github.com/lectorhq/lector/internal/models"
	"github.com/lectorhq/lector/internal/services/llm"
)

const searchTimeout = 5 * time.Minute

// Service implements interfaces.WebSearchService using the Gemini SDK with
// GoogleSearch grounding. Each query runs a grounded generation and the
// grounding chunks become search results.
type Service struct {
	config  *common.GeminiConfig
	limiter *rate.Limiter
	logger  arbor.ILogger

	// The client is created lazily and shared across concurrent query
	// goroutines, so initialization is guarded.
	mu     sync.Mutex
	client *genai.Client
}

// NewService creates a grounded web search service
func NewService(config *common.GeminiConfig, logger arbor.ILogger) *Service {
	interval, err := time.ParseDuration(config.RateLimit)
	if err != nil || interval <= 0 {
		interval = 4 * time.Second
	}

	return &Service{
		config:  config,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		logger:  logger,
	}
}

func (s *Service) getClient(ctx context.Context) (*genai.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}

	if s.config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key not configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  s.config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	s.client = client
	return client, nil
}

// Search executes a grounded search for the query and returns up to limit results
func (s *Service) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}
	if limit <= 0 {
		limit = 5
	}

	client, err := s.getClient(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait cancelled: %w", err)
	}

	searchCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	model := s.config.SearchModel
	if model == "" {
		model = s.config.Model
	}

	searchTool := &genai.Tool{GoogleSearch: &genai.GoogleSearch{}}
	config := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{searchTool},
	}

	prompt := fmt.Sprintf(`Search the web for: %s
Summarize the most relevant findings with specific facts and figures.`, query)

	s.logger.Debug().
		Str("query", query).
		Str("model", model).
		Msg("Executing grounded web search")

	var resp *genai.GenerateContentResponse
	var apiErr error
	retryConfig := llm.NewDefaultRetryConfig()

	for attempt := 0; attempt <= retryConfig.MaxRetries; attempt++ {
		resp, apiErr = client.Models.GenerateContent(
			searchCtx,
			model,
			[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
			config,
		)
		if apiErr == nil {
			break
		}

		if attempt == retryConfig.MaxRetries || !llm.IsRateLimitError(apiErr) {
			break
		}

		backoff := retryConfig.CalculateBackoff(attempt, llm.ExtractRetryDelay(apiErr))
		s.logger.Warn().
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(apiErr).
			Msg("Retrying grounded web search")

		select {
		case <-searchCtx.Done():
			return nil, searchCtx.Err()
		case <-time.After(backoff):
		}
	}

	if apiErr != nil {
		return nil, fmt.Errorf("web search failed: %w", apiErr)
	}

	results := extractResults(resp, query, limit)

	s.logger.Debug().
		Str("query", query).
		Int("result_count", len(results)).
		Msg("Web search completed")

	return results, nil
}

// extractResults converts grounding chunks into search results. Snippets come
// from the grounding support segments that cite each chunk; when a chunk has
// no citing segment the leading response text is used instead.
func extractResults(resp *genai.GenerateContentResponse, query string, limit int) []models.SearchResult {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}

	candidate := resp.Candidates[0]
	if candidate.GroundingMetadata == nil {
		return nil
	}
	gm := candidate.GroundingMetadata

	snippets := make(map[int][]string)
	for _, support := range gm.GroundingSupports {
		if support.Segment == nil || support.Segment.Text == "" {
			continue
		}
		for _, idx := range support.GroundingChunkIndices {
			snippets[int(idx)] = append(snippets[int(idx)], support.Segment.Text)
		}
	}

	var fallback string
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				fallback = truncate(part.Text, 300)
				break
			}
		}
	}

	results := make([]models.SearchResult, 0, limit)
	for i, chunk := range gm.GroundingChunks {
		if chunk.Web == nil || chunk.Web.URI == "" {
			continue
		}

		snippet := fallback
		if parts, ok := snippets[i]; ok {
			snippet = truncate(strings.Join(parts, " "), 300)
		}

		results = append(results, models.SearchResult{
			Query:     query,
			SourceURL: chunk.Web.URI,
			Title:     chunk.Web.Title,
			Snippet:   snippet,
		})

		if len(results) >= limit {
			break
		}
	}

	return results
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// Close releases the Gemini client
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.client = nil
	return nil
}
