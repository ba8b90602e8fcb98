package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ternarybob/arbor"

	"github.com/lectorhq/lector/internal/common"
	"github.com/lectorhq/lector/internal/interfaces"
	"github.com/lectorhq/lector/internal/models"
)

// mockLLM returns a fixed response or error, counting calls and keeping the
// last prompt for assertions
type mockLLM struct {
	response   string
	err        error
	calls      int
	lastPrompt string
}

func (m *mockLLM) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	m.calls++
	if len(messages) > 0 {
		m.lastPrompt = messages[len(messages)-1].Content
	}
	return m.response, m.err
}

func (m *mockLLM) HealthCheck(ctx context.Context) error { return nil }
func (m *mockLLM) Close() error                          { return nil }

// mockSearch serves canned results per query
type mockSearch struct {
	results map[string][]models.SearchResult
	errs    map[string]error
	calls   int
}

func (m *mockSearch) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	m.calls++
	if err, ok := m.errs[query]; ok {
		return nil, err
	}
	return m.results[query], nil
}

func TestAnalyzeParsesResponse(t *testing.T) {
	llm := &mockLLM{response: "```json\n" + `{
		"topic": "go concurrency",
		"content_type": "technical_tutorial",
		"core_points": ["goroutines are cheap"],
		"key_terms": ["goroutine", "channel"],
		"fact_claims": ["goroutines start with 2KB stacks"],
		"search_queries": ["go concurrency tutorial", "goroutine internals", "go channels vs mutex"]
	}` + "\n```"}

	analyzer := NewAnalyzer(llm, arbor.NewLogger())
	summary := analyzer.Analyze(context.Background(), "some chapter text")

	if summary.Topic != "go concurrency" {
		t.Errorf("topic = %q", summary.Topic)
	}
	if summary.ContentType != models.ContentTypeTechnicalTutorial {
		t.Errorf("content type = %s", summary.ContentType)
	}
	if len(summary.SearchQueries) != 3 {
		t.Errorf("search queries = %d, want 3", len(summary.SearchQueries))
	}
}

func TestAnalyzeFallsBackToDefaultSummary(t *testing.T) {
	llm := &mockLLM{err: errors.New("provider down")}

	analyzer := NewAnalyzer(llm, arbor.NewLogger())
	summary := analyzer.Analyze(context.Background(), "Go routines are lightweight threads managed by the Go runtime itself not the OS")

	if summary.ContentType != models.ContentTypeUnknown {
		t.Errorf("content type = %s, want unknown", summary.ContentType)
	}
	if len(summary.SearchQueries) != 1 {
		t.Fatalf("search queries = %d, want 1 keyword query", len(summary.SearchQueries))
	}
	if summary.SearchQueries[0] != "Go routines are lightweight threads" {
		t.Errorf("default query = %q", summary.SearchQueries[0])
	}
}

func TestDepthCheckDefaultOnError(t *testing.T) {
	llm := &mockLLM{err: errors.New("timeout")}

	checker := NewDepthChecker(llm, arbor.NewLogger())
	result := checker.Check(context.Background(), "content", nil)

	if result.Score != 70 || !result.IsDetailedEnough || len(result.VaguePoints) != 0 {
		t.Errorf("unexpected default: %+v", result)
	}
}

func TestQualityReviewDefaultOnGarbage(t *testing.T) {
	llm := &mockLLM{response: "I cannot produce JSON today"}

	reviewer := NewQualityReviewer(llm, arbor.NewLogger())
	result := reviewer.Review(context.Background(), "content", nil)

	if result.Score != 70 || !result.Approved {
		t.Errorf("unexpected default: %+v", result)
	}
	if result.LogicScore != 70 || result.AccuracyScore != 70 || result.CompletenessScore != 70 {
		t.Errorf("sub-scores should default to 70: %+v", result)
	}
}

func TestQualityReviewPartialPayloadGetsDefaults(t *testing.T) {
	// Missing sub-scores and approved flag default rather than zero out
	llm := &mockLLM{response: `{"score": 55, "issues": [{"issue_type": "factual_error", "severity": "high", "location": "p2", "description": "wrong version", "suggestion": "update"}]}`}

	reviewer := NewQualityReviewer(llm, arbor.NewLogger())
	result := reviewer.Review(context.Background(), "content", nil)

	if result.Score != 55 {
		t.Errorf("score = %d, want 55", result.Score)
	}
	if !result.Approved {
		t.Error("missing approved should default to true")
	}
	if result.AccuracyScore != 70 {
		t.Errorf("missing accuracy_score should default to 70, got %d", result.AccuracyScore)
	}
	if len(result.Issues) != 1 {
		t.Errorf("issues = %d, want 1", len(result.Issues))
	}
}

func TestReadabilityCheckParsesLevels(t *testing.T) {
	llm := &mockLLM{response: `{"score": 85, "level": "easy", "vocabulary_score": 90, "syntax_score": 85, "discourse_score": 80, "surface_score": 85}`}

	checker := NewReadabilityChecker(llm, arbor.NewLogger())
	result := checker.Check(context.Background(), "content")

	if result.Level != models.ReadabilityLevelEasy {
		t.Errorf("level = %s, want easy", result.Level)
	}
	if result.VocabularyScore != 90 {
		t.Errorf("vocabulary = %d, want 90", result.VocabularyScore)
	}

	// Unknown level strings normalize
	llm.response = `{"score": 70, "level": "impossible"}`
	result = checker.Check(context.Background(), "content")
	if result.Level != models.ReadabilityLevelNormal {
		t.Errorf("unknown level should map to normal, got %s", result.Level)
	}
}

func TestSearchAgentDedupesAndIsolatesErrors(t *testing.T) {
	search := &mockSearch{
		results: map[string][]models.SearchResult{
			"q1": {
				{Query: "q1", SourceURL: "https://a.example", Title: "A"},
				{Query: "q1", SourceURL: "https://b.example", Title: "B"},
			},
			"q3": {
				{Query: "q3", SourceURL: "https://a.example", Title: "A again"},
				{Query: "q3", SourceURL: "https://c.example", Title: "C"},
			},
		},
		errs: map[string]error{"q2": errors.New("quota")},
	}

	cfg := common.NewDefaultConfig()
	agent := NewSearchAgent(search, &cfg.Search, arbor.NewLogger())

	results := agent.Search(context.Background(), []string{"q1", "q2", "q3"}, 5)
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3 after dedupe: %+v", len(results), results)
	}

	// First-wins: the q1 version of a.example survives
	if results[0].Title != "A" || results[0].Query != "q1" {
		t.Errorf("dedupe should keep first occurrence, got %+v", results[0])
	}
}

func TestSearchAgentNilService(t *testing.T) {
	cfg := common.NewDefaultConfig()
	agent := NewSearchAgent(nil, &cfg.Search, arbor.NewLogger())

	if results := agent.Search(context.Background(), []string{"q"}, 5); results != nil {
		t.Errorf("expected nil results without search service, got %+v", results)
	}
}

func TestSearchMultiRound(t *testing.T) {
	search := &mockSearch{
		results: map[string][]models.SearchResult{
			"query one":        {{SourceURL: "https://one.example"}},
			"topic term1":      {{SourceURL: "https://two.example"}},
			"topic term2":      {{SourceURL: "https://one.example"}}, // dup across rounds
		},
	}

	cfg := common.NewDefaultConfig()
	agent := NewSearchAgent(search, &cfg.Search, arbor.NewLogger())

	summary := models.ContentSummary{
		Topic:         "topic",
		KeyTerms:      []string{"term1", "term2", "term3"},
		SearchQueries: []string{"query one"},
	}

	results := agent.SearchMultiRound(context.Background(), summary)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2 (cross-round dedupe): %+v", len(results), results)
	}

	// Round one plus two term queries (capped at MaxTermQueries)
	if search.calls != 3 {
		t.Errorf("search calls = %d, want 3", search.calls)
	}
}

func TestSearchMultiRoundSingleRound(t *testing.T) {
	search := &mockSearch{
		results: map[string][]models.SearchResult{
			"query one": {{SourceURL: "https://one.example"}},
		},
	}

	cfg := common.NewDefaultConfig()
	cfg.Search.MaxRounds = 1
	agent := NewSearchAgent(search, &cfg.Search, arbor.NewLogger())

	summary := models.ContentSummary{
		Topic:         "topic",
		KeyTerms:      []string{"term1"},
		SearchQueries: []string{"query one"},
	}

	agent.SearchMultiRound(context.Background(), summary)
	if search.calls != 1 {
		t.Errorf("search calls = %d, want 1 when MaxRounds is 1", search.calls)
	}
}

func TestImproverFallbackOrdering(t *testing.T) {
	depth := models.DepthResult{
		Score: 65,
		VaguePoints: []models.VaguePoint{
			{Location: "sec 2", Issue: "no example", Suggestion: "add a worked example"},
		},
	}
	quality := models.QualityResult{
		Score: 60,
		Issues: []models.ContentIssue{
			{IssueType: "factual_error", Severity: "high", Location: "p1", Description: "wrong flag", Suggestion: "fix flag"},
			{IssueType: "outdated", Severity: "low", Location: "p9", Description: "old version", Suggestion: "bump version"},
		},
	}
	readability := models.ReadabilityResult{
		Score: 72,
		Issues: []models.ContentIssue{
			{IssueType: "wall_of_text", Severity: "high", Location: "p4", Description: "huge paragraph", Suggestion: "split it"},
			{IssueType: "jargon", Severity: "medium", Location: "p5", Description: "unexplained term", Suggestion: "define it"},
		},
	}

	feedback := FeedbackFromResults(depth, quality, readability)
	if len(feedback) != 5 {
		t.Fatalf("got %d items, want 5", len(feedback))
	}

	// Ascending priority, never decreasing
	for i := 1; i < len(feedback); i++ {
		if feedback[i].Priority < feedback[i-1].Priority {
			t.Fatalf("priorities not ascending: %+v", feedback)
		}
	}

	if feedback[0].IssueType != "factual_error" || feedback[0].Priority != 1 {
		t.Errorf("high severity quality issue should lead: %+v", feedback[0])
	}

	// Vague point mapping
	for _, fb := range feedback {
		if fb.IssueType == "missing_detail" {
			if fb.Priority != 3 || fb.EstimatedEffort != "medium" {
				t.Errorf("vague point mapping wrong: %+v", fb)
			}
		}
		if fb.IssueType == "outdated" {
			if fb.Priority != 4 || fb.EstimatedEffort != "low" {
				t.Errorf("low severity quality mapping wrong: %+v", fb)
			}
		}
		if fb.IssueType == "wall_of_text" {
			if fb.Priority != 2 || fb.EstimatedEffort != "low" {
				t.Errorf("high severity readability mapping wrong: %+v", fb)
			}
		}
	}
}

func TestImproverGenerateParsesAndSorts(t *testing.T) {
	llm := &mockLLM{response: fmt.Sprintf(`{"feedback": [
		{"priority": 3, "location": "p2", "issue_type": "missing_detail", "problem": "thin", "action": "expand", "estimated_effort": "medium"},
		{"priority": 1, "location": "p1", "issue_type": "factual_error", "problem": "wrong", "action": "fix", "estimated_effort": "low"},
		{"location": "p3", "issue_type": "style", "problem": "meh", "action": "polish"}
	]}`)}

	improver := NewImprover(llm, arbor.NewLogger())
	feedback := improver.Generate(context.Background(), "content",
		models.ReferenceContext{}, models.DepthResult{}, models.QualityResult{}, models.ReadabilityResult{})

	if len(feedback) != 3 {
		t.Fatalf("got %d items, want 3", len(feedback))
	}
	if feedback[0].Priority != 1 {
		t.Errorf("expected priority 1 first, got %d", feedback[0].Priority)
	}

	// Missing priority and effort get defaults
	last := feedback[len(feedback)-1]
	if last.Priority != 3 || last.EstimatedEffort != "medium" {
		t.Errorf("defaults not applied: %+v", last)
	}
}

func TestImproverPromptCarriesReferenceContext(t *testing.T) {
	llm := &mockLLM{response: `{"feedback": []}`}

	refCtx := models.ReferenceContext{
		Summary: models.ContentSummary{Topic: "go concurrency"},
		SearchResults: []models.SearchResult{
			{SourceURL: "https://ref.example/goroutines", Title: "Goroutines"},
		},
	}

	improver := NewImprover(llm, arbor.NewLogger())
	improver.Generate(context.Background(), "content", refCtx,
		models.DepthResult{}, models.QualityResult{}, models.ReadabilityResult{})

	if !strings.Contains(llm.lastPrompt, "go concurrency") {
		t.Error("prompt missing the chapter topic")
	}
	if !strings.Contains(llm.lastPrompt, "https://ref.example/goroutines") {
		t.Error("prompt missing the consulted source url")
	}
}

func TestChatJSONParsesFencedResponse(t *testing.T) {
	llm := &mockLLM{response: "Here you go:\n```json\n{\"score\": 42}\n```"}

	var payload struct {
		Score *int `json:"score"`
	}
	if err := chatJSON(context.Background(), llm, "prompt", &payload); err != nil {
		t.Fatalf("chatJSON failed: %v", err)
	}
	if payload.Score == nil || *payload.Score != 42 {
		t.Errorf("score = %v, want 42", payload.Score)
	}
}

func TestChatJSONErrors(t *testing.T) {
	var payload struct{}

	llm := &mockLLM{err: errors.New("provider down")}
	if err := chatJSON(context.Background(), llm, "prompt", &payload); err == nil {
		t.Error("expected error when the model call fails")
	}

	llm = &mockLLM{response: ""}
	if err := chatJSON(context.Background(), llm, "prompt", &payload); err == nil {
		t.Error("expected error on empty response")
	}

	llm = &mockLLM{response: "no json in here"}
	if err := chatJSON(context.Background(), llm, "prompt", &payload); err == nil {
		t.Error("expected error on unparseable response")
	}
}
