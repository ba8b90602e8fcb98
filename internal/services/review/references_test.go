package review

import (
	"math"
	"testing"

	"github.com/ternarybob/arbor"

	"github.com/lectorhq/lector/internal/common"
	"github.com/lectorhq/lector/internal/models"
)

func newTestReferenceManager() *ReferenceManager {
	cfg := common.NewDefaultConfig()
	return NewReferenceManager(&cfg.Reviewer, arbor.NewLogger())
}

func TestCalculateRelevanceComponents(t *testing.T) {
	m := newTestReferenceManager()

	summary := models.ContentSummary{
		Topic:      "goroutine scheduling",
		KeyTerms:   []string{"scheduler", "preemption"},
		CorePoints: []string{"the runtime multiplexes goroutines onto threads"},
	}

	tests := []struct {
		name     string
		result   models.SearchResult
		expected float64
	}{
		{
			name:     "no match",
			result:   models.SearchResult{Title: "cooking pasta", Snippet: "boil water"},
			expected: 0.0,
		},
		{
			name:     "topic only",
			result:   models.SearchResult{Title: "Goroutine Scheduling explained", Snippet: "an overview"},
			expected: 0.3,
		},
		{
			name:     "topic and one of two terms",
			result:   models.SearchResult{Title: "Goroutine scheduling", Snippet: "how the scheduler works"},
			expected: 0.3 + 0.4*0.5,
		},
		{
			name: "all components",
			result: models.SearchResult{
				Title:   "goroutine scheduling deep dive",
				Snippet: "the scheduler and preemption: the runtime multiplexes goroutines onto threads",
			},
			expected: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.calculateRelevance(tt.result, summary)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("relevance = %f, want %f", got, tt.expected)
			}
		})
	}
}

func TestEvaluateRelevanceSortsDescending(t *testing.T) {
	m := newTestReferenceManager()

	summary := models.ContentSummary{Topic: "channels"}
	results := []models.SearchResult{
		{SourceURL: "u1", Title: "unrelated", Snippet: "nothing"},
		{SourceURL: "u2", Title: "go channels guide", Snippet: "channels explained"},
	}

	scored := m.EvaluateRelevance(results, summary)
	if scored[0].SourceURL != "u2" {
		t.Errorf("expected most relevant first, got %q", scored[0].SourceURL)
	}
	if scored[0].RelevanceScore < scored[1].RelevanceScore {
		t.Error("results not sorted by relevance")
	}
}

func TestFilterByRelevance(t *testing.T) {
	m := newTestReferenceManager()

	results := []models.SearchResult{
		{SourceURL: "keep", RelevanceScore: 0.5},
		{SourceURL: "boundary", RelevanceScore: 0.3},
		{SourceURL: "drop", RelevanceScore: 0.29},
	}

	filtered := m.FilterByRelevance(results)
	if len(filtered) != 2 {
		t.Fatalf("got %d results, want 2 (threshold inclusive)", len(filtered))
	}
	if filtered[0].SourceURL != "keep" || filtered[1].SourceURL != "boundary" {
		t.Errorf("wrong results kept: %+v", filtered)
	}
}

func TestTopReferencesLimit(t *testing.T) {
	m := newTestReferenceManager()

	var results []models.SearchResult
	for i := 0; i < 8; i++ {
		results = append(results, models.SearchResult{
			SourceURL:      "url",
			Title:          "title",
			RelevanceScore: 0.9,
		})
	}

	refs := m.TopReferences(results)
	if len(refs) != 5 {
		t.Errorf("got %d references, want 5 (max)", len(refs))
	}

	refs = m.TopReferences(results[:2])
	if len(refs) != 2 {
		t.Errorf("got %d references, want 2", len(refs))
	}
}
