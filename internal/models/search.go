package models

// SearchResult is one hit from the web search capability.
// Identity for deduplication is SourceURL.
type SearchResult struct {
	Query          string  `json:"query"` // Originating query
	SourceURL      string  `json:"source_url"`
	Title          string  `json:"title"`
	Snippet        string  `json:"snippet"`
	RelevanceScore float64 `json:"relevance_score"` // 0 until set by the reference manager, then [0,1]
}

// Reference is the citation shape handed to evaluators
type Reference struct {
	Title          string  `json:"title"`
	SourceURL      string  `json:"source_url"`
	Snippet        string  `json:"snippet"`
	RelevanceScore float64 `json:"relevance_score"`
}

// ReferenceContext carries everything the evaluators receive beyond the chapter text.
// VerifiedFacts and Contradictions are reserved for a future fact-check pass.
type ReferenceContext struct {
	Summary        ContentSummary `json:"summary"`
	SearchResults  []SearchResult `json:"search_results"`
	VerifiedFacts  []string       `json:"verified_facts"`
	Contradictions []string       `json:"contradictions"`
}
