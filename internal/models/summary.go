package models

import (
	"strings"
)

// ContentType classifies a chapter for score weighting
type ContentType string

const (
	ContentTypeTechnicalTutorial ContentType = "technical_tutorial"
	ContentTypeSciencePopular    ContentType = "science_popular"
	ContentTypeDocumentation     ContentType = "documentation"
	ContentTypeNews              ContentType = "news"
	ContentTypeOpinion           ContentType = "opinion"
	ContentTypeUnknown           ContentType = "unknown"
)

// ParseContentType maps a string to a known content type, defaulting to unknown
func ParseContentType(s string) ContentType {
	switch ContentType(strings.TrimSpace(strings.ToLower(s))) {
	case ContentTypeTechnicalTutorial, ContentTypeSciencePopular, ContentTypeDocumentation,
		ContentTypeNews, ContentTypeOpinion:
		return ContentType(strings.TrimSpace(strings.ToLower(s)))
	default:
		return ContentTypeUnknown
	}
}

// ContentSummary is the analyzer's structured view of one chapter.
// Produced once per evaluation attempt and consumed immediately downstream;
// never persisted on its own.
type ContentSummary struct {
	Topic         string      `json:"topic"`
	ContentType   ContentType `json:"content_type"`
	CorePoints    []string    `json:"core_points"`    // Ordered core claims
	KeyTerms      []string    `json:"key_terms"`      // Domain terms for round-two search
	FactClaims    []string    `json:"fact_claims"`    // Verifiable statements
	SearchQueries []string    `json:"search_queries"` // Ordered queries for round-one search
}
