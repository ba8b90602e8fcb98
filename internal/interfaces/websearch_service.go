package interfaces

import (
	"context"

	"github.com/lectorhq/lector/internal/models"
)

// WebSearchService provides the external search capability consumed by the
// search agent. Implementations may return an empty slice when no results
// are available; callers must treat absence as degradation, not failure.
type WebSearchService interface {
	// Search executes one query and returns up to limit results
	Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error)
}
