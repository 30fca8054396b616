package ports

import (
	"context"

	"github.com/dawoncorp/policysearch/internal/core/domain"
)

// SearchService is the inbound contract for hybrid retrieval.
type SearchService interface {
	// Search runs the full pipeline. A nil config uses the service defaults.
	// Backend failures never surface as errors; they show up in the status.
	Search(ctx context.Context, rawQuery string, filter domain.SearchFilter, strategy domain.SearchStrategy, config *domain.SearchConfig) ([]domain.SearchResult, domain.SearchStatus, error)

	// AnalyzeQuery exposes preprocessing standalone for diagnostics.
	// It never fails: malformed input yields an empty ProcessedQuery.
	AnalyzeQuery(rawQuery string) domain.ProcessedQuery

	GetPerformanceStats() domain.PerformanceStats
	PurgeCache()
}
