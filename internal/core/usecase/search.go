package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dawoncorp/policysearch/internal/core/domain"
	"github.com/dawoncorp/policysearch/internal/core/ports"
	"github.com/dawoncorp/policysearch/internal/core/queryproc"
)

// Options carries the optional collaborators and tuning knobs of the search
// engine. Zero values are replaced by normalize.
type Options struct {
	MetadataStore  ports.PolicyMetadataStore
	Events         ports.SearchEventPublisher
	Logger         *slog.Logger
	CacheSize      int
	CacheTTL       time.Duration
	VectorTimeout  time.Duration
	KeywordTimeout time.Duration
	EmbedTimeout   time.Duration
}

func (o *Options) normalize() {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.CacheSize <= 0 {
		o.CacheSize = 256
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = 5 * time.Minute
	}
	if o.VectorTimeout <= 0 {
		o.VectorTimeout = 5 * time.Second
	}
	if o.KeywordTimeout <= 0 {
		o.KeywordTimeout = 3 * time.Second
	}
	if o.EmbedTimeout <= 0 {
		o.EmbedTimeout = 10 * time.Second
	}
}

// SearchEngine orchestrates the full request path: preprocessing, strategy
// selection, cache lookup, backend fan-out, fusion, enrichment and tracking.
// It implements ports.SearchService.
type SearchEngine struct {
	processor *queryproc.Processor
	embedder  ports.EmbeddingProvider
	vector    ports.VectorRetriever
	keyword   ports.KeywordRetriever
	metadata  ports.PolicyMetadataStore
	events    ports.SearchEventPublisher

	selector *StrategySelector
	fusion   *FusionEngine
	cache    *ResultCache
	tracker  *PerformanceTracker

	logger *slog.Logger
	opts   Options
}

func NewSearchEngine(
	processor *queryproc.Processor,
	embedder ports.EmbeddingProvider,
	vector ports.VectorRetriever,
	keyword ports.KeywordRetriever,
	defaults domain.SearchConfig,
	opts Options,
) (*SearchEngine, error) {
	opts.normalize()

	selector, err := NewStrategySelector(defaults)
	if err != nil {
		return nil, err
	}
	if processor == nil {
		processor = queryproc.NewProcessor(nil)
	}

	return &SearchEngine{
		processor: processor,
		embedder:  embedder,
		vector:    vector,
		keyword:   keyword,
		metadata:  opts.MetadataStore,
		events:    opts.Events,
		selector:  selector,
		fusion:    NewFusionEngine(opts.Logger),
		cache:     NewResultCache(opts.CacheSize, opts.CacheTTL),
		tracker:   NewPerformanceTracker(),
		logger:    opts.Logger,
		opts:      opts,
	}, nil
}

func (e *SearchEngine) Search(
	ctx context.Context,
	rawQuery string,
	filter domain.SearchFilter,
	strategy domain.SearchStrategy,
	config *domain.SearchConfig,
) ([]domain.SearchResult, domain.SearchStatus, error) {
	started := time.Now()

	pq := e.processor.Preprocess(rawQuery)
	if pq.IsEmpty() {
		e.tracker.Record(time.Since(started), 0, false)
		return []domain.SearchResult{}, domain.SearchStatusOK, nil
	}

	effective, cfg, err := e.selector.Select(pq, strategy, config)
	if err != nil {
		return nil, "", err
	}

	key := CacheKey(pq.Normalized, effective, cfg, filter)
	if cached, ok := e.cache.Get(key); ok {
		elapsed := time.Since(started)
		e.tracker.Record(elapsed, meanFinalScore(cached), true)
		e.observe(ctx, pq, effective, domain.SearchStatusOK, cached, elapsed, true)
		return cached, domain.SearchStatusOK, nil
	}

	wantVector := effective != domain.StrategyKeywordOnly
	wantKeyword := effective != domain.StrategyVectorOnly

	var (
		vectorResults  []domain.SearchResult
		keywordResults []domain.SearchResult
		vectorErr      error
		keywordErr     error
	)

	var queryVector []float32
	if wantVector {
		queryVector, vectorErr = e.embedQuery(ctx, pq)
		if vectorErr != nil {
			e.logger.Warn("query embedding failed", "error", vectorErr)
			wantVector = false
		}
	}

	// Each backend records its own outcome and returns nil so one failure
	// never cancels the other leg of the fan-out.
	g, gctx := errgroup.WithContext(ctx)
	if wantVector {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, e.opts.VectorTimeout)
			defer cancel()
			results, err := e.vector.Search(callCtx, queryVector, cfg.CandidateLimit, filter)
			if err != nil {
				vectorErr = err
				return nil
			}
			vectorResults = results
			return nil
		})
	}
	if wantKeyword {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, e.opts.KeywordTimeout)
			defer cancel()
			results, err := e.keyword.Search(callCtx, queryproc.SearchKeywords(pq), cfg.CandidateLimit, filter)
			if err != nil {
				keywordErr = err
				return nil
			}
			keywordResults = results
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	status := e.resolveStatus(effective, vectorErr, keywordErr)
	if status == domain.SearchStatusUnavailable {
		elapsed := time.Since(started)
		e.tracker.Record(elapsed, 0, false)
		e.observe(ctx, pq, effective, status, nil, elapsed, false)
		return []domain.SearchResult{}, status, nil
	}

	results := e.fusion.Combine(vectorResults, keywordResults, cfg, pq)
	e.enrichMetadata(ctx, results)

	e.cache.Put(key, results)

	elapsed := time.Since(started)
	e.tracker.Record(elapsed, meanFinalScore(results), false)
	e.observe(ctx, pq, effective, status, results, elapsed, false)

	return results, status, nil
}

func (e *SearchEngine) AnalyzeQuery(rawQuery string) domain.ProcessedQuery {
	return e.processor.Preprocess(rawQuery)
}

func (e *SearchEngine) GetPerformanceStats() domain.PerformanceStats {
	return e.tracker.Stats(e.cache.Len())
}

func (e *SearchEngine) PurgeCache() {
	e.cache.Purge()
}

func (e *SearchEngine) embedQuery(ctx context.Context, pq domain.ProcessedQuery) ([]float32, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.opts.EmbedTimeout)
	defer cancel()
	return e.embedder.EmbedQuery(callCtx, queryproc.EmbeddingText(pq))
}

// resolveStatus translates backend failures into the degradation contract:
// losing one of two backends degrades, losing every requested backend makes
// the search unavailable.
func (e *SearchEngine) resolveStatus(strategy domain.SearchStrategy, vectorErr, keywordErr error) domain.SearchStatus {
	switch strategy {
	case domain.StrategyVectorOnly:
		if vectorErr != nil {
			e.logger.Error("vector backend unavailable", "error", vectorErr)
			return domain.SearchStatusUnavailable
		}
	case domain.StrategyKeywordOnly:
		if keywordErr != nil {
			e.logger.Error("keyword backend unavailable", "error", keywordErr)
			return domain.SearchStatusUnavailable
		}
	default:
		if vectorErr != nil && keywordErr != nil {
			e.logger.Error("all retrieval backends unavailable",
				"vector_error", vectorErr, "keyword_error", keywordErr)
			return domain.SearchStatusUnavailable
		}
		if vectorErr != nil {
			e.logger.Warn("vector backend failed, serving keyword results only", "error", vectorErr)
			return domain.SearchStatusDegraded
		}
		if keywordErr != nil {
			e.logger.Warn("keyword backend failed, serving vector results only", "error", keywordErr)
			return domain.SearchStatusDegraded
		}
	}
	return domain.SearchStatusOK
}

// enrichMetadata backfills product fields the retrieval payload did not carry.
// Lookup failures only cost the enrichment, never the search.
func (e *SearchEngine) enrichMetadata(ctx context.Context, results []domain.SearchResult) {
	if e.metadata == nil || len(results) == 0 {
		return
	}

	missing := make([]int64, 0, len(results))
	seen := make(map[int64]struct{}, len(results))
	for _, r := range results {
		if r.ProductName != "" && r.Company != "" && r.Category != "" {
			continue
		}
		if _, ok := seen[r.PolicyID]; ok {
			continue
		}
		seen[r.PolicyID] = struct{}{}
		missing = append(missing, r.PolicyID)
	}
	if len(missing) == 0 {
		return
	}

	meta, err := e.metadata.Lookup(ctx, missing)
	if err != nil {
		e.logger.Warn("policy metadata lookup failed", "error", err)
		return
	}
	for i := range results {
		m, ok := meta[results[i].PolicyID]
		if !ok {
			continue
		}
		if results[i].ProductName == "" {
			results[i].ProductName = m.ProductName
		}
		if results[i].Company == "" {
			results[i].Company = m.Company
		}
		if results[i].Category == "" {
			results[i].Category = m.Category
		}
	}
}

func (e *SearchEngine) observe(
	ctx context.Context,
	pq domain.ProcessedQuery,
	strategy domain.SearchStrategy,
	status domain.SearchStatus,
	results []domain.SearchResult,
	elapsed time.Duration,
	cacheHit bool,
) {
	if e.events == nil {
		return
	}
	obs := domain.SearchObservation{
		RequestID:   uuid.NewString(),
		Intent:      pq.Intent,
		Strategy:    strategy,
		Status:      status,
		ResultCount: len(results),
		DurationMs:  float64(elapsed.Microseconds()) / 1000.0,
		Quality:     meanFinalScore(results),
		CacheHit:    cacheHit,
	}
	if err := e.events.PublishSearchObserved(ctx, obs); err != nil {
		e.logger.Warn("failed to publish search observation", "error", err)
	}
}

func meanFinalScore(results []domain.SearchResult) float64 {
	if len(results) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range results {
		sum += r.FinalScore
	}
	return sum / float64(len(results))
}
