package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dawoncorp/policysearch/internal/config"
	"github.com/dawoncorp/policysearch/internal/core/domain"
	"github.com/dawoncorp/policysearch/internal/core/ports"
	"github.com/dawoncorp/policysearch/internal/core/queryproc"
	"github.com/dawoncorp/policysearch/internal/core/usecase"
	natsevents "github.com/dawoncorp/policysearch/internal/infrastructure/events/nats"
	"github.com/dawoncorp/policysearch/internal/infrastructure/llm/ollama"
	"github.com/dawoncorp/policysearch/internal/infrastructure/repository/postgres"
	"github.com/dawoncorp/policysearch/internal/infrastructure/resilience"
	"github.com/dawoncorp/policysearch/internal/infrastructure/vector/qdrant"
	"github.com/dawoncorp/policysearch/internal/observability/metrics"
)

type App struct {
	Config config.Config

	Search  ports.SearchService
	Metrics *metrics.SearchMetrics

	closeFn func()
}

func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	keywordRepo := postgres.NewKeywordRepository(db)
	policyRepo := postgres.NewPolicyRepository(db)

	embedder := ollama.NewEmbedder(
		ollama.New(cfg.OllamaURL, cfg.OllamaEmbedModel),
		resilience.NewExecutor(resilience.DefaultConfig()).WithLogger(logger),
	)
	vectorRetriever := qdrant.New(
		cfg.QdrantURL,
		cfg.QdrantCollection,
		resilience.NewExecutor(resilience.DefaultConfig()).WithLogger(logger),
	)

	lexicon := queryproc.NewLexicon()
	if cfg.LexiconPath != "" {
		loaded, err := queryproc.LoadLexicon(cfg.LexiconPath)
		if err != nil {
			logger.Warn("failed to load lexicon file, using builtin dictionary",
				"path", cfg.LexiconPath, "error", err)
		} else {
			lexicon = loaded
		}
	}
	processor := queryproc.NewProcessor(lexicon)

	searchMetrics := metrics.NewSearchMetrics("api")
	publishers := []ports.SearchEventPublisher{searchMetrics}

	var natsPublisher *natsevents.Publisher
	if cfg.NATSURL != "" {
		natsPublisher, err = natsevents.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, natsevents.Options{
			ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig()).WithLogger(logger),
		})
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init event publisher: %w", err)
		}
		publishers = append(publishers, natsPublisher)
	}

	defaults := domain.SearchConfig{
		VectorWeight:        cfg.SearchVectorWeight,
		KeywordWeight:       cfg.SearchKeywordWeight,
		SimilarityThreshold: cfg.SearchSimilarityThreshold,
		TopK:                cfg.SearchTopK,
		MaxTokens:           cfg.SearchMaxTokens,
		CandidateLimit:      cfg.SearchCandidateLimit,
	}

	engine, err := usecase.NewSearchEngine(processor, embedder, vectorRetriever, keywordRepo, defaults, usecase.Options{
		MetadataStore:  policyRepo,
		Events:         fanoutPublisher(publishers),
		Logger:         logger,
		CacheSize:      cfg.CacheSize,
		CacheTTL:       time.Duration(cfg.CacheTTLSeconds) * time.Second,
		VectorTimeout:  time.Duration(cfg.VectorTimeoutMs) * time.Millisecond,
		KeywordTimeout: time.Duration(cfg.KeywordTimeoutMs) * time.Millisecond,
		EmbedTimeout:   time.Duration(cfg.EmbedTimeoutMs) * time.Millisecond,
	})
	if err != nil {
		if natsPublisher != nil {
			natsPublisher.Close()
		}
		_ = db.Close()
		return nil, fmt.Errorf("init search engine: %w", err)
	}

	return &App{
		Config:  cfg,
		Search:  engine,
		Metrics: searchMetrics,

		closeFn: func() {
			if natsPublisher != nil {
				natsPublisher.Close()
			}
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// fanoutPublisher delivers every observation to all configured sinks and
// reports the combined failures.
type fanoutPublisher []ports.SearchEventPublisher

func (f fanoutPublisher) PublishSearchObserved(ctx context.Context, obs domain.SearchObservation) error {
	var errs []error
	for _, publisher := range f {
		if err := publisher.PublishSearchObserved(ctx, obs); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
