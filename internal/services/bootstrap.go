package services

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/clauselens/riskcore/internal/config"
	"github.com/clauselens/riskcore/internal/embeddings"
	"github.com/clauselens/riskcore/internal/features"
	"github.com/clauselens/riskcore/internal/risk"
	"github.com/clauselens/riskcore/internal/storage"
	"github.com/clauselens/riskcore/internal/training"
	"github.com/clauselens/riskcore/internal/vectorstore"
)

// Bootstrap constructs every service from configuration. The returned
// close function releases the embedding provider and should be deferred.
//
// An embedding provider that fails to initialize is not fatal: risk
// scoring still works, and the clause store reports itself unavailable
// on similarity operations. A broken database connection is likewise
// tolerated; only training requires it.
func Bootstrap(cfg *config.Config, logger *zap.Logger) (Registry, func(), error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	classifier := risk.NewClassifier(risk.Config{
		ModelPath: cfg.Risk.ModelPath,
		Params: risk.EnsembleParams{
			Rounds:       cfg.Risk.Rounds,
			MaxDepth:     cfg.Risk.MaxDepth,
			LearningRate: cfg.Risk.LearningRate,
			MinLeaf:      1,
		},
	}, logger)

	var embedder vectorstore.Embedder
	provider, err := embeddings.NewProvider(embeddings.ProviderConfig{
		Provider: cfg.Embeddings.Provider,
		Model:    cfg.Embeddings.Model,
		BaseURL:  cfg.Embeddings.BaseURL,
		CacheDir: cfg.Embeddings.CacheDir,
	})
	if err != nil {
		logger.Warn("embedding provider unavailable, similarity features disabled",
			zap.String("provider", cfg.Embeddings.Provider), zap.Error(err))
	} else {
		embedder = provider
	}

	store, err := vectorstore.NewClauseStore(vectorstore.Config{
		DataDir: cfg.VectorStore.DataDir,
	}, embedder, logger)
	if err != nil {
		closeProvider(provider, logger)
		return nil, nil, fmt.Errorf("initializing clause store: %w", err)
	}

	opts := Options{
		Extractor:   features.NewExtractor(),
		Classifier:  classifier,
		ClauseStore: store,
	}

	if cfg.Storage.DSN != "" {
		db, err := storage.Open(cfg.Storage.DSN)
		if err != nil {
			logger.Warn("contract database unavailable, training disabled", zap.Error(err))
		} else {
			repo := storage.NewContractRepository(db)
			opts.Contracts = repo
			opts.Assembler = training.NewAssembler(repo, cfg.Training.BatchSize, logger)
		}
	}

	closeFn := func() { closeProvider(provider, logger) }
	return NewRegistry(opts), closeFn, nil
}

func closeProvider(p embeddings.Provider, logger *zap.Logger) {
	if p == nil {
		return
	}
	if err := p.Close(); err != nil {
		logger.Warn("closing embedding provider", zap.Error(err))
	}
}
