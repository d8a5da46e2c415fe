// Package bootstrap constructs the service context once at startup: index
// handles, store pool, source catalog, embedder. Every query operation
// receives these by reference; there is no ambient global state.
package bootstrap

import (
	"fmt"

	"github.com/calyptra/regqa/internal/config"
	"github.com/calyptra/regqa/internal/core/ports"
	"github.com/calyptra/regqa/internal/core/usecase"
	"github.com/calyptra/regqa/internal/infrastructure/catalog"
	"github.com/calyptra/regqa/internal/infrastructure/embedding/ollama"
	"github.com/calyptra/regqa/internal/infrastructure/resilience"
	"github.com/calyptra/regqa/internal/infrastructure/store/sqlite"
	"github.com/calyptra/regqa/internal/infrastructure/vector/flat"
	"github.com/calyptra/regqa/internal/infrastructure/workpool"
)

type App struct {
	Config config.Config

	Store   *sqlite.Store
	Index   *flat.Index
	Catalog *catalog.Catalog
	Search  ports.QueryService

	closeFn func()
}

func New(cfg config.Config) (*App, error) {
	store, err := sqlite.Open(cfg.CorpusDBPath, cfg.StoreReadTimeout())
	if err != nil {
		return nil, fmt.Errorf("open corpus store: %w", err)
	}

	index, err := flat.Load(cfg.VectorIndexPath)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("load vector index: %w", err)
	}

	slotMap, err := flat.LoadSlotMap(cfg.SlotMapPath)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("load slot map: %w", err)
	}

	sources, err := catalog.Load(cfg.SourcesPath)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("load source catalog: %w", err)
	}

	executor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts: cfg.RetryMaxAttempts,
		BreakerEnabled:   cfg.BreakerEnabled,
	})
	embedder := ollama.NewEmbedder(ollama.New(cfg.OllamaURL, cfg.OllamaEmbedModel), executor)

	searchUC := usecase.NewSearchUseCase(embedder, index, slotMap, store, sources, usecase.SearchConfig{
		AnswerThreshold:     cfg.AnswerThreshold,
		CandidateMultiplier: cfg.CandidateMultiplier,
		DefaultAlpha:        cfg.SearchAlpha,
	})

	dispatcher, err := workpool.NewDispatcher(cfg.WorkerPoolSize)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init worker pool: %w", err)
	}

	return &App{
		Config:  cfg,
		Store:   store,
		Index:   index,
		Catalog: sources,
		Search:  workpool.NewQueryService(searchUC, dispatcher),

		closeFn: func() {
			dispatcher.Release()
			_ = store.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
