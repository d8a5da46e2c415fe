// Command fetcher downloads the source PDFs named in the manifest into the
// local document directory, skipping files already present.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/calyptra/regqa/internal/config"
	"github.com/calyptra/regqa/internal/infrastructure/catalog"
	"github.com/calyptra/regqa/internal/infrastructure/fetcher"
	"github.com/calyptra/regqa/internal/infrastructure/resilience"
	"github.com/calyptra/regqa/internal/observability/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	slog.SetDefault(logging.NewJSONLogger("regqa-fetcher", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sources, err := catalog.Load(cfg.SourcesPath)
	if err != nil {
		log.Fatalf("load source manifest: %v", err)
	}

	executor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts: cfg.RetryMaxAttempts,
		BreakerEnabled:   cfg.BreakerEnabled,
	})
	f := fetcher.New(cfg.FetcherOutputDir, cfg.FetcherRatePerSecond, executor)

	fetched, failed, err := f.FetchAll(ctx, sources.Entries())
	if err != nil {
		log.Fatalf("fetch error: %v", err)
	}
	slog.Info("fetch complete", "fetched", fetched, "failed", failed, "output_dir", cfg.FetcherOutputDir)
}
