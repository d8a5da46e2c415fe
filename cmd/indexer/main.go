// Command indexer rebuilds the corpus artifacts from a directory of source
// PDFs: the FTS corpus database, the flat vector index, and the slot map.
// It runs offline; the API must not be serving while artifacts are swapped.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/calyptra/regqa/internal/config"
	"github.com/calyptra/regqa/internal/core/domain"
	"github.com/calyptra/regqa/internal/core/ports"
	"github.com/calyptra/regqa/internal/infrastructure/chunking"
	"github.com/calyptra/regqa/internal/infrastructure/embedding/ollama"
	"github.com/calyptra/regqa/internal/infrastructure/extractor/pdf"
	"github.com/calyptra/regqa/internal/infrastructure/resilience"
	"github.com/calyptra/regqa/internal/infrastructure/store/sqlite"
	"github.com/calyptra/regqa/internal/infrastructure/vector/flat"
	"github.com/calyptra/regqa/internal/observability/logging"
)

const (
	minFragmentWords = 10
	embedBatchSize   = 128
)

var errNoFragments = errors.New("no fragments extracted, nothing to index")

func main() {
	pdfDir := flag.String("pdfs", "./data/pdfs", "directory of source PDF documents")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	slog.SetDefault(logging.NewJSONLogger("regqa-indexer", cfg.LogLevel))

	ctx := context.Background()
	if err := run(ctx, cfg, *pdfDir); err != nil {
		log.Fatalf("indexer error: %v", err)
	}
}

func run(ctx context.Context, cfg config.Config, pdfDir string) error {
	fragments, err := extractFragments(pdfDir)
	if err != nil {
		return err
	}
	slog.Info("extraction complete", "fragments", len(fragments))

	store, err := sqlite.Open(cfg.CorpusDBPath, cfg.StoreReadTimeout())
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Rebuild(ctx); err != nil {
		return err
	}
	if err := store.InsertFragments(ctx, fragments); err != nil {
		return err
	}

	// Re-read in rowid order: the vector index is filled in this order and
	// the slot map is derived from it.
	stored, err := store.FragmentsOrdered(ctx)
	if err != nil {
		return err
	}

	executor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts: cfg.RetryMaxAttempts,
		BreakerEnabled:   cfg.BreakerEnabled,
	})
	embedder := ollama.NewEmbedder(ollama.New(cfg.OllamaURL, cfg.OllamaEmbedModel), executor)

	vectors, err := embedAll(ctx, embedder, stored)
	if err != nil {
		return err
	}

	index, err := flat.NewIndex(len(vectors[0]), vectors)
	if err != nil {
		return err
	}
	if err := index.Write(cfg.VectorIndexPath); err != nil {
		return err
	}

	slotMap := make(flat.SlotMap, 0, len(stored))
	for _, f := range stored {
		slotMap = append(slotMap, f.RowID)
	}
	if err := slotMap.Write(cfg.SlotMapPath); err != nil {
		return err
	}

	slog.Info("index build complete",
		"fragments", len(stored),
		"dimension", index.Dimension(),
		"corpus_db", cfg.CorpusDBPath,
		"vector_index", cfg.VectorIndexPath,
	)
	return nil
}

func extractFragments(pdfDir string) ([]domain.Fragment, error) {
	entries, err := os.ReadDir(pdfDir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	splitter := chunking.NewSplitter(minFragmentWords)
	var fragments []domain.Fragment
	for _, name := range names {
		pages, err := pdf.ExtractPages(filepath.Join(pdfDir, name))
		if err != nil {
			slog.Warn("skipping document", "file", name, "error", err)
			continue
		}
		for _, page := range pages {
			for _, text := range splitter.Paragraphs(page.Text) {
				fragments = append(fragments, domain.Fragment{
					Text:       text,
					SourceFile: name,
					Page:       page.Number,
				})
			}
		}
		slog.Info("document processed", "file", name, "pages", len(pages))
	}

	if len(fragments) == 0 {
		return nil, errNoFragments
	}
	return fragments, nil
}

func embedAll(ctx context.Context, embedder ports.Embedder, fragments []domain.Fragment) ([][]float32, error) {
	vectors := make([][]float32, 0, len(fragments))
	for start := 0; start < len(fragments); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(fragments) {
			end = len(fragments)
		}
		texts := make([]string, 0, end-start)
		for _, f := range fragments[start:end] {
			texts = append(texts, f.Text)
		}

		batch, err := embedder.Embed(ctx, texts)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
		slog.Info("embedding batch complete", "done", end, "total", len(fragments))
	}
	return vectors, nil
}
