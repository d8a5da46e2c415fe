package ports

import (
	"context"

	"github.com/calyptra/regqa/internal/core/domain"
)

// Embedder turns query and fragment text into unit-normalized vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// SlotScore is one nearest-neighbor hit: the index slot and its inner-product
// similarity. A negative slot is the index's "no match" sentinel.
type SlotScore struct {
	Slot  int
	Score float32
}

// VectorIndex performs inner-product nearest-neighbor search over the
// read-only vector artifact.
type VectorIndex interface {
	Search(ctx context.Context, query []float32, k int) ([]SlotScore, error)
}

// SlotMap resolves a vector index slot to the fragment row id it was built
// from. The mapping is a bijection over indexed fragments and is read-only at
// query time.
type SlotMap interface {
	RowID(slot int) (int64, bool)
}

// FragmentStore reads fragments and lexical match ranks from the corpus
// store. Match ranks are negative values on the lexical engine's native
// scale; fusion consumes them raw.
type FragmentStore interface {
	FragmentByRowID(ctx context.Context, rowID int64) (domain.Fragment, error)
	MatchRanks(ctx context.Context, query string) (map[int64]float64, error)
}

// SourceCatalog looks up per-document metadata for response enrichment.
type SourceCatalog interface {
	Lookup(sourceFile string) (domain.SourceMeta, bool)
}
