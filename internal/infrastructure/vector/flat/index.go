// Package flat implements a flat inner-product vector index over a read-only
// binary artifact. Vectors are unit-normalized at build time, so inner
// product equals cosine similarity. Search is exact brute force; the corpus
// is small enough that approximate structures buy nothing.
package flat

import (
	"context"
	"fmt"
	"sort"

	"github.com/calyptra/regqa/internal/core/domain"
	"github.com/calyptra/regqa/internal/core/ports"
)

// Index holds the in-memory vector table loaded once at startup and never
// mutated afterwards, which makes concurrent searches safe without locking.
type Index struct {
	dimension int
	vectors   [][]float32
}

// Load reads the index artifact from disk.
func Load(path string) (*Index, error) {
	dimension, vectors, err := readArtifact(path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrIndexUnavailable, "load vector index", err)
	}
	return &Index{dimension: dimension, vectors: vectors}, nil
}

// NewIndex builds an in-memory index directly from vectors. Used by the
// offline indexer and by tests.
func NewIndex(dimension int, vectors [][]float32) (*Index, error) {
	for i, v := range vectors {
		if len(v) != dimension {
			return nil, fmt.Errorf("vector %d has dimension %d, want %d", i, len(v), dimension)
		}
	}
	return &Index{dimension: dimension, vectors: vectors}, nil
}

func (idx *Index) Len() int       { return len(idx.vectors) }
func (idx *Index) Dimension() int { return idx.dimension }

// Search returns up to k slots ordered by descending inner-product
// similarity. Fewer than k hits are returned when the index holds fewer
// vectors. The context deadline is honored between scoring batches.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]ports.SlotScore, error) {
	if len(query) != idx.dimension {
		return nil, domain.WrapError(domain.ErrInvalidInput, "vector search",
			fmt.Errorf("query dimension %d, index dimension %d", len(query), idx.dimension))
	}
	if k < 1 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "vector search", fmt.Errorf("k must be >= 1, got %d", k))
	}

	scored := make([]ports.SlotScore, 0, len(idx.vectors))
	for slot, vec := range idx.vectors {
		if slot%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, domain.WrapError(domain.ErrIndexUnavailable, "vector search", err)
			}
		}
		scored = append(scored, ports.SlotScore{Slot: slot, Score: dot(query, vec)})
	}

	// Stable keeps slot order for exact score ties, which keeps search
	// results deterministic across runs.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
