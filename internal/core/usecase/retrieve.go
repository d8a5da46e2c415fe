package usecase

import (
	"context"
	"fmt"

	"github.com/calyptra/regqa/internal/core/domain"
)

// candidate is the per-query working state of one retrieved fragment. It is
// created during candidate generation, mutated in place by fusion, and
// discarded once the response is built.
type candidate struct {
	fragment    domain.Fragment
	vectorScore float64
	fusedScore  float64
}

// retrieveCandidates embeds the query and walks the top-K nearest index
// slots, resolving each through the slot map to a stored fragment. Sentinel
// slots and row ids that no longer resolve are skipped: partial results beat
// failing the whole query when at least one candidate resolves.
func (uc *SearchUseCase) retrieveCandidates(ctx context.Context, text string, k int) ([]candidate, error) {
	queryVector, err := uc.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := uc.index.Search(ctx, queryVector, k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	pool := make([]candidate, 0, len(hits))
	for _, hit := range hits {
		if hit.Slot < 0 {
			continue
		}
		rowID, ok := uc.slots.RowID(hit.Slot)
		if !ok {
			continue
		}

		fragment, err := uc.store.FragmentByRowID(ctx, rowID)
		if err != nil {
			if domain.IsKind(err, domain.ErrFragmentNotFound) {
				continue
			}
			return nil, fmt.Errorf("resolve fragment %d: %w", rowID, err)
		}

		pool = append(pool, candidate{
			fragment:    fragment,
			vectorScore: float64(hit.Score),
		})
	}
	return pool, nil
}
