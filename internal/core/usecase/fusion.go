package usecase

import "sort"

// noMatchFloor is the synthetic lexical rank used when no candidate matched
// the lexical index at all. It sits far below any observed rank, so
// non-matches normalize to the bottom of the lexical pool.
const noMatchFloor = -100.0

// fuseCandidates merges the pool's vector scores with its lexical match
// ranks into one fused score per candidate and returns the top k.
//
// Candidates absent from the match set receive min(observed ranks) - 1, so a
// non-match is strictly worse than the worst real match, never tied with it.
// Both pools are normalized against their own min/max before the weighted
// sum, since the raw scales are not comparable. The stable sort keeps the
// incoming vector order for candidates with equal fused scores.
func fuseCandidates(pool []candidate, ranks map[int64]float64, alpha float64, k int) ([]candidate, error) {
	if len(pool) == 0 {
		return nil, nil
	}

	fallback := noMatchFloor
	if len(ranks) > 0 {
		first := true
		var minRank float64
		for _, r := range ranks {
			if first || r < minRank {
				minRank = r
				first = false
			}
		}
		fallback = minRank - 1
	}

	vectorScores := make([]float64, len(pool))
	lexicalScores := make([]float64, len(pool))
	for i := range pool {
		vectorScores[i] = pool[i].vectorScore
		if rank, ok := ranks[pool[i].fragment.RowID]; ok {
			lexicalScores[i] = rank
		} else {
			lexicalScores[i] = fallback
		}
	}

	normVector, err := normalizeScores(vectorScores)
	if err != nil {
		return nil, err
	}
	normLexical, err := normalizeScores(lexicalScores)
	if err != nil {
		return nil, err
	}

	for i := range pool {
		pool[i].fusedScore = alpha*normVector[i] + (1-alpha)*normLexical[i]
	}

	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].fusedScore > pool[j].fusedScore
	})

	if len(pool) > k {
		pool = pool[:k]
	}
	return pool, nil
}
