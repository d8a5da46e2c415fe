package usecase

import (
	"errors"

	"github.com/calyptra/regqa/internal/core/domain"
)

// normalizeScores maps a score pool into [0,1] against its own min/max, so
// score spaces that are not mutually comparable can be fused afterwards. A
// flat distribution maps to 1.0 everywhere: it contributes full weight
// instead of being suppressed to zero.
func normalizeScores(scores []float64) ([]float64, error) {
	if len(scores) == 0 {
		return nil, domain.WrapError(domain.ErrEmptyInput, "normalize scores", errors.New("score pool is empty"))
	}

	minScore, maxScore := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < minScore {
			minScore = s
		}
		if s > maxScore {
			maxScore = s
		}
	}

	out := make([]float64, len(scores))
	if maxScore == minScore {
		for i := range out {
			out[i] = 1.0
		}
		return out, nil
	}

	spread := maxScore - minScore
	for i, s := range scores {
		out[i] = (s - minScore) / spread
	}
	return out, nil
}
