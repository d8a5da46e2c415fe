package usecase

import "github.com/calyptra/regqa/internal/core/domain"

// selectAnswer gates the extractive answer on the top-ranked result's
// authoritative score: fused when the reranker ran, raw vector otherwise.
// An empty ranking or a top score below the threshold abstains; supporting
// contexts are still returned by the caller. The answer is always a verbatim
// fragment text, never generated.
func selectAnswer(ranked []domain.RankedFragment, threshold float64) *string {
	if len(ranked) == 0 {
		return nil
	}

	top := ranked[0]
	var confidence float64
	switch top.Score.Kind {
	case domain.ScoreFused:
		confidence = top.Score.Fused
	default:
		confidence = top.Score.Vector
	}

	if confidence < threshold {
		return nil
	}

	text := top.Fragment.Text
	return &text
}
