package usecase

import (
	"testing"

	"github.com/calyptra/regqa/internal/core/domain"
)

func TestNormalizeScoresRange(t *testing.T) {
	out, err := normalizeScores([]float64{-3.5, 0, 2.25, 10})
	if err != nil {
		t.Fatalf("normalizeScores() error = %v", err)
	}
	for i, v := range out {
		if v < 0 || v > 1 {
			t.Fatalf("output[%d] = %g, want value in [0,1]", i, v)
		}
	}
	if out[0] != 0 {
		t.Fatalf("minimum should map to 0, got %g", out[0])
	}
	if out[len(out)-1] != 1 {
		t.Fatalf("maximum should map to 1, got %g", out[len(out)-1])
	}
}

func TestNormalizeScoresMonotonic(t *testing.T) {
	in := []float64{0.1, 0.9, 0.4, 0.7}
	out, err := normalizeScores(in)
	if err != nil {
		t.Fatalf("normalizeScores() error = %v", err)
	}
	for i := range in {
		for j := range in {
			if in[i] < in[j] && out[i] >= out[j] {
				t.Fatalf("order not preserved: in[%d]=%g < in[%d]=%g but out %g >= %g", i, in[i], j, in[j], out[i], out[j])
			}
		}
	}
}

func TestNormalizeScoresFlatPool(t *testing.T) {
	out, err := normalizeScores([]float64{0.42, 0.42, 0.42})
	if err != nil {
		t.Fatalf("normalizeScores() error = %v", err)
	}
	for i, v := range out {
		if v != 1.0 {
			t.Fatalf("flat pool output[%d] = %g, want 1.0", i, v)
		}
	}
}

func TestNormalizeScoresEmpty(t *testing.T) {
	_, err := normalizeScores(nil)
	if err == nil {
		t.Fatalf("expected error for empty pool")
	}
	if !domain.IsKind(err, domain.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}
