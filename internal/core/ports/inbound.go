package ports

import (
	"context"

	"github.com/calyptra/regqa/internal/core/domain"
)

// QueryService answers natural-language questions against the fixed corpus.
// alpha weights vector similarity against lexical relevance in [0,1]; a
// negative value means the caller did not choose a weight and the configured
// default applies.
type QueryService interface {
	Query(ctx context.Context, text string, k int, mode domain.Mode, alpha float64) (*domain.QueryResult, error)
}
