package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/calyptra/regqa/internal/core/domain"
	"github.com/calyptra/regqa/internal/core/ports"
)

// SearchConfig carries the tunable policy knobs of the retrieval engine.
type SearchConfig struct {
	// AnswerThreshold gates the extractive answer on the top result's score.
	AnswerThreshold float64
	// CandidateMultiplier sizes the hybrid candidate pool as a multiple of
	// the requested k, giving fusion enough margin to surface fragments that
	// are strong in only one scoring space.
	CandidateMultiplier int
	// DefaultAlpha weights vector similarity against lexical relevance when
	// the request does not set alpha.
	DefaultAlpha float64
}

func (c SearchConfig) normalize() SearchConfig {
	if c.AnswerThreshold == 0 {
		c.AnswerThreshold = 0.5
	}
	if c.CandidateMultiplier <= 0 {
		c.CandidateMultiplier = 6
	}
	if c.DefaultAlpha == 0 {
		c.DefaultAlpha = 0.6
	}
	return c
}

// SearchUseCase is the retrieval service façade. It owns mode dispatch, the
// candidate pool sizing policy, and response assembly; it is the only
// component aware of which score variant is authoritative per mode.
type SearchUseCase struct {
	embedder ports.Embedder
	index    ports.VectorIndex
	slots    ports.SlotMap
	store    ports.FragmentStore
	catalog  ports.SourceCatalog
	cfg      SearchConfig
}

func NewSearchUseCase(
	embedder ports.Embedder,
	index ports.VectorIndex,
	slots ports.SlotMap,
	store ports.FragmentStore,
	catalog ports.SourceCatalog,
	cfg SearchConfig,
) *SearchUseCase {
	return &SearchUseCase{
		embedder: embedder,
		index:    index,
		slots:    slots,
		store:    store,
		catalog:  catalog,
		cfg:      cfg.normalize(),
	}
}

// Query answers one question. Validation failures surface before any
// retrieval work begins. A negative alpha means the caller did not set a
// weight and the configured default applies; 0 is a valid explicit weight
// (pure lexical fusion), so it is never substituted.
func (uc *SearchUseCase) Query(
	ctx context.Context,
	text string,
	k int,
	mode domain.Mode,
	alpha float64,
) (*domain.QueryResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "query", errors.New("query text is required"))
	}
	if k < 1 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "query", fmt.Errorf("k must be >= 1, got %d", k))
	}
	if alpha < 0 {
		alpha = uc.cfg.DefaultAlpha
	}
	if alpha > 1 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "query", fmt.Errorf("alpha must be in [0,1], got %g", alpha))
	}

	switch mode {
	case domain.ModeBaseline:
		return uc.queryBaseline(ctx, text, k)
	case domain.ModeHybrid:
		return uc.queryHybrid(ctx, text, k, alpha)
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "query", fmt.Errorf("unknown mode %q", mode))
	}
}

func (uc *SearchUseCase) queryBaseline(ctx context.Context, text string, k int) (*domain.QueryResult, error) {
	pool, err := uc.retrieveCandidates(ctx, text, k)
	if err != nil {
		return nil, err
	}

	ranked := make([]domain.RankedFragment, 0, len(pool))
	for _, c := range pool {
		ranked = append(ranked, domain.RankedFragment{
			Fragment: c.fragment,
			Score:    domain.Score{Kind: domain.ScoreVector, Vector: c.vectorScore},
		})
	}
	return uc.buildResult(ranked, false), nil
}

func (uc *SearchUseCase) queryHybrid(ctx context.Context, text string, k int, alpha float64) (*domain.QueryResult, error) {
	pool, err := uc.retrieveCandidates(ctx, text, k*uc.cfg.CandidateMultiplier)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		// Nothing to fuse; the lexical index is not consulted.
		return uc.buildResult(nil, true), nil
	}

	ranks, err := uc.store.MatchRanks(ctx, sanitizeLexicalQuery(text))
	if err != nil {
		return nil, fmt.Errorf("lexical match: %w", err)
	}

	fused, err := fuseCandidates(pool, ranks, alpha, k)
	if err != nil {
		return nil, err
	}

	ranked := make([]domain.RankedFragment, 0, len(fused))
	for _, c := range fused {
		ranked = append(ranked, domain.RankedFragment{
			Fragment: c.fragment,
			Score:    domain.Score{Kind: domain.ScoreFused, Vector: c.vectorScore, Fused: c.fusedScore},
		})
	}
	return uc.buildResult(ranked, true), nil
}

// buildResult attaches source metadata and applies the answer gate. Missing
// catalog entries degrade to null title/link instead of failing the response.
func (uc *SearchUseCase) buildResult(ranked []domain.RankedFragment, rerankerUsed bool) *domain.QueryResult {
	contexts := make([]domain.Context, 0, len(ranked))
	for _, r := range ranked {
		c := domain.Context{
			Text:  r.Fragment.Text,
			Score: r.Score.Authoritative(),
		}
		if meta, ok := uc.catalog.Lookup(r.Fragment.SourceFile); ok {
			title, link := meta.Title, meta.URL
			c.SourceTitle = &title
			c.SourceLink = &link
		}
		contexts = append(contexts, c)
	}

	return &domain.QueryResult{
		Answer:       selectAnswer(ranked, uc.cfg.AnswerThreshold),
		Contexts:     contexts,
		RerankerUsed: rerankerUsed,
	}
}
