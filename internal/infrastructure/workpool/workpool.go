// Package workpool bounds concurrent query execution. Embedding and
// nearest-neighbor search are CPU-bound, so the pool is sized to the
// available cores; excess requests queue on submit instead of
// oversubscribing the search path.
package workpool

import (
	"context"
	"runtime"

	"github.com/panjf2000/ants/v2"

	"github.com/calyptra/regqa/internal/core/domain"
	"github.com/calyptra/regqa/internal/core/ports"
)

type Dispatcher struct {
	pool *ants.Pool
}

// NewDispatcher creates the bounded pool. size <= 0 means one worker per
// CPU core.
func NewDispatcher(size int) (*Dispatcher, error) {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}
	return &Dispatcher{pool: pool}, nil
}

func (d *Dispatcher) Release() {
	d.pool.Release()
}

// QueryService runs every query of the wrapped service on the bounded pool.
type QueryService struct {
	inner      ports.QueryService
	dispatcher *Dispatcher
}

func NewQueryService(inner ports.QueryService, dispatcher *Dispatcher) *QueryService {
	return &QueryService{inner: inner, dispatcher: dispatcher}
}

func (s *QueryService) Query(
	ctx context.Context,
	text string,
	k int,
	mode domain.Mode,
	alpha float64,
) (*domain.QueryResult, error) {
	var (
		result *domain.QueryResult
		qerr   error
	)
	done := make(chan struct{})

	if err := s.dispatcher.pool.Submit(func() {
		defer close(done)
		result, qerr = s.inner.Query(ctx, text, k, mode, alpha)
	}); err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "dispatch query", err)
	}

	select {
	case <-done:
		return result, qerr
	case <-ctx.Done():
		// The worker still owns result/qerr; only the context error may be
		// returned from here.
		return nil, ctx.Err()
	}
}
