package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks malformed requests (empty query, unknown mode,
	// k < 1). Surfaced before any retrieval work starts.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyInput marks a normalization call that received no scores.
	// Callers short-circuit on empty candidate pools, so hitting this is an
	// invariant violation, not a user-facing condition.
	ErrEmptyInput = errors.New("empty input")

	// ErrIndexUnavailable marks a vector index, lexical index, or corpus
	// store that could not be read, including reads that timed out.
	ErrIndexUnavailable = errors.New("index unavailable")

	// ErrTemporary marks transient failures of outbound collaborators
	// (embedding service, document downloads).
	ErrTemporary = errors.New("temporary failure")

	// ErrFragmentNotFound marks a row id with no stored fragment. Candidate
	// resolution skips these instead of failing the query.
	ErrFragmentNotFound = errors.New("fragment not found")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
