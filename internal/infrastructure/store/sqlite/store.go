package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/calyptra/regqa/internal/core/domain"
)

const defaultReadTimeout = 5 * time.Second

// Store reads fragments and lexical match ranks from the corpus database.
// The database is a build artifact of the offline indexer; at query time it
// is owned read-only by the service, so concurrent reads need no
// coordination beyond the connection pool.
type Store struct {
	db          *sql.DB
	readTimeout time.Duration
}

// Open opens the corpus database at path. One connection per pool slot; the
// pool itself is sized by database/sql.
func Open(path string, readTimeout time.Duration) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode=WAL&_pragma=synchronous=NORMAL&_pragma=busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open corpus database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, domain.WrapError(domain.ErrIndexUnavailable, "ping corpus database", err)
	}
	return New(db, readTimeout), nil
}

// New wraps an existing connection pool. Used directly by tests.
func New(db *sql.DB, readTimeout time.Duration) *Store {
	if readTimeout <= 0 {
		readTimeout = defaultReadTimeout
	}
	return &Store{db: db, readTimeout: readTimeout}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// FragmentByRowID fetches one stored fragment. A missing row is reported as
// ErrFragmentNotFound so candidate resolution can skip it; every other
// failure means the store could not be read.
func (s *Store) FragmentByRowID(ctx context.Context, rowID int64) (domain.Fragment, error) {
	ctx, cancel := context.WithTimeout(ctx, s.readTimeout)
	defer cancel()

	row := s.db.QueryRowContext(ctx,
		"SELECT rowid, fragment_text, source_file, page_number FROM fragments WHERE rowid = ?", rowID)

	var f domain.Fragment
	if err := row.Scan(&f.RowID, &f.Text, &f.SourceFile, &f.Page); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Fragment{}, domain.WrapError(domain.ErrFragmentNotFound, "fragment by rowid", err)
		}
		return domain.Fragment{}, domain.WrapError(domain.ErrIndexUnavailable, "fragment by rowid", err)
	}
	return f, nil
}

// MatchRanks runs the sanitized query against the FTS index and returns the
// match rank per row id. Ranks are negative values on the engine's native
// bm25 scale. The query text is bound as a parameter, never interpolated.
func (s *Store) MatchRanks(ctx context.Context, query string) (map[int64]float64, error) {
	// An all-operator query sanitizes down to nothing; FTS would reject the
	// empty match expression, so report no matches instead.
	if strings.TrimSpace(query) == "" {
		return map[int64]float64{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.readTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		"SELECT rowid, rank FROM fragments WHERE fragments MATCH ? ORDER BY rank", query)
	if err != nil {
		return nil, domain.WrapError(domain.ErrIndexUnavailable, "lexical match", err)
	}
	defer rows.Close()

	ranks := make(map[int64]float64)
	for rows.Next() {
		var rowID int64
		var rank float64
		if err := rows.Scan(&rowID, &rank); err != nil {
			return nil, domain.WrapError(domain.ErrIndexUnavailable, "scan lexical match", err)
		}
		ranks[rowID] = rank
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrIndexUnavailable, "iterate lexical matches", err)
	}
	return ranks, nil
}
