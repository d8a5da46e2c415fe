package sqlite

import (
	"context"
	"fmt"

	"github.com/calyptra/regqa/internal/core/domain"
)

// Rebuild drops and recreates the FTS corpus table. The corpus is static per
// index build; there is no incremental path.
func (s *Store) Rebuild(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS fragments"); err != nil {
		return fmt.Errorf("drop fragments table: %w", err)
	}

	// source_file and page_number are unindexed: they are carried for
	// retrieval only and must not participate in lexical matching.
	const createTable = `
		CREATE VIRTUAL TABLE fragments USING fts5(
			fragment_text,
			source_file UNINDEXED,
			page_number UNINDEXED
		)`
	if _, err := s.db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("create fragments table: %w", err)
	}
	return nil
}

// InsertFragments loads extracted fragments in one transaction. Row ids are
// assigned by insertion order and become the stable fragment identifiers.
func (s *Store) InsertFragments(ctx context.Context, fragments []domain.Fragment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO fragments (fragment_text, source_file, page_number) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare fragment insert: %w", err)
	}
	defer stmt.Close()

	for i, f := range fragments {
		if _, err := stmt.ExecContext(ctx, f.Text, f.SourceFile, f.Page); err != nil {
			return fmt.Errorf("insert fragment %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit fragment insert: %w", err)
	}
	return nil
}

// FragmentsOrdered streams every stored fragment in row id order, the same
// order the vector index is filled in. The slot map is derived from this
// ordering.
func (s *Store) FragmentsOrdered(ctx context.Context) ([]domain.Fragment, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT rowid, fragment_text, source_file, page_number FROM fragments ORDER BY rowid")
	if err != nil {
		return nil, domain.WrapError(domain.ErrIndexUnavailable, "list fragments", err)
	}
	defer rows.Close()

	var fragments []domain.Fragment
	for rows.Next() {
		var f domain.Fragment
		if err := rows.Scan(&f.RowID, &f.Text, &f.SourceFile, &f.Page); err != nil {
			return nil, domain.WrapError(domain.ErrIndexUnavailable, "scan fragment", err)
		}
		fragments = append(fragments, f)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrIndexUnavailable, "iterate fragments", err)
	}
	return fragments, nil
}
