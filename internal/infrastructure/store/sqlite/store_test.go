package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/calyptra/regqa/internal/core/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "corpus.db"), time.Second)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func seedCorpus(t *testing.T, store *Store, fragments []domain.Fragment) {
	t.Helper()
	ctx := context.Background()
	if err := store.Rebuild(ctx); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if err := store.InsertFragments(ctx, fragments); err != nil {
		t.Fatalf("InsertFragments() error = %v", err)
	}
}

func TestFragmentByRowID(t *testing.T) {
	store := openTestStore(t)
	seedCorpus(t, store, []domain.Fragment{
		{Text: "machine guarding prevents contact with moving parts", SourceFile: "osha3170.pdf", Page: 4},
		{Text: "lockout tagout controls hazardous energy", SourceFile: "osha3120.pdf", Page: 2},
	})

	f, err := store.FragmentByRowID(context.Background(), 2)
	if err != nil {
		t.Fatalf("FragmentByRowID() error = %v", err)
	}
	if f.RowID != 2 || f.SourceFile != "osha3120.pdf" || f.Page != 2 {
		t.Fatalf("fragment = %+v", f)
	}
}

func TestFragmentByRowIDNotFound(t *testing.T) {
	store := openTestStore(t)
	seedCorpus(t, store, []domain.Fragment{{Text: "lone fragment", SourceFile: "a.pdf", Page: 1}})

	_, err := store.FragmentByRowID(context.Background(), 99)
	if !domain.IsKind(err, domain.ErrFragmentNotFound) {
		t.Fatalf("expected ErrFragmentNotFound, got %v", err)
	}
}

func TestMatchRanksNegativeAndOrdered(t *testing.T) {
	store := openTestStore(t)
	seedCorpus(t, store, []domain.Fragment{
		{Text: "guarding guarding guarding of machines", SourceFile: "a.pdf", Page: 1},
		{Text: "a single mention of guarding among much other text about workplace safety programs", SourceFile: "a.pdf", Page: 2},
		{Text: "nothing relevant here", SourceFile: "a.pdf", Page: 3},
	})

	ranks, err := store.MatchRanks(context.Background(), "guarding")
	if err != nil {
		t.Fatalf("MatchRanks() error = %v", err)
	}
	if len(ranks) != 2 {
		t.Fatalf("got %d matches, want 2: %v", len(ranks), ranks)
	}
	for rowID, rank := range ranks {
		if rank >= 0 {
			t.Fatalf("row %d rank = %g, want negative", rowID, rank)
		}
	}
	// Row 1 repeats the term in a shorter fragment, so bm25 scores it
	// stronger, which the rank column reports as the more negative value.
	if ranks[1] >= ranks[2] {
		t.Fatalf("expected row 1 (%g) more negative than row 2 (%g)", ranks[1], ranks[2])
	}
}

func TestMatchRanksEmptyQuery(t *testing.T) {
	store := openTestStore(t)
	seedCorpus(t, store, []domain.Fragment{{Text: "guarding", SourceFile: "a.pdf", Page: 1}})

	for _, q := range []string{"", "   "} {
		ranks, err := store.MatchRanks(context.Background(), q)
		if err != nil {
			t.Fatalf("MatchRanks(%q) error = %v", q, err)
		}
		if len(ranks) != 0 {
			t.Fatalf("MatchRanks(%q) = %v, want empty", q, ranks)
		}
	}
}

func TestFragmentsOrdered(t *testing.T) {
	store := openTestStore(t)
	seedCorpus(t, store, []domain.Fragment{
		{Text: "first", SourceFile: "a.pdf", Page: 1},
		{Text: "second", SourceFile: "a.pdf", Page: 2},
		{Text: "third", SourceFile: "b.pdf", Page: 1},
	})

	fragments, err := store.FragmentsOrdered(context.Background())
	if err != nil {
		t.Fatalf("FragmentsOrdered() error = %v", err)
	}
	if len(fragments) != 3 {
		t.Fatalf("got %d fragments, want 3", len(fragments))
	}
	for i, f := range fragments {
		if f.RowID != int64(i+1) {
			t.Fatalf("fragment %d has rowid %d", i, f.RowID)
		}
	}
}

func TestRebuildResetsCorpus(t *testing.T) {
	store := openTestStore(t)
	seedCorpus(t, store, []domain.Fragment{{Text: "stale", SourceFile: "a.pdf", Page: 1}})
	seedCorpus(t, store, []domain.Fragment{{Text: "fresh", SourceFile: "b.pdf", Page: 1}})

	fragments, err := store.FragmentsOrdered(context.Background())
	if err != nil {
		t.Fatalf("FragmentsOrdered() error = %v", err)
	}
	if len(fragments) != 1 || fragments[0].Text != "fresh" {
		t.Fatalf("rebuild did not reset the corpus: %+v", fragments)
	}
}

func TestFragmentByRowIDStoreFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	store := New(db, time.Second)
	defer store.Close()

	mock.ExpectQuery("SELECT rowid, fragment_text").WillReturnError(errors.New("disk I/O error"))

	_, err = store.FragmentByRowID(context.Background(), 1)
	if !domain.IsKind(err, domain.ErrIndexUnavailable) {
		t.Fatalf("expected ErrIndexUnavailable, got %v", err)
	}
}

func TestMatchRanksStoreFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	store := New(db, time.Second)
	defer store.Close()

	mock.ExpectQuery("SELECT rowid, rank").WillReturnError(errors.New("database is locked"))

	_, err = store.MatchRanks(context.Background(), "guarding")
	if !domain.IsKind(err, domain.ErrIndexUnavailable) {
		t.Fatalf("expected ErrIndexUnavailable, got %v", err)
	}
}
