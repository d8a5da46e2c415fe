package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/calyptra/regqa/internal/core/domain"
	"github.com/calyptra/regqa/internal/core/ports"
)

type fakeEmbedder struct {
	queryCalls int
	vector     []float32
	err        error
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = f.vector
	}
	return out, f.err
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	f.queryCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

type fakeIndex struct {
	calls      int
	requestedK []int
	hits       []ports.SlotScore
	err        error
}

func (f *fakeIndex) Search(ctx context.Context, query []float32, k int) ([]ports.SlotScore, error) {
	f.calls++
	f.requestedK = append(f.requestedK, k)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.hits) > k {
		return f.hits[:k], nil
	}
	return f.hits, nil
}

type fakeSlotMap struct{}

func (fakeSlotMap) RowID(slot int) (int64, bool) {
	if slot < 0 {
		return 0, false
	}
	return int64(slot + 1), true
}

type fakeStore struct {
	fragments      map[int64]domain.Fragment
	ranks          map[int64]float64
	matchCalls     int
	lastMatchQuery string
}

func (f *fakeStore) FragmentByRowID(ctx context.Context, rowID int64) (domain.Fragment, error) {
	fragment, ok := f.fragments[rowID]
	if !ok {
		return domain.Fragment{}, domain.WrapError(domain.ErrFragmentNotFound, "fragment by rowid", errors.New("no such row"))
	}
	return fragment, nil
}

func (f *fakeStore) MatchRanks(ctx context.Context, query string) (map[int64]float64, error) {
	f.matchCalls++
	f.lastMatchQuery = query
	return f.ranks, nil
}

type fakeCatalog struct {
	entries map[string]domain.SourceMeta
}

func (f *fakeCatalog) Lookup(sourceFile string) (domain.SourceMeta, bool) {
	meta, ok := f.entries[sourceFile]
	return meta, ok
}

type fixture struct {
	embedder *fakeEmbedder
	index    *fakeIndex
	store    *fakeStore
	catalog  *fakeCatalog
	uc       *SearchUseCase
}

func newFixture(hits []ports.SlotScore, fragments map[int64]domain.Fragment, ranks map[int64]float64) *fixture {
	f := &fixture{
		embedder: &fakeEmbedder{vector: []float32{0.1, 0.2}},
		index:    &fakeIndex{hits: hits},
		store:    &fakeStore{fragments: fragments, ranks: ranks},
		catalog:  &fakeCatalog{entries: map[string]domain.SourceMeta{}},
	}
	f.uc = NewSearchUseCase(f.embedder, f.index, fakeSlotMap{}, f.store, f.catalog, SearchConfig{})
	return f
}

func fragmentRows(texts ...string) map[int64]domain.Fragment {
	rows := make(map[int64]domain.Fragment, len(texts))
	for i, text := range texts {
		rows[int64(i+1)] = domain.Fragment{RowID: int64(i + 1), Text: text, SourceFile: "osha3021.pdf", Page: i + 1}
	}
	return rows
}

func TestQueryRejectsEmptyText(t *testing.T) {
	f := newFixture(nil, nil, nil)
	for _, text := range []string{"", "   ", "\t\n"} {
		_, err := f.uc.Query(context.Background(), text, 3, domain.ModeHybrid, -1)
		if !domain.IsKind(err, domain.ErrInvalidInput) {
			t.Fatalf("text %q: expected ErrInvalidInput, got %v", text, err)
		}
	}
	if f.embedder.queryCalls != 0 || f.index.calls != 0 {
		t.Fatalf("retrieval ran for invalid text: embed=%d search=%d", f.embedder.queryCalls, f.index.calls)
	}
}

func TestQueryRejectsNonPositiveK(t *testing.T) {
	f := newFixture(nil, nil, nil)
	for _, k := range []int{0, -1} {
		_, err := f.uc.Query(context.Background(), "question", k, domain.ModeHybrid, -1)
		if !domain.IsKind(err, domain.ErrInvalidInput) {
			t.Fatalf("k=%d: expected ErrInvalidInput, got %v", k, err)
		}
	}
	if f.index.calls != 0 {
		t.Fatalf("index searched despite invalid k")
	}
}

func TestQueryRejectsAlphaAboveOne(t *testing.T) {
	f := newFixture(nil, nil, nil)
	_, err := f.uc.Query(context.Background(), "question", 3, domain.ModeHybrid, 1.5)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("alpha=1.5: expected ErrInvalidInput, got %v", err)
	}
}

// reorderFixture returns a pool where the vector space and the lexical space
// disagree on the winner: row 1 leads on vector score, row 2 on lexical rank.
func reorderFixture() *fixture {
	return newFixture(
		[]ports.SlotScore{{Slot: 0, Score: 0.9}, {Slot: 1, Score: 0.8}},
		fragmentRows("vector winner", "lexical winner"),
		map[int64]float64{1: -8, 2: -2},
	)
}

func TestQueryHonorsExplicitZeroAlpha(t *testing.T) {
	f := reorderFixture()

	// alpha=0 is pure lexical fusion, not "unset": the default weight would
	// put the vector winner first.
	res, err := f.uc.Query(context.Background(), "question", 2, domain.ModeHybrid, 0)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if res.Contexts[0].Text != "lexical winner" {
		t.Fatalf("alpha=0 not honored: top context = %q, want %q", res.Contexts[0].Text, "lexical winner")
	}
}

func TestQueryNegativeAlphaMeansDefault(t *testing.T) {
	f := reorderFixture()

	// The sentinel falls back to the configured default (0.6, favoring the
	// vector signal), which ranks the other fragment first.
	res, err := f.uc.Query(context.Background(), "question", 2, domain.ModeHybrid, -1)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if res.Contexts[0].Text != "vector winner" {
		t.Fatalf("default alpha: top context = %q, want %q", res.Contexts[0].Text, "vector winner")
	}
}

func TestQueryRejectsUnknownMode(t *testing.T) {
	f := newFixture(nil, nil, nil)
	_, err := f.uc.Query(context.Background(), "question", 3, domain.Mode("turbo"), 0)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown mode, got %v", err)
	}
	if f.embedder.queryCalls != 0 {
		t.Fatalf("embedder called %d times for unknown mode, want 0", f.embedder.queryCalls)
	}
	if f.index.calls != 0 {
		t.Fatalf("index searched %d times for unknown mode, want 0", f.index.calls)
	}
	if f.store.matchCalls != 0 {
		t.Fatalf("lexical store consulted for unknown mode")
	}
}

func TestQueryBaselineCarriesRawVectorScores(t *testing.T) {
	f := newFixture(
		[]ports.SlotScore{{Slot: 0, Score: 0.92}, {Slot: 1, Score: 0.71}},
		fragmentRows("first fragment", "second fragment"),
		nil,
	)

	res, err := f.uc.Query(context.Background(), "question", 2, domain.ModeBaseline, -1)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if res.RerankerUsed {
		t.Fatalf("baseline response flagged as reranked")
	}
	if len(res.Contexts) != 2 {
		t.Fatalf("got %d contexts, want 2", len(res.Contexts))
	}
	if res.Contexts[0].Score != float64(float32(0.92)) {
		t.Fatalf("top score = %g, want raw vector score", res.Contexts[0].Score)
	}
	if f.store.matchCalls != 0 {
		t.Fatalf("baseline consulted the lexical index")
	}
	if got := f.index.requestedK[0]; got != 2 {
		t.Fatalf("baseline requested %d candidates, want k=2", got)
	}
}

func TestQueryHybridRequestsWidenedPool(t *testing.T) {
	f := newFixture(
		[]ports.SlotScore{{Slot: 0, Score: 0.9}},
		fragmentRows("only fragment"),
		map[int64]float64{1: -4},
	)

	if _, err := f.uc.Query(context.Background(), "question", 3, domain.ModeHybrid, -1); err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if got := f.index.requestedK[0]; got != 18 {
		t.Fatalf("hybrid requested %d candidates for k=3, want 18", got)
	}
}

func TestQueryHybridFlagsRerankerAndFusedScores(t *testing.T) {
	f := newFixture(
		[]ports.SlotScore{{Slot: 0, Score: 0.9}, {Slot: 1, Score: 0.5}},
		fragmentRows("strong match", "weak match"),
		map[int64]float64{1: -2, 2: -8},
	)

	res, err := f.uc.Query(context.Background(), "question", 2, domain.ModeHybrid, 0.6)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if !res.RerankerUsed {
		t.Fatalf("hybrid response not flagged as reranked")
	}
	// Row 1 tops both spaces, so its fused score normalizes to exactly 1.
	if res.Contexts[0].Score != 1.0 {
		t.Fatalf("top fused score = %g, want 1.0", res.Contexts[0].Score)
	}
	if res.Answer == nil || *res.Answer != "strong match" {
		t.Fatalf("expected extractive answer from the top fragment, got %v", res.Answer)
	}
	if f.store.matchCalls != 1 {
		t.Fatalf("lexical index consulted %d times, want 1", f.store.matchCalls)
	}
}

func TestQueryHybridEmptyPoolSkipsLexical(t *testing.T) {
	f := newFixture(nil, nil, nil)

	res, err := f.uc.Query(context.Background(), "question", 3, domain.ModeHybrid, -1)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if f.store.matchCalls != 0 {
		t.Fatalf("lexical index consulted despite empty candidate pool")
	}
	if res.Answer != nil {
		t.Fatalf("expected abstention on empty pool, got %q", *res.Answer)
	}
	if len(res.Contexts) != 0 {
		t.Fatalf("expected no contexts, got %d", len(res.Contexts))
	}
	if !res.RerankerUsed {
		t.Fatalf("hybrid empty-pool response should still report its mode")
	}
}

func TestQueryAbstainsButReturnsContexts(t *testing.T) {
	f := newFixture(
		[]ports.SlotScore{{Slot: 0, Score: 0.3}, {Slot: 1, Score: 0.2}},
		fragmentRows("low confidence a", "low confidence b"),
		nil,
	)

	res, err := f.uc.Query(context.Background(), "question", 2, domain.ModeBaseline, -1)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if res.Answer != nil {
		t.Fatalf("expected abstention below threshold, got %q", *res.Answer)
	}
	if len(res.Contexts) != 2 {
		t.Fatalf("abstention dropped the supporting contexts: got %d", len(res.Contexts))
	}
}

func TestQueryMissingCatalogEntryDegrades(t *testing.T) {
	f := newFixture(
		[]ports.SlotScore{{Slot: 0, Score: 0.9}},
		fragmentRows("orphaned fragment"),
		nil,
	)

	res, err := f.uc.Query(context.Background(), "question", 1, domain.ModeBaseline, -1)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if res.Contexts[0].SourceTitle != nil || res.Contexts[0].SourceLink != nil {
		t.Fatalf("expected nil source metadata for uncatalogued file")
	}
}

func TestQueryAttachesCatalogMetadata(t *testing.T) {
	f := newFixture(
		[]ports.SlotScore{{Slot: 0, Score: 0.9}},
		fragmentRows("catalogued fragment"),
		nil,
	)
	f.catalog.entries["osha3021.pdf"] = domain.SourceMeta{
		Title: "OSHA 3021 Workers' Rights",
		URL:   "https://www.osha.gov/sites/default/files/publications/osha3021.pdf",
	}

	res, err := f.uc.Query(context.Background(), "question", 1, domain.ModeBaseline, -1)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	c := res.Contexts[0]
	if c.SourceTitle == nil || *c.SourceTitle != "OSHA 3021 Workers' Rights" {
		t.Fatalf("source title not attached: %v", c.SourceTitle)
	}
	if c.SourceLink == nil || *c.SourceLink == "" {
		t.Fatalf("source link not attached")
	}
}

func TestQuerySanitizesLexicalQuery(t *testing.T) {
	f := newFixture(
		[]ports.SlotScore{{Slot: 0, Score: 0.9}},
		fragmentRows("fragment"),
		map[int64]float64{1: -3},
	)

	if _, err := f.uc.Query(context.Background(), `what is "CE-marking"?`, 1, domain.ModeHybrid, -1); err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if f.store.lastMatchQuery != "what is CEmarking" {
		t.Fatalf("lexical query = %q, want punctuation stripped", f.store.lastMatchQuery)
	}
}

func TestQuerySkipsSentinelAndUnresolvedSlots(t *testing.T) {
	f := newFixture(
		[]ports.SlotScore{{Slot: -1, Score: 0}, {Slot: 0, Score: 0.9}, {Slot: 5, Score: 0.8}},
		fragmentRows("resolvable fragment"),
		nil,
	)

	res, err := f.uc.Query(context.Background(), "question", 3, domain.ModeBaseline, -1)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(res.Contexts) != 1 {
		t.Fatalf("expected 1 context after skipping sentinel and stale slots, got %d", len(res.Contexts))
	}
	if res.Contexts[0].Text != "resolvable fragment" {
		t.Fatalf("unexpected surviving context %q", res.Contexts[0].Text)
	}
}

// Full hybrid pass over a two-fragment corpus: the relevant fragment must
// come back as the single context with the reranked flag set and its text as
// the extractive answer.
func TestQueryHybridEndToEnd(t *testing.T) {
	ceText := "CE marking indicates conformity with health, safety, and environmental protection standards"
	f := newFixture(
		[]ports.SlotScore{{Slot: 0, Score: 0.82}, {Slot: 1, Score: 0.41}},
		map[int64]domain.Fragment{
			1: {RowID: 1, Text: ceText, SourceFile: "reg1.pdf", Page: 4},
			2: {RowID: 2, Text: "Lockout-tagout procedures control hazardous energy during servicing", SourceFile: "reg2.pdf", Page: 9},
		},
		map[int64]float64{1: -5},
	)
	f.catalog.entries["reg1.pdf"] = domain.SourceMeta{
		Title: "Machinery Regulation Overview",
		URL:   "https://example.org/reg1.pdf",
	}

	res, err := f.uc.Query(context.Background(), "What is the CE marking of machinery?", 1, domain.ModeHybrid, -1)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if !res.RerankerUsed {
		t.Fatalf("hybrid response not flagged as reranked")
	}
	if len(res.Contexts) != 1 {
		t.Fatalf("got %d contexts, want k=1", len(res.Contexts))
	}
	if res.Contexts[0].Text != ceText {
		t.Fatalf("top context = %q, want the CE marking fragment", res.Contexts[0].Text)
	}
	if res.Contexts[0].SourceTitle == nil || *res.Contexts[0].SourceTitle != "Machinery Regulation Overview" {
		t.Fatalf("source title = %v", res.Contexts[0].SourceTitle)
	}
	if res.Answer == nil || *res.Answer != ceText {
		t.Fatalf("answer = %v, want the top fragment verbatim", res.Answer)
	}
}

// A fragment strong in the lexical space must be able to overtake one that
// only the vector space favors once fusion weighs both signals.
func TestQueryHybridLexicalSignalReordersPool(t *testing.T) {
	f := newFixture(
		[]ports.SlotScore{{Slot: 0, Score: 0.90}, {Slot: 1, Score: 0.88}},
		map[int64]domain.Fragment{
			1: {RowID: 1, Text: "general product safety overview", SourceFile: "osha3021.pdf", Page: 2},
			2: {RowID: 2, Text: "CE marking affixed by the manufacturer indicates conformity", SourceFile: "osha3021.pdf", Page: 7},
		},
		map[int64]float64{1: -14, 2: -1},
	)

	// Alpha below 0.5 lets the lexical winner outweigh the vector winner.
	res, err := f.uc.Query(context.Background(), "what does CE marking indicate", 2, domain.ModeHybrid, 0.4)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if res.Contexts[0].Text != "CE marking affixed by the manufacturer indicates conformity" {
		t.Fatalf("lexical winner did not take first place: %q", res.Contexts[0].Text)
	}
	if res.Answer == nil {
		t.Fatalf("expected an answer for the confident top result")
	}
	if *res.Answer != res.Contexts[0].Text {
		t.Fatalf("answer %q is not the top context verbatim", *res.Answer)
	}
}
