package domain

// Fragment is an immutable unit of retrievable corpus text. The row id is
// stable across the vector index and the lexical index; fragments are created
// by the offline indexer and never mutated at query time.
type Fragment struct {
	RowID      int64  `json:"row_id"`
	Text       string `json:"text"`
	SourceFile string `json:"source_file"`
	Page       int    `json:"page_number"`
}

// SourceMeta carries per-document attributes used only for response
// enrichment; it never influences ranking.
type SourceMeta struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}
