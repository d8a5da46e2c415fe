package domain

import "fmt"

// Mode selects the retrieval strategy for a query.
type Mode string

const (
	ModeBaseline Mode = "baseline"
	ModeHybrid   Mode = "hybrid"
)

// ParseMode validates a request mode string. Unknown values fail the whole
// request before any retrieval work begins.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeBaseline, ModeHybrid:
		return Mode(s), nil
	default:
		return "", WrapError(ErrInvalidInput, "parse mode", fmt.Errorf("unknown mode %q, choose 'baseline' or 'hybrid'", s))
	}
}

// ScoreKind tags which relevance signal is authoritative for a ranked
// fragment. Baseline results carry only the raw vector score; hybrid results
// carry the fused score as well.
type ScoreKind int

const (
	ScoreVector ScoreKind = iota
	ScoreFused
)

// Score is the tagged relevance variant attached to every ranked fragment.
// Consumers switch on Kind instead of probing for an optional field.
type Score struct {
	Kind   ScoreKind
	Vector float64
	Fused  float64
}

// Authoritative returns the signal that ranks the fragment in its mode.
func (s Score) Authoritative() float64 {
	if s.Kind == ScoreFused {
		return s.Fused
	}
	return s.Vector
}

// RankedFragment is one entry of the final ranking produced by either mode.
type RankedFragment struct {
	Fragment Fragment
	Score    Score
}

// Context is one supporting passage of the externally visible response.
// Title and link are nil when the source catalog has no entry for the
// fragment's document; that is a degraded response, not an error.
type Context struct {
	Text        string  `json:"text"`
	SourceTitle *string `json:"source_title"`
	SourceLink  *string `json:"source_link"`
	Score       float64 `json:"score"`
}

// QueryResult is the externally visible shape of one answered query. Answer
// is nil when the engine abstains; contexts are still returned.
type QueryResult struct {
	Answer       *string   `json:"answer"`
	Contexts     []Context `json:"contexts"`
	RerankerUsed bool      `json:"reranker_used"`
}
