package domain

import "strings"

// MatchMethod identifies how a mention was linked to a graph node. The set is
// closed and handled exhaustively at fusion time.
type MatchMethod string

const (
	MatchExact MatchMethod = "exact"
	MatchFuzzy MatchMethod = "fuzzy"
	MatchAlias MatchMethod = "alias"
)

// MatchCandidate links a mention from the user query to a graph node with a
// similarity score in [0,1]. The node is referenced by ID, not owned.
type MatchCandidate struct {
	Mention string
	NodeID  string
	Label   string
	Score   float64
	Method  MatchMethod
}

// ExpandedFact is an entity-relation-entity triple discovered during graph
// expansion. Depth counts hops from the seed node; Seed preserves the match
// that led the traversal there. Facts live only for the duration of a query.
type ExpandedFact struct {
	SourceID    string
	SourceLabel string
	Relation    string
	TargetID    string
	TargetLabel string
	Depth       int
	Seed        MatchCandidate
}

// Sentence renders the fact as a human-readable statement.
func (f ExpandedFact) Sentence() string {
	return f.SourceLabel + " " + f.Relation + " " + f.TargetLabel
}

// TripleKey is the deduplication key for the fact's underlying triple.
func (f ExpandedFact) TripleKey() string {
	return "fact:" + f.SourceID + "|" + f.Relation + "|" + f.TargetID
}

// VectorHit is a similarity-search result from the document index.
type VectorHit struct {
	ChunkID string
	Text    string
	Score   float64
	Source  string
}

// DedupKey is the deduplication key for the hit's underlying chunk.
func (h VectorHit) DedupKey() string {
	return "chunk:" + h.ChunkID
}

// ContextKind tags where a context item came from.
type ContextKind string

const (
	KindGraph  ContextKind = "graph"
	KindVector ContextKind = "vector"
)

// ContextItem is one fused piece of evidence with its combined relevance score.
type ContextItem struct {
	Kind     ContextKind
	Text     string
	Score    float64
	DedupKey string
	Source   string
}

// ContextBundle is the retriever's final output: an ordered, deduplicated
// sequence of evidence items. It is immutable once produced and owns no
// resources. Degradation flags advise the caller that one evidence path
// contributed nothing because its collaborator failed.
type ContextBundle struct {
	Items          []ContextItem
	GraphDegraded  bool
	VectorDegraded bool
	Advisories     []string
}

// Empty reports whether the bundle carries no evidence.
func (b ContextBundle) Empty() bool {
	return len(b.Items) == 0
}

// TextByKind joins the text of all items of the given kind, preserving rank
// order. Used when assembling the generation prompt.
func (b ContextBundle) TextByKind(kind ContextKind) string {
	var parts []string
	for _, item := range b.Items {
		if item.Kind == kind {
			parts = append(parts, item.Text)
		}
	}
	return strings.Join(parts, "\n")
}
