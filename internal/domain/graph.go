package domain

// GraphNode is an entity in the knowledge graph. Nodes are created by the
// ingestion pipeline and are read-only to the retriever.
type GraphNode struct {
	ID         string
	Label      string
	Type       string
	Attributes map[string]any
	// Degree is the total number of edges touching this node, denormalized by
	// the knowledge repository so the matcher can break score ties on salience.
	Degree int
}

// Aliases returns alternative labels stored under the "aliases" attribute.
func (n GraphNode) Aliases() []string {
	raw, ok := n.Attributes["aliases"]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		aliases := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				aliases = append(aliases, s)
			}
		}
		return aliases
	default:
		return nil
	}
}

// GraphEdge is a directed, typed relationship between two nodes. Endpoint
// labels are denormalized by the repository so facts can be rendered without a
// second lookup; an edge whose endpoint no longer resolves carries an empty
// label.
type GraphEdge struct {
	ID          string
	SourceID    string
	SourceLabel string
	TargetID    string
	TargetLabel string
	Relation    string
	Attributes  map[string]any
}

// Dangling reports whether either endpoint of the edge failed to resolve.
func (e GraphEdge) Dangling() bool {
	return e.SourceID == "" || e.TargetID == "" || e.SourceLabel == "" || e.TargetLabel == ""
}

// EdgeDirection selects which edges of a node to fetch.
type EdgeDirection string

const (
	DirectionOutgoing EdgeDirection = "outgoing"
	DirectionIncoming EdgeDirection = "incoming"
	DirectionBoth     EdgeDirection = "both"
)

// GraphStats summarizes knowledge graph contents.
type GraphStats struct {
	Entities      int64
	Relationships int64
}
