package retriever

import (
	"sort"

	"github.com/devika/graphchat/internal/domain"
)

// Matcher links mention strings to graph nodes by approximate label
// similarity. It operates on an immutable snapshot of node labels; build a new
// Matcher to pick up graph changes.
type Matcher struct {
	scorer Scorer
	nodes  []indexedNode
}

type indexedNode struct {
	node        domain.GraphNode
	normLabel   string
	normAliases []string
}

// NewMatcher indexes the given nodes for matching. A nil scorer defaults to
// WeightedRatioScorer.
func NewMatcher(nodes []domain.GraphNode, scorer Scorer) *Matcher {
	if scorer == nil {
		scorer = WeightedRatioScorer{}
	}

	indexed := make([]indexedNode, 0, len(nodes))
	for _, node := range nodes {
		in := indexedNode{node: node, normLabel: Normalize(node.Label)}
		if in.normLabel == "" {
			continue
		}
		for _, alias := range node.Aliases() {
			if norm := Normalize(alias); norm != "" {
				in.normAliases = append(in.normAliases, norm)
			}
		}
		indexed = append(indexed, in)
	}
	sort.Slice(indexed, func(i, j int) bool {
		return indexed[i].node.ID < indexed[j].node.ID
	})

	return &Matcher{scorer: scorer, nodes: indexed}
}

// Size returns the number of indexed nodes.
func (m *Matcher) Size() int {
	return len(m.nodes)
}

// Match returns candidates whose similarity to the mention clears the
// threshold, ranked by score descending. Exact normalized label equality
// short-circuits to 1.0/"exact"; exact alias equality to 1.0/"alias". Score
// ties prefer better-connected nodes, then lower node IDs, so ordering is
// reproducible. An empty result is not an error.
func (m *Matcher) Match(mention string, threshold float64) []domain.MatchCandidate {
	norm := Normalize(mention)
	if norm == "" {
		return nil
	}

	var candidates []domain.MatchCandidate
	for _, in := range m.nodes {
		score, method := m.score(norm, in)
		if score < threshold {
			continue
		}
		candidates = append(candidates, domain.MatchCandidate{
			Mention: mention,
			NodeID:  in.node.ID,
			Label:   in.node.Label,
			Score:   score,
			Method:  method,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		di, dj := m.degree(candidates[i].NodeID), m.degree(candidates[j].NodeID)
		if di != dj {
			return di > dj
		}
		return candidates[i].NodeID < candidates[j].NodeID
	})
	return candidates
}

func (m *Matcher) score(norm string, in indexedNode) (float64, domain.MatchMethod) {
	if norm == in.normLabel {
		return 1, domain.MatchExact
	}
	for _, alias := range in.normAliases {
		if norm == alias {
			return 1, domain.MatchAlias
		}
	}
	best := m.scorer.Similarity(norm, in.normLabel)
	for _, alias := range in.normAliases {
		if s := m.scorer.Similarity(norm, alias); s > best {
			best = s
		}
	}
	return best, domain.MatchFuzzy
}

func (m *Matcher) degree(nodeID string) int {
	idx := sort.Search(len(m.nodes), func(i int) bool {
		return m.nodes[i].node.ID >= nodeID
	})
	if idx < len(m.nodes) && m.nodes[idx].node.ID == nodeID {
		return m.nodes[idx].node.Degree
	}
	return 0
}
