package retriever

import (
	"context"
	"log/slog"
	"sort"

	"github.com/devika/graphchat/internal/domain"
)

// GraphAccess is the read-only query contract the retriever requires from the
// knowledge graph.
type GraphAccess interface {
	FindNodesByLabel(ctx context.Context, substring string) ([]domain.GraphNode, error)
	GetEdges(ctx context.Context, nodeID string, direction domain.EdgeDirection) ([]domain.GraphEdge, error)
}

// Expander collects neighboring facts around seed nodes via bounded
// breadth-first traversal. The visited set is local to each Expand call.
type Expander struct {
	graph  GraphAccess
	logger *slog.Logger
}

// NewExpander constructs an Expander over the given graph access.
func NewExpander(graph GraphAccess, logger *slog.Logger) *Expander {
	return &Expander{graph: graph, logger: logger}
}

type frontierEntry struct {
	nodeID string
	seed   domain.MatchCandidate
}

// Expand traverses outward from the seed matches, both edge directions, up to
// maxDepth hops, collecting at most maxFacts unique facts. Seed-adjacent facts
// are always collected before deeper ones, duplicate triples are dropped, and
// no node is visited twice within one call. Ordering is deterministic for a
// fixed graph snapshot and seed set: seeds by score descending then node ID,
// edges by edge ID. Edges with unresolved endpoints are skipped with a
// warning.
func (e *Expander) Expand(ctx context.Context, seeds []domain.MatchCandidate, maxDepth, maxFacts int) ([]domain.ExpandedFact, error) {
	if len(seeds) == 0 || maxDepth <= 0 || maxFacts <= 0 {
		return nil, nil
	}

	ordered := append([]domain.MatchCandidate(nil), seeds...)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Score != ordered[j].Score {
			return ordered[i].Score > ordered[j].Score
		}
		return ordered[i].NodeID < ordered[j].NodeID
	})

	visited := map[string]struct{}{}
	var frontier []frontierEntry
	for _, seed := range ordered {
		if _, ok := visited[seed.NodeID]; ok {
			continue
		}
		visited[seed.NodeID] = struct{}{}
		frontier = append(frontier, frontierEntry{nodeID: seed.NodeID, seed: seed})
	}

	seenTriples := map[string]struct{}{}
	var facts []domain.ExpandedFact

	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		var next []frontierEntry
		for _, entry := range frontier {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			edges, err := e.graph.GetEdges(ctx, entry.nodeID, domain.DirectionBoth)
			if err != nil {
				return nil, err
			}
			sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })

			for _, edge := range edges {
				if edge.Dangling() {
					e.logger.Warn("skipping edge with unresolved endpoint",
						"edge", edge.ID, "node", entry.nodeID)
					continue
				}

				fact := domain.ExpandedFact{
					SourceID:    edge.SourceID,
					SourceLabel: edge.SourceLabel,
					Relation:    edge.Relation,
					TargetID:    edge.TargetID,
					TargetLabel: edge.TargetLabel,
					Depth:       depth,
					Seed:        entry.seed,
				}
				key := fact.TripleKey()
				if _, ok := seenTriples[key]; ok {
					continue
				}
				seenTriples[key] = struct{}{}
				facts = append(facts, fact)
				if len(facts) >= maxFacts {
					return facts, nil
				}

				neighbor := edge.TargetID
				if neighbor == entry.nodeID {
					neighbor = edge.SourceID
				}
				if _, ok := visited[neighbor]; !ok {
					visited[neighbor] = struct{}{}
					next = append(next, frontierEntry{nodeID: neighbor, seed: entry.seed})
				}
			}
		}
		frontier = next
	}
	return facts, nil
}
