package retriever

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/devika/graphchat/internal/config"
	"github.com/devika/graphchat/internal/domain"
)

// VectorSearcher is the similarity-search contract the retriever requires
// from the document index.
type VectorSearcher interface {
	Search(ctx context.Context, embedding []float32, topK int) ([]domain.VectorHit, error)
}

// Embedder turns query text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Hybrid fuses knowledge graph evidence with vector similarity search. The
// graph path (mention extraction, fuzzy matching, expansion) and the vector
// path (embedding, search) run concurrently with independent timeouts; a
// failed path degrades to empty evidence and an advisory on the bundle rather
// than failing the query.
type Hybrid struct {
	graph    GraphAccess
	vector   VectorSearcher
	embedder Embedder
	scorer   Scorer
	logger   *slog.Logger

	mu      sync.RWMutex
	matcher *Matcher
}

// NewHybrid constructs a Hybrid retriever. A nil scorer defaults to
// WeightedRatioScorer.
func NewHybrid(graph GraphAccess, vector VectorSearcher, embedder Embedder, scorer Scorer, logger *slog.Logger) *Hybrid {
	if scorer == nil {
		scorer = WeightedRatioScorer{}
	}
	return &Hybrid{
		graph:    graph,
		vector:   vector,
		embedder: embedder,
		scorer:   scorer,
		logger:   logger,
	}
}

// RefreshIndex reloads the node label snapshot used for fuzzy matching.
// Callers should invoke it after graph ingestion; staleness within a single
// query's lifetime is acceptable.
func (h *Hybrid) RefreshIndex(ctx context.Context) error {
	nodes, err := h.graph.FindNodesByLabel(ctx, "")
	if err != nil {
		return err
	}
	matcher := NewMatcher(nodes, h.scorer)

	h.mu.Lock()
	h.matcher = matcher
	h.mu.Unlock()

	h.logger.Info("label index refreshed", "nodes", matcher.Size())
	return nil
}

func (h *Hybrid) matcherSnapshot(ctx context.Context) (*Matcher, error) {
	h.mu.RLock()
	matcher := h.matcher
	h.mu.RUnlock()
	if matcher != nil {
		return matcher, nil
	}
	if err := h.RefreshIndex(ctx); err != nil {
		return nil, err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.matcher, nil
}

// Retrieve runs the full hybrid pipeline for one query and returns the fused
// context bundle. An empty bundle is a valid result; only an invalid
// configuration or cancellation of the parent context is returned as an error.
func (h *Hybrid) Retrieve(ctx context.Context, query string, cfg config.RetrieverConfig) (domain.ContextBundle, error) {
	if err := cfg.Validate(); err != nil {
		return domain.ContextBundle{}, err
	}

	query = strings.TrimSpace(query)

	var (
		wg        sync.WaitGroup
		facts     []domain.ExpandedFact
		hits      []domain.VectorHit
		graphErr  error
		vectorErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		gctx, cancel := context.WithTimeout(ctx, cfg.GraphTimeout)
		defer cancel()
		facts, graphErr = h.graphPath(gctx, query, cfg)
	}()
	go func() {
		defer wg.Done()
		vctx, cancel := context.WithTimeout(ctx, cfg.VectorTimeout)
		defer cancel()
		hits, vectorErr = h.vectorPath(vctx, query, cfg.TopK)
	}()
	wg.Wait()

	// A cancelled request discards partial results instead of returning them.
	if err := ctx.Err(); err != nil {
		return domain.ContextBundle{}, err
	}

	bundle := domain.ContextBundle{}
	if graphErr != nil {
		h.logger.Warn("graph path degraded", "error", graphErr, "query", query)
		bundle.GraphDegraded = true
		bundle.Advisories = append(bundle.Advisories, "knowledge graph unavailable: "+graphErr.Error())
		facts = nil
	}
	if vectorErr != nil {
		h.logger.Warn("vector path degraded", "error", vectorErr, "query", query)
		bundle.VectorDegraded = true
		bundle.Advisories = append(bundle.Advisories, "vector search unavailable: "+vectorErr.Error())
		hits = nil
	}

	bundle.Items = fuse(facts, hits, cfg.DepthDecay, cfg.MaxContextItems, cfg.MaxContextChars)

	h.logger.Debug("retrieval complete",
		"query", query,
		"graph_facts", len(facts),
		"vector_hits", len(hits),
		"fused_items", len(bundle.Items),
	)
	return bundle, nil
}

// graphPath extracts mentions, links them to graph nodes, and expands the
// seed set into facts. A query with no usable mentions contributes nothing
// without being an error.
func (h *Hybrid) graphPath(ctx context.Context, query string, cfg config.RetrieverConfig) ([]domain.ExpandedFact, error) {
	mentions := ExtractMentions(query)
	if len(mentions) == 0 {
		return nil, nil
	}

	matcher, err := h.matcherSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	seeds := h.linkMentions(matcher, mentions, cfg)
	if len(seeds) == 0 {
		return nil, nil
	}

	return NewExpander(h.graph, h.logger).Expand(ctx, seeds, cfg.MaxDepth, cfg.MaxFacts)
}

// linkMentions unions per-mention match candidates into a seed set
// deduplicated by node ID, keeping the highest score per node, capped at
// MaxSeeds by score then node ID.
func (h *Hybrid) linkMentions(matcher *Matcher, mentions []string, cfg config.RetrieverConfig) []domain.MatchCandidate {
	best := map[string]domain.MatchCandidate{}
	for _, mention := range mentions {
		matches := matcher.Match(mention, cfg.FuzzyThreshold)
		if len(matches) > cfg.MaxMatchesPerMention {
			matches = matches[:cfg.MaxMatchesPerMention]
		}
		for _, match := range matches {
			if current, ok := best[match.NodeID]; !ok || match.Score > current.Score {
				best[match.NodeID] = match
			}
		}
	}

	seeds := make([]domain.MatchCandidate, 0, len(best))
	for _, candidate := range best {
		seeds = append(seeds, candidate)
	}
	sort.Slice(seeds, func(i, j int) bool {
		if seeds[i].Score != seeds[j].Score {
			return seeds[i].Score > seeds[j].Score
		}
		return seeds[i].NodeID < seeds[j].NodeID
	})
	if len(seeds) > cfg.MaxSeeds {
		seeds = seeds[:cfg.MaxSeeds]
	}
	return seeds
}

// vectorPath embeds the query and runs similarity search. An empty query is
// input degeneracy, not a collaborator failure, and yields no hits.
func (h *Hybrid) vectorPath(ctx context.Context, query string, topK int) ([]domain.VectorHit, error) {
	if query == "" {
		return nil, nil
	}
	embedding, err := h.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return h.vector.Search(ctx, embedding, topK)
}
