package retriever

import (
	"math"
	"sort"

	"github.com/devika/graphchat/internal/domain"
)

// fuse merges graph facts and vector hits into one ranked, deduplicated list.
// Graph facts are scored as seed match score decayed per hop; vector hits keep
// their native similarity clamped to [0,1]. Ordering is fully deterministic:
// score descending, graph before vector on ties, then dedup key ascending.
func fuse(facts []domain.ExpandedFact, hits []domain.VectorHit, decay float64, maxItems, maxChars int) []domain.ContextItem {
	items := make([]domain.ContextItem, 0, len(facts)+len(hits))

	for _, fact := range facts {
		items = append(items, domain.ContextItem{
			Kind:     domain.KindGraph,
			Text:     fact.Sentence(),
			Score:    fact.Seed.Score * math.Pow(decay, float64(fact.Depth)),
			DedupKey: fact.TripleKey(),
			Source:   fact.Seed.Label,
		})
	}
	for _, hit := range hits {
		items = append(items, domain.ContextItem{
			Kind:     domain.KindVector,
			Text:     hit.Text,
			Score:    clamp01(hit.Score),
			DedupKey: hit.DedupKey(),
			Source:   hit.Source,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		if items[i].Kind != items[j].Kind {
			return items[i].Kind == domain.KindGraph
		}
		return items[i].DedupKey < items[j].DedupKey
	})

	// Items are sorted by score, so keeping the first occurrence of a key
	// retains the higher-scoring instance.
	seen := map[string]struct{}{}
	fused := items[:0]
	chars := 0
	for _, item := range items {
		if _, ok := seen[item.DedupKey]; ok {
			continue
		}
		if len(fused) >= maxItems || chars+len(item.Text) > maxChars {
			break
		}
		seen[item.DedupKey] = struct{}{}
		chars += len(item.Text)
		fused = append(fused, item)
	}
	return fused
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
