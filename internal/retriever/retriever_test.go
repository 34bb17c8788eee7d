package retriever

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/devika/graphchat/internal/config"
	"github.com/devika/graphchat/internal/domain"
	"github.com/devika/graphchat/internal/embedding"
)

type stubSearcher struct {
	hits []domain.VectorHit
	err  error
}

func (s *stubSearcher) Search(_ context.Context, _ []float32, topK int) ([]domain.VectorHit, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.hits) > topK {
		return s.hits[:topK], nil
	}
	return s.hits, nil
}

func testRetrieverConfig() config.RetrieverConfig {
	return config.RetrieverConfig{
		FuzzyThreshold:       0.7,
		MaxDepth:             2,
		MaxFacts:             30,
		DepthDecay:           0.5,
		MaxMatchesPerMention: 2,
		MaxSeeds:             5,
		TopK:                 5,
		MaxContextItems:      20,
		MaxContextChars:      6000,
		GraphTimeout:         time.Second,
		VectorTimeout:        time.Second,
	}
}

func newTestHybrid(graph GraphAccess, searcher VectorSearcher) *Hybrid {
	return NewHybrid(graph, searcher, embedding.StaticClient{}, nil, testLogger())
}

func TestHybrid_GraphFactsOutrankWeakVectorHits(t *testing.T) {
	searcher := &stubSearcher{hits: []domain.VectorHit{
		{ChunkID: "c1", Text: "loosely related paragraph", Score: 0.3, Source: "notes.txt"},
	}}
	h := newTestHybrid(chainGraph(), searcher)

	bundle, err := h.Retrieve(context.Background(), "Who founded Acme Corp?", testRetrieverConfig())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if bundle.GraphDegraded || bundle.VectorDegraded || len(bundle.Advisories) != 0 {
		t.Fatalf("expected healthy bundle, got %+v", bundle)
	}
	if len(bundle.Items) != 4 {
		t.Fatalf("expected 3 graph facts and 1 vector hit, got %d items", len(bundle.Items))
	}
	if bundle.Items[0].Kind != domain.KindGraph {
		t.Errorf("expected a graph fact ranked first, got %+v", bundle.Items[0])
	}
	graphText := bundle.TextByKind(domain.KindGraph)
	if !strings.Contains(graphText, "Jane Doe founded Acme Corporation") {
		t.Errorf("expected founding fact in graph context, got %q", graphText)
	}
	// The 0.3 hit sits between the depth-1 facts (0.45) and the depth-2 fact.
	if bundle.Items[2].Kind != domain.KindVector {
		t.Errorf("expected vector hit ranked third, got %+v", bundle.Items[2])
	}
}

func TestHybrid_VectorFailureDegradesGracefully(t *testing.T) {
	searcher := &stubSearcher{err: errors.New("connection refused")}
	h := newTestHybrid(chainGraph(), searcher)

	bundle, err := h.Retrieve(context.Background(), "Who founded Acme Corp?", testRetrieverConfig())
	if err != nil {
		t.Fatalf("expected degraded bundle, not error, got %v", err)
	}
	if !bundle.VectorDegraded || bundle.GraphDegraded {
		t.Fatalf("expected only vector path degraded, got %+v", bundle)
	}
	if len(bundle.Advisories) != 1 || !strings.Contains(bundle.Advisories[0], "vector search unavailable") {
		t.Fatalf("expected vector advisory, got %v", bundle.Advisories)
	}
	for _, item := range bundle.Items {
		if item.Kind != domain.KindGraph {
			t.Errorf("expected graph-only evidence, got %+v", item)
		}
	}
	if bundle.Empty() {
		t.Error("expected graph evidence to survive the vector failure")
	}
}

func TestHybrid_GraphFailureDegradesGracefully(t *testing.T) {
	g := chainGraph()
	g.findErr = errors.New("neo4j unreachable")
	searcher := &stubSearcher{hits: []domain.VectorHit{
		{ChunkID: "c1", Text: "Acme was founded by Jane Doe in 1999.", Score: 0.82, Source: "history.txt"},
	}}
	h := newTestHybrid(g, searcher)

	bundle, err := h.Retrieve(context.Background(), "Who founded Acme Corp?", testRetrieverConfig())
	if err != nil {
		t.Fatalf("expected degraded bundle, not error, got %v", err)
	}
	if !bundle.GraphDegraded || bundle.VectorDegraded {
		t.Fatalf("expected only graph path degraded, got %+v", bundle)
	}
	if len(bundle.Advisories) != 1 || !strings.Contains(bundle.Advisories[0], "knowledge graph unavailable") {
		t.Fatalf("expected graph advisory, got %v", bundle.Advisories)
	}
	if len(bundle.Items) != 1 || bundle.Items[0].Kind != domain.KindVector {
		t.Fatalf("expected the vector hit to survive, got %+v", bundle.Items)
	}
}

func TestHybrid_BothPathsFailing(t *testing.T) {
	g := chainGraph()
	g.findErr = errors.New("neo4j unreachable")
	h := newTestHybrid(g, &stubSearcher{err: errors.New("connection refused")})

	bundle, err := h.Retrieve(context.Background(), "Who founded Acme Corp?", testRetrieverConfig())
	if err != nil {
		t.Fatalf("expected empty degraded bundle, not error, got %v", err)
	}
	if !bundle.Empty() || !bundle.GraphDegraded || !bundle.VectorDegraded {
		t.Fatalf("expected empty fully degraded bundle, got %+v", bundle)
	}
	if len(bundle.Advisories) != 2 {
		t.Fatalf("expected two advisories, got %v", bundle.Advisories)
	}
}

func TestHybrid_EmptyQuery(t *testing.T) {
	h := newTestHybrid(chainGraph(), &stubSearcher{})

	bundle, err := h.Retrieve(context.Background(), "   ", testRetrieverConfig())
	if err != nil {
		t.Fatalf("expected no error for empty query, got %v", err)
	}
	if !bundle.Empty() || len(bundle.Advisories) != 0 {
		t.Fatalf("expected empty bundle without advisories, got %+v", bundle)
	}
}

func TestHybrid_UnmatchedMentions(t *testing.T) {
	h := newTestHybrid(chainGraph(), &stubSearcher{})

	bundle, err := h.Retrieve(context.Background(), "Tell me about Zorblax Industries", testRetrieverConfig())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !bundle.Empty() || bundle.GraphDegraded {
		t.Fatalf("expected empty healthy bundle for unknown entity, got %+v", bundle)
	}
}

func TestHybrid_InvalidConfig(t *testing.T) {
	h := newTestHybrid(chainGraph(), &stubSearcher{})

	cfg := testRetrieverConfig()
	cfg.FuzzyThreshold = 1.5
	if _, err := h.Retrieve(context.Background(), "Who founded Acme Corp?", cfg); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestHybrid_CancelledParentContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := newTestHybrid(chainGraph(), &stubSearcher{})
	if _, err := h.Retrieve(ctx, "Who founded Acme Corp?", testRetrieverConfig()); err == nil {
		t.Fatal("expected context error for cancelled request")
	}
}

func TestHybrid_Deterministic(t *testing.T) {
	searcher := &stubSearcher{hits: []domain.VectorHit{
		{ChunkID: "c2", Text: "second chunk", Score: 0.41, Source: "b.txt"},
		{ChunkID: "c1", Text: "first chunk", Score: 0.41, Source: "a.txt"},
	}}
	h := newTestHybrid(chainGraph(), searcher)

	first, err := h.Retrieve(context.Background(), "Who founded Acme Corp?", testRetrieverConfig())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	second, err := h.Retrieve(context.Background(), "Who founded Acme Corp?", testRetrieverConfig())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("retrieval not reproducible:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestHybrid_RefreshIndexSwapsSnapshot(t *testing.T) {
	g := chainGraph()
	h := newTestHybrid(g, &stubSearcher{})

	if err := h.RefreshIndex(context.Background()); err != nil {
		t.Fatalf("expected refresh to succeed, got %v", err)
	}

	// Grow the graph and refresh again; the new node becomes matchable.
	g.nodes = append(g.nodes, domain.GraphNode{ID: "5", Label: "Globex", Degree: 0})
	if err := h.RefreshIndex(context.Background()); err != nil {
		t.Fatalf("expected refresh to succeed, got %v", err)
	}

	bundle, err := h.Retrieve(context.Background(), "What is Globex?", testRetrieverConfig())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if bundle.GraphDegraded {
		t.Fatalf("expected healthy graph path, got %+v", bundle)
	}
}
