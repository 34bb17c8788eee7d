package vector

import (
	"context"
	"errors"
	"testing"

	"github.com/devika/graphchat/internal/domain"
)

func seedStore(t *testing.T) *MemoryStore {
	t.Helper()
	store := NewMemoryStore()
	chunks := []struct {
		chunk     domain.DocumentChunk
		embedding []float32
	}{
		{domain.DocumentChunk{ID: "c1", Source: "report.txt", Text: "Acme acquired Widget Inc"}, []float32{1, 0, 0}},
		{domain.DocumentChunk{ID: "c2", Source: "report.txt", Text: "Widget Inc is based in Berlin"}, []float32{0.9, 0.1, 0}},
		{domain.DocumentChunk{ID: "c3", Source: "notes.txt", Text: "Unrelated musings"}, []float32{0, 0, 1}},
	}
	for _, c := range chunks {
		if err := store.Insert(context.Background(), c.chunk, c.embedding); err != nil {
			t.Fatalf("insert %s: %v", c.chunk.ID, err)
		}
	}
	return store
}

func TestMemoryStore_SearchRanksByCosine(t *testing.T) {
	store := seedStore(t)

	hits, err := store.Search(context.Background(), []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected topK=2 hits, got %d", len(hits))
	}
	if hits[0].ChunkID != "c1" || hits[1].ChunkID != "c2" {
		t.Errorf("unexpected ranking: %s, %s", hits[0].ChunkID, hits[1].ChunkID)
	}
	if hits[0].Score <= hits[1].Score {
		t.Errorf("expected descending scores, got %g then %g", hits[0].Score, hits[1].Score)
	}
}

func TestMemoryStore_SearchError(t *testing.T) {
	store := NewMemoryStore().WithSearchError(errors.New("index offline"))
	if _, err := store.Search(context.Background(), []float32{1}, 3); err == nil {
		t.Fatal("expected configured search error")
	}
}

func TestMemoryStore_DeleteBySource(t *testing.T) {
	store := seedStore(t)

	deleted, err := store.DeleteBySource(context.Background(), "report.txt")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 chunks deleted, got %d", deleted)
	}

	sources, err := store.Sources(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(sources) != 1 || sources[0] != "notes.txt" {
		t.Errorf("unexpected remaining sources: %v", sources)
	}
}

func TestMemoryStore_Stats(t *testing.T) {
	store := seedStore(t)

	stats, err := store.Stats(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if stats.TotalChunks != 3 {
		t.Errorf("expected 3 chunks, got %d", stats.TotalChunks)
	}
	if stats.Sources["report.txt"] != 2 || stats.Sources["notes.txt"] != 1 {
		t.Errorf("unexpected per-source counts: %v", stats.Sources)
	}
}

func TestMemoryStore_PingError(t *testing.T) {
	store := NewMemoryStore().WithPingError(errors.New("unreachable"))
	if err := store.Ping(context.Background()); err == nil {
		t.Fatal("expected configured ping error")
	}
	if err := NewMemoryStore().Ping(context.Background()); err != nil {
		t.Fatalf("expected healthy ping, got %v", err)
	}
}
