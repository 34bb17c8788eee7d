package vector

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/devika/graphchat/internal/domain"
)

// MemoryStore is an in-memory Store implementation used for unit testing and
// local development without a running Postgres instance.
type MemoryStore struct {
	mu         sync.Mutex
	chunks     map[string]domain.DocumentChunk
	embeddings map[string][]float32
	searchErr  error
	pingErr    error
}

// NewMemoryStore instantiates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		chunks:     map[string]domain.DocumentChunk{},
		embeddings: map[string][]float32{},
	}
}

// WithSearchError configures the store to fail Search calls with err.
func (m *MemoryStore) WithSearchError(err error) *MemoryStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchErr = err
	return m
}

// WithPingError forces Ping to return the supplied error.
func (m *MemoryStore) WithPingError(err error) *MemoryStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingErr = err
	return m
}

func (m *MemoryStore) Search(_ context.Context, embedding []float32, topK int) ([]domain.VectorHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if topK <= 0 {
		topK = 5
	}

	hits := make([]domain.VectorHit, 0, len(m.chunks))
	for id, chunk := range m.chunks {
		hits = append(hits, domain.VectorHit{
			ChunkID: id,
			Text:    chunk.Text,
			Source:  chunk.Source,
			Score:   cosineSimilarity(embedding, m.embeddings[id]),
		})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func (m *MemoryStore) Insert(_ context.Context, chunk domain.DocumentChunk, embedding []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks[chunk.ID] = chunk
	m.embeddings[chunk.ID] = append([]float32(nil), embedding...)
	return nil
}

func (m *MemoryStore) DeleteBySource(_ context.Context, source string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	for id, chunk := range m.chunks {
		if chunk.Source == source {
			delete(m.chunks, id)
			delete(m.embeddings, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *MemoryStore) Sources(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]struct{}{}
	var sources []string
	for _, chunk := range m.chunks {
		if _, ok := seen[chunk.Source]; !ok {
			seen[chunk.Source] = struct{}{}
			sources = append(sources, chunk.Source)
		}
	}
	sort.Strings(sources)
	return sources, nil
}

func (m *MemoryStore) Stats(_ context.Context) (domain.VectorStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := domain.VectorStats{Sources: map[string]int{}}
	for _, chunk := range m.chunks {
		stats.Sources[chunk.Source]++
		stats.TotalChunks++
	}
	return stats, nil
}

func (m *MemoryStore) Ping(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pingErr
}

func (m *MemoryStore) Close() {}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
