package vector

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/devika/graphchat/internal/domain"
)

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PGStore implements Store on Postgres with the pgvector extension. Cosine
// distance is used for ranking; scores returned to callers are 1 - distance so
// they land on the same [0,1] scale as graph match scores.
type PGStore struct {
	pool  *pgxpool.Pool
	table string
}

// NewPGStore connects to Postgres and verifies connectivity.
func NewPGStore(ctx context.Context, opts Options) (*PGStore, error) {
	if opts.PostgresURL == "" {
		return nil, ErrMissingPostgresURL
	}
	table := opts.Table
	if table == "" {
		table = "document_chunks"
	}
	if !identifierPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	pool, err := pgxpool.New(ctx, opts.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("verify postgres connectivity: %w", err)
	}

	return &PGStore{pool: pool, table: table}, nil
}

// EnsureSchema creates the pgvector extension and chunk table if absent.
func (s *PGStore) EnsureSchema(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive, got %d", dimension)
	}
	if _, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		chunk_id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		chunk_index INT NOT NULL DEFAULT 0,
		content TEXT NOT NULL,
		embedding vector(%d) NOT NULL
	)`, s.table, dimension)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create chunk table: %w", err)
	}
	return nil
}

// Search returns the topK most similar chunks for the query embedding.
func (s *PGStore) Search(ctx context.Context, embedding []float32, topK int) ([]domain.VectorHit, error) {
	if topK <= 0 {
		topK = 5
	}
	query := fmt.Sprintf(
		`SELECT chunk_id, source, content, 1 - (embedding <=> $1) AS score
		 FROM %s ORDER BY embedding <=> $1 LIMIT $2`, s.table)

	rows, err := s.pool.Query(ctx, query, pgvector.NewVector(embedding), topK)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	defer rows.Close()

	var hits []domain.VectorHit
	for rows.Next() {
		var hit domain.VectorHit
		var score float64
		if err := rows.Scan(&hit.ChunkID, &hit.Source, &hit.Text, &score); err != nil {
			return nil, fmt.Errorf("scan hit: %w", err)
		}
		hit.Score = score
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("similarity search rows: %w", err)
	}
	return hits, nil
}

// Insert stores a chunk with its embedding, replacing any previous content for
// the same chunk ID.
func (s *PGStore) Insert(ctx context.Context, chunk domain.DocumentChunk, embedding []float32) error {
	query := fmt.Sprintf(
		`INSERT INTO %s (chunk_id, source, chunk_index, content, embedding)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (chunk_id) DO UPDATE
		 SET source = EXCLUDED.source,
		     chunk_index = EXCLUDED.chunk_index,
		     content = EXCLUDED.content,
		     embedding = EXCLUDED.embedding`, s.table)

	_, err := s.pool.Exec(ctx, query, chunk.ID, chunk.Source, chunk.Index, chunk.Text, pgvector.NewVector(embedding))
	if err != nil {
		return fmt.Errorf("insert chunk %s: %w", chunk.ID, err)
	}
	return nil
}

// DeleteBySource removes all chunks belonging to a source document.
func (s *PGStore) DeleteBySource(ctx context.Context, source string) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE source = $1`, s.table)
	tag, err := s.pool.Exec(ctx, query, source)
	if err != nil {
		return 0, fmt.Errorf("delete chunks for source %s: %w", source, err)
	}
	return tag.RowsAffected(), nil
}

// Sources lists distinct source documents present in the index.
func (s *PGStore) Sources(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT DISTINCT source FROM %s ORDER BY source`, s.table)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var source string
		if err := rows.Scan(&source); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		sources = append(sources, source)
	}
	return sources, rows.Err()
}

// Stats returns chunk counts grouped by source.
func (s *PGStore) Stats(ctx context.Context) (domain.VectorStats, error) {
	query := fmt.Sprintf(`SELECT source, count(*) FROM %s GROUP BY source`, s.table)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return domain.VectorStats{}, fmt.Errorf("vector stats: %w", err)
	}
	defer rows.Close()

	stats := domain.VectorStats{Sources: map[string]int{}}
	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return domain.VectorStats{}, fmt.Errorf("scan stats: %w", err)
		}
		stats.Sources[source] = count
		stats.TotalChunks += count
	}
	return stats, rows.Err()
}

// Ping verifies database connectivity.
func (s *PGStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *PGStore) Close() {
	s.pool.Close()
}
