package vector

import (
	"context"
	"errors"

	"github.com/devika/graphchat/internal/domain"
)

// Store defines the contract over the document embedding index. Search is the
// only operation the retriever consumes; the rest serve ingestion and the
// management API.
type Store interface {
	Search(ctx context.Context, embedding []float32, topK int) ([]domain.VectorHit, error)
	Insert(ctx context.Context, chunk domain.DocumentChunk, embedding []float32) error
	DeleteBySource(ctx context.Context, source string) (int64, error)
	Sources(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (domain.VectorStats, error)
	Ping(ctx context.Context) error
	Close()
}

// Options configures a vector store implementation.
type Options struct {
	PostgresURL string
	Table       string
}

// ErrMissingPostgresURL indicates the Postgres connection string is not provided.
var ErrMissingPostgresURL = errors.New("postgres URL is required")
