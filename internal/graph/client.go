package graph

import (
	"context"
	"errors"
)

// Client is the Cypher execution surface the knowledge layer is built on.
// Splitting reads from writes lets the driver route queries to the right
// cluster members when the knowledge graph runs against a causal cluster.
type Client interface {
	ExecuteWrite(ctx context.Context, cypher string, params map[string]any) (Result, error)
	ExecuteRead(ctx context.Context, cypher string, params map[string]any) (Result, error)
	VerifyConnectivity(ctx context.Context) error
	Close(ctx context.Context) error
}

// Result holds the rows returned by a single Cypher statement.
type Result struct {
	Records []Record
}

// Record maps the RETURN aliases of a Cypher query to their values.
type Record map[string]any

// Options carries connection settings for a graph client.
type Options struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
}

// ErrMissingURI indicates the graph URI is not provided.
var ErrMissingURI = errors.New("graph URI is required")
