package server

import (
	"context"
	"fmt"

	"github.com/devika/graphchat/internal/graph"
)

// HealthService defines behaviour for readiness probes.
type HealthService interface {
	Probe(ctx context.Context) error
}

// Pinger is the liveness surface of the vector store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreHealthService verifies graph and vector store connectivity as part of
// health checks. Nil dependencies are skipped so partial deployments still
// report on what they run.
type StoreHealthService struct {
	Graph  graph.Client
	Vector Pinger
}

// Probe implements the HealthService interface.
func (s StoreHealthService) Probe(ctx context.Context) error {
	if s.Graph != nil {
		if err := s.Graph.VerifyConnectivity(ctx); err != nil {
			return fmt.Errorf("graph: %w", err)
		}
	}
	if s.Vector != nil {
		if err := s.Vector.Ping(ctx); err != nil {
			return fmt.Errorf("vector: %w", err)
		}
	}
	return nil
}
