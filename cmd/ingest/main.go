package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/devika/graphchat/internal/config"
	"github.com/devika/graphchat/internal/domain"
	"github.com/devika/graphchat/internal/embedding"
	"github.com/devika/graphchat/internal/graph"
	"github.com/devika/graphchat/internal/knowledge"
	"github.com/devika/graphchat/internal/logging"
	"github.com/devika/graphchat/internal/service"
	"github.com/devika/graphchat/internal/vector"
)

var errMissingDataset = errors.New("dataset not found")

func main() {
	var (
		datasetDir = flag.String("dataset-dir", "./seed-data", "Directory containing entities.json, relationships.json, and chunks.json")
		workers    = flag.Int("workers", 4, "Number of concurrent workers for ingestion")
		skipChunks = flag.Bool("skip-chunks", false, "Skip document chunk ingestion (graph only)")
	)
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging).With("component", "ingest")

	var (
		entities      []domain.EntityInput
		relationships []domain.RelationshipInput
		chunks        []domain.DocumentChunk
	)
	if err := loadDataset(*datasetDir, "entities.json", &entities); err != nil {
		logger.Error("failed to load entities", "error", err)
		os.Exit(1)
	}
	if err := loadDataset(*datasetDir, "relationships.json", &relationships); err != nil {
		logger.Error("failed to load relationships", "error", err)
		os.Exit(1)
	}
	if !*skipChunks {
		if err := loadDataset(*datasetDir, "chunks.json", &chunks); err != nil {
			logger.Error("failed to load chunks", "error", err)
			os.Exit(1)
		}
	}
	if len(entities) == 0 {
		logger.Error("entities dataset empty", "dir", *datasetDir)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	graphClient, err := buildGraphClient(ctx, logger, cfg)
	if err != nil {
		logger.Error("failed to create graph client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := graphClient.Close(context.Background()); err != nil {
			logger.Warn("closing graph client failed", "error", err)
		}
	}()

	repo := knowledge.New(graphClient)

	var store vector.Store
	if !*skipChunks {
		pgStore, err := vector.NewPGStore(ctx, vector.Options{
			PostgresURL: cfg.Vector.PostgresURL,
			Table:       cfg.Vector.Table,
		})
		if err != nil {
			logger.Error("failed to create vector store", "error", err)
			os.Exit(1)
		}
		defer pgStore.Close()
		if err := pgStore.EnsureSchema(ctx, cfg.Embedding.Dimension); err != nil {
			logger.Error("failed to prepare vector schema", "error", err)
			os.Exit(1)
		}
		store = pgStore
	}

	embedder := embedding.NewOllamaClient(embedding.Options{
		BaseURL:   cfg.Embedding.BaseURL,
		Model:     cfg.Embedding.Model,
		Dimension: cfg.Embedding.Dimension,
	})

	ingestor := service.NewBulkIngestor(repo, store, embedder, *workers)

	start := time.Now()
	logger.Info("ingesting entities", "count", len(entities), "workers", *workers)
	if err := ingestor.IngestEntities(ctx, entities); err != nil {
		logger.Error("entity ingestion failed", "error", err)
		os.Exit(1)
	}

	// Relationships second: both endpoints must already exist.
	logger.Info("ingesting relationships", "count", len(relationships))
	if err := ingestor.IngestRelationships(ctx, relationships); err != nil {
		logger.Error("relationship ingestion failed", "error", err)
		os.Exit(1)
	}

	if !*skipChunks {
		logger.Info("ingesting chunks", "count", len(chunks))
		if err := ingestor.IngestChunks(ctx, chunks); err != nil {
			logger.Error("chunk ingestion failed", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("ingestion complete",
		"duration", time.Since(start).String(),
		"entities", len(entities),
		"relationships", len(relationships),
		"chunks", len(chunks),
	)
}

func loadDataset(dir, file string, target any) error {
	path := filepath.Join(dir, file)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", errMissingDataset, path)
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func buildGraphClient(ctx context.Context, logger *slog.Logger, cfg config.Config) (graph.Client, error) {
	if cfg.Graph.URI == "" {
		return nil, fmt.Errorf("GRAPH_URI is required for ingestion")
	}
	opts := graph.Options{
		URI:            cfg.Graph.URI,
		Database:       cfg.Graph.Database,
		Username:       cfg.Graph.Username,
		Password:       cfg.Graph.Password,
		MaxConnections: cfg.Graph.MaxConnections,
	}
	client, err := graph.NewNeo4jClient(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := client.VerifyConnectivity(ctx); err != nil {
		_ = client.Close(ctx)
		return nil, err
	}
	logger.Info("connected to graph", "uri", cfg.Graph.URI, "database", cfg.Graph.Database)
	return client, nil
}
