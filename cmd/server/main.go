package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/devika/graphchat/internal/config"
	"github.com/devika/graphchat/internal/embedding"
	"github.com/devika/graphchat/internal/graph"
	"github.com/devika/graphchat/internal/knowledge"
	"github.com/devika/graphchat/internal/llm"
	"github.com/devika/graphchat/internal/logging"
	"github.com/devika/graphchat/internal/retriever"
	"github.com/devika/graphchat/internal/server"
	"github.com/devika/graphchat/internal/service"
	"github.com/devika/graphchat/internal/vector"
)

func main() {
	ctx := context.Background()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

	graphClient, err := buildGraphClient(ctx, cfg)
	if err != nil {
		logger.Error("failed to create graph client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := graphClient.Close(context.Background()); err != nil {
			logger.Warn("closing graph client failed", "error", err)
		}
	}()

	store, err := vector.NewPGStore(ctx, vector.Options{
		PostgresURL: cfg.Vector.PostgresURL,
		Table:       cfg.Vector.Table,
	})
	if err != nil {
		logger.Error("failed to create vector store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx, cfg.Embedding.Dimension); err != nil {
		logger.Error("failed to prepare vector schema", "error", err)
		os.Exit(1)
	}

	embedder := buildEmbedder(logger, cfg)
	generator := llm.NewOllamaGenerator(llm.Options{
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
	})

	repo := knowledge.New(graphClient)
	hybrid := retriever.NewHybrid(repo, store, embedder, nil, logger)
	if err := hybrid.RefreshIndex(ctx); err != nil {
		// The index lazily reloads on first query; an empty graph at boot is fine.
		logger.Warn("initial label index load failed", "error", err)
	}

	chatService := service.NewChatService(hybrid, generator, repo, store, embedder, nil, cfg.Retriever, logger)
	apiHandlers := server.NewAPIHandlers(logger, chatService)

	router := server.NewRouter(logger, server.RouterDependencies{
		Health:           server.StoreHealthService{Graph: graphClient, Vector: store},
		API:              apiHandlers,
		AllowedOrigins:   parseAllowedOrigins(cfg.HTTP.AllowedOriginsCSV),
		AllowCredentials: true,
		MetricsEnabled:   cfg.HTTP.MetricsEnabled,
	})

	srv := server.New(logger, cfg.HTTP, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("server stopped unexpectedly", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func buildGraphClient(ctx context.Context, cfg config.Config) (graph.Client, error) {
	if cfg.Graph.URI == "" {
		return nil, graph.ErrMissingURI
	}

	opts := graph.Options{
		URI:            cfg.Graph.URI,
		Database:       cfg.Graph.Database,
		Username:       cfg.Graph.Username,
		Password:       cfg.Graph.Password,
		MaxConnections: cfg.Graph.MaxConnections,
	}
	return graph.NewNeo4jClient(ctx, opts)
}

func buildEmbedder(logger *slog.Logger, cfg config.Config) embedding.Client {
	client := embedding.NewOllamaClient(embedding.Options{
		BaseURL:   cfg.Embedding.BaseURL,
		Model:     cfg.Embedding.Model,
		Dimension: cfg.Embedding.Dimension,
	})

	if cfg.Embedding.RedisAddr == "" {
		return client
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Embedding.RedisAddr})
	logger.Info("embedding cache enabled", "addr", cfg.Embedding.RedisAddr, "ttl", cfg.Embedding.CacheTTL)
	return embedding.NewCachedClient(client, rdb, cfg.Embedding.Model, cfg.Embedding.CacheTTL, logger)
}

func parseAllowedOrigins(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	var origins []string
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		origins = append(origins, origin)
	}
	return origins
}
