package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/devika/graphchat/internal/config"
	"github.com/devika/graphchat/internal/domain"
)

// Retriever is the context-assembly contract the chat service consumes.
type Retriever interface {
	Retrieve(ctx context.Context, query string, cfg config.RetrieverConfig) (domain.ContextBundle, error)
	RefreshIndex(ctx context.Context) error
}

// GraphStore is the knowledge graph surface used by ingestion and stats.
type GraphStore interface {
	UpsertEntity(ctx context.Context, input domain.EntityInput) error
	UpsertRelationship(ctx context.Context, input domain.RelationshipInput) error
	Stats(ctx context.Context) (domain.GraphStats, error)
}

// VectorStore is the document index surface used by ingestion and stats.
type VectorStore interface {
	Insert(ctx context.Context, chunk domain.DocumentChunk, embedding []float32) error
	DeleteBySource(ctx context.Context, source string) (int64, error)
	Sources(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (domain.VectorStats, error)
}

// Embedder turns chunk text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator produces the final answer from the enriched prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ChatResult carries the generated answer together with the evidence it was
// grounded on, so callers can render provenance.
type ChatResult struct {
	Answer string
	Bundle domain.ContextBundle
}

// SystemStats aggregates graph and vector index statistics.
type SystemStats struct {
	Graph  domain.GraphStats
	Vector domain.VectorStats
}

// ChatService orchestrates retrieval-augmented generation: it assembles the
// context bundle for a query, folds it into an enriched prompt, and delegates
// generation to the language model.
type ChatService struct {
	retriever Retriever
	generator Generator
	graph     GraphStore
	vector    VectorStore
	embedder  Embedder
	chunker   *Chunker
	cfg       config.RetrieverConfig
	logger    *slog.Logger
}

// NewChatService constructs a ChatService. A nil chunker falls back to the
// default chunking parameters.
func NewChatService(retriever Retriever, generator Generator, graph GraphStore, vector VectorStore, embedder Embedder, chunker *Chunker, cfg config.RetrieverConfig, logger *slog.Logger) *ChatService {
	if chunker == nil {
		chunker = NewChunker(0, 0)
	}
	return &ChatService{
		retriever: retriever,
		generator: generator,
		graph:     graph,
		vector:    vector,
		embedder:  embedder,
		chunker:   chunker,
		cfg:       cfg,
		logger:    logger,
	}
}

// Chat answers a user query using hybrid retrieval. Retrieval degradation is
// surfaced on the returned bundle, not as an error; only generation failure or
// an invalid query fails the call.
func (s *ChatService) Chat(ctx context.Context, query string) (ChatResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return ChatResult{}, fmt.Errorf("query is required")
	}

	bundle, err := s.retriever.Retrieve(ctx, query, s.cfg)
	if err != nil {
		return ChatResult{}, fmt.Errorf("retrieve context: %w", err)
	}

	answer, err := s.generator.Generate(ctx, buildPrompt(query, bundle))
	if err != nil {
		return ChatResult{}, fmt.Errorf("generate answer: %w", err)
	}

	s.logger.Info("chat answered",
		"query", query,
		"context_items", len(bundle.Items),
		"graph_degraded", bundle.GraphDegraded,
		"vector_degraded", bundle.VectorDegraded,
	)
	return ChatResult{Answer: answer, Bundle: bundle}, nil
}

// Retrieve exposes the raw context bundle without generation.
func (s *ChatService) Retrieve(ctx context.Context, query string) (domain.ContextBundle, error) {
	return s.retriever.Retrieve(ctx, strings.TrimSpace(query), s.cfg)
}

// ProcessDocument chunks the given text, embeds each chunk, and stores them in
// the vector index under the given source name. It returns the number of
// chunks stored.
func (s *ChatService) ProcessDocument(ctx context.Context, source, text string) (int, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return 0, fmt.Errorf("source name is required")
	}

	chunks := s.chunker.Split(text)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("document %q produced no chunks", source)
	}

	for i, chunkText := range chunks {
		embedding, err := s.embedder.Embed(ctx, chunkText)
		if err != nil {
			return i, fmt.Errorf("embed chunk %d of %q: %w", i, source, err)
		}
		chunk := domain.DocumentChunk{
			ID:     uuid.NewString(),
			Source: source,
			Text:   chunkText,
			Index:  i,
		}
		if err := s.vector.Insert(ctx, chunk, embedding); err != nil {
			return i, fmt.Errorf("store chunk %d of %q: %w", i, source, err)
		}
	}

	s.logger.Info("document processed", "source", source, "chunks", len(chunks))
	return len(chunks), nil
}

// DeleteSource removes every chunk ingested under the given source.
func (s *ChatService) DeleteSource(ctx context.Context, source string) (int64, error) {
	if strings.TrimSpace(source) == "" {
		return 0, fmt.Errorf("source name is required")
	}
	return s.vector.DeleteBySource(ctx, source)
}

// Sources lists the distinct document sources present in the vector index.
func (s *ChatService) Sources(ctx context.Context) ([]string, error) {
	return s.vector.Sources(ctx)
}

// Stats reports combined knowledge graph and vector index statistics.
func (s *ChatService) Stats(ctx context.Context) (SystemStats, error) {
	graphStats, err := s.graph.Stats(ctx)
	if err != nil {
		return SystemStats{}, fmt.Errorf("graph stats: %w", err)
	}
	vectorStats, err := s.vector.Stats(ctx)
	if err != nil {
		return SystemStats{}, fmt.Errorf("vector stats: %w", err)
	}
	return SystemStats{Graph: graphStats, Vector: vectorStats}, nil
}

// buildPrompt folds the evidence bundle into the generation prompt. Graph
// facts are listed separately from document excerpts so the model can weigh
// structured facts over prose.
func buildPrompt(query string, bundle domain.ContextBundle) string {
	docContext := bundle.TextByKind(domain.KindVector)
	graphContext := bundle.TextByKind(domain.KindGraph)

	var combined strings.Builder
	if docContext != "" {
		combined.WriteString("**Document Context:**\n")
		combined.WriteString(docContext)
		combined.WriteString("\n\n")
	}
	if graphContext != "" {
		combined.WriteString("**Knowledge Graph Context:**\n")
		combined.WriteString(graphContext)
		combined.WriteString("\n\n")
	}
	if combined.Len() == 0 {
		combined.WriteString("No relevant context found.")
	}

	var prompt strings.Builder
	prompt.WriteString("You are a helpful assistant. Use the following context to answer the user's question accurately.\n\n")
	prompt.WriteString("The context includes:\n")
	prompt.WriteString("1. Document Context: Relevant excerpts from uploaded documents\n")
	prompt.WriteString("2. Knowledge Graph Context: Structured information about entities and their relationships\n\n")
	prompt.WriteString("Use both sources to provide a comprehensive answer. Prioritize factual information from the knowledge graph when available.\n")
	prompt.WriteString("Keep your answer concise (no more than 3-4 sentences) but informative.\n\n")
	prompt.WriteString("Context:\n")
	prompt.WriteString(strings.TrimRight(combined.String(), "\n"))
	prompt.WriteString("\n\nUser Question:\n")
	prompt.WriteString(query)
	prompt.WriteString("\n\nAnswer:")
	return prompt.String()
}
