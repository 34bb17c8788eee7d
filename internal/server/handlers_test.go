package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/devika/graphchat/internal/config"
	"github.com/devika/graphchat/internal/domain"
	"github.com/devika/graphchat/internal/service"
)

type apiStubRetriever struct {
	bundle domain.ContextBundle
	err    error
}

func (s *apiStubRetriever) Retrieve(_ context.Context, _ string, _ config.RetrieverConfig) (domain.ContextBundle, error) {
	return s.bundle, s.err
}

func (s *apiStubRetriever) RefreshIndex(_ context.Context) error { return nil }

type apiStubGenerator struct {
	answer string
	err    error
}

func (s *apiStubGenerator) Generate(_ context.Context, _ string) (string, error) {
	return s.answer, s.err
}

type apiStubGraph struct {
	stats domain.GraphStats
}

func (s *apiStubGraph) UpsertEntity(_ context.Context, _ domain.EntityInput) error { return nil }
func (s *apiStubGraph) UpsertRelationship(_ context.Context, _ domain.RelationshipInput) error {
	return nil
}
func (s *apiStubGraph) Stats(_ context.Context) (domain.GraphStats, error) { return s.stats, nil }

type apiStubVector struct {
	chunks  []domain.DocumentChunk
	sources []string
	stats   domain.VectorStats
}

func (s *apiStubVector) Insert(_ context.Context, chunk domain.DocumentChunk, _ []float32) error {
	s.chunks = append(s.chunks, chunk)
	return nil
}

func (s *apiStubVector) DeleteBySource(_ context.Context, _ string) (int64, error) {
	return int64(len(s.chunks)), nil
}

func (s *apiStubVector) Sources(_ context.Context) ([]string, error) { return s.sources, nil }
func (s *apiStubVector) Stats(_ context.Context) (domain.VectorStats, error) {
	return s.stats, nil
}

type apiStubEmbedder struct{}

func (apiStubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text))}, nil
}

func newTestHandlers(retriever *apiStubRetriever, generator *apiStubGenerator, graph *apiStubGraph, vector *apiStubVector) *APIHandlers {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewChatService(retriever, generator, graph, vector, apiStubEmbedder{}, nil, config.RetrieverConfig{TopK: 5}, logger)
	return NewAPIHandlers(logger, svc)
}

func degradedBundle() domain.ContextBundle {
	return domain.ContextBundle{
		Items: []domain.ContextItem{
			{Kind: domain.KindGraph, Text: "Jane Doe founded Acme Corporation", Score: 0.45, DedupKey: "fact:2|founded|1", Source: "Acme Corporation"},
		},
		VectorDegraded: true,
		Advisories:     []string{"vector search unavailable: connection refused"},
	}
}

func TestHandleChat(t *testing.T) {
	retriever := &apiStubRetriever{bundle: degradedBundle()}
	handlers := newTestHandlers(retriever, &apiStubGenerator{answer: "Jane Doe founded Acme."}, &apiStubGraph{}, &apiStubVector{})

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"query":"Who founded Acme Corp?"}`))
	rec := httptest.NewRecorder()

	handlers.handleChat(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var payload chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Answer != "Jane Doe founded Acme." {
		t.Errorf("unexpected answer %q", payload.Answer)
	}
	if !payload.Context.VectorDegraded || len(payload.Context.Advisories) != 1 {
		t.Errorf("expected degradation surfaced, got %+v", payload.Context)
	}
	if len(payload.Context.Items) != 1 || payload.Context.Items[0].Kind != "graph" {
		t.Errorf("expected one graph item, got %+v", payload.Context.Items)
	}
}

func TestHandleChatValidation(t *testing.T) {
	handlers := newTestHandlers(&apiStubRetriever{}, &apiStubGenerator{}, &apiStubGraph{}, &apiStubVector{})

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"query":"  "}`))
	rec := httptest.NewRecorder()
	handlers.handleChat(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for blank query, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/chat", nil)
	rec = httptest.NewRecorder()
	handlers.handleChat(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405 for GET, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"unknown":1}`))
	rec = httptest.NewRecorder()
	handlers.handleChat(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for unknown field, got %d", rec.Code)
	}
}

func TestHandleChatGenerationFailure(t *testing.T) {
	handlers := newTestHandlers(&apiStubRetriever{}, &apiStubGenerator{err: errors.New("model not loaded")}, &apiStubGraph{}, &apiStubVector{})

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"query":"Who founded Acme Corp?"}`))
	rec := httptest.NewRecorder()
	handlers.handleChat(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
}

func TestHandleRetrieve(t *testing.T) {
	retriever := &apiStubRetriever{bundle: degradedBundle()}
	handlers := newTestHandlers(retriever, &apiStubGenerator{}, &apiStubGraph{}, &apiStubVector{})

	req := httptest.NewRequest(http.MethodPost, "/retrieve", strings.NewReader(`{"query":"Who founded Acme Corp?"}`))
	rec := httptest.NewRecorder()
	handlers.handleRetrieve(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var payload bundleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(payload.Items) != 1 || payload.Items[0].Text != "Jane Doe founded Acme Corporation" {
		t.Errorf("unexpected items %+v", payload.Items)
	}
}

func TestHandleDocumentsIngest(t *testing.T) {
	vector := &apiStubVector{}
	handlers := newTestHandlers(&apiStubRetriever{}, &apiStubGenerator{}, &apiStubGraph{}, vector)

	body := `{"source":"history.txt","text":"Acme was founded in 1999 by Jane Doe."}`
	req := httptest.NewRequest(http.MethodPost, "/documents", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handlers.handleDocuments(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var payload documentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Chunks != 1 || payload.Source != "history.txt" {
		t.Errorf("unexpected payload %+v", payload)
	}
	if len(vector.chunks) != 1 {
		t.Errorf("expected one stored chunk, got %d", len(vector.chunks))
	}
}

func TestHandleDocumentsDelete(t *testing.T) {
	vector := &apiStubVector{chunks: []domain.DocumentChunk{{ID: "c1"}}}
	handlers := newTestHandlers(&apiStubRetriever{}, &apiStubGenerator{}, &apiStubGraph{}, vector)

	req := httptest.NewRequest(http.MethodDelete, "/documents?source=history.txt", nil)
	rec := httptest.NewRecorder()
	handlers.handleDocuments(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/documents", nil)
	rec = httptest.NewRecorder()
	handlers.handleDocuments(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 without source, got %d", rec.Code)
	}
}

func TestHandleSources(t *testing.T) {
	vector := &apiStubVector{sources: []string{"a.txt", "b.txt"}}
	handlers := newTestHandlers(&apiStubRetriever{}, &apiStubGenerator{}, &apiStubGraph{}, vector)

	req := httptest.NewRequest(http.MethodGet, "/sources", nil)
	rec := httptest.NewRecorder()
	handlers.handleSources(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var payload sourcesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(payload.Sources) != 2 {
		t.Errorf("expected 2 sources, got %v", payload.Sources)
	}
}

func TestHandleStats(t *testing.T) {
	graph := &apiStubGraph{stats: domain.GraphStats{Entities: 10, Relationships: 25}}
	vector := &apiStubVector{stats: domain.VectorStats{TotalChunks: 4, Sources: map[string]int{"a.txt": 4}}}
	handlers := newTestHandlers(&apiStubRetriever{}, &apiStubGenerator{}, graph, vector)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	handlers.handleStats(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var payload statsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Graph.Entities != 10 || payload.Vector.TotalChunks != 4 {
		t.Errorf("unexpected stats %+v", payload)
	}
}

type stubHealth struct{ err error }

func (s stubHealth) Probe(_ context.Context) error { return s.err }

func TestRouterHealthz(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := NewRouter(logger, RouterDependencies{Health: stubHealth{}})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	router = NewRouter(logger, RouterDependencies{Health: stubHealth{err: errors.New("graph: unreachable")}})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503 when probe fails, got %d", rec.Code)
	}
}
