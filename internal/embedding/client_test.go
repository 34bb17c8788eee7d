package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaClient_Embed(t *testing.T) {
	var gotPath string
	var gotReq embedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(embedResponse{Embedding: []float32{0.1, 0.2, 0.3}})
	}))
	defer server.Close()

	client := NewOllamaClient(Options{BaseURL: server.URL, Model: "nomic-embed-text", Dimension: 3})
	vec, err := client.Embed(context.Background(), "Acme Corporation")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(vec) != 3 {
		t.Fatalf("expected 3 dimensions, got %d", len(vec))
	}
	if gotPath != "/api/embeddings" {
		t.Errorf("unexpected path %s", gotPath)
	}
	if gotReq.Model != "nomic-embed-text" || gotReq.Prompt != "Acme Corporation" {
		t.Errorf("unexpected request payload: %+v", gotReq)
	}
}

func TestOllamaClient_DimensionMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{Embedding: []float32{0.1, 0.2}})
	}))
	defer server.Close()

	client := NewOllamaClient(Options{BaseURL: server.URL, Model: "nomic-embed-text", Dimension: 768})
	if _, err := client.Embed(context.Background(), "some text"); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}

func TestOllamaClient_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewOllamaClient(Options{BaseURL: server.URL, Model: "missing"})
	if _, err := client.Embed(context.Background(), "some text"); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestOllamaClient_EmptyText(t *testing.T) {
	client := NewOllamaClient(Options{BaseURL: "http://unused", Model: "m"})
	if _, err := client.Embed(context.Background(), ""); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
}

func TestStaticClient_Deterministic(t *testing.T) {
	client := StaticClient{Dimension: 4}
	a, err := client.Embed(context.Background(), "same input")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	b, _ := client.Embed(context.Background(), "same input")
	c, _ := client.Embed(context.Background(), "different input")

	if len(a) != 4 {
		t.Fatalf("expected 4 dimensions, got %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("expected identical vectors for identical input")
		}
	}
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("expected different vectors for different input")
	}
}
