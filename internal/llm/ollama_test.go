package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaGenerator_Generate(t *testing.T) {
	var gotReq generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(generateResponse{Response: "Acme was founded by Jane Doe."})
	}))
	defer server.Close()

	gen := NewOllamaGenerator(Options{BaseURL: server.URL, Model: "llama3.1"})
	answer, err := gen.Generate(context.Background(), "Who founded Acme?")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if answer != "Acme was founded by Jane Doe." {
		t.Errorf("unexpected answer %q", answer)
	}
	if gotReq.Model != "llama3.1" || gotReq.Stream {
		t.Errorf("unexpected request payload: %+v", gotReq)
	}
}

func TestOllamaGenerator_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	gen := NewOllamaGenerator(Options{BaseURL: server.URL, Model: "llama3.1"})
	if _, err := gen.Generate(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestOllamaGenerator_EmptyPrompt(t *testing.T) {
	gen := NewOllamaGenerator(Options{BaseURL: "http://unused", Model: "m"})
	if _, err := gen.Generate(context.Background(), ""); !errors.Is(err, ErrEmptyPrompt) {
		t.Fatalf("expected ErrEmptyPrompt, got %v", err)
	}
}
