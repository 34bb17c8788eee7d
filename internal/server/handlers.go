package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/devika/graphchat/internal/domain"
	"github.com/devika/graphchat/internal/service"
)

// APIHandlers exposes HTTP handlers for the REST API.
type APIHandlers struct {
	logger  *slog.Logger
	service *service.ChatService
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *slog.Logger, svc *service.ChatService) *APIHandlers {
	return &APIHandlers{
		logger:  logger,
		service: svc,
	}
}

func (h *APIHandlers) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var payload chatRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(payload.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	result, err := h.service.Chat(r.Context(), payload.Query)
	if err != nil {
		h.logger.Error("chat failed", "error", err, "query", payload.Query)
		writeError(w, http.StatusInternalServerError, "failed to answer query")
		return
	}

	respondJSON(w, http.StatusOK, chatResponse{
		Answer:  result.Answer,
		Context: bundleToResponse(result.Bundle),
	})
}

func (h *APIHandlers) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var payload retrieveRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(payload.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	bundle, err := h.service.Retrieve(r.Context(), payload.Query)
	if err != nil {
		h.logger.Error("retrieval failed", "error", err, "query", payload.Query)
		writeError(w, http.StatusInternalServerError, "failed to retrieve context")
		return
	}

	respondJSON(w, http.StatusOK, bundleToResponse(bundle))
}

func (h *APIHandlers) handleDocuments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.ingestDocument(w, r)
	case http.MethodDelete:
		h.deleteDocument(w, r)
	default:
		methodNotAllowed(w, http.MethodPost, http.MethodDelete)
	}
}

func (h *APIHandlers) ingestDocument(w http.ResponseWriter, r *http.Request) {
	var payload documentRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(payload.Source) == "" {
		writeError(w, http.StatusBadRequest, "source is required")
		return
	}
	if strings.TrimSpace(payload.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	chunks, err := h.service.ProcessDocument(r.Context(), payload.Source, payload.Text)
	if err != nil {
		h.logger.Error("document ingestion failed", "error", err, "source", payload.Source)
		writeError(w, http.StatusInternalServerError, "failed to ingest document")
		return
	}

	respondJSON(w, http.StatusCreated, documentResponse{
		Status: "ok",
		Source: payload.Source,
		Chunks: chunks,
	})
}

func (h *APIHandlers) deleteDocument(w http.ResponseWriter, r *http.Request) {
	source := strings.TrimSpace(r.URL.Query().Get("source"))
	if source == "" {
		writeError(w, http.StatusBadRequest, "source query parameter is required")
		return
	}

	deleted, err := h.service.DeleteSource(r.Context(), source)
	if err != nil {
		h.logger.Error("document deletion failed", "error", err, "source", source)
		writeError(w, http.StatusInternalServerError, "failed to delete document")
		return
	}

	respondJSON(w, http.StatusOK, deleteResponse{
		Status:  "ok",
		Source:  source,
		Deleted: deleted,
	})
}

func (h *APIHandlers) handleSources(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	sources, err := h.service.Sources(r.Context())
	if err != nil {
		h.logger.Error("failed to list sources", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list sources")
		return
	}
	if sources == nil {
		sources = []string{}
	}

	respondJSON(w, http.StatusOK, sourcesResponse{Sources: sources})
}

func (h *APIHandlers) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.logger.Error("failed to fetch stats", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch stats")
		return
	}

	resp := statsResponse{
		Graph: graphStatsResponse{
			Entities:      stats.Graph.Entities,
			Relationships: stats.Graph.Relationships,
		},
		Vector: vectorStatsResponse{
			TotalChunks: stats.Vector.TotalChunks,
			Sources:     stats.Vector.Sources,
		},
	}
	if resp.Vector.Sources == nil {
		resp.Vector.Sources = map[string]int{}
	}

	respondJSON(w, http.StatusOK, resp)
}

// --- Request & Response DTOs ---

type chatRequest struct {
	Query string `json:"query"`
}

type retrieveRequest struct {
	Query string `json:"query"`
}

type documentRequest struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

type chatResponse struct {
	Answer  string         `json:"answer"`
	Context bundleResponse `json:"context"`
}

type bundleResponse struct {
	Items          []contextItemResponse `json:"items"`
	GraphDegraded  bool                  `json:"graphDegraded"`
	VectorDegraded bool                  `json:"vectorDegraded"`
	Advisories     []string              `json:"advisories"`
}

type contextItemResponse struct {
	Kind   string  `json:"kind"`
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
	Source string  `json:"source,omitempty"`
}

type documentResponse struct {
	Status string `json:"status"`
	Source string `json:"source"`
	Chunks int    `json:"chunks"`
}

type deleteResponse struct {
	Status  string `json:"status"`
	Source  string `json:"source"`
	Deleted int64  `json:"deleted"`
}

type sourcesResponse struct {
	Sources []string `json:"sources"`
}

type statsResponse struct {
	Graph  graphStatsResponse  `json:"graph"`
	Vector vectorStatsResponse `json:"vector"`
}

type graphStatsResponse struct {
	Entities      int64 `json:"entities"`
	Relationships int64 `json:"relationships"`
}

type vectorStatsResponse struct {
	TotalChunks int            `json:"totalChunks"`
	Sources     map[string]int `json:"sources"`
}

// --- Helpers ---

func bundleToResponse(bundle domain.ContextBundle) bundleResponse {
	resp := bundleResponse{
		Items:          []contextItemResponse{},
		GraphDegraded:  bundle.GraphDegraded,
		VectorDegraded: bundle.VectorDegraded,
		Advisories:     bundle.Advisories,
	}
	if resp.Advisories == nil {
		resp.Advisories = []string{}
	}
	for _, item := range bundle.Items {
		resp.Items = append(resp.Items, contextItemResponse{
			Kind:   string(item.Kind),
			Text:   item.Text,
			Score:  item.Score,
			Source: item.Source,
		})
	}
	return resp
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{
		"error": msg,
	})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
