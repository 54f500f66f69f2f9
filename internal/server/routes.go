package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cliplin/cliplin/internal/contextstore"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps store errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, contextstore.ErrCollectionNotFound),
		errors.Is(err, contextstore.ErrDocumentNotFound):
		status = http.StatusNotFound
	case errors.Is(err, contextstore.ErrDuplicateDocument):
		status = http.StatusConflict
	case errors.Is(err, contextstore.ErrDimensionMismatch):
		status = http.StatusBadRequest
	case errors.Is(err, contextstore.ErrEngineUnavailable):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

type collectionSummary struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.ListCollections(r.Context(), queryInt(r, "limit"), queryInt(r, "offset"))
	if err != nil {
		writeError(w, err)
		return
	}

	summaries := make([]collectionSummary, len(names))
	for i, name := range names {
		count, _ := s.store.GetCollectionCount(r.Context(), name)
		summaries[i] = collectionSummary{Name: name, Count: count}
	}
	writeJSON(w, http.StatusOK, map[string]any{"collections": summaries})
}

type createCollectionRequest struct {
	Name     string            `json:"name"`
	Metadata map[string]string `json:"metadata"`
}

func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	var req createCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "name is required"})
		return
	}
	if err := s.store.CreateCollection(r.Context(), req.Name, req.Metadata); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"name": req.Name})
}

func (s *Server) handleCollectionInfo(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	info, err := s.store.GetCollectionInfo(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}
	count, err := s.store.GetCollectionCount(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":     info.Name,
		"metadata": info.Metadata,
		"count":    count,
	})
}

type modifyCollectionRequest struct {
	NewName  string            `json:"new_name"`
	Metadata map[string]string `json:"metadata"`
}

func (s *Server) handleModifyCollection(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req modifyCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if err := s.store.ModifyCollection(r.Context(), name, req.NewName, req.Metadata); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteCollection(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type forkCollectionRequest struct {
	NewName  string            `json:"new_name"`
	Metadata map[string]string `json:"metadata"`
}

func (s *Server) handleForkCollection(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req forkCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NewName == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "new_name is required"})
		return
	}
	if err := s.store.ForkCollection(r.Context(), name, req.NewName, req.Metadata); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"name": req.NewName})
}

func (s *Server) handlePeek(w http.ResponseWriter, r *http.Request) {
	bundle, err := s.store.Peek(r.Context(), chi.URLParam(r, "name"), queryInt(r, "limit"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bundle)
}

type queryRequest struct {
	Query         string            `json:"query"`
	NResults      int               `json:"n_results"`
	Where         map[string]string `json:"where"`
	WhereDocument map[string]string `json:"where_document"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "query is required"})
		return
	}

	result, err := s.store.QueryDocuments(r.Context(), name, []string{req.Query}, contextstore.QueryOptions{
		NResults:      req.NResults,
		Where:         req.Where,
		WhereDocument: req.WhereDocument,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetDocuments(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	opts := contextstore.GetOptions{
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	}
	if ids, ok := r.URL.Query()["id"]; ok {
		opts.IDs = ids
	}

	bundle, err := s.store.GetDocuments(r.Context(), name, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bundle)
}

type documentsRequest struct {
	IDs       []string            `json:"ids"`
	Documents []string            `json:"documents"`
	Metadatas []map[string]string `json:"metadatas"`
}

func (s *Server) handleAddDocuments(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req documentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Documents) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "documents are required"})
		return
	}

	// Generate ids when the caller supplies none.
	if len(req.IDs) == 0 {
		req.IDs = make([]string, len(req.Documents))
		for i := range req.IDs {
			req.IDs[i] = uuid.NewString()
		}
	}

	added, err := s.store.AddDocuments(r.Context(), name, req.IDs, req.Documents, req.Metadatas)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"added": added, "ids": req.IDs})
}

func (s *Server) handleUpdateDocuments(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req documentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.IDs) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "ids are required"})
		return
	}

	updated, err := s.store.UpdateDocuments(r.Context(), name, req.IDs, req.Documents, req.Metadatas)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": updated})
}

type deleteDocumentsRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) handleDeleteDocuments(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req deleteDocumentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.IDs) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "ids are required"})
		return
	}

	deleted, err := s.store.DeleteDocuments(r.Context(), name, req.IDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}
