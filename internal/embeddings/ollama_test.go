package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaEmbedder(t *testing.T) {
	var gotModel string
	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/api/embed" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req ollamaEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		gotModel = req.Model
		embs := make([][]float32, len(req.Input))
		for i := range req.Input {
			embs[i] = []float32{0.1, 0.2, 0.3}
		}
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embeddings: embs})
	}))
	defer ts.Close()

	e := NewOllamaEmbedder("nomic-embed-text", 3, ts.URL)
	if e.Name() != "ollama/nomic-embed-text" {
		t.Errorf("Name: got %q", e.Name())
	}
	if e.Dimensions() != 3 {
		t.Errorf("Dimensions: got %d, want 3", e.Dimensions())
	}

	vecs, err := e.Embed(context.Background(), []string{"hello", "world"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs) != 2 || len(vecs[0]) != 3 {
		t.Errorf("unexpected embedding shape: %d x %d", len(vecs), len(vecs[0]))
	}
	if gotModel != "nomic-embed-text" {
		t.Errorf("model: got %q", gotModel)
	}
	if calls != 1 {
		t.Errorf("expected one request for the whole batch, got %d", calls)
	}
}

func TestOllamaEmbedderServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer ts.Close()

	e := NewOllamaEmbedder("missing", 3, ts.URL)
	if _, err := e.Embed(context.Background(), []string{"x"}); err == nil {
		t.Error("expected error for server failure")
	}
}

func TestOllamaEmbedderCountMismatch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaEmbedResponse{
			Embeddings: [][]float32{{1, 0}},
		})
	}))
	defer ts.Close()

	e := NewOllamaEmbedder("m", 2, ts.URL)
	if _, err := e.Embed(context.Background(), []string{"a", "b"}); err == nil {
		t.Error("expected error when the server returns fewer embeddings than inputs")
	}
}

func TestToChromemFunc(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaEmbedResponse{
			Embeddings: [][]float32{{1, 0}},
		})
	}))
	defer ts.Close()

	fn := ToChromemFunc(NewOllamaEmbedder("m", 2, ts.URL))
	vec, err := fn(context.Background(), "text")
	if err != nil {
		t.Fatalf("embedding func: %v", err)
	}
	if len(vec) != 2 || vec[0] != 1 {
		t.Errorf("unexpected vector: %v", vec)
	}
}
