package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cliplin/cliplin/internal/contextstore"
)

// fakeStore is an in-memory ContextStore for route tests.
type fakeStore struct {
	order []string
	docs  map[string]map[string]string
	meta  map[string]map[string]map[string]string
}

func newFakeStore(collections ...string) *fakeStore {
	f := &fakeStore{
		docs: make(map[string]map[string]string),
		meta: make(map[string]map[string]map[string]string),
	}
	for _, name := range collections {
		f.addCollection(name)
	}
	return f
}

func (f *fakeStore) addCollection(name string) {
	if _, ok := f.docs[name]; ok {
		return
	}
	f.order = append(f.order, name)
	f.docs[name] = make(map[string]string)
	f.meta[name] = make(map[string]map[string]string)
}

func (f *fakeStore) put(collection, id, content string, meta map[string]string) {
	if meta == nil {
		meta = map[string]string{}
	}
	f.docs[collection][id] = content
	f.meta[collection][id] = meta
}

func (f *fakeStore) IsInitialized() bool { return true }

func (f *fakeStore) EnsureCollections(context.Context) ([]string, error) { return nil, nil }

func (f *fakeStore) ListCollections(_ context.Context, limit, offset int) ([]string, error) {
	names := f.order
	if offset > 0 {
		if offset >= len(names) {
			return []string{}, nil
		}
		names = names[offset:]
	}
	if limit > 0 && limit < len(names) {
		names = names[:limit]
	}
	return names, nil
}

func (f *fakeStore) CreateCollection(_ context.Context, name string, _ map[string]string) error {
	f.addCollection(name)
	return nil
}

func (f *fakeStore) GetCollectionInfo(_ context.Context, name string) (*contextstore.CollectionInfo, error) {
	if _, ok := f.docs[name]; !ok {
		return nil, fmt.Errorf("%w: %s", contextstore.ErrCollectionNotFound, name)
	}
	return &contextstore.CollectionInfo{Name: name, Metadata: map[string]string{}}, nil
}

func (f *fakeStore) GetCollectionCount(_ context.Context, name string) (int, error) {
	if _, ok := f.docs[name]; !ok {
		return 0, fmt.Errorf("%w: %s", contextstore.ErrCollectionNotFound, name)
	}
	return len(f.docs[name]), nil
}

func (f *fakeStore) Peek(_ context.Context, name string, limit int) (*contextstore.DocumentBundle, error) {
	if _, ok := f.docs[name]; !ok {
		return nil, fmt.Errorf("%w: %s", contextstore.ErrCollectionNotFound, name)
	}
	if limit <= 0 {
		limit = 5
	}
	bundle := &contextstore.DocumentBundle{IDs: []string{}}
	for id, content := range f.docs[name] {
		if len(bundle.IDs) >= limit {
			break
		}
		bundle.IDs = append(bundle.IDs, id)
		bundle.Documents = append(bundle.Documents, content)
		bundle.Metadatas = append(bundle.Metadatas, f.meta[name][id])
	}
	return bundle, nil
}

func (f *fakeStore) DocumentExists(_ context.Context, name, id string) bool {
	_, ok := f.docs[name][id]
	return ok
}

func (f *fakeStore) AddDocuments(_ context.Context, name string, ids, documents []string, metadatas []map[string]string) (int, error) {
	if _, ok := f.docs[name]; !ok {
		return 0, fmt.Errorf("%w: %s", contextstore.ErrCollectionNotFound, name)
	}
	for i, id := range ids {
		if _, exists := f.docs[name][id]; exists {
			return 0, fmt.Errorf("%w: %s", contextstore.ErrDuplicateDocument, id)
		}
		var meta map[string]string
		if metadatas != nil {
			meta = metadatas[i]
		}
		f.put(name, id, documents[i], meta)
	}
	return len(ids), nil
}

func (f *fakeStore) UpdateDocuments(_ context.Context, name string, ids, documents []string, metadatas []map[string]string) (int, error) {
	for i, id := range ids {
		if _, ok := f.docs[name][id]; !ok {
			return 0, fmt.Errorf("%w: %s", contextstore.ErrDocumentNotFound, id)
		}
		if documents != nil {
			f.docs[name][id] = documents[i]
		}
		if metadatas != nil {
			f.meta[name][id] = metadatas[i]
		}
	}
	return len(ids), nil
}

func (f *fakeStore) QueryDocuments(_ context.Context, name string, queryTexts []string, _ contextstore.QueryOptions) (*contextstore.QueryResult, error) {
	if _, ok := f.docs[name]; !ok {
		return nil, fmt.Errorf("%w: %s", contextstore.ErrCollectionNotFound, name)
	}
	result := &contextstore.QueryResult{IDs: make([][]string, len(queryTexts))}
	for qi := range queryTexts {
		result.IDs[qi] = []string{}
		for id := range f.docs[name] {
			result.IDs[qi] = append(result.IDs[qi], id)
		}
	}
	return result, nil
}

func (f *fakeStore) GetDocuments(_ context.Context, name string, opts contextstore.GetOptions) (*contextstore.DocumentBundle, error) {
	if _, ok := f.docs[name]; !ok {
		return nil, fmt.Errorf("%w: %s", contextstore.ErrCollectionNotFound, name)
	}
	bundle := &contextstore.DocumentBundle{IDs: []string{}}
	add := func(id string) {
		content, ok := f.docs[name][id]
		if !ok {
			return
		}
		bundle.IDs = append(bundle.IDs, id)
		bundle.Documents = append(bundle.Documents, content)
		bundle.Metadatas = append(bundle.Metadatas, f.meta[name][id])
	}
	if len(opts.IDs) > 0 {
		for _, id := range opts.IDs {
			add(id)
		}
	} else {
		for id := range f.docs[name] {
			add(id)
		}
	}
	return bundle, nil
}

func (f *fakeStore) DeleteDocuments(_ context.Context, name string, ids []string) (int, error) {
	if _, ok := f.docs[name]; !ok {
		return 0, fmt.Errorf("%w: %s", contextstore.ErrCollectionNotFound, name)
	}
	deleted := 0
	for _, id := range ids {
		if _, ok := f.docs[name][id]; ok {
			delete(f.docs[name], id)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeStore) ModifyCollection(_ context.Context, name, newName string, _ map[string]string) error {
	if _, ok := f.docs[name]; !ok {
		return fmt.Errorf("%w: %s", contextstore.ErrCollectionNotFound, name)
	}
	return nil
}

func (f *fakeStore) DeleteCollection(_ context.Context, name string) error {
	if _, ok := f.docs[name]; !ok {
		return fmt.Errorf("%w: %s", contextstore.ErrCollectionNotFound, name)
	}
	delete(f.docs, name)
	for i, n := range f.order {
		if n == name {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeStore) ForkCollection(_ context.Context, name, newName string, _ map[string]string) error {
	if _, ok := f.docs[name]; !ok {
		return fmt.Errorf("%w: %s", contextstore.ErrCollectionNotFound, name)
	}
	f.addCollection(newName)
	for id, content := range f.docs[name] {
		f.put(newName, id, content, f.meta[name][id])
	}
	return nil
}

var _ contextstore.ContextStore = (*fakeStore)(nil)

func newTestServer(store contextstore.ContextStore) *Server {
	return New(Config{Port: 0}, store, "/tmp/project")
}

func doRequest(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(newFakeStore())
	rec := doRequest(t, srv, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("body: %s", rec.Body.String())
	}
}

func TestListCollections(t *testing.T) {
	store := newFakeStore("business-and-architecture", "features")
	store.put("features", "f1", "content", nil)
	srv := newTestServer(store)

	rec := doRequest(t, srv, http.MethodGet, "/api/collections/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}

	var resp struct {
		Collections []struct {
			Name  string `json:"name"`
			Count int    `json:"count"`
		} `json:"collections"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Collections) != 2 {
		t.Fatalf("collections: got %d, want 2", len(resp.Collections))
	}
	if resp.Collections[1].Name != "features" || resp.Collections[1].Count != 1 {
		t.Errorf("unexpected summary: %+v", resp.Collections[1])
	}
}

func TestCreateCollection(t *testing.T) {
	store := newFakeStore()
	srv := newTestServer(store)

	rec := doRequest(t, srv, http.MethodPost, "/api/collections/", map[string]any{"name": "specs"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201", rec.Code)
	}
	if _, ok := store.docs["specs"]; !ok {
		t.Error("collection not created")
	}

	// Missing name is rejected.
	rec = doRequest(t, srv, http.MethodPost, "/api/collections/", map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing name: got %d, want 400", rec.Code)
	}
}

func TestCollectionInfoNotFound(t *testing.T) {
	srv := newTestServer(newFakeStore())
	rec := doRequest(t, srv, http.MethodGet, "/api/collections/ghost/", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rec.Code)
	}
}

func TestAddDocuments(t *testing.T) {
	store := newFakeStore("features")
	srv := newTestServer(store)

	t.Run("with ids", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/api/collections/features/documents", map[string]any{
			"ids":       []string{"f1"},
			"documents": []string{"Feature: Login"},
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("status: got %d, want 201: %s", rec.Code, rec.Body.String())
		}
		if store.docs["features"]["f1"] != "Feature: Login" {
			t.Errorf("document not stored: %v", store.docs["features"])
		}
	})

	t.Run("generated ids", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/api/collections/features/documents", map[string]any{
			"documents": []string{"Feature: Export"},
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("status: got %d, want 201", rec.Code)
		}

		var resp struct {
			Added int      `json:"added"`
			IDs   []string `json:"ids"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if resp.Added != 1 || len(resp.IDs) != 1 || resp.IDs[0] == "" {
			t.Errorf("unexpected response: %+v", resp)
		}
	})

	t.Run("duplicate id conflicts", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/api/collections/features/documents", map[string]any{
			"ids":       []string{"f1"},
			"documents": []string{"again"},
		})
		if rec.Code != http.StatusConflict {
			t.Errorf("status: got %d, want 409", rec.Code)
		}
	})

	t.Run("unknown collection", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/api/collections/ghost/documents", map[string]any{
			"documents": []string{"text"},
		})
		if rec.Code != http.StatusNotFound {
			t.Errorf("status: got %d, want 404", rec.Code)
		}
	})
}

func TestUpdateDocuments(t *testing.T) {
	store := newFakeStore("features")
	store.put("features", "f1", "v1", nil)
	srv := newTestServer(store)

	rec := doRequest(t, srv, http.MethodPut, "/api/collections/features/documents", map[string]any{
		"ids":       []string{"f1"},
		"documents": []string{"v2"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if store.docs["features"]["f1"] != "v2" {
		t.Errorf("document not updated: %v", store.docs["features"])
	}

	rec = doRequest(t, srv, http.MethodPut, "/api/collections/features/documents", map[string]any{
		"ids":       []string{"ghost"},
		"documents": []string{"v2"},
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown id: got %d, want 404", rec.Code)
	}
}

func TestDeleteDocuments(t *testing.T) {
	store := newFakeStore("features")
	store.put("features", "f1", "content", nil)
	srv := newTestServer(store)

	rec := doRequest(t, srv, http.MethodDelete, "/api/collections/features/documents", map[string]any{
		"ids": []string{"f1", "ghost"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}

	var resp struct {
		Deleted int `json:"deleted"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Deleted != 1 {
		t.Errorf("deleted: got %d, want 1", resp.Deleted)
	}
}

func TestQueryEndpoint(t *testing.T) {
	store := newFakeStore("features")
	store.put("features", "f1", "Feature: Login", nil)
	srv := newTestServer(store)

	rec := doRequest(t, srv, http.MethodPost, "/api/collections/features/query", map[string]any{
		"query": "login",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var result contextstore.QueryResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if len(result.IDs) != 1 || len(result.IDs[0]) != 1 {
		t.Errorf("unexpected result shape: %+v", result.IDs)
	}

	// Empty query body is rejected.
	rec = doRequest(t, srv, http.MethodPost, "/api/collections/features/query", map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty query: got %d, want 400", rec.Code)
	}
}

func TestForkEndpoint(t *testing.T) {
	store := newFakeStore("features")
	store.put("features", "f1", "content", nil)
	srv := newTestServer(store)

	rec := doRequest(t, srv, http.MethodPost, "/api/collections/features/fork", map[string]any{
		"new_name": "features-v2",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201", rec.Code)
	}
	if len(store.docs["features-v2"]) != 1 {
		t.Errorf("fork did not copy documents: %v", store.docs)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/collections/features/fork", map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing new_name: got %d, want 400", rec.Code)
	}
}

func TestDeleteCollectionEndpoint(t *testing.T) {
	store := newFakeStore("features")
	srv := newTestServer(store)

	rec := doRequest(t, srv, http.MethodDelete, "/api/collections/features/", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want 204", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodDelete, "/api/collections/features/", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete: got %d, want 404", rec.Code)
	}
}

func TestDocumentHTML(t *testing.T) {
	store := newFakeStore("business-and-architecture")
	store.put("business-and-architecture", "0001-use-postgres.md", "# Decision\n\nUse *markdown*.", map[string]string{"type": "adr"})
	store.put("business-and-architecture", "raw.txt", "plain <text>", nil)
	srv := newTestServer(store)

	t.Run("markdown document", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/api/collections/business-and-architecture/documents/0001-use-postgres.md/html", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status: got %d, want 200: %s", rec.Code, rec.Body.String())
		}
		body := rec.Body.String()
		if !strings.Contains(body, "<h1") || !strings.Contains(body, "<em>markdown</em>") {
			t.Errorf("markdown not rendered: %s", body)
		}
	})

	t.Run("plain document is escaped", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/api/collections/business-and-architecture/documents/raw.txt/html", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status: got %d, want 200", rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "<pre>") || !strings.Contains(body, "&lt;text&gt;") {
			t.Errorf("plain content not escaped: %s", body)
		}
	})

	t.Run("missing document", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/api/collections/business-and-architecture/documents/ghost/html", nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status: got %d, want 404", rec.Code)
		}
	})
}
