package contextstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/cliplin/cliplin/internal/embeddings"
)

const defaultPeekLimit = 5

// DatabasePath returns the deterministic location of the context
// database for a project.
func DatabasePath(projectRoot string) string {
	return filepath.Join(projectRoot, ".cliplin", "data", "context", "chroma.sqlite3")
}

// Store is the engine-backed ContextStore. Document content and
// collection metadata live in a SQLite registry; a chromem vector index
// alongside it serves similarity queries. Both are opened lazily on the
// first operation and reused for the lifetime of the Store.
//
// A Store is safe for serialized use only; concurrent callers must
// construct one Store per goroutine or synchronize access themselves.
type Store struct {
	root     string
	embedder embeddings.Embedder

	mu  sync.Mutex
	eng *engine
}

// engine bundles the two halves of the backing database.
type engine struct {
	reg       *registry
	vectors   *chromem.DB
	embedFunc chromem.EmbeddingFunc
}

// NewStore creates a Store for the given project root. No I/O happens
// until the first operation.
func NewStore(projectRoot string, embedder embeddings.Embedder) *Store {
	return &Store{root: projectRoot, embedder: embedder}
}

// IsInitialized reports whether the context database file exists. It is
// side-effect-free and never opens the database.
func (s *Store) IsInitialized() bool {
	_, err := os.Stat(DatabasePath(s.root))
	return err == nil
}

// open returns the engine, constructing it on first use. Construction
// failures are wrapped in ErrEngineUnavailable together with the
// attempted path so callers can surface a useful diagnostic.
func (s *Store) open() (*engine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.eng != nil {
		return s.eng, nil
	}

	dbPath := DatabasePath(s.root)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEngineUnavailable, dbPath, err)
	}

	// Resolve to an absolute path for cross-platform consistency.
	absDir, err := filepath.Abs(filepath.Dir(dbPath))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEngineUnavailable, dbPath, err)
	}

	reg, err := openRegistry(filepath.Join(absDir, filepath.Base(dbPath)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEngineUnavailable, dbPath, err)
	}

	vectors, err := chromem.NewPersistentDB(filepath.Join(absDir, "vectors"), false)
	if err != nil {
		reg.close()
		return nil, fmt.Errorf("%w: %s: %v", ErrEngineUnavailable, dbPath, err)
	}

	s.eng = &engine{
		reg:       reg,
		vectors:   vectors,
		embedFunc: embeddings.ToChromemFunc(s.embedder),
	}
	return s.eng, nil
}

// vectorCollection returns the chromem collection for name, creating it
// if needed. The registry remains the authority on collection existence.
func (e *engine) vectorCollection(name string) (*chromem.Collection, error) {
	return e.vectors.GetOrCreateCollection(name, nil, e.embedFunc)
}

// requireCollection fails with ErrCollectionNotFound unless the
// collection exists in the registry.
func (e *engine) requireCollection(ctx context.Context, name string) error {
	exists, err := e.reg.collectionExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	return nil
}

func (s *Store) EnsureCollections(ctx context.Context) ([]string, error) {
	eng, err := s.open()
	if err != nil {
		return nil, err
	}

	existing, err := eng.reg.listCollections(ctx)
	if err != nil {
		return nil, err
	}
	have := make(map[string]bool, len(existing))
	for _, name := range existing {
		have[name] = true
	}

	missing := []string{}
	for _, name := range RequiredCollections() {
		if have[name] {
			continue
		}
		if err := eng.reg.createCollection(ctx, name, nil); err != nil {
			return nil, fmt.Errorf("creating collection %s: %w", name, err)
		}
		if _, err := eng.vectorCollection(name); err != nil {
			return nil, fmt.Errorf("creating vector collection %s: %w", name, err)
		}
		missing = append(missing, name)
	}
	return missing, nil
}

func (s *Store) ListCollections(ctx context.Context, limit, offset int) ([]string, error) {
	eng, err := s.open()
	if err != nil {
		return nil, err
	}

	names, err := eng.reg.listCollections(ctx)
	if err != nil {
		return nil, err
	}

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

func (s *Store) CreateCollection(ctx context.Context, name string, metadata map[string]string) error {
	eng, err := s.open()
	if err != nil {
		return err
	}

	if err := eng.reg.createCollection(ctx, name, metadata); err != nil {
		return fmt.Errorf("creating collection %s: %w", name, err)
	}
	if _, err := eng.vectorCollection(name); err != nil {
		return fmt.Errorf("creating vector collection %s: %w", name, err)
	}
	return nil
}

func (s *Store) GetCollectionInfo(ctx context.Context, name string) (*CollectionInfo, error) {
	eng, err := s.open()
	if err != nil {
		return nil, err
	}

	metadata, err := eng.reg.collectionMetadata(ctx, name)
	if err != nil {
		return nil, err
	}
	return &CollectionInfo{Name: name, Metadata: metadata}, nil
}

func (s *Store) GetCollectionCount(ctx context.Context, name string) (int, error) {
	eng, err := s.open()
	if err != nil {
		return 0, err
	}
	if err := eng.requireCollection(ctx, name); err != nil {
		return 0, err
	}
	return eng.reg.countDocuments(ctx, name)
}

func (s *Store) Peek(ctx context.Context, name string, limit int) (*DocumentBundle, error) {
	if limit <= 0 {
		limit = defaultPeekLimit
	}

	eng, err := s.open()
	if err != nil {
		return nil, err
	}
	if err := eng.requireCollection(ctx, name); err != nil {
		return nil, err
	}

	docs, err := eng.reg.getDocuments(ctx, name, nil)
	if err != nil {
		return nil, err
	}
	if len(docs) > limit {
		docs = docs[:limit]
	}

	bundle := &DocumentBundle{
		IDs:       make([]string, len(docs)),
		Documents: make([]string, len(docs)),
		Metadatas: make([]map[string]string, len(docs)),
	}
	for i, doc := range docs {
		bundle.IDs[i] = doc.id
		bundle.Documents[i] = doc.content
		bundle.Metadatas[i] = doc.metadata
	}
	return bundle, nil
}

func (s *Store) DocumentExists(ctx context.Context, name, id string) bool {
	eng, err := s.open()
	if err != nil {
		return false
	}
	exists, err := eng.reg.documentExists(ctx, name, id)
	if err != nil {
		return false
	}
	return exists
}

func (s *Store) AddDocuments(ctx context.Context, name string, ids, documents []string, metadatas []map[string]string) (int, error) {
	if len(ids) != len(documents) {
		return 0, fmt.Errorf("%w: %d ids, %d documents", ErrDimensionMismatch, len(ids), len(documents))
	}
	if len(ids) == 0 {
		return 0, nil
	}

	// A mismatched metadata slice is discarded, not an error.
	if len(metadatas) != len(ids) {
		metadatas = make([]map[string]string, len(ids))
		for i := range metadatas {
			metadatas[i] = map[string]string{}
		}
	}

	eng, err := s.open()
	if err != nil {
		return 0, err
	}
	if err := eng.requireCollection(ctx, name); err != nil {
		return 0, err
	}

	rows := make([]docRow, len(ids))
	vecDocs := make([]chromem.Document, len(ids))
	for i := range ids {
		rows[i] = docRow{id: ids[i], content: documents[i], metadata: metadatas[i]}
		vecDocs[i] = chromem.Document{
			ID:       ids[i],
			Content:  documents[i],
			Metadata: metadatas[i],
		}
	}

	if err := eng.reg.insertDocuments(ctx, name, rows); err != nil {
		return 0, err
	}

	col, err := eng.vectorCollection(name)
	if err != nil {
		return 0, err
	}
	if err := col.AddDocuments(ctx, vecDocs, 1); err != nil {
		// Registry rows must not outlive a failed index write.
		_ = col.Delete(ctx, nil, nil, ids...)
		if _, derr := eng.reg.deleteDocuments(ctx, name, ids); derr != nil {
			return 0, fmt.Errorf("indexing documents: %v (rollback failed: %w)", err, derr)
		}
		return 0, fmt.Errorf("indexing documents: %w", err)
	}

	return len(ids), nil
}

func (s *Store) UpdateDocuments(ctx context.Context, name string, ids, documents []string, metadatas []map[string]string) (int, error) {
	if documents != nil && len(documents) != len(ids) {
		return 0, fmt.Errorf("%w: %d ids, %d documents", ErrDimensionMismatch, len(ids), len(documents))
	}
	if metadatas != nil && len(metadatas) != len(ids) {
		return 0, fmt.Errorf("%w: %d ids, %d metadatas", ErrDimensionMismatch, len(ids), len(metadatas))
	}
	if len(ids) == 0 {
		return 0, nil
	}

	eng, err := s.open()
	if err != nil {
		return 0, err
	}
	if err := eng.requireCollection(ctx, name); err != nil {
		return 0, err
	}

	// Every id must exist before anything is mutated, so a bad batch
	// leaves both registry and index untouched.
	for _, id := range ids {
		exists, err := eng.reg.documentExists(ctx, name, id)
		if err != nil {
			return 0, err
		}
		if !exists {
			return 0, fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
		}
	}

	for i, id := range ids {
		var content *string
		if documents != nil {
			content = &documents[i]
		}
		var metadata map[string]string
		if metadatas != nil {
			metadata = metadatas[i]
		}
		if err := eng.reg.updateDocument(ctx, name, id, content, metadata); err != nil {
			return 0, err
		}
	}

	// Re-index the updated rows. chromem replaces a document when the id
	// already exists, so a plain add is an overwrite.
	rows, err := eng.reg.getDocuments(ctx, name, ids)
	if err != nil {
		return 0, err
	}
	col, err := eng.vectorCollection(name)
	if err != nil {
		return 0, err
	}
	for _, row := range rows {
		doc := chromem.Document{ID: row.id, Content: row.content, Metadata: row.metadata}
		if err := col.AddDocument(ctx, doc); err != nil {
			return 0, fmt.Errorf("re-indexing document %s: %w", row.id, err)
		}
	}

	return len(ids), nil
}

func (s *Store) QueryDocuments(ctx context.Context, name string, queryTexts []string, opts QueryOptions) (*QueryResult, error) {
	eng, err := s.open()
	if err != nil {
		return nil, err
	}
	if err := eng.requireCollection(ctx, name); err != nil {
		return nil, err
	}

	nResults := opts.NResults
	if nResults <= 0 {
		nResults = 5
	}
	include := opts.Include
	if include == nil {
		include = []IncludeField{IncludeDocuments, IncludeMetadatas, IncludeDistances}
	}

	result := &QueryResult{IDs: make([][]string, len(queryTexts))}
	if hasInclude(include, IncludeDocuments) {
		result.Documents = make([][]string, len(queryTexts))
	}
	if hasInclude(include, IncludeMetadatas) {
		result.Metadatas = make([][]map[string]string, len(queryTexts))
	}
	if hasInclude(include, IncludeDistances) {
		result.Distances = make([][]float32, len(queryTexts))
	}

	col, err := eng.vectorCollection(name)
	if err != nil {
		return nil, err
	}

	for qi, text := range queryTexts {
		result.IDs[qi] = []string{}
		if result.Documents != nil {
			result.Documents[qi] = []string{}
		}
		if result.Metadatas != nil {
			result.Metadatas[qi] = []map[string]string{}
		}
		if result.Distances != nil {
			result.Distances[qi] = []float32{}
		}

		// chromem requires nResults <= collection size.
		n := nResults
		if count := col.Count(); count == 0 {
			continue
		} else if n > count {
			n = count
		}

		matches, err := col.Query(ctx, text, n, opts.Where, opts.WhereDocument)
		if err != nil {
			return nil, fmt.Errorf("querying collection %s: %w", name, err)
		}

		for _, m := range matches {
			result.IDs[qi] = append(result.IDs[qi], m.ID)
			if result.Documents != nil {
				result.Documents[qi] = append(result.Documents[qi], m.Content)
			}
			if result.Metadatas != nil {
				result.Metadatas[qi] = append(result.Metadatas[qi], m.Metadata)
			}
			if result.Distances != nil {
				// chromem reports cosine similarity; callers expect distance.
				result.Distances[qi] = append(result.Distances[qi], 1-m.Similarity)
			}
		}
	}

	return result, nil
}

func (s *Store) GetDocuments(ctx context.Context, name string, opts GetOptions) (*DocumentBundle, error) {
	eng, err := s.open()
	if err != nil {
		return nil, err
	}
	if err := eng.requireCollection(ctx, name); err != nil {
		return nil, err
	}

	docs, err := eng.reg.getDocuments(ctx, name, opts.IDs)
	if err != nil {
		return nil, err
	}

	docs = filterDocs(docs, opts.Where, opts.WhereDocument)

	if opts.Offset > 0 {
		if opts.Offset >= len(docs) {
			docs = nil
		} else {
			docs = docs[opts.Offset:]
		}
	}
	if opts.Limit > 0 && opts.Limit < len(docs) {
		docs = docs[:opts.Limit]
	}

	include := opts.Include
	if include == nil {
		include = []IncludeField{IncludeDocuments, IncludeMetadatas}
	}

	bundle := &DocumentBundle{IDs: make([]string, len(docs))}
	if hasInclude(include, IncludeDocuments) {
		bundle.Documents = make([]string, len(docs))
	}
	if hasInclude(include, IncludeMetadatas) {
		bundle.Metadatas = make([]map[string]string, len(docs))
	}
	for i, doc := range docs {
		bundle.IDs[i] = doc.id
		if bundle.Documents != nil {
			bundle.Documents[i] = doc.content
		}
		if bundle.Metadatas != nil {
			bundle.Metadatas[i] = doc.metadata
		}
	}
	return bundle, nil
}

func (s *Store) DeleteDocuments(ctx context.Context, name string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	eng, err := s.open()
	if err != nil {
		return 0, err
	}
	if err := eng.requireCollection(ctx, name); err != nil {
		return 0, err
	}

	deleted, err := eng.reg.deleteDocuments(ctx, name, ids)
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		col, err := eng.vectorCollection(name)
		if err != nil {
			return 0, err
		}
		if err := col.Delete(ctx, nil, nil, ids...); err != nil {
			return 0, fmt.Errorf("removing documents from index: %w", err)
		}
	}

	return deleted, nil
}

// ModifyCollection applies the metadata change before the rename. The
// order is load-bearing: renaming first would leave the metadata update
// targeting a collection handle that no longer exists.
func (s *Store) ModifyCollection(ctx context.Context, name, newName string, newMetadata map[string]string) error {
	eng, err := s.open()
	if err != nil {
		return err
	}
	if err := eng.requireCollection(ctx, name); err != nil {
		return err
	}

	if newMetadata != nil {
		if err := eng.reg.setCollectionMetadata(ctx, name, newMetadata); err != nil {
			return err
		}
	}

	if newName != "" && newName != name {
		if err := eng.reg.renameCollection(ctx, name, newName); err != nil {
			return err
		}
		if err := eng.moveVectors(ctx, name, newName); err != nil {
			return err
		}
	}

	return nil
}

func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	eng, err := s.open()
	if err != nil {
		return err
	}

	existed, err := eng.reg.deleteCollection(ctx, name)
	if err != nil {
		return err
	}
	if !existed {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}

	// chromem treats deleting an absent vector collection as a no-op.
	if err := eng.vectors.DeleteCollection(name); err != nil {
		return fmt.Errorf("deleting vector collection %s: %w", name, err)
	}
	return nil
}

// ForkCollection copies every document into a fresh collection under
// newName. An existing destination is destroyed and replaced. Source
// embeddings are reused, so no re-embedding happens.
func (s *Store) ForkCollection(ctx context.Context, name, newName string, metadata map[string]string) error {
	eng, err := s.open()
	if err != nil {
		return err
	}
	if err := eng.requireCollection(ctx, name); err != nil {
		return err
	}

	docs, err := eng.reg.getDocuments(ctx, name, nil)
	if err != nil {
		return err
	}

	// Destructive overwrite of an existing destination.
	if _, err := eng.reg.deleteCollection(ctx, newName); err != nil {
		return err
	}
	if err := eng.vectors.DeleteCollection(newName); err != nil {
		return fmt.Errorf("replacing vector collection %s: %w", newName, err)
	}

	if err := eng.reg.createCollection(ctx, newName, metadata); err != nil {
		return fmt.Errorf("creating collection %s: %w", newName, err)
	}
	if _, err := eng.vectorCollection(newName); err != nil {
		return fmt.Errorf("creating vector collection %s: %w", newName, err)
	}

	// Zero-length batch adds are skipped: the destination stays empty but
	// valid.
	if len(docs) == 0 {
		return nil
	}

	if err := eng.reg.insertDocuments(ctx, newName, docs); err != nil {
		return err
	}
	return eng.copyVectors(ctx, name, newName, docs)
}

// copyVectors clones the indexed documents from src to dst, carrying the
// stored embeddings over so nothing is re-embedded.
func (e *engine) copyVectors(ctx context.Context, src, dst string, docs []docRow) error {
	srcCol, err := e.vectorCollection(src)
	if err != nil {
		return err
	}
	dstCol, err := e.vectorCollection(dst)
	if err != nil {
		return err
	}

	for _, row := range docs {
		doc := chromem.Document{ID: row.id, Content: row.content, Metadata: row.metadata}
		if existing, err := srcCol.GetByID(ctx, row.id); err == nil {
			doc.Embedding = existing.Embedding
		}
		if err := dstCol.AddDocument(ctx, doc); err != nil {
			return fmt.Errorf("copying document %s: %w", row.id, err)
		}
	}
	return nil
}

// moveVectors recreates the index under the new name and drops the old
// one. chromem has no rename, so this is a copy followed by a delete.
func (e *engine) moveVectors(ctx context.Context, oldName, newName string) error {
	docs, err := e.reg.getDocuments(ctx, newName, nil)
	if err != nil {
		return err
	}
	if err := e.copyVectors(ctx, oldName, newName, docs); err != nil {
		return err
	}
	if err := e.vectors.DeleteCollection(oldName); err != nil {
		return fmt.Errorf("dropping vector collection %s: %w", oldName, err)
	}
	return nil
}

func hasInclude(include []IncludeField, field IncludeField) bool {
	for _, f := range include {
		if f == field {
			return true
		}
	}
	return false
}

// filterDocs applies chroma-style where / whereDocument predicates.
// where matches metadata fields exactly; whereDocument supports the
// $contains and $not_contains content operators.
func filterDocs(docs []docRow, where, whereDocument map[string]string) []docRow {
	if len(where) == 0 && len(whereDocument) == 0 {
		return docs
	}

	out := docs[:0:0]
	for _, doc := range docs {
		if !matchesWhere(doc.metadata, where) {
			continue
		}
		if !matchesWhereDocument(doc.content, whereDocument) {
			continue
		}
		out = append(out, doc)
	}
	return out
}

func matchesWhere(metadata, where map[string]string) bool {
	for k, v := range where {
		if metadata[k] != v {
			return false
		}
	}
	return true
}

func matchesWhereDocument(content string, whereDocument map[string]string) bool {
	for op, v := range whereDocument {
		switch op {
		case "$contains":
			if !strings.Contains(content, v) {
				return false
			}
		case "$not_contains":
			if strings.Contains(content, v) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

var _ ContextStore = (*Store)(nil)
