// Package contextstore provides the project-scoped context store: a set
// of named document collections with semantic search, persisted under
// the project's .cliplin directory, plus the routing table that maps
// documentation files onto those collections.
package contextstore

import (
	"context"

	"github.com/cliplin/cliplin/internal/embeddings"
)

// IncludeField selects which parts of a result bundle are populated.
type IncludeField string

const (
	IncludeDocuments IncludeField = "documents"
	IncludeMetadatas IncludeField = "metadatas"
	IncludeDistances IncludeField = "distances"
)

// CollectionInfo describes a collection without its documents.
type CollectionInfo struct {
	Name     string            `json:"name"`
	Metadata map[string]string `json:"metadata"`
}

// DocumentBundle is the result shape of direct (non-similarity) reads.
// Documents and Metadatas are nil when excluded via Include.
type DocumentBundle struct {
	IDs       []string            `json:"ids"`
	Documents []string            `json:"documents,omitempty"`
	Metadatas []map[string]string `json:"metadatas,omitempty"`
}

// QueryResult is the result shape of similarity queries. The outer slice
// is indexed by query text, the inner slices by result rank.
type QueryResult struct {
	IDs       [][]string            `json:"ids"`
	Documents [][]string            `json:"documents,omitempty"`
	Metadatas [][]map[string]string `json:"metadatas,omitempty"`
	Distances [][]float32           `json:"distances,omitempty"`
}

// QueryOptions narrows and shapes a similarity query.
type QueryOptions struct {
	NResults      int               // results per query text, default 5
	Where         map[string]string // metadata filter, passed through to the engine
	WhereDocument map[string]string // content filter ($contains / $not_contains)
	Include       []IncludeField    // default: documents, metadatas, distances
}

// GetOptions narrows and shapes a direct document read.
type GetOptions struct {
	IDs           []string
	Where         map[string]string
	WhereDocument map[string]string
	Limit         int // 0 = no limit
	Offset        int // applied before Limit
	Include       []IncludeField // default: documents, metadatas
}

// ContextStore is the capability set exposed to callers. Exactly one
// production implementation exists (Store); tests may substitute a fake.
type ContextStore interface {
	// IsInitialized reports whether the context database file exists on
	// disk. It never opens the database.
	IsInitialized() bool

	// EnsureCollections creates every required collection that is absent
	// and returns the names that were missing beforehand. Idempotent.
	EnsureCollections(ctx context.Context) ([]string, error)

	// ListCollections returns collection names in creation order. Offset
	// is applied before limit; out-of-range values yield fewer or zero
	// names, never an error. limit <= 0 means no limit.
	ListCollections(ctx context.Context, limit, offset int) ([]string, error)

	// CreateCollection creates a collection if it does not exist yet.
	// An existing collection keeps its metadata.
	CreateCollection(ctx context.Context, name string, metadata map[string]string) error

	// GetCollectionInfo returns the collection's name and metadata.
	GetCollectionInfo(ctx context.Context, name string) (*CollectionInfo, error)

	// GetCollectionCount returns the number of stored documents.
	GetCollectionCount(ctx context.Context, name string) (int, error)

	// Peek returns an arbitrary sample of at most limit documents.
	// limit <= 0 means the default of 5.
	Peek(ctx context.Context, name string, limit int) (*DocumentBundle, error)

	// DocumentExists reports whether the document id exists in the
	// collection. Any failure, including a missing collection, is
	// reported as false rather than an error.
	DocumentExists(ctx context.Context, name, id string) bool

	// AddDocuments stores new documents and returns how many were added.
	// A metadata slice whose length does not match ids is discarded and
	// replaced with one empty metadata per id.
	AddDocuments(ctx context.Context, name string, ids, documents []string, metadatas []map[string]string) (int, error)

	// UpdateDocuments overwrites the supplied fields of existing
	// documents. Nil documents or metadatas leave that field untouched.
	UpdateDocuments(ctx context.Context, name string, ids, documents []string, metadatas []map[string]string) (int, error)

	// QueryDocuments runs a semantic nearest-neighbor search for each
	// query text.
	QueryDocuments(ctx context.Context, name string, queryTexts []string, opts QueryOptions) (*QueryResult, error)

	// GetDocuments reads documents directly, optionally filtered by ids,
	// metadata, or content.
	GetDocuments(ctx context.Context, name string, opts GetOptions) (*DocumentBundle, error)

	// DeleteDocuments removes documents by id and returns how many were
	// actually removed. Unknown ids are a no-op, not an error.
	DeleteDocuments(ctx context.Context, name string, ids []string) (int, error)

	// ModifyCollection updates the collection's metadata and/or renames
	// it. Metadata is applied before the rename. Empty newName = no
	// rename, nil newMetadata = no metadata change.
	ModifyCollection(ctx context.Context, name, newName string, newMetadata map[string]string) error

	// DeleteCollection removes the collection and all of its documents.
	DeleteCollection(ctx context.Context, name string) error

	// ForkCollection copies all documents into a freshly created
	// collection under newName. An existing collection at newName is
	// destroyed and replaced.
	ForkCollection(ctx context.Context, name, newName string, metadata map[string]string) error
}

// New returns the ContextStore implementation for the given project
// root. Construction is pure: the backing database is opened lazily on
// the first operation that needs it.
func New(projectRoot string, embedder embeddings.Embedder) ContextStore {
	return NewStore(projectRoot, embedder)
}
