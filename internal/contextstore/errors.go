package contextstore

import "errors"

var (
	// ErrPathOutsideRoot is returned by the classifier when the given file
	// path does not lie under the project root.
	ErrPathOutsideRoot = errors.New("path outside project root")

	// ErrCollectionNotFound is returned when an operation references a
	// collection that does not exist and absence is not a valid state.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrDocumentNotFound is returned when updating a document id that is
	// not present in the collection.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrDuplicateDocument is returned when adding a document id that
	// already exists in the collection. Adds are not silent upserts.
	ErrDuplicateDocument = errors.New("document already exists")

	// ErrDimensionMismatch is returned when parallel id/document sequences
	// have different lengths.
	ErrDimensionMismatch = errors.New("ids and documents length mismatch")

	// ErrEngineUnavailable is returned when the backing database cannot be
	// constructed, e.g. because of filesystem permissions.
	ErrEngineUnavailable = errors.New("context database unavailable")
)
