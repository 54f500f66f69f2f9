package contextstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// registry is the SQLite side of the engine. It is the source of truth
// for collection metadata and document content; the vector index only
// holds embeddings for similarity search.
type registry struct {
	db *sql.DB
}

// openRegistry creates or opens the registry database at the given path.
func openRegistry(path string) (*registry, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	r := &registry{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return r, nil
}

func (r *registry) migrate() error {
	_, err := r.db.Exec(schema)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS collections (
    name TEXT PRIMARY KEY,
    metadata TEXT NOT NULL DEFAULT '{}',
    created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS documents (
    collection TEXT NOT NULL,
    id TEXT NOT NULL,
    content TEXT NOT NULL DEFAULT '',
    metadata TEXT NOT NULL DEFAULT '{}',
    created_at DATETIME NOT NULL DEFAULT (datetime('now')),
    updated_at DATETIME NOT NULL DEFAULT (datetime('now')),
    PRIMARY KEY(collection, id)
);

CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection);
`

func (r *registry) close() error {
	return r.db.Close()
}

// docRow is a single document as stored in the registry.
type docRow struct {
	id       string
	content  string
	metadata map[string]string
}

func encodeMetadata(m map[string]string) string {
	if len(m) == 0 {
		return "{}"
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func decodeMetadata(s string) map[string]string {
	m := map[string]string{}
	if s != "" {
		_ = json.Unmarshal([]byte(s), &m)
	}
	return m
}

func (r *registry) collectionExists(ctx context.Context, name string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM collections WHERE name = ?`, name).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// createCollection inserts the collection if absent. An existing
// collection keeps its metadata (get-or-create semantics).
func (r *registry) createCollection(ctx context.Context, name string, metadata map[string]string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO collections (name, metadata) VALUES (?, ?)`,
		name, encodeMetadata(metadata))
	return err
}

func (r *registry) collectionMetadata(ctx context.Context, name string) (map[string]string, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT metadata FROM collections WHERE name = ?`, name).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ErrCollectionNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeMetadata(raw), nil
}

func (r *registry) setCollectionMetadata(ctx context.Context, name string, metadata map[string]string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE collections SET metadata = ? WHERE name = ?`,
		encodeMetadata(metadata), name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCollectionNotFound
	}
	return nil
}

// listCollections returns collection names in creation order.
func (r *registry) listCollections(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM collections ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// renameCollection moves the collection row and all of its documents to
// the new name in a single transaction.
func (r *registry) renameCollection(ctx context.Context, name, newName string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE collections SET name = ? WHERE name = ?`, newName, name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCollectionNotFound
	}

	if _, err := tx.ExecContext(ctx, `UPDATE documents SET collection = ? WHERE collection = ?`, newName, name); err != nil {
		return err
	}

	return tx.Commit()
}

// deleteCollection removes the collection and its documents. It reports
// whether the collection existed.
func (r *registry) deleteCollection(ctx context.Context, name string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE collection = ?`, name); err != nil {
		return false, err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, name)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n > 0, tx.Commit()
}

func (r *registry) countDocuments(ctx context.Context, collection string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE collection = ?`, collection).Scan(&count)
	return count, err
}

func (r *registry) documentExists(ctx context.Context, collection, id string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// insertDocuments adds new rows. A pre-existing id fails the whole batch
// with ErrDuplicateDocument.
func (r *registry) insertDocuments(ctx context.Context, collection string, docs []docRow) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, doc := range docs {
		var one int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM documents WHERE collection = ? AND id = ?`, collection, doc.id).Scan(&one)
		if err == nil {
			return fmt.Errorf("%w: %s", ErrDuplicateDocument, doc.id)
		}
		if err != sql.ErrNoRows {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO documents (collection, id, content, metadata) VALUES (?, ?, ?, ?)`,
			collection, doc.id, doc.content, encodeMetadata(doc.metadata)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// updateDocument overwrites the non-nil fields of an existing row.
func (r *registry) updateDocument(ctx context.Context, collection, id string, content *string, metadata map[string]string) error {
	sets := []string{`updated_at = datetime('now')`}
	args := []any{}
	if content != nil {
		sets = append(sets, `content = ?`)
		args = append(args, *content)
	}
	if metadata != nil {
		sets = append(sets, `metadata = ?`)
		args = append(args, encodeMetadata(metadata))
	}
	args = append(args, collection, id)

	res, err := r.db.ExecContext(ctx,
		`UPDATE documents SET `+strings.Join(sets, ", ")+` WHERE collection = ? AND id = ?`,
		args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}
	return nil
}

// getDocuments returns rows in insertion order. A nil ids slice returns
// every document in the collection.
func (r *registry) getDocuments(ctx context.Context, collection string, ids []string) ([]docRow, error) {
	query := `SELECT id, content, metadata FROM documents WHERE collection = ?`
	args := []any{collection}
	if len(ids) > 0 {
		query += ` AND id IN (?` + strings.Repeat(",?", len(ids)-1) + `)`
		for _, id := range ids {
			args = append(args, id)
		}
	}
	query += ` ORDER BY rowid`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []docRow
	for rows.Next() {
		var doc docRow
		var raw string
		if err := rows.Scan(&doc.id, &doc.content, &raw); err != nil {
			return nil, err
		}
		doc.metadata = decodeMetadata(raw)
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// deleteDocuments removes the given ids and returns how many rows were
// actually deleted.
func (r *registry) deleteDocuments(ctx context.Context, collection string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := `DELETE FROM documents WHERE collection = ? AND id IN (?` +
		strings.Repeat(",?", len(ids)-1) + `)`
	args := make([]any, 0, len(ids)+1)
	args = append(args, collection)
	for _, id := range ids {
		args = append(args, id)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
