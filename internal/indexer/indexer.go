// Package indexer feeds the project's documentation tree into the
// context store. Files are routed to collections by the path classifier
// and stored under their slash-separated relative path as id.
package indexer

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"

	"github.com/cliplin/cliplin/internal/contextstore"
)

// DefaultMaxFileSize is the maximum file size to index (1 MB).
const DefaultMaxFileSize int64 = 1 << 20

// candidate is a classified file waiting to be stored.
type candidate struct {
	path       string // absolute path on disk
	id         string // slash relative path, used as document id
	collection string
	docType    string
}

// Result summarizes one indexing run.
type Result struct {
	Added        int
	Updated      int
	Skipped      int
	ByCollection map[string]int
}

// Indexer walks the mapped documentation directories of a project and
// adds or refreshes their documents in the context store.
type Indexer struct {
	root         string
	store        contextstore.ContextStore
	maxFileSize  int64
	showProgress bool
}

// New creates an Indexer for the given project root.
func New(projectRoot string, store contextstore.ContextStore) *Indexer {
	return &Indexer{
		root:        projectRoot,
		store:       store,
		maxFileSize: DefaultMaxFileSize,
	}
}

// ShowProgress enables a progress bar on stderr during Run.
func (ix *Indexer) ShowProgress(on bool) { ix.showProgress = on }

// Run discovers, classifies, and stores every mapped documentation file.
// Existing documents are updated in place.
func (ix *Indexer) Run(ctx context.Context) (*Result, error) {
	candidates, skipped, err := ix.discover()
	if err != nil {
		return nil, err
	}

	result := &Result{
		Skipped:      skipped,
		ByCollection: make(map[string]int),
	}

	var bar *progressbar.ProgressBar
	if ix.showProgress {
		bar = progressbar.NewOptions(len(candidates),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("indexing"),
			progressbar.OptionShowCount(),
		)
	}

	for _, c := range candidates {
		if err := ix.storeOne(ctx, c, result); err != nil {
			return nil, fmt.Errorf("indexing %s: %w", c.id, err)
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	return result, nil
}

// discover walks the routing table's source directories and classifies
// every regular file found there.
func (ix *Indexer) discover() ([]candidate, int, error) {
	var candidates []candidate
	skipped := 0

	for _, mapping := range contextstore.CollectionMappings {
		for _, dir := range mapping.Directories {
			rootDir := filepath.Join(ix.root, filepath.FromSlash(dir))
			if _, err := os.Stat(rootDir); os.IsNotExist(err) {
				continue
			}

			err := filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, walkErr error) error {
				if walkErr != nil {
					// Skip entries we cannot read instead of aborting.
					return nil
				}
				if d.IsDir() || !d.Type().IsRegular() {
					return nil
				}

				if info, err := d.Info(); err != nil || info.Size() > ix.maxFileSize {
					skipped++
					return nil
				}

				collection, err := contextstore.CollectionForFile(path, ix.root)
				if err != nil {
					return err
				}
				if collection == "" {
					skipped++
					return nil
				}
				docType, err := contextstore.TypeForFile(path, ix.root)
				if err != nil {
					return err
				}

				rel, err := filepath.Rel(ix.root, path)
				if err != nil {
					return err
				}

				candidates = append(candidates, candidate{
					path:       path,
					id:         filepath.ToSlash(rel),
					collection: collection,
					docType:    docType,
				})
				return nil
			})
			if err != nil {
				return nil, 0, fmt.Errorf("walking %s: %w", rootDir, err)
			}
		}
	}

	return candidates, skipped, nil
}

func (ix *Indexer) storeOne(ctx context.Context, c candidate, result *Result) error {
	content, err := os.ReadFile(c.path)
	if err != nil {
		result.Skipped++
		return nil
	}

	metadata := map[string]string{
		"path": c.id,
		"type": c.docType,
	}

	if ix.store.DocumentExists(ctx, c.collection, c.id) {
		_, err = ix.store.UpdateDocuments(ctx, c.collection,
			[]string{c.id}, []string{string(content)}, []map[string]string{metadata})
		if err != nil {
			return err
		}
		result.Updated++
	} else {
		_, err = ix.store.AddDocuments(ctx, c.collection,
			[]string{c.id}, []string{string(content)}, []map[string]string{metadata})
		if err != nil {
			return err
		}
		result.Added++
	}

	result.ByCollection[c.collection]++
	return nil
}
