package contextstore

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// CollectionMapping ties a collection to the part of the documentation
// tree it is fed from.
type CollectionMapping struct {
	Collection  string   // collection name
	Directories []string // source directory prefixes, relative to the project root
	FilePattern string   // glob matched against the file's base name
	Type        string   // semantic type tag for documents in this collection
}

// CollectionMappings is the routing table for the documentation tree.
// Order matters: mappings and their directories are evaluated top to
// bottom and the first match wins.
var CollectionMappings = []CollectionMapping{
	{
		Collection:  "business-and-architecture",
		Directories: []string{"docs/adrs", "docs/business"},
		FilePattern: "*.md",
		Type:        "adr",
	},
	{
		Collection:  "features",
		Directories: []string{"docs/features"},
		FilePattern: "*.feature",
		Type:        "feature",
	},
	{
		Collection:  "tech-specs",
		Directories: []string{"docs/ts4"},
		FilePattern: "*.ts4",
		Type:        "ts4",
	},
	{
		Collection:  "uisi",
		Directories: []string{"docs/ui-intent"},
		FilePattern: "*.yaml",
		Type:        "ui-intent",
	},
}

// RequiredCollections returns the names of all collections a project is
// expected to have, in routing table order.
func RequiredCollections() []string {
	names := make([]string, len(CollectionMappings))
	for i, m := range CollectionMappings {
		names[i] = m.Collection
	}
	return names
}

// CollectionForFile returns the collection the given file belongs to, or
// "" if no mapping matches. The file must live under the project root.
func CollectionForFile(path, projectRoot string) (string, error) {
	m, err := matchMapping(path, projectRoot)
	if err != nil {
		return "", err
	}
	if m == nil {
		return "", nil
	}
	return m.Collection, nil
}

// TypeForFile returns the semantic type tag for the given file, or "" if
// no mapping matches. It uses the same matching rule as CollectionForFile.
func TypeForFile(path, projectRoot string) (string, error) {
	m, err := matchMapping(path, projectRoot)
	if err != nil {
		return "", err
	}
	if m == nil {
		return "", nil
	}
	return m.Type, nil
}

// matchMapping resolves the given file path against the routing table.
// It returns nil when no directory/pattern pair matches.
func matchMapping(path, projectRoot string) (*CollectionMapping, error) {
	rel, err := filepath.Rel(projectRoot, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("%w: %s is not under %s", ErrPathOutsideRoot, path, projectRoot)
	}

	// Normalize to forward slashes for consistent matching.
	rel = filepath.ToSlash(rel)
	base := filepath.Base(rel)

	for i := range CollectionMappings {
		m := &CollectionMappings[i]
		for _, dir := range m.Directories {
			if !strings.HasPrefix(rel, dir) {
				continue
			}
			if matched, err := doublestar.Match(m.FilePattern, base); err == nil && matched {
				return m, nil
			}
		}
	}
	return nil, nil
}
