package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/LeCodex/Br4nd-0n-V3-sub000/internal/codec"
)

// FileStore persists documents as <root>/<collection>/<name>.json.
type FileStore struct {
	root string
}

// NewFileStore returns a store rooted at the given directory. The directory
// is created lazily on the first Save.
func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

func (s *FileStore) path(collection, name string) string {
	return filepath.Join(s.root, collection, fmt.Sprintf("%s.json", name))
}

// Get reads and decodes the document, returning fallback when the file does
// not exist.
func (s *FileStore) Get(collection, name string, fallback codec.Document) (codec.Document, error) {
	data, err := os.ReadFile(s.path(collection, name))
	if os.IsNotExist(err) {
		return fallback, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s/%s: %w", collection, name, err)
	}

	var doc codec.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document %s/%s: %w", collection, name, err)
	}
	return doc, nil
}

// Save encodes the document and writes it to disk, creating the collection
// directory if needed.
func (s *FileStore) Save(collection, name string, doc codec.Document) error {
	dir := filepath.Join(s.root, collection)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create collection directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode document %s/%s: %w", collection, name, err)
	}

	if err := os.WriteFile(s.path(collection, name), data, 0644); err != nil {
		return fmt.Errorf("failed to write document %s/%s: %w", collection, name, err)
	}
	return nil
}

// Delete removes the document file. A missing file is not an error.
func (s *FileStore) Delete(collection, name string) error {
	err := os.Remove(s.path(collection, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete document %s/%s: %w", collection, name, err)
	}
	return nil
}

// List returns the names of every .json document in the collection.
func (s *FileStore) List(collection string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, collection))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list collection %s: %w", collection, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
	}
	return names, nil
}
