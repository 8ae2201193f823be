package store

import (
	"github.com/LeCodex/Br4nd-0n-V3-sub000/internal/codec"
)

// Store is the key-value document persistence layer. Documents are keyed by
// (collection, name) and are plain JSON trees. How a backend lays documents
// out is its own business; the rest of the system depends only on these four
// operations.
type Store interface {
	// Get returns the document stored under (collection, name), or fallback
	// when none exists. A missing document is not an error.
	Get(collection, name string, fallback codec.Document) (codec.Document, error)
	// Save writes the document under (collection, name), replacing any
	// previous version.
	Save(collection, name string, doc codec.Document) error
	// Delete removes the document. Deleting a missing document is a no-op.
	Delete(collection, name string) error
	// List returns the names of every document in the collection.
	List(collection string) ([]string, error)
}
