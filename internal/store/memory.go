package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/LeCodex/Br4nd-0n-V3-sub000/internal/codec"
)

// MemoryStore keeps documents in memory. It backs tests and the playground.
// Documents are copied through a JSON round trip on the way in and out, so
// callers see the same value shapes a file-backed store would produce and
// cannot mutate stored state by accident.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]codec.Document
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]codec.Document)}
}

func roundTrip(doc codec.Document) (codec.Document, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	var out codec.Document
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return out, nil
}

func (s *MemoryStore) Get(collection, name string, fallback codec.Document) (codec.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][name]
	if !ok {
		return fallback, nil
	}
	return roundTrip(doc)
}

func (s *MemoryStore) Save(collection, name string, doc codec.Document) error {
	copied, err := roundTrip(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]codec.Document)
	}
	s.collections[collection][name] = copied
	return nil
}

func (s *MemoryStore) Delete(collection, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.collections[collection], name)
	return nil
}

func (s *MemoryStore) List(collection string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var names []string
	for name := range s.collections[collection] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
