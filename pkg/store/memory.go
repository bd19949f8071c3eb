package store

import (
	"context"
	"slices"
	"sync"

	errs "github.com/matzehuels/foodweb/pkg/errors"
	"github.com/matzehuels/foodweb/pkg/graph"
)

// MemoryStore keeps documents in a map. It is safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]graph.Document
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]graph.Document)}
}

func (s *MemoryStore) Get(ctx context.Context, name string) (graph.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[name]
	if !ok {
		return graph.Document{}, notFound(name)
	}
	return doc, nil
}

func (s *MemoryStore) Put(ctx context.Context, doc graph.Document) error {
	if err := errs.ValidateWebName(doc.Name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.Name] = doc
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[name]; !ok {
		return notFound(name)
	}
	delete(s.docs, name)
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.docs))
	for name := range s.docs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func (s *MemoryStore) Close(ctx context.Context) error { return nil }

var _ Store = (*MemoryStore)(nil)
