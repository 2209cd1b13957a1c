package docstore

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store used by tests and by dev deployments
// that run without redis. Writes notify subscribers synchronously, which
// mirrors the push-based delivery of the real backend closely enough for the
// synchronizer's purposes.
type MemoryStore struct {
	mu     sync.Mutex
	docs   map[string]Document
	subs   map[string]map[int]SnapshotFunc
	nextID int
}

// NewMemoryStore builds an empty in-memory document store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: map[string]Document{},
		subs: map[string]map[int]SnapshotFunc{},
	}
}

// Subscribe implements Store.
func (s *MemoryStore) Subscribe(_ context.Context, path string, fn SnapshotFunc) (func(), error) {
	s.mu.Lock()
	if s.subs[path] == nil {
		s.subs[path] = map[int]SnapshotFunc{}
	}
	id := s.nextID
	s.nextID++
	s.subs[path][id] = fn
	current := cloneDocument(s.docs[path])
	s.mu.Unlock()

	fn(current)

	return func() {
		s.mu.Lock()
		delete(s.subs[path], id)
		s.mu.Unlock()
	}, nil
}

// Write implements Store.
func (s *MemoryStore) Write(_ context.Context, path string, data Document, merge bool) error {
	s.mu.Lock()
	doc := cloneDocument(data)
	if merge {
		if existing, ok := s.docs[path]; ok {
			merged := cloneDocument(existing)
			for k, v := range data {
				merged[k] = v
			}
			doc = merged
		}
	}
	s.docs[path] = doc

	var fns []SnapshotFunc
	for _, fn := range s.subs[path] {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(cloneDocument(doc))
	}
	return nil
}

// Read returns the stored document, or nil when absent. Test helper.
func (s *MemoryStore) Read(path string) Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneDocument(s.docs[path])
}

func cloneDocument(doc Document) Document {
	if doc == nil {
		return nil
	}
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
