package docstore

import (
	"context"
	"maps"
	"sort"
	"sync"
)

// Commit records one successful CommitBatch call on a MemoryStore.
type Commit struct {
	Collection string
	Keys       []string
}

// MemoryStore keeps documents in process memory.
type MemoryStore struct {
	// FailCommit, when set, is consulted before each commit with the 0-based
	// commit attempt number. A non-nil return aborts that commit unapplied.
	FailCommit func(attempt int, collection string, writes []Write) error
	// FailAdd, when set, is returned by Add instead of storing anything.
	FailAdd error

	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
	commits     []Commit
	attempts    int
	closed      bool
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]map[string]any)}
}

// CommitBatch applies writes atomically.
func (s *MemoryStore) CommitBatch(ctx context.Context, collection string, writes []Write) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateBatch(collection, writes); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	attempt := s.attempts
	s.attempts++
	if s.FailCommit != nil {
		if err := s.FailCommit(attempt, collection, writes); err != nil {
			return err
		}
	}

	docs := s.collectionLocked(collection)
	keys := make([]string, 0, len(writes))
	for _, w := range writes {
		docs[w.Key] = maps.Clone(w.Data)
		keys = append(keys, w.Key)
	}
	s.commits = append(s.commits, Commit{Collection: collection, Keys: keys})
	return nil
}

// Add stores data under a new key.
func (s *MemoryStore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if collection == "" {
		return "", ErrEmptyCollection
	}
	if s.FailAdd != nil {
		return "", s.FailAdd
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := newID()
	s.collectionLocked(collection)[id] = maps.Clone(data)
	return id, nil
}

// Close marks the store closed. It is safe to call more than once.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Get returns a copy of the document stored under key.
func (s *MemoryStore) Get(collection, key string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][key]
	if !ok {
		return nil, ErrNotFound
	}
	return maps.Clone(doc), nil
}

// Count returns the number of documents in collection.
func (s *MemoryStore) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}

// Keys returns the sorted keys of collection.
func (s *MemoryStore) Keys(collection string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.collections[collection]))
	for k := range s.collections[collection] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Commits returns the successful commits in order.
func (s *MemoryStore) Commits() []Commit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Commit(nil), s.commits...)
}

// Attempts returns how many commits were attempted, including failed ones.
func (s *MemoryStore) Attempts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.attempts
}

// Closed reports whether Close has been called.
func (s *MemoryStore) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *MemoryStore) collectionLocked(name string) map[string]map[string]any {
	docs, ok := s.collections[name]
	if !ok {
		docs = make(map[string]map[string]any)
		s.collections[name] = docs
	}
	return docs
}
