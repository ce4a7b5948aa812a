package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"NewsPipeline/internal/ports"
)

type memoryEntry struct {
	content  []byte
	revision ports.Revision
}

// MemoryStore is an in-process ArtifactStore used for tests and for runs
// without a configured store path. Semantics match the Badger backend.
type MemoryStore struct {
	mu       sync.Mutex
	branches map[string]map[string]memoryEntry
}

var _ ports.ArtifactStore = (*MemoryStore)(nil)

// NewMemoryStore builds an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{branches: map[string]map[string]memoryEntry{}}
}

// Get returns the content and revision of one artifact.
func (s *MemoryStore) Get(ctx context.Context, branch, name string) ([]byte, ports.Revision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.branches[branch][name]
	if !ok {
		return nil, 0, ports.ErrNotFound
	}

	content := make([]byte, len(entry.content))
	copy(content, entry.content)
	return content, entry.revision, nil
}

// Put writes an artifact if the caller holds the current revision.
func (s *MemoryStore) Put(ctx context.Context, branch, name string, content []byte, expected ports.Revision) (ports.Revision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.branches[branch]
	if !ok {
		entries = map[string]memoryEntry{}
		s.branches[branch] = entries
	}

	current := entries[name].revision
	if current != expected {
		return 0, ports.ErrRevisionConflict
	}

	stored := make([]byte, len(content))
	copy(stored, content)
	next := current + 1
	entries[name] = memoryEntry{content: stored, revision: next}
	return next, nil
}

// Delete removes an artifact; deleting an absent name is a no-op.
func (s *MemoryStore) Delete(ctx context.Context, branch, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.branches[branch], name)
	return nil
}

// List returns entries on a branch whose names carry the prefix, sorted by
// name so lexicographic scanning matches chronological order.
func (s *MemoryStore) List(ctx context.Context, branch, prefix string) ([]ports.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []ports.Entry
	for name, entry := range s.branches[branch] {
		if strings.HasPrefix(name, prefix) {
			result = append(result, ports.Entry{Name: name, Revision: entry.revision})
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Reconcile applies every producer entry over the published branch
// (producer-wins) and returns the number of entries written.
func (s *MemoryStore) Reconcile(ctx context.Context, producer, published string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	source := s.branches[producer]
	if len(source) == 0 {
		return 0, nil
	}

	target, ok := s.branches[published]
	if !ok {
		target = map[string]memoryEntry{}
		s.branches[published] = target
	}

	written := 0
	for name, entry := range source {
		content := make([]byte, len(entry.content))
		copy(content, entry.content)
		target[name] = memoryEntry{content: content, revision: target[name].revision + 1}
		written++
	}

	return written, nil
}
