package store

import (
	"context"
	"errors"
	"testing"

	"NewsPipeline/internal/ports"
)

func TestMemoryStoreCASLifecycle(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()

	rev, err := s.Put(ctx, "news-data", "20250408.md", []byte("v1"), 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rev == 0 {
		t.Fatal("create must return a non-zero revision")
	}

	// Creating again with expected=0 is a conflict: the entry exists.
	if _, err := s.Put(ctx, "news-data", "20250408.md", []byte("v2"), 0); !errors.Is(err, ports.ErrRevisionConflict) {
		t.Fatalf("expected revision conflict, got %v", err)
	}

	// A stale token is a conflict too.
	if _, err := s.Put(ctx, "news-data", "20250408.md", []byte("v2"), rev+1); !errors.Is(err, ports.ErrRevisionConflict) {
		t.Fatalf("expected revision conflict, got %v", err)
	}

	next, err := s.Put(ctx, "news-data", "20250408.md", []byte("v2"), rev)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if next <= rev {
		t.Fatalf("revision must advance: %d -> %d", rev, next)
	}

	content, got, err := s.Get(ctx, "news-data", "20250408.md")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(content) != "v2" || got != next {
		t.Fatalf("got %q@%d, want v2@%d", content, got, next)
	}
}

func TestMemoryStoreGetNotFound(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	if _, _, err := s.Get(context.Background(), "news-data", "20250408.md"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemoryStoreBranchesAreIsolated(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.Put(ctx, "news-data", "20250408.md", []byte("producer"), 0); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, _, err := s.Get(ctx, "main", "20250408.md"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("published branch should not see producer writes, got %v", err)
	}
}

func TestMemoryStoreListByPrefixSorted(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()
	for _, name := range []string{"20250408-0203.html", "20250408.md", "20250407.md", "20250408-0101.html"} {
		if _, err := s.Put(ctx, "news-data", name, []byte("x"), 0); err != nil {
			t.Fatalf("put %s: %v", name, err)
		}
	}

	entries, err := s.List(ctx, "news-data", "20250408")
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	want := []string{"20250408-0101.html", "20250408-0203.html", "20250408.md"}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, name := range want {
		if entries[i].Name != name {
			t.Fatalf("entry %d: got %s, want %s", i, entries[i].Name, name)
		}
	}
}

func TestMemoryStoreDeleteIsIdempotent(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.Put(ctx, "news-data", "20250406.md", []byte("x"), 0); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Delete(ctx, "news-data", "20250406.md"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "news-data", "20250406.md"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if _, _, err := s.Get(ctx, "news-data", "20250406.md"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestMemoryStoreReconcileProducerWins(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.Put(ctx, "news-data", "20250408.md", []byte("producer"), 0); err != nil {
		t.Fatalf("put producer: %v", err)
	}
	if _, err := s.Put(ctx, "main", "20250408.md", []byte("published"), 0); err != nil {
		t.Fatalf("put published: %v", err)
	}
	if _, err := s.Put(ctx, "main", "docs/news/newslist.md", []byte("kept"), 0); err != nil {
		t.Fatalf("put publish tree: %v", err)
	}

	written, err := s.Reconcile(ctx, "news-data", "main")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if written != 1 {
		t.Fatalf("expected 1 entry written, got %d", written)
	}

	content, _, err := s.Get(ctx, "main", "20250408.md")
	if err != nil {
		t.Fatalf("get published: %v", err)
	}
	if string(content) != "producer" {
		t.Fatalf("producer must win, got %q", content)
	}

	// Entries only the published branch has are untouched.
	content, _, err = s.Get(ctx, "main", "docs/news/newslist.md")
	if err != nil || string(content) != "kept" {
		t.Fatalf("publish tree entry clobbered: %q, %v", content, err)
	}
}
