package usecase

import (
	"context"
	"fmt"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/ports"
)

// NamePattern reports whether an artifact name belongs to a date key for one
// stage's naming convention.
type NamePattern func(key domain.DateKey, name string) bool

// ResolveDaily finds the canonical current-day artifact on a branch: today's
// key first, then yesterday's. When several timestamped variants match a day
// the lexicographically greatest name is authoritative (names are zero-padded,
// so that is also the chronologically latest). Returns ports.ErrNotFound when
// neither day has a match; the caller decides whether that is fatal.
func ResolveDaily(ctx context.Context, store ports.ArtifactStore, branch string, today domain.DateKey, pattern NamePattern) (string, error) {
	for _, key := range []domain.DateKey{today, today.Prev()} {
		name, err := resolveDay(ctx, store, branch, key, pattern)
		if err != nil {
			return "", err
		}
		if name != "" {
			return name, nil
		}
	}
	return "", ports.ErrNotFound
}

func resolveDay(ctx context.Context, store ports.ArtifactStore, branch string, key domain.DateKey, pattern NamePattern) (string, error) {
	entries, err := store.List(ctx, branch, string(key))
	if err != nil {
		return "", fmt.Errorf("list %s artifacts: %w", key, err)
	}

	latest := ""
	for _, entry := range entries {
		if !pattern(key, entry.Name) {
			continue
		}
		if entry.Name > latest {
			latest = entry.Name
		}
	}
	return latest, nil
}
