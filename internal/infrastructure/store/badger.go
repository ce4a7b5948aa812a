package store

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"

	"NewsPipeline/internal/ports"
)

// Key layout: "a:" + branch + 0x00 + name. The value holds an 8-byte
// big-endian revision followed by the artifact content.
const artifactPrefix = "a:"

const revisionHeader = 8

// BadgerStore is the persistent ArtifactStore. Revision compare-and-swap runs
// inside a Badger transaction, so concurrent writers race exactly once and the
// loser observes ErrRevisionConflict.
type BadgerStore struct {
	db *badger.DB
}

var _ ports.ArtifactStore = (*BadgerStore)(nil)

// OpenBadgerStore opens (creating if needed) the store at path.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// NewBadgerStore wraps an already-open database, e.g. one shared with the
// dispatch queue.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// DB exposes the underlying database for collaborators that share it.
func (s *BadgerStore) DB() *badger.DB {
	return s.db
}

// Close releases the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func artifactKey(branch, name string) []byte {
	key := make([]byte, 0, len(artifactPrefix)+len(branch)+1+len(name))
	key = append(key, artifactPrefix...)
	key = append(key, branch...)
	key = append(key, 0)
	key = append(key, name...)
	return key
}

func encodeEntry(revision ports.Revision, content []byte) []byte {
	value := make([]byte, revisionHeader+len(content))
	binary.BigEndian.PutUint64(value, uint64(revision))
	copy(value[revisionHeader:], content)
	return value
}

func decodeEntry(value []byte) (ports.Revision, []byte, error) {
	if len(value) < revisionHeader {
		return 0, nil, fmt.Errorf("corrupt store entry: %d bytes", len(value))
	}
	return ports.Revision(binary.BigEndian.Uint64(value)), value[revisionHeader:], nil
}

// Get returns the content and revision of one artifact.
func (s *BadgerStore) Get(ctx context.Context, branch, name string) ([]byte, ports.Revision, error) {
	var (
		content  []byte
		revision ports.Revision
	)

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(artifactKey(branch, name))
		if err == badger.ErrKeyNotFound {
			return ports.ErrNotFound
		}
		if err != nil {
			return err
		}

		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		revision, content, err = decodeEntry(value)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return content, revision, nil
}

// Put writes an artifact if the caller holds the current revision.
func (s *BadgerStore) Put(ctx context.Context, branch, name string, content []byte, expected ports.Revision) (ports.Revision, error) {
	key := artifactKey(branch, name)
	var next ports.Revision

	err := s.db.Update(func(txn *badger.Txn) error {
		var current ports.Revision
		item, err := txn.Get(key)
		switch err {
		case nil:
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			current, _, err = decodeEntry(value)
			if err != nil {
				return err
			}
		case badger.ErrKeyNotFound:
			current = 0
		default:
			return err
		}

		if current != expected {
			return ports.ErrRevisionConflict
		}

		next = current + 1
		return txn.Set(key, encodeEntry(next, content))
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

// Delete removes an artifact; deleting an absent name is a no-op.
func (s *BadgerStore) Delete(ctx context.Context, branch, name string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(artifactKey(branch, name))
	})
}

// List returns entries on a branch whose names carry the prefix, sorted by
// name (Badger iterates in key order).
func (s *BadgerStore) List(ctx context.Context, branch, prefix string) ([]ports.Entry, error) {
	branchKey := artifactKey(branch, prefix)
	var result []ports.Entry

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = branchKey
		opts.PrefetchValues = true

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			revision, _, err := decodeEntry(value)
			if err != nil {
				return err
			}

			key := item.Key()
			sep := bytes.IndexByte(key[len(artifactPrefix):], 0)
			if sep < 0 {
				continue
			}
			name := string(key[len(artifactPrefix)+sep+1:])
			result = append(result, ports.Entry{Name: name, Revision: revision})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Reconcile applies every producer entry over the published branch
// (producer-wins) and returns the number of entries written.
func (s *BadgerStore) Reconcile(ctx context.Context, producer, published string) (int, error) {
	entries, err := s.List(ctx, producer, "")
	if err != nil {
		return 0, fmt.Errorf("list producer branch: %w", err)
	}

	written := 0
	for _, entry := range entries {
		content, _, err := s.Get(ctx, producer, entry.Name)
		if err != nil {
			return written, fmt.Errorf("read %s: %w", entry.Name, err)
		}

		err = s.db.Update(func(txn *badger.Txn) error {
			key := artifactKey(published, entry.Name)
			var current ports.Revision
			item, err := txn.Get(key)
			switch err {
			case nil:
				value, err := item.ValueCopy(nil)
				if err != nil {
					return err
				}
				current, _, err = decodeEntry(value)
				if err != nil {
					return err
				}
			case badger.ErrKeyNotFound:
				current = 0
			default:
				return err
			}
			return txn.Set(key, encodeEntry(current+1, content))
		})
		if err != nil {
			return written, fmt.Errorf("write %s: %w", entry.Name, err)
		}
		written++
	}
	return written, nil
}
