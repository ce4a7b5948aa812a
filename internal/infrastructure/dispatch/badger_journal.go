package dispatch

import (
	"encoding/json"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// Key layout: "e:" + record ID for event records, "ek:" + idempotency key
// for the dedup index. The database is shared with the artifact store.
const (
	eventPrefix = "e:"
	dedupPrefix = "ek:"
)

// badgerJournal persists accepted events so undelivered ones survive a
// process restart and replays stay deduplicated across restarts.
type badgerJournal struct {
	db *badger.DB
}

// NewDurable builds a dispatcher whose queue is persisted in the given
// database.
func NewDurable(db *badger.DB, logger *slog.Logger) *Dispatcher {
	return newDispatcher(&badgerJournal{db: db}, logger)
}

func (b *badgerJournal) Append(rec record, dedup string) (bool, error) {
	accepted := true

	err := b.db.Update(func(txn *badger.Txn) error {
		if dedup != "" {
			_, err := txn.Get([]byte(dedupPrefix + dedup))
			switch err {
			case nil:
				accepted = false
				return nil
			case badger.ErrKeyNotFound:
				if err := txn.Set([]byte(dedupPrefix+dedup), []byte(rec.ID)); err != nil {
					return err
				}
			default:
				return err
			}
		}

		value, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return txn.Set([]byte(eventPrefix+rec.ID), value)
	})
	if err != nil {
		return false, err
	}
	return accepted, nil
}

func (b *badgerJournal) MarkDone(id string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(eventPrefix + id))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}

		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}

		var rec record
		if err := json.Unmarshal(value, &rec); err != nil {
			return err
		}
		rec.Done = true

		updated, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return txn.Set([]byte(eventPrefix+id), updated)
	})
}

func (b *badgerJournal) Pending() ([]record, error) {
	var pending []record

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(eventPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}

			var rec record
			if err := json.Unmarshal(value, &rec); err != nil {
				return err
			}
			if !rec.Done {
				pending = append(pending, rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pending, nil
}
