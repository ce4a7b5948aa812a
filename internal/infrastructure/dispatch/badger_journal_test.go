package dispatch

import (
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"NewsPipeline/internal/domain"
)

func openTestDB(t *testing.T, dir string) *badger.DB {
	t.Helper()

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	return db
}

func TestBadgerJournalPendingSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	db := openTestDB(t, dir)
	journal := &badgerJournal{db: db}

	pendingRec := record{ID: uuid.NewString(), Name: domain.EventAISummarize, Key: "20250408"}
	if _, err := journal.Append(pendingRec, dedupKey(pendingRec.Name, pendingRec.Key)); err != nil {
		t.Fatalf("append: %v", err)
	}
	doneRec := record{ID: uuid.NewString(), Name: domain.EventCopyArticle, Key: "20250408"}
	if _, err := journal.Append(doneRec, dedupKey(doneRec.Name, doneRec.Key)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := journal.MarkDone(doneRec.ID); err != nil {
		t.Fatalf("mark done: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db = openTestDB(t, dir)
	defer db.Close()
	journal = &badgerJournal{db: db}

	pending, err := journal.Pending()
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending event after reopen, got %d", len(pending))
	}
	if pending[0].Name != domain.EventAISummarize || pending[0].Key != "20250408" {
		t.Fatalf("unexpected pending record %+v", pending[0])
	}
}

func TestBadgerJournalDedupSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	db := openTestDB(t, dir)
	journal := &badgerJournal{db: db}

	first := record{ID: uuid.NewString(), Name: domain.EventRunCrawler, Key: "20250408"}
	accepted, err := journal.Append(first, dedupKey(first.Name, first.Key))
	if err != nil || !accepted {
		t.Fatalf("first append: accepted=%v err=%v", accepted, err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db = openTestDB(t, dir)
	defer db.Close()
	journal = &badgerJournal{db: db}

	dup := record{ID: uuid.NewString(), Name: domain.EventRunCrawler, Key: "20250408"}
	accepted, err = journal.Append(dup, dedupKey(dup.Name, dup.Key))
	if err != nil {
		t.Fatalf("duplicate append: %v", err)
	}
	if accepted {
		t.Fatal("idempotency key must hold across restarts")
	}

	nextDay := record{ID: uuid.NewString(), Name: domain.EventRunCrawler, Key: "20250409"}
	accepted, err = journal.Append(nextDay, dedupKey(nextDay.Name, nextDay.Key))
	if err != nil || !accepted {
		t.Fatalf("next-day append: accepted=%v err=%v", accepted, err)
	}
}

func TestBadgerJournalAlertsExemptFromDedup(t *testing.T) {
	db := openTestDB(t, t.TempDir())
	defer db.Close()
	journal := &badgerJournal{db: db}

	for i := 0; i < 2; i++ {
		rec := record{ID: uuid.NewString(), Name: domain.EventSendAlert, Key: "20250408",
			Alert: &domain.Alert{Level: domain.AlertWarn, Subject: "health-check 20250408: success"}}
		accepted, err := journal.Append(rec, "")
		if err != nil || !accepted {
			t.Fatalf("alert append %d: accepted=%v err=%v", i, accepted, err)
		}
	}

	pending, err := journal.Pending()
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected both alerts journaled, got %d", len(pending))
	}
}
