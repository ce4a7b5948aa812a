// Package dispatch implements the event chain between pipeline stages: a
// durable queue with at-least-once redelivery and idempotency-key
// deduplication per (event name, date key).
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/ports"
)

// record is one accepted event awaiting or past delivery.
type record struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	Key   domain.DateKey `json:"key"`
	Alert *domain.Alert `json:"alert,omitempty"`
	Done  bool          `json:"done"`
}

func (r record) event() domain.Event {
	return domain.Event{Name: r.Name, Key: r.Key, Alert: r.Alert}
}

func dedupKey(name string, key domain.DateKey) string {
	return name + "\x00" + string(key)
}

// journal persists accepted events until they are delivered.
type journal interface {
	// Append stores the record; dedup is the idempotency key, empty for
	// records exempt from deduplication. Returns false when the key was
	// already accepted.
	Append(rec record, dedup string) (bool, error)
	MarkDone(id string) error
	Pending() ([]record, error)
}

// Dispatcher routes events to their single subscribed handler. Delivery is
// asynchronous and fire-and-forget: handler failures are logged, never
// retried at this layer (the originating job's own retry wrapper applies
// upstream).
type Dispatcher struct {
	journal  journal
	logger   *slog.Logger
	mu       sync.RWMutex
	handlers map[string]ports.EventHandler
	wg       sync.WaitGroup
}

var _ ports.Dispatcher = (*Dispatcher)(nil)

// New builds a dispatcher over the in-memory journal.
func New(logger *slog.Logger) *Dispatcher {
	return newDispatcher(newMemoryJournal(), logger)
}

func newDispatcher(j journal, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		journal:  j,
		logger:   logger,
		handlers: map[string]ports.EventHandler{},
	}
}

// Subscribe registers the handler for an event name. Each name has exactly
// one consumer; a later registration replaces the earlier one.
func (d *Dispatcher) Subscribe(name string, handler ports.EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = handler
}

// Publish accepts an event into the queue and delivers it asynchronously.
// Control events carrying an idempotency key already accepted for the same
// day are dropped; alert events always pass.
func (d *Dispatcher) Publish(ctx context.Context, ev domain.Event) error {
	rec := record{ID: uuid.NewString(), Name: ev.Name, Key: ev.Key, Alert: ev.Alert}

	dedup := ""
	if ev.ControlEvent() {
		dedup = dedupKey(ev.Name, ev.Key)
	}

	accepted, err := d.journal.Append(rec, dedup)
	if err != nil {
		return fmt.Errorf("append event %s: %w", ev.Name, err)
	}
	if !accepted {
		d.logger.Info("duplicate trigger dropped", "event", ev.Name, "key", ev.Key)
		return nil
	}

	d.deliver(ctx, rec)
	return nil
}

// Redeliver replays every accepted-but-undelivered event, e.g. after restart.
func (d *Dispatcher) Redeliver(ctx context.Context) error {
	pending, err := d.journal.Pending()
	if err != nil {
		return fmt.Errorf("load pending events: %w", err)
	}

	for _, rec := range pending {
		d.logger.Info("redelivering event", "event", rec.Name, "key", rec.Key)
		d.deliver(ctx, rec)
	}
	return nil
}

// Wait blocks until all in-flight deliveries complete.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) deliver(ctx context.Context, rec record) {
	d.mu.RLock()
	handler := d.handlers[rec.Name]
	d.mu.RUnlock()

	if handler == nil {
		d.logger.Warn("no subscriber for event", "event", rec.Name)
		if err := d.journal.MarkDone(rec.ID); err != nil {
			d.logger.Error("mark event done", "event", rec.Name, "error", err)
		}
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		if err := handler(ctx, rec.event()); err != nil {
			d.logger.Error("event handler failed", "event", rec.Name, "key", rec.Key, "error", err)
		}
		if err := d.journal.MarkDone(rec.ID); err != nil {
			d.logger.Error("mark event done", "event", rec.Name, "error", err)
		}
	}()
}

// memoryJournal keeps accepted events in process memory; durability is then
// limited to the process lifetime, which is what tests and storeless runs use.
type memoryJournal struct {
	mu    sync.Mutex
	seen  map[string]bool
	items map[string]record
	order []string
}

func newMemoryJournal() *memoryJournal {
	return &memoryJournal{seen: map[string]bool{}, items: map[string]record{}}
}

func (m *memoryJournal) Append(rec record, dedup string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if dedup != "" {
		if m.seen[dedup] {
			return false, nil
		}
		m.seen[dedup] = true
	}

	m.items[rec.ID] = rec
	m.order = append(m.order, rec.ID)
	return true, nil
}

func (m *memoryJournal) MarkDone(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.items[id]
	if !ok {
		return nil
	}
	rec.Done = true
	m.items[id] = rec
	return nil
}

func (m *memoryJournal) Pending() ([]record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var pending []record
	for _, id := range m.order {
		if rec := m.items[id]; !rec.Done {
			pending = append(pending, rec)
		}
	}
	return pending, nil
}
