package usecase

import (
	"log/slog"
	"sync"

	"NewsPipeline/internal/domain"
)

// StateTracker is the explicit per-day pipeline state machine. Jobs request
// transitions before acting; an illegal transition means a stale or duplicate
// trigger and the run is dropped.
type StateTracker struct {
	mu     sync.Mutex
	states map[domain.DateKey]domain.PipelineState
	logger *slog.Logger
}

// NewStateTracker builds a tracker; every unseen date key starts Idle.
func NewStateTracker(logger *slog.Logger) *StateTracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &StateTracker{
		states: map[domain.DateKey]domain.PipelineState{},
		logger: logger,
	}
}

// State returns the current state for a date key.
func (t *StateTracker) State(key domain.DateKey) domain.PipelineState {
	t.mu.Lock()
	defer t.mu.Unlock()

	if state, ok := t.states[key]; ok {
		return state
	}
	return domain.StateIdle
}

// Transition moves the key's pipeline to the target state if that edge is
// legal, reporting whether the move happened.
func (t *StateTracker) Transition(key domain.DateKey, to domain.PipelineState) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	from, ok := t.states[key]
	if !ok {
		from = domain.StateIdle
	}

	if !domain.CanTransition(from, to) {
		t.logger.Warn("illegal state transition rejected", "key", key, "from", from, "to", to)
		return false
	}

	t.states[key] = to
	return true
}
