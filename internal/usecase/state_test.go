package usecase

import (
	"testing"

	"NewsPipeline/internal/domain"
)

func TestStateTrackerHappyPath(t *testing.T) {
	t.Parallel()

	tracker := NewStateTracker(nil)
	key := domain.DateKey("20250408")

	steps := []domain.PipelineState{
		domain.StateCrawling,
		domain.StateExtracting,
		domain.StateSummarizing,
		domain.StateCopying,
		domain.StateDeploying,
		domain.StateDeployed,
	}
	for _, state := range steps {
		if !tracker.Transition(key, state) {
			t.Fatalf("transition to %s rejected from %s", state, tracker.State(key))
		}
	}
	if got := tracker.State(key); got != domain.StateDeployed {
		t.Fatalf("expected terminal state deployed, got %s", got)
	}
}

func TestStateTrackerRejectsDuplicateTrigger(t *testing.T) {
	t.Parallel()

	tracker := NewStateTracker(nil)
	key := domain.DateKey("20250408")

	if !tracker.Transition(key, domain.StateCrawling) {
		t.Fatal("first crawl transition rejected")
	}
	if tracker.Transition(key, domain.StateCrawling) {
		t.Fatal("duplicate crawl trigger must be rejected")
	}
}

func TestStateTrackerFailedFromAnywhereButTerminal(t *testing.T) {
	t.Parallel()

	tracker := NewStateTracker(nil)
	key := domain.DateKey("20250408")

	tracker.Transition(key, domain.StateCrawling)
	if !tracker.Transition(key, domain.StateFailed) {
		t.Fatal("failed must be reachable from crawling")
	}
	if tracker.Transition(key, domain.StateFailed) {
		t.Fatal("failed is terminal")
	}

	other := domain.DateKey("20250409")
	tracker.Transition(other, domain.StateCrawling)
	tracker.Transition(other, domain.StateExtracting)
	tracker.Transition(other, domain.StateSummarizing)
	tracker.Transition(other, domain.StateCopying)
	tracker.Transition(other, domain.StateDeploying)
	tracker.Transition(other, domain.StateDeployed)
	if tracker.Transition(other, domain.StateFailed) {
		t.Fatal("deployed is terminal")
	}
}

func TestStateTrackerKeysAreIndependent(t *testing.T) {
	t.Parallel()

	tracker := NewStateTracker(nil)
	tracker.Transition("20250408", domain.StateCrawling)

	if got := tracker.State("20250409"); got != domain.StateIdle {
		t.Fatalf("unrelated key should be idle, got %s", got)
	}
}
