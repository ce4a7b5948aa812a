package domain

import "time"

// RunOutcome is the terminal status of a single job execution.
type RunOutcome string

const (
	OutcomeSuccess RunOutcome = "success"
	OutcomeFailure RunOutcome = "failure"
	OutcomeSkipped RunOutcome = "skipped"
)

// JobRun records one execution attempt of a stage for the journal.
type JobRun struct {
	ID         string
	Stage      Stage
	Key        DateKey
	Attempts   int
	Outcome    RunOutcome
	Detail     string
	StartedAt  time.Time
	FinishedAt time.Time
}

// PipelineState is the explicit per-day state machine consolidating the
// chain's implicit cross-job state.
type PipelineState string

const (
	StateIdle        PipelineState = "idle"
	StateCrawling    PipelineState = "crawling"
	StateExtracting  PipelineState = "extracting"
	StateSummarizing PipelineState = "summarizing"
	StateCopying     PipelineState = "copying"
	StateDeploying   PipelineState = "deploying"
	StateDeployed    PipelineState = "deployed"
	StateFailed      PipelineState = "failed"
)

// transitions holds the legal forward edges of the state machine. Failed is
// reachable from every non-terminal state and is handled separately.
var transitions = map[PipelineState][]PipelineState{
	StateIdle:        {StateCrawling},
	StateCrawling:    {StateExtracting},
	StateExtracting:  {StateSummarizing},
	StateSummarizing: {StateCopying},
	StateCopying:     {StateDeploying},
	StateDeploying:   {StateDeployed},
}

// CanTransition reports whether moving from one state to the next is legal.
func CanTransition(from, to PipelineState) bool {
	if to == StateFailed {
		return from != StateDeployed && from != StateFailed
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
