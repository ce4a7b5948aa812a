package usecase

import (
	"context"
	"fmt"

	"NewsPipeline/internal/domain"
)

// HandleDeployTrigger is the terminal stage: build and publish the site.
// The result alert fires regardless of outcome; nothing is emitted downstream.
func (j *Jobs) HandleDeployTrigger(ctx context.Context, ev domain.Event) error {
	key := j.eventKey(ev)
	run := j.startRun(domain.StageDeploy, key)

	if !j.states.Transition(key, domain.StateDeploying) {
		j.finishRun(ctx, run, domain.OutcomeSkipped, 0, domain.AlertInfo,
			fmt.Sprintf("deploy for %s dropped: not in %s", key, domain.StateCopying))
		return nil
	}

	if err := j.deployer.Deploy(ctx); err != nil {
		j.states.Transition(key, domain.StateFailed)
		j.finishRun(ctx, run, domain.OutcomeFailure, 1, domain.AlertError,
			fmt.Sprintf("deploy failed: %v", err))
		return err
	}

	j.states.Transition(key, domain.StateDeployed)
	j.finishRun(ctx, run, domain.OutcomeSuccess, 1, domain.AlertInfo,
		fmt.Sprintf("site deployed for %s", key))
	return nil
}
