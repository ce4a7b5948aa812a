// Package deploy runs the static-site build-and-publish command as an opaque
// collaborator under a wall-clock budget.
package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"NewsPipeline/internal/ports"
	"NewsPipeline/pkg/logger"
)

// CommandDeployer shells out to the configured deploy command. The deploy
// stage is the only one with an externally imposed time ceiling.
type CommandDeployer struct {
	command string
	budget  time.Duration
	logger  *slog.Logger
}

var _ ports.SiteDeployer = (*CommandDeployer)(nil)

// NewCommandDeployer wires the command line and its timeout.
func NewCommandDeployer(command string, budget time.Duration, log *slog.Logger) *CommandDeployer {
	if log == nil {
		log = slog.Default()
	}
	if budget <= 0 {
		budget = 10 * time.Minute
	}
	return &CommandDeployer{command: command, budget: budget, logger: log}
}

// Deploy runs the command; exceeding the budget kills it and fails the stage.
func (d *CommandDeployer) Deploy(ctx context.Context) error {
	if d.command == "" {
		return fmt.Errorf("deploy command not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, d.budget)
	defer cancel()

	d.logger.Info("deploy started", "command", d.command, "budget", d.budget)
	start := time.Now()

	cmd := exec.CommandContext(ctx, "sh", "-c", d.command)
	cmd.Stdout = logger.NewWriter("deploy")
	cmd.Stderr = logger.NewWriter("deploy")

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("deploy exceeded %s budget", d.budget)
		}
		return fmt.Errorf("deploy command: %w", err)
	}

	d.logger.Info("deploy finished", "elapsed", time.Since(start))
	return nil
}
