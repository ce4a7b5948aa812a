package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"NewsPipeline/internal/ports"
)

// CronScheduler drives periodic jobs from standard five-field cron
// expressions evaluated in the pipeline timezone.
type CronScheduler struct {
	cron *cron.Cron
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler bound to the given timezone.
func NewCronScheduler(loc *time.Location) *CronScheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &CronScheduler{cron: cron.New(cron.WithLocation(loc))}
}

// Add registers a job under a cron expression.
func (c *CronScheduler) Add(spec string, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	_, err := c.cron.AddFunc(spec, func() {
		job(time.Now())
	})
	if err != nil {
		return fmt.Errorf("add cron job %q: %w", spec, err)
	}
	return nil
}

// Start begins evaluating registered schedules.
func (c *CronScheduler) Start(ctx context.Context) error {
	c.cron.Start()
	return nil
}

// Stop halts scheduling and waits for running jobs to return.
func (c *CronScheduler) Stop(ctx context.Context) error {
	stopped := c.cron.Stop()

	select {
	case <-stopped.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
