package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/ports"
)

// PostgresJournal persists job runs and their alerts for audit and history.
type PostgresJournal struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.RunJournal = (*PostgresJournal)(nil)

// NewPostgresJournal wires a sql.DB implementation; a nil db downgrades every
// operation to a no-op.
func NewPostgresJournal(db *sql.DB) *PostgresJournal {
	return &PostgresJournal{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// RecordRun upserts one job-run snapshot.
func (r *PostgresJournal) RecordRun(ctx context.Context, run domain.JobRun) error {
	if r.db == nil {
		return nil
	}

	query := r.builder.
		Insert("job_runs").
		Columns("id", "stage", "date_key", "attempts", "outcome", "detail", "started_at", "finished_at").
		Values(run.ID, string(run.Stage), string(run.Key), run.Attempts, string(run.Outcome), run.Detail, run.StartedAt, run.FinishedAt).
		Suffix(`ON CONFLICT (id) DO UPDATE
                SET attempts = EXCLUDED.attempts,
                    outcome = EXCLUDED.outcome,
                    detail = EXCLUDED.detail,
                    finished_at = EXCLUDED.finished_at`)

	if _, err := query.RunWith(r.db).ExecContext(ctx); err != nil {
		return fmt.Errorf("upsert job run: %w", err)
	}
	return nil
}

// RecordAlert appends the alert emitted by a run.
func (r *PostgresJournal) RecordAlert(ctx context.Context, runID string, alert domain.Alert) error {
	if r.db == nil {
		return nil
	}

	query := r.builder.
		Insert("run_alerts").
		Columns("run_id", "level", "subject", "body").
		Values(runID, string(alert.Level), alert.Subject, alert.Body)

	if _, err := query.RunWith(r.db).ExecContext(ctx); err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}
