// Package repo provides the postgres run ledger
package repo

import (
	"context"
	_ "embed"
	"time"

	"nhldata/internal/modkit/repokit"
	"nhldata/internal/services/crawl/domain"
)

//go:embed schema.sql
var schemaSQL string

type (
	// PG is a Postgres binder for domain.LedgerRepo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a Postgres binder for domain.LedgerRepo
func NewPG() repokit.Binder[domain.LedgerRepo] { return PG{} }

// Bind implements repokit.Binder
func (PG) Bind(q repokit.Queryer) domain.LedgerRepo { return &queries{q: q} }

// EnsureSchema creates the ledger tables when missing
func (r *queries) EnsureSchema(ctx context.Context) error {
	_, err := r.q.Exec(ctx, schemaSQL)
	return err
}

// StartRun inserts the run row (idempotent on run_id)
func (r *queries) StartRun(ctx context.Context, runID string, rng domain.DateRange, started time.Time) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO crawl_runs (run_id, range_start, range_end, status, started_at)
		VALUES ($1, $2, $3, 'running', $4)
		ON CONFLICT (run_id) DO UPDATE
		SET started_at = EXCLUDED.started_at, status = 'running', finished_at = null, error = null
	`, runID, rng.Start(), rng.End(), started.UTC())
	return err
}

// UpsertGame records one game outcome; a rerun of the same game replaces the row
func (r *queries) UpsertGame(ctx context.Context, runID string, o domain.GameOutcome) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO crawl_games (run_id, game_id, game_date, status, stage, home_key, away_key, error, elapsed_ms)
		VALUES ($1, $2, $3::date, $4, $5, NULLIF($6,''), NULLIF($7,''), NULLIF($8,''), $9)
		ON CONFLICT (run_id, game_id) DO UPDATE SET
			status = EXCLUDED.status,
			stage = EXCLUDED.stage,
			home_key = EXCLUDED.home_key,
			away_key = EXCLUDED.away_key,
			error = EXCLUDED.error,
			elapsed_ms = EXCLUDED.elapsed_ms,
			recorded_at = now()
	`,
		runID, o.GameID, o.GameDate, string(o.Status()), string(o.Stage),
		o.HomeKey, o.AwayKey, o.ErrText(), int(o.Elapsed.Milliseconds()),
	)
	return err
}

// FinishRun stamps counts and the final status
func (r *queries) FinishRun(ctx context.Context, s domain.RunSummary, errText string) error {
	status := string(s.Status())
	if errText != "" {
		status = "error"
	}
	_, err := r.q.Exec(ctx, `
		UPDATE crawl_runs SET
			finished_at = $2,
			status = $3,
			total = $4,
			succeeded = $5,
			partial = $6,
			failed = $7,
			error = NULLIF($8,'')
		WHERE run_id = $1
	`, s.RunID, s.Finished.UTC(), status, s.Total, s.Succeeded, s.Partial, s.Failed, errText)
	return err
}
