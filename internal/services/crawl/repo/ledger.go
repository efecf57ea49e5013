package repo

import (
	"context"
	"time"

	"nhldata/internal/modkit/repokit"
	perr "nhldata/internal/platform/errors"
	"nhldata/internal/services/crawl/domain"
)

// DefaultStatementTimeout bounds every ledger statement
const DefaultStatementTimeout = 5 * time.Second

// Ledger implements domain.Ledger with one short transaction per call
type Ledger struct {
	db     repokit.TxRunner
	binder repokit.Binder[domain.LedgerRepo]
}

// NewLedger wraps db; statements are capped by DefaultStatementTimeout
func NewLedger(db repokit.TxRunner, binder repokit.Binder[domain.LedgerRepo]) *Ledger {
	if db == nil {
		panic("repo.Ledger requires a non nil TxRunner")
	}
	if binder == nil {
		binder = NewPG()
	}
	return &Ledger{
		db:     repokit.WithBeginHooks(db, repokit.StatementTimeout(DefaultStatementTimeout)),
		binder: binder,
	}
}

func (l *Ledger) tx(ctx context.Context, op string, fn func(r domain.LedgerRepo) error) error {
	err := repokit.WithTx(ctx, l.db, func(q repokit.Queryer) error {
		return fn(repokit.MustBind(l.binder, q))
	})
	if err != nil {
		return perr.WithOp(perr.FromPostgres(err, "ledger "+op), op)
	}
	return nil
}

// EnsureSchema applies the embedded schema
func (l *Ledger) EnsureSchema(ctx context.Context) error {
	return l.tx(ctx, "ensure_schema", func(r domain.LedgerRepo) error { return r.EnsureSchema(ctx) })
}

// StartRun implements domain.Ledger
func (l *Ledger) StartRun(ctx context.Context, runID string, rng domain.DateRange, started time.Time) error {
	return l.tx(ctx, "start_run", func(r domain.LedgerRepo) error { return r.StartRun(ctx, runID, rng, started) })
}

// RecordGame implements domain.Ledger
func (l *Ledger) RecordGame(ctx context.Context, runID string, o domain.GameOutcome) error {
	return l.tx(ctx, "record_game", func(r domain.LedgerRepo) error { return r.UpsertGame(ctx, runID, o) })
}

// FinishRun implements domain.Ledger
func (l *Ledger) FinishRun(ctx context.Context, s domain.RunSummary, runErr error) error {
	errText := ""
	if runErr != nil {
		errText = runErr.Error()
	}
	return l.tx(ctx, "finish_run", func(r domain.LedgerRepo) error { return r.FinishRun(ctx, s, errText) })
}
