package store

import (
	"context"
	"errors"
	"time"

	"nhldata/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgxQuerier is the subset shared by *pgxpool.Pool and pgx.Tx
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// traced wraps a pgxQuerier as a RowQuerier and reports each statement to the tracer
type traced struct {
	q      pgxQuerier
	tracer pg.QueryTracer
	slowUS int64
}

func (t traced) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	start := time.Now()
	ct, err := t.q.Exec(ctx, sql, args...)
	t.emit(ctx, sql, args, start, err)
	return tag{ct}, err
}

func (t traced) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := t.q.Query(ctx, sql, args...)
	t.emit(ctx, sql, args, start, err)
	if err != nil {
		return nil, err
	}
	return rows{r: rs}, nil
}

// QueryRow reports after Scan so the scan error is captured
func (t traced) QueryRow(ctx context.Context, sql string, args ...any) Row {
	start := time.Now()
	r := t.q.QueryRow(ctx, sql, args...)
	return row{r: r, after: func(err error) { t.emit(ctx, sql, args, start, err) }}
}

func (t traced) emit(ctx context.Context, sql string, args []any, start time.Time, err error) {
	if t.tracer == nil {
		return
	}
	us := time.Since(start).Microseconds()
	t.tracer.OnQuery(ctx, pg.QueryEvent{
		SQL:       sql,
		Args:      args,
		ElapsedUS: us,
		Err:       err,
		Slow:      t.slowUS >= 0 && us >= t.slowUS,
	})
}

// Beginner is a pgxQuerier that can open transactions, such as *pgxpool.Pool
type Beginner interface {
	pgxQuerier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// beginAdapter implements TxRunner over any Beginner
type beginAdapter struct {
	traced
	b Beginner
}

// FromPool wraps a Beginner as a TxRunner with optional tracing
// slowMs < 0 disables slow marking
func FromPool(b Beginner, tracer pg.QueryTracer, slowMs int) TxRunner {
	slowUS := int64(slowMs) * 1000
	return &beginAdapter{traced: traced{q: b, tracer: tracer, slowUS: slowUS}, b: b}
}

// Tx runs fn in a transaction, rolling back on error
func (a *beginAdapter) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	tx, err := a.b.Begin(ctx)
	if err != nil {
		return err
	}
	return runTx(ctx, tx, a.tracer, a.slowUS, fn)
}

// pgAdapter implements TxRunner over a pg.PG pool
type pgAdapter struct {
	traced
	p *pg.PG
}

func newPGAdapter(p *pg.PG) *pgAdapter {
	a := &pgAdapter{p: p}
	a.tracer = p.Tracer
	a.slowUS = int64(p.SlowMs) * 1000
	if p.Pool != nil {
		a.q = p.Pool
	}
	return a
}

func (a *pgAdapter) Ping(ctx context.Context) error {
	if a == nil || a.q == nil {
		return errors.New("pg: nil adapter")
	}
	var one int
	return a.QueryRow(ctx, "SELECT 1").Scan(&one)
}

func (a *pgAdapter) Close() error { a.p.Close(); return nil }

// Tx runs fn in a transaction, rolling back on error
func (a *pgAdapter) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	if a.p == nil || a.p.Pool == nil {
		return errors.New("pg: nil pool")
	}
	tx, err := a.p.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	return runTx(ctx, tx, a.tracer, a.slowUS, fn)
}

func runTx(ctx context.Context, tx pgx.Tx, tracer pg.QueryTracer, slowUS int64, fn func(q RowQuerier) error) error {
	if err := fn(txQuerier{traced{q: tx, tracer: tracer, slowUS: slowUS}}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// txQuerier is the RowQuerier handed to Tx callbacks
type txQuerier struct{ traced }

type row struct {
	r     pgx.Row
	after func(error)
}

func (x row) Scan(dst ...any) error {
	err := x.r.Scan(dst...)
	if x.after != nil {
		x.after(err)
	}
	return err
}

type rows struct{ r pgx.Rows }

func (x rows) Next() bool            { return x.r.Next() }
func (x rows) Scan(dst ...any) error { return x.r.Scan(dst...) }
func (x rows) Err() error            { return x.r.Err() }
func (x rows) Close()                { x.r.Close() }
func (x rows) Columns() []string {
	f := x.r.FieldDescriptions()
	out := make([]string, len(f))
	for i := range f {
		out[i] = f[i].Name
	}
	return out
}

type tag struct{ t pgconn.CommandTag }

func (t tag) String() string      { return t.t.String() }
func (t tag) RowsAffected() int64 { return t.t.RowsAffected() }
