// Package store provides the Postgres seam used by the run ledger
package store

import (
	"context"

	"nhldata/internal/platform/logger"
)

// Store is what a crawl process opened for its run ledger
// the zero value has no ledger and closes cleanly
type Store struct {
	// Log carries the component field; the zero Logger discards
	Log logger.Logger

	// PG is nil when CRAWL_LEDGER_DSN is unset
	PG TxRunner

	component string
}

// Row is one scanned result, e.g. a game status lookup
type Row interface {
	Scan(dest ...any) error
}

// Rows iterates a result set such as the games recorded for a run
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
	Columns() []string
}

// CommandTag reports what an upsert touched
type CommandTag interface {
	String() string
	RowsAffected() int64
}

// RowQuerier is the statement surface the ledger repo is written against
type RowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// TxRunner runs fn in one transaction, committing when fn returns nil
type TxRunner interface {
	RowQuerier
	Tx(ctx context.Context, fn func(q RowQuerier) error) error
}

// Open constructs a Store with the requested backends
// a disabled PG leaves s.PG nil, which callers treat as "no ledger"
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{component: "ledger"}
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}
	s.Log = s.Log.With().Str("component", s.component).Logger()

	if cfg.PG.Enabled {
		pgClient, err := openPG(ctx, cfg, s)
		if err != nil {
			return nil, err
		}
		s.PG = pgClient
	}
	return s, nil
}

// Enabled reports whether a ledger pool was opened
func (s *Store) Enabled() bool { return s != nil && s.PG != nil }

// Close releases the pool if one was opened
func (s *Store) Close(_ context.Context) error {
	if !s.Enabled() {
		return nil
	}
	if c, ok := s.PG.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
