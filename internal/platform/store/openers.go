package store

import (
	"context"
	"time"

	perr "nhldata/internal/platform/errors"
	"nhldata/internal/platform/store/pg"

	"github.com/jackc/pgx/v5/pgxpool"
)

// seams for tests
var (
	openPool = pg.Open
	pingPool = func(ctx context.Context, p *pg.PG) error { return newPGAdapter(p).Ping(ctx) }
	sleep    = func(ctx context.Context, d time.Duration) error {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			return nil
		}
	}
)

const (
	backoffStart   = 150 * time.Millisecond
	backoffCeiling = 2 * time.Second
)

// utcSessions pins the session zone so ledger timestamps render the same on every host
func utcSessions(pc *pgxpool.Config) { pc.ConnConfig.RuntimeParams["timezone"] = "UTC" }

// openPG opens the pool and pings it until healthy or out of attempts
// the adapter is published only after a successful ping
func openPG(ctx context.Context, cfg Config, s *Store) (TxRunner, error) {
	var tracer pg.QueryTracer
	if cfg.PG.LogSQL {
		tracer = pg.Tracer(s.Log)
	}

	p, err := openPool(ctx, pg.Config{
		URL:      cfg.PG.URL,
		AppName:  cfg.AppName,
		MaxConns: cfg.PG.MaxConns,
		IdleTime: cfg.PG.IdleTime,
		SlowMs:   cfg.PG.SlowQueryMs,
	}, tracer, utcSessions)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "postgres config")
	}

	attempts := cfg.PG.retries()
	backoff := backoffStart
	var lastErr error
	for i := 0; i < attempts; i++ {
		toCtx, cancel := context.WithTimeout(ctx, cfg.PG.pingTimeout())
		lastErr = pingPool(toCtx, p)
		cancel()
		if lastErr == nil {
			return newPGAdapter(p), nil
		}

		s.Log.Warn().Err(lastErr).Int("attempt", i+1).Int("max", attempts).Msg("postgres ping failed")
		if i == attempts-1 {
			break
		}
		if err := sleep(ctx, backoff); err != nil {
			p.Close()
			return nil, err
		}
		backoff = min(backoff*2, backoffCeiling)
	}

	p.Close()
	return nil, perr.Wrapf(lastErr, perr.ErrorCodeUnavailable, "postgres ping failed after %d attempts", attempts)
}
