// Package pg opens the pgx pool behind the run ledger
package pg

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config is the subset of pgxpool settings the ledger exposes
type Config struct {
	URL string

	// AppName is reported as application_name on every session; empty keeps the DSN value
	AppName string

	// MaxConns caps the pool; <=0 keeps the pgxpool default
	MaxConns int32

	// IdleTime closes connections idle longer than this; <=0 keeps the default
	IdleTime time.Duration

	// SlowMs is the threshold above which the tracer logs at warn
	SlowMs int
}

// PG bundles the pool with the tracer its statements report through
type PG struct {
	Pool   *pgxpool.Pool
	Tracer QueryTracer
	SlowMs int
}

var newPool = pgxpool.NewWithConfig

// Open parses cfg into a pool config, lets mut adjust it last and builds the pool
// pgxpool connects lazily, so a reachable server is not required here
func Open(ctx context.Context, cfg Config, tracer QueryTracer, mut func(*pgxpool.Config)) (*PG, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.AppName != "" {
		pcfg.ConnConfig.RuntimeParams["application_name"] = cfg.AppName
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if cfg.IdleTime > 0 {
		pcfg.MaxConnIdleTime = cfg.IdleTime
	}
	if mut != nil {
		mut(pcfg)
	}

	pool, err := newPool(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	return &PG{Pool: pool, Tracer: tracer, SlowMs: cfg.SlowMs}, nil
}

// Close releases the pool; safe on nil
func (p *PG) Close() {
	if p == nil || p.Pool == nil {
		return
	}
	p.Pool.Close()
}
