// Package module wires the crawl adapters and service from config
package module

import (
	"context"
	"net/http"

	"nhldata/internal/adapters/ingest/statsapi"
	"nhldata/internal/adapters/objstore"
	"nhldata/internal/adapters/objstore/s3"
	"nhldata/internal/modkit"
	perr "nhldata/internal/platform/errors"
	"nhldata/internal/platform/logger"
	"nhldata/internal/platform/validate"
	"nhldata/internal/services/crawl/domain"
	"nhldata/internal/services/crawl/guardrails"
	"nhldata/internal/services/crawl/ingest"
	"nhldata/internal/services/crawl/repo"
	"nhldata/internal/services/crawl/service"
	"nhldata/internal/services/crawl/sink"
)

// Ports defines the crawl module ports
type Ports struct {
	Runner domain.RunnerPort
}

// Overrides swap adapters through modkit.WithPorts; nil fields keep the real adapter
type Overrides struct {
	Store     objstore.Store
	Source    statsapi.Source
	Transport http.RoundTripper
}

// Module implements the crawl module
type Module struct {
	deps  modkit.Deps
	opts  Options
	built modkit.Built
	ports Ports
}

// New validates opts and builds the pipeline
// a configured store is probed before any game is fetched
func New(ctx context.Context, deps modkit.Deps, opts Options, mods ...modkit.Option) (*Module, error) {
	if err := validate.Struct(opts); err != nil {
		// bad env is a run fault, not a usage error
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "crawl options")
	}
	policy, err := sink.ParsePolicy(opts.Collision)
	if err != nil {
		return nil, err
	}

	var closers []modkit.Option
	release := func() {
		_ = modkit.Build(closers...).Close(context.WithoutCancel(ctx))
	}

	b := modkit.Build(mods...)
	ov, _ := modkit.PortsAs[Overrides](b)
	log := logger.Named("crawl")

	api := ov.Source
	if api == nil {
		client := statsapi.NewClient(statsapi.Options{
			BaseURL:     opts.BaseURL,
			Timeout:     opts.Timeout,
			MaxAttempts: opts.MaxAttempts,
			RetryBase:   opts.RetryBase,
			RetryCap:    opts.RetryCap,
			RateLimit:   opts.RateLimit,
			Burst:       opts.Burst,
			Transport:   ov.Transport,
			OnAttempt: func(endpoint string, status int, _ error) {
				deps.Metrics.HTTPAttempt(endpoint, status)
			},
		})
		api = statsapi.NewAPI(client)
	}
	if opts.CacheURL != "" {
		rdb, err := statsapi.OpenRedis(ctx, opts.CacheURL)
		if err != nil {
			return nil, err
		}
		closers = append(closers, modkit.WithCloser(func(context.Context) error { return rdb.Close() }))
		api = statsapi.NewCachedSource(api, rdb, opts.CacheTTL)
		log.Info().Dur("ttl", opts.CacheTTL).Msg("crawl: box score cache enabled")
	}

	store := ov.Store
	if store == nil {
		s, err := s3.New(ctx, s3.Config{
			Bucket:    opts.Bucket,
			Region:    opts.Region,
			Endpoint:  opts.Endpoint,
			PathStyle: opts.PathStyle,
		})
		if err != nil {
			release()
			return nil, err
		}
		store = s
	}
	if p, ok := store.(objstore.Prober); ok && opts.Probe {
		if err := p.Probe(ctx); err != nil {
			release()
			return nil, err
		}
	}

	svcOpts := []service.Option{service.WithMetrics(deps.Metrics)}
	if deps.HasLedger() {
		led := repo.NewLedger(deps.PG, nil)
		if err := led.EnsureSchema(ctx); err != nil {
			release()
			return nil, err
		}
		svcOpts = append(svcOpts, service.WithLedger(led))
	}

	svc := service.New(
		ingest.NewSource(api),
		sink.New(store, opts.Prefix, policy),
		service.Config{
			Concurrency: opts.Concurrency,
			Timeouts: guardrails.Timeouts{
				Run:   opts.RunTimeout,
				Game:  opts.GameTimeout,
				Fetch: opts.FetchTimeout,
				Store: opts.StoreTimeout,
			},
			StoreRetries: opts.StoreRetries,
			RetryBase:    opts.RetryBase,
			RetryCap:     opts.RetryCap,
		},
		svcOpts...,
	)

	m := &Module{
		deps:  deps,
		opts:  opts,
		built: modkit.Build(append([]modkit.Option{modkit.WithName("crawl")}, closers...)...),
		ports: Ports{Runner: svc},
	}
	log.Debug().
		Str("bucket", opts.Bucket).
		Str("prefix", opts.Prefix).
		Str("collision", string(policy)).
		Bool("ledger", deps.HasLedger()).
		Msg("crawl: module ready")
	return m, nil
}

// Name returns the module name
func (m *Module) Name() string { return m.built.Name }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Runner returns the run port
func (m *Module) Runner() domain.RunnerPort { return m.ports.Runner }

// Options returns the validated options the module was built with
func (m *Module) Options() Options { return m.opts }

// Close releases the cache client
func (m *Module) Close(ctx context.Context) error { return m.built.Close(ctx) }

var _ modkit.Module = (*Module)(nil)
