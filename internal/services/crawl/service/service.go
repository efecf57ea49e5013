// Package service runs a crawl over a date range
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"nhldata/internal/adapters/objstore"
	"nhldata/internal/core/boxscore"
	"nhldata/internal/platform/logger"
	"nhldata/internal/services/crawl/domain"
	"nhldata/internal/services/crawl/guardrails"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Config holds the knobs of a run
type Config struct {
	// Concurrency is the number of games in flight; <=0 -> 1
	Concurrency int

	// Timeouts bound the run, each game, each fetch and each write attempt
	Timeouts guardrails.Timeouts

	// StoreRetries is the attempts per write on transient storage errors; <=0 -> 1
	StoreRetries int

	// RetryBase and RetryCap shape the write backoff; <=0 -> 500ms and 30s
	RetryBase time.Duration
	RetryCap  time.Duration
}

// Service implements domain.RunnerPort
type Service struct {
	Source  domain.Source
	Sink    domain.Sink
	Ledger  domain.Ledger
	Metrics domain.Metrics
	Cfg     Config

	sleep  func(context.Context, time.Duration) error
	jitter func(int64) int64
	now    func() time.Time
	newID  func() string
}

// Option customises a Service
type Option func(*Service)

// WithLedger records runs and games; nil disables
func WithLedger(l domain.Ledger) Option { return func(s *Service) { s.Ledger = l } }

// WithMetrics records counters and stage durations; nil disables
func WithMetrics(m domain.Metrics) Option { return func(s *Service) { s.Metrics = m } }

// WithSleep replaces the ctx aware backoff sleep
func WithSleep(fn func(context.Context, time.Duration) error) Option {
	return func(s *Service) { s.sleep = fn }
}

// WithClock replaces time.Now
func WithClock(fn func() time.Time) Option { return func(s *Service) { s.now = fn } }

// WithRunID replaces the uuid run id generator
func WithRunID(fn func() string) Option { return func(s *Service) { s.newID = fn } }

// New constructs the crawl service
func New(src domain.Source, sink domain.Sink, cfg Config, opts ...Option) *Service {
	if src == nil {
		panic("crawl.Service requires a non nil Source")
	}
	if sink == nil {
		panic("crawl.Service requires a non nil Sink")
	}
	s := &Service{
		Source: src,
		Sink:   sink,
		Cfg:    cfg,
		sleep:  sleepCtx,
		jitter: rand.Int64N,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	if s.Metrics == nil {
		s.Metrics = nopMetrics{}
	}
	return s
}

// RunRange fetches the schedule for r and processes every game
// only a schedule failure or an interrupted run returns an error; game failures live in the summary
func (s *Service) RunRange(ctx context.Context, r domain.DateRange) (sum domain.RunSummary, retErr error) {
	sum = domain.RunSummary{RunID: s.newID(), Range: r, Started: s.now()}
	ctx = logger.WithRun(ctx, sum.RunID)
	ctx, cancel := guardrails.WithRun(ctx, s.Cfg.Timeouts)
	defer cancel()

	log := logger.C(ctx)
	log.Info().
		Str("start", r.Start().Format(domain.DateLayout)).
		Str("end", r.End().Format(domain.DateLayout)).
		Int("days", r.Days()).
		Int("concurrency", s.concurrency()).
		Msg("crawl: run start")

	s.ledgerStart(ctx, sum)
	defer func() {
		sum.Finished = s.now()
		s.Metrics.RunFinished(sum.Finished)
		s.ledgerFinish(ctx, sum, retErr)

		ev := log.Info()
		if retErr != nil {
			ev = log.Error().Err(retErr)
		}
		ev.Str("start", r.Start().Format(domain.DateLayout)).
			Str("end", r.End().Format(domain.DateLayout)).
			Int("total", sum.Total).
			Int("succeeded", sum.Succeeded).
			Int("partial", sum.Partial).
			Int("failed", sum.Failed).
			Dur("elapsed", sum.Elapsed()).
			Msg("crawl: run end")
	}()

	t0 := s.now()
	games, err := s.Source.Schedule(ctx, r)
	s.Metrics.Stage("schedule", s.now().Sub(t0))
	switch {
	case errors.Is(err, domain.ErrEmptySchedule):
		log.Info().Msg("crawl: schedule has no dates")
		return sum, nil
	case err != nil:
		return sum, fmt.Errorf("fetch schedule %s: %w", r, err)
	}
	log.Info().Int("games", len(games)).Msg("crawl: schedule fetched")

	sum.Outcomes = make([]domain.GameOutcome, len(games))
	var g errgroup.Group
	g.SetLimit(s.concurrency())
	for i, game := range games {
		if err := ctx.Err(); err != nil {
			sum.Outcomes[i] = s.finish(ctx, skipped(game, err))
			continue
		}
		g.Go(func() error {
			// a slot can open after the deadline
			if err := ctx.Err(); err != nil {
				sum.Outcomes[i] = s.finish(ctx, skipped(game, err))
				return nil
			}
			sum.Outcomes[i] = s.finish(ctx, s.runGame(ctx, game))
			return nil
		})
	}
	_ = g.Wait()
	sum.Tally()

	if err := ctx.Err(); err != nil {
		return sum, fmt.Errorf("run interrupted: %w", err)
	}
	return sum, nil
}

func (s *Service) concurrency() int { return max(s.Cfg.Concurrency, 1) }

func skipped(g domain.Game, err error) domain.GameOutcome {
	return domain.GameOutcome{GameID: g.ID, GameDate: g.Date, Stage: domain.StageFetch, Err: err}
}

// finish counts and records an outcome once it is final
func (s *Service) finish(ctx context.Context, o domain.GameOutcome) domain.GameOutcome {
	s.Metrics.Game(string(o.Status()))
	if s.Ledger != nil {
		if err := s.Ledger.RecordGame(context.WithoutCancel(ctx), logger.RunID(ctx), o); err != nil {
			logger.C(ctx).Warn().Err(err).Int64("game_id", o.GameID).Msg("crawl: ledger record game failed")
		}
	}
	return o
}

// runGame fetches one box score and writes both teams
func (s *Service) runGame(ctx context.Context, g domain.Game) (o domain.GameOutcome) {
	start := s.now()
	o = domain.GameOutcome{GameID: g.ID, GameDate: g.Date, Stage: domain.StageFetch}
	defer func() { o.Elapsed = s.now().Sub(start) }()

	ctx = logger.WithGame(ctx, g.ID)
	gctx, cancel := guardrails.WithGame(ctx, s.Cfg.Timeouts)
	defer cancel()
	log := logger.C(ctx)

	log.Info().Str("game_date", g.Date).Msg("crawl: fetch attempted")
	fctx, fcancel := guardrails.ForFetch(gctx, s.Cfg.Timeouts)
	t0 := s.now()
	bs, err := s.Source.BoxScore(fctx, g)
	fcancel()
	s.Metrics.Stage("fetch", s.now().Sub(t0))
	if err != nil {
		if errors.Is(err, domain.ErrMissingTeamData) {
			o.Stage = domain.StageExtract
		}
		o.Err = err
		log.Warn().Err(err).Str("stage", string(o.Stage)).Msg("crawl: fetch failed")
		return o
	}
	o.FetchSucceeded = true
	log.Info().
		Int("home_players", len(bs.Home.Players)).
		Int("away_players", len(bs.Away.Players)).
		Msg("crawl: fetch ok")

	// both writes run even when home fails
	var homeErr, awayErr error
	o.HomeKey, homeErr = s.write(gctx, g, domain.SideHome, bs.Home)
	o.HomeStoreSucceeded = homeErr == nil
	o.AwayKey, awayErr = s.write(gctx, g, domain.SideAway, bs.Away)
	o.AwayStoreSucceeded = awayErr == nil

	switch {
	case homeErr != nil:
		o.Stage = domain.StageWriteHome
		o.Err = errors.Join(homeErr, awayErr)
	case awayErr != nil:
		o.Stage = domain.StageWriteAway
		o.Err = awayErr
	default:
		o.Stage = domain.StageDone
	}
	return o
}

// write puts one team, retrying transient storage failures with capped backoff
func (s *Service) write(ctx context.Context, g domain.Game, side domain.Side, tb boxscore.TeamBox) (string, error) {
	stage := domain.StageWriteHome
	if side == domain.SideAway {
		stage = domain.StageWriteAway
	}
	log := logger.C(ctx).With().Str("stage", string(stage)).Logger()

	attempts := max(s.Cfg.StoreRetries, 1)
	var key string
	var last error
	for i := range attempts {
		sctx, cancel := guardrails.ForStore(ctx, s.Cfg.Timeouts)
		t0 := s.now()
		key, last = s.Sink.WriteTeam(sctx, g, side, tb)
		cancel()
		s.Metrics.Stage(string(stage), s.now().Sub(t0))
		if last == nil {
			s.Metrics.StoreWrite(string(side), "ok")
			log.Info().Str("key", key).Int("attempt", i+1).Msg("crawl: write ok")
			return key, nil
		}

		if !objstore.IsTransient(last) || i == attempts-1 || ctx.Err() != nil {
			break
		}
		d := s.backoff(i)
		log.Warn().Err(last).Str("key", key).Int("attempt", i+1).Dur("backoff", d).Msg("crawl: write retry")
		if err := s.sleep(ctx, d); err != nil {
			break
		}
	}

	result := "error"
	if k := objstore.KindOf(last); k != objstore.Unknown {
		result = k.String()
	}
	s.Metrics.StoreWrite(string(side), result)
	log.Error().Err(last).Str("key", key).Msg("crawl: write failed")
	return key, last
}

// backoff is min(base<<attempt, cap) with jitter in [d/2, d)
func (s *Service) backoff(attempt int) time.Duration {
	base := s.Cfg.RetryBase
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	ceiling := s.Cfg.RetryCap
	if ceiling <= 0 {
		ceiling = 30 * time.Second
	}
	d := ceiling
	if attempt < 32 {
		d = min(base<<attempt, ceiling)
	}
	half := int64(d / 2)
	if half <= 0 {
		return d
	}
	return time.Duration(half + s.jitter(half))
}

func (s *Service) ledgerStart(ctx context.Context, sum domain.RunSummary) {
	if s.Ledger == nil {
		return
	}
	if err := s.Ledger.StartRun(context.WithoutCancel(ctx), sum.RunID, sum.Range, sum.Started); err != nil {
		logger.C(ctx).Warn().Err(err).Msg("crawl: ledger start run failed")
	}
}

func (s *Service) ledgerFinish(ctx context.Context, sum domain.RunSummary, runErr error) {
	if s.Ledger == nil {
		return
	}
	if err := s.Ledger.FinishRun(context.WithoutCancel(ctx), sum, runErr); err != nil {
		logger.C(ctx).Warn().Err(err).Msg("crawl: ledger finish run failed")
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type nopMetrics struct{}

func (nopMetrics) Game(string)                 {}
func (nopMetrics) StoreWrite(string, string)   {}
func (nopMetrics) Stage(string, time.Duration) {}
func (nopMetrics) RunFinished(time.Time)       {}
