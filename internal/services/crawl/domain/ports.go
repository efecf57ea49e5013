package domain

import (
	"context"
	"time"

	"nhldata/internal/core/boxscore"
)

// RunnerPort is the public port exposed by the crawl module
type RunnerPort interface {
	RunRange(ctx context.Context, r DateRange) (RunSummary, error)
}

// Source fetches the schedule and box scores
type Source interface {
	// Schedule returns every game of every day in r, in upstream order
	Schedule(ctx context.Context, r DateRange) ([]Game, error)

	// BoxScore returns both team sections of g
	BoxScore(ctx context.Context, g Game) (BoxScore, error)
}

// Sink persists one team section and returns the key written
type Sink interface {
	WriteTeam(ctx context.Context, g Game, side Side, tb boxscore.TeamBox) (string, error)
}

// Ledger records runs and games; failures are logged by the caller, never fatal
type Ledger interface {
	StartRun(ctx context.Context, runID string, r DateRange, started time.Time) error
	RecordGame(ctx context.Context, runID string, o GameOutcome) error
	FinishRun(ctx context.Context, s RunSummary, runErr error) error
}

// LedgerRepo is the per transaction store behind a Ledger
type LedgerRepo interface {
	EnsureSchema(ctx context.Context) error
	StartRun(ctx context.Context, runID string, r DateRange, started time.Time) error
	UpsertGame(ctx context.Context, runID string, o GameOutcome) error
	FinishRun(ctx context.Context, s RunSummary, errText string) error
}

// Metrics is the slice of the recorder the service uses
type Metrics interface {
	Game(status string)
	StoreWrite(side, result string)
	Stage(stage string, d time.Duration)
	RunFinished(at time.Time)
}
