// Package guardrails holds the time budgets of a crawl run
package guardrails

import (
	"context"
	"time"
)

// Timeouts is the budget bundle for a run and each game within it
// zero values mean no extra timeout at that level
type Timeouts struct {
	// Run caps the whole run including the schedule fetch
	Run time.Duration

	// Game is the overall budget for one game, fetch and both writes
	Game time.Duration

	// Fetch caps the box score fetch including client retries
	Fetch time.Duration

	// Store caps a single object write attempt
	Store time.Duration
}

// WithRun returns a context bounded by the run budget
func WithRun(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Run)
}

// WithGame returns a context limited by the game budget without extending any parent deadline
func WithGame(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Game)
}

// ForFetch returns a sub context for the fetch phase
func ForFetch(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Fetch)
}

// ForStore returns a sub context for one write attempt
func ForStore(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Store)
}

// Remaining returns the time until the deadline on ctx or zero when none is set or already expired
func Remaining(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			return d
		}
	}
	return 0
}

// withChildTimeout chooses the tighter of d and the parent remainder
// d <= 0 returns a cancelable child inheriting the parent deadline
func withChildTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	if rem := Remaining(parent); rem > 0 && rem < d {
		return context.WithTimeout(parent, rem)
	}
	return context.WithTimeout(parent, d)
}
