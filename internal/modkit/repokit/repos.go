// Package repokit carries the SQL seams and transaction helpers shared by ledger repos
package repokit

import (
	"context"

	perr "nhldata/internal/platform/errors"
	"nhldata/internal/platform/store"
)

// aliases keep repos off the store import
type (
	Queryer    = store.RowQuerier
	TxRunner   = store.TxRunner
	Rows       = store.Rows
	Row        = store.Row
	CommandTag = store.CommandTag
)

// TxAttempts bounds WithTx when postgres reports contention
const TxAttempts = 3

// WithTx runs fn in a transaction on tx and reruns the whole transaction on
// serialization failures, deadlocks and lock timeouts
// fn must be safe to repeat; ledger writes are upserts
func WithTx(ctx context.Context, tx TxRunner, fn func(q Queryer) error) error {
	var err error
	for range TxAttempts {
		err = tx.Tx(ctx, fn)
		if !perr.Retryable(err) || ctx.Err() != nil {
			return err
		}
	}
	return err
}
