package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	perr "nhldata/internal/platform/errors"
	"nhldata/internal/platform/store"
	"nhldata/internal/services/crawl/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockLedger(t *testing.T) (*Ledger, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewLedger(store.FromPool(mock, nil, -1), nil), mock
}

func expectTimeout(mock pgxmock.PgxPoolIface) {
	mock.ExpectBegin()
	mock.ExpectExec("SET LOCAL statement_timeout = 5000").
		WillReturnResult(pgxmock.NewResult("SET", 0))
}

func TestLedger_StartRun(t *testing.T) {
	l, mock := newMockLedger(t)
	rng, err := domain.ParseDateRange("20210113", "20210115")
	require.NoError(t, err)
	started := time.Date(2021, 1, 16, 4, 0, 0, 0, time.UTC)

	expectTimeout(mock)
	mock.ExpectExec("INSERT INTO crawl_runs").
		WithArgs("run-1", rng.Start(), rng.End(), started).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, l.StartRun(context.Background(), "run-1", rng, started))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_RecordGame(t *testing.T) {
	l, mock := newMockLedger(t)
	o := domain.GameOutcome{
		GameID:             7,
		GameDate:           "2021-01-13",
		FetchSucceeded:     true,
		HomeStoreSucceeded: true,
		HomeKey:            "2021-01-13/7_home_team.csv",
		AwayKey:            "2021-01-13/7_away_team.csv",
		Stage:              domain.StageWriteAway,
		Err:                errors.New("access denied"),
		Elapsed:            1500 * time.Millisecond,
	}

	expectTimeout(mock)
	mock.ExpectExec("INSERT INTO crawl_games").
		WithArgs("run-1", int64(7), "2021-01-13", "partial", "write_away",
			o.HomeKey, o.AwayKey, "access denied", 1500).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, l.RecordGame(context.Background(), "run-1", o))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_FinishRun(t *testing.T) {
	l, mock := newMockLedger(t)
	s := domain.RunSummary{RunID: "run-1", Total: 3, Succeeded: 2, Failed: 1, Finished: time.Date(2021, 1, 16, 4, 5, 0, 0, time.UTC)}

	expectTimeout(mock)
	mock.ExpectExec("UPDATE crawl_runs SET").
		WithArgs("run-1", s.Finished, "partial", 3, 2, 0, 1, "").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()
	require.NoError(t, l.FinishRun(context.Background(), s, nil))

	expectTimeout(mock)
	mock.ExpectExec("UPDATE crawl_runs SET").
		WithArgs("run-1", s.Finished, "error", 3, 2, 0, 1, "schedule unreachable").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()
	require.NoError(t, l.FinishRun(context.Background(), s, errors.New("schedule unreachable")))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_ErrorRollsBackAndMapsCode(t *testing.T) {
	l, mock := newMockLedger(t)

	expectTimeout(mock)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS crawl_runs").
		WillReturnError(&pgconn.PgError{Code: "42501", Message: "permission denied"})
	mock.ExpectRollback()

	err := l.EnsureSchema(context.Background())
	require.Error(t, err)
	assert.Equal(t, perr.ErrorCodeUnauthorized, perr.CodeOf(err))
	e, ok := perr.As(err)
	require.True(t, ok)
	assert.Equal(t, "ensure_schema", e.Op())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewLedger_NilDBPanics(t *testing.T) {
	assert.Panics(t, func() { NewLedger(nil, nil) })
}
