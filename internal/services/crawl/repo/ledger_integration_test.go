//go:build integration_pg
// +build integration_pg

package repo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"nhldata/internal/platform/store"
	"nhldata/internal/services/crawl/domain"

	"github.com/google/uuid"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	t.Cleanup(cancel)

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_DB":       "postgres",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections"),
			).WithDeadline(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("mapped port: %v", err)
	}
	return fmt.Sprintf("postgres://postgres:postgres@%s:%s/postgres?sslmode=disable", host, port.Port())
}

func TestLedger_Integration(t *testing.T) {
	dsn := startPostgres(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	st, err := store.Open(ctx, store.Config{AppName: "nhldata-ledger-it", PG: store.PGConfig{Enabled: true, URL: dsn}})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close(ctx)

	l := NewLedger(st.PG, nil)
	if err := l.EnsureSchema(ctx); err != nil {
		t.Fatalf("schema: %v", err)
	}
	// applying twice is a no op
	if err := l.EnsureSchema(ctx); err != nil {
		t.Fatalf("schema again: %v", err)
	}

	rng, _ := domain.ParseDateRange("20210113", "20210114")
	runID := uuid.NewString()
	start := time.Now().UTC()
	if err := l.StartRun(ctx, runID, rng, start); err != nil {
		t.Fatalf("start run: %v", err)
	}

	ok := domain.GameOutcome{GameID: 1, GameDate: "2021-01-13", FetchSucceeded: true, HomeStoreSucceeded: true, AwayStoreSucceeded: true, Stage: domain.StageDone}
	bad := domain.GameOutcome{GameID: 2, GameDate: "2021-01-14", Stage: domain.StageFetch, Err: errors.New("upstream 503")}
	for _, o := range []domain.GameOutcome{ok, bad, bad} {
		if err := l.RecordGame(ctx, runID, o); err != nil {
			t.Fatalf("record game %d: %v", o.GameID, err)
		}
	}

	sum := domain.RunSummary{RunID: runID, Range: rng, Outcomes: []domain.GameOutcome{ok, bad}, Started: start, Finished: time.Now().UTC()}
	sum.Tally()
	if err := l.FinishRun(ctx, sum, nil); err != nil {
		t.Fatalf("finish run: %v", err)
	}

	var status string
	var total, failed int
	if err := st.PG.QueryRow(ctx, `SELECT status, total, failed FROM crawl_runs WHERE run_id = $1`, runID).Scan(&status, &total, &failed); err != nil {
		t.Fatalf("read run: %v", err)
	}
	if status != "partial" || total != 2 || failed != 1 {
		t.Fatalf("run row = %s %d %d", status, total, failed)
	}

	var games int
	var errText string
	if err := st.PG.QueryRow(ctx, `SELECT count(*), max(error) FROM crawl_games WHERE run_id = $1`, runID).Scan(&games, &errText); err != nil {
		t.Fatalf("read games: %v", err)
	}
	if games != 2 || errText != "upstream 503" {
		t.Fatalf("games = %d err = %q", games, errText)
	}
}
