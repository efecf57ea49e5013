package pg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"nhldata/internal/platform/logger"

	"github.com/rs/zerolog"
)

func TestCompact(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"select 1", "select 1"},
		{"  select   1  ", " select 1 "},
		{"INSERT INTO crawl_games\n\t(run_id, game_id)\r\nVALUES ($1,  $2)", "INSERT INTO crawl_games (run_id, game_id) VALUES ($1, $2)"},
		{"", ""},
	}
	for i, c := range cases {
		if got := compact(c.in); got != c.want {
			t.Fatalf("case %d: compact(%q) = %q, want %q", i, c.in, got, c.want)
		}
	}
}

type logLine struct {
	Level     string  `json:"level"`
	ElapsedMS float64 `json:"elapsed_ms"`
	Slow      bool    `json:"slow"`
	SQL       string  `json:"sql"`
	Args      []any   `json:"args"`
	Error     string  `json:"error"`
	Message   string  `json:"message"`
	Component string  `json:"component"`
	RunID     string  `json:"run_id"`
}

func decode(t *testing.T, buf *bytes.Buffer) logLine {
	t.Helper()
	var l logLine
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &l); err != nil {
		t.Fatalf("unmarshal: %v\nraw=%s", err, buf.String())
	}
	buf.Reset()
	return l
}

func TestTracer_LevelsAndFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	// root at error proves the tracer forces debug
	tr := Tracer(zerolog.New(&buf).Level(zerolog.ErrorLevel))

	ctx := logger.WithRun(context.Background(), "run-1")
	ev := QueryEvent{
		SQL:       "SELECT  * \n FROM  crawl_runs\tWHERE id = $1",
		Args:      []any{1, "two"},
		ElapsedUS: 12345,
	}

	tr.OnQuery(ctx, ev)
	l := decode(t, &buf)
	if l.Level != "debug" || l.Component != "pg" || l.Message != "pg query" {
		t.Fatalf("unexpected debug line: %+v", l)
	}
	if math.Abs(l.ElapsedMS-12.345) > 0.0005 {
		t.Fatalf("elapsed_ms = %v", l.ElapsedMS)
	}
	if l.SQL != "SELECT * FROM crawl_runs WHERE id = $1" {
		t.Fatalf("sql not compacted: %q", l.SQL)
	}
	if len(l.Args) != 2 || l.RunID != "run-1" {
		t.Fatalf("args=%v run_id=%q", l.Args, l.RunID)
	}

	ev.Slow = true
	tr.OnQuery(context.Background(), ev)
	if l = decode(t, &buf); l.Level != "warn" || !l.Slow || l.RunID != "" {
		t.Fatalf("unexpected slow line: %+v", l)
	}

	ev.Err = errors.New("boom")
	tr.OnQuery(context.Background(), ev)
	if l = decode(t, &buf); l.Level != "error" || l.Error != "boom" {
		t.Fatalf("unexpected error line: %+v", l)
	}
}
