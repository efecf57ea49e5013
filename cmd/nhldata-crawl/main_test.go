package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"nhldata/internal/adapters/objstore/memstore"
	"nhldata/internal/modkit"
	perr "nhldata/internal/platform/errors"
	kit "nhldata/internal/platform/testkit"
	crawlmod "nhldata/internal/services/crawl/module"
)

const scheduleBody = `{"totalGames": 2, "dates": [{"date": "2021-01-13", "games": [
  {"gamePk": 2020020001, "gameDate": "2021-01-13T22:00:00Z"},
  {"gamePk": 2020020002, "gameDate": "2021-01-13T23:00:00Z"}]}]}`

const boxBody = `{"teams": {
  "home": {"team": {"id": 5}, "players": {
    "ID8471215": {"person": {"id": 8471215, "fullName": "Evgeni Malkin"}, "jerseyNumber": "71",
      "position": {"abbreviation": "C"}, "stats": {"skaterStats": {"timeOnIce": "19:01"}}}}},
  "away": {"team": {"id": 4}, "players": {}}}}`

// fakeNHL answers the schedule with scheduleStatus and 404s game 2020020002
func fakeNHL(t *testing.T, scheduleStatus int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/schedule":
			if scheduleStatus != http.StatusOK {
				w.WriteHeader(scheduleStatus)
				return
			}
			_, _ = io.WriteString(w, scheduleBody)
		case strings.Contains(r.URL.Path, "2020020002"):
			http.NotFound(w, r)
		default:
			_, _ = io.WriteString(w, boxBody)
		}
	}))
	t.Cleanup(srv.Close)
	kit.Env(t, map[string]string{"CRAWL_API_BASE_URL": srv.URL, "CRAWL_HTTP_MAX_ATTEMPTS": "1"})
	return srv
}

func exec(t *testing.T, mem *memstore.Store, args ...string) (int, string, string) {
	t.Helper()
	var out, errb bytes.Buffer
	var mods []modkit.Option
	if mem != nil {
		mods = append(mods, modkit.WithPorts(crawlmod.Overrides{Store: mem}))
	}
	code := run(context.Background(), args, &out, &errb, mods...)
	return code, out.String(), errb.String()
}

func TestRun_UsageErrors(t *testing.T) {
	cases := map[string]struct {
		args []string
		want string
	}{
		"no args":        {nil, "accepts 2 arg(s), received 0"},
		"one arg":        {[]string{"20210113"}, "accepts 2 arg(s), received 1"},
		"three args":     {[]string{"20210113", "20210114", "20210115"}, "accepts 2 arg(s)"},
		"bad start":      {[]string{"2021-01-13", "20210114"}, "start"},
		"bad end":        {[]string{"20210113", "2021011"}, "end"},
		"reversed":       {[]string{"20210120", "20210113"}, "after"},
		"unknown flag":   {[]string{"--workers", "4", "20210113", "20210113"}, "unknown flag"},
		"bad flag value": {[]string{"--concurrency", "many", "20210113", "20210113"}, "invalid argument"},
		"concurrency":    {[]string{"--concurrency", "0", "20210113", "20210113"}, "1..64"},
		"collision":      {[]string{"--collision", "append", "20210113", "20210113"}, "collision"},
	}
	for name, c := range cases {
		code, _, stderr := exec(t, memstore.New(), c.args...)
		if code != perr.ExitUsage {
			t.Fatalf("%s: exit = %d, want %d (stderr %q)", name, code, perr.ExitUsage, stderr)
		}
		kit.MustContain(t, stderr, c.want)
	}
}

func TestRun_EnvFile(t *testing.T) {
	fakeNHL(t, http.StatusOK)
	dir := t.TempDir()
	path := filepath.Join(dir, "crawl.env")
	if err := os.WriteFile(path, []byte("CRAWL_SINK_PREFIX=fromfile\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// godotenv never overrides, so make sure the variable is unset and cleaned up
	kit.Unsetenv(t, "CRAWL_SINK_PREFIX")

	mem := memstore.New()
	if code, _, stderr := exec(t, mem, "--env-file", path, "20210113", "20210113"); code != perr.ExitOK {
		t.Fatalf("exit = %d, stderr %q", code, stderr)
	}
	kit.MustContain(t, mem.Keys()[0], "fromfile/2021-01-13/")

	code, _, stderr := exec(t, mem, "--env-file", filepath.Join(dir, "missing.env"), "20210113", "20210113")
	if code != perr.ExitUsage {
		t.Fatalf("missing env file exit = %d, want %d", code, perr.ExitUsage)
	}
	kit.MustContain(t, stderr, "missing.env")
}

func TestRun_Version(t *testing.T) {
	code, stdout, _ := exec(t, nil, "--version")
	if code != perr.ExitOK {
		t.Fatalf("exit = %d", code)
	}
	kit.MustContain(t, stdout, "nhldata-crawl dev")
}

func TestRun_PartialFailureExitsZero(t *testing.T) {
	fakeNHL(t, http.StatusOK)
	mem := memstore.New()

	code, stdout, stderr := exec(t, mem, "--prefix", "raw", "--concurrency", "2", "20210113", "20210113")
	if code != perr.ExitOK {
		t.Fatalf("exit = %d, stderr %q", code, stderr)
	}
	kit.MustContain(t, stdout, "partial total=2 succeeded=1 partial=0 failed=1")
	kit.MustContain(t, stdout, "STAGE")
	kit.MustContain(t, stdout, "2020020002")
	kit.MustContain(t, stdout, "status 404")

	keys := mem.Keys()
	want := []string{"raw/2021-01-13/2020020001_away_team.csv", "raw/2021-01-13/2020020001_home_team.csv"}
	if strings.Join(keys, ",") != strings.Join(want, ",") {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
}

func TestRun_ScheduleFailureIsFault(t *testing.T) {
	fakeNHL(t, http.StatusInternalServerError)
	code, _, stderr := exec(t, memstore.New(), "20210113", "20210113")
	if code != perr.ExitFault {
		t.Fatalf("exit = %d, want %d", code, perr.ExitFault)
	}
	kit.MustContain(t, stderr, "fetch schedule")
}

func TestRun_InvalidEnvIsFault(t *testing.T) {
	fakeNHL(t, http.StatusOK)
	t.Setenv("CRAWL_STORE_RETRIES", "0")
	code, _, stderr := exec(t, memstore.New(), "20210113", "20210113")
	if code != perr.ExitFault {
		t.Fatalf("exit = %d, want %d", code, perr.ExitFault)
	}
	kit.MustContain(t, stderr, "CRAWL_STORE_RETRIES")
}

func TestRun_PushesMetrics(t *testing.T) {
	fakeNHL(t, http.StatusOK)
	var pushes atomic.Int32
	var path atomic.Value
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pushes.Add(1)
		path.Store(r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer gw.Close()
	t.Setenv("CRAWL_METRICS_PUSH_URL", gw.URL)

	if code, _, stderr := exec(t, memstore.New(), "20210113", "20210113"); code != perr.ExitOK {
		t.Fatalf("exit = %d, stderr %q", code, stderr)
	}
	if pushes.Load() != 1 {
		t.Fatalf("pushes = %d, want 1", pushes.Load())
	}
	kit.MustContain(t, path.Load().(string), "/metrics/job/nhldata_crawl")
}

func TestRun_PanicIsFault(t *testing.T) {
	fakeNHL(t, http.StatusOK)
	var out, errb bytes.Buffer
	// a nil option panics inside module wiring
	code := run(context.Background(), []string{"20210113", "20210113"}, &out, &errb, modkit.Option(nil))
	if code != perr.ExitFault {
		t.Fatalf("exit = %d, want %d", code, perr.ExitFault)
	}
	kit.MustContain(t, errb.String(), "panic")
}
