package sink

import (
	"context"
	"testing"

	"nhldata/internal/adapters/objstore"
	"nhldata/internal/adapters/objstore/memstore"
	"nhldata/internal/core/boxscore"
	perr "nhldata/internal/platform/errors"
	"nhldata/internal/services/crawl/domain"
)

func TestKey(t *testing.T) {
	cases := []struct {
		prefix string
		side   domain.Side
		want   string
	}{
		{"", domain.SideHome, "2021-01-13/2020020001_home_team.csv"},
		{"nhl", domain.SideAway, "nhl/2021-01-13/2020020001_away_team.csv"},
		{"/raw/nhl/", domain.SideHome, "raw/nhl/2021-01-13/2020020001_home_team.csv"},
	}
	for _, c := range cases {
		if got := Key(c.prefix, "2021-01-13", 2020020001, c.side); got != c.want {
			t.Fatalf("Key(%q) = %q want %q", c.prefix, got, c.want)
		}
	}
}

func TestParsePolicy(t *testing.T) {
	for in, want := range map[string]Policy{"": PolicyOverwrite, "Overwrite": PolicyOverwrite, " fail-on-exists ": PolicyFailOnExists} {
		got, err := ParsePolicy(in)
		if err != nil || got != want {
			t.Fatalf("ParsePolicy(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParsePolicy("skip"); perr.CodeOf(err) != perr.ErrorCodeInvalidArgument {
		t.Fatalf("unknown policy should be invalid argument, got %v", err)
	}
}

func team() boxscore.TeamBox {
	return boxscore.TeamBox{Players: map[int64]boxscore.Player{
		8478439: {ID: 8478439, FullName: "Travis Konecny", Skater: &boxscore.SkaterStats{Goals: 2}},
	}}
}

func TestWriteTeam_RoundTrip(t *testing.T) {
	mem := memstore.New()
	s := New(mem, "", "")
	g := domain.Game{ID: 5, Date: "2021-01-13"}

	key, err := s.WriteTeam(context.Background(), g, domain.SideHome, team())
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	body, ok := mem.Get(key)
	if !ok {
		t.Fatalf("nothing stored at %s", key)
	}
	got, err := boxscore.Unmarshal(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got[8478439].Skater == nil || got[8478439].Skater.Goals != 2 {
		t.Fatalf("round trip lost data: %+v", got)
	}

	// overwrite policy replaces silently
	if _, err := s.WriteTeam(context.Background(), g, domain.SideHome, team()); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
}

func TestWriteTeam_FailOnExists(t *testing.T) {
	mem := memstore.New()
	s := New(mem, "nhl", PolicyFailOnExists)
	g := domain.Game{ID: 5, Date: "2021-01-13"}

	if _, err := s.WriteTeam(context.Background(), g, domain.SideAway, team()); err != nil {
		t.Fatalf("first write: %v", err)
	}
	key, err := s.WriteTeam(context.Background(), g, domain.SideAway, team())
	if objstore.KindOf(err) != objstore.Conflict {
		t.Fatalf("want conflict, got %v", err)
	}
	if key != "nhl/2021-01-13/5_away_team.csv" {
		t.Fatalf("key on failure = %q", key)
	}
}

func TestWriteTeam_MarshalErrorSkipsPut(t *testing.T) {
	mem := memstore.New()
	bad := boxscore.TeamBox{Players: map[int64]boxscore.Player{
		1: {ID: 2, FullName: "mismatched"},
	}}
	key, err := New(mem, "", "").WriteTeam(context.Background(), domain.Game{ID: 5, Date: "2021-01-13"}, domain.SideHome, bad)
	if perr.CodeOf(err) != perr.ErrorCodeDataShape {
		t.Fatalf("want data shape, got %v", err)
	}
	if mem.Attempts(key) != 0 {
		t.Fatalf("put attempted for unserialisable team")
	}
}
