package statsapi

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	perr "nhldata/internal/platform/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGetter serves canned bodies by path and records queries
type fakeGetter struct {
	bodies map[string]string
	err    error
	paths  []string
	query  url.Values
}

func (f *fakeGetter) Get(_ context.Context, path string, q url.Values) ([]byte, error) {
	f.paths = append(f.paths, path)
	f.query = q
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.bodies[path]), nil
}

const threeDaySchedule = `{
  "totalGames": 4,
  "dates": [
    {"date": "2021-01-13", "games": [
      {"gamePk": 2020020001, "gameType": "R", "season": "20202021", "gameDate": "2021-01-13T22:00:00Z",
       "status": {"detailedState": "Final"},
       "teams": {"away": {"team": {"id": 4, "name": "Philadelphia Flyers"}},
                 "home": {"team": {"id": 5, "name": "Pittsburgh Penguins"}}}},
      {"gamePk": 2020020002, "gameDate": "2021-01-14T00:30:00Z"}
    ]},
    {"date": "2021-01-14", "games": []},
    {"date": "2021-01-15", "games": [
      {"gamePk": 2020020010, "gameDate": "2021-01-15T23:00:00Z"},
      {"gamePk": 2020020011, "gameDate": "2021-01-16T02:00:00Z"}
    ]}
  ]
}`

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestFetchSchedule_AllDays(t *testing.T) {
	g := &fakeGetter{bodies: map[string]string{"schedule": threeDaySchedule}}
	s, err := NewAPI(g).FetchSchedule(context.Background(), day("2021-01-13"), day("2021-01-15"))
	require.NoError(t, err)

	assert.Equal(t, "2021-01-13", g.query.Get("startDate"))
	assert.Equal(t, "2021-01-15", g.query.Get("endDate"))
	require.Len(t, s.Days, 3)
	assert.Equal(t, 4, s.TotalGames())

	games := s.Games()
	require.Len(t, games, 4)
	ids := []int64{games[0].ID, games[1].ID, games[2].ID, games[3].ID}
	assert.Equal(t, []int64{2020020001, 2020020002, 2020020010, 2020020011}, ids)

	first := games[0]
	assert.Equal(t, "2021-01-13", first.Date)
	assert.Equal(t, "R", first.Type)
	assert.Equal(t, "Final", first.Status)
	assert.Equal(t, Team{ID: 5, Name: "Pittsburgh Penguins"}, first.HomeTeam)
	// the date comes from gameDate, not from the day bucket
	assert.Equal(t, "2021-01-14", games[1].Date)
}

func TestFetchSchedule_Empty(t *testing.T) {
	for _, body := range []string{`{"dates": []}`, `{"totalGames": 0}`} {
		g := &fakeGetter{bodies: map[string]string{"schedule": body}}
		_, err := NewAPI(g).FetchSchedule(context.Background(), day("2021-07-01"), day("2021-07-02"))
		require.ErrorIs(t, err, ErrEmptySchedule, body)
		assert.True(t, perr.IsCode(err, perr.ErrorCodeDataShape))
	}
}

func TestFetchSchedule_BadShapes(t *testing.T) {
	cases := map[string]string{
		"empty body":   ``,
		"not json":     `<html>`,
		"no gamePk":    `{"dates":[{"date":"2021-01-13","games":[{"gameDate":"2021-01-13T22:00:00Z"}]}]}`,
		"short date":   `{"dates":[{"date":"2021-01-13","games":[{"gamePk":1,"gameDate":"2021"}]}]}`,
		"wrong typing": `{"dates":"soon"}`,
	}
	for name, body := range cases {
		g := &fakeGetter{bodies: map[string]string{"schedule": body}}
		_, err := NewAPI(g).FetchSchedule(context.Background(), day("2021-01-13"), day("2021-01-13"))
		require.Error(t, err, name)
		assert.False(t, errors.Is(err, ErrEmptySchedule), name)
		assert.Equal(t, perr.ErrorCodeDataShape, perr.CodeOf(err), name)
	}
}

func TestFetchSchedule_TransportErrorPassesThrough(t *testing.T) {
	want := &HTTPError{URL: "x", Attempts: 5, Err: errors.New("dial tcp: refused")}
	g := &fakeGetter{err: want}
	_, err := NewAPI(g).FetchSchedule(context.Background(), day("2021-01-13"), day("2021-01-13"))
	var he *HTTPError
	require.ErrorAs(t, err, &he)
	assert.Same(t, want, he)
}

const boxScoreBody = `{
  "teams": {
    "away": {
      "team": {"id": 4, "name": "Philadelphia Flyers", "abbreviation": "PHI"},
      "players": {
        "ID8478439": {
          "person": {"id": 8478439, "fullName": "Travis Konecny"},
          "jerseyNumber": "11", "position": {"abbreviation": "R"},
          "stats": {"skaterStats": {"timeOnIce": "17:12", "assists": 1, "goals": 2, "shots": 5,
                                    "faceOffWins": 0, "faceoffTaken": 0, "plusMinus": 2}}
        },
        "ID8476883": {
          "person": {"fullName": "Carter Hart"},
          "jerseyNumber": "79", "position": {"abbreviation": "G"},
          "stats": {"goalieStats": {"timeOnIce": "60:00", "shots": 30, "saves": 27, "decision": "W",
                                    "savePercentage": 90.0}}
        },
        "ID8480000": {
          "person": {"id": 8480000, "fullName": "Scratch\u200b Player"},
          "jerseyNumber": "", "position": {"abbreviation": "N/A"}, "stats": {}
        }
      }
    },
    "home": {
      "team": {"id": 5, "name": "Pittsburgh Penguins", "abbreviation": "PIT"},
      "players": {}
    }
  }
}`

func TestFetchBoxScore(t *testing.T) {
	g := &fakeGetter{bodies: map[string]string{"game/2020020001/boxscore": boxScoreBody}}
	bs, err := NewAPI(g).FetchBoxScore(context.Background(), 2020020001)
	require.NoError(t, err)
	assert.Equal(t, []string{"game/2020020001/boxscore"}, g.paths)

	assert.EqualValues(t, 2020020001, bs.GameID)
	assert.Equal(t, "PHI", bs.Away.Abbrev)
	assert.EqualValues(t, 4, bs.Away.TeamID)
	require.Len(t, bs.Away.Players, 3)
	assert.Empty(t, bs.Home.Players)
	assert.NotNil(t, bs.Home.Players, "an empty players object is valid")

	tk := bs.Away.Players[8478439]
	require.NotNil(t, tk.Skater)
	assert.Nil(t, tk.Goalie)
	assert.Equal(t, 2, tk.Skater.Goals)
	assert.Nil(t, tk.Skater.FaceOffPct)

	// id recovered from the map key
	hart := bs.Away.Players[8476883]
	assert.EqualValues(t, 8476883, hart.ID)
	require.NotNil(t, hart.Goalie)
	require.NotNil(t, hart.Goalie.SavePercentage)
	assert.InDelta(t, 90.0, *hart.Goalie.SavePercentage, 1e-9)

	scratch := bs.Away.Players[8480000]
	assert.Equal(t, "Scratch Player", scratch.FullName)
	assert.Nil(t, scratch.Skater)
	assert.Nil(t, scratch.Goalie)
}

func TestFetchBoxScore_TextCellsFolded(t *testing.T) {
	body := `{"teams": {"away": {"players": {}}, "home": {
	  "team": {"id": 5, "abbreviation": " PIT\r\n"},
	  "players": {
	    "ID1": {"person": {"id": 1, "fullName": "A"}, "jerseyNumber": " 8\r\n", "position": {"abbreviation": "C\r\nW"},
	            "stats": {"skaterStats": {"timeOnIce": "18:00\r\n", "evenTimeOnIce": "15:\t00"}}},
	    "ID2": {"person": {"id": 2, "fullName": "B"}, "position": {"abbreviation": "G"},
	            "stats": {"goalieStats": {"timeOnIce": "60:00", "decision": "W\r\n"}}}
	  }}}}`
	g := &fakeGetter{bodies: map[string]string{"game/3/boxscore": body}}
	bs, err := NewAPI(g).FetchBoxScore(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, "PIT", bs.Home.Abbrev)
	sk := bs.Home.Players[1]
	assert.Equal(t, "C W", sk.Position)
	assert.Equal(t, "8", sk.JerseyNumber)
	require.NotNil(t, sk.Skater)
	assert.Equal(t, "18:00", sk.Skater.TimeOnIce)
	assert.Equal(t, "15: 00", sk.Skater.EvenTimeOnIce)
	gk := bs.Home.Players[2]
	require.NotNil(t, gk.Goalie)
	assert.Equal(t, "W", gk.Goalie.Decision)
}

func TestFetchBoxScore_MissingTeamData(t *testing.T) {
	cases := map[string]string{
		"no teams":     `{"copyright": "NHL"}`,
		"null teams":   `{"teams": null}`,
		"no home":      `{"teams": {"away": {"players": {}}}}`,
		"no away":      `{"teams": {"home": {"players": {}}}}`,
		"null players": `{"teams": {"home": {"players": null}, "away": {"players": {}}}}`,
		"no players":   `{"teams": {"home": {"players": {}}, "away": {"team": {"id": 4}}}}`,
	}
	for name, body := range cases {
		g := &fakeGetter{bodies: map[string]string{"game/7/boxscore": body}}
		_, err := NewAPI(g).FetchBoxScore(context.Background(), 7)
		require.ErrorIs(t, err, ErrMissingTeamData, name)
		assert.Contains(t, err.Error(), "game 7", name)
	}
}

func TestFetchBoxScore_PlayerWithoutID(t *testing.T) {
	body := `{"teams": {"home": {"players": {"nobody": {"person": {}}}}, "away": {"players": {}}}}`
	g := &fakeGetter{bodies: map[string]string{"game/7/boxscore": body}}
	_, err := NewAPI(g).FetchBoxScore(context.Background(), 7)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMissingTeamData))
	assert.Equal(t, perr.ErrorCodeDataShape, perr.CodeOf(err))
}
