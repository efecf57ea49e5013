package statsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"nhldata/internal/core/boxscore"
	"nhldata/internal/core/normalize"
	perr "nhldata/internal/platform/errors"
)

// Data shape sentinels, compare with errors.Is
var (
	// ErrEmptySchedule means the range holds no dates; callers treat it as zero games
	ErrEmptySchedule = perr.New(perr.ErrorCodeDataShape, "statsapi: schedule has no dates")

	// ErrMissingTeamData means a box score lacks a team or its players section
	ErrMissingTeamData = perr.New(perr.ErrorCodeDataShape, "statsapi: box score missing team data")
)

const dateLayout = "2006-01-02"

// Getter is the transport the API needs; *Client satisfies it
type Getter interface {
	Get(ctx context.Context, path string, query url.Values) ([]byte, error)
}

// API knows the two endpoint shapes and decodes them into typed records
type API struct {
	c Getter
}

// NewAPI wraps a Getter
func NewAPI(c Getter) *API { return &API{c: c} }

// getJSON fetches path and decodes the body into T
func getJSON[T any](ctx context.Context, c Getter, path string, q url.Values) (T, error) {
	var out T
	b, err := c.Get(ctx, path, q)
	if err != nil {
		return out, err
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return out, perr.DataShapef("statsapi %s: empty body", path)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, perr.Wrapf(err, perr.ErrorCodeDataShape, "statsapi %s: decode", path)
	}
	return out, nil
}

// FetchSchedule returns every day and game between start and end inclusive
func (a *API) FetchSchedule(ctx context.Context, start, end time.Time) (Schedule, error) {
	q := url.Values{}
	q.Set("startDate", start.Format(dateLayout))
	q.Set("endDate", end.Format(dateLayout))

	w, err := getJSON[wireSchedule](ctx, a.c, "schedule", q)
	if err != nil {
		return Schedule{}, err
	}
	if len(w.Dates) == 0 {
		return Schedule{}, ErrEmptySchedule
	}

	s := Schedule{Days: make([]Day, 0, len(w.Dates))}
	for _, d := range w.Dates {
		day := Day{Date: d.Date, Games: make([]Game, 0, len(d.Games))}
		for i, g := range d.Games {
			if g.GamePk == nil {
				return Schedule{}, perr.DataShapef("statsapi schedule %s game %d: missing gamePk", d.Date, i)
			}
			if len(g.GameDate) < len(dateLayout) {
				return Schedule{}, perr.DataShapef("statsapi schedule game %d: bad gameDate %q", *g.GamePk, g.GameDate)
			}
			day.Games = append(day.Games, Game{
				ID:     *g.GamePk,
				Date:   g.GameDate[:len(dateLayout)],
				Season: g.Season,
				Type:   g.GameType,
				Status: g.Status.DetailedState,
				HomeTeam: Team{
					ID:   g.Teams.Home.Team.ID,
					Name: normalize.Label(g.Teams.Home.Team.Name),
				},
				AwayTeam: Team{
					ID:   g.Teams.Away.Team.ID,
					Name: normalize.Label(g.Teams.Away.Team.Name),
				},
			})
		}
		s.Days = append(s.Days, day)
	}
	return s, nil
}

// FetchBoxScore returns the home and away sections of one game
func (a *API) FetchBoxScore(ctx context.Context, gameID int64) (BoxScore, error) {
	path := fmt.Sprintf("game/%d/boxscore", gameID)
	w, err := getJSON[wireBoxScore](ctx, a.c, path, nil)
	if err != nil {
		return BoxScore{}, err
	}
	if w.Teams == nil || w.Teams.Home == nil || w.Teams.Away == nil {
		return BoxScore{}, fmt.Errorf("game %d: %w", gameID, ErrMissingTeamData)
	}

	home, err := teamBox(w.Teams.Home)
	if err != nil {
		return BoxScore{}, fmt.Errorf("game %d home: %w", gameID, err)
	}
	away, err := teamBox(w.Teams.Away)
	if err != nil {
		return BoxScore{}, fmt.Errorf("game %d away: %w", gameID, err)
	}
	return BoxScore{GameID: gameID, Home: home, Away: away}, nil
}

func teamBox(w *wireTeam) (boxscore.TeamBox, error) {
	if w.Players == nil {
		return boxscore.TeamBox{}, ErrMissingTeamData
	}
	tb := boxscore.TeamBox{
		TeamID:   w.Team.ID,
		TeamName: normalize.Label(w.Team.Name),
		Abbrev:   normalize.Label(w.Team.Abbreviation),
		Players:  make(map[int64]boxscore.Player, len(w.Players)),
	}
	for key, wp := range w.Players {
		id, err := playerID(key, wp)
		if err != nil {
			return boxscore.TeamBox{}, err
		}
		tb.Players[id] = boxscore.Player{
			ID:           id,
			FullName:     normalize.Label(wp.Person.FullName),
			JerseyNumber: normalize.Label(wp.JerseyNumber),
			Position:     normalize.Label(wp.Position.Abbreviation),
			Skater:       cleanSkater(wp.Stats.Skater),
			Goalie:       cleanGoalie(wp.Stats.Goalie),
		}
	}
	return tb, nil
}

// text stat cells go through Label so line breaks cannot reach a CSV cell
func cleanSkater(st *boxscore.SkaterStats) *boxscore.SkaterStats {
	if st == nil {
		return nil
	}
	st.TimeOnIce = normalize.Label(st.TimeOnIce)
	st.EvenTimeOnIce = normalize.Label(st.EvenTimeOnIce)
	st.PowerPlayTimeOnIce = normalize.Label(st.PowerPlayTimeOnIce)
	st.ShortHandedTimeOnIce = normalize.Label(st.ShortHandedTimeOnIce)
	return st
}

func cleanGoalie(st *boxscore.GoalieStats) *boxscore.GoalieStats {
	if st == nil {
		return nil
	}
	st.TimeOnIce = normalize.Label(st.TimeOnIce)
	st.Decision = normalize.Label(st.Decision)
	return st
}

var errNoPlayerID = errors.New("player has no id")

// playerID prefers person.id and falls back to the ID<n> map key
func playerID(key string, wp wirePlayer) (int64, error) {
	if wp.Person.ID > 0 {
		return wp.Person.ID, nil
	}
	if n, err := strconv.ParseInt(strings.TrimPrefix(key, "ID"), 10, 64); err == nil && n > 0 {
		return n, nil
	}
	return 0, perr.Wrapf(errNoPlayerID, perr.ErrorCodeDataShape, "player key %q", key)
}
