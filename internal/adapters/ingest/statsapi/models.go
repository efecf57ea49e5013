package statsapi

import "nhldata/internal/core/boxscore"

// Schedule is the decoded schedule for a date range, days in upstream order
type Schedule struct {
	Days []Day
}

// Day is one calendar date of a schedule
type Day struct {
	Date  string
	Games []Game
}

// Game is one schedule entry
// Date is the first 10 characters of the upstream gameDate
type Game struct {
	ID       int64
	Date     string
	Season   string
	Type     string
	Status   string
	HomeTeam Team
	AwayTeam Team
}

// Team identifies a club
type Team struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Games flattens every day in order
func (s Schedule) Games() []Game {
	out := make([]Game, 0, s.TotalGames())
	for _, d := range s.Days {
		out = append(out, d.Games...)
	}
	return out
}

// TotalGames sums games across all days
func (s Schedule) TotalGames() int {
	n := 0
	for _, d := range s.Days {
		n += len(d.Games)
	}
	return n
}

// BoxScore is the two team sections of one game
type BoxScore struct {
	GameID int64            `json:"gameId"`
	Home   boxscore.TeamBox `json:"home"`
	Away   boxscore.TeamBox `json:"away"`
}

// wire types; pointers and nil maps mark absent sections

type wireSchedule struct {
	Dates []wireDate `json:"dates"`
}

type wireDate struct {
	Date  string     `json:"date"`
	Games []wireGame `json:"games"`
}

type wireGame struct {
	GamePk   *int64 `json:"gamePk"`
	GameType string `json:"gameType"`
	Season   string `json:"season"`
	GameDate string `json:"gameDate"`
	Status   struct {
		DetailedState string `json:"detailedState"`
	} `json:"status"`
	Teams struct {
		Home struct {
			Team Team `json:"team"`
		} `json:"home"`
		Away struct {
			Team Team `json:"team"`
		} `json:"away"`
	} `json:"teams"`
}

type wireBoxScore struct {
	Teams *struct {
		Home *wireTeam `json:"home"`
		Away *wireTeam `json:"away"`
	} `json:"teams"`
}

type wireTeam struct {
	Team struct {
		ID           int64  `json:"id"`
		Name         string `json:"name"`
		Abbreviation string `json:"abbreviation"`
	} `json:"team"`
	Players map[string]wirePlayer `json:"players"`
}

type wirePlayer struct {
	Person struct {
		ID       int64  `json:"id"`
		FullName string `json:"fullName"`
	} `json:"person"`
	JerseyNumber string `json:"jerseyNumber"`
	Position     struct {
		Abbreviation string `json:"abbreviation"`
	} `json:"position"`
	Stats struct {
		Skater *boxscore.SkaterStats `json:"skaterStats"`
		Goalie *boxscore.GoalieStats `json:"goalieStats"`
	} `json:"stats"`
}
