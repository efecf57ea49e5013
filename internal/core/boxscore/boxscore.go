// Package boxscore holds the per-team player records of one game and their CSV form
package boxscore

// Role classifies a player row
type Role string

// Player roles
const (
	RoleSkater  Role = "skater"
	RoleGoalie  Role = "goalie"
	RoleScratch Role = "scratch"
)

// TeamBox is one side of a box score keyed by player id
type TeamBox struct {
	TeamID   int64            `json:"teamId"`
	TeamName string           `json:"teamName"`
	Abbrev   string           `json:"abbrev"`
	Players  map[int64]Player `json:"players"`
}

// Player is one roster entry; a player with neither stats block is a scratch
type Player struct {
	ID           int64        `json:"id"`
	FullName     string       `json:"fullName"`
	JerseyNumber string       `json:"jerseyNumber"`
	Position     string       `json:"position"`
	Skater       *SkaterStats `json:"skaterStats,omitempty"`
	Goalie       *GoalieStats `json:"goalieStats,omitempty"`
}

// Role derives the row role from which stats block is present
func (p Player) Role() Role {
	switch {
	case p.Goalie != nil:
		return RoleGoalie
	case p.Skater != nil:
		return RoleSkater
	default:
		return RoleScratch
	}
}

// SkaterStats mirrors the upstream skaterStats object
// FaceOffPct is absent for players who took no faceoffs
type SkaterStats struct {
	TimeOnIce            string   `json:"timeOnIce"`
	Assists              int      `json:"assists"`
	Goals                int      `json:"goals"`
	Shots                int      `json:"shots"`
	Hits                 int      `json:"hits"`
	PowerPlayGoals       int      `json:"powerPlayGoals"`
	PowerPlayAssists     int      `json:"powerPlayAssists"`
	PenaltyMinutes       int      `json:"penaltyMinutes"`
	FaceOffWins          int      `json:"faceOffWins"`
	FaceoffTaken         int      `json:"faceoffTaken"`
	FaceOffPct           *float64 `json:"faceOffPct,omitempty"`
	Takeaways            int      `json:"takeaways"`
	Giveaways            int      `json:"giveaways"`
	ShortHandedGoals     int      `json:"shortHandedGoals"`
	ShortHandedAssists   int      `json:"shortHandedAssists"`
	Blocked              int      `json:"blocked"`
	PlusMinus            int      `json:"plusMinus"`
	EvenTimeOnIce        string   `json:"evenTimeOnIce"`
	PowerPlayTimeOnIce   string   `json:"powerPlayTimeOnIce"`
	ShortHandedTimeOnIce string   `json:"shortHandedTimeOnIce"`
}

// GoalieStats mirrors the upstream goalieStats object
// the percentages are absent when the goalie faced no shots of that kind
type GoalieStats struct {
	TimeOnIce                  string   `json:"timeOnIce"`
	Assists                    int      `json:"assists"`
	Goals                      int      `json:"goals"`
	PIM                        int      `json:"pim"`
	Shots                      int      `json:"shots"`
	Saves                      int      `json:"saves"`
	PowerPlaySaves             int      `json:"powerPlaySaves"`
	ShortHandedSaves           int      `json:"shortHandedSaves"`
	EvenSaves                  int      `json:"evenSaves"`
	ShortHandedShotsAgainst    int      `json:"shortHandedShotsAgainst"`
	EvenShotsAgainst           int      `json:"evenShotsAgainst"`
	PowerPlayShotsAgainst      int      `json:"powerPlayShotsAgainst"`
	Decision                   string   `json:"decision"`
	SavePercentage             *float64 `json:"savePercentage,omitempty"`
	PowerPlaySavePercentage    *float64 `json:"powerPlaySavePercentage,omitempty"`
	EvenStrengthSavePercentage *float64 `json:"evenStrengthSavePercentage,omitempty"`
}
