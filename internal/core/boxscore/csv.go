package boxscore

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"slices"
	"strconv"

	perr "nhldata/internal/platform/errors"
)

// column maps one CSV cell to a Player field
// get returns "" for cells that do not apply to the player's role
type column struct {
	name string
	get  func(p *Player) string
	set  func(p *Player, v string) error
}

func skater(p *Player) *SkaterStats { return p.Skater }
func goalie(p *Player) *GoalieStats { return p.Goalie }

var errForeignCell = errors.New("value set for a column outside the player's role")

// blank accepts only an empty cell for a role that has no such stat
func blank(v string) error {
	if v != "" {
		return errForeignCell
	}
	return nil
}

func intCol[B any](name string, block func(*Player) *B, field func(*B) *int) column {
	return column{
		name: name,
		get: func(p *Player) string {
			if b := block(p); b != nil {
				return strconv.Itoa(*field(b))
			}
			return ""
		},
		set: func(p *Player, v string) error {
			b := block(p)
			if b == nil {
				return blank(v)
			}
			n, err := strconv.Atoi(v)
			if err != nil {
				return err
			}
			*field(b) = n
			return nil
		},
	}
}

func strCol[B any](name string, block func(*Player) *B, field func(*B) *string) column {
	return column{
		name: name,
		get: func(p *Player) string {
			if b := block(p); b != nil {
				return *field(b)
			}
			return ""
		},
		set: func(p *Player, v string) error {
			b := block(p)
			if b == nil {
				return blank(v)
			}
			*field(b) = v
			return nil
		},
	}
}

// floatCol encodes nil as an empty cell and values in their shortest exact form
func floatCol[B any](name string, block func(*Player) *B, field func(*B) **float64) column {
	return column{
		name: name,
		get: func(p *Player) string {
			b := block(p)
			if b == nil || *field(b) == nil {
				return ""
			}
			return strconv.FormatFloat(**field(b), 'g', -1, 64)
		},
		set: func(p *Player, v string) error {
			b := block(p)
			if b == nil || v == "" {
				return blank(v)
			}
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return err
			}
			*field(b) = &f
			return nil
		},
	}
}

// shared joins the skater and goalie variants of a stat both blocks carry
func shared(s, g column) column {
	return column{
		name: s.name,
		get: func(p *Player) string {
			if p.Goalie != nil {
				return g.get(p)
			}
			return s.get(p)
		},
		set: func(p *Player, v string) error {
			if p.Goalie != nil {
				return g.set(p, v)
			}
			return s.set(p, v)
		},
	}
}

var identity = []column{
	{
		name: "full_name",
		get:  func(p *Player) string { return p.FullName },
		set:  func(p *Player, v string) error { p.FullName = v; return nil },
	},
	{
		name: "jersey_number",
		get:  func(p *Player) string { return p.JerseyNumber },
		set:  func(p *Player, v string) error { p.JerseyNumber = v; return nil },
	},
	{
		name: "position",
		get:  func(p *Player) string { return p.Position },
		set:  func(p *Player, v string) error { p.Position = v; return nil },
	},
}

var stats = []column{
	shared(
		strCol("time_on_ice", skater, func(s *SkaterStats) *string { return &s.TimeOnIce }),
		strCol("time_on_ice", goalie, func(g *GoalieStats) *string { return &g.TimeOnIce }),
	),
	shared(
		intCol("goals", skater, func(s *SkaterStats) *int { return &s.Goals }),
		intCol("goals", goalie, func(g *GoalieStats) *int { return &g.Goals }),
	),
	shared(
		intCol("assists", skater, func(s *SkaterStats) *int { return &s.Assists }),
		intCol("assists", goalie, func(g *GoalieStats) *int { return &g.Assists }),
	),
	shared(
		intCol("shots", skater, func(s *SkaterStats) *int { return &s.Shots }),
		intCol("shots", goalie, func(g *GoalieStats) *int { return &g.Shots }),
	),

	intCol("hits", skater, func(s *SkaterStats) *int { return &s.Hits }),
	intCol("power_play_goals", skater, func(s *SkaterStats) *int { return &s.PowerPlayGoals }),
	intCol("power_play_assists", skater, func(s *SkaterStats) *int { return &s.PowerPlayAssists }),
	intCol("penalty_minutes", skater, func(s *SkaterStats) *int { return &s.PenaltyMinutes }),
	intCol("faceoff_wins", skater, func(s *SkaterStats) *int { return &s.FaceOffWins }),
	intCol("faceoff_taken", skater, func(s *SkaterStats) *int { return &s.FaceoffTaken }),
	floatCol("faceoff_pct", skater, func(s *SkaterStats) **float64 { return &s.FaceOffPct }),
	intCol("takeaways", skater, func(s *SkaterStats) *int { return &s.Takeaways }),
	intCol("giveaways", skater, func(s *SkaterStats) *int { return &s.Giveaways }),
	intCol("short_handed_goals", skater, func(s *SkaterStats) *int { return &s.ShortHandedGoals }),
	intCol("short_handed_assists", skater, func(s *SkaterStats) *int { return &s.ShortHandedAssists }),
	intCol("blocked", skater, func(s *SkaterStats) *int { return &s.Blocked }),
	intCol("plus_minus", skater, func(s *SkaterStats) *int { return &s.PlusMinus }),
	strCol("even_time_on_ice", skater, func(s *SkaterStats) *string { return &s.EvenTimeOnIce }),
	strCol("power_play_time_on_ice", skater, func(s *SkaterStats) *string { return &s.PowerPlayTimeOnIce }),
	strCol("short_handed_time_on_ice", skater, func(s *SkaterStats) *string { return &s.ShortHandedTimeOnIce }),

	intCol("pim", goalie, func(g *GoalieStats) *int { return &g.PIM }),
	intCol("saves", goalie, func(g *GoalieStats) *int { return &g.Saves }),
	intCol("power_play_saves", goalie, func(g *GoalieStats) *int { return &g.PowerPlaySaves }),
	intCol("short_handed_saves", goalie, func(g *GoalieStats) *int { return &g.ShortHandedSaves }),
	intCol("even_saves", goalie, func(g *GoalieStats) *int { return &g.EvenSaves }),
	intCol("short_handed_shots_against", goalie, func(g *GoalieStats) *int { return &g.ShortHandedShotsAgainst }),
	intCol("even_shots_against", goalie, func(g *GoalieStats) *int { return &g.EvenShotsAgainst }),
	intCol("power_play_shots_against", goalie, func(g *GoalieStats) *int { return &g.PowerPlayShotsAgainst }),
	strCol("decision", goalie, func(g *GoalieStats) *string { return &g.Decision }),
	floatCol("save_pct", goalie, func(g *GoalieStats) **float64 { return &g.SavePercentage }),
	floatCol("power_play_save_pct", goalie, func(g *GoalieStats) **float64 { return &g.PowerPlaySavePercentage }),
	floatCol("even_strength_save_pct", goalie, func(g *GoalieStats) **float64 { return &g.EvenStrengthSavePercentage }),
}

// player_id and role lead every row; the role decides which stat cells are filled
const leading = 2

var header = func() []string {
	h := []string{"player_id", "role"}
	for _, c := range identity {
		h = append(h, c.name)
	}
	for _, c := range stats {
		h = append(h, c.name)
	}
	return h
}()

// Header returns the fixed CSV header
func Header() []string { return slices.Clone(header) }

// Marshal renders the team's players as CSV, one row per player sorted by id
// equal input always yields equal bytes
func Marshal(tb TeamBox) ([]byte, error) {
	ids := make([]int64, 0, len(tb.Players))
	for id := range tb.Players {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "csv header")
	}

	rec := make([]string, len(header))
	for _, id := range ids {
		p := tb.Players[id]
		if p.Skater != nil && p.Goalie != nil {
			return nil, perr.DataShapef("player %d has both skater and goalie stats", id)
		}
		if p.ID != 0 && p.ID != id {
			return nil, perr.DataShapef("player keyed %d carries id %d", id, p.ID)
		}

		rec[0] = strconv.FormatInt(id, 10)
		rec[1] = string(p.Role())
		i := leading
		for _, c := range identity {
			rec[i] = c.get(&p)
			i++
		}
		for _, c := range stats {
			rec[i] = c.get(&p)
			i++
		}
		if err := w.Write(rec); err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "csv row for player %d", id)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "csv flush")
	}
	return buf.Bytes(), nil
}

// Unmarshal parses Marshal output back into players keyed by id
func Unmarshal(b []byte) (map[int64]Player, error) {
	r := csv.NewReader(bytes.NewReader(b))
	r.FieldsPerRecord = len(header)
	r.ReuseRecord = true

	got, err := r.Read()
	if err == io.EOF {
		return nil, perr.DataShapef("csv: missing header")
	}
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeDataShape, "csv header")
	}
	if !slices.Equal(got, header) {
		return nil, perr.DataShapef("csv: unexpected header")
	}

	out := map[int64]Player{}
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeDataShape, "csv line %d", line)
		}
		p, err := decodeRow(rec)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeDataShape, "csv line %d", line)
		}
		if _, dup := out[p.ID]; dup {
			return nil, perr.DataShapef("csv line %d: duplicate player %d", line, p.ID)
		}
		out[p.ID] = p
	}
}

func decodeRow(rec []string) (Player, error) {
	id, err := strconv.ParseInt(rec[0], 10, 64)
	if err != nil {
		return Player{}, perr.Wrap(err, perr.ErrorCodeDataShape, "player_id")
	}
	p := Player{ID: id}
	switch Role(rec[1]) {
	case RoleSkater:
		p.Skater = &SkaterStats{}
	case RoleGoalie:
		p.Goalie = &GoalieStats{}
	case RoleScratch:
	default:
		return Player{}, perr.DataShapef("unknown role %q", rec[1])
	}

	i := leading
	for _, c := range identity {
		_ = c.set(&p, rec[i])
		i++
	}
	for _, c := range stats {
		if err := c.set(&p, rec[i]); err != nil {
			return Player{}, perr.Wrap(err, perr.ErrorCodeDataShape, c.name)
		}
		i++
	}
	return p, nil
}
