// Package domain holds the types and ports of a crawl run
package domain

import (
	"time"

	"nhldata/internal/adapters/ingest/statsapi"
	"nhldata/internal/core/boxscore"
	perr "nhldata/internal/platform/errors"
)

// Upstream sentinels re-exported so the service need not import the adapter
var (
	ErrEmptySchedule   = statsapi.ErrEmptySchedule
	ErrMissingTeamData = statsapi.ErrMissingTeamData
)

const (
	// ArgLayout is the command line date form
	ArgLayout = "20060102"

	// DateLayout is the calendar date form used in keys and logs
	DateLayout = "2006-01-02"
)

// DateRange is an inclusive span of UTC calendar dates
// only NewDateRange and ParseDateRange build one, so start <= end always holds
type DateRange struct {
	start, end time.Time
}

// NewDateRange truncates both ends to UTC midnight and rejects start after end
func NewDateRange(start, end time.Time) (DateRange, error) {
	s, e := midnight(start), midnight(end)
	if s.After(e) {
		return DateRange{}, perr.WithField(
			perr.InvalidArgf("start %s is after end %s", s.Format(DateLayout), e.Format(DateLayout)),
			"start",
		)
	}
	return DateRange{start: s, end: e}, nil
}

// ParseDateRange parses two YYYYMMDD strings
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.ParseInLocation(ArgLayout, start, time.UTC)
	if err != nil {
		return DateRange{}, perr.WithField(perr.InvalidArgf("start date %q: want YYYYMMDD", start), "start")
	}
	e, err := time.ParseInLocation(ArgLayout, end, time.UTC)
	if err != nil {
		return DateRange{}, perr.WithField(perr.InvalidArgf("end date %q: want YYYYMMDD", end), "end")
	}
	return NewDateRange(s, e)
}

func midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Start is the first day of the range
func (r DateRange) Start() time.Time { return r.start }

// End is the last day of the range
func (r DateRange) End() time.Time { return r.end }

// Days counts calendar days in the range, zero for the zero value
func (r DateRange) Days() int {
	if r.start.IsZero() {
		return 0
	}
	return int(r.end.Sub(r.start).Hours()/24) + 1
}

func (r DateRange) String() string {
	return r.start.Format(DateLayout) + ".." + r.end.Format(DateLayout)
}

// Side names a team section of a box score
type Side string

// Sides in write order
const (
	SideHome Side = "home"
	SideAway Side = "away"
)

// Stage is where a game stopped
type Stage string

// Game stages
const (
	StageFetch     Stage = "fetch"
	StageExtract   Stage = "extract"
	StageWriteHome Stage = "write_home"
	StageWriteAway Stage = "write_away"
	StageDone      Stage = "done"
)

// Status is the derived result of one game
type Status string

// Game statuses
const (
	StatusOK      Status = "ok"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

// Game is one scheduled game; Date is YYYY-MM-DD
type Game struct {
	ID     int64
	Date   string
	Season string
	Type   string
	State  string
	Home   string
	Away   string
}

// BoxScore holds the two team sections of one game
type BoxScore struct {
	GameID int64
	Home   boxscore.TeamBox
	Away   boxscore.TeamBox
}

// Team returns the section for side
func (b BoxScore) Team(side Side) boxscore.TeamBox {
	if side == SideAway {
		return b.Away
	}
	return b.Home
}

// GameOutcome records what happened to one game
// FetchSucceeded means a box score with both team sections was obtained
type GameOutcome struct {
	GameID             int64
	GameDate           string
	FetchSucceeded     bool
	HomeStoreSucceeded bool
	AwayStoreSucceeded bool
	HomeKey            string
	AwayKey            string
	Stage              Stage
	Err                error
	Elapsed            time.Duration
}

// Status derives ok, partial or failed from the success flags
func (o GameOutcome) Status() Status {
	switch {
	case !o.FetchSucceeded:
		return StatusFailed
	case o.HomeStoreSucceeded && o.AwayStoreSucceeded:
		return StatusOK
	case o.HomeStoreSucceeded || o.AwayStoreSucceeded:
		return StatusPartial
	default:
		return StatusFailed
	}
}

// ErrText is Err as a string, empty when nil
func (o GameOutcome) ErrText() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// RunSummary is the accounting of one run; Outcomes follow schedule order
type RunSummary struct {
	RunID     string
	Range     DateRange
	Total     int
	Succeeded int
	Partial   int
	Failed    int
	Outcomes  []GameOutcome
	Started   time.Time
	Finished  time.Time
}

// Tally recomputes the counts from Outcomes
func (s *RunSummary) Tally() {
	s.Total = len(s.Outcomes)
	s.Succeeded, s.Partial, s.Failed = 0, 0, 0
	for _, o := range s.Outcomes {
		switch o.Status() {
		case StatusOK:
			s.Succeeded++
		case StatusPartial:
			s.Partial++
		default:
			s.Failed++
		}
	}
}

// Elapsed is the wall time of the run, zero until finished
func (s RunSummary) Elapsed() time.Duration {
	if s.Finished.IsZero() {
		return 0
	}
	return s.Finished.Sub(s.Started)
}

// Status summarises the run for the ledger
func (s RunSummary) Status() Status {
	switch {
	case s.Failed == 0 && s.Partial == 0:
		return StatusOK
	case s.Succeeded == 0 && s.Partial == 0:
		return StatusFailed
	default:
		return StatusPartial
	}
}
