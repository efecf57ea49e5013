// Package ingest adapts the stats API to the crawl source port
package ingest

import (
	"context"

	"nhldata/internal/adapters/ingest/statsapi"
	"nhldata/internal/services/crawl/domain"
)

// source implements domain.Source over a statsapi.Source
type source struct {
	api statsapi.Source
}

// NewSource wraps api, which may be the plain API or the cached decorator
func NewSource(api statsapi.Source) domain.Source { return &source{api: api} }

// Schedule flattens every day of the range into games
func (s *source) Schedule(ctx context.Context, r domain.DateRange) ([]domain.Game, error) {
	sched, err := s.api.FetchSchedule(ctx, r.Start(), r.End())
	if err != nil {
		return nil, err
	}
	games := sched.Games()
	out := make([]domain.Game, 0, len(games))
	for _, g := range games {
		out = append(out, domain.Game{
			ID:     g.ID,
			Date:   g.Date,
			Season: g.Season,
			Type:   g.Type,
			State:  g.Status,
			Home:   g.HomeTeam.Name,
			Away:   g.AwayTeam.Name,
		})
	}
	return out, nil
}

// BoxScore fetches both team sections of g
// a cache-aware api also gets the schedule state of g
func (s *source) BoxScore(ctx context.Context, g domain.Game) (domain.BoxScore, error) {
	var (
		bs  statsapi.BoxScore
		err error
	)
	if fs, ok := s.api.(statsapi.FinalSource); ok {
		bs, err = fs.FetchGameBoxScore(ctx, g.ID, g.State)
	} else {
		bs, err = s.api.FetchBoxScore(ctx, g.ID)
	}
	if err != nil {
		return domain.BoxScore{}, err
	}
	return domain.BoxScore{GameID: g.ID, Home: bs.Home, Away: bs.Away}, nil
}
