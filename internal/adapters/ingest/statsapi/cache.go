package statsapi

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	perr "nhldata/internal/platform/errors"
	"nhldata/internal/platform/logger"

	"github.com/redis/go-redis/v9"
)

// Source is the pair of fetches the crawler needs; *API satisfies it
type Source interface {
	FetchSchedule(ctx context.Context, start, end time.Time) (Schedule, error)
	FetchBoxScore(ctx context.Context, gameID int64) (BoxScore, error)
}

// FinalSource fetches a box score knowing the game's schedule state
// *CachedSource implements it so only finished games are stored
type FinalSource interface {
	FetchGameBoxScore(ctx context.Context, gameID int64, state string) (BoxScore, error)
}

const cacheKeyPrefix = "nhldata:boxscore:"

// IsFinal reports whether a schedule detailedState marks a finished game
func IsFinal(state string) bool {
	st := strings.ToLower(strings.TrimSpace(state))
	return strings.HasPrefix(st, "final") || st == "game over"
}

// CachedSource caches decoded box scores of finished games in redis
// schedules and unfinished games are never stored since their stats still move
// cache failures are logged and bypassed, never returned
type CachedSource struct {
	inner Source
	rdb   redis.Cmdable
	ttl   time.Duration
	log   logger.Logger
}

// NewCachedSource wraps inner; a zero ttl keeps entries until evicted
func NewCachedSource(inner Source, rdb redis.Cmdable, ttl time.Duration) *CachedSource {
	return &CachedSource{
		inner: inner,
		rdb:   rdb,
		ttl:   ttl,
		log:   *logger.Named("statsapi_cache"),
	}
}

// OpenRedis parses a redis:// url and pings the server
func OpenRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		// bad env is a run fault, not a usage error
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "cache url")
	}
	c := redis.NewClient(opt)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.Ping(pctx).Err(); err != nil {
		_ = c.Close()
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "cache ping")
	}
	return c, nil
}

// FetchSchedule passes through
func (s *CachedSource) FetchSchedule(ctx context.Context, start, end time.Time) (Schedule, error) {
	return s.inner.FetchSchedule(ctx, start, end)
}

// FetchBoxScore serves from cache when present and never stores,
// since the game state is unknown here
func (s *CachedSource) FetchBoxScore(ctx context.Context, gameID int64) (BoxScore, error) {
	return s.FetchGameBoxScore(ctx, gameID, "")
}

// FetchGameBoxScore serves from cache when present, else fetches and
// stores the result when state is final
func (s *CachedSource) FetchGameBoxScore(ctx context.Context, gameID int64, state string) (BoxScore, error) {
	key := cacheKeyPrefix + strconv.FormatInt(gameID, 10)

	b, err := s.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var bs BoxScore
		if jerr := json.Unmarshal(b, &bs); jerr == nil && bs.GameID == gameID {
			s.log.Debug().Int64("game_id", gameID).Msg("boxscore cache hit")
			return bs, nil
		}
		s.log.Warn().Int64("game_id", gameID).Msg("boxscore cache entry unreadable, refetching")
	case errors.Is(err, redis.Nil):
	default:
		s.log.Warn().Err(err).Int64("game_id", gameID).Msg("boxscore cache get failed")
	}

	bs, err := s.inner.FetchBoxScore(ctx, gameID)
	if err != nil {
		return BoxScore{}, err
	}
	if !IsFinal(state) {
		return bs, nil
	}

	if enc, jerr := json.Marshal(bs); jerr == nil {
		if serr := s.rdb.Set(ctx, key, enc, s.ttl).Err(); serr != nil {
			s.log.Warn().Err(serr).Int64("game_id", gameID).Msg("boxscore cache set failed")
		}
	}
	return bs, nil
}
