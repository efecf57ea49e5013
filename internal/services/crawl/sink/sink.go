// Package sink writes team box scores as CSV objects
package sink

import (
	"context"
	"strconv"
	"strings"

	"nhldata/internal/adapters/objstore"
	"nhldata/internal/core/boxscore"
	perr "nhldata/internal/platform/errors"
	"nhldata/internal/services/crawl/domain"
)

// Policy decides what happens when a key already exists
type Policy string

// Collision policies
const (
	PolicyOverwrite    Policy = "overwrite"
	PolicyFailOnExists Policy = "fail-on-exists"
)

// ParsePolicy accepts the two policy names, empty means overwrite
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyOverwrite:
		return PolicyOverwrite, nil
	case PolicyFailOnExists:
		return PolicyFailOnExists, nil
	}
	return "", perr.WithField(perr.InvalidArgf("collision policy %q: want overwrite or fail-on-exists", s), "collision")
}

// Key builds <prefix>/<date>/<gameId>_<side>_team.csv; an empty prefix drops the leading segment
func Key(prefix, date string, gameID int64, side domain.Side) string {
	var b strings.Builder
	if p := strings.Trim(prefix, "/"); p != "" {
		b.WriteString(p)
		b.WriteByte('/')
	}
	b.WriteString(date)
	b.WriteByte('/')
	b.WriteString(strconv.FormatInt(gameID, 10))
	b.WriteByte('_')
	b.WriteString(string(side))
	b.WriteString("_team.csv")
	return b.String()
}

// Sink implements domain.Sink over an objstore.Store
type Sink struct {
	store  objstore.Store
	prefix string
	policy Policy
}

// New returns a Sink; an empty policy means overwrite
func New(store objstore.Store, prefix string, policy Policy) *Sink {
	if policy == "" {
		policy = PolicyOverwrite
	}
	return &Sink{store: store, prefix: prefix, policy: policy}
}

// WriteTeam serialises tb and puts it under the game key
// the key is returned even on failure so outcomes can name it
func (s *Sink) WriteTeam(ctx context.Context, g domain.Game, side domain.Side, tb boxscore.TeamBox) (string, error) {
	key := Key(s.prefix, g.Date, g.ID, side)
	body, err := boxscore.Marshal(tb)
	if err != nil {
		return key, err
	}
	return key, s.store.Put(ctx, key, body, objstore.PutOptions{IfAbsent: s.policy == PolicyFailOnExists})
}
