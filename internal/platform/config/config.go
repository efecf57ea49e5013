// Package config reads typed settings from environment variables
// a bad value never stops the process here; it logs a warning and falls back,
// and struct level validation decides what is fatal
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"nhldata/internal/platform/config/raw"
	"nhldata/internal/platform/logger"
)

// Conf reads env vars under a prefix, e.g. New().Prefix("CRAWL_S3_")
type Conf struct{ prefix string }

// New is the unprefixed root
func New() Conf { return Conf{} }

// Prefix nests p under the current prefix
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

func (c Conf) key(k string) string { return c.prefix + k }

// Key is the full env var name for key, for error messages
func (c Conf) Key(key string) string { return c.key(key) }

func (c Conf) env(key string) string { return strings.TrimSpace(os.Getenv(c.key(key))) }

// may parses key with parse; blank yields def, unparsable warns and yields def
func may[T any](c Conf, key string, def T, kind string, parse func(string) (T, error)) T {
	s := c.env(key)
	if s == "" {
		return def
	}
	v, err := parse(s)
	if err != nil {
		logger.Get().Warn().
			Str("key", c.key(key)).
			Str("value", s).
			Interface("default", def).
			Msgf("invalid %s; using default", kind)
		return def
	}
	return v
}

// MayString is the trimmed value, def when blank
func (c Conf) MayString(key, def string) string {
	if v := c.env(key); v != "" {
		return v
	}
	return def
}

// MayInt parses a base 10 int
func (c Conf) MayInt(key string, def int) int { return may(c, key, def, "int", strconv.Atoi) }

// MayFloat64 parses a float
func (c Conf) MayFloat64(key string, def float64) float64 {
	return may(c, key, def, "float64", func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

// MayBool accepts what strconv.ParseBool accepts
func (c Conf) MayBool(key string, def bool) bool { return may(c, key, def, "bool", strconv.ParseBool) }

// MayDuration parses a Go duration such as 250ms or 15m
func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	return may(c, key, def, "duration", time.ParseDuration)
}

// MayFirst is the first non-blank of keys, def when none is set
// keys resolve under this prefix, so current names go first and legacy names after
func (c Conf) MayFirst(def string, keys ...string) string {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	return raw.New().First(def, full...)
}

// MayEnum matches the value against allowed ignoring case and returns the lower cased match
// an unknown value warns and yields def
func (c Conf) MayEnum(key, def string, allowed ...string) string {
	v := c.MayString(key, def)
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return strings.ToLower(a)
		}
	}
	logger.Get().Warn().Str("key", c.key(key)).Str("value", v).Strs("allowed", allowed).Msg("invalid enum value; using default")
	return def
}
