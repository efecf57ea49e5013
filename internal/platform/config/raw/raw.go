// Package raw reads env during bootstrap, before the logger exists
// it must not import logger or config
package raw

import (
	"os"
	"strconv"
	"strings"
)

// Conf reads env vars under a prefix such as "LOG_" or "CRAWL_"
type Conf struct{ prefix string }

// New is the unprefixed root
func New() Conf { return Conf{} }

// Prefix nests p under the current prefix
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

// lookup returns the trimmed value and whether it is non-blank
func (c Conf) lookup(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(c.prefix + key))
	return v, v != ""
}

// Get is the trimmed value of key, def when blank
func (c Conf) Get(key, def string) string {
	if v, ok := c.lookup(key); ok {
		return v
	}
	return def
}

// GetBool treats 1, true, yes and on as true in any case; any other set value is false
func (c Conf) GetBool(key string, def bool) bool {
	v, ok := c.lookup(key)
	if !ok {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// GetInt accepts unsigned decimals only; anything else yields def
func (c Conf) GetInt(key string, def int) int {
	v, ok := c.lookup(key)
	if !ok || v[0] == '-' || v[0] == '+' {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// First is the value of the first non-blank key, def when none is set
func (c Conf) First(def string, keys ...string) string {
	for _, k := range keys {
		if v, ok := c.lookup(k); ok {
			return v
		}
	}
	return def
}
