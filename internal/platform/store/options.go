package store

import (
	perr "nhldata/internal/platform/errors"
	"nhldata/internal/platform/logger"
)

// Option mutates Store during Open
type Option func(*Store) error

// WithLogger sets the logger the pool and tracer report through
func WithLogger(log logger.Logger) Option {
	return func(s *Store) error {
		s.Log = log
		return nil
	}
}

// WithComponent replaces the component field stamped on store logs; defaults to "ledger"
func WithComponent(name string) Option {
	return func(s *Store) error {
		if name == "" {
			return perr.InvalidArgf("store component must not be empty")
		}
		s.component = name
		return nil
	}
}
