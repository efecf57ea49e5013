package modkit

import "context"

// Option mutates build configuration for a module
type Option func(*buildCfg)

type buildCfg struct {
	name    string
	ports   any
	closers []func(context.Context) error
}

// WithName sets a module name used in logs
func WithName(name string) Option {
	return func(c *buildCfg) { c.name = name }
}

// WithPorts injects ports owned by the importing module
// tests use it to swap adapters for fakes
func WithPorts[T any](p T) Option {
	return func(c *buildCfg) { c.ports = p }
}

// WithCloser registers a release func run by Built.Close in reverse order
func WithCloser(fn func(context.Context) error) Option {
	return func(c *buildCfg) {
		if fn != nil {
			c.closers = append(c.closers, fn)
		}
	}
}
