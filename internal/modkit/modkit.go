// Package modkit provides module wiring and core deps
package modkit

import "nhldata/internal/modkit/module"

// Module is the common surface for job modules wired by a command
type Module = module.Module

// MustPort resolves a port a command needs from a built module
func MustPort[T any](m Module) T { return module.MustPortsOf[T](m) }
