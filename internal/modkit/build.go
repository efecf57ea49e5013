package modkit

import (
	"context"
	"errors"
)

// Built is a plain struct with the fields modules care about
type Built struct {
	Name    string
	Ports   any
	closers []func(context.Context) error
}

// Build applies Option funcs and returns a plain struct
func Build(opts ...Option) Built {
	var c buildCfg
	for _, o := range opts {
		o(&c)
	}
	return Built{
		Name:    c.name,
		Ports:   c.ports,
		closers: append([]func(context.Context) error(nil), c.closers...),
	}
}

// PortsAs returns the injected ports as T when present
func PortsAs[T any](b Built) (T, bool) {
	v, ok := b.Ports.(T)
	return v, ok
}

// Close runs registered closers last first and joins their errors
func (b Built) Close(ctx context.Context) error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
